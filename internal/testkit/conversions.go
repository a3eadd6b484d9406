// Package testkit generates synthetic conversion datasets for demos and tests.
package testkit

import (
	"fmt"
	"math"
	"math/rand"
	"path/filepath"
	"strconv"

	"convlab/adapters/tabular"
)

// Headers are deliberately not the canonical field names: input columns are
// mapped by position.
var Headers = []string{"site_id", "ad_format", "browser", "vendor", "metro_code", "os", "hours_since_impression"}

var (
	formats  = []string{"banner", "video", "native", "rich_media"}
	browsers = []string{"chrome", "safari", "firefox", "edge", "samsung"}
	vendors  = []string{"acme", "globex", "initech", "umbrella"}
	systems  = []string{"android", "ios", "windows", "macos", "linux", "chromeos", "tizen"}
)

// Dataset is a generated pair of input tables.
type Dataset struct {
	Conversions    *tabular.RawTable
	NonConversions *tabular.RawTable
}

type Config struct {
	Conversions    int
	NonConversions int
	Seed           int64
	Sites          int
	Metros         int

	// BlankRate is the share of categorical cells left empty.
	BlankRate float64
}

func DefaultConfig() Config {
	return Config{
		Conversions:    600,
		NonConversions: 1400,
		Seed:           42,
		Sites:          40,
		Metros:         25,
		BlankRate:      0.01,
	}
}

// Generate draws both tables from seed. Conversions skew towards video and
// iOS and happen sooner after the impression, so models have signal to find.
func Generate(cfg Config) (*Dataset, error) {
	if cfg.Conversions <= 0 || cfg.NonConversions <= 0 {
		return nil, fmt.Errorf("both row counts must be > 0")
	}
	if cfg.Sites <= 0 || cfg.Metros <= 0 {
		return nil, fmt.Errorf("sites and metros must be > 0")
	}
	if cfg.BlankRate < 0 || cfg.BlankRate >= 1 {
		return nil, fmt.Errorf("blank rate must be in [0, 1)")
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	g := &generator{cfg: cfg, rng: rng}

	return &Dataset{
		Conversions:    g.table("conversions", cfg.Conversions, true),
		NonConversions: g.table("non_conversions", cfg.NonConversions, false),
	}, nil
}

type generator struct {
	cfg Config
	rng *rand.Rand
}

func (g *generator) table(source string, n int, converted bool) *tabular.RawTable {
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = g.row(converted)
	}
	return &tabular.RawTable{Source: source, Headers: append([]string(nil), Headers...), Rows: rows}
}

func (g *generator) row(converted bool) []string {
	site := g.rng.Intn(g.cfg.Sites) + 1
	metro := 500 + g.rng.Intn(g.cfg.Metros)*3

	format := g.pick(formats)
	system := g.pick(systems)
	hours := g.rng.ExpFloat64() * 20
	if converted {
		if g.rng.Float64() < 0.35 {
			format = "video"
		}
		if g.rng.Float64() < 0.3 {
			system = "ios"
		}
		hours = g.rng.ExpFloat64() * 6
		// a few sites convert far better than the rest
		if site%7 == 0 {
			hours *= 0.5
		}
	}

	return []string{
		g.blankable(strconv.Itoa(site)),
		g.blankable(format),
		g.blankable(g.pick(browsers)),
		g.blankable(g.pick(vendors)),
		g.blankable(strconv.Itoa(metro)),
		g.blankable(system),
		fToStr(hours, 2),
	}
}

func (g *generator) pick(levels []string) string {
	return levels[g.rng.Intn(len(levels))]
}

func (g *generator) blankable(v string) string {
	if g.rng.Float64() < g.cfg.BlankRate {
		return ""
	}
	return v
}

// Write stores both tables in dir as conversions.<ext> and
// non_conversions.<ext>, ext being "csv" or "xlsx".
func Write(dir, ext string, ds *Dataset) (convPath, nonConvPath string, err error) {
	switch ext {
	case "csv", "xlsx":
	default:
		return "", "", fmt.Errorf("unsupported format: %s", ext)
	}
	convPath = filepath.Join(dir, "conversions."+ext)
	nonConvPath = filepath.Join(dir, "non_conversions."+ext)

	if err := tabular.Write(convPath, ds.Conversions); err != nil {
		return "", "", err
	}
	if err := tabular.Write(nonConvPath, ds.NonConversions); err != nil {
		return "", "", err
	}
	return convPath, nonConvPath, nil
}

func fToStr(x float64, decimals int) string {
	p := math.Pow10(decimals)
	x = math.Round(x*p) / p
	return strconv.FormatFloat(x, 'f', decimals, 64)
}
