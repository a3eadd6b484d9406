package dataset

import (
	"fmt"
	"math"
	"math/rand"

	"convlab/domain/core"
	"convlab/domain/record"
	"convlab/internal/errors"
)

// Partition is a train/test split. Tables are independent copies.
type Partition struct {
	Train        *record.Table
	Test         *record.Table
	TrainIndices []int
	TestIndices  []int
	Seed         int64
}

// Split shuffles the table with seed and holds out testFraction of each
// Conversion class, so both partitions keep both classes when a class has at
// least two rows.
func Split(table *record.Table, testFraction float64, seed int64) (*Partition, error) {
	if testFraction <= 0 || testFraction >= 1 {
		return nil, errors.InvalidInput(fmt.Sprintf("test fraction %.3f must be in (0, 1)", testFraction))
	}
	if table.Len() < 2 {
		return nil, fmt.Errorf("%w: need at least 2 rows to split, got %d", core.ErrEmptyTable, table.Len())
	}

	rng := rand.New(rand.NewSource(seed))
	var train, test []int
	for _, stratum := range strata(table.Labels()) {
		shuffle(rng, stratum)
		if len(stratum) < 2 {
			train = append(train, stratum...)
			continue
		}
		n := int(math.Round(float64(len(stratum)) * testFraction))
		n = max(1, min(n, len(stratum)-1))
		test = append(test, stratum[:n]...)
		train = append(train, stratum[n:]...)
	}
	shuffle(rng, train)
	shuffle(rng, test)

	return &Partition{
		Train:        table.Subset(train),
		Test:         table.Subset(test),
		TrainIndices: train,
		TestIndices:  test,
		Seed:         seed,
	}, nil
}

// Fold is one cross-validation round: indices into the training rows.
type Fold struct {
	Train []int
	Test  []int
}

// KFold deals the rows of each class round-robin into k folds after a seeded
// shuffle, so every fold sees both classes whenever each class has k rows.
func KFold(labels []int, k int, seed int64) ([]Fold, error) {
	if k < 2 {
		return nil, errors.InvalidInput(fmt.Sprintf("need at least 2 folds, got %d", k))
	}
	if len(labels) < k {
		return nil, errors.InvalidInput(fmt.Sprintf("%d rows cannot fill %d folds", len(labels), k))
	}

	rng := rand.New(rand.NewSource(seed))
	assignment := make([]int, len(labels))
	next := 0
	for _, stratum := range strata(labels) {
		shuffle(rng, stratum)
		for _, idx := range stratum {
			assignment[idx] = next % k
			next++
		}
	}

	folds := make([]Fold, k)
	for idx, f := range assignment {
		for j := range folds {
			if j == f {
				folds[j].Test = append(folds[j].Test, idx)
			} else {
				folds[j].Train = append(folds[j].Train, idx)
			}
		}
	}
	return folds, nil
}

// strata groups row indices by label, negatives first.
func strata(labels []int) [][]int {
	var neg, pos []int
	for i, l := range labels {
		if l == 1 {
			pos = append(pos, i)
		} else {
			neg = append(neg, i)
		}
	}
	return [][]int{neg, pos}
}

func shuffle(rng *rand.Rand, s []int) {
	rng.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
}
