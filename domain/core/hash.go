package core

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
)

// Hash is a hex-encoded SHA-256 digest.
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// HashWriter accumulates data for a Hash.
type HashWriter struct {
	h hash.Hash
}

func NewHashWriter() *HashWriter {
	return &HashWriter{h: sha256.New()}
}

// WriteField appends one field followed by a unit separator, so adjacent
// fields cannot run together.
func (w *HashWriter) WriteField(s string) {
	w.h.Write([]byte(s))
	w.h.Write([]byte{0x1f})
}

// EndRecord marks the end of a row.
func (w *HashWriter) EndRecord() {
	w.h.Write([]byte{0x1e})
}

func (w *HashWriter) Sum() Hash {
	return Hash(hex.EncodeToString(w.h.Sum(nil)))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// Short returns the first 12 hex digits for display.
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}
