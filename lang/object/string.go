package object

import "github.com/mna/loxvm/lang/value"

// String is an immutable, interned byte buffer. spec.md §3 requires at
// most one live String instance per byte sequence; interning itself is the
// gc package's responsibility (it owns the strings table), String only
// carries the precomputed hash that table needs.
type String struct {
	value.Header
	Chars string
	Hash  uint32
}

var _ value.Obj = (*String)(nil)

func (s *String) Kind() value.Kind { return value.KindString }
func (s *String) String() string   { return s.Chars }

// FNV1a32 computes the FNV-1a 32-bit hash spec.md §3 requires for String.
// In clox it seeds the open-addressed probe sequence; here neither table
// uses it (the interning table is keyed by the string's content and
// object.Table by the *String pointer, both hashed by
// github.com/dolthub/swiss), so it is stored only as the string's
// fingerprint.
func FNV1a32(s string) uint32 {
	const (
		offsetBasis uint32 = 2166136261
		prime       uint32 = 16777619
	)
	h := offsetBasis
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime
	}
	return h
}
