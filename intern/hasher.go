package intern

import (
	"bytes"

	"github.com/cespare/xxhash/v2"
)

// Hasher supplies content hashing and equality for interned values. Values
// that compare Equal must produce the same Hash.
type Hasher[V any] interface {
	Hash(v V) uint64
	Equal(a, b V) bool
}

// Bytes returns a Hasher for byte slices, hashing content with xxHash64.
func Bytes() Hasher[[]byte] { return bytesHasher{} }

type bytesHasher struct{}

func (bytesHasher) Hash(v []byte) uint64   { return xxhash.Sum64(v) }
func (bytesHasher) Equal(a, b []byte) bool { return bytes.Equal(a, b) }

// String returns a Hasher for strings, hashing content with xxHash64.
func String() Hasher[string] { return stringHasher{} }

type stringHasher struct{}

func (stringHasher) Hash(v string) uint64   { return xxhash.Sum64String(v) }
func (stringHasher) Equal(a, b string) bool { return a == b }

// Func adapts a hash function and an equality function into a Hasher, for
// value types the built-ins do not cover.
func Func[V any](hash func(V) uint64, eq func(a, b V) bool) Hasher[V] {
	return funcHasher[V]{hash: hash, eq: eq}
}

type funcHasher[V any] struct {
	hash func(V) uint64
	eq   func(a, b V) bool
}

func (f funcHasher[V]) Hash(v V) uint64   { return f.hash(v) }
func (f funcHasher[V]) Equal(a, b V) bool { return f.eq(a, b) }
