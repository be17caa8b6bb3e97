package hash

import (
	"bytes"
	"encoding"
	"errors"
	"fmt"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/cmp-ecdsa/internal/params"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/curve"
	"github.com/zeebo/blake3"
)

// DigestLengthBytes is the length of the output of Sum.
const DigestLengthBytes = params.SecBytes * 2 // 64

// Hash is the hash function we use for generating commitments, consuming CMP types, etc.
//
// Internally, this is a wrapper around blake3, which has an extendable output.
type Hash struct {
	h *blake3.Hasher
}

// New creates a Hash struct where the internal hash function is initialized with "CMP-BLAKE".
func New(initialData ...WriterToWithDomain) *Hash {
	hash := &Hash{h: blake3.New()}
	_, _ = hash.h.WriteString("CMP-BLAKE")
	for _, d := range initialData {
		_ = hash.WriteAny(d)
	}
	return hash
}

// Digest returns a reader for the current output of the function.
//
// This finalizes the current state of the hash, and returns what's
// essentially a stream of random bytes.
func (hash *Hash) Digest() io.Reader {
	return hash.h.Digest()
}

// Sum returns a slice of length DigestLengthBytes resulting from the current hash state.
// If a different length is required, use io.ReadFull(hash.Digest(), out) instead.
func (hash *Hash) Sum() []byte {
	out := make([]byte, DigestLengthBytes)
	if _, err := io.ReadFull(hash.Digest(), out); err != nil {
		panic(fmt.Sprintf("hash.Sum: internal hash failure: %v", err))
	}
	return out
}

// WriteAny takes many different data types and writes them to the hash state.
//
// Currently supported types:
//
//   - []byte
//   - *saferith.Nat
//   - *saferith.Int
//   - *saferith.Modulus
//   - curve.Point
//   - curve.Scalar
//   - hash.WriterToWithDomain
//   - encoding.BinaryMarshaler
//
// This function will apply its own domain separation for the first types.
// The last type already suggests which domain to use, and this function respects it.
func (hash *Hash) WriteAny(data ...interface{}) error {
	for _, d := range data {
		var (
			domain string
			raw    []byte
			err    error
		)
		switch t := d.(type) {
		case []byte:
			if t == nil {
				return errors.New("hash.WriteAny: nil []byte")
			}
			domain, raw = "[]byte", t
		case *saferith.Nat:
			if t == nil {
				return errors.New("hash.WriteAny: nil *saferith.Nat")
			}
			domain, raw = "saferith.Nat", t.Bytes()
		case *saferith.Int:
			if t == nil {
				return errors.New("hash.WriteAny: nil *saferith.Int")
			}
			domain = "saferith.Int"
			if raw, err = t.MarshalBinary(); err != nil {
				return fmt.Errorf("hash.WriteAny: %w", err)
			}
		case *saferith.Modulus:
			if t == nil {
				return errors.New("hash.WriteAny: nil *saferith.Modulus")
			}
			domain, raw = "saferith.Modulus", t.Bytes()
		case curve.Point:
			if t == nil {
				return errors.New("hash.WriteAny: nil curve.Point")
			}
			domain = "curve.Point"
			if raw, err = t.MarshalBinary(); err != nil {
				return fmt.Errorf("hash.WriteAny: %w", err)
			}
		case curve.Scalar:
			if t == nil {
				return errors.New("hash.WriteAny: nil curve.Scalar")
			}
			domain = "curve.Scalar"
			if raw, err = t.MarshalBinary(); err != nil {
				return fmt.Errorf("hash.WriteAny: %w", err)
			}
		case WriterToWithDomain:
			buf := new(bytes.Buffer)
			if _, err = t.WriteTo(buf); err != nil {
				return fmt.Errorf("hash.WriteAny: %s: %w", t.Domain(), err)
			}
			domain, raw = t.Domain(), buf.Bytes()
		case encoding.BinaryMarshaler:
			domain = "encoding.BinaryMarshaler"
			if raw, err = t.MarshalBinary(); err != nil {
				return fmt.Errorf("hash.WriteAny: %w", err)
			}
		default:
			return fmt.Errorf("hash.WriteAny: unsupported type %T", d)
		}
		if err = writeWithDomain(hash.h, domain, raw); err != nil {
			return fmt.Errorf("hash.WriteAny: %w", err)
		}
	}
	return nil
}

// Clone returns a copy of the Hash in its current state.
func (hash *Hash) Clone() *Hash {
	return &Hash{h: hash.h.Clone()}
}

// Fork clones this hash, and then writes some data.
//
// The data is only written to the clone, the receiver is left untouched.
func (hash *Hash) Fork(data ...interface{}) *Hash {
	newHash := hash.Clone()
	_ = newHash.WriteAny(data...)
	return newHash
}
