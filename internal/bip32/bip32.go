package bip32

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/curve"
)

// HardenedOffset is the first index of a hardened child.
const HardenedOffset uint32 = 1 << 31

var (
	ErrHardened     = errors.New("bip32: hardened index needs the private key")
	ErrInvalidIndex = errors.New("bip32: index produces an invalid key")
	ErrChainKey     = errors.New("bip32: chain key must be 32 bytes")
)

// DeriveScalar uses a public point, chaining value, and index, to derive a scalar and chaining value.
//
// This scalar should be added to the secret key, and scalar⋅G to the public key.
//
// If ErrInvalidIndex is returned, this index is unusable and the next one should be used.
//
// See: https://github.com/bitcoin/bips/blob/master/bip-0032.mediawiki
func DeriveScalar(public curve.Point, chaining []byte, i uint32) (curve.Scalar, []byte, error) {
	if i >= HardenedOffset {
		return nil, nil, ErrHardened
	}
	if len(chaining) != 32 {
		return nil, nil, ErrChainKey
	}
	if public.IsIdentity() {
		return nil, nil, errors.New("bip32: public key is the identity")
	}
	compressed, err := public.MarshalBinary()
	if err != nil {
		return nil, nil, fmt.Errorf("bip32: %w", err)
	}

	h := hmac.New(sha512.New, chaining)
	_, _ = h.Write(compressed)
	var index [4]byte
	binary.BigEndian.PutUint32(index[:], i)
	_, _ = h.Write(index[:])
	out := h.Sum(nil)

	group := public.Curve()
	// parse₂₅₆(I_L) must be smaller than the group order
	tweak := new(saferith.Nat).SetBytes(out[:32])
	if _, _, lt := tweak.CmpMod(group.Order()); lt != 1 {
		return nil, nil, fmt.Errorf("index %d: %w", i, ErrInvalidIndex)
	}
	scalar := group.NewScalar().SetNat(tweak)
	if public.Add(scalar.ActOnBase()).IsIdentity() {
		return nil, nil, fmt.Errorf("index %d: %w", i, ErrInvalidIndex)
	}
	return scalar, out[32:], nil
}

// DerivePath applies DeriveScalar along every index of path, and returns the accumulated
// tweak together with the final chaining value.
func DerivePath(public curve.Point, chaining []byte, path Path) (curve.Scalar, []byte, error) {
	group := public.Curve()
	total := group.NewScalar()
	current := public
	for _, i := range path {
		tweak, next, err := DeriveScalar(current, chaining, i)
		if err != nil {
			return nil, nil, err
		}
		total.Add(tweak)
		current = current.Add(tweak.ActOnBase())
		chaining = next
	}
	return total, chaining, nil
}
