package ecdsa

import (
	"errors"
	"fmt"

	"github.com/cronokirby/saferith"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/curve"
	"golang.org/x/crypto/sha3"
)

var (
	ErrUnsupportedCurve = errors.New("ecdsa: only secp256k1 points carry the coordinates needed here")
	ErrInvalidSignature = errors.New("ecdsa: invalid signature")
	ErrRecovery         = errors.New("ecdsa: public key recovery failed")
)

// affinePoint is implemented by points exposing their affine coordinates.
type affinePoint interface {
	XBytes() []byte
	HasEvenY() bool
}

// Signature is an ECDSA signature (R, S), where R is the full nonce point.
type Signature struct {
	R curve.Point
	S curve.Scalar
}

// EmptySignature returns a new signature with a given curve, ready to be unmarshalled.
func EmptySignature(group curve.Curve) Signature {
	return Signature{R: group.NewPoint(), S: group.NewScalar()}
}

// Verify is a custom signature format using curve data.
// It checks the usual ECDSA equation on the x coordinate, so it accepts both S and -S.
func (sig Signature) Verify(X curve.Point, hash []byte) bool {
	if sig.R == nil || sig.S == nil || X == nil || X.IsIdentity() || sig.R.IsIdentity() || sig.S.IsZero() {
		return false
	}
	group := X.Curve()

	r := sig.R.XScalar()
	if r.IsZero() {
		return false
	}
	m := curve.FromHash(group, hash)
	sInv := group.NewScalar().Set(sig.S).Invert()
	// u₁ = m⋅s⁻¹, u₂ = r⋅s⁻¹
	u1 := group.NewScalar().Set(m).Mul(sInv)
	u2 := group.NewScalar().Set(r).Mul(sInv)
	R2 := u1.ActOnBase().Add(u2.Act(X))
	if R2.IsIdentity() {
		return false
	}
	return R2.XScalar().Equal(r)
}

// Normalize replaces (R, S) by (-R, q-S) when S > q/2. Both pairs verify under the same key,
// and the normalized one is the form accepted by Bitcoin and Ethereum.
func (sig *Signature) Normalize() {
	if !sig.S.IsOverHalfOrder() {
		return
	}
	sig.S = sig.R.Curve().NewScalar().Set(sig.S).Negate()
	sig.R = sig.R.Negate()
}

// RecoveryID returns the recovery id of the low-S form of the signature.
// Bit 0 is the parity of the y coordinate of R, and bit 1 is set when the x coordinate of R exceeds the group order.
// When S is normalized to q-S, the nonce point becomes -R, which flips bit 0.
func (sig Signature) RecoveryID() (byte, error) {
	R, ok := sig.R.(affinePoint)
	if !ok {
		return 0, ErrUnsupportedCurve
	}
	if sig.R.IsIdentity() {
		return 0, ErrInvalidSignature
	}
	var v byte
	if !R.HasEvenY() {
		v |= 1
	}
	x := new(saferith.Nat).SetBytes(R.XBytes())
	if _, _, lt := x.CmpMod(sig.R.Curve().Order()); lt != 1 {
		v |= 2
	}
	if sig.S.IsOverHalfOrder() {
		v ^= 1
	}
	return v, nil
}

// Compact returns the 32 byte big-endian r and low-S s, together with the recovery id.
func (sig Signature) Compact() (r, s []byte, v byte, err error) {
	if sig.R == nil || sig.S == nil {
		return nil, nil, 0, ErrInvalidSignature
	}
	if v, err = sig.RecoveryID(); err != nil {
		return nil, nil, 0, err
	}
	if r, err = sig.R.XScalar().MarshalBinary(); err != nil {
		return nil, nil, 0, err
	}
	low := sig.R.Curve().NewScalar().Set(sig.S)
	if low.IsOverHalfOrder() {
		low.Negate()
	}
	if s, err = low.MarshalBinary(); err != nil {
		return nil, nil, 0, err
	}
	return r, s, v, nil
}

// SigEthereum returns the 65 byte signature r || s || v used by Ethereum, with a low s and v ∈ {0, 1, 2, 3}.
func (sig Signature) SigEthereum() ([]byte, error) {
	r, s, v, err := sig.Compact()
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, 65)
	out = append(out, r...)
	out = append(out, s...)
	return append(out, v), nil
}

// RecoverPublicKey returns the public key Q such that (r, s) is a valid signature of hash under Q,
// using the recovery id v to select the nonce point.
//
// Q = r⁻¹⋅(s⋅R - m⋅G).
func RecoverPublicKey(hash, r, s []byte, v byte) (curve.Point, error) {
	group := curve.Secp256k1{}
	if v > 3 || len(r) != 32 || len(s) != 32 {
		return nil, ErrRecovery
	}
	rScalar := group.NewScalar()
	if err := rScalar.UnmarshalBinary(r); err != nil || rScalar.IsZero() {
		return nil, ErrRecovery
	}
	sScalar := group.NewScalar()
	if err := sScalar.UnmarshalBinary(s); err != nil || sScalar.IsZero() {
		return nil, ErrRecovery
	}

	x := new(saferith.Nat).SetBytes(r)
	if v&2 != 0 {
		// the x coordinate of R was reduced modulo the group order
		x.Add(x, group.Order().Nat(), 257)
		if x.TrueLen() > 256 {
			return nil, ErrRecovery
		}
	}
	compressed := make([]byte, 33)
	compressed[0] = secp256k1.PubKeyFormatCompressedEven
	if v&1 != 0 {
		compressed[0] = secp256k1.PubKeyFormatCompressedOdd
	}
	x.FillBytes(compressed[1:])
	R := group.NewPoint()
	if err := R.UnmarshalBinary(compressed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecovery, err)
	}

	m := curve.FromHash(group, hash)
	rInv := group.NewScalar().Set(rScalar).Invert()
	Q := sScalar.Act(R).Sub(m.ActOnBase())
	Q = rInv.Act(Q)
	if Q.IsIdentity() {
		return nil, ErrRecovery
	}
	return Q, nil
}

// EthereumAddress returns the 20 byte address of a secp256k1 public key:
// the last 20 bytes of Keccak-256 over the uncompressed coordinates.
func EthereumAddress(public curve.Point) ([]byte, error) {
	if _, ok := public.(affinePoint); !ok || public.IsIdentity() {
		return nil, ErrUnsupportedCurve
	}
	compressed, err := public.MarshalBinary()
	if err != nil {
		return nil, err
	}
	key, err := secp256k1.ParsePubKey(compressed)
	if err != nil {
		return nil, err
	}
	h := sha3.NewLegacyKeccak256()
	// drop the 0x04 prefix of the uncompressed encoding
	_, _ = h.Write(key.SerializeUncompressed()[1:])
	return h.Sum(nil)[12:], nil
}
