// Package zknth proves knowledge of an N-th root modulo N².
//
// It is the special case of zkenc where the ciphertext encrypts 0, and is used to show that a
// revealed value is the plaintext of a Paillier ciphertext without revealing its nonce.
package zknth

import (
	"crypto/rand"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/cmp-ecdsa/pkg/hash"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/arith"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/sample"
	"github.com/taurusgroup/cmp-ecdsa/pkg/paillier"
)

type Public struct {
	// N is the Paillier key whose modulus is used.
	N *paillier.PublicKey

	// R = r = ρᴺ (mod N²)
	R *saferith.Nat
}

type Private struct {
	// Rho = ρ
	Rho *saferith.Nat
}

type Commitment struct {
	// A = αᴺ (mod N²)
	A *saferith.Nat
}

type Proof struct {
	Commitment
	// Z = αρᵉ (mod N)
	Z *saferith.Nat
}

func (p *Proof) IsValid(public Public) bool {
	if p == nil {
		return false
	}
	if !arith.IsValidNatModN(public.N.N(), p.Z) {
		return false
	}
	if !arith.IsValidNatModN(public.N.ModulusSquared().Modulus, p.A) {
		return false
	}
	return true
}

// NewProof generates a proof that r = ρᴺ (mod N²).
func NewProof(hash *hash.Hash, public Public, private Private) *Proof {
	N := public.N.N()
	// α ← ℤₙˣ
	alpha := sample.UnitModN(rand.Reader, N)
	// A = αᴺ (mod N²)
	A := public.N.ModulusSquared().Exp(alpha, N.Nat())
	commitment := Commitment{A: A}

	e, _ := challenge(hash, public, commitment)
	// Z = αρᵉ (mod N)
	Z := public.N.Modulus().ExpI(private.Rho, e)
	Z.ModMul(Z, alpha, N)
	return &Proof{
		Commitment: commitment,
		Z:          Z,
	}
}

func (p *Proof) Verify(hash *hash.Hash, public Public) bool {
	if public.N == nil || !arith.IsValidNatModN(public.N.ModulusSquared().Modulus, public.R) {
		return false
	}
	if !p.IsValid(public) {
		return false
	}

	e, err := challenge(hash, public, p.Commitment)
	if err != nil {
		return false
	}

	// Zᴺ = A⋅Rᵉ (mod N²)
	NSquared := public.N.ModulusSquared()
	lhs := NSquared.Exp(p.Z, public.N.N().Nat())
	rhs := NSquared.ExpI(public.R, e)
	rhs.ModMul(rhs, p.A, NSquared.Modulus)
	return lhs.Eq(rhs) == 1
}

func challenge(hash *hash.Hash, public Public, commitment Commitment) (e *saferith.Int, err error) {
	err = hash.WriteAny(public.N, public.R, commitment.A)
	e = sample.IntervalL(hash.Digest())
	return
}
