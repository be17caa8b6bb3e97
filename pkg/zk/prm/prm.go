package zkprm

import (
	"crypto/rand"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/cmp-ecdsa/internal/params"
	"github.com/taurusgroup/cmp-ecdsa/pkg/hash"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/arith"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/sample"
	"github.com/taurusgroup/cmp-ecdsa/pkg/pedersen"
	"github.com/taurusgroup/cmp-ecdsa/pkg/pool"
)

type Public struct {
	N    *saferith.Modulus
	S, T *saferith.Nat
}

type Private struct {
	Lambda, Phi, P, Q *saferith.Nat
}

// Proof shows that s = tˡ (mod N) for some secret λ.
type Proof struct {
	As, Zs [params.StatParam]*saferith.Nat
}

func (p *Proof) IsValid(public Public) bool {
	if p == nil {
		return false
	}
	if !arith.IsValidNatModN(public.N, p.As[:]...) {
		return false
	}
	for _, z := range p.Zs {
		if z == nil {
			return false
		}
		if _, _, lt := z.CmpMod(public.N); lt != 1 {
			return false
		}
	}
	return true
}

// NewProof generates a proof that:
// s = t^lambda (mod N).
func NewProof(private Private, hash *hash.Hash, public Public, pl *pool.Pool) *Proof {
	lambda := private.Lambda
	phi := saferith.ModulusFromNat(private.Phi)

	n := arith.ModulusFromFactors(private.P, private.Q)

	var (
		as [params.StatParam]*saferith.Nat
		As [params.StatParam]*saferith.Nat
	)
	lockedRand := pool.NewLockedReader(rand.Reader)
	pl.Parallelize(params.StatParam, func(i int) any {
		// aᵢ ∈ mod ϕ(N)
		as[i] = sample.ModN(lockedRand, phi)

		// Aᵢ = tᵃ mod N
		As[i] = n.Exp(public.T, as[i])

		return nil
	})

	es, _ := challenge(hash, public, As)
	// Modular addition is not expensive enough to warrant parallelizing
	var Zs [params.StatParam]*saferith.Nat
	for i := 0; i < params.StatParam; i++ {
		z := as[i]
		// The challenge is public, so branching is ok
		if es[i] {
			z.ModAdd(z, lambda, phi)
		}
		Zs[i] = z
	}

	return &Proof{
		As: As,
		Zs: Zs,
	}
}

func (p *Proof) Verify(public Public, hash *hash.Hash, pl *pool.Pool) bool {
	if !p.IsValid(public) {
		return false
	}

	if err := pedersen.ValidateParameters(public.N, public.S, public.T); err != nil {
		return false
	}

	n, s, t := public.N, public.S, public.T

	es, err := challenge(hash, public, p.As)
	if err != nil {
		return false
	}

	one := new(saferith.Nat).SetUint64(1)
	verifications := pl.Parallelize(params.StatParam, func(i int) any {
		lhs := new(saferith.Nat)
		rhs := new(saferith.Nat)
		z := p.Zs[i]
		a := p.As[i]

		if a.Eq(one) == 1 {
			return false
		}

		lhs.Exp(t, z, n)
		if es[i] {
			rhs.ModMul(a, s, n)
		} else {
			rhs.SetNat(a)
		}

		if lhs.Eq(rhs) != 1 {
			return false
		}

		return true
	})
	for i := 0; i < len(verifications); i++ {
		ok, _ := verifications[i].(bool)
		if !ok {
			return false
		}
	}
	return true
}

func challenge(hash *hash.Hash, public Public, A [params.StatParam]*saferith.Nat) (es []bool, err error) {
	err = hash.WriteAny(public.N, public.S, public.T)
	for _, a := range A {
		_ = hash.WriteAny(a)
	}

	tmpBytes := make([]byte, params.StatParam)
	_, _ = io.ReadFull(hash.Digest(), tmpBytes)

	es = make([]bool, params.StatParam)
	for i := range es {
		b := (tmpBytes[i] & 1) == 1
		es[i] = b
	}

	return
}
