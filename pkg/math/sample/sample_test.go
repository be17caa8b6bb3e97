package sample

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/cmp-ecdsa/internal/params"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/arith"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/curve"
)

func TestModN(t *testing.T) {
	n := saferith.ModulusFromUint64(3 * 11 * 65519)
	x := ModN(rand.Reader, n)
	_, _, lt := x.CmpMod(n)
	assert.Equal(t, saferith.Choice(1), lt, "ModN generated a number >= %v: %v", n, x)
}

func TestUnitModN(t *testing.T) {
	n := saferith.ModulusFromUint64(3 * 11 * 65519)
	for i := 0; i < 100; i++ {
		x := UnitModN(rand.Reader, n)
		assert.Equal(t, saferith.Choice(1), x.IsUnit(n))
	}
}

func TestIntervals(t *testing.T) {
	for i := 0; i < 20; i++ {
		assert.True(t, arith.IsInIntervalLEps(IntervalLEps(rand.Reader)))
		assert.True(t, arith.IsInIntervalLPrimeEps(IntervalLPrimeEps(rand.Reader)))
		assert.LessOrEqual(t, IntervalL(rand.Reader).Abs().TrueLen(), params.L)
		assert.LessOrEqual(t, IntervalScalar(rand.Reader, curve.Secp256k1{}).Abs().TrueLen(), 256)
	}
}

func TestScalarPointPair(t *testing.T) {
	group := curve.Secp256k1{}
	x, X := ScalarPointPair(rand.Reader, group)
	assert.True(t, x.ActOnBase().Equal(X))
	assert.False(t, ScalarUnit(rand.Reader, group).IsZero())
}

const blumPrimeProbabilityIterations = 20

func TestBlumPrime(t *testing.T) {
	if testing.Short() {
		t.Skip("prime generation is slow")
	}
	p := BlumPrime(rand.Reader).Big()
	require.True(t, p.ProbablyPrime(blumPrimeProbabilityIterations), "BlumPrime generated a non prime number")
	q := new(big.Int).Rsh(p, 1)
	assert.True(t, q.ProbablyPrime(blumPrimeProbabilityIterations), "p isn't safe because (p - 1) / 2 isn't prime")
	assert.Equal(t, uint(3), p.Bit(0)+2*p.Bit(1))
}

// This exists to save the results of functions we want to benchmark, to avoid
// having them optimized away.
var resultNat *saferith.Nat

func BenchmarkModN(b *testing.B) {
	b.StopTimer()
	nBytes := make([]byte, (params.BitsPaillier+7)/8)
	_, _ = rand.Read(nBytes)
	n := saferith.ModulusFromBytes(nBytes)
	b.StartTimer()
	for i := 0; i < b.N; i++ {
		resultNat = ModN(rand.Reader, n)
	}
}

func TestQNR(t *testing.T) {
	// 7 and 11 are both 3 (mod 4)
	n := saferith.ModulusFromUint64(7 * 11)
	for i := 0; i < 20; i++ {
		w := QNR(rand.Reader, n)
		assert.Equal(t, -1, big.Jacobi(w.Big(), n.Big()))
	}
}
