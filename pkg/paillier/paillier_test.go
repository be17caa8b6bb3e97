package paillier_test

import (
	"crypto/rand"
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/cmp-ecdsa/internal/test"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/sample"
	"github.com/taurusgroup/cmp-ecdsa/pkg/paillier"
)

func secretKey(t *testing.T, i int) *paillier.SecretKey {
	t.Helper()
	p, q := test.SafePrimePair(i)
	return paillier.NewSecretKeyFromPrimes(p, q)
}

func equalInt(t *testing.T, want, got *saferith.Int) {
	t.Helper()
	assert.Equal(t, saferith.Choice(1), want.Eq(got), "want %v, got %v", want.Big(), got.Big())
}

func TestPaillier(t *testing.T) {
	sk := secretKey(t, 0)
	pk := sk.PublicKey
	require.NoError(t, paillier.ValidateN(pk.N()))

	for i := 0; i < 5; i++ {
		m1 := sample.IntervalLEps(rand.Reader)
		m2 := sample.IntervalLEps(rand.Reader)
		c := sample.IntervalL(rand.Reader)

		ct1, _ := pk.Enc(m1)
		ct2, _ := pk.Enc(m2)

		got, err := sk.Dec(ct1)
		require.NoError(t, err)
		equalInt(t, m1, got)

		sum := ct1.Clone().Add(pk, ct2)
		got, err = sk.Dec(sum)
		require.NoError(t, err)
		equalInt(t, new(saferith.Int).Add(m1, m2, -1), got)

		prod := ct1.Clone().Mul(pk, c)
		got, err = sk.Dec(prod)
		require.NoError(t, err)
		equalInt(t, new(saferith.Int).Mul(m1, c, -1), got)

		// Add and Mul mutate their receiver only
		got, err = sk.Dec(ct1)
		require.NoError(t, err)
		equalInt(t, m1, got)
	}
}

func TestDecWithRandomness(t *testing.T) {
	sk := secretKey(t, 1)
	m := sample.IntervalLEps(rand.Reader)
	ct, nonce := sk.Enc(m)

	gotM, gotNonce, err := sk.DecWithRandomness(ct)
	require.NoError(t, err)
	equalInt(t, m, gotM)
	assert.Equal(t, saferith.Choice(1), nonce.Eq(gotNonce))
	assert.True(t, ct.Equal(sk.EncWithNonce(m, gotNonce)))
}

func TestRandomize(t *testing.T) {
	sk := secretKey(t, 0)
	m := sample.IntervalL(rand.Reader)
	ct, _ := sk.Enc(m)
	randomized := ct.Clone()
	randomized.Randomize(sk.PublicKey, nil)
	assert.False(t, ct.Equal(randomized))

	got, err := sk.Dec(randomized)
	require.NoError(t, err)
	equalInt(t, m, got)
}

func TestValidateCiphertexts(t *testing.T) {
	sk := secretKey(t, 0)
	other := secretKey(t, 1)
	ct, _ := sk.Enc(new(saferith.Int).SetUint64(1))

	assert.True(t, sk.ValidateCiphertexts(ct))
	assert.False(t, sk.ValidateCiphertexts(ct, nil))
	assert.False(t, sk.ValidateCiphertexts(&paillier.Ciphertext{}))

	_, err := sk.Dec(nil)
	assert.Error(t, err)

	// a ciphertext under a larger modulus is out of range with high probability
	big, _ := other.Enc(new(saferith.Int).SetUint64(1))
	if !sk.ValidateCiphertexts(big) {
		_, err = sk.Dec(big)
		assert.Error(t, err)
	}
}

func TestValidatePrime(t *testing.T) {
	p, q := test.SafePrimePair(0)
	assert.NoError(t, paillier.ValidatePrime(p))
	assert.NoError(t, paillier.ValidatePrime(q))
	assert.ErrorIs(t, paillier.ValidatePrime(nil), paillier.ErrPrimeNil)
	assert.ErrorIs(t, paillier.ValidatePrime(new(saferith.Nat).SetUint64(7)), paillier.ErrPrimeBadLength)

	assert.ErrorIs(t, paillier.ValidateN(nil), paillier.ErrPaillierNil)
	assert.ErrorIs(t, paillier.ValidateN(saferith.ModulusFromUint64(15)), paillier.ErrPaillierLength)
}
