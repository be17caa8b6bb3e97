package ecdsa_test

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/cmp-ecdsa/pkg/ecdsa"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/curve"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/sample"
)

// sign produces a signature the same way the threshold protocol does: R = k⋅G, s = k⁻¹(m + r⋅x).
func sign(x curve.Scalar, hash []byte) ecdsa.Signature {
	group := curve.Secp256k1{}
	k := sample.ScalarUnit(rand.Reader, group)
	R := k.ActOnBase()
	r := R.XScalar()
	m := curve.FromHash(group, hash)
	kInv := group.NewScalar().Set(k).Invert()
	s := group.NewScalar().Set(r).Mul(x).Add(m).Mul(kInv)
	return ecdsa.Signature{R: R, S: s}
}

func TestSignature_Verify(t *testing.T) {
	group := curve.Secp256k1{}
	x, X := sample.ScalarPointPair(rand.Reader, group)
	hash := sha256.Sum256([]byte("hello"))
	other := sha256.Sum256([]byte("bye"))

	sig := sign(x, hash[:])
	assert.True(t, sig.Verify(X, hash[:]))
	assert.False(t, sig.Verify(X, other[:]))
	assert.False(t, sig.Verify(group.NewBasePoint(), hash[:]))

	negated := ecdsa.Signature{R: sig.R, S: group.NewScalar().Set(sig.S).Negate()}
	assert.True(t, negated.Verify(X, hash[:]), "-s is accepted as well")

	zero := ecdsa.Signature{R: sig.R, S: group.NewScalar()}
	assert.False(t, zero.Verify(X, hash[:]))
	assert.False(t, ecdsa.Signature{}.Verify(X, hash[:]))
}

func TestSignature_Oracle(t *testing.T) {
	group := curve.Secp256k1{}
	x, X := sample.ScalarPointPair(rand.Reader, group)
	compressed, err := X.MarshalBinary()
	require.NoError(t, err)
	pub, err := btcec.ParsePubKey(compressed)
	require.NoError(t, err)

	for i := 0; i < 16; i++ {
		hash := sha256.Sum256([]byte{byte(i)})
		sig := sign(x, hash[:])

		r, s, v, err := sig.Compact()
		require.NoError(t, err)
		var rMod, sMod btcec.ModNScalar
		require.False(t, rMod.SetByteSlice(r))
		require.False(t, sMod.SetByteSlice(s))
		assert.False(t, sMod.IsOverHalfOrder(), "s is normalized")
		assert.True(t, btcecdsa.NewSignature(&rMod, &sMod).Verify(hash[:], pub))

		// btcec's compact format: 27 + 4 (compressed key) + recovery id, then r and s
		compact := append([]byte{27 + 4 + v}, append(r, s...)...)
		recovered, wasCompressed, err := btcecdsa.RecoverCompact(compact, hash[:])
		require.NoError(t, err)
		assert.True(t, wasCompressed)
		assert.True(t, recovered.IsEqual(pub))

		ours, err := ecdsa.RecoverPublicKey(hash[:], r, s, v)
		require.NoError(t, err)
		assert.True(t, ours.Equal(X))

		eth, err := sig.SigEthereum()
		require.NoError(t, err)
		require.Len(t, eth, 65)
		assert.Equal(t, r, eth[:32])
		assert.Equal(t, s, eth[32:64])
		assert.Equal(t, v, eth[64])

		// a wrong recovery id recovers some other key
		wrong, err := ecdsa.RecoverPublicKey(hash[:], r, s, v^1)
		if err == nil {
			assert.False(t, wrong.Equal(X))
		}
	}
}

func TestSignature_Normalize(t *testing.T) {
	group := curve.Secp256k1{}
	x, X := sample.ScalarPointPair(rand.Reader, group)

	high := 0
	for i := 0; i < 16; i++ {
		hash := sha256.Sum256([]byte{byte(i)})
		sig := sign(x, hash[:])
		wasHigh := sig.S.IsOverHalfOrder()
		if wasHigh {
			high++
		}
		before, err := sig.SigEthereum()
		require.NoError(t, err)

		sig.Normalize()
		assert.False(t, sig.S.IsOverHalfOrder())
		assert.True(t, sig.Verify(X, hash[:]))
		v, err := sig.RecoveryID()
		require.NoError(t, err)
		assert.Equal(t, before[64], v, "the low-S form has the same recovery id")

		after, err := sig.SigEthereum()
		require.NoError(t, err)
		assert.Equal(t, before, after)

		r, s, v, err := sig.Compact()
		require.NoError(t, err)
		recovered, err := ecdsa.RecoverPublicKey(hash[:], r, s, v)
		require.NoError(t, err)
		assert.True(t, recovered.Equal(X))
	}
	t.Logf("%d of 16 signatures had a high s", high)
}

func TestRecoverPublicKey_Invalid(t *testing.T) {
	hash := sha256.Sum256([]byte("hello"))
	zero := make([]byte, 32)
	one := make([]byte, 32)
	one[31] = 1
	_, err := ecdsa.RecoverPublicKey(hash[:], zero, one, 0)
	assert.ErrorIs(t, err, ecdsa.ErrRecovery)
	_, err = ecdsa.RecoverPublicKey(hash[:], one, zero, 0)
	assert.ErrorIs(t, err, ecdsa.ErrRecovery)
	_, err = ecdsa.RecoverPublicKey(hash[:], one, one, 4)
	assert.ErrorIs(t, err, ecdsa.ErrRecovery)
	_, err = ecdsa.RecoverPublicKey(hash[:], one[:31], one, 0)
	assert.ErrorIs(t, err, ecdsa.ErrRecovery)
}

func TestEthereumAddress(t *testing.T) {
	group := curve.Secp256k1{}
	one := make([]byte, 32)
	one[31] = 1
	x := group.NewScalar()
	require.NoError(t, x.UnmarshalBinary(one))

	address, err := ecdsa.EthereumAddress(x.ActOnBase())
	require.NoError(t, err)
	assert.Equal(t, "7e5f4552091a69125d5dfcb7b8c2659029395bdf", hex.EncodeToString(address))

	_, err = ecdsa.EthereumAddress(group.NewPoint())
	assert.Error(t, err)
}
