package keygen

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/cmp-ecdsa/internal/round"
	"github.com/taurusgroup/cmp-ecdsa/internal/test"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/curve"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/polynomial"
	"github.com/taurusgroup/cmp-ecdsa/pkg/party"
	"github.com/taurusgroup/cmp-ecdsa/pkg/pool"
	"github.com/taurusgroup/cmp-ecdsa/pkg/protocol"
	"github.com/taurusgroup/cmp-ecdsa/protocols/cmp/config"
)

var group = curve.Secp256k1{}

func run(t *testing.T, ids party.IDSlice, start func(id party.ID) protocol.StartFunc, rule test.Rule) ([]*protocol.Context, error) {
	t.Helper()
	contexts, err := test.NewContexts(ids, []byte(t.Name()), start)
	require.NoError(t, err)
	return contexts, test.Run(contexts, rule)
}

func results(t *testing.T, contexts []*protocol.Context) map[party.ID]*config.Config {
	t.Helper()
	configs := make(map[party.ID]*config.Config, len(contexts))
	for _, c := range contexts {
		require.True(t, c.IsFinished(), "party %s did not finish: %v", c.SelfID(), c.ErrorStack())
		res, err := c.Result()
		require.NoError(t, err)
		cfg, ok := res.(*config.Config)
		require.True(t, ok)
		configs[c.SelfID()] = cfg
	}
	return configs
}

// checkSharing verifies that every party holds the same public data, and that the
// secret shares of the first threshold parties interpolate to the public key.
func checkSharing(t *testing.T, configs map[party.ID]*config.Config, ids party.IDSlice, threshold int) {
	t.Helper()
	first := configs[ids[0]]
	public := first.PublicPoint()
	for _, id := range ids {
		c := configs[id]
		require.NoError(t, c.Validate())
		assert.Equal(t, threshold, c.Threshold)
		assert.True(t, public.Equal(c.PublicPoint()))
		assert.Equal(t, first.RID, c.RID)
		assert.Equal(t, first.ChainKey, c.ChainKey)
		for _, j := range ids {
			assert.True(t, first.Public[j].Equal(c.Public[j]))
		}
	}

	signers := ids[:threshold]
	lagrange := polynomial.Lagrange(group, signers)
	secret := group.NewScalar()
	for _, j := range signers {
		secret.Add(group.NewScalar().Set(lagrange[j]).Mul(configs[j].ECDSA))
	}
	assert.True(t, secret.ActOnBase().Equal(public))
}

func TestKeygen(t *testing.T) {
	if testing.Short() {
		t.Skip("generates Paillier keys")
	}
	pl := pool.NewPool(0)
	defer pl.TearDown()

	N, T := 3, 2
	ids := test.PartyIDs(N)
	contexts, err := run(t, ids, func(id party.ID) protocol.StartFunc {
		return StartKeygen(group, ids, T, id, pl)
	}, nil)
	require.NoError(t, err)
	configs := results(t, contexts)
	checkSharing(t, configs, ids, T)

	t.Run("refresh", func(t *testing.T) {
		refreshed, err := run(t, ids, func(id party.ID) protocol.StartFunc {
			return StartRefresh(configs[id].Minimal(), pl)
		}, nil)
		require.NoError(t, err)
		newConfigs := results(t, refreshed)
		checkSharing(t, newConfigs, ids, T)
		for _, id := range ids {
			before, after := configs[id], newConfigs[id]
			assert.True(t, before.PublicPoint().Equal(after.PublicPoint()), "refresh preserves the public key")
			assert.Equal(t, before.ChainKey, after.ChainKey, "refresh preserves the chain key")
			assert.False(t, before.ECDSA.Equal(after.ECDSA), "refresh replaces the share")
			assert.False(t, before.Paillier.PublicKey.Equal(after.Paillier.PublicKey), "refresh replaces the Paillier key")
			assert.NotEqual(t, before.RID, after.RID)
		}
	})
}

func TestRefresh_TrustedDealer(t *testing.T) {
	if testing.Short() {
		t.Skip("generates Paillier keys")
	}
	pl := pool.NewPool(0)
	defer pl.TearDown()

	N, T := 2, 1
	configs, ids := test.GenerateConfig(group, N, T, rand.Reader, pl)
	contexts, err := run(t, ids, func(id party.ID) protocol.StartFunc {
		return StartRefresh(configs[id].Minimal(), pl)
	}, nil)
	require.NoError(t, err)
	refreshed := results(t, contexts)
	checkSharing(t, refreshed, ids, T)
	assert.True(t, configs[ids[0]].PublicPoint().Equal(refreshed[ids[0]].PublicPoint()))
}

func TestKeygen_TamperedDecommitment(t *testing.T) {
	if testing.Short() {
		t.Skip("generates Paillier keys")
	}
	pl := pool.NewPool(0)
	defer pl.TearDown()

	ids := test.PartyIDs(2)
	cheater := ids[0]
	rule := test.RuleFunc(func(number round.Number, from, to party.ID, p2p, broadcast string) (string, string) {
		if number == 1 && from == cheater {
			flipped, err := test.FlipBit(broadcast, "Decommitment")
			assert.NoError(t, err)
			return p2p, flipped
		}
		return p2p, broadcast
	})
	contexts, err := run(t, ids, func(id party.ID) protocol.StartFunc {
		return StartKeygen(group, ids, 2, id, pl)
	}, rule)
	require.Error(t, err)

	honest := contexts[1]
	assert.True(t, honest.IsPoisoned())
	stack := honest.ErrorStack()
	require.Len(t, stack, 1)
	assert.Equal(t, protocol.CodeVerify, stack[0].Code)
	assert.Equal(t, []party.ID{cheater}, stack[0].Culprits)
	assert.ErrorIs(t, stack[0], errDecommit)
}

func TestRefresh_TamperedShare(t *testing.T) {
	if testing.Short() {
		t.Skip("generates Paillier keys")
	}
	pl := pool.NewPool(0)
	defer pl.TearDown()

	configs, ids := test.GenerateConfig(group, 3, 2, rand.Reader, pl)
	cheater := ids[0]
	rule := test.RuleFunc(func(number round.Number, from, to party.ID, p2p, broadcast string) (string, string) {
		if number == 2 && from == cheater {
			flipped, err := test.FlipBit(p2p, "Share")
			assert.NoError(t, err)
			return flipped, broadcast
		}
		return p2p, broadcast
	})
	contexts, err := run(t, ids, func(id party.ID) protocol.StartFunc {
		return StartRefresh(configs[id].Minimal(), pl)
	}, rule)
	require.Error(t, err)

	for _, c := range contexts {
		if c.SelfID() == cheater {
			continue
		}
		assert.True(t, c.IsPoisoned())
		assert.False(t, c.IsFinished())
		stack := c.ErrorStack()
		require.Len(t, stack, 1)
		assert.Equal(t, protocol.CodeVerify, stack[0].Code)
		assert.Equal(t, []party.ID{cheater}, stack[0].Culprits)
		assert.ErrorIs(t, stack[0], errShare)
	}
}

func TestStart_Invalid(t *testing.T) {
	ids := test.PartyIDs(3)
	_, err := protocol.NewContext(StartKeygen(group, ids, 4, ids[0], nil), nil)
	assert.Error(t, err)
	_, err = protocol.NewContext(StartKeygen(group, ids, 0, ids[0], nil), nil)
	assert.Error(t, err)
	_, err = protocol.NewContext(StartKeygen(group, ids, 2, "zz", nil), nil)
	assert.Error(t, err)
	_, err = protocol.NewContext(StartRefresh(nil, nil), nil)
	assert.ErrorIs(t, err, config.ErrMissingField)

	configs, _ := test.GenerateConfig(group, 3, 2, rand.Reader, nil)
	minimal := configs[ids[0]].Minimal()
	minimal.Threshold = 5
	_, err = protocol.NewContext(StartRefresh(minimal, nil), nil)
	assert.ErrorIs(t, err, config.ErrThreshold)
}
