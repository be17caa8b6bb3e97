package cmp

import (
	"crypto/rand"
	"crypto/sha256"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/cmp-ecdsa/internal/round"
	"github.com/taurusgroup/cmp-ecdsa/internal/test"
	"github.com/taurusgroup/cmp-ecdsa/pkg/ecdsa"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/curve"
	"github.com/taurusgroup/cmp-ecdsa/pkg/party"
	"github.com/taurusgroup/cmp-ecdsa/pkg/pool"
	"github.com/taurusgroup/cmp-ecdsa/pkg/protocol"
)

func execute(t *testing.T, ids []party.ID, name string, start func(id party.ID) protocol.StartFunc) map[party.ID]interface{} {
	t.Helper()
	contexts, err := test.NewContexts(ids, []byte(t.Name()+name), start)
	require.NoError(t, err)
	require.NoError(t, test.Run(contexts, nil))

	results := make(map[party.ID]interface{}, len(contexts))
	for _, c := range contexts {
		r, err := c.Result()
		require.NoError(t, err)
		results[c.SelfID()] = r
	}
	return results
}

func TestCMP(t *testing.T) {
	if testing.Short() {
		t.Skip("generates Paillier keys")
	}
	group := curve.Secp256k1{}
	N := 3
	T := N - 1
	message := sha256.Sum256([]byte("hello"))
	pl := pool.NewPool(0)
	defer pl.TearDown()

	partyIDs := test.PartyIDs(N)

	configs := make(map[party.ID]*Config, N)
	for id, r := range execute(t, partyIDs, "keygen", func(id party.ID) protocol.StartFunc {
		return Keygen(group, id, partyIDs, T, pl)
	}) {
		require.IsType(t, &Config{}, r)
		configs[id] = r.(*Config)
	}

	// every party stores its config and loads it back before refreshing
	for id, c := range configs {
		text, err := c.Encode()
		require.NoError(t, err)
		restored := EmptyConfig(group)
		require.NoError(t, restored.Decode(text))
		configs[id] = restored
	}

	for id, r := range execute(t, partyIDs, "refresh", func(id party.ID) protocol.StartFunc {
		return Refresh(configs[id], pl)
	}) {
		require.IsType(t, &Config{}, r)
		configs[id] = r.(*Config)
	}

	signers := partyIDs[1:]
	for _, r := range execute(t, signers, "sign", func(id party.ID) protocol.StartFunc {
		return Sign(configs[id], signers, message[:], pl)
	}) {
		require.IsType(t, &ecdsa.Signature{}, r)
		signature := r.(*ecdsa.Signature)
		assert.True(t, signature.Verify(configs[signers[0]].PublicPoint(), message[:]))
	}
}

// TestCMP_Scenario generates a key between 3 parties with threshold 2, signs 0x1234… with all of them,
// and then signs again while one party corrupts its round 1 proofs.
func TestCMP_Scenario(t *testing.T) {
	if testing.Short() {
		t.Skip("generates Paillier keys")
	}
	group := curve.Secp256k1{}
	pl := pool.NewPool(0)
	defer pl.TearDown()

	partyIDs := test.PartyIDs(3)
	configs := make(map[party.ID]*Config, len(partyIDs))
	for id, r := range execute(t, partyIDs, "keygen", func(id party.ID) protocol.StartFunc {
		return Keygen(group, id, partyIDs, 2, pl)
	}) {
		require.IsType(t, &Config{}, r)
		configs[id] = r.(*Config)
	}
	public := configs[partyIDs[0]].PublicPoint()

	digest := make([]byte, 32)
	for i := range digest {
		digest[i] = []byte{0x12, 0x34}[i%2]
	}

	for _, r := range execute(t, partyIDs, "sign", func(id party.ID) protocol.StartFunc {
		return Sign(configs[id], partyIDs, digest, pl)
	}) {
		require.IsType(t, &ecdsa.Signature{}, r)
		signature := r.(*ecdsa.Signature)
		assert.True(t, signature.Verify(public, digest))
		assert.False(t, signature.S.IsOverHalfOrder())
	}

	cheater := partyIDs[1]
	rule := test.RuleFunc(func(number round.Number, from, to party.ID, p2p, broadcast string) (string, string) {
		if number != 1 || from != cheater {
			return p2p, broadcast
		}
		flipped, err := test.FlipBit(p2p, "DeltaMtA", "Proof", "Z1")
		assert.NoError(t, err)
		return flipped, broadcast
	})
	contexts, err := test.NewContexts(partyIDs, []byte(t.Name()+"corrupted"), func(id party.ID) protocol.StartFunc {
		return Sign(configs[id], partyIDs, digest, pl)
	})
	require.NoError(t, err)
	require.Error(t, test.Run(contexts, rule))

	for _, c := range contexts {
		if c.SelfID() == cheater {
			continue
		}
		assert.False(t, c.IsFinished(), "honest party %s completed", c.SelfID())
		_, err := c.Result()
		assert.Error(t, err)
		stack := c.ErrorStack()
		require.NotEmpty(t, stack, "receiver %s logged nothing", c.SelfID())
		assert.Equal(t, []party.ID{cheater}, stack[0].Culprits)
	}
}

func TestCMP_Recover(t *testing.T) {
	group := curve.Secp256k1{}
	configs, partyIDs := test.GenerateConfig(group, 3, 2, rand.Reader, nil)
	helpers, lost := partyIDs[:2], partyIDs[2]
	public := configs[lost].PublicPoint()

	damaged := *configs[lost]
	damaged.ECDSA = nil
	participants := append(helpers.Copy(), lost)
	results := execute(t, participants, "recover", func(id party.ID) protocol.StartFunc {
		if id == lost {
			return Recover(&damaged, helpers, lost, nil)
		}
		return Recover(configs[id], helpers, lost, nil)
	})
	require.IsType(t, &Config{}, results[lost])
	restored := results[lost].(*Config)
	require.NoError(t, restored.Validate())
	assert.True(t, restored.ECDSA.Equal(configs[lost].ECDSA))

	if testing.Short() {
		return
	}
	digest := sha256.Sum256([]byte("recovered"))
	signers := party.IDSlice{helpers[0], lost}
	for _, r := range execute(t, signers, "sign", func(id party.ID) protocol.StartFunc {
		if id == lost {
			return Sign(restored, signers, digest[:], nil)
		}
		return Sign(configs[id], signers, digest[:], nil)
	}) {
		require.IsType(t, &ecdsa.Signature{}, r)
		assert.True(t, r.(*ecdsa.Signature).Verify(public, digest[:]))
	}
}

func TestStart(t *testing.T) {
	group := curve.Secp256k1{}
	N := 6
	T := 3
	pl := pool.NewPool(0)
	defer pl.TearDown()
	configs, partyIDs := test.GenerateConfig(group, N, T, rand.Reader, pl)

	m := sha256.Sum256([]byte("HELLO"))
	selfID := partyIDs[0]
	c := configs[selfID]
	tests := []struct {
		name      string
		partyIDs  []party.ID
		threshold int
	}{
		{
			"T signers, N+1 threshold",
			partyIDs[:T],
			N + 1,
		},
		{
			"-1 threshold",
			partyIDs,
			-1,
		},
		{
			"0 threshold",
			partyIDs,
			0,
		},
		{
			"max threshold",
			partyIDs,
			math.MaxUint32,
		},
		{
			"max threshold -1",
			partyIDs,
			math.MaxUint32 - 1,
		},
		{
			"no self",
			partyIDs[1:],
			T,
		},
		{
			"duplicate self",
			append(partyIDs.Copy(), selfID),
			T,
		},
		{
			"duplicate other",
			append(partyIDs.Copy(), partyIDs[1]),
			T,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			broken := *c
			broken.Threshold = tt.threshold
			var err error
			_, err = Keygen(group, selfID, tt.partyIDs, tt.threshold, pl)(nil)
			t.Log(err)
			assert.Error(t, err)

			_, err = Sign(&broken, tt.partyIDs, m[:], pl)(nil)
			t.Log(err)
			assert.Error(t, err)

			_, err = Refresh(&broken, pl)(nil)
			t.Log(err)
			if tt.threshold != T {
				assert.Error(t, err)
			}
		})
	}

	_, err := Refresh(nil, pl)(nil)
	assert.Error(t, err)
}
