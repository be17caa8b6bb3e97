package protocol_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/cmp-ecdsa/internal/round"
	"github.com/taurusgroup/cmp-ecdsa/internal/test"
	"github.com/taurusgroup/cmp-ecdsa/pkg/party"
	"github.com/taurusgroup/cmp-ecdsa/pkg/protocol"
	"github.com/taurusgroup/cmp-ecdsa/protocols/example/xor"
)

func newXOR(t *testing.T, ids party.IDSlice, sessionID []byte, opts ...protocol.Option) map[party.ID]*protocol.Context {
	t.Helper()
	contexts := make(map[party.ID]*protocol.Context, len(ids))
	for _, id := range ids {
		c, err := protocol.NewContext(xor.StartXOR(id, ids), sessionID, opts...)
		require.NoError(t, err)
		contexts[id] = c
	}
	return contexts
}

func startAll(t *testing.T, contexts map[party.ID]*protocol.Context) map[party.ID]*protocol.Outbound {
	t.Helper()
	outs := make(map[party.ID]*protocol.Outbound, len(contexts))
	for id, c := range contexts {
		require.NoError(t, c.PushSelf())
		out, err := c.Pop()
		require.NoError(t, err)
		outs[id] = out
	}
	return outs
}

func asError(t *testing.T, err error) protocol.Error {
	t.Helper()
	var protocolErr protocol.Error
	require.True(t, errors.As(err, &protocolErr), "expected a protocol.Error, got %v", err)
	return protocolErr
}

func sumCounter(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	total := 0.0
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestContext_Run(t *testing.T) {
	ids := test.PartyIDs(4)
	reg := prometheus.NewRegistry()
	metrics := protocol.NewMetrics("test")
	require.NoError(t, metrics.Register(reg))

	contexts := newXOR(t, ids, []byte("run"), protocol.WithMetrics(metrics))
	list := make([]*protocol.Context, 0, len(ids))
	for _, id := range ids {
		list = append(list, contexts[id])
	}
	require.NoError(t, test.Run(list, nil))

	var first xor.Result
	for _, id := range ids {
		c := contexts[id]
		require.True(t, c.IsFinished())
		assert.Empty(t, c.ErrorStack())
		assert.Equal(t, contexts[ids[0]].SSID(), c.SSID())

		res, err := c.Result()
		require.NoError(t, err)
		result := res.(xor.Result)
		if first == nil {
			first = result
		}
		assert.Equal(t, first, result)

		assert.ErrorIs(t, c.Push("", "", ids[0], 1), protocol.ErrFinished)
		assert.ErrorIs(t, c.PushSelf(), protocol.ErrAlreadyStarted)
	}

	// every party accepts one broadcast and one p2p message from each other party
	assert.Equal(t, float64(2*len(ids)*(len(ids)-1)), sumCounter(t, reg, "test_protocol_messages_accepted_total"))
	assert.Equal(t, float64(len(ids)), sumCounter(t, reg, "test_protocol_runs_total"))
	assert.Zero(t, sumCounter(t, reg, "test_protocol_messages_rejected_total"))
}

func TestContext_Structural(t *testing.T) {
	ids := test.PartyIDs(3)
	a, b, c := ids[0], ids[1], ids[2]
	contexts := newXOR(t, ids, []byte("structural"))
	receiver := contexts[b]

	_, err := receiver.Pop()
	assert.ErrorIs(t, err, protocol.ErrRoundIncomplete)

	outs := startAll(t, contexts)
	assert.Equal(t, round.Number(0), outs[a].Round)
	assert.NotEmpty(t, outs[a].Broadcast)
	assert.True(t, outs[a].Reliable)
	assert.Equal(t, []party.ID{b, c}, outs[a].To)
	assert.ErrorIs(t, receiver.PushSelf(), protocol.ErrAlreadyStarted)

	require.NoError(t, receiver.Push("", outs[a].Broadcast, a, 0))
	assert.Equal(t, 1, receiver.ReceivedCount())
	assert.Equal(t, round.Number(1), receiver.CurrentRound())

	logged := 0
	expectRejected := func(code protocol.Code, err error) {
		t.Helper()
		logged++
		protocolErr := asError(t, err)
		assert.Equal(t, code, protocolErr.Code)
		require.Len(t, receiver.ErrorStack(), logged, "every rejection adds exactly one entry")
		assert.Equal(t, code, receiver.ErrorStack()[logged-1].Code)
		assert.False(t, receiver.IsPoisoned())
		assert.False(t, receiver.IsCurrentRoundFinished())
		assert.Equal(t, 1, receiver.ReceivedCount())
	}

	// replay
	expectRejected(protocol.CodeDuplicate, receiver.Push("", outs[a].Broadcast, a, 0))
	// out of order
	expectRejected(protocol.CodeRoundMismatch, receiver.Push("", outs[c].Broadcast, c, 1))
	// unknown sender
	expectRejected(protocol.CodeUnknownSender, receiver.Push("", outs[c].Broadcast, "zz", 0))
	// own message
	expectRejected(protocol.CodeUnknownSender, receiver.Push("", outs[b].Broadcast, b, 0))
	// missing broadcast
	expectRejected(protocol.CodeMalformed, receiver.Push("", "", c, 0))
	// unexpected point-to-point payload
	expectRejected(protocol.CodeMalformed, receiver.Push(outs[c].Broadcast, outs[c].Broadcast, c, 0))

	// a payload from another session
	other, err := protocol.NewContext(xor.StartXOR(c, ids), []byte("other session"))
	require.NoError(t, err)
	require.NoError(t, other.PushSelf())
	otherOut, err := other.Pop()
	require.NoError(t, err)
	protocolErr := asError(t, receiver.Push("", otherOut.Broadcast, c, 0))
	assert.Equal(t, protocol.CodeMalformed, protocolErr.Code)
	assert.ErrorIs(t, protocolErr, protocol.ErrMessageWrongSSID)
	assert.False(t, receiver.IsPoisoned())

	assert.Len(t, receiver.ErrorStack(), 7)
	for _, e := range receiver.ErrorStack() {
		assert.False(t, e.Code.Poisons())
	}

	require.NoError(t, receiver.Push("", outs[c].Broadcast, c, 0))
	assert.True(t, receiver.IsCurrentRoundFinished())
	out, err := receiver.Pop()
	require.NoError(t, err)
	assert.Equal(t, round.Number(1), out.Round)
	assert.Len(t, out.P2P, 2)
	assert.NotEqual(t, "", out.PayloadFor(a))
	assert.Equal(t, "", out.PayloadFor(b))

	// replay after the round completed, before the next one received anything
	for _, from := range []party.ID{a, c} {
		protocolErr = asError(t, receiver.Push("", outs[from].Broadcast, from, 0))
		assert.Equal(t, protocol.CodeRoundMismatch, protocolErr.Code)
		assert.False(t, receiver.IsPoisoned())
		assert.Equal(t, round.Number(1), receiver.CurrentRound())
		assert.True(t, receiver.IsCurrentRoundFinished())
		assert.Equal(t, len(ids)-1, receiver.ReceivedCount())
		again, err := receiver.Pop()
		require.NoError(t, err)
		assert.Equal(t, out, again)
	}
	assert.Len(t, receiver.ErrorStack(), 9)
}

func TestContext_ReplayBeforePop(t *testing.T) {
	ids := test.PartyIDs(3)
	a, b, c := ids[0], ids[1], ids[2]
	contexts := newXOR(t, ids, []byte("replay"))
	outs := startAll(t, contexts)

	for _, id := range ids {
		for _, from := range ids {
			if from != id {
				require.NoError(t, contexts[id].Push("", outs[from].Broadcast, from, 0))
			}
		}
	}

	// b completed round 1 but its caller did not collect the output yet
	receiver := contexts[b]
	require.True(t, receiver.IsCurrentRoundFinished())
	require.Error(t, receiver.Push("", outs[a].Broadcast, a, 0))
	assert.Equal(t, round.Number(1), receiver.CurrentRound())
	assert.True(t, receiver.IsCurrentRoundFinished())

	reveal := make(map[party.ID]*protocol.Outbound, len(ids))
	for _, id := range ids {
		out, err := contexts[id].Pop()
		require.NoError(t, err)
		reveal[id] = out
	}

	// a message of the next round moves the Context forward
	require.NoError(t, receiver.Push(reveal[a].PayloadFor(b), "", a, 1))
	assert.Equal(t, round.Number(2), receiver.CurrentRound())
	assert.Equal(t, 1, receiver.ReceivedCount())
	require.NoError(t, receiver.Push(reveal[c].PayloadFor(b), "", c, 1))
	assert.True(t, receiver.IsFinished())
	assert.Len(t, receiver.ErrorStack(), 1)
}

func TestContext_Poisoned(t *testing.T) {
	ids := test.PartyIDs(3)
	a, b, c := ids[0], ids[1], ids[2]
	contexts := newXOR(t, ids, []byte("poison"))
	outs := startAll(t, contexts)

	for _, id := range ids {
		for _, from := range ids {
			if from == id {
				continue
			}
			require.NoError(t, contexts[id].Push("", outs[from].Broadcast, from, 0))
		}
	}
	reveal := make(map[party.ID]*protocol.Outbound, len(ids))
	for _, id := range ids {
		out, err := contexts[id].Pop()
		require.NoError(t, err)
		reveal[id] = out
	}

	receiver := contexts[b]
	tampered, err := test.FlipBit(reveal[a].PayloadFor(b), "XOR")
	require.NoError(t, err)
	protocolErr := asError(t, receiver.Push(tampered, "", a, 1))
	assert.Equal(t, protocol.CodeVerify, protocolErr.Code)
	assert.Equal(t, []party.ID{a}, protocolErr.Culprits)
	assert.True(t, receiver.IsPoisoned())
	assert.Len(t, receiver.ErrorStack(), 1)

	assert.ErrorIs(t, receiver.Push(reveal[c].PayloadFor(b), "", c, 1), protocol.ErrPoisoned)
	_, err = receiver.Pop()
	assert.ErrorIs(t, err, protocol.ErrPoisoned)
	_, err = receiver.Result()
	assert.Equal(t, protocol.CodeVerify, asError(t, err).Code)
	assert.Len(t, receiver.ErrorStack(), 1)

	// undecodable payloads also end the run
	garbage := contexts[c]
	protocolErr = asError(t, garbage.Push("not base64 !", "", a, 1))
	assert.Equal(t, protocol.CodeDecode, protocolErr.Code)
	assert.True(t, garbage.IsPoisoned())
	assert.ErrorIs(t, garbage.PushSelf(), protocol.ErrPoisoned)
}

func TestContext_Run_Tampered(t *testing.T) {
	ids := test.PartyIDs(3)
	contexts := newXOR(t, ids, nil)
	list := []*protocol.Context{contexts[ids[0]], contexts[ids[1]], contexts[ids[2]]}

	rule := test.RuleFunc(func(number round.Number, from, to party.ID, p2p, broadcast string) (string, string) {
		if number == 1 && from == ids[0] {
			flipped, err := test.FlipBit(p2p, "Decommitment")
			assert.NoError(t, err)
			return flipped, broadcast
		}
		return p2p, broadcast
	})
	require.Error(t, test.Run(list, rule))

	for _, id := range ids[1:] {
		c := contexts[id]
		assert.False(t, c.IsFinished())
		assert.True(t, c.IsPoisoned())
		require.NotEmpty(t, c.ErrorStack())
		assert.Equal(t, []party.ID{ids[0]}, c.ErrorStack()[0].Culprits)
		// the trace starts in the round which rejected the message
		assert.Contains(t, fmt.Sprintf("%+v", c.ErrorStack()[0]), "xor.(*Round2).VerifyMessage")
	}
}

func TestNewContext_InvalidStart(t *testing.T) {
	ids := test.PartyIDs(3)
	_, err := protocol.NewContext(xor.StartXOR("zz", ids), nil)
	assert.Error(t, err)
}
