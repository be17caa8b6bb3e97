package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/taurusgroup/cmp-ecdsa/internal/round"
	"github.com/taurusgroup/cmp-ecdsa/pkg/party"
)

var (
	// ErrPoisoned is returned by a Context which recorded a failure that ends the run.
	ErrPoisoned = errors.New("protocol: run failed and cannot be advanced")
	// ErrFinished is returned by a Context whose run already produced its output.
	ErrFinished = errors.New("protocol: run is finished")
	// ErrRoundIncomplete is returned by Pop while the current round still waits for messages.
	ErrRoundIncomplete = errors.New("protocol: current round is not complete")
	// ErrAlreadyStarted is returned by PushSelf once the first round completed.
	ErrAlreadyStarted = errors.New("protocol: first round already completed")
	// ErrNotFinished is returned by Result before the run produced its output.
	ErrNotFinished = errors.New("protocol: not finished")
)

// StartFunc is function that creates the first round of a protocol.
// It returns the first round initialized with the session information.
// If the creation fails (likely due to misconfiguration), and error is returned.
//
// An optional sessionID can be provided, which should unique among all protocol executions.
type StartFunc func(sessionID []byte) (round.Session, error)

// roundState is the bookkeeping the Context keeps for every round of the protocol.
type roundState struct {
	// p2p and broadcast describe the messages this round consumes.
	p2p, broadcast bool
	// received[id] is true once the message from id was stored.
	received map[party.ID]bool
	complete bool
	out      *Outbound
}

func (s *roundState) count() int {
	n := 0
	for _, ok := range s.received {
		if ok {
			n++
		}
	}
	return n
}

// Context represents the execution of a protocol by one party.
//
// It is driven by a single caller: PushSelf starts the run, every message from
// another party is given to Push, and Pop returns the messages produced by the last completed round.
// Round r consumes the messages produced by round r-1, so the declared round of a message
// must always be the one preceding the current round.
type Context struct {
	mtx sync.Mutex

	session round.Session

	protocolID string
	selfID     party.ID
	others     party.IDSlice
	ssid       []byte

	rounds  []*roundState
	current int

	poisoned bool
	finished bool
	result   interface{}

	errs []*Error

	outChan chan *round.Message

	log     zerolog.Logger
	metrics *Metrics
}

// NewContext expects a StartFunc for the desired protocol. It returns a Context that the caller can interact with.
func NewContext(create StartFunc, sessionID []byte, opts ...Option) (*Context, error) {
	r, err := create(sessionID)
	if err != nil {
		return nil, fmt.Errorf("protocol: failed to create round: %w", err)
	}

	c := &Context{
		session:    r,
		protocolID: r.ProtocolID(),
		selfID:     r.SelfID(),
		others:     r.OtherPartyIDs(),
		ssid:       r.SSID(),
		rounds:     make([]*roundState, int(r.FinalRoundNumber())+1),
		outChan:    make(chan *round.Message, 2*r.N()),
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With().
		Str("protocol", c.protocolID).
		Str("party", string(c.selfID)).
		Int("round", 0).
		Logger()

	for i := range c.rounds {
		c.rounds[i] = &roundState{
			received: make(map[party.ID]bool, len(c.others)),
		}
	}
	c.setShape(0, r)

	c.log.Info().Msg("created")
	return c, nil
}

// setShape records the inbound shape of round i, as declared by the round itself.
func (c *Context) setShape(i int, r round.Session) {
	if i >= len(c.rounds) {
		return
	}
	state := c.rounds[i]
	state.p2p = r.MessageContent() != nil
	if b, ok := r.(round.BroadcastRound); ok {
		state.broadcast = b.BroadcastContent() != nil
	}
}

// PushSelf completes the first round, which does not depend on any message.
//
// On failure the Context stays at the first round, and PushSelf may be called again.
func (c *Context) PushSelf() error {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.poisoned {
		return ErrPoisoned
	}
	if c.rounds[0].complete {
		return ErrAlreadyStarted
	}

	if err := c.finalize(); err != nil {
		c.log.Error().Err(err).Msg("failed to complete first round")
		return err
	}
	return nil
}

// Push delivers the payloads sent by from in round declaredRound.
//
// p2p is the payload intended for this party, and broadcast is the payload sent to everyone.
// Either may be empty, depending on what the round produced.
//
// The returned error is also appended to the error log.
// A structural error (wrong round, unknown or duplicate sender, missing payload, other session)
// leaves the Context unchanged. Any other error poisons the Context,
// and all subsequent calls return ErrPoisoned.
func (c *Context) Push(p2p, broadcast string, from party.ID, declaredRound round.Number) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.poisoned {
		return ErrPoisoned
	}
	if c.finished {
		return ErrFinished
	}

	// target is the round this message feeds. The Context only moves past a completed round
	// once a message for the next one passed every structural check, so that a rejected message
	// never hides the output of the completed round from Pop.
	target := c.current
	if c.rounds[c.current].complete && c.current < len(c.rounds)-1 {
		target++
	}

	if int(declaredRound)+1 != target {
		return c.reject(CodeRoundMismatch, ErrMessageRoundMismatch, from, declaredRound)
	}

	if !c.others.Contains(from) {
		return c.reject(CodeUnknownSender, ErrMessageUnknownSender, from, declaredRound)
	}

	state := c.rounds[target]
	if state.complete || state.received[from] {
		return c.reject(CodeDuplicate, ErrMessageDuplicate, from, declaredRound)
	}

	if err := checkPresence(state.p2p, p2p); err != nil {
		return c.reject(CodeMalformed, err, from, declaredRound)
	}
	if err := checkPresence(state.broadcast, broadcast); err != nil {
		return c.reject(CodeMalformed, err, from, declaredRound)
	}

	var broadcastMsg, p2pMsg *round.Message
	if state.broadcast {
		msg, err := c.decode(broadcast, from, declaredRound, target, true)
		if err != nil {
			return err
		}
		broadcastMsg = msg
	}
	if state.p2p {
		msg, err := c.decode(p2p, from, declaredRound, target, false)
		if err != nil {
			return err
		}
		p2pMsg = msg
	}

	if target != c.current {
		c.advance()
	}

	if broadcastMsg != nil {
		r, ok := c.session.(round.BroadcastRound)
		if !ok {
			return c.poison(CodeCompute, round.ErrInvalidContent, c.current)
		}
		if err := r.StoreBroadcastMessage(*broadcastMsg); err != nil {
			return c.poison(CodeVerify, err, c.current, from)
		}
	}
	if p2pMsg != nil {
		if err := c.session.VerifyMessage(*p2pMsg); err != nil {
			return c.poison(CodeVerify, err, c.current, from)
		}
		if err := c.session.StoreMessage(*p2pMsg); err != nil {
			return c.poison(CodeVerify, err, c.current, from)
		}
	}

	state.received[from] = true
	c.metrics.messageAccepted(c.protocolID)
	c.log.Debug().Str("from", string(from)).Int("received", state.count()).Msg("message accepted")

	if state.count() == len(c.others) {
		return c.finalize()
	}
	return nil
}

// Pop returns the messages produced by the round that just completed.
// It returns ErrRoundIncomplete if the current round is still waiting for messages.
func (c *Context) Pop() (*Outbound, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.poisoned {
		return nil, ErrPoisoned
	}
	state := c.rounds[c.current]
	if !state.complete {
		return nil, ErrRoundIncomplete
	}
	return state.out, nil
}

// IsCurrentRoundFinished returns true once the current round consumed all its messages and produced its output.
func (c *Context) IsCurrentRoundFinished() bool {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.rounds[c.current].complete
}

// IsFinished returns true once the last round completed and the output is available.
func (c *Context) IsFinished() bool {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.finished
}

// IsPoisoned returns true if a failure ended the run.
func (c *Context) IsPoisoned() bool {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.poisoned
}

// CurrentRound returns the number of the round currently in flight.
func (c *Context) CurrentRound() round.Number {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return round.Number(c.current)
}

// ReceivedCount returns the number of distinct parties whose message was stored in the current round.
func (c *Context) ReceivedCount() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.rounds[c.current].count()
}

// ErrorStack returns a copy of the error log, oldest first.
func (c *Context) ErrorStack() []*Error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	out := make([]*Error, len(c.errs))
	copy(out, c.errs)
	return out
}

// SSID returns the identifier of this run.
func (c *Context) SSID() []byte {
	return c.ssid
}

// SelfID returns the ID of the party running this Context.
func (c *Context) SelfID() party.ID {
	return c.selfID
}

// Result returns the protocol result if the protocol completed successfully. Otherwise an error is returned.
func (c *Context) Result() (interface{}, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.finished {
		return c.result, nil
	}
	if c.poisoned {
		for _, e := range c.errs {
			if e.Code.Poisons() {
				return nil, *e
			}
		}
		return nil, ErrPoisoned
	}
	return nil, ErrNotFinished
}

// advance moves to the next round, whose session was returned by the last finalization.
func (c *Context) advance() {
	c.current++
	c.log = c.log.With().Int("round", c.current).Logger()
	c.log.Debug().Msg("round advanced")
}

// decode turns a payload into a round.Message for round target.
// The session is already the one of target, since it was returned by the last finalization.
func (c *Context) decode(payload string, from party.ID, declaredRound round.Number, target int, broadcast bool) (*round.Message, error) {
	env, err := decodeEnvelope(payload)
	if err != nil {
		return nil, c.poison(CodeDecode, err, target, from)
	}
	if !bytes.Equal(env.SSID, c.ssid) {
		return nil, c.reject(CodeMalformed, ErrMessageWrongSSID, from, declaredRound)
	}

	var content round.Content
	if broadcast {
		r, ok := c.session.(round.BroadcastRound)
		if !ok {
			return nil, c.poison(CodeDecode, round.ErrInvalidContent, target, from)
		}
		content = r.BroadcastContent()
	} else {
		content = c.session.MessageContent()
	}
	if err = decodeContent(env, content); err != nil {
		return nil, c.poison(CodeDecode, err, target, from)
	}
	if content.RoundNumber() != declaredRound {
		return nil, c.reject(CodeMalformed, ErrMessageInconsistent, from, declaredRound)
	}

	msg := &round.Message{
		From:      from,
		Broadcast: broadcast,
		Content:   content,
	}
	if !broadcast {
		msg.To = c.selfID
	}
	return msg, nil
}

// finalize runs the local computation of the current round, collects the outgoing messages
// and moves on to the next session.
// Rounds which consume no message are finalized immediately after their predecessor.
func (c *Context) finalize() error {
	for {
		state := c.rounds[c.current]
		start := time.Now()

		next, err := c.session.Finalize(c.outChan)
		msgs := c.drain()
		if err != nil {
			if c.current == 0 && !c.rounds[0].complete {
				// the first round may be retried
				c.record(CodeCompute, err, 0)
				return *c.errs[len(c.errs)-1]
			}
			return c.poison(CodeCompute, err, c.current)
		}

		if abort, ok := next.(*round.Abort); ok {
			c.session = next
			return c.poison(CodeAbort, abort.Err, c.current, abort.Culprits...)
		}

		out, err := c.outbound(round.Number(c.current), msgs)
		if err != nil {
			return c.poison(CodeCompute, err, c.current)
		}

		state.complete = true
		state.out = out
		c.session = next
		c.metrics.roundCompleted(c.protocolID, start)
		c.log.Info().Int("p2p", len(out.P2P)).Bool("broadcast", out.Broadcast != "").Msg("round complete")

		if output, ok := next.(*round.Output); ok {
			c.finished = true
			c.result = output.Result
			c.metrics.runEnded(c.protocolID, "finished")
			c.log.Info().Msg("finished")
			return nil
		}

		if c.current == len(c.rounds)-1 {
			return c.poison(CodeCompute, errors.New("protocol: last round did not produce an output"), c.current)
		}

		c.setShape(c.current+1, next)
		nextState := c.rounds[c.current+1]
		if len(c.others) > 0 && (nextState.p2p || nextState.broadcast) {
			return nil
		}
		c.advance()
	}
}

// drain empties the out channel.
func (c *Context) drain() []*round.Message {
	var msgs []*round.Message
	for {
		select {
		case msg := <-c.outChan:
			msgs = append(msgs, msg)
		default:
			return msgs
		}
	}
}

// outbound encodes the messages produced by a round.
func (c *Context) outbound(number round.Number, msgs []*round.Message) (*Outbound, error) {
	out := &Outbound{Round: number}
	for _, msg := range msgs {
		if msg.Content.RoundNumber() != number {
			return nil, pkgerrors.WithStack(ErrMessageInconsistent)
		}
		payload, err := encodePayload(c.ssid, msg.Content)
		if err != nil {
			return nil, err
		}
		if msg.Broadcast {
			if out.Broadcast != "" {
				return nil, pkgerrors.WithStack(ErrMessageMultipleBcast)
			}
			out.Broadcast = payload
			if b, ok := msg.Content.(round.BroadcastContent); ok {
				out.Reliable = b.Reliable()
			}
			continue
		}
		if !c.others.Contains(msg.To) {
			return nil, pkgerrors.WithStack(ErrMessageNotDeliverable)
		}
		out.P2P = append(out.P2P, payload)
		out.To = append(out.To, msg.To)
	}
	if len(out.P2P) == 0 && out.Broadcast != "" {
		out.To = c.others.Copy()
	}
	return out, nil
}

// record appends an entry to the error log.
// Rounds attach the stack where they fail; errors found by the Context itself get it here.
func (c *Context) record(code Code, err error, roundNumber int, culprits ...party.ID) {
	if _, ok := err.(interface{ StackTrace() pkgerrors.StackTrace }); !ok {
		err = pkgerrors.WithStack(err)
	}
	e := &Error{
		Code:     code,
		Round:    round.Number(roundNumber),
		Culprits: culprits,
		Err:      err,
	}
	c.errs = append(c.errs, e)
	c.metrics.messageRejected(c.protocolID, code)
}

// reject records a structural error, which does not change the state of the Context.
func (c *Context) reject(code Code, err error, from party.ID, declaredRound round.Number) error {
	c.record(code, err, c.current, from)
	c.log.Warn().Err(err).Str("from", string(from)).Int("declared", int(declaredRound)).Str("code", code.String()).Msg("message rejected")
	return *c.errs[len(c.errs)-1]
}

// poison records err and ends the run.
func (c *Context) poison(code Code, err error, roundNumber int, culprits ...party.ID) error {
	c.record(code, err, roundNumber, culprits...)
	c.poisoned = true
	c.metrics.runEnded(c.protocolID, "poisoned")
	c.log.Error().Err(err).Str("code", code.String()).Strs("culprits", idStrings(culprits)).Msg("run failed")
	return *c.errs[len(c.errs)-1]
}

func checkPresence(expected bool, payload string) error {
	switch {
	case expected && payload == "":
		return ErrMessageMissingPayload
	case !expected && payload != "":
		return ErrMessageUnexpected
	}
	return nil
}

func idStrings(ids []party.ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
