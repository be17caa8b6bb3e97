package keygen

import (
	"github.com/pkg/errors"
	"github.com/taurusgroup/cmp-ecdsa/internal/round"
	zksch "github.com/taurusgroup/cmp-ecdsa/pkg/zk/sch"
	"github.com/taurusgroup/cmp-ecdsa/protocols/cmp/config"
)

var _ round.Round = (*round4)(nil)

type round4 struct {
	*round3
	UpdatedConfig *config.Config
}

type broadcast4 struct {
	round.NormalBroadcastContent
	// SchnorrResponse is the Schnorr proof of knowledge of the new secret share
	SchnorrResponse *zksch.Response
}

// StoreBroadcastMessage implements round.BroadcastRound.
//
// - verify all Schnorr proof for the new ecdsa share.
func (r *round4) StoreBroadcastMessage(msg round.Message) error {
	from := msg.From
	body, ok := msg.Content.(*broadcast4)
	if !ok || body == nil {
		return errors.WithStack(round.ErrInvalidContent)
	}

	if !body.SchnorrResponse.IsValid() {
		return errors.WithStack(round.ErrNilContent)
	}

	h := r.Hash()
	_ = h.WriteAny(r.UpdatedConfig, from)
	if !body.SchnorrResponse.Verify(h, r.UpdatedConfig.Public[from].ECDSA, r.SchnorrCommitments[from], nil) {
		return errors.WithStack(errSchnorr)
	}
	return nil
}

// VerifyMessage implements round.Round.
func (round4) VerifyMessage(round.Message) error { return nil }

// StoreMessage implements round.Round.
func (round4) StoreMessage(round.Message) error { return nil }

// Finalize implements round.Round
//
// - validate the new config, and output it.
func (r *round4) Finalize(chan<- *round.Message) (round.Session, error) {
	if err := r.UpdatedConfig.Validate(); err != nil {
		return r.AbortRound(errors.WithStack(err)), nil
	}
	return r.ResultRound(r.UpdatedConfig), nil
}

// RoundNumber implements round.Content.
func (broadcast4) RoundNumber() round.Number { return 3 }

// MessageContent implements round.Round.
func (round4) MessageContent() round.Content { return nil }

// BroadcastContent implements round.BroadcastRound.
func (r *round4) BroadcastContent() round.BroadcastContent {
	return &broadcast4{
		SchnorrResponse: zksch.EmptyResponse(r.Group()),
	}
}

// Number implements round.Round.
func (round4) Number() round.Number { return 4 }
