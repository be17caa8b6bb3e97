// Package recovery restores the ECDSA share of a party which lost it.
//
// A set of at least Threshold helpers re-shares the value of the sharing polynomial at the lost
// party's point. Helper i splits ζᵢ⋅xᵢ into random summands δᵢⱼ, one per helper, where ζᵢ is its
// Lagrange coefficient at the lost party. Every helper j then forwards σⱼ = ∑ᵢ δᵢⱼ to the lost party,
// which learns x = ∑ⱼ σⱼ without any helper learning more than its own summands.
//
// Each δᵢⱼ is committed to by a broadcast δᵢⱼ⋅G, so that a helper sending inconsistent values is
// identified by the party which receives them.
package recovery

import (
	"fmt"

	"github.com/taurusgroup/cmp-ecdsa/internal/round"
	"github.com/taurusgroup/cmp-ecdsa/pkg/party"
	"github.com/taurusgroup/cmp-ecdsa/pkg/pool"
	"github.com/taurusgroup/cmp-ecdsa/pkg/protocol"
	"github.com/taurusgroup/cmp-ecdsa/protocols/cmp/config"
)

const (
	protocolID                  = "cmp/recovery"
	protocolRounds round.Number = 2
)

// Start returns a StartFunc which restores the ECDSA share of lost, with the help of helpers.
//
// Helpers pass their complete config. The lost party passes a config holding the same public data,
// in which ECDSA may be nil. The output of the protocol is a *config.Config for every participant,
// and for the lost party it passes Validate.
func Start(c *config.Config, helpers []party.ID, lost party.ID, pl *pool.Pool) protocol.StartFunc {
	return func(sessionID []byte) (round.Session, error) {
		if c == nil || c.Group == nil {
			return nil, fmt.Errorf("recovery: %w", config.ErrMissingField)
		}
		helperIDs := party.NewIDSlice(helpers)
		if err := validateHelpers(c, helperIDs, lost); err != nil {
			return nil, err
		}

		info := round.Info{
			ProtocolID:       protocolID,
			FinalRoundNumber: protocolRounds,
			SelfID:           c.ID,
			PartyIDs:         append(helperIDs.Copy(), lost),
			Threshold:        c.Threshold,
			Group:            c.Group,
		}
		// the public data is part of the session, so that all parties recover the same sharing
		helper, err := round.NewSession(info, sessionID, pl, c)
		if err != nil {
			return nil, fmt.Errorf("recovery: %w", err)
		}
		return &round0{
			Helper:  helper,
			Config:  c,
			Helpers: helperIDs,
			Lost:    lost,
		}, nil
	}
}

func validateHelpers(c *config.Config, helpers party.IDSlice, lost party.ID) error {
	if !helpers.Valid() || len(helpers) < 2 || len(helpers) < c.Threshold {
		return fmt.Errorf("%w: %d helpers for threshold %d", errHelpers, len(helpers), c.Threshold)
	}
	if helpers.Contains(lost) {
		return fmt.Errorf("%w: %s is both lost and a helper", errHelpers, lost)
	}
	if c.ID != lost && !helpers.Contains(c.ID) {
		return fmt.Errorf("%w: %s does not take part", errHelpers, c.ID)
	}
	for _, id := range append(helpers.Copy(), lost) {
		if public, ok := c.Public[id]; !ok || public == nil || public.ECDSA == nil {
			return fmt.Errorf("recovery: party %s: %w", id, config.ErrNoPublicEntry)
		}
	}
	if c.ID != lost {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("recovery: %w", err)
		}
	}
	return nil
}
