package config

import (
	"errors"
	"fmt"
	"io"

	"github.com/taurusgroup/cmp-ecdsa/internal/types"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/curve"
	"github.com/taurusgroup/cmp-ecdsa/pkg/party"
)

// MinimalConfig is the ECDSA part of a Config: a threshold sharing of a secret key, without
// the Paillier and Pedersen material needed by the signing protocol.
// It is the input of a refresh.
type MinimalConfig struct {
	Group     curve.Curve
	ID        party.ID
	Threshold int
	// ECDSA is this party's share xᵢ of the secret ECDSA x.
	ECDSA curve.Scalar
	// ChainKey is carried over to the refreshed config.
	ChainKey types.RID
	// Public maps every party to its public key share.
	Public map[party.ID]curve.Point
}

// PartyIDs returns a sorted slice of party IDs.
func (c *MinimalConfig) PartyIDs() party.IDSlice {
	ids := make([]party.ID, 0, len(c.Public))
	for j := range c.Public {
		ids = append(ids, j)
	}
	return party.NewIDSlice(ids)
}

// PublicPoint returns the group's public ECC point.
func (c *MinimalConfig) PublicPoint() curve.Point {
	return interpolate(c.Group, c.PartyIDs(), func(id party.ID) curve.Point { return c.Public[id] })
}

// Validate checks the threshold, that the secret share matches our public share,
// and that the public shares form a valid sharing.
func (c *MinimalConfig) Validate() error {
	if c.Group == nil || c.ECDSA == nil {
		return ErrMissingField
	}
	if !ValidThreshold(c.Threshold, len(c.Public)) {
		return fmt.Errorf("%w: %d for %d parties", ErrThreshold, c.Threshold, len(c.Public))
	}
	if err := c.ChainKey.Validate(); err != nil {
		return fmt.Errorf("config: chain key: %w", err)
	}
	if c.ECDSA.IsZero() {
		return errors.New("config: ECDSA secret key share is zero")
	}
	for j, X := range c.Public {
		if X == nil || X.IsIdentity() {
			return fmt.Errorf("config: party %s: public share is empty or identity", j)
		}
	}
	own, ok := c.Public[c.ID]
	if !ok {
		return ErrNoPublicEntry
	}
	if !c.ECDSA.ActOnBase().Equal(own) {
		return errors.New("config: ECDSA secret key share does not correspond to public share")
	}

	ids := c.PartyIDs()
	share := func(id party.ID) curve.Point { return c.Public[id] }
	expected := interpolate(c.Group, ids[:c.Threshold], share)
	for start := 1; start+c.Threshold <= len(ids); start++ {
		if !interpolate(c.Group, ids[start:start+c.Threshold], share).Equal(expected) {
			return ErrNotOnSharing
		}
	}
	return nil
}

// WriteTo implements io.WriterTo interface.
func (c *MinimalConfig) WriteTo(w io.Writer) (total int64, err error) {
	if c == nil {
		return 0, io.ErrUnexpectedEOF
	}
	var n int64
	n, err = types.ThresholdWrapper(c.Threshold).WriteTo(w)
	total += n
	if err != nil {
		return
	}
	partyIDs := c.PartyIDs()
	n, err = partyIDs.WriteTo(w)
	total += n
	if err != nil {
		return
	}
	for _, j := range partyIDs {
		var data []byte
		if data, err = c.Public[j].MarshalBinary(); err != nil {
			return
		}
		var m int
		m, err = w.Write(data)
		total += int64(m)
		if err != nil {
			return
		}
	}
	return
}

// Domain implements hash.WriterToWithDomain.
func (MinimalConfig) Domain() string {
	return "CMP Minimal Config"
}
