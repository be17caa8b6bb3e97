package config

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/cronokirby/saferith"
	"github.com/fxamacker/cbor/v2"
	"github.com/taurusgroup/cmp-ecdsa/internal/params"
	"github.com/taurusgroup/cmp-ecdsa/internal/types"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/curve"
	"github.com/taurusgroup/cmp-ecdsa/pkg/paillier"
	"github.com/taurusgroup/cmp-ecdsa/pkg/party"
	"github.com/taurusgroup/cmp-ecdsa/pkg/pedersen"
)

// exportVersion is bumped whenever the layout of configExport or minimalExport changes.
const exportVersion uint8 = 1

var (
	ErrVersion = errors.New("config: unsupported export version")
	ErrGroup   = errors.New("config: export was made for a different group")
)

// EmptyConfig creates an empty Config with a fixed group, ready for unmarshalling.
func EmptyConfig(group curve.Curve) *Config {
	return &Config{
		Group: group,
	}
}

// EmptyMinimalConfig creates an empty MinimalConfig with a fixed group, ready for unmarshalling.
func EmptyMinimalConfig(group curve.Curve) *MinimalConfig {
	return &MinimalConfig{
		Group: group,
	}
}

type configExport struct {
	Version       uint8
	Group         string
	ID            party.ID
	Threshold     int
	ECDSA         []byte
	P, Q          []byte
	RID, ChainKey []byte
	Public        []publicExport
}

type publicExport struct {
	ID      party.ID
	ECDSA   []byte
	N, S, T []byte
}

type minimalExport struct {
	Version   uint8
	Group     string
	ID        party.ID
	Threshold int
	ECDSA     []byte
	ChainKey  []byte
	Public    []minimalPublicExport
}

type minimalPublicExport struct {
	ID    party.ID
	ECDSA []byte
}

func (c *Config) MarshalBinary() ([]byte, error) {
	if c.Group == nil || c.ECDSA == nil || c.Paillier == nil {
		return nil, ErrMissingField
	}
	secret, err := c.ECDSA.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	ps := make([]publicExport, 0, len(c.Public))
	for _, id := range c.PartyIDs() {
		p := c.Public[id]
		if err = p.validate(); err != nil {
			return nil, fmt.Errorf("config: party %s: %w", id, err)
		}
		point, err := p.ECDSA.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("config: party %s: %w", id, err)
		}
		ps = append(ps, publicExport{
			ID:    id,
			ECDSA: point,
			N:     p.Pedersen.N().Bytes(),
			S:     p.Pedersen.S().Bytes(),
			T:     p.Pedersen.T().Bytes(),
		})
	}
	return cbor.Marshal(&configExport{
		Version:   exportVersion,
		Group:     c.Group.Name(),
		ID:        c.ID,
		Threshold: c.Threshold,
		ECDSA:     secret,
		P:         c.Paillier.P().Bytes(),
		Q:         c.Paillier.Q().Bytes(),
		RID:       c.RID,
		ChainKey:  c.ChainKey,
		Public:    ps,
	})
}

// UnmarshalBinary restores a Config produced by MarshalBinary, and validates it.
// If c.Group is set, the export must use the same group.
func (c *Config) UnmarshalBinary(data []byte) error {
	var cm configExport
	if err := cbor.Unmarshal(data, &cm); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if cm.Version != exportVersion {
		return fmt.Errorf("%w: %d", ErrVersion, cm.Version)
	}
	group, err := resolveGroup(c.Group, cm.Group)
	if err != nil {
		return err
	}

	secret := group.NewScalar()
	if err = secret.UnmarshalBinary(cm.ECDSA); err != nil {
		return fmt.Errorf("config: ECDSA: %w", err)
	}

	// the primes are checked before any modular arithmetic is set up over them
	P := new(saferith.Nat).SetBytes(cm.P)
	Q := new(saferith.Nat).SetBytes(cm.Q)
	if err = paillier.ValidatePrime(P); err != nil {
		return fmt.Errorf("config: prime P: %w", err)
	}
	if err = paillier.ValidatePrime(Q); err != nil {
		return fmt.Errorf("config: prime Q: %w", err)
	}
	paillierSecret := paillier.NewSecretKeyFromPrimes(P, Q)

	ps := make(map[party.ID]*Public, len(cm.Public))
	for _, pm := range cm.Public {
		if _, ok := ps[pm.ID]; ok {
			return fmt.Errorf("config: party %s: duplicate entry", pm.ID)
		}
		point := group.NewPoint()
		if err = point.UnmarshalBinary(pm.ECDSA); err != nil {
			return fmt.Errorf("config: party %s: %w", pm.ID, err)
		}
		if len(pm.N) != params.BytesPaillier {
			return fmt.Errorf("config: party %s: %w", pm.ID, paillier.ErrPaillierLength)
		}
		n := saferith.ModulusFromBytes(pm.N)
		s := new(saferith.Nat).SetBytes(pm.S)
		t := new(saferith.Nat).SetBytes(pm.T)
		if err = paillier.ValidateN(n); err != nil {
			return fmt.Errorf("config: party %s: %w", pm.ID, err)
		}
		if err = pedersen.ValidateParameters(n, s, t); err != nil {
			return fmt.Errorf("config: party %s: %w", pm.ID, err)
		}

		// our own key keeps the factorization, which speeds up exponentiation
		paillierPublic := paillier.NewPublicKey(n)
		if pm.ID == cm.ID {
			paillierPublic = paillierSecret.PublicKey
		}
		ps[pm.ID] = &Public{
			ECDSA:    point,
			Paillier: paillierPublic,
			Pedersen: pedersen.New(paillierPublic.Modulus(), s, t),
		}
	}

	restored := Config{
		Group:     group,
		ID:        cm.ID,
		Threshold: cm.Threshold,
		ECDSA:     secret,
		Paillier:  paillierSecret,
		RID:       types.RID(cm.RID),
		ChainKey:  types.RID(cm.ChainKey),
		Public:    ps,
	}
	if err = restored.Validate(); err != nil {
		return err
	}
	*c = restored
	return nil
}

// Encode returns the text form of MarshalBinary.
func (c *Config) Encode() (string, error) {
	data, err := c.MarshalBinary()
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// Decode restores a Config from the output of Encode.
func (c *Config) Decode(text string) error {
	data, err := base64.RawURLEncoding.DecodeString(text)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return c.UnmarshalBinary(data)
}

func (c *MinimalConfig) MarshalBinary() ([]byte, error) {
	if c.Group == nil || c.ECDSA == nil {
		return nil, ErrMissingField
	}
	secret, err := c.ECDSA.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	ps := make([]minimalPublicExport, 0, len(c.Public))
	for _, id := range c.PartyIDs() {
		if c.Public[id] == nil {
			return nil, fmt.Errorf("config: party %s: %w", id, ErrMissingField)
		}
		point, err := c.Public[id].MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("config: party %s: %w", id, err)
		}
		ps = append(ps, minimalPublicExport{ID: id, ECDSA: point})
	}
	return cbor.Marshal(&minimalExport{
		Version:   exportVersion,
		Group:     c.Group.Name(),
		ID:        c.ID,
		Threshold: c.Threshold,
		ECDSA:     secret,
		ChainKey:  c.ChainKey,
		Public:    ps,
	})
}

// UnmarshalBinary restores a MinimalConfig produced by MarshalBinary, and validates it.
func (c *MinimalConfig) UnmarshalBinary(data []byte) error {
	var cm minimalExport
	if err := cbor.Unmarshal(data, &cm); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if cm.Version != exportVersion {
		return fmt.Errorf("%w: %d", ErrVersion, cm.Version)
	}
	group, err := resolveGroup(c.Group, cm.Group)
	if err != nil {
		return err
	}
	secret := group.NewScalar()
	if err = secret.UnmarshalBinary(cm.ECDSA); err != nil {
		return fmt.Errorf("config: ECDSA: %w", err)
	}
	ps := make(map[party.ID]curve.Point, len(cm.Public))
	for _, pm := range cm.Public {
		if _, ok := ps[pm.ID]; ok {
			return fmt.Errorf("config: party %s: duplicate entry", pm.ID)
		}
		point := group.NewPoint()
		if err = point.UnmarshalBinary(pm.ECDSA); err != nil {
			return fmt.Errorf("config: party %s: %w", pm.ID, err)
		}
		ps[pm.ID] = point
	}
	restored := MinimalConfig{
		Group:     group,
		ID:        cm.ID,
		Threshold: cm.Threshold,
		ECDSA:     secret,
		ChainKey:  types.RID(cm.ChainKey),
		Public:    ps,
	}
	if err = restored.Validate(); err != nil {
		return err
	}
	*c = restored
	return nil
}

// Encode returns the text form of MarshalBinary.
func (c *MinimalConfig) Encode() (string, error) {
	data, err := c.MarshalBinary()
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// Decode restores a MinimalConfig from the output of Encode.
func (c *MinimalConfig) Decode(text string) error {
	data, err := base64.RawURLEncoding.DecodeString(text)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return c.UnmarshalBinary(data)
}

func resolveGroup(expected curve.Curve, name string) (curve.Curve, error) {
	group, err := curve.FromName(name)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if expected != nil && expected.Name() != group.Name() {
		return nil, fmt.Errorf("%w: %s instead of %s", ErrGroup, name, expected.Name())
	}
	return group, nil
}
