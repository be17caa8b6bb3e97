package config

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/taurusgroup/cmp-ecdsa/internal/bip32"
	"github.com/taurusgroup/cmp-ecdsa/internal/types"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/curve"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/polynomial"
	"github.com/taurusgroup/cmp-ecdsa/pkg/paillier"
	"github.com/taurusgroup/cmp-ecdsa/pkg/party"
	"github.com/taurusgroup/cmp-ecdsa/pkg/pedersen"
)

var (
	ErrMissingField  = errors.New("config: one or more field is empty")
	ErrThreshold     = errors.New("config: invalid threshold")
	ErrNotOnSharing  = errors.New("config: public shares do not lie on a single sharing polynomial")
	ErrNoPublicEntry = errors.New("config: no public data for this party")
)

// Public holds public information for a party.
type Public struct {
	// ECDSA public key share Xⱼ = xⱼ⋅G.
	ECDSA curve.Point
	// Paillier is the party's public Paillier key, N = p•q, p ≡ q ≡ 3 mod 4.
	Paillier *paillier.PublicKey
	// Pedersen are ring-Pedersen parameters (N, s, t) over the same modulus.
	Pedersen *pedersen.Parameters
}

// Config represents the SignKey obtained after a keygen/refresh operation.
// It represents ssid = (sid, (N₁, s₁, t₁), …, (Nₙ, sₙ, tₙ))
// where sid = (𝔾, t, n, P₁, …, Pₙ).
type Config struct {
	Group curve.Curve

	ID party.ID

	// Threshold is the number of shares required to sign.
	// The sharing polynomial has degree Threshold-1.
	Threshold int

	// ECDSA is this party's share xᵢ of the secret ECDSA x.
	ECDSA curve.Scalar

	// Paillier is this party's secret Paillier key, whose factors are also used for the Pedersen parameters.
	Paillier *paillier.SecretKey

	// RID is a 32 byte random identifier generated for this config.
	RID types.RID
	// ChainKey is the chaining key value associated with this public key.
	ChainKey types.RID

	// Public maps party.ID to party. It contains all public information associated to a party.
	Public map[party.ID]*Public
}

// PublicPoint returns the group's public ECC point.
func (c Config) PublicPoint() curve.Point {
	return interpolate(c.Group, c.PartyIDs(), func(id party.ID) curve.Point { return c.Public[id].ECDSA })
}

// Validate ensures that the data is consistent. In particular it verifies:
// - 1 ⩽ threshold ⩽ n
// - all public data is present and valid
// - the secret corresponds to the data from an included party
// - every subset of Threshold public shares interpolates to the same public key.
func (c Config) Validate() error {
	if c.Group == nil || c.ECDSA == nil || c.Paillier == nil {
		return ErrMissingField
	}
	if !ValidThreshold(c.Threshold, len(c.Public)) {
		return fmt.Errorf("%w: %d for %d parties", ErrThreshold, c.Threshold, len(c.Public))
	}
	if err := c.RID.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.ChainKey.Validate(); err != nil {
		return fmt.Errorf("config: chain key: %w", err)
	}

	if c.ECDSA.IsZero() {
		return errors.New("config: ECDSA secret key share is zero")
	}

	if err := paillier.ValidatePrime(c.Paillier.P()); err != nil {
		return fmt.Errorf("config: prime p: %w", err)
	}
	if err := paillier.ValidatePrime(c.Paillier.Q()); err != nil {
		return fmt.Errorf("config: prime q: %w", err)
	}

	for j, publicJ := range c.Public {
		if err := publicJ.validate(); err != nil {
			return fmt.Errorf("config: party %s: %w", j, err)
		}
	}

	public, ok := c.Public[c.ID]
	if !ok {
		return ErrNoPublicEntry
	}
	if !c.ECDSA.ActOnBase().Equal(public.ECDSA) {
		return errors.New("config: ECDSA secret key share does not correspond to public share")
	}
	if !c.Paillier.PublicKey.Equal(public.Paillier) {
		return errors.New("config: P•Q ≠ N")
	}

	return c.validateSharing()
}

// validateSharing checks that every window of Threshold consecutive parties interpolates to
// the same point. Two consecutive windows share Threshold-1 points, so agreeing on the constant
// term forces them onto the same polynomial, and therefore every subset agrees.
func (c Config) validateSharing() error {
	ids := c.PartyIDs()
	share := func(id party.ID) curve.Point { return c.Public[id].ECDSA }
	expected := interpolate(c.Group, ids[:c.Threshold], share)
	for start := 1; start+c.Threshold <= len(ids); start++ {
		if !interpolate(c.Group, ids[start:start+c.Threshold], share).Equal(expected) {
			return ErrNotOnSharing
		}
	}
	return nil
}

func interpolate(group curve.Curve, ids party.IDSlice, point func(party.ID) curve.Point) curve.Point {
	l := polynomial.Lagrange(group, ids)
	sum := group.NewPoint()
	for _, j := range ids {
		sum = sum.Add(l[j].Act(point(j)))
	}
	return sum
}

// PartyIDs returns a sorted slice of party IDs.
func (c Config) PartyIDs() party.IDSlice {
	ids := make([]party.ID, 0, len(c.Public))
	for j := range c.Public {
		ids = append(ids, j)
	}
	return party.NewIDSlice(ids)
}

// validate returns an error if Public is invalid. Otherwise return nil.
func (p *Public) validate() error {
	if p == nil || p.ECDSA == nil || p.Paillier == nil || p.Pedersen == nil {
		return errors.New("public: one or more field is empty")
	}

	if p.ECDSA.IsIdentity() {
		return errors.New("public: ECDSA public key share is identity")
	}

	if err := paillier.ValidateN(p.Paillier.N()); err != nil {
		return fmt.Errorf("public: %w", err)
	}

	if _, eq, _ := p.Paillier.N().Cmp(p.Pedersen.N()); eq != 1 {
		return errors.New("public: Pedersen modulus differs from Paillier modulus")
	}
	if err := pedersen.ValidateParameters(p.Pedersen.N(), p.Pedersen.S(), p.Pedersen.T()); err != nil {
		return fmt.Errorf("public: %w", err)
	}

	return nil
}

// WriteTo implements io.WriterTo interface.
func (c *Config) WriteTo(w io.Writer) (total int64, err error) {
	if c == nil {
		return 0, io.ErrUnexpectedEOF
	}
	var n int64

	// write t
	n, err = types.ThresholdWrapper(c.Threshold).WriteTo(w)
	total += n
	if err != nil {
		return
	}

	// write partyIDs
	partyIDs := c.PartyIDs()
	n, err = partyIDs.WriteTo(w)
	total += n
	if err != nil {
		return
	}

	// write rid
	n, err = c.RID.WriteTo(w)
	total += n
	if err != nil {
		return
	}

	// write all party data
	for _, j := range partyIDs {
		n, err = c.Public[j].WriteTo(w)
		total += n
		if err != nil {
			return
		}
	}

	return
}

// Domain implements hash.WriterToWithDomain.
func (Config) Domain() string {
	return "CMP Config"
}

// Domain implements hash.WriterToWithDomain.
func (Public) Domain() string {
	return "Public Data"
}

// WriteTo implements io.WriterTo interface.
func (p *Public) WriteTo(w io.Writer) (total int64, err error) {
	if p == nil {
		return 0, io.ErrUnexpectedEOF
	}
	data, err := p.ECDSA.MarshalBinary()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	total = int64(n)
	if err != nil {
		return
	}

	var m int64
	m, err = p.Paillier.WriteTo(w)
	total += m
	if err != nil {
		return
	}
	m, err = p.Pedersen.WriteTo(w)
	total += m
	return
}

// Equal returns true if both public records describe the same party.
func (p *Public) Equal(other *Public) bool {
	if p == nil || other == nil {
		return p == other
	}
	if !p.ECDSA.Equal(other.ECDSA) {
		return false
	}
	if !p.Paillier.Equal(other.Paillier) {
		return false
	}
	if p.Pedersen.S().Eq(other.Pedersen.S()) != 1 {
		return false
	}
	return p.Pedersen.T().Eq(other.Pedersen.T()) == 1
}

// CanSign returns true if the given list of signers is
// a valid subset of the original parties of size ⩾ Threshold,
// and includes self.
func (c *Config) CanSign(signers []party.ID) bool {
	ids := party.NewIDSlice(signers)
	if len(ids) < c.Threshold || len(ids) > len(c.Public) {
		return false
	}

	// check for duplicates
	if !ids.Valid() {
		return false
	}

	if !ids.Contains(c.ID) {
		return false
	}

	for _, j := range ids {
		if _, ok := c.Public[j]; !ok {
			return false
		}
	}

	return true
}

// ValidThreshold returns true if 1 ⩽ t ⩽ n.
func ValidThreshold(t, n int) bool {
	if t < 1 || t > math.MaxUint32 {
		return false
	}
	return n > 0 && t <= n
}

// DeriveChild derives a sharing of the ith child of the consortium signing key.
//
// This function uses unhardened derivation, deriving a key without including the
// underlying private key. An error is returned if i ⩾ 2³¹, since that indicates
// a hardened key.
//
// Sometimes, an error will be returned, indicating that this index generates
// an invalid key.
//
// See: https://github.com/bitcoin/bips/blob/master/bip-0032.mediawiki
func (c *Config) DeriveChild(i uint32) (*Config, error) {
	return c.DerivePath(bip32.Path{i})
}

// DerivePath applies DeriveChild along path.
func (c *Config) DerivePath(path bip32.Path) (*Config, error) {
	scalar, newChainKey, err := bip32.DerivePath(c.PublicPoint(), c.ChainKey, path)
	if err != nil {
		return nil, err
	}

	// Every share is shifted by the tweak, which shifts the constant term of the sharing by
	// the same amount since the Lagrange coefficients at 0 sum to 1.
	scalarG := scalar.ActOnBase()

	publics := make(map[party.ID]*Public, len(c.Public))
	for k, v := range c.Public {
		publics[k] = &Public{
			ECDSA:    v.ECDSA.Add(scalarG),
			Paillier: v.Paillier,
			Pedersen: v.Pedersen,
		}
	}

	return &Config{
		Group:     c.Group,
		ID:        c.ID,
		Threshold: c.Threshold,
		ECDSA:     c.Group.NewScalar().Set(c.ECDSA).Add(scalar),
		Paillier:  c.Paillier,
		RID:       c.RID.Copy(),
		ChainKey:  newChainKey,
		Public:    publics,
	}, nil
}

// Minimal strips the Paillier and Pedersen material from c.
func (c *Config) Minimal() *MinimalConfig {
	public := make(map[party.ID]curve.Point, len(c.Public))
	for j, p := range c.Public {
		public[j] = p.ECDSA
	}
	return &MinimalConfig{
		Group:     c.Group,
		ID:        c.ID,
		Threshold: c.Threshold,
		ECDSA:     c.Group.NewScalar().Set(c.ECDSA),
		ChainKey:  c.ChainKey.Copy(),
		Public:    public,
	}
}
