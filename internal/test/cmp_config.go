package test

import (
	"io"

	"github.com/taurusgroup/cmp-ecdsa/internal/types"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/curve"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/polynomial"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/sample"
	"github.com/taurusgroup/cmp-ecdsa/pkg/paillier"
	"github.com/taurusgroup/cmp-ecdsa/pkg/party"
	"github.com/taurusgroup/cmp-ecdsa/pkg/pedersen"
	"github.com/taurusgroup/cmp-ecdsa/pkg/pool"
	"github.com/taurusgroup/cmp-ecdsa/protocols/cmp/config"
)

// GenerateConfig creates a trusted-dealer configuration for N parties, where T shares are required to sign.
//
// The first MaxFixedPrimePairs parties use the fixture primes, so that small tests never search for primes.
func GenerateConfig(group curve.Curve, N, T int, source io.Reader, pl *pool.Pool) (map[party.ID]*config.Config, party.IDSlice) {
	partyIDs := PartyIDs(N)
	configs := make(map[party.ID]*config.Config, N)
	public := make(map[party.ID]*config.Public, N)

	f := polynomial.NewPolynomial(source, group, T-1, sample.Scalar(source, group))

	rid, err := types.NewRID(source)
	if err != nil {
		panic(err)
	}
	chainKey, err := types.NewRID(source)
	if err != nil {
		panic(err)
	}

	for i, pid := range partyIDs {
		var paillierSecret *paillier.SecretKey
		if i < MaxFixedPrimePairs {
			paillierSecret = paillier.NewSecretKeyFromPrimes(SafePrimePair(i))
		} else {
			paillierSecret = paillier.NewSecretKey(pl)
		}
		s, t, _ := sample.Pedersen(source, paillierSecret.Phi(), paillierSecret.N())
		pedersenPublic := pedersen.New(paillierSecret.Modulus(), s, t)

		ecdsaSecret := f.Evaluate(pid.Scalar(group))
		configs[pid] = &config.Config{
			Group:     group,
			ID:        pid,
			Threshold: T,
			ECDSA:     ecdsaSecret,
			Paillier:  paillierSecret,
			RID:       rid.Copy(),
			ChainKey:  chainKey.Copy(),
			Public:    public,
		}
		public[pid] = &config.Public{
			ECDSA:    ecdsaSecret.ActOnBase(),
			Paillier: paillierSecret.PublicKey,
			Pedersen: pedersenPublic,
		}
	}
	return configs, partyIDs
}
