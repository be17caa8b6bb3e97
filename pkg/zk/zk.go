// Package zk holds fixtures shared by the tests of the proof packages.
package zk

import (
	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/cmp-ecdsa/internal/test"
	"github.com/taurusgroup/cmp-ecdsa/pkg/paillier"
	"github.com/taurusgroup/cmp-ecdsa/pkg/pedersen"
)

var (
	ProverPaillierPublic   *paillier.PublicKey
	ProverPaillierSecret   *paillier.SecretKey
	VerifierPaillierPublic *paillier.PublicKey
	VerifierPaillierSecret *paillier.SecretKey
	Pedersen               *pedersen.Parameters
	PedersenLambda         *saferith.Nat
)

func init() {
	ProverPaillierSecret = paillier.NewSecretKeyFromPrimes(test.SafePrimePair(0))
	ProverPaillierPublic = ProverPaillierSecret.PublicKey

	VerifierPaillierSecret = paillier.NewSecretKeyFromPrimes(test.SafePrimePair(1))
	VerifierPaillierPublic = VerifierPaillierSecret.PublicKey

	Pedersen, PedersenLambda = VerifierPaillierSecret.GeneratePedersen()
}
