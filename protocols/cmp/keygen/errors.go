package keygen

import "errors"

var (
	errSampleRID    = errors.New("keygen: failed to sample randomness")
	errCommit       = errors.New("keygen: failed to commit")
	errDecommit     = errors.New("keygen: failed to decommit")
	errVSSDegree    = errors.New("keygen: VSS polynomial has incorrect degree")
	errVSSConstant  = errors.New("keygen: VSS polynomial has incorrect constant")
	errPaillier     = errors.New("keygen: invalid Paillier modulus")
	errPedersen     = errors.New("keygen: invalid Pedersen parameters")
	errModProof     = errors.New("keygen: failed to validate mod proof")
	errPrmProof     = errors.New("keygen: failed to validate prm proof")
	errShareDecrypt = errors.New("keygen: failed to decrypt share")
	errShare        = errors.New("keygen: share does not match the VSS polynomial")
	errSchnorr      = errors.New("keygen: failed to validate Schnorr proof for received share")
)
