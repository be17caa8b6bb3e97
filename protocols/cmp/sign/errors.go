package sign

import "errors"

var (
	errMessageLength     = errors.New("sign: message must be a 32 byte digest")
	errSigners           = errors.New("sign: signers is not a valid signing subset")
	errCiphertext        = errors.New("sign: invalid ciphertext")
	errEncProof          = errors.New("sign: failed to validate enc proof for K")
	errAffgDelta         = errors.New("sign: failed to validate affg proof for Delta MtA")
	errAffgChi           = errors.New("sign: failed to validate affg proof for Chi MtA")
	errLogGamma          = errors.New("sign: failed to validate log* proof for BigGammaShare")
	errLogDelta          = errors.New("sign: failed to validate log* proof for BigDeltaShare")
	errBroadcastMismatch = errors.New("sign: Delta MtA ciphertext differs from the broadcast one")
	errDecrypt           = errors.New("sign: failed to decrypt MtA share")
	errInconsistentDelta = errors.New("sign: computed Δ is inconsistent with [δ]G")
	errReveal            = errors.New("sign: failed to validate revealed shares")
	errZeroDelta         = errors.New("sign: δ is zero")
	errSignature         = errors.New("sign: failed to validate signature")
	errRecovery          = errors.New("sign: recovery id does not give back the public key")
)
