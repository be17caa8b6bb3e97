package recovery

import "errors"

var (
	errHelpers     = errors.New("recovery: invalid set of helpers")
	errCommitments = errors.New("recovery: commitments do not sum to the weighted public share")
	errDelta       = errors.New("recovery: delta does not match its commitment")
	errSigma       = errors.New("recovery: sum of deltas does not match the commitments")
)
