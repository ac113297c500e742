package sender

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// ErrSignatureMismatch reports endpoints disagreeing on the accepted
// signature for one broadcast. The attempt aborts rather than guessing
// which endpoint is authoritative.
var ErrSignatureMismatch = errors.New("sender: endpoints disagree on accepted signature")

// ExecutionError is a program-level failure reported by the chain. Retrying
// would reproduce the identical failure, so it surfaces immediately.
type ExecutionError struct {
	Signature solana.Signature
	Attempt   int
	Payload   any
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("sender: on-chain execution error for %s (attempt %d): %v", e.Signature, e.Attempt, e.Payload)
}

// ExpiredError reports exhausting the attempt budget without a confirmation.
// It carries enough for a caller to resume manually.
type ExpiredError struct {
	Signature solana.Signature
	Attempts  int
	LastFee   uint64
}

func (e *ExpiredError) Error() string {
	return fmt.Sprintf("sender: transaction expired after %d attempts (last signature %s, last fee %d)",
		e.Attempts, e.Signature, e.LastFee)
}
