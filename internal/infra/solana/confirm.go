// internal/infra/solana/confirm.go
package solana

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrTransactionFailed   = errors.New("solana tx: transaction failed")
	ErrConfirmationTimeout = errors.New("solana tx: confirmation timed out")
)

// ConfirmOptions controls how long a submitted transaction is polled.
type ConfirmOptions struct {
	Target   Commitment
	Timeout  time.Duration
	Interval time.Duration
}

func (o ConfirmOptions) withDefaults() ConfirmOptions {
	if o.Target == "" {
		o.Target = CommitmentProcessed
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.Interval <= 0 {
		o.Interval = 500 * time.Millisecond
	}
	return o
}

// WaitForConfirmation polls the signature status until it reaches the target commitment.
// Transient RPC errors keep polling; a transaction error or the timeout ends the wait.
func WaitForConfirmation(ctx context.Context, rpc LedgerRPC, signature string, opts ConfirmOptions) error {
	opts = opts.withDefaults()

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	var lastErr error
	for {
		st, err := rpc.GetSignatureStatus(ctx, signature)
		switch {
		case err != nil:
			lastErr = err
		case !st.Found:
		case st.Err != nil:
			return fmt.Errorf("%w: %s: %v", ErrTransactionFailed, maskShort(signature), st.Err)
		case st.Confirmation.Reaches(opts.Target):
			return nil
		}

		select {
		case <-ctx.Done():
			if lastErr != nil {
				return fmt.Errorf("%w: %s (last error: %v)", ErrConfirmationTimeout, maskShort(signature), lastErr)
			}
			return fmt.Errorf("%w: %s", ErrConfirmationTimeout, maskShort(signature))
		case <-ticker.C:
		}
	}
}
