// internal/infra/solana/commitment.go
package solana

import (
	"fmt"
	"strings"

	"github.com/blocto/solana-go-sdk/rpc"
)

// Commitment is how finalized a read/write must be before it counts as done.
type Commitment string

const (
	CommitmentProcessed Commitment = "processed"
	CommitmentConfirmed Commitment = "confirmed"
	CommitmentFinalized Commitment = "finalized"
)

// ParseCommitment accepts the three commitment names case-insensitively.
func ParseCommitment(s string) (Commitment, error) {
	c := Commitment(strings.ToLower(strings.TrimSpace(s)))
	if c.rank() == 0 {
		return "", fmt.Errorf("solana: unknown commitment %q", s)
	}
	return c, nil
}

// Reaches reports whether c is at least as final as target.
func (c Commitment) Reaches(target Commitment) bool {
	return c.rank() != 0 && c.rank() >= target.rank()
}

func (c Commitment) rank() int {
	switch c {
	case CommitmentProcessed:
		return 1
	case CommitmentConfirmed:
		return 2
	case CommitmentFinalized:
		return 3
	default:
		return 0
	}
}

func (c Commitment) rpc() rpc.Commitment {
	return rpc.Commitment(c)
}
