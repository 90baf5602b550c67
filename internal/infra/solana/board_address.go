// internal/infra/solana/board_address.go
package solana

import (
	"errors"
	"fmt"
	"strings"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"

	walletdom "github.com/shnoopysol/gif-portal/internal/domain/wallet"
)

var (
	ErrEmptySeed          = errors.New("solana board: seed is empty")
	ErrUnknownAccountMode = errors.New("solana board: unknown account mode")
)

// parsePublicKey validates a base58 address (common.PublicKeyFromString silently accepts garbage).
func parsePublicKey(s string) (common.PublicKey, error) {
	t := strings.TrimSpace(s)
	b, err := base58.Decode(t)
	if err != nil || len(b) != 32 {
		return common.PublicKey{}, fmt.Errorf("%w: %q", walletdom.ErrInvalidAddress, s)
	}
	return common.PublicKeyFromBytes(b), nil
}

// ParsePublicKey is the exported form used by wiring code.
func ParsePublicKey(s string) (common.PublicKey, error) {
	return parsePublicKey(s)
}

// BoardLocator decides which account holds the links for a user.
type BoardLocator interface {
	// Locate returns the board address and, if the board is keypair-owned, its keypair (co-signer).
	Locate(user common.PublicKey) (common.PublicKey, *types.Account, error)
}

// DerivedBoard gives every wallet its own board: PDA([seed, user], program).
type DerivedBoard struct {
	ProgramID common.PublicKey
	Seed      string
}

func (d DerivedBoard) Locate(user common.PublicKey) (common.PublicKey, *types.Account, error) {
	if d.Seed == "" {
		return common.PublicKey{}, nil, ErrEmptySeed
	}
	addr, _, err := common.FindProgramAddress([][]byte{[]byte(d.Seed), user.Bytes()}, d.ProgramID)
	if err != nil {
		return common.PublicKey{}, nil, fmt.Errorf("solana board: derive address: %w", err)
	}
	return addr, nil, nil
}

// SharedBoard is the legacy layout: one keypair-owned board shared by every user.
type SharedBoard struct {
	Account types.Account
}

func (s SharedBoard) Locate(common.PublicKey) (common.PublicKey, *types.Account, error) {
	acc := s.Account
	return acc.PublicKey, &acc, nil
}

// NewBoardLocator builds the locator for account.mode:
//   - "shared": the keypair file at keypairPath owns the one board (co-signs initialization)
//   - "derived": PDA([seed, user], programID) per wallet
func NewBoardLocator(mode, seed, keypairPath string, programID common.PublicKey) (BoardLocator, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "shared":
		acc, err := LoadKeypairFile(keypairPath)
		if err != nil {
			return nil, fmt.Errorf("solana board: shared keypair: %w", err)
		}
		return SharedBoard{Account: acc}, nil
	case "derived":
		if seed == "" {
			return nil, ErrEmptySeed
		}
		return DerivedBoard{ProgramID: programID, Seed: seed}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAccountMode, mode)
	}
}
