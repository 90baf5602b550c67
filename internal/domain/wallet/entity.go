// internal/domain/wallet/entity.go
package wallet

import (
	"context"
	"errors"
	"regexp"
)

// Domain errors
var (
	ErrWalletUnavailable  = errors.New("wallet: no wallet capability available")
	ErrWalletRejected     = errors.New("wallet: authorization rejected")
	ErrWalletNotConnected = errors.New("wallet: not connected")
	ErrInvalidAddress     = errors.New("wallet: invalid address")
)

// Solana-like base58 address format (approximation).
var base58Re = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)

// IsValidAddress reports whether s looks like a base58 public key.
func IsValidAddress(s string) bool {
	return base58Re.MatchString(s)
}

// ConnectOptions mirrors the browser wallet connect() options.
type ConnectOptions struct {
	// OnlyIfTrusted は「すでに許可済みなら黙って接続、未許可なら ErrWalletRejected」を意味します。
	// ページロード時のサイレント接続で使います。
	OnlyIfTrusted bool
}

// Wallet is the signing capability exposed by the environment.
type Wallet interface {
	// Connect asks the wallet for authorization and returns the authorized base58 address.
	Connect(ctx context.Context, opts ConnectOptions) (string, error)
	// Address returns the authorized address, or "" when not connected.
	Address() string
	// SignMessage signs a serialized transaction message with the authorized key.
	SignMessage(ctx context.Context, message []byte) ([]byte, error)
}

// Environment exposes whichever wallet is currently installed.
// Wallet returns nil when no wallet capability is present.
type Environment interface {
	Wallet() Wallet
}
