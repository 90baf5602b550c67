// internal/infra/solana/session.go
package solana

import (
	"context"
	"fmt"
	"time"

	"github.com/blocto/solana-go-sdk/common"

	walletdom "github.com/shnoopysol/gif-portal/internal/domain/wallet"
)

// Session bundles a connection handle with the wallet used to authorize requests.
type Session struct {
	Endpoint   string
	Commitment Commitment
	RPC        LedgerRPC
	// Wallet is nil when the environment exposes no wallet.
	Wallet walletdom.Wallet
	// Address is "" until the wallet has been connected.
	Address string
}

// UserKey returns the authorized public key.
func (s Session) UserKey() (common.PublicKey, error) {
	if s.Wallet == nil || s.Address == "" {
		return common.PublicKey{}, walletdom.ErrWalletNotConnected
	}
	return parsePublicKey(s.Address)
}

// Sign asks the session wallet to sign a serialized message.
func (s Session) Sign(ctx context.Context, message []byte) ([]byte, error) {
	if s.Wallet == nil {
		return nil, walletdom.ErrWalletNotConnected
	}
	sig, err := s.Wallet.SignMessage(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("session: sign: %w", err)
	}
	return sig, nil
}

// Dialer builds the connection handle for a session.
type Dialer func(endpoint string, commitment Commitment, timeout time.Duration) LedgerRPC

// DialBlocto is the default Dialer.
func DialBlocto(endpoint string, commitment Commitment, timeout time.Duration) LedgerRPC {
	return NewConnection(endpoint, commitment, timeout)
}

// SessionProvider constructs sessions from fixed connection settings and the ambient wallet.
// Nothing is cached: every GetSession re-reads the environment, so a reconnect with a
// different key is picked up by the next operation.
type SessionProvider struct {
	Endpoint   string
	Commitment Commitment
	Timeout    time.Duration
	Env        walletdom.Environment
	Dial       Dialer
}

// GetSession does not validate wallet presence; signing fails later if there is none.
func (p *SessionProvider) GetSession() Session {
	dial := p.Dial
	if dial == nil {
		dial = DialBlocto
	}

	s := Session{
		Endpoint:   p.Endpoint,
		Commitment: p.Commitment,
		RPC:        dial(p.Endpoint, p.Commitment, p.Timeout),
	}
	if p.Env != nil {
		if w := p.Env.Wallet(); w != nil {
			s.Wallet = w
			s.Address = w.Address()
		}
	}
	return s
}
