// internal/infra/solana/wallet_keypair.go
package solana

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/blocto/solana-go-sdk/types"

	walletdom "github.com/shnoopysol/gif-portal/internal/domain/wallet"
)

// KeyLoader restores the signing key on demand (file, Secret Manager, ...).
type KeyLoader func(ctx context.Context) (types.Account, error)

// Approver is asked before an interactive connect; returning false rejects it.
type Approver func(ctx context.Context, address string) bool

// KeypairWallet は鍵ペアを保持するローカルウォレットです。
// ブラウザウォレットと同様に connect() で許可を得てから署名できます。
//   - 一度明示的に接続すると trusted になり、以降のサイレント接続（OnlyIfTrusted）が通る
//   - 鍵は Connect 時に毎回 KeyLoader から読み直す（ファイル差し替えに追従する）
type KeypairWallet struct {
	mu      sync.Mutex
	name    string
	load    KeyLoader
	approve Approver
	trusted bool
	account *types.Account
}

var _ walletdom.Wallet = (*KeypairWallet)(nil)

// NewKeypairWallet wraps a key loader; trusted pre-authorizes silent connects.
func NewKeypairWallet(name string, load KeyLoader, trusted bool) *KeypairWallet {
	return &KeypairWallet{name: name, load: load, trusted: trusted}
}

// WithApprover installs an approval prompt for interactive connects.
func (w *KeypairWallet) WithApprover(a Approver) *KeypairWallet {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.approve = a
	return w
}

func (w *KeypairWallet) Connect(ctx context.Context, opts walletdom.ConnectOptions) (string, error) {
	if w == nil || w.load == nil {
		return "", walletdom.ErrWalletUnavailable
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if opts.OnlyIfTrusted && !w.trusted {
		return "", fmt.Errorf("%w: %s has not been approved yet", walletdom.ErrWalletRejected, w.name)
	}

	acc, err := w.load(ctx)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, walletdom.ErrWalletUnavailable) {
			return "", fmt.Errorf("%w: %v", walletdom.ErrWalletUnavailable, err)
		}
		return "", fmt.Errorf("wallet %s: load key: %w", w.name, err)
	}
	addr := acc.PublicKey.ToBase58()

	if !opts.OnlyIfTrusted && w.approve != nil && !w.approve(ctx, addr) {
		return "", fmt.Errorf("%w: %s declined by user", walletdom.ErrWalletRejected, w.name)
	}

	w.account = &acc
	w.trusted = true

	log.Printf("[wallet] connected wallet=%s address=%s silent=%t", w.name, maskShort(addr), opts.OnlyIfTrusted)
	return addr, nil
}

func (w *KeypairWallet) Address() string {
	if w == nil {
		return ""
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.account == nil {
		return ""
	}
	return w.account.PublicKey.ToBase58()
}

func (w *KeypairWallet) SignMessage(ctx context.Context, message []byte) ([]byte, error) {
	_ = ctx

	if w == nil {
		return nil, walletdom.ErrWalletNotConnected
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.account == nil {
		return nil, walletdom.ErrWalletNotConnected
	}
	return w.account.Sign(message), nil
}

// FileKeyLoader reads a keypair file on every call.
func FileKeyLoader(path string) KeyLoader {
	return func(ctx context.Context) (types.Account, error) {
		_ = ctx
		return LoadKeypairFile(path)
	}
}
