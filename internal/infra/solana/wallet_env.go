// internal/infra/solana/wallet_env.go
package solana

import (
	"os"
	"strings"

	walletdom "github.com/shnoopysol/gif-portal/internal/domain/wallet"
)

// WalletEnvironment plays the role of the browser's injected wallet object:
// it exposes a wallet only while the capability is actually present.
type WalletEnvironment struct {
	wallet  walletdom.Wallet
	present func() bool
}

var _ walletdom.Environment = (*WalletEnvironment)(nil)

// NewStaticEnvironment always exposes w (nil means "no wallet installed").
func NewStaticEnvironment(w walletdom.Wallet) *WalletEnvironment {
	return &WalletEnvironment{wallet: w}
}

// NewKeyfileEnvironment exposes a keypair-file wallet while the file exists.
func NewKeyfileEnvironment(path string, trusted bool) *WalletEnvironment {
	p := strings.TrimSpace(path)
	if p == "" {
		return &WalletEnvironment{}
	}
	return &WalletEnvironment{
		wallet: NewKeypairWallet("keyfile", FileKeyLoader(p), trusted),
		present: func() bool {
			_, err := os.Stat(p)
			return err == nil
		},
	}
}

// WithApprover installs a on the exposed wallet when it supports approval prompts.
func (e *WalletEnvironment) WithApprover(a Approver) *WalletEnvironment {
	if kw, ok := e.wallet.(*KeypairWallet); ok {
		kw.WithApprover(a)
	}
	return e
}

func (e *WalletEnvironment) Wallet() walletdom.Wallet {
	if e == nil || e.wallet == nil {
		return nil
	}
	if e.present != nil && !e.present() {
		return nil
	}
	return e.wallet
}
