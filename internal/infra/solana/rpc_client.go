// internal/infra/solana/rpc_client.go
package solana

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"

	linkdom "github.com/shnoopysol/gif-portal/internal/domain/link"
)

// Solana Devnet RPC endpoint (default)
const DevnetEndpoint = "https://api.devnet.solana.com"

// AccountData is the subset of getAccountInfo this program reads.
type AccountData struct {
	Owner      common.PublicKey
	Lamports   uint64
	Executable bool
	Data       []byte
}

// SignatureStatus is the decoded getSignatureStatuses entry for one signature.
type SignatureStatus struct {
	Found        bool
	Slot         uint64
	Confirmation Commitment
	Err          any
}

// LedgerRPC defines the minimal Solana RPC methods we need.
type LedgerRPC interface {
	// GetAccount returns linkdom.ErrAccountNotFound when the address holds no account.
	GetAccount(ctx context.Context, address common.PublicKey) (AccountData, error)
	GetLatestBlockhash(ctx context.Context) (string, error)
	SendTransaction(ctx context.Context, tx types.Transaction) (string, error)
	GetSignatureStatus(ctx context.Context, signature string) (SignatureStatus, error)
}

// Connection is the network handle half of a Session: endpoint + commitment over the blocto client.
type Connection struct {
	Endpoint   string
	Commitment Commitment
	Timeout    time.Duration

	rpc *client.Client
}

var _ LedgerRPC = (*Connection)(nil)

// NewConnection creates a connection; an empty endpoint falls back to devnet.
func NewConnection(endpoint string, commitment Commitment, timeout time.Duration) *Connection {
	ep := strings.TrimSpace(endpoint)
	if ep == "" {
		ep = DevnetEndpoint
	}
	if commitment == "" {
		commitment = CommitmentProcessed
	}
	return &Connection{
		Endpoint:   ep,
		Commitment: commitment,
		Timeout:    timeout,
		rpc:        client.NewClient(ep),
	}
}

func (c *Connection) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.Timeout)
}

func (c *Connection) GetAccount(ctx context.Context, address common.PublicKey) (AccountData, error) {
	if c == nil || c.rpc == nil {
		return AccountData{}, fmt.Errorf("solana rpc: client not configured")
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	info, err := c.rpc.GetAccountInfoWithConfig(ctx, address.ToBase58(), client.GetAccountInfoConfig{
		Commitment: c.Commitment.rpc(),
	})
	if err != nil {
		if isAccountMissing(err) {
			return AccountData{}, fmt.Errorf("%w: %s", linkdom.ErrAccountNotFound, address.ToBase58())
		}
		return AccountData{}, fmt.Errorf("solana rpc: getAccountInfo %s: %w", maskShort(address.ToBase58()), err)
	}

	// value=null は空の AccountInfo として返ってくる
	if info.Owner == (common.PublicKey{}) && info.Lamports == 0 && len(info.Data) == 0 {
		return AccountData{}, fmt.Errorf("%w: %s", linkdom.ErrAccountNotFound, address.ToBase58())
	}

	return AccountData{
		Owner:      info.Owner,
		Lamports:   info.Lamports,
		Executable: info.Executable,
		Data:       info.Data,
	}, nil
}

func (c *Connection) GetLatestBlockhash(ctx context.Context) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	latest, err := c.rpc.GetLatestBlockhashWithConfig(ctx, client.GetLatestBlockhashConfig{
		Commitment: c.Commitment.rpc(),
	})
	if err != nil {
		return "", fmt.Errorf("solana rpc: getLatestBlockhash: %w", err)
	}
	return latest.Blockhash, nil
}

func (c *Connection) SendTransaction(ctx context.Context, tx types.Transaction) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	sig, err := c.rpc.SendTransactionWithConfig(ctx, tx, client.SendTransactionConfig{
		PreflightCommitment: c.Commitment.rpc(),
	})
	if err != nil {
		return "", fmt.Errorf("solana rpc: sendTransaction: %w", err)
	}
	log.Printf("[solana.rpc] submitted tx=%s endpoint=%s", maskShort(sig), c.Endpoint)
	return sig, nil
}

func (c *Connection) GetSignatureStatus(ctx context.Context, signature string) (SignatureStatus, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	st, err := c.rpc.GetSignatureStatus(ctx, signature)
	if err != nil {
		return SignatureStatus{}, fmt.Errorf("solana rpc: getSignatureStatuses: %w", err)
	}
	if st == nil {
		return SignatureStatus{}, nil
	}

	out := SignatureStatus{Found: true, Slot: st.Slot, Err: st.Err}
	if st.ConfirmationStatus != nil {
		out.Confirmation = Commitment(*st.ConfirmationStatus)
	}
	return out, nil
}

func isAccountMissing(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") ||
		strings.Contains(msg, "could not find account") ||
		strings.Contains(msg, "account does not exist")
}
