// internal/infra/solana/resolver.go
package solana

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/blocto/solana-go-sdk/common"
)

var ErrResolverNotConfigured = errors.New("solana resolver: not configured")

// Resolver turns a fresh session into a callable program client.
// The IDL is fetched from the ledger on every call; nothing is cached between operations.
type Resolver struct {
	Sessions  *SessionProvider
	ProgramID common.PublicKey
	Boards    BoardLocator
	Confirm   ConfirmOptions
}

// ResolveClient obtains a session, fetches the program's published interface and binds them.
func (r *Resolver) ResolveClient(ctx context.Context) (*ProgramClient, error) {
	if r == nil || r.Sessions == nil || r.Boards == nil {
		return nil, ErrResolverNotConfigured
	}

	session := r.Sessions.GetSession()

	idl, err := FetchIDL(ctx, session.RPC, r.ProgramID)
	if err != nil {
		log.Printf("[solana.resolver] fetch idl failed program=%s endpoint=%s err=%v",
			maskShort(r.ProgramID.ToBase58()), session.Endpoint, err)
		return nil, fmt.Errorf("solana resolver: %w", err)
	}

	return &ProgramClient{
		ProgramID: r.ProgramID,
		IDL:       idl,
		Session:   session,
		Boards:    r.Boards,
		Confirm:   r.Confirm,
	}, nil
}
