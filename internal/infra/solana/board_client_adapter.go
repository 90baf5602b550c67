// internal/infra/solana/board_client_adapter.go
package solana

import (
	"context"
	"fmt"

	"github.com/shnoopysol/gif-portal/internal/application/usecase"
)

// BoardResolverUsecaseAdapter は usecase.BoardClientResolver を満たすための薄いアダプタ。
// *ProgramClient を usecase.BoardClient として返すだけ。
type BoardResolverUsecaseAdapter struct {
	resolver *Resolver
}

func NewBoardResolverUsecaseAdapter(r *Resolver) *BoardResolverUsecaseAdapter {
	return &BoardResolverUsecaseAdapter{resolver: r}
}

var _ usecase.BoardClientResolver = (*BoardResolverUsecaseAdapter)(nil)

// ResolveClient implements usecase.BoardClientResolver.
func (a *BoardResolverUsecaseAdapter) ResolveClient(ctx context.Context) (usecase.BoardClient, error) {
	if a == nil || a.resolver == nil {
		return nil, fmt.Errorf("BoardResolverUsecaseAdapter: resolver is nil")
	}
	c, err := a.resolver.ResolveClient(ctx)
	if err != nil {
		return nil, err
	}
	return c, nil
}
