// internal/application/usecase/board_sync_usecase.go
package usecase

import (
	"context"
	"errors"
	"log"

	linkdom "github.com/shnoopysol/gif-portal/internal/domain/link"
)

// ✅ usecase が必要とするIFをここで定義する（infra/solana に依存しない）
type BoardClient interface {
	InitializeBoard(ctx context.Context) (string, error)
	AddLink(ctx context.Context, link string) (string, error)
	// FetchBoard returns linkdom.ErrAccountNotFound when the board account does not exist yet.
	FetchBoard(ctx context.Context) (linkdom.Board, error)
}

// BoardClientResolver builds a fresh client (new session + fetched interface) per operation.
type BoardClientResolver interface {
	ResolveClient(ctx context.Context) (BoardClient, error)
}

// BoardView は同期結果の書き込み先（UI 状態）。
// Connection controller は世代番号で束縛した view を渡し、古い結果をここで捨てる。
type BoardView interface {
	ShowBoard(b linkdom.Board)
	ShowUninitialized()
	ClearInput()
}

var ErrBoardSyncNotConfigured = errors.New("board sync: resolver not configured")

// BoardSyncUsecase keeps the UI entry list in step with the board account.
type BoardSyncUsecase struct {
	Resolver BoardClientResolver
}

func NewBoardSyncUsecase(r BoardClientResolver) *BoardSyncUsecase {
	return &BoardSyncUsecase{Resolver: r}
}

// InitializeAccount submits the one-time initialization and refreshes the list on success.
// On failure the view is left untouched.
func (uc *BoardSyncUsecase) InitializeAccount(ctx context.Context, view BoardView) error {
	client, err := uc.resolve(ctx)
	if err != nil {
		log.Printf("[board_sync] initialize failed: %v", err)
		return err
	}

	sig, err := client.InitializeBoard(ctx)
	if err != nil {
		log.Printf("[board_sync] initialize failed: %v", err)
		return err
	}
	log.Printf("[board_sync] board initialized tx=%s", sig)

	// 失敗時は FetchEntries 側で sentinel に落とすのでここでは返さない
	_, _ = uc.FetchEntries(ctx, view)
	return nil
}

// FetchEntries reads the board. Any failure turns the view into the uninitialized sentinel.
func (uc *BoardSyncUsecase) FetchEntries(ctx context.Context, view BoardView) (linkdom.Board, error) {
	view = orDiscard(view)

	client, err := uc.resolve(ctx)
	if err != nil {
		log.Printf("[board_sync] fetch failed: %v", err)
		view.ShowUninitialized()
		return linkdom.Board{}, err
	}

	board, err := client.FetchBoard(ctx)
	if err != nil {
		if errors.Is(err, linkdom.ErrAccountNotFound) {
			log.Printf("[board_sync] board account not found (uninitialized)")
		} else {
			log.Printf("[board_sync] fetch failed: %v", err)
		}
		view.ShowUninitialized()
		return linkdom.Board{}, err
	}

	view.ShowBoard(board)
	return board, nil
}

// AppendEntry submits one link. Empty input never reaches the ledger.
// The pending input is cleared before the submission and is not restored on failure.
func (uc *BoardSyncUsecase) AppendEntry(ctx context.Context, view BoardView, text string) error {
	view = orDiscard(view)

	link, err := linkdom.NormalizeLink(text)
	if err != nil {
		log.Printf("[board_sync] no link given")
		return err
	}
	view.ClearInput()

	client, err := uc.resolve(ctx)
	if err != nil {
		log.Printf("[board_sync] append failed: %v", err)
		return err
	}

	sig, err := client.AddLink(ctx, link)
	if err != nil {
		log.Printf("[board_sync] append failed: %v", err)
		return err
	}
	log.Printf("[board_sync] link submitted tx=%s link=%q", sig, link)

	_, _ = uc.FetchEntries(ctx, view)
	return nil
}

func (uc *BoardSyncUsecase) resolve(ctx context.Context) (BoardClient, error) {
	if uc == nil || uc.Resolver == nil {
		return nil, ErrBoardSyncNotConfigured
	}
	return uc.Resolver.ResolveClient(ctx)
}

// CLI など UI を持たない呼び出し元用
type discardView struct{}

func (discardView) ShowBoard(linkdom.Board) {}
func (discardView) ShowUninitialized()      {}
func (discardView) ClearInput()             {}

func orDiscard(v BoardView) BoardView {
	if v == nil {
		return discardView{}
	}
	return v
}
