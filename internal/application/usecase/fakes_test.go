package usecase

import (
	"context"
	"sync"

	linkdom "github.com/shnoopysol/gif-portal/internal/domain/link"
	walletdom "github.com/shnoopysol/gif-portal/internal/domain/wallet"
)

// memoryLedger is an in-memory board program. A nil board means "account not created".
type memoryLedger struct {
	mu sync.Mutex

	board      *linkdom.Board
	initCalls  int
	addCalls   int
	fetchCalls int
	resolveErr error
	addErr     error

	// hold != nil のとき FetchBoard は結果を hold 経由で受け取る
	hold chan chan fetchReply
}

type fetchReply struct {
	board linkdom.Board
	err   error
}

func (m *memoryLedger) ResolveClient(context.Context) (BoardClient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.resolveErr != nil {
		return nil, m.resolveErr
	}
	return m, nil
}

func (m *memoryLedger) InitializeBoard(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initCalls++
	m.board = &linkdom.Board{Entries: []linkdom.Entry{}}
	return "init-sig", nil
}

func (m *memoryLedger) AddLink(_ context.Context, link string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addCalls++
	if m.addErr != nil {
		return "", m.addErr
	}
	if m.board == nil {
		return "", linkdom.ErrAccountNotFound
	}
	m.board.TotalLinks++
	m.board.Entries = append(m.board.Entries, linkdom.Entry{Link: link, Submitter: "user"})
	return "add-sig", nil
}

func (m *memoryLedger) FetchBoard(ctx context.Context) (linkdom.Board, error) {
	m.mu.Lock()
	m.fetchCalls++
	hold := m.hold
	var (
		snap  linkdom.Board
		found = m.board != nil
	)
	if found {
		snap = m.board.Clone()
	}
	m.mu.Unlock()

	if hold != nil {
		reply := make(chan fetchReply, 1)
		hold <- reply
		select {
		case r := <-reply:
			return r.board, r.err
		case <-ctx.Done():
			return linkdom.Board{}, ctx.Err()
		}
	}

	if !found {
		return linkdom.Board{}, linkdom.ErrAccountNotFound
	}
	return snap, nil
}

func (m *memoryLedger) counts() (initCalls, addCalls, fetchCalls int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initCalls, m.addCalls, m.fetchCalls
}

func (m *memoryLedger) holdFetches() chan chan fetchReply {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hold = make(chan chan fetchReply)
	return m.hold
}

type recordingView struct {
	mu            sync.Mutex
	board         *linkdom.Board
	uninitialized bool
	cleared       int
}

func (v *recordingView) ShowBoard(b linkdom.Board) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.board = &b
	v.uninitialized = false
}

func (v *recordingView) ShowUninitialized() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.board = nil
	v.uninitialized = true
}

func (v *recordingView) ClearInput() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cleared++
}

type fakeWallet struct {
	mu      sync.Mutex
	addr    string
	trusted bool
	reject  bool
	gone    bool
	current string
}

func (w *fakeWallet) Connect(_ context.Context, opts walletdom.ConnectOptions) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.gone {
		return "", walletdom.ErrWalletUnavailable
	}
	if w.reject || (opts.OnlyIfTrusted && !w.trusted) {
		return "", walletdom.ErrWalletRejected
	}
	w.trusted = true
	w.current = w.addr
	return w.addr, nil
}

func (w *fakeWallet) Address() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

func (w *fakeWallet) SignMessage(context.Context, []byte) ([]byte, error) {
	return make([]byte, 64), nil
}

type fakeEnv struct {
	w walletdom.Wallet
}

func (e fakeEnv) Wallet() walletdom.Wallet { return e.w }
