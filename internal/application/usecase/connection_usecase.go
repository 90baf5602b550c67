// internal/application/usecase/connection_usecase.go
package usecase

import (
	"context"
	"errors"
	"log"
	"sync"

	linkdom "github.com/shnoopysol/gif-portal/internal/domain/link"
	portaldom "github.com/shnoopysol/gif-portal/internal/domain/portal"
	walletdom "github.com/shnoopysol/gif-portal/internal/domain/wallet"
)

// Phase is the connection flow state of one portal session.
type Phase string

const (
	PhaseUnauthorized       Phase = "unauthorized"
	PhaseAuthorizing        Phase = "authorizing"
	PhaseAuthorizedUnsynced Phase = "authorized_unsynced"
	PhaseAuthorizedSynced   Phase = "authorized_synced"
)

// NoticeWalletNotFound is shown when the environment exposes no wallet at all.
const NoticeWalletNotFound = "Solana wallet not found!"

// ConnectionController owns the UI state of one session and drives wallet authorization
// and board synchronization.
//
// Every connect/disconnect starts a new generation. Results produced by a flow of an older
// generation are dropped instead of being written to the state.
type ConnectionController struct {
	env  walletdom.Environment
	sync *BoardSyncUsecase

	mu      sync.Mutex
	state   portaldom.State
	phase   Phase
	gen     uint64
	subs    map[int]chan portaldom.State
	nextSub int
}

func NewConnectionController(env walletdom.Environment, sync *BoardSyncUsecase) *ConnectionController {
	return &ConnectionController{
		env:   env,
		sync:  sync,
		state: portaldom.NewState(),
		phase: PhaseUnauthorized,
		subs:  make(map[int]chan portaldom.State),
	}
}

// OnLoad attempts a silent connect. An untrusted wallet leaves the session unauthorized without notice.
func (c *ConnectionController) OnLoad(ctx context.Context) error {
	return c.connect(ctx, walletdom.ConnectOptions{OnlyIfTrusted: true})
}

// Connect asks the wallet for authorization interactively.
func (c *ConnectionController) Connect(ctx context.Context) error {
	return c.connect(ctx, walletdom.ConnectOptions{})
}

func (c *ConnectionController) connect(ctx context.Context, opts walletdom.ConnectOptions) error {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.phase = PhaseAuthorizing
	c.publishLocked()
	c.mu.Unlock()

	var w walletdom.Wallet
	if c.env != nil {
		w = c.env.Wallet()
	}
	if w == nil {
		log.Printf("[connection] no wallet capability in environment")
		c.apply(gen, walletGone)
		return walletdom.ErrWalletUnavailable
	}

	addr, err := w.Connect(ctx, opts)
	if err != nil {
		switch {
		case errors.Is(err, walletdom.ErrWalletUnavailable):
			log.Printf("[connection] wallet unavailable: %v", err)
			c.apply(gen, walletGone)
		case errors.Is(err, walletdom.ErrWalletRejected) && opts.OnlyIfTrusted:
			// 未許可のサイレント接続は通知しない
			c.keepAuthorization(ctx, gen)
		default:
			log.Printf("[connection] connect failed: %v", err)
			c.keepAuthorization(ctx, gen)
		}
		return err
	}

	log.Printf("[connection] connected with public key: %s", addr)
	applied := c.apply(gen, func(s *portaldom.State) Phase {
		s.WalletAddress = addr
		s.Notice = ""
		return PhaseAuthorizedUnsynced
	})
	if !applied {
		return nil
	}

	// AuthorizedUnsynced に入ったら必ず一覧を取得する（成功でも sentinel でも Synced へ）
	_, _ = c.sync.FetchEntries(ctx, c.viewFor(gen))
	return nil
}

// Disconnect forgets the authorized address for this session. The wallet itself stays connected.
func (c *ConnectionController) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	dark := c.state.DarkMode
	c.state = portaldom.NewState()
	c.state.DarkMode = dark
	c.phase = PhaseUnauthorized
	c.publishLocked()
	log.Printf("[connection] disconnected (generation %d)", c.gen)
}

// Initialize creates the board account for the authorized wallet.
func (c *ConnectionController) Initialize(ctx context.Context) error {
	gen, ok := c.authorizedGeneration()
	if !ok {
		return walletdom.ErrWalletNotConnected
	}
	return c.sync.InitializeAccount(ctx, c.viewFor(gen))
}

// SetInput stores the pending input text.
func (c *ConnectionController) SetInput(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.PendingInput = text
	c.publishLocked()
}

// Submit appends text to the board. Empty text is rejected before any remote call.
func (c *ConnectionController) Submit(ctx context.Context, text string) error {
	gen, ok := c.authorizedGeneration()
	if !ok {
		return walletdom.ErrWalletNotConnected
	}
	c.SetInput(text)
	return c.sync.AppendEntry(ctx, c.viewFor(gen), text)
}

// ToggleDisplayMode flips the local display mode. No remote operation is involved.
func (c *ConnectionController) ToggleDisplayMode() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.DarkMode = !c.state.DarkMode
	c.publishLocked()
}

// DismissNotice clears the blocking notice once the user has acknowledged it.
func (c *ConnectionController) DismissNotice() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Notice == "" {
		return
	}
	c.state.Notice = ""
	c.publishLocked()
}

// Snapshot returns a copy of the UI state and the current phase.
func (c *ConnectionController) Snapshot() (portaldom.State, Phase) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone(), c.phase
}

// Subscribe returns a channel that always holds the latest state after a change.
// Slow readers only miss intermediate snapshots. The returned func unsubscribes.
func (c *ConnectionController) Subscribe() (<-chan portaldom.State, func()) {
	ch := make(chan portaldom.State, 1)

	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
			close(ch)
		})
	}
}

// walletGone drops the authorization: without a wallet nothing can be signed.
func walletGone(s *portaldom.State) Phase {
	dark := s.DarkMode
	*s = portaldom.NewState()
	s.DarkMode = dark
	s.Notice = NoticeWalletNotFound
	return PhaseUnauthorized
}

// keepAuthorization settles a rejected or failed connect. The session stays in the state it
// was in: unauthorized without an address, otherwise authorized with the board re-read
// (a fetch of the previous generation may have been discarded).
func (c *ConnectionController) keepAuthorization(ctx context.Context, gen uint64) {
	var authorized bool
	applied := c.apply(gen, func(s *portaldom.State) Phase {
		if !s.Authorized() {
			return PhaseUnauthorized
		}
		authorized = true
		return PhaseAuthorizedUnsynced
	})
	if applied && authorized {
		_, _ = c.sync.FetchEntries(ctx, c.viewFor(gen))
	}
}

// authorizedGeneration reports the current generation and whether intents needing the
// wallet may run. Phase and address always agree outside Authorizing.
func (c *ConnectionController) authorizedGeneration() (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ok := c.state.Authorized() &&
		(c.phase == PhaseAuthorizedUnsynced || c.phase == PhaseAuthorizedSynced)
	return c.gen, ok
}

// apply runs fn against the state if gen is still current. fn returns the next phase.
func (c *ConnectionController) apply(gen uint64, fn func(s *portaldom.State) Phase) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		log.Printf("[connection] discard stale result (generation %d, current %d)", gen, c.gen)
		return false
	}
	c.phase = fn(&c.state)
	c.publishLocked()
	return true
}

func (c *ConnectionController) publishLocked() {
	snap := c.state.Clone()
	for _, ch := range c.subs {
		select {
		case ch <- snap:
		default:
			// 古いスナップショットを捨てて最新だけ残す
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

func (c *ConnectionController) viewFor(gen uint64) BoardView {
	return generationView{c: c, gen: gen}
}

// generationView writes sync results into the controller state only while its generation is current.
type generationView struct {
	c   *ConnectionController
	gen uint64
}

func (v generationView) ShowBoard(b linkdom.Board) {
	v.c.apply(v.gen, func(s *portaldom.State) Phase {
		*s = s.WithBoard(b)
		return PhaseAuthorizedSynced
	})
}

func (v generationView) ShowUninitialized() {
	v.c.apply(v.gen, func(s *portaldom.State) Phase {
		*s = s.Uninitialized()
		return PhaseAuthorizedSynced
	})
}

func (v generationView) ClearInput() {
	v.c.apply(v.gen, func(s *portaldom.State) Phase {
		s.PendingInput = ""
		return v.c.phase
	})
}
