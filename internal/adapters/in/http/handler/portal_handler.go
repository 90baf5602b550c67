// internal/adapters/in/http/handler/portal_handler.go
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/shnoopysol/gif-portal/internal/application/usecase"
	linkdom "github.com/shnoopysol/gif-portal/internal/domain/link"
	portaldom "github.com/shnoopysol/gif-portal/internal/domain/portal"
	walletdom "github.com/shnoopysol/gif-portal/internal/domain/wallet"
)

// StateResponse は GET /state と /ws が返す JSON
type StateResponse struct {
	Phase usecase.Phase   `json:"phase"`
	State portaldom.State `json:"state"`
	View  portaldom.View  `json:"view"`
}

type pageData struct {
	View  portaldom.View
	State portaldom.State
}

// PortalHandler serves the page, forwards user intents to the session controller
// and streams state changes.
type PortalHandler struct {
	sessions *SessionStore
	page     *template.Template
	upgrader websocket.Upgrader
}

func NewPortalHandler(sessions *SessionStore, page *template.Template) *PortalHandler {
	return &PortalHandler{
		sessions: sessions,
		page:     page,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// GET /
func (h *PortalHandler) Page(w http.ResponseWriter, r *http.Request) {
	c, created := h.sessions.Acquire(w, r)
	if created {
		// ページロード時のサイレント接続。結果は /ws で届く
		ctx := context.WithoutCancel(r.Context())
		go func() { _ = c.OnLoad(ctx) }()
	}

	st, _ := c.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.page.Execute(w, pageData{View: portaldom.Render(st), State: st}); err != nil {
		log.Printf("[portal.http] render page failed: %v", err)
	}
}

// GET /state
func (h *PortalHandler) State(w http.ResponseWriter, r *http.Request) {
	c, _ := h.sessions.Acquire(w, r)
	writeState(w, http.StatusOK, c)
}

// POST /connect
func (h *PortalHandler) Connect(w http.ResponseWriter, r *http.Request) {
	h.intent(w, r, func(ctx context.Context, c *usecase.ConnectionController) error {
		return c.Connect(ctx)
	})
}

// POST /initialize
func (h *PortalHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	h.intent(w, r, func(ctx context.Context, c *usecase.ConnectionController) error {
		return c.Initialize(ctx)
	})
}

// POST /links (form field "link")
func (h *PortalHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.intent(w, r, func(ctx context.Context, c *usecase.ConnectionController) error {
		return c.Submit(ctx, r.PostFormValue("link"))
	})
}

// POST /input (form field "link")
func (h *PortalHandler) Input(w http.ResponseWriter, r *http.Request) {
	h.intent(w, r, func(_ context.Context, c *usecase.ConnectionController) error {
		c.SetInput(r.PostFormValue("link"))
		return nil
	})
}

// POST /display-mode
func (h *PortalHandler) ToggleDisplayMode(w http.ResponseWriter, r *http.Request) {
	h.intent(w, r, func(_ context.Context, c *usecase.ConnectionController) error {
		c.ToggleDisplayMode()
		return nil
	})
}

// POST /dismiss
func (h *PortalHandler) DismissNotice(w http.ResponseWriter, r *http.Request) {
	h.intent(w, r, func(_ context.Context, c *usecase.ConnectionController) error {
		c.DismissNotice()
		return nil
	})
}

// POST /disconnect
func (h *PortalHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	h.intent(w, r, func(_ context.Context, c *usecase.ConnectionController) error {
		c.Disconnect()
		return nil
	})
}

// GET /ws
func (h *PortalHandler) Stream(w http.ResponseWriter, r *http.Request) {
	c, ok := h.sessions.Lookup(r)
	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "no portal session"})
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[portal.http] websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := c.Subscribe()
	defer cancel()

	// クライアントからの読み込みは close 検知のためだけに回す
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func() error {
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		return conn.WriteJSON(stateResponse(c))
	}
	if err := send(); err != nil {
		return
	}

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case _, ok := <-updates:
			if !ok {
				return
			}
			if err := send(); err != nil {
				return
			}
		}
	}
}

// intent runs one user intent. The flow is detached from the request so a closed tab does
// not cancel an RPC already in flight. Browsers get a redirect back to the page,
// JSON clients get the resulting state (or the error).
func (h *PortalHandler) intent(w http.ResponseWriter, r *http.Request, fn func(context.Context, *usecase.ConnectionController) error) {
	c, _ := h.sessions.Acquire(w, r)

	err := fn(context.WithoutCancel(r.Context()), c)
	if err != nil {
		log.Printf("[portal.http] %s %s: %v", r.Method, r.URL.Path, err)
	}

	if !wantsJSON(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err != nil {
		writePortalErr(w, err)
		return
	}
	writeState(w, http.StatusOK, c)
}

func stateResponse(c *usecase.ConnectionController) StateResponse {
	st, phase := c.Snapshot()
	return StateResponse{Phase: phase, State: st, View: portaldom.Render(st)}
}

func writeState(w http.ResponseWriter, code int, c *usecase.ConnectionController) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(stateResponse(c))
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// エラーハンドリング
func writePortalErr(w http.ResponseWriter, err error) {
	code := http.StatusBadGateway
	switch {
	case errors.Is(err, linkdom.ErrEmptyLink):
		code = http.StatusBadRequest
	case errors.Is(err, walletdom.ErrWalletNotConnected):
		code = http.StatusUnauthorized
	case errors.Is(err, walletdom.ErrWalletRejected):
		code = http.StatusForbidden
	case errors.Is(err, walletdom.ErrWalletUnavailable):
		code = http.StatusServiceUnavailable
	case errors.Is(err, linkdom.ErrAccountNotFound):
		code = http.StatusNotFound
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
