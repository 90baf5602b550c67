// internal/domain/portal/state.go
package portal

import (
	linkdom "github.com/shnoopysol/gif-portal/internal/domain/link"
)

// State is the in-memory UI state of one portal session.
//
// Initialized == false is the "uninitialized" sentinel: the board account could not be read
// and the page offers the one-time initialization instead of the submission form.
type State struct {
	WalletAddress string          `json:"walletAddress,omitempty"`
	Entries       []linkdom.Entry `json:"entries"`
	Initialized   bool            `json:"initialized"`
	PendingInput  string          `json:"pendingInput"`
	DarkMode      bool            `json:"darkMode"`
	Notice        string          `json:"notice,omitempty"`
}

// NewState returns the initial state (dark mode on, as the page starts).
func NewState() State {
	return State{DarkMode: true}
}

// Authorized reports whether a wallet address is present.
func (s State) Authorized() bool {
	return s.WalletAddress != ""
}

// Clone copies the entry slice so snapshots can leave the controller lock.
func (s State) Clone() State {
	out := s
	if s.Entries != nil {
		out.Entries = make([]linkdom.Entry, len(s.Entries))
		copy(out.Entries, s.Entries)
	}
	return out
}

// WithBoard stores a freshly fetched board.
func (s State) WithBoard(b linkdom.Board) State {
	s.Entries = b.Clone().Entries
	if s.Entries == nil {
		s.Entries = []linkdom.Entry{}
	}
	s.Initialized = true
	return s
}

// Uninitialized resets the entry list to the sentinel.
func (s State) Uninitialized() State {
	s.Entries = nil
	s.Initialized = false
	return s
}
