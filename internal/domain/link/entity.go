// internal/domain/link/entity.go
package link

import (
	"errors"
	"strings"
)

// Domain errors
var (
	ErrEmptyLink       = errors.New("link: link is empty")
	ErrAccountNotFound = errors.New("link: board account not found")
)

// Entry は board account に保存された 1 件のリンクです。
// Link / Submitter 以外のフィールド（投票数など）はプログラム側の定義に従い Fields にそのまま保持します。
type Entry struct {
	Link      string         `json:"link"`
	Submitter string         `json:"submitter,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Board mirrors the on-chain BaseAccount: a counter plus the ordered entry list.
type Board struct {
	TotalLinks uint64  `json:"totalLinks"`
	Entries    []Entry `json:"entries"`
}

// NormalizeLink trims surrounding whitespace and rejects empty input.
func NormalizeLink(s string) (string, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return "", ErrEmptyLink
	}
	return v, nil
}

// Len returns the number of entries.
func (b Board) Len() int {
	return len(b.Entries)
}

// Last returns the most recently appended entry.
func (b Board) Last() (Entry, bool) {
	if len(b.Entries) == 0 {
		return Entry{}, false
	}
	return b.Entries[len(b.Entries)-1], true
}

// Links returns the link strings in board order.
func (b Board) Links() []string {
	out := make([]string, 0, len(b.Entries))
	for _, e := range b.Entries {
		out = append(out, e.Link)
	}
	return out
}

// Clone returns a deep-enough copy so callers can hand the board to other goroutines.
func (b Board) Clone() Board {
	out := Board{TotalLinks: b.TotalLinks}
	if b.Entries != nil {
		out.Entries = make([]Entry, len(b.Entries))
		copy(out.Entries, b.Entries)
	}
	return out
}
