// internal/domain/portal/view.go
package portal

import (
	linkdom "github.com/shnoopysol/gif-portal/internal/domain/link"
)

// ViewKind は画面の状態（未接続 / 初期化待ち / 一覧 + 投稿フォーム）です。
type ViewKind string

const (
	ViewConnect    ViewKind = "connect"
	ViewInitialize ViewKind = "initialize"
	ViewBoard      ViewKind = "board"
)

const (
	Title    = "🖼 GIF Portal"
	SubTitle = "View your GIF collection in the metaverse ✨"
)

// View is everything the page template needs.
type View struct {
	Kind          ViewKind        `json:"kind"`
	Title         string          `json:"title"`
	SubTitle      string          `json:"subTitle"`
	DarkMode      bool            `json:"darkMode"`
	DarkModeLabel string          `json:"darkModeLabel"`
	WalletAddress string          `json:"walletAddress,omitempty"`
	Entries       []linkdom.Entry `json:"entries,omitempty"`
	PendingInput  string          `json:"pendingInput,omitempty"`
	Notice        string          `json:"notice,omitempty"`
}

// Render is a pure function of the UI state.
func Render(s State) View {
	v := View{
		Title:         Title,
		SubTitle:      SubTitle,
		DarkMode:      s.DarkMode,
		DarkModeLabel: darkModeLabel(s.DarkMode),
		WalletAddress: s.WalletAddress,
		Notice:        s.Notice,
	}

	switch {
	case !s.Authorized():
		v.Kind = ViewConnect
	case !s.Initialized:
		v.Kind = ViewInitialize
	default:
		v.Kind = ViewBoard
		v.Entries = s.Clone().Entries
		v.PendingInput = s.PendingInput
	}
	return v
}

func darkModeLabel(on bool) string {
	if on {
		return "Dark Mode On"
	}
	return "Dark Mode Off"
}
