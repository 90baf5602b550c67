// internal/adapters/in/cli/board.go
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	linkdom "github.com/shnoopysol/gif-portal/internal/domain/link"
)

type boardStatus struct {
	Wallet      string `json:"wallet"`
	Board       string `json:"board"`
	Program     string `json:"program"`
	Endpoint    string `json:"endpoint"`
	Initialized bool   `json:"initialized"`
	Links       int    `json:"links"`
}

func newStatusCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Connect the wallet and show the board account state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cont, c, err := a.connected(cmd.Context())
			if err != nil {
				return err
			}
			st, _ := c.Snapshot()

			board, err := cont.BoardAddress(st.WalletAddress)
			if err != nil {
				return fmt.Errorf("locate board: %w", err)
			}
			s := boardStatus{
				Wallet:      st.WalletAddress,
				Board:       board,
				Program:     cont.ProgramID.ToBase58(),
				Endpoint:    cont.Config.RPC.Endpoint,
				Initialized: st.Initialized,
				Links:       len(st.Entries),
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), s)
			}
			return writeStatus(cmd.OutOrStdout(), s)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func writeStatus(w io.Writer, s boardStatus) error {
	bold := color.New(color.Bold).SprintFunc()

	state := color.GreenString("initialized (%d links)", s.Links)
	if !s.Initialized {
		state = color.YellowString("not initialized") + " (run `portal init`)"
	}

	_, err := fmt.Fprintf(w, "%s %s\n%s %s\n%s %s\n%s %s\n%s %s\n",
		bold("wallet:  "), s.Wallet,
		bold("board:   "), s.Board,
		bold("program: "), s.Program,
		bold("endpoint:"), s.Endpoint,
		bold("status:  "), state,
	)
	return err
}

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Do the one-time initialization of the board account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, c, err := a.connected(cmd.Context())
			if err != nil {
				return err
			}
			if st, _ := c.Snapshot(); st.Initialized {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "board account is already initialized")
				return err
			}

			if err := c.Initialize(cmd.Context()); err != nil {
				return fmt.Errorf("initialize board: %w", err)
			}
			st, _ := c.Snapshot()
			if !st.Initialized {
				return fmt.Errorf("initialize board: %w", linkdom.ErrAccountNotFound)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("board account initialized"))
			return err
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the links stored on the board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, c, err := a.connected(cmd.Context())
			if err != nil {
				return err
			}
			st, _ := c.Snapshot()
			if !st.Initialized {
				return fmt.Errorf("list links: %w (run `portal init`)", linkdom.ErrAccountNotFound)
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), st.Entries)
			}
			writeEntries(cmd.OutOrStdout(), st.Entries)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func writeEntries(w io.Writer, entries []linkdom.Entry) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Link", "Submitter"})
	table.SetAutoWrapText(false)
	for i, e := range entries {
		table.Append([]string{strconv.Itoa(i + 1), e.Link, shortAddress(e.Submitter)})
	}
	table.SetFooter([]string{"", "total", strconv.Itoa(len(entries))})
	table.Render()
}

func newAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <link>",
		Short: "Append a link to the board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, c, err := a.connected(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.Submit(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("add link: %w", err)
			}
			st, _ := c.Snapshot()
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s board now has %d links\n", color.GreenString("added;"), len(st.Entries))
			return err
		},
	}
}

func newAddressCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "address",
		Short: "Print the wallet address and the board account it uses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cont, c, err := a.connected(cmd.Context())
			if err != nil {
				return err
			}
			st, _ := c.Snapshot()
			board, err := cont.BoardAddress(st.WalletAddress)
			if err != nil {
				return fmt.Errorf("locate board: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "wallet %s\nboard  %s\n", st.WalletAddress, board)
			return err
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func shortAddress(s string) string {
	if len(s) <= 10 {
		return s
	}
	return s[:4] + "…" + s[len(s)-4:]
}
