// internal/adapters/in/cli/keygen.go
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/spf13/cobra"

	solanainfra "github.com/shnoopysol/gif-portal/internal/infra/solana"
)

// keygen は solana-keygen 互換の keypair ファイルを生成します。
// wallet.keypair（ユーザー）にも account.keypair（共有 board）にも使えます。
func newKeygenCmd() *cobra.Command {
	var (
		out        string
		force      bool
		showSecret bool
	)

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a solana-keygen compatible keypair file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !force {
				if _, err := os.Stat(out); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", out)
				} else if !errors.Is(err, os.ErrNotExist) {
					return err
				}
			}

			acc := types.NewAccount()
			data, err := solanainfra.EncodeKeypairJSON(acc)
			if err != nil {
				return fmt.Errorf("encode keypair: %w", err)
			}
			if err := os.WriteFile(out, data, 0o600); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Public Key:\n  %s\n\n", acc.PublicKey.ToBase58())
			fmt.Fprintf(w, "Keypair file (Solana-compatible JSON):\n  %s\n", out)
			if showSecret {
				fmt.Fprintf(w, "\nSecret key (base58):\n  %s\n", solanainfra.EncodeKeypairBase58(acc))
			}
			fmt.Fprintln(w, "\n⚠ この JSON ファイルは Git にコミットしないでください。")
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "wallet-keypair.json", "output file")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.Flags().BoolVar(&showSecret, "show-secret", false, "also print the base58 secret key (wallet import format)")
	return cmd
}
