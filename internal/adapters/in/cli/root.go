// internal/adapters/in/cli/root.go
package cli

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shnoopysol/gif-portal/internal/application/usecase"
	walletdom "github.com/shnoopysol/gif-portal/internal/domain/wallet"
	appcfg "github.com/shnoopysol/gif-portal/internal/infra/config"
	"github.com/shnoopysol/gif-portal/internal/platform/di"
)

// wireFunc builds the container from the loaded configuration.
type wireFunc func(ctx context.Context, cfg *appcfg.Config) (*di.Container, error)

type app struct {
	configFile string
	wire       wireFunc

	cfg  *appcfg.Config
	cont *di.Container
}

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(func(ctx context.Context, cfg *appcfg.Config) (*di.Container, error) {
		return di.NewContainer(ctx, cfg)
	})
}

func newRootCmdWith(wire wireFunc) *cobra.Command {
	a := &app{wire: wire}

	rootCmd := &cobra.Command{
		Use:           "portal",
		Short:         "GIF portal: a link board stored in a Solana program account",
		Long:          "portal serves the GIF portal page and exposes the same board operations (initialize, list, add) from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return a.close()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "config file (default ./portal.toml)")

	rootCmd.AddCommand(
		newServeCmd(a),
		newStatusCmd(a),
		newInitCmd(a),
		newListCmd(a),
		newAddCmd(a),
		newAddressCmd(a),
		newKeygenCmd(),
		newConfigCmd(a),
	)

	return rootCmd
}

func (a *app) config() (*appcfg.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg, err := appcfg.Load(viper.New(), a.configFile)
	if err != nil {
		return nil, err
	}
	a.cfg = cfg
	return cfg, nil
}

func (a *app) container(ctx context.Context) (*di.Container, error) {
	if a.cont != nil {
		return a.cont, nil
	}
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	cont, err := a.wire(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("wire portal: %w", err)
	}
	a.cont = cont
	return cont, nil
}

// connected returns a controller that has completed the interactive connect and the
// follow-up fetch, exactly as the page does after "Connect to Wallet".
//
// コマンドを打った本人が承認者なので wallet.approve は auto として配線する。
func (a *app) connected(ctx context.Context) (*di.Container, *usecase.ConnectionController, error) {
	if a.cont == nil {
		cfg, err := a.config()
		if err != nil {
			return nil, nil, err
		}
		cfg.Wallet.Approve = appcfg.ApproveAuto
	}
	cont, err := a.container(ctx)
	if err != nil {
		return nil, nil, err
	}
	c := cont.NewController()
	if err := c.Connect(ctx); err != nil {
		if errors.Is(err, walletdom.ErrWalletUnavailable) {
			return nil, nil, fmt.Errorf("%s (set wallet.keypair or wallet.secret): %w", usecase.NoticeWalletNotFound, err)
		}
		return nil, nil, err
	}
	return cont, c, nil
}

func (a *app) close() error {
	if a.cont == nil {
		return nil
	}
	err := a.cont.Close()
	a.cont = nil
	if err != nil {
		log.Printf("[cli] close container: %v", err)
	}
	return err
}
