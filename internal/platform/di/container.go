// internal/platform/di/container.go
package di

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/blocto/solana-go-sdk/common"

	httpin "github.com/shnoopysol/gif-portal/internal/adapters/in/http"
	"github.com/shnoopysol/gif-portal/internal/adapters/in/http/handler"
	"github.com/shnoopysol/gif-portal/internal/application/usecase"
	walletdom "github.com/shnoopysol/gif-portal/internal/domain/wallet"
	appcfg "github.com/shnoopysol/gif-portal/internal/infra/config"
	solanainfra "github.com/shnoopysol/gif-portal/internal/infra/solana"
)

// Container owns every runtime dependency of the portal.
type Container struct {
	Config *appcfg.Config

	ProgramID common.PublicKey
	WalletEnv walletdom.Environment
	Sessions  *solanainfra.SessionProvider
	Resolver  *solanainfra.Resolver
	BoardSync *usecase.BoardSyncUsecase

	// owned; Close-managed
	secrets *solanainfra.SecretManagerAccessor

	sessionStore *handler.SessionStore

	// wallet.approve = "prompt" の入出力
	approveIn  io.Reader
	approveOut io.Writer
}

// Option adjusts wiring that has no config key.
type Option func(*Container)

// WithApproveConsole sets where the "prompt" approver reads answers and writes questions.
func WithApproveConsole(in io.Reader, out io.Writer) Option {
	return func(c *Container) {
		c.approveIn, c.approveOut = in, out
	}
}

// NewContainer wires the portal from a loaded configuration.
// The "prompt" approver uses stdin/stderr unless WithApproveConsole says otherwise.
func NewContainer(ctx context.Context, cfg *appcfg.Config, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("di: config is nil")
	}

	programID, err := solanainfra.ParsePublicKey(cfg.Program.ID)
	if err != nil {
		return nil, fmt.Errorf("di: program.id: %w", err)
	}
	commitment, err := solanainfra.ParseCommitment(cfg.RPC.Commitment)
	if err != nil {
		return nil, fmt.Errorf("di: rpc.commitment: %w", err)
	}

	c := &Container{Config: cfg, ProgramID: programID, approveIn: os.Stdin, approveOut: os.Stderr}
	for _, opt := range opts {
		opt(c)
	}

	// 1) Wallet source: keypair file → Secret Manager → none
	if err := c.initWallet(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}

	// 2) Board account locator
	boards, err := newBoardLocator(cfg, programID)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	// 3) Session provider / resolver / usecases
	c.Sessions = &solanainfra.SessionProvider{
		Endpoint:   cfg.RPC.Endpoint,
		Commitment: commitment,
		Timeout:    cfg.RPC.Timeout,
		Env:        c.WalletEnv,
		Dial:       solanainfra.DialBlocto,
	}
	c.Resolver = &solanainfra.Resolver{
		Sessions:  c.Sessions,
		ProgramID: programID,
		Boards:    boards,
		Confirm: solanainfra.ConfirmOptions{
			Target:  commitment,
			Timeout: cfg.RPC.ConfirmTimeout,
		},
	}
	c.BoardSync = usecase.NewBoardSyncUsecase(solanainfra.NewBoardResolverUsecaseAdapter(c.Resolver))
	c.sessionStore = handler.NewSessionStore(c.NewController, cfg.HTTP.SessionIdle)

	log.Printf("[boot] endpoint=%s commitment=%s program=%s account.mode=%s",
		cfg.RPC.Endpoint, commitment, programID.ToBase58(), cfg.Account.Mode)
	return c, nil
}

func (c *Container) initWallet(ctx context.Context) error {
	cfg := c.Config
	var env *solanainfra.WalletEnvironment

	switch {
	case cfg.Wallet.Keypair != "":
		env = solanainfra.NewKeyfileEnvironment(cfg.Wallet.Keypair, cfg.Wallet.Trusted)
		c.WalletEnv = env
		log.Printf("[boot] wallet = keypair file %s (trusted=%t)", redactPath(cfg.Wallet.Keypair), cfg.Wallet.Trusted)

	case cfg.Wallet.Secret != "":
		name, err := solanainfra.SecretVersionName(cfg.Wallet.ProjectID, cfg.Wallet.Secret)
		if err != nil {
			return fmt.Errorf("di: wallet.secret: %w", err)
		}
		if cfg.Wallet.CredentialsFile != "" {
			log.Printf("[boot] Using credentials file for Secret Manager: %s", redactPath(cfg.Wallet.CredentialsFile))
		} else {
			log.Printf("[boot] Using Application Default Credentials for Secret Manager")
		}
		sm, err := solanainfra.NewSecretManagerAccessor(ctx, cfg.Wallet.CredentialsFile)
		if err != nil {
			return fmt.Errorf("di: %w", err)
		}
		c.secrets = sm
		env = solanainfra.NewStaticEnvironment(solanainfra.NewSecretWallet(sm, name, cfg.Wallet.Trusted))
		c.WalletEnv = env
		log.Printf("[boot] wallet = secret manager %s (trusted=%t)", name, cfg.Wallet.Trusted)

	default:
		c.WalletEnv = solanainfra.NewStaticEnvironment(nil)
		log.Printf("[boot] WARN: no wallet configured (wallet.keypair / wallet.secret); portal will report wallet not found")
		return nil
	}

	approve, err := solanainfra.ApproverFor(cfg.Wallet.Approve, c.approveIn, c.approveOut)
	if err != nil {
		return fmt.Errorf("di: wallet.approve: %w", err)
	}
	env.WithApprover(approve)
	log.Printf("[boot] wallet approve = %s", cfg.Wallet.Approve)
	return nil
}

func newBoardLocator(cfg *appcfg.Config, programID common.PublicKey) (solanainfra.BoardLocator, error) {
	boards, err := solanainfra.NewBoardLocator(cfg.Account.Mode, cfg.Account.Seed, cfg.Account.Keypair, programID)
	if err != nil {
		return nil, fmt.Errorf("di: account: %w", err)
	}
	if shared, ok := boards.(solanainfra.SharedBoard); ok {
		log.Printf("[boot] board = shared account %s", shared.Account.PublicKey.ToBase58())
	}
	return boards, nil
}

// NewController builds the controller of one portal session.
func (c *Container) NewController() *usecase.ConnectionController {
	return usecase.NewConnectionController(c.WalletEnv, c.BoardSync)
}

// BoardAddress returns the board account used for the given wallet address.
func (c *Container) BoardAddress(walletAddress string) (string, error) {
	if c.Resolver == nil || c.Resolver.Boards == nil {
		return "", errors.New("di: board locator not configured")
	}
	user, err := solanainfra.ParsePublicKey(walletAddress)
	if err != nil {
		return "", err
	}
	addr, _, err := c.Resolver.Boards.Locate(user)
	if err != nil {
		return "", err
	}
	return addr.ToBase58(), nil
}

// RouterDeps returns the dependencies of the HTTP router.
func (c *Container) RouterDeps() httpin.RouterDeps {
	return httpin.RouterDeps{
		Sessions:       c.sessionStore,
		AllowedOrigins: c.Config.HTTP.AllowedOrigins,
	}
}

// Close releases owned clients.
func (c *Container) Close() error {
	if c == nil || c.secrets == nil {
		return nil
	}
	err := c.secrets.Close()
	c.secrets = nil
	return err
}

func redactPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		return ".../" + p[i+1:]
	}
	return p
}
