// internal/infra/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// Solana Devnet RPC endpoint (default)
	DefaultRPCEndpoint    = "https://api.devnet.solana.com"
	DefaultProgramID      = "3DdKqVj9wA3q56crthydc4ccEi6EbHk6afmdsHPC8nhz"
	DefaultAccountSeed    = "base_account"
	// 共有 board アカウントの keypair（プログラムのデプロイ時に作ったもの）
	DefaultAccountKeypair = "keypair.json"
	DefaultHTTPHost       = "127.0.0.1"

	AccountModeDerived = "derived"
	AccountModeShared  = "shared"

	// wallet.approve: 対話的な接続（Connect to Wallet）を誰が許可するか
	ApprovePrompt = "prompt" // serve を動かしている端末で y/N を聞く
	ApproveAuto   = "auto"   // 常に許可（CLI から自分で実行する場合）
	ApproveDeny   = "deny"   // 常に拒否（trusted なサイレント接続のみ）

	configName = "portal"
	configType = "toml"
	envPrefix  = "PORTAL"
)

var (
	ErrInvalidCommitment  = errors.New("config: invalid rpc.commitment")
	ErrInvalidAccountMode = errors.New("config: invalid account.mode")
	ErrMissingKeypair     = errors.New("config: account.keypair is required in shared mode")
	ErrEmptyProgramID     = errors.New("config: program.id is empty")
	ErrEmptyEndpoint      = errors.New("config: rpc.endpoint is empty")
	ErrInvalidApprove     = errors.New("config: invalid wallet.approve")
)

var commitments = map[string]struct{}{
	"processed": {},
	"confirmed": {},
	"finalized": {},
}

// Config はアプリケーション全体の設定を保持します。
type Config struct {
	RPC     RPCConfig     `mapstructure:"rpc"`
	Program ProgramConfig `mapstructure:"program"`
	Account AccountConfig `mapstructure:"account"`
	Wallet  WalletConfig  `mapstructure:"wallet"`
	HTTP    HTTPConfig    `mapstructure:"http"`
}

type RPCConfig struct {
	Endpoint       string        `mapstructure:"endpoint"`
	Commitment     string        `mapstructure:"commitment"`
	Timeout        time.Duration `mapstructure:"timeout"`
	ConfirmTimeout time.Duration `mapstructure:"confirm_timeout"`
}

type ProgramConfig struct {
	ID string `mapstructure:"id"`
}

// AccountConfig selects how the board account address is obtained.
//   - shared: one keypair-owned account shared by everyone; the keypair co-signs initialization (default)
//   - derived: PDA(["<seed>", user], program) per wallet, for programs that create the board as a PDA
type AccountConfig struct {
	Mode    string `mapstructure:"mode"`
	Seed    string `mapstructure:"seed"`
	Keypair string `mapstructure:"keypair"`
}

// WalletConfig: keypair file takes precedence over the Secret Manager secret.
type WalletConfig struct {
	Keypair         string `mapstructure:"keypair"`
	Secret          string `mapstructure:"secret"`
	ProjectID       string `mapstructure:"project_id"`
	CredentialsFile string `mapstructure:"credentials_file"`
	Trusted         bool   `mapstructure:"trusted"`
	Approve         string `mapstructure:"approve"`
}

type HTTPConfig struct {
	Host           string        `mapstructure:"host"`
	Port           string        `mapstructure:"port"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	SessionIdle    time.Duration `mapstructure:"session_idle"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		RPC: RPCConfig{
			Endpoint:       DefaultRPCEndpoint,
			Commitment:     "processed",
			Timeout:        12 * time.Second,
			ConfirmTimeout: 30 * time.Second,
		},
		Program: ProgramConfig{ID: DefaultProgramID},
		Account: AccountConfig{Mode: AccountModeShared, Seed: DefaultAccountSeed, Keypair: DefaultAccountKeypair},
		Wallet:  WalletConfig{Approve: ApprovePrompt},
		HTTP: HTTPConfig{
			Host:           DefaultHTTPHost,
			Port:           "8080",
			AllowedOrigins: []string{},
			SessionIdle:    30 * time.Minute,
		},
	}
}

// Load は設定ファイル（任意）と環境変数を読み込み Config を返します。
// v が nil の場合は新しい viper を使います。
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 既存の環境変数名も引き続き受け付ける
	_ = v.BindEnv("rpc.endpoint", envPrefix+"_RPC_ENDPOINT", "SOLANA_RPC_ENDPOINT", "SOLANA_RPC_URL")
	_ = v.BindEnv("http.port", envPrefix+"_HTTP_PORT", "PORT")
	_ = v.BindEnv("wallet.project_id", envPrefix+"_WALLET_PROJECT_ID", "GOOGLE_CLOUD_PROJECT", "GCP_PROJECT")
	_ = v.BindEnv("wallet.credentials_file", envPrefix+"_WALLET_CREDENTIALS_FILE", "GOOGLE_APPLICATION_CREDENTIALS")

	if strings.TrimSpace(configFile) != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configFile != "" {
			return nil, fmt.Errorf("config: read %s: %w", describe(configFile), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values the rest of the program relies on.
func (c *Config) Validate() error {
	if c.RPC.Endpoint == "" {
		return ErrEmptyEndpoint
	}
	if _, ok := commitments[c.RPC.Commitment]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidCommitment, c.RPC.Commitment)
	}
	if c.Program.ID == "" {
		return ErrEmptyProgramID
	}
	switch c.Account.Mode {
	case AccountModeDerived:
	case AccountModeShared:
		if c.Account.Keypair == "" {
			return ErrMissingKeypair
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidAccountMode, c.Account.Mode)
	}
	switch c.Wallet.Approve {
	case ApprovePrompt, ApproveAuto, ApproveDeny:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidApprove, c.Wallet.Approve)
	}
	return nil
}

func (c *Config) normalize() {
	c.RPC.Endpoint = strings.TrimSpace(c.RPC.Endpoint)
	c.RPC.Commitment = strings.ToLower(strings.TrimSpace(c.RPC.Commitment))
	c.Program.ID = strings.TrimSpace(c.Program.ID)
	c.Account.Mode = strings.ToLower(strings.TrimSpace(c.Account.Mode))
	c.Account.Seed = strings.TrimSpace(c.Account.Seed)
	c.Account.Keypair = strings.TrimSpace(c.Account.Keypair)
	c.Wallet.Keypair = strings.TrimSpace(c.Wallet.Keypair)
	c.Wallet.Secret = strings.TrimSpace(c.Wallet.Secret)
	c.Wallet.ProjectID = strings.TrimSpace(c.Wallet.ProjectID)
	c.Wallet.CredentialsFile = strings.TrimSpace(c.Wallet.CredentialsFile)
	c.Wallet.Approve = strings.ToLower(strings.TrimSpace(c.Wallet.Approve))
	c.HTTP.Host = strings.TrimSpace(c.HTTP.Host)
	c.HTTP.Port = strings.TrimSpace(c.HTTP.Port)
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("rpc.endpoint", d.RPC.Endpoint)
	v.SetDefault("rpc.commitment", d.RPC.Commitment)
	v.SetDefault("rpc.timeout", d.RPC.Timeout)
	v.SetDefault("rpc.confirm_timeout", d.RPC.ConfirmTimeout)
	v.SetDefault("program.id", d.Program.ID)
	v.SetDefault("account.mode", d.Account.Mode)
	v.SetDefault("account.seed", d.Account.Seed)
	v.SetDefault("account.keypair", d.Account.Keypair)
	v.SetDefault("wallet.keypair", "")
	v.SetDefault("wallet.secret", "")
	v.SetDefault("wallet.project_id", "")
	v.SetDefault("wallet.credentials_file", "")
	v.SetDefault("wallet.trusted", false)
	v.SetDefault("wallet.approve", d.Wallet.Approve)
	v.SetDefault("http.host", d.HTTP.Host)
	v.SetDefault("http.port", d.HTTP.Port)
	v.SetDefault("http.allowed_origins", d.HTTP.AllowedOrigins)
	v.SetDefault("http.session_idle", d.HTTP.SessionIdle)
}

func describe(configFile string) string {
	if configFile == "" {
		return configName + "." + configType
	}
	return configFile
}
