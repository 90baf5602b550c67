// internal/infra/config/encode.go
package config

import (
	"fmt"

	toml "github.com/pelletier/go-toml/v2"
)

// EncodeTOML renders c in the portal.toml layout that Load reads back.
func EncodeTOML(c Config) ([]byte, error) {
	doc := map[string]any{
		"rpc": map[string]any{
			"endpoint":        c.RPC.Endpoint,
			"commitment":      c.RPC.Commitment,
			"timeout":         c.RPC.Timeout.String(),
			"confirm_timeout": c.RPC.ConfirmTimeout.String(),
		},
		"program": map[string]any{
			"id": c.Program.ID,
		},
		"account": map[string]any{
			"mode":    c.Account.Mode,
			"seed":    c.Account.Seed,
			"keypair": c.Account.Keypair,
		},
		"wallet": map[string]any{
			"keypair":          c.Wallet.Keypair,
			"secret":           c.Wallet.Secret,
			"project_id":       c.Wallet.ProjectID,
			"credentials_file": c.Wallet.CredentialsFile,
			"trusted":          c.Wallet.Trusted,
			"approve":          c.Wallet.Approve,
		},
		"http": map[string]any{
			"host":            c.HTTP.Host,
			"port":            c.HTTP.Port,
			"allowed_origins": c.HTTP.AllowedOrigins,
			"session_idle":    c.HTTP.SessionIdle.String(),
		},
	}

	b, err := toml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("config: encode toml: %w", err)
	}
	return b, nil
}
