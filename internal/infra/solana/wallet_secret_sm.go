// internal/infra/solana/wallet_secret_sm.go
package solana

import (
	"context"
	"errors"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	secretspb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/blocto/solana-go-sdk/types"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	walletdom "github.com/shnoopysol/gif-portal/internal/domain/wallet"
)

var ErrWalletSecretNotConfigured = errors.New("wallet_secret_provider: not configured")

// SecretAccessor is the one Secret Manager call the wallet needs.
type SecretAccessor interface {
	AccessSecretVersion(ctx context.Context, name string) ([]byte, error)
}

// SecretManagerAccessor adapts the GCP Secret Manager client.
type SecretManagerAccessor struct {
	Client *secretmanager.Client
}

// NewSecretManagerAccessor opens a Secret Manager client; credFile is optional (ADC otherwise).
func NewSecretManagerAccessor(ctx context.Context, credFile string) (*SecretManagerAccessor, error) {
	var opts []option.ClientOption
	if f := strings.TrimSpace(credFile); f != "" {
		opts = append(opts, option.WithCredentialsFile(f))
	}
	c, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("secretmanager.NewClient: %w", err)
	}
	return &SecretManagerAccessor{Client: c}, nil
}

func (a *SecretManagerAccessor) AccessSecretVersion(ctx context.Context, name string) ([]byte, error) {
	if a == nil || a.Client == nil {
		return nil, ErrWalletSecretNotConfigured
	}
	res, err := a.Client.AccessSecretVersion(ctx, &secretspb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		if status.Code(err) == codes.NotFound || status.Code(err) == codes.PermissionDenied {
			return nil, fmt.Errorf("%w: secret %s: %v", walletdom.ErrWalletUnavailable, name, err)
		}
		return nil, fmt.Errorf("access secret version %s: %w", name, err)
	}
	if res == nil || res.GetPayload() == nil {
		return nil, fmt.Errorf("%w: secret %s has no payload", walletdom.ErrWalletUnavailable, name)
	}
	return res.GetPayload().GetData(), nil
}

func (a *SecretManagerAccessor) Close() error {
	if a == nil || a.Client == nil {
		return nil
	}
	return a.Client.Close()
}

// SecretVersionName resolves a secret reference:
//   - "projects/<p>/secrets/<s>/versions/<v>" is used as is
//   - "<s>" becomes "projects/<projectID>/secrets/<s>/versions/latest"
func SecretVersionName(projectID, secret string) (string, error) {
	s := strings.TrimSpace(secret)
	if s == "" {
		return "", fmt.Errorf("%w: secret is empty", ErrWalletSecretNotConfigured)
	}
	if strings.HasPrefix(s, "projects/") {
		return s, nil
	}
	pid := strings.TrimSpace(projectID)
	if pid == "" {
		return "", fmt.Errorf("%w: projectID is empty", ErrWalletSecretNotConfigured)
	}
	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", pid, s), nil
}

// SecretKeyLoader reads the keypair (same formats as ParseKeypair) from a secret version.
func SecretKeyLoader(acc SecretAccessor, versionName string) KeyLoader {
	return func(ctx context.Context) (types.Account, error) {
		if acc == nil {
			return types.Account{}, ErrWalletSecretNotConfigured
		}
		data, err := acc.AccessSecretVersion(ctx, versionName)
		if err != nil {
			return types.Account{}, err
		}
		a, err := ParseKeypair(data)
		if err != nil {
			return types.Account{}, fmt.Errorf("secret %s: %w", versionName, err)
		}
		return a, nil
	}
}

// NewSecretWallet is a KeypairWallet whose key lives in Secret Manager.
func NewSecretWallet(acc SecretAccessor, versionName string, trusted bool) *KeypairWallet {
	return NewKeypairWallet("secret-manager", SecretKeyLoader(acc, versionName), trusted)
}
