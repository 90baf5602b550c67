package solana

import (
	"context"
	"crypto/ed25519"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	walletdom "github.com/shnoopysol/gif-portal/internal/domain/wallet"
)

func staticLoader(acc types.Account) KeyLoader {
	return func(context.Context) (types.Account, error) { return acc, nil }
}

func TestKeypairWalletSilentConnectNeedsTrust(t *testing.T) {
	t.Parallel()

	acc := types.NewAccount()
	w := NewKeypairWallet("test", staticLoader(acc), false)

	_, err := w.Connect(context.Background(), walletdom.ConnectOptions{OnlyIfTrusted: true})
	require.ErrorIs(t, err, walletdom.ErrWalletRejected)
	assert.Empty(t, w.Address())

	addr, err := w.Connect(context.Background(), walletdom.ConnectOptions{})
	require.NoError(t, err)
	assert.Equal(t, acc.PublicKey.ToBase58(), addr)

	// 一度許可したら次回以降はサイレント接続できる
	addr, err = w.Connect(context.Background(), walletdom.ConnectOptions{OnlyIfTrusted: true})
	require.NoError(t, err)
	assert.Equal(t, acc.PublicKey.ToBase58(), addr)
}

func TestKeypairWalletApprover(t *testing.T) {
	t.Parallel()

	acc := types.NewAccount()
	w := NewKeypairWallet("test", staticLoader(acc), false).
		WithApprover(func(context.Context, string) bool { return false })

	_, err := w.Connect(context.Background(), walletdom.ConnectOptions{})
	require.ErrorIs(t, err, walletdom.ErrWalletRejected)

	_, err = w.SignMessage(context.Background(), []byte("msg"))
	require.ErrorIs(t, err, walletdom.ErrWalletNotConnected)
}

func TestKeypairWalletSignsWithLoadedKey(t *testing.T) {
	t.Parallel()

	acc := types.NewAccount()
	w := NewKeypairWallet("test", staticLoader(acc), true)

	_, err := w.Connect(context.Background(), walletdom.ConnectOptions{OnlyIfTrusted: true})
	require.NoError(t, err)

	msg := []byte("transaction message")
	sig, err := w.SignMessage(context.Background(), msg)
	require.NoError(t, err)
	assert.True(t, ed25519.Verify(acc.PublicKey.Bytes(), msg, sig))
}

func TestKeyfileEnvironmentPresence(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "id.json")
	env := NewKeyfileEnvironment(path, true)
	assert.Nil(t, env.Wallet())

	b, err := EncodeKeypairJSON(types.NewAccount())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	assert.NotNil(t, env.Wallet())

	assert.Nil(t, NewKeyfileEnvironment("", true).Wallet())
	assert.Nil(t, NewStaticEnvironment(nil).Wallet())
}

func TestKeypairWalletMissingFileIsUnavailable(t *testing.T) {
	t.Parallel()

	w := NewKeypairWallet("keyfile", FileKeyLoader(filepath.Join(t.TempDir(), "gone.json")), true)
	_, err := w.Connect(context.Background(), walletdom.ConnectOptions{})
	require.ErrorIs(t, err, walletdom.ErrWalletUnavailable)
}

type fakeSecrets struct {
	data map[string][]byte
}

func (f fakeSecrets) AccessSecretVersion(_ context.Context, name string) ([]byte, error) {
	b, ok := f.data[name]
	if !ok {
		return nil, errors.Join(walletdom.ErrWalletUnavailable, errors.New("not found"))
	}
	return b, nil
}

func TestSecretWallet(t *testing.T) {
	t.Parallel()

	acc := types.NewAccount()
	b, err := EncodeKeypairJSON(acc)
	require.NoError(t, err)

	name, err := SecretVersionName("proj", "portal-wallet")
	require.NoError(t, err)
	assert.Equal(t, "projects/proj/secrets/portal-wallet/versions/latest", name)

	secrets := fakeSecrets{data: map[string][]byte{name: b}}

	w := NewSecretWallet(secrets, name, false)
	addr, err := w.Connect(context.Background(), walletdom.ConnectOptions{})
	require.NoError(t, err)
	assert.Equal(t, acc.PublicKey.ToBase58(), addr)

	missing := NewSecretWallet(secrets, "projects/proj/secrets/other/versions/1", false)
	_, err = missing.Connect(context.Background(), walletdom.ConnectOptions{})
	require.ErrorIs(t, err, walletdom.ErrWalletUnavailable)
}

func TestSecretVersionName(t *testing.T) {
	t.Parallel()

	full := "projects/p/secrets/s/versions/3"
	got, err := SecretVersionName("", full)
	require.NoError(t, err)
	assert.Equal(t, full, got)

	_, err = SecretVersionName("", "s")
	require.ErrorIs(t, err, ErrWalletSecretNotConfigured)

	_, err = SecretVersionName("p", " ")
	require.ErrorIs(t, err, ErrWalletSecretNotConfigured)
}
