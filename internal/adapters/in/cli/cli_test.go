package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shnoopysol/gif-portal/internal/application/usecase"
	linkdom "github.com/shnoopysol/gif-portal/internal/domain/link"
	appcfg "github.com/shnoopysol/gif-portal/internal/infra/config"
	solanainfra "github.com/shnoopysol/gif-portal/internal/infra/solana"
	"github.com/shnoopysol/gif-portal/internal/platform/di"
)

type memoryBoard struct {
	mu    sync.Mutex
	board *linkdom.Board
}

func (m *memoryBoard) ResolveClient(context.Context) (usecase.BoardClient, error) { return m, nil }

func (m *memoryBoard) InitializeBoard(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.board = &linkdom.Board{Entries: []linkdom.Entry{}}
	return "init", nil
}

func (m *memoryBoard) AddLink(_ context.Context, link string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.board == nil {
		return "", linkdom.ErrAccountNotFound
	}
	m.board.Entries = append(m.board.Entries, linkdom.Entry{Link: link})
	m.board.TotalLinks++
	return "add", nil
}

func (m *memoryBoard) FetchBoard(context.Context) (linkdom.Board, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.board == nil {
		return linkdom.Board{}, linkdom.ErrAccountNotFound
	}
	return m.board.Clone(), nil
}

// memoryWire builds the container like di.NewContainer but with an in-memory board.
func memoryWire(board *memoryBoard) wireFunc {
	return func(_ context.Context, cfg *appcfg.Config) (*di.Container, error) {
		programID, err := solanainfra.ParsePublicKey(cfg.Program.ID)
		if err != nil {
			return nil, err
		}
		return &di.Container{
			Config:    cfg,
			ProgramID: programID,
			WalletEnv: solanainfra.NewKeyfileEnvironment(cfg.Wallet.Keypair, cfg.Wallet.Trusted),
			Resolver: &solanainfra.Resolver{
				ProgramID: programID,
				Boards:    solanainfra.DerivedBoard{ProgramID: programID, Seed: cfg.Account.Seed},
			},
			BoardSync: usecase.NewBoardSyncUsecase(board),
		}, nil
	}
}

func executeCLI(t *testing.T, wire wireFunc, args ...string) (string, string, error) {
	t.Helper()

	root := newRootCmdWith(wire)
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeConfigFixture(t *testing.T, dir, walletKeypair string) string {
	t.Helper()

	path := filepath.Join(dir, "portal.toml")
	body := fmt.Sprintf(`[program]
id = %q

[account]
mode = "derived"
seed = "base_account"

[wallet]
keypair = %q
`, appcfg.DefaultProgramID, walletKeypair)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestKeygenWritesLoadableKeypair(t *testing.T) {
	color.NoColor = true
	out := filepath.Join(t.TempDir(), "id.json")

	stdout, _, err := executeCLI(t, nil, "keygen", "--out", out, "--show-secret")
	require.NoError(t, err)

	acc, err := solanainfra.LoadKeypairFile(out)
	require.NoError(t, err)
	assert.Contains(t, stdout, acc.PublicKey.ToBase58())
	assert.Contains(t, stdout, solanainfra.EncodeKeypairBase58(acc))

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	_, _, err = executeCLI(t, nil, "keygen", "--out", out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, _, err = executeCLI(t, nil, "keygen", "--out", out, "--force")
	require.NoError(t, err)
	again, err := solanainfra.LoadKeypairFile(out)
	require.NoError(t, err)
	assert.NotEqual(t, acc.PublicKey, again.PublicKey)
}

func TestConfigInitThenShow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "portal.toml")

	stdout, _, err := executeCLI(t, nil, "config", "init", "--out", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "wrote")

	stdout, _, err = executeCLI(t, nil, "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, stdout, "[rpc]")
	assert.Contains(t, stdout, appcfg.DefaultRPCEndpoint)
	assert.Contains(t, stdout, appcfg.DefaultProgramID)
	assert.Contains(t, stdout, "session_idle")

	_, _, err = executeCLI(t, nil, "config", "init", "--out", path)
	require.Error(t, err)
}

func TestBoardCommandsFlow(t *testing.T) {
	color.NoColor = true
	dir := t.TempDir()

	keyfile := filepath.Join(dir, "id.json")
	_, _, err := executeCLI(t, nil, "keygen", "--out", keyfile)
	require.NoError(t, err)
	user, err := solanainfra.LoadKeypairFile(keyfile)
	require.NoError(t, err)

	cfgPath := writeConfigFixture(t, dir, keyfile)
	board := &memoryBoard{}
	wire := memoryWire(board)

	stdout, _, err := executeCLI(t, wire, "--config", cfgPath, "status")
	require.NoError(t, err)
	assert.Contains(t, stdout, user.PublicKey.ToBase58())
	assert.Contains(t, stdout, "not initialized")

	_, _, err = executeCLI(t, wire, "--config", cfgPath, "list")
	require.ErrorIs(t, err, linkdom.ErrAccountNotFound)

	_, _, err = executeCLI(t, wire, "--config", cfgPath, "add", "https://media.giphy.com/a.gif")
	require.ErrorIs(t, err, linkdom.ErrAccountNotFound)

	stdout, _, err = executeCLI(t, wire, "--config", cfgPath, "init")
	require.NoError(t, err)
	assert.Contains(t, stdout, "initialized")

	stdout, _, err = executeCLI(t, wire, "--config", cfgPath, "init")
	require.NoError(t, err)
	assert.Contains(t, stdout, "already initialized")

	stdout, _, err = executeCLI(t, wire, "--config", cfgPath, "add", "https://media.giphy.com/a.gif")
	require.NoError(t, err)
	assert.Contains(t, stdout, "1 links")

	_, _, err = executeCLI(t, wire, "--config", cfgPath, "add", "   ")
	require.ErrorIs(t, err, linkdom.ErrEmptyLink)

	stdout, _, err = executeCLI(t, wire, "--config", cfgPath, "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "https://media.giphy.com/a.gif")

	stdout, _, err = executeCLI(t, wire, "--config", cfgPath, "list", "--json")
	require.NoError(t, err)
	var entries []linkdom.Entry
	require.NoError(t, json.Unmarshal([]byte(stdout), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "https://media.giphy.com/a.gif", entries[0].Link)

	stdout, _, err = executeCLI(t, wire, "--config", cfgPath, "status", "--json")
	require.NoError(t, err)
	var st boardStatus
	require.NoError(t, json.Unmarshal([]byte(stdout), &st))
	assert.True(t, st.Initialized)
	assert.Equal(t, 1, st.Links)
	assert.Equal(t, user.PublicKey.ToBase58(), st.Wallet)

	programID := common.PublicKeyFromString(appcfg.DefaultProgramID)
	pda, _, err := common.FindProgramAddress([][]byte{[]byte("base_account"), user.PublicKey.Bytes()}, programID)
	require.NoError(t, err)
	assert.Equal(t, pda.ToBase58(), st.Board)

	stdout, _, err = executeCLI(t, wire, "--config", cfgPath, "address")
	require.NoError(t, err)
	assert.Contains(t, stdout, pda.ToBase58())
}

func TestBoardCommandsWithoutWallet(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfigFixture(t, dir, filepath.Join(dir, "missing.json"))

	_, _, err := executeCLI(t, memoryWire(&memoryBoard{}), "--config", cfgPath, "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), usecase.NoticeWalletNotFound)
}

func TestBadConfigFileFails(t *testing.T) {
	_, _, err := executeCLI(t, memoryWire(&memoryBoard{}), "--config", filepath.Join(t.TempDir(), "nope.toml"), "status")
	require.Error(t, err)
}

func TestShortAddress(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", shortAddress(""))
	assert.Equal(t, "abc", shortAddress("abc"))
	assert.Equal(t, "9xQe…VFin", shortAddress("9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"))
}

func TestListenAddrDefaultsToLoopback(t *testing.T) {
	t.Parallel()

	cfg := appcfg.Defaults()
	testCases := []struct {
		name       string
		host, port string
		want       string
	}{
		{name: "defaults", want: "127.0.0.1:8080"},
		{name: "flags", host: "0.0.0.0", port: "9000", want: "0.0.0.0:9000"},
		{name: "port only", port: "9000", want: "127.0.0.1:9000"},
		{name: "ipv6", host: "::1", want: "[::1]:8080"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, listenAddr(&cfg, tc.host, tc.port))
		})
	}
}
