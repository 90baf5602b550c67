package solana

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeypairFormats(t *testing.T) {
	t.Parallel()

	acc := types.NewAccount()

	arr, err := EncodeKeypairJSON(acc)
	require.NoError(t, err)

	obj := map[string]any{}
	secret := map[string]int{}
	for i, b := range acc.PrivateKey {
		secret[strconv.Itoa(i)] = int(b)
	}
	obj["_keypair"] = map[string]any{"secretKey": secret}
	web3JSON, err := json.Marshal(obj)
	require.NoError(t, err)

	testCases := []struct {
		name string
		in   []byte
	}{
		{name: "solana-keygen array", in: arr},
		{name: "web3 object", in: web3JSON},
		{name: "base58", in: []byte(EncodeKeypairBase58(acc))},
		{name: "surrounding whitespace", in: append([]byte("\n  "), arr...)},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseKeypair(tc.in)
			require.NoError(t, err)
			assert.Equal(t, acc.PublicKey, got.PublicKey)
		})
	}
}

func TestParseKeypairRejectsBadInput(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		in      string
		wantErr error
	}{
		{name: "empty", in: "   ", wantErr: ErrKeypairEmpty},
		{name: "short array", in: "[1,2,3]", wantErr: ErrKeypairInvalid},
		{name: "out of range", in: "[256]", wantErr: ErrKeypairInvalid},
		{name: "not json", in: "[1,2,", wantErr: ErrKeypairInvalid},
		{name: "object without key", in: `{"_keypair":{}}`, wantErr: ErrKeypairInvalid},
		{name: "bad base58", in: "0OIl", wantErr: ErrKeypairInvalid},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseKeypair([]byte(tc.in))
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestLoadKeypairFile(t *testing.T) {
	t.Parallel()

	acc := types.NewAccount()
	b, err := EncodeKeypairJSON(acc)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "id.json")
	require.NoError(t, os.WriteFile(path, b, 0o600))

	got, err := LoadKeypairFile(path)
	require.NoError(t, err)
	assert.Equal(t, acc.PublicKey.ToBase58(), got.PublicKey.ToBase58())

	_, err = LoadKeypairFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMaskShort(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", maskShort("  "))
	assert.Equal(t, "short", maskShort("short"))
	assert.Equal(t, "3DdK***8nhz", maskShort("3DdKqVj9wA3q56crthydc4ccEi6EbHk6afmdsHPC8nhz"))
}

func TestCommitmentReaches(t *testing.T) {
	t.Parallel()

	c, err := ParseCommitment(" Confirmed ")
	require.NoError(t, err)
	assert.Equal(t, CommitmentConfirmed, c)

	assert.True(t, CommitmentFinalized.Reaches(CommitmentProcessed))
	assert.True(t, CommitmentConfirmed.Reaches(CommitmentConfirmed))
	assert.False(t, CommitmentProcessed.Reaches(CommitmentConfirmed))
	assert.False(t, Commitment("").Reaches(CommitmentProcessed))

	_, err = ParseCommitment("max")
	require.Error(t, err)
}
