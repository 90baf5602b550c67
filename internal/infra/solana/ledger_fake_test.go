package solana

import (
	"bytes"
	"compress/zlib"
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"testing"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/near/borsh-go"
	"github.com/stretchr/testify/require"

	linkdom "github.com/shnoopysol/gif-portal/internal/domain/link"
)

// legacyIDL is the interface published by the keypair-initialized (shared board) program.
const legacyIDL = `{
  "version": "0.1.0",
  "name": "myepicproject",
  "instructions": [
    {
      "name": "startStuffOff",
      "accounts": [
        {"name": "baseAccount", "isMut": true, "isSigner": true},
        {"name": "user", "isMut": true, "isSigner": true},
        {"name": "systemProgram", "isMut": false, "isSigner": false}
      ],
      "args": []
    },
    {
      "name": "addGif",
      "accounts": [
        {"name": "baseAccount", "isMut": true, "isSigner": false},
        {"name": "user", "isMut": true, "isSigner": true}
      ],
      "args": [{"name": "gifLink", "type": "string"}]
    }
  ],
  "accounts": [
    {
      "name": "BaseAccount",
      "type": {
        "kind": "struct",
        "fields": [
          {"name": "totalGifs", "type": "u64"},
          {"name": "gifList", "type": {"vec": {"defined": "ItemStruct"}}}
        ]
      }
    }
  ],
  "types": [
    {
      "name": "ItemStruct",
      "type": {
        "kind": "struct",
        "fields": [
          {"name": "gifLink", "type": "string"},
          {"name": "userAddress", "type": "publicKey"}
        ]
      }
    }
  ]
}`

// derivedIDL is a 0.30+ redeploy that creates each board as a PDA (account.mode = "derived").
const derivedIDL = `{
  "address": "3DdKqVj9wA3q56crthydc4ccEi6EbHk6afmdsHPC8nhz",
  "metadata": {"name": "gif_portal", "version": "0.2.0", "spec": "0.1.0"},
  "instructions": [
    {
      "name": "start_stuff_off",
      "discriminator": [1, 2, 3, 4, 5, 6, 7, 8],
      "accounts": [
        {"name": "base_account", "writable": true},
        {"name": "user", "writable": true, "signer": true},
        {"name": "system_program", "address": "11111111111111111111111111111111"}
      ],
      "args": []
    },
    {
      "name": "add_gif",
      "discriminator": [9, 10, 11, 12, 13, 14, 15, 16],
      "accounts": [
        {"name": "base_account", "writable": true},
        {"name": "user", "signer": true}
      ],
      "args": [{"name": "gif_link", "type": "string"}]
    }
  ],
  "accounts": [
    {"name": "BaseAccount", "discriminator": [20, 21, 22, 23, 24, 25, 26, 27]}
  ],
  "types": [
    {
      "name": "BaseAccount",
      "type": {
        "kind": "struct",
        "fields": [
          {"name": "total_gifs", "type": "u64"},
          {"name": "gif_list", "type": {"vec": {"defined": {"name": "ItemStruct"}}}}
        ]
      }
    },
    {
      "name": "ItemStruct",
      "type": {
        "kind": "struct",
        "fields": [
          {"name": "gif_link", "type": "string"},
          {"name": "user_address", "type": "pubkey"},
          {"name": "votes", "type": "u32"}
        ]
      }
    }
  ]
}`

func mustParseIDL(t *testing.T, raw string) *IDL {
	t.Helper()
	idl, err := ParseIDL([]byte(raw))
	require.NoError(t, err)
	return idl
}

// idlAccountData wraps IDL JSON the way Anchor stores it on chain.
func idlAccountData(t *testing.T, raw string) []byte {
	t.Helper()

	var z bytes.Buffer
	zw := zlib.NewWriter(&z)
	_, err := zw.Write([]byte(raw))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	data := make([]byte, idlHeaderSize, idlHeaderSize+z.Len()+16)
	copy(data[:8], []byte("idlacct!"))
	copy(data[8:40], types.NewAccount().PublicKey.Bytes())
	binary.LittleEndian.PutUint32(data[40:44], uint32(z.Len()))
	data = append(data, z.Bytes()...)
	// アカウントは余白付きで確保される
	return append(data, make([]byte, 16)...)
}

type legacyItem struct {
	GifLink     string
	UserAddress [32]byte
}

type legacyBaseAccount struct {
	TotalGifs uint64
	GifList   []legacyItem
}

// legacyBoardData encodes a BaseAccount with the legacy (sighash) discriminator.
func legacyBoardData(t *testing.T, items ...legacyItem) []byte {
	t.Helper()

	body, err := borsh.Serialize(legacyBaseAccount{TotalGifs: uint64(len(items)), GifList: items})
	require.NoError(t, err)

	disc := sighash("account", "BaseAccount")
	out := append(disc[:], body...)
	return append(out, make([]byte, 64)...)
}

// fakeRPC is an in-memory ledger endpoint.
type fakeRPC struct {
	mu sync.Mutex

	accounts   map[common.PublicKey]AccountData
	sent       []types.Transaction
	sendErr    error
	statuses   []SignatureStatus
	statusErr  error
	statusCall int
	onSend     func(tx types.Transaction)
}

var _ LedgerRPC = (*fakeRPC)(nil)

func newFakeRPC() *fakeRPC {
	return &fakeRPC{accounts: map[common.PublicKey]AccountData{}}
}

func (f *fakeRPC) put(addr common.PublicKey, owner common.PublicKey, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[addr] = AccountData{Owner: owner, Lamports: 1_000_000, Data: data}
}

func (f *fakeRPC) GetAccount(_ context.Context, address common.PublicKey) (AccountData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.accounts[address]
	if !ok {
		return AccountData{}, fmt.Errorf("%w: %s", linkdom.ErrAccountNotFound, address.ToBase58())
	}
	return acc, nil
}

var testBlockhash = common.PublicKeyFromBytes(bytes.Repeat([]byte{7}, 32)).ToBase58()

func (f *fakeRPC) GetLatestBlockhash(context.Context) (string, error) {
	return testBlockhash, nil
}

func (f *fakeRPC) SendTransaction(_ context.Context, tx types.Transaction) (string, error) {
	f.mu.Lock()
	if f.sendErr != nil {
		defer f.mu.Unlock()
		return "", f.sendErr
	}
	f.sent = append(f.sent, tx)
	n := len(f.sent)
	hook := f.onSend
	f.mu.Unlock()

	if hook != nil {
		hook(tx)
	}
	return fmt.Sprintf("sig-%d", n), nil
}

func (f *fakeRPC) GetSignatureStatus(context.Context, string) (SignatureStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusErr != nil {
		return SignatureStatus{}, f.statusErr
	}
	if len(f.statuses) == 0 {
		return SignatureStatus{Found: true, Confirmation: CommitmentFinalized}, nil
	}
	i := f.statusCall
	if i >= len(f.statuses) {
		i = len(f.statuses) - 1
	}
	f.statusCall++
	return f.statuses[i], nil
}

func (f *fakeRPC) sentTransactions() []types.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.Transaction(nil), f.sent...)
}
