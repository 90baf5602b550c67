// internal/infra/solana/keypair.go
package solana

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"
)

var (
	ErrKeypairEmpty   = errors.New("solana keypair: empty payload")
	ErrKeypairInvalid = errors.New("solana keypair: invalid key material")
)

// LoadKeypairFile reads a keypair file from disk. See ParseKeypair for accepted formats.
func LoadKeypairFile(path string) (types.Account, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return types.Account{}, fmt.Errorf("%w: path is empty", ErrKeypairEmpty)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return types.Account{}, fmt.Errorf("solana keypair: read %s: %w", p, err)
	}
	acc, err := ParseKeypair(b)
	if err != nil {
		return types.Account{}, fmt.Errorf("solana keypair: %s: %w", p, err)
	}
	return acc, nil
}

// ParseKeypair restores an account from
//   - solana-keygen JSON: [u8;64]
//   - web3.js Keypair JSON: {"_keypair":{"secretKey":{"0":12,...}}}
//   - base58 encoded 64 byte secret key (wallet export format)
func ParseKeypair(data []byte) (types.Account, error) {
	s := bytes.TrimSpace(data)
	if len(s) == 0 {
		return types.Account{}, ErrKeypairEmpty
	}

	var (
		key []byte
		err error
	)
	switch s[0] {
	case '[':
		key, err = decodeKeypairJSON(s)
	case '{':
		key, err = decodeWeb3Keypair(s)
	default:
		key, err = base58.Decode(string(s))
		if err != nil {
			err = fmt.Errorf("%w: base58: %v", ErrKeypairInvalid, err)
		}
	}
	if err != nil {
		return types.Account{}, err
	}

	if len(key) != ed25519.PrivateKeySize {
		return types.Account{}, fmt.Errorf("%w: want %d bytes, got %d", ErrKeypairInvalid, ed25519.PrivateKeySize, len(key))
	}
	acc, err := types.AccountFromBytes(key)
	if err != nil {
		return types.Account{}, fmt.Errorf("%w: %v", ErrKeypairInvalid, err)
	}
	return acc, nil
}

// EncodeKeypairJSON は solana-keygen 互換の [int,int,...] 形式で秘密鍵を書き出します。
func EncodeKeypairJSON(acc types.Account) ([]byte, error) {
	ints := make([]int, len(acc.PrivateKey))
	for i, v := range acc.PrivateKey {
		ints[i] = int(v)
	}
	return json.Marshal(ints)
}

// EncodeKeypairBase58 returns the wallet export form of the secret key.
func EncodeKeypairBase58(acc types.Account) string {
	return base58.Encode(acc.PrivateKey)
}

// decodeKeypairJSON は [u8;64] / [int,...] 形式の keypair JSON から 64 バイトの鍵配列を復元します。
func decodeKeypairJSON(data []byte) ([]byte, error) {
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return nil, fmt.Errorf("%w: unmarshal keypair json: %v", ErrKeypairInvalid, err)
	}
	return intsToBytes(ints)
}

type web3Keypair struct {
	Keypair struct {
		SecretKey map[string]int `json:"secretKey"`
	} `json:"_keypair"`
}

// decodeWeb3Keypair handles the object form web3.js writes when a Keypair is JSON.stringify'd:
// secretKey is an object keyed by byte index.
func decodeWeb3Keypair(data []byte) ([]byte, error) {
	var kp web3Keypair
	if err := json.Unmarshal(data, &kp); err != nil {
		return nil, fmt.Errorf("%w: unmarshal keypair object: %v", ErrKeypairInvalid, err)
	}
	if len(kp.Keypair.SecretKey) == 0 {
		return nil, fmt.Errorf("%w: _keypair.secretKey is missing", ErrKeypairInvalid)
	}

	idx := make([]int, 0, len(kp.Keypair.SecretKey))
	for k := range kp.Keypair.SecretKey {
		n, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("%w: secretKey index %q", ErrKeypairInvalid, k)
		}
		idx = append(idx, n)
	}
	sort.Ints(idx)

	ints := make([]int, 0, len(idx))
	for i, n := range idx {
		if n != i {
			return nil, fmt.Errorf("%w: secretKey index %d missing", ErrKeypairInvalid, i)
		}
		ints = append(ints, kp.Keypair.SecretKey[strconv.Itoa(n)])
	}
	return intsToBytes(ints)
}

func intsToBytes(ints []int) ([]byte, error) {
	b := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("%w: byte out of range at %d: %d", ErrKeypairInvalid, i, v)
		}
		b[i] = byte(v)
	}
	return b, nil
}
