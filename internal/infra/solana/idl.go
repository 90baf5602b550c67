// internal/infra/solana/idl.go
package solana

import (
	"bytes"
	"compress/zlib"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/blocto/solana-go-sdk/common"

	linkdom "github.com/shnoopysol/gif-portal/internal/domain/link"
)

var (
	ErrIDLNotFound = errors.New("solana idl: idl account not found")
	ErrIDLDecode   = errors.New("solana idl: cannot decode idl")
)

const (
	idlSeed = "anchor:idl"
	// discriminator(8) + authority(32) + data_len(4)
	idlHeaderSize = 8 + 32 + 4
	// IDL JSON はせいぜい数十 KB。壊れたデータで巨大な展開をしないための上限。
	maxIDLSize = 4 << 20
)

// IDL is the Anchor interface description. Both the legacy (camelCase, isMut/isSigner) and the
// 0.30+ (snake_case, writable/signer, explicit discriminators) layouts decode into it.
type IDL struct {
	Address      string           `json:"address,omitempty"`
	Version      string           `json:"version,omitempty"`
	Name         string           `json:"name,omitempty"`
	Metadata     *IDLMetadata     `json:"metadata,omitempty"`
	Instructions []IDLInstruction `json:"instructions"`
	Accounts     []IDLAccountDef  `json:"accounts,omitempty"`
	Types        []IDLTypeDef     `json:"types,omitempty"`
}

type IDLMetadata struct {
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
}

type IDLInstruction struct {
	Name          string           `json:"name"`
	Discriminator []int            `json:"discriminator,omitempty"`
	Accounts      []IDLAccountItem `json:"accounts"`
	Args          []IDLField       `json:"args"`
}

type IDLAccountItem struct {
	Name     string `json:"name"`
	IsMut    bool   `json:"isMut,omitempty"`
	IsSigner bool   `json:"isSigner,omitempty"`
	Writable bool   `json:"writable,omitempty"`
	Signer   bool   `json:"signer,omitempty"`
	Address  string `json:"address,omitempty"`
}

// Mutable reports the writable flag regardless of IDL generation.
func (a IDLAccountItem) Mutable() bool { return a.IsMut || a.Writable }

// MustSign reports the signer flag regardless of IDL generation.
func (a IDLAccountItem) MustSign() bool { return a.IsSigner || a.Signer }

type IDLAccountDef struct {
	Name          string        `json:"name"`
	Discriminator []int         `json:"discriminator,omitempty"`
	Type          *IDLTypeDefTy `json:"type,omitempty"`
}

type IDLTypeDef struct {
	Name string       `json:"name"`
	Type IDLTypeDefTy `json:"type"`
}

type IDLTypeDefTy struct {
	Kind     string       `json:"kind"`
	Fields   []IDLField   `json:"fields,omitempty"`
	Variants []IDLVariant `json:"variants,omitempty"`
}

type IDLVariant struct {
	Name   string     `json:"name"`
	Fields []IDLField `json:"fields,omitempty"`
}

type IDLField struct {
	Name string  `json:"name"`
	Type IDLType `json:"type"`
}

// ProgramName returns the program name from either IDL layout.
func (idl *IDL) ProgramName() string {
	if idl.Name != "" {
		return idl.Name
	}
	if idl.Metadata != nil {
		return idl.Metadata.Name
	}
	return ""
}

// Instruction looks an instruction up by name; "startStuffOff" and "start_stuff_off" are the same.
func (idl *IDL) Instruction(name string) (IDLInstruction, bool) {
	want := snakeCase(name)
	for _, ix := range idl.Instructions {
		if snakeCase(ix.Name) == want {
			return ix, true
		}
	}
	return IDLInstruction{}, false
}

// AccountType returns the struct layout of an account definition.
// Legacy IDLs inline it; newer ones point at an entry of "types".
func (idl *IDL) AccountType(def IDLAccountDef) (IDLTypeDefTy, bool) {
	if def.Type != nil {
		return *def.Type, true
	}
	return idl.TypeDef(def.Name)
}

// TypeDef finds a named type among "types" (and legacy inline account types).
func (idl *IDL) TypeDef(name string) (IDLTypeDefTy, bool) {
	for _, t := range idl.Types {
		if t.Name == name {
			return t.Type, true
		}
	}
	for _, a := range idl.Accounts {
		if a.Name == name && a.Type != nil {
			return *a.Type, true
		}
	}
	return IDLTypeDefTy{}, false
}

// InstructionDiscriminator is sha256("global:<snake_name>")[:8] unless the IDL states it.
func InstructionDiscriminator(ix IDLInstruction) ([8]byte, error) {
	if len(ix.Discriminator) > 0 {
		return fixedDiscriminator(ix.Discriminator)
	}
	return sighash("global", snakeCase(ix.Name)), nil
}

// AccountDiscriminator is sha256("account:<Name>")[:8] unless the IDL states it.
func AccountDiscriminator(def IDLAccountDef) ([8]byte, error) {
	if len(def.Discriminator) > 0 {
		return fixedDiscriminator(def.Discriminator)
	}
	return sighash("account", def.Name), nil
}

func sighash(namespace, name string) [8]byte {
	sum := sha256.Sum256([]byte(namespace + ":" + name))
	var out [8]byte
	copy(out[:], sum[:8])
	return out
}

func fixedDiscriminator(ints []int) ([8]byte, error) {
	var out [8]byte
	if len(ints) != len(out) {
		return out, fmt.Errorf("%w: discriminator length %d", ErrIDLDecode, len(ints))
	}
	b, err := intsToBytes(ints)
	if err != nil {
		return out, fmt.Errorf("%w: %v", ErrIDLDecode, err)
	}
	copy(out[:], b)
	return out, nil
}

// snakeCase converts camelCase/PascalCase to snake_case; snake_case input is unchanged.
func snakeCase(s string) string {
	var b strings.Builder
	rs := []rune(s)
	for i, r := range rs {
		if unicode.IsUpper(r) {
			if i > 0 && rs[i-1] != '_' && !unicode.IsUpper(rs[i-1]) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// IDLAddress derives the account Anchor stores the IDL in:
// createWithSeed(PDA([], program), "anchor:idl", program).
func IDLAddress(programID common.PublicKey) (common.PublicKey, error) {
	base, _, err := common.FindProgramAddress([][]byte{}, programID)
	if err != nil {
		return common.PublicKey{}, fmt.Errorf("solana idl: derive base address: %w", err)
	}
	return common.CreateWithSeed(base, idlSeed, programID), nil
}

// FetchIDL reads and decodes the program's on-chain IDL.
func FetchIDL(ctx context.Context, rpc LedgerRPC, programID common.PublicKey) (*IDL, error) {
	addr, err := IDLAddress(programID)
	if err != nil {
		return nil, err
	}

	acc, err := rpc.GetAccount(ctx, addr)
	if err != nil {
		if errors.Is(err, linkdom.ErrAccountNotFound) {
			return nil, fmt.Errorf("%w: program=%s idl=%s", ErrIDLNotFound, programID.ToBase58(), addr.ToBase58())
		}
		return nil, fmt.Errorf("solana idl: fetch: %w", err)
	}

	raw, err := DecodeIDLAccount(acc.Data)
	if err != nil {
		return nil, err
	}
	return ParseIDL(raw)
}

// DecodeIDLAccount strips the IdlAccount header and inflates the zlib payload.
func DecodeIDLAccount(data []byte) ([]byte, error) {
	if len(data) < idlHeaderSize {
		return nil, fmt.Errorf("%w: account too short (%d bytes)", ErrIDLDecode, len(data))
	}
	n := binary.LittleEndian.Uint32(data[40:44])
	body := data[idlHeaderSize:]
	if uint64(n) > uint64(len(body)) {
		return nil, fmt.Errorf("%w: data_len %d exceeds account size %d", ErrIDLDecode, n, len(body))
	}

	zr, err := zlib.NewReader(bytes.NewReader(body[:n]))
	if err != nil {
		return nil, fmt.Errorf("%w: zlib: %v", ErrIDLDecode, err)
	}
	defer zr.Close()

	raw, err := io.ReadAll(io.LimitReader(zr, maxIDLSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: inflate: %v", ErrIDLDecode, err)
	}
	if len(raw) > maxIDLSize {
		return nil, fmt.Errorf("%w: idl larger than %d bytes", ErrIDLDecode, maxIDLSize)
	}
	return raw, nil
}

// ParseIDL decodes IDL JSON.
func ParseIDL(raw []byte) (*IDL, error) {
	var idl IDL
	if err := json.Unmarshal(raw, &idl); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIDLDecode, err)
	}
	if len(idl.Instructions) == 0 {
		return nil, fmt.Errorf("%w: no instructions", ErrIDLDecode)
	}
	return &idl, nil
}
