// internal/infra/solana/program.go
package solana

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"

	linkdom "github.com/shnoopysol/gif-portal/internal/domain/link"
)

var (
	ErrInstructionMissing   = errors.New("solana program: instruction not found in idl")
	ErrUnknownAccount       = errors.New("solana program: cannot resolve instruction account")
	ErrMissingSigner        = errors.New("solana program: board account must sign but no keypair is configured")
	ErrAccountOwnerMismatch = errors.New("solana program: account is not owned by the program")
	ErrUnknownAccountLayout = errors.New("solana program: account discriminator not found in idl")
	ErrBoardShape           = errors.New("solana program: account has no link list")
)

// Instruction names of the link board program (matched snake_case-insensitively).
const (
	InstructionInitialize = "start_stuff_off"
	InstructionAddLink    = "add_gif"
)

// ProgramClient is the callable client produced by the resolver: IDL + program id + session.
// It is built per operation and must not outlive the session it was built from.
type ProgramClient struct {
	ProgramID common.PublicKey
	IDL       *IDL
	Session   Session
	Boards    BoardLocator
	Confirm   ConfirmOptions
}

// BoardAddress returns the board account for the session's wallet.
func (c *ProgramClient) BoardAddress() (common.PublicKey, error) {
	user, err := c.Session.UserKey()
	if err != nil {
		return common.PublicKey{}, err
	}
	addr, _, err := c.Boards.Locate(user)
	return addr, err
}

// InitializeBoard submits the one-time "start" instruction that creates an empty board.
func (c *ProgramClient) InitializeBoard(ctx context.Context) (string, error) {
	return c.invoke(ctx, InstructionInitialize, nil)
}

// AddLink submits the "add" instruction carrying link.
func (c *ProgramClient) AddLink(ctx context.Context, link string) (string, error) {
	return c.invoke(ctx, InstructionAddLink, []any{link})
}

// FetchBoard reads and decodes the board account.
func (c *ProgramClient) FetchBoard(ctx context.Context) (linkdom.Board, error) {
	board, err := c.BoardAddress()
	if err != nil {
		return linkdom.Board{}, err
	}

	acc, err := c.Session.RPC.GetAccount(ctx, board)
	if err != nil {
		return linkdom.Board{}, err
	}
	if acc.Owner != c.ProgramID {
		return linkdom.Board{}, fmt.Errorf("%w: %s owned by %s", ErrAccountOwnerMismatch, board.ToBase58(), acc.Owner.ToBase58())
	}
	return DecodeBoard(c.IDL, acc.Data)
}

func (c *ProgramClient) invoke(ctx context.Context, name string, args []any) (string, error) {
	if c.IDL == nil {
		return "", fmt.Errorf("%w: %s (idl not loaded)", ErrInstructionMissing, name)
	}
	ix, ok := c.IDL.Instruction(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrInstructionMissing, name)
	}

	user, err := c.Session.UserKey()
	if err != nil {
		return "", err
	}
	board, boardKey, err := c.Boards.Locate(user)
	if err != nil {
		return "", err
	}

	metas, signers, err := accountMetas(ix, user, board, boardKey)
	if err != nil {
		return "", err
	}
	data, err := instructionData(ix, args)
	if err != nil {
		return "", err
	}

	blockhash, err := c.Session.RPC.GetLatestBlockhash(ctx)
	if err != nil {
		return "", err
	}

	tx, err := types.NewTransaction(types.NewTransactionParam{
		Message: types.NewMessage(types.NewMessageParam{
			FeePayer:        user,
			RecentBlockhash: blockhash,
			Instructions: []types.Instruction{{
				ProgramID: c.ProgramID,
				Accounts:  metas,
				Data:      data,
			}},
		}),
		Signers: signers,
	})
	if err != nil {
		return "", fmt.Errorf("solana program: %s: NewTransaction: %w", name, err)
	}

	// ウォレット側の署名はメッセージ単位で受け取り、最後に差し込む
	msg, err := tx.Message.Serialize()
	if err != nil {
		return "", fmt.Errorf("solana program: %s: serialize message: %w", name, err)
	}
	sig, err := c.Session.Sign(ctx, msg)
	if err != nil {
		return "", err
	}
	if err := tx.AddSignature(sig); err != nil {
		return "", fmt.Errorf("solana program: %s: add wallet signature: %w", name, err)
	}

	txSig, err := c.Session.RPC.SendTransaction(ctx, tx)
	if err != nil {
		return "", err
	}
	if err := WaitForConfirmation(ctx, c.Session.RPC, txSig, c.Confirm); err != nil {
		return txSig, err
	}

	log.Printf("[solana.program] %s confirmed tx=%s board=%s user=%s",
		name, maskShort(txSig), maskShort(board.ToBase58()), maskShort(user.ToBase58()))
	return txSig, nil
}

type accountRole int

const (
	roleUnknown accountRole = iota
	roleBoard
	roleUser
	roleSystem
)

func roleOf(name string) accountRole {
	switch snakeCase(name) {
	case "base_account", "board", "board_account":
		return roleBoard
	case "user", "authority", "signer", "payer":
		return roleUser
	case "system_program":
		return roleSystem
	default:
		return roleUnknown
	}
}

// accountMetas maps the IDL account list onto concrete keys. Signer/writable flags come from the IDL.
func accountMetas(ix IDLInstruction, user, board common.PublicKey, boardKey *types.Account) ([]types.AccountMeta, []types.Account, error) {
	metas := make([]types.AccountMeta, 0, len(ix.Accounts))
	var signers []types.Account

	for _, item := range ix.Accounts {
		var key common.PublicKey
		switch {
		case item.Address != "":
			pk, err := parsePublicKey(item.Address)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: %s: %v", ErrUnknownAccount, item.Name, err)
			}
			key = pk
		default:
			switch roleOf(item.Name) {
			case roleBoard:
				key = board
				if item.MustSign() {
					if boardKey == nil {
						return nil, nil, fmt.Errorf("%w (instruction %s, account %s)", ErrMissingSigner, ix.Name, item.Name)
					}
					signers = append(signers, *boardKey)
				}
			case roleUser:
				key = user
			case roleSystem:
				key = common.SystemProgramID
			default:
				return nil, nil, fmt.Errorf("%w: %s", ErrUnknownAccount, item.Name)
			}
		}

		metas = append(metas, types.AccountMeta{
			PubKey:     key,
			IsSigner:   item.MustSign(),
			IsWritable: item.Mutable(),
		})
	}
	return metas, signers, nil
}

func instructionData(ix IDLInstruction, args []any) ([]byte, error) {
	if len(args) != len(ix.Args) {
		return nil, fmt.Errorf("%w: %s takes %d args, got %d", ErrArgumentMismatch, ix.Name, len(ix.Args), len(args))
	}
	disc, err := InstructionDiscriminator(ix)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Write(disc[:])
	for i, a := range ix.Args {
		b, err := encodeArg(a.Type, args[i])
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", ix.Name, a.Name, err)
		}
		buf.Write(b)
	}
	return buf.Bytes(), nil
}

// DecodeBoard decodes board account data using the IDL account whose discriminator matches.
// Accounts are allocated with spare space, so trailing bytes are ignored.
func DecodeBoard(idl *IDL, data []byte) (linkdom.Board, error) {
	if idl == nil || len(data) < 8 {
		return linkdom.Board{}, fmt.Errorf("%w: %d bytes", ErrUnknownAccountLayout, len(data))
	}

	for _, def := range idl.Accounts {
		disc, err := AccountDiscriminator(def)
		if err != nil {
			return linkdom.Board{}, err
		}
		if !bytes.Equal(disc[:], data[:8]) {
			continue
		}

		layout, ok := idl.AccountType(def)
		if !ok || layout.Kind != "struct" {
			return linkdom.Board{}, fmt.Errorf("%w: %s has no struct layout", ErrUnsupportedType, def.Name)
		}
		values, err := idl.decodeStruct(layout.Fields, &borshReader{buf: data[8:]})
		if err != nil {
			return linkdom.Board{}, fmt.Errorf("solana program: decode %s: %w", def.Name, err)
		}
		return idl.boardFromStruct(layout.Fields, values)
	}
	return linkdom.Board{}, ErrUnknownAccountLayout
}

// boardFromStruct picks the first unsigned counter as TotalLinks and the first vec as the entry list.
func (idl *IDL) boardFromStruct(fields []IDLField, values map[string]any) (linkdom.Board, error) {
	var (
		board    linkdom.Board
		counted  bool
		listed   bool
		itemType IDLType
		items    []any
	)

	for _, f := range fields {
		switch {
		case !counted && isUnsigned(f.Type):
			if n, ok := values[f.Name].(uint64); ok {
				board.TotalLinks = n
				counted = true
			}
		case !listed && f.Type.Vec != nil:
			itemType = *f.Type.Vec
			items, _ = values[f.Name].([]any)
			listed = true
		}
	}
	if !listed {
		return linkdom.Board{}, ErrBoardShape
	}

	board.Entries = make([]linkdom.Entry, 0, len(items))
	for _, it := range items {
		board.Entries = append(board.Entries, idl.entryFromItem(itemType, it))
	}
	if !counted {
		board.TotalLinks = uint64(len(board.Entries))
	}
	return board, nil
}

func (idl *IDL) entryFromItem(t IDLType, v any) linkdom.Entry {
	if s, ok := v.(string); ok {
		return linkdom.Entry{Link: s}
	}

	m, _ := v.(map[string]any)
	var fields []IDLField
	if t.Defined != "" {
		if def, ok := idl.TypeDef(t.Defined); ok {
			fields = def.Fields
		}
	}

	e := linkdom.Entry{}
	linkField, submitterField := "", ""
	for _, f := range fields {
		switch snakeCase(f.Name) {
		case "gif_link", "link", "url":
			if linkField == "" {
				linkField = f.Name
			}
		}
		if submitterField == "" && f.Type.isPublicKey() {
			submitterField = f.Name
		}
	}
	if linkField == "" {
		for _, f := range fields {
			if f.Type.Primitive == "string" {
				linkField = f.Name
				break
			}
		}
	}

	e.Link, _ = m[linkField].(string)
	e.Submitter, _ = m[submitterField].(string)
	for k, val := range m {
		if k == linkField || k == submitterField {
			continue
		}
		if e.Fields == nil {
			e.Fields = make(map[string]any)
		}
		e.Fields[k] = val
	}
	return e
}

func isUnsigned(t IDLType) bool {
	switch t.Primitive {
	case "u8", "u16", "u32", "u64":
		return true
	}
	return false
}
