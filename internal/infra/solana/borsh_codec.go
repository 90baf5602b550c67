// internal/infra/solana/borsh_codec.go
package solana

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/near/borsh-go"
)

var (
	ErrBorshShort       = errors.New("solana borsh: unexpected end of data")
	ErrUnsupportedType  = errors.New("solana borsh: unsupported idl type")
	ErrArgumentMismatch = errors.New("solana borsh: argument does not match idl type")
)

// 1 アカウントあたりの vec 要素数の上限（壊れたデータ対策）
const maxVecLen = 1 << 16

type borshReader struct {
	buf []byte
	off int
}

func (r *borshReader) take(n int) ([]byte, error) {
	if n < 0 || r.off+n > len(r.buf) {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrBorshShort, n, r.off, len(r.buf)-r.off)
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *borshReader) u32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// decodeValue decodes one IDL-typed value.
// unsigned ints -> uint64, signed -> int64, 128-bit -> decimal string, publicKey -> base58,
// defined structs -> map[string]any, vec/array -> []any, option -> nil or the value.
func (idl *IDL) decodeValue(t IDLType, r *borshReader) (any, error) {
	switch {
	case t.Vec != nil:
		n, err := r.u32()
		if err != nil {
			return nil, err
		}
		if n > maxVecLen {
			return nil, fmt.Errorf("solana borsh: vec length %d too large", n)
		}
		out := make([]any, 0, n)
		for i := uint32(0); i < n; i++ {
			v, err := idl.decodeValue(*t.Vec, r)
			if err != nil {
				return nil, fmt.Errorf("vec[%d]: %w", i, err)
			}
			out = append(out, v)
		}
		return out, nil
	case t.Option != nil:
		tag, err := r.take(1)
		if err != nil {
			return nil, err
		}
		if tag[0] == 0 {
			return nil, nil
		}
		return idl.decodeValue(*t.Option, r)
	case t.Array != nil:
		if t.Array.Primitive == "u8" {
			b, err := r.take(t.ArrayLen)
			if err != nil {
				return nil, err
			}
			return append([]byte(nil), b...), nil
		}
		out := make([]any, 0, t.ArrayLen)
		for i := 0; i < t.ArrayLen; i++ {
			v, err := idl.decodeValue(*t.Array, r)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			out = append(out, v)
		}
		return out, nil
	case t.Defined != "":
		def, ok := idl.TypeDef(t.Defined)
		if !ok {
			return nil, fmt.Errorf("%w: undefined type %q", ErrUnsupportedType, t.Defined)
		}
		return idl.decodeDefined(def, r)
	}
	return decodePrimitive(t, r)
}

func (idl *IDL) decodeDefined(def IDLTypeDefTy, r *borshReader) (any, error) {
	switch def.Kind {
	case "struct":
		return idl.decodeStruct(def.Fields, r)
	case "enum":
		tag, err := r.take(1)
		if err != nil {
			return nil, err
		}
		if int(tag[0]) >= len(def.Variants) {
			return nil, fmt.Errorf("solana borsh: enum variant %d out of range", tag[0])
		}
		v := def.Variants[tag[0]]
		if len(v.Fields) == 0 {
			return v.Name, nil
		}
		fields, err := idl.decodeStruct(v.Fields, r)
		if err != nil {
			return nil, err
		}
		return map[string]any{v.Name: fields}, nil
	default:
		return nil, fmt.Errorf("%w: kind %q", ErrUnsupportedType, def.Kind)
	}
}

func (idl *IDL) decodeStruct(fields []IDLField, r *borshReader) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		v, err := idl.decodeValue(f.Type, r)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		out[f.Name] = v
	}
	return out, nil
}

func decodePrimitive(t IDLType, r *borshReader) (any, error) {
	if t.isPublicKey() {
		b, err := r.take(32)
		if err != nil {
			return nil, err
		}
		return common.PublicKeyFromBytes(b).ToBase58(), nil
	}

	switch t.Primitive {
	case "bool":
		b, err := r.take(1)
		if err != nil {
			return nil, err
		}
		return b[0] != 0, nil
	case "u8":
		b, err := r.take(1)
		if err != nil {
			return nil, err
		}
		return uint64(b[0]), nil
	case "i8":
		b, err := r.take(1)
		if err != nil {
			return nil, err
		}
		return int64(int8(b[0])), nil
	case "u16":
		b, err := r.take(2)
		if err != nil {
			return nil, err
		}
		return uint64(binary.LittleEndian.Uint16(b)), nil
	case "i16":
		b, err := r.take(2)
		if err != nil {
			return nil, err
		}
		return int64(int16(binary.LittleEndian.Uint16(b))), nil
	case "u32":
		v, err := r.u32()
		return uint64(v), err
	case "i32":
		v, err := r.u32()
		return int64(int32(v)), err
	case "u64":
		b, err := r.take(8)
		if err != nil {
			return nil, err
		}
		return binary.LittleEndian.Uint64(b), nil
	case "i64":
		b, err := r.take(8)
		if err != nil {
			return nil, err
		}
		return int64(binary.LittleEndian.Uint64(b)), nil
	case "u128", "i128":
		b, err := r.take(16)
		if err != nil {
			return nil, err
		}
		return decode128(b, t.Primitive == "i128"), nil
	case "f32":
		v, err := r.u32()
		return float64(math.Float32frombits(v)), err
	case "f64":
		b, err := r.take(8)
		if err != nil {
			return nil, err
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
	case "string", "bytes":
		n, err := r.u32()
		if err != nil {
			return nil, err
		}
		b, err := r.take(int(n))
		if err != nil {
			return nil, err
		}
		if t.Primitive == "string" {
			return string(b), nil
		}
		return append([]byte(nil), b...), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, t.String())
}

func decode128(le []byte, signed bool) string {
	be := make([]byte, len(le))
	for i := range le {
		be[len(le)-1-i] = le[i]
	}
	v := new(big.Int).SetBytes(be)
	if signed && le[len(le)-1]&0x80 != 0 {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), 128))
	}
	return v.String()
}

// encodeArg serializes one instruction argument with borsh.
func encodeArg(t IDLType, v any) ([]byte, error) {
	if t.isPublicKey() {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s wants a base58 string, got %T", ErrArgumentMismatch, t.String(), v)
		}
		pk, err := parsePublicKey(s)
		if err != nil {
			return nil, err
		}
		return borsh.Serialize([32]byte(pk))
	}

	var want any
	switch t.Primitive {
	case "string":
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: string, got %T", ErrArgumentMismatch, v)
		}
		want = s
	case "bool":
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: bool, got %T", ErrArgumentMismatch, v)
		}
		want = b
	case "u8", "u16", "u32", "u64":
		n, ok := v.(uint64)
		if !ok {
			return nil, fmt.Errorf("%w: %s wants uint64, got %T", ErrArgumentMismatch, t.Primitive, v)
		}
		var limit uint64 = math.MaxUint64
		switch t.Primitive {
		case "u8":
			limit, want = math.MaxUint8, uint8(n)
		case "u16":
			limit, want = math.MaxUint16, uint16(n)
		case "u32":
			limit, want = math.MaxUint32, uint32(n)
		default:
			want = n
		}
		if n > limit {
			return nil, fmt.Errorf("%w: %d overflows %s", ErrArgumentMismatch, n, t.Primitive)
		}
	case "i64":
		n, ok := v.(int64)
		if !ok {
			return nil, fmt.Errorf("%w: i64 wants int64, got %T", ErrArgumentMismatch, v)
		}
		want = n
	default:
		return nil, fmt.Errorf("%w: argument type %s", ErrUnsupportedType, t.String())
	}

	b, err := borsh.Serialize(want)
	if err != nil {
		return nil, fmt.Errorf("solana borsh: serialize %s: %w", t.String(), err)
	}
	return b, nil
}
