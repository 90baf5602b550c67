// internal/infra/solana/idl_type.go
package solana

import (
	"encoding/json"
	"fmt"
)

// IDLType is one IDL type expression: a primitive name, or one of vec/option/array/defined.
type IDLType struct {
	Primitive string
	Vec       *IDLType
	Option    *IDLType
	Array     *IDLType
	ArrayLen  int
	Defined   string
}

type idlTypeObject struct {
	Vec     *IDLType          `json:"vec,omitempty"`
	Option  *IDLType          `json:"option,omitempty"`
	COption *IDLType          `json:"coption,omitempty"`
	Array   []json.RawMessage `json:"array,omitempty"`
	Defined json.RawMessage   `json:"defined,omitempty"`
}

func (t *IDLType) UnmarshalJSON(b []byte) error {
	var prim string
	if err := json.Unmarshal(b, &prim); err == nil {
		*t = IDLType{Primitive: prim}
		return nil
	}

	var obj idlTypeObject
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("idl type: %w", err)
	}

	switch {
	case obj.Vec != nil:
		*t = IDLType{Vec: obj.Vec}
	case obj.Option != nil:
		*t = IDLType{Option: obj.Option}
	case obj.COption != nil:
		*t = IDLType{Option: obj.COption}
	case len(obj.Array) == 2:
		var elem IDLType
		if err := json.Unmarshal(obj.Array[0], &elem); err != nil {
			return fmt.Errorf("idl type: array element: %w", err)
		}
		var n int
		if err := json.Unmarshal(obj.Array[1], &n); err != nil {
			return fmt.Errorf("idl type: array length: %w", err)
		}
		*t = IDLType{Array: &elem, ArrayLen: n}
	case len(obj.Defined) > 0:
		name, err := definedName(obj.Defined)
		if err != nil {
			return err
		}
		*t = IDLType{Defined: name}
	default:
		return fmt.Errorf("idl type: unsupported expression %s", string(b))
	}
	return nil
}

// "defined": "Name" (legacy) or "defined": {"name": "Name"} (0.30+)
func definedName(raw json.RawMessage) (string, error) {
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return name, nil
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil || obj.Name == "" {
		return "", fmt.Errorf("idl type: bad defined reference %s", string(raw))
	}
	return obj.Name, nil
}

func (t IDLType) MarshalJSON() ([]byte, error) {
	switch {
	case t.Vec != nil:
		return json.Marshal(map[string]any{"vec": t.Vec})
	case t.Option != nil:
		return json.Marshal(map[string]any{"option": t.Option})
	case t.Array != nil:
		return json.Marshal(map[string]any{"array": []any{t.Array, t.ArrayLen}})
	case t.Defined != "":
		return json.Marshal(map[string]any{"defined": t.Defined})
	default:
		return json.Marshal(t.Primitive)
	}
}

func (t IDLType) String() string {
	switch {
	case t.Vec != nil:
		return "vec<" + t.Vec.String() + ">"
	case t.Option != nil:
		return "option<" + t.Option.String() + ">"
	case t.Array != nil:
		return fmt.Sprintf("[%s; %d]", t.Array.String(), t.ArrayLen)
	case t.Defined != "":
		return t.Defined
	default:
		return t.Primitive
	}
}

func (t IDLType) isPublicKey() bool {
	return t.Primitive == "publicKey" || t.Primitive == "pubkey"
}
