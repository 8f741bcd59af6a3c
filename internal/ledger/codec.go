package ledger

import (
	"fmt"
	"reflect"

	"github.com/near/borsh-go"
)

// encode serializes a record body with borsh, the fixed-layout encoding
// on-chain accounts use. Pointers are dereferenced first: borsh writes a
// pointer as an option, which decode does not expect.
func encode(v any) ([]byte, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, fmt.Errorf("borsh encode %T: nil record", v)
		}
		v = rv.Elem().Interface()
	}
	data, err := borsh.Serialize(v)
	if err != nil {
		return nil, fmt.Errorf("borsh encode %T: %w", v, err)
	}
	return data, nil
}

func decode[T any](data []byte) (*T, error) {
	result := new(T)
	if err := borsh.Deserialize(result, data); err != nil {
		return nil, fmt.Errorf("borsh decode %T: %w", result, err)
	}
	return result, nil
}
