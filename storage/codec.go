package storage

import (
	"encoding/json"
	"strconv"
)

// Codec converts values of type T to and from the string form kept in a
// DurableStore.
type Codec[T any] interface {
	Encode(v T) (string, error)
	Decode(s string) (T, error)
}

// StringCodec stores strings as-is.
type StringCodec struct{}

func (StringCodec) Encode(v string) (string, error) { return v, nil }
func (StringCodec) Decode(s string) (string, error) { return s, nil }

// IntCodec stores integers in base 10.
type IntCodec struct{}

func (IntCodec) Encode(v int) (string, error) { return strconv.Itoa(v), nil }
func (IntCodec) Decode(s string) (int, error) { return strconv.Atoi(s) }

// BoolCodec stores booleans as "true" / "false".
type BoolCodec struct{}

func (BoolCodec) Encode(v bool) (string, error) { return strconv.FormatBool(v), nil }
func (BoolCodec) Decode(s string) (bool, error) { return strconv.ParseBool(s) }

// JSONCodec stores any JSON-serializable value.
type JSONCodec[T any] struct{}

func (JSONCodec[T]) Encode(v T) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (JSONCodec[T]) Decode(s string) (T, error) {
	var v T
	err := json.Unmarshal([]byte(s), &v)
	return v, err
}
