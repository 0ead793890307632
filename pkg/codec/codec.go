// Package codec defines how cached values are turned into bytes and back.
// The cache itself never interprets payloads; it only moves opaque byte slices
// between the caller and disk. A Codec is the injected bridge between the two.

package codec

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/proto"
)

// Codec converts values of type T to a byte payload and back.
// Implementations must be safe for concurrent use; Encode and Decode are
// called from multiple goroutines at once.
type Codec[T any] interface {
	Encode(value T) ([]byte, error)
	Decode(data []byte) (T, error)
}

// JSON encodes values with encoding/json. It works for any value the json
// package can marshal and is the go-to codec for plain structs.
type JSON[T any] struct{}

var _ Codec[int] = JSON[int]{}

func (JSON[T]) Encode(value T) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode value as json: %w", err)
	}
	return data, nil
}

func (JSON[T]) Decode(data []byte) (T, error) {
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return value, fmt.Errorf("failed to decode json payload: %w", err)
	}
	return value, nil
}

// Proto encodes protobuf messages with the binary wire format. M must be a
// pointer-to-generated-message type, e.g. Proto[*timestamppb.Timestamp].
type Proto[M proto.Message] struct{}

func (Proto[M]) Encode(value M) ([]byte, error) {
	data, err := proto.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode proto message: %w", err)
	}
	return data, nil
}

func (Proto[M]) Decode(data []byte) (M, error) {
	// A nil pointer of a generated message type still carries its descriptor,
	// so a fresh instance can be allocated through reflection.
	var zero M
	message := zero.ProtoReflect().New().Interface().(M)
	if err := proto.Unmarshal(data, message); err != nil {
		return zero, fmt.Errorf("failed to decode proto payload: %w", err)
	}
	return message, nil
}

// Bytes passes payloads through untouched. Decode copies, so callers may
// retain the returned slice without aliasing the cache's read buffer.
type Bytes struct{}

var _ Codec[[]byte] = Bytes{}

func (Bytes) Encode(value []byte) ([]byte, error) {
	return value, nil
}

func (Bytes) Decode(data []byte) ([]byte, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// String stores values as their raw UTF-8 bytes.
type String struct{}

var _ Codec[string] = String{}

func (String) Encode(value string) ([]byte, error) {
	return []byte(value), nil
}

func (String) Decode(data []byte) (string, error) {
	return string(data), nil
}
