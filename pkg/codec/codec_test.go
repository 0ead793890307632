package codec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/timestamppb"
)

func TestJSONCodec_RoundTrip(t *testing.T) {
	type user struct {
		Name string   `json:"name"`
		Age  int      `json:"age"`
		Tags []string `json:"tags"`
	}

	jsonCodec := JSON[user]{}
	original := user{Name: "bahar", Age: 34, Tags: []string{"admin", "ops"}}

	data, err := jsonCodec.Encode(original)
	require.NoError(t, err)
	decoded, err := jsonCodec.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestJSONCodec_InvalidPayload(t *testing.T) {
	jsonCodec := JSON[map[string]int]{}
	_, err := jsonCodec.Decode([]byte("{not json"))
	assert.Error(t, err, "Malformed payloads should surface a decode error")
}

func TestProtoCodec_RoundTrip(t *testing.T) {
	protoCodec := Proto[*timestamppb.Timestamp]{}
	original := timestamppb.New(time.Unix(1700000000, 42))

	data, err := protoCodec.Encode(original)
	require.NoError(t, err)
	decoded, err := protoCodec.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, original.GetSeconds(), decoded.GetSeconds())
	assert.Equal(t, original.GetNanos(), decoded.GetNanos())
}

func TestBytesCodec_DecodeCopies(t *testing.T) {
	bytesCodec := Bytes{}
	source := []byte("payload")

	decoded, err := bytesCodec.Decode(source)
	require.NoError(t, err)
	source[0] = 'X' // Mutating the source must not affect the decoded copy.
	assert.Equal(t, []byte("payload"), decoded)
}

func TestStringCodec_RoundTrip(t *testing.T) {
	stringCodec := String{}
	data, err := stringCodec.Encode("hello")
	require.NoError(t, err)
	decoded, err := stringCodec.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "hello", decoded)
}
