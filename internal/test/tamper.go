package test

import (
	"encoding/base64"
	"errors"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// wireEnvelope mirrors the layout of a protocol payload.
type wireEnvelope struct {
	SSID    []byte
	Content cbor.RawMessage
}

var decodeGeneric, _ = cbor.DecOptions{
	DefaultMapType: reflect.TypeOf(map[string]interface{}(nil)),
}.DecMode()

// FlipBit returns payload with the lowest bit of the byte string found at path flipped.
// path lists the field names leading from the round content to the value, following
// the cbor encoding of the content, in which embedded structs are flattened.
func FlipBit(payload string, path ...string) (string, error) {
	if len(path) == 0 {
		return "", errors.New("test: empty path")
	}
	data, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return "", err
	}
	var env wireEnvelope
	if err = cbor.Unmarshal(data, &env); err != nil {
		return "", err
	}
	var content map[string]interface{}
	if err = decodeGeneric.Unmarshal(env.Content, &content); err != nil {
		return "", err
	}

	current := content
	for i, key := range path {
		value, ok := current[key]
		if !ok {
			return "", fmt.Errorf("test: field %q not found", key)
		}
		if i < len(path)-1 {
			next, ok := value.(map[string]interface{})
			if !ok {
				return "", fmt.Errorf("test: field %q is not a struct", key)
			}
			current = next
			continue
		}
		bytes, ok := value.([]byte)
		if !ok || len(bytes) == 0 {
			return "", fmt.Errorf("test: field %q is not a byte string", key)
		}
		flipped := append([]byte(nil), bytes...)
		flipped[len(flipped)-1] ^= 1
		current[key] = flipped
	}

	if env.Content, err = cbor.Marshal(content); err != nil {
		return "", err
	}
	if data, err = cbor.Marshal(&env); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}
