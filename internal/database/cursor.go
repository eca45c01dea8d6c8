package database

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var ErrInvalidCursor = errors.New("invalid cursor")

type cursorValue struct {
	S *string `json:"s,omitempty"`
	N *string `json:"n,omitempty"`
}

// EncodeCursor turns a LastEvaluatedKey into an opaque URL-safe string.
// An empty key encodes to the empty string.
func EncodeCursor(key map[string]types.AttributeValue) (string, error) {
	if len(key) == 0 {
		return "", nil
	}

	raw := make(map[string]cursorValue, len(key))
	for name, value := range key {
		switch v := value.(type) {
		case *types.AttributeValueMemberS:
			s := v.Value
			raw[name] = cursorValue{S: &s}
		case *types.AttributeValueMemberN:
			n := v.Value
			raw[name] = cursorValue{N: &n}
		default:
			return "", fmt.Errorf("encode cursor: unsupported key attribute %q", name)
		}
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return "", fmt.Errorf("encode cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

func DecodeCursor(cursor string) (map[string]types.AttributeValue, error) {
	data, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}

	var raw map[string]cursorValue
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if len(raw) == 0 {
		return nil, ErrInvalidCursor
	}

	key := make(map[string]types.AttributeValue, len(raw))
	for name, value := range raw {
		switch {
		case value.S != nil:
			key[name] = &types.AttributeValueMemberS{Value: *value.S}
		case value.N != nil:
			key[name] = &types.AttributeValueMemberN{Value: *value.N}
		default:
			return nil, fmt.Errorf("%w: empty attribute %q", ErrInvalidCursor, name)
		}
	}
	return key, nil
}
