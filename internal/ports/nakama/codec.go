package nakama

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

var errMissingIndex = errors.New("select payload must carry a numeric index")

// encodePayload marshals fields as a binary google.protobuf.Struct.
func encodePayload(fields map[string]any) ([]byte, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("build payload: %w", err)
	}
	return proto.Marshal(s)
}

// decodePayload parses a binary google.protobuf.Struct. An empty payload is an empty struct.
func decodePayload(data []byte) (*structpb.Struct, error) {
	s := &structpb.Struct{}
	if len(data) == 0 {
		return s, nil
	}
	if err := proto.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return s, nil
}

// decodeSelectIndex reads the index of a SelectCard request.
func decodeSelectIndex(data []byte) (int, error) {
	s, err := decodePayload(data)
	if err != nil {
		return 0, err
	}
	v, ok := s.GetFields()["index"]
	if !ok {
		return 0, errMissingIndex
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || n.NumberValue != math.Trunc(n.NumberValue) || n.NumberValue < 0 || n.NumberValue > math.MaxInt32 {
		return 0, errMissingIndex
	}
	return int(n.NumberValue), nil
}

// encodeLabel renders the match label as JSON so Nakama can index it for label queries.
func encodeLabel(fields map[string]any) (string, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return "", fmt.Errorf("build label: %w", err)
	}
	b, err := (&protojson.MarshalOptions{EmitUnpopulated: true}).Marshal(s)
	if err != nil {
		return "", fmt.Errorf("marshal label: %w", err)
	}
	return string(b), nil
}
