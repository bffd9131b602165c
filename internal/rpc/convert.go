package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	FieldID     = "id"
	FieldFields = "fields"
)

var ErrMalformed = errors.New("malformed message")

// PayloadToStruct converts a JSON object into a Struct.
func PayloadToStruct(raw json.RawMessage) (*structpb.Struct, error) {
	s := &structpb.Struct{}
	if len(raw) == 0 {
		return s, nil
	}
	if err := protojson.Unmarshal(raw, s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return s, nil
}

// StructToPayload converts a Struct into a JSON object, dropping the id field.
func StructToPayload(s *structpb.Struct) (json.RawMessage, error) {
	fields := s.AsMap()
	delete(fields, FieldID)
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return raw, nil
}

// EntityToStruct flattens id and payload into one Struct.
func EntityToStruct(id int64, payload json.RawMessage) (*structpb.Struct, error) {
	s, err := PayloadToStruct(payload)
	if err != nil {
		return nil, err
	}
	if s.Fields == nil {
		s.Fields = map[string]*structpb.Value{}
	}
	s.Fields[FieldID] = structpb.NewNumberValue(float64(id))
	return s, nil
}

// StructToEntity splits an entity Struct into its id and payload.
func StructToEntity(s *structpb.Struct) (int64, json.RawMessage, error) {
	id, err := IDOf(s)
	if err != nil {
		return 0, nil, err
	}
	payload, err := StructToPayload(s)
	if err != nil {
		return 0, nil, err
	}
	return id, payload, nil
}

// IDOf reads the positive integer id field of s.
func IDOf(s *structpb.Struct) (int64, error) {
	v, ok := s.GetFields()[FieldID]
	if !ok {
		return 0, fmt.Errorf("%w: missing id", ErrMalformed)
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || n.NumberValue <= 0 || n.NumberValue != math.Trunc(n.NumberValue) {
		return 0, fmt.Errorf("%w: id must be a positive integer", ErrMalformed)
	}
	return int64(n.NumberValue), nil
}

// UpdateRequest builds the Update message for id with a JSON patch.
func UpdateRequest(id int64, patch json.RawMessage) (*structpb.Struct, error) {
	fields, err := PayloadToStruct(patch)
	if err != nil {
		return nil, err
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldID:     structpb.NewNumberValue(float64(id)),
		FieldFields: structpb.NewStructValue(fields),
	}}, nil
}

// ParseUpdateRequest is the inverse of UpdateRequest. A JSON null in the patch
// is kept so the receiver can clear the field.
func ParseUpdateRequest(s *structpb.Struct) (int64, map[string]any, error) {
	id, err := IDOf(s)
	if err != nil {
		return 0, nil, err
	}
	fv, ok := s.GetFields()[FieldFields]
	if !ok || fv.GetStructValue() == nil {
		return 0, nil, fmt.Errorf("%w: missing fields", ErrMalformed)
	}
	return id, fv.GetStructValue().AsMap(), nil
}

// EntitiesToList packs entity Structs into a ListValue.
func EntitiesToList(items []*structpb.Struct) *structpb.ListValue {
	l := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(items))}
	for _, it := range items {
		l.Values = append(l.Values, structpb.NewStructValue(it))
	}
	return l
}

// ListToEntities unpacks a ListValue of entity Structs.
func ListToEntities(l *structpb.ListValue) ([]*structpb.Struct, error) {
	out := make([]*structpb.Struct, 0, len(l.GetValues()))
	for i, v := range l.GetValues() {
		s := v.GetStructValue()
		if s == nil {
			return nil, fmt.Errorf("%w: list item %d is not an object", ErrMalformed, i)
		}
		out = append(out, s)
	}
	return out, nil
}
