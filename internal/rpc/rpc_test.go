package rpc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestServiceName(t *testing.T) {
	assert.Equal(t, "daybook.v1.TasksService", ServiceName("tasks"))
	assert.Equal(t, "daybook.v1.JournalService", ServiceName("Journal"))
	assert.Equal(t, "/daybook.v1.TasksService/Create", FullMethod("tasks", OpCreate))
}

func TestEntityToStruct_AndBack(t *testing.T) {
	s, err := EntityToStruct(42, json.RawMessage(`{"title":"buy milk","tags":["a"]}`))
	require.NoError(t, err)
	assert.Equal(t, float64(42), s.Fields[FieldID].GetNumberValue())

	id, payload, err := StructToEntity(s)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.JSONEq(t, `{"title":"buy milk","tags":["a"]}`, string(payload))
}

func TestIDOf_Rejects(t *testing.T) {
	cases := map[string]*structpb.Struct{
		"missing":  {Fields: map[string]*structpb.Value{}},
		"string":   {Fields: map[string]*structpb.Value{FieldID: structpb.NewStringValue("1")}},
		"negative": {Fields: map[string]*structpb.Value{FieldID: structpb.NewNumberValue(-1)}},
		"fraction": {Fields: map[string]*structpb.Value{FieldID: structpb.NewNumberValue(1.5)}},
	}
	for name, s := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := IDOf(s)
			require.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestUpdateRequest_KeepsNulls(t *testing.T) {
	req, err := UpdateRequest(7, json.RawMessage(`{"title":"x","dueDate":null}`))
	require.NoError(t, err)

	id, fields, err := ParseUpdateRequest(req)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.Equal(t, "x", fields["title"])
	v, ok := fields["dueDate"]
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestParseUpdateRequest_MissingFields(t *testing.T) {
	req := &structpb.Struct{Fields: map[string]*structpb.Value{FieldID: structpb.NewNumberValue(1)}}
	_, _, err := ParseUpdateRequest(req)
	require.ErrorIs(t, err, ErrMalformed)
}

func TestListRoundTrip(t *testing.T) {
	a, _ := EntityToStruct(1, json.RawMessage(`{"title":"a"}`))
	b, _ := EntityToStruct(2, json.RawMessage(`{"title":"b"}`))

	items, err := ListToEntities(EntitiesToList([]*structpb.Struct{a, b}))
	require.NoError(t, err)
	require.Len(t, items, 2)

	bad := &structpb.ListValue{Values: []*structpb.Value{structpb.NewStringValue("x")}}
	_, err = ListToEntities(bad)
	require.ErrorIs(t, err, ErrMalformed)
}

func TestEntityServiceDesc(t *testing.T) {
	sd := EntityServiceDesc("journal")
	assert.Equal(t, "daybook.v1.JournalService", sd.ServiceName)
	names := make([]string, 0, len(sd.Methods))
	for _, m := range sd.Methods {
		names = append(names, m.MethodName)
	}
	assert.Equal(t, []string{OpCreate, OpUpdate, OpDelete, OpList}, names)
}
