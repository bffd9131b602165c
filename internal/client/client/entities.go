package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/daybook/internal/client/models"
	"github.com/dmitrijs2005/daybook/internal/rpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// EntityClient calls the entity service of one kind.
type EntityClient struct {
	c    *GRPCClient
	kind string
}

func (e *EntityClient) Kind() string { return e.kind }

func (e *EntityClient) Create(ctx context.Context, payload json.RawMessage) (models.RemoteEntity, error) {
	req, err := rpc.PayloadToStruct(payload)
	if err != nil {
		return models.RemoteEntity{}, fmt.Errorf("%w: %v", ErrRemoteRejected, err)
	}
	resp := &structpb.Struct{}
	if err := e.c.invoke(ctx, rpc.FullMethod(e.kind, rpc.OpCreate), req, resp); err != nil {
		return models.RemoteEntity{}, err
	}
	return decodeEntity(resp)
}

func (e *EntityClient) Update(ctx context.Context, serverID int64, patch json.RawMessage) (models.RemoteEntity, error) {
	req, err := rpc.UpdateRequest(serverID, patch)
	if err != nil {
		return models.RemoteEntity{}, fmt.Errorf("%w: %v", ErrRemoteRejected, err)
	}
	resp := &structpb.Struct{}
	if err := e.c.invoke(ctx, rpc.FullMethod(e.kind, rpc.OpUpdate), req, resp); err != nil {
		return models.RemoteEntity{}, err
	}
	return decodeEntity(resp)
}

func (e *EntityClient) Delete(ctx context.Context, serverID int64) error {
	return e.c.invoke(ctx, rpc.FullMethod(e.kind, rpc.OpDelete), wrapperspb.Int64(serverID), &emptypb.Empty{})
}

func (e *EntityClient) List(ctx context.Context) ([]models.RemoteEntity, error) {
	resp := &structpb.ListValue{}
	if err := e.c.invoke(ctx, rpc.FullMethod(e.kind, rpc.OpList), &structpb.Struct{}, resp); err != nil {
		return nil, err
	}
	items, err := rpc.ListToEntities(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteTransient, err)
	}

	out := make([]models.RemoteEntity, 0, len(items))
	for _, it := range items {
		re, err := decodeEntity(it)
		if err != nil {
			return nil, err
		}
		out = append(out, re)
	}
	return out, nil
}

func decodeEntity(s *structpb.Struct) (models.RemoteEntity, error) {
	id, payload, err := rpc.StructToEntity(s)
	if err != nil {
		return models.RemoteEntity{}, fmt.Errorf("%w: %v", ErrRemoteTransient, err)
	}
	return models.RemoteEntity{ID: id, Payload: payload}, nil
}
