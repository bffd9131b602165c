package grpc

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/dmitrijs2005/daybook/internal/logging"
	"github.com/dmitrijs2005/daybook/internal/rpc"
	"github.com/dmitrijs2005/daybook/internal/server/repositories/entities"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// entityHandler serves rpc.EntityServer for one kind.
type entityHandler struct {
	kind     string
	repo     entities.Repository
	validate validator
	logger   logging.Logger
}

var _ rpc.EntityServer = (*entityHandler)(nil)

func newEntityHandler(kind string, repo entities.Repository, l logging.Logger) *entityHandler {
	v, ok := validators[kind]
	if !ok {
		v = func(map[string]any, bool) error { return nil }
	}
	return &entityHandler{kind: kind, repo: repo, validate: v, logger: l.With("kind", kind)}
}

func (h *entityHandler) toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, common.ErrInvalidPayload), errors.Is(err, rpc.ErrMalformed):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		h.logger.Error(ctx, "storage error", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}

func (h *entityHandler) entity(ctx context.Context, e entities.Entity) (*structpb.Struct, error) {
	out, err := rpc.EntityToStruct(e.ID, e.Payload)
	if err != nil {
		return nil, h.toStatus(ctx, err)
	}
	return out, nil
}

func (h *entityHandler) Create(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	fields := in.AsMap()
	delete(fields, rpc.FieldID)
	if err := h.validate(fields, false); err != nil {
		return nil, h.toStatus(ctx, err)
	}
	payload, err := json.Marshal(fields)
	if err != nil {
		return nil, h.toStatus(ctx, err)
	}

	e, err := h.repo.Create(ctx, ownerFromContext(ctx), h.kind, payload)
	if err != nil {
		return nil, h.toStatus(ctx, err)
	}
	h.logger.Info(ctx, "entity created", "id", e.ID)
	return h.entity(ctx, e)
}

func (h *entityHandler) Update(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, patch, err := rpc.ParseUpdateRequest(in)
	if err != nil {
		return nil, h.toStatus(ctx, err)
	}
	delete(patch, rpc.FieldID)
	if err := h.validate(patch, true); err != nil {
		return nil, h.toStatus(ctx, err)
	}

	e, err := h.repo.Update(ctx, ownerFromContext(ctx), h.kind, id, patch)
	if err != nil {
		return nil, h.toStatus(ctx, err)
	}
	h.logger.Info(ctx, "entity updated", "id", id)
	return h.entity(ctx, e)
}

func (h *entityHandler) Delete(ctx context.Context, in *wrapperspb.Int64Value) (*emptypb.Empty, error) {
	if in.GetValue() <= 0 {
		return nil, status.Error(codes.InvalidArgument, "id must be positive")
	}
	if err := h.repo.Delete(ctx, ownerFromContext(ctx), h.kind, in.GetValue()); err != nil {
		return nil, h.toStatus(ctx, err)
	}
	h.logger.Info(ctx, "entity deleted", "id", in.GetValue())
	return &emptypb.Empty{}, nil
}

func (h *entityHandler) List(ctx context.Context, _ *structpb.Struct) (*structpb.ListValue, error) {
	list, err := h.repo.List(ctx, ownerFromContext(ctx), h.kind)
	if err != nil {
		return nil, h.toStatus(ctx, err)
	}
	items := make([]*structpb.Struct, 0, len(list))
	for _, e := range list {
		s, err := h.entity(ctx, e)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return rpc.EntitiesToList(items), nil
}
