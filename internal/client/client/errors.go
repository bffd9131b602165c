package client

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrUnavailable     = errors.New("server unavailable")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrRemoteNotFound  = errors.New("remote entity not found")
	ErrRemoteRejected  = errors.New("remote rejected the change")
	ErrRemoteTransient = errors.New("transient remote failure")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", ErrRemoteTransient, err)
	}

	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.NotFound:
		return fmt.Errorf("%w: %s", ErrRemoteNotFound, st.Message())
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.Unavailable:
		return fmt.Errorf("%w: %w: %s", ErrRemoteTransient, ErrUnavailable, st.Message())
	case codes.InvalidArgument, codes.FailedPrecondition, codes.AlreadyExists,
		codes.OutOfRange, codes.Unimplemented:
		return fmt.Errorf("%w: %s", ErrRemoteRejected, st.Message())
	default:
		// DeadlineExceeded, ResourceExhausted, Aborted, Internal, Unknown
		return fmt.Errorf("%w: %s: %s", ErrRemoteTransient, st.Code(), st.Message())
	}
}
