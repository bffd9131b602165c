// Package grpc serves the daybook entity services and the health service of
// the development server.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/daybook/internal/logging"
	"github.com/dmitrijs2005/daybook/internal/rpc"
	"github.com/dmitrijs2005/daybook/internal/server/repositories/entities"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
)

type GRPCServer struct {
	address   string
	repo      entities.Repository
	kinds     []string
	logger    logging.Logger
	jwtSecret []byte
}

// NewGRPCServer builds a server for kinds. An empty secretKey turns the
// access token check off.
func NewGRPCServer(a string, l logging.Logger, repo entities.Repository, secretKey string, kinds ...string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		repo:      repo,
		kinds:     kinds,
		jwtSecret: []byte(secretKey),
	}
}

func (s *GRPCServer) Ping(context.Context, *emptypb.Empty) (*emptypb.Empty, error) {
	return &emptypb.Empty{}, nil
}

// NewServer creates a grpc.Server with the interceptor chain and every
// service registered.
func (s *GRPCServer) NewServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor))

	srv.RegisterService(&rpc.HealthServiceDesc, s)
	for _, kind := range s.kinds {
		srv.RegisterService(rpc.EntityServiceDesc(kind), newEntityHandler(kind, s.repo, s.logger))
	}
	return srv
}

// Serve accepts connections on lis until ctx is done, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.NewServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String(), "kinds", s.kinds)

	return srv.Serve(lis)
}

func (s *GRPCServer) Run(ctx context.Context) error {
	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}
