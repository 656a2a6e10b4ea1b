package grpc

import (
	"fmt"
	"net"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/SARVESHVARADKAR123/chatbox/internal/application"
	"github.com/SARVESHVARADKAR123/chatbox/internal/auth"
	"github.com/SARVESHVARADKAR123/chatbox/internal/observability"
)

type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	app        *application.Service
}

var _ ChatApiServer = (*Server)(nil)

// New builds the server. With a nil verifier callers are identified by the
// x-user-id header set by a trusted gateway.
func New(app *application.Service, verifier *auth.Verifier) *Server {
	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.UnaryInterceptor(auth.NewInterceptor(verifier)),
	)

	s := &Server{
		grpcServer: grpcServer,
		health:     health.NewServer(),
		app:        app,
	}

	RegisterChatApiServer(grpcServer, s)
	healthpb.RegisterHealthServer(grpcServer, s.health)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	return s
}

// Start listens on addr and serves until Stop. A bare port gets a leading ":".
func (s *Server) Start(addr string) error {
	if addr != "" && !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	observability.Log.Info("gRPC listening", zap.String("addr", lis.Addr().String()))
	return s.Serve(lis)
}

func (s *Server) Serve(lis net.Listener) error {
	return s.grpcServer.Serve(lis)
}

func (s *Server) Stop() {
	observability.Log.Info("shutting down gRPC")
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}
