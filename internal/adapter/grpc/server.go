package grpc

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

// ServiceName is the health-check service name reported alongside the
// server-wide ("") status.
const ServiceName = "firesight.detection"

// Server serves the standard gRPC health protocol, mirroring pipeline
// readiness, for orchestrators that health-check over gRPC.
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	listener   net.Listener
	ready      sharedobs.ReadinessChecker
	logger     *slog.Logger
}

// NewServer binds addr and registers the health and reflection services.
// Both statuses start NOT_SERVING until the first readiness poll succeeds.
func NewServer(addr string, ready sharedobs.ReadinessChecker, logger *slog.Logger) (*Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	grpc_prometheus.EnableHandlingTimeHistogram()
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(grpc_prometheus.UnaryServerInterceptor),
		grpc.ChainStreamInterceptor(grpc_prometheus.StreamServerInterceptor),
	)

	healthSrv := health.NewServer()
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	healthSrv.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	reflection.Register(grpcServer)
	grpc_prometheus.Register(grpcServer)

	return &Server{
		grpcServer: grpcServer,
		health:     healthSrv,
		listener:   lis,
		ready:      ready,
		logger:     logger,
	}, nil
}

// Start serves incoming gRPC requests until Shutdown is invoked.
func (s *Server) Start() error {
	s.logger.Info("grpc server starting", "addr", s.Address())
	return s.grpcServer.Serve(s.listener)
}

// WatchReadiness polls the readiness checker every interval and publishes the
// result as the health status until ctx is cancelled.
func (s *Server) WatchReadiness(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s.syncReadiness(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) syncReadiness(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	if err := s.ready.CheckReadiness(ctx); err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// Shutdown attempts a graceful shutdown, falling back to Stop after the
// context deadline.
func (s *Server) Shutdown(ctx context.Context) {
	s.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-ctx.Done():
		s.grpcServer.Stop()
	case <-stopped:
	}
}

// Address exposes the bound listener address.
func (s *Server) Address() string {
	return s.listener.Addr().String()
}
