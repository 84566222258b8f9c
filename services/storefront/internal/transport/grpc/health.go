package grpc

import (
	"context"
	"net"

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/sakashimaa/storefront/pkg/mylogger"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	googleGrpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const ServiceName = "storefront.Cart"

// HealthServer exposes the standard grpc health protocol for orchestrators.
type HealthServer struct {
	server *googleGrpc.Server
	health *health.Server
	logger *zap.Logger
}

func NewHealthServer(logger *zap.Logger) *HealthServer {
	s := googleGrpc.NewServer(
		googleGrpc.StatsHandler(otelgrpc.NewServerHandler()),
		googleGrpc.StreamInterceptor(grpc_prometheus.StreamServerInterceptor),
		googleGrpc.UnaryInterceptor(grpc_prometheus.UnaryServerInterceptor),
	)
	h := health.NewServer()
	healthpb.RegisterHealthServer(s, h)

	grpc_prometheus.Register(s)

	h.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	h.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	return &HealthServer{server: s, health: h, logger: logger}
}

func (s *HealthServer) Serve(lis net.Listener) error {
	mylogger.Info(context.Background(), s.logger, "gRPC health listening", zap.String("addr", lis.Addr().String()))
	return s.server.Serve(lis)
}

// Stop flips every service to NOT_SERVING before draining connections.
func (s *HealthServer) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
