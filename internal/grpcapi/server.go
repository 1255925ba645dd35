// Package grpcapi exposes the service's gRPC surface: a standard
// grpc_health_v1 health check backed by the data store's Ping, alongside
// the HTTP surface in internal/httpapi. There is no domain-specific gRPC
// service: every identity operation is reached over HTTP per spec §6, so
// this package carries only the operational health probe the teacher's
// gRPC server intent called for.
package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// Pinger is satisfied by the data store; isolated to the one method this
// package needs so it never has to import internal/store directly.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server wraps a *grpc.Server with a health service whose status tracks
// the data store's reachability.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	store  Pinger
}

// New constructs the gRPC server and registers the health service in the
// NOT_SERVING state until the first successful Probe.
func New(store Pinger) *Server {
	healthSrv := health.NewServer()
	grpcSrv := grpc.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcSrv, healthSrv)
	healthSrv.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	return &Server{grpc: grpcSrv, health: healthSrv, store: store}
}

// Probe re-checks the data store and updates the health service's overall
// serving status accordingly. Called once at startup and on a periodic
// tick alongside the store's own sweep loop.
func (s *Server) Probe(ctx context.Context) error {
	err := s.store.Ping(ctx)
	if err != nil {
		s.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
		return err
	}
	s.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	return nil
}

// GRPC returns the underlying *grpc.Server for binding to a listener.
func (s *Server) GRPC() *grpc.Server {
	return s.grpc
}

// GracefulStop stops accepting new RPCs and blocks until pending ones
// finish, mirroring the HTTP server's graceful shutdown.
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
