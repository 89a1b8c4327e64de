package server

import (
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// SessionService is the service name reported alongside the server-wide ("") status.
const SessionService = "petheaven.Session"

// HealthService serves the standard gRPC health protocol. It implements Service.
type HealthService struct {
	addr   string
	srv    *grpc.Server
	health *health.Server
	logger *zap.Logger

	mu    sync.Mutex
	bound net.Addr
	ready chan struct{}
}

// NewHealthService creates a health service listening on addr once started.
// Both statuses start as NOT_SERVING.
//
// Precondition: addr is a "host:port" address; logger must be non-nil.
func NewHealthService(addr string, logger *zap.Logger) *HealthService {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(SessionService, healthpb.HealthCheckResponse_NOT_SERVING)

	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	return &HealthService{
		addr:   addr,
		srv:    srv,
		health: hs,
		logger: logger,
		ready:  make(chan struct{}),
	}
}

// SetServing flips both statuses. It has the StatusFunc signature so it can be
// passed to Lifecycle.OnStatus.
func (h *HealthService) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(SessionService, status)
	h.logger.Info("health status changed", zap.String("status", status.String()))
}

// Start listens and serves until Stop.
func (h *HealthService) Start() error {
	lis, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", h.addr, err)
	}
	h.mu.Lock()
	h.bound = lis.Addr()
	h.mu.Unlock()
	close(h.ready)
	h.logger.Info("health service listening", zap.String("addr", lis.Addr().String()))
	return h.srv.Serve(lis)
}

// Ready is closed once the listener is bound.
func (h *HealthService) Ready() <-chan struct{} { return h.ready }

// Addr returns the bound address, or nil before Start has bound.
func (h *HealthService) Addr() net.Addr {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.bound
}

// Stop marks every service NOT_SERVING and stops the server gracefully.
func (h *HealthService) Stop() {
	h.health.Shutdown()
	h.srv.GracefulStop()
}
