// Package grpc serves the standard gRPC health service driven by the inventory lifecycle.
package grpc

import (
	"github.com/abgdnv/procurehub/internal/inventory"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// InventoryService is the service name reported alongside the overall "" status.
const InventoryService = "procurehub.inventory"

// Health reports NOT_SERVING until the store is ready and again once it is disposed.
type Health struct {
	server *health.Server
}

func NewHealth() *Health {
	h := &Health{server: health.NewServer()}
	h.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

// Register adds the health service to s.
func (h *Health) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.server)
}

// Observe follows store transitions; pass it to inventory.WithStateObserver.
// A reload keeps the current status since the collection stays readable.
func (h *Health) Observe(state inventory.State) {
	switch state {
	case inventory.StateReady:
		h.set(healthpb.HealthCheckResponse_SERVING)
	case inventory.StateDisposed:
		h.set(healthpb.HealthCheckResponse_NOT_SERVING)
	}
}

// Shutdown marks every service NOT_SERVING and ignores later updates.
func (h *Health) Shutdown() {
	h.server.Shutdown()
}

func (h *Health) set(status healthpb.HealthCheckResponse_ServingStatus) {
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(InventoryService, status)
}
