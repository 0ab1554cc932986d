package grpc_control

import (
	"fmt"
	"net"

	"options-observer/src/logger"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Listener runs the control service and the standard health service.
type Listener struct {
	Server *grpc.Server
	Health *health.Server
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewListener(svc ControlServer, log *logger.Logger) *Listener {
	s := grpc.NewServer()
	h := health.NewServer()

	RegisterControlServer(s, svc)
	healthpb.RegisterHealthServer(s, h)
	h.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	return &Listener{Server: s, Health: h, Logger: log}
}

// -----------------------------------------------------------------------------

// ListenAndServe blocks serving on host:port.
func (l *Listener) ListenAndServe(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	l.Logger.Info("gRPC control listening on %s", addr)
	return l.Server.Serve(lis)
}

// -----------------------------------------------------------------------------

func (l *Listener) Stop() {
	l.Health.Shutdown()
	l.Server.GracefulStop()
}
