package main

import (
	"context"

	"options-observer/src/config"
	"options-observer/src/grpc_control"
	"options-observer/src/interfaces"
	"options-observer/src/logger"
	"options-observer/src/server"
)

// -----------------------------------------------------------------------------

// startServers starts the HTTP dashboard and, when a port is configured, the
// gRPC control listener. The returned func stops both; the channel receives
// the dashboard listener error if it fails.
func startServers(
	srv interfaces.IServer,
	tables *server.Tables,
	config *config.Config,
	appLogger *logger.Logger,
) (func(ctx context.Context), <-chan error) {

	// 1. Dashboard
	failed := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			failed <- err
		}
	}()

	// 2. gRPC Control Server
	var control *grpc_control.Listener
	if config.GrpcPort > 0 {
		grpcLogger := logger.NewLogger("ControlService")
		control = grpc_control.NewListener(grpc_control.NewControlService(config.MConfig, tables, grpcLogger), grpcLogger)
		go func() {
			if err := control.ListenAndServe(config.GrpcHost, config.GrpcPort); err != nil {
				appLogger.Error("gRPC control server failed: %v", err)
			}
		}()
	}

	shutdown := func(ctx context.Context) {
		if control != nil {
			control.Stop()
		}
		if err := srv.Stop(ctx); err != nil {
			appLogger.Warning("Dashboard shutdown: %v", err)
		}
	}
	return shutdown, failed
}
