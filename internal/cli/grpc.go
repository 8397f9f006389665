package cli

import (
	"fmt"

	"google.golang.org/grpc"

	"github.com/hatray/hatray/internal/config"
	"github.com/hatray/hatray/internal/daemon/server"
)

// connectDaemon establishes a gRPC connection to the running daemon.
func connectDaemon() (*server.Client, *grpc.ClientConn, error) {
	record, err := config.OpenDaemonRecord()
	if err != nil {
		return nil, nil, err
	}
	info, err := record.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load daemon info: %w", err)
	}
	if info == nil {
		return nil, nil, fmt.Errorf("daemon not running")
	}

	return server.Dial(info.Host, info.Port)
}
