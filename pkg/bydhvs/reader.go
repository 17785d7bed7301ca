package bydhvs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// BatteryReader acquires one telemetry snapshot per call. Implementations
// must not share connections between calls.
type BatteryReader interface {
	Poll(ctx context.Context) (*Snapshot, error)
}

type tcpBatteryReader struct {
	endpoint Endpoint
	logger   *zap.Logger
}

// CreateBatteryReader builds a reader for the battery's TCP service.
// Every Poll call opens and closes its own connection.
func CreateBatteryReader(host string, port uint16, timeout time.Duration, logger *zap.Logger) BatteryReader {
	if port == 0 {
		port = DEFAULT_PORT
	}
	return &tcpBatteryReader{
		endpoint: Endpoint{Host: host, Port: port, Timeout: timeout},
		logger:   logger,
	}
}

func (r *tcpBatteryReader) Poll(ctx context.Context) (*Snapshot, error) {
	return Poll(ctx, r.endpoint, r.logger)
}
