// SPDX-License-Identifier: MIT
package transport

import (
	"fmt"

	"player/internal/analysis"
	applog "player/internal/log"
)

// LoggingTransport implements the Transport interface by logging a summary
// of every frame at debug level.
type LoggingTransport struct {
	log  applog.Logger
	sent uint64
}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport(logger applog.Logger) *LoggingTransport {
	logger.Infof("Transport: Using LoggingTransport")
	return &LoggingTransport{log: logger}
}

// Send logs the loudest band of a spectrum frame. Other values are logged
// with their type.
func (lt *LoggingTransport) Send(data any) error {
	lt.sent++
	switch v := data.(type) {
	case analysis.Frame:
		lt.log.Debugf("LOG_TRANSPORT: %s", Summary(v))
	case *analysis.Frame:
		lt.log.Debugf("LOG_TRANSPORT: %s", Summary(*v))
	default:
		lt.log.Debugf("LOG_TRANSPORT: Received (%T): %+v", data, data)
	}
	return nil // Logging transport never fails to "send"
}

// Summary describes a frame in one line.
func Summary(f analysis.Frame) string {
	if len(f.Bands) == 0 {
		return fmt.Sprintf("session=%d position=%d bands=0", f.Session, f.Position)
	}
	peak := f.Bands[0]
	for _, b := range f.Bands[1:] {
		if b.Decibels > peak.Decibels {
			peak = b
		}
	}
	return fmt.Sprintf("session=%d position=%d bands=%d peak=%.0fHz/%.1fdB",
		f.Session, f.Position, len(f.Bands), peak.Frequency, peak.Decibels)
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	lt.log.Infof("LOG_TRANSPORT: Close called after %d frames.", lt.sent)
	return nil
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ Transport = (*LoggingTransport)(nil)
