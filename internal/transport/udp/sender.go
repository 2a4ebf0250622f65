// SPDX-License-Identifier: MIT
package udp

import (
	"errors"
	"fmt"
	"net"
	"sync"

	applog "player/internal/log"
)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("UDP sender is closed")

// Sender handles sending data packets over UDP.
type Sender struct {
	conn *net.UDPConn
	log  applog.Logger
	mu   sync.Mutex // Protects conn during Close
}

// NewSender creates a new Sender targeting the specified address.
// The address should be in the format "host:port", e.g., "127.0.0.1:9090".
func NewSender(targetAddress string, logger applog.Logger) (*Sender, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", targetAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve UDP target address '%s': %w", targetAddress, err)
	}

	// We don't need to bind to a specific local port for sending,
	// so we use nil for the local address in DialUDP.
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial UDP for target '%s': %w", targetAddress, err)
	}

	logger.Infof("UDP Sender: Connection established to %s", conn.RemoteAddr())
	return &Sender{conn: conn, log: logger}, nil
}

// Send transmits the given byte slice as a UDP packet.
// It is safe for concurrent use, although typically called sequentially by the publisher.
func (s *Sender) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return ErrClosed
	}

	if _, err := s.conn.Write(data); err != nil {
		return fmt.Errorf("failed to send UDP packet: %w", err)
	}
	return nil
}

// Close closes the underlying UDP connection.
func (s *Sender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil // Already closed
	}

	s.log.Infof("UDP Sender: Closing connection to %s", s.conn.RemoteAddr())
	err := s.conn.Close()
	s.conn = nil // Prevent further use
	if err != nil {
		return fmt.Errorf("failed to close UDP connection: %w", err)
	}
	return nil
}

// Ensure Sender satisfies the io.Closer interface
var _ interface{ Close() error } = (*Sender)(nil)
