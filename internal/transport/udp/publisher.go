// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"player/internal/analysis"
	applog "player/internal/log"
)

// PacketSender is the part of Sender the publisher needs.
type PacketSender interface {
	Send(data []byte) error
	Close() error
}

// Publisher packs spectrum frames into a defined binary format and sends
// them over UDP. It implements transport.Transport.
type Publisher struct {
	sender PacketSender
	log    applog.Logger
	now    func() time.Time

	mu          sync.Mutex // Serialises Send/Close.
	sequenceNum uint32     // Monotonically increasing sequence number for packets.
	sendErrors  int

	// Pre-allocated buffers to reduce allocations per packet.
	dbBuffer     []float32
	packetBuffer *bytes.Buffer
}

// NewPublisher creates a publisher on top of sender.
func NewPublisher(sender PacketSender, logger applog.Logger) (*Publisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("UDPPublisher: UDP sender cannot be nil")
	}
	return &Publisher{
		sender:       sender,
		log:          logger,
		now:          time.Now,
		packetBuffer: new(bytes.Buffer),
	}, nil
}

/*
UDP Packet Structure (BigEndian)

+-----------------------------------------------------------------------------+
| Field             | Data Type      | Size (Bytes) | Description             |
|-------------------|----------------|--------------|-------------------------|
| Sequence Number   | uint32         | 4            | Monotonically increasing|
| Timestamp         | int64          | 8            | Nanoseconds since epoch |
| Session           | uint64         | 8            | Loaded track session    |
| Position          | int64          | 8            | Read head in frames     |
| Band Count        | uint16         | 2            | Number of floats (N)    |
| Band Levels       | []float32      | N * 4        | Band levels in dB       |
+-----------------------------------------------------------------------------+
*/

// HeaderSize is the packet length without band levels.
const HeaderSize = 4 + 8 + 8 + 8 + 2

// Send packs and transmits one analysis.Frame.
func (p *Publisher) Send(data any) error {
	var frame analysis.Frame
	switch v := data.(type) {
	case analysis.Frame:
		frame = v
	case *analysis.Frame:
		frame = *v
	default:
		return fmt.Errorf("UDPPublisher: unsupported payload %T", data)
	}
	if len(frame.Bands) > math.MaxUint16 {
		return fmt.Errorf("UDPPublisher: %d bands exceed packet limit", len(frame.Bands))
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if cap(p.dbBuffer) < len(frame.Bands) {
		p.dbBuffer = make([]float32, len(frame.Bands))
	}
	p.dbBuffer = p.dbBuffer[:len(frame.Bands)]
	for i, b := range frame.Bands {
		p.dbBuffer[i] = float32(b.Decibels)
	}

	p.sequenceNum++
	p.packetBuffer.Reset()

	// Chain error checks for cleaner code.
	err := binary.Write(p.packetBuffer, binary.BigEndian, p.sequenceNum)
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, p.now().UnixNano())
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, frame.Session)
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, frame.Position)
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, uint16(len(p.dbBuffer)))
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, p.dbBuffer)
	}
	if err != nil {
		return fmt.Errorf("UDPPublisher: packing packet %d: %w", p.sequenceNum, err)
	}

	if err := p.sender.Send(p.packetBuffer.Bytes()); err != nil {
		// Only the first failure is logged; the receiver may simply be absent.
		p.sendErrors++
		if p.sendErrors == 1 {
			p.log.Warnf("UDPPublisher: %v", err)
		}
		return err
	}
	p.log.Debugf("UDPPublisher: Sent packet %d (%d bytes)", p.sequenceNum, p.packetBuffer.Len())
	return nil
}

// Packet decodes a packet built by Send. Receivers in Go can use it
// directly.
type Packet struct {
	Sequence  uint32
	Timestamp int64
	Session   uint64
	Position  int64
	Decibels  []float32
}

// DecodePacket parses a spectrum packet.
func DecodePacket(b []byte) (Packet, error) {
	if len(b) < HeaderSize {
		return Packet{}, fmt.Errorf("packet too short: %d bytes", len(b))
	}
	be := binary.BigEndian
	p := Packet{
		Sequence:  be.Uint32(b[0:]),
		Timestamp: int64(be.Uint64(b[4:])),
		Session:   be.Uint64(b[12:]),
		Position:  int64(be.Uint64(b[20:])),
	}
	count := int(be.Uint16(b[28:]))
	if len(b) != HeaderSize+4*count {
		return Packet{}, fmt.Errorf("packet length %d does not match %d bands", len(b), count)
	}
	p.Decibels = make([]float32, count)
	for i := range p.Decibels {
		p.Decibels[i] = math.Float32frombits(be.Uint32(b[HeaderSize+4*i:]))
	}
	return p, nil
}

// Close implements the io.Closer interface and closes the sender.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.log.Debugf("UDPPublisher: Close called after %d packets", p.sequenceNum)
	return p.sender.Close()
}
