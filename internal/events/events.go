// Package events publishes vehicle change notifications after successful
// writes.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// Kind names the write that changed a vehicle.
type Kind string

const (
	KindQualityCheck Kind = "quality_check"
	KindAssignment   Kind = "assignment"
	KindImageType    Kind = "image_type"
)

// VehicleChanged is published after every successful mutation.
type VehicleChanged struct {
	VehicleID string    `json:"vehicleId"`
	ItemID    string    `json:"itemId,omitempty"`
	Kind      Kind      `json:"kind"`
	UserID    string    `json:"userId,omitempty"`
	At        time.Time `json:"at"`
}

// Subject returns the subject a change is published on.
func Subject(vehicleID string) string {
	return "qc.vehicle." + vehicleID + ".updated"
}

// Publisher sends change notifications.
type Publisher interface {
	Publish(ctx context.Context, ev VehicleChanged) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, VehicleChanged) error { return nil }
func (Nop) Close() error                                 { return nil }

// NATSPublisher publishes events as JSON on a NATS connection.
type NATSPublisher struct {
	nc     *nats.Conn
	mu     sync.Mutex
	closed bool
}

// ConnectNATS dials the server and returns a publisher.
func ConnectNATS(url string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("qcreview"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATSPublisher{nc: nc}, nil
}

// Publish implements Publisher. NATS publishes are fire-and-forget, so the
// context is only checked before sending.
func (p *NATSPublisher) Publish(ctx context.Context, ev VehicleChanged) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before publish: %w", err)
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.nc.Publish(Subject(ev.VehicleID), data)
}

// Close drains the connection. It is safe to call more than once.
func (p *NATSPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.nc.Drain()
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []VehicleChanged
}

func (r *Recorder) Publish(_ context.Context, ev VehicleChanged) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []VehicleChanged {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]VehicleChanged(nil), r.events...)
}
