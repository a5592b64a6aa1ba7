// Package bus publishes engine events to the external message fabric.
//
// The engine treats the fabric as a fire-and-forget collector: a publish
// failure is logged and dropped, never surfaced into task execution.
package bus

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/vinayprograms/agentkit/logging"
)

// Message is the envelope for everything crossing the bus.
type Message struct {
	Source    string      `json:"source"`
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// Publisher sends messages to a subject. The zero-value Nop publisher is used
// when no fabric is configured.
type Publisher interface {
	Publish(subject string, msg Message) error
	Close()
}

// Conn is a NATS-backed publisher.
type Conn struct {
	nc     *nats.Conn
	prefix string
	logger *logging.Logger
}

// Connect dials the NATS server. Subjects are prefixed with prefix + ".".
func Connect(url, prefix string) (*Conn, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, err
	}
	if prefix == "" {
		prefix = "jarvis"
	}
	return &Conn{
		nc:     nc,
		prefix: prefix,
		logger: logging.New().WithComponent("bus"),
	}, nil
}

// Publish marshals the message and sends it on prefix.subject.
func (c *Conn) Publish(subject string, msg Message) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	full := c.prefix + "." + subject
	if err := c.nc.Publish(full, data); err != nil {
		c.logger.Warn("publish failed", map[string]interface{}{
			"subject": full,
			"error":   err.Error(),
		})
		return err
	}
	return nil
}

// Close drains the connection.
func (c *Conn) Close() {
	_ = c.nc.Drain()
}

// Nop is a publisher that discards everything.
type Nop struct{}

func (Nop) Publish(string, Message) error { return nil }
func (Nop) Close()                        {}
