package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/domain"
)

// CoverageSubjects matches every coverage event.
const CoverageSubjects = "spraying.coverage.>"

const coverageStream = "SPRAYING_COVERAGE"

// CoverageSubject is spraying.coverage.<completed|failed>.<work order id>.
func CoverageSubject(event *domain.CoverageEvent) string {
	outcome := "completed"
	if event.Status != domain.ApplicationCompleted {
		outcome = "failed"
	}
	return "spraying.coverage." + outcome + "." + event.WorkOrderID
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := nats.StreamConfig{
		Name:      coverageStream,
		Subjects:  []string{CoverageSubjects},
		Retention: nats.InterestPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishCoverageEvent persists the event on the coverage stream. Plain
// subscribers on the same subject (the WebSocket relay) receive it as well.
func (p *Publisher) PublishCoverageEvent(ctx context.Context, event *domain.CoverageEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := p.js.Publish(CoverageSubject(event), data, nats.Context(ctx), nats.MsgId(event.ID)); err != nil {
		return fmt.Errorf("publish coverage event: %w", err)
	}
	return nil
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("agrovetor"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
