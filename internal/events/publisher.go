package events

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Publisher pushes scrape run summaries to a NATS subject so downstream
// consumers (dashboards, alerting) can react without polling the API.
type Publisher struct {
	nc      *nats.Conn
	subject string
	log     *zap.Logger
}

// Connect dials the NATS server. Callers treat a nil publisher as
// disabled, so connection failure at startup can degrade to a log line.
func Connect(url, subject string, log *zap.Logger) (*Publisher, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}
	log.Info("connected to NATS", zap.String("url", url), zap.String("subject", subject))
	return &Publisher{nc: nc, subject: subject, log: log}, nil
}

// Publish sends v as JSON to the configured subject.
func (p *Publisher) Publish(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.nc.Publish(p.subject, payload); err != nil {
		return fmt.Errorf("publish to %s: %w", p.subject, err)
	}
	return nil
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	if err := p.nc.Drain(); err != nil {
		p.log.Warn("drain NATS connection", zap.Error(err))
	}
}
