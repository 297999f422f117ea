// Package events publishes build notifications.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/retry"
)

// ClientName identifies sitebuilder connections on the NATS server.
const ClientName = "sitebuilder"

// BuildEvent is published once per finished build.
type BuildEvent struct {
	BuildID    string    `json:"build_id"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	Built      int       `json:"built"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	Categories int       `json:"categories"`
	Tags       int       `json:"tags"`
}

// Publisher delivers build events.
type Publisher interface {
	PublishBuild(ctx context.Context, ev BuildEvent) error
	Close() error
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) PublishBuild(context.Context, BuildEvent) error { return nil }
func (NoopPublisher) Close() error                                   { return nil }

type natsConn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NATSPublisher publishes JSON build events to a subject.
type NATSPublisher struct {
	conn    natsConn
	subject string
	retry   retry.Policy
}

// NewNATSPublisher connects to url. A failed connection is a network error.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name(ClientName), nats.Timeout(5*time.Second))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryNetwork, "failed to connect to NATS").
			WithContext("url", url).
			Build()
	}
	slog.Info("NATS publisher connected", logfields.URL(url), slog.String("subject", subject))
	return &NATSPublisher{conn: conn, subject: subject, retry: retry.DefaultPolicy()}, nil
}

// PublishBuild marshals ev and publishes it, waiting for the server to
// acknowledge the flush. Failed attempts are retried per the retry policy.
func (p *NATSPublisher) PublishBuild(ctx context.Context, ev BuildEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal build event").Build()
	}

	err = p.retry.Do(ctx, func() error { return p.publish(ctx, data) })
	if err != nil {
		return err
	}

	slog.Debug("Published build event", logfields.BuildID(ev.BuildID), slog.String("subject", p.subject))
	return nil
}

// publish sends data once. Failures are marked retryable.
func (p *NATSPublisher) publish(ctx context.Context, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := p.conn.Publish(p.subject, data); err != nil {
		return errors.WrapError(err, errors.CategoryNetwork, "failed to publish build event").
			Retryable().
			WithContext("subject", p.subject).
			Build()
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return errors.WrapError(err, errors.CategoryNetwork, "failed to flush build event").
			Retryable().
			WithContext("subject", p.subject).
			Build()
	}
	return nil
}

// Close closes the NATS connection.
func (p *NATSPublisher) Close() error {
	p.conn.Close()
	return nil
}

// New returns a NATS publisher when url is set, otherwise a NoopPublisher.
func New(url, subject string) (Publisher, error) {
	if url == "" {
		return NoopPublisher{}, nil
	}
	return NewNATSPublisher(url, subject)
}
