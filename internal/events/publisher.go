// Package events publishes scene build transitions on NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"rando/internal/models"
	"rando/internal/scene"
)

// Conn is the part of *nats.Conn the publisher uses.
type Conn interface {
	Publish(subj string, data []byte) error
}

// Transition is the message published for every build event.
type Transition struct {
	BuildID   string    `json:"build_id"`
	Version   string    `json:"version"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Stage     string    `json:"stage"`
	ElapsedMS int64     `json:"elapsed_ms"`
	Failed    bool      `json:"failed"`
	ErrorKind string    `json:"error_kind,omitempty"`
	Error     string    `json:"error,omitempty"`
	At        time.Time `json:"at"`
}

// Publisher sends every transition to <prefix>.<build id>.<state>, where
// state is the new state or "failed". It is a scene.Observer.
type Publisher struct {
	conn   Conn
	prefix string
	logger *slog.Logger
	now    func() time.Time
}

func NewPublisher(conn Conn, prefix string, logger *slog.Logger) *Publisher {
	return &Publisher{conn: conn, prefix: prefix, logger: logger, now: time.Now}
}

// Connect dials NATS with reconnects enabled.
func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("rando-scened"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return conn, nil
}

func (p *Publisher) Observe(ctx context.Context, e scene.Event) {
	msg := Transition{
		BuildID:   e.BuildID,
		Version:   e.Version,
		From:      e.From.String(),
		To:        e.To.String(),
		Stage:     e.Stage,
		ElapsedMS: e.Elapsed.Milliseconds(),
		Failed:    e.Failed(),
		At:        p.now().UTC(),
	}
	state := msg.To
	if e.Failed() {
		state = "failed"
		msg.ErrorKind = models.ErrorKind(e.Err)
		msg.Error = e.Err.Error()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		p.logger.ErrorContext(ctx, "encode transition", "build_id", e.BuildID, "error", err)
		return
	}
	subject := Subject(p.prefix, e.BuildID, state)
	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.ErrorContext(ctx, "publish transition", "subject", subject, "error", err)
	}
}

// Subject builds the subject of a transition. Characters NATS treats as token
// separators or wildcards are replaced in the build id.
func Subject(prefix, buildID, state string) string {
	if buildID == "" {
		buildID = "_"
	}
	id := strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\n', '\r':
			return '_'
		}
		return r
	}, buildID)
	return prefix + "." + id + "." + state
}
