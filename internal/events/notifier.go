// Package events delivers board events to NATS or to the log.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/Sergeybob123/callboard/internal/core"
)

// Metrics counts delivered events by type and outcome
type Metrics struct {
	delivered *prometheus.CounterVec
}

// NewMetrics creates event counters registered on reg. A nil reg leaves
// them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		delivered: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "callboard_events_total",
			Help: "Board events by type and delivery outcome.",
		}, []string{"type", "outcome"}),
	}
}

func (m *Metrics) observe(typ core.EventType, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.delivered.WithLabelValues(string(typ), outcome).Inc()
}

// NATSNotifier publishes events as JSON on <prefix>.<event type>
type NATSNotifier struct {
	conn    *nats.Conn
	prefix  string
	metrics *Metrics
}

// NewNATSNotifier creates a notifier publishing on conn
func NewNATSNotifier(conn *nats.Conn, prefix string, metrics *Metrics) *NATSNotifier {
	return &NATSNotifier{conn: conn, prefix: prefix, metrics: metrics}
}

// Subject returns the subject an event type is published on
func (n *NATSNotifier) Subject(typ core.EventType) string {
	return n.prefix + "." + string(typ)
}

// Notify publishes ev
func (n *NATSNotifier) Notify(ctx context.Context, ev core.Event) error {
	err := n.publish(ctx, ev)
	n.metrics.observe(ev.Type, err)
	return err
}

func (n *NATSNotifier) publish(ctx context.Context, ev core.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := n.conn.Publish(n.Subject(ev.Type), data); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

// LogNotifier writes events to the log when no broker is configured
type LogNotifier struct {
	logger  *zap.Logger
	metrics *Metrics
}

// NewLogNotifier creates a notifier that logs events at info level
func NewLogNotifier(logger *zap.Logger, metrics *Metrics) *LogNotifier {
	return &LogNotifier{logger: logger, metrics: metrics}
}

// Notify logs ev
func (n *LogNotifier) Notify(_ context.Context, ev core.Event) error {
	n.logger.Info("board event",
		zap.String("type", string(ev.Type)),
		zap.Int64("response_id", ev.ResponseID),
		zap.Int64("post_id", ev.PostID),
		zap.String("post_title", ev.PostTitle),
		zap.String("response_author", ev.ResponseAuthor),
		zap.String("post_author", ev.PostAuthor),
	)
	n.metrics.observe(ev.Type, nil)
	return nil
}
