package repository

import (
	"context"
	"time"

	"SessionEdge/internal/domain/models"
	applogger "SessionEdge/pkg/logger"
)

// MessageProducer is satisfied by *pkg/kafka.Producer.
type MessageProducer interface {
	Publish(ctx context.Context, key string, value interface{}) error
	Close() error
}

// summaryEnvelope is the wire form of a finished run.
type summaryEnvelope struct {
	Type        string            `json:"type"`
	PublishedAt time.Time         `json:"published_at"`
	Summary     models.RunSummary `json:"summary"`
}

// KafkaReportPublisher announces finished runs and forwards log aggregates.
type KafkaReportPublisher struct {
	p   MessageProducer
	l   *applogger.Logger
	now func() time.Time
}

func NewKafkaReportPublisher(p MessageProducer, l *applogger.Logger) *KafkaReportPublisher {
	if l == nil {
		l = applogger.Nop()
	}
	return &KafkaReportPublisher{p: p, l: l, now: time.Now}
}

// PublishSummary keys the message by symbol so runs of one instrument stay ordered.
func (k *KafkaReportPublisher) PublishSummary(ctx context.Context, s models.RunSummary) error {
	env := summaryEnvelope{Type: "run_summary", PublishedAt: k.now().UTC(), Summary: s}
	if err := k.p.Publish(ctx, s.Symbol, env); err != nil {
		k.l.Error("publish run summary", applogger.String("run_id", s.ID), applogger.Error(err))
		return err
	}
	k.l.Debug("run summary published", applogger.String("run_id", s.ID))
	return nil
}

// PublishMessage sends a pre-encoded payload.
func (k *KafkaReportPublisher) PublishMessage(ctx context.Context, key string, payload []byte) error {
	return k.p.Publish(ctx, key, payload)
}

func (k *KafkaReportPublisher) Close() error { return k.p.Close() }

// NopReportPublisher drops everything; used when Kafka is disabled.
type NopReportPublisher struct{}

func (NopReportPublisher) PublishSummary(context.Context, models.RunSummary) error { return nil }
func (NopReportPublisher) PublishMessage(context.Context, string, []byte) error    { return nil }
func (NopReportPublisher) Close() error                                            { return nil }
