package services

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// watermillPublisher emits domain events after committed mutations. Delivery
// is best-effort: a publish failure is logged and the mutation stands.
type watermillPublisher struct {
	publisher message.Publisher
	logger    *slog.Logger
}

// NewEventPublisher builds a Kafka-backed publisher when brokers are
// configured, otherwise an in-process pub/sub suitable for single-node
// deployments and tests.
func NewEventPublisher(brokers []string, logger *slog.Logger) (EventPublisher, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	var pub message.Publisher
	var err error
	if len(brokers) > 0 {
		pub, err = kafka.NewPublisher(kafka.PublisherConfig{
			Brokers:   brokers,
			Marshaler: kafka.DefaultMarshaler{},
		}, wmLogger)
		if err != nil {
			return nil, err
		}
	} else {
		pub = gochannel.NewGoChannel(gochannel.Config{}, wmLogger)
	}

	return &watermillPublisher{publisher: pub, logger: logger}, nil
}

func (p *watermillPublisher) PublishEnrollment(ctx context.Context, event EnrollmentEvent) {
	p.publish(ctx, TopicEnrollments, event)
}

func (p *watermillPublisher) PublishSubmission(ctx context.Context, event SubmissionEvent) {
	p.publish(ctx, TopicSubmissions, event)
}

func (p *watermillPublisher) PublishEvaluation(ctx context.Context, event EvaluationEvent) {
	p.publish(ctx, TopicEvaluations, event)
}

func (p *watermillPublisher) PublishFacultyDecision(ctx context.Context, event FacultyDecisionEvent) {
	p.publish(ctx, TopicFacultyDecisions, event)
}

func (p *watermillPublisher) Close() error {
	return p.publisher.Close()
}

func (p *watermillPublisher) publish(ctx context.Context, topic string, event interface{}) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to encode event", "topic", topic, "error", err)
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(topic, msg); err != nil {
		p.logger.Warn("Failed to publish event", "topic", topic, "error", err)
	}
}

// noopPublisher drops every event; used when eventing is disabled.
type noopPublisher struct{}

func NewNoopPublisher() EventPublisher { return noopPublisher{} }

func (noopPublisher) PublishEnrollment(context.Context, EnrollmentEvent)           {}
func (noopPublisher) PublishSubmission(context.Context, SubmissionEvent)           {}
func (noopPublisher) PublishEvaluation(context.Context, EvaluationEvent)           {}
func (noopPublisher) PublishFacultyDecision(context.Context, FacultyDecisionEvent) {}
func (noopPublisher) Close() error                                                 { return nil }
