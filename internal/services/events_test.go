package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/UMS-P-2025/coursework-service/internal/models"
)

func TestPublishRoundtrip(t *testing.T) {
	pubsub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	publisher := &watermillPublisher{publisher: pubsub, logger: testLogger()}
	defer publisher.Close()

	ctx := context.Background()
	messages, err := pubsub.Subscribe(ctx, TopicEnrollments)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	sent := EnrollmentEvent{
		SubjectID:   7,
		SubjectCode: "CS101",
		StudentID:   42,
		EnrolledAt:  time.Now(),
	}
	publisher.PublishEnrollment(ctx, sent)

	select {
	case msg := <-messages:
		var got EnrollmentEvent
		if err := json.Unmarshal(msg.Payload, &got); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if got.SubjectID != sent.SubjectID || got.StudentID != sent.StudentID || got.SubjectCode != sent.SubjectCode {
			t.Errorf("event = %+v, want %+v", got, sent)
		}
		msg.Ack()
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
}

func TestNoopPublisher(t *testing.T) {
	p := NewNoopPublisher()
	p.PublishFacultyDecision(context.Background(), FacultyDecisionEvent{
		AccountID: 1,
		Decision:  models.ApprovalApproved,
	})
	if err := p.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
