package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
)

func TestNewPublisherValidation(t *testing.T) {
	t.Parallel()

	_, err := NewPublisher(Config{Topic: "events"})
	if err == nil {
		t.Fatal("expected error when brokers are missing")
	}

	_, err = NewPublisher(Config{Brokers: []string{"127.0.0.1:9092"}})
	if err == nil {
		t.Fatal("expected error when topic is missing")
	}
}

func TestNewPublisherTrimsBrokerList(t *testing.T) {
	t.Parallel()

	pub, err := NewPublisher(Config{
		Brokers: []string{" ", "127.0.0.1:9092", "\t"},
		Topic:   "events",
	})
	if err != nil {
		t.Fatalf("expected valid publisher config, got error: %v", err)
	}
	if pub == nil {
		t.Fatal("expected publisher")
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
}

func TestNilPublisherIsNoOp(t *testing.T) {
	t.Parallel()

	var nilPub *Publisher
	if err := nilPub.Close(); err != nil {
		t.Fatalf("expected nil close to be no-op, got: %v", err)
	}
	if err := nilPub.PublishTransition(context.Background(), TransitionEvent{PostID: "p1"}); err != nil {
		t.Fatalf("expected nil publish to be no-op, got: %v", err)
	}
}

type fakeKafkaWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeKafkaWriter) Close() error {
	return nil
}

func TestPublishTransition(t *testing.T) {
	t.Run("writer_error", func(t *testing.T) {
		pub := &Publisher{writer: &fakeKafkaWriter{err: errors.New("write failed")}}
		err := pub.PublishTransition(context.Background(), TransitionEvent{PostID: "p1"})
		if err == nil {
			t.Fatal("expected writer error")
		}
	})

	t.Run("writer_success", func(t *testing.T) {
		fw := &fakeKafkaWriter{}
		pub := &Publisher{writer: fw}

		ev := TransitionEvent{
			PostID:     "post-1",
			ClientID:   "client-1",
			FromStatus: "draft",
			ToStatus:   "client_review",
			ActorID:    "member-1",
			ActorRole:  "member",
		}
		if err := pub.PublishTransition(context.Background(), ev); err != nil {
			t.Fatalf("unexpected publish error: %v", err)
		}

		if len(fw.msgs) != 1 {
			t.Fatalf("expected 1 message, got %d", len(fw.msgs))
		}
		if string(fw.msgs[0].Key) != "post-1" {
			t.Errorf("expected key post-1, got %s", fw.msgs[0].Key)
		}

		var got TransitionEvent
		if err := json.Unmarshal(fw.msgs[0].Value, &got); err != nil {
			t.Fatalf("unmarshal event: %v", err)
		}
		if got.ToStatus != "client_review" {
			t.Errorf("expected to_status client_review, got %s", got.ToStatus)
		}
		if got.OccurredAt.IsZero() {
			t.Error("expected occurred_at to be stamped")
		}
	})
}
