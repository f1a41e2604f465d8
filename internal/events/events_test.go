package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
)

func TestNewEventIDsAreSortable(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	first := NewEvent(EventLoginSucceeded, "u1", at, nil)
	second := NewEvent(EventLoginSucceeded, "u1", at, nil)

	if first.ID == second.ID {
		t.Fatalf("event ids must be unique")
	}
	if first.ID >= second.ID {
		t.Fatalf("ids should increase monotonically: %s then %s", first.ID, second.ID)
	}
	if len(first.ID) != 26 {
		t.Fatalf("unexpected id length %d", len(first.ID))
	}
	if !first.Timestamp.Equal(at) {
		t.Fatalf("timestamp not preserved")
	}
}

func TestDispatcherInvokesAllHandlersAndJoinsErrors(t *testing.T) {
	d := NewInMemoryDispatcher()
	var calls []string
	boom := errors.New("boom")

	d.Subscribe(EventLogout, func(context.Context, Event) error {
		calls = append(calls, "first")
		return boom
	})
	d.Subscribe(EventLogout, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(EventLoginFailed, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	err := d.Publish(context.Background(), NewEvent(EventLogout, "u1", time.Now(), LogoutPayload{RevokedTokens: 2}))
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined handler error, got %v", err)
	}
	if strings.Join(calls, ",") != "first,second" {
		t.Fatalf("unexpected handler calls %v", calls)
	}
}

func TestDispatcherWithoutListeners(t *testing.T) {
	if err := NewInMemoryDispatcher().Publish(context.Background(), Event{Type: EventLogout}); err != nil {
		t.Fatalf("publish without listeners: %v", err)
	}
}

func TestKafkaPublisherSendsEventJSON(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var decoded Event
		if err := json.Unmarshal(val, &decoded); err != nil {
			return err
		}
		if decoded.Type != EventLoginFailed || decoded.UserID != "" {
			return errors.New("unexpected event body")
		}
		return nil
	})

	publisher := NewKafkaPublisherWithProducer(producer, "auth-audit", "blog-service")
	event := NewEvent(EventLoginFailed, "", time.Now(), LoginFailedPayload{Email: "a@b.com", Reason: "unknown_email"})
	if err := publisher.Handle(context.Background(), event); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if err := publisher.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestKafkaPublisherReportsSendFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	publisher := NewKafkaPublisherWithProducer(producer, "auth-audit", "blog-service")
	err := publisher.Handle(context.Background(), NewEvent(EventLogout, "u1", time.Now(), nil))
	if !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Fatalf("expected broker error, got %v", err)
	}
	_ = publisher.Close()
}
