package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/blog-service/internal/auth"
	"github.com/spec-kit/blog-service/internal/config"
	"github.com/spec-kit/blog-service/internal/domain"
	"github.com/spec-kit/blog-service/internal/events"
	"github.com/spec-kit/blog-service/internal/repository/memory"
	"github.com/spec-kit/blog-service/internal/service"
)

func TestAuditQueueDropsWhenFullAndDrainsOnClose(t *testing.T) {
	inner := events.NewInMemoryDispatcher()
	q := NewAuditQueue(inner, 1, zaptest.NewLogger(t))

	delivered := make(chan events.Event, 4)
	q.Subscribe(events.EventLogout, func(_ context.Context, e events.Event) error {
		delivered <- e
		return nil
	})

	first := events.NewEvent(events.EventLogout, "u1", time.Now(), events.LogoutPayload{RevokedTokens: 2})
	if err := q.Publish(context.Background(), first); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	second := events.NewEvent(events.EventLogout, "u2", time.Now(), events.LogoutPayload{})
	if err := q.Publish(context.Background(), second); !errors.Is(err, ErrAuditQueueFull) {
		t.Fatalf("expected ErrAuditQueueFull, got %v", err)
	}

	q.Start()
	q.Close()
	if len(delivered) != 1 {
		t.Fatalf("expected one delivered event, got %d", len(delivered))
	}
	if got := <-delivered; got.ID != first.ID {
		t.Fatalf("delivered %s, want %s", got.ID, first.ID)
	}

	if err := q.Publish(context.Background(), second); !errors.Is(err, ErrAuditQueueClosed) {
		t.Fatalf("expected ErrAuditQueueClosed, got %v", err)
	}
	q.Close()
}

func TestLoginDoesNotWaitForAuditDelivery(t *testing.T) {
	logger := zaptest.NewLogger(t)
	q := NewAuditQueue(events.NewInMemoryDispatcher(), 8, logger)

	release := make(chan struct{})
	delivered := make(chan events.Event, 8)
	q.Subscribe(events.EventLoginSucceeded, func(_ context.Context, e events.Event) error {
		<-release
		delivered <- e
		return nil
	})
	q.Start()

	store := memory.NewStore()
	svc := service.NewAuthService(config.Config{Auth: config.AuthConfig{
		JWTSecret:             "worker-secret",
		PasswordHashAlgorithm: auth.AlgorithmBcrypt,
		BcryptCost:            bcrypt.MinCost,
	}}, service.AuthDependencies{
		UserRepo:   store.Users(),
		RoleRepo:   store.Roles(),
		TokenRepo:  store.Tokens(),
		Dispatcher: q,
		Logger:     logger,
	})
	role := store.SeedRole("Writer", domain.RoleSlugWriter, domain.PermPostsRead)
	hash, err := svc.Hasher().Hash("writerpass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	user := store.SeedUser("writer@example.com", "Writer", hash, role.ID)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Login(context.Background(), "writer@example.com", "writerpass")
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Login: %v", err)
		}
	case <-time.After(5 * time.Second):
		close(release)
		t.Fatalf("login blocked on audit delivery")
	}

	close(release)
	q.Close()
	select {
	case e := <-delivered:
		if e.UserID != user.ID {
			t.Fatalf("audit event for %s, want %s", e.UserID, user.ID)
		}
	default:
		t.Fatalf("queued event was not delivered before Close returned")
	}
}
