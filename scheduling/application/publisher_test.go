package application_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/castline/castline/scheduling/application"
	"github.com/castline/castline/scheduling/domain"
	"github.com/castline/castline/scheduling/repository"
	"github.com/google/uuid"
)

type fakeGateway struct {
	mu    sync.Mutex
	calls []string // content of each published cast, in call order
	fn    func(text string) domain.PublishResult
}

func (g *fakeGateway) PublishCast(_ context.Context, _, text string, _ domain.PublishOptions) domain.PublishResult {
	g.mu.Lock()
	g.calls = append(g.calls, text)
	g.mu.Unlock()
	if g.fn != nil {
		return g.fn(text)
	}
	return domain.PublishResult{Success: true, CastHash: "0x" + uuid.NewString()[:8]}
}

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func seedDueCast(t *testing.T, casts *repository.CastGormRepository, userID, content string, scheduledAt time.Time, priority domain.CastPriority) domain.ScheduledCast {
	t.Helper()
	now := time.Now().UTC()
	cast := domain.ScheduledCast{
		ID:          uuid.NewString(),
		UserID:      userID,
		Content:     content,
		ScheduledAt: scheduledAt,
		Priority:    priority,
		Status:      domain.CastStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := casts.Create(context.Background(), cast); err != nil {
		t.Fatalf("failed to seed cast: %v", err)
	}
	return cast
}

func TestRunOncePublishesInPriorityOrder(t *testing.T) {
	casts, users := setupRepos(t)
	user := seedUser(t, users, 7)
	gw := &fakeGateway{}
	svc := application.NewPublisherService(casts, users, gw, application.PublisherOptions{Concurrency: 1})

	now := time.Now().UTC()
	seedDueCast(t, casts, user.ID, "normal-older", now.Add(-20*time.Minute), domain.CastPriorityNormal)
	seedDueCast(t, casts, user.ID, "high-recent", now.Add(-5*time.Minute), domain.CastPriorityHigh)
	seedDueCast(t, casts, user.ID, "low-oldest", now.Add(-30*time.Minute), domain.CastPriorityLow)
	future := seedDueCast(t, casts, user.ID, "tomorrow", now.Add(24*time.Hour), domain.CastPriorityHigh)

	summary, err := svc.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if summary.Total != 3 || summary.Successful != 3 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	untouched, _ := casts.GetByID(context.Background(), future.ID)
	if untouched.Status != domain.CastStatusPending {
		t.Errorf("future cast must stay PENDING, got %s", untouched.Status)
	}

	want := []string{"high-recent", "normal-older", "low-oldest"}
	if len(gw.calls) != 3 {
		t.Fatalf("expected 3 gateway calls, got %d", len(gw.calls))
	}
	for i, content := range want {
		if gw.calls[i] != content {
			t.Errorf("call %d: expected %q, got %q", i, content, gw.calls[i])
		}
	}
}

func TestRunOnceIsolatesFailures(t *testing.T) {
	casts, users := setupRepos(t)
	user := seedUser(t, users, 7)
	gw := &fakeGateway{
		fn: func(text string) domain.PublishResult {
			if text == "doomed" {
				return domain.PublishResult{Error: "signer revoked"}
			}
			return domain.PublishResult{Success: true, CastHash: "0xok"}
		},
	}
	svc := application.NewPublisherService(casts, users, gw, application.PublisherOptions{})

	now := time.Now().UTC()
	a := seedDueCast(t, casts, user.ID, "first", now.Add(-3*time.Minute), domain.CastPriorityNormal)
	b := seedDueCast(t, casts, user.ID, "doomed", now.Add(-2*time.Minute), domain.CastPriorityNormal)
	c := seedDueCast(t, casts, user.ID, "third", now.Add(-time.Minute), domain.CastPriorityNormal)

	summary, err := svc.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if summary.Total != 3 || summary.Successful != 2 || summary.Failed != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	ctx := context.Background()
	for _, id := range []string{a.ID, c.ID} {
		stored, _ := casts.GetByID(ctx, id)
		if stored.Status != domain.CastStatusPublished {
			t.Errorf("cast %s: expected PUBLISHED, got %s", id, stored.Status)
		}
		if stored.CastHash == "" {
			t.Errorf("cast %s: expected cast hash recorded", id)
		}
		if stored.PublishedAt == nil {
			t.Errorf("cast %s: expected published_at recorded", id)
		}
	}

	failed, _ := casts.GetByID(ctx, b.ID)
	if failed.Status != domain.CastStatusFailed {
		t.Errorf("expected FAILED, got %s", failed.Status)
	}
	if failed.RetryCount != 1 {
		t.Errorf("expected retry count 1, got %d", failed.RetryCount)
	}
	if failed.ErrorMessage != "signer revoked" {
		t.Errorf("unexpected error message: %q", failed.ErrorMessage)
	}
}

func TestPublishOneSecondAttemptSkips(t *testing.T) {
	casts, users := setupRepos(t)
	user := seedUser(t, users, 7)
	gw := &fakeGateway{}
	svc := application.NewPublisherService(casts, users, gw, application.PublisherOptions{})

	cast := seedDueCast(t, casts, user.ID, "once", time.Now().UTC().Add(-time.Minute), domain.CastPriorityNormal)

	first, err := svc.PublishOne(context.Background(), cast.ID)
	if err != nil {
		t.Fatalf("first attempt failed: %v", err)
	}
	if first.Result != application.AttemptSucceeded {
		t.Fatalf("expected success, got %s (%s)", first.Result, first.Reason)
	}

	second, err := svc.PublishOne(context.Background(), cast.ID)
	if err != nil {
		t.Fatalf("second attempt errored: %v", err)
	}
	if second.Result != application.AttemptSkipped {
		t.Fatalf("expected skip, got %s", second.Result)
	}
	if gw.callCount() != 1 {
		t.Fatalf("expected exactly 1 gateway call, got %d", gw.callCount())
	}
}

func TestPublishOneSkipsCancelledWithoutGatewayCall(t *testing.T) {
	casts, users := setupRepos(t)
	user := seedUser(t, users, 7)
	gw := &fakeGateway{}
	svc := application.NewPublisherService(casts, users, gw, application.PublisherOptions{})
	ctx := context.Background()

	cast := seedDueCast(t, casts, user.ID, "cancelled", time.Now().UTC().Add(-time.Minute), domain.CastPriorityNormal)
	if ok, _ := casts.Cancel(ctx, cast.ID); !ok {
		t.Fatal("cancel failed")
	}

	outcome, err := svc.PublishOne(ctx, cast.ID)
	if err != nil {
		t.Fatalf("PublishOne errored: %v", err)
	}
	if outcome.Result != application.AttemptSkipped {
		t.Fatalf("expected skip, got %s", outcome.Result)
	}
	if gw.callCount() != 0 {
		t.Fatalf("expected no gateway calls, got %d", gw.callCount())
	}

	stored, _ := casts.GetByID(ctx, cast.ID)
	if stored.Status != domain.CastStatusCancelled {
		t.Errorf("cancelled cast must stay CANCELLED, got %s", stored.Status)
	}
}

func TestPublishOneMissingOwnerFails(t *testing.T) {
	casts, users := setupRepos(t)
	gw := &fakeGateway{}
	svc := application.NewPublisherService(casts, users, gw, application.PublisherOptions{})
	ctx := context.Background()

	// Owner row never created.
	cast := seedDueCast(t, casts, "ghost-user", "orphan", time.Now().UTC().Add(-time.Minute), domain.CastPriorityNormal)

	outcome, err := svc.PublishOne(ctx, cast.ID)
	if err != nil {
		t.Fatalf("PublishOne errored: %v", err)
	}
	if outcome.Result != application.AttemptFailed {
		t.Fatalf("expected failure, got %s", outcome.Result)
	}
	if gw.callCount() != 0 {
		t.Fatalf("expected no gateway calls, got %d", gw.callCount())
	}

	stored, _ := casts.GetByID(ctx, cast.ID)
	if stored.Status != domain.CastStatusFailed {
		t.Errorf("expected FAILED, got %s", stored.Status)
	}
	if stored.RetryCount != 1 {
		t.Errorf("expected retry count 1, got %d", stored.RetryCount)
	}
}

func TestFailedCastNeedsExplicitRetry(t *testing.T) {
	casts, users := setupRepos(t)
	user := seedUser(t, users, 7)
	gw := &fakeGateway{
		fn: func(string) domain.PublishResult {
			return domain.PublishResult{Error: "rate limited"}
		},
	}
	publisher := application.NewPublisherService(casts, users, gw, application.PublisherOptions{})
	scheduler := application.NewSchedulerService(casts, users)
	ctx := context.Background()

	cast := seedDueCast(t, casts, user.ID, "retry me", time.Now().UTC().Add(-time.Minute), domain.CastPriorityNormal)

	if _, err := publisher.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}

	// A second run must not pick the failed cast back up.
	summary, err := publisher.RunOnce(ctx)
	if err != nil {
		t.Fatalf("second RunOnce failed: %v", err)
	}
	if summary.Total != 0 {
		t.Fatalf("expected empty second run, got %+v", summary)
	}
	if gw.callCount() != 1 {
		t.Fatalf("expected 1 gateway call, got %d", gw.callCount())
	}

	requeued, err := scheduler.Retry(ctx, cast.ID, user.ID, time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if requeued.Status != domain.CastStatusPending {
		t.Fatalf("expected PENDING after retry, got %s", requeued.Status)
	}
}
