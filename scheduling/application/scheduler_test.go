package application_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	domainCast "github.com/castline/castline/domains/cast"
	pkgError "github.com/castline/castline/pkg/error"
	"github.com/castline/castline/scheduling/application"
	"github.com/castline/castline/scheduling/domain"
	"github.com/castline/castline/scheduling/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRepos(t *testing.T) (*repository.CastGormRepository, *repository.UserGormRepository) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	casts := repository.NewCastGormRepository(db)
	users := repository.NewUserGormRepository(db)
	if err := casts.Init(context.Background()); err != nil {
		t.Fatalf("failed to init cast schema: %v", err)
	}
	if err := users.Init(context.Background()); err != nil {
		t.Fatalf("failed to init user schema: %v", err)
	}
	return casts, users
}

func seedUser(t *testing.T, users *repository.UserGormRepository, fid int64) domain.User {
	t.Helper()
	user, err := users.Upsert(context.Background(), domain.User{
		FID:        fid,
		Username:   "tester",
		SignerUUID: "7f9460f8-5e29-4f29-8bc9-2b83c1f2a8d1",
	})
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func validRequest() domainCast.ScheduleRequest {
	return domainCast.ScheduleRequest{
		Content:     "gm farcaster",
		ScheduledAt: time.Now().UTC().Add(time.Hour),
	}
}

func TestScheduleCreatesPendingCast(t *testing.T) {
	casts, users := setupRepos(t)
	user := seedUser(t, users, 7)
	svc := application.NewSchedulerService(casts, users)

	created, err := svc.Schedule(context.Background(), user.ID, validRequest())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if created.Status != domain.CastStatusPending {
		t.Errorf("expected PENDING, got %s", created.Status)
	}
	if created.Priority != domain.CastPriorityNormal {
		t.Errorf("expected priority to default to NORMAL, got %s", created.Priority)
	}
	if created.RetryCount != 0 {
		t.Errorf("expected retry count 0, got %d", created.RetryCount)
	}

	stored, err := casts.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("failed to get cast: %v", err)
	}
	if stored.UserID != user.ID {
		t.Errorf("expected owner %s, got %s", user.ID, stored.UserID)
	}
}

func TestScheduleRejectsNonFutureTime(t *testing.T) {
	casts, users := setupRepos(t)
	user := seedUser(t, users, 7)
	svc := application.NewSchedulerService(casts, users)

	for _, at := range []time.Time{
		time.Now().UTC().Add(-time.Minute),
		time.Now().UTC(),
	} {
		req := validRequest()
		req.ScheduledAt = at
		_, err := svc.Schedule(context.Background(), user.ID, req)

		var timingErr pkgError.InvalidTimingError
		if !errors.As(err, &timingErr) {
			t.Fatalf("scheduled at %s: expected InvalidTimingError, got %v", at, err)
		}
	}
}

func TestScheduleContentLengthBoundary(t *testing.T) {
	casts, users := setupRepos(t)
	user := seedUser(t, users, 7)
	svc := application.NewSchedulerService(casts, users)

	atLimit := validRequest()
	atLimit.Content = strings.Repeat("a", 320)
	if _, err := svc.Schedule(context.Background(), user.ID, atLimit); err != nil {
		t.Fatalf("320 characters should be accepted, got %v", err)
	}

	// Multi-byte runes still count as one character each.
	multiByte := validRequest()
	multiByte.Content = strings.Repeat("é", 320)
	if _, err := svc.Schedule(context.Background(), user.ID, multiByte); err != nil {
		t.Fatalf("320 multi-byte characters should be accepted, got %v", err)
	}

	overLimit := validRequest()
	overLimit.Content = strings.Repeat("a", 321)
	_, err := svc.Schedule(context.Background(), user.ID, overLimit)
	var tooLong pkgError.ContentTooLongError
	if !errors.As(err, &tooLong) {
		t.Fatalf("expected ContentTooLongError, got %v", err)
	}
}

func TestScheduleRejectsUnknownUser(t *testing.T) {
	casts, users := setupRepos(t)
	svc := application.NewSchedulerService(casts, users)

	_, err := svc.Schedule(context.Background(), "no-such-user", validRequest())
	var notFound pkgError.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestScheduleBatchIsolatesFailures(t *testing.T) {
	casts, users := setupRepos(t)
	user := seedUser(t, users, 7)
	svc := application.NewSchedulerService(casts, users)

	bad := validRequest()
	bad.ScheduledAt = time.Now().UTC().Add(-time.Hour)

	results := svc.ScheduleBatch(context.Background(), user.ID, domainCast.BatchScheduleRequest{
		Casts: []domainCast.ScheduleRequest{validRequest(), bad, validRequest()},
	})

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Cast == nil || results[2].Cast == nil {
		t.Fatal("expected first and third items to be created")
	}
	if results[1].Cast != nil {
		t.Fatal("expected second item to be rejected")
	}
	if results[1].Code != "INVALID_TIMING_ERROR" {
		t.Errorf("unexpected error code: %q", results[1].Code)
	}
}

func TestUpdateOnlyAllowedWhilePending(t *testing.T) {
	casts, users := setupRepos(t)
	user := seedUser(t, users, 7)
	svc := application.NewSchedulerService(casts, users)

	created, err := svc.Schedule(context.Background(), user.ID, validRequest())
	if err != nil {
		t.Fatalf("schedule failed: %v", err)
	}

	newContent := "edited"
	updated, err := svc.Update(context.Background(), created.ID, user.ID, domainCast.UpdateRequest{Content: &newContent})
	if err != nil {
		t.Fatalf("update of pending cast failed: %v", err)
	}
	if updated.Content != "edited" {
		t.Errorf("expected content 'edited', got %q", updated.Content)
	}

	if err := svc.Cancel(context.Background(), created.ID, user.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	_, err = svc.Update(context.Background(), created.ID, user.ID, domainCast.UpdateRequest{Content: &newContent})
	var stateErr pkgError.InvalidStateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected InvalidStateError after cancellation, got %v", err)
	}
}

func TestCancelPublishedCastRejected(t *testing.T) {
	casts, users := setupRepos(t)
	user := seedUser(t, users, 7)
	svc := application.NewSchedulerService(casts, users)

	created, err := svc.Schedule(context.Background(), user.ID, validRequest())
	if err != nil {
		t.Fatalf("schedule failed: %v", err)
	}

	ctx := context.Background()
	if ok, _ := casts.Claim(ctx, created.ID); !ok {
		t.Fatal("claim failed")
	}
	if ok, _ := casts.MarkPublished(ctx, created.ID, "0xabc", time.Now().UTC()); !ok {
		t.Fatal("mark published failed")
	}

	err = svc.Cancel(ctx, created.ID, user.ID)
	var stateErr pkgError.InvalidStateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected InvalidStateError, got %v", err)
	}

	stored, _ := casts.GetByID(ctx, created.ID)
	if stored.Status != domain.CastStatusPublished {
		t.Errorf("published cast must stay PUBLISHED, got %s", stored.Status)
	}
}

func TestDeleteGuards(t *testing.T) {
	casts, users := setupRepos(t)
	user := seedUser(t, users, 7)
	svc := application.NewSchedulerService(casts, users)
	ctx := context.Background()

	published, _ := svc.Schedule(ctx, user.ID, validRequest())
	casts.Claim(ctx, published.ID)
	casts.MarkPublished(ctx, published.ID, "0xabc", time.Now().UTC())

	err := svc.Delete(ctx, published.ID, user.ID)
	var stateErr pkgError.InvalidStateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected InvalidStateError deleting a published cast, got %v", err)
	}

	failed, _ := svc.Schedule(ctx, user.ID, validRequest())
	casts.Claim(ctx, failed.ID)
	casts.MarkFailed(ctx, failed.ID, "boom")

	if err := svc.Delete(ctx, failed.ID, user.ID); err != nil {
		t.Fatalf("expected delete of a failed cast to succeed, got %v", err)
	}
}

func TestRetryRequeuesFailedCast(t *testing.T) {
	casts, users := setupRepos(t)
	user := seedUser(t, users, 7)
	svc := application.NewSchedulerService(casts, users)
	ctx := context.Background()

	created, _ := svc.Schedule(ctx, user.ID, validRequest())

	// Retrying a pending cast is an invalid transition.
	_, err := svc.Retry(ctx, created.ID, user.ID, time.Now().UTC().Add(time.Hour))
	var stateErr pkgError.InvalidStateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected InvalidStateError, got %v", err)
	}

	casts.Claim(ctx, created.ID)
	casts.MarkFailed(ctx, created.ID, "gateway exploded")

	requeued, err := svc.Retry(ctx, created.ID, user.ID, time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if requeued.Status != domain.CastStatusPending {
		t.Errorf("expected PENDING, got %s", requeued.Status)
	}
	if requeued.ErrorMessage != "" {
		t.Errorf("expected error message cleared, got %q", requeued.ErrorMessage)
	}
	if requeued.RetryCount != 1 {
		t.Errorf("expected retry count preserved at 1, got %d", requeued.RetryCount)
	}
}

func TestOwnershipEnforced(t *testing.T) {
	casts, users := setupRepos(t)
	owner := seedUser(t, users, 7)
	other := seedUser(t, users, 8)
	svc := application.NewSchedulerService(casts, users)
	ctx := context.Background()

	created, err := svc.Schedule(ctx, owner.ID, validRequest())
	if err != nil {
		t.Fatalf("schedule failed: %v", err)
	}

	err = svc.Cancel(ctx, created.ID, other.ID)
	var forbidden pkgError.ForbiddenError
	if !errors.As(err, &forbidden) {
		t.Fatalf("expected ForbiddenError, got %v", err)
	}
}
