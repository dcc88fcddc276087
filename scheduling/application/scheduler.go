package application

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	domainCast "github.com/castline/castline/domains/cast"
	pkgError "github.com/castline/castline/pkg/error"
	"github.com/castline/castline/scheduling/domain"
	"github.com/castline/castline/validations"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SchedulerService turns caller intent into valid persisted casts, or rejects
// it. It never talks to the publish gateway.
type SchedulerService struct {
	casts domain.CastRepository
	users domain.UserRepository
}

func NewSchedulerService(casts domain.CastRepository, users domain.UserRepository) *SchedulerService {
	return &SchedulerService{
		casts: casts,
		users: users,
	}
}

// Schedule validates the request and persists a new PENDING cast.
func (s *SchedulerService) Schedule(ctx context.Context, userID string, request domainCast.ScheduleRequest) (domain.ScheduledCast, error) {
	if userID == "" {
		return domain.ScheduledCast{}, pkgError.ValidationError("user id is required")
	}
	if err := validations.ValidateScheduleCast(ctx, request); err != nil {
		return domain.ScheduledCast{}, err
	}
	if err := checkTiming(request.ScheduledAt); err != nil {
		return domain.ScheduledCast{}, err
	}
	if err := checkContent(request.Content); err != nil {
		return domain.ScheduledCast{}, err
	}

	priority := domain.CastPriority(request.Priority)
	if priority == "" {
		priority = domain.CastPriorityNormal
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ScheduledCast{}, pkgError.NotFoundError("user not found")
		}
		return domain.ScheduledCast{}, pkgError.InternalServerError(err.Error())
	}

	now := time.Now().UTC()
	cast := domain.ScheduledCast{
		ID:          uuid.NewString(),
		UserID:      userID,
		Content:     request.Content,
		MediaURLs:   request.MediaURLs,
		ChannelKey:  request.ChannelKey,
		ThreadID:    request.ThreadID,
		ThreadOrder: request.ThreadOrder,
		ScheduledAt: request.ScheduledAt.UTC(),
		Priority:    priority,
		Status:      domain.CastStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.casts.Create(ctx, cast); err != nil {
		logrus.WithError(err).Error("[SCHEDULER] Failed to persist scheduled cast")
		return domain.ScheduledCast{}, pkgError.InternalServerError(err.Error())
	}

	logrus.WithFields(logrus.Fields{
		"cast_id":      cast.ID,
		"user_id":      userID,
		"scheduled_at": cast.ScheduledAt,
		"priority":     cast.Priority,
	}).Info("[SCHEDULER] Cast scheduled")

	return cast, nil
}

// ScheduleBatch applies Schedule to each item independently. One malformed
// item never blocks the others; outcomes are reported per item.
func (s *SchedulerService) ScheduleBatch(ctx context.Context, userID string, request domainCast.BatchScheduleRequest) []domainCast.BatchItemResult {
	results := make([]domainCast.BatchItemResult, len(request.Casts))
	for i, item := range request.Casts {
		created, err := s.Schedule(ctx, userID, item)
		if err != nil {
			results[i] = domainCast.BatchItemResult{
				Index: i,
				Code:  errCode(err),
				Error: err.Error(),
			}
			continue
		}
		cast := created
		results[i] = domainCast.BatchItemResult{Index: i, Cast: &cast}
	}
	return results
}

// Update applies partial edits to a PENDING cast owned by userID.
func (s *SchedulerService) Update(ctx context.Context, castID, userID string, request domainCast.UpdateRequest) (domain.ScheduledCast, error) {
	existing, err := s.getOwned(ctx, castID, userID)
	if err != nil {
		return domain.ScheduledCast{}, err
	}
	if existing.Status != domain.CastStatusPending {
		return domain.ScheduledCast{}, pkgError.InvalidStateError("only pending casts can be updated")
	}
	if err := validations.ValidateUpdateCast(ctx, request); err != nil {
		return domain.ScheduledCast{}, err
	}

	if request.ScheduledAt != nil {
		if err := checkTiming(*request.ScheduledAt); err != nil {
			return domain.ScheduledCast{}, err
		}
		existing.ScheduledAt = request.ScheduledAt.UTC()
	}
	if request.Content != nil {
		if err := checkContent(*request.Content); err != nil {
			return domain.ScheduledCast{}, err
		}
		existing.Content = *request.Content
	}
	if request.Priority != nil {
		existing.Priority = domain.CastPriority(*request.Priority)
	}
	if request.MediaURLs != nil {
		existing.MediaURLs = *request.MediaURLs
	}
	if request.ChannelKey != nil {
		existing.ChannelKey = *request.ChannelKey
	}

	updated, err := s.casts.UpdatePending(ctx, existing)
	if err != nil {
		return domain.ScheduledCast{}, pkgError.InternalServerError(err.Error())
	}
	if !updated {
		// The cast left PENDING between our read and the guarded write.
		return domain.ScheduledCast{}, pkgError.InvalidStateError("cast is no longer pending")
	}

	existing.UpdatedAt = time.Now().UTC()
	return existing, nil
}

// Cancel transitions a PENDING cast to CANCELLED.
func (s *SchedulerService) Cancel(ctx context.Context, castID, userID string) error {
	existing, err := s.getOwned(ctx, castID, userID)
	if err != nil {
		return err
	}
	if existing.Status != domain.CastStatusPending {
		return pkgError.InvalidStateError("only pending casts can be cancelled")
	}

	cancelled, err := s.casts.Cancel(ctx, castID)
	if err != nil {
		return pkgError.InternalServerError(err.Error())
	}
	if !cancelled {
		return pkgError.InvalidStateError("cast is no longer pending")
	}

	logrus.WithField("cast_id", castID).Info("[SCHEDULER] Cast cancelled")
	return nil
}

// Delete removes a cast. Only PENDING and FAILED casts may be deleted;
// anything published or mid-flight is kept.
func (s *SchedulerService) Delete(ctx context.Context, castID, userID string) error {
	existing, err := s.getOwned(ctx, castID, userID)
	if err != nil {
		return err
	}
	if existing.Status != domain.CastStatusPending && existing.Status != domain.CastStatusFailed {
		return pkgError.InvalidStateError("only pending or failed casts can be deleted")
	}

	deleted, err := s.casts.Delete(ctx, castID)
	if err != nil {
		return pkgError.InternalServerError(err.Error())
	}
	if !deleted {
		return pkgError.InvalidStateError("cast changed state before deletion")
	}

	logrus.WithField("cast_id", castID).Info("[SCHEDULER] Cast deleted")
	return nil
}

// Retry re-enqueues a FAILED cast with a new future publish time. This is the
// only path back to PENDING; the publisher never re-enqueues on its own.
func (s *SchedulerService) Retry(ctx context.Context, castID, userID string, scheduledAt time.Time) (domain.ScheduledCast, error) {
	existing, err := s.getOwned(ctx, castID, userID)
	if err != nil {
		return domain.ScheduledCast{}, err
	}
	if existing.Status != domain.CastStatusFailed {
		return domain.ScheduledCast{}, pkgError.InvalidStateError("only failed casts can be retried")
	}
	if err := checkTiming(scheduledAt); err != nil {
		return domain.ScheduledCast{}, err
	}

	requeued, err := s.casts.Requeue(ctx, castID, scheduledAt.UTC())
	if err != nil {
		return domain.ScheduledCast{}, pkgError.InternalServerError(err.Error())
	}
	if !requeued {
		return domain.ScheduledCast{}, pkgError.InvalidStateError("cast is no longer failed")
	}

	logrus.WithFields(logrus.Fields{
		"cast_id":      castID,
		"scheduled_at": scheduledAt.UTC(),
	}).Info("[SCHEDULER] Failed cast re-enqueued")

	return s.casts.GetByID(ctx, castID)
}

func (s *SchedulerService) ListByUser(ctx context.Context, userID string, opts domain.ListOptions) ([]domain.ScheduledCast, error) {
	casts, err := s.casts.FindByUser(ctx, userID, opts)
	if err != nil {
		return nil, pkgError.InternalServerError(err.Error())
	}
	return casts, nil
}

func (s *SchedulerService) Stats(ctx context.Context, userID string) (domain.StatusCounts, error) {
	counts, err := s.casts.CountByStatus(ctx, userID)
	if err != nil {
		return domain.StatusCounts{}, pkgError.InternalServerError(err.Error())
	}
	return counts, nil
}

func (s *SchedulerService) getOwned(ctx context.Context, castID, userID string) (domain.ScheduledCast, error) {
	existing, err := s.casts.GetByID(ctx, castID)
	if err != nil {
		if errors.Is(err, domain.ErrCastNotFound) {
			return domain.ScheduledCast{}, pkgError.NotFoundError("cast not found")
		}
		return domain.ScheduledCast{}, pkgError.InternalServerError(err.Error())
	}
	if existing.UserID != userID {
		return domain.ScheduledCast{}, pkgError.ForbiddenError("cast belongs to another user")
	}
	return existing, nil
}

func checkTiming(scheduledAt time.Time) error {
	if !scheduledAt.After(time.Now().UTC()) {
		return pkgError.InvalidTimingError("scheduled time must be in the future")
	}
	return nil
}

func checkContent(content string) error {
	if utf8.RuneCountInString(content) > domain.MaxCastLength {
		return pkgError.ContentTooLongError("cast content exceeds 320 character limit")
	}
	return nil
}

func errCode(err error) string {
	var generic pkgError.GenericError
	if errors.As(err, &generic) {
		return generic.ErrCode()
	}
	return "INTERNAL_SERVER_ERROR"
}
