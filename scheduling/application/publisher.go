package application

import (
	"context"
	"errors"
	"sync"
	"time"

	pkgError "github.com/castline/castline/pkg/error"
	"github.com/castline/castline/scheduling/domain"
	"github.com/sirupsen/logrus"
)

type AttemptResult string

const (
	AttemptSucceeded AttemptResult = "succeeded"
	AttemptFailed    AttemptResult = "failed"
	AttemptSkipped   AttemptResult = "skipped" // state changed between selection and claim
)

// PublishOutcome is the per-cast result of one publish attempt.
type PublishOutcome struct {
	CastID   string        `json:"cast_id"`
	Result   AttemptResult `json:"result"`
	CastHash string        `json:"cast_hash,omitempty"`
	Reason   string        `json:"reason,omitempty"`
}

// RunSummary aggregates one publisher run. It is advisory only; the
// authoritative state is each cast's persisted status.
type RunSummary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
	Skipped    int `json:"skipped"`
}

// PublisherOptions bounds a run. Zero values fall back to defaults.
type PublisherOptions struct {
	BatchLimit     int
	Concurrency    int
	PublishTimeout time.Duration
}

const (
	defaultBatchLimit     = 100
	defaultConcurrency    = 8
	defaultPublishTimeout = 15 * time.Second
)

// PublisherService moves due casts from PENDING to a terminal-or-retryable
// outcome. It is stateless and safe to invoke from overlapping triggers: the
// repository claim makes each cast's transition exclusive.
type PublisherService struct {
	casts   domain.CastRepository
	users   domain.UserRepository
	gateway domain.PublishGateway

	batchLimit     int
	concurrency    int
	publishTimeout time.Duration
}

func NewPublisherService(casts domain.CastRepository, users domain.UserRepository, gateway domain.PublishGateway, opts PublisherOptions) *PublisherService {
	if opts.BatchLimit <= 0 {
		opts.BatchLimit = defaultBatchLimit
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = defaultPublishTimeout
	}
	return &PublisherService{
		casts:          casts,
		users:          users,
		gateway:        gateway,
		batchLimit:     opts.BatchLimit,
		concurrency:    opts.Concurrency,
		publishTimeout: opts.PublishTimeout,
	}
}

// PublishOne attempts to publish a single cast exactly once.
//
// The status re-check plus the claim turn a concurrently cancelled or
// already-processed cast into a skipped no-op without touching the gateway.
func (p *PublisherService) PublishOne(ctx context.Context, castID string) (PublishOutcome, error) {
	cast, err := p.casts.GetByID(ctx, castID)
	if err != nil {
		if errors.Is(err, domain.ErrCastNotFound) {
			return PublishOutcome{}, pkgError.NotFoundError("cast not found")
		}
		return PublishOutcome{}, pkgError.InternalServerError(err.Error())
	}

	if cast.Status != domain.CastStatusPending {
		logrus.WithFields(logrus.Fields{
			"cast_id": castID,
			"status":  cast.Status,
		}).Debug("[PUBLISHER] Skipping cast, state changed since selection")
		return PublishOutcome{
			CastID: castID,
			Result: AttemptSkipped,
			Reason: "cast status is " + string(cast.Status) + ", expected PENDING",
		}, nil
	}

	claimed, err := p.casts.Claim(ctx, castID)
	if err != nil {
		return PublishOutcome{}, pkgError.InternalServerError(err.Error())
	}
	if !claimed {
		// A concurrent run or an owner action won the race.
		logrus.WithField("cast_id", castID).Debug("[PUBLISHER] Claim lost, skipping cast")
		return PublishOutcome{
			CastID: castID,
			Result: AttemptSkipped,
			Reason: "cast was claimed by a concurrent run",
		}, nil
	}

	owner, err := p.users.GetByID(ctx, cast.UserID)
	if err != nil {
		return p.recordFailure(ctx, castID, "publishing credential unavailable: "+err.Error()), nil
	}

	gwCtx, cancel := context.WithTimeout(ctx, p.publishTimeout)
	defer cancel()

	result := p.gateway.PublishCast(gwCtx, owner.SignerUUID, cast.Content, domain.PublishOptions{
		Embeds:    cast.MediaURLs,
		ChannelID: cast.ChannelKey,
		Parent:    cast.ThreadID,
	})

	if !result.Success {
		reason := result.Error
		if reason == "" {
			reason = "unknown gateway error"
		}
		return p.recordFailure(ctx, castID, reason), nil
	}

	publishedAt := time.Now().UTC()
	recorded, err := p.casts.MarkPublished(ctx, castID, result.CastHash, publishedAt)
	if err != nil || !recorded {
		// The gateway call succeeded but the local record-write did not.
		// The cast stays in PROCESSING for manual reconciliation; logging the
		// hash is what makes that reconciliation possible.
		logrus.WithError(err).WithFields(logrus.Fields{
			"cast_id":   castID,
			"cast_hash": result.CastHash,
		}).Error("[PUBLISHER] Cast published but outcome not recorded, manual reconciliation required")
	} else {
		logrus.WithFields(logrus.Fields{
			"cast_id":   castID,
			"cast_hash": result.CastHash,
		}).Info("[PUBLISHER] Cast published")
	}

	return PublishOutcome{
		CastID:   castID,
		Result:   AttemptSucceeded,
		CastHash: result.CastHash,
	}, nil
}

// RunOnce snapshots the due set and attempts each cast independently. One
// cast's failure never aborts the batch or alters another cast's outcome.
func (p *PublisherService) RunOnce(ctx context.Context) (RunSummary, error) {
	due, err := p.casts.FindDue(ctx, time.Now().UTC(), p.batchLimit)
	if err != nil {
		return RunSummary{}, pkgError.InternalServerError(err.Error())
	}

	logrus.Infof("[PUBLISHER] Found %d casts due for publishing", len(due))

	outcomes := make([]PublishOutcome, len(due))
	sem := make(chan struct{}, p.concurrency)
	var wg sync.WaitGroup

	for i, cast := range due {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, castID string) {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					logrus.Errorf("[PUBLISHER] Recovered from panic publishing cast %s: %v", castID, r)
					outcomes[i] = PublishOutcome{CastID: castID, Result: AttemptFailed, Reason: "internal panic"}
				}
			}()

			outcome, err := p.PublishOne(ctx, castID)
			if err != nil {
				logrus.WithError(err).Errorf("[PUBLISHER] Publish attempt errored for cast %s", castID)
				outcomes[i] = PublishOutcome{CastID: castID, Result: AttemptFailed, Reason: err.Error()}
				return
			}
			outcomes[i] = outcome
		}(i, cast.ID)
	}
	wg.Wait()

	summary := RunSummary{Total: len(due)}
	for _, outcome := range outcomes {
		switch outcome.Result {
		case AttemptSucceeded:
			summary.Successful++
		case AttemptSkipped:
			summary.Skipped++
		default:
			summary.Failed++
		}
	}

	logrus.WithFields(logrus.Fields{
		"total":      summary.Total,
		"successful": summary.Successful,
		"failed":     summary.Failed,
		"skipped":    summary.Skipped,
	}).Info("[PUBLISHER] Run complete")

	return summary, nil
}

func (p *PublisherService) recordFailure(ctx context.Context, castID, reason string) PublishOutcome {
	recorded, err := p.casts.MarkFailed(ctx, castID, reason)
	if err != nil || !recorded {
		logrus.WithError(err).Errorf("[PUBLISHER] Failed to record failure for cast %s", castID)
	}
	logrus.WithFields(logrus.Fields{
		"cast_id": castID,
		"reason":  reason,
	}).Warn("[PUBLISHER] Cast publish failed")
	return PublishOutcome{
		CastID: castID,
		Result: AttemptFailed,
		Reason: reason,
	}
}
