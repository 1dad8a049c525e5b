package batch

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/parcel-verify/internal/ingest"
	"github.com/sells-group/parcel-verify/internal/metrics"
	"github.com/sells-group/parcel-verify/internal/parcel"
	"github.com/sells-group/parcel-verify/internal/submission"
	"github.com/sells-group/parcel-verify/internal/validate"
)

// Outcome classifies a manifest item.
type Outcome string

// Item outcomes.
const (
	OutcomeAccepted  Outcome = "accepted"
	OutcomeRejected  Outcome = "rejected"
	OutcomeMalformed Outcome = "malformed"
	OutcomeFailed    Outcome = "failed"
)

// Result is the verification outcome for one manifest item.
type Result struct {
	Item
	Outcome      Outcome  `json:"outcome"`
	CanonicalKey string   `json:"canonical_key,omitempty"`
	Score        int      `json:"score"`
	Errors       []string `json:"errors"`
	Warnings     []string `json:"warnings"`
}

// Report summarizes a batch run. Results keep manifest order.
type Report struct {
	RunID     string        `json:"run_id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
	Accepted  int64         `json:"accepted"`
	Rejected  int64         `json:"rejected"`
	Malformed int64         `json:"malformed"`
	Failed    int64         `json:"failed"`
	Results   []Result      `json:"results"`
}

// Run verifies every item with at most concurrency items in flight. A failed
// item is recorded in its Result and never aborts the batch; only context
// cancellation does.
func Run(ctx context.Context, items []Item, cfg parcel.VerificationConfig, concurrency int) (*Report, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	report := &Report{
		RunID:     uuid.New().String(),
		StartedAt: time.Now().UTC(),
		Results:   make([]Result, len(items)),
	}
	log := zap.L().With(zap.String("run_id", report.RunID))
	log.Info("batch: processing manifest",
		zap.Int("items", len(items)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var accepted, rejected, malformed, failed atomic.Int64

	for i, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			res := verifyItem(item, cfg)
			report.Results[i] = res

			switch res.Outcome {
			case OutcomeAccepted:
				accepted.Add(1)
			case OutcomeRejected:
				rejected.Add(1)
			case OutcomeMalformed:
				malformed.Add(1)
			default:
				failed.Add(1)
				log.Warn("batch: item failed",
					zap.Int("line", item.Line),
					zap.Strings("errors", res.Errors),
				)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "batch: run")
	}

	report.Accepted = accepted.Load()
	report.Rejected = rejected.Load()
	report.Malformed = malformed.Load()
	report.Failed = failed.Load()
	report.Duration = time.Since(report.StartedAt)

	log.Info("batch: complete",
		zap.Int64("accepted", report.Accepted),
		zap.Int64("rejected", report.Rejected),
		zap.Int64("malformed", report.Malformed),
		zap.Int64("failed", report.Failed),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

func verifyItem(item Item, cfg parcel.VerificationConfig) Result {
	res := Result{Item: item, Errors: []string{}, Warnings: []string{}}

	adminDoc, err := ingest.Administrative(item.Administrative)
	if err != nil {
		return failedResult(res, err)
	}
	surveyDoc, err := ingest.Survey(item.Survey)
	if err != nil {
		return failedResult(res, err)
	}

	draft, err := submission.ProcessDocuments(adminDoc, surveyDoc, cfg)
	var (
		structural *validate.StructuralError
		rejected   *submission.RejectedError
	)
	switch {
	case err == nil:
		res.Outcome = OutcomeAccepted
		res.CanonicalKey = draft.CanonicalKey
		res.Score = draft.Score
		res.Warnings = draft.Verification.Warnings
	case errors.As(err, &rejected):
		res.Outcome = OutcomeRejected
		res.CanonicalKey = rejected.Result.CanonicalKey
		res.Score = rejected.Result.Score
		res.Errors = rejected.Result.Errors
		res.Warnings = rejected.Result.Warnings
	case errors.As(err, &structural):
		res.Outcome = OutcomeMalformed
		res.Errors = []string{structural.Error()}
	default:
		return failedResult(res, err)
	}
	return res
}

func failedResult(res Result, err error) Result {
	metrics.ObserveError()
	res.Outcome = OutcomeFailed
	res.Errors = []string{err.Error()}
	return res
}
