package services

import (
	"context"
	"errors"
	"time"

	"github.com/juju/clock"
	"github.com/juju/retry"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/soundshare-api/internal/cascade"
	"github.com/yukikurage/soundshare-api/internal/models"
)

// Cascader soft-deletes a root and its owned subtree.
type Cascader interface {
	Cascade(ctx context.Context, root cascade.Node) (*cascade.Report, error)
}

// CascadeRunner retries cascades that failed with a transient storage error.
// Every other failure is returned after the first attempt.
type CascadeRunner struct {
	cascader Cascader
	attempts int
	delay    time.Duration
	clock    clock.Clock
	log      logrus.FieldLogger
}

// NewCascadeRunner creates a CascadeRunner. attempts below one means one.
func NewCascadeRunner(cascader Cascader, attempts int, delay time.Duration, log logrus.FieldLogger) *CascadeRunner {
	if attempts < 1 {
		attempts = 1
	}
	if delay <= 0 {
		delay = time.Millisecond
	}
	return &CascadeRunner{
		cascader: cascader,
		attempts: attempts,
		delay:    delay,
		clock:    clock.WallClock,
		log:      log,
	}
}

// WithClock replaces the clock used between attempts.
func (r *CascadeRunner) WithClock(c clock.Clock) *CascadeRunner {
	r.clock = c
	return r
}

// Run cascades from root.
func (r *CascadeRunner) Run(ctx context.Context, root cascade.Node) (*cascade.Report, error) {
	var (
		report  *cascade.Report
		lastErr error
	)

	err := retry.Call(retry.CallArgs{
		Func: func() error {
			report, lastErr = r.cascader.Cascade(ctx, root)
			return lastErr
		},
		IsFatalError: func(err error) bool {
			return !errors.Is(err, cascade.ErrTransient)
		},
		NotifyFunc: func(err error, attempt int) {
			r.log.WithError(err).WithFields(logrus.Fields{
				"root":    root.String(),
				"attempt": attempt,
			}).Warn("cascade attempt failed, retrying")
		},
		Attempts: r.attempts,
		Delay:    r.delay,
		Clock:    r.clock,
		Stop:     ctx.Done(),
	})
	if err != nil {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, err
	}

	return report, nil
}

// RunUser cascades from the user with the given id.
func (r *CascadeRunner) RunUser(ctx context.Context, userID uint64) (*cascade.Report, error) {
	return r.Run(ctx, cascade.Node{Kind: models.KindUser, ID: userID})
}
