package verify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/username/mgscheck/src/logger"
	"github.com/username/mgscheck/src/models"
	"github.com/username/mgscheck/src/services"
)

// Runner runs several service flows and publishes the run report. Runs
// of one Runner are serialized.
type Runner struct {
	mu          sync.Mutex
	verifier    *Verifier
	reports     services.ReportService
	notifier    services.ReportNotifier
	concurrency int
}

// NewRunner builds a runner. reports and notifier may be nil.
func NewRunner(v *Verifier, reports services.ReportService, notifier services.ReportNotifier, concurrency int) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{verifier: v, reports: reports, notifier: notifier, concurrency: concurrency}
}

// Run verifies svcs, every known service when none is given. A flow that
// fails does not stop its siblings; the returned error is only set when the
// run could not start.
func (r *Runner) Run(ctx context.Context, svcs ...models.Service) (models.RunReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(svcs) == 0 {
		svcs = models.Services
	}
	r.verifier.coverage = NewCoverage()
	report := models.RunReport{ID: uuid.NewString(), StartedAt: time.Now().UTC()}
	ctx = logger.WithRun(ctx, report.ID)
	log := logger.FromContext(ctx)

	if r.verifier.gateway.Session() == nil {
		if err := r.verifier.gateway.Login(ctx); err != nil {
			return report, fmt.Errorf("gateway login: %w", err)
		}
	}
	log.Info("Run started", "services", len(svcs), "concurrency", r.concurrency)

	results := make([]models.FlowResult, len(svcs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, svc := range svcs {
		g.Go(func() error {
			results[i] = r.verifier.Verify(gctx, svc)
			return nil
		})
	}
	_ = g.Wait()

	report.Flows = results
	report.FinishedAt = time.Now().UTC()
	cov := r.verifier.coverage.Report()
	report.Coverage = &cov

	if report.Passed() {
		log.Info("Run passed", "flows", len(results), "duration", report.FinishedAt.Sub(report.StartedAt))
	} else {
		log.Warn("Run failed", "flows", len(results), "duration", report.FinishedAt.Sub(report.StartedAt))
	}

	if r.reports != nil {
		r.reports.Put(report)
	}
	if r.notifier != nil {
		if err := r.notifier.SendRunReport(ctx, report); err != nil {
			log.Error("Failed to send run report", "error", err)
		}
	}
	return report, nil
}
