package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/STTM-NSU/financeel/internal/logger"
	"github.com/STTM-NSU/financeel/internal/quotes"
	"github.com/robfig/cron/v3"
)

type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type Scheduler struct {
	cron *cron.Cron
	ctx  context.Context

	logger logger.Logger
}

// New creates a scheduler whose jobs run with ctx. Schedules use the standard five field
// cron syntax or descriptors like "@every 15m".
func New(ctx context.Context, logger logger.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		ctx:    ctx,
		logger: logger.With("component", "scheduler"),
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Infof("scheduler started")
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Infof("scheduler stopped")
}

func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() { s.run(job) })
	if err != nil {
		return fmt.Errorf("%w: can't schedule %s at %q", err, job.Name(), schedule)
	}
	s.logger.Infof("job %s registered at %q", job.Name(), schedule)
	return nil
}

func (s *Scheduler) RunNow(job Job) {
	s.run(job)
}

func (s *Scheduler) run(job Job) {
	if s.ctx.Err() != nil {
		return
	}
	s.logger.Debugf("running %s", job.Name())
	if err := job.Run(s.ctx); err != nil {
		if errors.Is(err, quotes.ErrRefreshInProgress) {
			s.logger.Infof("%s skipped: %s", job.Name(), err)
			return
		}
		s.logger.Errorf("%s: job %s failed", err, job.Name())
		return
	}
	s.logger.Debugf("%s completed", job.Name())
}

type Refresher interface {
	Refresh(ctx context.Context) error
}

type RefreshJob struct {
	r Refresher
}

func NewRefreshJob(r Refresher) *RefreshJob {
	return &RefreshJob{r: r}
}

func (j *RefreshJob) Name() string { return "refresh-prices" }

func (j *RefreshJob) Run(ctx context.Context) error {
	return j.r.Refresh(ctx)
}
