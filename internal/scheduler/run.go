package scheduler

import (
	"context"
	"sort"
	"time"

	obscontext "github.com/smallbiznis/maidbook/internal/observability/context"
	obslogger "github.com/smallbiznis/maidbook/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/maidbook/internal/observability/metrics"
	"go.uber.org/zap"
)

// jobRun is the bookkeeping for one execution of a job. It rides on the
// context so a job invoked by runJob and a job invoked directly share it.
type jobRun struct {
	job       string
	runID     string
	startedAt time.Time
	processed map[string]int
	failures  int
}

type jobRunKey struct{}

func (r *jobRun) failed() {
	if r != nil {
		r.failures++
	}
}

// beginRun attaches a run to ctx unless one is already there. owner reports
// whether this call created it and so must log its start and finish.
func (s *Scheduler) beginRun(ctx context.Context, job string) (context.Context, *jobRun, bool) {
	if ctx == nil {
		ctx = context.Background()
	}
	if run, ok := ctx.Value(jobRunKey{}).(*jobRun); ok && run != nil {
		return ctx, run, false
	}
	run := &jobRun{
		job:       job,
		runID:     s.genID.Generate().String(),
		startedAt: s.clock.Now(),
		processed: map[string]int{},
	}
	ctx = context.WithValue(ctx, jobRunKey{}, run)
	ctx = obscontext.WithActor(ctx, "system", "scheduler")
	s.logger(ctx).Info("scheduler.job.start",
		zap.String("job", run.job),
		zap.String("run_id", run.runID),
	)
	return ctx, run, true
}

func (s *Scheduler) finishRun(ctx context.Context, run *jobRun) {
	if run == nil {
		return
	}
	fields := []zap.Field{
		zap.String("job", run.job),
		zap.String("run_id", run.runID),
		zap.Int64("duration_ms", s.clock.Now().Sub(run.startedAt).Milliseconds()),
		zap.Int("error_count", run.failures),
	}
	resources := make([]string, 0, len(run.processed))
	for resource := range run.processed {
		resources = append(resources, resource)
	}
	sort.Strings(resources)
	for _, resource := range resources {
		fields = append(fields, zap.Int(resource+"_processed", run.processed[resource]))
	}

	log := s.logger(ctx)
	if run.failures > 0 {
		log.Warn("scheduler.job.finish", fields...)
		return
	}
	log.Info("scheduler.job.finish", fields...)
}

// recordProcessed counts rows a job touched, on the run and in metrics.
func (s *Scheduler) recordProcessed(run *jobRun, resource string, count int) {
	if count <= 0 {
		return
	}
	if run != nil {
		run.processed[resource] += count
	}
	s.metrics.AddBatchProcessed(run.jobName(), resource, count)
}

func (r *jobRun) jobName() string {
	if r == nil {
		return ""
	}
	return r.job
}

func (s *Scheduler) runFailed(ctx context.Context, run *jobRun, msg string, err error, fields ...zap.Field) {
	if err == nil {
		return
	}
	run.failed()
	base := []zap.Field{
		zap.String("job", run.jobName()),
		zap.String("reason", obsmetrics.ClassifySchedulerJobReason(err)),
		zap.Error(err),
	}
	s.logger(ctx).Error(msg, append(base, fields...)...)
}

func (s *Scheduler) logger(ctx context.Context) *zap.Logger {
	return obslogger.WithContext(ctx, s.log)
}
