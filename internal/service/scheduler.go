package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"trading-panel/internal/strategy"
	"trading-panel/pkg/logger"

	"github.com/robfig/cron/v3"
)

// ScheduledJob binds a strategy to its polling interval.
type ScheduledJob struct {
	Strategy strategy.JobExecutionStrategy
	Interval time.Duration
}

type JobInfo struct {
	Type     strategy.JobType `json:"type"`
	Interval string           `json:"interval"`
	Next     time.Time        `json:"next,omitempty"`
	Prev     time.Time        `json:"prev,omitempty"`
}

type SchedulerService interface {
	Start(ctx context.Context) error
	Stop()
	RunJob(ctx context.Context, jobType strategy.JobType) (strategy.JobResult, error)
	Jobs() []JobInfo
}

type schedulerService struct {
	log     *logger.Logger
	cron    *cron.Cron
	grace   time.Duration
	jobs    map[strategy.JobType]ScheduledJob
	entries map[strategy.JobType]cron.EntryID

	mu        sync.Mutex
	started   bool
	jobCtx    context.Context
	cancelJob context.CancelFunc
}

func NewSchedulerService(log *logger.Logger, grace time.Duration, jobs ...ScheduledJob) SchedulerService {
	cronLog := cronLogger{log: log}
	byType := make(map[strategy.JobType]ScheduledJob, len(jobs))
	for _, job := range jobs {
		byType[job.Strategy.GetType()] = job
	}
	jobCtx, cancel := context.WithCancel(context.Background())
	return &schedulerService{
		log: log,
		cron: cron.New(
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		grace:     grace,
		jobs:      byType,
		entries:   make(map[strategy.JobType]cron.EntryID, len(jobs)),
		jobCtx:    jobCtx,
		cancelJob: cancel,
	}
}

// Start registers every job on its own timer. Jobs keep running until Stop;
// ctx only carries values such as the logger.
func (s *schedulerService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	for jobType, job := range s.jobs {
		jobType, job := jobType, job
		if job.Interval <= 0 {
			return fmt.Errorf("job %s has no interval", jobType)
		}
		id, err := s.cron.AddFunc(fmt.Sprintf("@every %s", job.Interval), func() {
			s.execute(s.jobCtx, job.Strategy)
		})
		if err != nil {
			return fmt.Errorf("failed to schedule job %s: %w", jobType, err)
		}
		s.entries[jobType] = id
		s.log.InfoContext(ctx, "Job scheduled",
			logger.StringField("job_type", string(jobType)),
			logger.StringField("interval", job.Interval.String()))
	}

	s.cron.Start()
	s.started = true
	return nil
}

// Stop prevents new cycles and waits up to the grace period for running ones
// before cancelling them.
func (s *schedulerService) Stop() {
	s.mu.Lock()
	started := s.started
	s.started = false
	s.mu.Unlock()
	if !started {
		s.cancelJob()
		return
	}

	s.log.Info("Stopping scheduler", logger.StringField("grace", s.grace.String()))
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Info("Scheduler stopped")
	case <-time.After(s.grace):
		s.log.Warn("Scheduler grace period elapsed, cancelling running jobs")
	}
	s.cancelJob()
}

func (s *schedulerService) RunJob(ctx context.Context, jobType strategy.JobType) (strategy.JobResult, error) {
	job, ok := s.jobs[jobType]
	if !ok {
		return strategy.JobResult{}, fmt.Errorf("job %s is not registered", jobType)
	}
	s.log.InfoContext(ctx, "Running job on demand", logger.StringField("job_type", string(jobType)))
	return s.execute(ctx, job.Strategy)
}

func (s *schedulerService) execute(ctx context.Context, st strategy.JobExecutionStrategy) (result strategy.JobResult, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", st.GetType(), r)
			result = strategy.JobResult{ExitCode: strategy.JOB_EXIT_CODE_FAILED, Output: err.Error()}
		}
		if err != nil {
			s.log.ErrorContext(ctx, "Job failed",
				logger.StringField("job_type", string(st.GetType())),
				logger.ErrorField(err))
			return
		}
		if result.ExitCode != strategy.JOB_EXIT_CODE_SKIPPED {
			s.log.DebugContext(ctx, "Job completed",
				logger.StringField("job_type", string(st.GetType())),
				logger.IntField("exit_code", int(result.ExitCode)),
				logger.StringField("took", time.Since(start).String()))
		}
	}()
	return st.Execute(ctx)
}

func (s *schedulerService) Jobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]JobInfo, 0, len(s.jobs))
	for jobType, job := range s.jobs {
		info := JobInfo{Type: jobType, Interval: job.Interval.String()}
		if id, ok := s.entries[jobType]; ok {
			entry := s.cron.Entry(id)
			info.Next = entry.Next
			info.Prev = entry.Prev
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Type < infos[j].Type })
	return infos
}

// cronLogger adapts the zap logger to cron.Logger.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
