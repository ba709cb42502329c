package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"newsdesk/config"
)

// Fetcher pulls every configured feed once.
type Fetcher interface {
	FetchAll(ctx context.Context) (int, error)
}

type Scheduler struct {
	cron         *cron.Cron
	feed         Fetcher
	config       config.IngestConfig
	log          *zap.Logger
	fetchEntryID cron.EntryID
}

func NewScheduler(feed Fetcher, cfg config.IngestConfig, log *zap.Logger) *Scheduler {
	cronLog := cron.PrintfLogger(zap.NewStdLog(log.Named("cron")))
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog))),
		feed:   feed,
		config: cfg,
		log:    log,
	}
}

// RunOnce 立即抓取一次
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	s.log.Info("[Cron] Fetching feeds...")
	start := time.Now()
	n, err := s.feed.FetchAll(ctx)
	if err != nil {
		s.log.Warn("[Cron] fetch finished with errors", zap.Int("added", n), zap.Duration("took", time.Since(start)), zap.Error(err))
		return n, err
	}
	s.log.Info("[Cron] fetch finished", zap.Int("added", n), zap.Duration("took", time.Since(start)))
	return n, nil
}

func (s *Scheduler) Start() error {
	// RSS抓取任务
	id, err := s.cron.AddFunc(s.config.Schedule, func() {
		_, _ = s.RunOnce(context.Background())
	})
	if err != nil {
		return fmt.Errorf("invalid ingest schedule %q: %w", s.config.Schedule, err)
	}
	s.fetchEntryID = id

	s.cron.Start()
	s.log.Info("[Cron] Scheduler started", zap.String("schedule", s.config.Schedule), zap.Time("next", s.GetNextFetchTime()))
	return nil
}

// GetNextFetchTime 获取下次抓取时间
func (s *Scheduler) GetNextFetchTime() time.Time {
	entry := s.cron.Entry(s.fetchEntryID)
	return entry.Next
}

// Stop waits for a running fetch to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
