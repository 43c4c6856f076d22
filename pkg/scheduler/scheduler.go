package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"taskflow/pkg/logger"
)

// JobFunc ได้ context ที่ถูก cancel ตอน Stop
type JobFunc func(ctx context.Context)

type JobScheduler interface {
	Start()
	Stop()
	AddIntervalJob(id string, interval time.Duration, task JobFunc) error
	RemoveJob(id string) error
	GetJob(id string) (*JobInfo, bool)
	IsRunning() bool
}

type JobInfo struct {
	ID       string
	Interval time.Duration
	RunCount int
	LastRun  *time.Time
	NextRun  *time.Time
}

type GocronScheduler struct {
	scheduler *gocron.Scheduler
	jobs      map[string]*jobEntry
	mu        sync.RWMutex
	running   bool
	ctx       context.Context
	cancel    context.CancelFunc
}

type jobEntry struct {
	info JobInfo
	job  *gocron.Job
}

func NewJobScheduler() JobScheduler {
	scheduler := gocron.NewScheduler(time.UTC)
	// รอบใหม่ไม่เริ่มถ้ารอบก่อนยังไม่จบ
	scheduler.SingletonModeAll()

	ctx, cancel := context.WithCancel(context.Background())
	return &GocronScheduler{
		scheduler: scheduler,
		jobs:      make(map[string]*jobEntry),
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (s *GocronScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}

	s.scheduler.StartAsync()
	s.running = true
	logger.Info("Job scheduler started", "jobs", len(s.jobs))
}

func (s *GocronScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	// gocron รอ job ที่กำลังรันอยู่ ห้ามถือ mu ระหว่างนี้
	s.cancel()
	s.scheduler.Stop()
	logger.Info("Job scheduler stopped")
}

func (s *GocronScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *GocronScheduler) AddIntervalJob(id string, interval time.Duration, task JobFunc) error {
	if interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[id]; exists {
		return fmt.Errorf("job with ID %s already exists", id)
	}

	job, err := s.scheduler.Every(interval).Do(func() {
		s.run(id, task)
	})
	if err != nil {
		return fmt.Errorf("failed to create job %s: %w", id, err)
	}

	s.jobs[id] = &jobEntry{
		info: JobInfo{ID: id, Interval: interval},
		job:  job,
	}

	logger.Info("Job added", "id", id, "interval", interval.String())
	return nil
}

func (s *GocronScheduler) run(id string, task JobFunc) {
	started := time.Now()
	task(s.ctx)

	s.mu.Lock()
	if entry, exists := s.jobs[id]; exists {
		entry.info.RunCount++
		entry.info.LastRun = &started
	}
	s.mu.Unlock()

	logger.Debug("Job finished", "id", id, "duration", time.Since(started).String())
}

func (s *GocronScheduler) RemoveJob(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.jobs[id]
	if !exists {
		return fmt.Errorf("job with ID %s not found", id)
	}

	s.scheduler.RemoveByReference(entry.job)
	delete(s.jobs, id)
	logger.Info("Job removed", "id", id)
	return nil
}

// GetJob คืนสำเนา ไม่ใช่ pointer ภายใน
func (s *GocronScheduler) GetJob(id string) (*JobInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.jobs[id]
	if !exists {
		return nil, false
	}

	info := entry.info
	if entry.info.LastRun != nil {
		lastRun := *entry.info.LastRun
		info.LastRun = &lastRun
	}
	nextRun := entry.job.NextRun()
	info.NextRun = &nextRun

	return &info, true
}
