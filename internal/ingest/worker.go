package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type JobPriority int

const (
	PriorityLow JobPriority = iota
	PriorityNormal
	PriorityHigh
)

// Job is one document ingest request.
type Job struct {
	Path         string
	Jurisdiction string
	Priority     JobPriority
}

type WorkerConfig struct {
	WorkerCount       int
	MaxQueueSize      int
	RateLimit         int
	MaxFileSize       int64
	AllowedExtensions []string
}

func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		WorkerCount:       2,
		MaxQueueSize:      500,
		RateLimit:         50,
		MaxFileSize:       20 * 1024 * 1024,
		AllowedExtensions: []string{".txt", ".text", ".md"},
	}
}

type WorkerStats struct {
	Ingested   int64
	Failed     int64
	Skipped    int64
	InQueue    int64
	IsRunning  bool
	StartedAt  time.Time
	LastIngest time.Time
}

// Worker drains a priority queue of document ingest jobs. Higher-priority
// queues are always checked first.
type Worker struct {
	ingestor *Ingestor
	config   WorkerConfig

	highQueue   chan Job
	normalQueue chan Job
	lowQueue    chan Job

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	rateLimiter *time.Ticker

	stats   WorkerStats
	statsMu sync.RWMutex
}

func NewWorker(ingestor *Ingestor, config WorkerConfig) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	w := &Worker{
		ingestor:    ingestor,
		config:      config,
		highQueue:   make(chan Job, 100),
		normalQueue: make(chan Job, config.MaxQueueSize),
		lowQueue:    make(chan Job, config.MaxQueueSize*2),
		ctx:         ctx,
		cancel:      cancel,
	}

	if config.RateLimit > 0 {
		interval := time.Second / time.Duration(config.RateLimit)
		w.rateLimiter = time.NewTicker(interval)
	}

	return w
}

func (w *Worker) Start() {
	w.statsMu.Lock()
	w.stats.IsRunning = true
	w.stats.StartedAt = time.Now()
	w.statsMu.Unlock()

	log.Info("ingest worker started", "workers", w.config.WorkerCount)

	for i := 0; i < w.config.WorkerCount; i++ {
		w.wg.Add(1)
		go w.worker(i)
	}
}

func (w *Worker) Stop() {
	log.Info("ingest worker stopping")

	w.cancel()
	if w.rateLimiter != nil {
		w.rateLimiter.Stop()
	}
	w.wg.Wait()

	w.statsMu.Lock()
	w.stats.IsRunning = false
	w.statsMu.Unlock()

	log.Info("ingest worker stopped")
}

func (w *Worker) Enqueue(job Job) bool {
	var queue chan Job
	switch job.Priority {
	case PriorityHigh:
		queue = w.highQueue
	case PriorityLow:
		queue = w.lowQueue
	default:
		queue = w.normalQueue
	}

	select {
	case queue <- job:
		atomic.AddInt64(&w.stats.InQueue, 1)
		return true
	default:
		log.Warn("job enqueue failed - queue full", "path", job.Path, "priority", job.Priority)
		return false
	}
}

func (w *Worker) GetStats() WorkerStats {
	w.statsMu.RLock()
	defer w.statsMu.RUnlock()
	stats := w.stats
	stats.InQueue = atomic.LoadInt64(&w.stats.InQueue)
	stats.Ingested = atomic.LoadInt64(&w.stats.Ingested)
	stats.Failed = atomic.LoadInt64(&w.stats.Failed)
	stats.Skipped = atomic.LoadInt64(&w.stats.Skipped)
	return stats
}

func (w *Worker) worker(id int) {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		default:
		}

		if w.rateLimiter != nil {
			select {
			case <-w.rateLimiter.C:
			case <-w.ctx.Done():
				return
			}
		}

		var job Job
		var ok bool

		select {
		case job, ok = <-w.highQueue:
		default:
			select {
			case job, ok = <-w.normalQueue:
			default:
				select {
				case job, ok = <-w.lowQueue:
				default:
					time.Sleep(10 * time.Millisecond)
					continue
				}
			}
		}

		if !ok {
			continue
		}

		atomic.AddInt64(&w.stats.InQueue, -1)
		log.Debug("worker processing job", "worker_id", id, "path", job.Path)
		w.processJob(job)
	}
}

func (w *Worker) processJob(job Job) {
	path := job.Path

	if !w.allowedExtension(path) {
		w.recordSkipped()
		log.Debug("skipped file", "path", path, "reason", "extension not allowed")
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		w.recordFailed()
		log.Warn("failed to ingest", "path", path, "error", err)
		return
	}

	if info.IsDir() {
		return
	}

	if info.Size() > w.config.MaxFileSize {
		w.recordSkipped()
		log.Debug("skipped file", "path", path, "reason", "file too large")
		return
	}

	res, err := w.ingestor.IngestFile(path, job.Jurisdiction)
	if err != nil {
		if errors.Is(err, ErrAlreadyIngested) {
			w.recordSkipped()
			log.Debug("skipped file", "path", path, "reason", "content unchanged")
			return
		}
		w.recordFailed()
		log.Warn("failed to ingest", "path", path, "error", err)
		return
	}

	w.recordIngested()
	log.Info("file ingested", "path", path, "jurisdiction", job.Jurisdiction, "clauses", res.ClauseCount)
}

func (w *Worker) allowedExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range w.config.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func (w *Worker) recordIngested() {
	atomic.AddInt64(&w.stats.Ingested, 1)
	w.statsMu.Lock()
	w.stats.LastIngest = time.Now()
	w.statsMu.Unlock()
}

func (w *Worker) recordFailed() {
	atomic.AddInt64(&w.stats.Failed, 1)
}

func (w *Worker) recordSkipped() {
	atomic.AddInt64(&w.stats.Skipped, 1)
}
