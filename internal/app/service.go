// Package service provides the core business service that implements
// the dependencies required by the HTTP API and the CLI.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/charades/internal/adapters/embedder"
	payoutqueue "github.com/okian/charades/internal/adapters/mq/queue"
	workerpool "github.com/okian/charades/internal/adapters/mq/worker"
	repository "github.com/okian/charades/internal/adapters/repository"
	"github.com/okian/charades/internal/config"
	"github.com/okian/charades/internal/domain/commitment"
	"github.com/okian/charades/internal/domain/dedupe"
	"github.com/okian/charades/internal/domain/model"
	"github.com/okian/charades/internal/domain/payout"
	"github.com/okian/charades/internal/domain/round"
	"github.com/okian/charades/internal/domain/scoring"
	"github.com/okian/charades/internal/domain/versions"
	"github.com/okian/charades/pkg/logger"
)

// releasingProcessor wraps the round processor so the in-flight marker
// for a round is cleared once its payout run finishes, pass or fail.
type releasingProcessor struct {
	inner   *round.Processor
	deduper dedupe.Deduper
}

func (p *releasingProcessor) Process(ctx context.Context, roundID string, opts round.Options) (*round.Result, error) {
	defer p.deduper.Unrecord(ctx, roundID)
	return p.inner.Process(ctx, roundID, opts)
}

// Service implements the payout engine's application surface.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	embedder  scoring.Embedder
	registry  *versions.Registry
	verifier  *commitment.Verifier
	processor *round.Processor
	deduper   dedupe.Deduper
	jobQueue  payoutqueue.Queue
	pool      *workerpool.Pool

	// Configuration
	workerCount         int
	queueSize           int
	storeDriver         string
	storePath           string
	versionsFile        string
	embeddingDimensions int
	embeddingMinLatency time.Duration
	embeddingMaxLatency time.Duration
	platformFeePct      float64

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithWorkerCount sets the number of payout workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the payout job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithStoreDriver selects the round store backend and its path.
func WithStoreDriver(driver, path string) Option {
	return func(s *Service) {
		if driver != "" {
			s.storeDriver = driver
		}
		if path != "" {
			s.storePath = path
		}
	}
}

// WithStore injects a pre-built round store, overriding the driver.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithEmbedder injects a custom embedder implementation.
func WithEmbedder(e scoring.Embedder) Option {
	return func(s *Service) {
		if e != nil {
			s.embedder = e
		}
	}
}

// WithVersionsFile points the service at a scoring version registry file.
func WithVersionsFile(path string) Option {
	return func(s *Service) {
		s.versionsFile = path
	}
}

// WithEmbeddingDimensions sets the simulated embedding vector length.
func WithEmbeddingDimensions(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.embeddingDimensions = n
		}
	}
}

// WithEmbeddingLatencyRange sets the simulated embedding latency range.
func WithEmbeddingLatencyRange(minLatency, maxLatency time.Duration) Option {
	return func(s *Service) {
		if minLatency >= 0 && maxLatency > minLatency {
			s.embeddingMinLatency = minLatency
			s.embeddingMaxLatency = maxLatency
		}
	}
}

// WithPlatformFee sets the platform fee percentage for payouts.
func WithPlatformFee(pct float64) Option {
	return func(s *Service) {
		if pct >= 0 && pct < 100 {
			s.platformFeePct = pct
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:         4,
		queueSize:           1024,
		storeDriver:         config.StoreDriverMemory,
		storePath:           "charades.db",
		embeddingDimensions: 512,
		embeddingMinLatency: 20 * time.Millisecond,
		embeddingMaxLatency: 80 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting payout engine...")

	if s.store == nil {
		switch s.storeDriver {
		case config.StoreDriverSQLite:
			store, err := repository.NewSQLiteStore(ctx, s.storePath)
			if err != nil {
				return fmt.Errorf("opening sqlite store: %w", err)
			}
			s.store = store
			s.logger.Info(ctx, "using sqlite round store", logger.String("path", s.storePath))
		default:
			s.store = repository.NewMemStore()
			s.logger.Info(ctx, "using in-memory round store")
		}
	}

	if s.embedder == nil {
		s.embedder = embedder.NewInMemoryEmbedder(
			embedder.WithDimensions(s.embeddingDimensions),
			embedder.WithLatencyRange(s.embeddingMinLatency, s.embeddingMaxLatency),
		)
	}

	if s.versionsFile != "" {
		registry, err := versions.Load(s.versionsFile)
		if err != nil {
			return fmt.Errorf("loading scoring versions: %w", err)
		}
		s.registry = registry
		s.logger.Info(ctx, "loaded scoring version registry",
			logger.String("path", s.versionsFile),
			logger.Int("entries", len(registry.Entries())),
		)
	} else {
		s.registry = versions.New()
	}

	s.verifier = commitment.NewVerifier(s.store, commitment.WithLogger(s.logger.Named("commitment")))
	s.processor = round.NewProcessor(
		s.store,
		s.embedder,
		s.registry,
		s.verifier,
		round.WithLogger(s.logger.Named("processor")),
		round.WithCalculator(payout.NewCalculator(payout.WithPlatformFee(s.platformFeePct))),
	)

	s.deduper = dedupe.NewInMemoryDeduper()
	s.jobQueue = payoutqueue.NewInMemoryQueue(
		payoutqueue.WithCapacity(s.queueSize),
		payoutqueue.WithBufferSize(s.queueSize),
	)
	s.pool = workerpool.NewPool(s.workerCount, s.jobQueue, &releasingProcessor{
		inner:   s.processor,
		deduper: s.deduper,
	})
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "payout engine started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.String("storeDriver", s.storeDriver),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping payout engine...")

	if s.pool != nil {
		_ = s.pool.Shutdown(ctx)
	}
	if closer, ok := s.store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	s.started = false
	s.logger.Info(ctx, "payout engine stopped")
}

// EnqueuePayout queues an asynchronous payout run for a round. Returns
// the job ID, or false when the round already has a run pending or the
// queue is full.
func (s *Service) EnqueuePayout(ctx context.Context, roundID string, prizePool float64, forceContinue bool) (string, bool) {
	if s.deduper.SeenAndRecord(ctx, roundID) {
		s.logger.Info(ctx, "payout run already pending for round",
			logger.String("roundID", roundID))
		return "", false
	}

	job := payoutqueue.Job{
		JobID:         uuid.NewString(),
		RoundID:       roundID,
		PrizePool:     prizePool,
		ForceContinue: forceContinue,
		EnqueuedAt:    time.Now(),
	}
	if !s.jobQueue.Enqueue(ctx, job) {
		s.deduper.Unrecord(ctx, roundID)
		return "", false
	}
	s.logger.Info(ctx, "payout run enqueued",
		logger.String("jobID", job.JobID),
		logger.String("roundID", roundID),
		logger.Bool("forceContinue", forceContinue),
	)
	return job.JobID, true
}

// ProcessRound runs a payout synchronously. Used by the CLI.
func (s *Service) ProcessRound(ctx context.Context, roundID string, opts round.Options) (*round.Result, error) {
	return s.processor.Process(ctx, roundID, opts)
}

// ProcessAllRounds runs payouts for every unprocessed round with
// participants. Used by the CLI.
func (s *Service) ProcessAllRounds(ctx context.Context, opts round.Options) ([]*round.Result, error) {
	return s.processor.ProcessAll(ctx, opts)
}

// VerifyRound re-checks all revealed commitments for a round.
func (s *Service) VerifyRound(ctx context.Context, roundID string) (bool, error) {
	return s.verifier.VerifyRound(ctx, roundID)
}

// GetRound returns a copy of the stored round record.
func (s *Service) GetRound(ctx context.Context, roundID string) (*model.Round, error) {
	return s.store.Get(ctx, roundID)
}

// SaveRound writes a round record. Exposed for seeding and tests.
func (s *Service) SaveRound(ctx context.Context, roundID string, rnd *model.Round) error {
	return s.store.Save(ctx, roundID, rnd)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"storeDriver": s.storeDriver,
	}
	if s.started {
		stats["queueLength"] = s.jobQueue.Len(ctx)
		stats["roundsTracked"] = s.store.Count(ctx)
		stats["pendingRuns"] = s.deduper.Size()
	}
	return stats
}
