// Package service wires frames through the scene pipeline and implements the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/gearscan/internal/adapters/http/api"
	"github.com/okian/gearscan/internal/adapters/mq/queue"
	"github.com/okian/gearscan/internal/adapters/mq/worker"
	"github.com/okian/gearscan/internal/adapters/repository"
	"github.com/okian/gearscan/internal/adapters/source"
	"github.com/okian/gearscan/internal/domain/analyze"
	"github.com/okian/gearscan/internal/domain/dedupe"
	"github.com/okian/gearscan/internal/domain/model"
	"github.com/okian/gearscan/internal/domain/offset"
	"github.com/okian/gearscan/internal/domain/recognize"
	"github.com/okian/gearscan/internal/domain/scene"
	"github.com/okian/gearscan/pkg/logger"
	"github.com/okian/gearscan/pkg/metrics"
)

// Sentinel errors.
var (
	ErrMissingRecognizer = errors.New("recognizer not configured")
	ErrNotStarted        = errors.New("service not started")
)

// Recognizers bundles the vision capabilities the scenes need.
type Recognizers struct {
	Presence recognize.PresenceMatcher
	Numbers  recognize.NumberRecognizer
	Gears    recognize.LabelClassifier
}

// Service runs the result-screen pipeline.
type Service struct {
	mu sync.RWMutex

	// Core components
	store       repository.Store
	deduper     dedupe.Deduper
	queue       *queue.InMemoryQueue
	pool        *worker.Pool
	corrector   *offset.Corrector
	resultGears *scene.ResultGears
	dispatcher  *scene.Dispatcher
	sceneCtx    *scene.Context
	sinks       []worker.Sink

	// Configuration
	workerCount   int
	queueSize     int
	dedupeSize    int
	chatterWindow time.Duration
	reentryGuard  time.Duration
	offset        *model.Offset
	extraSinks    []worker.Sink

	// State
	tickMu     sync.Mutex
	started    bool
	frames     atomic.Int64
	missing    atomic.Int64
	matched    atomic.Int64
	notified   atomic.Int64
	dropped    atomic.Int64
	lastMsec   atomic.Int64
	calibrated atomic.Int64

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of notification workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the notification queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize bounds the delivered-id cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.dedupeSize = size
		}
	}
}

// WithDebounce sets the scene chatter window and re-entry guard.
func WithDebounce(chatter, reentry time.Duration) Option {
	return func(s *Service) {
		if chatter > 0 {
			s.chatterWindow = chatter
		}
		if reentry > 0 {
			s.reentryGuard = reentry
		}
	}
}

// WithInitialOffset seeds the calibration offset.
func WithInitialOffset(o model.Offset) Option {
	return func(s *Service) {
		s.offset = &o
	}
}

// WithSinks adds notification sinks next to the store and log sinks.
func WithSinks(sinks ...worker.Sink) Option {
	return func(s *Service) {
		s.extraSinks = append(s.extraSinks, sinks...)
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New builds the scene stack over rec and store. Workers start with Start.
func New(rec Recognizers, store repository.Store, opts ...Option) (*Service, error) {
	if rec.Presence == nil {
		return nil, fmt.Errorf("%w: presence", ErrMissingRecognizer)
	}
	if rec.Numbers == nil {
		return nil, fmt.Errorf("%w: numbers", ErrMissingRecognizer)
	}
	if store == nil {
		store = repository.NewMemoryStore()
	}
	s := &Service{
		store:         store,
		workerCount:   runtime.NumCPU(),
		queueSize:     1024,
		dedupeSize:    4096,
		chatterWindow: time.Duration(scene.DefaultChatterWindow) * time.Millisecond,
		reentryGuard:  time.Duration(scene.DefaultReentryGuard) * time.Millisecond,
		logger:        logger.GetOrNop().Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lastMsec.Store(-1)

	s.corrector = offset.NewCorrector()
	if s.offset != nil {
		s.corrector.SetOffset(*s.offset)
	}
	analyzer := analyze.New(rec.Numbers, rec.Gears, s.corrector,
		analyze.WithLogger(s.logger.Named("analyze")),
	)
	s.resultGears = scene.NewResultGears(rec.Presence, analyzer, s.corrector,
		scene.WithNotifier(scene.NotifierFunc(s.notify)),
		scene.WithChatterWindow(s.chatterWindow),
		scene.WithReentryGuard(s.reentryGuard),
		scene.WithLogger(s.logger.Named(scene.ResultGearsName)),
	)
	s.dispatcher = scene.NewDispatcher(s.resultGears)
	s.sceneCtx = scene.NewContext()
	return s, nil
}

// Start initializes the notification pipeline.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.sinks = append([]worker.Sink{
		repository.NewSink(s.store),
		NewLogSink(s.logger.Named("results")),
	}, s.extraSinks...)
	s.pool = worker.NewPool(s.workerCount, s.queue, s.sinks, s.deduper)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "gearscan service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Duration("chatterWindow", s.chatterWindow),
		logger.Duration("reentryGuard", s.reentryGuard),
	)
	return nil
}

// Stop drains pending notifications and closes the store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping gearscan service...")

	var errs []error
	if err := s.pool.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	s.started = false
	s.logger.Info(ctx, "gearscan service stopped")
	return errors.Join(errs...)
}

// Run feeds every frame of src through the scenes until src is exhausted or
// ctx is done. An occurrence still on screen when the replay ends is flushed.
func (s *Service) Run(ctx context.Context, src source.Source) error {
	if !s.isStarted() {
		return ErrNotStarted
	}
	defer func() {
		if err := src.Close(); err != nil {
			s.logger.Warn(ctx, "close source", logger.Error(err))
		}
	}()

	for {
		frame, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			s.flush(ctx)
			s.logger.Info(ctx, "frame source exhausted", logger.Int64("frames", s.frames.Load()))
			return nil
		}
		if err != nil {
			return fmt.Errorf("next frame: %w", err)
		}
		s.Process(ctx, frame)
	}
}

// Process ticks the scenes with one frame and reports whether any matched.
func (s *Service) Process(ctx context.Context, frame model.Frame) bool { //nolint:gocritic // hugeParam: frames are passed by value from sources
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	start := time.Now()
	if frame.Image == nil {
		s.missing.Add(1)
		metrics.RecordFrameMissing()
	}
	s.sceneCtx.Advance(frame.Image, frame.Msec)
	matched := s.dispatcher.Tick(ctx, s.sceneCtx)

	s.frames.Add(1)
	s.lastMsec.Store(frame.Msec)
	if matched {
		s.matched.Add(1)
	}
	metrics.RecordFrameProcessed(float64(time.Since(start).Microseconds()) / 1000)
	return matched
}

// flush ticks an empty frame past the chatter window so a tracked occurrence
// exits and commits.
func (s *Service) flush(ctx context.Context) {
	if s.resultGears.State() != scene.StateTracking {
		return
	}
	at := s.lastMsec.Load() + s.chatterWindow.Milliseconds()
	s.logger.Debug(ctx, "flushing tracked occurrence", logger.Int64("msec", at))
	s.Process(ctx, model.Frame{Msec: at})
}

// Reset drops tracked occurrences without emitting.
func (s *Service) Reset() {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	s.dispatcher.Reset()
	s.sceneCtx.ResetGame()
}

// Calibrate forwards an offset to every scene sharing the screen layout.
func (s *Service) Calibrate(ctx context.Context, o model.Offset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if n := s.dispatcher.Calibrate(o); n == 0 {
		return fmt.Errorf("%w: no scene accepts offsets", api.ErrNotCalibrating)
	}
	s.calibrated.Add(1)
	s.logger.Info(ctx, "calibration applied", logger.Int("x", o.X), logger.Int("y", o.Y))
	return nil
}

// notify hands scene notifications to the queue; it never blocks the tick.
func (s *Service) notify(ctx context.Context, n model.Notification) { //nolint:gocritic // hugeParam: notifier signature
	s.mu.RLock()
	q := s.queue
	s.mu.RUnlock()
	if q == nil {
		s.dropped.Add(1)
		s.logger.Warn(ctx, "notification before start dropped", logger.String("id", n.ID))
		return
	}
	if err := q.Enqueue(ctx, n); err != nil {
		s.dropped.Add(1)
		s.logger.Warn(ctx, "notification dropped",
			logger.String("id", n.ID),
			logger.String("kind", string(n.Kind)),
			logger.Error(err),
		)
		return
	}
	s.notified.Add(1)
}

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// Get returns a committed result by id.
func (s *Service) Get(ctx context.Context, id string) (repository.Result, error) {
	return s.store.Get(ctx, id)
}

// Latest returns the newest committed result.
func (s *Service) Latest(ctx context.Context) (repository.Result, error) {
	return s.store.Latest(ctx)
}

// List returns committed results newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]repository.Result, error) {
	return s.store.List(ctx, limit, offset)
}

// Count returns the number of committed results.
func (s *Service) Count(ctx context.Context) int {
	return s.store.Count(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	// taken before mu: Process holds tickMu while notify takes mu
	s.tickMu.Lock()
	state := s.resultGears.State().String()
	s.tickMu.Unlock()

	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":       s.started,
		"workerCount":   s.workerCount,
		"queueSize":     s.queueSize,
		"dedupeSize":    s.dedupeSize,
		"frames":        s.frames.Load(),
		"missingFrames": s.missing.Load(),
		"matchedFrames": s.matched.Load(),
		"notifications": s.notified.Load(),
		"dropped":       s.dropped.Load(),
		"calibrations":  s.calibrated.Load(),
		"lastMsec":      s.lastMsec.Load(),
		"sceneState":    state,
		"results":       s.store.Count(context.Background()),
	}
	if o, ok := s.corrector.Offset(); ok {
		stats["offset"] = o
	}
	if s.started {
		queueLen := s.queue.Len()
		stats["queueLength"] = queueLen
		stats["delivered"] = s.deduper.Size()
		metrics.UpdateQueueSize(queueLen)
	}
	return stats
}
