package scene

import (
	"context"
	"image"
	"time"

	"github.com/google/uuid"

	"github.com/okian/gearscan/internal/domain/analyze"
	"github.com/okian/gearscan/internal/domain/model"
	"github.com/okian/gearscan/internal/domain/offset"
	"github.com/okian/gearscan/internal/domain/recognize"
	"github.com/okian/gearscan/pkg/logger"
	"github.com/okian/gearscan/pkg/metrics"
)

// ResultGearsName identifies the result gears scene.
const ResultGearsName = "result_gears"

// GameTimerIconName is the in-match scene that cannot coexist with the result screen.
const GameTimerIconName = "game_timer_icon"

// Default debounce windows in milliseconds.
const (
	DefaultChatterWindow = 1000
	DefaultReentryGuard  = 30 * 1000
)

// GameImageKey holds the snapshot of the first result frame in the game store.
const GameImageKey = "image_gears"

const (
	phaseProvisional = "provisional"
	phaseFinal       = "final"
)

// Analyzer extracts a record from a frame and stores it on success.
type Analyzer interface {
	Analyze(ctx context.Context, frame *image.RGBA, store analyze.ResultStore) (*model.ResultRecord, error)
}

// ResultGears tracks the post-match result screen showing cash, level,
// experience and gear. It analyzes the first matching frame provisionally and
// commits the analysis of the last matching frame once the screen is gone.
type ResultGears struct {
	machine   *Machine
	presence  recognize.PresenceMatcher
	analyzer  Analyzer
	corrector *offset.Corrector
	notifier  Notifier
	competing []string
	newID     func() string
	logger    logger.Logger

	chatterWindow int64
	reentryGuard  int64

	lastEventMsec int64
	previousFrame *image.RGBA
	occurrenceID  string
	provisional   *model.ResultRecord
}

// Option configures ResultGears.
type Option func(*ResultGears)

// WithNotifier sets where still/complete notifications go.
func WithNotifier(n Notifier) Option {
	return func(s *ResultGears) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *ResultGears) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithChatterWindow sets how long a tracked screen may stop matching before
// it is considered gone.
func WithChatterWindow(d time.Duration) Option {
	return func(s *ResultGears) {
		if d > 0 {
			s.chatterWindow = d.Milliseconds()
		}
	}
}

// WithReentryGuard sets the minimum time between two committed exits.
func WithReentryGuard(d time.Duration) Option {
	return func(s *ResultGears) {
		if d > 0 {
			s.reentryGuard = d.Milliseconds()
		}
	}
}

// WithCompetingScenes replaces the scenes whose match this tick blocks entry.
func WithCompetingScenes(names ...string) Option {
	return func(s *ResultGears) {
		s.competing = names
	}
}

// WithIDGenerator sets how occurrence and notification ids are minted.
func WithIDGenerator(fn func() string) Option {
	return func(s *ResultGears) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewResultGears builds the scene. presence must match only when all three
// screen markers are visible.
func NewResultGears(presence recognize.PresenceMatcher, analyzer Analyzer, corrector *offset.Corrector, opts ...Option) *ResultGears {
	if corrector == nil {
		corrector = offset.NewCorrector()
	}
	s := &ResultGears{
		presence:      presence,
		analyzer:      analyzer,
		corrector:     corrector,
		notifier:      nopNotifier{},
		competing:     []string{GameTimerIconName},
		newID:         uuid.NewString,
		logger:        logger.GetOrNop().Named(ResultGearsName),
		chatterWindow: DefaultChatterWindow,
		reentryGuard:  DefaultReentryGuard,
		lastEventMsec: neverMatchedMsec,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.machine = NewMachine(map[State]Handler{
		StateDefault:  s.stateDefault,
		StateTracking: s.stateTracking,
	})
	s.machine.OnSwitch(func(from, to State) {
		metrics.RecordStateTransition(ResultGearsName, from.String(), to.String())
	})
	return s
}

// Name implements Scene.
func (s *ResultGears) Name() string { return ResultGearsName }

// State returns the current lifecycle state.
func (s *ResultGears) State() State { return s.machine.State() }

// Tick implements Scene.
func (s *ResultGears) Tick(ctx context.Context, sc *Context) bool {
	return s.machine.Tick(ctx, sc)
}

// Reset drops any tracked occurrence without emitting a result. The cached
// offset survives.
func (s *ResultGears) Reset() {
	s.machine.Reset()
	s.lastEventMsec = neverMatchedMsec
	s.forget()
}

// OnCalibration caches an offset found by a detector sharing this layout.
func (s *ResultGears) OnCalibration(o model.Offset) {
	s.logger.Info(context.Background(), "cache offset", logger.Int("x", o.X), logger.Int("y", o.Y))
	metrics.RecordCalibration()
	s.corrector.SetOffset(o)
}

func (s *ResultGears) present(frame *image.RGBA) bool {
	if frame == nil || s.presence == nil {
		return false
	}
	matched := s.presence.Match(s.corrector.Apply(frame))
	metrics.RecordPresence(ResultGearsName, matched)
	return matched
}

func (s *ResultGears) stateDefault(ctx context.Context, sc *Context) bool {
	for _, name := range s.competing {
		if sc.IsMatched(name) {
			return false
		}
	}
	frame := sc.Frame
	if !s.present(frame) {
		return false
	}

	s.occurrenceID = s.newID()
	s.logger.Info(ctx, "result screen detected",
		logger.String("occurrence", s.occurrenceID),
		logger.Int64("msec", sc.Msec),
	)

	// Cash in particular is only final on the last frame; this record is a
	// fallback for when the last frame cannot be read.
	s.provisional, _ = s.analyze(ctx, sc, frame, phaseProvisional)

	snapshot := model.CloneRGBA(frame)
	sc.PutGame(GameImageKey, snapshot)
	s.notify(ctx, sc, model.KindStill, model.PriorityLow, snapshot, nil)

	s.previousFrame = model.CloneRGBA(frame)
	s.machine.Switch(StateTracking)
	return true
}

func (s *ResultGears) stateTracking(ctx context.Context, sc *Context) bool {
	if s.present(sc.Frame) {
		s.previousFrame = model.CloneRGBA(sc.Frame)
		return true
	}

	// display flicker
	if s.machine.MatchedIn(sc, s.chatterWindow) {
		return false
	}

	s.exit(ctx, sc)
	return false
}

// exit commits the occurrence using the last fully matching frame.
func (s *ResultGears) exit(ctx context.Context, sc *Context) {
	defer func() {
		s.lastEventMsec = sc.Msec
		s.forget()
		s.machine.Switch(StateDefault)
	}()

	if Within(sc.Msec, s.lastEventMsec, s.reentryGuard) {
		metrics.RecordSceneExit(ResultGearsName, "suppressed")
		s.logger.Debug(ctx, "exit within re-entry guard; not committing",
			logger.String("occurrence", s.occurrenceID),
			logger.Int64("since_last_ms", sc.Msec-s.lastEventMsec),
		)
		return
	}

	outcome := "analyzed"
	rec, err := s.analyze(ctx, sc, s.previousFrame, phaseFinal)
	if err != nil {
		if s.provisional == nil {
			metrics.RecordSceneExit(ResultGearsName, "failed")
			s.logger.Warn(ctx, "result screen ended without a readable frame",
				logger.String("occurrence", s.occurrenceID),
				logger.Error(err),
			)
			return
		}
		outcome = "fallback"
		rec = s.provisional
		s.logger.Warn(ctx, "last frame unreadable; using first frame",
			logger.String("occurrence", s.occurrenceID),
			logger.Error(err),
		)
	}
	metrics.RecordSceneExit(ResultGearsName, outcome)
	s.logger.Info(ctx, "result screen committed",
		logger.String("occurrence", s.occurrenceID),
		logger.String("outcome", outcome),
		logger.Int("cash", rec.Cash),
		logger.Int("level", rec.Level),
		logger.String("exp", rec.Exp),
	)
	s.notify(ctx, sc, model.KindComplete, model.PriorityNormal, s.previousFrame, rec)
}

func (s *ResultGears) analyze(ctx context.Context, sc *Context, frame *image.RGBA, phase string) (*model.ResultRecord, error) {
	start := time.Now()
	rec, err := s.analyzer.Analyze(ctx, frame, sc)
	metrics.RecordAnalysis(phase, err == nil, float64(time.Since(start).Microseconds())/1000)
	if err != nil {
		s.logger.Debug(ctx, "analysis failed", logger.String("phase", phase), logger.Error(err))
	}
	return rec, err
}

func (s *ResultGears) notify(ctx context.Context, sc *Context, kind model.NotificationKind, prio model.Priority, frame *image.RGBA, rec *model.ResultRecord) {
	s.notifier.Notify(ctx, model.Notification{
		ID:           s.newID(),
		Kind:         kind,
		Priority:     prio,
		Scene:        ResultGearsName,
		OccurrenceID: s.occurrenceID,
		Msec:         sc.Msec,
		CreatedAt:    time.Now().UTC(),
		Frame:        frame,
		Record:       rec,
	})
}

func (s *ResultGears) forget() {
	s.previousFrame = nil
	s.occurrenceID = ""
	s.provisional = nil
}
