package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/gearscan/internal/adapters/http/api"
	"github.com/okian/gearscan/internal/adapters/http/swagger"
	"github.com/okian/gearscan/internal/adapters/repository"
	"github.com/okian/gearscan/internal/adapters/repository/sqlite"
	"github.com/okian/gearscan/internal/adapters/source"
	"github.com/okian/gearscan/internal/adapters/vision/gearpower"
	"github.com/okian/gearscan/internal/adapters/vision/matcher"
	"github.com/okian/gearscan/internal/adapters/vision/number"
	app "github.com/okian/gearscan/internal/app"
	"github.com/okian/gearscan/internal/config"
	"github.com/okian/gearscan/internal/domain/model"
	"github.com/okian/gearscan/internal/domain/recognize"
	"github.com/okian/gearscan/pkg/logger"
)

// newService loads the recognizers and the store named by cfg. cleanup
// releases recognizer resources.
func newService(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Service, func(), error) {
	if cfg.TemplatePath == "" {
		return nil, nil, fmt.Errorf("%w: template_path is required", config.ErrInvalidConfig)
	}
	presence, err := matcher.LoadResultGears(cfg.TemplatePath, matcher.WithLogger(log.Named("matcher")))
	if err != nil {
		return nil, nil, fmt.Errorf("load template: %w", err)
	}
	numbers, closeNumbers, err := newNumbers(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	gears := newGearClassifier(ctx, cfg, log)

	store, err := newStore(ctx, cfg)
	if err != nil {
		closeNumbers()
		return nil, nil, err
	}

	opts := []app.Option{
		app.WithLogger(log),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithDebounce(msDuration(cfg.ChatterWindowMS), msDuration(cfg.ReentryGuardMS)),
	}
	if o := (model.Offset{X: cfg.OffsetX, Y: cfg.OffsetY}); !o.IsZero() {
		opts = append(opts, app.WithInitialOffset(o))
	}

	rec := app.Recognizers{Presence: presence, Numbers: numbers}
	if gears != nil {
		rec.Gears = gears
	}
	svc, err := app.New(rec, store, opts...)
	if err != nil {
		_ = store.Close()
		closeNumbers()
		return nil, nil, err
	}
	return svc, closeNumbers, nil
}

// newGearClassifier loads the ability samples; abilities stay unresolved
// without them.
func newGearClassifier(ctx context.Context, cfg *config.Config, log logger.Logger) *gearpower.Classifier {
	if cfg.GearPowerSamplesDir == "" {
		log.Info(ctx, "no gearpower_samples_dir; gear abilities will not be classified")
		return nil
	}
	c, err := gearpower.Load(cfg.GearPowerSamplesDir, gearpower.WithLogger(log.Named("gearpower")))
	if err != nil {
		log.Warn(ctx, "gear ability samples unusable", logger.String("dir", cfg.GearPowerSamplesDir), logger.Error(err))
		return nil
	}
	return c
}

// newStore opens the configured result store.
func newStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreSQLite:
		s, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open result store: %w", err)
		}
		return s, nil
	case config.StoreMemory, "":
		return repository.NewMemoryStore(repository.WithCapacity(cfg.StoreCapacity)), nil
	default:
		return nil, fmt.Errorf("%w: store_driver %q", config.ErrInvalidConfig, cfg.StoreDriver)
	}
}

// newSource opens the frame directory.
func newSource(cfg *config.Config, log logger.Logger) (source.Source, error) {
	src, err := source.NewDirSource(cfg.FramesDir,
		source.WithInterval(cfg.FrameInterval()),
		source.WithRealtime(cfg.Realtime),
		source.WithLogger(log.Named("source")),
	)
	if err != nil {
		return nil, fmt.Errorf("open frames: %w", err)
	}
	return src, nil
}

// newMux registers the API and documentation routes.
func newMux(ctx context.Context, svc *app.Service) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc).Register(ctx, mux)
	return mux
}

var errNoEngine = errors.New("number engine not available in this build")

// newKNNNumbers trains the glyph reader from number_samples_dir.
func newKNNNumbers(cfg *config.Config, log logger.Logger) (recognize.NumberRecognizer, func(), error) {
	if cfg.NumberSamplesDir == "" {
		return nil, nil, fmt.Errorf("%w: number_samples_dir is required for the knn engine", config.ErrInvalidConfig)
	}
	r, err := number.Load(cfg.NumberSamplesDir, number.WithLogger(log.Named("number")))
	if err != nil {
		return nil, nil, fmt.Errorf("load number samples: %w", err)
	}
	return r, func() {}, nil
}

func msDuration(ms int) time.Duration { return time.Duration(ms) * time.Millisecond }
