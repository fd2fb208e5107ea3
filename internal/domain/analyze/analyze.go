// Package analyze turns a result frame into a ResultRecord.
package analyze

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/okian/gearscan/internal/domain/model"
	"github.com/okian/gearscan/internal/domain/offset"
	"github.com/okian/gearscan/internal/domain/recognize"
	"github.com/okian/gearscan/internal/domain/region"
	"github.com/okian/gearscan/pkg/logger"
	"github.com/okian/gearscan/pkg/metrics"
)

// ResultKey is the result store key analyses are written under.
const ResultKey = "result_gears"

// ResultStore receives committed records.
type ResultStore interface {
	PutResult(key string, v any)
}

// Analyzer drives the recognizers over the extracted regions.
type Analyzer struct {
	numbers    recognize.NumberRecognizer
	classifier recognize.LabelClassifier
	corrector  *offset.Corrector
	key        string
	logger     logger.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithResultKey overrides the result store key.
func WithResultKey(key string) Option {
	return func(a *Analyzer) {
		if key != "" {
			a.key = key
		}
	}
}

// New builds an Analyzer. classifier may be nil, in which case gear abilities
// are never classified. A nil corrector disables offset correction.
func New(numbers recognize.NumberRecognizer, classifier recognize.LabelClassifier, corrector *offset.Corrector, opts ...Option) *Analyzer {
	if corrector == nil {
		corrector = offset.NewCorrector()
	}
	a := &Analyzer{
		numbers:    numbers,
		classifier: classifier,
		corrector:  corrector,
		key:        ResultKey,
		logger:     logger.GetOrNop().Named("analyzer"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze reads cash, level and experience from frame and, if all three
// resolve, classifies the gear abilities and writes the record to store.
// A failing gear classification only leaves that ability out.
func (a *Analyzer) Analyze(ctx context.Context, frame *image.RGBA, store ResultStore) (*model.ResultRecord, error) {
	if frame == nil {
		return nil, ErrNoFrame
	}
	frame = a.corrector.Apply(frame)
	regions := region.Extract(frame)

	var (
		rec    = &model.ResultRecord{CashImage: regions.Cash, LevelImage: regions.Level, ExpImage: regions.Exp}
		failed []string
	)

	if err := a.field(ctx, "cash", func() (err error) {
		rec.Cash, err = a.numbers.MatchDigits(regions.Cash,
			recognize.WithNumDigits(7, 7),
			recognize.WithCharWidth(5, 34),
			recognize.WithCharHeight(28, 37),
		)
		return err
	}); err != nil {
		failed = append(failed, "cash")
	}
	if err := a.field(ctx, "level", func() (err error) {
		rec.Level, err = a.numbers.MatchDigits(regions.Level)
		return err
	}); err != nil {
		failed = append(failed, "level")
	}
	if err := a.field(ctx, "exp", func() (err error) {
		rec.Exp, err = a.numbers.Match(regions.Exp)
		return err
	}); err != nil {
		failed = append(failed, "exp")
	}
	if len(failed) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrIncomplete, strings.Join(failed, ","))
	}

	for n := range rec.Gears {
		rec.Gears[n] = a.gear(ctx, n, regions.Gears[n])
	}

	if store != nil {
		store.PutResult(a.key, rec)
	}
	return rec, nil
}

// gear classifies the ability icons of one slot.
func (a *Analyzer) gear(ctx context.Context, n int, images map[model.GearField]*image.RGBA) model.GearSlot {
	slot := model.GearSlot{Images: images, Abilities: map[model.GearField]string{}}
	if a.classifier == nil || !a.classifier.Trained() {
		return slot
	}
	for _, f := range model.AbilityFields {
		var label string
		name := fmt.Sprintf("gear%d.%s", n, f)
		if err := a.field(ctx, name, func() (err error) {
			label, _, err = a.classifier.Predict(images[f])
			return err
		}); err != nil {
			continue
		}
		slot.Abilities[f] = label
	}
	return slot
}

// field runs one recognizer call, turning panics into errors.
func (a *Analyzer) field(ctx context.Context, name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recognizer panic: %v", r)
		}
		if err != nil {
			metrics.RecordRecognizerFailure(name)
			level := a.logger.Debug
			if !errors.Is(err, recognize.ErrNotRecognized) {
				level = a.logger.Warn
			}
			level(ctx, "field not resolved", logger.String("field", name), logger.Error(err))
		}
	}()
	return fn()
}
