// Package source supplies frames to the scene pipeline.
package source

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/okian/gearscan/internal/domain/model"
	"github.com/okian/gearscan/pkg/logger"
)

// DefaultInterval spaces frames whose file names carry no timestamp.
const DefaultInterval = 100 * time.Millisecond

// ErrNoFrames is returned when a directory holds no decodable frame files.
var ErrNoFrames = errors.New("no frame files found")

var extensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".webp": true,
}

// Source yields frames in capture order. Next returns io.EOF after the last one.
type Source interface {
	Next(ctx context.Context) (model.Frame, error)
	Close() error
}

// frameFile is one image file and the timestamp it replays at.
type frameFile struct {
	path string
	msec int64
}

// DirSource replays the image files of a directory. When every file stem is a
// non-negative integer the stems are the timestamps in milliseconds and files
// replay in numeric order; otherwise they replay by name, spaced by the
// configured interval.
type DirSource struct {
	files    []frameFile
	pos      int
	seq      uint64
	interval time.Duration
	realtime bool
	sleep    func(ctx context.Context, d time.Duration) error
	lastMsec int64
	logger   logger.Logger
}

// Option configures a DirSource.
type Option func(*DirSource)

// WithInterval sets the spacing of frames without a numeric file name.
func WithInterval(d time.Duration) Option {
	return func(s *DirSource) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithRealtime paces Next by the gap between frame timestamps.
func WithRealtime(enabled bool) Option {
	return func(s *DirSource) { s.realtime = enabled }
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *DirSource) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewDirSource lists the frame files under dir.
func NewDirSource(dir string, opts ...Option) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read frames dir: %w", err)
	}
	s := &DirSource{
		interval: DefaultInterval,
		sleep:    sleepContext,
		lastMsec: -1,
		logger:   logger.GetOrNop().Named("source"),
	}
	for _, opt := range opts {
		opt(s)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !extensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoFrames, dir)
	}
	sort.Strings(names)

	s.files = make([]frameFile, len(names))
	numeric := true
	for i, name := range names {
		s.files[i].path = filepath.Join(dir, name)
		msec, ok := stemMsec(name)
		numeric = numeric && ok
		s.files[i].msec = msec
	}
	if numeric {
		sort.SliceStable(s.files, func(i, j int) bool { return s.files[i].msec < s.files[j].msec })
		return s, nil
	}
	for i := range s.files {
		s.files[i].msec = int64(i) * s.interval.Milliseconds()
	}
	return s, nil
}

// Len returns the number of frames in the directory.
func (s *DirSource) Len() int { return len(s.files) }

// Next decodes the next frame. Files that fail to decode are logged and
// delivered as frames with a nil image so the timeline keeps its gaps.
func (s *DirSource) Next(ctx context.Context) (model.Frame, error) {
	if err := ctx.Err(); err != nil {
		return model.Frame{}, err
	}
	if s.pos >= len(s.files) {
		return model.Frame{}, io.EOF
	}
	path, msec := s.files[s.pos].path, s.files[s.pos].msec
	s.pos++
	s.seq++

	if s.realtime && s.lastMsec >= 0 && msec > s.lastMsec {
		if err := s.sleep(ctx, time.Duration(msec-s.lastMsec)*time.Millisecond); err != nil {
			return model.Frame{}, err
		}
	}
	s.lastMsec = msec

	img, err := LoadRGBA(path)
	if err != nil {
		s.logger.Warn(ctx, "frame unreadable", logger.String("path", path), logger.Error(err))
	}
	return model.Frame{Image: img, Msec: msec, Seq: s.seq}, nil
}

// Close implements Source.
func (s *DirSource) Close() error {
	s.pos = len(s.files)
	return nil
}

// stemMsec parses a file stem such as "001250" as milliseconds.
func stemMsec(name string) (int64, bool) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	v, err := strconv.ParseInt(stem, 10, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// LoadRGBA decodes an image file into RGBA.
func LoadRGBA(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}
	out := image.NewRGBA(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	return out, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// SliceSource replays frames held in memory.
type SliceSource struct {
	frames []model.Frame
	pos    int
}

// NewSliceSource returns a source over frames.
func NewSliceSource(frames ...model.Frame) *SliceSource {
	return &SliceSource{frames: frames}
}

// Next implements Source.
func (s *SliceSource) Next(ctx context.Context) (model.Frame, error) {
	if err := ctx.Err(); err != nil {
		return model.Frame{}, err
	}
	if s.pos >= len(s.frames) {
		return model.Frame{}, io.EOF
	}
	f := s.frames[s.pos]
	s.pos++
	if f.Seq == 0 {
		f.Seq = uint64(s.pos)
	}
	return f, nil
}

// Close implements Source.
func (s *SliceSource) Close() error { return nil }
