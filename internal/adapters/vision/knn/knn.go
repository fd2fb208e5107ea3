// Package knn is a small k-nearest-neighbour classifier over image patches.
// Patches are scaled to a fixed size and compared by euclidean distance of
// their luminance.
package knn

import (
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/okian/gearscan/internal/domain/recognize"
)

// Defaults.
const (
	DefaultK    = 1
	DefaultSize = 16
)

type sample struct {
	label    string
	features []float64
}

// Classifier implements recognize.LabelClassifier.
type Classifier struct {
	mu          sync.RWMutex
	samples     []sample
	k           int
	w, h        int
	maxDistance float64
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithK sets how many neighbours vote.
func WithK(k int) Option {
	return func(c *Classifier) {
		if k > 0 {
			c.k = k
		}
	}
}

// WithSize sets the patch size features are computed at.
func WithSize(w, h int) Option {
	return func(c *Classifier) {
		if w > 0 && h > 0 {
			c.w, c.h = w, h
		}
	}
}

// WithMaxDistance rejects predictions farther than d from every sample.
func WithMaxDistance(d float64) Option {
	return func(c *Classifier) { c.maxDistance = d }
}

// New returns an empty classifier.
func New(opts ...Option) *Classifier {
	c := &Classifier{k: DefaultK, w: DefaultSize, h: DefaultSize}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Features scales img to the classifier size and returns its luminance in 0..1.
func (c *Classifier) Features(img image.Image) []float64 {
	scaled := image.NewGray(image.Rect(0, 0, c.w, c.h))
	draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Src, nil)
	out := make([]float64, len(scaled.Pix))
	for i, v := range scaled.Pix {
		out[i] = float64(v) / 255
	}
	return out
}

// Add stores img as an example of label.
func (c *Classifier) Add(label string, img image.Image) {
	f := c.Features(img)
	c.mu.Lock()
	c.samples = append(c.samples, sample{label: label, features: f})
	c.mu.Unlock()
}

// Len returns the number of stored samples.
func (c *Classifier) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.samples)
}

// Trained reports whether any sample was added.
func (c *Classifier) Trained() bool {
	return c.Len() > 0
}

// Labels returns the distinct labels in sorted order.
func (c *Classifier) Labels() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, s := range c.samples {
		seen[s.label] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for l := range seen {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

type neighbour struct {
	label    string
	distance float64
}

// Predict returns the majority label among the k nearest samples and the
// distance to the nearest sample carrying it.
func (c *Classifier) Predict(img *image.RGBA) (string, float64, error) {
	if img == nil || img.Bounds().Empty() {
		return "", 0, recognize.ErrNotRecognized
	}
	f := c.Features(img)

	c.mu.RLock()
	if len(c.samples) == 0 {
		c.mu.RUnlock()
		return "", 0, recognize.ErrUntrained
	}
	ns := make([]neighbour, len(c.samples))
	for i, s := range c.samples {
		ns[i] = neighbour{label: s.label, distance: distance(f, s.features)}
	}
	c.mu.RUnlock()

	sort.SliceStable(ns, func(i, j int) bool { return ns[i].distance < ns[j].distance })
	if c.maxDistance > 0 && ns[0].distance > c.maxDistance {
		return "", ns[0].distance, fmt.Errorf("%w: nearest sample at %.3f", recognize.ErrNotRecognized, ns[0].distance)
	}

	k := min(c.k, len(ns))
	votes := make(map[string]int, k)
	best := ns[0]
	for _, n := range ns[:k] {
		votes[n.label]++
		// ties go to the label seen first, i.e. the closer one
		if votes[n.label] > votes[best.label] {
			best = n
		}
	}
	for _, n := range ns[:k] {
		if n.label == best.label {
			return n.label, n.distance, nil
		}
	}
	return best.label, best.distance, nil
}

func distance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// LoadDir adds every image under dir, using the name of each immediate
// sub-directory as the label of the images inside it.
func (c *Classifier) LoadDir(dir string) (int, error) {
	return WalkSamples(dir, func(label string, img image.Image) {
		c.Add(label, img)
	})
}

// WalkSamples calls fn for every decodable image in the immediate
// sub-directories of dir, passing the sub-directory name as label. Files
// that do not decode are skipped.
func WalkSamples(dir string, fn func(label string, img image.Image)) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read samples: %w", err)
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		label := e.Name()
		files, err := os.ReadDir(filepath.Join(dir, label))
		if err != nil {
			return n, fmt.Errorf("read label %s: %w", label, err)
		}
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			img, err := decode(filepath.Join(dir, label, f.Name()))
			if err != nil {
				continue
			}
			fn(label, img)
			n++
		}
	}
	return n, nil
}

func decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}
