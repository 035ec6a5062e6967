package services

import (
	"image"
	"image/color"
	"sync"

	"github.com/custodia-labs/glance/internal/core/domain"
)

// hashGrid is the side of the downsampling grid; hashGrid² = 64 samples.
const hashGrid = 8

// Fingerprint computes the 64-bit average hash of an image. The image is
// downsampled to an 8×8 grid by area averaging of 16-bit luminance, and
// bit i (row-major, most significant first) is set when sample i is
// brighter than the mean of all samples. An empty image hashes to zero.
func Fingerprint(img image.Image) domain.Fingerprint {
	if img == nil || img.Bounds().Empty() {
		return 0
	}
	samples := downsample(img)

	var total float64
	for _, s := range samples {
		total += s
	}
	mean := total / float64(len(samples))

	var fp domain.Fingerprint
	for i, s := range samples {
		if s > mean {
			fp |= 1 << (domain.FingerprintBits - 1 - i)
		}
	}
	return fp
}

// cellBounds returns the half-open pixel span of grid cell i along an
// axis starting at lo with length n.
func cellBounds(lo, n, i int) (int, int) {
	start := lo + i*n/hashGrid
	end := lo + (i+1)*n/hashGrid
	if end <= start {
		end = start + 1
	}
	if end > lo+n {
		end = lo + n
		start = end - 1
	}
	return start, end
}

func downsample(img image.Image) [hashGrid * hashGrid]float64 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	lum := luminanceFunc(img)

	var samples [hashGrid * hashGrid]float64
	for gy := 0; gy < hashGrid; gy++ {
		y0, y1 := cellBounds(b.Min.Y, h, gy)
		for gx := 0; gx < hashGrid; gx++ {
			x0, x1 := cellBounds(b.Min.X, w, gx)
			var sum uint64
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					sum += uint64(lum(x, y))
				}
			}
			count := uint64((x1 - x0) * (y1 - y0))
			samples[gy*hashGrid+gx] = float64(sum) / float64(count)
		}
	}
	return samples
}

// luma16 converts 16-bit RGB to 16-bit luminance with the same weights
// as color.Gray16Model.
func luma16(r, g, b uint32) uint32 {
	return (19595*r + 38470*g + 7471*b + 1<<15) >> 16
}

// luminanceFunc returns a per-pixel luminance reader, reading pixel
// buffers directly for the common screenshot formats.
func luminanceFunc(img image.Image) func(x, y int) uint32 {
	switch m := img.(type) {
	case *image.Gray:
		return func(x, y int) uint32 {
			return uint32(m.Pix[m.PixOffset(x, y)]) * 0x101
		}
	case *image.RGBA:
		return func(x, y int) uint32 {
			i := m.PixOffset(x, y)
			return luma16(uint32(m.Pix[i])*0x101, uint32(m.Pix[i+1])*0x101, uint32(m.Pix[i+2])*0x101)
		}
	case *image.NRGBA:
		return func(x, y int) uint32 {
			i := m.PixOffset(x, y)
			return luma16(uint32(m.Pix[i])*0x101, uint32(m.Pix[i+1])*0x101, uint32(m.Pix[i+2])*0x101)
		}
	default:
		return func(x, y int) uint32 {
			return uint32(color.Gray16Model.Convert(img.At(x, y)).(color.Gray16).Y)
		}
	}
}

// HashTracker stores the last accepted fingerprint per window and decides
// whether a new capture changed meaningfully.
type HashTracker struct {
	mu          sync.RWMutex
	sensitivity int
	windows     map[domain.WindowID]hashState
}

type hashState struct {
	fp  domain.Fingerprint
	seq uint64
}

// NewHashTracker creates a tracker that reports a change when the Hamming
// distance reaches sensitivity. Non-positive values use the default.
func NewHashTracker(sensitivity int) *HashTracker {
	t := &HashTracker{windows: make(map[domain.WindowID]hashState)}
	t.SetSensitivity(sensitivity)
	return t
}

// SetSensitivity updates the change threshold.
func (t *HashTracker) SetSensitivity(sensitivity int) {
	if sensitivity <= 0 || sensitivity > domain.FingerprintBits {
		sensitivity = domain.DefaultSensitivity
	}
	t.mu.Lock()
	t.sensitivity = sensitivity
	t.mu.Unlock()
}

// Sensitivity returns the current change threshold.
func (t *HashTracker) Sensitivity() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sensitivity
}

// Changed compares fp against the stored fingerprint for the window and
// stores fp when it changed. The first observation is always a change.
func (t *HashTracker) Changed(id domain.WindowID, fp domain.Fingerprint) bool {
	changed, _ := t.Observe(id, fp, 0)
	return changed
}

// Observe is Changed for sequenced captures. A capture whose sequence
// number is lower than the last one applied for the window is stale: it
// returns domain.ErrStaleResult and leaves the stored fingerprint alone.
// A zero seq is unsequenced and never stale.
func (t *HashTracker) Observe(id domain.WindowID, fp domain.Fingerprint, seq uint64) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.windows[id]
	if !ok {
		t.windows[id] = hashState{fp: fp, seq: seq}
		return true, nil
	}
	if seq != 0 && seq < st.seq {
		return false, domain.ErrStaleResult
	}
	if seq > st.seq {
		st.seq = seq
	}
	if st.fp.Distance(fp) >= t.sensitivity {
		st.fp = fp
		t.windows[id] = st
		return true, nil
	}
	t.windows[id] = st
	return false, nil
}

// Last returns the stored fingerprint for a window.
func (t *HashTracker) Last(id domain.WindowID) (domain.Fingerprint, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	st, ok := t.windows[id]
	return st.fp, ok
}

// Forget drops the state for a destroyed window.
func (t *HashTracker) Forget(id domain.WindowID) {
	t.mu.Lock()
	delete(t.windows, id)
	t.mu.Unlock()
}

// Len returns the number of windows with a stored fingerprint.
func (t *HashTracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.windows)
}
