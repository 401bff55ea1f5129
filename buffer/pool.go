package buffer

import "github.com/mediaframe/core/format"

// VideoPool is a bounded collection of video buffers of identical shape.
// A pool entry is "free" exactly when the pool's own handle is the sole
// surviving reference, which is race-free under this core's
// single-threaded-per-pipeline model.
type VideoPool struct {
	info     format.VideoInfo
	logAlign uint
	entries  []*VideoBuffer
	maxLen   int
}

// NewVideoPool creates an empty pool for buffers shaped like info.
func NewVideoPool(info format.VideoInfo, logAlign uint) *VideoPool {
	return &VideoPool{info: info, logAlign: logAlign}
}

// PreallocVideo fills the pool up to maxLen+addLen entries; addLen
// reserves slack for reference frames a decoder holds across calls.
func (p *VideoPool) PreallocVideo(maxLen, addLen int) error {
	p.maxLen = maxLen
	target := maxLen + addLen
	for len(p.entries) < target {
		buf, err := AllocVideoBuffer(p.info, p.logAlign)
		if err != nil {
			return err
		}
		p.entries = append(p.entries, buf)
	}
	return nil
}

// GetFree returns a clone of the first pool entry whose sole remaining
// reference is the pool itself, or nil if every entry is still checked
// out. The returned handle is the caller's to mutate via GetMut until it
// releases it.
func (p *VideoPool) GetFree() *VideoBuffer {
	for _, e := range p.entries {
		if e.RefCount() == 1 {
			c := e.Clone()
			c.pooled = true
			return c
		}
	}
	return nil
}

// Len reports the number of entries currently held by the pool.
func (p *VideoPool) Len() int { return len(p.entries) }

// Shape reports the video info this pool's buffers were allocated with.
func (p *VideoPool) Shape() format.VideoInfo { return p.info }
