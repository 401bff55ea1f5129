package stream

// SeekEntry maps one container position to a presentation timestamp on a
// given stream.
type SeekEntry struct {
	StreamID uint32
	TimeMs   uint64
	Offset   int64
	Keyframe bool
}

// SeekIndex is the optional position->timestamp lookup a container's index
// chunk populates during open (AVI's idx1; the RealMedia demuxer does not
// parse INDX and leaves the index empty). Entries are
// kept sorted by TimeMs per stream so Lookup can binary search.
type SeekIndex struct {
	entries map[uint32][]SeekEntry
}

// NewSeekIndex creates an empty index.
func NewSeekIndex() *SeekIndex {
	return &SeekIndex{entries: make(map[uint32][]SeekEntry)}
}

// Add records one entry. Entries for a given stream must be added in
// increasing TimeMs order (true of AVI's idx1, which is written in
// presentation order).
func (si *SeekIndex) Add(e SeekEntry) {
	si.entries[e.StreamID] = append(si.entries[e.StreamID], e)
}

// Lookup returns the last entry for streamID whose TimeMs is <= timeMs
// and is a keyframe, i.e. the closest seekable position at or before the
// requested time. ok is false if the stream has no index or no keyframe
// entry at or before timeMs, in which case the caller should seek to the
// first keyframe instead.
func (si *SeekIndex) Lookup(streamID uint32, timeMs uint64) (SeekEntry, bool) {
	list := si.entries[streamID]
	if len(list) == 0 {
		return SeekEntry{}, false
	}
	lo, hi := 0, len(list)
	for lo < hi {
		mid := (lo + hi) / 2
		if list[mid].TimeMs <= timeMs {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	for i := lo - 1; i >= 0; i-- {
		if list[i].Keyframe {
			return list[i], true
		}
	}
	return SeekEntry{}, false
}

// IsEmpty reports whether the index has no entries for any stream.
func (si *SeekIndex) IsEmpty() bool {
	return len(si.entries) == 0
}
