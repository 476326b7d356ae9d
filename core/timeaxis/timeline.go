package timeaxis

import (
	"fmt"
	"sort"

	"github.com/kilianp07/posched/core/model"
)

// Timeline is the ascending, duplicate-free set of ticks at which some job
// starts or ends, plus anchor ticks. No job changes its active status
// between two consecutive entries, so one decision per entry suffices.
type Timeline struct {
	adapter Adapter
	ticks   []int
	index   map[int]int
}

// Compress builds the timeline of jobs. Anchors are domain values converted
// through a.
func Compress(a Adapter, jobs []*model.Job, anchors ...any) (*Timeline, error) {
	ticks := make([]int, 0, 2*len(jobs)+len(anchors))
	for _, j := range jobs {
		ticks = append(ticks, j.StartTick, j.EndTick)
	}
	for _, v := range anchors {
		t, err := a.ToTick(v)
		if err != nil {
			return nil, fmt.Errorf("anchor: %w", err)
		}
		ticks = append(ticks, t)
	}
	return FromTicks(a, ticks...), nil
}

// FromTicks builds a timeline directly from raw ticks.
func FromTicks(a Adapter, ticks ...int) *Timeline {
	sorted := append([]int(nil), ticks...)
	sort.Ints(sorted)
	uniq := sorted[:0]
	for i, t := range sorted {
		if i == 0 || t != sorted[i-1] {
			uniq = append(uniq, t)
		}
	}
	tl := &Timeline{adapter: a, ticks: uniq, index: make(map[int]int, len(uniq))}
	for i, t := range uniq {
		tl.index[t] = i
	}
	return tl
}

// Len returns the number of compressed ticks.
func (tl *Timeline) Len() int { return len(tl.ticks) }

// Ticks returns a copy of the compressed ticks.
func (tl *Timeline) Ticks() []int { return append([]int(nil), tl.ticks...) }

// Tick maps a compressed index to its tick.
func (tl *Timeline) Tick(i int) int { return tl.ticks[i] }

// Index maps a tick to its compressed index.
func (tl *Timeline) Index(tick int) (int, bool) {
	i, ok := tl.index[tick]
	return i, ok
}

// Value maps a compressed index to its domain value.
func (tl *Timeline) Value(i int) any { return tl.adapter.FromTick(tl.ticks[i]) }

// Adapter returns the adapter used for domain conversions.
func (tl *Timeline) Adapter() Adapter { return tl.adapter }

// ActiveIndices returns every compressed index whose tick lies within the
// job window.
func (tl *Timeline) ActiveIndices(j *model.Job) []int {
	return tl.Between(j.StartTick, j.EndTick)
}

// Between returns the compressed indices with ticks in [start, end].
func (tl *Timeline) Between(start, end int) []int {
	lo := sort.SearchInts(tl.ticks, start)
	hi := sort.SearchInts(tl.ticks, end+1)
	if lo >= hi {
		return nil
	}
	out := make([]int, 0, hi-lo)
	for i := lo; i < hi; i++ {
		out = append(out, i)
	}
	return out
}
