package query

import (
	"context"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/riftcode/volsearch/common"
	"github.com/riftcode/volsearch/searchindex"
)

// BatchSize matches spec.md §5's streaming delivery shape: results flow to
// the caller in batches of about 100 rather than one at a time or all at
// once.
const BatchSize = 100

// Batch is one slice of matching items delivered to the caller, tagged
// with the run and the volume it came from so concurrent/interleaved
// streams stay distinguishable in logs.
type Batch struct {
	RunID common.RunID
	Drive byte
	Items []searchindex.IndexedItem
}

// Orchestrator fans a parsed query out across every volume's index
// concurrently and streams matches back in batches, per spec.md §4.5 and
// §5's "per-volume fan-out, batched channel delivery" design. Bounded to
// runtime.NumCPU() concurrent volume searches via errgroup.SetLimit, the
// same shape the teacher bounds its own concurrent enumeration work with.
type Orchestrator struct {
	Logger common.ILogger

	// MaxResults caps the total number of items streamed across every
	// volume for one Search call, per spec.md §8's "a query whose result
	// set exceeds max is truncated exactly to max items" boundary rule.
	// Zero or negative means unbounded, matching config.Config.MaxResults
	// being the only source of this value in practice.
	MaxResults int
}

// Search runs raw against every index in volumes, streaming batches on the
// returned channel. The channel is closed when every volume has finished
// (or the context is canceled); the caller stops early simply by no longer
// reading from the channel and canceling ctx — cooperative cancellation
// via sink drop, matching spec.md §5.
func (o *Orchestrator) Search(ctx context.Context, volumes map[byte]*searchindex.SearchIndex, raw string, runID common.RunID) <-chan Batch {
	out := make(chan Batch, 4)
	filters := ParseQuery(raw)

	go func() {
		defer close(out)

		limit := runtime.NumCPU()
		if limit < 1 {
			limit = 1
		}
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(limit)

		var remaining *int64
		if o.MaxResults > 0 {
			r := int64(o.MaxResults)
			remaining = &r
		}

		for letter, idx := range volumes {
			letter, idx := letter, idx
			g.Go(func() error {
				return o.searchVolume(gctx, letter, idx, filters, runID, out, remaining)
			})
		}
		_ = g.Wait()
	}()

	return out
}

// take reserves up to n slots from the shared remaining budget, returning
// how many the caller may actually use (possibly fewer than n, or zero
// once the budget is exhausted). A nil remaining means unbounded.
func take(remaining *int64, n int) int {
	if remaining == nil {
		return n
	}
	for {
		cur := atomic.LoadInt64(remaining)
		if cur <= 0 {
			return 0
		}
		want := int64(n)
		if want > cur {
			want = cur
		}
		if atomic.CompareAndSwapInt64(remaining, cur, cur-want) {
			return int(want)
		}
	}
}

func (o *Orchestrator) searchVolume(ctx context.Context, letter byte, idx *searchindex.SearchIndex, filters Filters, runID common.RunID, out chan<- Batch, remaining *int64) error {
	candidates := o.candidates(idx, filters)

	var batch []searchindex.IndexedItem
	for _, it := range candidates {
		if !filters.Match(it.Name, extOf(it.Name), it.Size, it.IsDir, it.ModTime, it.Path) {
			continue
		}
		if take(remaining, 1) == 0 {
			break
		}
		batch = append(batch, it)
		if len(batch) >= BatchSize {
			if !o.emit(ctx, out, runID, letter, batch) {
				return ctx.Err()
			}
			batch = nil
		}
	}
	if len(batch) > 0 {
		o.emit(ctx, out, runID, letter, batch)
	}
	return nil
}

// candidates picks the cheapest starting set: a name-pattern query can use
// the trie/linear-scan search helpers to narrow before attribute filters
// run; an attribute-only query (ext:/size:/dm:/path: with no free text)
// has nothing to narrow with first and must scan everything.
func (o *Orchestrator) candidates(idx *searchindex.SearchIndex, filters Filters) []searchindex.IndexedItem {
	if filters.NamePattern == "" {
		return idx.All()
	}
	return idx.SearchContains(filters.NamePattern)
}

func (o *Orchestrator) emit(ctx context.Context, out chan<- Batch, runID common.RunID, letter byte, items []searchindex.IndexedItem) bool {
	batch := Batch{RunID: runID, Drive: letter, Items: append([]searchindex.IndexedItem(nil), items...)}
	select {
	case out <- batch:
		return true
	case <-ctx.Done():
		return false
	}
}

func extOf(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[i+1:]
		}
		if name[i] == '\\' || name[i] == '/' {
			break
		}
	}
	return ""
}
