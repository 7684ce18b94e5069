package searchclient

import (
	"context"

	"github.com/riftcode/volsearch/common"
	"github.com/riftcode/volsearch/query"
	"github.com/riftcode/volsearch/searchindex"
)

// SearchComplete is the final value SearchFiles/RealtimeSearch's Done
// channel delivers once every batch has been sent, carrying the total
// item count — spec.md §6's search-complete event, the counterpart to the
// search-batch events carried on Batches.
type SearchComplete struct {
	RunID common.RunID
	Count int
}

// SearchResult is what SearchFiles/RealtimeSearch return: a stream of
// matching batches plus a completion signal, mirroring spec.md §6's
// "search-batch events and a search-complete event with total count"
// rather than leaving the caller to infer completion from channel close
// alone.
type SearchResult struct {
	Batches <-chan query.Batch
	Done    <-chan SearchComplete
	RunID   common.RunID
}

// SearchFiles parses raw and fans it out across every volume that has a
// built index, per spec.md §6's search_files. It takes no scope: every
// volume with a built index is searched. The run ID lets callers
// correlate this call's batches in logs even when another SearchFiles or
// RealtimeSearch call is in flight concurrently (SPEC_FULL.md §2.8).
func (c *Client) SearchFiles(ctx context.Context, raw string) SearchResult {
	runID := common.NewRunID()

	c.mu.RLock()
	volumes := make(map[byte]*searchindex.SearchIndex, len(c.volumes))
	for letter, idx := range c.volumes {
		volumes[letter] = idx
	}
	c.mu.RUnlock()

	c.logger.Logf(common.ELogLevel.Info(), "search %s: %q across %d volume(s)", runID, raw, len(volumes))
	batches := c.orchestrator.Search(ctx, volumes, raw, runID)
	return countingResult(runID, batches)
}

// RealtimeSearch behaves like SearchFiles but additionally falls back to a
// live filesystem walk (query.LiveWalk) for any drive in scopeDrives that
// has no MFT-backed index yet, per spec.md §4.6 — the distinction
// original_source/commands.rs draws between SearchMode variants.
func (c *Client) RealtimeSearch(ctx context.Context, raw string, scopeDrives []byte) SearchResult {
	runID := common.NewRunID()
	filters := query.ParseQuery(raw)

	c.mu.RLock()
	built := make(map[byte]bool, len(c.volumes))
	for letter := range c.volumes {
		built[letter] = true
	}
	c.mu.RUnlock()

	var unindexed []byte
	for _, letter := range scopeDrives {
		if !built[letter] {
			unindexed = append(unindexed, letter)
		}
	}

	out := make(chan query.Batch, 4)
	go func() {
		defer close(out)

		if len(built) > 0 {
			indexed := c.SearchFiles(ctx, raw)
			for b := range indexed.Batches {
				b.RunID = runID
				select {
				case out <- b:
				case <-ctx.Done():
					return
				}
			}
			<-indexed.Done
		}

		for _, letter := range unindexed {
			c.liveWalkOneDrive(ctx, letter, filters, runID, out)
		}
	}()

	return countingResult(runID, out)
}

// countingResult wraps batches in a SearchResult, tallying each batch's
// item count and delivering it on Done once batches closes.
func countingResult(runID common.RunID, batches <-chan query.Batch) SearchResult {
	out := make(chan query.Batch, 4)
	done := make(chan SearchComplete, 1)
	go func() {
		defer close(out)
		defer close(done)
		count := 0
		for b := range batches {
			count += len(b.Items)
			out <- b
		}
		done <- SearchComplete{RunID: runID, Count: count}
	}()
	return SearchResult{Batches: out, Done: done, RunID: runID}
}

func (c *Client) liveWalkOneDrive(ctx context.Context, letter byte, filters query.Filters, runID common.RunID, out chan<- query.Batch) {
	root := string(letter) + `:\`
	var batch []searchindex.IndexedItem
	delivered := 0

	flush := func() bool {
		if len(batch) == 0 {
			return true
		}
		b := query.Batch{RunID: runID, Drive: letter, Items: batch}
		select {
		case out <- b:
			batch = nil
			return true
		case <-ctx.Done():
			return false
		}
	}

	err := query.LiveWalk(ctx, root, c.policy, filters, func(r query.LiveWalkResult) bool {
		if c.cfg.MaxResults > 0 && delivered >= c.cfg.MaxResults {
			return false
		}
		batch = append(batch, searchindex.IndexedItem{
			Name:    r.Name,
			Path:    r.Path,
			IsDir:   r.IsDir,
			Size:    r.Size,
			ModTime: r.ModTime,
		})
		delivered++
		if len(batch) >= query.BatchSize {
			return flush()
		}
		return true
	})
	flush()
	if err != nil && ctx.Err() == nil {
		c.logger.Logf(common.ELogLevel.Warn(), "live walk of drive %c: failed: %v", letter, err)
	}
}
