// Package searchclient is the top-level façade implementing spec.md §6's
// programmatic API, the same role azcopyclient.Client plays for the
// teacher: the one entry point both the CLI and any external embedder
// calls into, wiring together volio, mft, pathresolve, searchindex,
// changetracker, and query.
package searchclient

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/riftcode/volsearch/changetracker"
	"github.com/riftcode/volsearch/common"
	"github.com/riftcode/volsearch/config"
	"github.com/riftcode/volsearch/mft"
	"github.com/riftcode/volsearch/pathresolve"
	"github.com/riftcode/volsearch/query"
	"github.com/riftcode/volsearch/searchindex"
	"github.com/riftcode/volsearch/volio"
)

// Client holds every volume's index and change tracker, guarded by a
// single RWMutex — the per-volume map is small (at most 26 entries) and
// contended only during build/rebuild, so one lock for map membership is
// enough; the heavier concurrency (per-item locking, fan-out) lives inside
// SearchIndex and Orchestrator respectively, per spec.md §5.
type Client struct {
	mu       sync.RWMutex
	volumes  map[byte]*searchindex.SearchIndex
	pollers  map[byte]*changetracker.Poller
	handles  map[byte]volio.VolumeHandle
	building *common.ExclusiveByteSet

	cfg          config.Config
	logger       common.ILogger
	orchestrator query.Orchestrator
	policy       pathresolve.ExclusionPolicy
}

// New constructs a Client with the given configuration and logger. A nil
// logger defaults to common.NopLogger.
func New(cfg config.Config, logger common.ILogger) *Client {
	if logger == nil {
		logger = common.NopLogger
	}
	policy := pathresolve.ExclusionPolicy{AllowedPaths: cfg.AllowedPaths}
	return &Client{
		volumes:      make(map[byte]*searchindex.SearchIndex),
		pollers:      make(map[byte]*changetracker.Poller),
		handles:      make(map[byte]volio.VolumeHandle),
		building:     common.NewExclusiveByteSet(),
		cfg:          cfg,
		logger:       logger,
		orchestrator: query.Orchestrator{Logger: logger, MaxResults: cfg.MaxResults},
		policy:       policy,
	}
}

// DriveState returns letter's current lifecycle state, or
// VolumeState.Uninitialized if the volume has never been built.
func (c *Client) DriveState(letter byte) common.VolumeState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	poller, ok := c.pollers[letter]
	if !ok {
		return common.EVolumeState.Uninitialized()
	}
	return poller.State()
}

// IndexBuildStatus is the status value an IndexBuildEvent carries,
// mirroring spec.md §6's index-building event payload (`{drive, status}`).
type IndexBuildStatus string

const (
	IndexBuildStatusBuilding  IndexBuildStatus = "building"
	IndexBuildStatusCompleted IndexBuildStatus = "completed"
	IndexBuildStatusFailed    IndexBuildStatus = "failed"
)

// IndexBuildEvent is one progress notification BuildIndex's sink receives
// for a single drive.
type IndexBuildEvent struct {
	Drive  byte
	Status IndexBuildStatus
	Err    error
}

// IndexRebuildFinished is BuildIndex's final summary, mirroring spec.md
// §6's index-rebuild-finished event payload (`{success, failed, message}`).
type IndexRebuildFinished struct {
	Succeeded []byte
	Failed    []byte
	Message   string
}

// IndexStatusSummary is check_index_status's return shape (spec.md §6):
// `{ready, ready_count, total_drives, total_files, loading_count, status_text}`.
type IndexStatusSummary struct {
	Ready        bool
	ReadyCount   int
	TotalDrives  int
	TotalFiles   int
	LoadingCount int
	StatusText   string
}

// CheckIndexStatus aggregates every drive in scope into one status
// summary, the shape the outer shell's status bar renders directly.
func (c *Client) CheckIndexStatus(scope []byte) IndexStatusSummary {
	c.mu.RLock()
	defer c.mu.RUnlock()

	summary := IndexStatusSummary{TotalDrives: len(scope)}
	for _, letter := range scope {
		state := common.EVolumeState.Uninitialized()
		if poller, ok := c.pollers[letter]; ok {
			state = poller.State()
		}
		switch state {
		case common.EVolumeState.Live():
			summary.ReadyCount++
			if idx, ok := c.volumes[letter]; ok {
				summary.TotalFiles += idx.ItemCount()
			}
		case common.EVolumeState.Scanning(), common.EVolumeState.Reset():
			summary.LoadingCount++
		}
	}
	summary.Ready = summary.TotalDrives > 0 && summary.ReadyCount == summary.TotalDrives
	summary.StatusText = fmt.Sprintf("%d/%d drives ready", summary.ReadyCount, summary.TotalDrives)
	return summary
}

// BuildIndex forces a full rebuild for each drive in scope, running them
// concurrently (one goroutine per drive, with no concurrency limit) and
// reporting an IndexBuildEvent per drive per
// transition to sink, which may be nil. It never returns a per-drive
// failure as the overall call's error — per spec.md §8's "UI receives a
// completion event... never a failed promise" — only a context
// cancellation aborts the whole call early.
func (c *Client) BuildIndex(ctx context.Context, scope []byte, sink func(IndexBuildEvent)) (IndexRebuildFinished, error) {
	if sink == nil {
		sink = func(IndexBuildEvent) {}
	}
	var sinkMu sync.Mutex
	emit := func(ev IndexBuildEvent) {
		sinkMu.Lock()
		defer sinkMu.Unlock()
		sink(ev)
	}

	var resultMu sync.Mutex
	var succeeded, failed []byte

	// ctx (not an errgroup-derived context, which Wait cancels) is passed
	// down so a poller started by AutoStartMonitoring outlives this call.
	var g errgroup.Group
	for _, letter := range scope {
		letter := letter
		g.Go(func() error {
			emit(IndexBuildEvent{Drive: letter, Status: IndexBuildStatusBuilding})
			err := c.buildOne(ctx, letter)
			resultMu.Lock()
			if err != nil {
				failed = append(failed, letter)
			} else {
				succeeded = append(succeeded, letter)
			}
			resultMu.Unlock()

			if err != nil {
				emit(IndexBuildEvent{Drive: letter, Status: IndexBuildStatusFailed, Err: err})
			} else {
				emit(IndexBuildEvent{Drive: letter, Status: IndexBuildStatusCompleted})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return IndexRebuildFinished{}, err
	}
	if err := ctx.Err(); err != nil {
		return IndexRebuildFinished{}, err
	}

	finished := IndexRebuildFinished{
		Succeeded: succeeded,
		Failed:    failed,
		Message:   fmt.Sprintf("%d succeeded, %d failed", len(succeeded), len(failed)),
	}
	return finished, nil
}

// buildOne performs a full MFT enumeration and path reconstruction for
// letter, replacing any existing index for that volume, unless a
// persisted blob at the volume root is still valid against the volume's
// live journal identifier — per spec.md §3's journal-id-as-epoch rule —
// in which case it loads that blob and catches the index up to the
// journal's current head instead of re-walking the whole MFT. It refuses
// a second concurrent build against the same volume
// (common.ExclusiveByteSet), matching the teacher's own pattern of
// rejecting overlapping work against one resource
// (common/exclusiveStringMap.go) rather than silently racing.
func (c *Client) buildOne(ctx context.Context, letter byte) error {
	if err := c.building.Add(letter); err != nil {
		return err
	}
	defer c.building.Remove(letter)

	vol, err := volio.OpenVolume(letter)
	if err != nil {
		return err
	}

	journal, err := vol.QueryJournal()
	if err != nil {
		vol.Close()
		return err
	}

	idx := searchindex.New()
	indexPath := c.indexPathFor(letter)
	var dirPaths map[uint64]string
	var baselineUSN int64

	if loadedJournalID, loadedUSN, loadErr := idx.Load(indexPath); loadErr == nil && loadedJournalID == journal.JournalID {
		c.logger.Logf(common.ELogLevel.Info(), "drive %c: reusing persisted index (journal id %d matches)", letter, journal.JournalID)
		dirPaths = dirPathsFromIndex(idx)
		baselineUSN = loadedUSN
	} else {
		items, dp, bUSN, err := c.scanVolume(ctx, vol, letter, journal)
		if err != nil {
			vol.Close()
			return err
		}
		idx.Build(items)
		dirPaths = dp
		baselineUSN = bUSN
	}

	c.mu.Lock()
	if old, ok := c.handles[letter]; ok {
		old.Close()
	}
	c.volumes[letter] = idx
	c.handles[letter] = vol
	c.mu.Unlock()

	poller := changetracker.New(letter, vol, idx, c.logger)
	poller.OnReset = func(ctx context.Context) (int64, map[uint64]string, error) {
		journal, err := vol.QueryJournal()
		if err != nil {
			return 0, nil, err
		}
		items, dp, bUSN, err := c.scanVolume(ctx, vol, letter, journal)
		if err != nil {
			return 0, nil, err
		}
		idx.Build(items)
		return bUSN, dp, nil
	}
	if err := poller.Resume(baselineUSN, dirPaths); err != nil {
		return err
	}
	// Catch the reused index up to the journal's current head immediately,
	// replaying whatever changed between the persisted blob's save time and
	// now, before this volume is considered Live for search.
	if err := poller.Poll(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	c.pollers[letter] = poller
	c.mu.Unlock()

	catchUpJournalID, catchUpUSN := poller.Snapshot()
	if err := idx.Save(indexPath, catchUpJournalID, catchUpUSN); err != nil {
		c.logger.Logf(common.ELogLevel.Warn(), "drive %c: could not persist index after build: %v", letter, err)
	}

	if c.cfg.AutoStartMonitoring {
		return c.StartFileMonitoring(ctx, letter)
	}
	return nil
}

// scanVolume runs one full mft.Enumerate + pathresolve.Resolve pass
// against an already-open volume handle and journal snapshot, returning
// the items ready for searchindex.Build, the directory-path cache
// changetracker needs, and the USN to resume polling from.
func (c *Client) scanVolume(ctx context.Context, vol volio.VolumeHandle, letter byte, journal volio.JournalData) ([]searchindex.IndexedItem, map[uint64]string, int64, error) {
	records, errc := mft.Enumerate(ctx, vol, letter)
	var collected []mft.Record
	for r := range records {
		collected = append(collected, r)
	}
	if err := <-errc; err != nil {
		return nil, nil, 0, err
	}

	resolved := pathresolve.Resolve(collected, letter, c.policy, pathresolve.LookupAttrsOS)

	items := make([]searchindex.IndexedItem, 0, len(resolved))
	dirPaths := make(map[uint64]string)
	for ref, rp := range resolved {
		items = append(items, searchindex.IndexedItem{
			FileRef:   rp.FileRef,
			ParentRef: rp.ParentRef,
			Name:      baseName(rp.Path),
			Path:      rp.Path,
			Size:      rp.Size,
			IsDir:     rp.IsDir,
			ModTime:   rp.ModTime,
		})
		if rp.IsDir {
			dirPaths[ref] = rp.Path
		}
	}

	return items, dirPaths, journal.NextUSN, nil
}

// dirPathsFromIndex rebuilds the directory file-ref -> path map a
// changetracker.Poller needs from a just-loaded index's own items,
// avoiding the need to persist that map separately: every live directory
// entry in the index already carries the full path a later add-event
// under it would need.
func dirPathsFromIndex(idx *searchindex.SearchIndex) map[uint64]string {
	dirPaths := make(map[uint64]string)
	for _, it := range idx.All() {
		if it.IsDir {
			dirPaths[it.FileRef] = it.Path
		}
	}
	return dirPaths
}

// StartFileMonitoring begins polling letter's USN journal in the
// background, keeping its index current until ctx is canceled.
func (c *Client) StartFileMonitoring(ctx context.Context, letter byte) error {
	c.mu.RLock()
	poller, ok := c.pollers[letter]
	c.mu.RUnlock()
	if !ok {
		return errors.Errorf("drive %c: has not been indexed yet", letter)
	}

	go func() {
		if err := poller.Run(ctx); err != nil && ctx.Err() == nil {
			c.logger.Logf(common.ELogLevel.Error(), "drive %c: monitoring stopped: %v", letter, err)
		}
	}()
	return nil
}

// GetAllDrives reports every drive letter with a volume present, per
// original_source/commands.rs's get_all_drives.
func GetAllDrives() []byte {
	return detectDrives()
}

func baseName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '\\' || path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}
