// Package changetracker polls a volume's USN journal and keeps a
// searchindex.SearchIndex current between full rebuilds, implementing the
// state machine and event handling in spec.md §4.4. Grounded in
// original_source/commands.rs's start_file_monitoring (a per-drive polling
// task reading get_current_usn/get_usn_changes every couple seconds) and
// restructured around the teacher's preference for explicit state rather
// than a bare boolean "is running" flag (common/fe-ste-models.go's JobStatus).
package changetracker

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/riftcode/volsearch/common"
	"github.com/riftcode/volsearch/searchindex"
	"github.com/riftcode/volsearch/volio"
)

// PollInterval matches the 2-second cadence original_source/commands.rs
// polls on; journal reads are cheap and this keeps the index close to
// real-time without hammering the volume.
const PollInterval = 2 * time.Second

// ReasonMask selects which USN reasons the journal read returns; ignoring
// SECURITY_CHANGE/EA_CHANGE/etc. on its own keeps the poll buffer from
// filling with events classifyReason would discard anyway.
const ReasonMask = reasonFileCreate | reasonFileDelete | reasonDataExtend | reasonDataOverwrite |
	reasonRenameOldName | reasonRenameNewName | reasonClose

// Poller tracks one volume's change stream against its search index.
type Poller struct {
	letter  byte
	vol     volio.VolumeHandle
	index   *searchindex.SearchIndex
	dirs    *dirPathCache
	logger  common.ILogger
	state   common.AtomicVolumeState
	lastUSN int64
	journalID uint64

	// OnReset is invoked when the journal's identity changes underneath
	// the poller (volume reformatted, journal deleted/recreated, or its
	// valid range rolled past our cursor) — the caller must rebuild the
	// index and dirPathCache from scratch and call Resume with the fresh
	// baseline. Run blocks on this call; Poller does not rebuild itself,
	// since only the caller knows how to re-run mft.Enumerate + pathresolve.
	OnReset func(ctx context.Context) (baselineUSN int64, dirPaths map[uint64]string, err error)
}

// New constructs a Poller in the Uninitialized state. Call Resume with the
// baseline the initial full scan produced before calling Run.
func New(letter byte, vol volio.VolumeHandle, index *searchindex.SearchIndex, logger common.ILogger) *Poller {
	if logger == nil {
		logger = common.NopLogger
	}
	p := &Poller{
		letter: letter,
		vol:    vol,
		index:  index,
		dirs:   newDirPathCache(),
		logger: logger,
	}
	p.state.Store(common.EVolumeState.Uninitialized())
	return p
}

// State returns the poller's current lifecycle state.
func (p *Poller) State() common.VolumeState {
	return p.state.Load()
}

// Resume records the USN cursor and directory-path cache a fresh (or
// freshly rebuilt) index corresponds to, and transitions to Live. Call
// this once after the initial mft.Enumerate + pathresolve.Resolve pass,
// and again every time OnReset completes.
func (p *Poller) Resume(baselineUSN int64, dirPaths map[uint64]string) error {
	journal, err := p.vol.QueryJournal()
	if err != nil {
		return common.NewCoreError(common.EErrorKind.JournalQuery(), p.letter, err)
	}
	p.journalID = journal.JournalID
	p.lastUSN = baselineUSN
	p.dirs.Reset(dirPaths)
	p.state.Store(common.EVolumeState.Live())
	return nil
}

// Snapshot returns the journal identifier and USN the poller is currently
// caught up to, so a caller can stamp a persisted index blob with the
// epoch it actually reflects. Safe to call only while nothing else is
// concurrently driving the poller (i.e. before Run's background goroutine
// starts, or from within that same goroutine).
func (p *Poller) Snapshot() (journalID uint64, lastUSN int64) {
	return p.journalID, p.lastUSN
}

// Poll runs one manual poll cycle immediately rather than waiting for
// Run's ticker, letting a caller catch a freshly Resumed poller up to the
// volume's current journal head (e.g. to replay changes that happened
// between a persisted index's save time and the present) before handing
// off to Run's steady-state polling.
func (p *Poller) Poll(ctx context.Context) error {
	return p.poll(ctx)
}

// Run polls until ctx is canceled, logging a failed poll cycle and carrying
// on with the next tick rather than stopping. It transitions Live -> Reset
// -> Scanning (while OnReset rebuilds) -> Live whenever the journal's
// identity changes underneath it.
func (p *Poller) Run(ctx context.Context) error {
	p.state.CompareAndSwap(common.EVolumeState.Uninitialized(), common.EVolumeState.Scanning())

	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.poll(ctx); err != nil {
				p.logger.Logf(common.ELogLevel.Warn(), "drive %c: poll failed: %v", p.letter, err)
			}
		}
	}
}

func (p *Poller) poll(ctx context.Context) error {
	journal, err := p.vol.QueryJournal()
	if err != nil {
		return common.NewCoreError(common.EErrorKind.JournalQuery(), p.letter, err)
	}

	if journal.JournalID != p.journalID {
		return p.handleReset(ctx)
	}

	buf := make([]byte, volio.PollBufferSize)
	nextUSN, n, err := p.vol.ReadUSNJournal(p.lastUSN, ReasonMask, buf)
	if err != nil {
		return common.NewCoreError(common.EErrorKind.JournalQuery(), p.letter, err)
	}
	if n == 0 {
		return nil
	}

	records := parseJournalRecords(buf[8:n])
	p.applyRecords(records)
	p.lastUSN = nextUSN
	return nil
}

func (p *Poller) handleReset(ctx context.Context) error {
	p.state.Store(common.EVolumeState.Reset())
	p.logger.Logf(common.ELogLevel.Warn(), "drive %c: USN journal identity changed, rebuilding index", p.letter)

	if p.OnReset == nil {
		return common.NewCoreError(common.EErrorKind.JournalReset(), p.letter,
			errors.New("journal reset with no OnReset handler registered"))
	}

	p.state.Store(common.EVolumeState.Scanning())
	baselineUSN, dirPaths, err := p.OnReset(ctx)
	if err != nil {
		return common.NewCoreError(common.EErrorKind.JournalReset(), p.letter, err)
	}
	return p.Resume(baselineUSN, dirPaths)
}

// applyRecords dedups within this batch by (action, fileRef, usn) — each
// distinct USN for a given file/action pair is applied once, per
// SPEC_FULL.md §4.4's resolution of the de-dup open question — then
// applies each surviving event to the index.
func (p *Poller) applyRecords(records []journalRecord) {
	type dedupKey struct {
		action  ChangeAction
		fileRef uint64
		usn     int64
	}
	seen := make(map[dedupKey]struct{}, len(records))

	for _, rec := range records {
		action := classifyReason(rec.Reason)
		if action == EChangeAction.Ignore() {
			continue
		}
		key := dedupKey{action: action, fileRef: rec.FileRef, usn: rec.Usn}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		p.applyOne(action, rec)
	}
}

func (p *Poller) applyOne(action ChangeAction, rec journalRecord) {
	switch action {
	case EChangeAction.Remove():
		p.index.RemoveByRef(rec.FileRef)
		p.dirs.Remove(rec.FileRef)

	case EChangeAction.Add(), EChangeAction.UpdateMetadata():
		var path string
		if parentPath, ok := p.dirs.Get(rec.ParentRef); ok {
			path = joinPath(parentPath, rec.Name)
		} else {
			// Parent directory isn't in the cache yet (itself a very
			// recent create we haven't processed, or simply outside the
			// indexed scope); fall back to resolving the file's own path
			// directly by its id rather than dropping the event.
			resolved, err := p.vol.ResolvePathByFileID(rec.FileRef)
			if err != nil {
				p.logger.Logf(common.ELogLevel.Debug(), "drive %c: could not resolve path for file ref %d, skipping event: %v", p.letter, rec.FileRef, err)
				return
			}
			path = resolved
		}

		item := searchindex.IndexedItem{
			Name:      rec.Name,
			Path:      path,
			FileRef:   rec.FileRef,
			ParentRef: rec.ParentRef,
			IsDir:     rec.IsDir,
		}
		p.index.Add(item)

		if rec.IsDir {
			// A created directory becomes a valid parent for subsequent
			// events in the same or a later batch.
			p.dirs.Set(rec.FileRef, path)
		}
	}
}

func joinPath(parent, name string) string {
	if len(parent) > 0 && parent[len(parent)-1] == '\\' {
		return parent + name
	}
	return parent + `\` + name
}
