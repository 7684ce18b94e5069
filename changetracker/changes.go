package changetracker

import "github.com/riftcode/volsearch/volio"

// ChangeEvent is one classified USN journal event, the read-only shape
// ReadChanges hands to a caller that wants the raw change stream without
// running it through a Poller's stateful index-update loop — the `ffi`
// package's read_usn_changes is the only current caller.
type ChangeEvent struct {
	Action    ChangeAction
	FileRef   uint64
	ParentRef uint64
	Usn       int64
	Name      string
	IsDir     bool
}

// ReadChanges reads one buffer's worth of USN journal records starting at
// sinceUSN, classifies each, and returns the non-Ignore events plus the USN
// to resume from. Unlike Poller.poll, this performs no de-dup and touches
// no SearchIndex — callers that want the Poller's stateful behavior should
// use New/Resume/Run instead.
func ReadChanges(vol volio.VolumeHandle, sinceUSN int64) ([]ChangeEvent, int64, error) {
	buf := make([]byte, volio.PollBufferSize)
	nextUSN, n, err := vol.ReadUSNJournal(sinceUSN, ReasonMask, buf)
	if err != nil {
		return nil, sinceUSN, err
	}
	if n == 0 {
		return nil, nextUSN, nil
	}

	records := parseJournalRecords(buf[8:n])
	out := make([]ChangeEvent, 0, len(records))
	for _, rec := range records {
		action := classifyReason(rec.Reason)
		if action == EChangeAction.Ignore() {
			continue
		}
		out = append(out, ChangeEvent{
			Action:    action,
			FileRef:   rec.FileRef,
			ParentRef: rec.ParentRef,
			Usn:       rec.Usn,
			Name:      rec.Name,
			IsDir:     rec.IsDir,
		})
	}
	return out, nextUSN, nil
}
