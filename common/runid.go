package common

import "github.com/google/uuid"

// RunID correlates every batch belonging to one search_files / realtime_search
// invocation (build_index calls are not assigned one), the way the teacher correlates transfer events by
// JobID — except a JobID there is azcopy's own hand-rolled UUID type
// (common/uuid.go), while here there is no pre-existing domain UUID type to
// collide with, so this wraps google/uuid directly rather than reinventing it.
type RunID uuid.UUID

func NewRunID() RunID {
	return RunID(uuid.New())
}

func (r RunID) String() string {
	return uuid.UUID(r).String()
}

func ParseRunID(s string) (RunID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return RunID{}, err
	}
	return RunID(u), nil
}
