package common

import (
	"sync"

	"github.com/pkg/errors"
)

// ExclusiveByteSet tracks a set of in-flight single-byte keys (drive
// letters) so a second concurrent build_index call against a volume that's
// already rebuilding is rejected instead of racing with it.
// Adapted from common/exclusiveStringMap.go's ExclusiveStringMap, narrowed
// from an arbitrary string key to a drive letter since that's the only key
// space this repo ever guards.
type ExclusiveByteSet struct {
	mu   sync.Mutex
	keys map[byte]struct{}
}

func NewExclusiveByteSet() *ExclusiveByteSet {
	return &ExclusiveByteSet{keys: make(map[byte]struct{})}
}

// Add claims the key, returning an error if it is already claimed.
func (s *ExclusiveByteSet) Add(key byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.keys[key]; exists {
		return errors.Errorf("drive %c: is already being indexed", key)
	}
	s.keys[key] = struct{}{}
	return nil
}

// Remove releases the key. Calling it for a key not currently held is a no-op.
func (s *ExclusiveByteSet) Remove(key byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
}

// Contains reports whether key is currently claimed.
func (s *ExclusiveByteSet) Contains(key byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.keys[key]
	return exists
}
