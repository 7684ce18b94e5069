package common

import (
	"reflect"
	"sync/atomic"

	"github.com/JeffreyRichter/enum/enum"
)

// VolumeState is the change tracker's per-volume lifecycle state
// (spec.md §4.4): Uninitialized -> Scanning -> Live, with Live able to
// fall back to Reset and back to Scanning when the USN journal is
// invalidated underneath us.
type VolumeState uint32

const (
	volumeStateUninitialized VolumeState = iota
	volumeStateScanning
	volumeStateLive
	volumeStateReset
)

var EVolumeState = VolumeState(volumeStateUninitialized)

func (VolumeState) Uninitialized() VolumeState { return VolumeState(volumeStateUninitialized) }
func (VolumeState) Scanning() VolumeState      { return VolumeState(volumeStateScanning) }
func (VolumeState) Live() VolumeState          { return VolumeState(volumeStateLive) }
func (VolumeState) Reset() VolumeState         { return VolumeState(volumeStateReset) }

func (s *VolumeState) Parse(str string) error {
	val, err := enum.ParseInt(reflect.TypeOf(s), str, true, true)
	if err == nil {
		*s = val.(VolumeState)
	}
	return err
}

func (s VolumeState) String() string {
	switch s {
	case EVolumeState.Uninitialized():
		return "UNINITIALIZED"
	case EVolumeState.Scanning():
		return "SCANNING"
	case EVolumeState.Live():
		return "LIVE"
	case EVolumeState.Reset():
		return "RESET"
	default:
		return enum.StringInt(s, reflect.TypeOf(s))
	}
}

// AtomicVolumeState is a small fixed-width atomic wrapper, the same shape
// the teacher keeps JobStatus in behind atomic.Uint32 rather than reaching
// for golang.org/x/exp/constraints-based generics for a single field.
type AtomicVolumeState struct {
	v atomic.Uint32
}

func (a *AtomicVolumeState) Load() VolumeState { return VolumeState(a.v.Load()) }
func (a *AtomicVolumeState) Store(s VolumeState) { a.v.Store(uint32(s)) }

// CompareAndSwap reports whether the state transitioned from `old` to `new`.
func (a *AtomicVolumeState) CompareAndSwap(old, new VolumeState) bool {
	return a.v.CompareAndSwap(uint32(old), uint32(new))
}
