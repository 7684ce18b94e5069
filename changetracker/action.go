package changetracker

import (
	"reflect"

	"github.com/JeffreyRichter/enum/enum"
)

// ChangeAction is what a USN journal record implies should happen to the
// search index, after original_source/commands.rs's small action-code
// scheme (0/4 = delete, 1/2/3 = add/modify) is generalized into named
// values instead of magic numbers.
type ChangeAction uint8

const (
	changeActionIgnore ChangeAction = iota
	changeActionAdd
	changeActionUpdateMetadata
	changeActionRemove
)

var EChangeAction = ChangeAction(changeActionIgnore)

func (ChangeAction) Ignore() ChangeAction         { return ChangeAction(changeActionIgnore) }
func (ChangeAction) Add() ChangeAction            { return ChangeAction(changeActionAdd) }
func (ChangeAction) UpdateMetadata() ChangeAction { return ChangeAction(changeActionUpdateMetadata) }
func (ChangeAction) Remove() ChangeAction         { return ChangeAction(changeActionRemove) }

func (a *ChangeAction) Parse(s string) error {
	val, err := enum.ParseInt(reflect.TypeOf(a), s, true, true)
	if err == nil {
		*a = val.(ChangeAction)
	}
	return err
}

func (a ChangeAction) String() string {
	switch a {
	case EChangeAction.Ignore():
		return "IGNORE"
	case EChangeAction.Add():
		return "ADD"
	case EChangeAction.UpdateMetadata():
		return "UPDATE_METADATA"
	case EChangeAction.Remove():
		return "REMOVE"
	default:
		return enum.StringInt(a, reflect.TypeOf(a))
	}
}

// USN_REASON_* bit values (winioctl.h); named here rather than inlined so
// classifyReason reads like the thing it's deciding between.
const (
	reasonDataOverwrite    = 0x00000001
	reasonDataExtend       = 0x00000002
	reasonFileCreate       = 0x00000100
	reasonFileDelete       = 0x00000200
	reasonRenameOldName    = 0x00001000
	reasonRenameNewName    = 0x00002000
	reasonBasicInfoChange  = 0x00008000
	reasonClose            = 0x80000000
)

// classifyReason maps a USN_RECORD_V2 Reason bitmask to the action the
// index should take. A create or a rename's new-name half both mean "this
// path now exists with this identity" (Add handles both — Add already
// updates in place if the file reference is already indexed, see
// searchindex.Add). A delete or a rename's old-name half both mean "this
// identity no longer resolves to this path" (Remove). Pure data/attribute
// changes without create/delete/rename bits are a metadata refresh. Reason
// == CLOSE alone (no other bit set) carries no identity change and is
// ignored — NTFS emits it on every handle close, independent of whether
// anything changed.
func classifyReason(reason uint32) ChangeAction {
	switch {
	case reason&(reasonFileCreate|reasonRenameNewName) != 0:
		return EChangeAction.Add()
	case reason&(reasonFileDelete|reasonRenameOldName) != 0:
		return EChangeAction.Remove()
	case reason&(reasonDataOverwrite|reasonDataExtend|reasonBasicInfoChange) != 0:
		return EChangeAction.UpdateMetadata()
	default:
		return EChangeAction.Ignore()
	}
}
