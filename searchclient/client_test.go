package searchclient

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/riftcode/volsearch/common"
)

func TestDriveState_DefaultsToUninitialized(t *testing.T) {
	a := assert.New(t)
	c := New(testConfig(t), nil)
	a.Equal(common.EVolumeState.Uninitialized(), c.DriveState('Q'))
}

func TestCheckIndexStatus_UnbuiltDriveReportsNotReady(t *testing.T) {
	a := assert.New(t)
	c := New(testConfig(t), nil)
	status := c.CheckIndexStatus([]byte{'Q'})
	a.False(status.Ready)
	a.Equal(1, status.TotalDrives)
	a.Equal(0, status.ReadyCount)
	a.Equal(0, status.LoadingCount)
}

func TestGetAllDrives_DoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		GetAllDrives()
	})
}
