package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/riftcode/volsearch/common"
	"github.com/riftcode/volsearch/searchindex"
)

func buildVolume(items ...searchindex.IndexedItem) *searchindex.SearchIndex {
	idx := searchindex.New()
	idx.Build(items)
	return idx
}

func drainBatches(ch <-chan Batch) []searchindex.IndexedItem {
	var all []searchindex.IndexedItem
	for b := range ch {
		all = append(all, b.Items...)
	}
	return all
}

func TestOrchestrator_Search_SingleVolumeNameMatch(t *testing.T) {
	a := assert.New(t)

	volC := buildVolume(
		searchindex.IndexedItem{Name: "invoice.pdf", Path: `C:\Docs\invoice.pdf`, FileRef: 1},
		searchindex.IndexedItem{Name: "photo.jpg", Path: `C:\Pics\photo.jpg`, FileRef: 2},
	)

	o := &Orchestrator{}
	ch := o.Search(context.Background(), map[byte]*searchindex.SearchIndex{'C': volC}, "invoice", common.NewRunID())
	results := drainBatches(ch)

	a.Len(results, 1)
	a.Equal("invoice.pdf", results[0].Name)
}

func TestOrchestrator_Search_FansOutAcrossVolumes(t *testing.T) {
	a := assert.New(t)

	volC := buildVolume(searchindex.IndexedItem{Name: "report.docx", Path: `C:\report.docx`, FileRef: 1})
	volD := buildVolume(searchindex.IndexedItem{Name: "report_backup.docx", Path: `D:\report_backup.docx`, FileRef: 2})

	o := &Orchestrator{}
	ch := o.Search(context.Background(), map[byte]*searchindex.SearchIndex{'C': volC, 'D': volD}, "report", common.NewRunID())
	results := drainBatches(ch)

	a.Len(results, 2)
}

func TestOrchestrator_Search_AttributeOnlyQueryScansEverything(t *testing.T) {
	a := assert.New(t)

	vol := buildVolume(
		searchindex.IndexedItem{Name: "a.pdf", Path: `C:\a.pdf`, FileRef: 1, Size: 5000},
		searchindex.IndexedItem{Name: "b.txt", Path: `C:\b.txt`, FileRef: 2, Size: 5000},
	)

	o := &Orchestrator{}
	ch := o.Search(context.Background(), map[byte]*searchindex.SearchIndex{'C': vol}, "ext:pdf", common.NewRunID())
	results := drainBatches(ch)

	a.Len(results, 1)
	a.Equal("a.pdf", results[0].Name)
}

func TestOrchestrator_Search_TruncatesToMaxResults(t *testing.T) {
	a := assert.New(t)

	vol := buildVolume(
		searchindex.IndexedItem{Name: "report1.docx", Path: `C:\report1.docx`, FileRef: 1},
		searchindex.IndexedItem{Name: "report2.docx", Path: `C:\report2.docx`, FileRef: 2},
		searchindex.IndexedItem{Name: "report3.docx", Path: `C:\report3.docx`, FileRef: 3},
	)

	o := &Orchestrator{MaxResults: 2}
	ch := o.Search(context.Background(), map[byte]*searchindex.SearchIndex{'C': vol}, "report", common.NewRunID())
	results := drainBatches(ch)

	a.Len(results, 2)
}

func TestOrchestrator_Search_TruncatesAcrossVolumesToSharedBudget(t *testing.T) {
	a := assert.New(t)

	volC := buildVolume(
		searchindex.IndexedItem{Name: "report1.docx", Path: `C:\report1.docx`, FileRef: 1},
		searchindex.IndexedItem{Name: "report2.docx", Path: `C:\report2.docx`, FileRef: 2},
	)
	volD := buildVolume(
		searchindex.IndexedItem{Name: "report3.docx", Path: `D:\report3.docx`, FileRef: 3},
		searchindex.IndexedItem{Name: "report4.docx", Path: `D:\report4.docx`, FileRef: 4},
	)

	o := &Orchestrator{MaxResults: 3}
	ch := o.Search(context.Background(), map[byte]*searchindex.SearchIndex{'C': volC, 'D': volD}, "report", common.NewRunID())
	results := drainBatches(ch)

	a.Len(results, 3)
}

func TestOrchestrator_Search_RespectsContextCancellation(t *testing.T) {
	a := assert.New(t)

	vol := buildVolume(searchindex.IndexedItem{Name: "x.txt", Path: `C:\x.txt`, FileRef: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := &Orchestrator{}
	ch := o.Search(ctx, map[byte]*searchindex.SearchIndex{'C': vol}, "x", common.NewRunID())

	// Must not hang: the channel closes promptly even with a pre-canceled context.
	done := make(chan struct{})
	go func() {
		for range ch {
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		a.Fail("orchestrator did not respect canceled context")
	}
}
