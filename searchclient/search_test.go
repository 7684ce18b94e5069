package searchclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/riftcode/volsearch/searchindex"
)

func TestSearchFiles_DoneReportsTotalCount(t *testing.T) {
	a := assert.New(t)
	c := New(testConfig(t), nil)

	idx := searchindex.New()
	idx.Build([]searchindex.IndexedItem{
		{Name: "invoice.pdf", Path: `C:\invoice.pdf`},
		{Name: "invoice2.pdf", Path: `C:\invoice2.pdf`},
	})
	c.mu.Lock()
	c.volumes['C'] = idx
	c.mu.Unlock()

	result := c.SearchFiles(context.Background(), "invoice")

	count := 0
	for b := range result.Batches {
		count += len(b.Items)
	}
	complete := <-result.Done
	a.Equal(2, count)
	a.Equal(2, complete.Count)
	a.Equal(result.RunID, complete.RunID)
}

func TestSearchFiles_NoVolumesReportsZero(t *testing.T) {
	a := assert.New(t)
	c := New(testConfig(t), nil)

	result := c.SearchFiles(context.Background(), "anything")
	for range result.Batches {
	}
	complete := <-result.Done
	a.Equal(0, complete.Count)
}
