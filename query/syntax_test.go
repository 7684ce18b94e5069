package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseQuery_ExtractsExtension(t *testing.T) {
	a := assert.New(t)
	f := ParseQuery("invoice ext:pdf")
	a.Equal([]string{"pdf"}, f.Ext)
	a.Equal("invoice", f.NamePattern)
}

func TestParseQuery_ExtractsCommaSeparatedExtensionList(t *testing.T) {
	a := assert.New(t)
	f := ParseQuery("invoice ext:pdf,docx size:>1mb")
	a.Equal([]string{"pdf", "docx"}, f.Ext)
	a.Equal(int64(1024*1024), f.SizeMin)
	a.Equal("invoice", f.NamePattern)
}

func TestParseQuery_ExtractsSizeWithUnit(t *testing.T) {
	a := assert.New(t)

	f := ParseQuery("size:>10mb")
	a.Equal(int64(10*1024*1024), f.SizeMin)
	a.Equal(int64(-1), f.SizeMax)

	f2 := ParseQuery("size:<500kb")
	a.Equal(int64(500*1024), f2.SizeMax)
	a.Equal(int64(-1), f2.SizeMin)
}

func TestParseQuery_SizeWithoutUnitIsBytes(t *testing.T) {
	a := assert.New(t)
	f := ParseQuery("size:>100")
	a.Equal(int64(100), f.SizeMin)
}

func TestParseQuery_ExtractsPathAndName(t *testing.T) {
	a := assert.New(t)
	f := ParseQuery(`path:C:\Users name:budget`)
	a.Equal(`C:\Users`, f.Path)
	a.Equal("budget", f.NamePattern)
}

func TestParseQuery_ExtractsQuotedPathWithSpaces(t *testing.T) {
	a := assert.New(t)
	f := ParseQuery(`invoice path:"C:\Program Files" ext:pdf`)
	a.Equal(`C:\Program Files`, f.Path)
	a.Equal([]string{"pdf"}, f.Ext)
	a.Equal("invoice", f.NamePattern)
}

func TestParseQuery_DateTokenToday(t *testing.T) {
	a := assert.New(t)
	f := ParseQuery("dm:today report")
	a.True(f.HasModAfter)
	a.Equal("report", f.NamePattern)

	now := time.Now()
	expected := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	a.True(f.ModAfter.Equal(expected))
}

func TestParseQuery_RelativeDateToken(t *testing.T) {
	a := assert.New(t)
	f := ParseQuery("dm:3d")
	a.True(f.HasModAfter)
	a.WithinDuration(time.Now().AddDate(0, 0, -3), f.ModAfter, time.Second)
}

func TestParseQuery_NoTokensLeavesWholeStringAsName(t *testing.T) {
	a := assert.New(t)
	f := ParseQuery("quarterly report")
	a.Equal("quarterly report", f.NamePattern)
	a.Empty(f.Ext)
	a.Equal(int64(-1), f.SizeMin)
	a.Equal(int64(-1), f.SizeMax)
	a.False(f.HasModAfter)
}

func TestFilters_Match(t *testing.T) {
	a := assert.New(t)

	f := Filters{SizeMin: -1, SizeMax: -1, Ext: []string{"pdf"}, NamePattern: "invoice"}
	a.True(f.Match("invoice-2026.pdf", "pdf", 1024, false, time.Now(), `C:\Docs\invoice-2026.pdf`))
	a.False(f.Match("invoice-2026.docx", "docx", 1024, false, time.Now(), `C:\Docs\invoice-2026.docx`))
	a.False(f.Match("other.pdf", "pdf", 1024, false, time.Now(), `C:\Docs\other.pdf`))
}

func TestFilters_MatchMultipleExtensions(t *testing.T) {
	a := assert.New(t)
	f := Filters{SizeMin: -1, SizeMax: -1, Ext: []string{"pdf", "docx"}}
	a.True(f.Match("a.pdf", "pdf", 1, false, time.Now(), "a.pdf"))
	a.True(f.Match("b.docx", "docx", 1, false, time.Now(), "b.docx"))
	a.False(f.Match("c.txt", "txt", 1, false, time.Now(), "c.txt"))
}

func TestFilters_MatchSizeBounds(t *testing.T) {
	a := assert.New(t)
	f := Filters{SizeMin: 1000, SizeMax: 2000}
	a.True(f.Match("x", "", 1500, false, time.Now(), "x"))
	a.False(f.Match("x", "", 999, false, time.Now(), "x"))
	a.False(f.Match("x", "", 2001, false, time.Now(), "x"))
}
