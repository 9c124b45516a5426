package reconciler

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/epubalt/pkg/batch"
	"github.com/agentstation/epubalt/pkg/epub"
	"github.com/agentstation/epubalt/pkg/images"
	"github.com/agentstation/epubalt/pkg/planner"
)

func strPtr(s string) *string { return &s }

func setup() ([]epub.ManifestItem, *images.Index) {
	manifest := []epub.ManifestItem{
		{Href: "images/cover.jpg", MediaType: "image/jpeg", Path: "OEBPS/images/cover.jpg"},
		{Href: "images/fig.png", MediaType: "image/png", Path: "OEBPS/images/fig.png"},
		{Href: "images/rule.png", MediaType: "image/png", Path: "OEBPS/images/rule.png"},
	}
	idx := images.NewIndex()
	idx.Set("cover.jpg", images.Record{Document: "text/ch1.xhtml", Alt: strPtr("Cover"), ElementID: strPtr("c")})
	idx.Set("fig.png", images.Record{Document: "text/ch1.xhtml", Manual: true, NewAlt: "Old", Analysis: "stale"})
	idx.Set("rule.png", images.Record{Document: "text/ch2.xhtml", Alt: strPtr("")})
	return manifest, idx
}

func TestReconcileCreate(t *testing.T) {
	manifest, idx := setup()
	plan := planner.Build(manifest, idx, planner.Config{Blanket: planner.UpdateAll, Identity: images.IdentityBasename})

	results := batch.Results{
		"OEBPS/images/cover.jpg": {Text: "  A red cover  "},
		"OEBPS/images/fig.png":   {Text: "Figure one"},
		"OEBPS/images/rule.png":  {Text: ""},
	}
	out, res := Reconcile(idx, plan, results, WithRootDir("OEBPS"))

	assert.Equal(t, 3, res.Applied)
	cover, _ := out.Get("cover.jpg")
	assert.Equal(t, "A red cover", cover.NewAlt)
	assert.False(t, cover.Blank)

	fig, _ := out.Get("fig.png")
	assert.Equal(t, "Figure one", fig.NewAlt)
	assert.False(t, fig.Manual)
	assert.Empty(t, fig.Analysis)

	rule, _ := out.Get("rule.png")
	assert.Equal(t, "", rule.NewAlt)
	assert.True(t, rule.Blank)

	require.Len(t, res.Rows, 3)
	assert.Equal(t, Row{
		Number:       1,
		Key:          "cover.jpg",
		Document:     "text/ch1.xhtml",
		DocumentLink: "epub/OEBPS/text/ch1.xhtml#c",
		Image:        "cover.jpg",
		ImageLink:    "epub/OEBPS/images/cover.jpg",
		Original:     "Cover",
		Cell:         Cell{Kind: CellText, Text: "A red cover"},
	}, res.Rows[0])
	assert.Equal(t, "epub/OEBPS/text/ch2.xhtml", res.Rows[2].DocumentLink)
	assert.Equal(t, CellBlank, res.Rows[2].Cell.Kind)

	before, _ := idx.Get("fig.png")
	assert.True(t, before.Manual, "reconcile must not mutate its input")
}

func TestReconcileVerify(t *testing.T) {
	manifest, idx := setup()
	plan := planner.Build(manifest, idx, planner.Config{Targets: []int{1}, Mode: planner.Verify(), Identity: images.IdentityBasename})

	out, res := Reconcile(idx, plan, batch.Results{
		"OEBPS/images/cover.jpg": {Text: " Correct, but add the title. \n"},
	})
	assert.Equal(t, 1, res.Applied)

	cover, _ := out.Get("cover.jpg")
	assert.Equal(t, "Correct, but add the title.", cover.Analysis)
	assert.Empty(t, cover.NewAlt)
	assert.Equal(t, Cell{Kind: CellAnalysis, Text: "Correct, but add the title."}, res.Rows[0].Cell)
}

func TestReconcileFailureLeavesRecord(t *testing.T) {
	manifest, idx := setup()
	plan := planner.Build(manifest, idx, planner.Config{Targets: []int{2}, Mode: planner.Generate(), Identity: images.IdentityBasename})

	out, res := Reconcile(idx, plan, batch.Results{
		"OEBPS/images/fig.png": {Err: fmt.Errorf("quota exceeded")},
	})
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 0, res.Applied)

	fig, _ := out.Get("fig.png")
	assert.Equal(t, "Old", fig.NewAlt)
	assert.True(t, fig.Manual)
	assert.Equal(t, "description request failed: quota exceeded", fig.Analysis)
}

func TestReconcileMissingResult(t *testing.T) {
	manifest, idx := setup()
	plan := planner.Build(manifest, idx, planner.Config{Blanket: planner.VerifyAll, Identity: images.IdentityBasename})

	out, res := Reconcile(idx, plan, batch.Results{}, WithRows(false))
	assert.Equal(t, 3, res.Missing)
	assert.Empty(t, res.Rows)
	assert.True(t, out.Equal(idx))
}

func TestCellPrecedence(t *testing.T) {
	tests := []struct {
		name string
		rec  images.Record
		want Cell
	}{
		{"analysis first", images.Record{Analysis: "note", Manual: true, NewAlt: "m", Blank: true}, Cell{CellAnalysis, "note"}},
		{"manual next", images.Record{Manual: true, NewAlt: "m", Blank: true}, Cell{CellManual, "m"}},
		{"blank next", images.Record{Blank: true}, Cell{Kind: CellBlank}},
		{"text next", images.Record{NewAlt: "t"}, Cell{CellText, "t"}},
		{"placeholder last", images.Record{}, Cell{Kind: CellPlaceholder}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CellFor(tt.rec))
		})
	}
}

func TestRows(t *testing.T) {
	manifest, idx := setup()
	plan := planner.Build(manifest, idx, planner.Config{Identity: images.IdentityBasename})

	rows := Rows(idx, plan, WithRootDir("OEBPS"), WithLinkPrefix("book"))
	require.Len(t, rows, 3)
	assert.Equal(t, "book/OEBPS/images/fig.png", rows[1].ImageLink)
	assert.Equal(t, Cell{CellAnalysis, "stale"}, rows[1].Cell)
}
