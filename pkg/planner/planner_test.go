package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/epubalt/pkg/epub"
	"github.com/agentstation/epubalt/pkg/images"
)

func strPtr(s string) *string { return &s }

// fixture returns a manifest with three raster images, an svg and an
// image that no document references.
func fixture() ([]epub.ManifestItem, *images.Index) {
	manifest := []epub.ManifestItem{
		{ID: "ch1", Href: "ch1.xhtml", MediaType: "application/xhtml+xml", Path: "OEBPS/ch1.xhtml"},
		{ID: "i1", Href: "img/cover.jpg", MediaType: "image/jpeg", Path: "OEBPS/img/cover.jpg"},
		{ID: "i2", Href: "img/fig.png", MediaType: "image/png", Path: "OEBPS/img/fig.png"},
		{ID: "logo", Href: "img/logo.svg", MediaType: "image/svg+xml", Path: "OEBPS/img/logo.svg"},
		{ID: "unused", Href: "img/unused.png", MediaType: "image/png", Path: "OEBPS/img/unused.png"},
		{ID: "i3", Href: "img/rule.gif", MediaType: "image/gif", Path: "OEBPS/img/rule.gif"},
	}
	idx := images.NewIndex()
	idx.Set("cover.jpg", images.Record{Document: "ch1.xhtml", Alt: strPtr("Cover")})
	idx.Set("fig.png", images.Record{Document: "ch1.xhtml"})
	idx.Set("logo.svg", images.Record{Document: "ch1.xhtml"})
	idx.Set("rule.gif", images.Record{Document: "ch1.xhtml", Alt: strPtr("")})
	return manifest, idx
}

func actions(p Plan) []Action {
	var out []Action
	for _, e := range p.Entries {
		out = append(out, e.Action)
	}
	return out
}

func TestEnumerate(t *testing.T) {
	manifest, idx := fixture()
	got := Enumerate(manifest, idx, images.IdentityBasename)

	require.Len(t, got, 3)
	assert.Equal(t, "cover.jpg", got[0].Key)
	assert.Equal(t, 1, got[0].Number)
	assert.Equal(t, "fig.png", got[1].Key)
	assert.Equal(t, "rule.gif", got[2].Key)
	assert.Equal(t, 3, got[2].Number)
}

func TestBuildUpdateMissing(t *testing.T) {
	manifest, idx := fixture()
	plan := Build(manifest, idx, Config{Blanket: UpdateMissing, Identity: images.IdentityBasename})

	assert.Equal(t, []Action{ActionNone, ActionGenerate, ActionNone}, actions(plan))
	require.Len(t, plan.Requests, 1)
	assert.Equal(t, Request{
		Path:      "OEBPS/img/fig.png",
		Key:       "fig.png",
		Number:    2,
		MediaType: "image/png",
		Kind:      KindCreate,
	}, plan.Requests[0])
}

func TestBuildUpdateMissingExclusions(t *testing.T) {
	manifest, idx := fixture()
	plan := Build(manifest, idx, Config{
		Blanket:    UpdateMissing,
		Identity:   images.IdentityBasename,
		Exclusions: images.NewExclusions("Cover"),
	})
	assert.Equal(t, []Action{ActionGenerate, ActionGenerate, ActionNone}, actions(plan))
}

func TestBuildVerifyAll(t *testing.T) {
	manifest, idx := fixture()
	plan := Build(manifest, idx, Config{Blanket: VerifyAll, Identity: images.IdentityBasename})

	require.Len(t, plan.Requests, 3)
	for _, r := range plan.Requests {
		assert.Equal(t, KindVerify, r.Kind)
	}
	require.NotNil(t, plan.Requests[0].ExistingAlt)
	assert.Equal(t, "Cover", *plan.Requests[0].ExistingAlt)
	assert.Nil(t, plan.Requests[1].ExistingAlt)
	require.NotNil(t, plan.Requests[2].ExistingAlt)
	assert.Equal(t, "", *plan.Requests[2].ExistingAlt)
}

func TestBuildPriority(t *testing.T) {
	manifest, idx := fixture()

	tests := []struct {
		name    string
		cfg     Config
		want    []Action
	}{
		{
			name: "manual beats update all",
			cfg:  Config{Blanket: UpdateAll, Targets: []int{2}, Mode: ManualText(" Figure 1 ")},
			want: []Action{ActionGenerate, ActionManual, ActionGenerate},
		},
		{
			name: "reset beats verify all",
			cfg:  Config{Blanket: VerifyAll, Targets: []int{1}, Mode: Reset()},
			want: []Action{ActionReset, ActionVerify, ActionVerify},
		},
		{
			name: "verify beats update all",
			cfg:  Config{Blanket: UpdateAll, Targets: []int{3}, Mode: Verify()},
			want: []Action{ActionGenerate, ActionGenerate, ActionVerify},
		},
		{
			name: "targeted generate",
			cfg:  Config{Targets: []int{1, 3}, Mode: Generate()},
			want: []Action{ActionGenerate, ActionNone, ActionGenerate},
		},
		{
			name: "blank manual text is ignored",
			cfg:  Config{Targets: []int{1}, Mode: ManualText("   ")},
			want: []Action{ActionNone, ActionNone, ActionNone},
		},
		{
			name: "targets without mode do nothing",
			cfg:  Config{Targets: []int{1}},
			want: []Action{ActionNone, ActionNone, ActionNone},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.Identity = images.IdentityBasename
			plan := Build(manifest, idx, tt.cfg)
			assert.Equal(t, tt.want, actions(plan))
		})
	}
}

func TestApply(t *testing.T) {
	manifest, idx := fixture()
	idx.Update("cover.jpg", func(r *images.Record) {
		r.NewAlt = "X"
		r.Manual = true
		r.Analysis = "old note"
	})

	plan := Build(manifest, idx, Config{Targets: []int{1}, Mode: Reset(), Identity: images.IdentityBasename})
	out := Apply(idx, plan)

	cover, _ := out.Get("cover.jpg")
	assert.Equal(t, "", cover.NewAlt)
	assert.False(t, cover.Manual)
	assert.False(t, cover.Blank)
	assert.Equal(t, "", cover.Analysis)
	assert.Equal(t, "Cover", cover.AltText(), "reset keeps the original alt")

	before, _ := idx.Get("cover.jpg")
	assert.True(t, before.Manual, "apply must not mutate its input")

	plan = Build(manifest, out, Config{Targets: []int{2}, Mode: ManualText("  A chart  "), Identity: images.IdentityBasename})
	out = Apply(out, plan)
	fig, _ := out.Get("fig.png")
	assert.Equal(t, "A chart", fig.NewAlt)
	assert.True(t, fig.Manual)
	assert.False(t, fig.Blank)
	assert.Empty(t, plan.Requests)
}

func TestIdentityPathNumbering(t *testing.T) {
	manifest := []epub.ManifestItem{
		{Href: "a/pic.png", MediaType: "image/png", Path: "a/pic.png"},
		{Href: "b/pic.png", MediaType: "image/png", Path: "b/pic.png"},
	}
	idx := images.NewIndex()
	idx.Set("a/pic.png", images.Record{})
	idx.Set("b/pic.png", images.Record{Alt: strPtr("B")})

	plan := Build(manifest, idx, Config{Blanket: UpdateMissing, Identity: images.IdentityPath})
	require.Len(t, plan.Entries, 2)
	require.Len(t, plan.Requests, 1)
	assert.Equal(t, "a/pic.png", plan.Requests[0].Key)

	basename := images.NewIndex()
	basename.Set("pic.png", images.Record{})
	plan = Build(manifest, basename, Config{Blanket: UpdateMissing, Identity: images.IdentityBasename})
	require.Len(t, plan.Entries, 2, "both resources are numbered under one shared record")
	assert.Equal(t, "a/pic.png", plan.Requests[0].Path)
	assert.Equal(t, "b/pic.png", plan.Requests[1].Path)
}

func TestParseMode(t *testing.T) {
	assert.True(t, ParseMode("_ai_").IsGenerate())
	assert.True(t, ParseMode("_reset_").IsReset())
	assert.True(t, ParseMode("_verify_").IsVerify())
	assert.True(t, ParseMode("").IsZero())
	text, ok := ParseMode("A bird").Manual()
	assert.True(t, ok)
	assert.Equal(t, "A bird", text)
}
