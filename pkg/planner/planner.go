// Package planner decides, for every numbered image of a package, which
// action a run takes and gathers the description requests to issue.
package planner

import (
	"slices"
	"strings"

	"github.com/agentstation/epubalt/pkg/epub"
	"github.com/agentstation/epubalt/pkg/images"
)

// Kind is the kind of description request.
type Kind int

const (
	// KindCreate asks for new alt text.
	KindCreate Kind = iota
	// KindVerify asks for commentary on existing alt text.
	KindVerify
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	if k == KindVerify {
		return "verify"
	}
	return "create"
}

// Action is the decision taken for one image.
type Action int

const (
	ActionNone Action = iota
	ActionReset
	ActionManual
	ActionVerify
	ActionGenerate
)

// String implements fmt.Stringer.
func (a Action) String() string {
	return [...]string{"none", "reset", "manual", "verify", "generate"}[a]
}

// Request is one queued description request.
type Request struct {
	// Path is the package-relative resource path; results are keyed by it.
	Path      string
	Key       string
	Number    int
	MediaType string
	Kind      Kind
	// ExistingAlt is the alt text to verify; nil when the attribute was absent.
	ExistingAlt *string
}

// Numbered is a manifest image that is present in the index.
type Numbered struct {
	Number int
	Key    string
	Item   epub.ManifestItem
}

// Entry is the decision for one numbered image.
type Entry struct {
	Numbered
	Action Action
	// Text is the trimmed literal for ActionManual.
	Text string
}

// Plan is the outcome of the planning pass.
type Plan struct {
	Entries  []Entry
	Requests []Request
}

// Config selects the actions of a run.
type Config struct {
	// Targets are 1-based image numbers the Mode applies to.
	Targets    []int
	Mode       RequestMode
	Blanket    Blanket
	Identity   images.Identity
	Exclusions *images.Exclusions
}

// IsRasterImage reports whether a media type is a numbered image type.
func IsRasterImage(mediaType string) bool {
	mt := strings.ToLower(mediaType)
	return strings.HasPrefix(mt, "image/") && !strings.Contains(mt, "svg")
}

// Enumerate numbers the manifest images that are raster types present in
// the index, in manifest order starting at 1.
func Enumerate(manifest []epub.ManifestItem, idx *images.Index, id images.Identity) []Numbered {
	var out []Numbered
	for _, item := range manifest {
		if item.Href == "" || !IsRasterImage(item.MediaType) {
			continue
		}
		key := id.Resource(item)
		if !idx.Has(key) {
			continue
		}
		out = append(out, Numbered{Number: len(out) + 1, Key: key, Item: item})
	}
	return out
}

// Build evaluates the rules for every numbered image. Rules are tried in
// order reset, manual, verify, generate; the first match wins.
func Build(manifest []epub.ManifestItem, idx *images.Index, cfg Config) Plan {
	var plan Plan
	for _, n := range Enumerate(manifest, idx, cfg.Identity) {
		rec, _ := idx.Get(n.Key)
		entry := decide(n, rec, cfg)
		plan.Entries = append(plan.Entries, entry)

		switch entry.Action {
		case ActionVerify:
			plan.Requests = append(plan.Requests, request(n, KindVerify, rec.Alt))
		case ActionGenerate:
			plan.Requests = append(plan.Requests, request(n, KindCreate, nil))
		}
	}
	return plan
}

func decide(n Numbered, rec images.Record, cfg Config) Entry {
	entry := Entry{Numbered: n}
	targeted := !cfg.Mode.IsZero() && slices.Contains(cfg.Targets, n.Number)
	text, manual := cfg.Mode.Manual()

	switch {
	case targeted && cfg.Mode.IsReset():
		entry.Action = ActionReset
	case targeted && manual:
		entry.Action = ActionManual
		entry.Text = text
	case cfg.Blanket == VerifyAll || (targeted && cfg.Mode.IsVerify()):
		entry.Action = ActionVerify
	case cfg.Blanket == UpdateMissing && missing(rec, cfg.Exclusions),
		cfg.Blanket == UpdateAll,
		targeted && cfg.Mode.IsGenerate():
		entry.Action = ActionGenerate
	}
	return entry
}

// missing reports whether the alt attribute is absent or its text is excluded.
// An empty alt attribute is not missing.
func missing(rec images.Record, ex *images.Exclusions) bool {
	return !rec.HasAlt() || ex.Contains(rec.AltText())
}

func request(n Numbered, kind Kind, existing *string) Request {
	r := Request{
		Path:      n.Item.Path,
		Key:       n.Key,
		Number:    n.Number,
		MediaType: n.Item.MediaType,
		Kind:      kind,
	}
	if existing != nil {
		alt := *existing
		r.ExistingAlt = &alt
	}
	return r
}

// Apply returns a copy of idx with the immediate effects of the plan:
// resets and manual texts. Requested work is applied later from results.
func Apply(idx *images.Index, plan Plan) *images.Index {
	out := idx.Clone()
	for _, e := range plan.Entries {
		switch e.Action {
		case ActionReset:
			out.Update(e.Key, func(r *images.Record) { r.Reset() })
		case ActionManual:
			out.Update(e.Key, func(r *images.Record) {
				r.NewAlt = e.Text
				r.Manual = true
				r.Blank = false
			})
		}
	}
	return out
}

// Counts tallies the actions of a plan.
func (p Plan) Counts() map[Action]int {
	out := make(map[Action]int)
	for _, e := range p.Entries {
		out[e.Action]++
	}
	return out
}
