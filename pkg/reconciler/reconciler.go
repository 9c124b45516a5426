// Package reconciler folds description results back into the image index
// and produces one audit row per numbered image.
package reconciler

import (
	"path"
	"strings"

	"github.com/agentstation/epubalt/pkg/batch"
	"github.com/agentstation/epubalt/pkg/images"
	"github.com/agentstation/epubalt/pkg/planner"
)

// FailurePrefix starts the analysis note of a failed request.
const FailurePrefix = "description request failed: "

// Reconcile returns a copy of idx with the results of the plan applied.
// A successful create replaces the new alt text and clears the analysis and
// manual flag; a successful verify stores the commentary; a failure only
// records a note.
func Reconcile(idx *images.Index, plan planner.Plan, results batch.Results, opts ...Option) (*images.Index, Result) {
	o := defaultOptions().apply(opts...)
	out := idx.Clone()
	var res Result

	for _, entry := range plan.Entries {
		if entry.Action == planner.ActionVerify || entry.Action == planner.ActionGenerate {
			outcome, ok := results[entry.Item.Path]
			switch {
			case !ok:
				res.Missing++
			case !outcome.OK():
				res.Failed++
				out.Update(entry.Key, func(r *images.Record) {
					r.Analysis = FailurePrefix + outcome.Err.Error()
				})
			case entry.Action == planner.ActionVerify:
				res.Applied++
				out.Update(entry.Key, func(r *images.Record) {
					r.Analysis = strings.TrimSpace(outcome.Text)
				})
			default:
				res.Applied++
				out.Update(entry.Key, func(r *images.Record) {
					r.NewAlt = strings.TrimSpace(outcome.Text)
					r.Blank = r.NewAlt == ""
					r.Analysis = ""
					r.Manual = false
				})
			}
		}

		if o.rows {
			rec, _ := out.Get(entry.Key)
			res.Rows = append(res.Rows, o.row(entry, rec))
		}
	}
	return out, res
}

// Rows renders report rows for every planned entry without applying results.
func Rows(idx *images.Index, plan planner.Plan, opts ...Option) []Row {
	o := defaultOptions().apply(opts...)
	rows := make([]Row, 0, len(plan.Entries))
	for _, entry := range plan.Entries {
		rec, _ := idx.Get(entry.Key)
		rows = append(rows, o.row(entry, rec))
	}
	return rows
}

func (o *options) row(entry planner.Entry, rec images.Record) Row {
	docLink := path.Join(o.prefix, o.rootDir, rec.Document)
	if id := rec.ID(); id != "" {
		docLink += "#" + id
	}
	return Row{
		Number:       entry.Number,
		Key:          entry.Key,
		Document:     rec.Document,
		DocumentLink: docLink,
		Image:        path.Base(entry.Item.Path),
		ImageLink:    path.Join(o.prefix, entry.Item.Path),
		Original:     rec.AltText(),
		Cell:         CellFor(rec),
	}
}

// CellFor picks the new-value cell: analysis, then manual text, then the
// blank marker, then new text, then the placeholder.
func CellFor(rec images.Record) Cell {
	switch {
	case rec.Analysis != "":
		return Cell{Kind: CellAnalysis, Text: rec.Analysis}
	case rec.Manual:
		return Cell{Kind: CellManual, Text: rec.NewAlt}
	case rec.Blank:
		return Cell{Kind: CellBlank}
	case rec.NewAlt != "":
		return Cell{Kind: CellText, Text: rec.NewAlt}
	default:
		return Cell{Kind: CellPlaceholder}
	}
}
