package images

import (
	"context"
	"strings"

	"github.com/agentstation/epubalt/pkg/epub"
	"github.com/agentstation/epubalt/pkg/logging"
	"github.com/agentstation/epubalt/pkg/markup"
)

// Source is the view of a package the builder needs.
type Source interface {
	Spine() []epub.Document
	ReadText(name string) (string, error)
}

// Build scans every reading-order document and records the first
// occurrence of each image identity. Documents that cannot be read or
// parsed are logged and skipped.
func Build(ctx context.Context, src Source, id Identity) (*Index, error) {
	logger := logging.Ctx(ctx)
	idx := NewIndex()

	for _, doc := range src.Spine() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := src.ReadText(doc.Path)
		if err != nil {
			logger.Warn().Err(err).Str("document", doc.Href).Msg("Skipping unreadable document")
			continue
		}
		elements, err := markup.Find(text, "img")
		if err != nil {
			logger.Warn().Err(err).Str("document", doc.Href).Msg("Skipping unparsable document")
			continue
		}

		for _, el := range elements {
			ref, _ := el.Attr("src")
			if strings.TrimSpace(ref) == "" {
				continue
			}
			key := id.Reference(doc.Path, ref)
			if idx.Has(key) {
				continue
			}

			rec := Record{Document: doc.Href}
			if alt, ok := el.Attr("alt"); ok {
				rec.Alt = &alt
			}
			if elID, ok := el.Attr("id"); ok {
				rec.ElementID = &elID
			}
			idx.Set(key, rec)
		}
	}

	logger.Debug().Int("images", idx.Len()).Str("identity", id.String()).Msg("Built image index")
	return idx, nil
}

// Merge overlays the carried-forward fields of previous onto a copy of
// fresh for every key present in both. Structural fields always come from
// fresh.
func Merge(fresh, previous *Index) *Index {
	out := fresh.Clone()
	if previous == nil {
		return out
	}
	for _, key := range out.Keys() {
		prev, ok := previous.Get(key)
		if !ok {
			continue
		}
		out.Update(key, func(r *Record) { r.carry(prev) })
	}
	return out
}
