// Package rewriter writes new alt text from the image index back into the
// reading-order documents of a package.
package rewriter

import (
	"context"
	"strings"

	"github.com/agentstation/epubalt/pkg/epub"
	"github.com/agentstation/epubalt/pkg/images"
	"github.com/agentstation/epubalt/pkg/logging"
	"github.com/agentstation/epubalt/pkg/markup"
)

// Package is the view of a package the rewriter needs.
type Package interface {
	Spine() []epub.Document
	ReadText(name string) (string, error)
	ReplaceText(name, text string) error
}

// Result summarizes a rewrite.
type Result struct {
	Documents int
	Images    int
}

// Rewrite sets the alt attribute of every image whose record carries new
// text or a blank decision and whose current alt differs. Only documents
// with at least one change are written back, in their declared encoding. Documents that cannot be parsed are logged and left alone.
func Rewrite(ctx context.Context, pkg Package, idx *images.Index, id images.Identity) (Result, error) {
	logger := logging.Ctx(ctx)
	var res Result

	for _, doc := range pkg.Spine() {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		raw, err := pkg.ReadText(doc.Path)
		if err != nil {
			logger.Warn().Err(err).Str("document", doc.Href).Msg("Skipping unreadable document")
			continue
		}
		text, label, err := markup.Decode(raw)
		if err != nil {
			logger.Warn().Err(err).Str("document", doc.Href).Msg("Skipping document in unsupported encoding")
			continue
		}
		elements, err := markup.Find(text, "img")
		if err != nil {
			logger.Warn().Err(err).Str("document", doc.Href).Msg("Skipping unparsable document")
			continue
		}

		var edits []markup.Edit
		for _, el := range elements {
			src, _ := el.Attr("src")
			if strings.TrimSpace(src) == "" {
				continue
			}
			key := id.Reference(doc.Path, src)
			rec, ok := idx.Get(key)
			if !ok || !rec.Pending() {
				continue
			}
			if cur, has := el.Attr("alt"); has && cur == rec.NewAlt {
				continue
			}
			logger.Debug().Str("image", key).Str("alt", rec.NewAlt).Msg("Setting alt text")
			edits = append(edits, markup.Edit{Element: el, Name: "alt", Value: rec.NewAlt})
		}
		if len(edits) == 0 {
			continue
		}

		out, err := markup.Encode(markup.Apply(text, edits), label)
		if err != nil {
			logger.Warn().Err(err).Str("document", doc.Href).Msg("Skipping document that cannot be re-encoded")
			continue
		}
		if err := pkg.ReplaceText(doc.Path, out); err != nil {
			return res, err
		}
		res.Documents++
		res.Images += len(edits)
	}

	logger.Info().Int("documents", res.Documents).Int("images", res.Images).Msg("Rewrote documents")
	return res, nil
}
