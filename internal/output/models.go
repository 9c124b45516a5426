package output

import (
	"io"
	"strconv"

	"github.com/agentstation/epubalt/pkg/epub"
	"github.com/agentstation/epubalt/pkg/images"
)

// ImageView is the listing form of one cached image record.
type ImageView struct {
	Key      string  `json:"key" yaml:"key"`
	Document string  `json:"document" yaml:"document"`
	Alt      *string `json:"alt" yaml:"alt"`
	NewAlt   string  `json:"new_alt,omitempty" yaml:"new_alt,omitempty"`
	Blank    bool    `json:"blank,omitempty" yaml:"blank,omitempty"`
	Manual   bool    `json:"manual,omitempty" yaml:"manual,omitempty"`
	Analysis string  `json:"analysis,omitempty" yaml:"analysis,omitempty"`
}

// ImageViews flattens an index in its stored order.
func ImageViews(idx *images.Index) []ImageView {
	views := make([]ImageView, 0, idx.Len())
	for _, key := range idx.Keys() {
		rec, _ := idx.Get(key)
		views = append(views, ImageView{
			Key:      key,
			Document: rec.Document,
			Alt:      rec.Alt,
			NewAlt:   rec.NewAlt,
			Blank:    rec.Blank,
			Manual:   rec.Manual,
			Analysis: rec.Analysis,
		})
	}
	return views
}

// ImagesToTableData renders an index as a table.
func ImagesToTableData(idx *images.Index) Data {
	data := Data{
		Headers:         []string{"#", "Image", "Document", "Alt", "New Alt"},
		ColumnAlignment: []Align{AlignRight, AlignLeft, AlignLeft, AlignLeft, AlignLeft},
	}
	for i, v := range ImageViews(idx) {
		alt := "(none)"
		if v.Alt != nil {
			alt = strconv.Quote(*v.Alt)
		}
		var next string
		switch {
		case v.Analysis != "":
			next = "note: " + v.Analysis
		case v.Blank:
			next = `""`
		case v.Manual:
			next = v.NewAlt + " (manual)"
		default:
			next = v.NewAlt
		}
		data.Rows = append(data.Rows, []string{strconv.Itoa(i + 1), v.Key, v.Document, alt, next})
	}
	return data
}

// FormatImages writes the cached index in the requested format.
func FormatImages(w io.Writer, idx *images.Index, format Format) error {
	var out any
	switch format {
	case FormatJSON, FormatYAML:
		out = ImageViews(idx)
	default:
		out = ImagesToTableData(idx)
	}
	return NewFormatter(format).Format(w, out)
}

// FormatMetadata writes package metadata in the requested format.
func FormatMetadata(w io.Writer, meta epub.Metadata, format Format) error {
	return NewFormatter(format).Format(w, meta)
}
