// Package markup finds elements in XHTML documents and rewrites their
// attributes in place. Only the start tags that change are touched, so the
// rest of the document keeps its original bytes.
package markup

import (
	"encoding/xml"
	"io"
	"sort"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/agentstation/epubalt/pkg/errors"
)

// Attr is a parsed attribute.
type Attr struct {
	Name  string
	Value string
}

// Element is a start tag located in a document.
type Element struct {
	Name  string
	Attrs []Attr
	// Start and End delimit the raw start tag in the document text. For a
	// document declaring a non-UTF-8 encoding they index the UTF-8 form;
	// run it through Decode before calling Apply.
	Start int
	End   int
}

// Attr returns the value of the named attribute and whether it is present.
func (e Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Find returns every element with the given local name in document order.
func Find(text, local string) ([]Element, error) {
	dec := xml.NewDecoder(strings.NewReader(text))
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity
	dec.CharsetReader = charset.NewReaderLabel

	var out []Element
	for {
		start := int(dec.InputOffset())
		tok, err := dec.RawToken()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, errors.WrapParse("xhtml", local, err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || !strings.EqualFold(se.Name.Local, local) {
			continue
		}
		el := Element{Name: se.Name.Local, Start: start, End: int(dec.InputOffset())}
		for _, a := range se.Attr {
			name := a.Name.Local
			if a.Name.Space != "" {
				name = a.Name.Space + ":" + name
			}
			el.Attrs = append(el.Attrs, Attr{Name: name, Value: a.Value})
		}
		out = append(out, el)
	}
}

// Edit sets one attribute on one element.
type Edit struct {
	Element Element
	Name    string
	Value   string
}

// Apply splices the edits into text. Edits must refer to elements found in
// the same text.
func Apply(text string, edits []Edit) string {
	if len(edits) == 0 {
		return text
	}
	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Element.Start > sorted[j].Element.Start
	})

	for _, e := range sorted {
		tag := text[e.Element.Start:e.Element.End]
		text = text[:e.Element.Start] + setAttr(tag, e.Name, e.Value) + text[e.Element.End:]
	}
	return text
}

var attrEscaper = strings.NewReplacer(
	`&`, "&amp;",
	`<`, "&lt;",
	`>`, "&gt;",
	`"`, "&quot;",
)

// Escape escapes s for use inside a double-quoted attribute value.
func Escape(s string) string {
	return attrEscaper.Replace(s)
}

type span struct {
	name       string
	start, end int
}

// setAttr rewrites one raw start tag.
func setAttr(tag, name, value string) string {
	rendered := name + `="` + Escape(value) + `"`
	for _, s := range scanAttrs(tag) {
		if s.name == name {
			return tag[:s.start] + rendered + tag[s.end:]
		}
	}

	end := len(tag) - 1
	for end > 0 && (tag[end] == '>' || tag[end] == '/') {
		end--
	}
	end++
	for end > 0 && isSpace(tag[end-1]) {
		end--
	}
	return tag[:end] + " " + rendered + tag[end:]
}

// scanAttrs returns the raw spans of the attributes of a start tag.
func scanAttrs(tag string) []span {
	i := 1
	for i < len(tag) && !isSpace(tag[i]) && tag[i] != '>' && tag[i] != '/' {
		i++
	}

	var out []span
	for i < len(tag) {
		for i < len(tag) && (isSpace(tag[i]) || tag[i] == '/') {
			i++
		}
		if i >= len(tag) || tag[i] == '>' {
			break
		}
		start := i
		for i < len(tag) && !isSpace(tag[i]) && tag[i] != '=' && tag[i] != '>' && tag[i] != '/' {
			i++
		}
		name := tag[start:i]

		j := i
		for j < len(tag) && isSpace(tag[j]) {
			j++
		}
		if j < len(tag) && tag[j] == '=' {
			j++
			for j < len(tag) && isSpace(tag[j]) {
				j++
			}
			if j < len(tag) && (tag[j] == '"' || tag[j] == '\'') {
				q := tag[j]
				j++
				for j < len(tag) && tag[j] != q {
					j++
				}
				if j < len(tag) {
					j++
				}
			} else {
				for j < len(tag) && !isSpace(tag[j]) && tag[j] != '>' {
					j++
				}
			}
			i = j
		}
		if name == "" {
			i++
			continue
		}
		out = append(out, span{name: name, start: start, end: i})
	}
	return out
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
