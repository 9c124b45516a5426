package markup

import (
	"regexp"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"

	"github.com/agentstation/epubalt/pkg/errors"
)

var xmlDecl = regexp.MustCompile(`^(\s*<\?xml[^>]*?\bencoding\s*=\s*["'])([^"']+)(["'])`)

// Decode returns text as UTF-8 with a declaration that names UTF-8, plus the
// label of the encoding the original declaration named. The label is empty
// when text already is UTF-8; Encode with the label restores the original.
func Decode(text string) (string, string, error) {
	label := declared(text)
	if label == "" {
		return text, "", nil
	}
	enc, name := charset.Lookup(label)
	if enc == nil {
		return "", "", errors.NewParseError("xhtml", "", "unsupported encoding "+label, nil)
	}
	if name == "utf-8" {
		return text, "", nil
	}
	out, err := enc.NewDecoder().String(text)
	if err != nil {
		return "", "", errors.WrapParse("xhtml", label, err)
	}
	return redeclare(out, "UTF-8"), label, nil
}

// Encode converts UTF-8 text back to the encoding named by label. Runes the
// encoding cannot represent become character references.
func Encode(text, label string) (string, error) {
	if label == "" {
		return text, nil
	}
	enc, _ := charset.Lookup(label)
	if enc == nil {
		return "", errors.NewParseError("xhtml", "", "unsupported encoding "+label, nil)
	}
	out, err := encoding.HTMLEscapeUnsupported(enc.NewEncoder()).String(redeclare(text, label))
	if err != nil {
		return "", errors.WrapParse("xhtml", label, err)
	}
	return out, nil
}

func declared(text string) string {
	m := xmlDecl.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[2]
}

func redeclare(text, label string) string {
	m := xmlDecl.FindStringSubmatchIndex(text)
	if m == nil {
		return text
	}
	return text[:m[4]] + label + text[m[5]:]
}
