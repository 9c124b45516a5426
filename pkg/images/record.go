// Package images builds the per-package image index: one record per
// distinct image identity found in the reading order, plus the state that
// successive runs carry forward through the cache.
package images

import (
	"bytes"
	"encoding/json"

	"github.com/agentstation/epubalt/pkg/errors"
)

// Record is the state kept for one image. The JSON field names are the
// on-disk cache format.
type Record struct {
	// Document is the href of the first reading-order document that uses the image.
	Document string `json:"xhtml"`
	// Alt is the alt attribute found in the package; nil when the attribute is absent.
	Alt *string `json:"alt"`
	// NewAlt is the text written on rewrite.
	NewAlt string `json:"altNew"`
	// Blank marks an explicit decision that the image needs no alt text.
	Blank bool `json:"altNewBlank"`
	// Analysis holds verification commentary or a failure note.
	Analysis string `json:"analysis"`
	// ElementID is the id attribute of the first element; nil when absent.
	ElementID *string `json:"id"`
	// Manual is set once a user supplied the text directly.
	Manual bool `json:"manual"`
}

// HasAlt reports whether the element carried an alt attribute.
func (r Record) HasAlt() bool { return r.Alt != nil }

// AltText returns the original alt text, "" when absent.
func (r Record) AltText() string {
	if r.Alt == nil {
		return ""
	}
	return *r.Alt
}

// ID returns the element id, "" when absent.
func (r Record) ID() string {
	if r.ElementID == nil {
		return ""
	}
	return *r.ElementID
}

// Pending reports whether the record carries a value to write back.
func (r Record) Pending() bool {
	return r.NewAlt != "" || r.Blank
}

// Reset clears every field that runs carry forward.
func (r *Record) Reset() {
	r.NewAlt = ""
	r.Blank = false
	r.Manual = false
	r.Analysis = ""
}

// carry copies the carried-forward fields from prev.
func (r *Record) carry(prev Record) {
	r.NewAlt = prev.NewAlt
	r.Blank = prev.Blank
	r.Manual = prev.Manual
	r.Analysis = prev.Analysis
}

// Index is an insertion-ordered set of records keyed by image identity.
type Index struct {
	keys    []string
	records map[string]Record
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{records: make(map[string]Record)}
}

// Len returns the number of records.
func (x *Index) Len() int { return len(x.keys) }

// Keys returns the keys in insertion order.
func (x *Index) Keys() []string {
	out := make([]string, len(x.keys))
	copy(out, x.keys)
	return out
}

// Get returns the record stored under key.
func (x *Index) Get(key string) (Record, bool) {
	r, ok := x.records[key]
	return r, ok
}

// Has reports whether key is indexed.
func (x *Index) Has(key string) bool {
	_, ok := x.records[key]
	return ok
}

// Set stores r under key, appending the key if it is new.
func (x *Index) Set(key string, r Record) {
	if _, ok := x.records[key]; !ok {
		x.keys = append(x.keys, key)
	}
	x.records[key] = r
}

// Update applies fn to the record under key. It is a no-op for unknown keys.
func (x *Index) Update(key string, fn func(*Record)) bool {
	r, ok := x.records[key]
	if !ok {
		return false
	}
	fn(&r)
	x.records[key] = r
	return true
}

// Clone returns a deep copy.
func (x *Index) Clone() *Index {
	out := &Index{
		keys:    make([]string, len(x.keys)),
		records: make(map[string]Record, len(x.records)),
	}
	copy(out.keys, x.keys)
	for k, r := range x.records {
		if r.Alt != nil {
			alt := *r.Alt
			r.Alt = &alt
		}
		if r.ElementID != nil {
			id := *r.ElementID
			r.ElementID = &id
		}
		out.records[k] = r
	}
	return out
}

// Equal reports whether both indexes hold the same records in the same order.
func (x *Index) Equal(y *Index) bool {
	a, errA := json.Marshal(x)
	b, errB := json.Marshal(y)
	return errA == nil && errB == nil && bytes.Equal(a, b)
}

// MarshalJSON encodes the index as an object in insertion order.
func (x *Index) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range x.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		rb, err := json.Marshal(x.records[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(rb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object, keeping its key order.
func (x *Index) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return errors.WrapParse("json", "image index", err)
	}
	if tok == nil {
		*x = *NewIndex()
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.NewParseError("json", "image index", "expected object", nil)
	}

	out := NewIndex()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return errors.WrapParse("json", "image index", err)
		}
		key, ok := tok.(string)
		if !ok {
			return errors.NewParseError("json", "image index", "expected key", nil)
		}
		var r Record
		if err := dec.Decode(&r); err != nil {
			return errors.WrapParse("json", "image index", err)
		}
		out.Set(key, r)
	}
	if _, err := dec.Token(); err != nil {
		return errors.WrapParse("json", "image index", err)
	}
	*x = *out
	return nil
}
