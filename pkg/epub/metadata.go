package epub

import "strings"

// Metadata is the descriptive metadata of a package document.
type Metadata struct {
	Title      string `json:"title" yaml:"title"`
	Creator    string `json:"creator" yaml:"creator"`
	Publisher  string `json:"publisher" yaml:"publisher"`
	Language   string `json:"language" yaml:"language"`
	Rights     string `json:"rights" yaml:"rights"`
	Modified   string `json:"modified" yaml:"modified"`
	Published  string `json:"published" yaml:"published"`
	Identifier string `json:"identifier" yaml:"identifier"`
	ISBN       string `json:"isbn,omitempty" yaml:"isbn,omitempty"`
}

type opfMetadata struct {
	Titles      []string `xml:"title"`
	Creators    []string `xml:"creator"`
	Publishers  []string `xml:"publisher"`
	Languages   []string `xml:"language"`
	Rights      []string `xml:"rights"`
	Dates       []string `xml:"date"`
	Identifiers []struct {
		Value  string `xml:",chardata"`
		Scheme string `xml:"scheme,attr"`
	} `xml:"identifier"`
	Metas []struct {
		Property string `xml:"property,attr"`
		Name     string `xml:"name,attr"`
		Content  string `xml:"content,attr"`
		Value    string `xml:",chardata"`
	} `xml:"meta"`
}

func first(vals []string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func (m opfMetadata) normalize() Metadata {
	md := Metadata{
		Title:     first(m.Titles),
		Creator:   first(m.Creators),
		Publisher: first(m.Publishers),
		Language:  first(m.Languages),
		Rights:    first(m.Rights),
		Published: first(m.Dates),
	}
	for _, id := range m.Identifiers {
		value := strings.TrimSpace(id.Value)
		if value == "" {
			continue
		}
		if md.Identifier == "" {
			md.Identifier = value
		}
		lower := strings.ToLower(value)
		if strings.EqualFold(id.Scheme, "isbn") || strings.HasPrefix(lower, "urn:isbn:") {
			md.ISBN = strings.TrimPrefix(lower, "urn:isbn:")
		}
	}
	for _, meta := range m.Metas {
		if meta.Property == "dcterms:modified" {
			md.Modified = strings.TrimSpace(meta.Value)
		}
	}
	return md
}
