package epub

import (
	"archive/zip"
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// Fixture describes a small package for tests and examples.
type Fixture struct {
	// RootDir is the directory of the package document, "" for the zip root.
	RootDir string
	// Documents are reading-order documents keyed by href, in Order.
	Documents map[string]string
	Order     []string
	// Images are image resources keyed by href with their media type.
	Images map[string]string
	// ImageOrder fixes the manifest order of Images; sorted hrefs otherwise.
	ImageOrder []string
	Title      string
}

// Build assembles the fixture into zip bytes.
func (f Fixture) Build() ([]byte, error) {
	opfPath := "content.opf"
	if f.RootDir != "" {
		opfPath = f.RootDir + "/content.opf"
	}
	join := func(href string) string {
		if f.RootDir == "" {
			return href
		}
		return f.RootDir + "/" + href
	}

	var manifest, spine strings.Builder
	for i, href := range f.Order {
		fmt.Fprintf(&manifest, `<item id="doc%d" href="%s" media-type="application/xhtml+xml"/>`+"\n", i, href)
		fmt.Fprintf(&spine, `<itemref idref="doc%d"/>`+"\n", i)
	}
	imageOrder := f.ImageOrder
	if imageOrder == nil {
		for href := range f.Images {
			imageOrder = append(imageOrder, href)
		}
		sort.Strings(imageOrder)
	}
	for i, href := range imageOrder {
		fmt.Fprintf(&manifest, `<item id="img%d" href="%s" media-type="%s"/>`+"\n", i, href, f.Images[href])
	}

	title := f.Title
	if title == "" {
		title = "Fixture"
	}
	opf := `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="uid">
<metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
<dc:identifier id="uid">urn:isbn:9780000000001</dc:identifier>
<dc:title>` + title + `</dc:title>
<dc:creator>A. Writer</dc:creator>
<dc:language>en</dc:language>
<meta property="dcterms:modified">2024-01-02T03:04:05Z</meta>
</metadata>
<manifest>
` + manifest.String() + `</manifest>
<spine>
` + spine.String() + `</spine>
</package>`

	container := `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
<rootfiles><rootfile full-path="` + opfPath + `" media-type="application/oebps-package+xml"/></rootfiles>
</container>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	entries := []struct{ name, body string }{
		{mimetypePath, mimetype},
		{containerPath, container},
		{opfPath, opf},
	}
	for _, href := range f.Order {
		entries = append(entries, struct{ name, body string }{join(href), f.Documents[href]})
	}
	for _, href := range imageOrder {
		entries = append(entries, struct{ name, body string }{join(unescape(href)), "\x89PNG fake " + href})
	}
	for _, e := range entries {
		w, err := zw.Create(e.name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(e.body)); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// XHTML wraps body markup in a minimal XHTML document.
func XHTML(body string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml"><head><title>t</title></head>
<body>` + body + `</body></html>`
}
