// Package epub loads e-book packages (EPUB zip containers) and exposes the
// resource manifest, the reading order and read/replace operations on the
// documents inside.
package epub

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"net/url"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/agentstation/epubalt/pkg/errors"
)

const (
	containerPath = "META-INF/container.xml"
	mimetypePath  = "mimetype"
	mimetype      = "application/epub+zip"
)

// ManifestItem is one resource declared in the package manifest.
type ManifestItem struct {
	ID        string `json:"id" yaml:"id"`
	Href      string `json:"href" yaml:"href"`
	MediaType string `json:"media_type" yaml:"media_type"`
	// Path is the zip entry path (root directory joined with Href).
	Path string `json:"path" yaml:"path"`
}

// Document is one reading-order content document.
type Document struct {
	ID   string
	Href string
	Path string
}

// Package is an opened e-book package held in memory.
type Package struct {
	source   string
	rootFile string
	rootDir  string
	order    []string
	files    map[string][]byte
	modes    map[string]uint16

	manifest []ManifestItem
	spine    []Document
	meta     Metadata

	mu sync.RWMutex
}

// Open reads the package at filename.
func Open(filename string) (*Package, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.NewPackageError(filename, "cannot read package", err)
	}
	pkg, err := Parse(data)
	if err != nil {
		if pe, ok := err.(*errors.PackageError); ok {
			pe.Path = filename
		}
		return nil, err
	}
	pkg.source = filename
	return pkg, nil
}

// Parse loads a package from raw zip bytes.
func Parse(data []byte) (*Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.NewPackageError("", "not a zip container", err)
	}

	pkg := &Package{
		files: make(map[string][]byte, len(zr.File)),
		modes: make(map[string]uint16, len(zr.File)),
	}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		b, err := readZipFile(f)
		if err != nil {
			return nil, errors.NewPackageError("", "cannot read entry "+f.Name, err)
		}
		pkg.order = append(pkg.order, f.Name)
		pkg.files[f.Name] = b
		pkg.modes[f.Name] = f.Method
	}

	if err := pkg.load(); err != nil {
		return nil, err
	}
	return pkg, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close() //nolint:errcheck
	return io.ReadAll(rc)
}

type container struct {
	RootFiles []struct {
		FullPath  string `xml:"full-path,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"rootfiles>rootfile"`
}

type opf struct {
	Metadata opfMetadata `xml:"metadata"`
	Manifest []struct {
		ID        string `xml:"id,attr"`
		Href      string `xml:"href,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"manifest>item"`
	Spine []struct {
		IDRef string `xml:"idref,attr"`
	} `xml:"spine>itemref"`
}

func (p *Package) load() error {
	raw, ok := p.files[containerPath]
	if !ok {
		return errors.NewPackageError("", "missing "+containerPath, nil)
	}
	var c container
	if err := xml.Unmarshal(raw, &c); err != nil {
		return errors.NewPackageError("", "malformed "+containerPath, err)
	}
	for _, rf := range c.RootFiles {
		if rf.FullPath != "" {
			p.rootFile = rf.FullPath
			break
		}
	}
	if p.rootFile == "" {
		return errors.NewPackageError("", "no rootfile reference in "+containerPath, nil)
	}

	raw, ok = p.files[p.rootFile]
	if !ok {
		return errors.NewPackageError("", "rootfile "+p.rootFile+" not found", nil)
	}
	var doc opf
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return errors.NewPackageError("", "malformed rootfile "+p.rootFile, err)
	}

	p.rootDir = path.Dir(p.rootFile)
	if p.rootDir == "." {
		p.rootDir = ""
	}

	byID := make(map[string]ManifestItem, len(doc.Manifest))
	for _, it := range doc.Manifest {
		href := unescape(it.Href)
		item := ManifestItem{
			ID:        it.ID,
			Href:      href,
			MediaType: strings.ToLower(strings.TrimSpace(it.MediaType)),
			Path:      p.Resolve(href),
		}
		p.manifest = append(p.manifest, item)
		byID[it.ID] = item
	}
	for _, ref := range doc.Spine {
		item, ok := byID[ref.IDRef]
		if !ok {
			continue
		}
		p.spine = append(p.spine, Document{ID: item.ID, Href: item.Href, Path: item.Path})
	}
	p.meta = doc.Metadata.normalize()
	return nil
}

func unescape(href string) string {
	if u, err := url.PathUnescape(href); err == nil {
		return u
	}
	return href
}

// Source returns the file the package was opened from.
func (p *Package) Source() string { return p.source }

// RootFile returns the zip path of the package document.
func (p *Package) RootFile() string { return p.rootFile }

// RootDir returns the directory holding the package document, "" at the zip root.
func (p *Package) RootDir() string { return p.rootDir }

// Resolve joins an href relative to the package document into a zip path.
func (p *Package) Resolve(href string) string {
	return path.Clean(path.Join(p.rootDir, href))
}

// ResolveFrom resolves a reference made inside the document at docPath.
func ResolveFrom(docPath, ref string) string {
	ref = unescape(ref)
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	return path.Clean(path.Join(path.Dir(docPath), ref))
}

// Manifest returns the resource manifest in declaration order.
func (p *Package) Manifest() []ManifestItem {
	out := make([]ManifestItem, len(p.manifest))
	copy(out, p.manifest)
	return out
}

// Spine returns the reading-order documents.
func (p *Package) Spine() []Document {
	out := make([]Document, len(p.spine))
	copy(out, p.spine)
	return out
}

// Metadata returns the descriptive metadata of the package.
func (p *Package) Metadata() Metadata { return p.meta }

// ReadFile returns the raw bytes of a zip entry.
func (p *Package) ReadFile(name string) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	b, ok := p.files[name]
	if !ok {
		return nil, errors.NewNotFoundError("entry", name)
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// ReadText returns the text of a document.
func (p *Package) ReadText(name string) (string, error) {
	b, err := p.ReadFile(name)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReplaceText overwrites the text of an existing document.
func (p *Package) ReplaceText(name, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.files[name]; !ok {
		return errors.NewNotFoundError("entry", name)
	}
	p.files[name] = []byte(text)
	return nil
}

// Files returns the zip entry names in archive order.
func (p *Package) Files() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// Bytes serializes the package back into a zip container. The mimetype
// entry is written first and stored uncompressed.
func (p *Package) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := p.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTo writes the serialized package to w.
func (p *Package) WriteTo(w io.Writer) (int64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)

	names := make([]string, 0, len(p.order))
	for _, name := range p.order {
		if name != mimetypePath {
			names = append(names, name)
		}
	}
	mt, ok := p.files[mimetypePath]
	if !ok {
		mt = []byte(mimetype)
	}
	if err := writeEntry(zw, mimetypePath, mt, zip.Store); err != nil {
		return cw.n, err
	}
	for _, name := range names {
		method := p.modes[name]
		if method != zip.Store {
			method = zip.Deflate
		}
		if err := writeEntry(zw, name, p.files[name], method); err != nil {
			return cw.n, err
		}
	}
	if err := zw.Close(); err != nil {
		return cw.n, errors.WrapIO("write", "package", err)
	}
	return cw.n, nil
}

func writeEntry(zw *zip.Writer, name string, data []byte, method uint16) error {
	fw, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: method})
	if err != nil {
		return errors.WrapIO("write", name, err)
	}
	if _, err := fw.Write(data); err != nil {
		return errors.WrapIO("write", name, err)
	}
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(b []byte) (int, error) {
	n, err := c.w.Write(b)
	c.n += int64(n)
	return n, err
}

// ImageItems returns manifest items whose media type is an image, sorted by path.
func (p *Package) ImageItems() []ManifestItem {
	var out []ManifestItem
	for _, it := range p.manifest {
		if strings.HasPrefix(it.MediaType, "image/") {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
