package images

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/agentstation/epubalt/pkg/epub"
)

// Identity decides which images share a record.
type Identity string

const (
	// IdentityBasename keys records by file name; images with the same name
	// in different folders share one record.
	IdentityBasename Identity = "basename"
	// IdentityPath keys records by the package-relative resource path.
	IdentityPath Identity = "path"
)

// ParseIdentity parses an identity name; "" selects IdentityBasename.
func ParseIdentity(s string) (Identity, error) {
	switch Identity(strings.ToLower(strings.TrimSpace(s))) {
	case "", IdentityBasename:
		return IdentityBasename, nil
	case IdentityPath:
		return IdentityPath, nil
	default:
		return "", fmt.Errorf("unknown identity %q (want basename or path)", s)
	}
}

// String implements fmt.Stringer.
func (id Identity) String() string { return string(id) }

// Reference keys an image referenced by src inside the document at docPath.
func (id Identity) Reference(docPath, src string) string {
	if id == IdentityPath {
		return epub.ResolveFrom(docPath, src)
	}
	return basename(src)
}

// Resource keys a manifest item.
func (id Identity) Resource(item epub.ManifestItem) string {
	if id == IdentityPath {
		return item.Path
	}
	return basename(item.Href)
}

func basename(ref string) string {
	if u, err := url.PathUnescape(ref); err == nil {
		ref = u
	}
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	return path.Base(ref)
}
