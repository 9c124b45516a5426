package epub

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/agentstation/epubalt/pkg/constants"
	"github.com/agentstation/epubalt/pkg/errors"
)

// Extract writes every entry of the package below dir. Entries that would
// escape dir are rejected.
func (p *Package) Extract(dir string) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	root, err := filepath.Abs(dir)
	if err != nil {
		return errors.WrapIO("resolve", dir, err)
	}
	for _, name := range p.order {
		target := filepath.Join(root, filepath.FromSlash(name))
		if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return errors.NewPackageError(p.source, "entry escapes extraction directory: "+name, nil)
		}
		if err := os.MkdirAll(filepath.Dir(target), constants.DirPermissions); err != nil {
			return errors.WrapIO("create", filepath.Dir(target), err)
		}
		if err := os.WriteFile(target, p.files[name], constants.FilePermissions); err != nil {
			return errors.WrapIO("write", target, err)
		}
	}
	return nil
}
