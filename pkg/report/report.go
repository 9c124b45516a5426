// Package report renders the HTML audit report of a run.
package report

import (
	"bytes"
	_ "embed"
	"html/template"
	"io"
	"os"
	"path/filepath"

	"github.com/agentstation/utc"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentstation/epubalt/pkg/constants"
	"github.com/agentstation/epubalt/pkg/errors"
	"github.com/agentstation/epubalt/pkg/reconciler"
)

//go:embed report.html.tmpl
var source string

var tmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"cellClass": func(k reconciler.CellKind) string { return "cell-" + k.String() },
}).Parse(source))

// Report is the data behind one audit report. Rendering depends only on
// these fields, so equal reports render to equal bytes.
type Report struct {
	// Package is the name of the e-book the report is for.
	Package  string
	Mode     string
	Provider string
	// Modified is the modification time of the package file; zero omits it.
	Modified utc.Time
	Rows     []reconciler.Row
	Applied  int
	Failed   int
}

type view struct {
	Report
	Title    string
	Mode     string
	Modified string
}

// Render writes the report as a standalone HTML document.
func Render(w io.Writer, r Report) error {
	v := view{
		Report: r,
		Title:  "Alt Text report for " + r.Package,
		Mode:   cases.Title(language.English).String(r.Mode),
	}
	if !r.Modified.Time.IsZero() {
		v.Modified = r.Modified.Time.UTC().Format(constants.TimeFormatHuman)
	}
	if err := tmpl.Execute(w, v); err != nil {
		return errors.WrapIO("render", "report", err)
	}
	return nil
}

// WriteFile renders the report to path, creating its directory.
func WriteFile(path string, r Report) error {
	var buf bytes.Buffer
	if err := Render(&buf, r); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return errors.WrapIO("create", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, buf.Bytes(), constants.FilePermissions); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}
