package reconciler

// CellKind says how the new-value cell of a row is rendered.
type CellKind int

const (
	// CellPlaceholder means there is no suggestion yet.
	CellPlaceholder CellKind = iota
	// CellAnalysis shows verification commentary or a failure note.
	CellAnalysis
	// CellManual shows text supplied by the user.
	CellManual
	// CellBlank shows that the describer suggested no alt text.
	CellBlank
	// CellText shows generated alt text.
	CellText
)

// String implements fmt.Stringer.
func (k CellKind) String() string {
	return [...]string{"placeholder", "analysis", "manual", "blank", "text"}[k]
}

// Cell is the rendered new-value column of a row.
type Cell struct {
	Kind CellKind
	Text string
}

// Row is one image line of the audit report.
type Row struct {
	Number       int
	Key          string
	Document     string
	DocumentLink string
	Image        string
	ImageLink    string
	// Original is the alt text found in the package; "" for both absent and empty.
	Original string
	Cell     Cell
}

// Result summarizes a reconciliation pass.
type Result struct {
	Rows []Row
	// Applied counts successful results folded into the index.
	Applied int
	// Failed counts failed requests recorded as notes.
	Failed int
	// Missing counts planned requests without any outcome.
	Missing int
}
