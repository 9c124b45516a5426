package reconciler

// options configures a reconciliation pass.
type options struct {
	rows    bool
	rootDir string
	prefix  string
}

func defaultOptions() *options {
	return &options{
		rows:   true,
		prefix: "epub",
	}
}

// Option is a function that configures a reconciliation pass.
type Option func(*options)

func (options *options) apply(opts ...Option) *options {
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// WithRows enables or disables report row generation.
func WithRows(enabled bool) Option {
	return func(o *options) {
		o.rows = enabled
	}
}

// WithRootDir sets the directory of the package document, used to link
// documents whose hrefs are relative to it.
func WithRootDir(dir string) Option {
	return func(o *options) {
		o.rootDir = dir
	}
}

// WithLinkPrefix sets the folder, relative to the report, that holds the
// extracted package. Defaults to "epub".
func WithLinkPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}
