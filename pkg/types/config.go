package types

import "time"

// FetchConfig holds HTTP settings used when a wiki is loaded from a URL.
type FetchConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "tiddly-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// MaxRetries is the number of retries on HTTP 429/503 (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// ConversionBackend identifies the document conversion tool.
type ConversionBackend string

const (
	// BackendNative converts in-process: wikitext, HTML and Markdown to Markdown.
	BackendNative ConversionBackend = "native"
	// BackendPandoc runs pandoc in a container for every other format pair.
	BackendPandoc ConversionBackend = "pandoc"
)

// ConversionConfig holds settings for the conversion stage.
type ConversionConfig struct {
	// Backend selects the conversion tool: native or pandoc.
	Backend ConversionBackend `json:"backend" yaml:"backend"`

	// PandocImage is the container image used by the pandoc backend.
	PandocImage string `json:"pandoc_image" yaml:"pandoc_image"`

	// PandocArgs are extra pandoc options such as "--toc".
	PandocArgs []string `json:"pandoc_args,omitempty" yaml:"pandoc_args,omitempty"`
}

// SortKey selects the order of tiddlers in a compiled export.
type SortKey string

const (
	SortCreated  SortKey = "created"
	SortModified SortKey = "modified"
	SortTitle    SortKey = "title"
)

// ExportConfig holds settings for the export stage.
type ExportConfig struct {
	// OutputDir is the directory that receives exported files.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Format is the target format, e.g. "markdown", "html", "pdf".
	Format string `json:"format" yaml:"format"`

	// SortBy orders tiddlers in a compiled document (default created).
	SortBy SortKey `json:"sort_by" yaml:"sort_by"`

	// Workers bounds parallel pre-flight conversions (default GOMAXPROCS).
	Workers int `json:"workers" yaml:"workers"`
}

// IndexConfig holds settings for the search index stage.
type IndexConfig struct {
	// IndexDir is the directory containing tiddlers.db and export files.
	IndexDir string `json:"index_dir" yaml:"index_dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is a logrus level name: debug, info, warn, error.
	Level string `json:"level" yaml:"level"`

	// Format is "text" or "json".
	Format string `json:"format" yaml:"format"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Fetch      FetchConfig      `json:"fetch" yaml:"fetch"`
	Conversion ConversionConfig `json:"conversion" yaml:"conversion"`
	Export     ExportConfig     `json:"export" yaml:"export"`
	Index      IndexConfig      `json:"index" yaml:"index"`
	Log        LogConfig        `json:"log" yaml:"log"`
}

// DefaultPipelineConfig returns the configuration used when no config file
// or flag overrides a value.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Fetch: FetchConfig{
			Timeout:    30 * time.Second,
			UserAgent:  "tiddly-engine/0.1",
			MaxRetries: 5,
		},
		Conversion: ConversionConfig{
			Backend:     BackendNative,
			PandocImage: "pandoc/latex:latest",
		},
		Export: ExportConfig{
			OutputDir: "export",
			Format:    "markdown",
			SortBy:    SortCreated,
		},
		Index: IndexConfig{
			IndexDir:   "index",
			MaxResults: 20,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
