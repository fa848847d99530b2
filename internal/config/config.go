package config

// Config represents the full application configuration.
type Config struct {
	Git           GitConfig           `yaml:"git"`
	Coverage      CoverageConfig      `yaml:"coverage"`
	Filter        FilterConfig        `yaml:"filter"`
	Output        OutputConfig        `yaml:"output"`
	Store         StoreConfig         `yaml:"store"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// GitConfig configures repository access and default refs.
type GitConfig struct {
	RepositoryDir string `yaml:"repositoryDir"`
	BaseRef       string `yaml:"baseRef"`
}

// CoverageConfig configures where the coverage report comes from.
// Path points at a local coverage-final.json; URL downloads a prior
// build's artifact instead. When both are set, Path wins.
type CoverageConfig struct {
	Path string `yaml:"path"`
	URL  string `yaml:"url"`

	// Root is the directory the coverage tool ran in; repository-relative
	// diff paths are joined to it to form the report's absolute keys.
	// Empty means the repository directory.
	Root string `yaml:"root"`

	// HTTP settings for URL downloads.
	Token             string  `yaml:"token"`
	Timeout           string  `yaml:"timeout"`
	MaxRetries        int     `yaml:"maxRetries"`
	InitialBackoff    string  `yaml:"initialBackoff"`
	MaxBackoff        string  `yaml:"maxBackoff"`
	BackoffMultiplier float64 `yaml:"backoffMultiplier"`
}

// FilterConfig holds the include/ignore path allow-lists.
type FilterConfig struct {
	Include []string `yaml:"include"`
	Ignore  []string `yaml:"ignore"`
}

// OutputConfig configures report artifacts.
type OutputConfig struct {
	Directory   string `yaml:"directory"`
	JSON        bool   `yaml:"json"`
	Markdown    bool   `yaml:"markdown"`
	Annotations bool   `yaml:"annotations"`
}

// StoreConfig configures the run-history persistence layer.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ObservabilityConfig configures logging.
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig configures structured logging output.
type LoggingConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Level        string `yaml:"level"`  // debug, info, error
	Format       string `yaml:"format"` // json, human
	RedactTokens bool   `yaml:"redactTokens"`
}
