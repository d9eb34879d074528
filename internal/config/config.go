package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/lipgloss"
	"github.com/mitchellh/go-homedir"
	"github.com/sajari/fuzzy"

	"typereport/internal/extractor"
	"typereport/internal/report"
)

type Config struct {
	IgnoreAllErrors []string
	AnalysisRoot    string
	FilterRoots     []string
	Output          string
	Verbose         bool
	Command         []string
	LogFile         string
	LogLevel        string
	HistoryDir      string
	CustomSettings  map[string]string

	// Source is the file the configuration was read from, if any.
	Source string
	// Warnings collects problems that did not prevent loading.
	Warnings []string
}

// rcFiles are searched in order of preference; the TOML file comes last.
var rcFiles = []string{
	".typereport.rc",
	".typereport.config",
	"typereport.config",
}

const tomlFile = "typereport.toml"

var knownKeys = []string{
	"ignore-all-errors",
	"analysis-root",
	"filter-roots",
	"output",
	"verbose",
	"command",
	"log-file",
	"log-level",
	"history-dir",
}

func NewConfig() *Config {
	return &Config{
		IgnoreAllErrors: []string{},
		FilterRoots:     []string{},
		Output:          string(report.Text),
		LogLevel:        "info",
		HistoryDir:      ".typereport/history",
		CustomSettings:  make(map[string]string),
	}
}

// LoadConfig looks for a configuration file in dir. A missing file is not an
// error; the defaults are returned.
func LoadConfig(dir string) (*Config, error) {
	candidates := append(append([]string{}, rcFiles...), tomlFile)
	for _, name := range candidates {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadConfigFromFile(path)
		}
	}
	return NewConfig(), nil
}

func LoadConfigFromFile(filename string) (*Config, error) {
	if _, err := os.Stat(filename); err != nil {
		return nil, fmt.Errorf("config file not found: %s", filename)
	}

	config := NewConfig()
	config.Source = filename
	if strings.EqualFold(filepath.Ext(filename), ".toml") {
		return parseTOMLFile(filename, config)
	}
	return parseConfigFile(filename, config)
}

func parseConfigFile(filename string, config *Config) (*Config, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			config.warn("Line %d: expected key = value", lineNum)
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)

		if err := config.parseKeyValue(key, value); err != nil {
			config.warn("Line %d: %v", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}
	return config, nil
}

type tomlConfig struct {
	IgnoreAllErrors []string `toml:"ignore-all-errors"`
	AnalysisRoot    string   `toml:"analysis-root"`
	FilterRoots     []string `toml:"filter-roots"`
	Output          string   `toml:"output"`
	Verbose         *bool    `toml:"verbose"`
	Command         []string `toml:"command"`
	LogFile         string   `toml:"log-file"`
	LogLevel        string   `toml:"log-level"`
	HistoryDir      string   `toml:"history-dir"`
}

func parseTOMLFile(filename string, config *Config) (*Config, error) {
	var raw tomlConfig
	meta, err := toml.DecodeFile(filename, &raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}
	for _, key := range meta.Undecoded() {
		config.warn("unknown key %q%s", key.String(), suggestKey(key.String()))
	}

	config.IgnoreAllErrors = append(config.IgnoreAllErrors, raw.IgnoreAllErrors...)
	config.FilterRoots = append(config.FilterRoots, raw.FilterRoots...)
	config.Command = raw.Command
	if raw.AnalysisRoot != "" {
		config.AnalysisRoot = raw.AnalysisRoot
	}
	if raw.Output != "" {
		config.Output = raw.Output
	}
	if raw.Verbose != nil {
		config.Verbose = *raw.Verbose
	}
	if raw.LogFile != "" {
		config.LogFile = raw.LogFile
	}
	if raw.LogLevel != "" {
		config.LogLevel = raw.LogLevel
	}
	if raw.HistoryDir != "" {
		config.HistoryDir = raw.HistoryDir
	}
	return config, nil
}

func (c *Config) parseKeyValue(key, value string) error {
	switch key {
	case "ignore-all-errors":
		c.IgnoreAllErrors = append(c.IgnoreAllErrors, parseList(value)...)
	case "analysis-root":
		c.AnalysisRoot = value
	case "filter-roots":
		c.FilterRoots = append(c.FilterRoots, parseList(value)...)
	case "output":
		c.Output = value
	case "verbose":
		c.Verbose = strings.ToLower(value) == "true"
	case "command":
		c.Command = strings.Fields(value)
	case "log-file":
		c.LogFile = value
	case "log-level":
		c.LogLevel = value
	case "history-dir":
		c.HistoryDir = value
	default:
		c.CustomSettings[key] = value
		return fmt.Errorf("unknown key %q%s", key, suggestKey(key))
	}
	return nil
}

func (c *Config) warn(format string, args ...any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

func parseList(value string) []string {
	items := strings.Split(value, ",")
	var result []string

	for _, item := range items {
		cleaned := strings.TrimSpace(item)
		if cleaned != "" {
			result = append(result, cleaned)
		}
	}

	return result
}

func suggestKey(key string) string {
	model := fuzzy.NewModel()
	model.SetDepth(2)
	for _, k := range knownKeys {
		model.SetCount(k, 1, true)
	}
	if s := model.SpellCheck(key); s != "" && s != key {
		return fmt.Sprintf(" (did you mean %q?)", s)
	}
	return ""
}

// baseDir is the directory relative paths in the configuration refer to.
func (c *Config) baseDir(cwd string) string {
	if c.Source == "" {
		return cwd
	}
	dir, err := filepath.Abs(filepath.Dir(c.Source))
	if err != nil {
		return cwd
	}
	return dir
}

// ResolvePath expands ~ and makes path absolute against the configuration's
// directory, falling back to cwd. A trailing separator is kept.
func (c *Config) ResolvePath(path, cwd string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("failed to expand %s: %w", path, err)
	}
	if !filepath.IsAbs(expanded) {
		expanded = filepath.Join(c.baseDir(cwd), expanded)
	}
	return keepTrailingSeparator(path, filepath.Clean(expanded)), nil
}

func keepTrailingSeparator(original, cleaned string) string {
	sep := string(filepath.Separator)
	if strings.HasSuffix(original, sep) && !strings.HasSuffix(cleaned, sep) {
		return cleaned + sep
	}
	return cleaned
}

// RenderConfiguration validates the settings and builds the read-only
// configuration for one run. An unknown output format is an error.
func (c *Config) RenderConfiguration(cwd string) (report.Configuration, error) {
	format, err := report.ParseOutputFormat(c.Output)
	if err != nil {
		return report.Configuration{}, err
	}

	root := cwd
	if c.AnalysisRoot != "" {
		if root, err = c.ResolvePath(c.AnalysisRoot, cwd); err != nil {
			return report.Configuration{}, err
		}
	}

	ignore := make([]string, 0, len(c.IgnoreAllErrors))
	for _, path := range c.IgnoreAllErrors {
		resolved, err := c.ResolvePath(path, cwd)
		if err != nil {
			return report.Configuration{}, err
		}
		// Error paths are symlink-resolved before matching, so the
		// prefixes must be too.
		ignore = append(ignore, keepTrailingSeparator(resolved, extractor.Canonical(resolved)))
	}

	return report.Configuration{
		Verbose:              c.Verbose,
		Output:               format,
		IgnoreAllErrorsPaths: ignore,
		CurrentDirectory:     extractor.Canonical(cwd),
		AnalysisRoot:         extractor.Canonical(root),
	}, nil
}

// ResolveFilterRoots returns the configured filter roots as absolute paths.
func (c *Config) ResolveFilterRoots(cwd string) ([]string, error) {
	roots := make([]string, 0, len(c.FilterRoots))
	for _, path := range c.FilterRoots {
		resolved, err := c.ResolvePath(path, cwd)
		if err != nil {
			return nil, err
		}
		roots = append(roots, resolved)
	}
	return roots, nil
}

func GenerateConfigFile(filename string) error {
	if filename == "" {
		filename = rcFiles[0]
	}

	content := `# typereport configuration file
# Lines starting with # are comments

# Errors in files under these paths are never reported.
# Relative paths are resolved against this file's directory; ~ is expanded.
ignore-all-errors = "stubs/,~/.cache/typeshed/"

# Directory the analyzer reports paths relative to (default: current directory)
# analysis-root = "."

# Directories handed to the analyzer (default: none)
# filter-roots = "src,tests"

# Output format: text or json
output = text

# Also report errors outside the current directory
verbose = false

# Analyzer invocation; its stdout must be a JSON list of errors.
# The command must exit 0 when it reports errors: any other exit code is
# treated as a failed analysis. pyre exits 1 when it finds type errors, so
# run it yourself and pass its saved output with --input, or wrap it.
# command = pyre --output=json check

# Logging
log-level = info
# log-file = ".typereport/typereport.log"

# Where --log-history writes its CSV snapshots
history-dir = ".typereport/history"
`

	return os.WriteFile(filename, []byte(content), 0644)
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#5d5d5d")).
			PaddingLeft(1).
			PaddingRight(1)

	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#878787"))
)

func (c *Config) PrintSummary(w io.Writer) {
	source := c.Source
	if source == "" {
		source = "(defaults)"
	}

	fmt.Fprintln(w, titleStyle.Render("Configuration Summary"))
	row := func(key string, value any) {
		fmt.Fprintf(w, "  %s %v\n", keyStyle.Render(key+":"), value)
	}
	row("source", source)
	row("ignore-all-errors", strings.Join(c.IgnoreAllErrors, ", "))
	row("analysis-root", c.AnalysisRoot)
	row("filter-roots", strings.Join(c.FilterRoots, ", "))
	row("output", c.Output)
	row("verbose", c.Verbose)
	row("command", strings.Join(c.Command, " "))
	row("log-level", c.LogLevel)
	if c.LogFile != "" {
		row("log-file", c.LogFile)
	}
	row("history-dir", c.HistoryDir)
}
