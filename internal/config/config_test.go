package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"typereport/internal/report"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestNewConfig(t *testing.T) {
	c := NewConfig()

	assert.Equal(t, "text", c.Output)
	assert.Equal(t, "info", c.LogLevel)
	assert.False(t, c.Verbose)
	assert.Empty(t, c.IgnoreAllErrors)
	assert.Equal(t, ".typereport/history", c.HistoryDir)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".typereport.rc")
	writeFile(t, path, `# comment
// another comment
ignore-all-errors = "stubs/, vendor"
ignore-all-errors = generated
output = json
verbose = true
command = pyre --output=json check
analysis-root = ..
filter-roots = src,tests
log-level = debug
`)

	c, err := LoadConfigFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, path, c.Source)
	assert.Equal(t, []string{"stubs/", "vendor", "generated"}, c.IgnoreAllErrors)
	assert.Equal(t, "json", c.Output)
	assert.True(t, c.Verbose)
	assert.Equal(t, []string{"pyre", "--output=json", "check"}, c.Command)
	assert.Equal(t, "..", c.AnalysisRoot)
	assert.Equal(t, []string{"src", "tests"}, c.FilterRoots)
	assert.Equal(t, "debug", c.LogLevel)
	assert.Empty(t, c.Warnings)
}

func TestLoadConfigFromFileWarnsOnUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".typereport.rc")
	writeFile(t, path, "outptu = json\nnot a setting\n")

	c, err := LoadConfigFromFile(path)
	require.NoError(t, err)

	require.Len(t, c.Warnings, 2)
	assert.Equal(t, `Line 1: unknown key "outptu" (did you mean "output"?)`, c.Warnings[0])
	assert.Equal(t, "Line 2: expected key = value", c.Warnings[1])
	assert.Equal(t, "json", c.CustomSettings["outptu"])
	assert.Equal(t, "text", c.Output)
}

func TestLoadConfigFromFileMissing(t *testing.T) {
	_, err := LoadConfigFromFile(filepath.Join(t.TempDir(), "nope.rc"))
	assert.Error(t, err)
}

func TestLoadConfigTOML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "typereport.toml"), `
ignore-all-errors = ["stubs/"]
output = "json"
verbose = true
command = ["pyre", "check"]
colour = "always"
`)

	c, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "typereport.toml"), c.Source)
	assert.Equal(t, []string{"stubs/"}, c.IgnoreAllErrors)
	assert.Equal(t, "json", c.Output)
	assert.True(t, c.Verbose)
	assert.Equal(t, []string{"pyre", "check"}, c.Command)
	require.Len(t, c.Warnings, 1)
	assert.Contains(t, c.Warnings[0], `unknown key "colour"`)
}

func TestLoadConfigPrefersRCFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "typereport.toml"), `output = "json"`)
	writeFile(t, filepath.Join(dir, "typereport.config"), "output = text\n")

	c, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "typereport.config"), c.Source)
	assert.Equal(t, "text", c.Output)
}

func TestLoadConfigDefaults(t *testing.T) {
	c, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, c.Source)
	assert.Equal(t, "text", c.Output)
}

func TestRenderConfiguration(t *testing.T) {
	base, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	project := filepath.Join(base, "project")
	cwd := filepath.Join(project, "src")
	require.NoError(t, os.MkdirAll(cwd, 0755))

	path := filepath.Join(project, ".typereport.rc")
	writeFile(t, path, "ignore-all-errors = stubs/, /opt/typeshed\nanalysis-root = .\noutput = json\nverbose = true\n")

	c, err := LoadConfigFromFile(path)
	require.NoError(t, err)

	rc, err := c.RenderConfiguration(cwd)
	require.NoError(t, err)

	assert.True(t, rc.Verbose)
	assert.Equal(t, report.JSON, rc.Output)
	assert.Equal(t, project, rc.AnalysisRoot)
	assert.Equal(t, cwd, rc.CurrentDirectory)
	require.Len(t, rc.IgnoreAllErrorsPaths, 2)
	assert.Equal(t, filepath.Join(project, "stubs")+"/", rc.IgnoreAllErrorsPaths[0])
	assert.True(t, strings.HasSuffix(rc.IgnoreAllErrorsPaths[1], "typeshed"))
}

func TestRenderConfigurationDefaultsRootToCurrentDirectory(t *testing.T) {
	cwd, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	rc, err := NewConfig().RenderConfiguration(cwd)
	require.NoError(t, err)
	assert.Equal(t, cwd, rc.AnalysisRoot)
	assert.Equal(t, report.Text, rc.Output)
	assert.Empty(t, rc.IgnoreAllErrorsPaths)
}

func TestRenderConfigurationRejectsUnknownFormat(t *testing.T) {
	c := NewConfig()
	c.Output = "yaml"

	_, err := c.RenderConfiguration(t.TempDir())
	var unknown *report.UnknownFormatError
	assert.ErrorAs(t, err, &unknown)
}

func TestResolvePathExpandsHome(t *testing.T) {
	home, err := homedir.Dir()
	if err != nil {
		t.Skip("no home directory")
	}

	got, err := NewConfig().ResolvePath("~/.cache/typeshed/", "/work")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".cache", "typeshed")+"/", got)

	got, err = NewConfig().ResolvePath("stubs", "/work")
	require.NoError(t, err)
	assert.Equal(t, "/work/stubs", got)
}

func TestResolveFilterRoots(t *testing.T) {
	c := NewConfig()
	c.FilterRoots = []string{"src", "/abs/tests"}

	roots, err := c.ResolveFilterRoots("/work")
	require.NoError(t, err)
	assert.Equal(t, []string{"/work/src", "/abs/tests"}, roots)
}

func TestGenerateConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".typereport.rc")
	require.NoError(t, GenerateConfigFile(path))

	c, err := LoadConfigFromFile(path)
	require.NoError(t, err)
	assert.Empty(t, c.Warnings)
	assert.Equal(t, "text", c.Output)
	assert.Empty(t, c.Command)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "must exit 0 when it reports errors")
	assert.Equal(t, []string{"stubs/", "~/.cache/typeshed/"}, c.IgnoreAllErrors)
}

func TestPrintSummary(t *testing.T) {
	var b strings.Builder
	c := NewConfig()
	c.IgnoreAllErrors = []string{"stubs/"}
	c.PrintSummary(&b)

	out := b.String()
	assert.Contains(t, out, "Configuration Summary")
	assert.Contains(t, out, "(defaults)")
	assert.Contains(t, out, "stubs/")
}
