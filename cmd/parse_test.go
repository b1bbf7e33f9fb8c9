package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDocument = `<?xml version="1.0" encoding="UTF-8"?>
<schedule>
  <conference>
    <title>ExampleConf</title>
    <release>v1</release>
  </conference>
  <day index="1" date="2026-12-27" end="2026-12-28T04:00:00+01:00">
    <room name="Main Hall">
      <event id="1">
        <title>Opening</title>
        <start>11:30</start>
        <duration>01:00</duration>
        <date>2026-12-27T11:30:00+01:00</date>
      </event>
      <event id="2">
        <title>Keynote</title>
        <start>13:00</start>
        <duration>01:00</duration>
        <date>2026-12-27T13:00:00+01:00</date>
      </event>
    </room>
  </day>
</schedule>`

func writeTestDocument(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schedule.xml")
	require.NoError(t, os.WriteFile(path, []byte(testDocument), 0o600))
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("SCHEDTRACK_CONFIG_DIR", t.TempDir())
	flagOutput = ""
	flagDebug = false

	buf := &bytes.Buffer{}
	root := NewRootCommand()
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

// TestParseCommand_TextOutput runs parse against a document on disk.
func TestParseCommand_TextOutput(t *testing.T) {
	path := writeTestDocument(t)

	out, err := runCommand(t, "parse", path)
	require.NoError(t, err)

	assert.Contains(t, out, "ExampleConf (v1): 2 sessions across 1 days")
	assert.Contains(t, out, "[Main Hall] Opening")
	assert.Contains(t, out, "[Main Hall] Keynote")
}

// TestParseCommand_Quiet verifies --quiet prints only the summary.
func TestParseCommand_Quiet(t *testing.T) {
	path := writeTestDocument(t)

	out, err := runCommand(t, "parse", "--quiet", path)
	require.NoError(t, err)

	assert.Contains(t, out, "2 sessions")
	assert.NotContains(t, out, "Opening")
}

// TestParseCommand_JSONOutput verifies the JSON output shape.
func TestParseCommand_JSONOutput(t *testing.T) {
	path := writeTestDocument(t)

	out, err := runCommand(t, "parse", "--output", "json", path)
	require.NoError(t, err)

	var decoded struct {
		Title    string `json:"title"`
		Version  string `json:"version"`
		NumDays  int    `json:"num_days"`
		Sessions []struct {
			ID    string `json:"id"`
			Title string `json:"title"`
			Start string `json:"start"`
			Room  string `json:"room"`
		} `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))

	assert.Equal(t, "ExampleConf", decoded.Title)
	assert.Equal(t, "v1", decoded.Version)
	assert.Equal(t, 1, decoded.NumDays)
	require.Len(t, decoded.Sessions, 2)
	assert.Equal(t, "11:30", decoded.Sessions[0].Start)
	assert.Equal(t, "Main Hall", decoded.Sessions[0].Room)
}

// TestParseCommand_MissingFile verifies the error for an absent file.
func TestParseCommand_MissingFile(t *testing.T) {
	_, err := runCommand(t, "parse", "/nonexistent/schedule.xml")
	require.Error(t, err)
}

// TestParseCommand_BrokenDocumentReportsVersion verifies the failed
// version string shows up in the error.
func TestParseCommand_BrokenDocumentReportsVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.xml")
	broken := `<schedule><version>v-broken</version><day index="1"></schedule>`
	require.NoError(t, os.WriteFile(path, []byte(broken), 0o600))

	_, err := runCommand(t, "parse", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "v-broken")
}
