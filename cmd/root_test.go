// Package cmd provides the CLI commands for the schedtrack tool.
package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRootCommand verifies the root command structure.
func TestRootCommand(t *testing.T) {
	root := NewRootCommand()

	assert.NotNil(t, root, "NewRootCommand() should not return nil")
	assert.Equal(t, "schedtrack", root.Use)
	assert.NotEmpty(t, root.Short)
	assert.NotEmpty(t, root.Long)
	assert.True(t, root.SilenceUsage)
}

// TestRootCommand_HasSubcommands verifies the expected subcommands exist.
func TestRootCommand_HasSubcommands(t *testing.T) {
	root := NewRootCommand()

	found := map[string]bool{}
	for _, sub := range root.Commands() {
		found[sub.Name()] = true
	}

	for _, name := range []string{"parse", "fetch", "changes", "version"} {
		assert.True(t, found[name], "root command should have %q subcommand", name)
	}
}

// TestRootCommand_PersistentFlags verifies the shared flags.
func TestRootCommand_PersistentFlags(t *testing.T) {
	root := NewRootCommand()

	outputFlag := root.PersistentFlags().Lookup("output")
	require.NotNil(t, outputFlag, "root command should have --output flag")
	assert.Equal(t, "string", outputFlag.Value.Type())

	debugFlag := root.PersistentFlags().Lookup("debug")
	require.NotNil(t, debugFlag, "root command should have --debug flag")
	assert.Equal(t, "bool", debugFlag.Value.Type())
}

// TestFetchCommand_Flags verifies the fetch command flags.
func TestFetchCommand_Flags(t *testing.T) {
	cmd := NewFetchCommand()

	assert.NotEmpty(t, cmd.Short)
	urlFlag := cmd.Flags().Lookup("url")
	require.NotNil(t, urlFlag, "fetch command should have --url flag")

	dryRunFlag := cmd.Flags().Lookup("dry-run")
	require.NotNil(t, dryRunFlag, "fetch command should have --dry-run flag")
	assert.Equal(t, "bool", dryRunFlag.Value.Type())
}

// TestChangesCommand_Flags verifies the changes command flags.
func TestChangesCommand_Flags(t *testing.T) {
	cmd := NewChangesCommand()

	allFlag := cmd.Flags().Lookup("all")
	require.NotNil(t, allFlag, "changes command should have --all flag")

	markSeenFlag := cmd.Flags().Lookup("mark-seen")
	require.NotNil(t, markSeenFlag, "changes command should have --mark-seen flag")
}
