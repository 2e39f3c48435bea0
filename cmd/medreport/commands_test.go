package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextCommand(t *testing.T) {
	t.Setenv("DB_URL", "")
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("LAB RESULTS\nHemoglobin: 13.5 g/dL\n"))
	cmd.SetArgs([]string{"text", "--log-level", "error"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), `"success": true`)
	assert.Contains(t, out.String(), "hemoglobin")
}

func TestExtractCommand_MissingFile(t *testing.T) {
	t.Setenv("DB_URL", "")
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"extract", filepath.Join(t.TempDir(), "gone.pdf")})

	err := cmd.Execute()
	require.ErrorIs(t, err, errExtractionFailed)
	assert.Contains(t, out.String(), "file not found")
}
