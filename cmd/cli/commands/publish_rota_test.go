package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/venue-rota/pkg/core/services"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "decisions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDecisions(t *testing.T) {
	path := writeFile(t, `
decisions:
  - date: 2025-03-03
    location: Main Hall
    worker: Alice
  - date: 2025-03-03
    location: Foyer
`)

	decisions, err := loadDecisions(path)
	require.NoError(t, err)
	assert.Equal(t, []services.PublishDecision{
		{Date: "2025-03-03", Location: "Main Hall", Worker: "Alice"},
		{Date: "2025-03-03", Location: "Foyer"},
	}, decisions)
}

func TestLoadDecisions_EmptyListIsNotNil(t *testing.T) {
	decisions, err := loadDecisions(writeFile(t, "decisions: []\n"))
	require.NoError(t, err)
	assert.NotNil(t, decisions)
	assert.Empty(t, decisions)
}

func TestLoadDecisions_Errors(t *testing.T) {
	_, err := loadDecisions(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read decisions file")

	_, err = loadDecisions(writeFile(t, "decisions: [unclosed"))
	assert.ErrorContains(t, err, "failed to parse decisions file")
}
