package library

import (
	"os"
	"path/filepath"
	"testing"

	"alcyxob/wellness-app/internal/domain"
	"alcyxob/wellness-app/internal/planner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestDefault(t *testing.T) {
	protocols, err := Default()
	require.NoError(t, err)
	require.Len(t, protocols, 2)

	strength := protocols[0]
	assert.Equal(t, "cellular-strength-stack", strength.Slug)
	assert.Equal(t, "intermediate", strength.Level)
	assert.True(t, strength.IsPublic)
	require.NotNil(t, strength.SessionsPerWeek)
	assert.Equal(t, 4, *strength.SessionsPerWeek)
	assert.Len(t, strength.ReadinessNotes, 2)

	squat := strength.Phases[0].Sessions[0].Blocks[1].Exercises[0]
	require.Len(t, squat.Sets, 3)
	require.NotNil(t, squat.Sets[0].Tempo)
	assert.Equal(t, "3111", *squat.Sets[0].Tempo)
	assert.Nil(t, squat.Sets[0].Weight)

	// foundation 2w x 2 + overload 4w x 2 + peak 2w x 1
	plan := planner.Generate(&strength, planner.GenerateOptions{})
	assert.Len(t, plan.Sessions, 14)
}

func TestParse_CollectsAllErrors(t *testing.T) {
	doc := `
protocols:
  - name: No slug
  - slug: dup
    name: First
  - slug: dup
    name: Second
  - slug: bad
    name: Bad intensity
    phases:
      - key: p
        durationWeeks: 1
        sessions:
          - key: s
            intensity: extreme
`
	_, err := Parse([]byte(doc))
	require.Error(t, err)
	errs := multierr.Errors(err)
	assert.Len(t, errs, 3)
	assert.ErrorIs(t, errs[2], domain.ErrInvalidProtocol)
}

func TestParse_BrokenYAML(t *testing.T) {
	_, err := Parse([]byte("protocols: [\n"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.yaml")
	require.NoError(t, os.WriteFile(path, []byte("protocols:\n  - slug: only\n    name: Only\n"), 0o600))

	protocols, err := Load(path)
	require.NoError(t, err)
	require.Len(t, protocols, 1)
	assert.Equal(t, domain.CurrentSchemaVersion, protocols[0].SchemaVersion)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	builtIn, err := Load("")
	require.NoError(t, err)
	assert.Len(t, builtIn, 2)
}

func TestLoadTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.yaml")
	doc := `
slug: single
name: Single
sessionsPerWeek: 2
phases:
  - key: base
    durationWeeks: 1
    sessions:
      - key: a
        title: A
        intensity: low
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	p, err := LoadTemplate(path)
	require.NoError(t, err)
	assert.Equal(t, "single", p.Slug)
	assert.Len(t, p.Phases, 1)
}
