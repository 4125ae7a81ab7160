package agent

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/admitbot/internal/domain"
)

func TestDefaultScoreTables(t *testing.T) {
	tables := DefaultScoreTables()

	assert.Equal(t, 2024, tables.LatestYear())
	assert.Equal(t, []int{2024}, tables.Years())

	thpt, ok := tables.Table(2024, domain.ScoreMethodHighSchool)
	require.True(t, ok)
	assert.Len(t, thpt, 13)

	dgnl, ok := tables.Table(2024, domain.ScoreMethodCompetency)
	require.True(t, ok)
	assert.Len(t, dgnl, 13)

	_, ok = tables.Table(2023, domain.ScoreMethodHighSchool)
	assert.False(t, ok)
}

func TestScoreTables_TableReturnsCopy(t *testing.T) {
	tables := DefaultScoreTables()
	rows, _ := tables.Table(2024, domain.ScoreMethodHighSchool)
	rows[0].RequiredScore = 0

	again, _ := tables.Table(2024, domain.ScoreMethodHighSchool)
	assert.NotZero(t, again[0].RequiredScore)
}

func TestLoadScoreTables_Errors(t *testing.T) {
	_, err := LoadScoreTables(strings.NewReader(""))
	assert.Error(t, err)

	_, err = LoadScoreTables(strings.NewReader("2024:\n  sat:\n    - {major: X, code: '1', score: 1}\n"))
	assert.ErrorIs(t, err, domain.ErrUnknownScoreMethod)
}

func TestLoadScoreTablesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
2025:
  thpt:
    - {major: Khoa học máy tính, code: "7480101", score: 28, combinations: [A00]}
`), 0o600))

	tables, err := LoadScoreTablesFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2025, tables.LatestYear())

	tables, err = LoadScoreTablesFile("")
	require.NoError(t, err)
	assert.Equal(t, 2024, tables.LatestYear())

	_, err = LoadScoreTablesFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
