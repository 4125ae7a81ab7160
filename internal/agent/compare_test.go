package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/admitbot/internal/domain"
)

func passed(res CompareResult) map[string]bool {
	out := make(map[string]bool)
	for _, m := range res.Majors {
		if m.IsPass {
			out[m.Code] = true
		}
	}
	return out
}

func TestCompareScore_HighSchool(t *testing.T) {
	res := DefaultScoreTables().CompareScore(27.3, 0, "")

	assert.Equal(t, 2024, res.Year)
	assert.Equal(t, domain.ScoreMethodHighSchool, res.Method)
	assert.False(t, res.NoData)
	require.Len(t, res.Majors, 13)

	p := passed(res)
	assert.True(t, p["7480101"], "cutoff equal to score passes")
	assert.False(t, p["7480107"])
	assert.False(t, p["7460108"])
}

func TestCompareScore_CompetencyScale(t *testing.T) {
	res := DefaultScoreTables().CompareScore(900, 2024, "")

	assert.Equal(t, domain.ScoreMethodCompetency, res.Method)
	assert.Len(t, passed(res), 6)
}

func TestCompareScore_UnknownYear(t *testing.T) {
	res := DefaultScoreTables().CompareScore(25, 2019, domain.ScoreMethodHighSchool)

	assert.True(t, res.NoData)
	assert.NotNil(t, res.Majors)
	assert.Empty(t, res.Majors)
}

func TestCompareScore_Monotonic(t *testing.T) {
	tables := DefaultScoreTables()
	scores := []float64{20, 25.5, 25.7, 26.25, 26.9, 27.3, 28.3, 30}

	for i := 1; i < len(scores); i++ {
		lower := passed(tables.CompareScore(scores[i-1], 0, ""))
		higher := passed(tables.CompareScore(scores[i], 0, ""))
		for code := range lower {
			assert.True(t, higher[code], "%s passes at %.2f but not at %.2f", code, scores[i-1], scores[i])
		}
	}
}

func TestCutoffScores(t *testing.T) {
	tables := DefaultScoreTables()

	table := tables.CutoffScores(0, "")
	assert.Equal(t, domain.ScoreMethodHighSchool, table.Method)
	assert.Len(t, table.Majors, 13)

	table = tables.CutoffScores(2024, domain.ScoreMethodCompetency)
	assert.Equal(t, 980.0, maxCutoff(table.Majors))

	table = tables.CutoffScores(2030, "")
	assert.True(t, table.NoData)
}

func maxCutoff(rows []domain.MajorCutoff) float64 {
	best := 0.0
	for _, r := range rows {
		best = max(best, r.RequiredScore)
	}
	return best
}
