package agent

import (
	"github.com/cloo-solutions/admitbot/internal/domain"
)

// CompareResult is the output of compare_score.
type CompareResult struct {
	Year   int                      `json:"year"`
	Method domain.ScoreMethod       `json:"method"`
	Score  float64                  `json:"score"`
	Majors []domain.ScoreComparison `json:"majors"`
	NoData bool                     `json:"no_data,omitempty"`
}

// CompareScore checks a total score against every major of the table
// for year and method. Year 0 means the latest year. An empty method is
// inferred from the score scale. A year without data yields NoData and
// an empty list rather than an error.
func (t *ScoreTables) CompareScore(score float64, year int, method domain.ScoreMethod) CompareResult {
	if year == 0 {
		year = t.LatestYear()
	}
	if method == "" {
		method = domain.MethodForScore(score)
	}

	res := CompareResult{Year: year, Method: method, Score: score, Majors: []domain.ScoreComparison{}}
	rows, ok := t.Table(year, method)
	if !ok {
		res.NoData = true
		return res
	}
	for _, r := range rows {
		res.Majors = append(res.Majors, domain.ScoreComparison{
			Major:         r.Major,
			Code:          r.Code,
			RequiredScore: r.RequiredScore,
			Combinations:  r.Combinations,
			IsPass:        score >= r.RequiredScore,
		})
	}
	return res
}

// CutoffTable is the output of get_cutoff_scores.
type CutoffTable struct {
	Year   int                  `json:"year"`
	Method domain.ScoreMethod   `json:"method"`
	Majors []domain.MajorCutoff `json:"majors"`
	NoData bool                 `json:"no_data,omitempty"`
}

// CutoffScores returns the raw table. Year 0 means the latest year and
// an empty method means the national exam.
func (t *ScoreTables) CutoffScores(year int, method domain.ScoreMethod) CutoffTable {
	if year == 0 {
		year = t.LatestYear()
	}
	if method == "" {
		method = domain.ScoreMethodHighSchool
	}
	rows, ok := t.Table(year, method)
	if !ok {
		return CutoffTable{Year: year, Method: method, Majors: []domain.MajorCutoff{}, NoData: true}
	}
	return CutoffTable{Year: year, Method: method, Majors: rows}
}
