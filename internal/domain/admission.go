package domain

import "strings"

// Subject is a canonical exam subject name.
type Subject string

const (
	SubjectMath       Subject = "Toán"
	SubjectPhysics    Subject = "Lý"
	SubjectChemistry  Subject = "Hóa"
	SubjectEnglish    Subject = "Anh"
	SubjectLiterature Subject = "Văn"
	SubjectJapanese   Subject = "Nhật"
	SubjectBiology    Subject = "Sinh"
	SubjectHistory    Subject = "Sử"
	SubjectGeography  Subject = "Địa"
)

// ScoreMethod is an admission method with its own reference table.
type ScoreMethod string

const (
	// ScoreMethodHighSchool is the national high-school exam, 0-30 scale.
	ScoreMethodHighSchool ScoreMethod = "thpt"
	// ScoreMethodCompetency is the competency assessment exam, 0-1200 scale.
	ScoreMethodCompetency ScoreMethod = "dgnl"
)

// HighSchoolMaxScore separates the two score scales.
const HighSchoolMaxScore = 30.0

// ParseScoreMethod normalizes an admission method name.
func ParseScoreMethod(s string) (ScoreMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "thpt", "thptqg", "high_school":
		return ScoreMethodHighSchool, nil
	case "dgnl", "đgnl", "competency":
		return ScoreMethodCompetency, nil
	}
	return "", ErrUnknownScoreMethod
}

// MethodForScore picks the table a bare total belongs to.
func MethodForScore(score float64) ScoreMethod {
	if score > HighSchoolMaxScore {
		return ScoreMethodCompetency
	}
	return ScoreMethodHighSchool
}

// MajorCutoff is one row of a reference cutoff table.
type MajorCutoff struct {
	Major         string   `yaml:"major" json:"major"`
	Code          string   `yaml:"code" json:"code"`
	RequiredScore float64  `yaml:"score" json:"required_score"`
	Combinations  []string `yaml:"combinations" json:"combinations"`
}

// ScoreComparison is one row of a compare_score result.
type ScoreComparison struct {
	Major         string   `json:"major"`
	Code          string   `json:"code"`
	RequiredScore float64  `json:"required_score"`
	Combinations  []string `json:"combinations"`
	IsPass        bool     `json:"is_pass"`
}
