package agent

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/cloo-solutions/admitbot/internal/domain"
	"github.com/cloo-solutions/admitbot/internal/textnorm"
)

// Combinations accepted for admission, keyed by code.
var Combinations = map[string][3]domain.Subject{
	"A00": {domain.SubjectMath, domain.SubjectPhysics, domain.SubjectChemistry},
	"A01": {domain.SubjectMath, domain.SubjectPhysics, domain.SubjectEnglish},
	"D01": {domain.SubjectMath, domain.SubjectLiterature, domain.SubjectEnglish},
	"D06": {domain.SubjectMath, domain.SubjectLiterature, domain.SubjectJapanese},
	"D07": {domain.SubjectMath, domain.SubjectChemistry, domain.SubjectEnglish},
}

// subjectAliases are matched after lower-casing and removing diacritics.
var subjectAliases = map[string]domain.Subject{
	"toan": domain.SubjectMath, "math": domain.SubjectMath, "maths": domain.SubjectMath, "mathematics": domain.SubjectMath,
	"ly": domain.SubjectPhysics, "li": domain.SubjectPhysics, "vat ly": domain.SubjectPhysics, "vat li": domain.SubjectPhysics, "physics": domain.SubjectPhysics,
	"hoa": domain.SubjectChemistry, "hoa hoc": domain.SubjectChemistry, "chemistry": domain.SubjectChemistry,
	"anh": domain.SubjectEnglish, "tieng anh": domain.SubjectEnglish, "anh van": domain.SubjectEnglish, "english": domain.SubjectEnglish,
	"van": domain.SubjectLiterature, "ngu van": domain.SubjectLiterature, "literature": domain.SubjectLiterature,
	"nhat": domain.SubjectJapanese, "tieng nhat": domain.SubjectJapanese, "japanese": domain.SubjectJapanese,
	"sinh": domain.SubjectBiology, "sinh hoc": domain.SubjectBiology, "biology": domain.SubjectBiology,
	"su": domain.SubjectHistory, "lich su": domain.SubjectHistory, "history": domain.SubjectHistory,
	"dia": domain.SubjectGeography, "dia ly": domain.SubjectGeography, "dia li": domain.SubjectGeography, "geography": domain.SubjectGeography,
}

// ResolveSubject maps a free-form subject name to its canonical form.
func ResolveSubject(name string) (domain.Subject, error) {
	key := strings.ToLower(textnorm.RemoveDiacritics(strings.TrimSpace(name)))
	key = strings.Join(strings.Fields(strings.TrimPrefix(key, "mon ")), " ")
	if s, ok := subjectAliases[key]; ok {
		return s, nil
	}
	return "", domain.NewDomainErrorWithCause(domain.ErrCodeInvalidCombination, domain.ErrUnknownSubject.Message, fmt.Errorf("%q", name))
}

// SubjectSum is the result of sum_subjects.
type SubjectSum struct {
	Total       float64 `json:"total"`
	Combination string  `json:"combination"`
}

// SumSubjects validates three subjects against the known combinations
// and adds their scores. Order and spelling of subjects do not matter.
func SumSubjects(subjects []string, scores []float64) (SubjectSum, error) {
	if len(subjects) != 3 || len(scores) != 3 {
		return SubjectSum{}, domain.ErrSubjectCountMismatch
	}

	resolved := make([]domain.Subject, 3)
	total := 0.0
	for i, name := range subjects {
		s, err := ResolveSubject(name)
		if err != nil {
			return SubjectSum{}, err
		}
		if scores[i] < 0 || scores[i] > 10 || math.IsNaN(scores[i]) {
			return SubjectSum{}, domain.ErrScoreOutOfRange
		}
		resolved[i] = s
		total += scores[i]
	}

	code, ok := matchCombination(resolved)
	if !ok {
		return SubjectSum{}, domain.ErrInvalidCombination
	}
	return SubjectSum{Total: math.Round(total*100) / 100, Combination: code}, nil
}

func matchCombination(subjects []domain.Subject) (string, bool) {
	key := sortedSubjects(subjects)
	for code, combo := range Combinations {
		if sortedSubjects(combo[:]) == key {
			return code, true
		}
	}
	return "", false
}

func sortedSubjects(subjects []domain.Subject) string {
	names := make([]string, len(subjects))
	for i, s := range subjects {
		names[i] = string(s)
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}
