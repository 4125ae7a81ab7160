package router

import (
	"regexp"
	"strconv"
	"strings"
)

// Direction selects the in-domain answering branch.
type Direction string

const (
	DirectionRetrieval Direction = "retrieval"
	DirectionReasoning Direction = "reasoning"
)

var (
	combinationPattern = regexp.MustCompile(`(?i)\b(a00|a01|d01|d06|d07)\b`)
	numberPattern      = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
)

// IsScoreQuestion reports whether text names a subject combination code
// together with a plausible score. Such questions always need the
// reasoning agent.
func IsScoreQuestion(text string) bool {
	if !combinationPattern.MatchString(text) {
		return false
	}
	rest := combinationPattern.ReplaceAllString(text, " ")
	for _, m := range numberPattern.FindAllString(rest, -1) {
		v, err := strconv.ParseFloat(strings.Replace(m, ",", ".", 1), 64)
		if err != nil {
			continue
		}
		// National exam totals and subject scores, or competency scores.
		// Years fall outside both ranges.
		if v <= 30 || (v >= 100 && v <= 1200) {
			return true
		}
	}
	return false
}
