package classifier

import "unicode/utf8"

// DefaultDomainMinChars is the length at or below which text is assumed
// in-domain; short fragments carry too little signal for the model.
const DefaultDomainMinChars = 30

// DomainClassifier separates admissions questions from everything else.
type DomainClassifier struct {
	model    *LinearModel
	minChars int
}

// NewDomainClassifier wraps a linear model.
func NewDomainClassifier(model *LinearModel, minChars int) *DomainClassifier {
	if minChars <= 0 {
		minChars = DefaultDomainMinChars
	}
	return &DomainClassifier{model: model, minChars: minChars}
}

// IsInDomain reports whether text is about admissions.
func (c *DomainClassifier) IsInDomain(text string) bool {
	if utf8.RuneCountInString(text) <= c.minChars {
		return true
	}
	return c.model.Decision(text) > 0
}
