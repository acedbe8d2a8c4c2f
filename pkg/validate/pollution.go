package validate

import (
	"strings"

	domain "github.com/vindexhq/vindex/pkg/types"
)

// DefaultPollutionPhrases returns the boilerplate/advertising signals that
// mark a scraped description as navigation chrome rather than listing text.
func DefaultPollutionPhrases() []string {
	return []string{
		"click here",
		"sign up",
		"sign in",
		"advertisement",
		"sponsored",
		"cookie",
		"privacy policy",
		"terms of service",
		"subscribe",
		"newsletter",
		"all rights reserved",
	}
}

// Description scans a free-text description for pollution signals and
// assigns confidence accordingly: clean long text scores 0.85, one or two
// hits degrade to 0.6, more than two hits fail the field outright.
func (v *Validator) Description(raw string) domain.ExtractedField {
	f := domain.ExtractedField{Name: domain.FieldDescription, Raw: strings.TrimSpace(raw)}

	if f.Raw == "" {
		f.Status = domain.StatusNotFound
		return f
	}

	if len(f.Raw) <= v.cfg.MinDescription {
		f.Status = domain.StatusLowConfidence
		f.Confidence = 0.3
		return f
	}

	hits := v.PollutionCount(f.Raw)
	switch {
	case hits == 0:
		f.Status = domain.StatusExtracted
		f.Confidence = 0.85
	case hits <= 2:
		f.Status = domain.StatusLowConfidence
		f.ErrorCode = domain.ErrCodePossiblePolluted
		f.Confidence = 0.6
	default:
		f.Status = domain.StatusValidationFail
		f.ErrorCode = domain.ErrCodeHighPollution
		f.Confidence = 0.3
	}

	return f
}

// PollutionCount returns how many configured pollution phrases occur in the
// text, matched case-insensitively. Each phrase counts at most once.
func (v *Validator) PollutionCount(text string) int {
	lower := strings.ToLower(text)
	count := 0
	for _, phrase := range v.cfg.PollutionPhrases {
		if strings.Contains(lower, phrase) {
			count++
		}
	}
	return count
}
