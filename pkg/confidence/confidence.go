// Package confidence combines per-field validation results into one overall
// extraction confidence score using a fixed weighted-factor model. The score
// starts from a source-dependent base trust value and accumulates signed
// deltas per field category, then clamps to [Floor, Ceiling]. The per-factor
// breakdown is always returned alongside the score so a reviewer can see
// exactly how it was produced.
package confidence

import (
	domain "github.com/vindexhq/vindex/pkg/types"
)

// Score bounds. The floor keeps even a garbage extraction above zero so it
// stays reviewable instead of being silently dropped.
const (
	Floor   = 0.1
	Ceiling = 1.0
)

// DefaultBaseTrust is the starting trust for a source with no profile.
const DefaultBaseTrust = 0.7

// Per-category deltas.
const (
	deltaVINValid   = 0.15
	deltaVINInvalid = -0.10
	deltaVINAbsent  = -0.30

	deltaIdentityValid   = 0.05
	deltaIdentityInvalid = -0.15
	deltaIdentityAbsent  = -0.10

	deltaPriceRealistic   = 0.05
	deltaPriceUnrealistic = -0.05
	deltaPriceAbsent      = -0.10

	deltaImagesMax    = 0.10
	deltaImagesAbsent = -0.05

	deltaDescriptionClean    = 0.05
	deltaDescriptionPolluted = -0.10
	deltaDescriptionWeak     = -0.05
)

// Aggregate computes the overall confidence for a validated field set.
// base is the source trust value (see internal/scrape for per-domain
// profiles). The returned factors always include the base contribution
// first, then one entry per scoring field category.
func Aggregate(base float64, fields []domain.ExtractedField) (float64, []domain.ConfidenceFactor) {
	factors := []domain.ConfidenceFactor{
		{Name: "base", Reason: "source trust", Delta: base},
	}

	for _, f := range fields {
		if factor, ok := fieldFactor(f); ok {
			factors = append(factors, factor)
		}
	}

	score := 0.0
	for _, f := range factors {
		score += f.Delta
	}

	return clamp(score), factors
}

func fieldFactor(f domain.ExtractedField) (domain.ConfidenceFactor, bool) {
	switch f.Name {
	case domain.FieldVIN:
		return vinFactor(f), true
	case domain.FieldYear, domain.FieldMake, domain.FieldModel:
		return identityFactor(f), true
	case domain.FieldPrice:
		return priceFactor(f), true
	case domain.FieldImages:
		return imagesFactor(f), true
	case domain.FieldDescription:
		return descriptionFactor(f), true
	default:
		// Secondary attributes (trim, engine, color, ...) inform
		// comparison, not extraction trust.
		return domain.ConfidenceFactor{}, false
	}
}

func vinFactor(f domain.ExtractedField) domain.ConfidenceFactor {
	c := domain.ConfidenceFactor{Name: string(f.Name)}
	switch f.Status {
	case domain.StatusExtracted:
		c.Reason, c.Delta = "valid", deltaVINValid
	case domain.StatusNotFound:
		c.Reason, c.Delta = "absent", deltaVINAbsent
	default:
		c.Reason, c.Delta = "invalid", deltaVINInvalid
	}
	return c
}

func identityFactor(f domain.ExtractedField) domain.ConfidenceFactor {
	c := domain.ConfidenceFactor{Name: string(f.Name)}
	switch f.Status {
	case domain.StatusExtracted:
		c.Reason, c.Delta = "valid", deltaIdentityValid
	case domain.StatusNotFound:
		c.Reason, c.Delta = "absent", deltaIdentityAbsent
	default:
		c.Reason, c.Delta = "invalid", deltaIdentityInvalid
	}
	return c
}

func priceFactor(f domain.ExtractedField) domain.ConfidenceFactor {
	c := domain.ConfidenceFactor{Name: string(f.Name)}
	switch f.Status {
	case domain.StatusExtracted:
		c.Reason, c.Delta = "realistic", deltaPriceRealistic
	case domain.StatusNotFound:
		c.Reason, c.Delta = "absent", deltaPriceAbsent
	default:
		c.Reason, c.Delta = "unrealistic", deltaPriceUnrealistic
	}
	return c
}

// imagesFactor scales the bonus with the field's own count-derived
// confidence, topping out at deltaImagesMax once the gallery is large.
func imagesFactor(f domain.ExtractedField) domain.ConfidenceFactor {
	c := domain.ConfidenceFactor{Name: string(f.Name)}
	if f.Status != domain.StatusExtracted {
		c.Reason, c.Delta = "absent", deltaImagesAbsent
		return c
	}

	c.Reason = "present"
	c.Delta = f.Confidence / 0.9 * deltaImagesMax
	if c.Delta > deltaImagesMax {
		c.Delta = deltaImagesMax
	}
	return c
}

func descriptionFactor(f domain.ExtractedField) domain.ConfidenceFactor {
	c := domain.ConfidenceFactor{Name: string(f.Name)}
	switch {
	case f.Status == domain.StatusExtracted:
		c.Reason, c.Delta = "clean", deltaDescriptionClean
	case f.ErrorCode == domain.ErrCodePossiblePolluted || f.ErrorCode == domain.ErrCodeHighPollution:
		c.Reason, c.Delta = "polluted", deltaDescriptionPolluted
	case f.Status == domain.StatusNotFound:
		c.Reason, c.Delta = "absent", deltaDescriptionWeak
	default:
		c.Reason, c.Delta = "weak", deltaDescriptionWeak
	}
	return c
}

func clamp(score float64) float64 {
	if score < Floor {
		return Floor
	}
	if score > Ceiling {
		return Ceiling
	}
	return score
}
