// Package compare implements field-by-field comparison of two observations
// of the same logical vehicle, producing a discrepancy report with an
// overall accuracy ratio. Fields present on only one side are marked
// indeterminate and excluded from the accuracy denominator, so sparse data
// neither inflates nor deflates accuracy.
package compare

import (
	"fmt"
	"strings"

	domain "github.com/vindexhq/vindex/pkg/types"
	"github.com/vindexhq/vindex/pkg/validate"
)

// Tolerance constants. The source handlers this consolidates disagreed on
// mileage tolerance; 10% is the canonical value. Prices are expected to be
// stated precisely, hence the tighter 5%.
const (
	MileageTolerance = 0.10
	PriceTolerance   = 0.05

	// TokenOverlapThreshold is the minimum shared-token ratio for a fuzzy
	// text match.
	TokenOverlapThreshold = 0.7
)

// FieldSet is one side of a comparison: the subset of recognized fields a
// source actually provided, as raw strings. Missing keys mean the source
// did not state the field.
type FieldSet map[domain.FieldName]string

// FieldSetFromVehicle projects a canonical record onto a FieldSet.
func FieldSetFromVehicle(v *domain.Vehicle) FieldSet {
	fs := FieldSet{}
	put := func(name domain.FieldName, val string) {
		if strings.TrimSpace(val) != "" {
			fs[name] = val
		}
	}

	put(domain.FieldVIN, v.VIN)
	if v.Year > 0 {
		fs[domain.FieldYear] = fmt.Sprintf("%d", v.Year)
	}
	put(domain.FieldMake, v.Make)
	put(domain.FieldModel, v.Model)
	put(domain.FieldEngine, v.Engine)
	put(domain.FieldTransmission, v.Transmission)
	if v.Price != nil {
		fs[domain.FieldPrice] = fmt.Sprintf("%g", *v.Price)
	}
	if v.Mileage != nil {
		fs[domain.FieldMileage] = fmt.Sprintf("%d", *v.Mileage)
	}
	put(domain.FieldDescription, v.Description)
	return fs
}

// FieldSetFromRaw projects a raw listing onto a FieldSet.
func FieldSetFromRaw(raw *domain.RawListing) FieldSet {
	fs := FieldSet{}
	put := func(name domain.FieldName, val string) {
		if strings.TrimSpace(val) != "" {
			fs[name] = val
		}
	}

	put(domain.FieldVIN, raw.VIN)
	put(domain.FieldYear, raw.Year)
	put(domain.FieldMake, raw.Make)
	put(domain.FieldModel, raw.Model)
	put(domain.FieldEngine, raw.Engine)
	put(domain.FieldTransmission, raw.Transmission)
	put(domain.FieldPrice, raw.Price)
	put(domain.FieldMileage, raw.Mileage)
	put(domain.FieldDescription, raw.Description)
	return fs
}

// Compare produces a DiscrepancyReport for source-of-truth a against
// candidate b.
func Compare(a, b FieldSet) *domain.DiscrepancyReport {
	r := &domain.DiscrepancyReport{}

	compareIdentity(r, a, b)
	compareVIN(r, a, b)
	compareFuzzy(r, a, b, domain.FieldEngine)
	compareFuzzy(r, a, b, domain.FieldTransmission)
	compareTolerance(r, a, b, domain.FieldMileage, MileageTolerance)
	compareTolerance(r, a, b, domain.FieldPrice, PriceTolerance)
	compareDescription(r, a, b)

	finalize(r)
	return r
}

// FailedReport builds the report for an audit whose second side could not
// be obtained at all. Accuracy is forced to 0 with an explicit CRITICAL
// discrepancy so the failure is never mistaken for a successful comparison
// that scored 0%.
func FailedReport(reason string) *domain.DiscrepancyReport {
	return &domain.DiscrepancyReport{
		FetchFailed:     true,
		OverallAccuracy: 0,
		Discrepancies: []string{
			"CRITICAL: re-extraction failed: " + reason,
		},
	}
}

// compareIdentity treats year+make+model as one composite field: any
// sub-field mismatch marks the whole identity as mismatched and CRITICAL.
func compareIdentity(r *domain.DiscrepancyReport, a, b FieldSet) {
	sub := []domain.FieldName{domain.FieldYear, domain.FieldMake, domain.FieldModel}

	bothSided := false
	mismatched := []string{}
	for _, name := range sub {
		av, aok := a[name]
		bv, bok := b[name]
		if !aok || !bok {
			continue
		}
		bothSided = true
		if !strings.EqualFold(strings.TrimSpace(av), strings.TrimSpace(bv)) {
			mismatched = append(mismatched, fmt.Sprintf("%s %q vs %q", name, av, bv))
		}
	}

	c := domain.FieldComparison{Field: "identity"}
	switch {
	case !bothSided:
		c.Verdict = domain.VerdictIndeterminate
	case len(mismatched) > 0:
		c.Verdict = domain.VerdictMismatch
		c.Critical = true
		r.Discrepancies = append(r.Discrepancies,
			"CRITICAL: identity mismatch: "+strings.Join(mismatched, "; "))
	default:
		c.Verdict = domain.VerdictMatch
	}
	r.Comparisons = append(r.Comparisons, c)
}

func compareVIN(r *domain.DiscrepancyReport, a, b FieldSet) {
	av, aok := a[domain.FieldVIN]
	bv, bok := b[domain.FieldVIN]

	c := domain.FieldComparison{Field: domain.FieldVIN, A: av, B: bv}
	switch {
	case !aok || !bok:
		c.Verdict = domain.VerdictIndeterminate
	case strings.EqualFold(strings.TrimSpace(av), strings.TrimSpace(bv)):
		c.Verdict = domain.VerdictMatch
	default:
		c.Verdict = domain.VerdictMismatch
		r.Discrepancies = append(r.Discrepancies,
			fmt.Sprintf("vin %q vs %q", av, bv))
	}
	r.Comparisons = append(r.Comparisons, c)
}

func compareFuzzy(r *domain.DiscrepancyReport, a, b FieldSet, name domain.FieldName) {
	av, aok := a[name]
	bv, bok := b[name]

	c := domain.FieldComparison{Field: name, A: av, B: bv}
	switch {
	case !aok || !bok:
		c.Verdict = domain.VerdictIndeterminate
	case FuzzyMatch(av, bv):
		c.Verdict = domain.VerdictMatch
	default:
		c.Verdict = domain.VerdictMismatch
		r.Discrepancies = append(r.Discrepancies,
			fmt.Sprintf("%s %q vs %q", name, av, bv))
	}
	r.Comparisons = append(r.Comparisons, c)
}

func compareTolerance(r *domain.DiscrepancyReport, a, b FieldSet, name domain.FieldName, tolerance float64) {
	av, aok := parseNumeric(a, name)
	bv, bok := parseNumeric(b, name)

	c := domain.FieldComparison{Field: name, A: a[name], B: b[name]}
	switch {
	case !aok || !bok:
		c.Verdict = domain.VerdictIndeterminate
	case WithinTolerance(av, bv, tolerance):
		c.Verdict = domain.VerdictMatch
	default:
		c.Verdict = domain.VerdictMismatch
		r.Discrepancies = append(r.Discrepancies,
			fmt.Sprintf("%s %s vs %s", name, a[name], b[name]))
	}
	r.Comparisons = append(r.Comparisons, c)
}

// compareDescription reports token-overlap similarity as a 0-1 accuracy
// contribution rather than a pass/fail verdict.
func compareDescription(r *domain.DiscrepancyReport, a, b FieldSet) {
	av, aok := a[domain.FieldDescription]
	bv, bok := b[domain.FieldDescription]

	c := domain.FieldComparison{Field: domain.FieldDescription}
	if !aok || !bok {
		c.Verdict = domain.VerdictIndeterminate
		r.Comparisons = append(r.Comparisons, c)
		return
	}

	sim := TokenOverlap(av, bv)
	c.Similarity = &sim
	c.Verdict = domain.VerdictPartial
	if sim < TokenOverlapThreshold {
		r.Discrepancies = append(r.Discrepancies,
			fmt.Sprintf("description similarity %.2f", sim))
	}
	r.Comparisons = append(r.Comparisons, c)
}

// finalize tallies counts and accuracy. Pass/fail fields contribute 0 or 1
// to the numerator; partial fields contribute their similarity ratio and
// appear in neither Matched nor Mismatched.
func finalize(r *domain.DiscrepancyReport) {
	var num, den float64
	for _, c := range r.Comparisons {
		switch c.Verdict {
		case domain.VerdictMatch:
			r.Matched++
			num++
			den++
		case domain.VerdictMismatch:
			r.Mismatched++
			den++
		case domain.VerdictPartial:
			if c.Similarity != nil {
				num += *c.Similarity
				den++
			}
		case domain.VerdictIndeterminate:
			r.Indeterminate++
		}
	}

	if den == 0 {
		r.OverallAccuracy = 0
		return
	}
	r.OverallAccuracy = num / den
}

// WithinTolerance reports whether |a-b| / max(a,b) < tolerance. Two zero
// values match; a zero against a non-zero does not.
func WithinTolerance(a, b, tolerance float64) bool {
	if a == b {
		return true
	}
	maxVal := a
	if b > maxVal {
		maxVal = b
	}
	if maxVal == 0 {
		return true
	}
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff/maxVal < tolerance
}

func parseNumeric(fs FieldSet, name domain.FieldName) (float64, bool) {
	raw, ok := fs[name]
	if !ok {
		return 0, false
	}
	if name == domain.FieldMileage {
		n, ok := validate.ParseMileage(raw)
		return float64(n), ok
	}
	return validate.ParsePrice(raw)
}
