// Package validate implements per-field validation for scraped vehicle
// listing data. Every validator is a total function: any input, including
// empty or garbage values, produces a well-formed ExtractedField. Validators
// never panic and never perform I/O.
package validate

import (
	"strings"

	domain "github.com/vindexhq/vindex/pkg/types"
)

// Config holds the immutable rule tables the validators run against.
// It is fixed at construction time so validators stay pure and
// independently testable.
type Config struct {
	MinYear int

	MakeMinLen  int
	MakeMaxLen  int
	ModelMinLen int
	ModelMaxLen int

	// Price realism bounds. Ages are measured in years relative to the
	// observation era, never wall-clock time.
	PriceFloor       float64
	PriceCeiling     float64
	CheapPriceCutoff float64
	ClassicAgeYears  int
	NewAgeYears      int

	// Description pollution signals, matched case-insensitively.
	PollutionPhrases []string
	MinDescription   int
}

// DefaultConfig returns the canonical validation rule set.
func DefaultConfig() Config {
	return Config{
		MinYear:          1900,
		MakeMinLen:       2,
		MakeMaxLen:       49,
		ModelMinLen:      1,
		ModelMaxLen:      99,
		PriceFloor:       100,
		PriceCeiling:     10_000_000,
		CheapPriceCutoff: 5000,
		ClassicAgeYears:  20,
		NewAgeYears:      3,
		PollutionPhrases: DefaultPollutionPhrases(),
		MinDescription:   50,
	}
}

// Validator applies the configured rules to raw scraped field values.
type Validator struct {
	cfg Config
}

// New creates a Validator. A zero-value Config is replaced with defaults.
func New(cfg Config) *Validator {
	if cfg.MinYear == 0 {
		cfg = DefaultConfig()
	}
	return &Validator{cfg: cfg}
}

// Confidence values assigned by the validators. Scores are meaningful only
// relative to other fields of the same extraction.
const (
	confValidVIN    = 0.95
	confFailedVIN   = 0.3
	confValidYear   = 0.9
	confBadYear     = 0.3
	confValidName   = 0.85
	confBadName     = 0.3
	confValidText   = 0.75
	confValidNumber = 0.8
)

// vinAlphabet excludes I, O, and Q, which are never used in a VIN.
const vinAlphabet = "ABCDEFGHJKLMNPRSTUVWXYZ0123456789"

// VIN validates a vehicle identification number.
func (v *Validator) VIN(raw string) domain.ExtractedField {
	f := domain.ExtractedField{Name: domain.FieldVIN, Raw: strings.TrimSpace(raw)}

	if f.Raw == "" {
		f.Status = domain.StatusNotFound
		f.ErrorCode = domain.ErrCodeVINMissing
		return f
	}

	vin := strings.ToUpper(f.Raw)
	f.Raw = vin

	if len(vin) != 17 {
		f.Status = domain.StatusValidationFail
		f.ErrorCode = domain.ErrCodeInvalidVINLength
		f.Confidence = confFailedVIN
		return f
	}

	for _, r := range vin {
		if !strings.ContainsRune(vinAlphabet, r) {
			f.Status = domain.StatusValidationFail
			f.ErrorCode = domain.ErrCodeInvalidVINChars
			f.Confidence = confFailedVIN
			return f
		}
	}

	// A run of 17 identical characters is a common scrape artifact
	// (placeholder text or a repeated table cell), never a real VIN.
	if strings.Count(vin, vin[:1]) == len(vin) {
		f.Status = domain.StatusValidationFail
		f.ErrorCode = domain.ErrCodeVINAllSameChar
		f.Confidence = confFailedVIN
		return f
	}

	f.Status = domain.StatusExtracted
	f.Confidence = confValidVIN
	return f
}

// Year validates a model year against the observation era. Valid range is
// MinYear through era+1 (next model year listings are legitimate).
func (v *Validator) Year(raw string, era int) domain.ExtractedField {
	f := domain.ExtractedField{Name: domain.FieldYear, Raw: strings.TrimSpace(raw)}

	if f.Raw == "" {
		f.Status = domain.StatusNotFound
		return f
	}

	year, ok := parseInt(f.Raw)
	if !ok {
		f.Status = domain.StatusParseError
		f.ErrorCode = domain.ErrCodeUnparseable
		return f
	}

	if year < v.cfg.MinYear || year > era+1 {
		f.Status = domain.StatusValidationFail
		f.ErrorCode = domain.ErrCodeInvalidYearRange
		f.Confidence = confBadYear
		return f
	}

	f.Status = domain.StatusExtracted
	f.Confidence = confValidYear
	return f
}

// Make validates a manufacturer name.
func (v *Validator) Make(raw string) domain.ExtractedField {
	return v.boundedName(domain.FieldMake, raw, v.cfg.MakeMinLen, v.cfg.MakeMaxLen)
}

// Model validates a model name.
func (v *Validator) Model(raw string) domain.ExtractedField {
	return v.boundedName(domain.FieldModel, raw, v.cfg.ModelMinLen, v.cfg.ModelMaxLen)
}

func (v *Validator) boundedName(name domain.FieldName, raw string, minLen, maxLen int) domain.ExtractedField {
	f := domain.ExtractedField{Name: name, Raw: strings.TrimSpace(raw)}

	if f.Raw == "" {
		f.Status = domain.StatusNotFound
		return f
	}

	if len(f.Raw) < minLen || len(f.Raw) > maxLen {
		f.Status = domain.StatusValidationFail
		f.ErrorCode = domain.ErrCodeInvalidLength
		f.Confidence = confBadName
		return f
	}

	f.Status = domain.StatusExtracted
	f.Confidence = confValidName
	return f
}

// Price validates listing price realism. vehicleYear may be 0 when unknown.
// era is the year the listing was observed — an explicit parameter so that
// archived snapshots from past years are judged against their own era.
func (v *Validator) Price(raw string, vehicleYear, era int) domain.ExtractedField {
	f := domain.ExtractedField{Name: domain.FieldPrice, Raw: strings.TrimSpace(raw)}

	if f.Raw == "" {
		f.Status = domain.StatusNotFound
		return f
	}

	price, ok := ParsePrice(f.Raw)
	if !ok {
		f.Status = domain.StatusParseError
		f.ErrorCode = domain.ErrCodeUnparseable
		return f
	}

	age := -1
	if vehicleYear > 0 && era >= vehicleYear {
		age = era - vehicleYear
	}

	switch {
	case price <= 0:
		f.Status = domain.StatusValidationFail
		f.ErrorCode = domain.ErrCodeSuspiciouslyLow

	// Classic cars were legitimately cheap in certain eras; a low price on
	// an old vehicle is a signal of a period-correct listing, not garbage.
	// This exception outranks the absolute floor.
	case age >= v.cfg.ClassicAgeYears && price < v.cfg.CheapPriceCutoff:
		f.Status = domain.StatusExtracted
		f.Confidence = 1.0

	case price < v.cfg.PriceFloor:
		f.Status = domain.StatusLowConfidence
		f.ErrorCode = domain.ErrCodeSuspiciouslyLow
		f.Confidence = 0.3

	case price > v.cfg.PriceCeiling:
		f.Status = domain.StatusLowConfidence
		f.ErrorCode = domain.ErrCodeSuspiciouslyHigh
		f.Confidence = 0.3

	case age >= 0 && age <= v.cfg.NewAgeYears && price < v.cfg.CheapPriceCutoff:
		f.Status = domain.StatusLowConfidence
		f.ErrorCode = domain.ErrCodeTooCheapForAge
		f.Confidence = 0.5

	default:
		f.Status = domain.StatusExtracted
		f.Confidence = 0.9
	}

	return f
}

// Mileage validates an odometer reading.
func (v *Validator) Mileage(raw string) domain.ExtractedField {
	f := domain.ExtractedField{Name: domain.FieldMileage, Raw: strings.TrimSpace(raw)}

	if f.Raw == "" {
		f.Status = domain.StatusNotFound
		return f
	}

	miles, ok := ParseMileage(f.Raw)
	if !ok {
		f.Status = domain.StatusParseError
		f.ErrorCode = domain.ErrCodeUnparseable
		return f
	}

	if miles < 0 {
		f.Status = domain.StatusValidationFail
		f.ErrorCode = domain.ErrCodeSuspiciouslyLow
		f.Confidence = 0.3
		return f
	}

	f.Status = domain.StatusExtracted
	f.Confidence = confValidNumber
	return f
}

// Text validates a free-form attribute (trim, engine, transmission, color).
func (v *Validator) Text(name domain.FieldName, raw string) domain.ExtractedField {
	f := domain.ExtractedField{Name: name, Raw: strings.TrimSpace(raw)}

	if f.Raw == "" {
		f.Status = domain.StatusNotFound
		return f
	}

	f.Status = domain.StatusExtracted
	f.Confidence = confValidText
	return f
}

// Images validates an image count. Confidence scales with the number of
// images, capped at 0.9.
func (v *Validator) Images(count int) domain.ExtractedField {
	f := domain.ExtractedField{Name: domain.FieldImages}

	if count <= 0 {
		f.Status = domain.StatusNotFound
		return f
	}

	f.Status = domain.StatusExtracted
	f.Confidence = imageConfidence(count)
	return f
}

func imageConfidence(count int) float64 {
	c := 0.5 + float64(count)*0.1
	if c > 0.9 {
		return 0.9
	}
	return c
}

// Listing validates every recognized field of a raw listing. era is the
// observation year. The returned slice is ordered and contains one entry per
// recognized attribute, found or not.
func (v *Validator) Listing(raw *domain.RawListing, era int) []domain.ExtractedField {
	yearField := v.Year(raw.Year, era)
	vehicleYear := 0
	if yearField.Status == domain.StatusExtracted {
		vehicleYear, _ = parseInt(yearField.Raw)
	}

	return []domain.ExtractedField{
		v.VIN(raw.VIN),
		yearField,
		v.Make(raw.Make),
		v.Model(raw.Model),
		v.Text(domain.FieldTrim, raw.Trim),
		v.Price(raw.Price, vehicleYear, era),
		v.Mileage(raw.Mileage),
		v.Text(domain.FieldEngine, raw.Engine),
		v.Text(domain.FieldTransmission, raw.Transmission),
		v.Text(domain.FieldColor, raw.Color),
		v.Description(raw.Description),
		v.Images(len(raw.ImageURLs)),
	}
}
