// Package domain defines the core business types for vindex.
package domain

import (
	"encoding/json"
	"time"
)

// FieldName identifies a recognized vehicle attribute.
type FieldName string

// Recognized field identifiers.
const (
	FieldVIN          FieldName = "vin"
	FieldYear         FieldName = "year"
	FieldMake         FieldName = "make"
	FieldModel        FieldName = "model"
	FieldTrim         FieldName = "trim"
	FieldPrice        FieldName = "price"
	FieldMileage      FieldName = "mileage"
	FieldEngine       FieldName = "engine"
	FieldTransmission FieldName = "transmission"
	FieldColor        FieldName = "color"
	FieldDescription  FieldName = "description"
	FieldImages       FieldName = "images"

	// FieldIdentity is the composite year+make+model pseudo-field used by
	// the cross-source comparator.
	FieldIdentity FieldName = "identity"
)

// FieldStatus is the verdict a validator assigns to a single field.
type FieldStatus string

// Field status constants.
const (
	StatusExtracted      FieldStatus = "extracted"
	StatusNotFound       FieldStatus = "not_found"
	StatusParseError     FieldStatus = "parse_error"
	StatusValidationFail FieldStatus = "validation_fail"
	StatusLowConfidence  FieldStatus = "low_confidence"
)

// ErrorCode is a machine-readable reason attached to a failed field.
type ErrorCode string

// Error code constants.
const (
	ErrCodeVINMissing       ErrorCode = "VIN_MISSING"
	ErrCodeInvalidVINLength ErrorCode = "INVALID_VIN_LENGTH"
	ErrCodeInvalidVINChars  ErrorCode = "INVALID_VIN_CHARS"
	ErrCodeVINAllSameChar   ErrorCode = "VIN_ALL_SAME_CHAR"
	ErrCodeInvalidYearRange ErrorCode = "INVALID_YEAR_RANGE"
	ErrCodeInvalidLength    ErrorCode = "INVALID_LENGTH"
	ErrCodeSuspiciouslyLow  ErrorCode = "SUSPICIOUSLY_LOW"
	ErrCodeSuspiciouslyHigh ErrorCode = "SUSPICIOUSLY_HIGH"
	ErrCodeTooCheapForAge   ErrorCode = "TOO_CHEAP_FOR_AGE"
	ErrCodePossiblePolluted ErrorCode = "POSSIBLE_POLLUTION"
	ErrCodeHighPollution    ErrorCode = "HIGH_POLLUTION"
	ErrCodeUnparseable      ErrorCode = "UNPARSEABLE"
)

// ExtractedField is the validated result for a single attribute.
// Every field has exactly one status and a confidence consistent with it;
// not_found always carries confidence 0.
type ExtractedField struct {
	Name       FieldName   `json:"name"`
	Raw        string      `json:"raw_value,omitempty"`
	Status     FieldStatus `json:"status"`
	Confidence float64     `json:"confidence"`
	ErrorCode  ErrorCode   `json:"error_code,omitempty"`
}

// Extraction is one scored scrape/LLM pass over one source listing.
// Immutable once scored: OverallConfidence is always within [0.1, 1.0].
type Extraction struct {
	SourceURL    string `json:"source_url"`
	SourceDomain string `json:"source_domain"`
	// ObservedAt is the date the source content was captured, which for
	// archived snapshots is historical, not ingestion time.
	ObservedAt time.Time `json:"observed_at"`

	Fields            []ExtractedField   `json:"fields"`
	OverallConfidence float64            `json:"overall_confidence"`
	Factors           []ConfidenceFactor `json:"confidence_factors"`
}

// Field returns the extracted field with the given name, or nil.
func (e *Extraction) Field(name FieldName) *ExtractedField {
	for i := range e.Fields {
		if e.Fields[i].Name == name {
			return &e.Fields[i]
		}
	}
	return nil
}

// FieldValue returns the raw value of a field only when its status is
// extracted; otherwise the empty string.
func (e *Extraction) FieldValue(name FieldName) string {
	f := e.Field(name)
	if f == nil || f.Status != StatusExtracted {
		return ""
	}
	return f.Raw
}

// ConfidenceFactor is one named contribution to the overall confidence score.
type ConfidenceFactor struct {
	Name   string  `json:"name"`
	Reason string  `json:"reason"`
	Delta  float64 `json:"delta"`
}

// ConfidenceLevel buckets a confidence score into a human-facing label.
type ConfidenceLevel string

// Confidence level constants.
const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// LevelForScore maps a confidence score to its bucketed label:
// high >= 0.7, medium >= 0.5, low otherwise.
func LevelForScore(score float64) ConfidenceLevel {
	switch {
	case score >= 0.7:
		return ConfidenceHigh
	case score >= 0.5:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Vehicle is the canonical record a listing resolves to. VIN is globally
// unique when present; (year, make, model) is a non-unique last-resort key.
type Vehicle struct {
	ID   string `json:"id"            db:"id"`
	VIN  string `json:"vin,omitempty" db:"vin"`
	Year int    `json:"year"          db:"year"`

	Make         string `json:"make"                   db:"make"`
	Model        string `json:"model"                  db:"model"`
	Trim         string `json:"trim,omitempty"         db:"trim"`
	Engine       string `json:"engine,omitempty"       db:"engine"`
	Transmission string `json:"transmission,omitempty" db:"transmission"`
	Color        string `json:"color,omitempty"        db:"color"`

	Price      *float64 `json:"price,omitempty"   db:"price"`
	Mileage    *int     `json:"mileage,omitempty" db:"mileage"`
	ImageCount int      `json:"image_count"       db:"image_count"`

	Description string `json:"description,omitempty" db:"description"`

	SourceURL string    `json:"source_url,omitempty" db:"source_url"`
	CreatedAt time.Time `json:"created_at"           db:"created_at"`
	UpdatedAt time.Time `json:"updated_at"           db:"updated_at"`
}

// Observation is an immutable link between a vehicle and one scored
// extraction. Corrections happen by appending a new Observation, never by
// editing an old one.
type Observation struct {
	ID              string          `json:"id"               db:"id"`
	VehicleID       string          `json:"vehicle_id"       db:"vehicle_id"`
	SourceURL       string          `json:"source_url"       db:"source_url"`
	ObservedAt      time.Time       `json:"observed_at"      db:"observed_at"`
	Extraction      Extraction      `json:"extraction"       db:"extraction"`
	ConfidenceScore float64         `json:"confidence_score" db:"confidence_score"`
	ConfidenceLevel ConfidenceLevel `json:"confidence_level" db:"confidence_level"`
	CreatedAt       time.Time       `json:"created_at"       db:"created_at"`
}

// TimelineEvent is a derived calendar entry on a vehicle's history.
type TimelineEvent struct {
	ID         string    `json:"id"                   db:"id"`
	VehicleID  string    `json:"vehicle_id"           db:"vehicle_id"`
	Kind       string    `json:"kind"                 db:"kind"` // listing_observed, auction_end, sale
	OccurredAt time.Time `json:"occurred_at"          db:"occurred_at"`
	SourceURL  string    `json:"source_url,omitempty" db:"source_url"`
	Detail     string    `json:"detail,omitempty"     db:"detail"`
	CreatedAt  time.Time `json:"created_at"           db:"created_at"`
}

// MatchOutcome is the terminal state of a record-matching pass.
type MatchOutcome string

// Match outcome constants.
const (
	MatchedByVIN MatchOutcome = "matched_vin"
	MatchedByYMM MatchOutcome = "matched_ymm"
	CreatedNew   MatchOutcome = "created"
	Rejected     MatchOutcome = "rejected"
)

// FieldVerdict is the per-field result of a cross-source comparison.
type FieldVerdict string

// Field verdict constants. Indeterminate fields (one side missing) are
// excluded from the accuracy denominator. Partial fields carry a 0-1
// similarity ratio instead of a pass/fail outcome.
const (
	VerdictMatch         FieldVerdict = "match"
	VerdictMismatch      FieldVerdict = "mismatch"
	VerdictPartial       FieldVerdict = "partial"
	VerdictIndeterminate FieldVerdict = "indeterminate"
)

// FieldComparison is one field's contribution to a DiscrepancyReport.
type FieldComparison struct {
	Field    FieldName    `json:"field"`
	Verdict  FieldVerdict `json:"verdict"`
	A        string       `json:"a,omitempty"`
	B        string       `json:"b,omitempty"`
	Critical bool         `json:"critical,omitempty"`
	// Similarity holds the 0-1 ratio for fields scored on a gradient
	// (description) rather than pass/fail.
	Similarity *float64 `json:"similarity,omitempty"`
}

// DiscrepancyReport is the output of the cross-source comparator.
type DiscrepancyReport struct {
	Comparisons     []FieldComparison `json:"comparisons"`
	Matched         int               `json:"matched_fields"`
	Mismatched      int               `json:"mismatched_fields"`
	Indeterminate   int               `json:"indeterminate_fields"`
	OverallAccuracy float64           `json:"overall_accuracy"`
	Discrepancies   []string          `json:"discrepancies,omitempty"`
	// FetchFailed marks a report produced when side B could not be
	// obtained at all. Accuracy is forced to 0 and a CRITICAL discrepancy
	// string distinguishes it from a genuinely 0%-accurate comparison.
	FetchFailed bool `json:"fetch_failed,omitempty"`
}

// AuditReport is a persisted DiscrepancyReport for one vehicle.
type AuditReport struct {
	ID        string            `json:"id"         db:"id"`
	VehicleID string            `json:"vehicle_id" db:"vehicle_id"`
	SourceURL string            `json:"source_url" db:"source_url"`
	Report    DiscrepancyReport `json:"report"     db:"report"`
	Accuracy  float64           `json:"accuracy"   db:"accuracy"`
	Critical  bool              `json:"critical"   db:"critical"`
	CreatedAt time.Time         `json:"created_at" db:"created_at"`
}

// ReviewItem parks a low-confidence or unresolvable extraction for manual
// review instead of silently dropping it.
type ReviewItem struct {
	ID         string     `json:"id"                    db:"id"`
	SourceURL  string     `json:"source_url"            db:"source_url"`
	Reason     string     `json:"reason"                db:"reason"`
	Extraction Extraction `json:"extraction"            db:"extraction"`
	Resolved   bool       `json:"resolved"              db:"resolved"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty" db:"resolved_at"`
	CreatedAt  time.Time  `json:"created_at"            db:"created_at"`
}

// JobRun records a single execution of a scheduled job.
type JobRun struct {
	ID           string     `json:"id"                      db:"id"`
	JobName      string     `json:"job_name"                db:"job_name"`
	StartedAt    time.Time  `json:"started_at"              db:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"  db:"completed_at"`
	Status       string     `json:"status"                  db:"status"`
	ErrorText    string     `json:"error_text,omitempty"    db:"error_text"`
	RowsAffected *int       `json:"rows_affected,omitempty" db:"rows_affected"`
}

// SystemState holds a precomputed snapshot of aggregate pipeline metrics.
type SystemState struct {
	VehiclesTotal       int `json:"vehicles_total"        db:"vehicles_total"`
	VehiclesWithVIN     int `json:"vehicles_with_vin"     db:"vehicles_with_vin"`
	ObservationsTotal   int `json:"observations_total"    db:"observations_total"`
	ReviewQueueDepth    int `json:"review_queue_depth"    db:"review_queue_depth"`
	AuditReportsTotal   int `json:"audit_reports_total"   db:"audit_reports_total"`
	CriticalAuditsTotal int `json:"critical_audits_total" db:"critical_audits_total"`
	TimelineEventsTotal int `json:"timeline_events_total" db:"timeline_events_total"`
}

// MarshalExtraction serializes an extraction for storage in a JSONB column.
func MarshalExtraction(e *Extraction) (json.RawMessage, error) {
	return json.Marshal(e)
}
