// Package match resolves scored extractions to canonical vehicle records.
// Identity signals are consulted in strict precedence order: VIN first,
// then a uniquely-resolving (year, make, model) triple, then record
// creation, then rejection. Ambiguity is never auto-resolved by picking an
// arbitrary candidate.
package match

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	domain "github.com/vindexhq/vindex/pkg/types"
	"github.com/vindexhq/vindex/pkg/validate"
)

// Store is the narrow persistence surface the matcher depends on. Lookup
// methods return nil (or an empty slice) when nothing matches; errors are
// reserved for infrastructure failures. CreateVehicle must enforce VIN
// uniqueness so concurrent creations for the same vehicle collapse to one
// record.
type Store interface {
	FindVehicleByVIN(ctx context.Context, vin string) (*domain.Vehicle, error)
	FindVehiclesByYMM(ctx context.Context, year int, mk, model string) ([]domain.Vehicle, error)
	CreateVehicle(ctx context.Context, v *domain.Vehicle) error
}

// Warning strings surfaced to callers on non-exact outcomes.
const (
	WarnMatchedByYMM  = "matched by year/make/model only — verify"
	WarnAmbiguousYMM  = "multiple records share year/make/model; not auto-resolving"
	WarnCannotResolve = "cannot identify vehicle without VIN or year/make/model"
)

// Result is the terminal outcome of one matching pass.
type Result struct {
	Outcome  domain.MatchOutcome
	Vehicle  *domain.Vehicle
	Warnings []string
	// Preview holds the record a dry run would have created.
	Preview *domain.Vehicle
}

// Matcher resolves extractions against a Store.
type Matcher struct {
	store Store
	log   *slog.Logger
}

// Option configures the Matcher.
type Option func(*Matcher)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Matcher) {
		m.log = l
	}
}

// New creates a Matcher.
func New(store Store, opts ...Option) *Matcher {
	m := &Matcher{store: store, log: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Resolve attaches the extraction to an existing vehicle, creates a new
// one, or rejects it. When dryRun is set no writes happen; a create outcome
// carries the would-be record in Preview instead.
func (m *Matcher) Resolve(ctx context.Context, ext *domain.Extraction, dryRun bool) (*Result, error) {
	// Outcome 1: exact VIN match. A VIN match always wins and is never
	// overridden by a conflicting year/make/model.
	vin := ext.FieldValue(domain.FieldVIN)
	if vin != "" {
		existing, err := m.store.FindVehicleByVIN(ctx, vin)
		if err != nil {
			return nil, fmt.Errorf("looking up vin %s: %w", vin, err)
		}
		if existing != nil {
			m.log.Debug("matched by vin", "vin", vin, "vehicle_id", existing.ID)
			return &Result{Outcome: domain.MatchedByVIN, Vehicle: existing}, nil
		}
	}

	// Outcome 2: heuristic year/make/model match, accepted only when the
	// triple resolves to exactly one candidate.
	year := extYear(ext)
	mk := ext.FieldValue(domain.FieldMake)
	model := ext.FieldValue(domain.FieldModel)

	var warnings []string
	if vin == "" && year > 0 && mk != "" && model != "" {
		candidates, err := m.store.FindVehiclesByYMM(ctx, year, mk, model)
		if err != nil {
			return nil, fmt.Errorf("looking up %d %s %s: %w", year, mk, model, err)
		}
		switch len(candidates) {
		case 1:
			m.log.Debug("matched by ymm",
				"year", year, "make", mk, "model", model,
				"vehicle_id", candidates[0].ID,
			)
			return &Result{
				Outcome:  domain.MatchedByYMM,
				Vehicle:  &candidates[0],
				Warnings: []string{WarnMatchedByYMM},
			}, nil
		case 0:
			// Fall through to creation.
		default:
			warnings = append(warnings, WarnAmbiguousYMM)
		}
	}

	// Outcome 3: create a new record when minimum identity is present.
	if year > 0 && mk != "" {
		seed := vehicleFromExtraction(ext, vin, year, mk, model)
		if dryRun {
			return &Result{
				Outcome:  domain.CreatedNew,
				Preview:  seed,
				Warnings: warnings,
			}, nil
		}
		if err := m.store.CreateVehicle(ctx, seed); err != nil {
			return nil, fmt.Errorf("creating vehicle: %w", err)
		}
		m.log.Info("created vehicle",
			"vehicle_id", seed.ID, "year", year, "make", mk, "model", model,
		)
		return &Result{Outcome: domain.CreatedNew, Vehicle: seed, Warnings: warnings}, nil
	}

	// Outcome 4: reject.
	warnings = append(warnings, WarnCannotResolve)
	res := &Result{Outcome: domain.Rejected, Warnings: warnings}
	if dryRun {
		res.Preview = vehicleFromExtraction(ext, vin, year, mk, model)
	}
	return res, nil
}

func extYear(ext *domain.Extraction) int {
	raw := ext.FieldValue(domain.FieldYear)
	if raw == "" {
		return 0
	}
	year, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return year
}

// vehicleFromExtraction seeds a canonical record from the extraction's
// successfully validated fields only.
func vehicleFromExtraction(ext *domain.Extraction, vin string, year int, mk, model string) *domain.Vehicle {
	v := &domain.Vehicle{
		VIN:          vin,
		Year:         year,
		Make:         mk,
		Model:        model,
		Trim:         ext.FieldValue(domain.FieldTrim),
		Engine:       ext.FieldValue(domain.FieldEngine),
		Transmission: ext.FieldValue(domain.FieldTransmission),
		Color:        ext.FieldValue(domain.FieldColor),
		Description:  ext.FieldValue(domain.FieldDescription),
		SourceURL:    ext.SourceURL,
	}

	if raw := ext.FieldValue(domain.FieldPrice); raw != "" {
		if p, ok := validate.ParsePrice(raw); ok {
			v.Price = &p
		}
	}
	if raw := ext.FieldValue(domain.FieldMileage); raw != "" {
		if miles, ok := validate.ParseMileage(raw); ok {
			v.Mileage = &miles
		}
	}

	return v
}
