package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestVehicleQuery_ToSQL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		query         VehicleQuery
		wantCountSQL  string
		wantArgs      []any
		wantDataHas   []string // substrings that must appear in dataSQL
		wantDataNotIn []string // substrings that must NOT appear
	}{
		{
			name:  "empty query uses defaults",
			query: VehicleQuery{},
			wantDataHas: []string{
				"FROM vehicles",
				"ORDER BY created_at DESC",
				"LIMIT 50",
				"OFFSET 0",
			},
			wantDataNotIn: []string{"WHERE"},
			wantCountSQL:  "SELECT COUNT(*) FROM vehicles",
			wantArgs:      nil,
		},
		{
			name: "make filter is case-insensitive",
			query: VehicleQuery{
				Make: ptr("Chevrolet"),
			},
			wantDataHas:  []string{"WHERE LOWER(make) = LOWER($1)"},
			wantCountSQL: "SELECT COUNT(*) FROM vehicles WHERE LOWER(make) = LOWER($1)",
			wantArgs:     []any{"Chevrolet"},
		},
		{
			name: "year range filter",
			query: VehicleQuery{
				YearMin: ptr(1965),
				YearMax: ptr(1972),
			},
			wantDataHas:  []string{"year >= $1", "year <= $2", " AND "},
			wantCountSQL: "SELECT COUNT(*) FROM vehicles WHERE year >= $1 AND year <= $2",
			wantArgs:     []any{1965, 1972},
		},
		{
			name: "has vin filter adds no parameter",
			query: VehicleQuery{
				HasVIN: ptr(true),
			},
			wantDataHas:  []string{"vin IS NOT NULL AND vin <> ''"},
			wantCountSQL: "SELECT COUNT(*) FROM vehicles WHERE vin IS NOT NULL AND vin <> ''",
			wantArgs:     nil,
		},
		{
			name: "missing vin filter",
			query: VehicleQuery{
				HasVIN: ptr(false),
			},
			wantDataHas: []string{"(vin IS NULL OR vin = '')"},
			wantArgs:    nil,
		},
		{
			name: "all filters with correct parameter numbering",
			query: VehicleQuery{
				Make:    ptr("Honda"),
				Model:   ptr("Accord"),
				YearMin: ptr(2000),
				YearMax: ptr(2010),
				HasVIN:  ptr(true),
			},
			wantDataHas: []string{
				"LOWER(make) = LOWER($1)",
				"LOWER(model) = LOWER($2)",
				"year >= $3",
				"year <= $4",
				"vin IS NOT NULL",
			},
			wantArgs: []any{"Honda", "Accord", 2000, 2010},
		},
		{
			name: "order by year",
			query: VehicleQuery{
				OrderBy: "year",
			},
			wantDataHas: []string{"ORDER BY year ASC"},
		},
		{
			name: "order by updated_at",
			query: VehicleQuery{
				OrderBy: "updated_at",
			},
			wantDataHas: []string{"ORDER BY updated_at DESC"},
		},
		{
			name: "invalid order by falls back to default",
			query: VehicleQuery{
				OrderBy: "DROP TABLE vehicles; --",
			},
			wantDataHas:   []string{"ORDER BY created_at DESC"},
			wantDataNotIn: []string{"DROP TABLE"},
		},
		{
			name: "custom limit and offset",
			query: VehicleQuery{
				Limit:  25,
				Offset: 100,
			},
			wantDataHas: []string{"LIMIT 25", "OFFSET 100"},
		},
		{
			name: "limit exceeding max is capped",
			query: VehicleQuery{
				Limit: 10000,
			},
			wantDataHas: []string{"LIMIT 500"},
		},
		{
			name: "negative offset defaults to 0",
			query: VehicleQuery{
				Offset: -5,
			},
			wantDataHas: []string{"OFFSET 0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			q := tt.query
			dataSQL, countSQL, args := q.ToSQL()

			for _, s := range tt.wantDataHas {
				assert.Contains(t, dataSQL, s, "dataSQL should contain %q", s)
			}

			for _, s := range tt.wantDataNotIn {
				assert.NotContains(t, dataSQL, s, "dataSQL should not contain %q", s)
			}

			if tt.wantCountSQL != "" {
				assert.Equal(t, tt.wantCountSQL, countSQL)
			}

			if tt.wantArgs != nil {
				require.Len(t, args, len(tt.wantArgs))
				assert.Equal(t, tt.wantArgs, args)
			} else {
				assert.Empty(t, args)
			}
		})
	}
}
