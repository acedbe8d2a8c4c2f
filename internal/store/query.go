package store

import (
	"fmt"
	"strings"
)

const (
	defaultLimit = 50
	maxLimit     = 500

	orderByCreated = "created_at"
	orderByUpdated = "updated_at"
	orderByYear    = "year"
)

// validOrderBy maps allowed OrderBy values to their SQL column expressions.
var validOrderBy = map[string]string{
	orderByCreated: "created_at DESC",
	orderByUpdated: "updated_at DESC",
	orderByYear:    "year ASC",
}

const defaultOrderBy = "created_at DESC"

const baseVehiclesSelect = `SELECT id, COALESCE(vin, ''), year, make, model,
	COALESCE(trim_level, ''), COALESCE(engine, ''), COALESCE(transmission, ''), COALESCE(color, ''),
	price, mileage, image_count, COALESCE(description, ''),
	COALESCE(source_url, ''), created_at, updated_at
FROM vehicles`

const countVehiclesSelect = "SELECT COUNT(*) FROM vehicles"

// ToSQL builds the WHERE clause, ORDER BY, LIMIT, and OFFSET for a vehicle
// query. It returns the data query, the count query, and the positional
// parameters shared by both.
func (q *VehicleQuery) ToSQL() (dataSQL, countSQL string, args []any) {
	var conditions []string
	paramIdx := 1

	if q.Make != nil {
		conditions = append(conditions, fmt.Sprintf("LOWER(make) = LOWER($%d)", paramIdx))
		args = append(args, *q.Make)
		paramIdx++
	}

	if q.Model != nil {
		conditions = append(conditions, fmt.Sprintf("LOWER(model) = LOWER($%d)", paramIdx))
		args = append(args, *q.Model)
		paramIdx++
	}

	if q.YearMin != nil {
		conditions = append(conditions, fmt.Sprintf("year >= $%d", paramIdx))
		args = append(args, *q.YearMin)
		paramIdx++
	}

	if q.YearMax != nil {
		conditions = append(conditions, fmt.Sprintf("year <= $%d", paramIdx))
		args = append(args, *q.YearMax)
		paramIdx++
	}

	if q.HasVIN != nil {
		if *q.HasVIN {
			conditions = append(conditions, "vin IS NOT NULL AND vin <> ''")
		} else {
			conditions = append(conditions, "(vin IS NULL OR vin = '')")
		}
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	orderBy, ok := validOrderBy[q.OrderBy]
	if !ok {
		orderBy = defaultOrderBy
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	dataSQL = fmt.Sprintf("%s%s ORDER BY %s LIMIT %d OFFSET %d",
		baseVehiclesSelect, where, orderBy, limit, offset)
	countSQL = countVehiclesSelect + where

	return dataSQL, countSQL, args
}
