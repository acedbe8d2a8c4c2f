package store

// SQL query constants organized by entity.
// All SQL lives here — PostgresStore methods reference these constants.

// Vehicle queries.
const (
	queryInsertVehicle = `
		INSERT INTO vehicles (
			vin, year, make, model, trim_level, engine, transmission, color,
			price, mileage, image_count, description, source_url,
			created_at, updated_at
		) VALUES (
			NULLIF(@vin, ''), @year, @make, @model, @trim_level, @engine, @transmission, @color,
			@price, @mileage, @image_count, @description, @source_url,
			now(), now()
		)
		ON CONFLICT (vin) DO UPDATE SET
			updated_at = now()
		RETURNING id, created_at, updated_at`

	queryUpdateVehicle = `
		UPDATE vehicles SET
			year = @year,
			make = @make,
			model = @model,
			trim_level = @trim_level,
			engine = @engine,
			transmission = @transmission,
			color = @color,
			price = @price,
			mileage = @mileage,
			image_count = @image_count,
			description = @description,
			source_url = @source_url,
			updated_at = now()
		WHERE id = @id`

	queryGetVehicleByID = baseVehiclesSelect + `
		WHERE id = $1`

	queryFindVehicleByVIN = baseVehiclesSelect + `
		WHERE UPPER(vin) = UPPER($1)`

	queryFindVehiclesByYMM = baseVehiclesSelect + `
		WHERE year = $1 AND LOWER(make) = LOWER($2) AND LOWER(model) = LOWER($3)
		ORDER BY created_at`
)

// Observation queries.
const (
	queryAppendObservation = `
		INSERT INTO observations (
			vehicle_id, source_url, observed_at, extraction,
			confidence_score, confidence_level, created_at
		) VALUES (
			@vehicle_id, @source_url, @observed_at, @extraction,
			@confidence_score, @confidence_level, now()
		)
		RETURNING id, created_at`

	queryListObservations = `
		SELECT id, vehicle_id, source_url, observed_at, extraction,
			confidence_score, confidence_level, created_at
		FROM observations
		WHERE vehicle_id = $1
		ORDER BY observed_at DESC
		LIMIT $2`

	queryLatestObservation = `
		SELECT id, vehicle_id, source_url, observed_at, extraction,
			confidence_score, confidence_level, created_at
		FROM observations
		WHERE vehicle_id = $1
		ORDER BY observed_at DESC
		LIMIT 1`
)

// Timeline queries.
const (
	queryInsertTimelineEvent = `
		INSERT INTO timeline_events (
			vehicle_id, kind, occurred_at, source_url, detail, created_at
		) VALUES (
			@vehicle_id, @kind, @occurred_at, @source_url, @detail, now()
		)
		ON CONFLICT (vehicle_id, kind, occurred_at) DO NOTHING
		RETURNING id, created_at`

	queryListTimelineEvents = `
		SELECT id, vehicle_id, kind, occurred_at, COALESCE(source_url, ''), COALESCE(detail, ''), created_at
		FROM timeline_events
		WHERE vehicle_id = $1
		ORDER BY occurred_at`
)

// Audit queries.
const (
	queryInsertAuditReport = `
		INSERT INTO audit_reports (
			vehicle_id, source_url, report, accuracy, critical, created_at
		) VALUES (
			@vehicle_id, @source_url, @report, @accuracy, @critical, now()
		)
		RETURNING id, created_at`

	queryListAuditReports = `
		SELECT id, vehicle_id, source_url, report, accuracy, critical, created_at
		FROM audit_reports
		ORDER BY created_at DESC
		LIMIT $1`

	// Audit candidates are vehicles with at least one observation, least
	// recently audited first.
	queryListAuditCandidates = baseVehiclesSelect + `
		WHERE EXISTS (SELECT 1 FROM observations o WHERE o.vehicle_id = vehicles.id)
		ORDER BY (
			SELECT COALESCE(MAX(a.created_at), 'epoch'::timestamptz)
			FROM audit_reports a WHERE a.vehicle_id = vehicles.id
		) ASC
		LIMIT $1`
)

// Review queue queries.
const (
	queryEnqueueReview = `
		INSERT INTO review_queue (
			source_url, reason, extraction, resolved, created_at
		) VALUES (
			@source_url, @reason, @extraction, FALSE, now()
		)
		RETURNING id, created_at`

	queryListReviewQueue = `
		SELECT id, source_url, reason, extraction, resolved, resolved_at, created_at
		FROM review_queue
		WHERE NOT resolved
		ORDER BY created_at
		LIMIT $1`

	queryResolveReview = `
		UPDATE review_queue SET resolved = TRUE, resolved_at = now()
		WHERE id = $1 AND NOT resolved`
)

// Job run queries.
const (
	queryInsertJobRun = `
		INSERT INTO job_runs (job_name, started_at, status)
		VALUES ($1, now(), 'running')
		RETURNING id`

	queryCompleteJobRun = `
		UPDATE job_runs SET
			completed_at = now(),
			status = $2,
			error_text = NULLIF($3, ''),
			rows_affected = $4
		WHERE id = $1`

	queryListJobRuns = `
		SELECT id, job_name, started_at, completed_at, status,
			COALESCE(error_text, ''), rows_affected
		FROM job_runs
		WHERE job_name = $1
		ORDER BY started_at DESC
		LIMIT $2`

	queryAcquireSchedulerLock = `
		INSERT INTO scheduler_locks (job_name, holder, expires_at)
		VALUES ($1, $2, now() + $3)
		ON CONFLICT (job_name) DO UPDATE SET
			holder = EXCLUDED.holder,
			expires_at = EXCLUDED.expires_at
		WHERE scheduler_locks.expires_at < now() OR scheduler_locks.holder = EXCLUDED.holder
		RETURNING holder`

	queryReleaseSchedulerLock = `
		DELETE FROM scheduler_locks
		WHERE job_name = $1 AND holder = $2`
)

// System state query.
const queryGetSystemState = `
	SELECT
		(SELECT COUNT(*) FROM vehicles)                              AS vehicles_total,
		(SELECT COUNT(*) FROM vehicles WHERE vin IS NOT NULL)        AS vehicles_with_vin,
		(SELECT COUNT(*) FROM observations)                          AS observations_total,
		(SELECT COUNT(*) FROM review_queue WHERE NOT resolved)       AS review_queue_depth,
		(SELECT COUNT(*) FROM audit_reports)                         AS audit_reports_total,
		(SELECT COUNT(*) FROM audit_reports WHERE critical)          AS critical_audits_total,
		(SELECT COUNT(*) FROM timeline_events)                       AS timeline_events_total`
