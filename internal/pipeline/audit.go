package pipeline

import (
	"context"
	"fmt"

	"github.com/vindexhq/vindex/internal/metrics"
	"github.com/vindexhq/vindex/internal/notify"
	"github.com/vindexhq/vindex/internal/scrape"
	"github.com/vindexhq/vindex/pkg/compare"
	"github.com/vindexhq/vindex/pkg/extract"
	domain "github.com/vindexhq/vindex/pkg/types"
)

// RunAudit re-checks up to limit vehicles against their newest source,
// least recently audited first. Each audit re-fetches the listing,
// re-extracts it, and compares the result against the canonical record.
// Fetch or extraction failures still produce a persisted report: accuracy
// 0 with a CRITICAL marker.
func (p *Pipeline) RunAudit(ctx context.Context, limit int) (int, error) {
	candidates, err := p.store.ListAuditCandidates(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("listing audit candidates: %w", err)
	}

	var audited int
	var alerts []notify.AlertPayload

	for i := range candidates {
		if ctx.Err() != nil {
			return audited, ctx.Err()
		}

		report, err := p.AuditVehicle(ctx, &candidates[i])
		if err != nil {
			p.log.Error("audit failed", "vehicle_id", candidates[i].ID, "error", err)
			continue
		}
		audited++

		if report.Critical {
			alerts = append(alerts, auditAlert(&candidates[i], report))
		}
	}

	if len(alerts) > 0 {
		if err := p.notifier.SendBatchAlert(ctx, alerts); err != nil {
			metrics.NotificationFailuresTotal.Inc()
			p.log.Error("audit alert delivery failed", "count", len(alerts), "error", err)
		}
	}

	return audited, nil
}

// AuditVehicle audits one vehicle and persists the resulting report.
func (p *Pipeline) AuditVehicle(ctx context.Context, v *domain.Vehicle) (*domain.AuditReport, error) {
	latest, err := p.store.LatestObservation(ctx, v.ID)
	if err != nil {
		return nil, fmt.Errorf("loading latest observation: %w", err)
	}
	if latest == nil {
		return nil, fmt.Errorf("vehicle %s has no observations to audit against", v.ID)
	}

	report := p.compareAgainstSource(ctx, v, latest.SourceURL)

	critical := report.FetchFailed
	for _, c := range report.Comparisons {
		if c.Critical {
			critical = true
		}
	}

	audit := &domain.AuditReport{
		VehicleID: v.ID,
		SourceURL: latest.SourceURL,
		Report:    *report,
		Accuracy:  report.OverallAccuracy,
		Critical:  critical,
	}
	if err := p.store.InsertAuditReport(ctx, audit); err != nil {
		return nil, fmt.Errorf("persisting audit report: %w", err)
	}

	metrics.AuditAccuracy.Observe(report.OverallAccuracy)
	if critical {
		metrics.AuditCriticalTotal.Inc()
	}

	p.log.Info("vehicle audited",
		"vehicle_id", v.ID,
		"accuracy", report.OverallAccuracy,
		"critical", critical,
	)
	return audit, nil
}

// compareAgainstSource re-fetches and re-extracts the source listing, then
// compares it to the canonical record. Any failure on the way collapses to
// a FailedReport rather than an error: a source that cannot be re-checked
// is itself a finding.
func (p *Pipeline) compareAgainstSource(ctx context.Context, v *domain.Vehicle, url string) *domain.DiscrepancyReport {
	page, err := p.fetcher.FetchListing(ctx, url)
	if err != nil {
		return compare.FailedReport(err.Error())
	}
	metrics.FetchCallsTotal.Inc()

	raw, err := p.extractor.Extract(ctx, extract.Page{Title: pageTitle(page), Body: page.Body})
	if err != nil {
		metrics.ExtractionFailuresTotal.Inc()
		return compare.FailedReport(err.Error())
	}

	return compare.Compare(compare.FieldSetFromVehicle(v), compare.FieldSetFromRaw(raw))
}

func auditAlert(v *domain.Vehicle, report *domain.AuditReport) notify.AlertPayload {
	return notify.AlertPayload{
		VehicleID:     v.ID,
		VehicleLabel:  fmt.Sprintf("%d %s %s", v.Year, v.Make, v.Model),
		VIN:           v.VIN,
		SourceURL:     report.SourceURL,
		Accuracy:      report.Accuracy,
		Critical:      report.Critical,
		Discrepancies: report.Report.Discrepancies,
	}
}

// interface check: the production fetcher satisfies the audit dependency.
var _ scrape.Lister = (*scrape.Fetcher)(nil)
