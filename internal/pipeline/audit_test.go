package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vindexhq/vindex/internal/notify"
	"github.com/vindexhq/vindex/internal/pipeline"
	"github.com/vindexhq/vindex/internal/scrape"
	"github.com/vindexhq/vindex/internal/store"
	"github.com/vindexhq/vindex/pkg/extract"
	domain "github.com/vindexhq/vindex/pkg/types"
)

type fakeNotifier struct {
	batches [][]notify.AlertPayload
	err     error
}

func (f *fakeNotifier) SendAlert(_ context.Context, p *notify.AlertPayload) error {
	f.batches = append(f.batches, []notify.AlertPayload{*p})
	return f.err
}

func (f *fakeNotifier) SendBatchAlert(_ context.Context, ps []notify.AlertPayload) error {
	f.batches = append(f.batches, ps)
	return f.err
}

// seedVehicle ingests one listing so the store holds a vehicle with an
// observation to audit against.
func seedVehicle(t *testing.T, s store.Store, raw *domain.RawListing) *domain.Vehicle {
	t.Helper()
	ing := pipeline.NewIngestor(s)
	res, err := ing.Ingest(context.Background(), raw, false)
	require.NoError(t, err)
	require.NotNil(t, res.Vehicle)
	return res.Vehicle
}

func auditPipeline(s store.Store, lister scrape.Lister, ex extract.Extractor, opts ...pipeline.PipelineOption) *pipeline.Pipeline {
	return pipeline.New(s, pipeline.NewIngestor(s), lister, ex,
		singleSourceRegistry("bringatrailer.com"), opts...)
}

func TestAuditVehicle_SourceStillAgrees(t *testing.T) {
	t.Parallel()

	raw := goodListing()
	s := store.NewMemoryStore()
	lister := &fakeLister{pages: map[string]*scrape.Page{
		raw.SourceURL: pageFor(raw.SourceURL, "1969 Chevrolet Camaro SS"),
	}}
	extractor := &fakeExtractor{fn: func(context.Context, extract.Page) (*domain.RawListing, error) {
		return goodListing(), nil
	}}
	p := auditPipeline(s, lister, extractor)
	v := seedVehicle(t, s, raw)

	report, err := p.AuditVehicle(context.Background(), v)
	require.NoError(t, err)

	assert.Equal(t, 1.0, report.Accuracy)
	assert.False(t, report.Critical)
	assert.Equal(t, raw.SourceURL, report.SourceURL)
	assert.False(t, report.Report.FetchFailed)
	assert.Empty(t, report.Report.Discrepancies)

	saved, err := s.ListAuditReports(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, v.ID, saved[0].VehicleID)
}

func TestAuditVehicle_IdentityDriftIsCritical(t *testing.T) {
	t.Parallel()

	raw := goodListing()
	s := store.NewMemoryStore()
	lister := &fakeLister{pages: map[string]*scrape.Page{
		raw.SourceURL: pageFor(raw.SourceURL, "listing"),
	}}
	extractor := &fakeExtractor{fn: func(context.Context, extract.Page) (*domain.RawListing, error) {
		drifted := goodListing()
		drifted.Year = "1970"
		return drifted, nil
	}}
	p := auditPipeline(s, lister, extractor)
	v := seedVehicle(t, s, raw)

	report, err := p.AuditVehicle(context.Background(), v)
	require.NoError(t, err)

	assert.True(t, report.Critical)
	assert.Less(t, report.Accuracy, 1.0)
	require.NotEmpty(t, report.Report.Discrepancies)
	assert.Contains(t, report.Report.Discrepancies[0], "CRITICAL: identity mismatch")
}

func TestAuditVehicle_FetchFailure(t *testing.T) {
	t.Parallel()

	raw := goodListing()
	s := store.NewMemoryStore()
	lister := &fakeLister{errs: map[string]error{
		raw.SourceURL: errors.New("unexpected status 410"),
	}}
	p := auditPipeline(s, lister, &fakeExtractor{})
	v := seedVehicle(t, s, raw)

	report, err := p.AuditVehicle(context.Background(), v)
	require.NoError(t, err, "an unreachable source is a finding, not an audit error")

	assert.True(t, report.Critical)
	assert.Zero(t, report.Accuracy)
	assert.True(t, report.Report.FetchFailed)
	require.NotEmpty(t, report.Report.Discrepancies)
	assert.Contains(t, report.Report.Discrepancies[0], "CRITICAL: re-extraction failed")
}

func TestAuditVehicle_NoObservations(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore()
	v := &domain.Vehicle{Year: 1969, Make: "Chevrolet", Model: "Camaro"}
	require.NoError(t, s.CreateVehicle(context.Background(), v))

	p := auditPipeline(s, &fakeLister{}, &fakeExtractor{})

	_, err := p.AuditVehicle(context.Background(), v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no observations")
}

func TestRunAudit_BatchesCriticalAlerts(t *testing.T) {
	t.Parallel()

	clean := goodListing()
	broken := goodListing()
	broken.SourceURL = "https://bringatrailer.com/listing/gone"
	broken.VIN = "124380N664466AB03"

	s := store.NewMemoryStore()
	lister := &fakeLister{
		pages: map[string]*scrape.Page{clean.SourceURL: pageFor(clean.SourceURL, "listing")},
		errs:  map[string]error{broken.SourceURL: errors.New("unexpected status 404")},
	}
	extractor := &fakeExtractor{fn: func(context.Context, extract.Page) (*domain.RawListing, error) {
		return goodListing(), nil
	}}
	notifier := &fakeNotifier{}
	p := auditPipeline(s, lister, extractor, pipeline.WithNotifier(notifier))

	seedVehicle(t, s, clean)
	brokenVehicle := seedVehicle(t, s, broken)

	audited, err := p.RunAudit(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 2, audited)

	require.Len(t, notifier.batches, 1, "one batched alert per audit cycle")
	require.Len(t, notifier.batches[0], 1, "only the critical audit alerts")
	alert := notifier.batches[0][0]
	assert.Equal(t, brokenVehicle.ID, alert.VehicleID)
	assert.Equal(t, "1969 Chevrolet Camaro", alert.VehicleLabel)
	assert.True(t, alert.Critical)
}

func TestRunAudit_NoCandidates(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore()
	notifier := &fakeNotifier{}
	p := auditPipeline(s, &fakeLister{}, &fakeExtractor{}, pipeline.WithNotifier(notifier))

	audited, err := p.RunAudit(context.Background(), 10)
	require.NoError(t, err)
	assert.Zero(t, audited)
	assert.Empty(t, notifier.batches)
}
