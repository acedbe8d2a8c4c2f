package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/vindexhq/vindex/internal/pipeline"
	domain "github.com/vindexhq/vindex/pkg/types"
)

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printVehiclesTable(vehicles []domain.Vehicle) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("ID\tYEAR\tMAKE\tMODEL\tVIN\tPRICE\tMILEAGE\n")
	for i := range vehicles {
		v := &vehicles[i]
		price := "-"
		if v.Price != nil {
			price = fmt.Sprintf("$%.0f", *v.Price)
		}
		mileage := "-"
		if v.Mileage != nil {
			mileage = fmt.Sprintf("%d", *v.Mileage)
		}
		vin := v.VIN
		if vin == "" {
			vin = "-"
		}
		tw.writef("%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
			v.ID, v.Year, v.Make, v.Model, vin, price, mileage)
	}
	return tw.finish()
}

func printVehicleDetail(v *domain.Vehicle) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("ID:\t%s\n", v.ID)
	tw.writef("VIN:\t%s\n", v.VIN)
	tw.writef("Year:\t%d\n", v.Year)
	tw.writef("Make:\t%s\n", v.Make)
	tw.writef("Model:\t%s\n", v.Model)
	if v.Trim != "" {
		tw.writef("Trim:\t%s\n", v.Trim)
	}
	if v.Engine != "" {
		tw.writef("Engine:\t%s\n", v.Engine)
	}
	if v.Transmission != "" {
		tw.writef("Transmission:\t%s\n", v.Transmission)
	}
	if v.Color != "" {
		tw.writef("Color:\t%s\n", v.Color)
	}
	if v.Price != nil {
		tw.writef("Price:\t$%.2f\n", *v.Price)
	}
	if v.Mileage != nil {
		tw.writef("Mileage:\t%d\n", *v.Mileage)
	}
	tw.writef("Images:\t%d\n", v.ImageCount)
	tw.writef("Source:\t%s\n", v.SourceURL)
	tw.writef("Created:\t%s\n", v.CreatedAt.Format("2006-01-02 15:04:05"))
	return tw.finish()
}

func printIngestResult(res *pipeline.IngestResult) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("Outcome:\t%s\n", res.Outcome)
	if res.Extraction != nil {
		score := res.Extraction.OverallConfidence
		tw.writef("Confidence:\t%.2f (%s)\n", score, domain.LevelForScore(score))
	}
	if res.Vehicle != nil {
		tw.writef("Vehicle:\t%s (%d %s %s)\n",
			res.Vehicle.ID, res.Vehicle.Year, res.Vehicle.Make, res.Vehicle.Model)
	}
	if res.Preview != nil {
		tw.writef("Preview:\t%d %s %s\n",
			res.Preview.Year, res.Preview.Make, res.Preview.Model)
	}
	if res.Queued {
		tw.writef("Review:\tqueued\n")
	}
	for _, w := range res.Warnings {
		tw.writef("Warning:\t%s\n", w)
	}
	return tw.finish()
}

func printReportDetail(r *domain.AuditReport) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("ID:\t%s\n", r.ID)
	tw.writef("Vehicle:\t%s\n", r.VehicleID)
	tw.writef("Source:\t%s\n", r.SourceURL)
	tw.writef("Accuracy:\t%.0f%%\n", r.Accuracy*100)
	tw.writef("Critical:\t%v\n", r.Critical)
	tw.writef("Matched:\t%d\n", r.Report.Matched)
	tw.writef("Mismatched:\t%d\n", r.Report.Mismatched)
	tw.writef("Indeterminate:\t%d\n", r.Report.Indeterminate)
	for _, d := range r.Report.Discrepancies {
		tw.writef("Discrepancy:\t%s\n", d)
	}
	return tw.finish()
}

func printJobRunsTable(runs []domain.JobRun) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("JOB\tSTATUS\tSTARTED\tCOMPLETED\tROWS\tERROR\n")
	for i := range runs {
		r := &runs[i]
		completed := "-"
		if r.CompletedAt != nil {
			completed = r.CompletedAt.Format("2006-01-02 15:04:05")
		}
		rows := "-"
		if r.RowsAffected != nil {
			rows = fmt.Sprintf("%d", *r.RowsAffected)
		}
		tw.writef("%s\t%s\t%s\t%s\t%s\t%s\n",
			r.JobName,
			r.Status,
			r.StartedAt.Format("2006-01-02 15:04:05"),
			completed,
			rows,
			truncate(r.ErrorText, 40),
		)
	}
	return tw.finish()
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
