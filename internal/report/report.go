package report

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"patchinspect/internal/models"
)

// OutputFormatType defines the format types for the compliance report.
type OutputFormatType string

const (
	// OutputFormatTypeJSON represents JSON output format
	OutputFormatTypeJSON OutputFormatType = "JSON"
	// OutputFormatTypeTABLE represents table output format
	OutputFormatTypeTABLE OutputFormatType = "TABLE"
)

// ComplianceReport represents a report over a batch of scored instances.
type ComplianceReport struct {
	Findings []models.ComplianceRecord `json:"findings"`
	Average  int                       `json:"average_compliance"`
}

// PrintReport prints the compliance report using the specified output format.
// Supported formats: "json" (machine-readable) and "table" (human-friendly).
func PrintReport(records []models.ComplianceRecord, outputFormat OutputFormatType) error {
	report := ComplianceReport{
		Findings: records,
		Average:  average(records),
	}

	switch outputFormat {
	case OutputFormatTypeJSON:
		return printJSONReport(report)
	case OutputFormatTypeTABLE:
		return printTableReport(report)
	default:
		return fmt.Errorf("unsupported output format: %s", outputFormat)
	}
}

// printJSONReport prints the report in JSON format
func printJSONReport(report ComplianceReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling report to JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// printTableReport prints the report in a human-friendly table format
func printTableReport(report ComplianceReport) error {
	writer := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintln(writer, "INSTANCE ID\tACCOUNT\tREGION\tPLATFORM\tCOMPLIANCE\tSCAN")
	fmt.Fprintln(writer, "-----------\t-------\t------\t--------\t----------\t----")

	for _, r := range report.Findings {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%d%%\t%s\n",
			r.InstanceID,
			formatValueForTable(r.AccountName),
			formatValueForTable(r.Region),
			formatValueForTable(r.PlatformName+" "+r.PlatformVersion),
			r.CompliancePercentage,
			formatScan(r.ScanType, r.ScanTime))
	}

	outdated := 0
	for _, r := range report.Findings {
		for _, p := range r.Packages {
			if p.Compliant {
				continue
			}
			if outdated == 0 {
				fmt.Fprintln(writer, "")
				fmt.Fprintln(writer, "INSTANCE ID\tPACKAGE\tINSTALLED\tREFERENCE\t\t")
				fmt.Fprintln(writer, "-----------\t-------\t---------\t---------\t\t")
			}
			outdated++
			fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t\t\n", r.InstanceID, p.Name, p.Version, p.CompliantVersion)
		}
	}

	fmt.Fprintln(writer, "")
	fmt.Fprintf(writer, "Summary: %d instances scored, average compliance %d%%, %d outdated packages\n",
		len(report.Findings), report.Average, outdated)

	return writer.Flush()
}

// formatValueForTable formats values for better display in the table
func formatValueForTable(s string) string {
	if s == "" || s == " " {
		return "<empty>"
	}
	return s
}

func formatScan(scanType string, scanTime time.Time) string {
	if scanTime.IsZero() {
		return formatValueForTable(scanType)
	}
	return fmt.Sprintf("%s @ %s", scanType, scanTime.UTC().Format(time.RFC3339))
}

func average(records []models.ComplianceRecord) int {
	if len(records) == 0 {
		return 0
	}
	total := 0
	for _, r := range records {
		total += r.CompliancePercentage
	}
	return total / len(records)
}

// DefaultPrinter is the default implementation of the report printer
type DefaultPrinter struct{}

// PrintReport implements the printer interface
func (p DefaultPrinter) PrintReport(records []models.ComplianceRecord, format OutputFormatType) error {
	return PrintReport(records, format)
}
