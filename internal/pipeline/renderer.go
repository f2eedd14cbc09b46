package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mkarpov/signwise/internal/model"
)

const reportFooter = "Generated by signwise. Informational risk analysis, not legal advice."

// Renderer writes review artifacts as JSON and Markdown
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the report as indented JSON
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	return writeJSON(report, path)
}

// RenderComparisonJSON writes the comparison report as indented JSON
func (r *Renderer) RenderComparisonJSON(report *model.ComparisonReport, path string) error {
	return writeJSON(report, path)
}

// RenderMarkdown writes the human-readable review report
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	var b strings.Builder

	title := report.FileName
	if title == "" {
		title = report.CaseID
	}
	fmt.Fprintf(&b, "# Contract Review: %s\n\n", title)
	fmt.Fprintf(&b, "- **Case:** %s\n", report.CaseID)
	fmt.Fprintf(&b, "- **Reviewed:** %s\n", report.ReviewedAt.Format("2006-01-02 15:04 UTC"))
	if report.ContractType != "" {
		fmt.Fprintf(&b, "- **Contract type:** %s\n", report.ContractType)
	}
	b.WriteString("\n")

	if report.Rejection != nil {
		b.WriteString("## Review Declined\n\n")
		fmt.Fprintf(&b, "%s\n", report.Rejection.Reason)
		r.footer(&b)
		return os.WriteFile(path, []byte(b.String()), 0o644)
	}

	if report.Verdict != nil {
		v := report.Verdict
		fmt.Fprintf(&b, "## Verdict: %s\n\n", v.Label.Display())
		fmt.Fprintf(&b, "**Safety score:** %d/100 (confidence %d%%)\n\n", v.RiskScore, v.Confidence)
		if v.Summary != "" {
			fmt.Fprintf(&b, "%s\n\n", v.Summary)
		}
		if len(v.KeyFactors) > 0 {
			b.WriteString("### Key Factors\n\n")
			for _, f := range v.KeyFactors {
				fmt.Fprintf(&b, "- %s\n", f)
			}
			b.WriteString("\n")
		}
		if len(v.NegotiationPoints) > 0 {
			b.WriteString("### Negotiation Points\n\n")
			for _, p := range v.NegotiationPoints {
				fmt.Fprintf(&b, "- %s\n", p)
			}
			b.WriteString("\n")
		}
	}

	if report.Breakdown != nil && len(report.Breakdown.Ledger) > 0 {
		b.WriteString("## Score Breakdown\n\n")
		b.WriteString("| Risk | Penalty | Reason |\n|------|---------|--------|\n")
		for _, entry := range report.Breakdown.Ledger {
			fmt.Fprintf(&b, "| %s | %d | %s |\n", entry.Headline, entry.Penalty, entry.Reason)
		}
		fmt.Fprintf(&b, "\n**Calculated score:** %d/100\n\n", report.Breakdown.Score)
	}

	if report.FactSheet != nil {
		b.WriteString("## Fact Sheet\n\n")
		b.WriteString("| Clause | Value | Page |\n|--------|-------|------|\n")
		for _, row := range factRows(report.FactSheet) {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", row.name, mdEscape(row.field.Value), pageRef(row.field))
		}
		b.WriteString("\n")
	}

	if report.Draft != nil {
		b.WriteString("## Negotiation Toolkit\n\n")
		if report.Draft.StrategyNotes != "" {
			fmt.Fprintf(&b, "### Strategy Notes\n\n%s\n\n", report.Draft.StrategyNotes)
		}
		fmt.Fprintf(&b, "### Draft Email\n\n**Subject:** %s\n\n%s\n\n", report.Draft.EmailSubject, report.Draft.EmailBody)
	}

	r.footer(&b)
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// RenderComparisonMarkdown writes the human-readable comparison report
func (r *Renderer) RenderComparisonMarkdown(report *model.ComparisonReport, path string) error {
	var b strings.Builder

	b.WriteString("# Contract Comparison\n\n")
	fmt.Fprintf(&b, "- **Reviewed:** %s\n\n", report.ReviewedAt.Format("2006-01-02 15:04 UTC"))

	b.WriteString("| | Contract A | Contract B |\n|---|---|---|\n")
	fmt.Fprintf(&b, "| Verdict | %s | %s |\n", report.VerdictA.Label.Display(), report.VerdictB.Label.Display())
	fmt.Fprintf(&b, "| Safety score | %d/100 | %d/100 |\n", report.VerdictA.RiskScore, report.VerdictB.RiskScore)
	fmt.Fprintf(&b, "| Confidence | %d%% | %d%% |\n\n", report.VerdictA.Confidence, report.VerdictB.Confidence)

	if report.Result != nil {
		fmt.Fprintf(&b, "**Lower relative risk:** %s\n\n", report.Result.LowerRiskSide)
		if report.Result.Summary != "" {
			fmt.Fprintf(&b, "%s\n\n", report.Result.Summary)
		}
		if len(report.Result.KeyDifferences) > 0 {
			b.WriteString("## Key Differences\n\n")
			for _, d := range report.Result.KeyDifferences {
				fmt.Fprintf(&b, "### %s\n\n", d.Category)
				fmt.Fprintf(&b, "- **Contract A:** %s\n", d.SideA)
				fmt.Fprintf(&b, "- **Contract B:** %s\n", d.SideB)
				fmt.Fprintf(&b, "- **Risk:** %s\n\n", d.RiskAssessment)
			}
		}
	}

	if report.Draft != nil {
		b.WriteString("## Decision Brief\n\n")
		fmt.Fprintf(&b, "**Subject:** %s\n\n%s\n\n", report.Draft.EmailSubject, report.Draft.EmailBody)
	}

	r.footer(&b)
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// RenderSummary prints a short verdict summary to stdout
func (r *Renderer) RenderSummary(report *model.Report) {
	if report.Rejection != nil {
		fmt.Printf("Review declined: %s\n", report.Rejection.Reason)
		return
	}
	if report.Verdict == nil {
		return
	}
	v := report.Verdict
	fmt.Printf("Verdict: %s (score %d/100, confidence %d%%)\n", v.Label.Display(), v.RiskScore, v.Confidence)
	if v.Summary != "" {
		fmt.Printf("%s\n", v.Summary)
	}
}

// RenderComparisonSummary prints a short comparison summary to stdout
func (r *Renderer) RenderComparisonSummary(report *model.ComparisonReport) {
	fmt.Printf("Contract A: %s (%d/100)\n", report.VerdictA.Label.Display(), report.VerdictA.RiskScore)
	fmt.Printf("Contract B: %s (%d/100)\n", report.VerdictB.Label.Display(), report.VerdictB.RiskScore)
	if report.Result != nil {
		fmt.Printf("Lower relative risk: %s\n", report.Result.LowerRiskSide)
	}
}

func (r *Renderer) footer(b *strings.Builder) {
	if r.includeFooter {
		fmt.Fprintf(b, "---\n\n*%s*\n", reportFooter)
	}
}

func writeJSON(v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

type factRow struct {
	name  string
	field model.FactField
}

func factRows(fs *model.FactSheet) []factRow {
	return []factRow{
		{"Parties", fs.Parties},
		{"Effective Date", fs.EffectiveDate},
		{"Termination", fs.TerminationClause},
		{"Payment Terms", fs.PaymentTerms},
		{"Liability Cap", fs.LiabilityCap},
		{"Intellectual Property", fs.IntellectualProperty},
		{"Non-Compete", fs.NonCompeteClause},
		{"Dispute Resolution", fs.DisputeResolution},
	}
}

func pageRef(f model.FactField) string {
	if !f.Found() || f.Page <= 0 {
		return "-"
	}
	return fmt.Sprintf("p.%d", f.Page)
}

func mdEscape(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
