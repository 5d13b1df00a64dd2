package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/K0NGR3SS/netwatch/internal/advisory"
	"github.com/K0NGR3SS/netwatch/internal/analyzer"
	"github.com/K0NGR3SS/netwatch/internal/models"
	"github.com/K0NGR3SS/netwatch/internal/rules"
	"github.com/pterm/pterm"
)

// Version is set from the version command so the banner and API agree.
var Version = "v1.0"

func riskStyle(level models.RiskLevel) string {
	switch level {
	case models.RiskCritical:
		return pterm.FgRed.Sprint("CRITICAL")
	case models.RiskHigh:
		return pterm.FgRed.Sprint("HIGH")
	case models.RiskMedium:
		return pterm.FgYellow.Sprint("MEDIUM")
	default:
		return pterm.FgBlue.Sprint("LOW")
	}
}

func ratingStyle(r models.Rating) string {
	switch r {
	case models.RatingGood:
		return pterm.FgGreen.Sprint(string(r))
	case models.RatingModerate:
		return pterm.FgYellow.Sprint(string(r))
	default:
		return pterm.FgRed.Sprint(string(r))
	}
}

// FilterFindings keeps findings at or above minRisk. An empty minRisk keeps all.
func FilterFindings(findings []models.Finding, minRisk models.RiskLevel) []models.Finding {
	if minRisk == "" {
		return findings
	}
	out := make([]models.Finding, 0, len(findings))
	for _, f := range findings {
		if f.Risk.Rank() >= minRisk.Rank() {
			out = append(out, f)
		}
	}
	return out
}

// FindingRows builds the findings table, header first.
func FindingRows(findings []models.Finding) [][]string {
	data := [][]string{
		{"Risk", "Rule", "Service", "PID", "User", "Port", "Message"},
	}
	for _, f := range findings {
		portStr := "-"
		if f.Service.Port != 0 {
			portStr = strconv.Itoa(f.Service.Port)
		}
		pidStr := "-"
		if f.Service.PID != 0 {
			pidStr = strconv.Itoa(f.Service.PID)
		}
		scored := f.RuleID
		if !f.Scored {
			scored += " (info)"
		}
		data = append(data, []string{
			riskStyle(f.Risk),
			scored,
			pterm.FgCyan.Sprint(models.CleanCommand(f.Service.Command)),
			pidStr,
			f.Service.User,
			portStr,
			f.Message,
		})
	}
	return data
}

// PrintReport renders an analysis as pterm sections and tables.
func PrintReport(an *analyzer.Analysis, minRisk models.RiskLevel) {
	r := an.Report

	pterm.DefaultSection.Println("Network Overview")
	_ = pterm.DefaultTable.WithData([][]string{
		{"Listening services", strconv.Itoa(r.Stats.Listening)},
		{"Established connections", strconv.Itoa(r.Stats.Established)},
		{"Closed connections", strconv.Itoa(r.Stats.Closed)},
		{"Processes", strconv.Itoa(r.Stats.Processes)},
	}).Render()

	if len(an.Skipped) > 0 {
		pterm.Warning.Printf("%d lines could not be parsed and were skipped\n", len(an.Skipped))
	}

	if len(an.Categories) > 0 {
		pterm.DefaultSection.Println("Services by Category")
		_ = pterm.DefaultTable.WithHasHeader().WithData(CategoryRows(an.Categories)).Render()
	}

	if len(an.WellKnownPorts) > 0 {
		pterm.DefaultSection.Println("Well-Known Ports")
		data := [][]string{{"Port", "Service", "Used by"}}
		for _, p := range an.WellKnownPorts {
			data = append(data, []string{strconv.Itoa(p.Port), p.Name, strings.Join(p.Commands, ", ")})
		}
		_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	}

	if len(an.TopConnections) > 0 {
		pterm.DefaultSection.Println("Most Active Connections")
		data := [][]string{{"Process", "Established"}}
		for _, c := range an.TopConnections {
			data = append(data, []string{c.Command, strconv.Itoa(c.Count)})
		}
		_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	}

	pterm.DefaultSection.Println("Security Analysis")
	pterm.Printf("Security score: %s (%s)\n\n", pterm.Bold.Sprintf("%d/100", r.Score), ratingStyle(r.Rating))

	if preview := rules.RootPreview(r); len(preview) > 0 {
		pterm.Warning.Printf("%d root services on high ports\n", len(r.RootHighPortServices))
		for _, s := range preview {
			pterm.Printf("  %s (pid %d) on port %d\n", models.CleanCommand(s.Command), s.PID, s.PortOr(0))
		}
		pterm.Println()
	}

	findings := FilterFindings(r.Findings, minRisk)
	if len(findings) == 0 {
		pterm.Success.Println("No findings at the selected risk level. Your network looks clean.")
	} else {
		pterm.Warning.Printf("Found %d findings:\n\n", len(findings))
		_ = pterm.DefaultTable.WithHasHeader().WithData(FindingRows(findings)).Render()
	}

	if len(an.Recommendations) > 0 {
		pterm.DefaultSection.Println("Recommendations")
		items := make([]pterm.BulletListItem, 0, len(an.Recommendations))
		for _, rec := range an.Recommendations {
			items = append(items, pterm.BulletListItem{Level: 0, Text: rec})
		}
		_ = pterm.DefaultBulletList.WithItems(items).Render()
	}
}

func CategoryRows(groups []analyzer.CategoryGroup) [][]string {
	data := [][]string{{"Category", "Process", "Ports"}}
	for _, g := range groups {
		for _, c := range g.Commands {
			data = append(data, []string{g.Category, c.Command, strings.Join(c.Ports, ", ")})
		}
	}
	return data
}

// AdviceRows builds the recommendation table, header first.
func AdviceRows(recs []advisory.Recommendation) [][]string {
	data := [][]string{{"Priority", "Severity", "Category", "Issue", "Recommendation"}}
	for _, r := range recs {
		data = append(data, []string{
			strconv.Itoa(r.Priority),
			riskStyle(r.Severity),
			r.Category,
			r.Issue,
			r.Recommendation,
		})
	}
	return data
}

func PrintAdvice(res advisory.Result) {
	resp := res.Response

	title := "Security Advisor"
	if res.Source == advisory.SourceFallback {
		title += " (local rules)"
	}
	pterm.DefaultSection.Println(title)
	if res.Note != "" {
		pterm.Warning.Println(res.Note)
	}

	pterm.Printf("Overall risk: %s\n", riskStyle(resp.RiskLevel))
	pterm.Println(resp.OverallAssessment)
	pterm.Println()
	pterm.Info.Println(resp.ExecutiveSummary)

	if len(resp.Recommendations) > 0 {
		_ = pterm.DefaultTable.WithHasHeader().WithData(AdviceRows(resp.Recommendations)).Render()
		for _, r := range resp.Recommendations {
			if len(r.Commands) == 0 {
				continue
			}
			pterm.Printf("\n%s\n", pterm.Bold.Sprint(r.Issue))
			for _, c := range r.Commands {
				pterm.Println("  " + pterm.FgGray.Sprint(c))
			}
		}
	}

	if len(resp.ActionItems) > 0 {
		pterm.DefaultSection.WithLevel(2).Println("Action Items")
		for i, item := range resp.ActionItems {
			pterm.Println(fmt.Sprintf("  %d. %s", i+1, item))
		}
	}
	if resp.LearningNotes != "" {
		pterm.Println()
		pterm.Info.Println(resp.LearningNotes)
	}
}

func StartSpinner(text string) *pterm.SpinnerPrinter {
	spinner, _ := pterm.DefaultSpinner.Start(text)
	return spinner
}
