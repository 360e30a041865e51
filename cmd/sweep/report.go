package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/olekukonko/tablewriter"

	"github.com/mosheduminer/lmql/openai"
)

type report struct {
	rows        []outcome
	failedCount int
}

// buildReport orders raw outcomes by their position in the scenario file.
func buildReport(scenarios []scenario, results []outcome) report {
	position := make(map[string]int, len(scenarios))
	for i, sc := range scenarios {
		position[sc.Name] = i
	}

	rows := append([]outcome(nil), results...)
	sort.Slice(rows, func(i, j int) bool {
		return position[rows[i].Scenario] < position[rows[j].Scenario]
	})

	failed := 0
	for _, row := range rows {
		if row.Err != nil {
			failed++
		}
	}

	return report{rows: rows, failedCount: failed}
}

// renderReport prints the sweep matrix and summaries to stdout.
func renderReport(rep report) {
	if len(rep.rows) == 0 {
		fmt.Println("no scenarios to report")
		return
	}

	fmt.Println()
	fmt.Println("=== LMQL Streaming Sweep ===")
	fmt.Println()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Scenario", "Model", "Format", "Prompt Toks", "Events", "Duration", "Outcome", "Text"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, row := range rep.rows {
		table.Append([]string{
			row.Scenario,
			row.Model,
			row.Format,
			strconv.Itoa(row.PromptTokens),
			strconv.Itoa(row.Events),
			row.Duration.Truncate(10 * time.Millisecond).String(),
			outcomeCell(row.Err),
			shorten(row.Text, 48),
		})
	}
	table.Render()

	fmt.Println()
	fmt.Printf("Totals  | Scenarios: %d | Passed: %d | Failed: %d\n",
		len(rep.rows),
		len(rep.rows)-rep.failedCount,
		rep.failedCount,
	)

	if rep.failedCount > 0 {
		fmt.Println()
		fmt.Println("Failures:")
		for _, row := range rep.rows {
			if row.Err == nil {
				continue
			}
			fmt.Printf("- %s · %s → %s\n", row.Scenario, row.Model, shorten(row.Err.Error(), 200))
		}
	}

	fmt.Println()
}

// outcomeCell collapses an outcome error into a short matrix label.
func outcomeCell(err error) string {
	if err == nil {
		return "PASS"
	}

	var (
		rateErr   *openai.RateLimitError
		stallErr  *openai.StreamStallError
		configErr *openai.ConfigurationError
	)
	switch {
	case errors.As(err, &rateErr):
		return "RATE-LIMITED"
	case errors.As(err, &stallErr):
		return "STALLED"
	case errors.As(err, &configErr):
		return "CONFIG " + shorten(configErr.Reason, 32)
	default:
		return "FAIL " + shorten(err.Error(), 32)
	}
}

func shorten(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}
