package mock

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// WriteArtifacts writes the results under outDir/<draftId>/ and returns that
// directory: the full JSON, one CSV roster per team and a markdown summary.
func WriteArtifacts(outDir string, res *Results) (string, error) {
	dir := filepath.Join(outDir, res.Draft.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create artifact dir: %w", err)
	}

	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, res.Draft.ID+".json"), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write results: %w", err)
	}

	for _, team := range res.SummaryByTeam {
		if err := writeTeamCSV(filepath.Join(dir, fmt.Sprintf("team_%d.csv", team.Slot)), team); err != nil {
			return "", err
		}
	}

	if err := os.WriteFile(filepath.Join(dir, "SUMMARY.md"), []byte(RenderSummary(res)), 0o644); err != nil {
		return "", fmt.Errorf("failed to write summary: %w", err)
	}
	return dir, nil
}

func writeTeamCSV(path string, team TeamSummary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	rows := [][]string{{"Round", "Overall", "Position", "Name", "Team", "College"}}
	for _, p := range team.Players {
		rows = append(rows, []string{
			strconv.Itoa(p.Round),
			strconv.Itoa(p.Overall),
			p.Position,
			p.Name,
			p.Team,
			p.College,
		})
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// RenderSummary formats the human readable report.
func RenderSummary(res *Results) string {
	var b strings.Builder
	d := res.Draft

	fmt.Fprintf(&b, "# Mock Draft Results - %s\n\n", d.Name)
	b.WriteString("## Draft Information\n")
	fmt.Fprintf(&b, "- **Draft ID**: %s\n", d.ID)
	fmt.Fprintf(&b, "- **Status**: %s\n", d.Status)
	fmt.Fprintf(&b, "- **Seed**: %s\n", d.Seed)
	fmt.Fprintf(&b, "- **Teams**: %d\n", d.NumTeams)
	fmt.Fprintf(&b, "- **Rounds**: %d\n", d.Rounds)
	fmt.Fprintf(&b, "- **Started**: %s\n", d.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- **Completed**: %s\n", d.CompletedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- **Duration**: %.2fs\n", d.Metrics.DurationSec)
	fmt.Fprintf(&b, "- **Total Picks**: %d\n", d.Metrics.TotalPicks)
	fmt.Fprintf(&b, "- **Autopicks**: %d\n", d.Metrics.AutopicksCount)
	if d.Mode == string(ModeHuman) {
		fmt.Fprintf(&b, "- **Manual Picks**: %d\n", d.Metrics.ManualPicks)
		fmt.Fprintf(&b, "- **Out-of-turn Attempts**: %d\n", d.Metrics.OutOfTurnAttempts)
		fmt.Fprintf(&b, "- **Concurrency Retries**: %d\n", d.Metrics.ConcurrencyRetries)
	}
	fmt.Fprintf(&b, "- **Validation**: %s\n\n", passFail(res.Validation.Passed()))

	b.WriteString("## Top 10 Overall Picks\n")
	for i, p := range res.Picks {
		if i == 10 {
			break
		}
		name, pos, team, owner := "Unknown", "", "", ""
		if t := res.Team(p.Slot); t != nil {
			owner = t.DisplayName
			for _, rp := range t.Players {
				if rp.Overall == p.Overall {
					name, pos, team = rp.Name, rp.Position, rp.Team
					break
				}
			}
		}
		fmt.Fprintf(&b, "%d. **%s** (%s, %s) - %s\n", i+1, name, pos, team, owner)
	}

	b.WriteString("\n## Team Rosters\n")
	for _, t := range res.SummaryByTeam {
		fmt.Fprintf(&b, "\n### %s (Slot %d)\n", t.DisplayName, t.Slot)
		fmt.Fprintf(&b, "**Players**: %d | **Positions**: %s\n\n", t.TotalPlayers, formatCounts(t.PositionCounts))
		for i, p := range t.Players {
			fmt.Fprintf(&b, "%d. **%s** (%s, %s) - Round %d, Pick %d\n", i+1, p.Name, p.Position, p.Team, p.Round, p.Overall)
		}
	}

	totals := map[string]int{}
	for _, t := range res.SummaryByTeam {
		for pos, n := range t.PositionCounts {
			totals[pos] += n
		}
	}
	b.WriteString("\n## Position Distribution Summary\n")
	for _, pos := range orderedPositions(totals) {
		fmt.Fprintf(&b, "- **%s**: %d players\n", pos, totals[pos])
	}
	return b.String()
}

func formatCounts(counts map[string]int) string {
	parts := make([]string, 0, len(counts))
	for _, pos := range orderedPositions(counts) {
		parts = append(parts, fmt.Sprintf("%s:%d", pos, counts[pos]))
	}
	return strings.Join(parts, ", ")
}

// orderedPositions lists the keys of counts in roster order, unknown
// positions last in alphabetical order.
func orderedPositions(counts map[string]int) []string {
	var out, extra []string
	for _, pos := range Positions {
		if counts[pos] > 0 {
			out = append(out, pos)
		}
	}
	for pos := range counts {
		if !slices.Contains(Positions, pos) {
			extra = append(extra, pos)
		}
	}
	slices.Sort(extra)
	return append(out, extra...)
}

func passFail(ok bool) string {
	if ok {
		return "passed"
	}
	return "FAILED"
}
