// package formatter renders run summaries and collection reports for the
// terminal (styled text) and for machine consumption (JSON).
package formatter

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"

	"github.com/mkbecker/genreflow/internal/matching"
	"github.com/mkbecker/genreflow/internal/shared"
	"github.com/mkbecker/genreflow/internal/tasks"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

// OrganizeSummary renders an organize run as styled terminal text.
func OrganizeSummary(result *tasks.OrganizeResult) []byte {
	var buf bytes.Buffer

	header := "Organize Run"
	if result.DryRun {
		header = "Organize Run (dry run)"
	}
	buf.WriteString(styles.title.Render(header) + "\n")
	buf.WriteString(styles.help.Render(fmt.Sprintf("run %s", result.RunID)) + "\n\n")

	buf.WriteString(fmt.Sprintf("Processed:          %d (%d batches)\n", result.Processed, result.Batches))
	buf.WriteString(fmt.Sprintf("Genres updated:     %d\n", result.Updated))
	buf.WriteString(fmt.Sprintf("Playlist additions: %d\n", result.PlaylistAdditions))
	buf.WriteString(fmt.Sprintf("Skipped:            %d\n", result.Skipped))

	errLine := fmt.Sprintf("Errors:             %d", result.Errors)
	if result.Errors > 0 {
		errLine = styles.err.Render(errLine)
	}
	buf.WriteString(errLine + "\n")
	buf.WriteString(styles.ok.Render(fmt.Sprintf("Success rate:       %.1f%%", result.SuccessRate*100)) + "\n")

	if len(result.GenreDistribution) > 0 {
		buf.WriteString("\n" + styles.title.Render("Genre Distribution") + "\n")
		for _, line := range sortedCounts(result.GenreDistribution) {
			buf.WriteString(line + "\n")
		}
	}

	if result.RemixAnalysis.TotalRemixes > 0 {
		buf.WriteString("\n" + styles.title.Render("Remixes") + "\n")
		buf.WriteString(fmt.Sprintf("Seen:      %d\n", result.RemixAnalysis.TotalRemixes))
		buf.WriteString(fmt.Sprintf("Processed: %d\n", result.RemixAnalysis.ProcessedRemixes))
	}

	if failed := failedTracks(result); len(failed) > 0 {
		buf.WriteString("\n" + styles.err.Render("Failed Tracks") + "\n")
		for _, detail := range failed {
			buf.WriteString(fmt.Sprintf("  %s - %s: %s\n", detail.TrackArtist, detail.TrackTitle, detail.Error))
		}
	}

	return buf.Bytes()
}

// CollectionSummary renders a collection report as styled terminal text.
func CollectionSummary(report *tasks.CollectionReport) []byte {
	var buf bytes.Buffer

	buf.WriteString(styles.title.Render("Collection Analysis") + "\n")
	buf.WriteString(fmt.Sprintf("Tracks:    %d\n", report.TotalTracks))
	buf.WriteString(fmt.Sprintf("Playlists: %d\n", report.TotalPlaylists))
	buf.WriteString(fmt.Sprintf("Untagged tracks:       %d\n", report.TracksWithoutGenre))
	buf.WriteString(fmt.Sprintf("Low-confidence tracks: %d\n", report.TracksWithLowConfidence))

	if len(report.GenreDistribution) > 0 {
		buf.WriteString("\n" + styles.title.Render("Genre Distribution") + "\n")
		for _, line := range sortedCounts(report.GenreDistribution) {
			buf.WriteString(line + "\n")
		}
	}

	if audit, ok := report.PlaylistReport.(matching.ConsistencyReport); ok && len(audit.Inconsistent) > 0 {
		buf.WriteString("\n" + styles.warn.Render("Inconsistent Playlists") + "\n")
		for _, playlist := range audit.Inconsistent {
			buf.WriteString(fmt.Sprintf("  %s (tagged %q): %s\n", playlist.Name, playlist.Genre, playlist.Issue))
		}
	}

	if len(report.Recommendations) > 0 {
		buf.WriteString("\n" + styles.title.Render("Recommendations") + "\n")
		for _, recommendation := range report.Recommendations {
			buf.WriteString("  - " + recommendation + "\n")
		}
	}

	return buf.Bytes()
}

// ToJSON renders any report as pretty-printed JSON.
func ToJSON(v any) ([]byte, error) {
	return shared.MarshalJSON(v, true)
}

// sortedCounts renders a count map as aligned lines, largest first with ties
// in name order.
func sortedCounts(counts map[string]int) []string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})

	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("  %-16s %d", name, counts[name]))
	}
	return lines
}

func failedTracks(result *tasks.OrganizeResult) []tasks.TrackReport {
	var failed []tasks.TrackReport
	for _, detail := range result.Details {
		if !detail.Success {
			failed = append(failed, detail)
		}
	}
	return failed
}
