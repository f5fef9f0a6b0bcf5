package finance

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"dashboardBot/internal/storage"

	"github.com/vicanso/go-charts/v2"
)

// UsageAnalytics renders the request log as charts and text.
type UsageAnalytics struct{}

func NewUsageAnalytics() *UsageAnalytics {
	return &UsageAnalytics{}
}

// MakeUsageChart draws the share of requests per category as a pie.
func (ua *UsageAnalytics) MakeUsageChart(stats map[string]*storage.UsageStats, days int) ([]byte, error) {
	if len(stats) == 0 {
		return nil, errors.New("no usage data available")
	}

	categories := sortedCategories(stats)
	total := totalCount(stats)
	values := make([]float64, len(categories))
	labels := make([]string, len(categories))
	for i, category := range categories {
		values[i] = float64(stats[category].Count)
		labels[i] = fmt.Sprintf("%s (%.1f%%)", category, values[i]/float64(total)*100)
	}

	p, err := charts.PieRender(
		values,
		charts.TitleTextOptionFunc(fmt.Sprintf("Requests by category (%d days)", days)),
		charts.LegendOptionFunc(charts.LegendOption{
			Data: labels,
			Top:  charts.PositionBottom,
		}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(800),
		charts.HeightOptionFunc(600),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render usage chart: %w", err)
	}
	return p.Bytes()
}

// MakeUsageTimeSeriesChart draws one line per category over the request-count buckets.
func (ua *UsageAnalytics) MakeUsageTimeSeriesChart(series map[string][]storage.TimeSeriesPoint, days int) ([]byte, error) {
	if len(series) == 0 {
		return nil, errors.New("no time series data available")
	}

	seen := map[int64]struct{}{}
	var buckets []int64
	for _, points := range series {
		for _, p := range points {
			if _, ok := seen[p.Timestamp]; !ok {
				seen[p.Timestamp] = struct{}{}
				buckets = append(buckets, p.Timestamp)
			}
		}
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i] < buckets[j] })

	layout := "01/02"
	if days <= 1 {
		layout = "15:04"
	} else if days <= 7 {
		layout = "Mon 15:04"
	}
	xLabels := make([]string, len(buckets))
	for i, ts := range buckets {
		xLabels[i] = time.Unix(ts, 0).UTC().Format(layout)
	}

	names := make([]string, 0, len(series))
	for category := range series {
		names = append(names, category)
	}
	sort.Strings(names)

	values := make([][]float64, len(names))
	for i, category := range names {
		counts := make(map[int64]int, len(series[category]))
		for _, p := range series[category] {
			counts[p.Timestamp] = p.Count
		}
		row := make([]float64, len(buckets))
		for j, ts := range buckets {
			row[j] = float64(counts[ts])
		}
		values[i] = row
	}

	p, err := charts.LineRender(
		values,
		charts.XAxisOptionFunc(charts.XAxisOption{Data: xLabels}),
		charts.TitleTextOptionFunc(fmt.Sprintf("Requests over time (%d days)", days)),
		charts.LegendOptionFunc(charts.LegendOption{
			Data: names,
			Top:  charts.PositionBottom,
		}),
		charts.YAxisOptionFunc(charts.YAxisOption{}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(1000),
		charts.HeightOptionFunc(600),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render usage series: %w", err)
	}
	return p.Bytes()
}

// FormatUsageStatsText summarizes the request log, top five commands per category.
func (ua *UsageAnalytics) FormatUsageStatsText(stats map[string]*storage.UsageStats, days int) string {
	if len(stats) == 0 {
		return "No usage data available for the specified period."
	}

	total := totalCount(stats)
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Usage (%d days)\n\n", days)
	fmt.Fprintf(&b, "Total commands: %d\n\n", total)

	for _, category := range sortedCategories(stats) {
		st := stats[category]
		fmt.Fprintf(&b, "%s (%d commands, %.1f%%)\n",
			formatCategoryName(category), st.Count, float64(st.Count)/float64(total)*100)

		commands := make([]string, 0, len(st.Commands))
		for cmd := range st.Commands {
			commands = append(commands, cmd)
		}
		sort.Slice(commands, func(i, j int) bool {
			ci, cj := st.Commands[commands[i]], st.Commands[commands[j]]
			if ci != cj {
				return ci > cj
			}
			return commands[i] < commands[j]
		})
		for i, cmd := range commands {
			if i >= 5 {
				break
			}
			fmt.Fprintf(&b, "  • %s: %d\n", cmd, st.Commands[cmd])
		}
		b.WriteString("\n")
	}
	return b.String()
}

func sortedCategories(stats map[string]*storage.UsageStats) []string {
	out := make([]string, 0, len(stats))
	for category := range stats {
		out = append(out, category)
	}
	sort.Strings(out)
	return out
}

func totalCount(stats map[string]*storage.UsageStats) int {
	n := 0
	for _, st := range stats {
		n += st.Count
	}
	return n
}

func formatCategoryName(category string) string {
	switch category {
	case "dashboard":
		return "📈 Dashboards"
	case "commentary":
		return "🤖 AI Commentary"
	case "universe":
		return "🔎 Ticker Lookup"
	case "usage":
		return "📊 Usage"
	case "help":
		return "❓ Help"
	default:
		return category
	}
}
