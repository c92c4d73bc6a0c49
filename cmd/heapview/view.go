package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const barWidth = 40

func (m model) View() string {
	var b strings.Builder

	title := "heapview"
	if m.paused {
		title += "  " + pausedStyle.Render("[paused]")
	}
	b.WriteString(headerStyle.Render(title))
	b.WriteString("\n")

	left := paneStyle.Render(m.renderBins())
	right := paneStyle.Render(m.renderStats())
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	b.WriteString("\n")

	if m.lastErr != nil {
		b.WriteString(errorStyle.Render("ERROR: " + m.lastErr.Error()))
		b.WriteString("\n")
	}
	b.WriteString(statusStyle.Render("space pause  t trim  c audit  q quit"))
	return b.String()
}

// renderBins draws one occupancy bar per populated bin group.
func (m model) renderBins() string {
	var b strings.Builder
	b.WriteString(labelStyle.Render("free chunks per bin"))
	b.WriteString("\n\n")

	maxCount := 1
	for _, c := range m.bins.Small {
		maxCount = max(maxCount, c)
	}
	for _, c := range m.bins.Tree {
		maxCount = max(maxCount, c)
	}

	rows := 0
	for idx, c := range m.bins.Small {
		if c == 0 {
			continue
		}
		fmt.Fprintf(&b, "s%-3d %s %d\n", idx*8, bar(c, maxCount), c)
		rows++
	}
	for idx, c := range m.bins.Tree {
		if c == 0 {
			continue
		}
		fmt.Fprintf(&b, "t%-3d %s %d\n", idx, bar(c, maxCount), c)
		rows++
	}
	if rows == 0 {
		b.WriteString(labelStyle.Render("(all bins empty)"))
	}
	return b.String()
}

func bar(count, maxCount int) string {
	n := count * barWidth / maxCount
	if n == 0 {
		n = 1
	}
	return barStyle.Render(strings.Repeat("█", n))
}

func (m model) renderStats() string {
	var b strings.Builder
	row := func(label, format string, args ...any) {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-12s", label)))
		fmt.Fprintf(&b, format+"\n", args...)
	}

	row("live", "%d allocations", len(m.refs))
	row("allocs", "%d (%d fast, %d slow)", m.stats.AllocCalls, m.stats.AllocFastPath, m.stats.AllocSlowPath)
	row("frees", "%d", m.stats.FreeCalls)
	row("footprint", "%s", formatBytes(m.h.Footprint()))
	row("top chunk", "%s", formatBytes(int64(m.bins.TopSize)))
	row("victim", "%s", formatBytes(int64(m.bins.DvSize)))
	row("segments", "%d", m.segs)
	row("splits", "%d", m.stats.SplitCount)
	row("coalesces", "%d fwd / %d back", m.stats.CoalesceForward, m.stats.CoalesceBackward)
	row("source", "s=%d t=%d v=%d top=%d",
		m.stats.SmallBinAllocs, m.stats.TreeBinAllocs, m.stats.DvAllocs, m.stats.TopAllocs)
	row("audits", "%d", m.audits)
	if m.trimmed > 0 {
		row("trimmed", "%s", formatBytes(m.trimmed))
	}
	return b.String()
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
