package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/JonMunkholm/csvedit/internal/core"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("8"))
	cursorStyle = lipgloss.NewStyle().Background(lipgloss.Color("4")).Foreground(lipgloss.Color("15"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

const (
	minColWidth = 4
	maxColWidth = 30
	// widthSampleRows bounds how many rows are measured for column widths.
	widthSampleRows = 100

	defaultWidth  = 80
	defaultHeight = 24
)

// View implements tea.Model.
func (m Model) View() string {
	width, height := m.size()

	var b strings.Builder
	b.WriteString(m.titleLine())
	b.WriteString("\n")

	if m.view.Error != "" {
		b.WriteString(errorStyle.Render(" " + m.view.Error))
		b.WriteString(dimStyle.Render("  (x to dismiss)"))
		b.WriteString("\n")
	}

	if !m.view.HasTable() {
		switch {
		case m.loading != "":
			b.WriteString(dimStyle.Render(" loading " + m.loading + "..."))
		default:
			b.WriteString(dimStyle.Render(" no table loaded, press o to open a CSV file"))
		}
		b.WriteString("\n")
	} else {
		// title, header, separator, status, help and the optional error line
		dataHeight := height - 5
		if m.view.Error != "" {
			dataHeight--
		}
		b.WriteString(m.renderTable(width, max(dataHeight, 1)))
	}

	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.helpLine())
	return b.String()
}

func (m Model) size() (int, int) {
	width, height := m.width, m.height
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}
	return width, height
}

func (m Model) titleLine() string {
	name := "csvedit"
	if m.path != "" {
		name = m.path
	}
	return titleStyle.Render(" " + name)
}

func (m Model) statusLine() string {
	if m.mode == modeOpen {
		return m.prompt.View()
	}

	modeStr := "NORMAL"
	if m.mode == modeEdit {
		modeStr = "EDIT"
	}
	t := m.view.Table
	status := fmt.Sprintf(" [%d,%d] %s  %dx%d", m.cx, m.cy, modeStr, len(t.Columns), t.Len())
	if m.loading != "" && m.view.HasTable() {
		status += "  loading " + m.loading + "..."
	}
	if m.notice != "" {
		status += "  " + m.notice
	}
	return statusStyle.Render(status)
}

func (m Model) helpLine() string {
	if m.mode == modeNormal {
		return m.help.ShortHelpView(m.keys.normalHelp())
	}
	return m.help.ShortHelpView(m.keys.editHelp())
}

// keepCursorVisible scrolls so the cursor cell is inside the table window.
func (m *Model) keepCursorVisible() {
	width, height := m.size()
	dataHeight := max(height-5, 1)
	if m.cy < m.scrollY {
		m.scrollY = m.cy
	}
	if m.cy >= m.scrollY+dataHeight {
		m.scrollY = m.cy - dataHeight + 1
	}
	if m.view.HasTable() {
		m.scrollX, _ = visibleColumns(columnWidths(m.view.Table), m.cx, m.scrollX, width)
	}
}

// renderTable draws the header and the visible window of rows, keeping the
// cursor cell on screen.
func (m Model) renderTable(width, dataHeight int) string {
	t := m.view.Table
	widths := columnWidths(t)

	scrollY := m.scrollY
	if m.cy < scrollY {
		scrollY = m.cy
	}
	if m.cy >= scrollY+dataHeight {
		scrollY = m.cy - dataHeight + 1
	}
	start, end := visibleColumns(widths, m.cx, m.scrollX, width)

	var b strings.Builder
	for ci := start; ci < end; ci++ {
		b.WriteString(headerStyle.Render(" " + fit(t.Columns[ci], widths[ci]) + " "))
		if ci < end-1 {
			b.WriteString(dimStyle.Render("│"))
		}
	}
	b.WriteString("\n")

	for ci := start; ci < end; ci++ {
		b.WriteString(dimStyle.Render(strings.Repeat("─", widths[ci]+2)))
		if ci < end-1 {
			b.WriteString(dimStyle.Render("┼"))
		}
	}
	b.WriteString("\n")

	last := min(scrollY+dataHeight, t.Len())
	for ri := scrollY; ri < last; ri++ {
		for ci := start; ci < end; ci++ {
			w := widths[ci]
			var cell string
			if m.mode == modeEdit && ri == m.cy && ci == m.cx {
				cell = " " + fit(m.cell.Value()+"_", w) + " "
			} else {
				cell = " " + fit(t.Cell(ri, t.Columns[ci]), w) + " "
			}

			if ri == m.cy && ci == m.cx {
				b.WriteString(cursorStyle.Render(cell))
			} else {
				b.WriteString(cell)
			}
			if ci < end-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// columnWidths measures header names and a sample of rows, in display
// cells, within [minColWidth, maxColWidth].
func columnWidths(t core.Table) []int {
	widths := make([]int, len(t.Columns))
	for i, col := range t.Columns {
		widths[i] = max(runewidth.StringWidth(col), minColWidth)
	}
	for ri := 0; ri < min(t.Len(), widthSampleRows); ri++ {
		for i, col := range t.Columns {
			widths[i] = max(widths[i], runewidth.StringWidth(t.Cell(ri, col)))
		}
	}
	for i := range widths {
		widths[i] = min(widths[i], maxColWidth)
	}
	return widths
}

// visibleColumns returns the half-open range of columns that fit in width,
// starting at scrollX but shifted so that column cx is included.
func visibleColumns(widths []int, cx, scrollX, width int) (int, int) {
	avail := width - 2
	start := scrollX
	if cx < start || start >= len(widths) {
		start = cx
	}

	fits := func(start int) int {
		used, end := 0, start
		for end < len(widths) {
			w := widths[end] + 3 // padding + separator
			if used+w > avail && end > start {
				break
			}
			used += w
			end++
		}
		return end
	}

	end := fits(start)
	for cx >= end && start < cx {
		start++
		end = fits(start)
	}
	return start, end
}

// fit truncates or pads s to exactly w display cells.
func fit(s string, w int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if runewidth.StringWidth(s) > w {
		s = runewidth.Truncate(s, w, "…")
	}
	return runewidth.FillRight(s, w)
}
