package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/flowcanvas/pkg/errors"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listHeaderStyle   = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

var replayHeaders = []string{"", "Line", "Intent", "Nodes", "Edges", "Δ Created", "Δ Removed", "Status"}

// =============================================================================
// ReplayModel - Interactive step browser
// =============================================================================

// ReplayModel is the bubbletea model for browsing the steps of a replay.
type ReplayModel struct {
	Steps  []replayStep
	Cursor int
	Height int
	Offset int
}

func newReplayModel(steps []replayStep) ReplayModel {
	return ReplayModel{Steps: steps, Height: 15}
}

func (m ReplayModel) Init() tea.Cmd {
	return nil
}

func (m ReplayModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc", "enter":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Steps)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "home", "g":
			m.Cursor, m.Offset = 0, 0
		case "end", "G":
			if n := len(m.Steps); n > 0 {
				m.Cursor = n - 1
				m.Offset = max(0, n-m.Height)
			}
		}
	case tea.WindowSizeMsg:
		m.Height = max(5, msg.Height-9)
	}
	return m, nil
}

func (m ReplayModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Replay"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  g/G first/last  q quit"))
	b.WriteString("\n\n")

	if len(m.Steps) == 0 {
		b.WriteString(listDimStyle.Render("  no intents"))
		b.WriteString("\n")
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.Steps))
	b.WriteString(stepTable(m.Steps[m.Offset:end], m.Cursor-m.Offset))
	b.WriteString("\n\n")

	cur := m.Steps[m.Cursor]
	if cur.Err != nil {
		b.WriteString(StyleWarning.Render(errors.UserMessage(cur.Err)))
	} else {
		b.WriteString(listSelectedStyle.Render(fmt.Sprintf("%s: %d nodes retained, %d edges retained, %d dangling",
			cur.Intent, cur.Stats.Nodes.Retained, cur.Stats.Edges.Retained, cur.Stats.Edges.Dangling)))
	}
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Steps))))

	return b.String()
}

// =============================================================================
// Tables
// =============================================================================

// replayTable renders every step without a cursor.
func replayTable(steps []replayStep) string {
	return stepTable(steps, -1)
}

// stepTable renders steps as a table. The row at cursor, if any, is
// highlighted; rejected steps are dimmed.
func stepTable(steps []replayStep, cursor int) string {
	rows := make([][]string, len(steps))
	for i, s := range steps {
		mark := "  "
		if i == cursor {
			mark = "▸ "
		}
		intent, status := s.Intent, StyleSuccess.Render(iconSuccess)
		if intent == "" {
			intent = "—"
		}
		if s.Err != nil {
			status = string(errors.GetCode(s.Err))
			if status == "" {
				status = iconError
			}
		}
		rows[i] = []string{
			mark,
			strconv.Itoa(s.Line),
			intent,
			strconv.Itoa(s.Nodes),
			strconv.Itoa(s.Edges),
			strconv.Itoa(s.Stats.Nodes.Created + s.Stats.Edges.Created),
			strconv.Itoa(s.Stats.Nodes.Removed + s.Stats.Edges.Removed),
			status,
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(replayHeaders...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return listHeaderStyle
			}
			if row < 0 || row >= len(steps) {
				return lipgloss.NewStyle()
			}
			base := lipgloss.NewStyle()
			if steps[row].Err != nil {
				base = base.Foreground(colorRed)
			}
			if row == cursor {
				return base.Bold(true).Foreground(colorCyan)
			}
			if col == 1 {
				return base.Foreground(colorDim)
			}
			return base
		})

	return t.Render()
}
