package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/gvbind/pkg/gv"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// EngineListModel - Interactive layout engine selection
// =============================================================================

// EngineListModel is the bubbletea model for interactive engine selection.
type EngineListModel struct {
	Engines  []gv.Engine
	Cursor   int
	Selected *gv.Engine
}

// NewEngineListModel creates an engine list with the cursor on current,
// or on the first engine when current is empty or unknown.
func NewEngineListModel(current string) EngineListModel {
	m := EngineListModel{Engines: gv.Engines()}
	if e, err := gv.ParseEngine(current); err == nil {
		for i, candidate := range m.Engines {
			if candidate == e {
				m.Cursor = i
			}
		}
	}
	return m
}

func (m EngineListModel) Init() tea.Cmd {
	return nil
}

func (m EngineListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < len(m.Engines)-1 {
			m.Cursor++
		}
	case "home", "g":
		m.Cursor = 0
	case "end", "G":
		m.Cursor = len(m.Engines) - 1
	case "enter":
		e := m.Engines[m.Cursor]
		m.Selected = &e
		return m, tea.Quit
	}
	return m, nil
}

func (m EngineListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Layout Engine"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	for i, e := range m.Engines {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		line := fmt.Sprintf("%s%-10s %s", cursor, e, listDimStyle.Render(e.Description()))
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Engines))))
	return b.String()
}

// pickEngineInteractive runs the engine picker and reports whether the user
// chose one.
func pickEngineInteractive(current string) (gv.Engine, bool, error) {
	final, err := tea.NewProgram(NewEngineListModel(current)).Run()
	if err != nil {
		return 0, false, fmt.Errorf("engine picker: %w", err)
	}
	m := final.(EngineListModel)
	if m.Selected == nil {
		return 0, false, nil
	}
	return *m.Selected, true, nil
}
