package monitor

import (
	"fmt"
	"slices"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/trimpotd/trimpotd"
)

type model struct {
	table table.Model
}

func newTUI() *model {
	columns := []table.Column{
		{Title: "Pots", Width: 20},
		{Title: "Wipers", Width: 16},
		{Title: "Trim sources", Width: 24},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(false),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		Foreground(lipgloss.Color("#00afff")).
		BorderForeground(lipgloss.Color("#00afff")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#ffffff")).
		Bold(false)
	t.SetStyles(s)

	return &model{
		table: t,
	}
}

func (m *model) Init() tea.Cmd {
	return nil
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.table.SetWidth(msg.Width)
		m.table.SetHeight(msg.Height)
	case []trimpotd.Evaluation:
		m.update(msg)
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	}
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *model) View() string {
	return m.table.View()
}

func (m *model) update(evals []trimpotd.Evaluation) {
	slices.SortStableFunc(evals, func(a, b trimpotd.Evaluation) int {
		if a.Pot < b.Pot {
			return -1
		}
		return 1
	})

	rows := make([]table.Row, 0, len(evals))
	for _, eval := range evals {
		wiper := fmt.Sprintf("%3d (%3.0f%%)", eval.Position, float64(eval.Position)*100/255)
		if eval.Shutdown {
			wiper = "parked"
		}

		source := fmt.Sprintf("%s %.1f°C", eval.TemperatureName, eval.Temperature)
		if eval.Manual {
			source = "manual"
		}

		rows = append(rows, table.Row{
			fmt.Sprintf("pot%d(%s)", eval.Pot, eval.Label),
			wiper,
			source,
		})
	}

	m.table.SetRows(rows)
}
