package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/fragtree/pkg/tree"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// TreeListModel - Interactive selection among k-best trees
// =============================================================================

// TreeListModel is the bubbletea model for picking one of several solved
// trees. The preview pane shows the tree under the cursor.
type TreeListModel struct {
	Trees    []*tree.Tree
	Cursor   int
	Selected *tree.Tree
}

// NewTreeListModel creates a new tree list model.
func NewTreeListModel(trees []*tree.Tree) TreeListModel {
	return TreeListModel{Trees: trees}
}

func (m TreeListModel) Init() tea.Cmd {
	return nil
}

func (m TreeListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < len(m.Trees)-1 {
				m.Cursor++
			}
		case "enter":
			m.Selected = m.Trees[m.Cursor]
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m TreeListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Tree"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	best := 0.0
	if len(m.Trees) > 0 {
		best = m.Trees[0].Score
	}
	rows := make([][]string, len(m.Trees))
	for i, t := range m.Trees {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows[i] = []string{
			cursor,
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%.4f", t.Score),
			fmt.Sprintf("%.4f", t.Score-best),
			fmt.Sprintf("%d", t.Len()),
		}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Rank", "Score", "Gap", "Vertices").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case row == m.Cursor:
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(tbl.Render())
	b.WriteString("\n\n")
	if m.Cursor < len(m.Trees) {
		b.WriteString(renderTree(m.Trees[m.Cursor]))
	}
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Trees))))

	return b.String()
}

// pickTree runs the interactive picker. It returns nil when the user quits
// without selecting.
func pickTree(trees []*tree.Tree) (*tree.Tree, error) {
	final, err := tea.NewProgram(NewTreeListModel(trees)).Run()
	if err != nil {
		return nil, fmt.Errorf("tree picker: %w", err)
	}
	return final.(TreeListModel).Selected, nil
}
