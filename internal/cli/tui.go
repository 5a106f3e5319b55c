package cli

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/fedgraph/fedgraph/pkg/dag"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// BrowseModel - Interactive node browser
// =============================================================================

// browseView selects which screen the browser shows.
type browseView int

const (
	viewList browseView = iota
	viewDetail
)

// BrowseModel is the bubbletea model for the read-only graph browser. The
// list screen shows every node in topological order; selecting one opens a
// detail screen with its metadata, dependencies, and dependents.
type BrowseModel struct {
	Graph     *dag.DAG
	GraphName string

	order  []string
	view   browseView
	cursor int
	height int
	offset int
}

// NewBrowseModel creates a browser over the given graph.
func NewBrowseModel(name string, g *dag.DAG) BrowseModel {
	return BrowseModel{
		Graph:     g,
		GraphName: name,
		order:     g.TopologicalOrder(),
		height:    15,
	}
}

func (m BrowseModel) Init() tea.Cmd {
	return nil
}

func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.view == viewDetail {
				m.view = viewList
				return m, nil
			}
			return m, tea.Quit
		case "up", "k":
			if m.view == viewList && m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.view == viewList && m.cursor < len(m.order)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "enter":
			if m.view == viewList && len(m.order) > 0 {
				m.view = viewDetail
			}
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height - 6
		if m.height < 5 {
			m.height = 5
		}
	}
	return m, nil
}

func (m BrowseModel) View() string {
	if m.view == viewDetail {
		return m.detailView()
	}
	return m.listView()
}

// listView renders the node table in topological order.
func (m BrowseModel) listView() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Graph: " + m.GraphName))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ inspect  q quit"))
	b.WriteString("\n\n")

	if len(m.order) == 0 {
		b.WriteString(listDimStyle.Render("  (empty graph)"))
		return b.String()
	}

	end := m.offset + m.height
	if end > len(m.order) {
		end = len(m.order)
	}

	rows := [][]string{}
	for i := m.offset; i < end; i++ {
		n, _ := m.Graph.Node(m.order[i])

		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{
			cursor,
			n.Name,
			string(n.Type),
			fmt.Sprintf("%d", m.Graph.InDegree(n.ID)),
			fmt.Sprintf("%d", m.Graph.OutDegree(n.ID)),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Component", "Type", "In", "Out").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.offset+row == m.cursor {
				return lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
			}
			if col >= 3 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.order))))

	return b.String()
}

// detailView renders one node's metadata and neighbors.
func (m BrowseModel) detailView() string {
	n, ok := m.Graph.Node(m.order[m.cursor])
	if !ok {
		return listDimStyle.Render("node missing")
	}

	var b strings.Builder
	b.WriteString(StyleTitle.Render(n.Name))
	b.WriteString(" " + listDimStyle.Render("["+string(n.Type)+"]"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("esc back  q quit"))
	b.WriteString("\n\n")

	b.WriteString(listDimStyle.Render("ID") + "\n")
	b.WriteString("  " + listNormalStyle.Render(n.ID) + "\n\n")

	if len(n.Metadata) > 0 {
		b.WriteString(listDimStyle.Render("Metadata") + "\n")
		keys := make([]string, 0, len(n.Metadata))
		for k := range n.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(fmt.Sprintf("  %s = %v\n", listNormalStyle.Render(k), n.Metadata[k]))
		}
		b.WriteString("\n")
	}

	b.WriteString(m.neighborSection("Depends on", m.Graph.Children(n.ID), n.ID, true))
	b.WriteString(m.neighborSection("Depended on by", m.Graph.Parents(n.ID), n.ID, false))

	return b.String()
}

// neighborSection lists one side of a node's edges with their types.
func (m BrowseModel) neighborSection(title string, ids []string, self string, outgoing bool) string {
	var b strings.Builder
	b.WriteString(listDimStyle.Render(title) + "\n")
	if len(ids) == 0 {
		b.WriteString(listDimStyle.Render("  (none)") + "\n\n")
		return b.String()
	}
	for _, id := range ids {
		var e dag.Edge
		var found bool
		if outgoing {
			e, found = m.Graph.Edge(self, id)
		} else {
			e, found = m.Graph.Edge(id, self)
		}
		label := ""
		if found {
			label = " " + listDimStyle.Render("("+string(e.Type)+")")
		}
		other, _ := m.Graph.Node(id)
		b.WriteString("  " + listNormalStyle.Render(other.Name) + label + "\n")
	}
	b.WriteString("\n")
	return b.String()
}
