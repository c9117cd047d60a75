package views

import (
	"fmt"
	"strings"

	"github.com/buemura/advaudit/internal/tui/styles"
	"github.com/buemura/advaudit/pkg/types"
	tea "github.com/charmbracelet/bubbletea"
)

// CheckItem represents a check available in the menu.
type CheckItem struct {
	ID       string
	Label    string
	Category string
	Severity types.Severity
	Enabled  bool
}

// MenuModel is the view model for the check selection menu. Enabled
// checks start out selected.
type MenuModel struct {
	items    []CheckItem
	selected map[int]bool
	cursor   int
}

// NewMenuModel creates a menu with the given check items.
func NewMenuModel(items []CheckItem) MenuModel {
	selected := make(map[int]bool, len(items))
	for i, item := range items {
		if item.Enabled {
			selected[i] = true
		}
	}
	return MenuModel{items: items, selected: selected}
}

// Init returns nil (no initial command).
func (m MenuModel) Init() tea.Cmd {
	return nil
}

// Update handles key navigation and selection in the menu.
func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case " ", "x":
			if len(m.items) > 0 {
				m.selected = cloneSelection(m.selected)
				m.selected[m.cursor] = !m.selected[m.cursor]
			}
		case "a":
			all := len(m.Selected()) == len(m.items)
			m.selected = make(map[int]bool, len(m.items))
			if !all {
				for i := range m.items {
					m.selected[i] = true
				}
			}
		case "q":
			return m, tea.Quit
		}
	}
	return m, nil
}

// View renders the check selection menu.
func (m MenuModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("advaudit - Interactive Mode"))
	b.WriteString("\n\n")
	b.WriteString(styles.HeaderStyle.Render("Select checks to run:"))
	b.WriteString("\n")

	category := ""
	for i, item := range m.items {
		if item.Category != category {
			category = item.Category
			b.WriteString(styles.HelpStyle.Render(strings.ToUpper(category)))
			b.WriteString("\n")
		}

		cursor := "  "
		nameStyle := styles.HelpStyle
		if i == m.cursor {
			cursor = styles.CursorStyle.Render("> ")
			nameStyle = styles.SelectedStyle
		}
		box := "[ ]"
		if m.selected[i] {
			box = "[x]"
		}

		b.WriteString(fmt.Sprintf("%s%s %s  %s  %s\n",
			cursor,
			box,
			nameStyle.Render(item.ID),
			styles.SeverityStyle(item.Severity).Render(string(item.Severity)),
			styles.HelpStyle.Render(item.Label),
		))
	}

	b.WriteString("\n")
	b.WriteString(styles.HelpStyle.Render(fmt.Sprintf("%d selected • ↑/↓ navigate • space toggle • a all • enter run • q quit", len(m.Selected()))))

	return b.String()
}

// Selected returns the ids of the selected checks in menu order.
func (m MenuModel) Selected() []string {
	var ids []string
	for i, item := range m.items {
		if m.selected[i] {
			ids = append(ids, item.ID)
		}
	}
	return ids
}

// Current returns the highlighted check item, or nil if empty.
func (m MenuModel) Current() *CheckItem {
	if len(m.items) == 0 {
		return nil
	}
	return &m.items[m.cursor]
}

// Cursor returns the current cursor position.
func (m MenuModel) Cursor() int {
	return m.cursor
}

// Items returns the menu items.
func (m MenuModel) Items() []CheckItem {
	return m.items
}

func cloneSelection(in map[int]bool) map[int]bool {
	out := make(map[int]bool, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
