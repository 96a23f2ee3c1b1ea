package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/moolen/agentdesk/internal/agent/commands"
)

const maxMenuItems = 6

// commandMenu is the slash command completion list shown above the input.
type commandMenu struct {
	visible  bool
	selected int
	filtered []commands.Entry
	registry *commands.Registry
	width    int
}

func newCommandMenu(registry *commands.Registry) *commandMenu {
	return &commandMenu{
		registry: registry,
		filtered: registry.AllEntries(),
		width:    60,
	}
}

// Filter shows the menu with the entries matching query.
func (c *commandMenu) Filter(query string) {
	c.visible = true
	c.filtered = c.registry.FuzzyMatch(query)
	if c.selected >= c.limit() {
		c.selected = 0
	}
}

func (c *commandMenu) Hide() {
	c.visible = false
	c.selected = 0
}

func (c *commandMenu) IsVisible() bool {
	return c.visible && len(c.filtered) > 0
}

func (c *commandMenu) limit() int {
	return min(len(c.filtered), maxMenuItems)
}

// Move shifts the selection by delta, wrapping at both ends.
func (c *commandMenu) Move(delta int) {
	n := c.limit()
	if n == 0 {
		return
	}
	c.selected = ((c.selected+delta)%n + n) % n
}

func (c *commandMenu) Selected() *commands.Entry {
	if c.selected >= c.limit() {
		return nil
	}
	return &c.filtered[c.selected]
}

func (c *commandMenu) View() string {
	if !c.IsVisible() {
		return ""
	}

	lines := make([]string, 0, c.limit()+1)
	for i := 0; i < c.limit(); i++ {
		e := c.filtered[i]
		name := menuCmdStyle.Render("/" + e.Name)
		pad := max(16-lipgloss.Width(name), 1)
		line := name + strings.Repeat(" ", pad) + menuDescStyle.Render(e.Description)

		style := menuItemStyle
		if i == c.selected {
			style = menuSelectedStyle
		}
		lines = append(lines, style.Width(max(c.width-6, 10)).Render(line))
	}
	if extra := len(c.filtered) - c.limit(); extra > 0 {
		lines = append(lines, menuDescStyle.Render(fmt.Sprintf("  ... and %d more", extra)))
	}

	return menuStyle.Width(max(c.width-4, 12)).Render(strings.Join(lines, "\n"))
}
