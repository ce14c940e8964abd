package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"sixthed-backend/internal/action"
	"sixthed-backend/internal/cardstate"
	"sixthed-backend/internal/catalog"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// UI styling constants, mirroring the teacher's panel/header/status
// palette (cmd/cli/ui.go) but applied to this engine's own GameState
// shape instead of Terraforming Mars's player/resource model.
var (
	primaryColor   = lipgloss.Color("#7C3AED")
	secondaryColor = lipgloss.Color("#06B6D4")
	accentColor    = lipgloss.Color("#10B981")
	warningColor   = lipgloss.Color("#F59E0B")
	errorColor     = lipgloss.Color("#EF4444")
	textColor      = lipgloss.Color("#F8FAFC")
	mutedColor     = lipgloss.Color("#94A3B8")

	baseStyle = lipgloss.NewStyle().
			Foreground(textColor)

	basePanelStyle = baseStyle.
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(1, 2).
			Margin(1, 0)

	headerStyle = baseStyle.
			Foreground(primaryColor).
			Bold(true).
			Align(lipgloss.Center)

	valueStyle = baseStyle.
			Bold(true).
			Foreground(accentColor)

	mutedStyle = baseStyle.Foreground(mutedColor)
	tapStyle   = baseStyle.Foreground(warningColor)
	stackStyle = baseStyle.Foreground(secondaryColor)
	errStyle   = baseStyle.Foreground(errorColor)
)

// UI renders a GameState as a terminal dashboard: one panel per player's
// battlefield and mana pool, a stack panel, and a command-result area.
type UI struct {
	catalog       catalog.Adapter
	state         *cardstate.GameState
	lastCommand   string
	lastResult    string
	termWidth     int
	termHeight    int
}

// NewUI creates a new UI instance bound to cat for template name lookups.
func NewUI(cat catalog.Adapter) *UI {
	ui := &UI{catalog: cat}
	ui.updateTerminalSize()
	return ui
}

func (ui *UI) updateTerminalSize() {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		width, height, err = term.GetSize(int(os.Stderr.Fd()))
	}
	if err != nil {
		width, height, err = term.GetSize(int(os.Stdin.Fd()))
	}
	if err != nil {
		ui.termWidth, ui.termHeight = 80, 24
	} else {
		ui.termWidth, ui.termHeight = width, height
	}
	if ui.termWidth < 40 {
		ui.termWidth = 40
	}
}

func (ui *UI) getPanelStyle() lipgloss.Style {
	style := basePanelStyle
	if ui.termWidth >= 80 {
		style = style.Width((ui.termWidth - 8) / 3)
	}
	return style
}

// UpdateGameState updates the state the next render draws from.
func (ui *UI) UpdateGameState(state *cardstate.GameState) {
	ui.state = state
}

// SetLastCommand sets the last command and its result for display.
func (ui *UI) SetLastCommand(command, result string) {
	ui.lastCommand = command
	ui.lastResult = result
}

func (ui *UI) cardLabel(c *cardstate.CardInstance) string {
	name := c.TemplateID
	if t, ok := ui.catalog.Lookup(c.TemplateID); ok {
		name = t.Name
	}
	if c.Tapped {
		name = tapStyle.Render(name + " (T)")
	}
	if c.Damage > 0 {
		name += errStyle.Render(fmt.Sprintf(" [%d dmg]", c.Damage))
	}
	if c.Attacking {
		name += accentColorLabel(" atk")
	}
	return name
}

func accentColorLabel(s string) string {
	return baseStyle.Foreground(accentColor).Render(s)
}

// RenderFullDisplay renders the complete dashboard: turn/phase header,
// one panel per player, the stack, and the last command's result.
func (ui *UI) RenderFullDisplay() string {
	ui.updateTerminalSize()
	if ui.state == nil {
		return mutedStyle.Render("no game in progress")
	}

	var parts []string
	parts = append(parts, ui.renderHeader())

	panels := []string{
		ui.renderPlayerPanel(cardstate.RoleP1),
		ui.renderPlayerPanel(cardstate.RoleP2),
		ui.renderStackPanel(),
	}
	if ui.termWidth < 80 {
		parts = append(parts, strings.Join(panels, "\n"))
	} else {
		parts = append(parts, lipgloss.JoinHorizontal(lipgloss.Top, panels...))
	}

	parts = append(parts, mutedStyle.Render(strings.Repeat("─", ui.termWidth)))
	if ui.lastCommand != "" || ui.lastResult != "" {
		parts = append(parts, ui.renderCommandArea())
	}
	return strings.Join(parts, "\n")
}

func (ui *UI) renderHeader() string {
	s := ui.state
	title := headerStyle.Render(fmt.Sprintf("Turn %d  %s/%s", s.TurnCount, s.Phase, s.Step))
	priority := fmt.Sprintf("Priority: %s", valueStyle.Render(string(s.PriorityPlayer)))
	active := fmt.Sprintf("Active: %s", valueStyle.Render(string(s.ActivePlayer)))
	line := title + "   " + priority + "   " + active
	if s.GameOver {
		winner := "draw"
		if s.Winner != nil {
			winner = string(*s.Winner)
		}
		line += "   " + errStyle.Render("GAME OVER, winner: "+winner)
	}
	return line
}

func (ui *UI) renderPlayerPanel(role cardstate.Role) string {
	ps := ui.state.Players[role]
	if ps == nil {
		return ""
	}

	title := headerStyle.Render(fmt.Sprintf("%s  (life %d)", role, ps.Life))
	var lines []string
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("Mana: %s", ui.renderManaPool(ps.ManaPool)))
	lines = append(lines, fmt.Sprintf("Hand: %s  Library: %s  Graveyard: %s",
		valueStyle.Render(strconv.Itoa(len(ps.Hand))),
		valueStyle.Render(strconv.Itoa(len(ps.Library))),
		valueStyle.Render(strconv.Itoa(len(ps.Graveyard)))))
	lines = append(lines, "")
	lines = append(lines, mutedStyle.Render("Battlefield:"))
	if len(ps.Battlefield) == 0 {
		lines = append(lines, mutedStyle.Render("  (empty)"))
	}
	for _, c := range ps.Battlefield {
		lines = append(lines, "  "+ui.cardLabel(c))
	}

	content := title + "\n" + strings.Join(lines, "\n")
	return ui.getPanelStyle().Render(content)
}

func (ui *UI) renderManaPool(pool cardstate.ManaPool) string {
	parts := []string{
		fmt.Sprintf("W%d", pool.W), fmt.Sprintf("U%d", pool.U), fmt.Sprintf("B%d", pool.B),
		fmt.Sprintf("R%d", pool.R), fmt.Sprintf("G%d", pool.G), fmt.Sprintf("C%d", pool.C),
	}
	return valueStyle.Render(strings.Join(parts, " "))
}

func (ui *UI) renderStackPanel() string {
	title := headerStyle.Render("Stack")
	var lines []string
	lines = append(lines, "")
	if len(ui.state.Stack) == 0 {
		lines = append(lines, mutedStyle.Render("(empty)"))
	}
	for i := len(ui.state.Stack) - 1; i >= 0; i-- {
		so := ui.state.Stack[i]
		label := so.AbilityID
		if so.Card != nil {
			label = ui.cardLabel(so.Card)
		}
		lines = append(lines, stackStyle.Render(fmt.Sprintf("%d. %s", len(ui.state.Stack)-i, label)))
	}
	content := title + "\n" + strings.Join(lines, "\n")
	return ui.getPanelStyle().Render(content)
}

func (ui *UI) renderCommandArea() string {
	var lines []string
	if ui.lastCommand != "" {
		lines = append(lines, baseStyle.Foreground(primaryColor).Render("> ")+baseStyle.Render(ui.lastCommand))
	}
	if ui.lastResult != "" {
		lines = append(lines, ui.lastResult)
	}
	return strings.Join(lines, "\n")
}

// RenderActionMenu numbers each legal action with its describeAction
// rendering, for the player currently holding priority to choose from.
func (ui *UI) RenderActionMenu(legal []action.Action, eng actionDescriber) string {
	if len(legal) == 0 {
		return mutedStyle.Render("no legal actions")
	}
	var lines []string
	for i, a := range legal {
		lines = append(lines, fmt.Sprintf("  %s %s", valueStyle.Render(fmt.Sprintf("[%d]", i)), eng.DescribeAction(a, ui.state)))
	}
	return strings.Join(lines, "\n")
}

// actionDescriber is the subset of *engine.Engine the UI needs, kept
// narrow so ui.go doesn't import the engine package directly.
type actionDescriber interface {
	DescribeAction(a action.Action, state *cardstate.GameState) string
}

// RenderPrompt renders the command prompt.
func (ui *UI) RenderPrompt() string {
	return baseStyle.Foreground(primaryColor).Render("sixthed> ")
}

// RenderMessage renders a status message with appropriate styling.
func (ui *UI) RenderMessage(kind, message string) string {
	switch kind {
	case "error":
		return errStyle.Render("✗ " + message)
	case "success":
		return baseStyle.Foreground(accentColor).Render("✓ " + message)
	default:
		return mutedStyle.Render(message)
	}
}
