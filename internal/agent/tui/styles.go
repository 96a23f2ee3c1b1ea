package tui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	colorPrimary = lipgloss.Color("#00D4FF") // Cyan
	colorSuccess = lipgloss.Color("#10B981") // Green
	colorWarning = lipgloss.Color("#F59E0B") // Yellow/Orange
	colorError   = lipgloss.Color("#EF4444") // Red
	colorMuted   = lipgloss.Color("#6B7280") // Gray
	colorText    = lipgloss.Color("#E5E7EB") // Light gray
	colorDim     = lipgloss.Color("#4B5563") // Darker gray
)

// Header styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	statusStyle = lipgloss.NewStyle().
			Foreground(colorMuted)
)

// Input styles
var (
	inputPromptStyle = lipgloss.NewStyle().
				Foreground(colorSuccess).
				Bold(true)

	waitingStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Italic(true)
)

// Transcript styles
var (
	userMessageStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("#1E3A5F")). // Dark blue background
				Foreground(colorText).
				Padding(0, 1)

	userMessageLabelStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	agentLabelStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	toolCallStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	infoStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)
)

// Separator style
var (
	separatorStyle = lipgloss.NewStyle().
		Foreground(colorDim)
)

// Help bar style
var (
	helpStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(colorPrimary)
)

// Command menu styles
var (
	menuStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(0, 1)

	menuItemStyle = lipgloss.NewStyle().
			Foreground(colorText).
			PaddingLeft(1)

	menuSelectedStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Background(lipgloss.Color("#1E3A5F")).
				Bold(true).
				PaddingLeft(1)

	menuCmdStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	menuDescStyle = lipgloss.NewStyle().
			Foreground(colorMuted)
)

// Spinner style
var (
	spinnerStyle = lipgloss.NewStyle().
		Foreground(colorPrimary)
)
