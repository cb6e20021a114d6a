package tui

import (
	"os"
	"strings"

	"site-planner/internal/model"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// The chart has to stay readable on light and dark terminals, so every colour is an
// AdaptiveColor pair.
func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

var (
	colorMuted      = ac("240", "243")
	colorAccent     = ac("27", "62")
	colorSelectedBg = ac("#e9e9e9", "#262626")
	colorWeekendBg  = ac("254", "234")
	colorTodayBg    = ac("224", "52")
	colorPlanned    = ac("250", "239")
	colorWarn       = ac("130", "214")

	statusColors = map[model.Status]lipgloss.AdaptiveColor{
		model.StatusWaiting:    ac("245", "245"),
		model.StatusInProgress: ac("33", "39"),
		model.StatusDone:       ac("28", "35"),
		model.StatusLate:       ac("160", "196"),
		model.StatusBlocked:    ac("136", "178"),
	}
)

func statusColor(s model.Status) lipgloss.AdaptiveColor {
	if c, ok := statusColors[s]; ok {
		return c
	}
	return statusColors[model.StatusWaiting]
}

func styleMuted() lipgloss.Style { return lipgloss.NewStyle().Foreground(colorMuted) }

func styleHeader() lipgloss.Style { return lipgloss.NewStyle().Bold(true).Foreground(colorAccent) }

func styleWarn() lipgloss.Style { return lipgloss.NewStyle().Foreground(colorWarn).Italic(true) }

func styleSelected() lipgloss.Style { return lipgloss.NewStyle().Background(colorSelectedBg).Bold(true) }

func styleStatusBar() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorMuted).Padding(0, 1)
}

// applyColorProfile follows the terminal's capabilities and honours NO_COLOR. It does
// not use termenv.EnvColorProfile, which also obeys CLICOLOR and can switch colours off
// for an interactive program.
func applyColorProfile() {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	profile := termenv.ColorProfile()
	colorterm := strings.ToLower(os.Getenv("COLORTERM"))
	switch {
	case strings.Contains(colorterm, "truecolor") || strings.Contains(colorterm, "24bit"):
		if profile != termenv.Ascii {
			profile = termenv.TrueColor
		}
	case strings.Contains(strings.ToLower(os.Getenv("TERM")), "256color") && profile != termenv.TrueColor:
		profile = termenv.ANSI256
	}
	lipgloss.SetColorProfile(profile)
}
