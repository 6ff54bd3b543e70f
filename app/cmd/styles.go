package cmd

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary   = lipgloss.Color("39")
	colorSecondary = lipgloss.Color("86")
	colorSuccess   = lipgloss.Color("42")
	colorWarning   = lipgloss.Color("220")
	colorDim       = lipgloss.Color("241")

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Width(18)

	valueStyle = lipgloss.NewStyle().
			Foreground(colorSecondary)

	okStyle = lipgloss.NewStyle().
		Foreground(colorSuccess)

	warnStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWarning)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)
)

// row renders an aligned "label value" line.
func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), valueStyle.Render(value))
}

func optional(v *string) string {
	if v == nil {
		return dimStyle.Render("(unset)")
	}
	return *v
}
