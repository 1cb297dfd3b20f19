package welcome

import (
	"charm.land/lipgloss/v2"

	"github.com/adaptlearn/termtutor/internal/ui/theme"
)

const bannerArt = `
 ████████╗███████╗██████╗ ███╗   ███╗████████╗██╗   ██╗████████╗ ██████╗ ██████╗
 ╚══██╔══╝██╔════╝██╔══██╗████╗ ████║╚══██╔══╝██║   ██║╚══██╔══╝██╔═══██╗██╔══██╗
    ██║   █████╗  ██████╔╝██╔████╔██║   ██║   ██║   ██║   ██║   ██║   ██║██████╔╝
    ██║   ██╔══╝  ██╔══██╗██║╚██╔╝██║   ██║   ██║   ██║   ██║   ██║   ██║██╔══██╗
    ██║   ███████╗██║  ██║██║ ╚═╝ ██║   ██║   ╚██████╔╝   ██║   ╚██████╔╝██║  ██║
    ╚═╝   ╚══════╝╚═╝  ╚═╝╚═╝     ╚═╝   ╚═╝    ╚═════╝    ╚═╝    ╚═════╝ ╚═╝  ╚═╝`

const bannerCompact = "T E R M T U T O R"

// RenderBanner returns the TERMTUTOR banner styled in the primary color.
// Uses a compact fallback for terminals narrower than 86 columns.
func RenderBanner(width int) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	if width < 86 {
		return style.Render(bannerCompact)
	}
	return style.Render(bannerArt)
}
