package ui

import "github.com/charmbracelet/lipgloss"

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorSuccess   = lipgloss.Color("78")  // Green
	colorDanger    = lipgloss.Color("196") // Red
)

// typeColors tints type badges; unknown types use colorSecondary.
var typeColors = map[string]lipgloss.Color{
	"normal":   "250",
	"fire":     "202",
	"water":    "39",
	"grass":    "70",
	"electric": "220",
	"ice":      "117",
	"fighting": "160",
	"poison":   "133",
	"ground":   "179",
	"flying":   "111",
	"psychic":  "205",
	"bug":      "106",
	"rock":     "137",
	"ghost":    "97",
	"dragon":   "63",
	"dark":     "95",
	"steel":    "109",
	"fairy":    "218",
}

// SelectedRow style for the highlighted row.
var SelectedRow = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary)

// NormalRow style for other rows.
var NormalRow = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255"))

// PendingRow style for summaries whose detail has not arrived.
var PendingRow = lipgloss.NewStyle().
	Foreground(colorMuted).
	Italic(true)

// HeaderStyle for the title line.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight).
	Padding(0, 1)

// ColumnHeader style for the table header row.
var ColumnHeader = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorSecondary).
	Underline(true)

// SortMark style for the active sort arrows in the column header.
var SortMark = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// MarkBadge style for compare marks A and B.
var MarkBadge = lipgloss.NewStyle().
	Foreground(lipgloss.Color("0")).
	Background(colorSuccess).
	Bold(true)

// StatusBar style for the bottom status bar.
var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// StatusBarKey style for key hints in status bar.
var StatusBarKey = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// StatusBarText style for descriptive text in status bar.
var StatusBarText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// ErrorStyle for the page error bar.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(colorDanger).
	Bold(true).
	Padding(0, 1)

// SearchBar style for the search input line.
var SearchBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("238")).
	Padding(0, 1)

// SearchMode style for the mode badge inside the search bar.
var SearchMode = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// CompareWinner style for the higher stat in a comparison row.
var CompareWinner = lipgloss.NewStyle().
	Foreground(colorSuccess).
	Bold(true)

// CompareLoser style for the lower stat in a comparison row.
var CompareLoser = lipgloss.NewStyle().
	Foreground(colorSecondary)

// ComparePanel frames the compare screen.
var ComparePanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(1, 2)

// DebugPanel frames the debug overlay.
var DebugPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorMuted).
	Padding(1, 2)

// DebugHeaderStyle for section headers in the debug overlay.
var DebugHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)

// typeStyle returns the foreground style for a type name.
func typeStyle(t string) lipgloss.Style {
	c, ok := typeColors[t]
	if !ok {
		c = colorSecondary
	}
	return lipgloss.NewStyle().Foreground(c)
}
