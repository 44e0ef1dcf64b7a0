package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/pokedex/internal/controller"
	"github.com/abelbrown/pokedex/internal/filter"
	"github.com/abelbrown/pokedex/internal/model"
	"github.com/abelbrown/pokedex/internal/otel"
)

// prefetchMargin is how close to the end of the view the cursor must be
// before scrolling asks for another page.
const prefetchMargin = 5

// Lister is the controller surface the App drives.
type Lister interface {
	LoadInitial()
	Refresh()
	SetPredicate(p filter.Predicate)
	ToggleCriterion(key filter.Key, ascending bool)
	SetCriteria(cs filter.Criteria)
	Snapshot() controller.Snapshot
	Record(name string) (model.Record, bool)
}

// Scroller coalesces load-more requests. *controller.Debouncer satisfies it.
type Scroller interface {
	Trigger()
	Stop()
}

// AppConfig holds the App's collaborators. Lister is required.
type AppConfig struct {
	Lister     Lister
	Scroll     Scroller
	Ring       *otel.RingBuffer // optional: nil disables the debug overlay
	SearchMode filter.Mode
}

// App is the root Bubble Tea model.
// IMPORTANT: App does NOT hold list data of its own. It renders the latest
// controller snapshot, delivered as SnapshotMsg.
type App struct {
	list   Lister
	scroll Scroller
	ring   *otel.RingBuffer

	snap   controller.Snapshot
	cursor int
	marks  marks

	search    textinput.Model
	searching bool
	mode      filter.Mode

	spinner   spinner.Model
	showDebug bool
	comparing bool
	notice    string

	width  int
	height int
	ready  bool
}

// NewApp creates an App. The initial snapshot is read from the Lister so
// the first frame reflects any state set before the program started.
func NewApp(cfg AppConfig) App {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "search"
	ti.CharLimit = 64

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SortMark

	return App{
		list:    cfg.Lister,
		scroll:  cfg.Scroll,
		ring:    cfg.Ring,
		snap:    cfg.Lister.Snapshot(),
		search:  ti,
		mode:    cfg.SearchMode,
		spinner: s,
	}
}

// Key bindings
var keys = struct {
	Quit     key.Binding
	Down     key.Binding
	Up       key.Binding
	PageDown key.Binding
	PageUp   key.Binding
	Top      key.Binding
	Bottom   key.Binding
	Search   key.Binding
	Mode     key.Binding
	Sort     key.Binding
	Clear    key.Binding
	Refresh  key.Binding
	Mark     key.Binding
	Compare  key.Binding
	Debug    key.Binding
	Escape   key.Binding
	Enter    key.Binding
}{
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c")),
	Down:     key.NewBinding(key.WithKeys("j", "down")),
	Up:       key.NewBinding(key.WithKeys("k", "up")),
	PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+d")),
	PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+u")),
	Top:      key.NewBinding(key.WithKeys("g", "home")),
	Bottom:   key.NewBinding(key.WithKeys("G", "end")),
	Search:   key.NewBinding(key.WithKeys("/")),
	Mode:     key.NewBinding(key.WithKeys("tab")),
	Sort:     key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8")),
	Clear:    key.NewBinding(key.WithKeys("x")),
	Refresh:  key.NewBinding(key.WithKeys("r")),
	Mark:     key.NewBinding(key.WithKeys("c")),
	Compare:  key.NewBinding(key.WithKeys("C")),
	Debug:    key.NewBinding(key.WithKeys("d")),
	Escape:   key.NewBinding(key.WithKeys("esc")),
	Enter:    key.NewBinding(key.WithKeys("enter")),
}

// Init starts the spinner and the first page load.
func (a App) Init() tea.Cmd {
	list := a.list
	return tea.Batch(a.spinner.Tick, func() tea.Msg {
		list.LoadInitial()
		return nil
	})
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if a.searching {
			return a.handleSearchKey(msg)
		}
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.search.Width = max(msg.Width-20, 10)
		return a, nil

	case SnapshotMsg:
		// The subscription may still hold snapshots older than the one read
		// at construction.
		if msg.Seq < a.snap.Seq {
			return a, nil
		}
		a.snap = msg.Snapshot
		a.clampCursor()
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	return a, nil
}

// handleKeyMsg processes keyboard input outside search mode.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a.notice = ""

	if a.comparing {
		switch {
		case key.Matches(msg, keys.Quit):
			return a.quit()
		case key.Matches(msg, keys.Escape), key.Matches(msg, keys.Compare):
			a.comparing = false
		}
		return a, nil
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return a.quit()

	case key.Matches(msg, keys.Down):
		a.moveCursor(1)
	case key.Matches(msg, keys.Up):
		a.moveCursor(-1)
	case key.Matches(msg, keys.PageDown):
		a.moveCursor(a.listHeight())
	case key.Matches(msg, keys.PageUp):
		a.moveCursor(-a.listHeight())
	case key.Matches(msg, keys.Top):
		a.cursor = 0
	case key.Matches(msg, keys.Bottom):
		a.moveCursor(len(a.snap.View))

	case key.Matches(msg, keys.Search):
		a.searching = true
		a.search.SetValue(a.snap.Predicate.Query)
		a.search.CursorEnd()
		return a, a.search.Focus()

	case key.Matches(msg, keys.Mode):
		a.toggleMode()

	case key.Matches(msg, keys.Sort):
		k := filter.AllKeys()[int(msg.Runes[0]-'1')]
		a.list.ToggleCriterion(k, k.Field != filter.FieldStat)

	case key.Matches(msg, keys.Clear):
		a.list.SetCriteria(nil)

	case key.Matches(msg, keys.Refresh):
		a.cursor = 0
		a.list.Refresh()

	case key.Matches(msg, keys.Mark):
		a.toggleMark()

	case key.Matches(msg, keys.Compare):
		a.openCompare()

	case key.Matches(msg, keys.Debug):
		if a.ring != nil {
			a.showDebug = !a.showDebug
		}

	case key.Matches(msg, keys.Escape):
		a.showDebug = false
	}

	return a, nil
}

// handleSearchKey routes keys to the search input and pushes every edit
// to the controller as the new predicate.
func (a App) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return a.quit()
	case key.Matches(msg, keys.Enter):
		a.searching = false
		a.search.Blur()
		return a, nil
	case key.Matches(msg, keys.Escape):
		a.searching = false
		a.search.Blur()
		a.search.SetValue("")
		a.applySearch()
		return a, nil
	case key.Matches(msg, keys.Mode):
		a.toggleMode()
		return a, nil
	}

	before := a.search.Value()
	var cmd tea.Cmd
	a.search, cmd = a.search.Update(msg)
	if a.search.Value() != before {
		a.applySearch()
	}
	return a, cmd
}

func (a *App) applySearch() {
	a.cursor = 0
	a.list.SetPredicate(filter.Predicate{Mode: a.mode, Query: a.search.Value()})
}

func (a *App) toggleMode() {
	a.mode = a.mode.Toggle()
	query := a.snap.Predicate.Query
	if a.searching {
		query = a.search.Value()
	}
	if query != "" {
		a.cursor = 0
		a.list.SetPredicate(filter.Predicate{Mode: a.mode, Query: query})
	}
}

func (a App) quit() (tea.Model, tea.Cmd) {
	if a.scroll != nil {
		a.scroll.Stop()
	}
	return a, tea.Quit
}

// moveCursor moves by delta within the view and asks for more data when
// the cursor lands near the end of what is loaded.
func (a *App) moveCursor(delta int) {
	n := len(a.snap.View)
	if n == 0 {
		return
	}
	a.cursor = min(max(a.cursor+delta, 0), n-1)

	if a.scroll != nil && delta > 0 && a.cursor >= n-prefetchMargin && a.snap.Cursor.HasMore {
		a.scroll.Trigger()
	}
}

func (a *App) clampCursor() {
	if a.cursor >= len(a.snap.View) {
		a.cursor = max(len(a.snap.View)-1, 0)
	}
}

func (a App) selected() (model.Record, bool) {
	if a.cursor < 0 || a.cursor >= len(a.snap.View) {
		return model.Record{}, false
	}
	return a.snap.View[a.cursor], true
}

// toggleMark cycles compare marks: the first mark is A, the second B, a
// third starts over. Marking an already-marked record clears it.
func (a *App) toggleMark() {
	r, ok := a.selected()
	if !ok {
		return
	}
	switch r.Name {
	case a.marks[0]:
		a.marks = marks{a.marks[1], ""}
	case a.marks[1]:
		a.marks[1] = ""
	default:
		switch {
		case a.marks[0] == "":
			a.marks[0] = r.Name
		case a.marks[1] == "":
			a.marks[1] = r.Name
		default:
			a.marks = marks{r.Name, ""}
		}
	}
}

func (a *App) openCompare() {
	if a.marks[0] == "" || a.marks[1] == "" {
		a.notice = "mark two entries with c to compare"
		return
	}
	if _, ok := a.list.Record(a.marks[0]); !ok {
		a.notice = a.marks[0] + " is no longer loaded"
		return
	}
	if _, ok := a.list.Record(a.marks[1]); !ok {
		a.notice = a.marks[1] + " is no longer loaded"
		return
	}
	a.comparing = true
}

// listHeight is the number of terminal lines available to the table.
func (a App) listHeight() int {
	h := a.height - 2 // title + status bar
	if a.searching || !a.snap.Predicate.Empty() {
		h--
	}
	if a.snap.State == controller.Error || a.notice != "" {
		h--
	}
	return max(h, 1)
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}

	if a.showDebug && a.ring != nil {
		return debugOverlay(a.ring, a.width, a.height-1) + "\n" + debugStatusBar(a.width)
	}

	if a.comparing {
		left, lok := a.list.Record(a.marks[0])
		right, rok := a.list.Record(a.marks[1])
		if lok && rok {
			return RenderCompare(left, right, a.width) + "\n" + compareStatusBar(a.width)
		}
	}

	var b strings.Builder
	b.WriteString(a.renderTitle())
	b.WriteString("\n")

	if a.searching || !a.snap.Predicate.Empty() {
		b.WriteString(a.renderSearchBar())
		b.WriteString("\n")
	}

	b.WriteString(RenderList(a.snap.View, a.cursor, a.marks, a.snap.Criteria, a.width, a.listHeight()))

	// Error bar sits above the status bar.
	switch {
	case a.snap.State == controller.Error && a.snap.Err != nil:
		b.WriteString(ErrorStyle.Width(a.width).Render("Error: " + a.snap.Err.Error() + " (press r to retry)"))
		b.WriteString("\n")
	case a.notice != "":
		b.WriteString(StatusBarText.Width(a.width).Render(a.notice))
		b.WriteString("\n")
	}

	b.WriteString(RenderStatusBar(a.snap, a.cursor, a.spinner.View(), a.width))
	return b.String()
}

func (a App) renderTitle() string {
	title := "POKEDEX"
	if len(a.snap.Criteria) > 0 {
		title += " │ sort " + a.snap.Criteria.String()
	}
	if a.marks[0] != "" {
		title += fmt.Sprintf(" │ A:%s", a.marks[0])
	}
	if a.marks[1] != "" {
		title += fmt.Sprintf(" B:%s", a.marks[1])
	}
	return HeaderStyle.Render(title)
}

func (a App) renderSearchBar() string {
	mode := SearchMode.Render("[" + a.mode.String() + "]")
	if a.searching {
		return SearchBar.Width(a.width).Render(mode + " " + a.search.View())
	}
	return SearchBar.Width(a.width).Render(mode + " / " + a.snap.Predicate.Query)
}

// Cursor returns the current cursor position (for testing).
func (a App) Cursor() int {
	return a.cursor
}

// Marks returns the compare marks A and B (for testing).
func (a App) Marks() (string, string) {
	return a.marks[0], a.marks[1]
}

// Comparing reports whether the compare screen is open (for testing).
func (a App) Comparing() bool {
	return a.comparing
}

// Searching reports whether the search input has focus (for testing).
func (a App) Searching() bool {
	return a.searching
}
