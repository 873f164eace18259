package ui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/reeladmin/internal/formatter"
	"github.com/desertthunder/reeladmin/internal/listing"
	"github.com/desertthunder/reeladmin/internal/models"
	"github.com/desertthunder/reeladmin/internal/shared"
	"github.com/desertthunder/reeladmin/internal/tasks"
)

const (
	maxColumnWidth = 32
	inFlightMarker = "• "
	defaultWidth   = 120
)

// Screen describes one management screen.
type Screen[T models.Record] struct {
	Title      string
	Controller *listing.Controller[T]
	// Rows renders records; the first column must be the record key.
	Rows func([]T) formatter.Table
	// Coordinator and Toggle enable the t key. Either nil makes the screen read-only.
	Coordinator *tasks.Coordinator
	Toggle      func(ctx context.Context, id string) error
	// Updates is the coordinator's progress channel, if any.
	Updates <-chan tasks.Update
	// Header renders a summary above the table from the full collection.
	Header func(items []T) string
	// SortColumns maps sort fields to table headers where the names differ.
	SortColumns map[string]string
}

// Model is the TUI state for one [Screen].
type Model[T models.Record] struct {
	ctx       context.Context
	screen    Screen[T]
	table     table.Model
	input     textinput.Model
	help      help.Model
	keys      keyMap
	searching bool
	prevTerm  string
	page      listing.Page[T]
	status    string
	statusErr bool
	err       error
	width     int
	height    int
}

// NewModel creates a model for screen.
func NewModel[T models.Record](ctx context.Context, screen Screen[T]) *Model[T] {
	input := textinput.New()
	input.Prompt = "search: "
	input.Placeholder = "type to filter"
	input.CharLimit = 64

	t := table.New(table.WithFocused(true), table.WithHeight(listing.PageSize+1), table.WithWidth(defaultWidth))

	return &Model[T]{
		ctx:    ctx,
		screen: screen,
		table:  t,
		input:  input,
		help:   help.New(),
		keys:   newKeyMap(),
	}
}

// Err returns the error that ended the program, if any.
func (m *Model[T]) Err() error { return m.err }

// Init loads the collection and starts listening for coordinator updates.
func (m *Model[T]) Init() tea.Cmd {
	load := m.load()
	if m.screen.Updates == nil {
		return load
	}
	return tea.Batch(load, m.waitForUpdate())
}

// Update handles incoming messages and updates the model state.
func (m *Model[T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetWidth(msg.Width - 2)
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.handleSearchKeys(msg)
		}
		return m.handleKeys(msg)

	case loadedMsg:
		if msg.err != nil {
			return m.fail(msg.err)
		}
		m.refresh()
		return m, nil

	case toggledMsg:
		if msg.err != nil {
			if errors.Is(msg.err, shared.ErrMutationInFlight) {
				m.setStatus(fmt.Sprintf("%s is already being updated", msg.id), true)
				return m, nil
			}
			return m.fail(msg.err)
		}
		m.setStatus(fmt.Sprintf("toggled %s", msg.id), false)
		m.refresh()
		if err := m.screen.Controller.Err(); err != nil {
			return m.fail(err)
		}
		return m, nil

	case progressUpdateMsg:
		u := tasks.Update(msg)
		m.setStatus(u.Message, u.Err != nil)
		m.refresh()
		return m, m.waitForUpdate()

	case updatesClosedMsg:
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// fail records err on the status line, ending the program when the session can no longer be used.
func (m *Model[T]) fail(err error) (tea.Model, tea.Cmd) {
	if errors.Is(err, shared.ErrSessionExpired) || errors.Is(err, shared.ErrUnauthenticated) {
		m.err = err
		return m, tea.Quit
	}
	m.setStatus(err.Error(), true)
	return m, nil
}

func (m *Model[T]) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

func (m *Model[T]) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctrl := m.screen.Controller

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.search):
		m.searching = true
		m.prevTerm = ctrl.View().SearchTerm
		m.input.SetValue(m.prevTerm)
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.sort):
		_ = ctrl.ToggleSort(nextField(ctrl.Schema().FieldNames(), ctrl.View().SortField))
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.order):
		_ = ctrl.ToggleSort(ctrl.View().SortField)
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.next):
		if ctrl.NextPage() {
			m.table.SetCursor(0)
			m.refresh()
		}
		return m, nil

	case key.Matches(msg, m.keys.prev):
		if ctrl.PrevPage() {
			m.table.SetCursor(0)
			m.refresh()
		}
		return m, nil

	case key.Matches(msg, m.keys.genre):
		if cats := ctrl.Categories(); cats != nil {
			ctrl.SetCategory(nextCategory(cats, ctrl.View().Category))
			m.table.SetCursor(0)
			m.refresh()
		}
		return m, nil

	case key.Matches(msg, m.keys.toggle):
		return m, m.toggleSelected()

	case key.Matches(msg, m.keys.reload):
		m.setStatus("reloading...", false)
		return m, m.load()
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model[T]) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctrl := m.screen.Controller

	switch {
	case key.Matches(msg, m.keys.accept):
		m.searching = false
		m.input.Blur()
		return m, nil
	case key.Matches(msg, m.keys.back):
		m.searching = false
		m.input.Blur()
		ctrl.SetSearchTerm(m.prevTerm)
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != ctrl.View().SearchTerm {
		ctrl.SetSearchTerm(m.input.Value())
		m.table.SetCursor(0)
		m.refresh()
	}
	return m, cmd
}

// nextField returns the field after current, wrapping around.
func nextField(fields []string, current string) string {
	i := slices.Index(fields, current)
	return fields[(i+1)%len(fields)]
}

// nextCategory cycles "" (all) -> each category -> "".
func nextCategory(categories []string, current string) string {
	if current == "" {
		if len(categories) == 0 {
			return ""
		}
		return categories[0]
	}
	i := slices.Index(categories, current)
	if i < 0 || i == len(categories)-1 {
		return ""
	}
	return categories[i+1]
}

func (m *Model[T]) selected() (T, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.page.Items) {
		var zero T
		return zero, false
	}
	return m.page.Items[i], true
}

func (m *Model[T]) toggleSelected() tea.Cmd {
	if m.screen.Coordinator == nil || m.screen.Toggle == nil {
		m.setStatus("this screen is read-only", true)
		return nil
	}
	item, ok := m.selected()
	if !ok {
		return nil
	}

	id := item.Key()
	coord, toggle := m.screen.Coordinator, m.screen.Toggle
	ctx := m.ctx
	return func() tea.Msg {
		return toggledMsg{id: id, err: coord.Toggle(ctx, id, toggle)}
	}
}

func (m *Model[T]) load() tea.Cmd {
	ctrl, ctx := m.screen.Controller, m.ctx
	return func() tea.Msg {
		return loadedMsg{err: ctrl.Load(ctx)}
	}
}

func (m *Model[T]) waitForUpdate() tea.Cmd {
	updates := m.screen.Updates
	return func() tea.Msg {
		u, ok := <-updates
		if !ok {
			return updatesClosedMsg{}
		}
		return progressUpdateMsg(u)
	}
}

// refresh rebuilds the table from the controller's visible page.
func (m *Model[T]) refresh() {
	m.page = m.screen.Controller.VisiblePage()
	t := m.screen.Rows(m.page.Items)

	if m.screen.Coordinator != nil {
		for i, row := range t.Rows {
			if len(row) > 0 && m.screen.Coordinator.InFlight(row[0]) {
				row[0] = inFlightMarker + row[0]
			}
			t.Rows[i] = row
		}
	}

	view := m.screen.Controller.View()
	sorted := view.SortField
	if h, ok := m.screen.SortColumns[sorted]; ok {
		sorted = h
	}

	columns := make([]table.Column, len(t.Headers))
	for i, h := range t.Headers {
		title := h
		if strings.EqualFold(h, sorted) {
			title = h + sortArrow(view.SortOrder)
		}
		columns[i] = table.Column{Title: title, Width: columnWidth(title, t.Rows, i)}
	}

	rows := make([]table.Row, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = table.Row(r)
	}

	m.table.SetColumns(columns)
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(0, len(rows)-1))
	}
}

func sortArrow(o listing.Order) string {
	if o == listing.Desc {
		return " ↓"
	}
	return " ↑"
}

func columnWidth(title string, rows [][]string, col int) int {
	w := len([]rune(title))
	for _, r := range rows {
		if col < len(r) {
			w = max(w, len([]rune(r[col])))
		}
	}
	return min(w, maxColumnWidth)
}

// View renders the screen.
func (m *Model[T]) View() string {
	var b strings.Builder

	b.WriteString(styles.title.Render(m.screen.Title))
	b.WriteString("\n")

	if m.screen.Header != nil {
		b.WriteString(styles.header.Render(m.screen.Header(m.screen.Controller.Items())))
		b.WriteString("\n")
	}

	if m.searching {
		b.WriteString(m.input.View())
	} else {
		b.WriteString(m.filterLine())
	}
	b.WriteString("\n\n")

	if m.screen.Controller.Loading() && !m.screen.Controller.Loaded() {
		b.WriteString("Loading...\n")
	} else if len(m.page.Items) == 0 {
		b.WriteString(styles.warn.Render("No records match."))
		b.WriteString("\n")
	} else {
		b.WriteString(m.table.View())
		b.WriteString("\n")
	}

	b.WriteString(styles.help.Render(formatter.PageFooter(m.page.Page, m.page.TotalPages, m.page.Matched, m.page.Total)))
	b.WriteString("\n")

	if m.status != "" {
		style := styles.ok
		if m.statusErr {
			style = styles.err
		}
		b.WriteString(style.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(m.helpKeys()))
	return b.String()
}

func (m *Model[T]) filterLine() string {
	view := m.screen.Controller.View()
	parts := []string{fmt.Sprintf("sort: %s %s", view.SortField, view.SortOrder)}
	if view.SearchTerm != "" {
		parts = append(parts, fmt.Sprintf("search: %q", view.SearchTerm))
	}
	if view.Category != "" {
		parts = append(parts, "genre: "+view.Category)
	}
	return styles.help.Render(strings.Join(parts, "  "))
}

func (m *Model[T]) helpKeys() []key.Binding {
	if m.searching {
		return []key.Binding{m.keys.accept, m.keys.back}
	}
	keys := []key.Binding{m.keys.search, m.keys.sort, m.keys.order, m.keys.next, m.keys.prev}
	if m.screen.Controller.Categories() != nil {
		keys = append(keys, m.keys.genre)
	}
	if m.screen.Coordinator != nil && m.screen.Toggle != nil {
		keys = append(keys, m.keys.toggle)
	}
	return append(keys, m.keys.reload, m.keys.quit)
}

// MovieStatsHeader renders the overview counters shown above the movie table.
func MovieStatsHeader(movies []models.Movie) string {
	s := models.SummarizeMovies(movies)
	return fmt.Sprintf("total %d   %s %d   %s %d   upcoming %d",
		s.Total, styles.ok.Render("active"), s.Active, styles.warn.Render("inactive"), s.Inactive, s.Upcoming)
}

// Run starts the program for screen and returns the error that ended it.
func Run[T models.Record](ctx context.Context, screen Screen[T], opts ...tea.ProgramOption) error {
	m := NewModel(ctx, screen)
	if _, err := tea.NewProgram(m, opts...).Run(); err != nil {
		return err
	}
	return m.Err()
}
