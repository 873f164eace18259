package ui

import (
	"context"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/reeladmin/internal/formatter"
	"github.com/desertthunder/reeladmin/internal/listing"
	"github.com/desertthunder/reeladmin/internal/models"
	"github.com/desertthunder/reeladmin/internal/shared"
	"github.com/desertthunder/reeladmin/internal/tasks"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func movies(n int) []models.Movie {
	out := make([]models.Movie, n)
	for i := range out {
		genre := "Drama"
		if i%2 == 0 {
			genre = "Crime"
		}
		out[i] = models.Movie{MovieID: fmt.Sprintf("MOV-%d", i+1), Title: fmt.Sprintf("Movie %02d", i+1), Year: 1990 + i, Genres: []string{genre}, IsActive: i%3 != 0}
	}
	return out
}

type toggleRecorder struct {
	ids []string
}

func (r *toggleRecorder) toggle(_ context.Context, id string) error {
	r.ids = append(r.ids, id)
	return nil
}

func newMovieModel(t *testing.T, items []models.Movie, rec *toggleRecorder) *Model[models.Movie] {
	t.Helper()
	ctx := context.Background()
	ctrl := listing.NewController(listing.Movies, func(context.Context) ([]models.Movie, error) { return items, nil }, nil)

	screen := Screen[models.Movie]{Title: "Movies", Controller: ctrl, Rows: formatter.Movies, Header: MovieStatsHeader}
	if rec != nil {
		screen.Coordinator = tasks.NewCoordinator(tasks.CoordinatorOpts{Resource: "movies", Reload: ctrl.Load})
		screen.Toggle = rec.toggle
	}

	m := NewModel(ctx, screen)
	m.Update(m.Init()())
	return m
}

func TestModel(t *testing.T) {
	t.Run("renders first page", func(t *testing.T) {
		m := newMovieModel(t, movies(25), nil)

		if len(m.page.Items) != listing.PageSize || m.page.TotalPages != 3 {
			t.Fatalf("expected 10 items on 3 pages, got %d on %d", len(m.page.Items), m.page.TotalPages)
		}
		view := m.View()
		for _, want := range []string{"Movies", "Movie 01", "page 1/3, 25 records", "total 25"} {
			if !strings.Contains(view, want) {
				t.Errorf("view missing %q", want)
			}
		}
	})

	t.Run("pages forward and back", func(t *testing.T) {
		m := newMovieModel(t, movies(25), nil)

		m.Update(runes("n"))
		m.Update(runes("n"))
		m.Update(runes("n"))
		if got := m.screen.Controller.View().CurrentPage; got != 3 {
			t.Errorf("expected to stop at page 3, got %d", got)
		}
		if len(m.page.Items) != 5 {
			t.Errorf("expected 5 items on last page, got %d", len(m.page.Items))
		}

		m.Update(runes("p"))
		if got := m.screen.Controller.View().CurrentPage; got != 2 {
			t.Errorf("expected page 2, got %d", got)
		}
	})

	t.Run("search filters and esc restores", func(t *testing.T) {
		m := newMovieModel(t, movies(25), nil)
		m.Update(runes("n"))

		m.Update(runes("/"))
		if !m.searching {
			t.Fatal("expected search mode")
		}
		m.Update(runes("2"))
		m.Update(runes("5"))

		view := m.screen.Controller.View()
		if view.SearchTerm != "25" || view.CurrentPage != 1 {
			t.Errorf("expected search 25 on page 1, got %+v", view)
		}
		if len(m.page.Items) != 1 || m.page.Items[0].Title != "Movie 25" {
			t.Errorf("unexpected matches %+v", m.page.Items)
		}

		m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		if m.searching || m.screen.Controller.View().SearchTerm != "" {
			t.Error("expected search cancelled and term restored")
		}
	})

	t.Run("enter keeps search term", func(t *testing.T) {
		m := newMovieModel(t, movies(25), nil)
		m.Update(runes("/"))
		m.Update(runes("1"))
		m.Update(tea.KeyMsg{Type: tea.KeyEnter})

		if m.searching || m.screen.Controller.View().SearchTerm != "1" {
			t.Errorf("expected term kept, got %+v", m.screen.Controller.View())
		}
		// n is a paging key again once search mode ends
		m.Update(runes("n"))
		if m.screen.Controller.View().SearchTerm != "1" {
			t.Error("expected paging key not to edit the term")
		}
	})

	t.Run("sort keys", func(t *testing.T) {
		m := newMovieModel(t, movies(25), nil)

		m.Update(runes("s"))
		if v := m.screen.Controller.View(); v.SortField != "year" || v.SortOrder != listing.Asc {
			t.Errorf("expected year asc, got %+v", v)
		}
		m.Update(runes("o"))
		if v := m.screen.Controller.View(); v.SortOrder != listing.Desc {
			t.Errorf("expected desc, got %+v", v)
		}
		if m.page.Items[0].Title != "Movie 25" {
			t.Errorf("expected newest first, got %s", m.page.Items[0].Title)
		}
		if !strings.Contains(m.View(), "Year ↓") {
			t.Error("expected sort arrow on Year column")
		}
	})

	t.Run("genre cycles", func(t *testing.T) {
		m := newMovieModel(t, movies(6), nil)

		m.Update(runes("g"))
		if got := m.screen.Controller.View().Category; got != "Crime" {
			t.Errorf("expected Crime, got %q", got)
		}
		m.Update(runes("g"))
		m.Update(runes("g"))
		if got := m.screen.Controller.View().Category; got != "" {
			t.Errorf("expected facet cleared, got %q", got)
		}
	})

	t.Run("toggle selected row", func(t *testing.T) {
		rec := &toggleRecorder{}
		m := newMovieModel(t, movies(3), rec)

		m.Update(tea.KeyMsg{Type: tea.KeyDown})
		_, cmd := m.Update(runes("t"))
		if cmd == nil {
			t.Fatal("expected toggle command")
		}
		m.Update(cmd())

		if len(rec.ids) != 1 || rec.ids[0] != "MOV-2" {
			t.Errorf("expected MOV-2 toggled, got %v", rec.ids)
		}
		if !strings.Contains(m.status, "toggled MOV-2") {
			t.Errorf("unexpected status %q", m.status)
		}
	})

	t.Run("read-only screen", func(t *testing.T) {
		m := newMovieModel(t, movies(3), nil)
		if _, cmd := m.Update(runes("t")); cmd != nil {
			t.Error("expected no command")
		}
		if !m.statusErr {
			t.Error("expected error status")
		}
	})

	t.Run("session expiry quits", func(t *testing.T) {
		ctrl := listing.NewController(listing.Movies, func(context.Context) ([]models.Movie, error) {
			return nil, shared.ErrSessionExpired
		}, nil)
		m := NewModel(context.Background(), Screen[models.Movie]{Title: "Movies", Controller: ctrl, Rows: formatter.Movies})

		_, cmd := m.Update(m.Init()())
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
		if m.Err() != shared.ErrSessionExpired {
			t.Errorf("expected session expired, got %v", m.Err())
		}
	})

	t.Run("other load errors stay on screen", func(t *testing.T) {
		ctrl := listing.NewController(listing.Movies, func(context.Context) ([]models.Movie, error) {
			return nil, shared.ErrServer
		}, nil)
		m := NewModel(context.Background(), Screen[models.Movie]{Title: "Movies", Controller: ctrl, Rows: formatter.Movies})

		if _, cmd := m.Update(m.Init()()); cmd != nil {
			t.Error("expected no quit")
		}
		if !strings.Contains(m.View(), "server error") {
			t.Error("expected error on status line")
		}
	})

	t.Run("progress updates", func(t *testing.T) {
		updates := make(chan tasks.Update, 1)
		ctrl := listing.NewController(listing.Users, func(context.Context) ([]models.User, error) { return nil, nil }, nil)
		m := NewModel(context.Background(), Screen[models.User]{Title: "Users", Controller: ctrl, Rows: formatter.Users, Updates: updates})

		updates <- tasks.Update{Phase: tasks.MutationStarted, Message: "toggle-status users USR-1..."}
		_, cmd := m.Update(m.waitForUpdate()())
		if m.status != "toggle-status users USR-1..." || cmd == nil {
			t.Errorf("expected status from update, got %q", m.status)
		}

		close(updates)
		if _, ok := cmd().(updatesClosedMsg); !ok {
			t.Error("expected closed message")
		}
	})
}

func TestNextCategory(t *testing.T) {
	cats := []string{"Crime", "Drama"}
	tests := []struct{ current, want string }{
		{"", "Crime"},
		{"Crime", "Drama"},
		{"Drama", ""},
		{"Gone", ""},
	}
	for _, tt := range tests {
		if got := nextCategory(cats, tt.current); got != tt.want {
			t.Errorf("nextCategory(%q) = %q, want %q", tt.current, got, tt.want)
		}
	}
}
