package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/reeladmin/internal/auth"
	"github.com/desertthunder/reeladmin/internal/models"
	"github.com/desertthunder/reeladmin/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func TestSessionRepository(t *testing.T) {
	t.Run("Load empty", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		if _, _, err := repo.Load(); !errors.Is(err, shared.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Save and Load", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		blob := []byte(`{"userId":"ADM-1","firstName":"Grace"}`)

		if err := repo.Save(blob, "tok-1"); err != nil {
			t.Fatalf("failed to save session: %v", err)
		}

		profile, token, err := repo.Load()
		if err != nil {
			t.Fatalf("failed to load session: %v", err)
		}
		if string(profile) != string(blob) || token != "tok-1" {
			t.Errorf("unexpected session %s / %s", profile, token)
		}
	})

	t.Run("Save overwrites", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		_ = repo.Save([]byte(`{"firstName":"A"}`), "a")
		if err := repo.Save([]byte(`{"firstName":"B"}`), "b"); err != nil {
			t.Fatalf("failed to overwrite session: %v", err)
		}

		profile, token, _ := repo.Load()
		if string(profile) != `{"firstName":"B"}` || token != "b" {
			t.Errorf("expected latest session, got %s / %s", profile, token)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		_ = repo.Save([]byte(`{}`), "tok")

		if err := repo.Clear(); err != nil {
			t.Fatalf("failed to clear session: %v", err)
		}
		if _, _, err := repo.Load(); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected cleared session, got %v", err)
		}
		if err := repo.Clear(); err != nil {
			t.Errorf("expected clearing twice to succeed, got %v", err)
		}
	})
}

func TestCredentialRepository(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))
		expires := time.Now().Add(time.Hour).Truncate(time.Second)

		identity := auth.Identity{UID: "uid-1", Email: "staff@example.com", IDToken: "id", RefreshToken: "rt", ExpiresAt: expires}
		if err := repo.SaveCredentials(identity); err != nil {
			t.Fatalf("failed to save credentials: %v", err)
		}

		got, err := repo.LoadCredentials()
		if err != nil {
			t.Fatalf("failed to load credentials: %v", err)
		}
		if got.UID != "uid-1" || got.RefreshToken != "rt" {
			t.Errorf("unexpected identity %+v", got)
		}
		if !got.ExpiresAt.Equal(expires) {
			t.Errorf("expected expiry %v, got %v", expires, got.ExpiresAt)
		}
	})

	t.Run("missing", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))
		if _, err := repo.LoadCredentials(); !errors.Is(err, shared.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("clear", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))
		_ = repo.SaveCredentials(auth.Identity{UID: "u", RefreshToken: "rt", ExpiresAt: time.Now()})
		if err := repo.ClearCredentials(); err != nil {
			t.Fatalf("failed to clear: %v", err)
		}
		if _, err := repo.LoadCredentials(); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound after clear, got %v", err)
		}
	})
}

func TestMutationRepository(t *testing.T) {
	t.Run("Create assigns id and sequence", func(t *testing.T) {
		repo := NewMutationRepository(setupTestDB(t))

		first := models.NewMutationRecord("movies", "MOV-1", "toggle-status")
		second := models.NewMutationRecord("movies", "MOV-2", "toggle-status")
		for _, m := range []*models.MutationRecord{first, second} {
			if err := repo.Create(m); err != nil {
				t.Fatalf("failed to create mutation: %v", err)
			}
		}

		if first.ID == "" || first.ID == second.ID {
			t.Error("expected distinct generated IDs")
		}
		if first.Sequence != 1 || second.Sequence != 2 {
			t.Errorf("expected sequences 1 and 2, got %d and %d", first.Sequence, second.Sequence)
		}
	})

	t.Run("Create validates", func(t *testing.T) {
		repo := NewMutationRepository(setupTestDB(t))
		if err := repo.Create(models.NewMutationRecord("movies", "", "toggle-status")); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Update and Get", func(t *testing.T) {
		repo := NewMutationRepository(setupTestDB(t))
		m := models.NewMutationRecord("users", "USR-1", "toggle-status")
		if err := repo.Create(m); err != nil {
			t.Fatalf("failed to create mutation: %v", err)
		}

		m.Complete(errors.New("boom"))
		if err := repo.Update(m); err != nil {
			t.Fatalf("failed to update mutation: %v", err)
		}

		got, err := repo.Get(m.ID)
		if err != nil {
			t.Fatalf("failed to get mutation: %v", err)
		}
		if got.Status != models.MutationFailed || got.Error != "boom" {
			t.Errorf("unexpected mutation %+v", got)
		}
		if got.CompletedAt == nil {
			t.Error("expected completion time")
		}
	})

	t.Run("Get missing", func(t *testing.T) {
		repo := NewMutationRepository(setupTestDB(t))
		if _, err := repo.Get("nope"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Update missing", func(t *testing.T) {
		repo := NewMutationRepository(setupTestDB(t))
		m := models.NewMutationRecord("users", "USR-1", "toggle-status")
		m.ID = "nope"
		if err := repo.Update(m); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("List filters newest first", func(t *testing.T) {
		repo := NewMutationRepository(setupTestDB(t))
		for _, m := range []*models.MutationRecord{
			models.NewMutationRecord("movies", "MOV-1", "toggle-status"),
			models.NewMutationRecord("users", "USR-1", "toggle-status"),
			models.NewMutationRecord("movies", "MOV-2", "update"),
		} {
			if err := repo.Create(m); err != nil {
				t.Fatalf("failed to create mutation: %v", err)
			}
		}

		movies, err := repo.List(map[string]any{"resource": "movies"})
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(movies) != 2 || movies[0].RecordKey != "MOV-2" {
			t.Errorf("expected two movie mutations newest first, got %+v", movies)
		}

		limited, _ := repo.List(map[string]any{"limit": 1})
		if len(limited) != 1 {
			t.Errorf("expected limit to apply, got %d", len(limited))
		}

		running, _ := repo.List(map[string]any{"status": string(models.MutationRunning)})
		if len(running) != 3 {
			t.Errorf("expected 3 running, got %d", len(running))
		}
	})

	t.Run("Prune", func(t *testing.T) {
		repo := NewMutationRepository(setupTestDB(t))
		done := models.NewMutationRecord("movies", "MOV-1", "toggle-status")
		done.StartedAt = time.Now().Add(-48 * time.Hour)
		running := models.NewMutationRecord("movies", "MOV-2", "toggle-status")
		running.StartedAt = done.StartedAt

		for _, m := range []*models.MutationRecord{done, running} {
			if err := repo.Create(m); err != nil {
				t.Fatalf("failed to create mutation: %v", err)
			}
		}
		done.Complete(nil)
		_ = repo.Update(done)

		n, err := repo.Prune(time.Now().Add(-24 * time.Hour))
		if err != nil {
			t.Fatalf("failed to prune: %v", err)
		}
		if n != 1 {
			t.Errorf("expected to prune 1 entry, got %d", n)
		}
	})

	t.Run("Duration", func(t *testing.T) {
		m := models.NewMutationRecord("movies", "MOV-1", "toggle-status")
		if m.Duration() != 0 {
			t.Error("expected zero duration while running")
		}
		m.Complete(nil)
		if m.Status != models.MutationSucceeded || m.Duration() < 0 {
			t.Errorf("unexpected completion %+v", m)
		}
	})
}
