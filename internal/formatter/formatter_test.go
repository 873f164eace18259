package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/reeladmin/internal/models"
	"github.com/desertthunder/reeladmin/internal/shared"
	th "github.com/desertthunder/reeladmin/internal/testing"
)

func sampleMovies() []models.Movie {
	return []models.Movie{
		{MovieID: "MOV-1", Title: "Heat", Year: 1995, Genres: []string{"Crime", "Drama"}, Price: 3.5, IsActive: true},
		{MovieID: "MOV-2", Title: "Dune: Part Three", Year: 2026, Genres: []string{"Sci-Fi"}, IsUpcoming: true},
	}
}

func TestTables(t *testing.T) {
	t.Run("Movies", func(t *testing.T) {
		table := Movies(sampleMovies())
		if len(table.Rows) != 2 || len(table.Rows[0]) != len(table.Headers) {
			t.Fatalf("unexpected shape %+v", table)
		}
		want := []string{"MOV-1", "Heat", "1995", "Crime, Drama", "3.50", "active", "no"}
		for i, cell := range want {
			if table.Rows[0][i] != cell {
				t.Errorf("cell %d: expected %q, got %q", i, cell, table.Rows[0][i])
			}
		}
		if table.Rows[1][5] != "inactive" || table.Rows[1][6] != "yes" {
			t.Errorf("unexpected upcoming row %v", table.Rows[1])
		}
	})

	t.Run("Users", func(t *testing.T) {
		table := Users([]models.User{{
			UserID: "USR-1", FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com",
			PurchasedMovies: []models.PurchasedMovie{{MovieID: "MOV-1"}},
		}})
		if table.Rows[0][1] != "Ada Lovelace" || table.Rows[0][5] != "1" {
			t.Errorf("unexpected row %v", table.Rows[0])
		}
	})

	t.Run("Payments", func(t *testing.T) {
		table := Payments([]models.Payment{{
			ID: "PAY-1", UserID: "USR-1", Amount: 12, Date: "2024-03-05T10:30:00Z", Status: models.PaymentCompleted,
			PurchasedMovies: []models.PurchasedMovie{{Title: "Heat"}, {Title: "Ran"}},
		}})
		row := table.Rows[0]
		if row[2] != "12.00" || row[3] != "2024-03-05 10:30" || row[4] != "completed" || row[5] != "Heat, Ran" {
			t.Errorf("unexpected row %v", row)
		}
	})

	t.Run("Messages truncates body", func(t *testing.T) {
		body := strings.Repeat("word ", 30)
		table := Messages([]models.ContactMessage{{ID: "m1", Name: "Sam", Message: body}})
		if got := []rune(table.Rows[0][4]); len(got) != descriptionWidth || got[len(got)-1] != '…' {
			t.Errorf("expected truncated body, got %q", table.Rows[0][4])
		}
		if table.Rows[0][3] != "" {
			t.Errorf("expected empty time for missing timestamp, got %q", table.Rows[0][3])
		}
	})

	t.Run("Mutations", func(t *testing.T) {
		started := time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC)
		done := started.Add(1500 * time.Millisecond)
		table := Mutations([]*models.MutationRecord{
			{Sequence: 2, Resource: "movies", RecordKey: "MOV-1", Action: "toggle", Status: models.MutationFailed, Error: "boom", StartedAt: started, CompletedAt: &done},
			{Sequence: 1, Resource: "users", RecordKey: "USR-1", Action: "toggle", Status: models.MutationRunning, StartedAt: started},
		})
		if table.Rows[0][6] != "1.5s" || table.Rows[0][7] != "boom" {
			t.Errorf("unexpected completed row %v", table.Rows[0])
		}
		if table.Rows[1][6] != "" {
			t.Errorf("expected no duration while running, got %q", table.Rows[1][6])
		}
	})

	t.Run("Stats", func(t *testing.T) {
		table := Stats(models.SummarizeMovies(sampleMovies()))
		if strings.Join(table.Rows[0], ",") != "2,1,1,1" {
			t.Errorf("unexpected stats %v", table.Rows[0])
		}
	})
}

func TestRender(t *testing.T) {
	table := Movies(sampleMovies())

	t.Run("text aligns columns", func(t *testing.T) {
		var buf bytes.Buffer
		if err := WriteText(&buf, table); err != nil {
			t.Fatalf("WriteText failed: %v", err)
		}
		lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected header and 2 rows, got %d lines", len(lines))
		}
		col := strings.Index(lines[0], "Title")
		if strings.Index(lines[1], "Heat") != col || strings.Index(lines[2], "Dune") != col {
			t.Errorf("expected Title column aligned at %d:\n%s", col, buf.String())
		}
	})

	t.Run("csv round trips", func(t *testing.T) {
		data, err := ToCSV(table)
		if err != nil {
			t.Fatalf("ToCSV failed: %v", err)
		}
		records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
		if err != nil {
			t.Fatalf("invalid CSV: %v", err)
		}
		if len(records) != 3 || records[0][0] != "ID" || records[1][3] != "Crime, Drama" {
			t.Errorf("unexpected records %v", records)
		}
	})

	t.Run("markdown escapes pipes", func(t *testing.T) {
		out := string(ToMarkdown(Table{Title: "Movies", Headers: []string{"Title"}, Rows: [][]string{{"A|B"}}}))
		for _, want := range []string{"# Movies", "**Records**: 1", "| Title |", "| --- |", `| A\|B |`} {
			if !strings.Contains(out, want) {
				t.Errorf("markdown missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("json encodes records", func(t *testing.T) {
		data, err := Render(JSON, table, sampleMovies())
		if err != nil {
			t.Fatalf("Render failed: %v", err)
		}
		var decoded []models.Movie
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(decoded) != 2 || decoded[1].Title != "Dune: Part Three" {
			t.Errorf("unexpected decoded movies %+v", decoded)
		}
	})

	t.Run("write failure", func(t *testing.T) {
		if err := Write(&th.FWriter{}, CSV, table, nil); err == nil {
			t.Error("expected write error")
		}
		if err := WriteText(&th.FWriter{}, table); err == nil {
			t.Error("expected write error")
		}
	})
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		err  bool
	}{
		{"", Text, false},
		{"CSV", CSV, false},
		{"markdown", Markdown, false},
		{"yaml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.err {
				if !errors.Is(err, shared.ErrInvalidFlag) {
					t.Errorf("expected ErrInvalidFlag, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("expected %q, got %q (%v)", tt.want, got, err)
			}
		})
	}
}

func TestPageFooter(t *testing.T) {
	if got := PageFooter(1, 3, 25, 25); got != "page 1/3, 25 records" {
		t.Errorf("unexpected footer %q", got)
	}
	if got := PageFooter(1, 1, 2, 25); got != "page 1/1, 2 of 25 records" {
		t.Errorf("unexpected filtered footer %q", got)
	}
}

func TestWriteExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movies"+CSV.Extension())
	written, err := WriteExport(path, CSV, Movies(sampleMovies()), nil)
	if err != nil {
		t.Fatalf("WriteExport failed: %v", err)
	}

	th.AssertFileExists(t, written)
	if content := th.MustReadFile(t, written); !strings.HasPrefix(content, "ID,Title,Year") {
		t.Errorf("unexpected export content %q", content)
	}

	if _, err := WriteExport(filepath.Join(t.TempDir(), "missing", "x.csv"), CSV, Movies(nil), nil); err == nil {
		t.Error("expected error for missing directory")
	}
}
