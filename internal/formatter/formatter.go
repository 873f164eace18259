// package formatter renders management records as aligned text tables, CSV, Markdown and JSON, and writes export files.
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/desertthunder/reeladmin/internal/models"
	"github.com/desertthunder/reeladmin/internal/shared"
)

// Format is an output encoding.
type Format string

const (
	Text     Format = "text"
	CSV      Format = "csv"
	JSON     Format = "json"
	Markdown Format = "markdown"
)

// Formats lists the accepted values of --format.
var Formats = []Format{Text, CSV, JSON, Markdown}

// ParseFormat validates a --format value. The empty string means [Text].
func ParseFormat(s string) (Format, error) {
	if s == "" {
		return Text, nil
	}
	f := Format(strings.ToLower(s))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: format %q (want text, csv, json or markdown)", shared.ErrInvalidFlag, s)
}

// Extension returns the file extension for exports in this format.
func (f Format) Extension() string {
	switch f {
	case CSV:
		return ".csv"
	case JSON:
		return ".json"
	case Markdown:
		return ".md"
	default:
		return ".txt"
	}
}

// Table is a header row plus string cells, the common shape of every resource listing.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

const descriptionWidth = 40

// Movies builds the movie table.
func Movies(movies []models.Movie) Table {
	t := Table{Title: "Movies", Headers: []string{"ID", "Title", "Year", "Genres", "Price", "Status", "Upcoming"}}
	for _, m := range movies {
		t.Rows = append(t.Rows, []string{
			m.MovieID,
			m.Title,
			strconv.Itoa(m.Year),
			strings.Join(m.Genres, ", "),
			strconv.FormatFloat(m.Price, 'f', 2, 64),
			shared.StatusString(m.IsActive),
			yesNo(m.IsUpcoming),
		})
	}
	return t
}

// Users builds the user table.
func Users(users []models.User) Table {
	t := Table{Title: "Users", Headers: []string{"ID", "Name", "Email", "Contact", "Status", "Purchases"}}
	for _, u := range users {
		t.Rows = append(t.Rows, []string{
			u.UserID,
			u.FullName(),
			u.Email,
			u.Contact,
			shared.StatusString(u.IsActive),
			strconv.Itoa(len(u.PurchasedMovies)),
		})
	}
	return t
}

// Payments builds the payment table.
func Payments(payments []models.Payment) Table {
	t := Table{Title: "Payments", Headers: []string{"ID", "User", "Amount", "Date", "Status", "Movies"}}
	for _, p := range payments {
		titles := make([]string, 0, len(p.PurchasedMovies))
		for _, m := range p.PurchasedMovies {
			titles = append(titles, m.Title)
		}
		t.Rows = append(t.Rows, []string{
			p.ID,
			p.UserID,
			strconv.FormatFloat(p.Amount, 'f', 2, 64),
			formatTime(p.Time()),
			string(p.Status),
			strings.Join(titles, ", "),
		})
	}
	return t
}

// Messages builds the contact message table. Bodies are truncated.
func Messages(messages []models.ContactMessage) Table {
	t := Table{Title: "Messages", Headers: []string{"ID", "Name", "Email", "Received", "Message"}}
	for _, m := range messages {
		t.Rows = append(t.Rows, []string{
			m.ID,
			m.Name,
			m.Email,
			formatTime(m.Created()),
			shared.Truncate(strings.Join(strings.Fields(m.Message), " "), descriptionWidth),
		})
	}
	return t
}

// Mutations builds the local mutation history table.
func Mutations(records []*models.MutationRecord) Table {
	t := Table{Title: "Mutation history", Headers: []string{"#", "Resource", "Record", "Action", "Status", "Started", "Took", "Error"}}
	for _, r := range records {
		took := ""
		if d := r.Duration(); d > 0 {
			took = d.Round(time.Millisecond).String()
		}
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(r.Sequence),
			r.Resource,
			r.RecordKey,
			r.Action,
			string(r.Status),
			formatTime(r.StartedAt),
			took,
			r.Error,
		})
	}
	return t
}

// Stats renders the movie overview counters.
func Stats(s models.MovieStats) Table {
	return Table{
		Title:   "Overview",
		Headers: []string{"Total", "Active", "Inactive", "Upcoming"},
		Rows: [][]string{{
			strconv.Itoa(s.Total),
			strconv.Itoa(s.Active),
			strconv.Itoa(s.Inactive),
			strconv.Itoa(s.Upcoming),
		}},
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// WriteText writes t as tab-aligned columns.
func WriteText(w io.Writer, t Table) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, strings.Join(t.Headers, "\t")); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// ToCSV converts t to CSV with a header row.
func ToCSV(t Table) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(t.Headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, row := range t.Rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ToMarkdown converts t to a Markdown document with a pipe table.
func ToMarkdown(t Table) []byte {
	var buf bytes.Buffer

	if t.Title != "" {
		fmt.Fprintf(&buf, "# %s\n\n", t.Title)
	}
	fmt.Fprintf(&buf, "**Records**: %d\n\n", len(t.Rows))

	buf.WriteString("| " + strings.Join(t.Headers, " | ") + " |\n")
	buf.WriteString("|" + strings.Repeat(" --- |", len(t.Headers)) + "\n")
	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = strings.ReplaceAll(c, "|", `\|`)
		}
		buf.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	return buf.Bytes()
}

// Render encodes t in format. JSON output encodes records rather than the table so no field is lost.
func Render(format Format, t Table, records any) ([]byte, error) {
	switch format {
	case CSV:
		return ToCSV(t)
	case Markdown:
		return ToMarkdown(t), nil
	case JSON:
		data, err := shared.MarshalJSON(records, true)
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	default:
		var buf bytes.Buffer
		if err := WriteText(&buf, t); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
}

// Write renders t to w.
func Write(w io.Writer, format Format, t Table, records any) error {
	data, err := Render(format, t, records)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// PageFooter summarises the position of a visible page.
func PageFooter(page, totalPages, matched, total int) string {
	if matched == total {
		return fmt.Sprintf("page %d/%d, %d records", page, totalPages, total)
	}
	return fmt.Sprintf("page %d/%d, %d of %d records", page, totalPages, matched, total)
}

// WriteExport renders t to path, creating or truncating the file.
func WriteExport(path string, format Format, t Table, records any) (string, error) {
	data, err := Render(format, t, records)
	if err != nil {
		return "", fmt.Errorf("failed to render %s export: %w", format, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}
