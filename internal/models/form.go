package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/reeladmin/internal/shared"
)

// Attachment is an image file sent with a movie form.
type Attachment struct {
	Filename string
	Data     []byte
}

// FormField is a single text field of a multipart form.
type FormField struct {
	Name  string
	Value string
}

// MovieForm holds the fields submitted when creating or editing a movie.
type MovieForm struct {
	Title          string
	Year           int
	Genres         []string
	Description    string
	Duration       string
	Price          float64
	VideoLink      string
	TrailerLink    string
	IsUpcoming     bool
	PortraitImage  *Attachment
	LandscapeImage *Attachment
}

// FormFromMovie pre-fills an edit form from an existing movie. Images are left empty so the backend keeps the current ones.
func FormFromMovie(m Movie) MovieForm {
	return MovieForm{
		Title:       m.Title,
		Year:        m.Year,
		Genres:      append([]string(nil), m.Genres...),
		Description: m.Description,
		Duration:    m.Duration,
		Price:       m.Price,
		VideoLink:   m.VideoLink,
		TrailerLink: m.TrailerLink,
		IsUpcoming:  m.IsUpcoming,
	}
}

// ParseGenres splits a comma separated genre list, dropping blanks.
func ParseGenres(s string) []string {
	var genres []string
	for _, g := range strings.Split(s, ",") {
		if g = strings.TrimSpace(g); g != "" {
			genres = append(genres, g)
		}
	}
	return genres
}

// Validate checks the form before it is sent.
func (f MovieForm) Validate() error {
	if strings.TrimSpace(f.Title) == "" {
		return fmt.Errorf("%w: title is required", shared.ErrInvalidInput)
	}
	if f.Year < 1888 || f.Year > 9999 {
		return fmt.Errorf("%w: year %d out of range", shared.ErrInvalidInput, f.Year)
	}
	if f.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", shared.ErrInvalidInput)
	}
	for _, a := range []*Attachment{f.PortraitImage, f.LandscapeImage} {
		if a != nil && (a.Filename == "" || len(a.Data) == 0) {
			return fmt.Errorf("%w: empty image attachment", shared.ErrInvalidInput)
		}
	}
	return nil
}

// Fields returns the text fields in submission order. Genres are encoded as a JSON string array.
func (f MovieForm) Fields() []FormField {
	genres := f.Genres
	if genres == nil {
		genres = []string{}
	}
	encoded, _ := json.Marshal(genres)

	return []FormField{
		{Name: "title", Value: f.Title},
		{Name: "year", Value: strconv.Itoa(f.Year)},
		{Name: "genres", Value: string(encoded)},
		{Name: "description", Value: f.Description},
		{Name: "duration", Value: f.Duration},
		{Name: "videoLink", Value: f.VideoLink},
		{Name: "trailerLink", Value: f.TrailerLink},
		{Name: "price", Value: strconv.FormatFloat(f.Price, 'f', -1, 64)},
		{Name: "isUpcoming", Value: strconv.FormatBool(f.IsUpcoming)},
	}
}

// Attachments returns the image fields that carry a file, keyed by form field name.
func (f MovieForm) Attachments() map[string]*Attachment {
	files := map[string]*Attachment{}
	if f.PortraitImage != nil {
		files["portraitImage"] = f.PortraitImage
	}
	if f.LandscapeImage != nil {
		files["landscapeImage"] = f.LandscapeImage
	}
	return files
}
