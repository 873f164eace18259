package models

import "slices"

// Image is an uploaded poster reference.
type Image struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}

// Movie is a catalog entry.
type Movie struct {
	ID             string   `json:"_id"`
	MovieID        string   `json:"movieId"`
	Title          string   `json:"title"`
	Year           int      `json:"year"`
	Genres         []string `json:"genres"`
	Description    string   `json:"description"`
	IsActive       bool     `json:"isActive"`
	IsUpcoming     bool     `json:"isUpcoming"`
	Duration       string   `json:"duration"`
	VideoLink      string   `json:"videoLink"`
	TrailerLink    string   `json:"trailerLink"`
	Price          float64  `json:"price"`
	PortraitImage  *Image   `json:"portraitImage,omitempty"`
	LandscapeImage *Image   `json:"landscapeImage,omitempty"`
}

// Key returns the public movie identifier used by the edit and toggle endpoints.
func (m Movie) Key() string { return m.MovieID }

// HasGenre reports whether the movie is tagged with genre.
func (m Movie) HasGenre(genre string) bool {
	return slices.Contains(m.Genres, genre)
}

// MovieStats is the catalog overview shown above the movie table.
type MovieStats struct {
	Total    int `json:"totalMovies"`
	Active   int `json:"activeMovies"`
	Inactive int `json:"inactiveMovies"`
	Upcoming int `json:"upcomingMovies"`
}

// SummarizeMovies counts movies by status.
func SummarizeMovies(movies []Movie) MovieStats {
	stats := MovieStats{Total: len(movies)}
	for _, m := range movies {
		if m.IsActive {
			stats.Active++
		} else {
			stats.Inactive++
		}
		if m.IsUpcoming {
			stats.Upcoming++
		}
	}
	return stats
}

// Genres returns the sorted set of genres across movies.
func Genres(movies []Movie) []string {
	var all []string
	for _, m := range movies {
		all = append(all, m.Genres...)
	}
	slices.Sort(all)
	return slices.Compact(all)
}
