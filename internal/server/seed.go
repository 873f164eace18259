package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/reeladmin/internal/models"
)

// AdminUID is the identity uid of the seeded staff account.
const AdminUID = "sandbox-admin"

var seedMovies = []models.Movie{
	{Title: "The Godfather", Year: 1972, Genres: []string{"Crime", "Drama"}, Duration: "2h 55m", Price: 3.99},
	{Title: "Heat", Year: 1995, Genres: []string{"Crime", "Thriller"}, Duration: "2h 50m", Price: 2.99},
	{Title: "Ran", Year: 1985, Genres: []string{"Drama", "War"}, Duration: "2h 42m", Price: 2.49},
	{Title: "Amélie", Year: 2001, Genres: []string{"Comedy", "Romance"}, Duration: "2h 2m", Price: 1.99},
	{Title: "Alien", Year: 1979, Genres: []string{"Horror", "Sci-Fi"}, Duration: "1h 57m", Price: 2.99},
	{Title: "Spirited Away", Year: 2001, Genres: []string{"Animation", "Fantasy"}, Duration: "2h 5m", Price: 3.49},
	{Title: "Parasite", Year: 2019, Genres: []string{"Drama", "Thriller"}, Duration: "2h 12m", Price: 3.99},
	{Title: "Mad Max: Fury Road", Year: 2015, Genres: []string{"Action", "Sci-Fi"}, Duration: "2h 0m", Price: 2.99},
	{Title: "Casablanca", Year: 1942, Genres: []string{"Drama", "Romance"}, Duration: "1h 42m", Price: 1.49},
	{Title: "Seven Samurai", Year: 1954, Genres: []string{"Action", "Drama"}, Duration: "3h 27m", Price: 2.49},
	{Title: "Élite Squad", Year: 2007, Genres: []string{"Action", "Crime"}, Duration: "1h 55m", Price: 1.99},
	{Title: "Arrival", Year: 2016, Genres: []string{"Drama", "Sci-Fi"}, Duration: "1h 56m", Price: 2.99},
	{Title: "Die Hard", Year: 1988, Genres: []string{"Action", "Thriller"}, Duration: "2h 12m", Price: 1.99},
	{Title: "In the Mood for Love", Year: 2000, Genres: []string{"Drama", "Romance"}, Duration: "1h 38m", Price: 2.49},
	{Title: "Dune: Part Three", Year: 2026, Genres: []string{"Adventure", "Sci-Fi"}, Price: 4.99, IsUpcoming: true},
	{Title: "The Odyssey", Year: 2026, Genres: []string{"Adventure", "Fantasy"}, Price: 4.99, IsUpcoming: true},
}

var seedUsers = [][3]string{
	{"Ada", "Lovelace", "+44 20 7946 0001"},
	{"Alan", "Turing", "+44 20 7946 0002"},
	{"Grace", "Hopper", "+1 202 555 0103"},
	{"Edsger", "Dijkstra", "+31 20 555 0104"},
	{"Barbara", "Liskov", "+1 617 555 0105"},
	{"Ken", "Thompson", "+1 908 555 0106"},
	{"Frances", "Allen", "+1 914 555 0107"},
	{"Donald", "Knuth", "+1 650 555 0108"},
	{"Margaret", "Hamilton", "+1 617 555 0109"},
	{"Dennis", "Ritchie", "+1 908 555 0110"},
	{"Radia", "Perlman", "+1 978 555 0111"},
	{"Tony", "Hoare", "+44 1865 555 012"},
}

// seedStatuses includes values outside the normalized set.
var seedStatuses = []string{"completed", "pending", "failed", "refunded", "", "completed"}

// SeedAdmin registers the staff account with issuer and store.
func SeedAdmin(store *Store, issuer *TokenIssuer, email, password string) error {
	if err := issuer.AddAccount(AdminUID, email, password); err != nil {
		return err
	}
	store.AddAdmin(AdminUID, models.Profile{
		UserID:    "ADM-0001",
		FirstName: "Sandbox",
		LastName:  "Admin",
		Email:     email,
		Role:      "admin",
	})
	return nil
}

// Seed fills store with a demo catalog.
func Seed(store *Store) {
	var movies []models.Movie
	for i, m := range seedMovies {
		added := store.AddMovie(m)
		if i%5 == 4 {
			added, _ = store.UpdateMovie(added.MovieID, func(m *models.Movie) { m.IsActive = false })
		}
		movies = append(movies, added)
	}

	base := time.Date(2024, time.January, 8, 9, 0, 0, 0, time.UTC)

	for i, u := range seedUsers {
		user := models.User{
			UserID:    fmt.Sprintf("USR-%d", i+1),
			FirstName: u[0],
			LastName:  u[1],
			Email:     fmt.Sprintf("%s.%s@example.com", strings.ToLower(u[0]), strings.ToLower(u[1])),
			Contact:   u[2],
			IsActive:  i%4 != 3,
		}

		movie := movies[i%len(movies)]
		purchased := []models.PurchasedMovie{{MovieID: movie.MovieID, Title: movie.Title}}
		user.PurchasedMovies = purchased
		store.AddUser(user)

		store.AddPayment(models.RawPayment{
			UserID:          user.UserID,
			UserName:        user.FullName(),
			MovieID:         movie.MovieID,
			MovieTitle:      movie.Title,
			Status:          seedStatuses[i%len(seedStatuses)],
			Amount:          movie.Price,
			Date:            base.Add(time.Duration(i*37) * time.Hour).Format(time.RFC3339),
			PurchasedMovies: purchased,
		})
	}

	messages := []struct{ name, email, body string }{
		{"Sam Carter", "sam@example.com", "The trailer for Heat will not play on my TV app."},
		{"Jo Park", "jo@example.com", "Could you add subtitles in Korean for Parasite?"},
		{"Ira Levin", "ira@example.com", "I was charged twice for Casablanca last week."},
		{"Noor Haddad", "noor@example.com", "Loving the classics section, please add more Kurosawa."},
		{"Lee Adams", "lee@example.com", "How do I change the email on my account?"},
	}
	for i, m := range messages {
		created := base.Add(time.Duration(i*29) * time.Hour).Format(time.RFC3339)
		store.AddMessage(models.ContactMessage{Name: m.name, Email: m.email, Message: m.body, CreatedAt: created, UpdatedAt: created})
	}
}
