package models

import "strings"

// User is a subscriber account.
type User struct {
	ID              string           `json:"_id"`
	UserID          string           `json:"userId"`
	FirstName       string           `json:"firstName"`
	LastName        string           `json:"lastName"`
	Email           string           `json:"email"`
	Contact         string           `json:"contact"`
	IsActive        bool             `json:"isActive"`
	PurchasedMovies []PurchasedMovie `json:"purchasedMovies"`
}

// Key returns the public user identifier used by the toggle endpoint.
func (u User) Key() string { return u.UserID }

// FullName joins first and last name.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
