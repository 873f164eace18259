// Package models defines the back office records exchanged with the streaming backend.
//
// The package contains three categories of types:
//
// 1. Wire records decoded from the REST API, one per management screen:
//   - [Movie] : catalog entry with genres, pricing and poster images
//   - [User] : subscriber account with purchased movies
//   - [RawPayment] : payment as the backend reports it, normalized into [Payment]
//   - [ContactMessage] : contact form submission
//
// 2. Session data:
//   - [Profile] : the staff profile returned by /auth/login, cached locally as an advisory blob
//
// 3. Write models:
//   - [MovieForm] : fields and image attachments for creating or updating a movie
//
// Every record implements [Record] so list and mutation layers can key rows without knowing the resource type.
package models
