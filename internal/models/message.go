package models

import "time"

// ContactMessage is a contact form submission.
type ContactMessage struct {
	ID        string `json:"_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Message   string `json:"message"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// Key returns the message document id.
func (m ContactMessage) Key() string { return m.ID }

// Created parses the submission time.
func (m ContactMessage) Created() time.Time { return ParseTimestamp(m.CreatedAt) }
