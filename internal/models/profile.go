package models

import (
	"encoding/json"
	"fmt"
)

// Profile is the staff profile returned by POST /auth/login.
//
// The original JSON is kept in Raw so fields this client does not model survive a round trip through the session cache.
type Profile struct {
	UserID    string          `json:"userId"`
	FirstName string          `json:"firstName"`
	LastName  string          `json:"lastName"`
	Email     string          `json:"email"`
	Role      string          `json:"role"`
	Raw       json.RawMessage `json:"-"`
}

// ParseProfile decodes a profile blob, retaining the raw bytes.
func ParseProfile(raw []byte) (*Profile, error) {
	var p Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("invalid profile blob: %w", err)
	}
	p.Raw = append(json.RawMessage(nil), raw...)
	return &p, nil
}

// Blob returns the bytes to persist for this profile.
func (p Profile) Blob() ([]byte, error) {
	if len(p.Raw) > 0 {
		return p.Raw, nil
	}
	return json.Marshal(p)
}

// DisplayName returns the first name, or "User" when the backend omitted it.
func (p Profile) DisplayName() string {
	if p.FirstName == "" {
		return "User"
	}
	return p.FirstName
}
