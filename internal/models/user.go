// Package models contains data structures for the application's domain models.
package models

// User is the public profile of an account. Profiles are owned by the
// external auth system and stored as JSON at user:{id}; this service only reads them.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Image string `json:"image,omitempty"`
}

// UserSummary is the compact user shape embedded in events and listings.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Image string `json:"image,omitempty"`
}

// Summary returns the compact form of u. A nil user yields a summary carrying only id.
func (u *User) Summary(id string) UserSummary {
	if u == nil {
		return UserSummary{ID: id}
	}
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Image: u.Image}
}
