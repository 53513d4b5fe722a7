// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// The password hash never leaves the server: its json tag is "-", so every
// handler can return a *User directly without scrubbing it first.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Name         string    `json:"name"      db:"name"`
	Email        string    `json:"email"     db:"email"` // stored lower-cased, unique
	PasswordHash string    `json:"-"         db:"password_hash"`
	Handles      Handles   `json:"handles"`
	ProfilePic   string    `json:"profilePic" db:"profile_pic"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// Handles are the user's usernames on the external coding platforms.
// An empty string means "not linked".
type Handles struct {
	GitHub        string `json:"github"        db:"github"`
	LeetCode      string `json:"leetcode"      db:"leetcode"`
	Codeforces    string `json:"codeforces"    db:"codeforces"`
	GeeksForGeeks string `json:"geeksforgeeks" db:"geeksforgeeks"`
}

// For returns the handle linked for p, or "" when there is none.
func (h Handles) For(p Platform) string {
	switch p {
	case PlatformGitHub:
		return h.GitHub
	case PlatformLeetCode:
		return h.LeetCode
	case PlatformCodeforces:
		return h.Codeforces
	}
	return ""
}

// Merge returns h with every non-empty field of update applied.
// Empty fields in update keep the current value.
func (h Handles) Merge(update Handles) Handles {
	if update.GitHub != "" {
		h.GitHub = update.GitHub
	}
	if update.LeetCode != "" {
		h.LeetCode = update.LeetCode
	}
	if update.Codeforces != "" {
		h.Codeforces = update.Codeforces
	}
	if update.GeeksForGeeks != "" {
		h.GeeksForGeeks = update.GeeksForGeeks
	}
	return h
}
