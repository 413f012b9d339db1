package domain

// User is the authenticated profile returned by /login and /register.
type User struct {
	ID     int64  `json:"id"`
	Email  string `json:"email"`
	Bio    string `json:"bio"`
	Avatar string `json:"avatar"`
}

// DefaultAvatar is what the backend assigns when registration omits one.
const DefaultAvatar = "👤"

// Author is the trimmed user record embedded in posts.
type Author struct {
	ID     int64  `json:"id"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
}
