// models/user.go
package models

import "time"

// User is the public identity record kept in the realtime tree store under
// users/{userId}. Followers and Following carry set semantics; a user's own
// id never appears in either of its own edge lists.
type User struct {
	UserID         string   `json:"userId"`
	Email          string   `json:"email"`
	Name           string   `json:"name"`
	Username       string   `json:"username"`
	DisplayName    string   `json:"displayName"`
	ProfilePicture string   `json:"profilePicture,omitempty"` // base64 image
	Bio            string   `json:"bio"`
	Location       string   `json:"location,omitempty"`
	JoinDate       int64    `json:"joinDate"`
	IsVerified     bool     `json:"isVerified"`
	IsPrivate      bool     `json:"isPrivate"`
	Followers      []string `json:"followers"` // user ids
	Following      []string `json:"following"` // user ids
	Posts          []string `json:"posts"`     // post ids
	FCMToken       string   `json:"fcmToken,omitempty"`
}

// Normalize defaults nil edge lists after deserializing a remote record.
// A listener firing with "does not exist" decodes to the zero User, which
// normalizes to empty sets rather than an error.
func (u *User) Normalize() {
	if u.Followers == nil {
		u.Followers = []string{}
	}
	if u.Following == nil {
		u.Following = []string{}
	}
	if u.Posts == nil {
		u.Posts = []string{}
	}
}

// NewUser builds a fresh profile at signup time.
func NewUser(userID, email, name, username, profilePicture string) User {
	return User{
		UserID:         userID,
		Email:          email,
		Name:           name,
		Username:       username,
		DisplayName:    name,
		ProfilePicture: profilePicture,
		Bio:            "",
		JoinDate:       time.Now().UnixMilli(),
		Followers:      []string{},
		Following:      []string{},
		Posts:          []string{},
	}
}

// UpdateProfileRequest is the body for profile edits.
type UpdateProfileRequest struct {
	DisplayName    string `json:"displayName,omitempty"`
	Bio            string `json:"bio,omitempty"`
	Location       string `json:"location,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty"`
	IsPrivate      *bool  `json:"isPrivate,omitempty"`
}

// Response model
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// UserResponse model for single user responses
type UserResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    *User  `json:"data,omitempty"`
}

// UsersResponse model for multiple user responses
type UsersResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    []User `json:"data,omitempty"`
}
