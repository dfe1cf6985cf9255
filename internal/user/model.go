package user

import (
	"time"
)

// Genders a profile may carry.
var Genders = []string{"male", "female", "other", "prefer not to say"}

// MaxBiographyLength is counted in characters, not bytes.
const MaxBiographyLength = 500

type User struct {
	ID             string     `bson:"_id,omitempty" json:"id"`
	Username       string     `bson:"username,omitempty" json:"username"`
	Email          string     `bson:"email" json:"email"`
	Password       string     `bson:"password" json:"-"` // Never expose password hash in JSON
	Gender         string     `bson:"gender,omitempty" json:"gender,omitempty"`
	Location       string     `bson:"location,omitempty" json:"location,omitempty"`
	Biography      string     `bson:"biography,omitempty" json:"biography,omitempty"`
	ProfilePicture string     `bson:"profilePicture,omitempty" json:"profilePicture,omitempty"`
	DateOfBirth    *time.Time `bson:"dateOfBirth,omitempty" json:"dateOfBirth,omitempty"`
	CreatedAt      time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// PublicProfile is the redacted view returned by profile lookups.
type PublicProfile struct {
	Username       string     `json:"username"`
	Gender         string     `json:"gender,omitempty"`
	Location       string     `json:"location,omitempty"`
	Biography      string     `json:"biography,omitempty"`
	ProfilePicture string     `json:"profilePicture,omitempty"`
	DateOfBirth    *time.Time `json:"dateOfBirth,omitempty"`
}

func (u *User) Public() *PublicProfile {
	return &PublicProfile{
		Username:       u.Username,
		Gender:         u.Gender,
		Location:       u.Location,
		Biography:      u.Biography,
		ProfilePicture: u.ProfilePicture,
		DateOfBirth:    u.DateOfBirth,
	}
}
