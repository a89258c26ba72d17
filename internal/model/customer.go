package model

import (
	"strings"
	"time"
)

// Gender is the enumerated gender of a customer.
type Gender string

const (
	GenderUnspecified Gender = "unspecified"
	GenderMale        Gender = "male"
	GenderFemale      Gender = "female"
	GenderOther       Gender = "other"
)

// ParseGender accepts any casing; an empty string is unspecified.
func ParseGender(s string) (Gender, bool) {
	switch g := Gender(strings.ToLower(strings.TrimSpace(s))); g {
	case "":
		return GenderUnspecified, true
	case GenderUnspecified, GenderMale, GenderFemale, GenderOther:
		return g, true
	default:
		return "", false
	}
}

// Customer is a salon client.
type Customer struct {
	ID           string    `json:"id"`
	CustomerName string    `json:"customerName"`
	Age          int       `json:"age"`
	Gender       Gender    `json:"gender"`
	Mobile       string    `json:"mobile"`
	Email        string    `json:"email"`
	Address      string    `json:"address"`
	JoiningDate  DateOnly  `json:"joiningDate"`
	ProfileImage string    `json:"profileImage,omitempty"`
	Version      int64     `json:"version"`
	CreatedAt    time.Time `json:"createdAt"`
}

// HasProfileImage reports whether a placeholder should be rendered instead.
func (c Customer) HasProfileImage() bool {
	return c.ProfileImage != ""
}
