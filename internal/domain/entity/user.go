package entity

import (
	"time"
)

const (
	RoleDonor = "donor"
	RoleBuyer = "buyer"
	RoleNGO   = "ngo"
	RoleAdmin = "admin"
)

type User struct {
	ID      string `json:"id" firestore:"id"`
	Name    string `json:"name" firestore:"name"`
	Email   string `json:"email" firestore:"email"`
	Role    string `json:"role" firestore:"role"`
	Avatar  string `json:"avatar" firestore:"avatar"`
	Phone   string `json:"phone" firestore:"phone"`
	Bio     string `json:"bio" firestore:"bio"`
	Address string `json:"address" firestore:"address"`

	Latitude  float64 `json:"latitude" firestore:"latitude"`
	Longitude float64 `json:"longitude" firestore:"longitude"`
	Verified  bool    `json:"verified" firestore:"verified"`

	TotalDonations  int     `json:"totalDonations" firestore:"totalDonations"`
	TotalMealsSaved int     `json:"totalMealsSaved" firestore:"totalMealsSaved"`
	Rating          float64 `json:"rating" firestore:"rating"`
	ReviewCount     int     `json:"reviewCount" firestore:"reviewCount"`

	// Written only by the presence tracker
	Online   bool      `json:"online" firestore:"online"`
	LastSeen time.Time `json:"lastSeen" firestore:"lastSeen"`

	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// UserSummary is the expanded form of a user reference.
type UserSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Online bool   `json:"online"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:     u.ID,
		Name:   u.Name,
		Avatar: u.Avatar,
		Online: u.Online,
	}
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func ValidRole(role string) bool {
	switch role {
	case RoleDonor, RoleBuyer, RoleNGO, RoleAdmin:
		return true
	}
	return false
}
