package entity

import (
	"math"
	"sort"
	"strings"
	"time"
)

const (
	ListingAvailable = "available"
	ListingReserved  = "reserved"
	ListingCompleted = "completed"
	ListingExpired   = "expired"

	ListingDonation = "donation"
	ListingSale     = "sale"

	ListingSortNewest    = ""
	ListingSortPriceLow  = "price_low"
	ListingSortPriceHigh = "price_high"
	ListingSortExpiring  = "expiring"
)

const earthRadiusKm = 6371.0

type FoodListing struct {
	ID                 string    `json:"id" firestore:"id"`
	Title              string    `json:"title" firestore:"title"`
	Description        string    `json:"description" firestore:"description"`
	Images             []string  `json:"images" firestore:"images"`
	Category           string    `json:"category" firestore:"category"` // meals, groceries, bakery, produce, dairy, beverages, other
	Type               string    `json:"type" firestore:"type"`
	Price              float64   `json:"price" firestore:"price"`
	Quantity           int       `json:"quantity" firestore:"quantity"`
	Unit               string    `json:"unit" firestore:"unit"`
	ExpiresAt          time.Time `json:"expiresAt" firestore:"expiresAt"`
	Address            string    `json:"address" firestore:"address"`
	Latitude           float64   `json:"latitude" firestore:"latitude"`
	Longitude          float64   `json:"longitude" firestore:"longitude"`
	DonorID            string    `json:"donorId" firestore:"donorId"`
	Status             string    `json:"status" firestore:"status"`
	Tags               []string  `json:"tags" firestore:"tags"`
	DietaryInfo        []string  `json:"dietaryInfo" firestore:"dietaryInfo"`
	PickupInstructions string    `json:"pickupInstructions" firestore:"pickupInstructions"`
	PickupTimeStart    string    `json:"pickupTimeStart" firestore:"pickupTimeStart"`
	PickupTimeEnd      string    `json:"pickupTimeEnd" firestore:"pickupTimeEnd"`
	ViewCount          int       `json:"viewCount" firestore:"viewCount"`
	OrderCount         int       `json:"orderCount" firestore:"orderCount"`
	CreatedAt          time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// ListingSummary is the expanded form of a listing reference.
type ListingSummary struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Images []string `json:"images"`
}

func (l *FoodListing) Summary() ListingSummary {
	return ListingSummary{ID: l.ID, Title: l.Title, Images: l.Images}
}

// MatchesSearch reports whether term occurs in the title, description or a tag,
// ignoring case. An empty term matches everything.
func (l *FoodListing) MatchesSearch(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(l.Title), term) || strings.Contains(strings.ToLower(l.Description), term) {
		return true
	}
	for _, tag := range l.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}

// DistanceKm is the great-circle distance from the listing to the given point.
func (l *FoodListing) DistanceKm(lat, lng float64) float64 {
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := rad(lat - l.Latitude)
	dLng := rad(lng - l.Longitude)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(l.Latitude))*math.Cos(rad(lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(a)))
}

// SortListings orders listings by one of the ListingSort values. Unknown values
// fall back to newest first.
func SortListings(listings []*FoodListing, order string) {
	sort.SliceStable(listings, func(i, j int) bool {
		a, b := listings[i], listings[j]
		switch order {
		case ListingSortPriceLow:
			return a.Price < b.Price
		case ListingSortPriceHigh:
			return a.Price > b.Price
		case ListingSortExpiring:
			return a.ExpiresAt.Before(b.ExpiresAt)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}
