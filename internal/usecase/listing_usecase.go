package usecase

import (
	"context"
	"sort"
	"time"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	ws "foodshare/internal/infrastructure/websocket"
	"foodshare/pkg/errors"
	"foodshare/pkg/logger"
)

type ListingUseCase struct {
	listingRepo repository.ListingRepository
	userRepo    repository.UserRepository
	publisher   Publisher
}

func NewListingUseCase(listingRepo repository.ListingRepository, userRepo repository.UserRepository, publisher Publisher) *ListingUseCase {
	return &ListingUseCase{
		listingRepo: listingRepo,
		userRepo:    userRepo,
		publisher:   publisher,
	}
}

type CreateListingInput struct {
	Title              string
	Description        string
	Images             []string
	Category           string
	Type               string
	Price              float64
	Quantity           int
	Unit               string
	ExpiresAt          time.Time
	Address            string
	Latitude           float64
	Longitude          float64
	Tags               []string
	DietaryInfo        []string
	PickupInstructions string
	PickupTimeStart    string
	PickupTimeEnd      string
}

const (
	defaultNearbyRadiusKm = 10.0
	nearbyLimit           = 50
)

type ListListingsInput struct {
	Type     string
	Category string
	Status   string
	Search   string
	Sort     string
	Limit    int
	Offset   int
}

type NearbyInput struct {
	Latitude  float64
	Longitude float64
	// RadiusKm defaults to 10 when not positive
	RadiusKm float64
	Type     string
	Category string
}

// UpdateListingInput carries the fields a donor may change. Nil fields are kept.
type UpdateListingInput struct {
	Title              *string
	Description        *string
	Images             []string
	Category           *string
	Price              *float64
	Quantity           *int
	Unit               *string
	ExpiresAt          *time.Time
	Address            *string
	Latitude           *float64
	Longitude          *float64
	Tags               []string
	DietaryInfo        []string
	PickupInstructions *string
	PickupTimeStart    *string
	PickupTimeEnd      *string
}

type ListingDetail struct {
	*entity.FoodListing
	Donor *entity.UserSummary `json:"donor,omitempty"`
}

type ListingUpdateEvent struct {
	ListingID string              `json:"listingId"`
	Status    string              `json:"status"`
	Listing   *entity.FoodListing `json:"listing,omitempty"`
}

func (uc *ListingUseCase) Create(ctx context.Context, donor *entity.User, input CreateListingInput) (*entity.FoodListing, error) {
	if !input.ExpiresAt.After(time.Now()) {
		return nil, errors.BadRequest("Expiry must be in the future", nil)
	}
	if input.Type == entity.ListingDonation {
		input.Price = 0
	} else if input.Price <= 0 {
		return nil, errors.BadRequest("Sale listings need a price", nil)
	}

	listing := &entity.FoodListing{
		Title:              input.Title,
		Description:        input.Description,
		Images:             input.Images,
		Category:           input.Category,
		Type:               input.Type,
		Price:              input.Price,
		Quantity:           input.Quantity,
		Unit:               input.Unit,
		ExpiresAt:          input.ExpiresAt,
		Address:            input.Address,
		Latitude:           input.Latitude,
		Longitude:          input.Longitude,
		DonorID:            donor.ID,
		Status:             entity.ListingAvailable,
		Tags:               input.Tags,
		DietaryInfo:        input.DietaryInfo,
		PickupInstructions: input.PickupInstructions,
		PickupTimeStart:    input.PickupTimeStart,
		PickupTimeEnd:      input.PickupTimeEnd,
	}
	if err := uc.listingRepo.Create(ctx, listing); err != nil {
		return nil, err
	}

	if err := uc.userRepo.IncrementStats(ctx, donor.ID, 1, 0); err != nil {
		logger.Error().Err(err).Str("user", donor.ID).Msg("failed to update donation count")
	}

	summary := donor.Summary()
	uc.publisher.BroadcastAll(ws.EventNewListing, ListingDetail{FoodListing: listing, Donor: &summary})

	return listing, nil
}

// List returns unexpired listings, newest first. Status defaults to available.
func (uc *ListingUseCase) List(ctx context.Context, input ListListingsInput) ([]*entity.FoodListing, int64, error) {
	if input.Status == "" {
		input.Status = entity.ListingAvailable
	}

	listings, total, err := uc.listingRepo.List(ctx, repository.ListingFilter{
		Type:     input.Type,
		Category: input.Category,
		Status:   input.Status,
		ActiveAt: time.Now(),
		Search:   input.Search,
		Sort:     input.Sort,
		Limit:    input.Limit,
		Offset:   input.Offset,
	})
	if err != nil {
		return nil, 0, err
	}
	if listings == nil {
		listings = []*entity.FoodListing{}
	}
	return listings, total, nil
}

// Nearby returns available, unexpired listings within the radius of the point,
// closest first, at most 50.
func (uc *ListingUseCase) Nearby(ctx context.Context, input NearbyInput) ([]*entity.FoodListing, error) {
	if input.Latitude < -90 || input.Latitude > 90 || input.Longitude < -180 || input.Longitude > 180 {
		return nil, errors.BadRequest("Latitude and longitude are out of range", nil)
	}
	if input.RadiusKm <= 0 {
		input.RadiusKm = defaultNearbyRadiusKm
	}

	listings, _, err := uc.listingRepo.List(ctx, repository.ListingFilter{
		Type:     input.Type,
		Category: input.Category,
		Status:   entity.ListingAvailable,
		ActiveAt: time.Now(),
	})
	if err != nil {
		return nil, err
	}

	type ranked struct {
		listing  *entity.FoodListing
		distance float64
	}
	var within []ranked
	for _, l := range listings {
		if d := l.DistanceKm(input.Latitude, input.Longitude); d <= input.RadiusKm {
			within = append(within, ranked{listing: l, distance: d})
		}
	}
	sort.SliceStable(within, func(i, j int) bool {
		return within[i].distance < within[j].distance
	})
	if len(within) > nearbyLimit {
		within = within[:nearbyLimit]
	}

	out := make([]*entity.FoodListing, 0, len(within))
	for _, r := range within {
		out = append(out, r.listing)
	}
	return out, nil
}

// ListMine returns every listing the donor created, in any status, newest first.
func (uc *ListingUseCase) ListMine(ctx context.Context, donorID string) ([]*entity.FoodListing, error) {
	listings, _, err := uc.listingRepo.List(ctx, repository.ListingFilter{DonorID: donorID})
	if err != nil {
		return nil, err
	}
	if listings == nil {
		listings = []*entity.FoodListing{}
	}
	return listings, nil
}

// Update applies the changed fields for the donor or an admin and broadcasts
// listing-update.
func (uc *ListingUseCase) Update(ctx context.Context, actor *entity.User, id string, input UpdateListingInput) (*entity.FoodListing, error) {
	if input.ExpiresAt != nil && !input.ExpiresAt.After(time.Now()) {
		return nil, errors.BadRequest("Expiry must be in the future", nil)
	}
	if input.Quantity != nil && *input.Quantity < 1 {
		return nil, errors.Validation("Quantity must be at least 1")
	}

	listing, err := uc.listingRepo.Update(ctx, id, func(l *entity.FoodListing) error {
		if l.DonorID != actor.ID && !actor.IsAdmin() {
			return errors.Forbidden("Not authorized to change this listing", nil)
		}
		applyListingUpdate(l, input)
		if l.Type == entity.ListingDonation {
			l.Price = 0
		} else if l.Price <= 0 {
			return errors.BadRequest("Sale listings need a price", nil)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.publisher.BroadcastAll(ws.EventListingUpdate, ListingUpdateEvent{ListingID: listing.ID, Status: listing.Status, Listing: listing})
	return listing, nil
}

// Delete removes the listing for the donor or an admin.
func (uc *ListingUseCase) Delete(ctx context.Context, actor *entity.User, id string) error {
	listing, err := uc.listingRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if listing.DonorID != actor.ID && !actor.IsAdmin() {
		return errors.Forbidden("Not authorized to delete this listing", nil)
	}
	return uc.listingRepo.Delete(ctx, id)
}

func applyListingUpdate(l *entity.FoodListing, in UpdateListingInput) {
	setString := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	setString(&l.Title, in.Title)
	setString(&l.Description, in.Description)
	setString(&l.Category, in.Category)
	setString(&l.Unit, in.Unit)
	setString(&l.Address, in.Address)
	setString(&l.PickupInstructions, in.PickupInstructions)
	setString(&l.PickupTimeStart, in.PickupTimeStart)
	setString(&l.PickupTimeEnd, in.PickupTimeEnd)

	if in.Price != nil {
		l.Price = *in.Price
	}
	if in.Quantity != nil {
		l.Quantity = *in.Quantity
	}
	if in.ExpiresAt != nil {
		l.ExpiresAt = *in.ExpiresAt
	}
	if in.Latitude != nil && in.Longitude != nil {
		l.Latitude = *in.Latitude
		l.Longitude = *in.Longitude
	}
	if in.Images != nil {
		l.Images = in.Images
	}
	if in.Tags != nil {
		l.Tags = in.Tags
	}
	if in.DietaryInfo != nil {
		l.DietaryInfo = in.DietaryInfo
	}
}

// Get returns the listing with its donor and counts the view.
func (uc *ListingUseCase) Get(ctx context.Context, id string) (*ListingDetail, error) {
	listing, err := uc.listingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := uc.listingRepo.IncrementViews(ctx, id); err != nil {
		logger.Warn().Err(err).Str("listing", id).Msg("failed to count listing view")
	} else {
		listing.ViewCount++
	}

	detail := &ListingDetail{FoodListing: listing}
	if donor, err := uc.userRepo.GetByID(ctx, listing.DonorID); err == nil {
		summary := donor.Summary()
		detail.Donor = &summary
	}
	return detail, nil
}
