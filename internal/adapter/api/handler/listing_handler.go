package handler

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"foodshare/internal/adapter/api/middleware"
	"foodshare/internal/usecase"
	"foodshare/pkg/errors"
	"foodshare/pkg/response"
	"foodshare/pkg/utils"
)

type ListingHandler struct {
	listingUseCase *usecase.ListingUseCase
}

func NewListingHandler(listingUseCase *usecase.ListingUseCase) *ListingHandler {
	return &ListingHandler{
		listingUseCase: listingUseCase,
	}
}

type createListingRequest struct {
	Title              string    `json:"title" validate:"required,max=120"`
	Description        string    `json:"description" validate:"required,max=2000"`
	Images             []string  `json:"images"`
	Category           string    `json:"category" validate:"required,oneof=meals groceries bakery produce dairy beverages other"`
	Type               string    `json:"type" validate:"required,oneof=donation sale"`
	Price              float64   `json:"price" validate:"min=0"`
	Quantity           int       `json:"quantity" validate:"required,min=1"`
	Unit               string    `json:"unit"`
	ExpiresAt          time.Time `json:"expiresAt" validate:"required"`
	Address            string    `json:"address" validate:"required"`
	Latitude           float64   `json:"latitude"`
	Longitude          float64   `json:"longitude"`
	Tags               []string  `json:"tags"`
	DietaryInfo        []string  `json:"dietaryInfo"`
	PickupInstructions string    `json:"pickupInstructions"`
	PickupTimeStart    string    `json:"pickupTimeStart"`
	PickupTimeEnd      string    `json:"pickupTimeEnd"`
}

type updateListingRequest struct {
	Title              *string    `json:"title" validate:"omitempty,max=120"`
	Description        *string    `json:"description" validate:"omitempty,max=2000"`
	Images             []string   `json:"images"`
	Category           *string    `json:"category" validate:"omitempty,oneof=meals groceries bakery produce dairy beverages other"`
	Price              *float64   `json:"price" validate:"omitempty,min=0"`
	Quantity           *int       `json:"quantity" validate:"omitempty,min=1"`
	Unit               *string    `json:"unit"`
	ExpiresAt          *time.Time `json:"expiresAt"`
	Address            *string    `json:"address"`
	Latitude           *float64   `json:"latitude"`
	Longitude          *float64   `json:"longitude"`
	Tags               []string   `json:"tags"`
	DietaryInfo        []string   `json:"dietaryInfo"`
	PickupInstructions *string    `json:"pickupInstructions"`
	PickupTimeStart    *string    `json:"pickupTimeStart"`
	PickupTimeEnd      *string    `json:"pickupTimeEnd"`
}

func (h *ListingHandler) CreateListing(c echo.Context) error {
	var req createListingRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	listing, err := h.listingUseCase.Create(c.Request().Context(), middleware.CurrentUser(c), usecase.CreateListingInput{
		Title:              req.Title,
		Description:        req.Description,
		Images:             req.Images,
		Category:           req.Category,
		Type:               req.Type,
		Price:              req.Price,
		Quantity:           req.Quantity,
		Unit:               req.Unit,
		ExpiresAt:          req.ExpiresAt,
		Address:            req.Address,
		Latitude:           req.Latitude,
		Longitude:          req.Longitude,
		Tags:               req.Tags,
		DietaryInfo:        req.DietaryInfo,
		PickupInstructions: req.PickupInstructions,
		PickupTimeStart:    req.PickupTimeStart,
		PickupTimeEnd:      req.PickupTimeEnd,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, listing)
}

func (h *ListingHandler) GetListings(c echo.Context) error {
	pagination := utils.GetPaginationParams(c, 20)

	listings, total, err := h.listingUseCase.List(c.Request().Context(), usecase.ListListingsInput{
		Type:     c.QueryParam("type"),
		Category: c.QueryParam("category"),
		Status:   c.QueryParam("status"),
		Search:   c.QueryParam("search"),
		Sort:     c.QueryParam("sort"),
		Limit:    pagination.PageSize,
		Offset:   pagination.Offset,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, listings, total, pagination.Page, pagination.PageSize)
}

func (h *ListingHandler) GetListingByID(c echo.Context) error {
	listing, err := h.listingUseCase.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, listing)
}

func (h *ListingHandler) GetNearbyListings(c echo.Context) error {
	latParam, lngParam := c.QueryParam("lat"), c.QueryParam("lng")
	if latParam == "" || lngParam == "" {
		return response.Error(c, errors.BadRequest("Latitude and longitude required", nil))
	}

	lat, err := strconv.ParseFloat(latParam, 64)
	if err != nil {
		return response.Error(c, errors.BadRequest("Invalid latitude", err))
	}
	lng, err := strconv.ParseFloat(lngParam, 64)
	if err != nil {
		return response.Error(c, errors.BadRequest("Invalid longitude", err))
	}

	var radius float64
	if param := c.QueryParam("radius"); param != "" {
		radius, err = strconv.ParseFloat(param, 64)
		if err != nil {
			return response.Error(c, errors.BadRequest("Invalid radius", err))
		}
	}

	listings, err := h.listingUseCase.Nearby(c.Request().Context(), usecase.NearbyInput{
		Latitude:  lat,
		Longitude: lng,
		RadiusKm:  radius,
		Type:      c.QueryParam("type"),
		Category:  c.QueryParam("category"),
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, listings)
}

func (h *ListingHandler) GetMyListings(c echo.Context) error {
	listings, err := h.listingUseCase.ListMine(c.Request().Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, listings)
}

func (h *ListingHandler) UpdateListing(c echo.Context) error {
	var req updateListingRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	listing, err := h.listingUseCase.Update(c.Request().Context(), middleware.CurrentUser(c), c.Param("id"), usecase.UpdateListingInput{
		Title:              req.Title,
		Description:        req.Description,
		Images:             req.Images,
		Category:           req.Category,
		Price:              req.Price,
		Quantity:           req.Quantity,
		Unit:               req.Unit,
		ExpiresAt:          req.ExpiresAt,
		Address:            req.Address,
		Latitude:           req.Latitude,
		Longitude:          req.Longitude,
		Tags:               req.Tags,
		DietaryInfo:        req.DietaryInfo,
		PickupInstructions: req.PickupInstructions,
		PickupTimeStart:    req.PickupTimeStart,
		PickupTimeEnd:      req.PickupTimeEnd,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, listing)
}

func (h *ListingHandler) DeleteListing(c echo.Context) error {
	if err := h.listingUseCase.Delete(c.Request().Context(), middleware.CurrentUser(c), c.Param("id")); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"message": "Listing deleted"})
}
