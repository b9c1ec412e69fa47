package domain

import (
	"strings"
	"time"
)

type Hotel struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Address1      string    `json:"address_1"`
	Address2      *string   `json:"address_2"`
	ZipCode       string    `json:"zip_code"`
	City          string    `json:"city"`
	Country       string    `json:"country"`
	Longitude     float64   `json:"longitude"`
	Latitude      float64   `json:"latitude"`
	Description   *string   `json:"description"`
	MaxCapacity   int       `json:"max_capacity"`
	PricePerNight float64   `json:"price_per_night"`
	FullAddress   string    `json:"full_address"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Pictures      []Picture `json:"pictures"`
}

// HotelInput is the writable part of a hotel, shared by create and update.
// Pointer fields distinguish "absent" from a zero value.
type HotelInput struct {
	Name          string   `json:"name" validate:"required,max=255"`
	Address1      string   `json:"address_1" validate:"required,max=255"`
	Address2      *string  `json:"address_2" validate:"omitempty,max=255"`
	ZipCode       string   `json:"zip_code" validate:"required,max=20"`
	City          string   `json:"city" validate:"required,max=255"`
	Country       string   `json:"country" validate:"required,max=255"`
	Longitude     *float64 `json:"longitude" validate:"required,min=-180,max=180"`
	Latitude      *float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Description   *string  `json:"description" validate:"omitempty,max=5000"`
	MaxCapacity   *int     `json:"max_capacity" validate:"required,min=1,max=200"`
	PricePerNight *float64 `json:"price_per_night" validate:"required,min=0,max=9999999.99"`
}

// Normalize trims string fields and turns blank optional strings into nil.
func (in *HotelInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Address1 = strings.TrimSpace(in.Address1)
	in.ZipCode = strings.TrimSpace(in.ZipCode)
	in.City = strings.TrimSpace(in.City)
	in.Country = strings.TrimSpace(in.Country)
	in.Address2 = blankToNil(in.Address2)
	in.Description = blankToNil(in.Description)
}

// Apply copies a validated input onto h. Required pointers must be non-nil.
func (in HotelInput) Apply(h *Hotel) {
	h.Name = in.Name
	h.Address1 = in.Address1
	h.Address2 = in.Address2
	h.ZipCode = in.ZipCode
	h.City = in.City
	h.Country = in.Country
	h.Longitude = *in.Longitude
	h.Latitude = *in.Latitude
	h.Description = in.Description
	h.MaxCapacity = *in.MaxCapacity
	h.PricePerNight = *in.PricePerNight
	h.FullAddress = h.ComposeFullAddress()
}

// ComposeFullAddress joins the non-empty address parts: "a1, a2, zip city, country".
func (h Hotel) ComposeFullAddress() string {
	a2 := ""
	if h.Address2 != nil {
		a2 = *h.Address2
	}
	parts := []string{h.Address1, a2, strings.TrimSpace(h.ZipCode + " " + h.City), h.Country}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return strings.Join(out, ", ")
}

func blankToNil(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.TrimSpace(*p)
	if s == "" {
		return nil
	}
	return &s
}

// Sortable hotel columns. Anything else in sort_by is ignored.
var HotelSortFields = map[string]bool{
	"name":            true,
	"city":            true,
	"price_per_night": true,
	"max_capacity":    true,
	"created_at":      true,
}

const (
	DefaultPerPage = 15
	MaxPerPage     = 100
)

type HotelsQuery struct {
	Name, City, Country *string
	MinPrice, MaxPrice  *float64
	MinCapacity         *int
	SortBy              string
	SortDesc            bool
	Page                int
	PerPage             int
}

// ClampPerPage bounds a requested page size to [1, MaxPerPage]; 0 means default.
func ClampPerPage(n int) int {
	switch {
	case n == 0:
		return DefaultPerPage
	case n < 1:
		return 1
	case n > MaxPerPage:
		return MaxPerPage
	}
	return n
}
