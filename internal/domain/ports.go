package domain

import (
	"context"
	"io"
	"time"
)

type HotelRepository interface {
	// Write paths
	CreateHotel(ctx context.Context, h *Hotel) error
	UpdateHotel(ctx context.Context, h *Hotel) error
	DeleteHotel(ctx context.Context, id int64) error

	// Read paths; returned hotels carry no pictures
	GetHotel(ctx context.Context, id int64) (Hotel, error)
	ListHotels(ctx context.Context, q HotelsQuery) ([]Hotel, int, error)
	SearchHotels(ctx context.Context, term string, page, perPage int) ([]Hotel, int, error)
}

type PictureRepository interface {
	CreatePicture(ctx context.Context, p *Picture) error
	UpdatePicturePosition(ctx context.Context, id int64, position int, at time.Time) error
	DeletePicture(ctx context.Context, id int64) error
	DeletePicturesByHotel(ctx context.Context, hotelID int64) error

	GetPicture(ctx context.Context, id int64) (Picture, error)
	// ListPictures returns pictures per hotel ordered by position, then id.
	ListPictures(ctx context.Context, hotelIDs ...int64) (map[int64][]Picture, error)
	// MaxPosition reports the highest position for a hotel; ok is false when it has none.
	MaxPosition(ctx context.Context, hotelID int64) (pos int, ok bool, err error)
}

// BlobStorage is keyed by slash-separated relative paths such as "hotels/3/x.jpg".
type BlobStorage interface {
	Exists(ctx context.Context, path string) (bool, error)
	Write(ctx context.Context, path string, r io.Reader) (int64, error)
	Delete(ctx context.Context, path string) error
	// RemoveDirIfEmpty removes dir when it holds no entries; a missing dir is not an error.
	RemoveDirIfEmpty(ctx context.Context, dir string) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// Page mirrors the paginator payload the frontend consumes.
type Page[T any] struct {
	CurrentPage int  `json:"current_page"`
	Data        []T  `json:"data"`
	From        *int `json:"from"`
	To          *int `json:"to"`
	LastPage    int  `json:"last_page"`
	PerPage     int  `json:"per_page"`
	Total       int  `json:"total"`
}

func NewPage[T any](items []T, total, page, perPage int) Page[T] {
	if items == nil {
		items = []T{}
	}
	last := 1
	if perPage > 0 && total > 0 {
		last = (total + perPage - 1) / perPage
	}
	p := Page[T]{CurrentPage: page, Data: items, LastPage: last, PerPage: perPage, Total: total}
	if len(items) > 0 {
		from := (page-1)*perPage + 1
		to := from + len(items) - 1
		p.From, p.To = &from, &to
	}
	return p
}

// ImageSource produces demo pictures for seeding.
type ImageSource interface {
	Image(ctx context.Context, w, h int, bg, fg, text string) ([]byte, error)
}
