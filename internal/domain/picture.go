package domain

import "time"

type Picture struct {
	ID        int64     `json:"id"`
	HotelID   int64     `json:"hotel_id"`
	Filepath  string    `json:"filepath"`
	Filesize  int64     `json:"filesize"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	MaxPictureSize = 5 * 1024 * 1024
	PictureField   = "pictures"
)

// AllowedPictureTypes maps accepted MIME types to the extension used on disk.
var AllowedPictureTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}
