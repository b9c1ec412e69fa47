package app

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"hotel_catalog/internal/domain"
)

// UploadedFile is one file of an upload batch. Content is read twice:
// once to sniff its type, once to store it.
type UploadedFile struct {
	Filename string
	Size     int64
	Content  io.ReadSeeker
}

type PictureService struct {
	hotels   domain.HotelRepository
	pictures domain.PictureRepository
	blobs    domain.BlobStorage
	cache    domain.Cache
	now      func() time.Time
}

// NewPictureService wires the picture use cases. c may be nil.
func NewPictureService(h domain.HotelRepository, p domain.PictureRepository, b domain.BlobStorage, c domain.Cache) *PictureService {
	return &PictureService{hotels: h, pictures: p, blobs: b, cache: c, now: clock}
}

// Upload stores files as new pictures of hotel hotelID, appended after the
// current highest position in submission order. Any invalid file rejects the
// whole batch before anything is written.
func (s *PictureService) Upload(ctx context.Context, hotelID int64, files []UploadedFile) ([]domain.Picture, error) {
	if _, err := s.hotels.GetHotel(ctx, hotelID); err != nil {
		return nil, err
	}
	exts, err := validateUploads(files)
	if err != nil {
		return nil, err
	}

	maxPos, ok, err := s.pictures.MaxPosition(ctx, hotelID)
	if err != nil {
		return nil, fmt.Errorf("max position of hotel %d: %w", hotelID, err)
	}
	base := -1
	if ok {
		base = maxPos
	}

	now := s.now()
	out := make([]domain.Picture, 0, len(files))
	for i, f := range files {
		key := fmt.Sprintf("%s/%d_%d_%s%s", hotelDir(hotelID), now.Unix(), i, uuid.NewString(), exts[i])
		n, err := s.blobs.Write(ctx, key, f.Content)
		if err != nil {
			s.invalidate(ctx, hotelID)
			return nil, fmt.Errorf("store picture %d: %w", i, err)
		}
		p := domain.Picture{
			HotelID:   hotelID,
			Filepath:  key,
			Filesize:  n,
			Position:  base + i + 1,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.pictures.CreatePicture(ctx, &p); err != nil {
			if derr := s.blobs.Delete(ctx, key); derr != nil {
				log.Warn().Err(derr).Str("path", key).Msg("orphan picture file left behind")
			}
			s.invalidate(ctx, hotelID)
			return nil, fmt.Errorf("create picture %d: %w", i, err)
		}
		out = append(out, p)
	}

	s.invalidate(ctx, hotelID)
	log.Info().Int64("hotel_id", hotelID).Int("count", len(out)).Msg("pictures uploaded")
	return out, nil
}

// UpdatePosition sets the position of one picture. Siblings are not renumbered.
func (s *PictureService) UpdatePosition(ctx context.Context, hotelID, pictureID int64, position *int) (domain.Picture, error) {
	p, err := s.owned(ctx, hotelID, pictureID)
	if err != nil {
		return domain.Picture{}, err
	}
	if err := validatePosition(position); err != nil {
		return domain.Picture{}, err
	}

	now := s.now()
	if err := s.pictures.UpdatePicturePosition(ctx, p.ID, *position, now); err != nil {
		return domain.Picture{}, fmt.Errorf("update picture %d: %w", p.ID, err)
	}
	p.Position = *position
	p.UpdatedAt = now
	s.invalidate(ctx, hotelID)
	return p, nil
}

// Delete removes the picture row, then its file. A failed file removal is
// logged and does not fail the call.
func (s *PictureService) Delete(ctx context.Context, hotelID, pictureID int64) error {
	p, err := s.owned(ctx, hotelID, pictureID)
	if err != nil {
		return err
	}
	if err := s.pictures.DeletePicture(ctx, p.ID); err != nil {
		return err
	}
	if err := s.blobs.Delete(ctx, p.Filepath); err != nil {
		log.Warn().Err(err).Int64("hotel_id", hotelID).Int64("picture_id", p.ID).Str("path", p.Filepath).Msg("picture file delete failed")
	}
	s.invalidate(ctx, hotelID)
	return nil
}

// owned loads a picture through its hotel: missing hotel or picture is
// NotFound, a picture of another hotel is Forbidden.
func (s *PictureService) owned(ctx context.Context, hotelID, pictureID int64) (domain.Picture, error) {
	if _, err := s.hotels.GetHotel(ctx, hotelID); err != nil {
		return domain.Picture{}, err
	}
	p, err := s.pictures.GetPicture(ctx, pictureID)
	if err != nil {
		return domain.Picture{}, err
	}
	if p.HotelID != hotelID {
		return domain.Picture{}, domain.ErrForbidden
	}
	return p, nil
}

func (s *PictureService) invalidate(ctx context.Context, hotelID int64) {
	invalidateHotel(ctx, s.cache, hotelID)
}

// validateUploads checks every file and returns the extension each will be stored with.
func validateUploads(files []UploadedFile) ([]string, error) {
	ve := domain.NewValidationError()
	if len(files) == 0 {
		ve.Add(domain.PictureField, "At least one picture is required")
		return nil, ve
	}

	exts := make([]string, len(files))
	for i, f := range files {
		field := fmt.Sprintf("%s.%d", domain.PictureField, i)
		if f.Content == nil {
			ve.Add(field, fmt.Sprintf("The %s must be an image", field))
			continue
		}
		if f.Size > domain.MaxPictureSize {
			ve.Add(field, fmt.Sprintf("The %s may not be greater than %d kilobytes", field, domain.MaxPictureSize/1024))
		}

		mt, err := mimetype.DetectReader(f.Content)
		if _, serr := f.Content.Seek(0, io.SeekStart); err == nil {
			err = serr
		}
		if err != nil {
			ve.Add(field, fmt.Sprintf("The %s could not be read", field))
			continue
		}
		ext, ok := allowedExt(mt)
		if !ok {
			ve.Add(field, fmt.Sprintf("The %s must be a file of type: jpeg, jpg, png, webp", field))
			continue
		}
		exts[i] = storedExt(f.Filename, ext)
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}
	return exts, nil
}

func allowedExt(mt *mimetype.MIME) (string, bool) {
	for m, ext := range domain.AllowedPictureTypes {
		if mt.Is(m) {
			return ext, true
		}
	}
	return "", false
}

// storedExt keeps a client ".jpeg" spelling for JPEG content; otherwise the
// detected type decides.
func storedExt(filename, detected string) string {
	if detected == ".jpg" && strings.ToLower(path.Ext(filename)) == ".jpeg" {
		return ".jpeg"
	}
	return detected
}
