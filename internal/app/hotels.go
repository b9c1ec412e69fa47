package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"hotel_catalog/internal/domain"
)

// SearchPerPage is the fixed page size of hotel search results.
const SearchPerPage = 15

type HotelService struct {
	hotels   domain.HotelRepository
	pictures domain.PictureRepository
	blobs    domain.BlobStorage
	cache    domain.Cache
	cacheTTL time.Duration
	now      func() time.Time
}

// NewHotelService wires the hotel use cases. c may be nil to disable caching.
func NewHotelService(h domain.HotelRepository, p domain.PictureRepository, b domain.BlobStorage, c domain.Cache, ttl time.Duration) *HotelService {
	return &HotelService{hotels: h, pictures: p, blobs: b, cache: c, cacheTTL: ttl, now: clock}
}

func (s *HotelService) List(ctx context.Context, q domain.HotelsQuery) (domain.Page[domain.Hotel], error) {
	if q.Page < 1 {
		q.Page = 1
	}
	q.PerPage = domain.ClampPerPage(q.PerPage)

	hs, total, err := s.hotels.ListHotels(ctx, q)
	if err != nil {
		return domain.Page[domain.Hotel]{}, fmt.Errorf("list hotels: %w", err)
	}
	if err := s.attachPictures(ctx, hs); err != nil {
		return domain.Page[domain.Hotel]{}, err
	}
	return domain.NewPage(hs, total, q.Page, q.PerPage), nil
}

func (s *HotelService) Search(ctx context.Context, term string, page int) (domain.Page[domain.Hotel], error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return domain.Page[domain.Hotel]{}, domain.BadRequest("Search query is required")
	}
	if page < 1 {
		page = 1
	}
	hs, total, err := s.hotels.SearchHotels(ctx, term, page, SearchPerPage)
	if err != nil {
		return domain.Page[domain.Hotel]{}, fmt.Errorf("search hotels: %w", err)
	}
	if err := s.attachPictures(ctx, hs); err != nil {
		return domain.Page[domain.Hotel]{}, err
	}
	return domain.NewPage(hs, total, page, SearchPerPage), nil
}

func (s *HotelService) Get(ctx context.Context, id int64) (domain.Hotel, error) {
	key := hotelKey(id)
	if s.cache != nil {
		var h domain.Hotel
		ok, err := s.cache.Get(ctx, key, &h)
		if err != nil {
			log.Warn().Err(err).Int64("hotel_id", id).Msg("cache get failed")
		}
		if ok {
			return h, nil
		}
	}

	h, err := s.load(ctx, id)
	if err != nil {
		return domain.Hotel{}, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, h, int(s.cacheTTL.Seconds())); err != nil {
			log.Warn().Err(err).Int64("hotel_id", id).Msg("cache set failed")
		} else {
			s.recheckCached(ctx, h)
		}
	}
	return h, nil
}

// recheckCached drops a freshly cached hotel when an update or delete landed
// between load and Set; that writer's own invalidation ran before our Set.
func (s *HotelService) recheckCached(ctx context.Context, h domain.Hotel) {
	cur, err := s.hotels.GetHotel(ctx, h.ID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.invalidate(ctx, h.ID)
	case err != nil:
		log.Warn().Err(err).Int64("hotel_id", h.ID).Msg("cache recheck failed")
		s.invalidate(ctx, h.ID)
	case !cur.UpdatedAt.Equal(h.UpdatedAt):
		s.invalidate(ctx, h.ID)
	}
}

func (s *HotelService) Create(ctx context.Context, in domain.HotelInput) (domain.Hotel, error) {
	if err := ValidateHotelInput(&in); err != nil {
		return domain.Hotel{}, err
	}
	now := s.now()
	h := domain.Hotel{CreatedAt: now, UpdatedAt: now}
	applyRounded(in, &h)

	if err := s.hotels.CreateHotel(ctx, &h); err != nil {
		return domain.Hotel{}, fmt.Errorf("create hotel: %w", err)
	}
	h.Pictures = []domain.Picture{}
	return h, nil
}

// Update replaces every writable field of hotel id.
func (s *HotelService) Update(ctx context.Context, id int64, in domain.HotelInput) (domain.Hotel, error) {
	h, err := s.hotels.GetHotel(ctx, id)
	if err != nil {
		return domain.Hotel{}, err
	}
	if err := ValidateHotelInput(&in); err != nil {
		return domain.Hotel{}, err
	}
	applyRounded(in, &h)
	h.UpdatedAt = s.now()

	if err := s.hotels.UpdateHotel(ctx, &h); err != nil {
		return domain.Hotel{}, fmt.Errorf("update hotel %d: %w", id, err)
	}
	s.invalidate(ctx, id)

	byHotel, err := s.pictures.ListPictures(ctx, id)
	if err != nil {
		return domain.Hotel{}, fmt.Errorf("list pictures: %w", err)
	}
	h.Pictures = orEmpty(byHotel[id])
	return h, nil
}

// Delete removes the hotel and everything it owns. Children go first:
// picture rows, their files, the hotel folder (if empty), then the hotel row.
// It returns the name of the deleted hotel.
func (s *HotelService) Delete(ctx context.Context, id int64) (string, error) {
	h, err := s.hotels.GetHotel(ctx, id)
	if err != nil {
		return "", err
	}
	byHotel, err := s.pictures.ListPictures(ctx, id)
	if err != nil {
		return "", fmt.Errorf("list pictures: %w", err)
	}
	if err := s.pictures.DeletePicturesByHotel(ctx, id); err != nil {
		return "", fmt.Errorf("delete pictures of hotel %d: %w", id, err)
	}

	// file cleanup is best-effort
	for _, p := range byHotel[id] {
		if err := s.blobs.Delete(ctx, p.Filepath); err != nil {
			log.Warn().Err(err).Int64("hotel_id", id).Int64("picture_id", p.ID).Str("path", p.Filepath).Msg("picture file delete failed")
		}
	}
	if err := s.blobs.RemoveDirIfEmpty(ctx, hotelDir(id)); err != nil {
		log.Warn().Err(err).Int64("hotel_id", id).Msg("hotel folder cleanup failed")
	}

	if err := s.hotels.DeleteHotel(ctx, id); err != nil {
		return "", err
	}
	s.invalidate(ctx, id)
	log.Info().Int64("hotel_id", id).Int("pictures", len(byHotel[id])).Msg("hotel deleted")
	return h.Name, nil
}

func (s *HotelService) load(ctx context.Context, id int64) (domain.Hotel, error) {
	h, err := s.hotels.GetHotel(ctx, id)
	if err != nil {
		return domain.Hotel{}, err
	}
	byHotel, err := s.pictures.ListPictures(ctx, id)
	if err != nil {
		return domain.Hotel{}, fmt.Errorf("list pictures: %w", err)
	}
	h.Pictures = orEmpty(byHotel[id])
	return h, nil
}

func (s *HotelService) attachPictures(ctx context.Context, hs []domain.Hotel) error {
	if len(hs) == 0 {
		return nil
	}
	ids := make([]int64, len(hs))
	for i, h := range hs {
		ids[i] = h.ID
	}
	byHotel, err := s.pictures.ListPictures(ctx, ids...)
	if err != nil {
		return fmt.Errorf("list pictures: %w", err)
	}
	for i := range hs {
		hs[i].Pictures = orEmpty(byHotel[hs[i].ID])
	}
	return nil
}

func (s *HotelService) invalidate(ctx context.Context, id int64) {
	invalidateHotel(ctx, s.cache, id)
}

// applyRounded applies in to h with the precision the columns store.
func applyRounded(in domain.HotelInput, h *domain.Hotel) {
	in.Apply(h)
	h.PricePerNight = round(h.PricePerNight, 2)
	h.Longitude = round(h.Longitude, 7)
	h.Latitude = round(h.Latitude, 7)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func orEmpty(ps []domain.Picture) []domain.Picture {
	if ps == nil {
		return []domain.Picture{}
	}
	return ps
}

func clock() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }

func hotelKey(id int64) string { return fmt.Sprintf("hotel:%d", id) }

func hotelDir(id int64) string { return fmt.Sprintf("hotels/%d", id) }

func invalidateHotel(ctx context.Context, c domain.Cache, id int64) {
	if c == nil {
		return
	}
	if err := c.Del(ctx, hotelKey(id)); err != nil {
		log.Warn().Err(err).Int64("hotel_id", id).Msg("cache invalidation failed")
	}
}
