package app

import (
	"bytes"
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/rs/zerolog/log"

	"hotel_catalog/internal/domain"
)

var (
	seedPrefixes = []string{"Grand", "Royal", "Petit", "Belle", "Vieux", "Nouvel", "Beau", "Haut"}
	seedNames    = []string{"Horizon", "Lumière", "Jardin", "Rivage", "Château", "Moulin", "Étoile", "Riviera", "Prairie", "Marronnier"}
	seedCities   = []struct {
		City, Zip string
		Lon, Lat  float64
	}{
		{"Paris", "75001", 2.3522, 48.8566},
		{"Lyon", "69001", 4.8357, 45.7640},
		{"Marseille", "13001", 5.3698, 43.2965},
		{"Bordeaux", "33000", -0.5792, 44.8378},
		{"Nice", "06000", 7.2620, 43.7102},
		{"Strasbourg", "67000", 7.7521, 48.5734},
		{"Nantes", "44000", -1.5536, 47.2184},
		{"Lille", "59000", 3.0573, 50.6292},
	}
	seedStreets = []string{"rue de la République", "avenue Victor Hugo", "boulevard Gambetta", "rue du Port", "place de la Mairie", "quai des Arts"}
	seedPalette = []string{"4A90E2", "50C878", "F39C12", "9B59B6", "E74C3C", "34495E", "1ABC9C", "E67E22"}
)

// Seeder creates demo hotels with one to three placeholder pictures each.
type Seeder struct {
	hotels   *HotelService
	pictures *PictureService
	images   domain.ImageSource
	rnd      *rand.Rand
}

func NewSeeder(h *HotelService, p *PictureService, images domain.ImageSource, seed uint64) *Seeder {
	return &Seeder{hotels: h, pictures: p, images: images, rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Input returns a random valid hotel input. Not safe for concurrent use.
func (s *Seeder) Input() domain.HotelInput {
	c := seedCities[s.rnd.IntN(len(seedCities))]
	in := domain.HotelInput{
		Name:          fmt.Sprintf("%s %s Hotel", pick(s.rnd, seedPrefixes), pick(s.rnd, seedNames)),
		Address1:      fmt.Sprintf("%d %s", 1+s.rnd.IntN(120), pick(s.rnd, seedStreets)),
		ZipCode:       c.Zip,
		City:          c.City,
		Country:       "France",
		Longitude:     ptr(c.Lon + (s.rnd.Float64()-0.5)/50),
		Latitude:      ptr(c.Lat + (s.rnd.Float64()-0.5)/50),
		MaxCapacity:   ptr(10 + s.rnd.IntN(191)),
		PricePerNight: ptr(50 + s.rnd.Float64()*450),
	}
	if s.rnd.IntN(2) == 0 {
		in.Address2 = ptr(fmt.Sprintf("Bâtiment %c", 'A'+rune(s.rnd.IntN(4))))
	}
	if s.rnd.IntN(2) == 0 {
		in.Description = ptr("Charming stay in " + c.City + ", close to the old town and its restaurants.")
	}
	return in
}

// SeedHotel creates one hotel from in and attaches n placeholder pictures.
// Pictures that fail to download are skipped.
func (s *Seeder) SeedHotel(ctx context.Context, in domain.HotelInput, n int) (domain.Hotel, error) {
	h, err := s.hotels.Create(ctx, in)
	if err != nil {
		return domain.Hotel{}, err
	}

	files := make([]UploadedFile, 0, n)
	for i := 0; i < n; i++ {
		w, ht := 800+(i*137)%401, 600+(i*89)%301
		text := fmt.Sprintf("%s #%d", truncate(h.Name, 20), i+1)
		img, err := s.images.Image(ctx, w, ht, seedPalette[(int(h.ID)+i)%len(seedPalette)], "FFFFFF", text)
		if err != nil {
			log.Warn().Err(err).Int64("hotel_id", h.ID).Int("index", i).Msg("placeholder download failed")
			continue
		}
		files = append(files, UploadedFile{Filename: fmt.Sprintf("seed_%d.jpg", i), Size: int64(len(img)), Content: bytes.NewReader(img)})
	}
	if len(files) == 0 {
		return h, nil
	}

	pics, err := s.pictures.Upload(ctx, h.ID, files)
	if err != nil {
		return h, fmt.Errorf("attach pictures to hotel %d: %w", h.ID, err)
	}
	h.Pictures = pics
	return h, nil
}

// PictureCount returns how many pictures the next hotel gets (1..3).
func (s *Seeder) PictureCount() int { return 1 + s.rnd.IntN(3) }

func pick(r *rand.Rand, xs []string) string { return xs[r.IntN(len(xs))] }

func ptr[T any](v T) *T { return &v }

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n])
}
