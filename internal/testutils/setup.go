package testutils

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"sync/atomic"
	"testing"
	"time"

	"hotel_catalog/internal/domain"
	"hotel_catalog/internal/storage/sqlstore"
)

var testDBSeq int64

// SetupDB opens a unique in-memory SQLite database with the schema applied.
func SetupDB(t *testing.T) *sql.DB {
	t.Helper()

	seq := atomic.AddInt64(&testDBSeq, 1)
	dsn := fmt.Sprintf("file:hotels_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", seq)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := sqlstore.Open(ctx, sqlstore.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := sqlstore.Migrate(ctx, db, sqlstore.DriverSQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func Ptr[T any](v T) *T { return &v }

// ValidInput returns an input that passes hotel validation.
func ValidInput(name, city string, price float64) domain.HotelInput {
	return domain.HotelInput{
		Name:          name,
		Address1:      "1 rue de la Paix",
		ZipCode:       "75002",
		City:          city,
		Country:       "France",
		Longitude:     Ptr(2.3315),
		Latitude:      Ptr(48.8686),
		Description:   Ptr("A quiet place."),
		MaxCapacity:   Ptr(40),
		PricePerNight: Ptr(price),
	}
}

// PNG returns a tiny valid PNG image.
func PNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// JPEG returns a tiny valid JPEG image.
func JPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}
