package app_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"hotel_catalog/internal/app"
	"hotel_catalog/internal/domain"
	"hotel_catalog/internal/storage/sqlstore"
	"hotel_catalog/internal/testutils"
)

// ---- fakes ----

type fakeCache struct {
	store map[string]any
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if c.store == nil {
		return false, nil
	}
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	switch d := dst.(type) {
	case *domain.Hotel:
		*d = v.(domain.Hotel)
	}
	return true, nil
}
func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string]any{}
	}
	c.store[key] = v
	return nil
}
func (c *fakeCache) Del(ctx context.Context, key string) error {
	delete(c.store, key)
	c.dels = append(c.dels, key)
	return nil
}

type fakeBlobs struct {
	mu          sync.Mutex
	files       map[string][]byte
	removedDirs []string
	deletes     map[string]int
	failWrite   bool
	failDelete  bool
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{files: map[string][]byte{}, deletes: map[string]int{}}
}

func (b *fakeBlobs) Exists(ctx context.Context, path string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.files[path]
	return ok, nil
}
func (b *fakeBlobs) Write(ctx context.Context, path string, r io.Reader) (int64, error) {
	if b.failWrite {
		return 0, errors.New("disk full")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.files[path] = data
	return int64(len(data)), nil
}
func (b *fakeBlobs) Delete(ctx context.Context, path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deletes[path]++
	if b.failDelete {
		return errors.New("permission denied")
	}
	delete(b.files, path)
	return nil
}
func (b *fakeBlobs) RemoveDirIfEmpty(ctx context.Context, dir string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for k := range b.files {
		if strings.HasPrefix(k, dir+"/") {
			return nil
		}
	}
	b.removedDirs = append(b.removedDirs, dir)
	return nil
}

// ---- fixture ----

type fixture struct {
	repo   *sqlstore.Repo
	blobs  *fakeBlobs
	cache  *fakeCache
	hotels *app.HotelService
	pics   *app.PictureService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := sqlstore.New(testutils.SetupDB(t))
	blobs := newFakeBlobs()
	cache := &fakeCache{}
	return &fixture{
		repo:   repo,
		blobs:  blobs,
		cache:  cache,
		hotels: app.NewHotelService(repo, repo, blobs, cache, 10*time.Minute),
		pics:   app.NewPictureService(repo, repo, blobs, cache),
	}
}

func (f *fixture) createHotel(t *testing.T, name, city string, price float64) domain.Hotel {
	t.Helper()
	h, err := f.hotels.Create(context.Background(), testutils.ValidInput(name, city, price))
	if err != nil {
		t.Fatalf("create hotel: %v", err)
	}
	return h
}

func pngFiles(t *testing.T, n int) []app.UploadedFile {
	t.Helper()
	img := testutils.PNG(t)
	out := make([]app.UploadedFile, n)
	for i := range out {
		out[i] = app.UploadedFile{Filename: "photo.png", Size: int64(len(img)), Content: bytes.NewReader(img)}
	}
	return out
}
