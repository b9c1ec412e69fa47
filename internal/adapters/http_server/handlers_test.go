package httpserver_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel_catalog/internal/adapters/blobstore"
	httpserver "hotel_catalog/internal/adapters/http_server"
	"hotel_catalog/internal/app"
	"hotel_catalog/internal/domain"
	"hotel_catalog/internal/storage/sqlstore"
	"hotel_catalog/internal/testutils"
)

type testEnv struct {
	h    http.Handler
	root string
	repo *sqlstore.Repo
}

type apiResponse struct {
	Success bool                `json:"success"`
	Code    int                 `json:"code"`
	Message string              `json:"message"`
	Data    json.RawMessage     `json:"data"`
	Errors  map[string][]string `json:"errors"`
}

func newEnv(t *testing.T, maxUpload int64) *testEnv {
	t.Helper()
	repo := sqlstore.New(testutils.SetupDB(t))
	disk, err := blobstore.NewDisk(t.TempDir())
	require.NoError(t, err)

	srv := httpserver.New(httpserver.Options{Timeout: 5 * time.Second})
	srv.MountHandlers(&httpserver.Handlers{
		Hotels:         app.NewHotelService(repo, repo, disk, nil, time.Minute),
		Pictures:       app.NewPictureService(repo, repo, disk, nil),
		MaxUploadBytes: maxUpload,
	})
	srv.MountStatic(disk.Root())
	return &testEnv{h: srv.Mux(), root: disk.Root(), repo: repo}
}

func (e *testEnv) do(t *testing.T, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	e.h.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) doJSON(t *testing.T, method, path string, v any) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var body io.Reader
	if v != nil {
		b, err := json.Marshal(v)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}
	rr := e.do(t, method, path, body, "application/json")
	return rr, decode(t, rr)
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var out apiResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	require.Equal(t, rr.Code, out.Code, "envelope code must mirror status")
	return out
}

func hotelBody(name, city string, price float64) map[string]any {
	return map[string]any{
		"name":            name,
		"address_1":       "1 rue de la Paix",
		"zip_code":        "75002",
		"city":            city,
		"country":         "France",
		"longitude":       2.3315,
		"latitude":        48.8686,
		"max_capacity":    40,
		"price_per_night": price,
	}
}

func (e *testEnv) createHotel(t *testing.T, name, city string, price float64) domain.Hotel {
	t.Helper()
	rr, res := e.doJSON(t, http.MethodPost, "/api/hotels", hotelBody(name, city, price))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var h domain.Hotel
	require.NoError(t, json.Unmarshal(res.Data, &h))
	return h
}

func multipartBody(t *testing.T, field string, files map[string][]byte, order []string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range order {
		fw, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = fw.Write(files[name])
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (e *testEnv) upload(t *testing.T, hotelID int64, n int) (*httptest.ResponseRecorder, []domain.Picture) {
	t.Helper()
	img := testutils.PNG(t)
	files := map[string][]byte{}
	order := make([]string, n)
	for i := 0; i < n; i++ {
		order[i] = fmt.Sprintf("p%d.png", i)
		files[order[i]] = img
	}
	body, ct := multipartBody(t, "pictures[]", files, order)
	rr := e.do(t, http.MethodPost, fmt.Sprintf("/api/hotels/%d/pictures", hotelID), body, ct)
	res := decode(t, rr)
	var pics []domain.Picture
	if rr.Code == http.StatusCreated {
		require.NoError(t, json.Unmarshal(res.Data, &pics))
	}
	return rr, pics
}

func TestHotelCRUD(t *testing.T) {
	e := newEnv(t, 8<<20)
	h := e.createHotel(t, "Hôtel Lumière", "Paris", 120)
	assert.NotZero(t, h.ID)
	assert.Equal(t, "1 rue de la Paix, 75002 Paris, France", h.FullAddress)
	assert.NotNil(t, h.Pictures)

	path := fmt.Sprintf("/api/hotels/%d", h.ID)
	rr := e.do(t, http.MethodGet, path, nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	etag := rr.Header().Get("ETag")
	require.NotEmpty(t, etag)
	var got domain.Hotel
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &got))
	assert.Equal(t, h.Name, got.Name)
	assert.Equal(t, 120.0, got.PricePerNight)

	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("If-None-Match", etag)
	cached := httptest.NewRecorder()
	e.h.ServeHTTP(cached, req)
	assert.Equal(t, http.StatusNotModified, cached.Code)

	rr, res := e.doJSON(t, http.MethodPut, path, hotelBody("Hôtel Soleil", "Nice", 99.99))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.NoError(t, json.Unmarshal(res.Data, &got))
	assert.Equal(t, "Nice", got.City)

	rr, res = e.doJSON(t, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Hotel 'Hôtel Soleil' deleted successfully", res.Message)

	rr, res = e.doJSON(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.False(t, res.Success)
}

func TestCreateHotel_ValidationAndMalformedBodies(t *testing.T) {
	e := newEnv(t, 8<<20)

	rr, res := e.doJSON(t, http.MethodPost, "/api/hotels", map[string]any{"name": "  "})
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	for _, f := range []string{"name", "address_1", "zip_code", "city", "country", "longitude", "latitude", "max_capacity", "price_per_night"} {
		assert.NotEmpty(t, res.Errors[f], f)
	}

	b := hotelBody("X", "Paris", 10)
	b["price_per_night"] = "cheap"
	rr, res = e.doJSON(t, http.MethodPost, "/api/hotels", b)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.NotEmpty(t, res.Errors["price_per_night"])

	rr = e.do(t, http.MethodPost, "/api/hotels", strings.NewReader(`{"name":`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.False(t, decode(t, rr).Success)

	rr = e.do(t, http.MethodPut, "/api/hotels/404", strings.NewReader(`{}`), "application/json")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestListHotels_FiltersSortAndPaging(t *testing.T) {
	e := newEnv(t, 8<<20)
	e.createHotel(t, "Budget", "Lyon", 50)
	e.createHotel(t, "Middle", "Paris", 150)
	e.createHotel(t, "Luxury", "Paris", 250)

	var page domain.Page[domain.Hotel]

	_, res := e.doJSON(t, http.MethodGet, "/api/hotels?min_price=100&max_price=200", nil)
	require.NoError(t, json.Unmarshal(res.Data, &page))
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Middle", page.Data[0].Name)

	_, res = e.doJSON(t, http.MethodGet, "/api/hotels?sort_by=price_per_night&sort_order=asc", nil)
	require.NoError(t, json.Unmarshal(res.Data, &page))
	require.Len(t, page.Data, 3)
	for i := 1; i < len(page.Data); i++ {
		assert.LessOrEqual(t, page.Data[i-1].PricePerNight, page.Data[i].PricePerNight)
	}

	_, res = e.doJSON(t, http.MethodGet, "/api/hotels?sort_by=price_per_night", nil)
	require.NoError(t, json.Unmarshal(res.Data, &page))
	assert.Equal(t, "Luxury", page.Data[0].Name, "default direction is desc")

	_, res = e.doJSON(t, http.MethodGet, "/api/hotels?city=paRIs&per_page=1&page=2", nil)
	require.NoError(t, json.Unmarshal(res.Data, &page))
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 2, page.LastPage)
	assert.Equal(t, 2, page.CurrentPage)
	require.NotNil(t, page.From)
	assert.Equal(t, 2, *page.From)

	_, res = e.doJSON(t, http.MethodGet, "/api/hotels?per_page=500", nil)
	require.NoError(t, json.Unmarshal(res.Data, &page))
	assert.Equal(t, 100, page.PerPage)

	_, res = e.doJSON(t, http.MethodGet, "/api/hotels?sort_by=password", nil)
	require.NoError(t, json.Unmarshal(res.Data, &page))
	assert.Len(t, page.Data, 3)

	rr, res := e.doJSON(t, http.MethodGet, "/api/hotels?min_price=abc", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.NotEmpty(t, res.Errors["min_price"])
}

func TestSearchHotels(t *testing.T) {
	e := newEnv(t, 8<<20)
	e.createHotel(t, "Hôtel Paris Centre", "Paris", 100)
	e.createHotel(t, "Hôtel Lyon", "Lyon", 100)
	e.createHotel(t, "Hôtel Paris Nord", "Paris", 100)

	for _, path := range []string{"/api/hotels/search", "/api/hotels/search?q=", "/api/hotels/search?q=%20%20"} {
		rr, res := e.doJSON(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code, path)
		assert.False(t, res.Success, path)
	}

	rr, res := e.doJSON(t, http.MethodGet, "/api/hotels/search?q=Paris", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var page domain.Page[domain.Hotel]
	require.NoError(t, json.Unmarshal(res.Data, &page))
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 15, page.PerPage)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "Hôtel Paris Centre", page.Data[0].Name)
	assert.Equal(t, "Hôtel Paris Nord", page.Data[1].Name)
}

func TestHotels_NonASCIICaseAndFarPages(t *testing.T) {
	e := newEnv(t, 8<<20)
	want := e.createHotel(t, "HÔTEL ÉTOILE", "Paris", 100)

	var page domain.Page[domain.Hotel]
	rr, res := e.doJSON(t, http.MethodGet, "/api/hotels/search?q=%C3%A9toile", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(res.Data, &page))
	require.Equal(t, 1, page.Total)
	assert.Equal(t, want.ID, page.Data[0].ID)

	_, res = e.doJSON(t, http.MethodGet, "/api/hotels?name=h%C3%B4tel", nil)
	page = domain.Page[domain.Hotel]{}
	require.NoError(t, json.Unmarshal(res.Data, &page))
	assert.Equal(t, 1, page.Total)

	for _, path := range []string{"/api/hotels?page=922337203685477580", "/api/hotels/search?q=paris&page=922337203685477580"} {
		rr, res = e.doJSON(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rr.Code, path)
		page = domain.Page[domain.Hotel]{}
		require.NoError(t, json.Unmarshal(res.Data, &page))
		assert.Empty(t, page.Data, path)
		assert.Nil(t, page.From, path)
		assert.Nil(t, page.To, path)
		assert.Equal(t, 1, page.Total, path)
	}
}

func TestPictures_UploadRepositionDelete(t *testing.T) {
	e := newEnv(t, 8<<20)
	a := e.createHotel(t, "A", "Paris", 100)
	b := e.createHotel(t, "B", "Paris", 100)

	rr, first := e.upload(t, a.ID, 3)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "3 pictures uploaded successfully", decode(t, rr).Message)
	require.Len(t, first, 3)
	for i, p := range first {
		assert.Equal(t, i, p.Position)
	}

	rr, second := e.upload(t, a.ID, 2)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, 3, second[0].Position)
	assert.Equal(t, 4, second[1].Position)

	// files are reachable under /storage
	img := e.do(t, http.MethodGet, "/storage/"+first[0].Filepath, nil, "")
	require.Equal(t, http.StatusOK, img.Code)
	assert.Equal(t, testutils.PNG(t), img.Body.Bytes())
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, fmt.Sprintf("/storage/hotels/%d/", a.ID), nil, "").Code)

	// cross-hotel reposition is forbidden and leaves the row alone
	wrong := fmt.Sprintf("/api/hotels/%d/pictures/%d", b.ID, first[2].ID)
	rr, _ = e.doJSON(t, http.MethodPatch, wrong, map[string]any{"position": 0})
	assert.Equal(t, http.StatusForbidden, rr.Code)
	stored, err := e.repo.GetPicture(t.Context(), first[2].ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Position)

	right := fmt.Sprintf("/api/hotels/%d/pictures/%d", a.ID, first[2].ID)
	rr, res := e.doJSON(t, http.MethodPatch, right, map[string]any{"position": -1})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.NotEmpty(t, res.Errors["position"])
	rr, res = e.doJSON(t, http.MethodPatch, right, map[string]any{"position": 5000000000})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.NotEmpty(t, res.Errors["position"])
	rr, res = e.doJSON(t, http.MethodPatch, right, map[string]any{"position": "first"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.NotEmpty(t, res.Errors["position"])

	rr, res = e.doJSON(t, http.MethodPatch, right, map[string]any{"position": 0})
	require.Equal(t, http.StatusOK, rr.Code)
	var moved domain.Picture
	require.NoError(t, json.Unmarshal(res.Data, &moved))
	assert.Equal(t, 0, moved.Position)

	// delete one picture
	rr, _ = e.doJSON(t, http.MethodDelete, fmt.Sprintf("/api/hotels/%d/pictures/%d", a.ID, first[1].ID), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	_, err = os.Stat(filepath.Join(e.root, filepath.FromSlash(first[1].Filepath)))
	assert.True(t, os.IsNotExist(err))

	// hotel delete cascades to rows, files and the folder
	rr, _ = e.doJSON(t, http.MethodDelete, fmt.Sprintf("/api/hotels/%d", a.ID), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	byHotel, err := e.repo.ListPictures(t.Context(), a.ID)
	require.NoError(t, err)
	assert.Empty(t, byHotel[a.ID])
	_, err = os.Stat(filepath.Join(e.root, "hotels", fmt.Sprint(a.ID)))
	assert.True(t, os.IsNotExist(err))
}

func TestPictures_UploadRejections(t *testing.T) {
	e := newEnv(t, 8<<20)
	h := e.createHotel(t, "A", "Paris", 100)
	path := fmt.Sprintf("/api/hotels/%d/pictures", h.ID)

	body, ct := multipartBody(t, "pictures[]", map[string][]byte{
		"ok.png":    testutils.PNG(t),
		"notes.txt": []byte("plain text, not an image"),
	}, []string{"ok.png", "notes.txt"})
	rr := e.do(t, http.MethodPost, path, body, ct)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	res := decode(t, rr)
	assert.NotEmpty(t, res.Errors["pictures.1"])
	assert.Empty(t, res.Errors["pictures.0"])
	entries, _ := os.ReadDir(e.root)
	assert.Empty(t, entries, "nothing may be written for a rejected batch")

	body, ct = multipartBody(t, "other", map[string][]byte{"ok.png": testutils.PNG(t)}, []string{"ok.png"})
	rr = e.do(t, http.MethodPost, path, body, ct)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.NotEmpty(t, decode(t, rr).Errors["pictures"])

	rr = e.do(t, http.MethodPost, path, strings.NewReader(`{}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr, _ = e.upload(t, 999, 1)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPictures_BodyTooLarge(t *testing.T) {
	e := newEnv(t, 1024)
	h := e.createHotel(t, "A", "Paris", 100)

	body, ct := multipartBody(t, "pictures", map[string][]byte{"big.png": bytes.Repeat([]byte{0x89}, 4096)}, []string{"big.png"})
	rr := e.do(t, http.MethodPost, fmt.Sprintf("/api/hotels/%d/pictures", h.ID), body, ct)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	assert.False(t, decode(t, rr).Success)
}

func TestRoutingErrorsUseEnvelope(t *testing.T) {
	e := newEnv(t, 8<<20)

	rr, res := e.doJSON(t, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Endpoint not found", res.Message)

	rr, res = e.doJSON(t, http.MethodDelete, "/api/hotels", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.False(t, res.Success)

	rr, _ = e.doJSON(t, http.MethodGet, "/api/hotels/abc", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	health := e.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, "ok", health.Body.String())
}

func TestRecover_HidesPanicsUnlessDebug(t *testing.T) {
	boom := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { panic("db exploded") })

	rr := httptest.NewRecorder()
	httpserver.Recover(false)(boom).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	res := decode(t, rr)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Internal server error", res.Message)

	rr = httptest.NewRecorder()
	httpserver.Recover(true)(boom).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, decode(t, rr).Message, "db exploded")
}
