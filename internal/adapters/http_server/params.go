package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"hotel_catalog/internal/domain"
)

const maxJSONBody = 1 << 20

// pathID parses a numeric URL param; anything else reads as a missing resource.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		return 0, domain.ErrNotFound
	}
	return id, nil
}

// hotelsQuery reads list filters. Blank parameters count as absent.
func hotelsQuery(v url.Values) (domain.HotelsQuery, error) {
	ve := domain.NewValidationError()
	q := domain.HotelsQuery{
		Name:        optString(v, "name"),
		City:        optString(v, "city"),
		Country:     optString(v, "country"),
		MinPrice:    optFloat(v, "min_price", ve),
		MaxPrice:    optFloat(v, "max_price", ve),
		MinCapacity: optInt(v, "min_capacity", ve),
		SortBy:      strings.TrimSpace(v.Get("sort_by")),
		SortDesc:    !strings.EqualFold(strings.TrimSpace(v.Get("sort_order")), "asc"),
	}
	if q.SortBy == "" {
		q.SortBy = "created_at"
	}
	if p := optInt(v, "page", ve); p != nil {
		q.Page = *p
	}
	if pp := optInt(v, "per_page", ve); pp != nil {
		q.PerPage = *pp
		if q.PerPage == 0 {
			q.PerPage = 1
		}
	}
	return q, ve.OrNil()
}

func pageParam(v url.Values) (int, error) {
	ve := domain.NewValidationError()
	p := optInt(v, "page", ve)
	if err := ve.OrNil(); err != nil {
		return 0, err
	}
	if p == nil {
		return 1, nil
	}
	return *p, nil
}

func optString(v url.Values, key string) *string {
	s := strings.TrimSpace(v.Get(key))
	if s == "" {
		return nil
	}
	return &s
}

func optFloat(v url.Values, key string, ve *domain.ValidationError) *float64 {
	s := optString(v, key)
	if s == nil {
		return nil
	}
	f, err := strconv.ParseFloat(*s, 64)
	if err != nil {
		ve.Add(key, fmt.Sprintf("The %s must be a number", key))
		return nil
	}
	return &f
}

func optInt(v url.Values, key string, ve *domain.ValidationError) *int {
	s := optString(v, key)
	if s == nil {
		return nil
	}
	n, err := strconv.Atoi(*s)
	if err != nil {
		ve.Add(key, fmt.Sprintf("The %s must be an integer", key))
		return nil
	}
	return &n
}

// decodeJSON reads a bounded JSON body into dst. A value of the wrong type
// is reported against its field.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return nil
	}

	var (
		te  *json.UnmarshalTypeError
		mbe *http.MaxBytesError
	)
	switch {
	case errors.As(err, &mbe):
		return err
	case errors.As(err, &te) && te.Field != "":
		ve := domain.NewValidationError()
		ve.Add(te.Field, fmt.Sprintf("The %s must be of type %s", te.Field, jsonKind(te.Type.Kind().String())))
		return ve
	case errors.Is(err, io.EOF):
		return domain.BadRequest("Request body is empty")
	default:
		return domain.BadRequest("Malformed JSON body")
	}
}

func jsonKind(k string) string {
	switch k {
	case "int", "int64":
		return "integer"
	case "float64":
		return "number"
	}
	return k
}
