// internal/adapters/http_server/handlers.go
package httpserver

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"hotel_catalog/internal/app"
	"hotel_catalog/internal/domain"
)

type Handlers struct {
	Hotels         *app.HotelService
	Pictures       *app.PictureService
	Debug          bool
	MaxUploadBytes int64
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Route("/api", func(r chi.Router) {
		r.Get("/hotels", h.listHotels)
		r.Get("/hotels/search", h.searchHotels)
		r.Post("/hotels", h.createHotel)
		r.Get("/hotels/{id}", h.getHotel)
		r.Put("/hotels/{id}", h.updateHotel)
		r.Patch("/hotels/{id}", h.updateHotel)
		r.Delete("/hotels/{id}", h.deleteHotel)

		r.Post("/hotels/{id}/pictures", h.uploadPictures)
		r.Patch("/hotels/{id}/pictures/{pictureId}", h.updatePicture)
		r.Delete("/hotels/{id}/pictures/{pictureId}", h.deletePicture)
	})
}

func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, err, h.Debug)
}

func (h *Handlers) listHotels(w http.ResponseWriter, r *http.Request) {
	q, err := hotelsQuery(r.URL.Query())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page, err := h.Hotels.List(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Hotels retrieved successfully", page)
}

func (h *Handlers) searchHotels(w http.ResponseWriter, r *http.Request) {
	p, err := pageParam(r.URL.Query())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page, err := h.Hotels.Search(r.Context(), r.URL.Query().Get("q"), p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Search results retrieved successfully", page)
}

func (h *Handlers) getHotel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	hotel, err := h.Hotels.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	etag, body := calcETagAndBody(envelope{Success: true, Code: http.StatusOK, Message: "Hotel retrieved successfully", Data: hotel})
	// If client already has this version, short-circuit.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write getHotel body")
	}
}

func (h *Handlers) createHotel(w http.ResponseWriter, r *http.Request) {
	var in domain.HotelInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	hotel, err := h.Hotels.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusCreated, "Hotel created successfully", hotel)
}

func (h *Handlers) updateHotel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in domain.HotelInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	hotel, err := h.Hotels.Update(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Hotel updated successfully", hotel)
}

func (h *Handlers) deleteHotel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	name, err := h.Hotels.Delete(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, fmt.Sprintf("Hotel '%s' deleted successfully", name), nil)
}
