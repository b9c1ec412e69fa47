package httpserver

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"hotel_catalog/internal/adapters/observability"
	"hotel_catalog/internal/app"
	"hotel_catalog/internal/domain"
)

// multipart parts above this size spill to temp files
const multipartMemory = 8 << 20

func (h *Handlers) uploadPictures(w http.ResponseWriter, r *http.Request) {
	hotelID, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if h.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var mbe *http.MaxBytesError
		switch {
		case errors.As(err, &mbe):
			h.fail(w, r, err)
		case errors.Is(err, http.ErrNotMultipart):
			h.fail(w, r, domain.BadRequest("Expected a multipart/form-data body"))
		default:
			h.fail(w, r, asBadMultipart(err))
		}
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	var headers []*multipart.FileHeader
	headers = append(headers, r.MultipartForm.File[domain.PictureField+"[]"]...)
	headers = append(headers, r.MultipartForm.File[domain.PictureField]...)
	files := make([]app.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			h.fail(w, r, fmt.Errorf("open upload %q: %w", fh.Filename, err))
			return
		}
		defer closeFile(f)
		files = append(files, app.UploadedFile{Filename: fh.Filename, Size: fh.Size, Content: f})
	}

	pics, err := h.Pictures.Upload(r.Context(), hotelID, files)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	observability.ObservePicturesUploaded(len(pics))

	msg := fmt.Sprintf("%d pictures uploaded successfully", len(pics))
	if len(pics) == 1 {
		msg = "1 picture uploaded successfully"
	}
	respond(w, http.StatusCreated, msg, pics)
}

type positionBody struct {
	Position *int `json:"position"`
}

func (h *Handlers) updatePicture(w http.ResponseWriter, r *http.Request) {
	hotelID, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	pictureID, err := pathID(r, "pictureId")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var body positionBody
	if err := decodeJSON(w, r, &body); err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.Pictures.UpdatePosition(r.Context(), hotelID, pictureID, body.Position)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Picture position updated successfully", p)
}

func (h *Handlers) deletePicture(w http.ResponseWriter, r *http.Request) {
	hotelID, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	pictureID, err := pathID(r, "pictureId")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.Pictures.Delete(r.Context(), hotelID, pictureID); err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Picture deleted successfully", nil)
}

// asBadMultipart keeps oversize bodies as they are and turns any other
// parse failure into a client error.
func asBadMultipart(err error) error {
	if strings.Contains(err.Error(), "request body too large") {
		return err
	}
	return domain.BadRequest("Malformed multipart body")
}

func closeFile(f multipart.File) { _ = f.Close() }
