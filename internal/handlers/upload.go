package handlers

import (
	"errors"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/sbms/facilities-server/internal/services"
)

const multipartMemory = 8 << 20

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

// parseMultipart reads a multipart body and returns the optional "image"
// part. The caller closes the returned file when it is non-nil.
func parseMultipart(w http.ResponseWriter, r *http.Request) (*services.Upload, multipart.File, bool) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			respondError(w, http.StatusRequestEntityTooLarge, "Upload too large")
			return nil, nil, false
		}
		respondError(w, http.StatusBadRequest, "Invalid multipart form")
		return nil, nil, false
	}

	f, hdr, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, true
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid image upload")
		return nil, nil, false
	}
	return &services.Upload{Filename: hdr.Filename, Content: f}, f, true
}
