package handlers

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	objectclient "github.com/markdave123-py/chatterbox/internal/core/object-client"
	"github.com/markdave123-py/chatterbox/internal/services"
)

// multipartOverhead is the allowance for form fields and part headers on top of the file.
const multipartOverhead = 1 << 20

type FileService interface {
	ReplaceCompanyFile(ctx context.Context, companyID int64, f services.FileUpload) (objectclient.Location, error)
	MaxBytes() int64
}

type DocumentHandler struct {
	files FileService
}

func NewDocumentHandler(files FileService) *DocumentHandler {
	return &DocumentHandler{files: files}
}

// UploadDocument handles POST /upload: multipart form with "file" and "companyId".
func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	maxBytes := h.files.MaxBytes()
	tooLarge := services.NewTooLargeError(maxBytes)

	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(maxBytes + multipartOverhead); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) || errors.Is(err, multipart.ErrMessageTooLarge) {
			writeError(w, r, tooLarge)
			return
		}
		writeError(w, r, services.NewValidationError("invalid multipart form"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	companyID, err := ParseCompanyID(r.FormValue("companyId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := authorizeCompany(r, companyID); err != nil {
		writeError(w, r, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, services.NewValidationError("file is required"))
		return
	}
	defer file.Close()

	if header.Size > maxBytes {
		writeError(w, r, tooLarge)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		writeError(w, r, services.NewValidationError("could not read file"))
		return
	}

	loc, err := h.files.ReplaceCompanyFile(r.Context(), companyID, services.FileUpload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{NewFileLocation: loc.String()})
}
