package http

import (
	"errors"
	"io"
	"net/http"

	"pennywise/internal/log"
	"pennywise/internal/scan"
)

// maxScanUpload caps receipt uploads at 8 MB.
const maxScanUpload = 8 << 20

type draftPayload struct {
	Total    string   `json:"total"`
	Category string   `json:"category"`
	Date     string   `json:"date"`
	Merchant string   `json:"merchant"`
	Items    []string `json:"items,omitempty"`
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	user, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxScanUpload)
	if err := r.ParseMultipartForm(maxScanUpload); err != nil {
		writeError(w, http.StatusBadRequest, "expected multipart form with an image field")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing image field")
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read image")
		return
	}
	mimeType := header.Header.Get("Content-Type")

	draft, err := s.scanner.Extract(r.Context(), image, mimeType)
	if err != nil {
		if errors.Is(err, scan.ErrInvalidInput) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.logger.ErrorContext(r.Context(), "Receipt extraction failed",
			log.FieldUserID, user.ID,
			log.FieldMimeType, mimeType,
			log.FieldError, err)
		writeError(w, http.StatusBadGateway, "receipt extraction failed")
		return
	}

	writeJSON(w, http.StatusOK, draftPayload{
		Total:    draft.Total.DecimalString(),
		Category: string(draft.Category),
		Date:     draft.Date.String(),
		Merchant: draft.Merchant,
		Items:    draft.Items,
	})
}
