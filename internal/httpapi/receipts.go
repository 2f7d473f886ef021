package httpapi

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/mmynk/splithub/internal/ai"
	"github.com/mmynk/splithub/internal/receipt"
)

// multipartOverhead leaves room for form boundaries and headers.
const multipartOverhead = 64 << 10

func scanStatus(err error) int {
	switch {
	case errors.Is(err, receipt.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, receipt.ErrEmptyImage), errors.Is(err, receipt.ErrUnsupported):
		return http.StatusBadRequest
	case errors.Is(err, receipt.ErrUnparseable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ai.ErrDisabled):
		return http.StatusServiceUnavailable
	}
	return http.StatusBadGateway
}

// readImage pulls the "image" part out of a multipart upload.
func (s *Server) readImage(w http.ResponseWriter, r *http.Request) ([]byte, string, int, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+multipartOverhead)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", http.StatusRequestEntityTooLarge, receipt.ErrTooLarge
		}
		return nil, "", http.StatusBadRequest, errors.New("expected multipart form with an image field")
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		return nil, "", http.StatusBadRequest, errors.New("image field required")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.maxUpload+1))
	if err != nil {
		return nil, "", http.StatusBadRequest, errors.New("could not read image")
	}
	if int64(len(data)) > s.maxUpload {
		return nil, "", http.StatusRequestEntityTooLarge, receipt.ErrTooLarge
	}
	return data, header.Header.Get("Content-Type"), http.StatusOK, nil
}

func (s *Server) handleScanReceipt(w http.ResponseWriter, r *http.Request) {
	image, mimeType, status, err := s.readImage(w, r)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}

	result, err := s.scanner.Scan(r.Context(), image, mimeType)
	if err != nil {
		slog.Warn("Receipt scan failed", "bytes", len(image), "mime", mimeType, "error", err)
		writeError(w, scanStatus(err), err.Error())
		return
	}

	slog.Info("Receipt scanned", "items", len(result.Items), "total", result.Total)
	writeJSON(w, http.StatusOK, result)
}

// handleMockOCR answers with the sample receipt. An uploaded image is
// optional but is still validated when present.
func (s *Server) handleMockOCR(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength != 0 && r.Header.Get("Content-Type") != "" {
		image, mimeType, status, err := s.readImage(w, r)
		if err != nil {
			writeError(w, status, err.Error())
			return
		}
		result, err := receipt.MockScanner{}.Scan(r.Context(), image, mimeType)
		if err != nil {
			writeError(w, scanStatus(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, result)
		return
	}
	writeJSON(w, http.StatusOK, receipt.Sample())
}
