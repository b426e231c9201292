package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/pkordes/trip-planner/internal/domain"
)

// uploadField is the multipart form field carrying the file.
const uploadField = "file"

// UploadDocument handles POST /trips/{tripID}/documents.
// The request is multipart/form-data with the file in the "file" field. The
// part is streamed to the document service without buffering the whole file.
func (s *Server) UploadDocument(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}
	mr, err := r.MultipartReader()
	if err != nil {
		requestError(w, "expected a multipart/form-data body")
		return
	}
	part, err := nextFilePart(mr)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: ErrorDetail{Code: "payload_too_large", Message: "upload is too large"}})
			return
		}
		requestError(w, `multipart body has no "file" part`)
		return
	}
	defer part.Close()

	doc, err := s.svc.Documents.Upload(r.Context(), tripID, domain.FilePayload{
		Name:   part.FileName(),
		Size:   -1,
		Reader: part,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// DeleteDocument handles DELETE /trips/{tripID}/documents/{documentID}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}
	docID, ok := pathUUID(w, r, "documentID")
	if !ok {
		return
	}
	if err := s.svc.Documents.DeleteDocument(r.Context(), tripID, docID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// nextFilePart skips form fields until the file part.
func nextFilePart(mr *multipart.Reader) (*multipart.Part, error) {
	for {
		part, err := mr.NextPart()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, errors.New("no file part")
			}
			return nil, err
		}
		if part.FormName() == uploadField && part.FileName() != "" {
			return part, nil
		}
		part.Close()
	}
}
