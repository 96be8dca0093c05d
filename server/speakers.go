package server

import (
	"encoding/json"
	"io"
	"net/http"

	mserrors "github.com/otherjamesbrown/meetscribe/pkg/errors"
	"github.com/otherjamesbrown/meetscribe/pkg/store"
)

func (s *Server) handleListSpeakers(w http.ResponseWriter, r *http.Request) {
	listed, err := s.speakers.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listed)
}

// handleEnrollSpeaker accepts a multipart form: a "sample" audio part plus
// "name" and optional "description" fields.
func (s *Server) handleEnrollSpeaker(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		s.writeError(w, r, mserrors.Validationf("body", "invalid multipart form: %v", err))
		return
	}

	file, header, err := r.FormFile("sample")
	if err != nil {
		s.writeError(w, r, mserrors.Validationf("sample", "voice sample is required"))
		return
	}
	defer file.Close()
	sample, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, r, mserrors.Validationf("sample", "unreadable voice sample: %v", err))
		return
	}

	sp, err := s.speakers.Enroll(r.Context(),
		r.FormValue("name"), r.FormValue("description"), header.Filename, sample)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sp)
}

func (s *Server) handleGetSpeaker(w http.ResponseWriter, r *http.Request) {
	sp, err := s.speakers.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sp)
}

func (s *Server) handleUpdateSpeaker(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, r, mserrors.Validationf("body", "invalid JSON: %v", err))
		return
	}

	sp, err := s.speakers.Update(r.Context(), r.PathValue("id"), store.SpeakerUpdate{
		Name:        body.Name,
		Description: body.Description,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sp)
}

func (s *Server) handleDeleteSpeaker(w http.ResponseWriter, r *http.Request) {
	if err := s.speakers.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleTagSegment assigns a display name to the speaker label of a segment.
func (s *Server) handleTagSegment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, r, mserrors.Validationf("body", "invalid JSON: %v", err))
		return
	}

	tag, err := s.speakers.TagSegment(r.Context(), r.PathValue("id"), body.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tag)
}
