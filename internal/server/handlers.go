package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/meetpulse/backend/internal/auth"
	"github.com/meetpulse/backend/internal/storage"
	"github.com/meetpulse/backend/internal/transcription"
)

// multipartOverhead pads the body cap beyond the audio limit to leave
// room for the other form fields and boundaries.
const multipartOverhead = 1 << 20

type errorResponse struct {
	Message string `json:"message"`
}

type authResponse struct {
	User  *storage.User `json:"user"`
	Token string        `json:"token"`
}

type credentialsRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type summaryResponse struct {
	ID         string `json:"id"`
	Transcript string `json:"transcript"`
	Summary    string `json:"summary"`
	AudioURL   string `json:"audioUrl"`
}

// handleSignup registers an account.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := s.auth.Signup(r.Context(), req.Name, req.Email, req.Password)
	if errors.Is(err, storage.ErrEmailTaken) {
		s.writeError(w, http.StatusBadRequest, "user already exists")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.writeJSON(w, http.StatusCreated, authResponse{User: user, Token: token})
}

// handleLogin verifies credentials and issues a token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		s.writeError(w, http.StatusBadRequest, "invalid credentials")
		return
	}
	if err != nil {
		s.log.Error().Err(err).Msg("login failed")
		s.writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	s.writeJSON(w, http.StatusOK, authResponse{User: user, Token: token})
}

// handleCreateSummary accepts a multipart audio upload and runs the
// transcription pipeline to completion.
func (s *Server) handleCreateSummary(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, s.pipeline.MaxUploadBytes()+multipartOverhead)
	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid multipart form or file too large")
		return
	}

	file, _, err := r.FormFile("audio")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "no audio file uploaded")
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "reading audio file failed")
		return
	}

	var extraParticipants []string
	if raw := r.FormValue("participants"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &extraParticipants); err != nil {
			s.writeError(w, http.StatusBadRequest, "participants must be a JSON array of identities")
			return
		}
	}

	rec, err := s.pipeline.ProcessAudio(r.Context(), audio, r.FormValue("roomId"), identity, extraParticipants)
	switch {
	case errors.Is(err, transcription.ErrEmptyAudio),
		errors.Is(err, transcription.ErrAudioTooLarge):
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.log.Error().Err(err).Str("identity", identity).Msg("audio processing failed")
		s.writeError(w, http.StatusInternalServerError, "failed to process audio: "+err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, summaryResponse{
		ID:         rec.ID,
		Transcript: rec.Transcript,
		Summary:    rec.Summary,
		AudioURL:   rec.AudioURL,
	})
}

// handleListSummaries returns the caller's records, newest first.
func (s *Server) handleListSummaries(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.ListSummariesByParticipant(r.Context(), identityFrom(r.Context()))
	if err != nil {
		s.log.Error().Err(err).Msg("listing summaries failed")
		s.writeError(w, http.StatusInternalServerError, "failed to fetch summaries")
		return
	}
	if records == nil {
		records = []*storage.Summary{}
	}
	s.writeJSON(w, http.StatusOK, records)
}

// handleDeleteSummary removes one record and its audio artifact.
func (s *Server) handleDeleteSummary(w http.ResponseWriter, r *http.Request) {
	err := s.pipeline.DeleteRecord(r.Context(), r.PathValue("id"), identityFrom(r.Context()))
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "summary not found")
		return
	case errors.Is(err, transcription.ErrNotParticipant):
		s.writeError(w, http.StatusForbidden, "not a participant of this summary")
		return
	case err != nil:
		s.log.Error().Err(err).Msg("deleting summary failed")
		s.writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"message": "summary deleted"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("encoding response failed")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Message: msg})
}
