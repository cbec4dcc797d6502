package apihttp

import (
	"encoding/json"
	"errors"
	"net/http"

	"nssplayer/internal/domain"
)

type mediaResponse struct {
	Path string `json:"path"`
}

type mediaRequest struct {
	Path string `json:"path"`
}

func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	if s.sharing == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "sharing not configured")
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, mediaResponse{Path: string(s.sharing.CurrentMedia())})

	case http.MethodPost:
		var body mediaRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid json")
			return
		}
		ref, err := s.sharing.SelectFile(body.Path)
		if err != nil {
			if errors.Is(err, domain.ErrNoFileSelected) {
				writeError(w, http.StatusBadRequest, "invalid_request", "path is required")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to select file")
			return
		}
		writeJSON(w, http.StatusOK, mediaResponse{Path: string(ref)})

	case http.MethodDelete:
		s.sharing.ClearFile()
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
