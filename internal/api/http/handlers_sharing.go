package apihttp

import (
	"errors"
	"net/http"

	"nssplayer/internal/domain"
	"nssplayer/internal/usecase"
)

const defaultHistoryLimit = 20

type healthResponse struct {
	Status  string `json:"status"`
	Sharing bool   `json:"sharing"`
}

func (s *Server) handleSharingStatus(w http.ResponseWriter, r *http.Request) {
	if s.sharing == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "sharing not configured")
		return
	}
	writeJSON(w, http.StatusOK, s.sharing.Status())
}

func (s *Server) handleSharingStart(w http.ResponseWriter, r *http.Request) {
	if s.sharing == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "sharing not configured")
		return
	}
	writeShareResult(w, s.sharing.StartSharing(r.Context()))
}

func (s *Server) handleSharingStop(w http.ResponseWriter, r *http.Request) {
	if s.sharing == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "sharing not configured")
		return
	}
	writeShareResult(w, s.sharing.StopSharing(r.Context()))
}

func (s *Server) handleSharingHistory(w http.ResponseWriter, r *http.Request) {
	if s.sharing == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "sharing not configured")
		return
	}

	limit, err := parsePositiveInt(r.URL.Query().Get("limit"), true)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid limit")
		return
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	records, err := s.sharing.History(r.Context(), limit)
	if err != nil {
		if errors.Is(err, usecase.ErrRepository) {
			writeError(w, http.StatusInternalServerError, "repository_error", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list share history")
		return
	}
	if records == nil {
		records = []domain.ShareRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if s.sharing != nil {
		resp.Sharing = s.sharing.Status().State == domain.ShareSharing
	}
	writeJSON(w, http.StatusOK, resp)
}
