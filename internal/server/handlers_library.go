package server

import (
	"net/http"
	"strconv"
	"strings"

	"capsarc/pkg/domain"
)

type saveRequest struct {
	ProjectID int64 `json:"projectId"`
}

func (s *Server) handleLibrary(w http.ResponseWriter, r *http.Request, sess domain.Session) {
	switch r.Method {
	case http.MethodGet:
		page, err := s.app.Library(sess.PrincipalID, resultsPerPage(r), pageNumber(r))
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	case http.MethodPost:
		var req saveRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		outcome, err := s.app.SaveProjectToLibrary(sess.PrincipalID, req.ProjectID)
		if err != nil {
			writeAppError(w, err)
			return
		}
		status := http.StatusCreated
		if outcome.AlreadySaved {
			status = http.StatusOK
		}
		writeJSON(w, status, outcome)
	default:
		methodNotAllowed(w)
	}
}

// /library/{entryID}
func (s *Server) handleLibraryEntry(w http.ResponseWriter, r *http.Request, sess domain.Session) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	raw := strings.TrimPrefix(r.URL.Path, "/library/")
	entryID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || entryID < 1 {
		notFound(w, "entry not found")
		return
	}
	if err := s.app.RemoveLibraryEntry(sess.PrincipalID, entryID); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
