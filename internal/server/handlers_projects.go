package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"capsarc/pkg/domain"
)

// pageNumber defaults a missing or malformed page to 1 but passes explicit
// values through, so an out-of-range request comes back as an empty page.
func pageNumber(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		return 1
	}
	return n
}

// resultsPerPage returns the requested page size, 0 when absent or malformed
// so the default applies downstream.
func resultsPerPage(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("resultsPerPage"))
	if err != nil || n < 1 {
		return 0
	}
	return n
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	page, err := s.app.Home(s.viewerID(r), resultsPerPage(r), pageNumber(r))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleBrowse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	q := r.URL.Query()
	filter := domain.ProjectFilter{
		Query:    strings.TrimSpace(q.Get("query")),
		Major:    strings.TrimSpace(q.Get("major")),
		Abstract: strings.TrimSpace(q.Get("abstract")),
	}
	if v := q.Get("yearFrom"); v != "" {
		if year, err := strconv.Atoi(v); err == nil {
			filter.YearFrom = year
		}
	}
	if v := q.Get("yearTo"); v != "" {
		if year, err := strconv.Atoi(v); err == nil {
			filter.YearTo = year
		}
	}
	page, err := s.app.Browse(s.viewerID(r), filter, resultsPerPage(r), pageNumber(r))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	titles, err := s.app.SuggestTitles(r.URL.Query().Get("query"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": titles})
}

// /projects/{id} or /projects/{id}/pdf
func (s *Server) handleProjectByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/projects/")
	parts := strings.SplitN(path, "/", 2)
	identifier := parts[0]
	if identifier == "" {
		notFound(w, "not found")
		return
	}
	if len(parts) == 2 && parts[1] == "pdf" {
		s.handleProjectPDF(w, r, identifier)
		return
	}
	if len(parts) == 2 {
		notFound(w, "not found")
		return
	}

	project, err := s.app.ProjectByIdentifier(s.viewerID(r), identifier)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) handleProjectPDF(w http.ResponseWriter, r *http.Request, identifier string) {
	id, err := strconv.ParseInt(identifier, 10, 64)
	if err != nil {
		notFound(w, "project not found")
		return
	}
	rc, size, filename, err := s.app.ProjectPDF(r.Context(), id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	if size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	}
	_, _ = io.Copy(w, rc)
}
