package server

import (
	"net/http"
	"strconv"
	"strings"

	"capsarc/internal/app"
	"capsarc/pkg/domain"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, _ domain.Session) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	stats, err := s.app.Dashboard()
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleAdminProjects(w http.ResponseWriter, r *http.Request, _ domain.Session) {
	switch r.Method {
	case http.MethodGet:
		projects, err := s.app.AllProjects()
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items": projects,
			"count": len(projects),
		})
	case http.MethodPost:
		s.handleUploadProject(w, r)
	default:
		methodNotAllowed(w)
	}
}

func formYear(r *http.Request) int {
	year, err := strconv.Atoi(strings.TrimSpace(r.FormValue("publicationYear")))
	if err != nil {
		return 0
	}
	return year
}

func (s *Server) handleUploadProject(w http.ResponseWriter, r *http.Request) {
	if s.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	in := app.UploadProjectInput{
		Title:           r.FormValue("title"),
		Authors:         r.FormValue("authors"),
		Major:           r.FormValue("major"),
		PublicationYear: formYear(r),
		Keywords:        r.FormValue("keywords"),
		Abstract:        r.FormValue("abstract"),
	}
	if file, header, err := r.FormFile("pdf"); err == nil {
		defer file.Close()
		in.Filename = header.Filename
		in.PDF = file
	}
	project, err := s.app.UploadProject(r.Context(), in)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

// /admin/projects/{id}
func (s *Server) handleAdminProjectByID(w http.ResponseWriter, r *http.Request, _ domain.Session) {
	raw := strings.TrimPrefix(r.URL.Path, "/admin/projects/")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		notFound(w, "project not found")
		return
	}
	switch r.Method {
	case http.MethodPut:
		s.handleEditProject(w, r, id)
	case http.MethodDelete:
		if err := s.app.DeleteProject(r.Context(), id); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleEditProject(w http.ResponseWriter, r *http.Request, id int64) {
	if s.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	in := app.EditProjectInput{
		ID:              id,
		Title:           r.FormValue("title"),
		Authors:         r.FormValue("authors"),
		Major:           r.FormValue("major"),
		PublicationYear: formYear(r),
		Keywords:        r.FormValue("keywords"),
		Abstract:        r.FormValue("abstract"),
	}
	if file, header, err := r.FormFile("pdf"); err == nil {
		defer file.Close()
		in.Filename = header.Filename
		in.PDF = file
	}
	project, err := s.app.EditProject(r.Context(), in)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request, _ domain.Session) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	users, err := s.app.Users()
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": users,
		"count": len(users),
	})
}

func (s *Server) handleAdminActiveUsers(w http.ResponseWriter, r *http.Request, _ domain.Session) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	users, err := s.app.ActiveUsers()
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": users,
		"count": len(users),
	})
}

type resetPasswordRequest struct {
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// /admin/users/{id} or /admin/users/{id}/reset-password
func (s *Server) handleAdminUserByID(w http.ResponseWriter, r *http.Request, _ domain.Session) {
	path := strings.TrimPrefix(r.URL.Path, "/admin/users/")
	parts := strings.SplitN(path, "/", 2)
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || id < 1 {
		notFound(w, "user not found")
		return
	}

	if len(parts) == 2 && parts[1] == "reset-password" {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		var req resetPasswordRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := s.app.ResetUserPassword(id, req.NewPassword, req.ConfirmPassword); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "password reset"})
		return
	}
	if len(parts) == 2 {
		notFound(w, "not found")
		return
	}

	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	if err := s.app.DeleteUser(id); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleLastActive(w http.ResponseWriter, r *http.Request, sess domain.Session) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if err := s.app.TouchLastActive(sess.PrincipalID); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
