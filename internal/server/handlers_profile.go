package server

import (
	"net/http"

	"capsarc/internal/app"
	"capsarc/pkg/domain"
)

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request, sess domain.Session) {
	switch r.Method {
	case http.MethodGet:
		view, err := s.app.Profile(r.Context(), sess.PrincipalID)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	case http.MethodPut:
		s.handleUpdateProfile(w, r, sess)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request, sess domain.Session) {
	if s.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	}
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	in := app.UpdateProfileInput{
		Username:  r.FormValue("username"),
		FirstName: r.FormValue("firstName"),
		LastName:  r.FormValue("lastName"),
		Course:    r.FormValue("course"),
		Major:     r.FormValue("major"),
		YearLevel: r.FormValue("yearLevel"),
		Email:     r.FormValue("email"),
	}
	if file, header, err := r.FormFile("picture"); err == nil {
		defer file.Close()
		in.Filename = header.Filename
		in.Picture = file
	}
	user, err := s.app.UpdateProfile(r.Context(), sess.PrincipalID, in)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
