package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/samber/oops"

	"userSessionService/internal/auth"
	"userSessionService/models"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 16

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type deleteRequest struct {
	Username string `json:"username"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type profileResponse struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	IsAdmin     bool   `json:"is_admin"`
	LastLoginAt string `json:"last_login_at,omitempty"`
}

type usersResponse struct {
	Users []models.User `json:"users"`
}

// decodeJSON reads a JSON body into v. An empty body is allowed when optional is set.
func decodeJSON(r *http.Request, v any, optional bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return oops.Code("INVALID_BODY").Wrapf(auth.ErrValidation, "malformed JSON body: %v", err)
	}
	return nil
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: "Hello world!"})
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	if err := s.service.Register(r.Context(), req.Username, req.Password); err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, messageResponse{Message: "Register successful!"})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	sess, _ := auth.SessionFromContext(r.Context())
	desc, err := s.service.Login(r.Context(), sess, req.Username, req.Password)
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, desc)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())
	if err := s.service.Logout(r.Context(), sess); err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Log out successful!"})
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	resp := profileResponse{ID: id.ID, Username: id.Username, IsAdmin: id.IsAdmin()}
	if sess, ok := auth.SessionFromContext(r.Context()); ok {
		last, found, err := sess.GetData(r.Context(), auth.LastLoginKey)
		if err != nil {
			writeError(r.Context(), w, s.logger, err)
			return
		}
		if found {
			resp.LastLoginAt = last
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	id, _ := auth.IdentityFromContext(r.Context())
	target := req.Username
	if target == "" {
		target = id.Username
	}
	sess, _ := auth.SessionFromContext(r.Context())
	if err := s.service.DeleteAccount(r.Context(), sess, id, target); err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "User removed"})
}

func (s *Server) admin(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	users, err := s.service.ListUsers(r.Context(), limit, offset)
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	writeJSON(w, http.StatusOK, usersResponse{Users: users})
}
