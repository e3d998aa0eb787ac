package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/avolkov/clipvault/internal/common"
	"github.com/avolkov/clipvault/internal/server/auth"
	"github.com/avolkov/clipvault/internal/server/users"
)

type userResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func userResponseFrom(u *users.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Phone:     u.Phone,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, common.ErrorValidation
	}
	return id, nil
}

func (s *HTTPServer) handleListUsers(w http.ResponseWriter, r *http.Request) {

	list, err := s.users.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	result := make([]userResponse, 0, len(list))
	for _, u := range list {
		result = append(result, userResponseFrom(u))
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *HTTPServer) handleCurrentUser(w http.ResponseWriter, r *http.Request) {

	identity, _ := auth.IdentityFromContext(r.Context())

	user, err := s.users.GetByID(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, userResponseFrom(user))
}

func (s *HTTPServer) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {

	identity, _ := auth.IdentityFromContext(r.Context())

	var req struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := s.users.UpdateProfile(r.Context(), identity.UserID, req.Name, req.Phone); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, nil)
}

func (s *HTTPServer) handleUpdateEmail(w http.ResponseWriter, r *http.Request) {

	identity, _ := auth.IdentityFromContext(r.Context())

	var req struct {
		Email string `json:"email"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := s.users.UpdateEmail(r.Context(), identity.UserID, req.Email); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, nil)
}

func (s *HTTPServer) handleChangePassword(w http.ResponseWriter, r *http.Request) {

	identity, _ := auth.IdentityFromContext(r.Context())

	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := s.users.ChangePassword(r.Context(), identity.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, nil)
}

func (s *HTTPServer) handleUpdateRole(w http.ResponseWriter, r *http.Request) {

	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := s.users.UpdateRole(r.Context(), id, req.Role); err != nil {
		writeError(w, err)
		return
	}

	s.logger.Info(r.Context(), "Role updated", "userID", id, "role", req.Role)
	writeJSON(w, http.StatusOK, nil)
}

// handleDeleteUser lets a user close their own account; admins may close
// any account.
func (s *HTTPServer) handleDeleteUser(w http.ResponseWriter, r *http.Request) {

	identity, _ := auth.IdentityFromContext(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if id != identity.UserID && !identity.IsAdmin() {
		writeError(w, common.ErrorForbidden)
		return
	}

	if err := s.users.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	s.logger.Info(r.Context(), "Account deleted", "userID", id)
	writeJSON(w, http.StatusOK, nil)
}
