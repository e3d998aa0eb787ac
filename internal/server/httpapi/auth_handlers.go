package httpapi

import (
	"net/http"

	"github.com/avolkov/clipvault/internal/common"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

func (s *HTTPServer) handleRegister(w http.ResponseWriter, r *http.Request) {

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := s.users.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	s.logger.Info(r.Context(), "Registered", "email", user.Email)
	writeJSON(w, http.StatusCreated, userResponseFrom(user))
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {

	var req credentialsRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := s.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	pair, err := s.tokens.IssuePair(r.Context(), user.Identity())
	if err != nil {
		writeError(w, err)
		return
	}

	s.logger.Info(r.Context(), "Logged in", "userID", user.ID)
	writeJSON(w, http.StatusOK, tokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	})
}

// handleRefresh trades a refresh token for a fresh pair. The spent access
// token rides in Authorization, the refresh token in its own header.
func (s *HTTPServer) handleRefresh(w http.ResponseWriter, r *http.Request) {

	accessToken := bearerToken(r)
	refreshToken := r.Header.Get(refreshTokenHeader)
	if refreshToken == "" {
		writeError(w, common.ErrMissingCredential)
		return
	}

	pair, err := s.tokens.Renew(r.Context(), accessToken, refreshToken)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	})
}

// handleLogout retires both tokens. Repeating it with the same tokens is
// harmless, so the client can always fire and forget.
func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request) {

	accessToken := bearerToken(r)
	if accessToken == "" {
		writeError(w, common.ErrMissingCredential)
		return
	}
	refreshToken := r.Header.Get(refreshTokenHeader)

	if err := s.tokens.Logout(r.Context(), accessToken, refreshToken); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, nil)
}
