// Package httpapi exposes the REST surface: authentication, user accounts
// and the video catalog. Handlers translate HTTP in and out; all rules live
// in the services underneath.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/avolkov/clipvault/internal/logging"
	"github.com/avolkov/clipvault/internal/server/auth"
	"github.com/avolkov/clipvault/internal/server/tokens"
	"github.com/avolkov/clipvault/internal/server/users"
	"github.com/avolkov/clipvault/internal/server/videos"
)

// UserService is the slice of the users service the handlers call.
type UserService interface {
	Register(ctx context.Context, email, password, name string) (*users.User, error)
	Authenticate(ctx context.Context, email, password string) (*users.User, error)
	GetByID(ctx context.Context, id int64) (*users.User, error)
	List(ctx context.Context) ([]*users.User, error)
	UpdateEmail(ctx context.Context, id int64, email string) error
	UpdateProfile(ctx context.Context, id int64, name, phone string) error
	UpdateRole(ctx context.Context, id int64, role string) error
	ChangePassword(ctx context.Context, id int64, currentPassword, newPassword string) error
	Delete(ctx context.Context, id int64) error
}

// VideoService is the slice of the videos service the handlers call.
type VideoService interface {
	RequestUpload(ctx context.Context, owner auth.Identity, title, description, contentType string, size int64) (*videos.UploadGrant, error)
	CompleteUpload(ctx context.Context, caller auth.Identity, videoID int64) error
	Get(ctx context.Context, videoID int64) (*videos.Video, error)
	List(ctx context.Context) ([]*videos.Video, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*videos.Video, error)
	StreamURL(ctx context.Context, caller auth.Identity, videoID int64) (string, error)
	UpdateMeta(ctx context.Context, caller auth.Identity, videoID int64, title, description string) error
	Delete(ctx context.Context, caller auth.Identity, videoID int64) error
}

// TokenService issues, renews and retires token pairs.
type TokenService interface {
	IssuePair(ctx context.Context, identity auth.Identity) (*tokens.TokenPair, error)
	Renew(ctx context.Context, accessToken, refreshToken string) (*tokens.TokenPair, error)
	Logout(ctx context.Context, accessToken, refreshToken string) error
}

// TokenChecker reports whether an access token may still be used.
type TokenChecker interface {
	IsValid(ctx context.Context, token string) bool
}

type HTTPServer struct {
	address   string
	logger    logging.Logger
	users     UserService
	videos    VideoService
	tokens    TokenService
	checker   TokenChecker
	jwtSecret []byte
}

func NewHTTPServer(address string, logger logging.Logger, us UserService, vs VideoService,
	ts TokenService, checker TokenChecker, secretKey string) *HTTPServer {
	return &HTTPServer{
		address:   address,
		logger:    logger.With("module", "http_server"),
		users:     us,
		videos:    vs,
		tokens:    ts,
		checker:   checker,
		jwtSecret: []byte(secretKey),
	}
}

func (s *HTTPServer) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/refresh", s.handleRefresh)
	mux.HandleFunc("POST /api/auth/logout", s.handleLogout)

	mux.Handle("GET /api/users", s.authenticate(s.adminOnly(s.handleListUsers)))
	mux.Handle("GET /api/users/me", s.authenticate(s.handleCurrentUser))
	mux.Handle("PUT /api/users/me", s.authenticate(s.handleUpdateProfile))
	mux.Handle("PUT /api/users/me/email", s.authenticate(s.handleUpdateEmail))
	mux.Handle("PUT /api/users/me/password", s.authenticate(s.handleChangePassword))
	mux.Handle("PUT /api/users/{id}/role", s.authenticate(s.adminOnly(s.handleUpdateRole)))
	mux.Handle("DELETE /api/users/{id}", s.authenticate(s.handleDeleteUser))

	mux.Handle("POST /api/videos", s.authenticate(s.handleRequestUpload))
	mux.Handle("POST /api/videos/{id}/complete", s.authenticate(s.handleCompleteUpload))
	mux.Handle("GET /api/videos", s.authenticate(s.handleListVideos))
	mux.Handle("GET /api/videos/mine", s.authenticate(s.handleListMyVideos))
	mux.Handle("GET /api/videos/{id}", s.authenticate(s.handleGetVideo))
	mux.Handle("GET /api/videos/{id}/stream", s.authenticate(s.handleStreamVideo))
	mux.Handle("PUT /api/videos/{id}", s.authenticate(s.handleUpdateVideo))
	mux.Handle("DELETE /api/videos/{id}", s.authenticate(s.handleDeleteVideo))

	return mux
}

func (s *HTTPServer) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
