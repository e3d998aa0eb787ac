package db

import (
	"context"
	"database/sql"

	"github.com/avolkov/clipvault/internal/server/blacklist"
	"github.com/avolkov/clipvault/internal/server/refreshtokens"
	"github.com/avolkov/clipvault/internal/server/users"
	"github.com/avolkov/clipvault/internal/server/videos"
)

type RepositoryManager interface {
	RunMigrations(context.Context) error
	Conn() *sql.DB
	Users() users.Repository
	RefreshTokens() refreshtokens.Repository
	Blacklist() blacklist.Repository
	Videos() videos.Repository
}
