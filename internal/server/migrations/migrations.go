// Package migrations carries the embedded goose migration scripts applied
// on server startup.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
