package app

import (
	"path/filepath"

	"github.com/rs/zerolog"

	"courier/internal/domain"
)

// Config holds runtime wiring options for building a Client.
type Config struct {
	// Self is the local identity's address.
	Self domain.Address

	// DataDir roots local storage (keypair, caches, unlocked group keys).
	DataDir string

	// DBPath locates the sqlite backing store. Defaults to
	// DataDir/courier.db.
	DBPath string

	// RedisAddr points at the pub/sub network. Empty disables the live
	// transport; the client then works from the backing store alone.
	RedisAddr string

	// Logger is the root logger. Defaults to a disabled logger.
	Logger zerolog.Logger
}

func (c Config) dbPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return filepath.Join(c.DataDir, "courier.db")
}
