package env

import (
	"errors"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
)

// LoadEnv loads the given .env files, or ./.env when none are named, into the
// process environment. Variables already set win over file values, so
// RANDO_* settings can still be overridden per run.
func LoadEnv(files ...string) error {
	err := godotenv.Load(files...)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug("no .env file found, assuming environment variables are set directly")
		return nil
	}
	return err
}
