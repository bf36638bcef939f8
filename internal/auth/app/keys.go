package app

import (
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/tabauth/pkg/cryptox"
	"github.com/aussiebroadwan/tabauth/pkg/jwtx"
)

// LoadSigningSecret returns the HS256 secret shared by every replica.
//
// Sources, in order:
//   - AUTH_JWT_SECRET, typically injected by the orchestrator's secret store.
//   - AUTH_JWT_SECRET_FILE, read if present and otherwise generated with 0600
//     permissions. Replicas must share the file or all tokens they issue are
//     rejected by each other.
//
// The secret itself is never logged.
func LoadSigningSecret(cfg Config, logger *slog.Logger) ([]byte, error) {
	var secret []byte

	switch {
	case cfg.JWTSecret != "":
		secret = []byte(cfg.JWTSecret)
		logger.Info("signing secret loaded from environment")

	default:
		s, err := cryptox.LoadOrGenerateSecretFile(cfg.JWTSecretFile, cryptox.SecretSize256)
		if err != nil {
			return nil, fmt.Errorf("failed to load signing secret file: %w", err)
		}
		secret = []byte(s)
		logger.Info("signing secret loaded from file", "path", cfg.JWTSecretFile)
	}

	if len(secret) < jwtx.MinSecretLength {
		return nil, fmt.Errorf("%w: signing secret must be at least %d bytes", ErrInvalidConfig, jwtx.MinSecretLength)
	}
	return secret, nil
}
