package app

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/open-science-archive/osa-go/pkg/cryptox"
	"github.com/open-science-archive/osa-go/pkg/jwtx"
)

// InitSigningKeys builds the token KeyManager for this node.
//
// Storage modes:
//   - No key file configured: an ephemeral Ed25519 key is generated on
//     startup. All existing tokens become invalid when the mock restarts.
//   - Key file configured: the PKCS8 PEM key is loaded from disk, generated
//     on first run. Tokens survive restarts. When a key secret is also set
//     the file is sealed with AES-256-GCM.
func InitSigningKeys(cfg Config, logger *slog.Logger) (*jwtx.KeyManager, error) {
	if cfg.KeyFile == "" {
		keyManager, err := jwtx.NewEphemeralKeyManager(cfg.Issuer)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ephemeral key manager: %w", err)
		}

		logger.Info("generated ephemeral signing key", "issuer", cfg.Issuer)
		logger.Warn("all existing tokens are now invalid due to key rotation on startup")
		return keyManager, nil
	}

	var cipher *cryptox.KeyCipher
	if cfg.KeySecret != "" {
		c, err := cryptox.NewKeyCipher([]byte(cfg.KeySecret))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize key cipher: %w", err)
		}
		cipher = c
	}

	pemKey, err := loadOrCreateKey(cfg.KeyFile, cipher, logger)
	if err != nil {
		return nil, err
	}

	keyManager, err := jwtx.NewKeyManager(cfg.Issuer, pemKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize key manager: %w", err)
	}

	logger.Info("persistent signing key loaded",
		"path", cfg.KeyFile,
		"issuer", cfg.Issuer,
		"encrypted", cipher != nil,
	)
	return keyManager, nil
}

func loadOrCreateKey(path string, cipher *cryptox.KeyCipher, logger *slog.Logger) ([]byte, error) {
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if cipher == nil {
			return data, nil
		}
		pemKey, err := cipher.Open(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt signing key %s: %w", path, err)
		}
		return pemKey, nil

	case os.IsNotExist(err):
		pemKey, err := cryptox.GenerateEd25519Key()
		if err != nil {
			return nil, fmt.Errorf("failed to generate signing key: %w", err)
		}

		stored := pemKey
		if cipher != nil {
			stored, err = cipher.Seal(pemKey)
			if err != nil {
				return nil, fmt.Errorf("failed to encrypt signing key: %w", err)
			}
		}

		if err := os.WriteFile(path, stored, 0600); err != nil {
			return nil, fmt.Errorf("failed to write signing key %s: %w", path, err)
		}

		logger.Info("generated new signing key", "path", path)
		return pemKey, nil

	default:
		return nil, fmt.Errorf("failed to read signing key %s: %w", path, err)
	}
}
