package providers

import (
	"github.com/samber/do/v2"

	"github.com/marlowai/marlow/internal/auth"
	"github.com/marlowai/marlow/internal/config"
	"github.com/marlowai/marlow/internal/logger"
)

// SealingKey wraps the key that seals the stored completion credential.
type SealingKey []byte

// ProvideSealingKey derives the key from the configured passphrase, or
// loads (generating on first run) the random key file in the data path.
func ProvideSealingKey(i do.Injector) (SealingKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Credential.Passphrase != "" {
		key, err := auth.DeriveKey(cfg.Credential.Passphrase, cfg.Storage.DataPath)
		if err != nil {
			return nil, err
		}
		log.Info("Credential sealing key derived from passphrase")
		return SealingKey(key), nil
	}

	key, err := auth.LoadOrGenerateKey(cfg.Storage.DataPath)
	if err != nil {
		return nil, err
	}
	log.Info("Credential sealing key loaded")
	return SealingKey(key), nil
}

// ProvideSealer provides the PASETO sealer for the stored credential.
func ProvideSealer(i do.Injector) (*auth.Sealer, error) {
	key := do.MustInvoke[SealingKey](i)
	return auth.NewSealer([]byte(key))
}
