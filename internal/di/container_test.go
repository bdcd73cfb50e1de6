package di

import (
	"context"
	"testing"

	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marlowai/marlow/internal/config"
	"github.com/marlowai/marlow/internal/di/providers"
	"github.com/marlowai/marlow/internal/domain"
	"github.com/marlowai/marlow/internal/service"
)

func testConfig(t *testing.T, driver string) *config.Config {
	t.Helper()
	return &config.Config{
		App:     config.AppConfig{Environment: "production"},
		Logger:  config.LoggerConfig{Level: "error"},
		Storage: config.StorageConfig{DataPath: t.TempDir(), Driver: driver},
		Server:  config.ServerConfig{Port: "0"},
		Recommendation: config.RecommendationConfig{
			Count:   5,
			Dedupe:  "off",
			Exclude: "accepted",
		},
	}
}

func TestContainer_PersistsAcrossRestart(t *testing.T) {
	for _, driver := range []string{providers.DriverBadger, providers.DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			cfg := testConfig(t, driver)
			ctx := context.Background()

			injector := NewContainer(cfg)
			library, err := do.Invoke[*service.LibraryService](injector)
			require.NoError(t, err)
			_, err = library.Add(ctx, domain.ReadBook{Title: "Dune", Author: "Frank Herbert", Rating: 5})
			require.NoError(t, err)
			injector.Shutdown()

			injector = NewContainer(cfg)
			defer injector.Shutdown()
			library, err = do.Invoke[*service.LibraryService](injector)
			require.NoError(t, err)

			book, err := library.Get("Dune")
			require.NoError(t, err)
			assert.Equal(t, 5, book.Rating)
		})
	}
}

func TestContainer_CredentialSurvivesRestart(t *testing.T) {
	cfg := testConfig(t, providers.DriverBadger)
	ctx := context.Background()

	injector := NewContainer(cfg)
	settings, err := do.Invoke[*service.SettingsService](injector)
	require.NoError(t, err)
	_, err = settings.SetCredential(ctx, "sk-test-0123456789")
	require.NoError(t, err)
	injector.Shutdown()

	injector = NewContainer(cfg)
	defer injector.Shutdown()
	settings, err = do.Invoke[*service.SettingsService](injector)
	require.NoError(t, err)

	secret, err := settings.Credential(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sk-test-0123456789", secret)
}

func TestContainer_UnknownDriver(t *testing.T) {
	cfg := testConfig(t, "postgres")

	injector := NewContainer(cfg)
	defer injector.Shutdown()

	_, err := do.Invoke[*service.LibraryService](injector)
	assert.Error(t, err)
}

func TestBootstrap_StartsServer(t *testing.T) {
	cfg := testConfig(t, providers.DriverBadger)

	injector := NewContainer(cfg)
	defer injector.Shutdown()

	require.NoError(t, Bootstrap(injector))
	handle, err := do.Invoke[*providers.HTTPServerHandle](injector)
	require.NoError(t, err)
	assert.Equal(t, ":0", handle.Addr)
}
