package providers

import (
	"github.com/samber/do/v2"

	"github.com/marlowai/marlow/internal/completion"
	"github.com/marlowai/marlow/internal/config"
	"github.com/marlowai/marlow/internal/logger"
	"github.com/marlowai/marlow/internal/metadata/googlebooks"
	"github.com/marlowai/marlow/internal/recommend"
)

// CompletionClientHandle wraps the completion client with shutdown capability.
type CompletionClientHandle struct {
	*completion.Client
}

// Shutdown implements do.Shutdownable.
func (h *CompletionClientHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideCompletionClient provides the chat completion client.
func ProvideCompletionClient(i do.Injector) (*CompletionClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	temperature := cfg.Completion.Temperature
	client, err := completion.New(completion.Config{
		URL:         cfg.Completion.URL,
		Model:       cfg.Completion.Model,
		Temperature: &temperature,
		Timeout:     cfg.Completion.Timeout,
	}, log.Component("completion"))
	if err != nil {
		return nil, err
	}

	log.Info("Completion client initialized", "url", cfg.Completion.URL, "model", client.Model())
	return &CompletionClientHandle{Client: client}, nil
}

// ProvideWorkflow provides the recommendation request workflow.
func ProvideWorkflow(i do.Injector) (*recommend.Workflow, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	client := do.MustInvoke[*CompletionClientHandle](i)

	var opts []recommend.WorkflowOption
	if !cfg.Completion.SystemPrompt {
		opts = append(opts, recommend.WithSystemPrompt(""))
	}
	return recommend.NewWorkflow(client.Client, log.Component("recommend"), opts...), nil
}

// BookCatalogHandle wraps the Google Books client with shutdown capability.
type BookCatalogHandle struct {
	*googlebooks.Client
}

// Shutdown implements do.Shutdownable.
func (h *BookCatalogHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideBookCatalog provides the Google Books client.
func ProvideBookCatalog(i do.Injector) (*BookCatalogHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	client := googlebooks.New(googlebooks.Config{
		BaseURL: cfg.BookSearch.BaseURL,
		APIKey:  cfg.BookSearch.APIKey,
	}, log.Component("googlebooks"))

	return &BookCatalogHandle{Client: client}, nil
}
