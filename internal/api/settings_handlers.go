package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/marlowai/marlow/internal/service"
)

func (s *Server) registerSettingsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getCredential",
		Method:      http.MethodGet,
		Path:        "/api/v1/settings/credential",
		Summary:     "Get credential status",
		Description: "Reports whether a completion credential is stored. The secret is never returned",
		Tags:        []string{"Settings"},
	}, s.handleGetCredential)

	huma.Register(s.api, huma.Operation{
		OperationID: "setCredential",
		Method:      http.MethodPut,
		Path:        "/api/v1/settings/credential",
		Summary:     "Set credential",
		Description: "Stores the completion credential encrypted at rest",
		Tags:        []string{"Settings"},
	}, s.handleSetCredential)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteCredential",
		Method:      http.MethodDelete,
		Path:        "/api/v1/settings/credential",
		Summary:     "Delete credential",
		Tags:        []string{"Settings"},
	}, s.handleDeleteCredential)
}

// SetCredentialRequest is the request body for storing a credential.
type SetCredentialRequest struct {
	Credential string `json:"credential" minLength:"1" doc:"Completion service API key"`
}

// SetCredentialInput wraps the credential request for Huma.
type SetCredentialInput struct {
	Body SetCredentialRequest
}

// CredentialStatusOutput wraps the credential status for Huma.
type CredentialStatusOutput struct {
	Body *service.CredentialStatus
}

func (s *Server) handleGetCredential(ctx context.Context, _ *struct{}) (*CredentialStatusOutput, error) {
	status, err := s.services.Settings.CredentialStatus(ctx)
	if err != nil {
		return nil, s.fail(err, "failed to read credential")
	}
	return &CredentialStatusOutput{Body: status}, nil
}

func (s *Server) handleSetCredential(ctx context.Context, input *SetCredentialInput) (*CredentialStatusOutput, error) {
	status, err := s.services.Settings.SetCredential(ctx, input.Body.Credential)
	if err != nil {
		return nil, s.fail(err, "failed to store credential")
	}
	return &CredentialStatusOutput{Body: status}, nil
}

func (s *Server) handleDeleteCredential(ctx context.Context, _ *struct{}) (*MessageOutput, error) {
	if err := s.services.Settings.DeleteCredential(ctx); err != nil {
		return nil, s.fail(err, "failed to delete credential")
	}
	return message("credential removed"), nil
}
