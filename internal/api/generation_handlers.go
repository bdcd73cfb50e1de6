package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/marlowai/marlow/internal/service"
)

func (s *Server) registerGenerationRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "startGeneration",
		Method:        http.MethodPost,
		Path:          generationPath,
		Summary:       "Start generation",
		Description:   "Starts a recommendation request in the background. Poll the returned ID for the result",
		Tags:          []string{"Generations"},
		DefaultStatus: http.StatusAccepted,
	}, s.handleStartGeneration)

	huma.Register(s.api, huma.Operation{
		OperationID: "runGeneration",
		Method:      http.MethodPost,
		Path:        generationPath + "/sync",
		Summary:     "Run generation",
		Description: "Runs a recommendation request and waits for it. Disconnecting cancels the request",
		Tags:        []string{"Generations"},
	}, s.handleRunGeneration)

	huma.Register(s.api, huma.Operation{
		OperationID: "getGeneration",
		Method:      http.MethodGet,
		Path:        generationPath + "/{id}",
		Summary:     "Get generation",
		Tags:        []string{"Generations"},
	}, s.handleGetGeneration)

	huma.Register(s.api, huma.Operation{
		OperationID: "cancelGeneration",
		Method:      http.MethodDelete,
		Path:        generationPath + "/{id}",
		Summary:     "Cancel generation",
		Description: "Cancels a running generation. A cancelled generation never changes the proposals",
		Tags:        []string{"Generations"},
	}, s.handleCancelGeneration)
}

// GenerateRequest is the request body for starting a generation.
type GenerateRequest struct {
	Titles []string `json:"titles,omitempty" doc:"Read titles to base the request on; empty means all"`
	Count  int      `json:"count,omitempty" minimum:"0" maximum:"20" doc:"Number of recommendations, 0 for the configured default"`
}

// GenerateInput wraps the generation request for Huma.
type GenerateInput struct {
	Body GenerateRequest
}

// GenerationIDInput contains a generation ID path parameter.
type GenerationIDInput struct {
	ID string `path:"id" doc:"Generation ID"`
}

// GenerationOutput wraps a generation for Huma.
type GenerationOutput struct {
	Body *service.Generation
}

func (r GenerateRequest) options() service.GenerateOptions {
	return service.GenerateOptions{Titles: r.Titles, Count: r.Count}
}

func (s *Server) handleStartGeneration(ctx context.Context, input *GenerateInput) (*GenerationOutput, error) {
	gen, err := s.services.Recommendation.StartGeneration(ctx, input.Body.options())
	if err != nil {
		return nil, s.fail(err, "failed to start generation")
	}
	return &GenerationOutput{Body: gen}, nil
}

func (s *Server) handleRunGeneration(ctx context.Context, input *GenerateInput) (*GenerationOutput, error) {
	gen, err := s.services.Recommendation.Generate(ctx, input.Body.options())
	if err != nil {
		return nil, s.fail(err, "failed to run generation")
	}
	return &GenerationOutput{Body: gen}, nil
}

func (s *Server) handleGetGeneration(_ context.Context, input *GenerationIDInput) (*GenerationOutput, error) {
	gen, err := s.services.Recommendation.GetGeneration(input.ID)
	if err != nil {
		return nil, s.fail(err, "failed to get generation")
	}
	return &GenerationOutput{Body: gen}, nil
}

func (s *Server) handleCancelGeneration(_ context.Context, input *GenerationIDInput) (*GenerationOutput, error) {
	gen, err := s.services.Recommendation.CancelGeneration(input.ID)
	if err != nil {
		return nil, s.fail(err, "failed to cancel generation")
	}
	return &GenerationOutput{Body: gen}, nil
}
