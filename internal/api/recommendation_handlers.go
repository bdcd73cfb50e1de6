package api

import (
	"bytes"
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/marlowai/marlow/internal/domain"
)

func (s *Server) registerRecommendationRoutes() {
	// Accepted recommendations.
	huma.Register(s.api, huma.Operation{
		OperationID: "listRecommendations",
		Method:      http.MethodGet,
		Path:        "/api/v1/recommendations",
		Summary:     "List accepted recommendations",
		Tags:        []string{"Recommendations"},
	}, s.handleListRecommendations)

	huma.Register(s.api, huma.Operation{
		OperationID: "exportRecommendations",
		Method:      http.MethodGet,
		Path:        "/api/v1/recommendations/export",
		Summary:     "Export accepted recommendations",
		Description: "Downloads the accepted recommendations as CSV",
		Tags:        []string{"Recommendations"},
	}, s.handleExportRecommendations)

	huma.Register(s.api, huma.Operation{
		OperationID: "clearRecommendations",
		Method:      http.MethodDelete,
		Path:        "/api/v1/recommendations",
		Summary:     "Clear accepted recommendations",
		Tags:        []string{"Recommendations"},
	}, s.handleClearRecommendations)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteRecommendation",
		Method:      http.MethodDelete,
		Path:        "/api/v1/recommendations/{title}",
		Summary:     "Remove accepted recommendation",
		Tags:        []string{"Recommendations"},
	}, s.handleDeleteRecommendation)

	huma.Register(s.api, huma.Operation{
		OperationID: "markRecommendationRead",
		Method:      http.MethodPost,
		Path:        "/api/v1/recommendations/{title}/read",
		Summary:     "Mark recommendation read",
		Description: "Moves an accepted recommendation to the read list with a rating. The date defaults to today",
		Tags:        []string{"Recommendations"},
	}, s.handleMarkRead)

	// Proposals awaiting review.
	huma.Register(s.api, huma.Operation{
		OperationID: "listProposals",
		Method:      http.MethodGet,
		Path:        "/api/v1/proposals",
		Summary:     "List proposals",
		Description: "Returns generated recommendations awaiting accept or reject",
		Tags:        []string{"Proposals"},
	}, s.handleListProposals)

	huma.Register(s.api, huma.Operation{
		OperationID: "clearProposals",
		Method:      http.MethodDelete,
		Path:        "/api/v1/proposals",
		Summary:     "Clear proposals",
		Tags:        []string{"Proposals"},
	}, s.handleClearProposals)

	huma.Register(s.api, huma.Operation{
		OperationID: "acceptProposal",
		Method:      http.MethodPost,
		Path:        "/api/v1/proposals/{title}/accept",
		Summary:     "Accept proposal",
		Tags:        []string{"Proposals"},
	}, s.handleAcceptProposal)

	huma.Register(s.api, huma.Operation{
		OperationID: "rejectProposal",
		Method:      http.MethodPost,
		Path:        "/api/v1/proposals/{title}/reject",
		Summary:     "Reject proposal",
		Description: "Moves a proposal to the rejected list so it is not suggested again",
		Tags:        []string{"Proposals"},
	}, s.handleRejectProposal)

	// Rejected proposals.
	huma.Register(s.api, huma.Operation{
		OperationID: "listRejected",
		Method:      http.MethodGet,
		Path:        "/api/v1/rejected",
		Summary:     "List rejected proposals",
		Tags:        []string{"Proposals"},
	}, s.handleListRejected)

	huma.Register(s.api, huma.Operation{
		OperationID: "clearRejected",
		Method:      http.MethodDelete,
		Path:        "/api/v1/rejected",
		Summary:     "Clear rejected proposals",
		Tags:        []string{"Proposals"},
	}, s.handleClearRejected)
}

// RecommendationListResponse contains a list of recommendations.
type RecommendationListResponse struct {
	Recommendations []domain.Recommendation `json:"recommendations" doc:"Recommendations sorted by title"`
}

// RecommendationListOutput wraps a recommendation list for Huma.
type RecommendationListOutput struct {
	Body RecommendationListResponse
}

// RecommendationOutput wraps a single recommendation for Huma.
type RecommendationOutput struct {
	Body domain.Recommendation
}

// MarkReadRequest is the request body for marking a recommendation read.
type MarkReadRequest struct {
	Rating        int    `json:"rating" minimum:"0" maximum:"5" doc:"Star rating, 0 for unrated"`
	DateCompleted string `json:"dateCompleted,omitempty" doc:"Completion date (YYYY-MM-DD), defaults to today"`
}

// MarkReadInput wraps the mark read request for Huma.
type MarkReadInput struct {
	Title string `path:"title" doc:"Recommendation title (URL-encoded)"`
	Body  MarkReadRequest
}

func recommendationList(recs []domain.Recommendation) *RecommendationListOutput {
	if recs == nil {
		recs = []domain.Recommendation{}
	}
	return &RecommendationListOutput{Body: RecommendationListResponse{Recommendations: recs}}
}

func (s *Server) handleListRecommendations(_ context.Context, _ *struct{}) (*RecommendationListOutput, error) {
	return recommendationList(s.services.Recommendation.ListAccepted()), nil
}

func (s *Server) handleListProposals(_ context.Context, _ *struct{}) (*RecommendationListOutput, error) {
	return recommendationList(s.services.Recommendation.ListProposed()), nil
}

func (s *Server) handleListRejected(_ context.Context, _ *struct{}) (*RecommendationListOutput, error) {
	return recommendationList(s.services.Recommendation.ListRejected()), nil
}

func (s *Server) handleExportRecommendations(_ context.Context, _ *struct{}) (*CSVOutput, error) {
	var buf bytes.Buffer
	if err := s.services.Recommendation.ExportAccepted(&buf); err != nil {
		return nil, s.fail(err, "failed to export recommendations")
	}
	return &CSVOutput{
		ContentType:        contentTypeCSV,
		ContentDisposition: attachment("recommendations.csv"),
		Body:               buf.Bytes(),
	}, nil
}

func (s *Server) handleDeleteRecommendation(ctx context.Context, input *TitleInput) (*MessageOutput, error) {
	if err := s.services.Recommendation.RemoveAccepted(ctx, pathTitle(ctx, input.Title)); err != nil {
		return nil, s.fail(err, "failed to remove recommendation")
	}
	return message("recommendation removed"), nil
}

func (s *Server) handleMarkRead(ctx context.Context, input *MarkReadInput) (*BookOutput, error) {
	book, err := s.services.Recommendation.MarkRead(ctx, pathTitle(ctx, input.Title), input.Body.Rating, input.Body.DateCompleted)
	if err != nil {
		return nil, s.fail(err, "failed to mark recommendation read")
	}
	return &BookOutput{Body: book}, nil
}

func (s *Server) handleAcceptProposal(ctx context.Context, input *TitleInput) (*RecommendationOutput, error) {
	rec, err := s.services.Recommendation.Accept(ctx, pathTitle(ctx, input.Title))
	if err != nil {
		return nil, s.fail(err, "failed to accept proposal")
	}
	return &RecommendationOutput{Body: rec}, nil
}

func (s *Server) handleRejectProposal(ctx context.Context, input *TitleInput) (*RecommendationOutput, error) {
	rec, err := s.services.Recommendation.Reject(ctx, pathTitle(ctx, input.Title))
	if err != nil {
		return nil, s.fail(err, "failed to reject proposal")
	}
	return &RecommendationOutput{Body: rec}, nil
}

func (s *Server) handleClearRecommendations(ctx context.Context, _ *struct{}) (*MessageOutput, error) {
	if err := s.services.Recommendation.ClearAccepted(ctx); err != nil {
		return nil, s.fail(err, "failed to clear recommendations")
	}
	return message("recommendations cleared"), nil
}

func (s *Server) handleClearProposals(ctx context.Context, _ *struct{}) (*MessageOutput, error) {
	if err := s.services.Recommendation.ClearProposed(ctx); err != nil {
		return nil, s.fail(err, "failed to clear proposals")
	}
	return message("proposals cleared"), nil
}

func (s *Server) handleClearRejected(ctx context.Context, _ *struct{}) (*MessageOutput, error) {
	if err := s.services.Recommendation.ClearRejected(ctx); err != nil {
		return nil, s.fail(err, "failed to clear rejected list")
	}
	return message("rejected list cleared"), nil
}
