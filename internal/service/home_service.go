package service

import (
	"context"
	"fmt"
	"strings"

	"workflow/internal/model"
	"workflow/internal/repository"
)

const searchLimit = 10

type MenuItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Path        string `json:"path"`
}

type SearchResults struct {
	Requests  []RequestSummaryResponse `json:"requests"`
	Materials []MaterialResponse       `json:"materials"`
}

type HomeResponse struct {
	User    SessionUser    `json:"user"`
	Menu    []MenuItem     `json:"menu"`
	Query   string         `json:"query,omitempty"`
	Results *SearchResults `json:"results,omitempty"`
}

type HomeService interface {
	Home(ctx context.Context, actor Actor, query string) (*HomeResponse, error)
}

type homeService struct {
	requests  repository.RequestRepository
	materials repository.MaterialRepository
}

func NewHomeService(requests repository.RequestRepository, materials repository.MaterialRepository) HomeService {
	return &homeService{requests: requests, materials: materials}
}

// Home returns the sections visible to actor and, for a non-empty query,
// matching requests and materials.
func (s *homeService) Home(ctx context.Context, actor Actor, query string) (*HomeResponse, error) {
	res := &HomeResponse{
		User: SessionUser{ID: actor.ID.String(), Name: actor.Name, Email: actor.Email, Role: actor.Role},
		Menu: menuFor(actor.Role),
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return res, nil
	}
	res.Query = query

	reqs, err := s.requests.Search(ctx, query, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("search requests: %w", err)
	}
	materials, _, err := s.materials.List(ctx, query, 1, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("search materials: %w", err)
	}

	results := &SearchResults{
		Requests:  make([]RequestSummaryResponse, 0, len(reqs)),
		Materials: make([]MaterialResponse, 0, len(materials)),
	}
	for i := range reqs {
		results.Requests = append(results.Requests, toRequestSummary(&reqs[i]))
	}
	for i := range materials {
		results.Materials = append(results.Materials, *toMaterialResponse(&materials[i]))
	}
	res.Results = results
	return res, nil
}

func menuFor(role string) []MenuItem {
	menu := []MenuItem{
		{Title: "Materials", Description: "Manage your catalog (SAP PN, name, unit).", Path: "/materials"},
		{Title: "Requests", Description: "Create and export material requests.", Path: "/requests"},
	}
	if model.Can(role, model.CapManageUsers) {
		menu = append(menu,
			MenuItem{Title: "Users", Description: "Manage accounts (admin actions require admin password).", Path: "/users"},
			MenuItem{Title: "Audit log", Description: "Review who changed what.", Path: "/admin/audit-logs"},
		)
	}
	return menu
}
