package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"workflow/internal/model"
	"workflow/internal/repository"

	"github.com/google/uuid"
)

// maxCodeAttempts bounds retries when a concurrent create takes the same request code.
const maxCodeAttempts = 3

var requestCodePattern = regexp.MustCompile(`WF-(\d+)`)

// NextRequestCode returns the code following last, or WF-000001 when last has no number.
func NextRequestCode(last string) string {
	n := 1
	if m := requestCodePattern.FindStringSubmatch(last); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			n = v + 1
		}
	}
	return fmt.Sprintf("%s%06d", model.RequestCodePrefix, n)
}

type RequestItemInput struct {
	MaterialID string `json:"material_id"`
	Selected   bool   `json:"selected"`
	Quantity   int    `json:"quantity"`
	Notes      string `json:"notes"`
}

type CreateRequestInput struct {
	ProjectSite string             `json:"project_site"`
	RequestedBy string             `json:"requested_by"`
	TeamName    string             `json:"team_name"`
	Items       []RequestItemInput `json:"items"`
}

type RequestCreatedResponse struct {
	ID          string `json:"id"`
	RequestCode string `json:"request_code"`
}

// SuggestedMaterial is a row of the new-request form.
type SuggestedMaterial struct {
	ID           string  `json:"id"`
	SapPN        string  `json:"sap_pn"`
	Name         string  `json:"name"`
	Unit         *string `json:"unit"`
	SuggestedQty *int64  `json:"suggested_qty"`
}

// RequestFormResponse backs the new-request form. Teams holds known team names for autocompletion.
type RequestFormResponse struct {
	FiberFt   float64             `json:"fiber_ft"`
	StrandFt  float64             `json:"strand_ft"`
	Teams     []string            `json:"teams"`
	Materials []SuggestedMaterial `json:"materials"`
}

type RequestSummaryResponse struct {
	ID          string  `json:"id"`
	RequestCode string  `json:"request_code"`
	Date        string  `json:"date"`
	ProjectSite string  `json:"project_site"`
	RequestedBy string  `json:"requested_by"`
	Team        *string `json:"team"`
	ItemCount   int64   `json:"item_count"`
	CreatedAt   string  `json:"created_at"`
}

type RequestItemResponse struct {
	ID           string  `json:"id"`
	ItemNumber   int     `json:"item_number"`
	MaterialID   string  `json:"material_id"`
	SapPN        string  `json:"sap_pn"`
	MaterialName string  `json:"material_name"`
	Unit         *string `json:"unit"`
	Quantity     int     `json:"quantity"`
	Notes        *string `json:"notes"`
	Status       string  `json:"status"`
}

type RequestDetailResponse struct {
	RequestSummaryResponse
	Items []RequestItemResponse `json:"items"`
}

type RequestService interface {
	NewRequestForm(ctx context.Context, fiberFt, strandFt float64) (*RequestFormResponse, error)
	CreateRequest(ctx context.Context, actor Actor, in CreateRequestInput) (*RequestCreatedResponse, error)
	ListRequests(ctx context.Context, page, limit int) ([]RequestSummaryResponse, int64, error)
	GetRequest(ctx context.Context, id string) (*RequestDetailResponse, error)
	DeleteRequest(ctx context.Context, actor Actor, id, adminPassword string) error
}

type requestService struct {
	requests  repository.RequestRepository
	materials repository.MaterialRepository
	teams     repository.TeamRepository
	tx        repository.TransactionManager
	confirm   AdminConfirmer
	audit     AuditService
	events    EventPublisher
	now       func() time.Time
}

func NewRequestService(
	requests repository.RequestRepository,
	materials repository.MaterialRepository,
	teams repository.TeamRepository,
	tx repository.TransactionManager,
	confirm AdminConfirmer,
	audit AuditService,
	events EventPublisher,
) RequestService {
	return &requestService{
		requests:  requests,
		materials: materials,
		teams:     teams,
		tx:        tx,
		confirm:   confirm,
		audit:     audit,
		events:    publisherOrNoop(events),
		now:       time.Now,
	}
}

// NewRequestForm lists active materials with a quantity suggested from the entered lengths.
func (s *requestService) NewRequestForm(ctx context.Context, fiberFt, strandFt float64) (*RequestFormResponse, error) {
	materials, err := s.materials.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active materials: %w", err)
	}

	res := &RequestFormResponse{FiberFt: fiberFt, StrandFt: strandFt, Materials: make([]SuggestedMaterial, 0, len(materials))}
	for i := range materials {
		m := &materials[i]
		row := SuggestedMaterial{ID: m.ID.String(), SapPN: m.SapPN, Name: m.Name, Unit: m.Unit}
		if rule, ok := RuleFor(m); ok {
			if qty, ok := ComputeSuggestedQty(rule, fiberFt, strandFt); ok {
				row.SuggestedQty = &qty
			}
		}
		res.Materials = append(res.Materials, row)
	}

	teams, err := s.teams.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	res.Teams = make([]string, 0, len(teams))
	seen := make(map[string]bool, len(teams))
	for _, t := range teams {
		if !seen[t.Name] {
			seen[t.Name] = true
			res.Teams = append(res.Teams, t.Name)
		}
	}
	return res, nil
}

func (s *requestService) CreateRequest(ctx context.Context, actor Actor, in CreateRequestInput) (*RequestCreatedResponse, error) {
	projectSite := strings.TrimSpace(in.ProjectSite)
	requestedBy := strings.TrimSpace(in.RequestedBy)
	teamName := strings.TrimSpace(in.TeamName)
	if projectSite == "" || requestedBy == "" {
		return nil, invalid("Project / Site and Requested by are required.")
	}

	items, err := s.selectItems(ctx, in.Items)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, invalid("Select at least one material and set a quantity (> 0).")
	}

	var req *model.MaterialRequest
	for attempt := 1; ; attempt++ {
		req, err = s.insertRequest(ctx, actor, projectSite, requestedBy, teamName, items)
		if err == nil {
			break
		}
		if !isDuplicateKey(err) || attempt == maxCodeAttempts {
			return nil, fmt.Errorf("create request: %w", err)
		}
	}

	s.audit.Log(ctx, AuditEntry{
		Action:     model.ActionCreateRequest,
		EntityType: model.EntityRequest,
		EntityID:   req.ID.String(),
		Message:    fmt.Sprintf("Request %s created", req.RequestCode),
		Actor:      actor,
		Meta:       map[string]interface{}{"items": len(items), "project_site": projectSite},
	})
	s.events.Publish(EventRequestCreated, RequestCreatedResponse{ID: req.ID.String(), RequestCode: req.RequestCode})

	return &RequestCreatedResponse{ID: req.ID.String(), RequestCode: req.RequestCode}, nil
}

// selectItems keeps selected rows for active materials with a positive quantity,
// numbered in catalog order. A later row for the same material replaces an earlier one.
func (s *requestService) selectItems(ctx context.Context, rows []RequestItemInput) ([]model.MaterialRequestItem, error) {
	byMaterial := make(map[uuid.UUID]RequestItemInput, len(rows))
	for _, row := range rows {
		id, err := uuid.Parse(strings.TrimSpace(row.MaterialID))
		if err != nil {
			continue
		}
		byMaterial[id] = row
	}

	active, err := s.materials.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active materials: %w", err)
	}

	var items []model.MaterialRequestItem
	for _, m := range active {
		row, ok := byMaterial[m.ID]
		if !ok || !row.Selected || row.Quantity <= 0 {
			continue
		}
		items = append(items, model.MaterialRequestItem{
			MaterialID: m.ID,
			ItemNumber: len(items) + 1,
			Quantity:   row.Quantity,
			Notes:      optionalString(row.Notes),
			Status:     model.ItemStatusPending,
		})
	}
	return items, nil
}

// insertRequest resolves the team, allocates the next code and writes the request in one transaction.
func (s *requestService) insertRequest(ctx context.Context, actor Actor, projectSite, requestedBy, teamName string, items []model.MaterialRequestItem) (*model.MaterialRequest, error) {
	req := &model.MaterialRequest{
		Date:        s.now(),
		ProjectSite: projectSite,
		RequestedBy: requestedBy,
		UserID:      actor.userID(),
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if teamName != "" {
			team, err := s.findOrCreateTeam(txCtx, teamName)
			if err != nil {
				return err
			}
			req.TeamID = &team.ID
		}

		last, err := s.requests.LastCode(txCtx)
		if err != nil {
			return fmt.Errorf("read last request code: %w", err)
		}
		req.RequestCode = NextRequestCode(last)

		req.Items = make([]model.MaterialRequestItem, len(items))
		copy(req.Items, items)
		return s.requests.Create(txCtx, req)
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (s *requestService) findOrCreateTeam(ctx context.Context, name string) (*model.Team, error) {
	team, err := s.teams.FindByName(ctx, name)
	if err == nil {
		return team, nil
	}
	if !repository.IsNotFound(err) {
		return nil, fmt.Errorf("find team: %w", err)
	}

	team = &model.Team{Name: name}
	if err := s.teams.Create(ctx, team); err != nil {
		return nil, fmt.Errorf("create team: %w", err)
	}
	return team, nil
}

func (s *requestService) ListRequests(ctx context.Context, page, limit int) ([]RequestSummaryResponse, int64, error) {
	reqs, total, err := s.requests.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]uuid.UUID, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.ID)
	}
	counts, err := s.requests.ItemCounts(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	res := make([]RequestSummaryResponse, 0, len(reqs))
	for i := range reqs {
		summary := toRequestSummary(&reqs[i])
		summary.ItemCount = counts[reqs[i].ID]
		res = append(res, summary)
	}
	return res, total, nil
}

func (s *requestService) GetRequest(ctx context.Context, id string) (*RequestDetailResponse, error) {
	req, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &RequestDetailResponse{
		RequestSummaryResponse: toRequestSummary(req),
		Items:                  make([]RequestItemResponse, 0, len(req.Items)),
	}
	detail.ItemCount = int64(len(req.Items))
	for _, it := range req.Items {
		detail.Items = append(detail.Items, RequestItemResponse{
			ID:           it.ID.String(),
			ItemNumber:   it.ItemNumber,
			MaterialID:   it.MaterialID.String(),
			SapPN:        it.Material.SapPN,
			MaterialName: it.Material.Name,
			Unit:         it.Material.Unit,
			Quantity:     it.Quantity,
			Notes:        it.Notes,
			Status:       it.Status,
		})
	}
	return detail, nil
}

// DeleteRequest removes a request and its items after admin confirmation.
func (s *requestService) DeleteRequest(ctx context.Context, actor Actor, id, adminPassword string) error {
	if err := s.confirm.ConfirmAdmin(ctx, actor, adminPassword); err != nil {
		return err
	}

	var code string
	var reqID uuid.UUID
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		req, err := s.find(txCtx, id)
		if err != nil {
			return err
		}
		code, reqID = req.RequestCode, req.ID
		if err := s.requests.Delete(txCtx, req.ID); err != nil {
			return fmt.Errorf("delete request: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.audit.Log(ctx, AuditEntry{
		Action:     model.ActionDeleteRequest,
		EntityType: model.EntityRequest,
		EntityID:   reqID.String(),
		Message:    fmt.Sprintf("Request %s deleted", code),
		Actor:      actor,
	})
	s.events.Publish(EventRequestDeleted, map[string]string{"id": reqID.String(), "request_code": code})
	return nil
}

func (s *requestService) find(ctx context.Context, id string) (*model.MaterialRequest, error) {
	return findRequest(ctx, s.requests, id)
}

func findRequest(ctx context.Context, repo repository.RequestRepository, id string) (*model.MaterialRequest, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, notFound("Request")
	}
	req, err := repo.FindByID(ctx, uid)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Request")
		}
		return nil, fmt.Errorf("load request: %w", err)
	}
	return req, nil
}

func toRequestSummary(r *model.MaterialRequest) RequestSummaryResponse {
	res := RequestSummaryResponse{
		ID:          r.ID.String(),
		RequestCode: r.RequestCode,
		Date:        r.Date.Format("2006-01-02"),
		ProjectSite: r.ProjectSite,
		RequestedBy: r.RequestedBy,
		CreatedAt:   r.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if r.Team != nil {
		name := r.Team.Name
		res.Team = &name
	}
	return res
}
