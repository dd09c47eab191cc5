package service

import (
	"context"
	"fmt"

	"workflow/internal/model"
	"workflow/internal/repository"
	"workflow/internal/spreadsheet"
)

// ExportFile is a generated download.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

type ExportService interface {
	// ExportRequestExcel marks every item of the request COMPLETE and renders it as a workbook.
	ExportRequestExcel(ctx context.Context, actor Actor, id string) (*ExportFile, error)
}

type exportService struct {
	requests repository.RequestRepository
	tx       repository.TransactionManager
	audit    AuditService
	events   EventPublisher
	logo     []byte
}

// NewExportService builds the exporter. A nil logo uses the built-in one.
func NewExportService(requests repository.RequestRepository, tx repository.TransactionManager, audit AuditService, events EventPublisher, logo []byte) ExportService {
	return &exportService{requests: requests, tx: tx, audit: audit, events: publisherOrNoop(events), logo: logo}
}

func (s *exportService) ExportRequestExcel(ctx context.Context, actor Actor, id string) (*ExportFile, error) {
	var req *model.MaterialRequest
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		req, err = findRequest(txCtx, s.requests, id)
		if err != nil {
			return err
		}
		if _, err := s.requests.MarkItemsComplete(txCtx, req.ID); err != nil {
			return fmt.Errorf("mark items complete: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sheet := spreadsheet.RequestSheet{
		Code:        req.RequestCode,
		Date:        req.Date,
		ProjectSite: req.ProjectSite,
		RequestedBy: req.RequestedBy,
		Items:       make([]spreadsheet.SheetItem, 0, len(req.Items)),
	}
	if req.Team != nil {
		sheet.Team = req.Team.Name
	}
	for i := range req.Items {
		it := &req.Items[i]
		it.Status = model.ItemStatusComplete
		item := spreadsheet.SheetItem{
			Number:   it.ItemNumber,
			SapPN:    it.Material.SapPN,
			Name:     it.Material.Name,
			Quantity: it.Quantity,
			Status:   it.Status,
		}
		if it.Notes != nil {
			item.Notes = *it.Notes
		}
		sheet.Items = append(sheet.Items, item)
	}

	buf, err := spreadsheet.BuildRequestWorkbook(sheet, s.logo)
	if err != nil {
		return nil, fmt.Errorf("build workbook for %s: %w", req.RequestCode, err)
	}

	s.audit.Log(ctx, AuditEntry{
		Action:     model.ActionExportExcel,
		EntityType: model.EntityRequest,
		EntityID:   req.ID.String(),
		Message:    fmt.Sprintf("Request %s exported to Excel", req.RequestCode),
		Actor:      actor,
	})
	s.events.Publish(EventRequestExported, map[string]string{"id": req.ID.String(), "request_code": req.RequestCode})

	return &ExportFile{
		Filename:    spreadsheet.Filename(req.RequestCode),
		ContentType: spreadsheet.ContentType,
		Content:     buf.Bytes(),
	}, nil
}
