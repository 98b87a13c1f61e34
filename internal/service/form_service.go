package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nurpe/eforms/internal/model"
	"github.com/nurpe/eforms/internal/orderxml"
	"github.com/nurpe/eforms/internal/report"
	"github.com/nurpe/eforms/internal/repository"
	"github.com/nurpe/eforms/internal/validation"
)

const referenceAttempts = 20

type PDFGenerator interface {
	GenerateReport(bundle model.ReportBundle) ([]byte, error)
	GenerateOrder(order model.PaymentOrder) ([]byte, error)
}

type ExcelGenerator interface {
	Generate(bundle model.ReportBundle) ([]byte, error)
}

type Options struct {
	Location    *time.Location
	MaxPageSize int
	Now         func() time.Time
}

// FormService implements submission, lookup, status updates and reporting
// over a Store. Read-modify-write sequences are serialized per service.
type FormService struct {
	store     repository.Store
	validator *validation.Validator
	pdf       PDFGenerator
	excel     ExcelGenerator
	loc       *time.Location
	maxPage   int
	now       func() time.Time
	log       zerolog.Logger

	mu sync.Mutex
}

func NewFormService(
	store repository.Store,
	validator *validation.Validator,
	pdf PDFGenerator,
	excel ExcelGenerator,
	opts Options,
	log zerolog.Logger,
) *FormService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = 100
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &FormService{
		store:     store,
		validator: validator,
		pdf:       pdf,
		excel:     excel,
		loc:       opts.Location,
		maxPage:   opts.MaxPageSize,
		now:       opts.Now,
		log:       log,
	}
}

type SubmitInput struct {
	Fields map[string]string
	Files  []model.Attachment
}

type SubmitResult struct {
	ID        int64  `json:"formId"`
	Reference string `json:"reference"`
}

// ValidateOnly runs the field rules without storing anything.
func (s *FormService) ValidateOnly(fields map[string]string) validation.Errors {
	return s.validator.Check(validation.InputFromMap(fields))
}

func (s *FormService) Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error) {
	order, err := s.validator.Validate(validation.InputFromMap(input.Fields), input.Files)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	ids := make(map[int64]struct{}, len(records))
	refs := make(map[string]struct{}, len(records))
	for _, r := range records {
		ids[r.ID] = struct{}{}
		refs[r.Reference] = struct{}{}
	}

	if _, taken := refs[order.Reference]; taken {
		if order.PaymentReference != "" {
			return nil, validation.Errors{{Field: "paymentReference", Reason: validation.ReasonDuplicate}}
		}
		order.Reference = s.uniqueReference(*order, refs)
	}
	for {
		if _, taken := ids[order.ID]; !taken {
			break
		}
		order.ID++
	}

	records = append(records, *order)
	if err := s.save(ctx, records); err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("id", order.ID).
		Str("reference", order.Reference).
		Int("files", len(order.Files)).
		Msg("payment order submitted")
	return &SubmitResult{ID: order.ID, Reference: order.Reference}, nil
}

func (s *FormService) uniqueReference(order model.PaymentOrder, refs map[string]struct{}) string {
	for i := 0; i < referenceAttempts; i++ {
		candidate := s.validator.Reference(order.PayerCUI, order.PaymentDate)
		if _, taken := refs[candidate]; !taken {
			return candidate
		}
	}
	return fmt.Sprintf("REF-%d-%d", order.CreatedAt.UnixMilli(), order.ID)
}

type StatusLog struct {
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

type StatusView struct {
	ID        int64        `json:"id"`
	Reference string       `json:"reference"`
	Status    model.Status `json:"status"`
	Notes     string       `json:"notes,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	Logs      []StatusLog  `json:"logs"`
}

func (s *FormService) GetStatus(ctx context.Context, reference string) (*StatusView, error) {
	order, err := s.FindByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	logs := []StatusLog{{
		Action:    "form_submitted",
		Details:   "Formular trimis cu succes",
		CreatedAt: order.CreatedAt,
	}}
	if order.UpdatedAt.After(order.CreatedAt) {
		logs = append(logs, StatusLog{
			Action:    "status_changed",
			Details:   fmt.Sprintf("Status actualizat: %s", order.Status),
			CreatedAt: order.UpdatedAt,
		})
	}

	return &StatusView{
		ID:        order.ID,
		Reference: order.Reference,
		Status:    order.Status,
		Notes:     order.Notes,
		CreatedAt: order.CreatedAt,
		UpdatedAt: order.UpdatedAt,
		Logs:      logs,
	}, nil
}

func (s *FormService) FindByReference(ctx context.Context, reference string) (*model.PaymentOrder, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, fmt.Errorf("%w: reference is required", ErrInvalidInput)
	}
	records, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].Reference == reference {
			return &records[i], nil
		}
	}
	return nil, ErrNotFound
}

type ListQuery struct {
	Page     int
	Limit    int
	Status   string
	DateFrom string
	DateTo   string
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type ListResult struct {
	Forms      []model.PaymentOrder `json:"forms"`
	Pagination Pagination           `json:"pagination"`
}

// List returns one page of records, newest first.
func (s *FormService) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 10
	}
	if q.Limit > s.maxPage {
		q.Limit = s.maxPage
	}

	var status model.Status
	if raw := strings.TrimSpace(q.Status); raw != "" {
		parsed, ok := model.ParseStatus(raw)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
		}
		status = parsed
	}

	filter, err := report.ParseFilter(q.DateFrom, q.DateTo, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	records, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	records = report.FilterRecords(records, filter)
	if status != "" {
		kept := records[:0]
		for _, r := range records {
			if r.Status == status {
				kept = append(kept, r)
			}
		}
		records = kept
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	total := len(records)
	start := (q.Page - 1) * q.Limit
	if start > total {
		start = total
	}
	end := start + q.Limit
	if end > total {
		end = total
	}

	return &ListResult{
		Forms: records[start:end],
		Pagination: Pagination{
			Page:  q.Page,
			Limit: q.Limit,
			Total: total,
			Pages: (total + q.Limit - 1) / q.Limit,
		},
	}, nil
}

// UpdateStatus sets a new status and refreshes updatedAt. Any status may
// follow any other.
func (s *FormService) UpdateStatus(ctx context.Context, id int64, rawStatus, notes string) (*model.PaymentOrder, error) {
	status, ok := model.ParseStatus(strings.TrimSpace(rawStatus))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, rawStatus)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range records {
		if records[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrNotFound
	}

	updated := records[idx]
	previous := updated.Status
	updated.Status = status
	if notes = strings.TrimSpace(notes); notes != "" {
		updated.Notes = notes
	}
	updated.UpdatedAt = s.now().UTC()
	if updated.UpdatedAt.Before(updated.CreatedAt) {
		updated.UpdatedAt = updated.CreatedAt
	}
	records[idx] = updated

	if err := s.save(ctx, records); err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("id", id).
		Str("from", string(previous)).
		Str("to", string(status)).
		Msg("payment order status updated")
	return &updated, nil
}

func (s *FormService) Report(ctx context.Context, dateFrom, dateTo string) (*model.ReportBundle, error) {
	filter, err := report.ParseFilter(dateFrom, dateTo, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	records, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return report.Aggregate(records, filter, s.now().UTC())
}

type FileResult struct {
	FileName    string
	ContentType string
	Content     []byte
}

func (s *FormService) ReportPDF(ctx context.Context, dateFrom, dateTo string) (*FileResult, error) {
	bundle, err := s.Report(ctx, dateFrom, dateTo)
	if err != nil {
		return nil, err
	}
	content, err := s.pdf.GenerateReport(*bundle)
	if err != nil {
		return nil, fmt.Errorf("render report pdf: %w", err)
	}
	return &FileResult{
		FileName:    reportFileName(*bundle, "pdf"),
		ContentType: "application/pdf",
		Content:     content,
	}, nil
}

func (s *FormService) ReportExcel(ctx context.Context, dateFrom, dateTo string) (*FileResult, error) {
	bundle, err := s.Report(ctx, dateFrom, dateTo)
	if err != nil {
		return nil, err
	}
	content, err := s.excel.Generate(*bundle)
	if err != nil {
		return nil, fmt.Errorf("render report workbook: %w", err)
	}
	return &FileResult{
		FileName:    reportFileName(*bundle, "xlsx"),
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Content:     content,
	}, nil
}

func (s *FormService) OrderPDF(ctx context.Context, reference string) (*FileResult, error) {
	order, err := s.FindByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	content, err := s.pdf.GenerateOrder(*order)
	if err != nil {
		return nil, fmt.Errorf("render order pdf: %w", err)
	}
	return &FileResult{
		FileName:    orderFileName(*order, "pdf"),
		ContentType: "application/pdf",
		Content:     content,
	}, nil
}

func (s *FormService) OrderXML(ctx context.Context, reference string) (*FileResult, error) {
	order, err := s.FindByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	content, err := orderxml.Marshal(*order, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("render order xml: %w", err)
	}
	return &FileResult{
		FileName:    orderFileName(*order, "xml"),
		ContentType: "application/xml",
		Content:     content,
	}, nil
}

func (s *FormService) load(ctx context.Context) ([]model.PaymentOrder, error) {
	records, err := s.store.LoadAll(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		s.log.Error().Err(err).Msg("load payment orders failed")
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return records, nil
}

func (s *FormService) save(ctx context.Context, records []model.PaymentOrder) error {
	if err := s.store.SaveAll(ctx, records); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		s.log.Error().Err(err).Int("records", len(records)).Msg("save payment orders failed")
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func reportFileName(bundle model.ReportBundle, ext string) string {
	period := bundle.GeneratedAt.Format("20060102")
	if bundle.PeriodFrom != nil || bundle.PeriodTo != nil {
		from, to := "inceput", "prezent"
		if bundle.PeriodFrom != nil {
			from = bundle.PeriodFrom.Format("20060102")
		}
		if bundle.PeriodTo != nil {
			to = bundle.PeriodTo.Format("20060102")
		}
		period = from + "-" + to
	}
	return fmt.Sprintf("raport-formulare-%s.%s", period, ext)
}

func orderFileName(order model.PaymentOrder, ext string) string {
	ref := sanitizeFileName(order.Reference)
	if ref == "" {
		ref = "fara_ref"
	}
	return fmt.Sprintf("Ordin_Plata_%s.%s", ref, ext)
}

func sanitizeFileName(input string) string {
	result := make([]rune, 0, len(input))
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z':
			result = append(result, r)
		case r >= 'A' && r <= 'Z':
			result = append(result, r)
		case r >= '0' && r <= '9':
			result = append(result, r)
		case r == '-', r == '_':
			result = append(result, r)
		default:
			result = append(result, '-')
		}
	}
	return strings.Trim(string(result), "-")
}
