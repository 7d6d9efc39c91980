package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"pharmaSupply/domain"
	"pharmaSupply/pkg/logger"
	"pharmaSupply/pkg/metrics"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"
)

type ReportRepository interface {
	CreateTemplate(ctx context.Context, t *domain.ReportTemplate) error
	FindTemplate(ctx context.Context, id string) (domain.ReportTemplate, error)
	FindTemplates(ctx context.Context, userID string) ([]domain.ReportTemplate, error)
	UpdateTemplate(ctx context.Context, t *domain.ReportTemplate) error
	DeleteTemplate(ctx context.Context, id string) error

	Create(ctx context.Context, rep *domain.Report) error
	FindByID(ctx context.Context, id string) (domain.Report, error)
	FindByUser(ctx context.Context, userID string, page domain.PageRequest) ([]domain.Report, int64, error)
	Save(ctx context.Context, rep *domain.Report) error
	Delete(ctx context.Context, id string) error

	CreateExecution(ctx context.Context, e *domain.ReportExecution) error
	SaveExecution(ctx context.Context, e *domain.ReportExecution) error
	FindExpired(ctx context.Context, now time.Time) ([]domain.Report, error)
	ClearFile(ctx context.Context, id string) error
}

type reportService struct {
	repo      ReportRepository
	source    SourceReader
	validate  *validator.Validate
	dir       string
	retention time.Duration
	now       func() time.Time
}

func NewReportService(repo ReportRepository, source SourceReader, validate *validator.Validate, dir string, retention time.Duration) *reportService {
	return &reportService{
		repo:      repo,
		source:    source,
		validate:  validate,
		dir:       dir,
		retention: retention,
		now:       time.Now,
	}
}

const (
	defaultReportLimit = 10
	maxReportLimit     = 100
)

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

func (s *reportService) encodeConfig(cfg domain.ReportConfig) (datatypes.JSON, error) {
	if err := s.validate.Struct(cfg); err != nil {
		return nil, domain.NewValidation("invalid report config: %v", err)
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report config: %w", err)
	}
	return datatypes.JSON(raw), nil
}

func decodeConfig(raw datatypes.JSON) (domain.ReportConfig, error) {
	var cfg domain.ReportConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return domain.ReportConfig{}, fmt.Errorf("failed to decode report config: %w", err)
	}
	return cfg, nil
}

func (s *reportService) CreateTemplate(ctx context.Context, userID string, in domain.ReportTemplateInput) (domain.ReportTemplate, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return domain.ReportTemplate{}, domain.NewValidation("name is required")
	}
	if in.Category == nil || strings.TrimSpace(*in.Category) == "" {
		return domain.ReportTemplate{}, domain.NewValidation("category is required")
	}
	if in.Config == nil {
		return domain.ReportTemplate{}, domain.NewValidation("config is required")
	}
	cfg, err := s.encodeConfig(*in.Config)
	if err != nil {
		return domain.ReportTemplate{}, err
	}

	t := domain.ReportTemplate{
		Name:      *in.Name,
		Category:  *in.Category,
		CreatedBy: userID,
		Config:    cfg,
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.IsPublic != nil {
		t.IsPublic = *in.IsPublic
	}

	if err := s.repo.CreateTemplate(ctx, &t); err != nil {
		logger.Error("Failed to create report template", "error", err)
		return domain.ReportTemplate{}, err
	}
	return t, nil
}

// ListTemplates returns the caller's templates plus public ones, optionally filtered by category.
func (s *reportService) ListTemplates(ctx context.Context, userID, category string) ([]domain.ReportTemplate, error) {
	all, err := s.repo.FindTemplates(ctx, userID)
	if err != nil {
		return nil, err
	}
	if category == "" {
		return all, nil
	}
	out := make([]domain.ReportTemplate, 0, len(all))
	for _, t := range all {
		if t.Category == category {
			out = append(out, t)
		}
	}
	return out, nil
}

// GetTemplate is visible to its creator, or to anyone when public.
func (s *reportService) GetTemplate(ctx context.Context, id, userID string) (domain.ReportTemplate, error) {
	t, err := s.repo.FindTemplate(ctx, id)
	if err != nil {
		return domain.ReportTemplate{}, err
	}
	if !t.IsPublic && t.CreatedBy != userID {
		return domain.ReportTemplate{}, domain.NewNotFound("Report template", id)
	}
	return t, nil
}

func (s *reportService) ownedTemplate(ctx context.Context, id, userID string) (domain.ReportTemplate, error) {
	t, err := s.repo.FindTemplate(ctx, id)
	if err != nil {
		return domain.ReportTemplate{}, err
	}
	if t.CreatedBy != userID {
		return domain.ReportTemplate{}, domain.NewForbidden("Template not found or access denied")
	}
	return t, nil
}

func (s *reportService) UpdateTemplate(ctx context.Context, id, userID string, in domain.ReportTemplateInput) (domain.ReportTemplate, error) {
	t, err := s.ownedTemplate(ctx, id, userID)
	if err != nil {
		return domain.ReportTemplate{}, err
	}

	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return domain.ReportTemplate{}, domain.NewValidation("name must not be empty")
		}
		t.Name = *in.Name
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Category != nil {
		t.Category = *in.Category
	}
	if in.IsPublic != nil {
		t.IsPublic = *in.IsPublic
	}
	if in.Config != nil {
		cfg, err := s.encodeConfig(*in.Config)
		if err != nil {
			return domain.ReportTemplate{}, err
		}
		t.Config = cfg
	}

	if err := s.repo.UpdateTemplate(ctx, &t); err != nil {
		logger.Error("Failed to update report template", "id", id, "error", err)
		return domain.ReportTemplate{}, err
	}
	return t, nil
}

func (s *reportService) DeleteTemplate(ctx context.Context, id, userID string) error {
	if _, err := s.ownedTemplate(ctx, id, userID); err != nil {
		return err
	}
	return s.repo.DeleteTemplate(ctx, id)
}

func (s *reportService) CreateReport(ctx context.Context, userID string, in domain.ReportInput) (domain.Report, error) {
	if strings.TrimSpace(in.Name) == "" {
		return domain.Report{}, domain.NewValidation("name is required")
	}
	if !in.Format.Valid() {
		return domain.Report{}, domain.NewValidation("Invalid format: %s", in.Format)
	}

	var cfg domain.ReportConfig
	switch {
	case in.Config != nil:
		cfg = *in.Config
	case in.TemplateID != nil:
		t, err := s.GetTemplate(ctx, *in.TemplateID, userID)
		if err != nil {
			return domain.Report{}, err
		}
		if cfg, err = decodeConfig(t.Config); err != nil {
			return domain.Report{}, err
		}
	default:
		return domain.Report{}, domain.NewValidation("config or template is required")
	}

	raw, err := s.encodeConfig(cfg)
	if err != nil {
		return domain.Report{}, err
	}

	rep := domain.Report{
		Name:        in.Name,
		Description: in.Description,
		TemplateID:  in.TemplateID,
		CreatedBy:   userID,
		Config:      raw,
		Format:      in.Format,
		Status:      domain.ReportPending,
		ScheduledAt: in.ScheduledAt,
	}
	if err := s.repo.Create(ctx, &rep); err != nil {
		logger.Error("Failed to create report", "error", err)
		return domain.Report{}, err
	}
	return rep, nil
}

func (s *reportService) ListReports(ctx context.Context, userID string, page, limit int) ([]domain.Report, domain.Pagination, error) {
	p := domain.NormalizePage(page, limit, defaultReportLimit, maxReportLimit)
	reports, total, err := s.repo.FindByUser(ctx, userID, p)
	if err != nil {
		return nil, domain.Pagination{}, err
	}
	return reports, domain.NewPagination(p.Page, p.Limit, total), nil
}

// GetReport is visible to its creator and to admins.
func (s *reportService) GetReport(ctx context.Context, id, userID string, role domain.Role) (domain.Report, error) {
	rep, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Report{}, err
	}
	if !role.IsAdmin() && rep.CreatedBy != userID {
		return domain.Report{}, domain.NewForbidden("Report not found or access denied")
	}
	return rep, nil
}

// Execute builds the report rows, writes the file and records the outcome
// on both the report and a new execution row.
func (s *reportService) Execute(ctx context.Context, id, userID string, role domain.Role) (domain.Report, error) {
	rep, err := s.GetReport(ctx, id, userID, role)
	if err != nil {
		return domain.Report{}, err
	}
	rep.Executions = nil
	previous := rep.FilePath

	exec := domain.ReportExecution{ReportID: rep.ID, Status: domain.ReportProcessing}
	if err := s.repo.CreateExecution(ctx, &exec); err != nil {
		return domain.Report{}, err
	}

	rep.Status = domain.ReportProcessing
	rep.ErrorMessage = nil
	if err := s.repo.Save(ctx, &rep); err != nil {
		return domain.Report{}, err
	}

	path, size, genErr := s.generate(ctx, rep)
	finished := s.now().UTC()
	exec.CompletedAt = &finished
	rep.CompletedAt = &finished

	if genErr != nil {
		logger.Error("Report execution failed", "report_id", rep.ID, "error", genErr)
		msg := genErr.Error()
		exec.Status, exec.ErrorMessage = domain.ReportFailed, &msg
		rep.Status, rep.ErrorMessage = domain.ReportFailed, &msg
	} else {
		expires := finished.Add(s.retention)
		exec.Status, exec.FilePath, exec.FileSize = domain.ReportCompleted, &path, &size
		rep.Status, rep.FilePath, rep.FileSize = domain.ReportCompleted, &path, &size
		rep.ExpiresAt = &expires
	}
	metrics.ReportExecutions.WithLabelValues(string(rep.Format), string(rep.Status)).Inc()

	if err := s.repo.SaveExecution(ctx, &exec); err != nil {
		return domain.Report{}, err
	}
	if err := s.repo.Save(ctx, &rep); err != nil {
		return domain.Report{}, err
	}
	if genErr != nil {
		return rep, genErr
	}
	if previous != nil && *previous != path {
		if err := removeFile(*previous); err != nil {
			logger.Warn("Failed to remove previous report file", "path", *previous, "error", err)
		}
	}

	logger.Info("Report generated", "report_id", rep.ID, "format", rep.Format, "size", size)
	return rep, nil
}

func (s *reportService) generate(ctx context.Context, rep domain.Report) (string, int64, error) {
	cfg, err := decodeConfig(rep.Config)
	if err != nil {
		return "", 0, err
	}

	now := s.now()
	table, err := BuildTable(ctx, s.source, cfg, now)
	if err != nil {
		return "", 0, err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("failed to create reports directory: %w", err)
	}
	path := filepath.Join(s.dir, fileName(rep.Name, rep.Format, now))

	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create report file: %w", err)
	}
	if err := Write(f, rep.Format, table, now); err != nil {
		f.Close()
		os.Remove(path)
		return "", 0, fmt.Errorf("failed to write report: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", 0, fmt.Errorf("failed to write report: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to stat report file: %w", err)
	}
	return path, info.Size(), nil
}

func fileName(name string, format domain.ReportFormat, at time.Time) string {
	base := strings.Trim(unsafeFileChars.ReplaceAllString(name, "_"), "_")
	if base == "" {
		base = "report"
	}
	return fmt.Sprintf("%s_%d.%s", base, at.UnixMilli(), format.Extension())
}

// Download resolves the generated file. The suggested name is name.format.
func (s *reportService) Download(ctx context.Context, id, userID string, role domain.Role) (domain.ReportFile, error) {
	rep, err := s.GetReport(ctx, id, userID, role)
	if err != nil {
		return domain.ReportFile{}, err
	}
	if rep.FilePath == nil {
		return domain.ReportFile{}, domain.NewNotFound("Report file", id)
	}
	info, err := os.Stat(*rep.FilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.ReportFile{}, domain.NewNotFound("Report file", id)
		}
		return domain.ReportFile{}, fmt.Errorf("failed to stat report file: %w", err)
	}

	return domain.ReportFile{
		Path: *rep.FilePath,
		Name: fmt.Sprintf("%s.%s", rep.Name, strings.ToLower(string(rep.Format))),
		Size: info.Size(),
	}, nil
}

func (s *reportService) DeleteReport(ctx context.Context, id, userID string) error {
	rep, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if rep.CreatedBy != userID {
		return domain.NewForbidden("Report not found or access denied")
	}

	if rep.FilePath != nil {
		if err := removeFile(*rep.FilePath); err != nil {
			logger.Warn("Failed to remove report file", "path", *rep.FilePath, "error", err)
		}
	}
	return s.repo.Delete(ctx, id)
}

// CleanupExpired removes files of reports past their expiry and returns how many were cleared.
func (s *reportService) CleanupExpired(ctx context.Context) (int, error) {
	expired, err := s.repo.FindExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, err
	}

	cleared := 0
	for _, rep := range expired {
		if rep.FilePath != nil {
			if err := removeFile(*rep.FilePath); err != nil {
				logger.Warn("Failed to remove expired report", "path", *rep.FilePath, "error", err)
				continue
			}
		}
		if err := s.repo.ClearFile(ctx, rep.ID); err != nil {
			return cleared, err
		}
		cleared++
	}
	return cleared, nil
}

// removeFile deletes a generated report file. A file that is already gone
// counts as removed.
func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
