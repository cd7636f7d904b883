package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/quiz-platform/quiz-service/internal/cache"
	"github.com/quiz-platform/quiz-service/internal/models"
	"github.com/quiz-platform/quiz-service/internal/repositories"
)

// exportRecord is one flattened row of the export output.
type exportRecord struct {
	ResultID       uint      `json:"result_id"`
	UserID         uint      `json:"user_id"`
	QuizID         uint      `json:"quiz_id"`
	CompanyID      uint      `json:"company_id"`
	TotalAnswered  int       `json:"total_answered"`
	TotalCorrect   int       `json:"total_correct"`
	Rating         float64   `json:"rating"`
	CompletionTime time.Time `json:"completion_time"`
}

type exportService struct {
	repo         repositories.Repository
	db           *gorm.DB
	logger       *slog.Logger
	cacheManager *cache.CacheManager
}

func NewExportService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, cacheManager *cache.CacheManager) ExportService {
	return &exportService{
		repo:         repo,
		db:           db,
		logger:       logger,
		cacheManager: cacheManager,
	}
}

// ExportResults serializes a company's cached result set. The cache is the
// primary source; results evicted from redis fall back to the database so
// an export is never silently partial.
func (s *exportService) ExportResults(ctx context.Context, filters ExportFilters, format ExportFormat, actorID uint) (*ExportFile, error) {
	if filters.CompanyID == 0 {
		return nil, NewValidationError("company_id", "company_id is required", "")
	}

	company, err := s.repo.Company().GetByID(ctx, nil, filters.CompanyID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	if company.OwnerID != actorID {
		isAdmin, err := s.repo.Company().IsAdmin(ctx, nil, company.ID, actorID)
		if err != nil {
			return nil, fmt.Errorf("failed to check admin status: %w", err)
		}
		if !isAdmin {
			return nil, NewPermissionError(actorID, company.ID, "company", "export_results", "not a company admin or owner")
		}
	}

	records, err := s.loadCachedRecords(ctx, filters)
	if err != nil {
		s.logger.Warn("Cached export unavailable, falling back to database",
			"company_id", filters.CompanyID,
			"error", err)
		records, err = s.loadStoredRecords(ctx, filters)
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].UserID != records[j].UserID {
			return records[i].UserID < records[j].UserID
		}
		return records[i].CompletionTime.Before(records[j].CompletionTime)
	})

	stamp := time.Now().UTC().Format("20060102_150405")
	baseName := fmt.Sprintf("quiz_results_company_%d_%s", filters.CompanyID, stamp)

	switch format {
	case ExportJSON:
		return renderJSON(baseName, records)
	case ExportCSV:
		return renderCSV(baseName, records)
	case ExportXLSX:
		return renderXLSX(baseName, records)
	default:
		return nil, NewValidationError("format", fmt.Sprintf("unsupported export format: %s", format), string(format))
	}
}

// loadCachedRecords scans redis for the company's result keys. The key
// layout is companyID:quizID:userID:resultID, so quiz and user filters
// translate directly into the scan pattern.
func (s *exportService) loadCachedRecords(ctx context.Context, filters ExportFilters) ([]exportRecord, error) {
	if s.cacheManager == nil {
		return nil, cache.ErrCacheNotAvailable
	}

	pattern := fmt.Sprintf("%d:%s:%s:*",
		filters.CompanyID,
		patternSegment(filters.QuizID),
		patternSegment(filters.UserID))

	keys, err := s.cacheManager.Result.Keys(ctx, pattern)
	if err != nil {
		return nil, err
	}

	values, err := s.cacheManager.Result.GetMultiple(ctx, keys)
	if err != nil {
		return nil, err
	}

	records := make([]exportRecord, 0, len(values))
	for key, raw := range values {
		var result models.QuizResult
		if err := json.Unmarshal([]byte(raw), &result); err != nil {
			s.logger.Warn("Skipping malformed cached result", "key", key, "error", err)
			continue
		}
		records = append(records, toExportRecord(filters.CompanyID, &result))
	}

	return records, nil
}

func (s *exportService) loadStoredRecords(ctx context.Context, filters ExportFilters) ([]exportRecord, error) {
	resultFilters := repositories.QuizResultFilters{
		CompanyID: &filters.CompanyID,
		QuizID:    filters.QuizID,
		UserID:    filters.UserID,
	}

	results, _, err := s.repo.QuizResult().List(ctx, nil, resultFilters)
	if err != nil {
		return nil, fmt.Errorf("failed to load quiz results: %w", err)
	}

	records := make([]exportRecord, 0, len(results))
	for _, result := range results {
		records = append(records, toExportRecord(filters.CompanyID, result))
	}
	return records, nil
}

func toExportRecord(companyID uint, result *models.QuizResult) exportRecord {
	return exportRecord{
		ResultID:       result.ID,
		UserID:         result.UserID,
		QuizID:         result.QuizID,
		CompanyID:      companyID,
		TotalAnswered:  result.TotalQuestionsAnswered,
		TotalCorrect:   result.TotalCorrectAnswers,
		Rating:         RatingFromTotals(int64(result.TotalCorrectAnswers), int64(result.TotalQuestionsAnswered)),
		CompletionTime: result.CompletionTime,
	}
}

func patternSegment(id *uint) string {
	if id == nil {
		return "*"
	}
	return strconv.FormatUint(uint64(*id), 10)
}

var exportColumns = []string{
	"result_id", "user_id", "quiz_id", "company_id",
	"total_answered", "total_correct", "rating", "completion_time",
}

func renderJSON(baseName string, records []exportRecord) (*ExportFile, error) {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}
	return &ExportFile{
		FileName:    baseName + ".json",
		ContentType: "application/json",
		Data:        data,
	}, nil
}

func renderCSV(baseName string, records []exportRecord) (*ExportFile, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportColumns); err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}
	for _, r := range records {
		row := []string{
			strconv.FormatUint(uint64(r.ResultID), 10),
			strconv.FormatUint(uint64(r.UserID), 10),
			strconv.FormatUint(uint64(r.QuizID), 10),
			strconv.FormatUint(uint64(r.CompanyID), 10),
			strconv.Itoa(r.TotalAnswered),
			strconv.Itoa(r.TotalCorrect),
			strconv.FormatFloat(r.Rating, 'f', 1, 64),
			r.CompletionTime.UTC().Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to encode export: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}

	return &ExportFile{
		FileName:    baseName + ".csv",
		ContentType: "text/csv",
		Data:        buf.Bytes(),
	}, nil
}

func renderXLSX(baseName string, records []exportRecord) (*ExportFile, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Results"
	f.SetSheetName("Sheet1", sheet)

	for col, name := range exportColumns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to encode export: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return nil, fmt.Errorf("failed to encode export: %w", err)
		}
	}

	for i, r := range records {
		values := []interface{}{
			r.ResultID, r.UserID, r.QuizID, r.CompanyID,
			r.TotalAnswered, r.TotalCorrect, r.Rating,
			r.CompletionTime.UTC().Format(time.RFC3339),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, fmt.Errorf("failed to encode export: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, fmt.Errorf("failed to encode export: %w", err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}

	return &ExportFile{
		FileName:    baseName + ".xlsx",
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Data:        buf.Bytes(),
	}, nil
}
