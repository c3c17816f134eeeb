package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"airquality-dashboard/internal/dataset"
	"airquality-dashboard/internal/models"
	"airquality-dashboard/internal/repository"
	"airquality-dashboard/pkg/logging"
	"airquality-dashboard/pkg/metrics"
)

// DefaultBatchSize is the number of readings inserted per transaction.
const DefaultBatchSize = 1000

// IngestionService copies station files into the readings table
type IngestionService struct {
	repo    repository.ReadingRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// IngestionResult contains ingestion statistics
type IngestionResult struct {
	TotalFiles        int
	TotalRecords      int
	SuccessfulRecords int
	FailedRecords     int
	Stations          []string
	Duration          time.Duration
	Errors            []string
}

// FileIngestionResult contains per-file ingestion statistics
type FileIngestionResult struct {
	Station           string
	TotalRecords      int
	SuccessfulRecords int
	FailedRecords     int
	UnparsedDates     int
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(repo repository.ReadingRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *IngestionService {
	return &IngestionService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// IngestPaths ingests every file or directory in paths. Directories contribute
// their *.csv and *.xlsx files. A station that is not empty overrides the name
// derived from each file.
func (s *IngestionService) IngestPaths(ctx context.Context, paths []string, station string, batchSize int) (*IngestionResult, error) {
	startTime := time.Now()

	files, err := expandPaths(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no dataset files found in %s", strings.Join(paths, ", "))
	}

	s.logger.Info(ctx, "[INGEST_START] Starting data ingestion", logging.Fields{
		"file_count": len(files),
		"batch_size": batchSize,
		"stage":      "INITIALIZATION",
	})

	result := &IngestionResult{
		TotalFiles: len(files),
		Errors:     make([]string, 0),
	}
	seen := make(map[string]bool)

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fileStation := station
		if fileStation == "" {
			fileStation = StationFromPath(path)
		}

		fileResult, err := s.IngestFile(ctx, dataset.NewFileLoader(path, ""), fileStation, batchSize)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to ingest %s: %v", path, err))
			s.logger.Error(ctx, "[INGEST_FILE_ERROR] File ingestion failed", logging.Fields{
				"file_path": path,
				"stage":     "FILE_PROCESSING",
			}, err)
			s.metrics.RecordIngestionError("file_error")
			continue
		}

		result.TotalRecords += fileResult.TotalRecords
		result.SuccessfulRecords += fileResult.SuccessfulRecords
		result.FailedRecords += fileResult.FailedRecords
		if !seen[fileResult.Station] {
			seen[fileResult.Station] = true
			result.Stations = append(result.Stations, fileResult.Station)
		}

		s.logger.Info(ctx, "[INGEST_FILE_SUCCESS] File ingested successfully", logging.Fields{
			"file_path":          path,
			"station":            fileResult.Station,
			"total_records":      fileResult.TotalRecords,
			"successful_records": fileResult.SuccessfulRecords,
			"failed_records":     fileResult.FailedRecords,
			"unparsed_dates":     fileResult.UnparsedDates,
			"stage":              "FILE_COMPLETE",
		})
	}
	sort.Strings(result.Stations)

	result.Duration = time.Since(startTime)
	s.metrics.IngestionDuration.Observe(result.Duration.Seconds())

	s.logger.Info(ctx, "[INGEST_COMPLETE] Data ingestion completed", logging.Fields{
		"total_files":        result.TotalFiles,
		"total_records":      result.TotalRecords,
		"successful_records": result.SuccessfulRecords,
		"failed_records":     result.FailedRecords,
		"duration_seconds":   result.Duration.Seconds(),
		"error_count":        len(result.Errors),
		"stage":              "COMPLETE",
	})

	return result, nil
}

// IngestFile loads one dataset through loader and stores its rows as
// readings of station.
func (s *IngestionService) IngestFile(ctx context.Context, loader dataset.Loader, station string, batchSize int) (*FileIngestionResult, error) {
	raw, err := loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", loader.Source(), err)
	}

	table, report, err := dataset.Normalize(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize %s: %w", loader.Source(), err)
	}

	result, err := s.IngestTable(ctx, table, station, batchSize)
	if err != nil {
		return nil, err
	}
	result.UnparsedDates = report.Unparsed
	return result, nil
}

// IngestTable converts the rows of a normalized table to readings and inserts
// them in batches. Rows that cannot be converted are counted and skipped.
func (s *IngestionService) IngestTable(ctx context.Context, t *dataset.Table, station string, batchSize int) (*FileIngestionResult, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	result := &FileIngestionResult{Station: station}
	batch := make([]*models.Reading, 0, batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.repo.InsertReadingsBatch(ctx, batch); err != nil {
			s.metrics.RecordIngestionError("insert_error")
			return fmt.Errorf("failed to insert batch: %w", err)
		}
		result.SuccessfulRecords += len(batch)
		batch = batch[:0]
		return nil
	}

	for i := 0; i < t.NumRows(); i++ {
		result.TotalRecords++

		reading, err := models.ReadingFromRow(t, i, station)
		if err != nil {
			result.FailedRecords++
			s.metrics.RecordIngestionError("conversion_error")
			s.logger.Debug(ctx, "[INGEST_ROW_SKIPPED] Row could not be converted", logging.Fields{
				"row":   i,
				"error": err.Error(),
			})
			continue
		}
		if result.Station == "" {
			result.Station = reading.Station
		}

		batch = append(batch, reading)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}

	if err := flush(); err != nil {
		return nil, err
	}
	return result, nil
}

var stationFilePattern = regexp.MustCompile(`^PRSA_Data_([^_]+)_`)

// StationFromPath derives a station name from a file name such as
// PRSA_Data_Wanliu_20130301-20170228.csv. Other names yield their base name.
func StationFromPath(path string) string {
	base := filepath.Base(path)
	if m := stationFilePattern.FindStringSubmatch(base); m != nil {
		return m[1]
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func expandPaths(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, fmt.Errorf("invalid path pattern %q: %w", p, err)
		}
		if len(matches) == 0 {
			matches = []string{p}
		}
		for _, m := range matches {
			if !isDir(m) {
				files = append(files, m)
				continue
			}
			for _, ext := range []string{"*.csv", "*.xlsx"} {
				found, err := filepath.Glob(filepath.Join(m, ext))
				if err != nil {
					return nil, fmt.Errorf("failed to read directory: %w", err)
				}
				sort.Strings(found)
				files = append(files, found...)
			}
		}
	}
	return files, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
