package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go-data-sentinel/internal/model"
	"go-data-sentinel/pkg/utils"
)

// FileReportStore writes each validation report as a JSON file under a
// per-run output directory, so reports can be reviewed without the audit DB.
type FileReportStore struct {
	Manager *utils.OutputManager
}

func NewFileReportStore(baseDir string) *FileReportStore {
	return &FileReportStore{Manager: utils.NewOutputManager(baseDir)}
}

// StoreReport writes the report to <base>/<run_id>/<dataset>_report.json.
func (s *FileReportStore) StoreReport(ctx context.Context, report model.ValidationReport) error {
	path, err := s.Manager.OutputFilePath(report.RunID, fmt.Sprintf("%s_report.json", report.Dataset))
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report for %q: %w", report.Dataset, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	return nil
}
