package ingest

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/atlasfin/loanengine/internal/apperror"
	"github.com/atlasfin/loanengine/internal/model"
)

// LoadWorkbook reads the assumption workbook from its YAML layout and
// checks that the required tables are present before a store is built
// from it, so a truncated file fails with the file in the error rather
// than deep inside the run.
func (ld *Loader) LoadWorkbook(path string) (*model.Workbook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workbook file: %w", err)
	}

	var wb model.Workbook
	if err := yaml.Unmarshal(data, &wb); err != nil {
		return nil, fmt.Errorf("parse workbook file: %w", err)
	}

	name := filepath.Base(path)
	if err := validator.New().Struct(&wb); err != nil {
		return nil, apperror.Structural(name, fmt.Sprintf("workbook is missing required tables: %v", err))
	}

	ld.logger.Info("Assumption workbook loaded",
		slog.String("file", name),
		slog.Int("index_curves", len(wb.IndexCurves)),
		slog.Int("cost_of_risk_types", len(wb.CostOfRisk)),
		slog.Int("fee_rows", len(wb.RatesFees)),
	)
	return &wb, nil
}
