package configs

import (
	"errors"
	"time"
)

// Optimizer holds the default rule thresholds. Tool arguments override them
// per call. ROI values are fractions (0.5 means 50%).
type Optimizer struct {
	MinSpend            float64 `env:"MIN_SPEND" envDefault:"10"`
	ROIThreshold        float64 `env:"ROI_THRESHOLD" envDefault:"0"`
	MinConversions      int64   `env:"MIN_CONVERSIONS" envDefault:"1"`
	ScaleROIThreshold   float64 `env:"SCALE_ROI_THRESHOLD" envDefault:"0.5"`
	ScaleMinConversions int64   `env:"SCALE_MIN_CONVERSIONS" envDefault:"10"`
	// ScaleBudgetStep is the default relative daily budget increase
	// proposed for scaling candidates.
	ScaleBudgetStep float64 `env:"SCALE_BUDGET_STEP" envDefault:"0.2"`

	TopLimit        int `env:"TOP_LIMIT" envDefault:"20"`
	ZoneReportLimit int `env:"ZONE_REPORT_LIMIT" envDefault:"100"`
	// WindowDays is the default look-back when a tool gets no dates.
	WindowDays int `env:"WINDOW_DAYS" envDefault:"7"`

	// BatchMaxSize caps the number of actions in one batch.
	BatchMaxSize    int           `env:"BATCH_MAX_SIZE" envDefault:"100"`
	ConfirmationTTL time.Duration `env:"CONFIRMATION_TTL" envDefault:"15m"`
	// SweepInterval drives the in-memory store cleanup; 0 disables it.
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`

	// RulesFile optionally points at a YAML file with custom rules.
	RulesFile string `env:"RULES_FILE"`
}

// Validate rejects limits that would make every batch empty.
func (c Optimizer) Validate() error {
	var errs []error
	if c.BatchMaxSize < 1 {
		errs = append(errs, errors.New("OPTIMIZER_BATCH_MAX_SIZE must be at least 1"))
	}
	if c.ConfirmationTTL <= 0 {
		errs = append(errs, errors.New("OPTIMIZER_CONFIRMATION_TTL must be positive"))
	}
	if c.WindowDays < 1 {
		errs = append(errs, errors.New("OPTIMIZER_WINDOW_DAYS must be at least 1"))
	}
	if c.ScaleBudgetStep <= -1 {
		errs = append(errs, errors.New("OPTIMIZER_SCALE_BUDGET_STEP must be above -1"))
	}
	return errors.Join(errs...)
}
