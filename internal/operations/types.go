package operations

import (
	"time"
)

// Pipeline step identifiers
const (
	StepIDDVFClean      = "dvf_clean"
	StepIDTransit       = "transit"
	StepIDAirQuality    = "air_quality"
	StepIDCommuneStats  = "commune_stats"
	StepIDDemographics  = "demographics"
	StepIDSocialHousing = "social_housing"
	StepIDGold          = "gold"
	StepIDAirGold       = "air_gold"
	StepIDTransactions  = "transactions"
	StepIDWarehouse     = "warehouse"
	StepIDPublish       = "publish"

	// StepFullPipeline requests every registered step
	StepFullPipeline = "full_pipeline"
)

// Pipeline step names
const (
	StepNameDVFClean      = "DVF Cleaning"
	StepNameTransit       = "Transit Aggregation"
	StepNameAirQuality    = "Air Quality Cleaning"
	StepNameCommuneStats  = "Commune Statistics"
	StepNameDemographics  = "Demographics"
	StepNameSocialHousing = "Social Housing"
	StepNameGold          = "Gold Aggregation"
	StepNameAirGold       = "Air Quality Gold"
	StepNameTransactions  = "Scaled Transactions"
	StepNameWarehouse     = "Warehouse Load"
	StepNamePublish       = "Publish Artifacts"
)

// Context keys for operation state
const (
	ContextKeyDataDir       = "data_dir"
	ContextKeyStep          = "step"
	ContextKeyDVFFiles      = "dvf_files"
	ContextKeyGoldFile      = "gold_file"
	ContextKeyGoldRows      = "gold_rows"
	ContextKeyWarehouseFile = "warehouse_file"
	ContextKeyPublished     = "published"
)

// Data types exchanged between steps
const (
	DataTypeDVFBronze      = "dvf_bronze"
	DataTypeDVFSilver      = "dvf_silver"
	DataTypeLotsSilver     = "lots_silver"
	DataTypeTransitBronze  = "transit_bronze"
	DataTypeTransitSilver  = "transit_silver"
	DataTypeAirBronze      = "air_bronze"
	DataTypeAirSilver      = "air_silver"
	DataTypeStatsBronze    = "commune_stats_bronze"
	DataTypeStatsSilver    = "commune_stats_silver"
	DataTypeDemoBronze     = "demographics_bronze"
	DataTypeDemoSilver     = "demographics_silver"
	DataTypeSocialBronze   = "social_housing_bronze"
	DataTypeSocialSilver   = "social_housing_silver"
	DataTypeGold           = "gold"
	DataTypeAirGoldAnnual  = "air_gold_annual"
	DataTypeAirGoldMonthly = "air_gold_monthly"
	DataTypeTransactions   = "transactions"
	DataTypeScaled         = "transactions_scaled"
	DataTypeWarehouse      = "warehouse"
	DataTypePublishedFiles = "published"
)

// Default timeouts
const (
	DefaultStepTimeout      = 10 * time.Minute
	DefaultDVFTimeout       = 30 * time.Minute
	DefaultGoldTimeout      = 15 * time.Minute
	DefaultWarehouseTimeout = 20 * time.Minute
)

// ExecutionMode defines how steps are executed
type ExecutionMode string

const (
	ExecutionModeSequential ExecutionMode = "sequential"
	ExecutionModeParallel   ExecutionMode = "parallel"
)

// RetryConfig defines retry behavior for steps
type RetryConfig struct {
	MaxAttempts  int           `json:"max_attempts"`
	InitialDelay time.Duration `json:"initial_delay"`
	MaxDelay     time.Duration `json:"max_delay"`
	Multiplier   float64       `json:"multiplier"`
}

// NewRetryConfig returns the default retry configuration
func NewRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// OperationRequest represents a request to execute the pipeline
type OperationRequest struct {
	ID         string         `json:"id"`
	DataDir    string         `json:"data_dir,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// OperationResponse represents the result of a pipeline execution
type OperationResponse struct {
	ID       string                `json:"id"`
	Status   OperationStatusValue  `json:"status"`
	Duration time.Duration         `json:"duration"`
	Steps    map[string]*StepState `json:"steps"`
	Error    string                `json:"error,omitempty"`

	// Manifest of the run, saved separately by the caller
	Manifest *PipelineManifest `json:"-"`
}
