package operations

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"parisdash/internal/config"
	"parisdash/internal/etl"
)

// WarehouseBuilder loads the silver and gold layers into the warehouse and
// returns the row count of every table
type WarehouseBuilder interface {
	Build(ctx context.Context) (map[string]int64, error)
}

// Publisher uploads local files and returns the keys written
type Publisher interface {
	Publish(ctx context.Context, files []string) ([]string, error)
}

// StageOptions carries the collaborators of the pipeline steps. Warehouse
// and Publisher are optional; their step is left out when nil.
type StageOptions struct {
	Processor *etl.Processor
	Warehouse WarehouseBuilder
	Publisher Publisher
}

// ProcessingStage runs one transformation of the processor
type ProcessingStage struct {
	BaseStage
	run        func(context.Context) (*etl.Result, error)
	inputs     []DataRequirement
	outputs    []DataOutput
	contextKey string
	logger     *slog.Logger
}

func newProcessingStage(id, name string, deps []string, logger *slog.Logger,
	run func(context.Context) (*etl.Result, error)) *ProcessingStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessingStage{
		BaseStage: NewBaseStage(id, name, deps),
		run:       run,
		logger:    logger.With(slog.String("step", id)),
	}
}

// Validate checks that the stage is bound to a transformation
func (s *ProcessingStage) Validate(state *OperationState) error {
	if s.run == nil {
		return fmt.Errorf("step %s has no processor", s.ID())
	}
	return nil
}

// Execute runs the transformation and records the rows and files written
func (s *ProcessingStage) Execute(ctx context.Context, state *OperationState) error {
	stepState := state.GetStage(s.ID())
	s.updateProgress(stepState, 5, "Reading inputs")

	result, err := s.run(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "transformation_failed",
			slog.String("operation_id", state.ID),
			slog.String("error", err.Error()))
		return err
	}

	if stepState != nil {
		stepState.SetMetadata("rows", result.Rows)
		stepState.SetMetadata("files", result.Files)
	}
	if s.contextKey != "" {
		state.SetContext(s.contextKey, result.Files)
	}
	s.updateProgress(stepState, 100, fmt.Sprintf("%d rows written to %d file(s)", result.Rows, len(result.Files)))
	s.logger.InfoContext(ctx, "transformation_completed",
		slog.String("operation_id", state.ID),
		slog.Int("rows", result.Rows),
		slog.Any("files", result.Files))
	return nil
}

func (s *ProcessingStage) updateProgress(stepState *StepState, progress float64, message string) {
	if stepState != nil {
		stepState.UpdateProgress(progress, message)
	}
}

// RequiredInputs returns the files the transformation reads
func (s *ProcessingStage) RequiredInputs() []DataRequirement {
	return s.inputs
}

// ProducedOutputs returns the files the transformation writes
func (s *ProcessingStage) ProducedOutputs() []DataOutput {
	return s.outputs
}

// NewDVFCleanStage cleans the yearly DVF extracts
func NewDVFCleanStage(p *etl.Processor, logger *slog.Logger) *ProcessingStage {
	s := newProcessingStage(StepIDDVFClean, StepNameDVFClean, nil, logger, p.ProcessDVF)
	paths := p.Paths()
	s.inputs = []DataRequirement{
		{Type: DataTypeDVFBronze, Location: paths.BronzeDir, Pattern: config.DVFFilePattern, MinCount: 1},
	}
	s.outputs = []DataOutput{
		{Type: DataTypeDVFSilver, Location: paths.SilverDir, Pattern: etl.DVFSilverPattern(config.CleanSuffix)},
		{Type: DataTypeLotsSilver, Location: paths.SilverDir, Pattern: etl.DVFSilverPattern(config.LotsSuffix)},
	}
	s.contextKey = ContextKeyDVFFiles
	return s
}

// bronzeStage builds a step reading one optional bronze file and writing
// one silver file
func bronzeStage(id, name string, p *etl.Processor, logger *slog.Logger, run func(context.Context) (*etl.Result, error),
	inType, inFile, outType, outFile string) *ProcessingStage {
	s := newProcessingStage(id, name, nil, logger, run)
	paths := p.Paths()
	s.inputs = []DataRequirement{
		{Type: inType, Location: paths.BronzeDir, Pattern: inFile, MinCount: 1, Optional: true},
	}
	s.outputs = []DataOutput{
		{Type: outType, Location: paths.SilverDir, Pattern: outFile},
	}
	return s
}

// NewTransitStage aggregates the station traffic per arrondissement
func NewTransitStage(p *etl.Processor, logger *slog.Logger) *ProcessingStage {
	return bronzeStage(StepIDTransit, StepNameTransit, p, logger, p.ProcessTransit,
		DataTypeTransitBronze, config.TransitFileName, DataTypeTransitSilver, config.TransitSilverName)
}

// NewAirQualityStage cleans the air quality measurements
func NewAirQualityStage(p *etl.Processor, logger *slog.Logger) *ProcessingStage {
	return bronzeStage(StepIDAirQuality, StepNameAirQuality, p, logger, p.ProcessAirQuality,
		DataTypeAirBronze, config.AirQualityFileName, DataTypeAirSilver, config.AirQualitySilverName)
}

// NewCommuneStatsStage cleans the commune aggregates
func NewCommuneStatsStage(p *etl.Processor, logger *slog.Logger) *ProcessingStage {
	return bronzeStage(StepIDCommuneStats, StepNameCommuneStats, p, logger, p.ProcessCommuneStats,
		DataTypeStatsBronze, config.CommuneStatsFileName, DataTypeStatsSilver, config.CommuneStatsSilverName)
}

// NewDemographicsStage joins the census, surface and revenue files
func NewDemographicsStage(p *etl.Processor, logger *slog.Logger) *ProcessingStage {
	return bronzeStage(StepIDDemographics, StepNameDemographics, p, logger, p.ProcessDemographics,
		DataTypeDemoBronze, config.PopulationFileName, DataTypeDemoSilver, config.DemographicsSilverName)
}

// NewSocialHousingStage extracts the Paris social housing rates
func NewSocialHousingStage(p *etl.Processor, logger *slog.Logger) *ProcessingStage {
	return bronzeStage(StepIDSocialHousing, StepNameSocialHousing, p, logger, p.ProcessSocialHousing,
		DataTypeSocialBronze, config.SocialHousingFileName, DataTypeSocialSilver, config.SocialHousingSilverName)
}

// NewGoldStage aggregates the silver layer once every silver step has run
func NewGoldStage(p *etl.Processor, logger *slog.Logger) *ProcessingStage {
	deps := []string{StepIDDVFClean, StepIDTransit, StepIDAirQuality, StepIDCommuneStats, StepIDDemographics, StepIDSocialHousing}
	s := newProcessingStage(StepIDGold, StepNameGold, deps, logger, p.ProcessGold)
	paths := p.Paths()
	s.inputs = []DataRequirement{
		{Type: DataTypeDVFSilver, Location: paths.SilverDir, Pattern: etl.DVFSilverPattern(config.CleanSuffix), MinCount: 1},
	}
	s.outputs = []DataOutput{
		{Type: DataTypeGold, Location: paths.GoldDir, Pattern: filepath.Base(paths.GoldFile)},
	}
	s.contextKey = ContextKeyGoldFile
	return s
}

// NewAirGoldStage aggregates the cleaned air measurements per year and month
func NewAirGoldStage(p *etl.Processor, logger *slog.Logger) *ProcessingStage {
	s := newProcessingStage(StepIDAirGold, StepNameAirGold, []string{StepIDAirQuality}, logger, p.ProcessAirGold)
	paths := p.Paths()
	s.inputs = []DataRequirement{
		{Type: DataTypeAirSilver, Location: paths.SilverDir, Pattern: config.AirQualitySilverName, MinCount: 1, Optional: true},
	}
	s.outputs = []DataOutput{
		{Type: DataTypeAirGoldAnnual, Location: paths.GoldDir, Pattern: config.AirGoldAnnualName},
		{Type: DataTypeAirGoldMonthly, Location: paths.GoldDir, Pattern: config.AirGoldMonthlyName},
	}
	return s
}

// NewTransactionsStage merges the cleaned DVF years and scales their
// numeric columns
func NewTransactionsStage(p *etl.Processor, logger *slog.Logger) *ProcessingStage {
	s := newProcessingStage(StepIDTransactions, StepNameTransactions, []string{StepIDDVFClean}, logger, p.ProcessTransactions)
	paths := p.Paths()
	s.inputs = []DataRequirement{
		{Type: DataTypeDVFSilver, Location: paths.SilverDir, Pattern: etl.DVFSilverPattern(config.CleanSuffix), MinCount: 1},
	}
	s.outputs = []DataOutput{
		{Type: DataTypeTransactions, Location: paths.GoldDir, Pattern: config.TransactionsName},
		{Type: DataTypeScaled, Location: paths.GoldDir, Pattern: config.TransactionsScaledName},
	}
	return s
}

// WarehouseStage rebuilds the SQLite warehouse from the silver and gold files
type WarehouseStage struct {
	BaseStage
	builder WarehouseBuilder
	paths   *config.Paths
	logger  *slog.Logger
}

// NewWarehouseStage creates the warehouse step
func NewWarehouseStage(builder WarehouseBuilder, paths *config.Paths, logger *slog.Logger) *WarehouseStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &WarehouseStage{
		BaseStage: NewBaseStage(StepIDWarehouse, StepNameWarehouse, []string{StepIDGold}),
		builder:   builder,
		paths:     paths,
		logger:    logger.With(slog.String("step", StepIDWarehouse)),
	}
}

// Validate checks that a builder is configured
func (w *WarehouseStage) Validate(state *OperationState) error {
	if w.builder == nil {
		return fmt.Errorf("warehouse step has no builder")
	}
	return nil
}

// Execute rebuilds every table and records the row counts
func (w *WarehouseStage) Execute(ctx context.Context, state *OperationState) error {
	stepState := state.GetStage(w.ID())
	if stepState != nil {
		stepState.UpdateProgress(5, "Loading warehouse tables")
	}

	counts, err := w.builder.Build(ctx)
	if err != nil {
		return err
	}

	var total int64
	for _, n := range counts {
		total += n
	}
	if stepState != nil {
		stepState.SetMetadata("rows", total)
		stepState.SetMetadata("tables", counts)
		stepState.UpdateProgress(100, fmt.Sprintf("%d rows loaded in %d tables", total, len(counts)))
	}
	state.SetContext(ContextKeyWarehouseFile, w.paths.WarehouseFile)
	w.logger.InfoContext(ctx, "warehouse_built",
		slog.String("operation_id", state.ID),
		slog.String("file", w.paths.WarehouseFile),
		slog.Int64("rows", total))
	return nil
}

// RequiredInputs returns the gold file and the cleaned DVF extracts
func (w *WarehouseStage) RequiredInputs() []DataRequirement {
	return []DataRequirement{
		{Type: DataTypeGold, Location: w.paths.GoldDir, Pattern: filepath.Base(w.paths.GoldFile), MinCount: 1},
		{Type: DataTypeDVFSilver, Location: w.paths.SilverDir, Pattern: etl.DVFSilverPattern(config.CleanSuffix), MinCount: 1},
	}
}

// ProducedOutputs returns the database file
func (w *WarehouseStage) ProducedOutputs() []DataOutput {
	return []DataOutput{
		{Type: DataTypeWarehouse, Location: filepath.Dir(w.paths.WarehouseFile), Pattern: filepath.Base(w.paths.WarehouseFile)},
	}
}

// PublishStage uploads the gold file and, when present, the warehouse
type PublishStage struct {
	BaseStage
	publisher Publisher
	paths     *config.Paths
	logger    *slog.Logger
}

// NewPublishStage creates the publish step. It runs after deps.
func NewPublishStage(publisher Publisher, paths *config.Paths, logger *slog.Logger, deps ...string) *PublishStage {
	if logger == nil {
		logger = slog.Default()
	}
	if len(deps) == 0 {
		deps = []string{StepIDGold}
	}
	return &PublishStage{
		BaseStage: NewBaseStage(StepIDPublish, StepNamePublish, deps),
		publisher: publisher,
		paths:     paths,
		logger:    logger.With(slog.String("step", StepIDPublish)),
	}
}

// Validate checks that a publisher is configured
func (s *PublishStage) Validate(state *OperationState) error {
	if s.publisher == nil {
		return fmt.Errorf("publish step has no publisher")
	}
	return nil
}

// Execute uploads the artifacts. Upload failures are retried.
func (s *PublishStage) Execute(ctx context.Context, state *OperationState) error {
	files := []string{s.paths.GoldFile}
	if st, err := os.Stat(s.paths.WarehouseFile); err == nil && !st.IsDir() {
		files = append(files, s.paths.WarehouseFile)
	}

	keys, err := s.publisher.Publish(ctx, files)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		return NewExecutionError(s.ID(), err, true)
	}

	if stepState := state.GetStage(s.ID()); stepState != nil {
		stepState.SetMetadata("objects", keys)
		stepState.UpdateProgress(100, fmt.Sprintf("%d object(s) published", len(keys)))
	}
	state.SetContext(ContextKeyPublished, keys)
	s.logger.InfoContext(ctx, "artifacts_published",
		slog.String("operation_id", state.ID),
		slog.Any("objects", keys))
	return nil
}

// RequiredInputs returns the gold file
func (s *PublishStage) RequiredInputs() []DataRequirement {
	return []DataRequirement{
		{Type: DataTypeGold, Location: s.paths.GoldDir, Pattern: filepath.Base(s.paths.GoldFile), MinCount: 1},
	}
}

// StageFactory creates the pipeline steps in registration order
func StageFactory(opts StageOptions, logger *slog.Logger) []Step {
	p := opts.Processor
	steps := []Step{
		NewDVFCleanStage(p, logger),
		NewTransitStage(p, logger),
		NewAirQualityStage(p, logger),
		NewCommuneStatsStage(p, logger),
		NewDemographicsStage(p, logger),
		NewSocialHousingStage(p, logger),
		NewGoldStage(p, logger),
		NewAirGoldStage(p, logger),
		NewTransactionsStage(p, logger),
	}

	publishDeps := []string{StepIDGold}
	if opts.Warehouse != nil {
		steps = append(steps, NewWarehouseStage(opts.Warehouse, p.Paths(), logger))
		publishDeps = append(publishDeps, StepIDWarehouse)
	}
	if opts.Publisher != nil {
		steps = append(steps, NewPublishStage(opts.Publisher, p.Paths(), logger, publishDeps...))
	}
	return steps
}

// RegisterStages registers every step of StageFactory
func RegisterStages(registry *Registry, opts StageOptions, logger *slog.Logger) error {
	for _, step := range StageFactory(opts, logger) {
		if err := registry.Register(step); err != nil {
			return err
		}
	}
	return registry.ValidateDependencies()
}
