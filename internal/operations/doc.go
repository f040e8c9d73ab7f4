// Package operations runs the medallion pipeline as a graph of steps.
//
// Steps declare their dependencies, the bronze or silver files they read and
// the files they write. The Manager resolves the dependency levels, checks
// inputs before each step and runs the steps sequentially or one level at a
// time with bounded concurrency.
//
// Core components:
//
//   - Manager: executes a run, applies per-step timeouts and retries
//   - Step: one unit of work; ProcessingStage wraps an etl.Processor method
//   - Registry: stores steps and computes their dependency levels
//   - PipelineManifest: records the files seen and produced by each step
//
// A missing optional input skips its step, a missing required input fails
// it. Only failures propagate to dependents.
//
// Example usage:
//
//	registry := operations.NewRegistry()
//	opts := operations.StageOptions{Processor: etl.NewProcessor(paths, logger)}
//	if err := operations.RegisterStages(registry, opts, logger); err != nil {
//		return err
//	}
//	manager := operations.NewManager(registry, operations.NewConfig(),
//		operations.WithLogger(logger))
//	resp, err := manager.Execute(ctx, operations.OperationRequest{})
package operations
