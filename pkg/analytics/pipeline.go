package analytics

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-fraudgraph/pkg/logging"
	"github.com/dd0wney/cluso-fraudgraph/pkg/metrics"
	"github.com/dd0wney/cluso-fraudgraph/pkg/store"
	"github.com/dd0wney/cluso-fraudgraph/pkg/validation"
)

// ErrPipelineBusy reports a run rejected because another run is in flight.
// The pipeline drops and recreates a projection under a fixed name, so two
// concurrent runs would race on drop/create.
var ErrPipelineBusy = errors.New("analytics pipeline already running")

// StageName identifies a pipeline stage in errors, logs and metrics
type StageName string

const (
	StageDrop             StageName = "drop"
	StageLoad             StageName = "load"
	StageCommunity        StageName = "community"
	StageWriteCommunities StageName = "write_communities"
	StagePageRank         StageName = "pagerank"
	StageWriteRanks       StageName = "write_ranks"
)

// StageError reports which pipeline stage failed. Any stage failure aborts
// the run; scores are valid only after a run that reported no error.
type StageError struct {
	Stage StageName
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Config tunes the analytics pipeline
type Config struct {
	ProjectionName string        `validate:"required"`
	MaxIterations  int           `validate:"min=1,max=1000"`
	DampingFactor  float64       `validate:"gt=0,lt=1"`
	Tolerance      float64       `validate:"gte=0"`
	WriteBatchSize int           `validate:"min=1,max=100000"`
	Timeout        time.Duration `validate:"min=0"`
}

// DefaultConfig returns the standard pipeline configuration
func DefaultConfig() Config {
	return Config{
		ProjectionName: "fraud_graph",
		MaxIterations:  20,
		DampingFactor:  0.85,
		Tolerance:      1e-6,
		WriteBatchSize: 1000,
		Timeout:        5 * time.Minute,
	}
}

const (
	loadAccountsQuery = `
MATCH (c:Client)
RETURN c.id AS id`

	loadTransfersQuery = `
MATCH (s:Client)-[t:TRANSACTED]->(r:Client)
RETURN s.id AS source, r.id AS target, t.amount AS amount`

	writeCommunitiesQuery = `
UNWIND $rows AS row
MATCH (c:Client {id: row.id})
SET c.communityId = row.communityId`

	writeRanksQuery = `
UNWIND $rows AS row
MATCH (c:Client {id: row.id})
SET c.rankScore = row.rankScore`
)

// Pipeline orchestrates a full analytics run: drop stale projection, project
// the transaction graph, detect communities, rank nodes, write both score
// sets back onto Client nodes. At most one run may be in flight.
type Pipeline struct {
	store    store.Store
	registry *Registry
	cfg      Config
	logger   logging.Logger
	metrics  *metrics.Registry
	running  atomic.Bool
}

// NewPipeline creates a pipeline with explicit dependencies
func NewPipeline(s store.Store, registry *Registry, cfg Config, logger logging.Logger, m *metrics.Registry) *Pipeline {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Pipeline{
		store:    s,
		registry: registry,
		cfg:      cfg,
		logger:   logger.With(logging.Component("pipeline")),
		metrics:  m,
	}
}

// Run executes the full pipeline for the named projection. An empty name
// uses the configured default. The run either completes all stages or
// returns a StageError naming the stage that failed; callers must treat
// scores as valid only after a nil return.
func (p *Pipeline) Run(ctx context.Context, projectionName string) error {
	if projectionName == "" {
		projectionName = p.cfg.ProjectionName
	}
	if err := validation.ValidateProjectionName(projectionName); err != nil {
		return err
	}

	if !p.running.CompareAndSwap(false, true) {
		p.metrics.RecordPipelineRun("busy", 0)
		return ErrPipelineBusy
	}
	defer p.running.Store(false)

	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	runID := uuid.NewString()
	log := p.logger.With(logging.RunID(runID), logging.Projection(projectionName))
	start := time.Now()
	log.Info("analytics pipeline starting")

	err := p.run(ctx, log, projectionName)
	if err != nil {
		p.metrics.RecordPipelineRun("failure", time.Since(start))
		log.Error("analytics pipeline failed", logging.Error(err), logging.Latency(time.Since(start)))
		return err
	}

	p.metrics.RecordPipelineRun("success", time.Since(start))
	log.Info("analytics pipeline complete", logging.Latency(time.Since(start)))
	return nil
}

func (p *Pipeline) run(ctx context.Context, log logging.Logger, projectionName string) error {
	// Stage 1: drop any stale projection under this name. A missing
	// projection is not an error.
	stageStart := time.Now()
	dropped := p.registry.Drop(projectionName)
	p.metrics.RecordPipelineStage(string(StageDrop), time.Since(stageStart))
	log.Debug("stale projection dropped", logging.Stage(string(StageDrop)), logging.Bool("existed", dropped))

	// Stage 2: project all accounts and transfers, retaining amount
	stageStart = time.Now()
	projection, err := p.project(ctx, projectionName)
	if err != nil {
		return &StageError{Stage: StageLoad, Err: err}
	}
	if err := p.registry.Register(projection); err != nil {
		return &StageError{Stage: StageLoad, Err: err}
	}
	p.metrics.RecordPipelineStage(string(StageLoad), time.Since(stageStart))
	p.metrics.SetProjectionSize(projection.NodeCount(), projection.EdgeCount())
	log.Info("projection created",
		logging.Stage(string(StageLoad)),
		logging.Int("nodes", projection.NodeCount()),
		logging.Int("edges", projection.EdgeCount()))

	// Stage 3: community detection
	stageStart = time.Now()
	communities, err := Louvain(projection, DefaultCommunityOptions())
	if err != nil {
		return &StageError{Stage: StageCommunity, Err: err}
	}
	p.metrics.RecordPipelineStage(string(StageCommunity), time.Since(stageStart))
	log.Info("community detection complete",
		logging.Stage(string(StageCommunity)),
		logging.Int("communities", communities.Count),
		logging.Float64("modularity", communities.Modularity))

	// Stage 4: write communityId back onto Client nodes
	stageStart = time.Now()
	if err := p.writeCommunities(ctx, projection, communities); err != nil {
		return &StageError{Stage: StageWriteCommunities, Err: err}
	}
	p.metrics.RecordPipelineStage(string(StageWriteCommunities), time.Since(stageStart))

	// Stage 5: centrality ranking. A non-converged result is still
	// written; this is a best-effort analytic.
	stageStart = time.Now()
	ranks, err := PageRank(projection, PageRankOptions{
		DampingFactor: p.cfg.DampingFactor,
		MaxIterations: p.cfg.MaxIterations,
		Tolerance:     p.cfg.Tolerance,
		Weighted:      true,
	})
	if err != nil {
		return &StageError{Stage: StagePageRank, Err: err}
	}
	p.metrics.RecordPipelineStage(string(StagePageRank), time.Since(stageStart))
	p.metrics.SetAnalyticsResults(communities.Count, ranks.Iterations)
	log.Info("centrality ranking complete",
		logging.Stage(string(StagePageRank)),
		logging.Int("iterations", ranks.Iterations),
		logging.Bool("converged", ranks.Converged))

	// Stage 6: write rankScore back onto Client nodes
	stageStart = time.Now()
	if err := p.writeRanks(ctx, projection, ranks); err != nil {
		return &StageError{Stage: StageWriteRanks, Err: err}
	}
	p.metrics.RecordPipelineStage(string(StageWriteRanks), time.Since(stageStart))

	return nil
}

// project loads the full transaction graph through parameterless read
// queries and freezes it into a named projection
func (p *Pipeline) project(ctx context.Context, name string) (*Projection, error) {
	builder := NewProjectionBuilder(name)

	accounts, err := p.store.Execute(ctx, loadAccountsQuery, nil)
	if err != nil {
		return nil, err
	}
	for _, rec := range accounts {
		id, ok := rec.String("id")
		if !ok {
			continue // accounts without ids cannot carry scores
		}
		builder.AddAccount(id)
	}

	transfers, err := p.store.Execute(ctx, loadTransfersQuery, nil)
	if err != nil {
		return nil, err
	}
	for _, rec := range transfers {
		source, okS := rec.String("source")
		target, okT := rec.String("target")
		if !okS || !okT {
			continue
		}
		amount, _ := rec.Float64("amount")
		builder.AddTransfer(source, target, amount)
	}

	return builder.Build(), nil
}

func (p *Pipeline) writeCommunities(ctx context.Context, projection *Projection, result *CommunityResult) error {
	rows := make([]map[string]any, projection.NodeCount())
	for i := 0; i < projection.NodeCount(); i++ {
		rows[i] = map[string]any{
			"id":          projection.AccountID(i),
			"communityId": result.Assignments[i],
		}
	}
	return p.writeBatched(ctx, writeCommunitiesQuery, rows)
}

func (p *Pipeline) writeRanks(ctx context.Context, projection *Projection, result *PageRankResult) error {
	rows := make([]map[string]any, projection.NodeCount())
	for i := 0; i < projection.NodeCount(); i++ {
		rows[i] = map[string]any{
			"id":        projection.AccountID(i),
			"rankScore": result.Scores[i],
		}
	}
	return p.writeBatched(ctx, writeRanksQuery, rows)
}

// writeBatched streams rows to the store in UNWIND batches so a large graph
// never rides in a single oversized statement
func (p *Pipeline) writeBatched(ctx context.Context, query string, rows []map[string]any) error {
	batchSize := p.cfg.WriteBatchSize
	if batchSize < 1 {
		batchSize = 1000
	}

	for offset := 0; offset < len(rows); offset += batchSize {
		end := offset + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		if _, err := p.store.ExecuteWrite(ctx, query, map[string]any{"rows": rows[offset:end]}); err != nil {
			return err
		}
	}
	return nil
}
