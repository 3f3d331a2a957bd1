package syncer

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/vitebski/mysql-schema-sync/internal/connector"
	"github.com/vitebski/mysql-schema-sync/internal/differ"
	"github.com/vitebski/mysql-schema-sync/internal/generator"
	"github.com/vitebski/mysql-schema-sync/internal/introspector"
	"github.com/vitebski/mysql-schema-sync/internal/parser"
	"github.com/vitebski/mysql-schema-sync/internal/planner"
	"github.com/vitebski/mysql-schema-sync/pkg/models"
)

// StatementEvent reports the outcome of one applied statement
type StatementEvent struct {
	Statement string
	Err       error
}

// EventFunc receives a StatementEvent after each statement is applied
type EventFunc func(StatementEvent)

// Syncer drives the full pipeline: parse the target schema, introspect
// the live database, diff, plan and optionally apply.
type Syncer struct {
	DB            *connector.DatabaseConnector
	Parser        *parser.Parser
	Introspector  *introspector.Introspector
	Differ        *differ.Differ
	Planner       *planner.Planner
	Logger        *logrus.Logger
	AppliedEvents EventFunc
}

// NewSyncer wires the pipeline components together
func NewSyncer(db *connector.DatabaseConnector, diffOpts differ.Options, allowColumnDrops bool, logger *logrus.Logger) *Syncer {
	gen := generator.NewGenerator(allowColumnDrops, logger)
	return &Syncer{
		DB:           db,
		Parser:       parser.New(logger),
		Introspector: introspector.NewIntrospector(db, logger),
		Differ:       differ.NewDiffer(diffOpts, logger),
		Planner:      planner.NewPlanner(gen, logger),
		Logger:       logger,
	}
}

// PlanResult is what the pipeline produces for the host: the ordered
// statements and the fast-path signal.
type PlanResult struct {
	Statements []string
	NoChanges  bool
}

// PlanFromFile computes the migration plan that brings the connected
// database to the schema described by the given DDL file
func (s *Syncer) PlanFromFile(ctx context.Context, schemaFile string) (*PlanResult, error) {
	data, err := os.ReadFile(schemaFile)
	if err != nil {
		return nil, models.WrapError(models.ConfigError, err, "read schema file %s", schemaFile)
	}
	return s.PlanFromDDL(ctx, string(data))
}

// PlanFromDDL computes the migration plan for the given target DDL text
func (s *Syncer) PlanFromDDL(ctx context.Context, ddl string) (*PlanResult, error) {
	desired, err := s.Parser.Parse(ddl)
	if err != nil {
		return nil, err
	}

	current, err := s.Introspector.IntrospectSchema(ctx)
	if err != nil {
		return nil, err
	}

	return s.PlanSchemas(current, desired), nil
}

// PlanSchemas diffs two already-built schemas and renders the plan.
// When the normalized renderings are byte-equal the differ does not
// run at all.
func (s *Syncer) PlanSchemas(current, desired *models.Schema) *PlanResult {
	if s.Planner.FastPath(current, desired) {
		s.Logger.Info("Schemas are identical, nothing to do")
		return &PlanResult{NoChanges: true}
	}

	delta := s.Differ.Diff(current, desired)
	if delta.Empty() {
		s.Logger.Info("No structural changes detected")
		return &PlanResult{NoChanges: true}
	}

	stmts := s.Planner.Plan(delta, desired)
	if len(stmts) == 0 {
		// every change was gated away, e.g. drop-only deltas under safe defaults
		return &PlanResult{NoChanges: true}
	}
	return &PlanResult{Statements: stmts}
}

// Apply executes the plan statement by statement. The first failure
// aborts; previously applied statements stay committed. Cancellation
// is honored between statements.
func (s *Syncer) Apply(ctx context.Context, plan *PlanResult) error {
	for _, stmt := range plan.Statements {
		if err := ctx.Err(); err != nil {
			return models.WrapError(models.ExecutionError, err, "aborted")
		}

		s.Logger.Infof("Applying: %s", stmt)
		_, err := s.DB.ExecuteStatement(ctx, stmt)
		s.emit(StatementEvent{Statement: stmt, Err: err})
		if err != nil {
			serr := models.WrapError(models.ExecutionError, err, "statement failed")
			serr.Statement = stmt
			return serr
		}
	}

	s.Logger.Infof("Applied %d statement(s)", len(plan.Statements))
	return nil
}

func (s *Syncer) emit(event StatementEvent) {
	if s.AppliedEvents != nil {
		s.AppliedEvents(event)
	}
}
