package store

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/dd0wney/cluso-fraudgraph/pkg/logging"
)

// Neo4jConfig holds connection settings for the backing Neo4j instance
type Neo4jConfig struct {
	URI      string
	Username string
	Password string
	Database string
}

// Neo4jStore implements Store over the official Neo4j Go driver.
// The driver owns a connection pool; each call opens a short-lived session
// and closes it via defer so no exit path can leak a session.
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
	logger   logging.Logger
}

// NewNeo4jStore creates a store handle. The handle is constructed once at
// process start and passed explicitly into every consumer.
func NewNeo4jStore(cfg Neo4jConfig, logger logging.Logger) (*Neo4jStore, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("%w: creating driver: %v", ErrStoreUnavailable, err)
	}

	database := cfg.Database
	if database == "" {
		database = "neo4j"
	}

	if logger == nil {
		logger = logging.NewNopLogger()
	}

	return &Neo4jStore{
		driver:   driver,
		database: database,
		logger:   logger.With(logging.Component("store")),
	}, nil
}

// Execute runs a read query and returns all matching records
func (s *Neo4jStore) Execute(ctx context.Context, query string, params map[string]any) ([]Record, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: s.database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}

		raw, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}

		records := make([]Record, 0, len(raw))
		for _, rec := range raw {
			row := make(Record, len(rec.Keys))
			for i, key := range rec.Keys {
				row[key] = rec.Values[i]
			}
			records = append(records, row)
		}
		return records, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return result.([]Record), nil
}

// ExecuteSingle runs a read query expected to match at most one record
func (s *Neo4jStore) ExecuteSingle(ctx context.Context, query string, params map[string]any) (Record, error) {
	records, err := s.Execute(ctx, query, params)
	if err != nil {
		return nil, err
	}

	switch len(records) {
	case 0:
		return nil, nil
	case 1:
		return records[0], nil
	default:
		s.logger.Error("single-record query matched multiple records",
			logging.Count(len(records)))
		return nil, fmt.Errorf("%w: got %d records", ErrAmbiguousResult, len(records))
	}
}

// ExecuteWrite runs a write statement in its own write transaction
func (s *Neo4jStore) ExecuteWrite(ctx context.Context, query string, params map[string]any) (Summary, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: s.database,
		AccessMode:   neo4j.AccessModeWrite,
	})
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}

		summary, err := res.Consume(ctx)
		if err != nil {
			return nil, err
		}

		return Summary{
			PropertiesSet: int64(summary.Counters().PropertiesSet()),
			NodesCreated:  int64(summary.Counters().NodesCreated()),
		}, nil
	})
	if err != nil {
		return Summary{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return result.(Summary), nil
}

// Ping verifies connectivity to the Neo4j instance
func (s *Neo4jStore) Ping(ctx context.Context) error {
	if err := s.driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Close releases the driver's connection pool
func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}
