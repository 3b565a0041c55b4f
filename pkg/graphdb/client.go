package graphdb

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/sbrg/gds/pkg/observability"
)

// Config holds Neo4j connection settings.
type Config struct {
	URI      string
	Username string
	Password string
	Database string
}

// Querier runs read queries. [Client] implements it; tests substitute
// canned records.
type Querier interface {
	Query(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error)
}

// Client is a Neo4j driver bound to one database.
type Client struct {
	driver   neo4j.DriverWithContext
	uri      string
	database string
}

// NewClient creates a driver and verifies connectivity.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("graphdb: %w", ErrNoURI)
	}
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("graphdb: create driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("graphdb: connect %s: %w", cfg.URI, err)
	}
	return &Client{driver: driver, uri: cfg.URI, database: cfg.Database}, nil
}

// Close releases the driver.
func (c *Client) Close(ctx context.Context) error {
	if c.driver == nil {
		return nil
	}
	return c.driver.Close(ctx)
}

// HealthCheck verifies the database is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.driver.VerifyConnectivity(ctx)
}

// Query runs a read query on the configured database and returns every
// record.
func (c *Client) Query(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	hooks := observability.Database()
	hooks.OnQuery(ctx, c.database, cypher)
	start := time.Now()

	opts := []neo4j.ExecuteQueryConfigurationOption{neo4j.ExecuteQueryWithReadersRouting()}
	if c.database != "" {
		opts = append(opts, neo4j.ExecuteQueryWithDatabase(c.database))
	}
	res, err := neo4j.ExecuteQuery(ctx, c.driver, cypher, params, neo4j.EagerResultTransformer, opts...)
	if err != nil {
		hooks.OnQueryComplete(ctx, c.database, 0, time.Since(start), err)
		return nil, fmt.Errorf("graphdb: query: %w", err)
	}
	hooks.OnQueryComplete(ctx, c.database, len(res.Records), time.Since(start), nil)
	return res.Records, nil
}

// Describe identifies the database for cache keys and logs.
func (c *Client) Describe() string {
	return fmt.Sprintf("neo4j:%s/%s", c.uri, c.database)
}
