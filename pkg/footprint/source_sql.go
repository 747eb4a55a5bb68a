package footprint

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/Mindburn-Labs/pact-conformance/pkg/pact"
)

// Dialect selects placeholder syntax.
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

const selectSeedSQLite = `SELECT document FROM footprints WHERE revision = ? ORDER BY position, id`
const selectSeedPostgres = `SELECT document FROM footprints WHERE revision = $1 ORDER BY position, id`

// SQLSource reads seed records from a footprints table:
//
//	footprints(id TEXT, revision TEXT, position INTEGER, document TEXT)
type SQLSource struct {
	DB       *sql.DB
	Revision pact.Revision
	Dialect  Dialect
}

func (s *SQLSource) Records(ctx context.Context) ([]json.RawMessage, error) {
	q := selectSeedSQLite
	if s.Dialect == DialectPostgres {
		q = selectSeedPostgres
	}

	rows, err := s.DB.QueryContext(ctx, q, string(s.Revision))
	if err != nil {
		return nil, fmt.Errorf("query seed table: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []json.RawMessage
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan seed row: %w", err)
		}
		out = append(out, json.RawMessage(doc))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate seed rows: %w", err)
	}
	return out, nil
}

// Close releases the database handle.
func (s *SQLSource) Close() error {
	return s.DB.Close()
}
