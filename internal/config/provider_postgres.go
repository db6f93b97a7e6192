package config

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Querier is the subset of *pgxpool.Pool (and pgx.Tx) the Postgres layer
// needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// selectConfigSQL reads every key of one namespace from the app_config table:
//
//	CREATE TABLE app_config (
//	    namespace text NOT NULL,
//	    key       text NOT NULL,
//	    value     text NOT NULL,
//	    PRIMARY KEY (namespace, key)
//	);
const selectConfigSQL = `SELECT key, value FROM app_config WHERE namespace = $1`

// LoadPostgresSource snapshots the key/value rows of namespace into a
// MapSource. The table is read once; later changes are not observed.
func LoadPostgresSource(ctx context.Context, q Querier, namespace string) (MapSource, error) {
	rows, err := q.Query(ctx, selectConfigSQL, namespace)
	if err != nil {
		return nil, &ConfigError{
			Type:    ErrParsing,
			Message: fmt.Sprintf("failed to query app_config for namespace %q", namespace),
			Err:     err,
		}
	}
	defer rows.Close()

	out := make(MapSource)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, &ConfigError{
				Type:    ErrParsing,
				Message: "failed to scan app_config row",
				Err:     err,
			}
		}
		out[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, &ConfigError{
			Type:    ErrParsing,
			Message: "failed to iterate app_config rows",
			Err:     err,
		}
	}
	return out, nil
}
