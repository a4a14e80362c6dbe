package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/benjaminschreck/go-wordfill/pkg/wordfill"
)

// LoadSQLite runs each query against the database at dsn and stores its rows
// under the query's name as a list of maps keyed by column name. The driver is
// modernc.org/sqlite unless built with the cgo_sqlite tag.
func LoadSQLite(ctx context.Context, dsn string, queries map[string]string) (wordfill.Data, error) {
	db, err := openDB(dsn)
	if err != nil {
		return nil, wordfill.NewDocumentError("open database", dsn, err)
	}
	defer db.Close()

	names := make([]string, 0, len(queries))
	for name := range queries {
		names = append(names, name)
	}
	sort.Strings(names)

	data := make(wordfill.Data, len(queries))
	for _, name := range names {
		list, err := queryList(ctx, db, queries[name])
		if err != nil {
			return nil, wordfill.WithContext(err, "load query", map[string]any{"query": name})
		}
		data[name] = list
	}
	return data, nil
}

func queryList(ctx context.Context, db *sql.DB, query string) (wordfill.List, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	list := wordfill.List{}
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		row := make(wordfill.Map, len(cols))
		for i, col := range cols {
			row[col] = columnValue(raw[i])
		}
		list = append(list, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return list, nil
}

func columnValue(v any) wordfill.Value {
	switch x := v.(type) {
	case []byte:
		return wordfill.StringValue(string(x))
	case time.Time:
		return wordfill.TimeValue(x)
	}
	return wordfill.FromAny(v)
}
