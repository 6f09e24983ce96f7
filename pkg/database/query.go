package database

import (
	"context"
	"fmt"
)

// QueryRows executes a SQL statement under the given caller role's pool and
// returns the result rows as column-keyed maps, in result order. At most
// limit rows are collected when limit > 0; the statement itself is executed
// verbatim.
func (r *Resolver) QueryRows(ctx context.Context, role, sqlQuery string, limit int) ([]map[string]any, error) {
	pool, err := r.Pool(ctx, role)
	if err != nil {
		return nil, err
	}

	rows, err := pool.Query(ctx, sqlQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	columns := make([]string, len(fieldDescs))
	for i, fd := range fieldDescs {
		columns[i] = string(fd.Name)
	}

	resultRows := make([]map[string]any, 0)
	for rows.Next() {
		if limit > 0 && len(resultRows) >= limit {
			break
		}

		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row values: %w", err)
		}

		rowMap := make(map[string]any, len(columns))
		for i, col := range columns {
			rowMap[col] = values[i]
		}
		resultRows = append(resultRows, rowMap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return resultRows, nil
}

// ExecuteStatement runs an arbitrary statement under the given role with
// optional positional parameters, returning any result rows. Used by the
// raw SQL endpoint; write permission is decided by the role's database
// grants, not here.
func (r *Resolver) ExecuteStatement(ctx context.Context, role, sqlStatement string, params []any, limit int) ([]map[string]any, error) {
	pool, err := r.Pool(ctx, role)
	if err != nil {
		return nil, err
	}

	rows, err := pool.Query(ctx, sqlStatement, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute statement: %w", err)
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	columns := make([]string, len(fieldDescs))
	for i, fd := range fieldDescs {
		columns[i] = string(fd.Name)
	}

	resultRows := make([]map[string]any, 0)
	for rows.Next() {
		if limit > 0 && len(resultRows) >= limit {
			break
		}

		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row values: %w", err)
		}

		rowMap := make(map[string]any, len(columns))
		for i, col := range columns {
			rowMap[col] = values[i]
		}
		resultRows = append(resultRows, rowMap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during execution: %w", err)
	}

	return resultRows, nil
}
