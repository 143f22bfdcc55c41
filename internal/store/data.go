package store

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DataStore executes the dynamic table access behind DATABASE tools. Table and
// column names come from tool configuration, not user input, but they are still
// validated against a strict identifier pattern before being interpolated;
// every value goes through a bind parameter.
type DataStore struct {
	db *pgxpool.Pool
}

func NewDataStore(db *pgxpool.Pool) *DataStore {
	return &DataStore{db: db}
}

var identPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func validIdent(names ...string) error {
	for _, n := range names {
		if !identPattern.MatchString(n) {
			return fmt.Errorf("invalid identifier %q", n)
		}
	}
	return nil
}

func (s *DataStore) Search(ctx context.Context, table string, searchFields, returnFields []string, term string, limit int) ([]map[string]any, error) {
	if err := validIdent(table); err != nil {
		return nil, err
	}
	if err := validIdent(searchFields...); err != nil {
		return nil, err
	}
	if err := validIdent(returnFields...); err != nil {
		return nil, err
	}
	if len(searchFields) == 0 || len(returnFields) == 0 {
		return nil, fmt.Errorf("search on %s requires search and return fields", table)
	}
	if limit <= 0 {
		limit = 10
	}

	conditions := make([]string, len(searchFields))
	for i, f := range searchFields {
		conditions[i] = fmt.Sprintf("%s::text ILIKE $1", f)
	}

	sql := fmt.Sprintf(
		`SELECT %s FROM %s WHERE %s LIMIT %d`,
		strings.Join(returnFields, ", "), table, strings.Join(conditions, " OR "), limit,
	)

	rows, err := s.db.Query(ctx, sql, "%"+term+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []map[string]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		record := make(map[string]any, len(returnFields))
		for i, f := range returnFields {
			record[f] = values[i]
		}
		results = append(results, record)
	}
	return results, rows.Err()
}

func (s *DataStore) Insert(ctx context.Context, table string, values map[string]string) error {
	if err := validIdent(table); err != nil {
		return err
	}

	columns := make([]string, 0, len(values))
	placeholders := make([]string, 0, len(values))
	args := make([]any, 0, len(values))
	for col, val := range values {
		if err := validIdent(col); err != nil {
			return err
		}
		columns = append(columns, col)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)+1))
		args = append(args, val)
	}

	sql := fmt.Sprintf(
		`INSERT INTO %s (%s) VALUES (%s)`,
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "),
	)
	_, err := s.db.Exec(ctx, sql, args...)
	return err
}

func (s *DataStore) Update(ctx context.Context, table, keyField, keyValue string, values map[string]string) (int64, error) {
	if err := validIdent(table, keyField); err != nil {
		return 0, err
	}

	assignments := make([]string, 0, len(values))
	args := []any{keyValue}
	for col, val := range values {
		if err := validIdent(col); err != nil {
			return 0, err
		}
		assignments = append(assignments, fmt.Sprintf("%s = $%d", col, len(args)+1))
		args = append(args, val)
	}
	if len(assignments) == 0 {
		return 0, fmt.Errorf("update on %s has no fields to set", table)
	}

	sql := fmt.Sprintf(
		`UPDATE %s SET %s WHERE %s::text = $1`,
		table, strings.Join(assignments, ", "), keyField,
	)
	tag, err := s.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
