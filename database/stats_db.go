package database

import (
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// NameCount is one aggregate row for the dashboard charts.
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func runCountQuery(db *sql.DB, builder sq.SelectBuilder, what string) ([]NameCount, error) {
	sqlStr, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL query for %s counts: %w", what, err)
	}

	rows, err := db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s counts: %w", what, err)
	}
	defer rows.Close()

	var out []NameCount
	for rows.Next() {
		var nc NameCount
		if err := rows.Scan(&nc.Name, &nc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan %s count row: %w", what, err)
		}
		out = append(out, nc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading %s count rows: %w", what, err)
	}
	return out, nil
}

// CountByCamera returns photo counts per camera model.
func CountByCamera(db *sql.DB) ([]NameCount, error) {
	qb := psql.Select("camera", "COUNT(*)").
		From("image_data").
		GroupBy("camera").
		OrderBy("camera ASC")
	return runCountQuery(db, qb, "camera")
}

// CountByLens returns photo counts per lens model.
func CountByLens(db *sql.DB) ([]NameCount, error) {
	qb := psql.Select("COALESCE(lens, 'No Lens')", "COUNT(*)").
		From("image_data").
		GroupBy("COALESCE(lens, 'No Lens')").
		OrderBy("2 DESC")
	return runCountQuery(db, qb, "lens")
}

// CountByFocalLength returns photo counts per (rounded) focal length.
func CountByFocalLength(db *sql.DB) ([]NameCount, error) {
	qb := psql.Select("CAST(focal_length AS INTEGER)", "COUNT(*)").
		From("image_data").
		GroupBy("CAST(focal_length AS INTEGER)").
		OrderBy("CAST(focal_length AS INTEGER) ASC")
	return runCountQuery(db, qb, "focal length")
}

// CountByDate returns photo counts per calendar date.
func CountByDate(db *sql.DB) ([]NameCount, error) {
	qb := psql.Select("date", "COUNT(*)").
		From("image_data").
		GroupBy("date").
		OrderBy("date ASC")
	return runCountQuery(db, qb, "date")
}

// CountByKeyword returns photo counts per sidecar keyword.
func CountByKeyword(db *sql.DB) ([]NameCount, error) {
	qb := psql.Select("k.keyword", "COUNT(*)").
		From("manual_tagged_images m").
		Join("keywords k ON k.id = m.keyword_id").
		GroupBy("k.keyword").
		OrderBy("k.keyword ASC")
	return runCountQuery(db, qb, "keyword")
}
