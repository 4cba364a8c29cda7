// Package catalog summarizes the contents of an archive with DuckDB.
package catalog

import (
	"context"
	"database/sql"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-archiver/internal/types"
	"github.com/rxtech-lab/argo-archiver/pkg/archive/layout"
	archiveErrors "github.com/rxtech-lab/argo-archiver/pkg/errors"
)

// Stats describes the archived days of one symbol/channel/interval.
type Stats struct {
	Symbol   string
	Channel  types.Channel
	Interval types.Interval

	Files    int
	FirstDay time.Time
	LastDay  time.Time
	// MissingDays lists the days between FirstDay and LastDay without a file.
	MissingDays []time.Time
	// EmptyDays lists the days whose file holds only the header.
	EmptyDays []time.Time

	Rows           int64
	FirstTimestamp string
	LastTimestamp  string
}

// Catalog runs queries over the day files of an archive.
type Catalog struct {
	db       *sql.DB
	root     string
	exchange string
}

// Open creates a catalog over the archive at root.
func Open(root, exchange string) (*Catalog, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, archiveErrors.Wrap(archiveErrors.ErrCodeMarketDataWriteFailed, "failed to open DuckDB connection", err)
	}

	return &Catalog{db: db, root: root, exchange: exchange}, nil
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

// Stats reads every day file of one combination. A combination without
// files yields zero Stats.
func (c *Catalog) Stats(ctx context.Context, symbol string, channel types.Channel, interval types.Interval) (Stats, error) {
	stats := Stats{Symbol: symbol, Channel: channel, Interval: interval}

	dir, err := layout.ChannelDir(c.root, c.exchange, symbol, channel, interval)
	if err != nil {
		return stats, err
	}

	pattern := filepath.Join(dir, "*", "*", "*"+layout.Extension)

	files, err := filepath.Glob(pattern)
	if err != nil {
		return stats, archiveErrors.Wrapf(archiveErrors.ErrCodeInvalidParameter, err, "bad pattern %s", pattern)
	}

	days := make(map[time.Time]string, len(files))
	for _, file := range files {
		day, err := time.Parse(time.DateOnly, strings.TrimSuffix(filepath.Base(file), layout.Extension))
		if err != nil {
			continue
		}

		days[day] = file
	}

	if len(days) == 0 {
		return stats, nil
	}

	sorted := make([]time.Time, 0, len(days))
	for day := range days {
		sorted = append(sorted, day)
	}

	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	stats.Files = len(sorted)
	stats.FirstDay = sorted[0]
	stats.LastDay = sorted[len(sorted)-1]

	for _, day := range types.DaysBetween(stats.FirstDay, stats.LastDay.AddDate(0, 0, 1)) {
		if _, ok := days[day]; !ok {
			stats.MissingDays = append(stats.MissingDays, day)
		}
	}

	rowsPerFile, err := c.countRows(ctx, pattern, &stats)
	if err != nil {
		return stats, err
	}

	for _, day := range sorted {
		if rowsPerFile[filepath.Clean(days[day])] == 0 {
			stats.EmptyDays = append(stats.EmptyDays, day)
		}
	}

	return stats, nil
}

// countRows fills the row totals of stats and returns the row count of each file with rows.
func (c *Catalog) countRows(ctx context.Context, pattern string, stats *Stats) (map[string]int64, error) {
	query := `
		SELECT filename, count(*), min("timestamp"), max("timestamp")
		FROM read_csv(` + quote(pattern) + `, header = true, all_varchar = true, union_by_name = true, filename = true)
		GROUP BY filename
	`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, archiveErrors.Wrapf(archiveErrors.ErrCodeMarketDataParseFailed, err, "failed to read %s", pattern)
	}
	defer rows.Close()

	perFile := make(map[string]int64)

	for rows.Next() {
		var (
			file        string
			count       int64
			first, last sql.NullString
		)

		if err := rows.Scan(&file, &count, &first, &last); err != nil {
			return nil, archiveErrors.Wrap(archiveErrors.ErrCodeMarketDataParseFailed, "failed to scan row counts", err)
		}

		perFile[filepath.Clean(file)] = count
		stats.Rows += count

		if first.Valid && (stats.FirstTimestamp == "" || first.String < stats.FirstTimestamp) {
			stats.FirstTimestamp = first.String
		}

		if last.Valid && last.String > stats.LastTimestamp {
			stats.LastTimestamp = last.String
		}
	}

	if err := rows.Err(); err != nil {
		return nil, archiveErrors.Wrap(archiveErrors.ErrCodeMarketDataParseFailed, "failed to read row counts", err)
	}

	return perFile, nil
}

// quote renders s as a SQL string literal.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
