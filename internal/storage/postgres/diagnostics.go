package postgres

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"

	"github.com/gravadigital/afisha-api/internal/logger"
)

// Diagnostics reads runtime health statistics from the live database.
// It backs the administrative diagnostics endpoint and is only
// available on the PostgreSQL backend.
type Diagnostics struct {
	db  *gorm.DB
	log *log.Logger
}

// NewDiagnostics creates a new diagnostics reader
func NewDiagnostics(db *gorm.DB) *Diagnostics {
	return &Diagnostics{
		db:  db,
		log: logger.Repository("diagnostics"),
	}
}

// TableStats represents table statistics
type TableStats struct {
	TableName    string     `json:"table_name"`
	RowCount     int64      `json:"row_count"`
	TableSize    string     `json:"table_size"`
	IndexSize    string     `json:"index_size"`
	LastAnalyzed *time.Time `json:"last_analyzed"`
}

// IndexUsage represents index usage statistics
type IndexUsage struct {
	TableName string `json:"table_name"`
	IndexName string `json:"index_name"`
	Scans     int64  `json:"scans"`
}

// ConnectionStats represents connection pool statistics
type ConnectionStats struct {
	Open      int   `json:"open"`
	InUse     int   `json:"in_use"`
	Idle      int   `json:"idle"`
	WaitCount int64 `json:"wait_count"`
}

// Report bundles the diagnostics of one inspection pass.
type Report struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Connections ConnectionStats `json:"connections"`
	Tables      []TableStats    `json:"tables"`
	Indexes     []IndexUsage    `json:"indexes"`
}

// Collect inspects the database. Statistics that cannot be read are
// logged and omitted rather than failing the report.
func (d *Diagnostics) Collect(ctx context.Context) (*Report, error) {
	report := &Report{GeneratedAt: time.Now()}

	if stats, err := d.connectionStats(); err != nil {
		d.log.Warn("Failed to read connection stats", "error", err)
	} else {
		report.Connections = stats
	}

	if tables, err := d.tableStats(ctx); err != nil {
		d.log.Warn("Failed to read table stats", "error", err)
	} else {
		report.Tables = tables
	}

	if indexes, err := d.indexUsage(ctx); err != nil {
		d.log.Warn("Failed to read index usage", "error", err)
	} else {
		report.Indexes = indexes
	}

	return report, nil
}

func (d *Diagnostics) connectionStats() (ConnectionStats, error) {
	sqlDB, err := d.db.DB()
	if err != nil {
		return ConnectionStats{}, err
	}

	stats := sqlDB.Stats()
	return ConnectionStats{
		Open:      stats.OpenConnections,
		InUse:     stats.InUse,
		Idle:      stats.Idle,
		WaitCount: stats.WaitCount,
	}, nil
}

func (d *Diagnostics) tableStats(ctx context.Context) ([]TableStats, error) {
	var tables []TableStats

	err := d.db.WithContext(ctx).Raw(`
        SELECT
            relname AS table_name,
            n_live_tup AS row_count,
            pg_size_pretty(pg_table_size(relid)) AS table_size,
            pg_size_pretty(pg_indexes_size(relid)) AS index_size,
            last_analyze AS last_analyzed
        FROM pg_stat_user_tables
        WHERE relname IN ('events', 'participation_requests', 'users', 'categories')
        ORDER BY relname
    `).Scan(&tables).Error
	if err != nil {
		return nil, err
	}

	return tables, nil
}

func (d *Diagnostics) indexUsage(ctx context.Context) ([]IndexUsage, error) {
	var indexes []IndexUsage

	err := d.db.WithContext(ctx).Raw(`
        SELECT
            relname AS table_name,
            indexrelname AS index_name,
            idx_scan AS scans
        FROM pg_stat_user_indexes
        WHERE relname IN ('events', 'participation_requests', 'users', 'categories')
        ORDER BY relname, indexrelname
    `).Scan(&indexes).Error
	if err != nil {
		return nil, err
	}

	return indexes, nil
}
