// Package sqlserver provides the SQL Server database adapter implementation.
package sqlserver

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/microsoft/go-mssqldb" // SQL Server driver

	"github.com/enunezf/zartdeploy/internal/core/domain"
	"github.com/enunezf/zartdeploy/internal/core/ports"
)

// Adapter implements the DatabasePort interface for SQL Server
type Adapter struct {
	config *domain.ConnectionConfig
	db     *sql.DB
}

// NewAdapter creates a new SQL Server adapter
func NewAdapter(config *domain.ConnectionConfig) *Adapter {
	return &Adapter{config: config}
}

// NewPort returns the adapter as a ports.DatabasePort, for services.ConnectFunc
func NewPort(config *domain.ConnectionConfig) ports.DatabasePort {
	return NewAdapter(config)
}

// Connect establishes a connection to SQL Server
func (a *Adapter) Connect(ctx context.Context) error {
	if err := a.config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	db, err := sql.Open("sqlserver", a.config.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to open connection: %w", err)
	}

	// One diagnostic connection is all we need
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	// Verify the connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	a.db = db
	return nil
}

// Close closes the database connection
func (a *Adapter) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// GetServerInfo retrieves information about the connected SQL Server
func (a *Adapter) GetServerInfo(ctx context.Context) (*domain.ServerInfo, error) {
	if a.db == nil {
		return nil, fmt.Errorf("not connected")
	}

	info := &domain.ServerInfo{}

	// Get server version and edition
	query := `
		SELECT
			@@VERSION as Version,
			CAST(SERVERPROPERTY('Edition') AS nvarchar(128)) as Edition,
			CAST(SERVERPROPERTY('ProductVersion') AS nvarchar(128)) as ProductVersion,
			@@SERVERNAME as ServerName
	`

	row := a.db.QueryRowContext(ctx, query)
	err := row.Scan(&info.Version, &info.Edition, &info.ProductName, &info.ServerName)
	if err != nil {
		return nil, fmt.Errorf("failed to get server info: %w", err)
	}

	return info, nil
}
