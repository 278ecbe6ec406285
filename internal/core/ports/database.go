// Package ports defines the interfaces (ports) for the hexagonal architecture.
package ports

import (
	"context"

	"github.com/enunezf/zartdeploy/internal/core/domain"
)

// DatabasePort defines the interface for driver-level database access
type DatabasePort interface {
	// Connect establishes a connection to the database
	Connect(ctx context.Context) error

	// Close closes the database connection
	Close() error

	// GetServerInfo retrieves information about the connected server
	GetServerInfo(ctx context.Context) (*domain.ServerInfo, error)
}
