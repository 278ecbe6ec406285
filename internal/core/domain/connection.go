// Package domain contains the core domain models for zartdeploy.
package domain

import (
	"fmt"
	"strings"
)

// ConnectionConfig holds the configuration for a driver connection to a LocalDB instance
type ConnectionConfig struct {
	Pipe        string // Instance pipe name, e.g. np:\\.\pipe\LOCALDB#1A2B3C4D\tsql\query
	Database    string // Database name
	Encrypt     bool   // Encrypt connection (default false, LocalDB is local only)
	TrustServer bool   // Trust server certificate
	AppName     string // Application name for connection
}

// NewConnectionConfig creates a new connection config with defaults
func NewConnectionConfig() *ConnectionConfig {
	return &ConnectionConfig{
		Database:    DefaultDatabase,
		TrustServer: true,
		AppName:     "zartdeploy",
	}
}

// ConnectionString generates the ADO-style connection string understood by go-mssqldb.
// No user is set, so the driver falls back to integrated authentication.
func (c *ConnectionConfig) ConnectionString() string {
	parts := []string{
		"server=" + c.Pipe,
		"database=" + c.Database,
		"app name=" + c.AppName,
	}

	if c.Encrypt {
		parts = append(parts, "encrypt=true")
	} else {
		parts = append(parts, "encrypt=false")
	}

	if c.TrustServer {
		parts = append(parts, "TrustServerCertificate=true")
	}

	return strings.Join(parts, ";")
}

// Validate checks if the connection config is valid
func (c *ConnectionConfig) Validate() error {
	if c.Pipe == "" {
		return fmt.Errorf("instance pipe name is required (is the instance running?)")
	}

	if !strings.HasPrefix(c.Pipe, "np:") {
		return fmt.Errorf("instance pipe name must start with np:, got %q", c.Pipe)
	}

	if c.Database == "" {
		return fmt.Errorf("database is required")
	}

	return nil
}

// SafeString returns a short description of the connection target
func (c *ConnectionConfig) SafeString() string {
	return fmt.Sprintf("Server=%s; Database=%s; TrustedAuth=true", c.Pipe, c.Database)
}

// ServerInfo holds information about the connected server
type ServerInfo struct {
	Version     string // SQL Server version string
	Edition     string // SQL Server edition
	ProductName string // Product version
	ServerName  string // Server name
}
