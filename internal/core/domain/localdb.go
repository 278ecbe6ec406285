package domain

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/enunezf/zartdeploy/internal/errors"
)

const (
	// DefaultDatabase is used when no database name is given.
	DefaultDatabase = "master"
	// DefaultInstance is the automatic LocalDB instance created by SQL Server Express.
	DefaultInstance = "MSSQLLocalDB"
)

// systemDatabases are never created or dropped.
var systemDatabases = map[string]struct{}{
	"master": {},
	"model":  {},
	"tempdb": {},
	"msdb":   {},
}

// IsSystemDatabase reports whether name is a SQL Server system database, ignoring case.
func IsSystemDatabase(name string) bool {
	_, ok := systemDatabases[strings.ToLower(name)]
	return ok
}

// Action selects what the localdb command does.
type Action string

const (
	ActionURL        Action = "url"
	ActionCreate     Action = "create"
	ActionFullCreate Action = "full-create"
	ActionOnlyCreate Action = "only-create"
	ActionDrop       Action = "drop"
	ActionFullDrop   Action = "full-drop"
	ActionInfo       Action = "info"
	ActionPing       Action = "ping"
)

// Actions lists every accepted action in help order.
func Actions() []Action {
	return []Action{
		ActionURL,
		ActionCreate,
		ActionFullCreate,
		ActionOnlyCreate,
		ActionDrop,
		ActionFullDrop,
		ActionInfo,
		ActionPing,
	}
}

// ParseAction converts a command-line value into an Action
func ParseAction(s string) (Action, error) {
	for _, a := range Actions() {
		if string(a) == s {
			return a, nil
		}
	}
	return "", errors.New(errors.InvalidArgument,
		fmt.Sprintf("invalid action %q (choose from %s)", s, strings.Join(actionNames(), ", ")))
}

func actionNames() []string {
	names := make([]string, 0, len(Actions()))
	for _, a := range Actions() {
		names = append(names, string(a))
	}
	return names
}

// DropsDatabase reports whether the action drops the database and its files first.
func (a Action) DropsDatabase() bool {
	switch a {
	case ActionCreate, ActionFullCreate, ActionDrop, ActionFullDrop:
		return true
	}
	return false
}

// ResetsInstance reports whether the action stops and deletes the whole instance.
func (a Action) ResetsInstance() bool {
	return a == ActionFullCreate || a == ActionFullDrop
}

// CreatesInstance reports whether the action creates a new instance.
func (a Action) CreatesInstance() bool {
	return a == ActionFullCreate || a == ActionOnlyCreate
}

// CreatesDatabase reports whether the action ends by creating the database.
func (a Action) CreatesDatabase() bool {
	switch a {
	case ActionCreate, ActionFullCreate, ActionOnlyCreate:
		return true
	}
	return false
}

// LocalDBInput is the raw, unvalidated input of the localdb command.
type LocalDBInput struct {
	Action     string
	Database   string
	Instance   string
	Path       string
	SQLVersion string
}

// LocalDBOptions is the validated configuration of one localdb invocation.
// It is built once by NewLocalDBOptions and passed by value afterwards.
type LocalDBOptions struct {
	Action     Action
	Database   string
	Instance   string
	Path       string // absolute, ends with exactly one separator; empty when not given
	SQLVersion string
}

// NewLocalDBOptions validates the input, applies defaults and normalizes the storage path
func NewLocalDBOptions(in LocalDBInput) (LocalDBOptions, error) {
	action, err := ParseAction(in.Action)
	if err != nil {
		return LocalDBOptions{}, err
	}

	opts := LocalDBOptions{
		Action:     action,
		Database:   in.Database,
		Instance:   in.Instance,
		SQLVersion: in.SQLVersion,
	}
	if opts.Database == "" {
		opts.Database = DefaultDatabase
	}
	if opts.Instance == "" {
		opts.Instance = DefaultInstance
	}

	if opts.SQLVersion != "" {
		if _, err := ParseSQLVersion(opts.SQLVersion); err != nil {
			return LocalDBOptions{}, err
		}
	}

	if in.Path != "" {
		opts.Path, err = NormalizePath(in.Path)
		if err != nil {
			return LocalDBOptions{}, errors.Wrap(errors.InvalidArgument, "invalid path "+in.Path, err)
		}
	}

	return opts, nil
}

// NormalizePath makes p absolute and guarantees a single trailing separator,
// so the result can be used as a plain file name prefix.
func NormalizePath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	abs = strings.TrimRight(abs, string(os.PathSeparator))
	return abs + string(os.PathSeparator), nil
}

// IsSystemDatabase reports whether the target database is a system database.
func (o LocalDBOptions) IsSystemDatabase() bool {
	return IsSystemDatabase(o.Database)
}

// ServerName returns the server string accepted by sqlcmd -S.
func (o LocalDBOptions) ServerName() string {
	return `(localdb)\` + o.Instance
}

// URL returns a SQLAlchemy-style connection URL. Whitespace and unicode are not escaped.
func (o LocalDBOptions) URL() string {
	return fmt.Sprintf("mssql://%s/%s", o.ServerName(), o.Database)
}

// TemplateParams returns the substitution parameters for the SQL templates.
func (o LocalDBOptions) TemplateParams() map[string]string {
	return map[string]string{
		"database": o.Database,
		"instance": o.Instance,
		"path":     o.Path,
		"version":  o.SQLVersion,
	}
}

// DataFiles returns the data and log file paths of the database.
//
// With an explicit path the files are the ones CREATE_DATABASE_ON creates. Without
// one, SQL Server's default data directory for LocalDB is guessed to be the user
// profile, where the log file carries a "_log" suffix.
func (o LocalDBOptions) DataFiles(home string) (mdf, ldf string) {
	if o.Path != "" {
		return o.Path + o.Database + ".mdf", o.Path + o.Database + ".ldf"
	}
	return filepath.Join(home, o.Database+".mdf"), filepath.Join(home, o.Database+"_log.ldf")
}
