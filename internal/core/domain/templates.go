package domain

import (
	"fmt"
	"regexp"
	"strings"
)

var placeholder = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Template is a single-line SQL statement with {name} placeholders.
type Template struct {
	Name string
	text string
}

func newTemplate(name, text string) Template {
	return Template{Name: name, text: strings.Join(strings.Fields(text), " ")}
}

var (
	// CreateDatabase creates the database in the instance's default data directory.
	CreateDatabase = newTemplate("CREATE_DATABASE", `CREATE DATABASE [{database}]`)

	// CreateDatabaseOn creates the database with its files under {path}.
	CreateDatabaseOn = newTemplate("CREATE_DATABASE_ON", `
CREATE DATABASE [{database}]
ON (NAME='{database}dev', FILENAME='{path}{database}.mdf')
LOG ON (NAME='{database}log', FILENAME='{path}{database}.ldf')`)

	// DropDatabase drops the database only if it exists.
	DropDatabase = newTemplate("DROP_DATABASE", `
IF EXISTS (SELECT 1 FROM sys.databases WHERE [name] = N'{database}')
DROP DATABASE [{database}]`)
)

// Text returns the unformatted template.
func (t Template) Text() string {
	return t.text
}

// Format substitutes every placeholder with its value from params
func (t Template) Format(params map[string]string) (string, error) {
	var missing []string
	out := placeholder.ReplaceAllStringFunc(t.text, func(m string) string {
		name := m[1 : len(m)-1]
		v, ok := params[name]
		if !ok {
			missing = append(missing, name)
			return m
		}
		return v
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("template %s: missing parameter(s) %s", t.Name, strings.Join(missing, ", "))
	}
	return out, nil
}
