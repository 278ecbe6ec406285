package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/enunezf/zartdeploy/internal/core/domain"
)

var (
	bold  = color.New(color.Bold)
	green = color.New(color.FgGreen)
)

const rule = 60

// printInstanceInfo shows the details reported by sqllocaldb info
func printInstanceInfo(w io.Writer, info domain.InstanceInfo) {
	version := info.Version
	if v, ok := info.SemVer(); ok {
		version = fmt.Sprintf("%s (%s)", info.Version, v)
	}

	fmt.Fprintln(w, strings.Repeat("─", rule))
	fmt.Fprintf(w, "%s          %s\n", bold.Sprint("Name:"), info.Name)
	fmt.Fprintf(w, "%s       %s\n", bold.Sprint("Version:"), version)
	if info.SharedName != "" {
		fmt.Fprintf(w, "%s   %s\n", bold.Sprint("Shared name:"), info.SharedName)
	}
	fmt.Fprintf(w, "%s         %s\n", bold.Sprint("Owner:"), info.Owner)
	fmt.Fprintf(w, "%s   %t\n", bold.Sprint("Auto-create:"), info.AutoCreate)
	fmt.Fprintf(w, "%s         %s\n", bold.Sprint("State:"), info.State)
	if info.LastStartTime != "" {
		fmt.Fprintf(w, "%s    %s\n", bold.Sprint("Last start:"), info.LastStartTime)
	}
	if info.PipeName != "" {
		fmt.Fprintf(w, "%s          %s\n", bold.Sprint("Pipe:"), info.PipeName)
	}
	fmt.Fprintln(w, strings.Repeat("─", rule))
}

// printServerInfo shows the server properties read through the driver
func printServerInfo(w io.Writer, opts domain.LocalDBOptions, info *domain.ServerInfo) {
	green.Fprintf(w, "✓ Connected to %s\n", opts.URL())

	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("─", rule))
	fmt.Fprintf(w, "%s     %s\n", bold.Sprint("Server Name:"), info.ServerName)
	fmt.Fprintf(w, "%s         %s\n", bold.Sprint("Edition:"), info.Edition)
	fmt.Fprintf(w, "%s %s\n", bold.Sprint("Product Version:"), info.ProductName)
	fmt.Fprintln(w, strings.Repeat("─", rule))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s\n%s\n", bold.Sprint("Version Details:"), formatVersion(info.Version))
}

// formatVersion indents the multi-line @@VERSION string
func formatVersion(version string) string {
	lines := strings.Split(version, "\n")
	var formatted []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			formatted = append(formatted, "  "+line)
		}
	}
	return strings.Join(formatted, "\n")
}
