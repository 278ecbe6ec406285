package domain

import (
	"fmt"
	"strings"

	"github.com/blang/semver/v4"

	"github.com/enunezf/zartdeploy/internal/errors"
)

// ParseSQLVersion parses a SQL Server version such as "13.0" or "15.0.4153.1".
// Only the first three components are significant; the build revision is dropped.
func ParseSQLVersion(s string) (semver.Version, error) {
	s = strings.TrimSpace(s)
	if s == "" || s[0] < '0' || s[0] > '9' {
		return semver.Version{}, errors.New(errors.InvalidArgument, fmt.Sprintf("invalid SQL Server version %q", s))
	}

	parts := strings.SplitN(s, ".", 4)
	if len(parts) > 3 {
		parts = parts[:3]
	}

	v, err := semver.ParseTolerant(strings.Join(parts, "."))
	if err != nil {
		return semver.Version{}, errors.Wrap(errors.InvalidArgument, fmt.Sprintf("invalid SQL Server version %q", s), err)
	}
	return v, nil
}
