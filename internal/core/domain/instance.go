package domain

import (
	"bufio"
	"strings"

	"github.com/blang/semver/v4"
)

// InstanceInfo is the parsed output of `sqllocaldb info <instance>`.
type InstanceInfo struct {
	Name          string
	Version       string
	SharedName    string
	Owner         string
	AutoCreate    bool
	State         string
	LastStartTime string
	PipeName      string
}

// Running reports whether the instance is started.
func (i InstanceInfo) Running() bool {
	return strings.EqualFold(i.State, "Running")
}

// SemVer returns the instance version as semver, if it parses.
func (i InstanceInfo) SemVer() (semver.Version, bool) {
	if i.Version == "" {
		return semver.Version{}, false
	}
	v, err := ParseSQLVersion(i.Version)
	if err != nil {
		return semver.Version{}, false
	}
	return v, true
}

// ParseInstanceInfo reads "Key: value" lines as printed by sqllocaldb info.
// Unknown keys are ignored.
func ParseInstanceInfo(out string) InstanceInfo {
	var info InstanceInfo
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		key, value, ok := strings.Cut(sc.Text(), ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		switch strings.ToLower(strings.TrimSpace(key)) {
		case "name":
			info.Name = value
		case "version":
			info.Version = value
		case "shared name":
			info.SharedName = value
		case "owner":
			info.Owner = value
		case "auto-create":
			info.AutoCreate = strings.EqualFold(value, "yes")
		case "state":
			info.State = value
		case "last start time":
			info.LastStartTime = value
		case "instance pipe name":
			info.PipeName = value
		}
	}
	return info
}
