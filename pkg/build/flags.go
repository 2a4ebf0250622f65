// SPDX-License-Identifier: MIT
//
// Package build exposes the name, version, commit and build time embedded
// into the binary with linker flags:
//
//	go build -ldflags "-X player/pkg/build.buildName=player -X player/pkg/build.buildVersion=0.1.0 ..."
//
// Development builds without ldflags fall back to the module build info
// recorded by the Go toolchain.
package build

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// Info is the build metadata shown by --version and logged at startup.
type Info struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// String formats the version line.
func (i Info) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", i.Name, i.Version, i.Commit, i.Time)
}

const unknown = "unknown"

// Set by -ldflags.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
)

var (
	readBuildInfo = debug.ReadBuildInfo
	buildFlags    = defaultInfo()
)

func defaultInfo() *Info {
	return &Info{
		Name:        "player",
		Description: "Play an audio file with a live spectrum view",
		Time:        unknown,
		Commit:      unknown,
		Version:     unknown,
	}
}

// Initialize copies the ldflags values into the build info. Missing values
// are filled from the toolchain build info where possible and reported as
// a joined error; the returned info is usable either way.
func Initialize() error {
	info := defaultInfo()
	var errs []error

	set := func(dst *string, value, flag string) {
		if value == "" {
			errs = append(errs, fmt.Errorf("%s is required", flag))
			return
		}
		*dst = value
	}
	set(&info.Name, buildName, "BuildName")
	set(&info.Time, buildTime, "BuildTime")
	set(&info.Commit, buildCommit, "BuildCommit")
	set(&info.Version, buildVersion, "BuildVersion")

	if len(errs) > 0 {
		fillFromModule(info)
	}
	buildFlags = info
	return errors.Join(errs...)
}

func fillFromModule(info *Info) {
	bi, ok := readBuildInfo()
	if !ok {
		return
	}
	if info.Version == unknown && bi.Main.Version != "" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch {
		case s.Key == "vcs.revision" && info.Commit == unknown:
			info.Commit = s.Value
		case s.Key == "vcs.time" && info.Time == unknown:
			info.Time = s.Value
		}
	}
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() *Info {
	return buildFlags
}
