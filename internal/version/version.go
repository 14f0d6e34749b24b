// Package version reports the build's VCS stamp.
package version

import (
	"fmt"
	"runtime/debug"
	"time"
)

// Tag is set with -ldflags "-X github.com/nhle/taskboard/internal/version.Tag=v1.2.3".
var Tag string

// Info is the VCS stamp read from the binary's build settings.
type Info struct {
	Tag      string
	Revision string
	BuildAt  time.Time
	Dirty    bool
}

// Read collects the build settings of the running binary.
func Read() Info {
	info := Info{Tag: Tag}

	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}

	for _, setting := range buildInfo.Settings {
		// https://pkg.go.dev/runtime/debug#BuildSetting
		switch setting.Key {
		case "vcs.revision":
			info.Revision = setting.Value
		case "vcs.time":
			if t, err := time.Parse(time.RFC3339, setting.Value); err == nil {
				info.BuildAt = t
			}
		case "vcs.modified":
			info.Dirty = setting.Value == "true"
		}
	}
	return info
}

// String formats the stamp, or "dev" for binaries built without VCS data.
func (i Info) String() string {
	if i.Revision == "" {
		if i.Tag != "" {
			return i.Tag
		}
		return "dev"
	}

	rev := i.Revision
	if len(rev) > 7 {
		rev = rev[:7]
	}

	s := rev
	if i.Tag != "" {
		s = fmt.Sprintf("%s %s", i.Tag, rev)
	}
	if !i.BuildAt.IsZero() {
		s = fmt.Sprintf("%s at %s", s, i.BuildAt.UTC().Format("2006-01-02 15:04:05"))
	}
	if i.Dirty {
		s += " dirty"
	}
	return s
}

// String returns the formatted stamp of the running binary.
func String() string {
	return Read().String()
}
