// Package buildinfo contains build-time metadata separate from user configuration
package buildinfo

import (
	"runtime/debug"
)

// UnknownValue is reported for metadata that was not injected at build time
const UnknownValue = "unknown"

// Set with -ldflags "-X github.com/tphakala/imagecurator/internal/buildinfo.version=..."
var (
	version   string
	buildDate string
)

// BuildInfo provides access to build-time metadata.
type BuildInfo interface {
	// GetVersion returns the build version string
	GetVersion() string
	// GetBuildDate returns the build date string
	GetBuildDate() string
	// GetRevision returns the VCS revision the binary was built from
	GetRevision() string
}

// Context contains build-time metadata that is not user-configurable
type Context struct {
	Version   string
	BuildDate string
	Revision  string
}

// NewContext creates a Context from explicit values
func NewContext(version, buildDate, revision string) *Context {
	return &Context{Version: version, BuildDate: buildDate, Revision: revision}
}

// Current returns the metadata of the running binary. Version and build date
// come from linker flags; the revision falls back to the module build info.
func Current() *Context {
	ctx := NewContext(version, buildDate, "")
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ctx
	}
	if ctx.Version == "" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		ctx.Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			ctx.Revision = s.Value
		case "vcs.time":
			if ctx.BuildDate == "" {
				ctx.BuildDate = s.Value
			}
		}
	}
	return ctx
}

// GetVersion implements BuildInfo.GetVersion
func (c *Context) GetVersion() string {
	if c == nil || c.Version == "" {
		return UnknownValue
	}
	return c.Version
}

// GetBuildDate implements BuildInfo.GetBuildDate
func (c *Context) GetBuildDate() string {
	if c == nil || c.BuildDate == "" {
		return UnknownValue
	}
	return c.BuildDate
}

// GetRevision implements BuildInfo.GetRevision
func (c *Context) GetRevision() string {
	if c == nil || c.Revision == "" {
		return UnknownValue
	}
	return c.Revision
}
