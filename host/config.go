package host

import (
	"time"

	"github.com/sass-contrib/embedded-host-go/internal/cos"
	"github.com/sass-contrib/embedded-host-go/internal/errs"
)

// Config configures one Host instance. An embedding application builds one
// programmatically, or reads one from an optional JSON file with LoadConfig;
// Validate fills in defaults the same way the teacher's
// cmn.Config.validate() does.
type Config struct {
	// ExecPath is the absolute path to the compiler executable. Required.
	ExecPath string `json:"exec_path"`
	// Args are extra arguments passed to ExecPath.
	Args []string `json:"args,omitempty"`

	// LaunchTimeout bounds waiting for the version handshake after the
	// subprocess is started. Default 5s.
	LaunchTimeout time.Duration `json:"launch_timeout,omitempty"`
	// MaxConcurrentCallbacks bounds per-compilation callback workers.
	// Default 16.
	MaxConcurrentCallbacks int64 `json:"max_concurrent_callbacks,omitempty"`
	// CloseGracePeriod bounds how long Close waits for in-flight Compile
	// calls to return, and how long it waits for the subprocess to exit
	// after closing its stdin before sending SIGTERM (and again before
	// SIGKILL). Default 2s (spec §9 open question, resolved).
	CloseGracePeriod time.Duration `json:"close_grace_period,omitempty"`
}

const (
	defaultLaunchTimeout          = 5 * time.Second
	defaultMaxConcurrentCallbacks = int64(16)
	defaultCloseGracePeriod       = 2 * time.Second
)

// Validate checks required fields and fills in defaults for zero-valued
// optional ones, mirroring cmn.Config's validate-then-default pattern.
func (c *Config) Validate() error {
	if c.ExecPath == "" {
		return errs.NewHostError("host: Config.ExecPath is required")
	}
	c.LaunchTimeout = cos.NonZero(c.LaunchTimeout, defaultLaunchTimeout)
	c.MaxConcurrentCallbacks = cos.NonZero(c.MaxConcurrentCallbacks, defaultMaxConcurrentCallbacks)
	c.CloseGracePeriod = cos.NonZero(c.CloseGracePeriod, defaultCloseGracePeriod)
	return nil
}
