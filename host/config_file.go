package host

import (
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/sass-contrib/embedded-host-go/internal/errs"
)

// js mirrors dsort's package-level jsoniter config: fastest compatible
// settings, used only for the optional on-disk Config file, never on the
// compile hot path.
var js = jsoniter.ConfigFastest

// LoadConfig reads a Config from a JSON file on disk. Embedding
// applications that construct Config programmatically never need this;
// it exists for callers that prefer a config file alongside their binary.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.NewHostError("host: reading config file: " + err.Error())
	}
	var cfg Config
	if err := js.Unmarshal(b, &cfg); err != nil {
		return nil, errs.NewHostError("host: parsing config file: " + err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
