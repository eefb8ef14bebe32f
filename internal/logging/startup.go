package logging

import (
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// StartupLogger collects function identity, configuration, resources, and
// feature flags, then emits a single structured zerolog event summarising
// the cold-start state. This makes it easy to understand exactly how an
// instance was configured when troubleshooting from the platform logs.
type StartupLogger struct {
	name         string
	initDuration time.Duration

	containers map[string]string
	endpoints  map[string]string
	features   map[string]bool
	config     map[string]string
}

// NewStartupLogger creates a StartupLogger for the given component name
// (e.g. "styler-func", "styler-cli").
func NewStartupLogger(name string) *StartupLogger {
	return &StartupLogger{
		name:       name,
		containers: make(map[string]string),
		endpoints:  make(map[string]string),
		features:   make(map[string]bool),
		config:     make(map[string]string),
	}
}

// Container registers a blob container used by this component.
func (s *StartupLogger) Container(label, name string) *StartupLogger {
	s.containers[label] = name
	return s
}

// Endpoint registers an external endpoint called by this component.
// Only the URL is logged, never credentials.
func (s *StartupLogger) Endpoint(label, url string) *StartupLogger {
	s.endpoints[label] = url
	return s
}

// Feature registers a boolean feature flag (e.g. "transform", "storage").
func (s *StartupLogger) Feature(name string, enabled bool) *StartupLogger {
	s.features[name] = enabled
	return s
}

// Config registers a non-sensitive configuration key-value pair.
func (s *StartupLogger) Config(key, value string) *StartupLogger {
	s.config[key] = value
	return s
}

// InitDuration records how long cold-start initialisation took.
func (s *StartupLogger) InitDuration(d time.Duration) *StartupLogger {
	s.initDuration = d
	return s
}

// EnvOrDefault returns the value of the named environment variable, or
// defaultVal if the variable is empty or unset.
func EnvOrDefault(envVar, defaultVal string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return defaultVal
}

// Log emits a single structured INFO log event with all collected information.
func (s *StartupLogger) Log() {
	evt := log.Info()

	// Function identity — auto-collected from the Functions host environment.
	funcDict := zerolog.Dict().
		Str("name", s.name).
		Str("siteName", os.Getenv("WEBSITE_SITE_NAME")).
		Str("instanceId", os.Getenv("WEBSITE_INSTANCE_ID")).
		Str("extensionVersion", os.Getenv("FUNCTIONS_EXTENSION_VERSION")).
		Str("workerRuntime", os.Getenv("FUNCTIONS_WORKER_RUNTIME")).
		Str("region", os.Getenv("REGION_NAME")).
		Str("goVersion", runtime.Version()).
		Str("arch", runtime.GOARCH).
		Str("logLevel", os.Getenv("STYLER_LOG_LEVEL"))

	evt = evt.Dict("function", funcDict)

	// Resources — only non-empty maps are attached.
	resources := zerolog.Dict()
	hasResources := false

	if len(s.containers) > 0 {
		resources = resources.Dict("containers", dictFromMap(s.containers))
		hasResources = true
	}
	if len(s.endpoints) > 0 {
		resources = resources.Dict("endpoints", dictFromMap(s.endpoints))
		hasResources = true
	}

	if hasResources {
		evt = evt.Dict("resources", resources)
	}

	// Features.
	if len(s.features) > 0 {
		d := zerolog.Dict()
		for k, v := range s.features {
			d = d.Bool(k, v)
		}
		evt = evt.Dict("features", d)
	}

	// Config.
	if len(s.config) > 0 {
		evt = evt.Dict("config", dictFromMap(s.config))
	}

	// Init duration.
	if s.initDuration > 0 {
		evt = evt.Dur("initDuration", s.initDuration)
	}

	evt.Msg("Cold start complete")
}

// dictFromMap converts a map[string]string into a zerolog.Event (Dict).
func dictFromMap(m map[string]string) *zerolog.Event {
	d := zerolog.Dict()
	for k, v := range m {
		d = d.Str(k, v)
	}
	return d
}
