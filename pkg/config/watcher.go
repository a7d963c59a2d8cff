package config

import (
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/marmos91/lifeline/internal/logger"
)

// Watcher hot-reloads the mutable parts of the configuration while the host
// runs. Only the log level and format are applied live; everything else
// (ports, timeouts, telemetry) requires a restart and changes to those keys
// are logged and ignored.
type Watcher struct {
	v    *viper.Viper
	path string
}

// NewWatcher creates a watcher for the given config file path.
func NewWatcher(path string) *Watcher {
	return &Watcher{v: viper.New(), path: path}
}

// Start begins watching the config file. It returns immediately; change
// events are handled on viper's watch goroutine until the process exits.
func (w *Watcher) Start() {
	w.v.SetConfigFile(w.path)
	if err := w.v.ReadInConfig(); err != nil {
		logger.Warn("Config watcher disabled: cannot read config file", "path", w.path, "error", err)
		return
	}

	w.v.OnConfigChange(func(e fsnotify.Event) {
		logger.Debug("Config file changed", "event", e.Op.String(), "path", e.Name)
		w.apply()
	})
	w.v.WatchConfig()
	logger.Debug("Config watcher started", "path", w.path)
}

func (w *Watcher) apply() {
	if level := w.v.GetString("logging.level"); level != "" {
		normalized := strings.ToUpper(level)
		if normalized != logger.GetLevel().String() {
			logger.SetLevel(normalized)
			logger.Info("Log level changed", "level", normalized)
		}
	}
	if format := w.v.GetString("logging.format"); format != "" {
		logger.SetFormat(format)
	}
}
