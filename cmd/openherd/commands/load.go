package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/openherd/openherd/src/config"
	"github.com/openherd/openherd/src/openherd"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func loadConfig(cmd *cobra.Command, args []string) error {

	err := bindFlagsLoadViper(cmd)
	if err != nil {
		return err
	}

	// If --datadir was explicitely set, but not --db, this will update the
	// default database dir to be inside the new datadir
	_config.OpenHerd.SetDataDir(_config.OpenHerd.DataDir)

	logger := _config.OpenHerd.BaseLogger()
	logger.Level = config.LogLevel(_config.OpenHerd.LogLevel)

	if _config.LogFile != "" {
		addLogFile(logger, _config.LogFile)
	}

	logFields := logrus.Fields{
		"openherd.DataDir":       _config.OpenHerd.DataDir,
		"openherd.LogLevel":      _config.OpenHerd.LogLevel,
		"openherd.Store":         _config.OpenHerd.Store,
		"openherd.NodeURL":       _config.OpenHerd.NodeURL,
		"openherd.AutoDiscovery": _config.OpenHerd.AutoDiscovery,
		"openherd.DistanceUnit":  _config.OpenHerd.DistanceUnit,
		"openherd.Privacy":       _config.OpenHerd.Privacy,
		"openherd.SubmitTimeout": _config.OpenHerd.SubmitTimeout,
		"openherd.FetchTimeout":  _config.OpenHerd.FetchTimeout,
		"openherd.ScanTimeout":   _config.OpenHerd.ScanTimeout,
		"openherd.CacheSize":     _config.OpenHerd.CacheSize,
		"LogFile":                _config.LogFile,
	}

	if _config.OpenHerd.Store != config.InmemStore {
		logFields["openherd.DatabasePath"] = _config.OpenHerd.DatabasePath()
	}

	_config.OpenHerd.Logger().WithFields(logFields).Debug(cmd.Name())

	return nil
}

// Bind all flags and read the config into viper
func bindFlagsLoadViper(cmd *cobra.Command) error {
	// Register flags with viper. Include flags from this command and all other
	// persistent flags from the parent
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// first unmarshal to read from CLI flags
	if err := viper.Unmarshal(_config); err != nil {
		return err
	}

	// look for config file in [datadir]/openherd.toml (.json, .yaml also work)
	viper.SetConfigName(config.DefaultConfigName)
	viper.AddConfigPath(_config.OpenHerd.DataDir)

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		_config.OpenHerd.Logger().Debugf("Using config file: %s", viper.ConfigFileUsed())
	} else if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		_config.OpenHerd.Logger().Debugf("No config file found in: %s", _config.OpenHerd.DataDir)
	} else {
		return err
	}

	// second unmarshal to read from config file
	return viper.Unmarshal(_config)
}

// addLogFile copies every log entry to path, in plain text.
func addLogFile(logger *logrus.Logger, path string) {
	pathMap := lfshook.PathMap{}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		logger.Infof("Failed to open %s, using default stderr", path)
		return
	}
	f.Close()

	for _, level := range logrus.AllLevels {
		pathMap[level] = path
	}

	logger.Hooks.Add(lfshook.NewHook(
		pathMap,
		&logrus.TextFormatter{},
	))
}

// newEngine builds and initializes the engine from the loaded configuration.
func newEngine() (*openherd.OpenHerd, error) {
	engine := openherd.NewOpenHerd(&_config.OpenHerd)

	if err := engine.Init(); err != nil {
		_config.OpenHerd.Logger().Error("Cannot initialize engine: ", err)
		return nil, err
	}

	return engine, nil
}

// interruptContext returns a context that is cancelled on SIGINT or SIGTERM.
func interruptContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	//Prepare sigCh to relay SIGINT and SIGTERM system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}
