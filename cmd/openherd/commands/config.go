package commands

import (
	"github.com/openherd/openherd/src/config"
)

//CLIConfig contains configuration for all the commands
type CLIConfig struct {
	OpenHerd config.Config `mapstructure:",squash"`
	LogFile  string        `mapstructure:"log-file"`
}

//NewDefaultCLIConfig creates a CLIConfig with default values
func NewDefaultCLIConfig() *CLIConfig {
	return &CLIConfig{
		OpenHerd: *config.NewDefaultConfig(),
	}
}
