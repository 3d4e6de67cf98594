package application

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/diwise/iot-device-gateway/internal/pkg/application/devicemanagement"
	"github.com/diwise/iot-device-gateway/internal/pkg/infrastructure/messaging"
)

const (
	DefaultControlPort = "8000"
	DefaultLogLevel    = "info"
	envPrefix          = "GATEWAY"
)

type Config struct {
	ControlPort    string                  `mapstructure:"controlPort"`
	LogLevel       string                  `mapstructure:"logLevel"`
	AllowedOrigins []string                `mapstructure:"allowedOrigins"`
	Messaging      messaging.Config        `mapstructure:"messaging"`
	Gateway        devicemanagement.Config `mapstructure:",squash"`
}

// LoadConfig reads the YAML file at path, if any, and applies GATEWAY_ prefixed environment
// overrides such as GATEWAY_CONTROLPORT or GATEWAY_MESSAGING_URL. Adapter sections that are
// absent from the file stay nil and leave the adapter disabled.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("controlPort", DefaultControlPort)
	v.SetDefault("logLevel", DefaultLogLevel)
	v.SetDefault("messaging.transport", "")
	v.SetDefault("messaging.url", "")
	v.SetDefault("messaging.exchange", messaging.DefaultExchange)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read configuration file %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	return cfg, nil
}
