package main

import (
	"os"
	"path"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"turbine-daq/services/bridge"
	"turbine-daq/services/session"
	"turbine-daq/x/logx"
)

const (
	appName           = "daqbridge"
	defaultConfigName = "bridge"
	defaultBaud       = 115200
	defaultBroker     = "tcp://localhost:1883"
)

var userHomeDir, _ = os.UserHomeDir()

type Options struct {
	Serial bridge.SerialConfig `mapstructure:"serial"`
	Prefix string              `mapstructure:"prefix"`
	PingMS int                 `mapstructure:"ping_ms"`
	Retry  RetryOptions        `mapstructure:"retry"`
	MQTT   session.MQTTConfig  `mapstructure:"mqtt"`
	Debug  bool                `mapstructure:"debug"`
}

// RetryOptions bound the re-dial backoff, in milliseconds.
type RetryOptions struct {
	MinMS int `mapstructure:"min_ms"`
	MaxMS int `mapstructure:"max_ms"`
}

func addFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("config", "", "configuration file")
	f.StringP("port", "p", "", "serial port of the board, e.g. /dev/ttyACM0")
	f.IntP("baud", "b", defaultBaud, "serial baud rate")
	f.String("broker", defaultBroker, "MQTT broker URL")
	f.String("prefix", "", "prefix for forwarded topics")
	f.Bool("debug", false, "toggle debug logging")
}

// parseOptions merges, lowest first: defaults, config file, environment
// (DAQBRIDGE_*) and command line flags.
func parseOptions(cmd *cobra.Command) (Options, error) {
	v := viper.New()
	v.SetDefault("serial.baud", defaultBaud)
	v.SetDefault("ping_ms", 5000)
	v.SetDefault("mqtt.broker", defaultBroker)
	v.SetDefault("mqtt.client_id", appName)
	v.SetDefault("mqtt.timeout", 2*time.Second)

	if file, err := cmd.Flags().GetString("config"); err == nil && file != "" {
		v.SetConfigFile(file)
	} else if file := os.Getenv("DAQBRIDGE_CONFIG"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(defaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(path.Join(userHomeDir, ".config", appName))
		v.AddConfigPath("/etc/" + appName)
		v.AddConfigPath("./")
	}

	v.SetEnvPrefix(appName)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindPFlag("serial.port", cmd.Flags().Lookup("port"))
	_ = v.BindPFlag("serial.baud", cmd.Flags().Lookup("baud"))
	_ = v.BindPFlag("mqtt.broker", cmd.Flags().Lookup("broker"))
	_ = v.BindPFlag("prefix", cmd.Flags().Lookup("prefix"))
	_ = v.BindPFlag("debug", cmd.Flags().Lookup("debug"))

	if err := v.ReadInConfig(); err == nil {
		logx.Debug("using config file", logx.F("file", v.ConfigFileUsed()))
	} else if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
		return Options{}, err
	}

	var o Options
	if err := v.Unmarshal(&o); err != nil {
		return Options{}, err
	}
	return o, nil
}

func (o Options) bridgeConfig() bridge.Config {
	return bridge.Config{
		Transport:  bridge.TransportConfig{Type: "serial", Serial: &bridge.SerialConfig{Port: o.Serial.Port, Baud: o.Serial.Baud}},
		Prefix:     o.Prefix,
		PingMS:     o.PingMS,
		RetryMinMS: o.Retry.MinMS,
		RetryMaxMS: o.Retry.MaxMS,
	}
}
