// Package config layers defaults, an optional config file, GOPULSE_
// environment variables and explicit overrides into one Config.
package config

import (
	"strings"

	"github.com/spf13/viper"

	"gopulse/harmonic"
)

const EnvPrefix = "GOPULSE"

type Processor struct {
	DataLength    int     `mapstructure:"datalength"`
	BufferLength  int     `mapstructure:"bufferlength"`
	FilterLength  int     `mapstructure:"filterlength"`
	StrobeFactor  int     `mapstructure:"strobefactor"`
	BottomBPM     float64 `mapstructure:"bottombpm"`
	TopBPM        float64 `mapstructure:"topbpm"`
	HalfInterval  int     `mapstructure:"halfinterval"`
	SNRThreshold  float64 `mapstructure:"snrthreshold"`
	Mode          string  `mapstructure:"mode"`
	Channel       string  `mapstructure:"channel"`
	PCA           bool    `mapstructure:"pca"`
	ZeroCrossings int     `mapstructure:"zerocrossings"`
}

type Analysis struct {
	Every          int  `mapstructure:"every"`
	CountCrossings bool `mapstructure:"countcrossings"`
}

type Thresholds struct {
	File  string `mapstructure:"file"`
	Sex   string `mapstructure:"sex"`
	Age   int    `mapstructure:"age"`
	Alpha string `mapstructure:"alpha"`
}

type Log struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
	Keep  uint   `mapstructure:"keep"`
}

type NATS struct {
	URL       string `mapstructure:"url"`
	Frames    string `mapstructure:"frames"`
	Estimates string `mapstructure:"estimates"`
}

type Config struct {
	Processor  Processor  `mapstructure:"processor"`
	Analysis   Analysis   `mapstructure:"analysis"`
	Thresholds Thresholds `mapstructure:"thresholds"`
	Log        Log        `mapstructure:"log"`
	NATS       NATS       `mapstructure:"nats"`
}

func SetDefaults(v *viper.Viper) {
	defaults := harmonic.DefaultSettings()

	v.SetDefault("processor.datalength", 256)
	v.SetDefault("processor.bufferlength", 256)
	v.SetDefault("processor.filterlength", defaults.FilterLength)
	v.SetDefault("processor.strobefactor", defaults.StrobeFactor)
	v.SetDefault("processor.bottombpm", defaults.BottomBPM)
	v.SetDefault("processor.topbpm", defaults.TopBPM)
	v.SetDefault("processor.halfinterval", defaults.HalfInterval)
	v.SetDefault("processor.snrthreshold", defaults.SNRThreshold)
	v.SetDefault("processor.mode", harmonic.Dual.String())
	v.SetDefault("processor.channel", harmonic.Green.String())
	v.SetDefault("processor.pca", false)
	v.SetDefault("processor.zerocrossings", 4)

	v.SetDefault("analysis.every", 25)
	v.SetDefault("analysis.countcrossings", false)

	v.SetDefault("thresholds.file", "")
	v.SetDefault("thresholds.sex", "male")
	v.SetDefault("thresholds.age", 30)
	v.SetDefault("thresholds.alpha", "50")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.path", "")
	v.SetDefault("log.keep", 7)

	v.SetDefault("nats.url", "nats://127.0.0.1:4222")
	v.SetDefault("nats.frames", "pulse.frames")
	v.SetDefault("nats.estimates", "pulse.estimates")
}

// Load reads the layered configuration. path may be empty; overrides are
// applied last and usually come from command line flags.
func Load(path string, overrides map[string]interface{}) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range overrides {
		v.Set(key, value)
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, err
	}

	return config, nil
}

// Settings converts the processor section. Unset keys already carry their
// defaults from SetDefaults, so every field is copied as is.
func (c *Config) Settings() harmonic.Settings {
	return harmonic.Settings{
		FilterLength: c.Processor.FilterLength,
		StrobeFactor: c.Processor.StrobeFactor,
		BottomBPM:    c.Processor.BottomBPM,
		TopBPM:       c.Processor.TopBPM,
		HalfInterval: c.Processor.HalfInterval,
		SNRThreshold: c.Processor.SNRThreshold,
	}
}
