// Package config loads the service configuration from a YAML file with
// COVER_ environment overrides.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"tilt_cover/internal/actuator"
	"tilt_cover/internal/cover"
	"tilt_cover/internal/mqtt"
)

const envPrefix = "COVER"

type Config struct {
	Port      string         `mapstructure:"port" yaml:"port"`
	LogLevel  string         `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string         `mapstructure:"log_format" yaml:"log_format"`
	DB        DBConfig       `mapstructure:"db" yaml:"db"`
	Auth      AuthConfig     `mapstructure:"auth" yaml:"auth"`
	Runner    RunnerConfig   `mapstructure:"runner" yaml:"runner"`
	Cover     CoverConfig    `mapstructure:"cover" yaml:"cover"`
	Actuator  ActuatorConfig `mapstructure:"actuator" yaml:"actuator"`
	MQTT      MQTTConfig     `mapstructure:"mqtt" yaml:"mqtt"`
}

type DBConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key" yaml:"-"` // never dumped
	TokenTTL   time.Duration `mapstructure:"token_ttl" yaml:"token_ttl"`
}

type RunnerConfig struct {
	Tick time.Duration `mapstructure:"tick" yaml:"tick"`
}

// CoverConfig holds the calibration durations. Zero disables the feature.
type CoverConfig struct {
	OpenDuration                time.Duration `mapstructure:"open_duration" yaml:"open_duration"`
	CloseDuration               time.Duration `mapstructure:"close_duration" yaml:"close_duration"`
	TiltOpenDuration            time.Duration `mapstructure:"tilt_open_duration" yaml:"tilt_open_duration"`
	TiltCloseDuration           time.Duration `mapstructure:"tilt_close_duration" yaml:"tilt_close_duration"`
	InterlockWaitTime           time.Duration `mapstructure:"interlock_wait_time" yaml:"interlock_wait_time"`
	InertiaOpenTime             time.Duration `mapstructure:"inertia_open_time" yaml:"inertia_open_time"`
	InertiaCloseTime            time.Duration `mapstructure:"inertia_close_time" yaml:"inertia_close_time"`
	RecalibrationOpenTime       time.Duration `mapstructure:"recalibration_open_time" yaml:"recalibration_open_time"`
	RecalibrationCloseTime      time.Duration `mapstructure:"recalibration_close_time" yaml:"recalibration_close_time"`
	ActuatorActivationOpenTime  time.Duration `mapstructure:"actuator_activation_open_time" yaml:"actuator_activation_open_time"`
	ActuatorActivationCloseTime time.Duration `mapstructure:"actuator_activation_close_time" yaml:"actuator_activation_close_time"`
	AssumedState                bool          `mapstructure:"assumed_state" yaml:"assumed_state"`
}

type ActuatorConfig struct {
	Driver    string `mapstructure:"driver" yaml:"driver"`
	OpenPin   string `mapstructure:"open_pin" yaml:"open_pin"`
	ClosePin  string `mapstructure:"close_pin" yaml:"close_pin"`
	ActiveLow bool   `mapstructure:"active_low" yaml:"active_low"`
}

type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled"`
	Broker      string `mapstructure:"broker" yaml:"broker"`
	ClientID    string `mapstructure:"client_id" yaml:"client_id"`
	TopicPrefix string `mapstructure:"topic_prefix" yaml:"topic_prefix"`
	QoS         int    `mapstructure:"qos" yaml:"qos"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("db.path", "app.db")
	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.token_ttl", "12h")
	v.SetDefault("runner.tick", "50ms")

	v.SetDefault("cover.open_duration", "0s")
	v.SetDefault("cover.close_duration", "0s")
	for _, k := range []string{
		"tilt_open_duration", "tilt_close_duration", "interlock_wait_time",
		"inertia_open_time", "inertia_close_time",
		"recalibration_open_time", "recalibration_close_time",
		"actuator_activation_open_time", "actuator_activation_close_time",
	} {
		v.SetDefault("cover."+k, "0s")
	}
	v.SetDefault("cover.assumed_state", true)

	v.SetDefault("actuator.driver", actuator.DriverMock)
	v.SetDefault("actuator.open_pin", "")
	v.SetDefault("actuator.close_pin", "")
	v.SetDefault("actuator.active_low", false)

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.client_id", "tilt-cover")
	v.SetDefault("mqtt.topic_prefix", "cover")
	v.SetDefault("mqtt.qos", 0)
}

// Load reads path (YAML) and applies defaults and COVER_ env overrides,
// e.g. COVER_COVER_OPEN_DURATION=25s or COVER_MQTT_ENABLED=true.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the controller cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Cover.OpenDuration <= 0 {
		errs = append(errs, errors.New("cover.open_duration must be > 0"))
	}
	if c.Cover.CloseDuration <= 0 {
		errs = append(errs, errors.New("cover.close_duration must be > 0"))
	}
	for name, d := range c.Cover.durations() {
		if d < 0 {
			errs = append(errs, fmt.Errorf("cover.%s must not be negative, got %s", name, d))
		}
	}
	if f := strings.ToLower(c.LogFormat); f != "" && f != "console" && f != "json" {
		errs = append(errs, fmt.Errorf("log_format must be console or json, got %q", c.LogFormat))
	}
	if c.Runner.Tick <= 0 {
		errs = append(errs, errors.New("runner.tick must be > 0"))
	}
	if c.Auth.SigningKey == "" {
		errs = append(errs, errors.New("auth.signing_key is required"))
	}
	if c.Auth.TokenTTL < 0 {
		errs = append(errs, errors.New("auth.token_ttl must not be negative"))
	}

	switch strings.ToLower(c.Actuator.Driver) {
	case actuator.DriverMock:
	case actuator.DriverPeriph, actuator.DriverRPIO:
		if c.Actuator.OpenPin == "" || c.Actuator.ClosePin == "" {
			errs = append(errs, fmt.Errorf("actuator.open_pin and actuator.close_pin are required for driver %q", c.Actuator.Driver))
		} else if c.Actuator.OpenPin == c.Actuator.ClosePin {
			errs = append(errs, errors.New("actuator.open_pin and actuator.close_pin must differ"))
		}
	default:
		errs = append(errs, fmt.Errorf("actuator.driver must be one of mock, periph, rpio, got %q", c.Actuator.Driver))
	}

	if c.MQTT.Enabled {
		if c.MQTT.Broker == "" {
			errs = append(errs, errors.New("mqtt.broker is required when mqtt is enabled"))
		}
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS))
		}
	}

	return errors.Join(errs...)
}

func (c CoverConfig) durations() map[string]time.Duration {
	return map[string]time.Duration{
		"tilt_open_duration":             c.TiltOpenDuration,
		"tilt_close_duration":            c.TiltCloseDuration,
		"interlock_wait_time":            c.InterlockWaitTime,
		"inertia_open_time":              c.InertiaOpenTime,
		"inertia_close_time":             c.InertiaCloseTime,
		"recalibration_open_time":        c.RecalibrationOpenTime,
		"recalibration_close_time":       c.RecalibrationCloseTime,
		"actuator_activation_open_time":  c.ActuatorActivationOpenTime,
		"actuator_activation_close_time": c.ActuatorActivationCloseTime,
	}
}

// ToCover converts the calibration section for the estimator.
func (c CoverConfig) ToCover() cover.Config {
	return cover.Config{
		OpenDuration:                c.OpenDuration,
		CloseDuration:               c.CloseDuration,
		TiltOpenDuration:            c.TiltOpenDuration,
		TiltCloseDuration:           c.TiltCloseDuration,
		InterlockWaitTime:           c.InterlockWaitTime,
		InertiaOpenTime:             c.InertiaOpenTime,
		InertiaCloseTime:            c.InertiaCloseTime,
		RecalibrationOpenTime:       c.RecalibrationOpenTime,
		RecalibrationCloseTime:      c.RecalibrationCloseTime,
		ActuatorActivationOpenTime:  c.ActuatorActivationOpenTime,
		ActuatorActivationCloseTime: c.ActuatorActivationCloseTime,
		AssumedState:                c.AssumedState,
	}
}

func (c ActuatorConfig) ToActuator() actuator.Config {
	return actuator.Config{
		Driver:    c.Driver,
		OpenPin:   c.OpenPin,
		ClosePin:  c.ClosePin,
		ActiveLow: c.ActiveLow,
	}
}

func (c MQTTConfig) ToMQTT() mqtt.Config {
	return mqtt.Config{
		Broker:      c.Broker,
		ClientID:    c.ClientID,
		TopicPrefix: c.TopicPrefix,
		QoS:         byte(c.QoS),
	}
}

// Dump renders the effective configuration as YAML. The signing key is left
// out.
func (c *Config) Dump() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("dump config: %w", err)
	}
	return string(out), nil
}
