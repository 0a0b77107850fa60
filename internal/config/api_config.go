package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type APIConfig struct {
	Port        int `mapstructure:"port"`
	MetricsPort int `mapstructure:"metrics_port"`
}

func (config APIConfig) validate() error {
	if config.Port <= 0 {
		return fmt.Errorf("port must be greater than zero")
	}
	if config.MetricsPort <= 0 {
		return fmt.Errorf("metrics_port must be greater than zero")
	}
	return nil
}

func (config APIConfig) bindEnvironmentVariables() error {

	err := viper.BindEnv("api.port", "API_PORT")
	if err != nil {
		return err
	}

	return viper.BindEnv("api.metrics_port", "METRICS_PORT")
}
