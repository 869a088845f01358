/**
 * @description
 * This file handles configuration management for the subscription-management-api.
 * It uses the 'viper' library to load configuration from environment variables,
 * providing defaults for the cron schedules and the server port.
 */
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	ServerPort          string `mapstructure:"SERVER_PORT"`
	DatabaseURL         string `mapstructure:"DATABASE_URL"`
	JWTSecret           string `mapstructure:"JWT_SECRET"`
	AMQPURL             string `mapstructure:"AMQP_URL"`
	ReminderExchange    string `mapstructure:"REMINDER_EXCHANGE"`
	SweepJobSchedule    string `mapstructure:"SWEEP_JOB_SCHEDULE"`
	ReminderJobSchedule string `mapstructure:"REMINDER_JOB_SCHEDULE"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	viper.SetDefault("SERVER_PORT", "8086")
	viper.SetDefault("REMINDER_EXCHANGE", "subscription_reminders")
	viper.SetDefault("SWEEP_JOB_SCHEDULE", "0 0 * * *")      // Daily at midnight.
	viper.SetDefault("REMINDER_JOB_SCHEDULE", "*/5 * * * *") // Every five minutes.
	viper.AutomaticEnv()

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("JWT_SECRET")
	_ = viper.BindEnv("AMQP_URL")
	_ = viper.BindEnv("REMINDER_EXCHANGE")
	_ = viper.BindEnv("SWEEP_JOB_SCHEDULE")
	_ = viper.BindEnv("REMINDER_JOB_SCHEDULE")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if config.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return &config, nil
}
