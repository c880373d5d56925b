package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	MQTT      MQTTConfig
	Schedule  ScheduleConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
}

type ServerConfig struct {
	Port        string
	Host        string
	Environment string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type MQTTConfig struct {
	Broker            string
	ClientID          string
	Username          string
	Password          string
	MediaTopic        string
	ChatEventTopic    string
	NotifyTopicPrefix string
	QoS               int
}

// ScheduleConfig exposes the scheduling and compliance tuning knobs.
// The defaults match what the fleet has been running with, but none of
// them are load-bearing; they can be changed per deployment.
type ScheduleConfig struct {
	ComplianceInterval     time.Duration // gap between periodic compliance reports
	ComplianceWindow       time.Duration // how long a pass keeps covering a quiet driver
	MediaDebounceWindow    time.Duration // how long to wait for the rest of an album
	FollowupDelays         []time.Duration
	DriverAlertThreshold   int           // consecutive misses before the driver is nudged
	DispatchAlertThreshold int           // consecutive misses before dispatch is escalated
	CongratsPassThreshold  int           // weekly passes that earn a congratulations note
	AlertCooldown          time.Duration // minimum gap between repeat alerts per driver
	DefaultDigestTime      string        // HH:MM, used when a group has no digest time set
}

type RateLimitConfig struct {
	GeneralRPS   float64 // Requests per second for general endpoints
	GeneralBurst int     // Burst size for general endpoints
}

type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AddConfigPath(".")
	if homeDir, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(homeDir)
	}
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) && !os.IsNotExist(err) {
			log.Printf("Warning: config file not read: %v. Falling back to environment variables only.", err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Port:        viper.GetString("SERVER_PORT"),
			Host:        viper.GetString("SERVER_HOST"),
			Environment: viper.GetString("ENVIRONMENT"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			DBName:   viper.GetString("DB_NAME"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
		},
		MQTT: MQTTConfig{
			Broker:            viper.GetString("MQTT_BROKER"),
			ClientID:          viper.GetString("MQTT_CLIENT_ID"),
			Username:          viper.GetString("MQTT_USERNAME"),
			Password:          viper.GetString("MQTT_PASSWORD"),
			MediaTopic:        viper.GetString("MQTT_MEDIA_TOPIC"),
			ChatEventTopic:    viper.GetString("MQTT_CHAT_EVENT_TOPIC"),
			NotifyTopicPrefix: viper.GetString("MQTT_NOTIFY_TOPIC_PREFIX"),
			QoS:               viper.GetInt("MQTT_QOS"),
		},
		Schedule: ScheduleConfig{
			ComplianceInterval:     viper.GetDuration("COMPLIANCE_REPORT_INTERVAL"),
			ComplianceWindow:       viper.GetDuration("COMPLIANCE_REPORT_WINDOW"),
			MediaDebounceWindow:    viper.GetDuration("MEDIA_DEBOUNCE_WINDOW"),
			FollowupDelays:         followupDelays(),
			DriverAlertThreshold:   viper.GetInt("DRIVER_ALERT_THRESHOLD"),
			DispatchAlertThreshold: viper.GetInt("DISPATCH_ALERT_THRESHOLD"),
			CongratsPassThreshold:  viper.GetInt("CONGRATS_PASS_THRESHOLD"),
			AlertCooldown:          viper.GetDuration("ALERT_COOLDOWN"),
			DefaultDigestTime:      viper.GetString("DEFAULT_DIGEST_TIME"),
		},
		RateLimit: RateLimitConfig{
			GeneralRPS:   viper.GetFloat64("RATE_LIMIT_GENERAL_RPS"),
			GeneralBurst: viper.GetInt("RATE_LIMIT_GENERAL_BURST"),
		},
		CORS: CORSConfig{
			AllowedOrigins:   viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods:   viper.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders:   viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
			ExposedHeaders:   viper.GetStringSlice("CORS_EXPOSED_HEADERS"),
			AllowCredentials: viper.GetBool("CORS_ALLOW_CREDENTIALS"),
			MaxAge:           viper.GetInt("CORS_MAX_AGE"),
		},
	}

	return config, nil
}

func setDefaults() {
	viper.SetDefault("MQTT_MEDIA_TOPIC", "fleet/checkin/media")
	viper.SetDefault("MQTT_CHAT_EVENT_TOPIC", "fleet/chat/events")
	viper.SetDefault("MQTT_NOTIFY_TOPIC_PREFIX", "fleet/notify")
	viper.SetDefault("MQTT_QOS", 1)

	viper.SetDefault("COMPLIANCE_REPORT_INTERVAL", "2h")
	viper.SetDefault("COMPLIANCE_REPORT_WINDOW", "24h")
	viper.SetDefault("MEDIA_DEBOUNCE_WINDOW", "3s")
	viper.SetDefault("FOLLOWUP_DELAYS", []string{"15m", "50m"})
	viper.SetDefault("DRIVER_ALERT_THRESHOLD", 2)
	viper.SetDefault("DISPATCH_ALERT_THRESHOLD", 3)
	viper.SetDefault("CONGRATS_PASS_THRESHOLD", 5)
	viper.SetDefault("ALERT_COOLDOWN", "24h")
	viper.SetDefault("DEFAULT_DIGEST_TIME", "10:30")

	viper.SetDefault("RATE_LIMIT_GENERAL_RPS", 20.0)
	viper.SetDefault("RATE_LIMIT_GENERAL_BURST", 40)
}

func followupDelays() []time.Duration {
	raw := viper.GetStringSlice("FOLLOWUP_DELAYS")
	delays := make([]time.Duration, 0, len(raw))
	for _, entry := range raw {
		d, err := time.ParseDuration(entry)
		if err != nil || d <= 0 {
			log.Printf("Warning: ignoring invalid follow-up delay %q", entry)
			continue
		}
		delays = append(delays, d)
	}
	return delays
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}
