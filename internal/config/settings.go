package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// Settings is the typed form of the configuration tree.
type Settings struct {
	Server    ServerSettings    `mapstructure:"server"`
	Collector CollectorSettings `mapstructure:"collector"`
	Agent     AgentSettings     `mapstructure:"agent"`
	MQTT      MQTTSettings      `mapstructure:"mqtt"`
	MDNS      MDNSSettings      `mapstructure:"mdns"`
	Log       LogSettings       `mapstructure:"log"`
}

type ServerSettings struct {
	Host      string  `mapstructure:"host" validate:"required"`
	Port      int     `mapstructure:"port" validate:"min=1,max=65535"`
	RateLimit float64 `mapstructure:"rate_limit" validate:"gte=0"`
	RateBurst int     `mapstructure:"rate_burst" validate:"gte=1"`
}

// Addr returns host:port.
func (s ServerSettings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type CollectorSettings struct {
	CPUInterval     time.Duration `mapstructure:"cpu_interval" validate:"gte=0s"`
	MaxInterval     time.Duration `mapstructure:"max_interval" validate:"gtefield=CPUInterval"`
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
	CacheMaxEntries int           `mapstructure:"cache_max_entries" validate:"gte=0"`
}

type AgentSettings struct {
	ID             string        `mapstructure:"id" validate:"required"`
	ReportInterval time.Duration `mapstructure:"report_interval" validate:"gte=0s"`
}

type MQTTSettings struct {
	Enabled  bool   `mapstructure:"enabled"`
	Broker   string `mapstructure:"broker" validate:"required_if=Enabled true"`
	Topic    string `mapstructure:"topic"`
	ClientID string `mapstructure:"client_id"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	QoS      int    `mapstructure:"qos" validate:"min=0,max=2"`
}

type MDNSSettings struct {
	Enabled bool   `mapstructure:"enabled"`
	Service string `mapstructure:"service" validate:"required_if=Enabled true"`
}

type LogSettings struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

// SetDefaults registers every known key on v. Environment overrides only
// reach Unmarshal for keys that have a default.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 9273)
	v.SetDefault("server.rate_limit", 5)
	v.SetDefault("server.rate_burst", 10)

	v.SetDefault("collector.cpu_interval", time.Second)
	v.SetDefault("collector.max_interval", 10*time.Second)
	v.SetDefault("collector.cache_ttl", 24*time.Hour)
	v.SetDefault("collector.cache_max_entries", 500)

	v.SetDefault("agent.id", uuid.NewString())
	v.SetDefault("agent.report_interval", time.Duration(0))

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.topic", "")
	v.SetDefault("mqtt.client_id", "")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.qos", 0)

	v.SetDefault("mdns.enabled", false)
	v.SetDefault("mdns.service", "_hostpulse._tcp")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report config keys rather than Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Settings decodes, completes and validates the configuration.
func (c *Config) Settings() (*Settings, error) {
	var s Settings
	if err := c.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if s.MQTT.Topic == "" {
		s.MQTT.Topic = fmt.Sprintf("hostpulse/%s/snapshot", s.Agent.ID)
	}
	if s.MQTT.ClientID == "" {
		s.MQTT.ClientID = "hostpulse-" + s.Agent.ID
	}

	if err := validate.Struct(&s); err != nil {
		return nil, validationError(err)
	}
	return &s, nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		key := strings.TrimPrefix(fe.Namespace(), "Settings.")
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		msgs = append(msgs, fmt.Sprintf("%s must satisfy %s", key, rule))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}
