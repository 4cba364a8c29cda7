package archive

import (
	"encoding/json"
	"os"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/rxtech-lab/argo-archiver/pkg/archive/provider"
	archiveErrors "github.com/rxtech-lab/argo-archiver/pkg/errors"
	"gopkg.in/yaml.v3"
)

// EnvBaseURL overrides Config.BaseURL when set.
const EnvBaseURL = "BITMEX_BASE_URL"

// Config holds the settings of an archive run that are not part of the request itself.
type Config struct {
	Exchange            string              `yaml:"exchange" json:"exchange" jsonschema:"title=Exchange,description=Directory name of the exchange below the archive root,default=BITMEX" validate:"required"`
	Source              provider.SourceType `yaml:"source" json:"source" jsonschema:"title=Source,description=Where quotes and trades come from. Bars always use the REST API,enum=api,enum=dump,default=api" validate:"required,oneof=api dump"`
	BaseURL             string              `yaml:"base_url" json:"base_url" jsonschema:"title=Base URL,description=BitMEX REST API base URL" validate:"required,url"`
	DumpURL             string              `yaml:"dump_url" json:"dump_url" jsonschema:"title=Dump URL,description=Base URL of the public daily dumps" validate:"required,url"`
	PageSize            int                 `yaml:"page_size" json:"page_size" jsonschema:"title=Page Size,description=Records requested per page,minimum=1,maximum=1000,default=500" validate:"min=1,max=1000"`
	RequestsPerMinute   int                 `yaml:"requests_per_minute" json:"requests_per_minute" jsonschema:"title=Requests Per Minute,description=Request budget against the REST API,minimum=1,default=30" validate:"min=1"`
	RateLimitBackoff    time.Duration       `yaml:"rate_limit_backoff" json:"rate_limit_backoff" jsonschema:"title=Rate Limit Backoff,description=Wait after a rate-limit response without a retry hint" validate:"gt=0"`
	MaxRateLimitRetries int                 `yaml:"max_rate_limit_retries" json:"max_rate_limit_retries" jsonschema:"title=Max Rate Limit Retries,description=Consecutive rate-limit responses tolerated per request. 0 is unlimited,minimum=0,default=0" validate:"gte=0"`
	HTTPTimeout         time.Duration       `yaml:"http_timeout" json:"http_timeout" jsonschema:"title=HTTP Timeout,description=Timeout of a single HTTP request" validate:"gt=0"`
	MaxWindowDays       int                 `yaml:"max_window_days" json:"max_window_days" jsonschema:"title=Max Window Days,description=Largest number of days fetched by one request window,minimum=1,maximum=366,default=31" validate:"min=1,max=366"`
	SkipSymbolCheck     bool                `yaml:"skip_symbol_check" json:"skip_symbol_check" jsonschema:"title=Skip Symbol Check,description=Do not validate symbols against the instrument list"`
	LogLevel            string              `yaml:"log_level" json:"log_level" jsonschema:"title=Log Level,enum=debug,enum=info,enum=warn,enum=error,default=info" validate:"omitempty,oneof=debug info warn warning error"`
}

// DefaultConfig returns the settings used when no config file is given.
func DefaultConfig() Config {
	return Config{
		Exchange:            "BITMEX",
		Source:              provider.SourceAPI,
		BaseURL:             provider.DefaultBaseURL,
		DumpURL:             provider.DefaultDumpURL,
		PageSize:            provider.DefaultPageSize,
		RequestsPerMinute:   provider.DefaultRequestsPerMinute,
		RateLimitBackoff:    provider.DefaultRateLimitBackoff,
		MaxRateLimitRetries: 0,
		HTTPTimeout:         30 * time.Second,
		MaxWindowDays:       31,
		LogLevel:            "info",
	}
}

// LoadConfig reads a YAML config file on top of DefaultConfig. An empty path
// yields the defaults. The environment is applied last.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, archiveErrors.Wrapf(archiveErrors.ErrCodeInvalidConfiguration, err, "failed to read config %s", path)
		}

		if err := yaml.Unmarshal(data, &config); err != nil {
			return Config{}, archiveErrors.Wrapf(archiveErrors.ErrCodeInvalidConfiguration, err, "failed to parse config %s", path)
		}
	}

	if baseURL := os.Getenv(EnvBaseURL); baseURL != "" {
		config.BaseURL = baseURL
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

// Validate checks the config. Failures are configuration errors.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return archiveErrors.Wrap(archiveErrors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	return nil
}

// GenerateSchema generates the JSON schema of the config file.
func (c *Config) GenerateSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		ExpandedStruct:            true,
		AllowAdditionalProperties: false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == reflect.TypeOf(time.Duration(0)) {
				return &jsonschema.Schema{
					Type:    "string",
					Pattern: `^([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$`,
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)
	schema.Title = "argo-archiver-config"
	schema.Description = "Configuration schema for argo-archiver"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema
}

// GenerateSchemaJSON generates the JSON schema of the config file as indented JSON.
func (c *Config) GenerateSchemaJSON() (string, error) {
	schemaBytes, err := json.MarshalIndent(c.GenerateSchema(), "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}
