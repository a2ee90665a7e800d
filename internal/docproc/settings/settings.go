// Package settings holds the documentation processing configuration.
//
// Values are layered, lowest priority first: built-in defaults, an optional
// YAML file, a .env file, and the process environment. Environment variables
// use the DPB_ prefix and a double underscore between the section and the
// field, e.g. DPB_DB_MONGO__ADDRESS or DPB_APP__LOG_LEVEL.
package settings

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"
)

// Level is a log level name.
type Level string

const (
	LevelDebug    Level = "DEBUG"
	LevelInfo     Level = "INFO"
	LevelWarning  Level = "WARNING"
	LevelError    Level = "ERROR"
	LevelCritical Level = "CRITICAL"
)

// AppSettings configures the application itself.
type AppSettings struct {
	AppName                  string        `yaml:"app_name" validate:"required"`
	VectorDatabaseCollection string        `yaml:"vector_database_collection" validate:"required"`
	LogLevel                 Level         `yaml:"log_level" validate:"oneof=DEBUG INFO WARNING ERROR CRITICAL"`
	DevMode                  bool          `yaml:"dev_mode"`
	OpenAIAPIKey             string        `yaml:"openai_api_key"`
	ModelName                string        `yaml:"model_name" validate:"required"`
	LLMBaseURL               string        `yaml:"llm_base_url" validate:"omitempty,url"`
	WorkspaceRoot            string        `yaml:"workspace_root" validate:"required"`
	KdctlPath                string        `yaml:"kdctl_path" validate:"required"`
	WorkerInterval           time.Duration `yaml:"worker_interval" validate:"gt=0"`
	RestartDelay             time.Duration `yaml:"restart_delay" validate:"gt=0"`
}

// MongoDatabaseSettings configures the document database.
type MongoDatabaseSettings struct {
	User                string        `yaml:"user"`
	Name                string        `yaml:"name" validate:"required"`
	Password            string        `yaml:"password"`
	Port                int           `yaml:"port" validate:"min=1,max=65535"`
	Address             string        `yaml:"address" validate:"required"`
	ReconnectMaxRetries uint          `yaml:"reconnect_max_retries"`
	ReconnectRetryDelay time.Duration `yaml:"reconnect_retry_delay"`
	ConnectionURL       string        `yaml:"connection_url" validate:"omitempty,uri"`
}

// URL returns ConnectionURL, or assembles one from the other fields.
func (s MongoDatabaseSettings) URL() string {
	if s.ConnectionURL != "" {
		return s.ConnectionURL
	}

	u := url.URL{
		Scheme:   "mongodb",
		Host:     net.JoinHostPort(s.Address, strconv.Itoa(s.Port)),
		Path:     "/",
		RawQuery: "connectTimeoutMS=2000&serverSelectionTimeoutMS=2000",
	}
	if s.User != "" {
		u.User = url.UserPassword(s.User, s.Password)
	}

	return u.String()
}

// QdrantDatabaseSettings configures the vector store that kdctl uploads to.
type QdrantDatabaseSettings struct {
	Port     int    `yaml:"port" validate:"min=1,max=65535"`
	Address  string `yaml:"address" validate:"required"`
	Secured  bool   `yaml:"secured"`
	Password string `yaml:"password"`
}

// RegistrySettings configures the Terraform registry client.
type RegistrySettings struct {
	BaseURL     string        `yaml:"base_url" validate:"required,url"`
	Timeout     time.Duration `yaml:"timeout" validate:"gt=0"`
	MaxFailures uint32        `yaml:"max_failures" validate:"gt=0"`
	OpenTimeout time.Duration `yaml:"open_timeout" validate:"gt=0"`
}

// AdminSettings configures the admin HTTP server.
type AdminSettings struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address" validate:"required_if=Enabled true"`
}

// Settings is the root configuration object.
type Settings struct {
	App      AppSettings            `yaml:"app"`
	DBMongo  MongoDatabaseSettings  `yaml:"db_mongo"`
	DBQdrant QdrantDatabaseSettings `yaml:"db_qdrant"`
	Registry RegistrySettings       `yaml:"registry"`
	Admin    AdminSettings          `yaml:"admin"`
}

// Default returns the built-in configuration.
func Default() *Settings {
	return &Settings{
		App: AppSettings{
			AppName:                  "DOCUMENTATION-PROCESSING-BACKEND",
			VectorDatabaseCollection: "knowledge_collection_2",
			LogLevel:                 LevelDebug,
			OpenAIAPIKey:             "<NOT_SPECIFIED>",
			ModelName:                "text-embedding-3-large",
			WorkspaceRoot:            "workspace/documentation_processing",
			KdctlPath:                "kdctl",
			WorkerInterval:           24 * time.Hour,
			RestartDelay:             time.Minute,
		},
		DBMongo: MongoDatabaseSettings{
			User:                "dpb_app",
			Name:                "dpb_app",
			Password:            "dpb_app_password",
			Port:                27017,
			Address:             "127.0.0.1",
			ReconnectMaxRetries: 2,
			ReconnectRetryDelay: 2 * time.Second,
		},
		DBQdrant: QdrantDatabaseSettings{
			Port:     6333,
			Address:  "127.0.0.1",
			Password: "dpb_app_password",
		},
		Registry: RegistrySettings{
			BaseURL:     "https://registry.terraform.io",
			Timeout:     30 * time.Second,
			MaxFailures: 5,
			OpenTimeout: time.Minute,
		},
		Admin: AdminSettings{
			Enabled: true,
			Address: "127.0.0.1:8089",
		},
	}
}

func (s *Settings) String() string {
	return fmt.Sprintf("Settings{app=%s, mongo=%s:%d/%s, registry=%s}",
		s.App.AppName, s.DBMongo.Address, s.DBMongo.Port, s.DBMongo.Name, s.Registry.BaseURL)
}
