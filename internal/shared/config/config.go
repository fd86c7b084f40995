package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Formulary    FormularyConfig
	EventStore   EventStoreConfig
	Auth         AuthConfig
	DrugLabel    DrugLabelConfig
	Interactions InteractionsConfig
	Knowledge    KnowledgeConfig
	Literature   LiteratureConfig
	PHI          PHIConfig
	Severity     SeverityConfig
	Cascade      CascadeConfig
}

type ServerConfig struct {
	Port int
	Env  string
	// RateLimitRPS/Burst apply per client IP on the API routes
	RateLimitRPS   int
	RateLimitBurst int
}

func (s ServerConfig) IsDev() bool {
	return s.Env == "development"
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// FormularyConfig holds configuration for the legacy hospital formulary
// database used as a fallback drug-label source.
type FormularyConfig struct {
	Enabled bool
	// SQL Server connection settings
	Host     string
	Port     int
	User     string
	Password string
	Database string
	// DrugTable is the formulary table holding label data
	DrugTable string
}

func (f FormularyConfig) DSN() string {
	return fmt.Sprintf(
		"server=%s;port=%d;user id=%s;password=%s;database=%s",
		f.Host, f.Port, f.User, f.Password, f.Database,
	)
}

// EventStoreConfig holds configuration for the EventStoreDB event bus.
type EventStoreConfig struct {
	Host     string
	Port     int
	Insecure bool
	Username string
	Password string
}

type AuthConfig struct {
	JWTSecret string
	// Enabled disables the bearer-token check entirely (local development)
	Enabled bool
}

// DrugLabelConfig points at the structured drug-label API (openFDA-style).
type DrugLabelConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// InteractionsConfig points at the drug-interaction service (RxNorm-style).
type InteractionsConfig struct {
	BaseURL string
	Timeout time.Duration
}

// KnowledgeConfig points at the vector-search knowledge service.
type KnowledgeConfig struct {
	BaseURL   string
	Timeout   time.Duration
	Threshold float64
	MaxChunks int
}

// LiteratureConfig points at the literature search service (PubMed-style).
type LiteratureConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxResults int
}

// PHIConfig holds configuration for the PHI tokenizer.
type PHIConfig struct {
	// TokenPrefix is embedded in every generated marker
	TokenPrefix string
	// MaxSessions caps the in-memory session store; 0 means unbounded
	MaxSessions int
}

// SeverityConfig holds configuration for the severity classifier.
type SeverityConfig struct {
	// ConditionCacheTTL controls the severe-condition snapshot refresh
	ConditionCacheTTL time.Duration
}

// CascadeConfig holds configuration for the cascade validator.
type CascadeConfig struct {
	// SourceTimeout bounds each validation-source call
	SourceTimeout time.Duration
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	setDefaults(v)

	// A missing .env file is fine; env vars still apply
	_ = v.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetInt("SERVER_PORT"),
			Env:            v.GetString("ENV"),
			RateLimitRPS:   v.GetInt("RATE_LIMIT_RPS"),
			RateLimitBurst: v.GetInt("RATE_LIMIT_BURST"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Database: v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Formulary: FormularyConfig{
			Enabled:   v.GetBool("FORMULARY_ENABLED"),
			Host:      v.GetString("FORMULARY_HOST"),
			Port:      v.GetInt("FORMULARY_PORT"),
			User:      v.GetString("FORMULARY_USER"),
			Password:  v.GetString("FORMULARY_PASSWORD"),
			Database:  v.GetString("FORMULARY_DB"),
			DrugTable: v.GetString("FORMULARY_DRUG_TABLE"),
		},
		EventStore: EventStoreConfig{
			Host:     v.GetString("EVENTSTORE_HOST"),
			Port:     v.GetInt("EVENTSTORE_PORT"),
			Insecure: v.GetBool("EVENTSTORE_INSECURE"),
			Username: v.GetString("EVENTSTORE_USERNAME"),
			Password: v.GetString("EVENTSTORE_PASSWORD"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("JWT_SECRET"),
			Enabled:   v.GetBool("AUTH_ENABLED"),
		},
		DrugLabel: DrugLabelConfig{
			BaseURL: v.GetString("DRUGLABEL_URL"),
			APIKey:  v.GetString("DRUGLABEL_API_KEY"),
			Timeout: v.GetDuration("DRUGLABEL_TIMEOUT"),
		},
		Interactions: InteractionsConfig{
			BaseURL: v.GetString("INTERACTIONS_URL"),
			Timeout: v.GetDuration("INTERACTIONS_TIMEOUT"),
		},
		Knowledge: KnowledgeConfig{
			BaseURL:   v.GetString("KNOWLEDGE_URL"),
			Timeout:   v.GetDuration("KNOWLEDGE_TIMEOUT"),
			Threshold: v.GetFloat64("KNOWLEDGE_THRESHOLD"),
			MaxChunks: v.GetInt("KNOWLEDGE_MAX_CHUNKS"),
		},
		Literature: LiteratureConfig{
			BaseURL:    v.GetString("LITERATURE_URL"),
			APIKey:     v.GetString("LITERATURE_API_KEY"),
			Timeout:    v.GetDuration("LITERATURE_TIMEOUT"),
			MaxResults: v.GetInt("LITERATURE_MAX_RESULTS"),
		},
		PHI: PHIConfig{
			TokenPrefix: v.GetString("PHI_TOKEN_PREFIX"),
			MaxSessions: v.GetInt("PHI_MAX_SESSIONS"),
		},
		Severity: SeverityConfig{
			ConditionCacheTTL: v.GetDuration("SEVERITY_CONDITION_CACHE_TTL"),
		},
		Cascade: CascadeConfig{
			SourceTimeout: v.GetDuration("CASCADE_SOURCE_TIMEOUT"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("ENV", "development")
	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "clinsafe")
	v.SetDefault("DB_PASSWORD", "clinsafe")
	v.SetDefault("DB_NAME", "clinsafe")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("FORMULARY_ENABLED", false)
	v.SetDefault("FORMULARY_PORT", 1433)
	v.SetDefault("FORMULARY_DRUG_TABLE", "dbo.FormularyDrugs")

	v.SetDefault("EVENTSTORE_HOST", "localhost")
	v.SetDefault("EVENTSTORE_PORT", 2113)
	v.SetDefault("EVENTSTORE_INSECURE", true)

	v.SetDefault("JWT_SECRET", "dev-secret-change-in-prod")
	v.SetDefault("AUTH_ENABLED", false)

	v.SetDefault("DRUGLABEL_URL", "https://api.fda.gov/drug/label.json")
	v.SetDefault("DRUGLABEL_TIMEOUT", 10*time.Second)

	v.SetDefault("INTERACTIONS_URL", "http://localhost:8085")
	v.SetDefault("INTERACTIONS_TIMEOUT", 10*time.Second)

	v.SetDefault("KNOWLEDGE_URL", "http://localhost:8086")
	v.SetDefault("KNOWLEDGE_TIMEOUT", 10*time.Second)
	v.SetDefault("KNOWLEDGE_THRESHOLD", 0.7)
	v.SetDefault("KNOWLEDGE_MAX_CHUNKS", 5)

	v.SetDefault("LITERATURE_URL", "https://eutils.ncbi.nlm.nih.gov/entrez/eutils")
	v.SetDefault("LITERATURE_TIMEOUT", 10*time.Second)
	v.SetDefault("LITERATURE_MAX_RESULTS", 5)

	v.SetDefault("PHI_TOKEN_PREFIX", "PHI")
	v.SetDefault("PHI_MAX_SESSIONS", 0)

	v.SetDefault("SEVERITY_CONDITION_CACHE_TTL", 5*time.Minute)
	v.SetDefault("CASCADE_SOURCE_TIMEOUT", 10*time.Second)
}

func (c *Config) validate() error {
	var missing []string

	if c.Auth.Enabled && c.Auth.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if c.Formulary.Enabled {
		if c.Formulary.Host == "" {
			missing = append(missing, "FORMULARY_HOST")
		}
		if c.Formulary.User == "" {
			missing = append(missing, "FORMULARY_USER")
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}
