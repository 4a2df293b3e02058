package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env      string `yaml:"env"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	} `yaml:"server"`

	Storage struct {
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxOpenConns    int    `yaml:"max_open_conns"`
			MinIdleConns    int    `yaml:"min_idle_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		Kind  string `yaml:"kind"` // memory | redis
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	IDP struct {
		Region       string `yaml:"region"`
		UserPoolID   string `yaml:"user_pool_id"`
		ClientID     string `yaml:"client_id"`
		ClientSecret string `yaml:"client_secret"`
		Domain       string `yaml:"domain"`
		RedirectURI  string `yaml:"redirect_uri"`
		GroupsClaim  string `yaml:"groups_claim"`
		Admin        struct {
			BaseURL string `yaml:"base_url"`
			APIKey  string `yaml:"api_key"`
		} `yaml:"admin"`
	} `yaml:"idp"`

	Auth struct {
		AllowedDomain     string   `yaml:"allowed_domain"`
		AllowedGroups     []string `yaml:"allowed_groups"`
		InviteWindow      string   `yaml:"invite_window"`
		FrontendAcceptURL string   `yaml:"frontend_accept_url"`
		InternalAPIKey    string   `yaml:"internal_api_key"`
		Cookie            struct {
			Name     string `yaml:"name"`
			Domain   string `yaml:"domain"`
			SameSite string `yaml:"samesite"`
			Secure   bool   `yaml:"secure"`
		} `yaml:"cookie"`
	} `yaml:"auth"`

	SMTP struct {
		Host      string `yaml:"host"`
		Port      int    `yaml:"port"`
		User      string `yaml:"user"`
		Pass      string `yaml:"pass"`
		FromEmail string `yaml:"from_email"`
		TLS       string `yaml:"tls"` // auto | starttls | ssl | none
	} `yaml:"smtp"`

	Agent struct {
		BaseURL     string `yaml:"base_url"`
		AgentID     string `yaml:"agent_id"`
		AliasID     string `yaml:"alias_id"`
		ReadTimeout string `yaml:"read_timeout"`
		MaxRetries  int    `yaml:"max_retries"`
		RetryDelay  string `yaml:"retry_delay"`
	} `yaml:"agent"`

	Rate struct {
		Enabled bool `yaml:"enabled"`
		Accept  struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"accept"`
		Allowlist struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"allowlist"`
	} `yaml:"rate"`
}

func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	// sane defaults
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if len(c.Auth.AllowedGroups) == 0 {
		c.Auth.AllowedGroups = []string{"Agent", "Supervisor"}
	}
	if c.Auth.InviteWindow == "" {
		c.Auth.InviteWindow = "168h" // 7 días
	}
	if c.Auth.FrontendAcceptURL == "" {
		c.Auth.FrontendAcceptURL = "http://localhost:3000/invite/accept"
	}
	if c.Auth.Cookie.Name == "" {
		c.Auth.Cookie.Name = "id_token"
	}
	if c.Auth.Cookie.SameSite == "" {
		c.Auth.Cookie.SameSite = "Lax"
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.SMTP.TLS == "" {
		c.SMTP.TLS = "auto"
	}
	if c.Agent.ReadTimeout == "" {
		c.Agent.ReadTimeout = "120s"
	}
	if c.Agent.MaxRetries == 0 {
		c.Agent.MaxRetries = 3
	}
	if c.Agent.RetryDelay == "" {
		c.Agent.RetryDelay = "2s"
	}
	if c.Rate.Accept.Limit == 0 {
		c.Rate.Accept.Limit = 10
	}
	if c.Rate.Accept.Window == "" {
		c.Rate.Accept.Window = "1m"
	}
	if c.Rate.Allowlist.Limit == 0 {
		c.Rate.Allowlist.Limit = 60
	}
	if c.Rate.Allowlist.Window == "" {
		c.Rate.Allowlist.Window = "1m"
	}

	applyEnvOverrides(&c)
	return &c, nil
}

// applyEnvOverrides pisa los valores sensibles con variables de entorno.
// El YAML es para estructura y defaults; los secretos viven en el entorno.
func applyEnvOverrides(c *Config) {
	setStr(&c.Storage.DSN, "DB_DSN")
	setStr(&c.Cache.Redis.Addr, "REDIS_ADDR")
	setStr(&c.Cache.Redis.Password, "REDIS_PASSWORD")
	setStr(&c.IDP.Region, "IDP_REGION")
	setStr(&c.IDP.UserPoolID, "IDP_USER_POOL_ID")
	setStr(&c.IDP.ClientID, "IDP_CLIENT_ID")
	setStr(&c.IDP.ClientSecret, "IDP_CLIENT_SECRET")
	setStr(&c.IDP.Domain, "IDP_DOMAIN")
	setStr(&c.IDP.RedirectURI, "IDP_REDIRECT_URI")
	setStr(&c.IDP.Admin.BaseURL, "IDP_ADMIN_URL")
	setStr(&c.IDP.Admin.APIKey, "IDP_ADMIN_API_KEY")
	setStr(&c.Auth.InternalAPIKey, "INTERNAL_API_KEY")
	setStr(&c.Auth.AllowedDomain, "ALLOWED_EMAIL_DOMAIN")
	setStr(&c.SMTP.Host, "SMTP_HOST")
	setStr(&c.SMTP.User, "SMTP_USER")
	setStr(&c.SMTP.Pass, "SMTP_PASS")
	setStr(&c.SMTP.FromEmail, "SMTP_FROM")
	setInt(&c.SMTP.Port, "SMTP_PORT")
	setStr(&c.Agent.BaseURL, "AGENT_BASE_URL")
	setStr(&c.Agent.AgentID, "AGENT_ID")
	setStr(&c.Agent.AliasID, "AGENT_ALIAS_ID")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// InviteWindow parsea la ventana de validez de invitaciones.
func (c *Config) InviteWindow() time.Duration {
	d, err := time.ParseDuration(c.Auth.InviteWindow)
	if err != nil || d <= 0 {
		return 7 * 24 * time.Hour
	}
	return d
}

// Duration parsea una duración con fallback.
func Duration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
