package config

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/harrylevesque/convoportal/internal/models"
)

type AppEnv string

const (
	ProductionEnv AppEnv = "production"
	StageEnv      AppEnv = "stage"
	DevelopEnv    AppEnv = "develop"
	LocalEnv      AppEnv = "local"
	TestEnv       AppEnv = "test"
)

// minCookieSecret is the shortest secret accepted for the wizard state codec.
const minCookieSecret = 32

type (
	// Config holds everything the portal reads at startup.
	Config struct {
		AppEnv        AppEnv        `yaml:"app_env"`
		HTTP          HTTP          `yaml:"http"`
		Log           Log           `yaml:"log"`
		Backend       Backend       `yaml:"backend"`
		Token         Token         `yaml:"token"`
		Cookie        Cookie        `yaml:"cookie"`
		Links         Links         `yaml:"links"`
		CORS          CORS          `yaml:"cors"`
		RedirectDelay time.Duration `yaml:"redirect_delay"`
		Plans         []models.Plan `yaml:"plans"`
	}

	HTTP struct {
		Addr            string        `yaml:"addr"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		TLSCert         string        `yaml:"tls_cert"`
		TLSKey          string        `yaml:"tls_key"`
	}

	Log struct {
		Level  string `yaml:"level"`  // debug, info, warn, error
		Format string `yaml:"format"` // text, json
		File   string `yaml:"file"`
	}

	Backend struct {
		BaseURL              string        `yaml:"base_url"`
		Timeout              time.Duration `yaml:"timeout"`
		SubscribeTokenSuffix string        `yaml:"subscribe_token_suffix"`
		UnsubscribePath      string        `yaml:"unsubscribe_path"`
	}

	// Token holds the key material session tokens are sealed with. It is
	// never sent to browsers.
	Token struct {
		Passphrase string `yaml:"passphrase"`
		Salt       string `yaml:"salt"`
		Iterations int    `yaml:"iterations"`
	}

	Cookie struct {
		Secret string        `yaml:"secret"`
		MaxAge time.Duration `yaml:"max_age"`
	}

	Links struct {
		GoogleSignIn string `yaml:"google_sign_in"`
		About        string `yaml:"about"`
		Support      string `yaml:"support"`
		Dashboard    string `yaml:"dashboard"`
		SupportEmail string `yaml:"support_email"`
	}

	CORS struct {
		AllowOrigin  string   `yaml:"allow_origin"`
		AllowMethods []string `yaml:"allow_methods"`
		AllowHeaders []string `yaml:"allow_headers"`
	}
)

// DefaultConfig returns the configuration used for every field a file leaves out.
func DefaultConfig() *Config {
	return &Config{
		AppEnv: LocalEnv,
		HTTP: HTTP{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
		Backend: Backend{
			BaseURL: "https://aipoool-convoai-backend.onrender.com",
			Timeout: 15 * time.Second,
		},
		Token: Token{
			Iterations: 100000,
		},
		Cookie: Cookie{
			MaxAge: time.Hour,
		},
		Links: Links{
			GoogleSignIn: "https://aipoool-convoai-backend.onrender.com/auth/google",
			About:        "https://aipoool.com/",
			Support:      "https://aipoool.com/support",
			Dashboard:    "https://aipoool.com/dashboard",
			SupportEmail: "support@aipoool.com",
		},
		CORS: CORS{
			AllowOrigin:  "https://aipoool-convoai-backend.onrender.com",
			AllowMethods: []string{"GET", "OPTIONS", "PATCH", "DELETE", "POST", "PUT"},
			AllowHeaders: []string{
				"Authorization", "X-CSRF-Token", "X-Requested-With", "Accept", "Accept-Version",
				"Content-Length", "Content-MD5", "Content-Type", "Date", "X-Api-Version",
			},
		},
		RedirectDelay: 5 * time.Second,
		Plans: []models.Plan{
			{
				ID:            "basic",
				Name:          "Basic",
				Price:         5.00,
				Features:      []string{"100 AI conversations/month", "Basic analytics", "Email support"},
				PaymentPlanID: "P-3W1751940G6571619M4RWSSQ",
			},
			{
				ID:            "pro",
				Name:          "Pro",
				Price:         7.00,
				Features:      []string{"Unlimited AI conversations", "Advanced analytics", "Priority email support", "Custom AI training"},
				Popular:       true,
				PaymentPlanID: "P-6LH90668L1438352TM4RWTAA",
			},
			{
				ID:            "plus",
				Name:          "Plus",
				Price:         10.00,
				Features:      []string{"Unlimited AI conversations", "Advanced analytics", "24/7 phone support", "Custom AI training", "Dedicated account manager"},
				PaymentPlanID: "P-12F21880NW994562AM4RWTOI",
			},
		},
	}
}

// Load reads a YAML file over the defaults, then applies environment
// overrides and validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read is Load without validation, for tools that need only part of the
// configuration.
func Read(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, errors.Wrap(err, "failed to read config")
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, errors.Wrap(err, "failed to parse config")
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return errors.Wrap(err, "failed to write config")
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PORTAL_ENV"); v != "" {
		c.AppEnv = AppEnv(v)
	}
	if v := os.Getenv("PORTAL_ADDR"); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv("PORTAL_BACKEND_URL"); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv("PORTAL_TOKEN_PASSPHRASE"); v != "" {
		c.Token.Passphrase = v
	}
	if v := os.Getenv("PORTAL_TOKEN_SALT"); v != "" {
		c.Token.Salt = v
	}
	if v := os.Getenv("PORTAL_COOKIE_SECRET"); v != "" {
		c.Cookie.Secret = v
	}
	if v := os.Getenv("PORTAL_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.Token.Passphrase == "" || c.Token.Salt == "" {
		return errors.New("config: token passphrase and salt are required (PORTAL_TOKEN_PASSPHRASE, PORTAL_TOKEN_SALT)")
	}
	if len(c.Cookie.Secret) < minCookieSecret {
		return errors.Errorf("config: cookie secret must be at least %d bytes (PORTAL_COOKIE_SECRET)", minCookieSecret)
	}
	if c.Backend.BaseURL == "" {
		return errors.New("config: backend base_url is required")
	}
	c.Backend.BaseURL = strings.TrimRight(c.Backend.BaseURL, "/")
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	if (c.HTTP.TLSCert == "") != (c.HTTP.TLSKey == "") {
		return errors.New("config: tls_cert and tls_key must be set together")
	}
	seen := make(map[string]bool, len(c.Plans))
	for _, p := range c.Plans {
		if err := p.Validate(); err != nil {
			return errors.Wrap(err, "config: plans")
		}
		if p.ID == "" || seen[p.ID] {
			return errors.Errorf("config: plan %q needs a unique id", p.Name)
		}
		seen[p.ID] = true
	}
	return nil
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (logrus.Level, error) {
	lvl, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return 0, errors.Wrap(err, "config: log level")
	}
	return lvl, nil
}

// Production reports whether the portal runs with production settings.
func (c *Config) Production() bool {
	return c.AppEnv == ProductionEnv
}
