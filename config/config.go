package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Log           LogConfig           `mapstructure:"log"`
	Site          SiteConfig          `mapstructure:"site"`
	Pagination    PaginationConfig    `mapstructure:"pagination"`
	Feeds         FeedsConfig         `mapstructure:"feeds"`
	Taxonomy      TaxonomyConfig      `mapstructure:"taxonomy"`
	Bloomberg     BloombergConfig     `mapstructure:"bloomberg"`
	Reader        ReaderConfig        `mapstructure:"reader"`
	TTS           TTSConfig           `mapstructure:"tts"`
	SearchConsole SearchConsoleConfig `mapstructure:"search_console"`
	Ingest        IngestConfig        `mapstructure:"ingest"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"` // debug, release, test
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // sqlite, postgres
	Path   string `mapstructure:"path"`
	DSN    string `mapstructure:"dsn"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	Env   string `mapstructure:"env"`
}

type SiteConfig struct {
	Name        string `mapstructure:"name"`
	BaseURL     string `mapstructure:"base_url"`
	Description string `mapstructure:"description"`
	Language    string `mapstructure:"language"`
	Logo        string `mapstructure:"logo"`
	// GoogleVerification is rendered as the google-site-verification meta tag when set.
	GoogleVerification string `mapstructure:"google_verification"`
}

type PaginationConfig struct {
	ChannelLimit int `mapstructure:"channel_limit"`
	NewsLimit    int `mapstructure:"news_limit"`
	PostsLimit   int `mapstructure:"posts_limit"`
	MaxLimit     int `mapstructure:"max_limit"`
	LatestLimit  int `mapstructure:"latest_limit"`
}

type FeedsConfig struct {
	RSSLimit         int `mapstructure:"rss_limit"`
	NewsSitemapLimit int `mapstructure:"news_sitemap_limit"`
}

type TaxonomyConfig struct {
	// File overrides the embedded channel table when non-empty.
	File string `mapstructure:"file"`
}

type BloombergConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	PopularURL string        `mapstructure:"popular_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Cookie     string        `mapstructure:"cookie"`
	ProxyURL   string        `mapstructure:"proxy_url"`
	UserAgent  string        `mapstructure:"user_agent"`
}

type ReaderConfig struct {
	Backend string        `mapstructure:"backend"` // jina, readability
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
	// AllowPrivate lets the readability backend fetch loopback and private
	// network addresses.
	AllowPrivate bool `mapstructure:"allow_private"`
}

type TTSConfig struct {
	APIURL   string        `mapstructure:"api_url"`
	FilesURL string        `mapstructure:"files_url"`
	Voice    string        `mapstructure:"voice"`
	Rate     string        `mapstructure:"rate"`
	Volume   string        `mapstructure:"volume"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type SearchConsoleConfig struct {
	GooglePingURL string        `mapstructure:"google_ping_url"`
	BingPingURL   string        `mapstructure:"bing_ping_url"`
	LedgerPath    string        `mapstructure:"ledger_path"`
	UserAgent     string        `mapstructure:"user_agent"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type IngestConfig struct {
	Schedule string        `mapstructure:"schedule"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Feeds    []FeedSource  `mapstructure:"feeds"`
}

// FeedSource is one RSS/Atom feed the ingest command pulls into the article store.
type FeedSource struct {
	Name     string `mapstructure:"name"`
	URL      string `mapstructure:"url"`
	Source   string `mapstructure:"source"`
	Category string `mapstructure:"category"`
}

// Load 加载配置文件
// Values come from defaults, then the optional YAML file, then the environment.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load(".env")

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("NEWSDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// legacy variable names kept from the deployment environment
	legacy := map[string]string{
		"server.port":         "PORT",
		"server.mode":         "GIN_MODE",
		"database.path":       "DB_PATH",
		"database.dsn":        "DATABASE_URL",
		"bloomberg.cookie":    "BLOOMBERG_COOKIE",
		"bloomberg.proxy_url": "PROXY_URL",
		"reader.api_key":      "JINA_API_KEY",
	}
	for key, env := range legacy {
		if err := v.BindEnv(key, "NEWSDESK_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", configPath, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Site.BaseURL = strings.TrimRight(cfg.Site.BaseURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/news.db")
	v.SetDefault("database.dsn", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.env", "development")

	v.SetDefault("site.name", "Newsdesk")
	v.SetDefault("site.base_url", "http://localhost:3000")
	v.SetDefault("site.description", "Markets, business and technology news from Bloomberg, FT and Reuters in one place.")
	v.SetDefault("site.language", "en")
	v.SetDefault("site.logo", "/static/logo.svg")
	v.SetDefault("site.google_verification", "")

	v.SetDefault("pagination.channel_limit", 10)
	v.SetDefault("pagination.news_limit", 8)
	v.SetDefault("pagination.posts_limit", 6)
	v.SetDefault("pagination.max_limit", 100)
	v.SetDefault("pagination.latest_limit", 100)

	v.SetDefault("feeds.rss_limit", 50)
	v.SetDefault("feeds.news_sitemap_limit", 1000)

	v.SetDefault("taxonomy.file", "")

	v.SetDefault("bloomberg.base_url", "https://www.bloomberg.com")
	v.SetDefault("bloomberg.popular_url", "https://personalization.bloomberg.com/popular/resources")
	v.SetDefault("bloomberg.timeout", 20*time.Second)
	v.SetDefault("bloomberg.cookie", "")
	v.SetDefault("bloomberg.proxy_url", "")
	v.SetDefault("bloomberg.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36")

	v.SetDefault("reader.backend", "jina")
	v.SetDefault("reader.base_url", "https://r.jina.ai")
	v.SetDefault("reader.api_key", "")
	v.SetDefault("reader.timeout", 30*time.Second)
	v.SetDefault("reader.allow_private", false)

	v.SetDefault("tts.api_url", "https://fond-nina-ballpo-dba04486.koyeb.app/api/tts")
	v.SetDefault("tts.files_url", "https://fond-nina-ballpo-dba04486.koyeb.app")
	v.SetDefault("tts.voice", "en-US-JennyNeural")
	v.SetDefault("tts.rate", "-4%")
	v.SetDefault("tts.volume", "+0%")
	v.SetDefault("tts.timeout", 60*time.Second)

	v.SetDefault("search_console.google_ping_url", "https://www.google.com/ping")
	v.SetDefault("search_console.bing_ping_url", "https://www.bing.com/ping")
	v.SetDefault("search_console.ledger_path", "data/search-console.db")
	v.SetDefault("search_console.user_agent", "Newsdesk-GSC-Status-Checker/1.0")
	v.SetDefault("search_console.timeout", 10*time.Second)

	v.SetDefault("ingest.schedule", "*/30 * * * *")
	v.SetDefault("ingest.timeout", 30*time.Second)
}

// Validate rejects values the services cannot run with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite")
		}
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}

	switch c.Reader.Backend {
	case "jina", "readability":
	default:
		return fmt.Errorf("unsupported reader.backend %q", c.Reader.Backend)
	}

	limits := map[string]int{
		"pagination.channel_limit": c.Pagination.ChannelLimit,
		"pagination.news_limit":    c.Pagination.NewsLimit,
		"pagination.posts_limit":   c.Pagination.PostsLimit,
		"pagination.max_limit":     c.Pagination.MaxLimit,
		"pagination.latest_limit":  c.Pagination.LatestLimit,
		"feeds.rss_limit":          c.Feeds.RSSLimit,
		"feeds.news_sitemap_limit": c.Feeds.NewsSitemapLimit,
	}
	for key, val := range limits {
		if val <= 0 {
			return fmt.Errorf("invalid %s (must be positive)", key)
		}
	}

	timeouts := map[string]time.Duration{
		"server.read_timeout":    c.Server.ReadTimeout,
		"server.write_timeout":   c.Server.WriteTimeout,
		"bloomberg.timeout":      c.Bloomberg.Timeout,
		"reader.timeout":         c.Reader.Timeout,
		"tts.timeout":            c.TTS.Timeout,
		"search_console.timeout": c.SearchConsole.Timeout,
		"ingest.timeout":         c.Ingest.Timeout,
	}
	for key, val := range timeouts {
		if val <= 0 {
			return fmt.Errorf("invalid %s (must be a positive duration)", key)
		}
	}
	return nil
}

// GetServerAddress 获取服务器监听地址
func (c *Config) GetServerAddress() string {
	// 如果端口是纯数字,加上冒号前缀
	if _, err := strconv.Atoi(c.Server.Port); err == nil {
		return ":" + c.Server.Port
	}
	return c.Server.Port
}
