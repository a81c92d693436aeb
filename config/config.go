package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultSiteID     = "propi_en_planos"
	defaultListingURL = "https://www.propilatam.com/sv/venta/casas-y-apartamentos/proyectos"
	defaultOutputPath = "db/propi_en_planos"
)

type Config struct {
	Browser     BrowserConfig
	Waits       WaitConfig
	Scheduler   SchedulerConfig
	Postgres    PostgresConfig
	S3          S3Config
	DBPath      string
	LogPath     string
	LogMaxBytes int64
	SitesDir    string
	Sites       map[string]*SiteConfig
}

type BrowserConfig struct {
	Headless          bool
	UserDataDir       string
	InstallDriver     bool
	NavigationTimeout time.Duration
}

// WaitConfig holds the bound of every ready-wait call site.
type WaitConfig struct {
	Listing time.Duration
	Click   time.Duration
	Window  time.Duration
	Detail  time.Duration
	Units   time.Duration
}

type SchedulerConfig struct {
	Interval time.Duration
	Cron     string
}

// Enabled reports whether the process should stay up and re-run on a
// schedule instead of running once.
func (c SchedulerConfig) Enabled() bool {
	return c.Cron != "" || c.Interval > 0
}

type PostgresConfig struct {
	DBURL string
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
}

func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

type SiteConfig struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	ListingURL string `yaml:"listing_url"`
	OutputPath string `yaml:"output_path"`
}

// Load reads the environment and the site files under SITES_DIR. The
// default site is synthesised when no site file exists, and TARGET_URL and
// OUTPUT_PATH override its listing url and output path either way.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Browser: BrowserConfig{
			Headless:          getEnvBool("HEADLESS", true),
			UserDataDir:       os.Getenv("BROWSER_DATA_DIR"),
			InstallDriver:     getEnvBool("PLAYWRIGHT_INSTALL", false),
			NavigationTimeout: getEnvDuration("NAVIGATION_TIMEOUT", 30*time.Second),
		},
		Waits: WaitConfig{
			Listing: getEnvDuration("WAIT_LISTING", 10*time.Second),
			Click:   getEnvDuration("WAIT_CLICK", 10*time.Second),
			Window:  getEnvDuration("WAIT_WINDOW", 10*time.Second),
			Detail:  getEnvDuration("WAIT_DETAIL", 10*time.Second),
			Units:   getEnvDuration("WAIT_UNITS", 10*time.Second),
		},
		Scheduler: SchedulerConfig{
			Cron:     os.Getenv("SCRAPE_CRON"),
			Interval: getEnvDuration("SCRAPE_INTERVAL", 0),
		},
		Postgres: PostgresConfig{
			DBURL: os.Getenv("DATABASE_URL"),
		},
		S3: S3Config{
			Bucket:          os.Getenv("S3_BUCKET"),
			Region:          getEnv("S3_REGION", "us-east-1"),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
			Prefix:          getEnv("S3_PREFIX", "exports"),
		},
		DBPath:      getEnv("DB_PATH", "scraper.db"),
		LogPath:     getEnv("LOG_PATH", "scraper.log"),
		LogMaxBytes: int64(getEnvInt("LOG_MAX_BYTES", 2*1024*1024)),
		SitesDir:    getEnv("SITES_DIR", "config/sites"),
		Sites:       make(map[string]*SiteConfig),
	}

	if err := cfg.loadSiteConfigs(); err != nil {
		return nil, err
	}

	if len(cfg.Sites) == 0 {
		cfg.Sites[defaultSiteID] = &SiteConfig{
			ID:         defaultSiteID,
			Name:       "Propi en planos",
			ListingURL: defaultListingURL,
			OutputPath: defaultOutputPath,
		}
	}
	if site, ok := cfg.Sites[defaultSiteID]; ok {
		site.ListingURL = getEnv("TARGET_URL", site.ListingURL)
		site.OutputPath = getEnv("OUTPUT_PATH", site.OutputPath)
	}

	return cfg, nil
}

func (c *Config) loadSiteConfigs() error {
	entries, err := os.ReadDir(c.SitesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}

		path := filepath.Join(c.SitesDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		var site SiteConfig
		if err := yaml.Unmarshal(data, &site); err != nil {
			return err
		}
		if site.ID == "" {
			site.ID = entry.Name()[:len(entry.Name())-len(".yaml")]
		}
		if site.OutputPath == "" {
			site.OutputPath = filepath.Join("db", site.ID)
		}

		c.Sites[site.ID] = &site
	}

	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
