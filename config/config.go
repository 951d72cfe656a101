package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del analizador.
type Config struct {
	Analyzer AnalyzerConfig `yaml:"analyzer"`
	Verdict  VerdictConfig  `yaml:"verdict"`
	Copy     CopyConfig     `yaml:"copy"`
	API      APIConfig      `yaml:"api"`
	Storage  StorageConfig  `yaml:"storage"`
	Redis    RedisConfig    `yaml:"redis"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Log      LogConfig      `yaml:"log"`
	Export   ExportConfig   `yaml:"export"`
}

// AnalyzerConfig son los filtros de elegibilidad y los límites de la ejecución.
type AnalyzerConfig struct {
	MinTrades           int     `yaml:"min_trades"`
	MinWinRate          float64 `yaml:"min_win_rate"`
	MinMarkets          int     `yaml:"min_markets"`
	MaxAvgTradeSize     float64 `yaml:"max_avg_trade_size"` // USDC
	MaxAvgBuyPrice      float64 `yaml:"max_avg_buy_price"`  // descarta quien solo compra favoritos casi seguros
	MinROI              float64 `yaml:"min_roi"`
	MinScore            float64 `yaml:"min_score"`
	RecencyHalfLifeDays float64 `yaml:"recency_half_life_days"`
	MaxTradesLookup     int     `yaml:"max_trades_lookup"`
	LeaderboardLimit    int     `yaml:"leaderboard_limit"`
	Workers             int     `yaml:"workers"` // 0 = NumCPU*2
}

// VerdictConfig son los umbrales de STRONG / MODERATE.
type VerdictConfig struct {
	StrongMinScore     float64 `yaml:"strong_min_score"`
	StrongMinWinRate   float64 `yaml:"strong_min_win_rate"`
	ModerateMinScore   float64 `yaml:"moderate_min_score"`
	ModerateMinWinRate float64 `yaml:"moderate_min_win_rate"`
}

// CopyConfig parametriza la recomendación de estrategia.
type CopyConfig struct {
	PortfolioBalance float64 `yaml:"portfolio_balance"` // USDC
}

// APIConfig contiene los base URLs de las APIs.
type APIConfig struct {
	DataBase  string `yaml:"data_base"`
	CLOBBase  string `yaml:"clob_base"`
	GammaBase string `yaml:"gamma_base"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, ":memory:" o "" para desactivar con -no-db
}

// RedisConfig activa la caché compartida de resoluciones. Addr vacío = desactivada.
type RedisConfig struct {
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	TTLHours   int    `yaml:"ttl_hours"`
	PoolSize   int    `yaml:"pool_size"`
	MaxRetries int    `yaml:"max_retries"`
}

// MetricsConfig controla el endpoint de Prometheus. Addr vacío = desactivado.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level      string `yaml:"level"`  // debug | info | warn | error
	Format     string `yaml:"format"` // text | json
	File       string `yaml:"file"`   // copia rotada del log; vacío = solo stderr
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// ExportConfig controla los CSV de salida.
type ExportConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
// Un path vacío o inexistente arranca con los defaults.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	case os.IsNotExist(err):
		// sin fichero: defaults + env
	default:
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	setDefaults(&cfg)

	return &cfg, nil
}

// ResolutionTTL devuelve el TTL de Redis como time.Duration.
func (c *Config) ResolutionTTL() time.Duration {
	return time.Duration(c.Redis.TTLHours) * time.Hour
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("ANALYZER_DB"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("PORTFOLIO_BALANCE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("PORTFOLIO_BALANCE %q: %w", v, err)
		}
		cfg.Copy.PortfolioBalance = f
	}
	return nil
}

// defaultConfig devuelve los umbrales por defecto. El YAML se decodifica
// encima, así que un 0 (o un negativo) explícito en el fichero se respeta.
func defaultConfig() Config {
	return Config{
		Analyzer: AnalyzerConfig{
			MinTrades:       10,
			MinWinRate:      0.50,
			MinMarkets:      3,
			MaxAvgTradeSize: 5000,
			MaxAvgBuyPrice:  0.98,
			MinROI:          0.05,
			MinScore:        5,
		},
		Verdict: VerdictConfig{
			StrongMinScore:     40,
			StrongMinWinRate:   0.55,
			ModerateMinScore:   25,
			ModerateMinWinRate: 0.52,
		},
	}
}

// setDefaults rellena los valores en los que un cero no tiene sentido.
func setDefaults(cfg *Config) {
	a := &cfg.Analyzer
	if a.RecencyHalfLifeDays <= 0 {
		a.RecencyHalfLifeDays = 30
	}
	if a.MaxTradesLookup <= 0 {
		a.MaxTradesLookup = 500
	}
	if a.LeaderboardLimit <= 0 {
		a.LeaderboardLimit = 60
	}

	if cfg.Copy.PortfolioBalance <= 0 {
		cfg.Copy.PortfolioBalance = 1000
	}
	if cfg.API.DataBase == "" {
		cfg.API.DataBase = "https://data-api.polymarket.com"
	}
	if cfg.API.CLOBBase == "" {
		cfg.API.CLOBBase = "https://clob.polymarket.com"
	}
	if cfg.API.GammaBase == "" {
		cfg.API.GammaBase = "https://gamma-api.polymarket.com"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "polycopy.db"
	}
	if cfg.Redis.TTLHours <= 0 {
		cfg.Redis.TTLHours = 24 * 30
	}
	if cfg.Redis.PoolSize <= 0 {
		cfg.Redis.PoolSize = 10
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Log.MaxSizeMB <= 0 {
		cfg.Log.MaxSizeMB = 50
	}
	if cfg.Log.MaxBackups <= 0 {
		cfg.Log.MaxBackups = 3
	}
	if cfg.Log.MaxAgeDays <= 0 {
		cfg.Log.MaxAgeDays = 14
	}
	if cfg.Export.Dir == "" {
		cfg.Export.Dir = "."
	}
}
