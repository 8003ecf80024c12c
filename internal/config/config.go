// 包 config：进程配置，先加载 .env 文件，再从环境变量读取并填充默认值
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// 表格来源
const (
	TableSourceFile     = "file"
	TableSourcePostgres = "postgres"
)

type Postgres struct {
	Host     string
	Port     string
	User     string
	Password string
	DB       string
	SSLMode  string
	MaxOpen  int
	MaxIdle  int
}

type Redis struct {
	Host string
	Port string
	Pass string
	DB   int
}

// Addr 返回 host:port；Host 为空表示禁用 Redis
func (r Redis) Addr() string {
	if r.Host == "" {
		return ""
	}
	return r.Host + ":" + r.Port
}

type TLS struct {
	Enabled  bool
	CertPath string
	KeyPath  string
}

// Sources 为表格与几何数据源（本地路径或 http(s) URL）
type Sources struct {
	Deputes      string
	Maires       string
	Familles     string
	Regions      string
	Departements string
	Circos       string
	// Communes 为空时不加载市镇图层，缩放分带在最细一级停留在选区
	Communes string
}

// 文档注释：进程配置
// 背景：服务与导入工具共用一份配置；各字段都有可直接本地运行的默认值。
type Config struct {
	Addr           string
	APIBase        string
	UIDist         string
	DataDir        string
	Sources        Sources
	TableSource    string
	ProfileBaseURL string
	GeoIPDB        string
	LocateCacheTTL time.Duration
	RateLimitQPS   int
	RefreshHour    int
	Postgres       Postgres
	Redis          Redis
	TLS            TLS
}

// Load 读取 .env 与 data/env/.env（存在时），然后解析环境变量
func Load() Config {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	return FromEnv()
}

// FromEnv 仅解析当前环境变量
func FromEnv() Config {
	dataDir := env("DATA_DIR", "data")
	c := Config{
		Addr:    env("ADDR", ":8080"),
		APIBase: strings.TrimRight(env("API_BASE", "/api"), "/"),
		UIDist:  env("UI_DIST", filepath.Join("ui", "dist")),
		DataDir: dataDir,
		Sources: Sources{
			Deputes:      env("DEPUTES_SRC", filepath.Join(dataDir, "deputes.csv")),
			Maires:       env("MAIRES_SRC", filepath.Join(dataDir, "maires.csv")),
			Familles:     env("FAMILLES_SRC", filepath.Join(dataDir, "familles_politiques.csv")),
			Regions:      env("REGIONS_SRC", filepath.Join(dataDir, "regions.geojson")),
			Departements: env("DEPARTEMENTS_SRC", filepath.Join(dataDir, "departements.geojson")),
			Circos:       env("CIRCOS_SRC", filepath.Join(dataDir, "france-circonscriptions-legislatives-2012.geojson")),
			Communes:     envAllowEmpty("COMMUNES_SRC", filepath.Join(dataDir, "communes.geojson")),
		},
		TableSource:    strings.ToLower(env("TABLE_SOURCE", TableSourceFile)),
		ProfileBaseURL: env("PROFILE_BASE_URL", "https://datan.fr/deputes"),
		GeoIPDB:        env("GEOIP_DB", filepath.Join(dataDir, "GeoLite2-City.mmdb")),
		LocateCacheTTL: time.Duration(envInt("LOCATE_CACHE_TTL_S", 3600)) * time.Second,
		RateLimitQPS:   envInt("RATE_LIMIT_QPS", 0),
		RefreshHour:    envInt("REFRESH_HOUR", -1),
		Postgres: Postgres{
			Host:     env("PG_HOST", "localhost"),
			Port:     env("PG_PORT", "5432"),
			User:     env("PG_USER", "postgres"),
			Password: os.Getenv("PG_PASSWORD"),
			DB:       env("PG_DB", "carte"),
			SSLMode:  env("PG_SSLMODE", "disable"),
			MaxOpen:  envInt("PG_MAX_OPEN_CONNS", 10),
			MaxIdle:  envInt("PG_MAX_IDLE_CONNS", 5),
		},
		Redis: Redis{
			Host: envAllowEmpty("REDIS_HOST", "127.0.0.1"),
			Port: env("REDIS_PORT", "6379"),
			Pass: os.Getenv("REDIS_PASS"),
			DB:   envInt("REDIS_DB", 0),
		},
		TLS: TLS{
			Enabled:  os.Getenv("TLS_ENABLED") == "true",
			CertPath: env("TLS_CERT", filepath.Join(dataDir, "certs", "server.crt")),
			KeyPath:  env("TLS_KEY", filepath.Join(dataDir, "certs", "server.key")),
		},
	}
	if c.TableSource != TableSourcePostgres {
		c.TableSource = TableSourceFile
	}
	return c
}

// CommunesEnabled 表示是否配置了市镇图层
func (c Config) CommunesEnabled() bool { return c.Sources.Communes != "" }

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// envAllowEmpty 区分"未设置"与"显式设为空"，后者用于关闭可选功能
func envAllowEmpty(key, def string) string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	return strings.TrimSpace(v)
}

// envInt 解析失败时回退默认值
func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
