package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 分类器选择
const (
	ClassifierHeuristic = "heuristic"
	ClassifierLLM       = "llm"
)

// ServerConfig 定义 HTTP 服务器的监听配置参数
type ServerConfig struct {
	Host string // 监听地址，默认 "0.0.0.0"
	Port int    // 监听端口，默认 8080
}

// GmailConfig 定义 Gmail OAuth 应用凭据。
// 缺失时启动直接失败，绝不退化为静默空操作。
type GmailConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// OpenAIConfig 定义语言模型服务配置，仅在 scan.classifier=llm 时必填
type OpenAIConfig struct {
	APIKey string
	Model  string // 默认 gpt-4o-mini
}

// ScanConfig 定义收件箱扫描的行为参数
type ScanConfig struct {
	Query         string  // Gmail 查询语句，默认 "in:inbox"
	MaxResults    int64   // 单次扫描最多处理的消息数，默认 50
	BatchSize     int     // 并行拉取的批大小，默认 20
	MinConfidence float64 // 落库置信度阈值，默认 0.7
	Classifier    string  // heuristic 或 llm
	BodyLimit     int     // 正文截断长度，默认 1500
}

// CORSConfig 定义跨域资源共享 (CORS) 配置
type CORSConfig struct {
	AllowedOrigins []string
}

// LogConfig 定义日志系统配置
type LogConfig struct {
	Level       string // 日志级别: debug, info, warn, error
	Development bool   // 开发模式: 彩色控制台输出
}

// DatabaseConfig 定义 PostgreSQL 连接配置，DSN 为空时使用内存存储
type DatabaseConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig 定义 Redis 缓存配置，Address 为空时不启用扫描标记缓存
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// JWTConfig 定义 JWT 认证相关配置
type JWTConfig struct {
	Secret        string
	Issuer        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

// Config 是系统核心配置的根结构体
type Config struct {
	Server   ServerConfig
	Gmail    GmailConfig
	OpenAI   OpenAIConfig
	Scan     ScanConfig
	CORS     CORSConfig
	Log      LogConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
}

// Load 从环境变量和 .env 文件加载系统配置
//
// 配置加载优先级（从高到低）：
//  1. 系统环境变量
//  2. .env 文件（如果存在）
//  3. 默认值
//
// 环境变量前缀: NBOXIE_
// 例如: NBOXIE_GMAIL_CLIENT_ID, NBOXIE_SCAN_CLASSIFIER
//
// 缺失必要凭据（Gmail OAuth、llm 模式下的 OpenAI Key、JWT secret）
// 视为致命错误，直接返回失败。
func Load() (*Config, error) {
	loadEnvFile()

	viper.SetEnvPrefix("nboxie")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("gmail.client_id", "")
	viper.SetDefault("gmail.client_secret", "")
	viper.SetDefault("gmail.redirect_url", "")
	viper.SetDefault("openai.api_key", "")
	viper.SetDefault("openai.model", "gpt-4o-mini")
	viper.SetDefault("scan.query", "in:inbox")
	viper.SetDefault("scan.max_results", 50)
	viper.SetDefault("scan.batch_size", 20)
	viper.SetDefault("scan.min_confidence", 0.7)
	viper.SetDefault("scan.classifier", ClassifierHeuristic)
	viper.SetDefault("scan.body_limit", 1500)
	viper.SetDefault("cors.allowed_origins", "*")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.development", false)
	viper.SetDefault("database.dsn", "")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", "5m")
	viper.SetDefault("redis.address", "")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("jwt.secret", "change-me-in-production")
	viper.SetDefault("jwt.issuer", "nboxie")
	viper.SetDefault("jwt.access_expiry", "15m")
	viper.SetDefault("jwt.refresh_expiry", "168h")

	classifier := strings.ToLower(viper.GetString("scan.classifier"))
	if classifier != ClassifierHeuristic && classifier != ClassifierLLM {
		return nil, fmt.Errorf("invalid scan.classifier %q: must be %q or %q", classifier, ClassifierHeuristic, ClassifierLLM)
	}

	gmailClientID := viper.GetString("gmail.client_id")
	gmailClientSecret := viper.GetString("gmail.client_secret")
	if gmailClientID == "" || gmailClientSecret == "" {
		return nil, fmt.Errorf("gmail.client_id and gmail.client_secret are required: set NBOXIE_GMAIL_CLIENT_ID and NBOXIE_GMAIL_CLIENT_SECRET")
	}

	openaiKey := viper.GetString("openai.api_key")
	if classifier == ClassifierLLM && openaiKey == "" {
		return nil, fmt.Errorf("openai.api_key is required when scan.classifier is %q", ClassifierLLM)
	}

	jwtSecret := viper.GetString("jwt.secret")
	if jwtSecret == "change-me-in-production" {
		return nil, fmt.Errorf("SECURITY ERROR: JWT secret cannot be the default value. Please set NBOXIE_JWT_SECRET environment variable")
	}
	if len(jwtSecret) < 32 {
		return nil, fmt.Errorf("SECURITY ERROR: JWT secret must be at least 32 characters long")
	}

	minConfidence := viper.GetFloat64("scan.min_confidence")
	if minConfidence < 0 || minConfidence > 1 {
		return nil, fmt.Errorf("scan.min_confidence must be within [0, 1], got %v", minConfidence)
	}

	maxResults := viper.GetInt64("scan.max_results")
	if maxResults <= 0 {
		maxResults = 50
	}

	batchSize := viper.GetInt("scan.batch_size")
	if batchSize <= 0 {
		batchSize = 20
	}

	bodyLimit := viper.GetInt("scan.body_limit")
	if bodyLimit <= 0 {
		bodyLimit = 1500
	}

	corsOrigins := parseList(viper.GetString("cors.allowed_origins"))
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	connMaxLifetime, err := time.ParseDuration(viper.GetString("database.conn_max_lifetime"))
	if err != nil {
		connMaxLifetime = 5 * time.Minute
	}

	accessExpiry, err := time.ParseDuration(viper.GetString("jwt.access_expiry"))
	if err != nil {
		accessExpiry = 15 * time.Minute
	}

	refreshExpiry, err := time.ParseDuration(viper.GetString("jwt.refresh_expiry"))
	if err != nil {
		refreshExpiry = 7 * 24 * time.Hour
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: viper.GetString("server.host"),
			Port: viper.GetInt("server.port"),
		},
		Gmail: GmailConfig{
			ClientID:     gmailClientID,
			ClientSecret: gmailClientSecret,
			RedirectURL:  viper.GetString("gmail.redirect_url"),
		},
		OpenAI: OpenAIConfig{
			APIKey: openaiKey,
			Model:  viper.GetString("openai.model"),
		},
		Scan: ScanConfig{
			Query:         viper.GetString("scan.query"),
			MaxResults:    maxResults,
			BatchSize:     batchSize,
			MinConfidence: minConfidence,
			Classifier:    classifier,
			BodyLimit:     bodyLimit,
		},
		CORS: CORSConfig{
			AllowedOrigins: corsOrigins,
		},
		Log: LogConfig{
			Level:       viper.GetString("log.level"),
			Development: viper.GetBool("log.development"),
		},
		Database: DatabaseConfig{
			DSN:             viper.GetString("database.dsn"),
			MaxOpenConns:    viper.GetInt("database.max_open_conns"),
			MaxIdleConns:    viper.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: connMaxLifetime,
		},
		Redis: RedisConfig{
			Address:  viper.GetString("redis.address"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:        jwtSecret,
			Issuer:        viper.GetString("jwt.issuer"),
			AccessExpiry:  accessExpiry,
			RefreshExpiry: refreshExpiry,
		},
	}

	return cfg, nil
}

// parseList 将逗号分隔的字符串解析为字符串切片
func parseList(value string) []string {
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// loadEnvFile 尝试加载 .env 文件，不存在时静默跳过
func loadEnvFile() {
	if err := godotenv.Load(".env"); err == nil {
		return
	}

	parentEnv := filepath.Join("..", ".env")
	if _, err := os.Stat(parentEnv); err == nil {
		_ = godotenv.Load(parentEnv)
	}
}
