package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	SnipeIT   SnipeITConfig   `mapstructure:"snipeit"`
	Jira      JiraConfig      `mapstructure:"jira"`
	Webhook   WebhookConfig   `mapstructure:"webhook"`
	Fields    FieldsConfig    `mapstructure:"fields"`
	Sync      SyncConfig      `mapstructure:"sync"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port      int   `mapstructure:"port"       validate:"min=1,max=65535"`
	BodyLimit int64 `mapstructure:"body_limit" validate:"min=1024"` // 请求体上限（字节）
}

// SnipeITConfig 资产管理系统（Snipe-IT）接入配置
type SnipeITConfig struct {
	BaseURL  string        `mapstructure:"base_url"  validate:"required,url"`
	Token    string        `mapstructure:"token"     validate:"required"`
	Timeout  time.Duration `mapstructure:"timeout"`
	PageSize int           `mapstructure:"page_size" validate:"min=1,max=500"`
}

// JiraConfig 工单系统（Jira）接入配置
type JiraConfig struct {
	BaseURL            string        `mapstructure:"base_url"  validate:"required,url"`
	Email              string        `mapstructure:"email"`
	APIToken           string        `mapstructure:"api_token" validate:"required"`
	Timeout            time.Duration `mapstructure:"timeout"`
	PostSummaryComment bool          `mapstructure:"post_summary_comment"`
}

// WebhookConfig 入站 Webhook 鉴权配置
// Secret 为空时不校验签名（仅用于本地调试）
type WebhookConfig struct {
	Secret string        `mapstructure:"secret"`
	Issuer string        `mapstructure:"issuer"`
	TTL    time.Duration `mapstructure:"ttl"`
}

// CategoryField 工单自定义字段与资产分类的对应关系
type CategoryField struct {
	ID       string `mapstructure:"id"       validate:"required,numeric"`
	Category string `mapstructure:"category" validate:"required"`
}

// Key 返回 Webhook 载荷中的字段键名，例如 customfield_11720
func (f CategoryField) Key() string {
	return FieldKey(f.ID)
}

// FieldsConfig 载荷字段映射
type FieldsConfig struct {
	Location    string          `mapstructure:"location"     validate:"required"`
	Company     string          `mapstructure:"company"      validate:"required"`
	RequestType string          `mapstructure:"request_type" validate:"required"`
	Categories  []CategoryField `mapstructure:"categories"   validate:"required,min=1,dive"`
}

// SyncConfig 自定义字段选项定时同步配置
// Interval 为 0 时关闭定时任务，仅支持手动触发
type SyncConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// RedisConfig Redis 缓存配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// RateLimitConfig Webhook 限流配置
type RateLimitConfig struct {
	Limit  int           `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"` // 为空时仅输出到 stdout
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// FieldKey 将自定义字段数字 ID 转换为 customfield_xxx 形式
func FieldKey(id string) string {
	if strings.HasPrefix(id, "customfield_") {
		return id
	}
	return "customfield_" + id
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > .env > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	// .env 仅补充尚未设置的环境变量
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("读取 .env 失败: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("ACCSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.body_limit", 1<<20)

	v.SetDefault("snipeit.base_url", "")
	v.SetDefault("snipeit.token", "")
	v.SetDefault("snipeit.timeout", "30s")
	v.SetDefault("snipeit.page_size", 500)

	v.SetDefault("jira.base_url", "")
	v.SetDefault("jira.email", "")
	v.SetDefault("jira.api_token", "")
	v.SetDefault("jira.timeout", "30s")
	v.SetDefault("jira.post_summary_comment", false)

	v.SetDefault("webhook.secret", "")
	v.SetDefault("webhook.issuer", "")
	v.SetDefault("webhook.ttl", "5m")

	v.SetDefault("fields.location", "customfield_11213")
	v.SetDefault("fields.company", "customfield_11337")
	v.SetDefault("fields.request_type", "customfield_11745")
	v.SetDefault("fields.categories", DefaultCategoryFields())

	v.SetDefault("sync.interval", "0s")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("rate_limit.limit", 60)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 14)
}

// DefaultCategoryFields 默认的分类字段映射（顺序即载荷解析顺序）
func DefaultCategoryFields() []map[string]string {
	return []map[string]string{
		{"id": "11720", "category": "Headphones"},
		{"id": "11724", "category": "Keyboard"},
		{"id": "11725", "category": "Monitor"},
		{"id": "11726", "category": "Mouse"},
		{"id": "11727", "category": "Miscellaneous Hardware"},
		{"id": "11728", "category": "Offsite Equipment"},
	}
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}
	if c.Webhook.Secret != "" && len(c.Webhook.Secret) < 16 {
		return fmt.Errorf("配置校验失败: webhook.secret 长度不能少于 16 字符")
	}
	if c.Jira.Email == "" && strings.Contains(c.Jira.BaseURL, "atlassian.net") {
		return fmt.Errorf("配置校验失败: Jira Cloud 需要配置 jira.email")
	}
	seen := make(map[string]bool, len(c.Fields.Categories))
	for _, f := range c.Fields.Categories {
		if seen[f.ID] {
			return fmt.Errorf("配置校验失败: fields.categories 中字段 %s 重复", f.ID)
		}
		seen[f.ID] = true
	}
	return nil
}
