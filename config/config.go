package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用程序配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"` // 服务器主机
	Port int    `mapstructure:"port"` // 服务器端口
}

// StorageConfig 上传暂存配置
type StorageConfig struct {
	Type      string `mapstructure:"type"`     // 存储类型：local 或 minio
	Path      string `mapstructure:"path"`     // 本地存储路径
	Bucket    string `mapstructure:"bucket"`   // MinIO桶名称
	Endpoint  string `mapstructure:"endpoint"` // MinIO端点
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"` // 是否使用SSL
}

// LLMConfig 大语言模型配置
type LLMConfig struct {
	Provider        string        `mapstructure:"provider"`         // 提供商，目前是tongyi
	Model           string        `mapstructure:"model"`            // 模型名称
	APIKey          string        `mapstructure:"api_key"`          // API密钥
	Endpoint        string        `mapstructure:"endpoint"`         // API端点
	MaxRetries      int           `mapstructure:"max_retries"`      // 瞬时错误最大重试次数
	ClassifyTimeout time.Duration `mapstructure:"classify_timeout"` // 分类调用超时
	ExtractTimeout  time.Duration `mapstructure:"extract_timeout"`  // 抽取调用超时
}

// CacheConfig 结果缓存配置
type CacheConfig struct {
	Enable   bool   `mapstructure:"enable"`   // 是否启用缓存
	Type     string `mapstructure:"type"`     // 缓存类型：memory 或 redis
	Address  string `mapstructure:"address"`  // Redis地址
	Password string `mapstructure:"password"` // Redis密码
	DB       int    `mapstructure:"db"`       // Redis数据库
	TTL      int    `mapstructure:"ttl"`      // 缓存TTL（秒）
}

// AnalysisConfig 分析流水线配置
type AnalysisConfig struct {
	MaxChunkChars       int           `mapstructure:"max_chunk_chars"`      // 单chunk字符上限
	MinChunkWords       int           `mapstructure:"min_chunk_words"`      // 页面/chunk最少单词数
	ConfidenceThreshold float64       `mapstructure:"confidence_threshold"` // 条目最低置信度
	Cooldown            time.Duration `mapstructure:"cooldown"`             // 两次请求间的冷却间隔
	MaxUploadBytes      int64         `mapstructure:"max_upload_bytes"`     // 上传大小上限
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`       // 日志级别
	File       string `mapstructure:"file"`        // 日志文件路径，为空时输出到stdout
	MaxSizeMB  int    `mapstructure:"max_size_mb"` // 单个日志文件大小上限
	MaxBackups int    `mapstructure:"max_backups"` // 保留的轮转文件数量
}

// Load 从文件和环境变量加载配置
func Load(configPath string) (*Config, error) {
	var config Config

	if configPath == "" {
		configPath = "config.yaml"
	}

	v := viper.New()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok || os.IsNotExist(err) {
			log.Printf("Warning: Config file not found at %s, using defaults", configPath)
		} else {
			return nil, fmt.Errorf("failed to read config file: %v", err)
		}
	} else {
		log.Printf("Using config file: %s", v.ConfigFileUsed())
	}

	setDefaults(v)

	// 支持环境变量覆盖
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %v", err)
	}

	return expandEnvPlaceholders(&config), nil
}

// expandEnvPlaceholders 处理配置中${VAR}形式的环境变量引用
func expandEnvPlaceholders(cfg *Config) *Config {
	cfg.LLM.APIKey = expand(cfg.LLM.APIKey)
	cfg.Storage.AccessKey = expand(cfg.Storage.AccessKey)
	cfg.Storage.SecretKey = expand(cfg.Storage.SecretKey)
	cfg.Cache.Password = expand(cfg.Cache.Password)
	return cfg
}

func expand(value string) string {
	if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
		envVar := value[2 : len(value)-1]
		if envVal := os.Getenv(envVar); envVal != "" {
			return envVal
		}
	}
	return value
}

// setDefaults 设置配置的默认值
func setDefaults(v *viper.Viper) {
	// 服务器默认配置
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	// 存储默认配置
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.path", "./uploads")
	v.SetDefault("storage.bucket", "news-analysis")
	v.SetDefault("storage.use_ssl", false)

	// LLM默认配置
	v.SetDefault("llm.provider", "tongyi")
	v.SetDefault("llm.model", "qwen-turbo")
	v.SetDefault("llm.api_key", "${DASHSCOPE_API_KEY}")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.classify_timeout", "30s")
	v.SetDefault("llm.extract_timeout", "90s")

	// 缓存默认配置
	v.SetDefault("cache.enable", true)
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", 86400) // 24小时

	// 分析流水线默认配置
	v.SetDefault("analysis.max_chunk_chars", 4000)
	v.SetDefault("analysis.min_chunk_words", 20)
	v.SetDefault("analysis.confidence_threshold", 0.55)
	v.SetDefault("analysis.cooldown", "10s")
	v.SetDefault("analysis.max_upload_bytes", 15*1024*1024) // 15MB

	// 日志默认配置
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
}
