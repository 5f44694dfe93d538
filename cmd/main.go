package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fyerfyer/news-analysis-system/api"
	"github.com/fyerfyer/news-analysis-system/api/handler"
	"github.com/fyerfyer/news-analysis-system/api/middleware"
	appconfig "github.com/fyerfyer/news-analysis-system/config"
	"github.com/fyerfyer/news-analysis-system/internal/analysis"
	"github.com/fyerfyer/news-analysis-system/internal/cache"
	"github.com/fyerfyer/news-analysis-system/internal/document"
	"github.com/fyerfyer/news-analysis-system/internal/llm"
	"github.com/fyerfyer/news-analysis-system/internal/services"
	"github.com/fyerfyer/news-analysis-system/pkg/storage"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	// 加载.env文件（可选）
	_ = godotenv.Load()

	// 解析命令行参数
	configPath := flag.String("config", "config.yaml", "Path to config file")
	mode := flag.String("mode", "release", "Run mode (debug/release)")
	flag.Parse()

	// 加载配置
	cfg, err := appconfig.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 设置Gin模式
	gin.SetMode(*mode)

	// 初始化日志
	logger := setupLogger(cfg.Log)
	logger.Info("Starting News Analysis System...")

	// 创建文件暂存服务
	fileStorage, err := setupStorage(cfg.Storage)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}

	// 创建大语言模型客户端
	llmClient, err := setupLLM(cfg.LLM)
	if err != nil {
		logger.Fatalf("Failed to initialize LLM client: %v", err)
	}

	// 创建结果缓存
	resultCache, err := setupCache(cfg.Cache)
	if err != nil {
		logger.Fatalf("Failed to initialize cache: %v", err)
	}

	// 创建请求门卫
	governor := services.NewGovernor(cfg.Analysis.Cooldown)

	// 创建分块器
	chunker := document.NewChunker(document.ChunkerConfig{
		MaxChunkChars: cfg.Analysis.MaxChunkChars,
		MinWords:      cfg.Analysis.MinChunkWords,
	})

	// 创建分类器和抽取器
	classifier := analysis.NewClassifier(llmClient, logger).
		WithTimeout(cfg.LLM.ClassifyTimeout)
	extractor := analysis.NewExtractor(llmClient, logger).
		WithTimeout(cfg.LLM.ExtractTimeout).
		WithThreshold(cfg.Analysis.ConfidenceThreshold)

	// 组装分析服务
	analyzeService := services.NewAnalyzeService(
		fileStorage,
		llmClient,
		governor,
		resultCache,
		logger,
		services.WithChunker(chunker),
		services.WithClassifier(classifier),
		services.WithExtractor(extractor),
		services.WithCacheTTL(time.Duration(cfg.Cache.TTL)*time.Second),
	)

	// 初始化API处理器和路由
	analyzeHandler := handler.NewAnalyzeHandler(analyzeService, cfg.Analysis.MaxUploadBytes)
	r := api.SetupRouter(analyzeHandler)

	// 启动HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // 分析请求是同步的，给流水线留足时间
	}

	// 优雅关闭
	go func() {
		logger.Infof("Server is running on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// 等待终止信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// 创建带超时的上下文
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 优雅关闭服务器
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

// setupLogger 设置日志系统
func setupLogger(cfg appconfig.LogConfig) *logrus.Logger {
	logger := middleware.GetLogger()

	// 设置日志级别
	switch cfg.Level {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "info":
		logger.SetLevel(logrus.InfoLevel)
	case "warn":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	// 配置了日志文件时启用轮转，同时保留stdout输出
	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			Compress:   true,
		}
		logger.SetOutput(io.MultiWriter(os.Stdout, rotator))
	}

	return logger
}

// setupStorage 设置文件暂存服务
func setupStorage(cfg appconfig.StorageConfig) (storage.Storage, error) {
	switch cfg.Type {
	case "minio":
		return storage.NewMinioStorage(storage.MinioConfig{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			UseSSL:    cfg.UseSSL,
			Bucket:    cfg.Bucket,
		})
	case "local", "":
		if err := os.MkdirAll(cfg.Path, 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %v", err)
		}
		return storage.NewLocalStorage(storage.LocalConfig{
			Path: cfg.Path,
		})
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// setupLLM 设置大语言模型客户端
func setupLLM(cfg appconfig.LLMConfig) (llm.Client, error) {
	if cfg.APIKey == "" || cfg.APIKey == "${DASHSCOPE_API_KEY}" {
		return nil, fmt.Errorf("LLM API key is required (set DASHSCOPE_API_KEY)")
	}

	opts := []llm.Option{
		llm.WithAPIKey(cfg.APIKey),
		llm.WithModel(cfg.Model),
		llm.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, llm.WithBaseURL(cfg.Endpoint))
	}

	return llm.NewClient(cfg.Provider, opts...)
}

// setupCache 设置结果缓存
func setupCache(cfg appconfig.CacheConfig) (cache.Cache, error) {
	if !cfg.Enable {
		return nil, nil
	}

	cacheConfig := cache.Config{
		Type:            cfg.Type,
		DefaultTTL:      time.Duration(cfg.TTL) * time.Second,
		CleanupInterval: 10 * time.Minute,
	}

	// 如果配置了Redis，添加Redis配置
	if cfg.Type == "redis" {
		cacheConfig.RedisAddr = cfg.Address
		cacheConfig.RedisPassword = cfg.Password
		cacheConfig.RedisDB = cfg.DB
	}

	return cache.NewCache(cacheConfig)
}
