package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/news-analysis-system/internal/analysis"
	"github.com/fyerfyer/news-analysis-system/internal/cache"
	"github.com/fyerfyer/news-analysis-system/internal/document"
	"github.com/fyerfyer/news-analysis-system/internal/llm"
	"github.com/fyerfyer/news-analysis-system/pkg/storage"
)

// ErrNoUsableText 文档解析成功但没有产出任何可用chunk
var ErrNoUsableText = errors.New("document contains no usable text segments")

// AnalyzeService 文档分析服务
// 串起完整流水线：暂存 -> 解析 -> 分块 -> 分类 -> 按分类抽取 -> 合并
type AnalyzeService struct {
	fileStorage storage.Storage      // 上传暂存
	chunker     *document.Chunker    // 分块器
	classifier  *analysis.Classifier // 分类器
	extractor   *analysis.Extractor  // 抽取器
	governor    *Governor            // 请求门卫
	resultCache cache.Cache          // 结果缓存
	cacheTTL    time.Duration        // 结果缓存有效期
	logger      *logrus.Logger       // 日志记录器
}

// AnalyzeOption 分析服务配置选项
type AnalyzeOption func(*AnalyzeService)

// NewAnalyzeService 创建分析服务实例
func NewAnalyzeService(
	fileStorage storage.Storage,
	llmClient llm.Client,
	governor *Governor,
	resultCache cache.Cache,
	logger *logrus.Logger,
	opts ...AnalyzeOption,
) *AnalyzeService {
	service := &AnalyzeService{
		fileStorage: fileStorage,
		chunker:     document.NewChunker(document.DefaultChunkerConfig()),
		classifier:  analysis.NewClassifier(llmClient, logger),
		extractor:   analysis.NewExtractor(llmClient, logger),
		governor:    governor,
		resultCache: resultCache,
		cacheTTL:    24 * time.Hour,
		logger:      logger,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service
}

// WithChunker 设置自定义分块器
func WithChunker(chunker *document.Chunker) AnalyzeOption {
	return func(s *AnalyzeService) {
		s.chunker = chunker
	}
}

// WithClassifier 设置自定义分类器
func WithClassifier(classifier *analysis.Classifier) AnalyzeOption {
	return func(s *AnalyzeService) {
		s.classifier = classifier
	}
}

// WithExtractor 设置自定义抽取器
func WithExtractor(extractor *analysis.Extractor) AnalyzeOption {
	return func(s *AnalyzeService) {
		s.extractor = extractor
	}
}

// WithCacheTTL 设置结果缓存有效期
func WithCacheTTL(ttl time.Duration) AnalyzeOption {
	return func(s *AnalyzeService) {
		s.cacheTTL = ttl
	}
}

// GovernorStatus 返回门卫状态快照
func (s *AnalyzeService) GovernorStatus() GovernorStatus {
	return s.governor.Status()
}

// Analyze 对上传的文档执行完整分析
// 失败是文档级的全有或全无：出错时不返回部分结果
// 单个分类的失败在内部吸收，只体现为空分类和摘要里的失败记录
func (s *AnalyzeService) Analyze(ctx context.Context, data []byte, filename string) (*analysis.Document, error) {
	// 相同内容的重复上传直接走缓存，不占用门卫也不消耗模型调用
	cacheKey := cache.GenerateCacheKey("analysis", cache.ContentHash(data))
	if s.resultCache != nil {
		if cached, found, err := s.resultCache.Get(cacheKey); err == nil && found {
			var doc analysis.Document
			if err := json.Unmarshal([]byte(cached), &doc); err == nil {
				s.logger.WithFields(logrus.Fields{
					"filename": filename,
				}).Info("Analysis served from cache")
				return &doc, nil
			}
			// 缓存内容损坏就当没有，继续正常流程
			_ = s.resultCache.Delete(cacheKey)
		}
	}
	// 门卫占用必须在所有退出路径上释放
	if err := s.governor.Acquire(); err != nil {
		return nil, err
	}
	defer s.governor.Release()

	// 上传内容暂存，分析结束（无论成败）立即清除
	fileInfo, err := s.fileStorage.Save(bytes.NewReader(data), filename)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := s.fileStorage.Delete(fileInfo.ID); err != nil {
			s.logger.WithFields(logrus.Fields{
				"file_id": fileInfo.ID,
				"error":   err.Error(),
			}).Warn("Failed to purge uploaded file")
		}
	}()

	doc, err := s.runPipeline(ctx, fileInfo, filename)
	if err != nil {
		return nil, err
	}

	// 缓存写入失败不影响结果返回
	if s.resultCache != nil {
		if encoded, err := json.Marshal(doc); err == nil {
			_ = s.resultCache.Set(cacheKey, string(encoded), s.cacheTTL)
		}
	}

	return doc, nil
}

// runPipeline 执行解析到合并的各个阶段
func (s *AnalyzeService) runPipeline(ctx context.Context, fileInfo storage.FileInfo, filename string) (*analysis.Document, error) {
	start := time.Now()

	localPath, cleanup, err := s.fileStorage.Materialize(fileInfo.ID)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	// 1. 解析：按页提取文本，过短的文档在这里被拒绝
	pages, err := document.ParseDocument(localPath)
	if err != nil {
		return nil, err
	}

	// 2. 分块
	chunks := s.chunker.Chunk(pages)
	if len(chunks) == 0 {
		return nil, ErrNoUsableText
	}

	s.logger.WithFields(logrus.Fields{
		"filename": filename,
		"pages":    len(pages),
		"chunks":   len(chunks),
	}).Info("Document chunked")

	// 3. 分类（失败时内部降级为全量映射）
	mapping := s.classifier.Classify(ctx, chunks)

	// 4. 按分类并发抽取
	results, failures := s.extractAll(ctx, mapping, chunks, filename)

	// 发起过调用的分类全部失败时按文档级失败处理
	// 限流和鉴权错误优先上报，调用方需要区别对待
	if len(failures) > 0 && len(results) == 0 {
		var firstErr error
		for _, err := range failures {
			if llm.IsRateLimited(err) || llm.IsAuthDenied(err) {
				return nil, err
			}
			if firstErr == nil {
				firstErr = err
			}
		}
		return nil, firstErr
	}

	// 5. 合并
	failedCategories := make([]string, 0, len(failures))
	for category := range failures {
		failedCategories = append(failedCategories, category)
	}

	doc := analysis.Merge(filename, results, len(chunks), failedCategories)

	s.logger.WithFields(logrus.Fields{
		"filename": filename,
		"items":    doc.Summary.ItemCount,
		"failed":   len(failedCategories),
		"elapsed":  time.Since(start).String(),
	}).Info("Analysis complete")

	return doc, nil
}

// extractAll 对每个有chunk分配的分类并发发起抽取调用
// 所有调用无论成败都等待完成，单个分类的失败不会取消其他分类
func (s *AnalyzeService) extractAll(
	ctx context.Context,
	mapping analysis.CategoryMapping,
	chunks []analysis.Chunk,
	filename string,
) (map[string][]analysis.NewsItem, map[string]error) {
	byID := make(map[int]analysis.Chunk, len(chunks))
	for _, c := range chunks {
		byID[c.ID] = c
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		results  = make(map[string][]analysis.NewsItem)
		failures = make(map[string]error)
	)

	for _, category := range analysis.Categories() {
		assigned := make([]analysis.Chunk, 0, len(mapping[category]))
		for _, id := range mapping[category] {
			if c, ok := byID[id]; ok {
				assigned = append(assigned, c)
			}
		}
		// 没有分配到chunk的分类跳过，不发起模型调用
		if len(assigned) == 0 {
			continue
		}

		wg.Add(1)
		go func(category string, assigned []analysis.Chunk) {
			defer wg.Done()

			items, err := s.extractor.Extract(ctx, category, assigned, filename)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures[category] = err
				s.logger.WithFields(logrus.Fields{
					"category": category,
					"error":    err.Error(),
				}).Warn("Category extraction failed")
				return
			}
			results[category] = items
		}(category, assigned)
	}

	wg.Wait()
	return results, failures
}
