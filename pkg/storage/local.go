package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStorage 本地文件系统暂存实现
type LocalStorage struct {
	basePath string // 基础存储路径
}

// LocalConfig 本地存储配置
type LocalConfig struct {
	Path string // 本地存储路径
}

// NewLocalStorage 创建本地存储实例
func NewLocalStorage(cfg LocalConfig) (*LocalStorage, error) {
	// 确保路径是绝对路径
	absPath, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %v", err)
	}

	if err := os.MkdirAll(absPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %v", err)
	}

	return &LocalStorage{
		basePath: absPath,
	}, nil
}

// Save 保存文件到本地暂存目录
// 文件名用uuid加原始扩展名，扩展名保留给解析器做类型检测
func (s *LocalStorage) Save(reader io.Reader, filename string) (FileInfo, error) {
	id := uuid.New().String()
	ext := filepath.Ext(filename)

	filePath := filepath.Join(s.basePath, id+ext)

	file, err := os.Create(filePath)
	if err != nil {
		return FileInfo{}, fmt.Errorf("failed to create file: %v", err)
	}
	defer file.Close()

	size, err := io.Copy(file, reader)
	if err != nil {
		// 写入失败时不留半个文件
		os.Remove(filePath)
		return FileInfo{}, fmt.Errorf("failed to write file: %v", err)
	}

	return FileInfo{
		ID:       id,
		Name:     filename,
		Size:     size,
		MimeType: getMimeType(filename),
		Path:     filePath,
	}, nil
}

// Materialize 本地存储直接返回真实路径，无需清理
func (s *LocalStorage) Materialize(id string) (string, func(), error) {
	filePath, err := s.findFilePathByID(id)
	if err != nil {
		return "", nil, err
	}
	return filePath, func() {}, nil
}

// Delete 删除暂存文件
func (s *LocalStorage) Delete(id string) error {
	filePath, err := s.findFilePathByID(id)
	if err != nil {
		return err
	}

	if err := os.Remove(filePath); err != nil {
		return fmt.Errorf("failed to delete file: %v", err)
	}
	return nil
}

// Exists 检查文件是否存在
func (s *LocalStorage) Exists(id string) (bool, error) {
	_, err := s.findFilePathByID(id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// findFilePathByID 根据ID查找文件路径（扩展名未知，做前缀匹配）
func (s *LocalStorage) findFilePathByID(id string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(s.basePath, id+"*"))
	if err != nil {
		return "", fmt.Errorf("failed to search storage directory: %v", err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("file not found: %s", id)
	}
	return matches[0], nil
}
