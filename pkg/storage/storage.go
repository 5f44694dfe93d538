package storage

import (
	"io"
	"mime"
	"path/filepath"
)

// FileInfo 文件元数据结构
type FileInfo struct {
	ID       string // 文件唯一标识符
	Name     string // 原始文件名
	Size     int64  // 文件大小(字节)
	MimeType string // 文件MIME类型(可选)
	Path     string // 内部存储路径(实现相关)
}

// Storage 上传文件的暂存接口
// 分析期间的上传内容落在这里，分析结束后立即Delete清除
// 可以有不同实现(本地文件系统、MinIO等)
type Storage interface {
	// Save 保存文件并返回文件信息
	Save(reader io.Reader, filename string) (FileInfo, error)

	// Materialize 把文件内容落成本地文件路径供解析器使用
	// PDF/DOCX解析器只接受真实文件路径
	// 返回的清理函数负责删除临时副本（本地存储返回原路径和空操作）
	Materialize(id string) (string, func(), error)

	// Delete 删除文件
	Delete(id string) error

	// Exists 检查文件是否存在
	Exists(id string) (bool, error)
}

// getMimeType 根据扩展名推断MIME类型
func getMimeType(filename string) string {
	mimeType := mime.TypeByExtension(filepath.Ext(filename))
	if mimeType == "" {
		return "application/octet-stream"
	}
	return mimeType
}
