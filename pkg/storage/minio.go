package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStorage MinIO暂存实现
// 多实例部署时上传内容不落在单机磁盘上
type MinioStorage struct {
	client     *minio.Client // MinIO客户端
	bucketName string        // 存储桶名称
}

// MinioConfig MinIO存储配置
type MinioConfig struct {
	Endpoint  string // MinIO服务端点
	AccessKey string // 访问密钥ID
	SecretKey string // 秘密访问密钥
	UseSSL    bool   // 是否使用SSL
	Bucket    string // 存储桶名称
}

// NewMinioStorage 创建MinIO存储实例
func NewMinioStorage(cfg MinioConfig) (*MinioStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %v", err)
	}

	// 检查存储桶是否存在，不存在则创建
	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check if bucket exists: %v", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %v", err)
		}
	}

	return &MinioStorage{
		client:     client,
		bucketName: cfg.Bucket,
	}, nil
}

// Save 保存文件到MinIO
func (s *MinioStorage) Save(reader io.Reader, filename string) (FileInfo, error) {
	id := uuid.New().String()
	ext := filepath.Ext(filename)
	objectName := id + ext
	contentType := getMimeType(filename)

	// 大小未知时用-1走流式上传
	info, err := s.client.PutObject(
		context.Background(),
		s.bucketName,
		objectName,
		reader,
		-1,
		minio.PutObjectOptions{ContentType: contentType},
	)
	if err != nil {
		return FileInfo{}, fmt.Errorf("failed to upload file: %v", err)
	}

	return FileInfo{
		ID:       id,
		Name:     filename,
		Size:     info.Size,
		MimeType: contentType,
		Path:     objectName,
	}, nil
}

// Materialize 把对象下载到本地临时文件供解析器使用
// 清理函数删除临时文件
func (s *MinioStorage) Materialize(id string) (string, func(), error) {
	objectName, err := s.findObjectByID(id)
	if err != nil {
		return "", nil, err
	}

	obj, err := s.client.GetObject(context.Background(), s.bucketName, objectName, minio.GetObjectOptions{})
	if err != nil {
		return "", nil, fmt.Errorf("failed to get object: %v", err)
	}
	defer obj.Close()

	// 保留扩展名，解析器按扩展名选择实现
	tmpFile, err := os.CreateTemp("", "analyze-*"+filepath.Ext(objectName))
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp file: %v", err)
	}

	if _, err := io.Copy(tmpFile, obj); err != nil {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
		return "", nil, fmt.Errorf("failed to download object: %v", err)
	}
	tmpFile.Close()

	path := tmpFile.Name()
	cleanup := func() { os.Remove(path) }
	return path, cleanup, nil
}

// Delete 删除MinIO中的对象
func (s *MinioStorage) Delete(id string) error {
	objectName, err := s.findObjectByID(id)
	if err != nil {
		return err
	}
	return s.client.RemoveObject(context.Background(), s.bucketName, objectName, minio.RemoveObjectOptions{})
}

// Exists 检查对象是否存在
func (s *MinioStorage) Exists(id string) (bool, error) {
	_, err := s.findObjectByID(id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// findObjectByID 根据ID前缀查找对象名
func (s *MinioStorage) findObjectByID(id string) (string, error) {
	ctx := context.Background()
	for object := range s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{Prefix: id}) {
		if object.Err != nil {
			return "", object.Err
		}
		return object.Key, nil
	}
	return "", fmt.Errorf("object not found: %s", id)
}
