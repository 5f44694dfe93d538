package model

import (
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// AnalyzeRequest 文档分析请求
type AnalyzeRequest struct {
	File *multipart.FileHeader `form:"file" binding:"required,newsdoc"` // 待分析的文档文件
}

// SupportedExtensions 支持的文档扩展名
var SupportedExtensions = map[string]bool{
	".pdf":      true,
	".docx":     true,
	".md":       true,
	".markdown": true,
	".txt":      true,
}

// IsSupportedFileType 检查文件扩展名是否受支持
func IsSupportedFileType(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// init 注册自定义的文件类型校验规则
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("newsdoc", func(fl validator.FieldLevel) bool {
			fh, ok := fl.Field().Interface().(multipart.FileHeader)
			if !ok {
				return false
			}
			return IsSupportedFileType(fh.Filename)
		})
	}
}
