package llm

import (
	"context"
	"errors"
	"net"
	"time"
)

// ErrorClass 错误分类结果，统一供重试循环消费
// 各调用点不再各自判断状态码
type ErrorClass struct {
	Retryable bool          // 是否可以自动重试
	WaitHint  time.Duration // 建议等待时间（不可自动重试但可稍后再试时给出）
}

// Classify 对模型调用错误进行分类
// 网络/超时/5xx属于瞬时错误可重试；429和403绝不自动重试，
// 429携带建议等待时间交给调用方（或请求门卫的冷却期）统一退避
func Classify(err error) ErrorClass {
	if err == nil {
		return ErrorClass{}
	}

	var llmErr LLMError
	if errors.As(err, &llmErr) {
		switch llmErr.Code {
		case ErrCodeNetworkError, ErrCodeTimeout, ErrCodeServerError:
			return ErrorClass{Retryable: true}
		case ErrCodeRateLimited:
			wait := llmErr.WaitHint
			if wait == 0 {
				wait = 30 * time.Second
			}
			return ErrorClass{Retryable: false, WaitHint: wait}
		default:
			// 鉴权、配额、请求格式类错误重试没有意义
			return ErrorClass{Retryable: false}
		}
	}

	// 上下文超时按瞬时网络错误处理
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorClass{Retryable: true}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrorClass{Retryable: true}
	}

	return ErrorClass{Retryable: false}
}

// 重试退避的基础间隔
const retryBaseDelay = 500 * time.Millisecond

// CallWithRetry 带指数退避的统一重试循环
// fn是一次完整的请求发送，每次重试都重新执行
func CallWithRetry(ctx context.Context, maxRetries int, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := retryBaseDelay * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return NewLLMError(ErrCodeTimeout, ctx.Err().Error())
			case <-time.After(delay):
			}
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if !Classify(lastErr).Retryable {
			return lastErr
		}
	}

	return lastErr
}
