package services

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// 门卫状态
const (
	// StateIdle 空闲，可以接受新请求
	StateIdle = "idle"
	// StateProcessing 正在处理一个分析请求
	StateProcessing = "processing"
)

// DefaultCooldown 两次分析请求之间的最小间隔
const DefaultCooldown = 10 * time.Second

// ErrBusy 已有分析请求在处理中
// 新请求立即拒绝而不是排队，调用方稍后重试
var ErrBusy = errors.New("an analysis request is already being processed")

// ErrCooldown 请求到达时冷却期尚未结束
var ErrCooldown = errors.New("analysis requests are rate limited")

// CooldownError 冷却期拒绝错误，携带剩余等待时间
type CooldownError struct {
	Remaining time.Duration
}

// Error 实现error接口
func (e *CooldownError) Error() string {
	return fmt.Sprintf("cooldown active, retry in %s", e.Remaining.Round(time.Second))
}

// Is 支持errors.Is(err, ErrCooldown)判断
func (e *CooldownError) Is(target error) bool {
	return target == ErrCooldown
}

// GovernorStatus 门卫状态快照，供状态查询接口使用
type GovernorStatus struct {
	State             string        `json:"state"`              // idle或processing
	CooldownRemaining time.Duration `json:"cooldown_remaining"` // 剩余冷却时间，0表示可以立即请求
}

// Governor 分析请求门卫
// 下游模型API有每分钟限流，执行环境的并发也有限，
// 这里串行化整个流水线：同一时刻最多一个任务，任务之间强制冷却间隔
// 状态检查和占用必须是同一个原子操作，所以用互斥量保护的显式结构
// 而不是散落的包级变量
type Governor struct {
	mu         sync.Mutex
	processing bool
	lastFinish time.Time
	cooldown   time.Duration
}

// NewGovernor 创建请求门卫
func NewGovernor(cooldown time.Duration) *Governor {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Governor{cooldown: cooldown}
}

// Acquire 尝试占用门卫
// 处理中返回ErrBusy；冷却期内返回携带剩余时间的CooldownError；
// 成功时进入processing状态，调用方必须保证Release在所有退出路径上执行
func (g *Governor) Acquire() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.processing {
		return ErrBusy
	}

	if !g.lastFinish.IsZero() {
		elapsed := time.Since(g.lastFinish)
		if elapsed < g.cooldown {
			return &CooldownError{Remaining: g.cooldown - elapsed}
		}
	}

	g.processing = true
	return nil
}

// Release 释放门卫并记录完成时间，冷却期从此刻开始计算
func (g *Governor) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.processing = false
	g.lastFinish = time.Now()
}

// Status 返回当前状态快照
func (g *Governor) Status() GovernorStatus {
	g.mu.Lock()
	defer g.mu.Unlock()

	status := GovernorStatus{State: StateIdle}
	if g.processing {
		status.State = StateProcessing
	}

	if !g.lastFinish.IsZero() {
		if remaining := g.cooldown - time.Since(g.lastFinish); remaining > 0 {
			status.CooldownRemaining = remaining
		}
	}

	return status
}
