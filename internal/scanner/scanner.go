// Package scanner 管理扫码摄像头的获取与释放，并从二维码内容中解析款号。
//
// 摄像头流是独占资源：Handle 获取后必须在每条退出路径上释放，
// WithCamera 保证这一点；Retry 先完全释放再重新获取。
package scanner

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrNotAcquired 句柄未持有流
var ErrNotAcquired = errors.New("camera not acquired")

// Frame 一帧原始数据
type Frame []byte

// Stream 已打开的摄像头流
type Stream interface {
	// Next 阻塞直到下一帧可用；流结束时返回 io.EOF
	Next(ctx context.Context) (Frame, error)
	// Close 停止所有轨道并释放设备
	Close() error
}

// Device 可打开流的摄像头
type Device interface {
	Open(ctx context.Context) (Stream, error)
}

// Decoder 从一帧中识别二维码内容
type Decoder interface {
	Decode(frame Frame) (payload string, ok bool)
}

// DecoderFunc 函数适配为 Decoder
type DecoderFunc func(Frame) (string, bool)

func (f DecoderFunc) Decode(frame Frame) (string, bool) { return f(frame) }

// Handle 摄像头的作用域句柄。Release 幂等，可在任何状态下调用。
type Handle struct {
	device Device
	logger *zap.Logger

	mu     sync.Mutex
	stream Stream
}

// NewHandle 创建句柄，不会立即打开设备
func NewHandle(device Device, logger *zap.Logger) *Handle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handle{device: device, logger: logger}
}

// Acquire 打开设备；已持有流时直接返回
func (h *Handle) Acquire(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stream != nil {
		return nil
	}
	stream, err := h.device.Open(ctx)
	if err != nil {
		return Classify(err)
	}
	h.stream = stream
	h.logger.Debug("camera acquired")
	return nil
}

// Release 关闭流
func (h *Handle) Release() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stream == nil {
		return nil
	}
	err := h.stream.Close()
	h.stream = nil
	h.logger.Debug("camera released")
	return err
}

// Acquired 报告是否持有流
func (h *Handle) Acquired() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stream != nil
}

// Retry 完全释放后重新获取
func (h *Handle) Retry(ctx context.Context) error {
	if err := h.Release(); err != nil {
		h.logger.Warn("release before retry failed", zap.Error(err))
	}
	return h.Acquire(ctx)
}

// Scan 读取帧直到识别出内容或 ctx 结束
func (h *Handle) Scan(ctx context.Context, decoder Decoder) (string, error) {
	h.mu.Lock()
	stream := h.stream
	h.mu.Unlock()
	if stream == nil {
		return "", ErrNotAcquired
	}

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		frame, err := stream.Next(ctx)
		if err != nil {
			return "", err
		}
		if payload, ok := decoder.Decode(frame); ok {
			return payload, nil
		}
	}
}

// WithCamera 获取摄像头并执行 fn，无论 fn 成功、出错还是 panic 都会释放
func WithCamera(ctx context.Context, device Device, logger *zap.Logger, fn func(h *Handle) error) (err error) {
	h := NewHandle(device, logger)
	if err := h.Acquire(ctx); err != nil {
		return err
	}
	defer func() {
		if relErr := h.Release(); relErr != nil && err == nil {
			err = relErr
		}
	}()
	return fn(h)
}

// ScanStyle 扫描一次并解析款号
func ScanStyle(ctx context.Context, device Device, decoder Decoder, logger *zap.Logger) (string, error) {
	var style string
	err := WithCamera(ctx, device, logger, func(h *Handle) error {
		payload, err := h.Scan(ctx, decoder)
		if err != nil {
			return err
		}
		style, err = ParseCode(payload)
		return err
	})
	return style, err
}
