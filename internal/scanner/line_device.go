package scanner

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
)

// LineDevice 键盘模拟型扫码枪：每行输入即一帧。
// 读取协程在首次 Open 时启动并在各个流之间共享，重新获取不会丢失或并发读取输入。
type LineDevice struct {
	reader io.Reader
	lines  chan lineResult
	start  sync.Once

	mu    sync.Mutex
	inUse bool
}

type lineResult struct {
	line string
	err  error
}

// NewLineDevice 从 r 读取扫码结果
func NewLineDevice(r io.Reader) *LineDevice {
	return &LineDevice{reader: r, lines: make(chan lineResult)}
}

// Open 同一时间只允许一个流
func (d *LineDevice) Open(ctx context.Context) (Stream, error) {
	if d.reader == nil {
		return nil, ErrDeviceNotFound
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inUse {
		return nil, ErrDeviceBusy
	}
	d.inUse = true
	d.start.Do(func() { go d.pump() })
	return &lineStream{device: d, done: make(chan struct{})}, nil
}

func (d *LineDevice) pump() {
	sc := bufio.NewScanner(d.reader)
	for sc.Scan() {
		d.lines <- lineResult{line: sc.Text()}
	}
	if err := sc.Err(); err != nil {
		d.lines <- lineResult{err: err}
	}
	close(d.lines)
}

func (d *LineDevice) release() {
	d.mu.Lock()
	d.inUse = false
	d.mu.Unlock()
}

type lineStream struct {
	device *LineDevice
	done   chan struct{}
	once   sync.Once
}

// Next 返回下一行（去除首尾空白），输入结束时返回 io.EOF
func (s *lineStream) Next(ctx context.Context) (Frame, error) {
	select {
	case r, ok := <-s.device.lines:
		if !ok {
			return nil, io.EOF
		}
		if r.err != nil {
			return nil, r.err
		}
		return Frame(strings.TrimSpace(r.line)), nil
	case <-s.done:
		return nil, io.EOF
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close 释放设备，重复调用无副作用
func (s *lineStream) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.device.release()
	})
	return nil
}

// TextDecoder 非空的帧即为内容
var TextDecoder = DecoderFunc(func(f Frame) (string, bool) {
	if len(f) == 0 {
		return "", false
	}
	return string(f), true
})
