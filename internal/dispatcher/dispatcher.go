// Package dispatcher 串口帧到音量命令的分发循环。
package dispatcher

import (
	"github.com/wfunc/volumectl/internal/volume"
	"go.uber.org/zap"
)

// FrameReader 读取一帧串口数据
type FrameReader interface {
	ReadFrame() (string, error)
}

// Dispatcher 读取帧、解析方向并调节音量
//
// 帧之间不保留任何状态，相同的帧总是产生相同的命令。
type Dispatcher struct {
	reader   FrameReader
	adjuster volume.Adjuster
	logger   *zap.Logger
}

// Option 配置选项
type Option func(*Dispatcher)

// WithLogger 设置日志器
func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// New 创建分发器
func New(reader FrameReader, adjuster volume.Adjuster, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		reader:   reader,
		adjuster: adjuster,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Step 处理一帧
//
// 读取失败或帧格式错误时返回错误；音量命令失败只记录日志。
func (d *Dispatcher) Step() error {
	frame, err := d.reader.ReadFrame()
	if err != nil {
		return err
	}

	dir, err := volume.ParseFrame(frame)
	if err != nil {
		d.logger.Error("无效帧", zap.String("frame", frame), zap.Error(err))
		return err
	}

	d.logger.Debug("调节音量",
		zap.String("frame", frame),
		zap.Stringer("direction", dir),
		zap.Strings("args", volume.Args(dir)))

	if err := d.adjuster.Adjust(dir); err != nil {
		d.logger.Warn("音量命令执行失败", zap.Stringer("direction", dir), zap.Error(err))
	}

	return nil
}

// Run 循环处理帧，只在出现致命错误时返回
func (d *Dispatcher) Run() error {
	d.logger.Info("开始监听音量帧")
	for {
		if err := d.Step(); err != nil {
			return err
		}
	}
}
