package volume

import (
	"strings"

	"github.com/wfunc/volumectl/internal/errors"
)

const (
	// DefaultSink 被调节的音频输出索引
	DefaultSink = 0
	// StepPercent 每帧调节的百分比，与帧中的数字大小无关
	StepPercent = 1
)

// Direction 音量调节方向
type Direction int

const (
	Down Direction = iota
	Up
)

// Symbol 返回 pactl 使用的方向符号
func (d Direction) Symbol() string {
	if d == Up {
		return "+"
	}
	return "-"
}

func (d Direction) String() string {
	if d == Up {
		return "up"
	}
	return "down"
}

// ParseFrame 解析一帧串口数据
//
// 只看首字符：'0' 为降低，'1'-'9' 为升高。空帧或非数字首字符返回错误。
func ParseFrame(frame string) (Direction, error) {
	body := strings.TrimRight(frame, "\r\n")
	if body == "" {
		return Down, errors.Newf(errors.ErrEmptyFrame, "帧内容 %q", frame)
	}

	c := body[0]
	if c < '0' || c > '9' {
		return Down, errors.Newf(errors.ErrInvalidFrame, "首字符 %q 不是数字", c)
	}

	if c == '0' {
		return Down, nil
	}
	return Up, nil
}
