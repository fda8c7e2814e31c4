package volume

import (
	"context"
	stderrors "errors"
	"fmt"
	"os/exec"

	"github.com/wfunc/volumectl/internal/errors"
)

// Adjuster 调节音量
type Adjuster interface {
	Adjust(dir Direction) error
}

// Runner 执行外部命令
type Runner func(ctx context.Context, name string, args ...string) error

// ExecRunner 使用 os/exec 执行命令，不读取输出
func ExecRunner(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// PactlAdjuster 通过 pactl 调节 PulseAudio/PipeWire 音量
type PactlAdjuster struct {
	command string
	run     Runner
}

// NewPactlAdjuster 创建 pactl 调节器，command 为空时使用 "pactl"
func NewPactlAdjuster(command string, run Runner) *PactlAdjuster {
	if command == "" {
		command = "pactl"
	}
	if run == nil {
		run = ExecRunner
	}
	return &PactlAdjuster{command: command, run: run}
}

// Args 返回调节命令参数，例如 set-sink-volume 0 +1%
func Args(dir Direction) []string {
	return []string{
		"set-sink-volume",
		fmt.Sprint(DefaultSink),
		fmt.Sprintf("%s%d%%", dir.Symbol(), StepPercent),
	}
}

// Adjust 执行一次音量调节，不重试
func (a *PactlAdjuster) Adjust(dir Direction) error {
	err := a.run(context.Background(), a.command, Args(dir)...)
	if err == nil {
		return nil
	}

	if stderrors.Is(err, exec.ErrNotFound) {
		return errors.Wrapf(err, errors.ErrCommandNotFound, "命令 %s", a.command)
	}

	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		return errors.Wrapf(err, errors.ErrCommandFailed, "退出码 %d", exitErr.ExitCode())
	}

	return errors.Wrap(err, errors.ErrCommandFailed)
}
