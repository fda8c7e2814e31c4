package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/volumectl/internal/errors"
	"github.com/wfunc/volumectl/internal/hardware"
)

// fakePort 内存串口，记录是否被关闭
type fakePort struct {
	io.Reader
	closed bool
}

func (p *fakePort) Write(b []byte) (int, error) { return len(b), nil }
func (p *fakePort) Close() error                { p.closed = true; return nil }
func (p *fakePort) Flush() error                { return nil }

// setupRun 写入测试配置并替换串口打开函数，返回日志文件路径
func setupRun(t *testing.T, serialYAML string, open func(*hardware.SerialConfig) (hardware.SerialPort, error)) string {
	t.Helper()
	dir := t.TempDir()

	cfgFile := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`
serial:
  port: /dev/ttyTEST
%s
volume:
  command: volumectl-test-no-such-binary
log:
  level: debug
  format: json
  output: file
  file:
    path: %s
    filename: run.log
`, serialYAML, dir)
	require.NoError(t, os.WriteFile(cfgFile, []byte(content), 0644))

	origPath, origOpen := configPath, openSerial
	configPath, openSerial = cfgFile, open
	t.Cleanup(func() { configPath, openSerial = origPath, origOpen })

	return filepath.Join(dir, "run.log")
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestRunStopsOnEmptyFrameAndClosesPort(t *testing.T) {
	port := &fakePort{Reader: strings.NewReader("1\n0\n\n1\n")}
	var gotCfg *hardware.SerialConfig
	logFile := setupRun(t, "", func(c *hardware.SerialConfig) (hardware.SerialPort, error) {
		gotCfg = c
		return port, nil
	})

	err := run(rootCmd)

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrEmptyFrame))
	assert.True(t, port.closed, "退出时必须关闭串口")

	require.NotNil(t, gotCfg)
	assert.Equal(t, "/dev/ttyTEST", gotCfg.Port)
	assert.Equal(t, 115200, gotCfg.BaudRate)
	assert.Equal(t, byte(8), gotCfg.DataBits)

	lines := readLines(t, logFile)
	for _, line := range lines {
		assert.Contains(t, line, `"run_id":`)
	}
	last := lines[len(lines)-1]
	assert.Contains(t, last, "分发循环退出")
	assert.Contains(t, last, `"critical":true`)
	assert.Contains(t, last, `"code":3100`)

	// 两帧有效输入各触发一次命令失败告警，命令失败不终止循环
	warnings := 0
	for _, line := range lines {
		if strings.Contains(line, "音量命令执行失败") {
			warnings++
		}
	}
	assert.Equal(t, 2, warnings)
}

func TestRunDisconnectIsFatal(t *testing.T) {
	port := &fakePort{Reader: strings.NewReader("1\n")}
	setupRun(t, "", func(*hardware.SerialConfig) (hardware.SerialPort, error) {
		return port, nil
	})

	err := run(rootCmd)

	assert.True(t, errors.Is(err, errors.ErrDeviceOffline))
	assert.True(t, port.closed)
}

func TestRunOpenFailure(t *testing.T) {
	logFile := setupRun(t, "", func(c *hardware.SerialConfig) (hardware.SerialPort, error) {
		return nil, errors.Newf(errors.ErrSerialPortOpen, "串口 %s", c.Port)
	})

	err := run(rootCmd)

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrSerialPortOpen))
	assert.True(t, errors.IsCritical(err))

	for _, line := range readLines(t, logFile) {
		assert.NotContains(t, line, "分发循环退出")
	}
}

func TestRunInvalidConfig(t *testing.T) {
	opened := false
	setupRun(t, "  data_bits: 9", func(*hardware.SerialConfig) (hardware.SerialPort, error) {
		opened = true
		return nil, nil
	})

	err := run(rootCmd)

	assert.True(t, errors.Is(err, errors.ErrConfigValidate))
	assert.False(t, opened, "配置错误时不应打开串口")
}

func TestRootFlags(t *testing.T) {
	for _, name := range []string{"port", "baud", "log-level"} {
		assert.NotNil(t, rootCmd.Flags().Lookup(name), "flag %s", name)
	}
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
}

func TestVersionCommand(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"version"})
	require.NoError(t, err)
	assert.Equal(t, "version", cmd.Name())
}
