package hardware

import (
	"bufio"
	"io"
	"os"

	"github.com/tarm/serial"
	"github.com/wfunc/volumectl/internal/errors"
	"github.com/wfunc/volumectl/internal/logger"
	"go.uber.org/zap"
)

// SerialConfig 串口配置
type SerialConfig struct {
	Port     string
	BaudRate int
	DataBits byte
	StopBits byte
	Parity   string
}

// DefaultSerialConfig 默认串口配置 (/dev/ttyS0, 115200 8N1)
func DefaultSerialConfig() *SerialConfig {
	return &SerialConfig{
		Port:     "/dev/ttyS0",
		BaudRate: 115200,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
	}
}

// 便于测试替换
var openPort = func(c *serial.Config) (SerialPort, error) {
	return serial.OpenPort(c)
}

// SerialPortExists 检查串口设备是否存在
func SerialPortExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// toTarmConfig 转换为 tarm/serial 配置
//
// ReadTimeout 保持为 0，读操作会一直阻塞直到有数据。
func (c *SerialConfig) toTarmConfig() *serial.Config {
	parity := serial.ParityNone
	switch c.Parity {
	case "O", "odd":
		parity = serial.ParityOdd
	case "E", "even":
		parity = serial.ParityEven
	}

	stopBits := serial.Stop1
	if c.StopBits == 2 {
		stopBits = serial.Stop2
	}

	size := c.DataBits
	if size == 0 {
		size = serial.DefaultSize
	}

	return &serial.Config{
		Name:     c.Port,
		Baud:     c.BaudRate,
		Size:     size,
		Parity:   parity,
		StopBits: stopBits,
	}
}

// OpenSerial 打开串口
func OpenSerial(cfg *SerialConfig) (SerialPort, error) {
	log := logger.Named("serial")

	if !SerialPortExists(cfg.Port) {
		log.Warn("串口设备不存在", zap.String("port", cfg.Port))
	}

	port, err := openPort(cfg.toTarmConfig())
	if err != nil {
		log.Error("打开串口失败",
			zap.String("port", cfg.Port),
			zap.Error(err))
		return nil, errors.Wrapf(err, errors.ErrSerialPortOpen, "串口 %s", cfg.Port)
	}

	log.Info("串口连接成功",
		zap.String("port", cfg.Port),
		zap.Int("baud_rate", cfg.BaudRate))

	return port, nil
}

// LineReader 按行读取串口数据，每次返回一帧（以 \n 结尾）
type LineReader struct {
	r *bufio.Reader
}

// NewLineReader 创建行读取器
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{r: bufio.NewReader(r)}
}

// ReadFrame 阻塞读取一帧
//
// 连接断开时，即使已收到不完整的数据也返回错误，不完整的帧被丢弃。
func (l *LineReader) ReadFrame() (string, error) {
	line, err := l.r.ReadString('\n')
	if err != nil {
		if err == io.EOF {
			return "", errors.Wrap(err, errors.ErrDeviceOffline, "串口连接已断开")
		}
		return "", errors.Wrap(err, errors.ErrSerialPortRead)
	}
	return line, nil
}
