package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/wfunc/volumectl/internal/errors"
)

// Config 全局配置结构体
type Config struct {
	Serial SerialConfig `mapstructure:"serial"`
	Volume VolumeConfig `mapstructure:"volume"`
	Log    LogConfig    `mapstructure:"log"`
}

// SerialConfig 串口配置
type SerialConfig struct {
	Port     string `mapstructure:"port"`
	BaudRate int    `mapstructure:"baud_rate"`
	DataBits int    `mapstructure:"data_bits"`
	StopBits int    `mapstructure:"stop_bits"`
	Parity   string `mapstructure:"parity"`
}

// VolumeConfig 音量命令配置
//
// 只允许替换命令本身（例如绝对路径），音频输出索引与步长是固定的。
type VolumeConfig struct {
	Command string `mapstructure:"command"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string        `mapstructure:"level"`
	Format string        `mapstructure:"format"`
	Output string        `mapstructure:"output"`
	File   LogFileConfig `mapstructure:"file"`
}

// LogFileConfig 日志文件配置
type LogFileConfig struct {
	Path       string `mapstructure:"path"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// 命令行参数到配置键的映射
var flagKeys = map[string]string{
	"port":      "serial.port",
	"baud":      "serial.baud_rate",
	"log-level": "log.level",
}

var (
	cfg *Config
	mu  sync.RWMutex
	v   *viper.Viper
)

// Init 初始化全局配置
func Init(configPath string, flags *pflag.FlagSet) error {
	nv, c, err := Load(configPath, flags)
	if err != nil {
		return err
	}

	mu.Lock()
	v, cfg = nv, c
	mu.Unlock()

	return nil
}

// Load 读取配置文件、环境变量与命令行参数，不修改全局状态
func Load(configPath string, flags *pflag.FlagSet) (*viper.Viper, *Config, error) {
	nv := viper.New()

	if configPath != "" {
		nv.SetConfigFile(configPath)
	} else {
		nv.SetConfigName("config")
		nv.SetConfigType("yaml")
		nv.AddConfigPath("./config")
		nv.AddConfigPath("/etc/volumectl")
		nv.AddConfigPath(".")
	}

	// 环境变量前缀，例如 VOLUMECTL_SERIAL_PORT
	nv.SetEnvPrefix("VOLUMECTL")
	nv.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	nv.AutomaticEnv()

	setDefaults(nv)

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := nv.BindPFlag(key, f); err != nil {
					return nil, nil, errors.Wrapf(err, errors.ErrConfigLoad, "绑定参数 %s", name)
				}
			}
		}
	}

	if err := nv.ReadInConfig(); err != nil {
		// 配置文件不存在时使用默认配置
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, nil, errors.Wrap(err, errors.ErrConfigParse)
		}
	}

	c := &Config{}
	if err := nv.Unmarshal(c); err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrConfigParse)
	}

	if err := c.Validate(); err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrConfigValidate)
	}

	return nv, c, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 串口默认配置 (8N1 @ 115200)
	v.SetDefault("serial.port", "/dev/ttyS0")
	v.SetDefault("serial.baud_rate", 115200)
	v.SetDefault("serial.data_bits", 8)
	v.SetDefault("serial.stop_bits", 1)
	v.SetDefault("serial.parity", "N")

	v.SetDefault("volume.command", "pactl")

	// 日志默认配置
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file.path", "./logs")
	v.SetDefault("log.file.filename", "volumectl.log")
	v.SetDefault("log.file.max_size", 10)
	v.SetDefault("log.file.max_age", 30)
	v.SetDefault("log.file.max_backups", 3)
	v.SetDefault("log.file.compress", true)
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.Serial.Port == "" {
		return fmt.Errorf("serial.port must not be empty")
	}
	if c.Serial.BaudRate <= 0 {
		return fmt.Errorf("serial.baud_rate must be positive, got %d", c.Serial.BaudRate)
	}
	if c.Serial.DataBits < 5 || c.Serial.DataBits > 8 {
		return fmt.Errorf("serial.data_bits must be 5-8, got %d", c.Serial.DataBits)
	}
	if c.Serial.StopBits != 1 && c.Serial.StopBits != 2 {
		return fmt.Errorf("serial.stop_bits must be 1 or 2, got %d", c.Serial.StopBits)
	}
	switch c.Serial.Parity {
	case "N", "none", "O", "odd", "E", "even":
	default:
		return fmt.Errorf("serial.parity %q is not one of N, O, E", c.Serial.Parity)
	}
	if c.Volume.Command == "" {
		return fmt.Errorf("volume.command must not be empty")
	}
	switch c.Log.Output {
	case "stdout", "file", "both", "journal":
	default:
		return fmt.Errorf("log.output %q is not one of stdout, file, both, journal", c.Log.Output)
	}
	return nil
}

// Get 获取配置实例
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// ConfigFile 返回实际使用的配置文件路径，未使用文件时为空
func ConfigFile() string {
	mu.RLock()
	defer mu.RUnlock()
	if v == nil {
		return ""
	}
	return v.ConfigFileUsed()
}

// Watch 监听配置文件变化
//
// 重载失败时 callback 收到 nil 配置和错误，当前配置保持不变。
func Watch(callback func(*Config, error)) {
	mu.RLock()
	wv := v
	mu.RUnlock()

	if wv == nil || wv.ConfigFileUsed() == "" {
		return
	}

	wv.OnConfigChange(func(e fsnotify.Event) {
		reload(wv, callback)
	})
	wv.WatchConfig()
}

// reload 从 viper 重新解析配置并替换全局配置
func reload(wv *viper.Viper, callback func(*Config, error)) {
	newCfg := &Config{}
	if err := wv.Unmarshal(newCfg); err != nil {
		if callback != nil {
			callback(nil, errors.Wrap(err, errors.ErrConfigParse))
		}
		return
	}
	if err := newCfg.Validate(); err != nil {
		if callback != nil {
			callback(nil, errors.Wrap(err, errors.ErrConfigValidate))
		}
		return
	}

	mu.Lock()
	cfg = newCfg
	mu.Unlock()

	if callback != nil {
		callback(newCfg, nil)
	}
}
