package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/wfunc/volumectl/internal/config"
	"github.com/wfunc/volumectl/internal/dispatcher"
	"github.com/wfunc/volumectl/internal/errors"
	"github.com/wfunc/volumectl/internal/hardware"
	"github.com/wfunc/volumectl/internal/logger"
	"github.com/wfunc/volumectl/internal/volume"
	"go.uber.org/zap"
)

// 版本信息
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var configPath string

// 便于测试替换
var openSerial = func(cfg *hardware.SerialConfig) (hardware.SerialPort, error) {
	return hardware.OpenSerial(cfg)
}

var rootCmd = &cobra.Command{
	Use:   "volumectl",
	Short: "Serial volume knob for PulseAudio",
	Long: `volumectl reads direction codes from a serial line and steps the volume
of sink 0 by 1% per line: "0" lowers it, any other digit raises it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		printVersion()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./config/config.yaml)")
	rootCmd.Flags().StringP("port", "p", "/dev/ttyS0", "serial device path")
	rootCmd.Flags().IntP("baud", "b", 115200, "serial baud rate")
	rootCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "volumectl: %v\n", err)
		os.Exit(1)
	}
}

// run 启动守护进程，只在出现致命错误时返回
func run(cmd *cobra.Command) error {
	if err := config.Init(configPath, cmd.Flags()); err != nil {
		return errors.Wrap(err, errors.ErrConfigLoad)
	}
	cfg := config.Get()

	if err := logger.Init(&cfg.Log, zap.String("run_id", uuid.NewString())); err != nil {
		return errors.Wrap(err, errors.ErrConfigLoad, "初始化日志失败")
	}
	defer logger.Sync()

	log := logger.GetLogger()
	log.Info("volumectl 启动",
		zap.String("version", Version),
		zap.String("config_file", config.ConfigFile()),
		zap.String("port", cfg.Serial.Port),
		zap.Int("baud_rate", cfg.Serial.BaudRate))

	// 配置热更新只影响日志级别
	config.Watch(func(newCfg *config.Config, err error) {
		if err != nil {
			log.Warn("配置重载失败，保持当前配置", zap.Error(err))
			return
		}
		logger.SetLevel(newCfg.Log.Level)
		log.Info("配置已重新加载", zap.Stringer("log_level", logger.Level()))
	})

	// 打开失败已由 hardware 记录日志
	port, err := openSerial(&hardware.SerialConfig{
		Port:     cfg.Serial.Port,
		BaudRate: cfg.Serial.BaudRate,
		DataBits: byte(cfg.Serial.DataBits),
		StopBits: byte(cfg.Serial.StopBits),
		Parity:   cfg.Serial.Parity,
	})
	if err != nil {
		return err
	}
	defer port.Close()

	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Warn("systemd 通知失败", zap.Error(err))
	}

	d := dispatcher.New(
		hardware.NewLineReader(port),
		volume.NewPactlAdjuster(cfg.Volume.Command, nil),
		dispatcher.WithLogger(log.Named("dispatcher")),
	)

	err = d.Run()
	log.Error("分发循环退出",
		zap.Int("code", int(errors.GetCode(err))),
		zap.Bool("critical", errors.IsCritical(err)),
		zap.String("origin", errors.StackOf(err)),
		zap.Error(err))
	return err
}

// printVersion 打印版本信息
func printVersion() {
	fmt.Printf("volumectl %s\n", Version)
	fmt.Printf("构建时间: %s\n", BuildTime)
	fmt.Printf("Git提交: %s\n", GitCommit)
	fmt.Printf("Go版本: %s\n", runtime.Version())
	fmt.Printf("操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
