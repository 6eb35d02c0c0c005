package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const ENV_PREFIX = "WG"

type AppConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	APIURL    string `mapstructure:"api_url"`
	SocketURL string `mapstructure:"socket_url"`
	Token     string `mapstructure:"token"`

	StaticDir    string `mapstructure:"static_dir"`
	AutoJoinRoom string `mapstructure:"auto_join_room"`

	HintTimeSeconds       int     `mapstructure:"hint_time_seconds"`
	VoteTimeSeconds       int     `mapstructure:"vote_time_seconds"`
	SendRate              float64 `mapstructure:"send_rate"`
	SendBurst             int     `mapstructure:"send_burst"`
	RequestTimeoutSeconds int     `mapstructure:"request_timeout_seconds"`
}

func (c *AppConfig) HintTime() time.Duration {
	return time.Duration(c.HintTimeSeconds) * time.Second
}

func (c *AppConfig) VoteTime() time.Duration {
	return time.Duration(c.VoteTimeSeconds) * time.Second
}

func (c *AppConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

var cfg *AppConfig

func GetConfig() *AppConfig {
	if cfg == nil {
		cfg = InitConfig()
	}

	return cfg
}

// InitConfig 读取命令行参数、环境变量和配置文件，失败直接 panic
func InitConfig() *AppConfig {
	config, err := LoadConfig(os.Args[1:])
	if err != nil {
		panic(err)
	}

	cfg = config
	return config
}

// 配置键与命令行参数名的对应关系
var flagKeys = map[string]string{
	"host":                    "host",
	"port":                    "port",
	"log_level":               "log-level",
	"log_format":              "log-format",
	"api_url":                 "api-url",
	"socket_url":              "socket-url",
	"token":                   "token",
	"static_dir":              "static-dir",
	"auto_join_room":          "room",
	"hint_time_seconds":       "hint-time",
	"vote_time_seconds":       "vote-time",
	"send_rate":               "send-rate",
	"send_burst":              "send-burst",
	"request_timeout_seconds": "request-timeout",
}

// LoadConfig 按优先级合并配置：命令行 > 环境变量（含 .env）> app_config.json > 默认值
func LoadConfig(args []string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("加载 .env 失败: %w", err)
	}

	flags := newFlagSet()
	if err := flags.Parse(args); err != nil {
		return nil, fmt.Errorf("解析命令行参数失败: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(ENV_PREFIX)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, name := range flagKeys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return nil, fmt.Errorf("绑定参数 %s 失败: %w", name, err)
		}
	}

	configFile, _ := flags.GetString("config")

	v.SetConfigFile(configFile)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("加载配置失败: %w", err)
		}
	}

	var config AppConfig

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func newFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("who-is-spy-client", pflag.ContinueOnError)

	flags.String("config", "app_config.json", "配置文件路径")
	flags.String("host", "127.0.0.1", "本地服务监听地址")
	flags.Int("port", 8080, "本地服务端口")
	flags.String("log-level", "info", "日志级别：debug/info/warn/error")
	flags.String("log-format", "console", "日志格式：console/json")
	flags.String("api-url", "http://localhost:3000", "游戏服务 REST 地址")
	flags.String("socket-url", "ws://localhost:3000/ws", "游戏服务 WebSocket 地址")
	flags.String("token", "", "登录令牌")
	flags.String("static-dir", "", "前端静态文件目录，为空时不托管")
	flags.String("room", "", "启动后自动进入的房间 ID")
	flags.Int("hint-time", 60, "提示倒计时（秒）")
	flags.Int("vote-time", 60, "投票倒计时（秒）")
	flags.Float64("send-rate", 5, "每秒允许发送的消息数，0 表示不限")
	flags.Int("send-burst", 3, "发送突发上限")
	flags.Int("request-timeout", 10, "REST 请求超时（秒）")

	return flags
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "127.0.0.1")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("api_url", "http://localhost:3000")
	v.SetDefault("socket_url", "ws://localhost:3000/ws")
	v.SetDefault("token", "")
	v.SetDefault("static_dir", "")
	v.SetDefault("auto_join_room", "")
	v.SetDefault("hint_time_seconds", 60)
	v.SetDefault("vote_time_seconds", 60)
	v.SetDefault("send_rate", 5.0)
	v.SetDefault("send_burst", 3)
	v.SetDefault("request_timeout_seconds", 10)
}

func (c *AppConfig) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("端口无效: %d", c.Port)
	}

	if c.APIURL == "" {
		return errors.New("api_url 不能为空")
	}

	if c.SocketURL == "" {
		return errors.New("socket_url 不能为空")
	}

	if c.HintTimeSeconds <= 0 || c.VoteTimeSeconds <= 0 {
		return errors.New("倒计时必须大于 0")
	}

	return nil
}
