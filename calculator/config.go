package calculator

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"

	"waxloop/model"
	"waxloop/table"
)

const (
	sectionServer        = "server"
	sectionSimulation    = "simulation"
	sectionInterpolation = "interpolation"
	sectionTrace         = "trace"
	sectionExecutor      = "executor"
	sectionLog           = "log"
)

type Config struct {
	Addr            string
	ReadBufferSize  int
	WriteBufferSize int
	RowBuffer       int
	// 请求中的文件路径相对于 DataDir，不能越出该目录
	DataDir string
	// 允许的 websocket Origin，"*" 为全部；为空时只允许同源
	AllowedOrigins []string

	OutOfRange table.OutOfRangePolicy

	TraceEnabled bool
	TracePath    string

	Workers int

	LogLevel log.Level

	simulation *ini.Section
}

// LoadConfig 读取 ini 配置；[simulation] 中的参数在 Parameters 中读取
func LoadConfig(path string) (*Config, error) {
	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return loadCfg(file)
}

func loadCfg(file *ini.File) (*Config, error) {
	cfg := &Config{
		Addr:            file.Section(sectionServer).Key("Addr").MustString(":9000"),
		ReadBufferSize:  file.Section(sectionServer).Key("ReadBufferSize").MustInt(1024),
		WriteBufferSize: file.Section(sectionServer).Key("WriteBufferSize").MustInt(1024),
		RowBuffer:       file.Section(sectionServer).Key("RowBuffer").MustInt(16),
		DataDir:         file.Section(sectionServer).Key("DataDir").MustString("data"),
		TraceEnabled:    file.Section(sectionTrace).Key("Enabled").MustBool(false),
		TracePath:       file.Section(sectionTrace).Key("Path").MustString("printout.txt"),
		Workers:         file.Section(sectionExecutor).Key("Workers").MustInt(4),
		simulation:      file.Section(sectionSimulation),
	}

	for _, origin := range strings.Split(file.Section(sectionServer).Key("AllowedOrigins").String(), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}

	policy, err := table.ParseOutOfRangePolicy(file.Section(sectionInterpolation).Key("OutOfRange").MustString("reject"))
	if err != nil {
		return nil, err
	}
	cfg.OutOfRange = policy

	level, err := log.ParseLevel(file.Section(sectionLog).Key("Level").MustString("info"))
	if err != nil {
		return nil, fmt.Errorf("[%s] Level: %v: %w", sectionLog, err, model.ErrConfiguration)
	}
	cfg.LogLevel = level
	return cfg, nil
}

// Parameters 调用方的默认参数
func (c *Config) Parameters() (Parameters, error) {
	return ParametersFromSection(c.simulation)
}

// Options 配置中与单次计算相关的选项；Tracer 由调用方关闭
func (c *Config) Options() ([]Option, *Tracer, error) {
	opts := []Option{WithOutOfRangePolicy(c.OutOfRange)}
	if !c.TraceEnabled {
		return opts, nil, nil
	}
	tracer, err := OpenTracer(c.TracePath)
	if err != nil {
		return nil, nil, err
	}
	return append(opts, WithTracer(tracer)), tracer, nil
}
