package conf

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/ini.v1"

	"github.com/zhukovaskychina/xbase-engine/util"
)

// ConfigPath 配置文件查找目录
var ConfigPath string

type CommandLineArgs struct {
	ConfigPath string
}

/*
*
[xbase]
data_dir        = data
page_cache_size = 4194304

[logs]
log_error = logs/error.log
log_infos = logs/xbase.log
log_level = info
*/
type Cfg struct {
	Raw *ini.File

	// xbase
	DataDir       string
	PageCacheSize int64

	// logs
	LogError string
	LogInfos string
	LogLevel string
}

func NewCfg() *Cfg {
	return &Cfg{
		Raw:           ini.Empty(),
		DataDir:       "data",
		PageCacheSize: 4194304, // 4MB
		LogError:      "logs/error.log",
		LogInfos:      "logs/xbase.log",
		LogLevel:      "info",
	}
}

// Load 加载配置文件，命令行未指定时在当前目录查找my.ini
// 未指定且找不到配置文件时使用内置默认值；显式指定的路径不存在时报错
func (cfg *Cfg) Load(args *CommandLineArgs) (*Cfg, error) {
	setHomePath(args)

	iniFile, err := cfg.loadConfiguration(args)
	if err != nil {
		return nil, err
	}
	if iniFile == nil {
		return cfg, nil
	}
	cfg.Raw = iniFile

	cfg.parseXBaseCfg(cfg.Raw.Section("xbase"))
	cfg.parseLogsCfg(cfg.Raw.Section("logs"))
	return cfg, nil
}

func setHomePath(args *CommandLineArgs) {
	if args.ConfigPath != "" {
		ConfigPath = args.ConfigPath
		return
	}

	ConfigPath, _ = filepath.Abs(".")
}

func (cfg *Cfg) loadConfiguration(args *CommandLineArgs) (*ini.File, error) {
	path := ConfigPath
	if st, err := os.Stat(path); err == nil && st.IsDir() {
		path = filepath.Join(path, "my.ini")
	}

	exists, err := util.PathExists(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config path %s not accessible", path)
	}
	if !exists {
		if args.ConfigPath != "" {
			return nil, errors.Errorf("config file %s does not exist", path)
		}
		// 默认位置没有配置文件不是错误
		return nil, nil
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse config file %s", path)
	}
	return iniFile, nil
}

func (cfg *Cfg) parseXBaseCfg(section *ini.Section) {
	cfg.DataDir = section.Key("data_dir").MustString(cfg.DataDir)
	cfg.PageCacheSize = section.Key("page_cache_size").MustInt64(cfg.PageCacheSize)
}

func (cfg *Cfg) parseLogsCfg(section *ini.Section) {
	cfg.LogError = section.Key("log_error").MustString(cfg.LogError)
	cfg.LogInfos = section.Key("log_infos").MustString(cfg.LogInfos)
	cfg.LogLevel = section.Key("log_level").MustString(cfg.LogLevel)
}
