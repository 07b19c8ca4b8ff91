package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/zhukovaskychina/xbase-engine/conf"
	"github.com/zhukovaskychina/xbase-engine/engine/pagestore"
	"github.com/zhukovaskychina/xbase-engine/engine/plan"
	"github.com/zhukovaskychina/xbase-engine/engine/sqlparser"
	"github.com/zhukovaskychina/xbase-engine/logger"
)

const help = `
******************************************************************************************
*XBase 教学型存储引擎
*帮助:
*1. -- help
*2. -- configPath   指定my.ini配置文件
*
*命令:
*  SELECT <proj> FROM <table> [WHERE <cond> [AND <cond>]...]
*  LOAD <table> FROM '<file>' [WITH INDEX]
*  QUIT
******************************************************************************************
`

func main() {
	var configPath string
	var showHelp bool
	flag.StringVar(&configPath, "configPath", "", "配置文件路径")
	flag.BoolVar(&showHelp, "help", false, "显示帮助")
	flag.Parse()

	if showHelp {
		fmt.Print(help)
		return
	}

	args := &conf.CommandLineArgs{
		ConfigPath: configPath,
	}

	config, err := conf.NewCfg().Load(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logConfig := logger.LogConfig{
		ErrorLogPath: config.LogError,
		InfoLogPath:  config.LogInfos,
		LogLevel:     config.LogLevel,
	}
	if err := logger.InitLogger(logConfig); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	pagestore.CacheMaxBytes = config.PageCacheSize

	if err := os.MkdirAll(config.DataDir, 0755); err != nil {
		logger.Errorf("failed to create data dir %s: %v", config.DataDir, err)
		os.Exit(1)
	}

	logger.Infof("XBase engine starting, data_dir=%s", config.DataDir)

	planner := plan.NewPlanner(config.DataDir, os.Stdout)
	repl(planner)
}

// repl 逐行读命令、解析并交给执行器
func repl(planner *plan.Planner) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("xbase> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}

		stmt, err := sqlparser.ParseCommand(scanner.Text())
		if err != nil {
			fmt.Fprintf(os.Stderr, "parse error: %v\n", err)
			continue
		}

		switch s := stmt.(type) {
		case nil:
		case sqlparser.QuitStatement:
			return
		case *plan.SelectStatement:
			if err := planner.Select(s); err != nil {
				fmt.Fprintf(os.Stderr, "select failed: %v\n", err)
			}
		case *plan.LoadStatement:
			if err := planner.Load(s); err != nil {
				fmt.Fprintf(os.Stderr, "load failed: %v\n", err)
			}
		}
	}
}
