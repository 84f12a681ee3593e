package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"waxloop/calculator"
	"waxloop/server"
)

var (
	confPath   = flag.String("conf", "conf/config.ini", "配置文件")
	tabPath    = flag.String("tab", "", "TAB 文件")
	waxPath    = flag.String("wax", "", "WAX 文件")
	inputsPath = flag.String("inputs", "", "时间序列文件 (.csv / .xlsx)")
	outPath    = flag.String("out", "outputs.csv", "输出文件 (.csv / .xlsx)")
	methods    = flag.String("methods", "", "扩散系数方法，逗号分隔；默认取配置文件")
	serve      = flag.Bool("serve", false, "启动 websocket 服务")
)

func main() {
	flag.Parse()

	cfg, err := calculator.LoadConfig(*confPath)
	if err != nil {
		log.Fatal(err)
	}
	log.SetLevel(cfg.LogLevel)

	opts, tracer, err := cfg.Options()
	if err != nil {
		log.Fatal(err)
	}
	defer tracer.Close()

	if *serve {
		runServer(cfg, opts)
		return
	}
	if err := runBatch(cfg, opts); err != nil {
		log.Fatal(err)
	}
}

func runServer(cfg *calculator.Config, opts []calculator.Option) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
	}
	upgrader.CheckOrigin = server.CheckOrigins(cfg.AllowedOrigins)

	var defaults *calculator.Parameters
	if p, err := cfg.Parameters(); err == nil {
		defaults = &p
	} else {
		log.WithError(err).Warn("配置文件中没有完整的模拟参数，请求必须给出全部参数")
	}

	s := server.NewServer(cfg.Addr, cfg.DataDir, upgrader, defaults, cfg.RowBuffer, opts...)
	if err := s.Serve(); err != nil {
		log.Fatal("ListenAndServe: ", err)
	}
}

func runBatch(cfg *calculator.Config, opts []calculator.Option) error {
	if *tabPath == "" || *waxPath == "" || *inputsPath == "" {
		return fmt.Errorf("-tab, -wax and -inputs are required")
	}
	params, err := cfg.Parameters()
	if err != nil {
		return err
	}
	inputs, err := calculator.LoadInputs(*tabPath, *waxPath, *inputsPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	jobs := []calculator.Job{{Name: params.Method.String(), Params: params}}
	if *methods != "" {
		jobs = jobs[:0]
		for _, name := range strings.Split(*methods, ",") {
			m, err := calculator.ParseDiffusionMethod(name)
			if err != nil {
				return err
			}
			p := params
			p.Method = m
			jobs = append(jobs, calculator.Job{Name: m.String(), Params: p})
		}
	}

	results := calculator.NewExecutor(cfg.Workers, inputs, opts...).Run(ctx, jobs)
	for _, r := range results {
		if r.Err != nil {
			return fmt.Errorf("%s: %w", r.Job.Name, r.Err)
		}
		path := outputPath(*outPath, r.Job.Name, len(results) > 1)
		if err := r.Table.Save(path); err != nil {
			return err
		}
		last, _ := r.Table.Last()
		log.WithFields(log.Fields{
			"method":  r.Job.Name,
			"out":     path,
			"rows":    r.Table.Len(),
			"delta":   last.Delta,
			"elapsed": r.Elapsed,
		}).Info("结果已保存")
	}
	return nil
}

// 多个方法时每个方法单独一个输出文件：outputs-Wilke-Chang.csv
func outputPath(path, method string, multiple bool) string {
	if !multiple {
		return path
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-" + method + ext
}
