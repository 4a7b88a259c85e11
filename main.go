package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"laneCA/config"
	"laneCA/log"
	"laneCA/render"
	"laneCA/simulator"
)

func main() {
	configPath := flag.String("config", "config/config.json", "path to the JSON configuration file")
	steps := flag.Int("steps", 0, "number of ticks to run, overrides simulation.steps when positive")
	flag.Parse()

	if err := run(*configPath, *steps); err != nil {
		fmt.Fprintf(os.Stderr, "laneCA: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, steps int) error {
	// 加载配置文件
	if err := config.LoadConfig(configPath); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg := config.GetConfig()
	if steps > 0 {
		cfg.Simulation.Steps = steps
	}

	// 生成唯一的初始化时间标识
	initTime := time.Now().Format("20060102150405")

	// 日志初始化
	if err := log.InitLog(filepath.Join(cfg.Output.Dir, initTime+".log")); err != nil {
		return err
	}
	defer log.CloseLog()
	log.LogEnvironment()
	log.LogSimParameters(cfg)

	// 数据CSV初始化
	dataFiles := simulator.NewDataFiles(cfg.Output.Dir, initTime, cfg.Output.Trace)
	if err := simulator.InitDataFiles(dataFiles); err != nil {
		return fmt.Errorf("init data files: %w", err)
	}

	// 初始化模拟环境
	sim, err := simulator.New(cfg, simulator.WithDataFiles(dataFiles))
	if err != nil {
		return fmt.Errorf("init simulator: %w", err)
	}
	defer func() {
		log.WriteLog("Stopping worker pool...")
		sim.Close()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 开始模拟
	log.WriteLog("----------------------------------Simulation Start----------------------------------")
	startTime := time.Now()
	runErr := sim.Run(ctx, cfg.Simulation.Steps)
	switch {
	case errors.Is(runErr, context.Canceled):
		log.WriteLogf("Simulation interrupted at tick %d", sim.TimeStep())
		runErr = nil
	case runErr != nil:
		log.WriteLogf("Simulation aborted at tick %d: %v", sim.TimeStep(), runErr)
	}
	log.WriteLogf("Simulated %d ticks in %v", sim.TimeStep(), time.Since(startTime))

	// 输出最终的车道状态
	for i := 0; i < sim.NumLanes(); i++ {
		log.WriteLogf("Lane %d final state:", i)
		for _, line := range render.Listing(sim.Lane(i)) {
			log.WriteLog(line)
		}
	}

	// 完成模拟，写入最后的数据
	if err := simulator.FinishSimulation(dataFiles); err != nil {
		runErr = errors.Join(runErr, err)
	}

	log.WriteLog("---------------------------------- Completed ----------------------------------")
	return runErr
}
