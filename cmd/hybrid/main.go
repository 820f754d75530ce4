package main

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"go-hybrid/pkg/config"
	"go-hybrid/pkg/hybrid"
	"go-hybrid/pkg/stats"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	level, _ := cfg.Level()
	logrus.SetLevel(level)

	opts, err := cfg.Options()
	if err != nil {
		logrus.Fatalf("Invalid options: %v", err)
	}
	opts.Logger = logrus.StandardLogger()

	startTime := time.Now()
	res, err := hybrid.Run(hybrid.FromPath(cfg.HighPath), hybrid.FromPath(cfg.LowPath), cfg.OutputPath, opts)
	if err != nil {
		logrus.Fatalf("Failed to build hybrid image: %v", err)
	}

	height, width := res.Image.Shape()
	fmt.Printf("(%d, %d)\n", height, width)

	if cfg.StatsDir == "" {
		return
	}
	result := stats.PerformanceData{
		AlgorithmName: "Hybrid",
		KernelSize:    opts.KernelSize,
		Sigma:         opts.Sigma,
		Width:         width,
		Height:        height,
		InputPaths:    []string{cfg.HighPath, cfg.LowPath},
		OutputPaths:   []string{cfg.OutputPath},
		Timestamp:     startTime,
		Trace:         res.Steps,
	}
	if opts.Workers > 1 {
		result.Workers = &opts.Workers
		result.TileRows = &opts.TileRows
	}
	path, err := stats.WriteReport(cfg.StatsDir, []stats.PerformanceData{result})
	if err != nil {
		logrus.Errorf("Failed to write results file: %v", err)
		return
	}
	logrus.Infof("Results written to %s", path)
}
