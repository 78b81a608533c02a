package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-focus/internal/config"
	"github.com/teslashibe/go-focus/internal/log"
	"github.com/teslashibe/go-focus/pkg/analysis"
	"github.com/teslashibe/go-focus/pkg/camera"
	"github.com/teslashibe/go-focus/pkg/detection"
	"github.com/teslashibe/go-focus/pkg/monitor"
	"github.com/teslashibe/go-focus/pkg/opencv"
	"github.com/teslashibe/go-focus/pkg/presence"
	"github.com/teslashibe/go-focus/pkg/store"
	"github.com/teslashibe/go-focus/pkg/timer"
	"github.com/teslashibe/go-focus/pkg/web"
)

var serveOpts struct {
	monitor bool
	task    string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the focus server with camera monitoring and the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context(), cfg)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveOpts.monitor, "monitor", false, "Enable camera monitoring on start")
	serveCmd.Flags().StringVar(&serveOpts.task, "task", "", "Task to select on start")
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context, cfg config.Config) error {
	logger := log.Component("serve")
	if problems := cfg.Validate(); len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}

	kv, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer kv.Close()

	machine := timer.New(kv)
	if err := machine.Load(ctx, time.Now()); err != nil {
		return fmt.Errorf("restore timer: %w", err)
	}

	source, detector, err := openDetection(cfg)
	if err != nil {
		return err
	}
	defer detector.Close()
	if c, ok := source.(io.Closer); ok {
		defer c.Close()
	}

	analyzer := analysis.New(cfg.Analysis(), source, detector)
	mon := monitor.New(analyzer, presence.New(presence.DefaultConfig()), machine)
	defer mon.Close()

	srv := web.NewServer(cfg.Addr, mon)
	mon.OnStateChange(srv.PublishState)
	mon.OnAnalysis(srv.PublishAnalysis)
	mon.OnNoFace(srv.PublishNoFace)

	if serveOpts.task != "" {
		mon.SelectTask(serveOpts.task)
	}
	if serveOpts.monitor {
		if err := mon.EnableMonitoring(); err != nil {
			return fmt.Errorf("enable monitoring: %w", err)
		}
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(ctx) }()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	}
	return srv.Shutdown()
}

func openStore(ctx context.Context, cfg config.Config) (store.KV, error) {
	if cfg.PostgresDSN != "" {
		pg, err := store.NewPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return pg, nil
	}
	js, err := store.NewJSONStore(cfg.DataFile)
	if err != nil {
		return nil, fmt.Errorf("open state file: %w", err)
	}
	return js, nil
}

func openDetection(cfg config.Config) (camera.Source, detection.Detector, error) {
	if cfg.Detector == config.DetectorMock {
		return camera.Still{}, detection.NewMock(), nil
	}

	camCfg, err := cfg.Camera()
	if err != nil {
		return nil, nil, err
	}
	webcam, err := opencv.OpenWebcam(camCfg)
	if err != nil {
		return nil, nil, err
	}

	remote := detection.NewRemote(cfg.ServiceURL, cfg.Analysis().DetectTimeout)
	if cfg.Detector == config.DetectorRemote {
		return webcam, remote, nil
	}

	detCfg := detection.DefaultConfig()
	detCfg.ModelPath = cfg.ModelPath
	yunet, err := opencv.NewYuNet(detCfg)
	if err != nil {
		return nil, nil, errors.Join(err, webcam.Close(), remote.Close())
	}
	return webcam, detection.NewCascade(yunet, remote), nil
}
