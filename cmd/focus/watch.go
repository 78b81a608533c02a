package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/teslashibe/go-focus/pkg/analysis"
	"github.com/teslashibe/go-focus/pkg/hub"
	"github.com/teslashibe/go-focus/pkg/monitor"
)

var watchOpts struct {
	goal time.Duration
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream live events from a running focus server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatch(cmd.Context())
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchOpts.goal, "goal", 0, "Show progress of the active task toward this duration (e.g. 25m)")
	rootCmd.AddCommand(watchCmd)
}

func eventsURL() string {
	u := strings.TrimRight(serverURL, "/") + "/ws/events"
	u = strings.Replace(u, "https://", "wss://", 1)
	return strings.Replace(u, "http://", "ws://", 1)
}

func runWatch(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, eventsURL(), nil)
	if err != nil {
		return fmt.Errorf("connect %s: %w", eventsURL(), err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	}()

	var bar *progressbar.ProgressBar
	if watchOpts.goal > 0 {
		bar = progressbar.NewOptions64(watchOpts.goal.Milliseconds(),
			progressbar.OptionSetDescription("focus"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetPredictTime(false),
		)
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read event: %w", err)
		}

		var env hub.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			fmt.Fprintf(os.Stderr, "bad event: %v\n", err)
			continue
		}
		if bar != nil {
			updateBar(bar, env)
			continue
		}
		printEvent(env)
	}
}

func updateBar(bar *progressbar.ProgressBar, env hub.Envelope) {
	if env.Type != hub.EventState {
		return
	}
	var snap monitor.Snapshot
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		return
	}
	desc := fmt.Sprintf("%s [%s]", snap.Timer.ActiveTaskID, snap.Timer.Phase)
	if snap.Timer.PauseCause != "" {
		desc += " " + string(snap.Timer.PauseCause)
	}
	bar.Describe(desc)
	bar.Set64(min(snap.Timer.ElapsedMs, bar.GetMax64()))
}

func printEvent(env hub.Envelope) {
	ts := env.At.Local().Format("15:04:05")
	switch env.Type {
	case hub.EventState:
		var snap monitor.Snapshot
		if err := json.Unmarshal(env.Data, &snap); err == nil {
			fmt.Printf("%s state    timer=%s %s task=%s gate=%s\n", ts,
				snap.Timer.Phase, formatElapsed(snap.Timer.ElapsedMs), snap.Timer.ActiveTaskID, snap.Gate.State)
		}
	case hub.EventAnalysis:
		var r analysis.Result
		if err := json.Unmarshal(env.Data, &r); err == nil {
			fmt.Printf("%s analysis score=%3d fatigue=%-6s ear=%.2f mar=%.2f gaze=%s drowsy=%v\n", ts,
				r.AttentionScore, r.FatigueLevel, r.EAR, r.MAR, r.GazeDirection, r.IsDrowsy)
		}
	case hub.EventNoFace:
		fmt.Printf("%s no face\n", ts)
	}
}
