package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-focus/internal/httpc"
	"github.com/teslashibe/go-focus/pkg/monitor"
	"github.com/teslashibe/go-focus/pkg/web"
)

// apiError is a non-2xx answer from the server.
type apiError struct {
	Status int
	Body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, strings.TrimSpace(e.Body))
}

func endpoint(path string) string {
	return strings.TrimRight(serverURL, "/") + path
}

func getState(ctx context.Context) (monitor.Snapshot, error) {
	var snap monitor.Snapshot
	resp, err := httpc.Get(ctx, endpoint("/api/state"))
	if err != nil {
		return snap, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return snap, &apiError{Status: resp.StatusCode, Body: string(body)}
	}
	return snap, json.NewDecoder(resp.Body).Decode(&snap)
}

// post sends a control request. A 409 means the request did not apply in
// the current state and is reported, not treated as failure.
func post(ctx context.Context, path string, body any) (web.ActionResponse, error) {
	var out web.ActionResponse
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return out, err
		}
	}

	resp, err := httpc.Post(ctx, nil, endpoint(path), "application/json", payload)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusConflict {
		return out, &apiError{Status: resp.StatusCode, Body: string(data)}
	}
	return out, json.Unmarshal(data, &out)
}

func formatElapsed(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	return fmt.Sprintf("%02d:%02d:%02d", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
}

func printState(snap monitor.Snapshot) {
	t := snap.Timer
	task := t.ActiveTaskID
	if task == "" {
		task = "-"
	}
	fmt.Printf("timer    %-8s %s  task=%s", t.Phase, formatElapsed(t.ElapsedMs), task)
	if t.PauseCause != "" {
		fmt.Printf(" (%s)", t.PauseCause)
	}
	fmt.Println()
	fmt.Printf("gate     %-8s monitoring=%v detecting=%v\n", snap.Gate.State, snap.Gate.Monitoring, snap.Detecting)
	if snap.SelectedTask != "" {
		fmt.Printf("selected %s\n", snap.SelectedTask)
	}
	if r := snap.LastResult; r != nil {
		fmt.Printf("focus    score=%d fatigue=%s blinks/min=%d gaze=%s\n", r.AttentionScore, r.FatigueLevel, r.BlinkRate, r.GazeDirection)
	}
	if snap.StorageError != "" {
		fmt.Printf("warning  state not persisted: %s\n", snap.StorageError)
	}
}

func reportAction(resp web.ActionResponse, what string) {
	if !resp.OK {
		fmt.Printf("%s: nothing to do in the current state\n", what)
	}
	printState(resp.State)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of a running focus server",
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := getState(cmd.Context())
		if err != nil {
			return err
		}
		printState(snap)
		return nil
	},
}

var timerCmd = &cobra.Command{
	Use:   "timer",
	Short: "Control the focus timer",
}

func timerAction(action string) *cobra.Command {
	return &cobra.Command{
		Use:   action,
		Short: strings.ToUpper(action[:1]) + action[1:] + " the timer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := post(cmd.Context(), "/api/timer/"+action, nil)
			if err != nil {
				return err
			}
			reportAction(resp, action)
			return nil
		},
	}
}

var timerStartCmd = &cobra.Command{
	Use:   "start [task]",
	Short: "Start a task, or the selected task if none is given",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var req web.TaskRequest
		if len(args) == 1 {
			req.TaskID = args[0]
		}
		resp, err := post(cmd.Context(), "/api/timer/start", req)
		if err != nil {
			return err
		}
		reportAction(resp, "start")
		return nil
	},
}

var taskCmd = &cobra.Command{
	Use:   "task <id>",
	Short: "Select the task that starts when presence is confirmed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := post(cmd.Context(), "/api/task", web.TaskRequest{TaskID: args[0]})
		if err != nil {
			return err
		}
		printState(resp.State)
		return nil
	},
}

var monitorCmd = &cobra.Command{
	Use:       "monitor <on|off>",
	Short:     "Turn camera monitoring on or off",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		action := "enable"
		if args[0] == "off" {
			action = "disable"
		}
		resp, err := post(cmd.Context(), "/api/monitoring/"+action, nil)
		if err != nil {
			return err
		}
		printState(resp.State)
		return nil
	},
}

func init() {
	timerCmd.AddCommand(timerStartCmd, timerAction("pause"), timerAction("resume"), timerAction("stop"))
	rootCmd.AddCommand(statusCmd, timerCmd, taskCmd, monitorCmd)
}
