package cmd

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"kwpdash/display"
	"kwpdash/input"
	"kwpdash/kwp"
	"kwpdash/obdlog"
	"kwpdash/orchestrator"
	"kwpdash/replay"
	"kwpdash/uart"
	"kwpdash/webui"
)

func init() {
	replayCmd.Flags().Float64("speed", 1.0, "replay speed multiplier (0 = as fast as possible)")
	replayCmd.Flags().Bool("loop", false, "loop the replay at EOF")
	replayCmd.Flags().Int("skip-frames", 0, "skip this many frames from the start of the capture")
	rootCmd.AddCommand(replayCmd)
}

var replayCmd = &cobra.Command{
	Use:   "replay <path>",
	Short: "play back a captured raw K-line byte log through the orchestrator",
	Args:  cobra.ExactArgs(1),
	RunE:  runReplay,
}

func runReplay(cmd *cobra.Command, args []string) error {
	log.SetFlags(log.Lshortfile | log.LstdFlags)
	cfg := loadConfig(cmd)

	speed, _ := cmd.Flags().GetFloat64("speed")
	loop, _ := cmd.Flags().GetBool("loop")
	skip, _ := cmd.Flags().GetInt("skip-frames")
	dashboardAddr, _ := cmd.Flags().GetString(flagDashboard)
	if dashboardAddr == "" && cfg.Dashboard.Enabled {
		dashboardAddr = cfg.Dashboard.ListenAddr
	}

	transport := uart.NewSimulated()
	player := replay.NewPlayer(replay.Flags{
		Path:       args[0],
		Speed:      speed,
		Loop:       loop,
		SkipFrames: skip,
	})
	go func() {
		if err := player.Run(transport); err != nil {
			log.Printf("replay: %v", err)
		}
	}()

	target := display.NewDashboardTarget()
	renderer, err := display.NewRenderer(target)
	if err != nil {
		return fmt.Errorf("display: %w", err)
	}

	logger := obdlog.New(cfg.LogDir)
	keypad := input.NewSimulated()
	orch := orchestrator.New(keypad, renderer, logger, cfg.Addr, cfg.Baud)
	orch.CompleteSetup(false, cfg.Addr, cfg.Baud, transport, kwp.NoOpWakeUp)
	keypad.Feed(700) // auto-press SELECT once: connect as soon as the replayed handshake arrives

	if dashboardAddr != "" {
		srv, err := webui.New(target)
		if err != nil {
			return fmt.Errorf("webui: %w", err)
		}
		go func() {
			log.Printf("debug dashboard listening on %s", dashboardAddr)
			log.Println(http.ListenAndServe(dashboardAddr, srv.Mux()))
		}()
	}

	ctx := cmd.Context()
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if err := orch.Tick(now); err != nil {
				log.Printf("tick: %v", err)
			}
		}
	}
}
