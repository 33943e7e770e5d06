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
	"kwpdash/uart"
	"kwpdash/webui"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "run a live or simulated diagnostic session",
	Args:  cobra.NoArgs,
	RunE:  runRun,
}

func runRun(cmd *cobra.Command, _ []string) error {
	log.SetFlags(log.Lshortfile | log.LstdFlags)
	cfg := loadConfig(cmd)

	baud, _ := cmd.Flags().GetInt(flagBaud)
	if baud == 0 {
		baud = cfg.Baud
	}
	addr := cfg.Addr
	if a, _ := cmd.Flags().GetString(flagAddr); a != "" {
		var v uint64
		if _, err := fmt.Sscanf(a, "%x", &v); err != nil {
			return fmt.Errorf("bad --%s: %w", flagAddr, err)
		}
		addr = byte(v)
	}
	logDir, _ := cmd.Flags().GetString(flagLogDir)
	if logDir == "" {
		logDir = cfg.LogDir
	}
	simulated, _ := cmd.Flags().GetBool(flagSimulated)
	portName, _ := cmd.Flags().GetString(flagPort)
	dashboardAddr, _ := cmd.Flags().GetString(flagDashboard)
	if dashboardAddr == "" && cfg.Dashboard.Enabled {
		dashboardAddr = cfg.Dashboard.ListenAddr
	}

	logger := obdlog.New(logDir)
	logger.Enable(true)
	defer logger.Close()

	target := display.NewDashboardTarget()
	renderer, err := display.NewRenderer(target)
	if err != nil {
		return fmt.Errorf("display: %w", err)
	}

	keypad := input.NewSimulated()
	orch := orchestrator.New(keypad, renderer, logger, addr, baud)

	var transport kwp.Transport
	if !simulated {
		kl, err := uart.OpenKLine(portName)
		if err != nil {
			return fmt.Errorf("open k-line: %w", err)
		}
		transport = kl
	}
	// Real 5-baud wake-up needs raw line-level control package uart.KLine
	// does not currently expose (per wakeup's own package doc); NoOpWakeUp
	// matches the original firmware's behavior until an integrator wires a
	// bit-level transport.
	orch.CompleteSetup(simulated, addr, baud, transport, kwp.NoOpWakeUp)
	// The CLI fully specifies mode/baud/addr via flags, bypassing the
	// keypad-driven Setup screen; auto-press SELECT once so WaitingForConnect
	// proceeds to connect without requiring the out-of-scope analog keypad.
	keypad.Feed(700)

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
