// Command daqbridge forwards records from the board's serial uplink to an
// MQTT broker.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"turbine-daq/bus"
	"turbine-daq/services/bridge"
	"turbine-daq/services/session"
	"turbine-daq/x/logx"
)

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "forward turbine records from the serial uplink to MQTT",
	Long: `daqbridge reads publish frames from the acquisition board's serial port
and republishes them on an MQTT broker. Settings are taken, in increasing
priority, from the configuration file (--config, DAQBRIDGE_CONFIG, or
bridge.yaml in ~/.config/daqbridge, /etc/daqbridge, ./), environment
variables such as DAQBRIDGE_SERIAL_PORT, and command line flags.
`,
	Example: `  daqbridge --port /dev/ttyACM0 --broker tcp://broker:1883
  DAQBRIDGE_SERIAL_PORT=COM4 daqbridge`,
	SilenceUsage: true,
	RunE:         runBridge,
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "list serial ports",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ports, err := bridge.Ports()
		if err != nil {
			return err
		}
		for _, p := range ports {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		return nil
	},
}

func init() {
	addFlags(rootCmd)
	rootCmd.AddCommand(portsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runBridge(cmd *cobra.Command, _ []string) error {
	o, err := parseOptions(cmd)
	if err != nil {
		return err
	}
	if o.Debug {
		logx.SetLevel(logx.LevelDebug)
	}
	if o.Serial.Port == "" {
		return errors.New("no serial port; use --port or serial.port")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	up, err := session.DialMQTT(o.MQTT)
	if err != nil {
		return err
	}
	defer up.Close()

	conn := bus.NewBus(16).NewConnection(appName)
	svc := bridge.Start(ctx, conn, up)
	conn.Publish(conn.NewMessage(bridge.TopicConfig, o.bridgeConfig(), true))

	tick := time.NewTicker(30 * time.Second)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
			st := svc.Stats()
			logx.Info("bridge stats",
				logx.F("frames", st.Frames),
				logx.F("forwarded", st.Forwarded),
				logx.F("dropped", st.Dropped),
				logx.F("malformed", st.Malformed),
			)
		}
	}
}
