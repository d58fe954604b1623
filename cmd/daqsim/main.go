// Command daqsim runs the acquisition pipeline on the host against
// simulated sensors. Records go to an MQTT broker, or to stdout.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"turbine-daq/bus"
	"turbine-daq/errcode"
	"turbine-daq/platform"
	"turbine-daq/services/config"
	"turbine-daq/services/daq"
	"turbine-daq/services/session"
	"turbine-daq/x/logx"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "daqsim",
		Short: "run the turbine acquisition pipeline against simulated sensors",
		Long: `daqsim runs the same acquisition, processing and publishing code as the
board firmware, with simulated sensors on every bus and a software tick
timer. Configuration is read from --config; a missing file means defaults.
Without --mqtt, records and status lines are printed to stdout.
`,
		Example: `  daqsim --duration 10s
  daqsim --config daq.yaml --mqtt --broker tcp://localhost:1883
  daqsim --absent temp`,
		SilenceUsage: true,
		RunE:         runSim,
	}
	f := root.Flags()
	f.String("config", "daq.yaml", "configuration file")
	f.Bool("mqtt", false, "publish to the configured MQTT broker")
	f.String("broker", "", "override the MQTT broker URL")
	f.Duration("duration", 0, "stop after this long; 0 runs until interrupted")
	f.StringSlice("absent", nil, "sensors to simulate as unplugged: accel, incl, temp")
	f.String("log-level", "", "debug, info, warn or error")
	f.Bool("log-json", false, "log as JSON")

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "write a configuration template",
		Example: `  daqsim init --print
  daqsim init -o daq.yaml`,
		RunE: initConfig,
	}
	initCmd.Flags().StringP("output", "o", "daq.yaml", "output path")
	initCmd.Flags().Bool("print", false, "print to stdout instead")
	root.AddCommand(initCmd)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func runSim(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if lvl, _ := flags.GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	if flags.Changed("log-json") {
		cfg.Log.JSON, _ = flags.GetBool("log-json")
	}
	logx.SetLevel(logx.ParseLevel(cfg.Log.Level))
	logx.SetJSON(cfg.Log.JSON)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if d, _ := flags.GetDuration("duration"); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	conn := bus.NewBus(64).NewConnection("daqsim")

	var sess session.Session
	if useMQTT, _ := flags.GetBool("mqtt"); useMQTT {
		if broker, _ := flags.GetString("broker"); broker != "" {
			cfg.MQTT.Broker = broker
		}
		m, err := session.DialMQTT(cfg.MQTT)
		if err != nil {
			return err
		}
		defer m.Close()
		sess = m
	} else {
		sess = session.NewLocal(conn)
		p := newPrinter(cmd.OutOrStdout(), conn, cfg.Publish.DataTopic, cfg.Publish.StatusTopic)
		defer p.Close()
	}

	board := platform.NewSimulated(cfg)
	absent, _ := flags.GetStringSlice("absent")
	for _, name := range absent {
		if !board.Fault(name, true) {
			return fmt.Errorf("unknown sensor %q", name)
		}
	}

	sys, err := daq.Setup(cfg, board.Hardware(), sess, conn)
	if err != nil {
		if errcode.Fatal(err) {
			daq.ReportFatal(sess, cfg.Publish.StatusTopic, err)
		}
		return err
	}
	err = sys.Run(ctx)

	st := sys.Stats()
	logx.Info("done",
		logx.F("ticks", st.Acquisition.Ticks),
		logx.F("acquired", st.Acquisition.Acquired),
		logx.F("overflow", st.Acquisition.Dropped),
		logx.F("published", st.Processing.SamplesPublished),
		logx.F("dropped", st.Processing.SamplesDropped),
	)
	return err
}

// printer writes every message published on its topics as
// "<topic> <payload>" lines.
type printer struct {
	w    io.Writer
	mu   sync.Mutex
	subs []*bus.Subscription
	wg   sync.WaitGroup
}

// newPrinter subscribes before returning, so nothing published afterwards
// is missed.
func newPrinter(w io.Writer, conn *bus.Connection, topics ...string) *printer {
	p := &printer{w: w}
	for _, t := range topics {
		s := conn.Subscribe(bus.ParseTopic(t))
		p.subs = append(p.subs, s)
		p.wg.Add(1)
		go p.copy(s)
	}
	return p
}

func (p *printer) copy(s *bus.Subscription) {
	defer p.wg.Done()
	for m := range s.Channel() {
		b, _ := m.Payload.([]byte)
		p.mu.Lock()
		fmt.Fprintf(p.w, "%s %s\n", m.Topic, b)
		p.mu.Unlock()
	}
}

// Close unsubscribes and returns once everything already queued is printed.
func (p *printer) Close() {
	for _, s := range p.subs {
		s.Unsubscribe()
	}
	p.wg.Wait()
}

func initConfig(cmd *cobra.Command, _ []string) error {
	cfg := config.Default()
	if p, _ := cmd.Flags().GetBool("print"); p {
		b, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(b)
		return err
	}
	out, _ := cmd.Flags().GetString("output")
	return cfg.Save(out)
}
