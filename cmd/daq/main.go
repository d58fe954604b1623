//go:build rp2040

// Command daq is the board firmware: it samples the sensors and streams
// records over the UART uplink.
package main

import (
	"context"
	"time"

	"turbine-daq/bus"
	"turbine-daq/errcode"
	"turbine-daq/platform"
	"turbine-daq/services/config"
	"turbine-daq/services/daq"
	"turbine-daq/services/session"
	"turbine-daq/x/logx"
)

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("boot")

	cfg := config.Default()
	logx.SetLevel(logx.ParseLevel(cfg.Log.Level))
	board := platform.Pico
	led := platform.LED(board)

	link, err := platform.OpenUplink(board, cfg.Link.Baud)
	if err != nil {
		halt(led, nil, cfg, err)
	}
	link.RetryAfter = cfg.Link.RetryAfter

	hw, err := platform.Open(board)
	if err != nil {
		halt(led, link, cfg, err)
	}

	b := bus.NewBus(8)
	sys, err := daq.Setup(cfg, hw, link, b.NewConnection("daq"))
	if err != nil {
		halt(led, link, cfg, err)
	}
	led.High()
	if err := sys.Run(context.Background()); err != nil {
		halt(led, link, cfg, err)
	}
}

// halt never returns. It reports err, then keeps blinking and reprinting it
// so that a late serial monitor still sees why the board stopped.
func halt(led interface{ Set(bool) }, link *session.Link, cfg *config.Config, err error) {
	if !errcode.Fatal(err) {
		err = errcode.New(errcode.InitFailed, "daq", "", err)
	}
	var sess session.Session
	if link != nil {
		sess = link
	}
	daq.ReportFatal(sess, cfg.Publish.StatusTopic, err)
	on := false
	for i := 0; ; i++ {
		on = !on
		led.Set(on)
		if i%10 == 0 {
			println(daq.FatalStatus(err))
		}
		time.Sleep(500 * time.Millisecond)
	}
}
