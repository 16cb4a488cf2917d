// Command sonar-indicator measures distance with an ultrasonic sensor and
// drives a numeric display, presence lamp, buzzer and two-color lamp from
// a single fixed-tick scheduler.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/sonar-indicator/internal/controller"
	"github.com/sweeney/sonar-indicator/internal/gpio"
	"github.com/sweeney/sonar-indicator/internal/logic"
	"github.com/sweeney/sonar-indicator/internal/mqtt"
	"github.com/sweeney/sonar-indicator/internal/sonar"
	"github.com/sweeney/sonar-indicator/internal/status"
	"github.com/sweeney/sonar-indicator/internal/web"
)

type options struct {
	tick          time.Duration
	ctrl          controller.Config
	maxEcho       time.Duration
	maxPolls      int
	backend       string
	chip          string
	pins          gpio.Pins
	broker        string
	clientID      string
	heartbeat     time.Duration
	httpAddr      string
	printDistance bool
}

func main() {
	def := controller.DefaultConfig()
	opts := options{ctrl: def, pins: gpio.DefaultPins()}

	flag.DurationVar(&opts.tick, "tick", time.Millisecond, "Scheduler tick period")
	displayPeriod := flag.Uint("display-period", uint(def.DisplayPeriod), "Display multiplex period in ticks")
	sonarPeriod := flag.Uint("sonar-period", uint(def.SonarPeriod), "Sonar task period in ticks (measures every other firing)")
	cycle := flag.Uint("cycle", uint(def.Cycle), "Color blend cycle length in ticks")
	threshold := flag.Float64("threshold", logic.DefaultThreshold, "Presence threshold in cm")
	lampOn := flag.Uint("lamp-on", uint(def.Lamp.OnTicks), "Lamp on ticks per blink cycle")
	lampCycle := flag.Uint("lamp-cycle", uint(def.Lamp.CycleTicks), "Lamp blink cycle in ticks")
	buzzerOn := flag.Uint("buzzer-on", uint(def.Buzzer.OnTicks), "Buzzer on ticks per cycle")
	buzzerCycle := flag.Uint("buzzer-cycle", uint(def.Buzzer.CycleTicks), "Buzzer cycle in ticks")
	flag.DurationVar(&opts.maxEcho, "sonar-max-echo", sonar.DefaultMaxEcho, "Longest wait for each echo edge")
	flag.IntVar(&opts.maxPolls, "sonar-max-polls", 0, "Echo line polls per wait before a sonar timeout (0 for time limit only)")
	flag.StringVar(&opts.backend, "backend", gpio.BackendGPIOCDev, "GPIO backend: gpiocdev, periph or rpio")
	flag.StringVar(&opts.chip, "chip", "gpiochip0", "GPIO chip (gpiocdev backend)")
	flag.IntVar(&opts.pins.Trig, "pin-trig", gpio.DefaultPinTrig, "BCM pin number for the sonar trigger")
	flag.IntVar(&opts.pins.Echo, "pin-echo", gpio.DefaultPinEcho, "BCM pin number for the sonar echo")
	flag.StringVar(&opts.broker, "broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	flag.StringVar(&opts.clientID, "client-id", "sonar-indicator", "MQTT client ID")
	flag.DurationVar(&opts.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	flag.StringVar(&opts.httpAddr, "http", ":80", "HTTP status address (empty to disable)")
	flag.BoolVar(&opts.printDistance, "print-distance", false, "Print one distance reading and exit")

	flag.Parse()

	opts.ctrl.DisplayPeriod = uint32(*displayPeriod)
	opts.ctrl.SonarPeriod = uint32(*sonarPeriod)
	opts.ctrl.Cycle = uint32(*cycle)
	opts.ctrl.Lamp = logic.AlertConfig{Threshold: *threshold, OnTicks: uint32(*lampOn), CycleTicks: uint32(*lampCycle)}
	opts.ctrl.Buzzer = logic.AlertConfig{Threshold: *threshold, OnTicks: uint32(*buzzerOn), CycleTicks: uint32(*buzzerCycle)}

	if err := run(opts); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(opts options) error {
	if opts.tick <= 0 {
		return fmt.Errorf("tick must be positive, got %v", opts.tick)
	}

	// Initialize GPIO
	bank, err := gpio.Open(opts.backend, opts.chip, opts.pins)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer bank.Close()

	ranger := sonar.New(bank, opts.pins.Trig, opts.pins.Echo, opts.maxEcho, opts.maxPolls)

	// Print distance mode
	if opts.printDistance {
		d, err := ranger.Measure()
		if err != nil {
			return fmt.Errorf("measure: %w", err)
		}
		fmt.Printf("Distance: %.1f cm\n", d)
		return nil
	}

	// Initialize MQTT
	publisher, err := mqtt.NewRealPublisher(opts.broker, opts.clientID)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		TickUs:        opts.tick.Microseconds(),
		DisplayPeriod: opts.ctrl.DisplayPeriod,
		SonarPeriod:   opts.ctrl.SonarPeriod,
		Threshold:     opts.ctrl.Lamp.Threshold,
		Cycle:         opts.ctrl.Cycle,
		HeartbeatMs:   opts.heartbeat.Milliseconds(),
		Backend:       opts.backend,
		Broker:        opts.broker,
		HTTPPort:      opts.httpAddr,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}
	tracker.SetMQTTConnected(publisher.IsConnected())

	// Publish startup event with full status snapshot
	startupEvent := mqtt.SystemEvent{
		Timestamp:  time.Now(),
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(tracker.Snapshot(), "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if opts.httpAddr != "" {
		srv := web.New(opts.httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", opts.httpAddr)
	}

	ctrl := controller.New(opts.ctrl, bank, opts.pins, ranger, time.Now)

	log.Printf("started: tick=%v display=%d sonar=%d threshold=%.1fcm cycle=%d backend=%s broker=%s heartbeat=%v",
		opts.tick, opts.ctrl.DisplayPeriod, opts.ctrl.SonarPeriod, opts.ctrl.Lamp.Threshold, opts.ctrl.Cycle,
		opts.backend, opts.broker, opts.heartbeat)

	// The ticker is the timer flag: it holds at most one pending tick and
	// the loop consumes it before doing the tick's work.
	ticker := time.NewTicker(opts.tick)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(ctrl, publisher, publisher, tracker, opts.heartbeat, time.Now, ticker.C, sigCh)
}

func runLoop(ctrl *controller.Controller, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	lastHeartbeat := now()

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			if err := ctrl.Shutdown(); err != nil {
				log.Printf("release outputs: %v", err)
			}

			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
				Await:     true,
			}
			if tracker != nil {
				tracker.Update(ctrl.State())
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				event.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			for _, event := range ctrl.Tick() {
				log.Printf("event: %s (distance=%.1fcm)", event.Type, event.Distance)
				if err := publisher.Publish(event); err != nil {
					log.Printf("publish error: %v", err)
					// Don't crash on publish failure
				}
			}

			if tracker != nil {
				tracker.Update(ctrl.State())
			}

			if heartbeat <= 0 {
				continue
			}
			t := now()
			if t.Sub(lastHeartbeat) < heartbeat {
				continue
			}
			lastHeartbeat = t

			st := ctrl.State()
			log.Printf("heartbeat: distance=%.1fcm ticks=%d readings=%d timeouts=%d failures=%d",
				st.Distance, st.Ticks, st.Readings, st.Timeouts, st.Failures)

			hbEvent := mqtt.SystemEvent{
				Timestamp: t,
				Event:     "HEARTBEAT",
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				// Refresh network info for heartbeat
				if net := readNetworkInfo(); net != nil {
					tracker.SetNetwork(net)
				}
				hbEvent.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "HEARTBEAT", "")
			}
			if err := publisher.PublishSystem(hbEvent); err != nil {
				log.Printf("heartbeat publish error: %v", err)
			}
		}
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
