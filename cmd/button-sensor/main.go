// Command button-sensor polls GPIO buttons, classifies clicks, double clicks
// and long holds, and publishes them to MQTT.
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

	"github.com/sweeney/button-sensor/internal/button"
	"github.com/sweeney/button-sensor/internal/config"
	"github.com/sweeney/button-sensor/internal/gpio"
	"github.com/sweeney/button-sensor/internal/monitor"
	"github.com/sweeney/button-sensor/internal/mqtt"
	"github.com/sweeney/button-sensor/internal/status"
	"github.com/sweeney/button-sensor/internal/web"
)

func main() {
	configPath := flag.String("config", "/etc/button-sensor.yaml", "YAML config file")
	broker := flag.String("broker", "", "MQTT broker address (overrides config)")
	httpAddr := flag.String("http", "", "HTTP status address (overrides config, \"off\" disables)")
	heartbeat := flag.Duration("heartbeat", 0, "Heartbeat interval (overrides config, 0 disables)")
	printState := flag.Bool("print-state", false, "Print current button states and exit")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}

	var o config.Overrides
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "broker":
			o.Broker = broker
		case "http":
			o.HTTP = httpAddr
		case "heartbeat":
			o.Heartbeat = heartbeat
		}
	})
	o.Apply(&cfg)
	if cfg.HTTP == "off" {
		cfg.HTTP = ""
	}

	if err := run(cfg, *printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg config.Config, printState bool) error {
	// Initialize GPIO
	samplers := make([]*gpio.Sampler, 0, len(cfg.Buttons))
	defer func() {
		for _, s := range samplers {
			if err := s.Close(); err != nil {
				log.Printf("gpio close: %v", err)
			}
		}
	}()
	for _, b := range cfg.Buttons {
		r, err := gpio.Open(cfg.Backend, cfg.Chip, gpio.Line{Pin: b.Pin, ActiveLow: b.ActiveLow})
		if err != nil {
			return fmt.Errorf("init gpio for %q: %w", b.Name, err)
		}
		samplers = append(samplers, gpio.NewSampler(b.Name, r))
	}

	// Print state mode
	if printState {
		for i, b := range cfg.Buttons {
			fmt.Printf("%s (pin %d): %s\n", b.Name, b.Pin, pressedString(samplers[i].Pressed()))
		}
		return nil
	}

	startTime := time.Now()
	mon := monitor.New(startTime, cfg.HoldRepeatEvery)
	for i, b := range cfg.Buttons {
		spec := monitor.Spec{Name: b.Name, Pin: b.Pin, LongPress: b.LongPress()}
		if err := mon.Add(spec, samplers[i]); err != nil {
			return fmt.Errorf("register button: %w", err)
		}
	}

	// Initialize MQTT
	publisher := mqtt.NewRealPublisher(mqtt.Options{Broker: cfg.Broker, ClientID: cfg.ClientID})
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(startTime, status.Config{
		PollMs:          button.TickInterval.Milliseconds(),
		HeartbeatMs:     cfg.Heartbeat.Milliseconds(),
		HoldRepeatEvery: cfg.HoldRepeatEvery,
		Backend:         cfg.Backend,
		Broker:          cfg.Broker,
		HTTPAddr:        cfg.HTTP,
	})
	tracker.Update(mon.Buttons(), mon.Counts())
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	var feed Feed
	if cfg.HTTP != "" {
		srv := web.New(cfg.HTTP, tracker)
		feed = srv.Hub()
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP)
	}

	log.Printf("started: buttons=%d backend=%s tick=%v broker=%s heartbeat=%v",
		mon.Len(), cfg.Backend, button.TickInterval, cfg.Broker, cfg.Heartbeat)

	ticker := time.NewTicker(button.TickInterval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(mon, publisher, publisher, tracker, feed, cfg.Heartbeat, time.Now, ticker.C, sigCh)
}

// Feed receives every published gesture for live consumers.
type Feed interface {
	Broadcast(event monitor.Event)
}

func runLoop(mon *monitor.Monitor, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, feed Feed, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
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
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()
			events := mon.Tick(t)

			for _, event := range events {
				if event.Type != button.LongHold {
					log.Printf("event: %s %s (pin %d)", event.Button, event.Type, event.Pin)
				}
				if err := publisher.Publish(event); err != nil {
					log.Printf("publish error: %v", err)
					// Don't crash on publish failure
				}
				if feed != nil {
					feed.Broadcast(event)
				}
			}

			// Update status tracker for HTTP consumers
			if tracker != nil {
				tracker.Update(mon.Buttons(), mon.Counts())
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}

			// Check for heartbeat
			if hbData := mon.CheckHeartbeat(t, heartbeat); hbData != nil {
				log.Printf("heartbeat: uptime=%v single=%d double=%d hold=%d",
					hbData.Uptime, hbData.Counts.SingleClick, hbData.Counts.DoubleClick, hbData.Counts.LongHold)

				hbEvent := mqtt.SystemEvent{
					Timestamp: hbData.Timestamp,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					// Refresh network info for heartbeat
					if net := readNetworkInfo(); net != nil {
						tracker.SetNetwork(net)
					}
					snap := tracker.Snapshot()
					hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
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

func pressedString(pressed bool) string {
	if pressed {
		return "PRESSED"
	}
	return "RELEASED"
}
