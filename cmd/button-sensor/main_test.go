package main

import (
	"encoding/json"
	"errors"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/sweeney/button-sensor/internal/button"
	"github.com/sweeney/button-sensor/internal/gpio"
	"github.com/sweeney/button-sensor/internal/monitor"
	"github.com/sweeney/button-sensor/internal/mqtt"
	"github.com/sweeney/button-sensor/internal/status"
)

// TestEnvVarNames verifies the env var constants match what pi-helper writes
// to /run/pi-helper.env.
func TestEnvVarNames(t *testing.T) {
	want := map[string]string{
		"NETWORK_TYPE":        envNetworkType,
		"NETWORK_IP":          envNetworkIP,
		"NETWORK_STATUS":      envNetworkStatus,
		"NETWORK_GATEWAY":     envNetworkGateway,
		"NETWORK_WIFI_STATUS": envNetworkWifiStatus,
		"NETWORK_WIFI_SSID":   envNetworkWifiSSID,
	}
	for canonical, got := range want {
		if got != canonical {
			t.Errorf("env var constant: got %q, want %q", got, canonical)
		}
	}
}

func TestReadNetworkInfoAllSet(t *testing.T) {
	t.Setenv(envNetworkType, "wifi")
	t.Setenv(envNetworkIP, "192.168.1.100")
	t.Setenv(envNetworkStatus, "connected")
	t.Setenv(envNetworkGateway, "192.168.1.1")
	t.Setenv(envNetworkWifiStatus, "connected")
	t.Setenv(envNetworkWifiSSID, "MyNetwork")

	info := readNetworkInfo()
	if info == nil {
		t.Fatal("expected non-nil NetworkInfo")
	}

	want := status.NetworkInfo{
		Type:       "wifi",
		IP:         "192.168.1.100",
		Status:     "connected",
		Gateway:    "192.168.1.1",
		WifiStatus: "connected",
		SSID:       "MyNetwork",
	}
	if *info != want {
		t.Errorf("got %+v, want %+v", *info, want)
	}
}

func TestReadNetworkInfoNoneSet(t *testing.T) {
	t.Setenv(envNetworkStatus, "")
	if info := readNetworkInfo(); info != nil {
		t.Errorf("expected nil when NETWORK_STATUS is unset, got %+v", info)
	}
}

func TestPressedString(t *testing.T) {
	if pressedString(true) != "PRESSED" || pressedString(false) != "RELEASED" {
		t.Error("unexpected pressedString output")
	}
}

// --- runLoop tests ---

var start = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// fakeClock returns a function that yields start, start+step, start+2*step, ...
// on successive calls. Not safe for concurrent use (only called from runLoop's goroutine).
func fakeClock(start time.Time, step time.Duration) func() time.Time {
	n := 0
	return func() time.Time {
		t := start.Add(time.Duration(n) * step)
		n++
		return t
	}
}

// recordingFeed collects broadcast gestures.
type recordingFeed struct {
	events []monitor.Event
}

func (f *recordingFeed) Broadcast(ev monitor.Event) {
	f.events = append(f.events, ev)
}

type loopResult struct {
	pub     *mqtt.FakePublisher
	tracker *status.Tracker
	feed    *recordingFeed
	err     error
}

// driveLoop runs runLoop for n ticks then delivers sig.
func driveLoop(t *testing.T, mon *monitor.Monitor, pub *mqtt.FakePublisher, heartbeat time.Duration, n int, sig os.Signal) loopResult {
	t.Helper()
	tracker := status.NewTracker(start, status.Config{PollMs: 10})
	feed := &recordingFeed{}

	tick := make(chan time.Time)
	sigCh := make(chan os.Signal, 1)
	done := make(chan error, 1)

	go func() {
		done <- runLoop(mon, pub, pub, tracker, feed, heartbeat, fakeClock(start, button.TickInterval), tick, sigCh)
	}()

	for i := 0; i < n; i++ {
		tick <- time.Time{}
	}
	sigCh <- sig

	select {
	case err := <-done:
		return loopResult{pub: pub, tracker: tracker, feed: feed, err: err}
	case <-time.After(5 * time.Second):
		t.Fatal("runLoop did not return")
	}
	return loopResult{}
}

func newMonitor(t *testing.T, holdEvery int, buttons map[string][]bool) *monitor.Monitor {
	t.Helper()
	mon := monitor.New(start, holdEvery)
	pin := 1
	for name, samples := range buttons {
		if err := mon.Add(monitor.Spec{Name: name, Pin: pin}, gpio.NewSampler(name, gpio.NewFakeReader(samples))); err != nil {
			t.Fatalf("Add %s: %v", name, err)
		}
		pin++
	}
	return mon
}

func concat(parts ...[]bool) []bool {
	var out []bool
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestRunLoopPublishesGestures(t *testing.T) {
	single := concat(gpio.Hold(true, 30), gpio.Hold(false, 1))
	double := concat(gpio.Hold(true, 30), gpio.Hold(false, 10), gpio.Hold(true, 30), gpio.Hold(false, 1))
	mon := newMonitor(t, 10, map[string][]bool{"single": single})
	if err := mon.Add(monitor.Spec{Name: "double", Pin: 9}, gpio.NewSampler("double", gpio.NewFakeReader(double))); err != nil {
		t.Fatal(err)
	}

	res := driveLoop(t, mon, mqtt.NewFakePublisher(), 0, 200, syscall.SIGTERM)
	if res.err != nil {
		t.Fatalf("runLoop: %v", res.err)
	}

	var gotSingle, gotDouble int
	for _, e := range res.pub.Events {
		switch {
		case e.Button == "single" && e.Type == button.SingleClick:
			gotSingle++
		case e.Button == "double" && e.Type == button.DoubleClick:
			gotDouble++
		default:
			t.Errorf("unexpected event %+v", e)
		}
	}
	if gotSingle != 1 || gotDouble != 1 {
		t.Errorf("got single=%d double=%d, want 1 each", gotSingle, gotDouble)
	}
	if len(res.feed.events) != len(res.pub.Events) {
		t.Errorf("feed got %d events, publisher %d", len(res.feed.events), len(res.pub.Events))
	}

	snap := res.tracker.Snapshot()
	if snap.Counts.SingleClick != 1 || snap.Counts.DoubleClick != 1 {
		t.Errorf("tracker counts: got %+v", snap.Counts)
	}
	if len(snap.Buttons) != 2 {
		t.Errorf("tracker buttons: got %d, want 2", len(snap.Buttons))
	}
}

func TestRunLoopThrottlesLongHold(t *testing.T) {
	mon := newMonitor(t, 10, map[string][]bool{"hold": gpio.Hold(true, 1)})

	// 303 ticks to enter hold, then 25 fires.
	res := driveLoop(t, mon, mqtt.NewFakePublisher(), 0, 328, syscall.SIGTERM)

	if len(res.pub.Events) != 3 {
		t.Fatalf("expected 3 published LONG_HOLD events, got %d", len(res.pub.Events))
	}
	if got := res.tracker.Snapshot().Counts.LongHold; got != 25 {
		t.Errorf("tracker LongHold: got %d, want 25", got)
	}
}

func TestRunLoopPublishErrorDoesNotStop(t *testing.T) {
	mon := newMonitor(t, 1, map[string][]bool{"a": concat(gpio.Hold(true, 30), gpio.Hold(false, 1))})
	pub := mqtt.NewFakePublisher()
	pub.PublishError = errors.New("broker down")

	res := driveLoop(t, mon, pub, 0, 200, syscall.SIGTERM)
	if res.err != nil {
		t.Fatalf("runLoop: %v", res.err)
	}
	if res.tracker.Snapshot().Counts.SingleClick != 1 {
		t.Error("gesture not counted after publish failure")
	}
	if len(pub.SystemEvents) != 1 {
		t.Errorf("expected shutdown event, got %d system events", len(pub.SystemEvents))
	}
}

func TestRunLoopShutdownEvent(t *testing.T) {
	tests := []struct {
		sig  os.Signal
		want string
	}{
		{syscall.SIGTERM, "SIGTERM"},
		{syscall.SIGINT, "SIGINT"},
		{syscall.SIGHUP, "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			mon := newMonitor(t, 1, map[string][]bool{"a": {false}})
			pub := mqtt.NewFakePublisher()
			pub.Connected = true

			res := driveLoop(t, mon, pub, 0, 3, tt.sig)

			if len(pub.SystemEvents) != 1 {
				t.Fatalf("expected 1 system event, got %d", len(pub.SystemEvents))
			}
			ev := pub.SystemEvents[0]
			if ev.Event != "SHUTDOWN" || ev.Reason != tt.want || !ev.Retained {
				t.Errorf("shutdown event: got %+v", ev)
			}

			var parsed status.StatusJSON
			if err := json.Unmarshal(pub.SystemPayloads[0], &parsed); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if parsed.Status.Event != "SHUTDOWN" || parsed.Status.Reason != tt.want {
				t.Errorf("payload: got %+v", parsed.Status)
			}
			if !parsed.Status.MQTT.Connected {
				t.Error("expected MQTT connected in shutdown snapshot")
			}
			if !res.tracker.Snapshot().MQTTConnected {
				t.Error("tracker MQTT status not updated")
			}
		})
	}
}

func TestRunLoopHeartbeat(t *testing.T) {
	mon := newMonitor(t, 1, map[string][]bool{"a": {false}})
	pub := mqtt.NewFakePublisher()

	// The clock advances 10ms per tick starting at 0, so a 1s heartbeat fires on ticks 101 and 201.
	driveLoop(t, mon, pub, time.Second, 250, syscall.SIGTERM)

	var heartbeats int
	for _, ev := range pub.SystemEvents {
		if ev.Event == "HEARTBEAT" {
			heartbeats++
			var parsed status.StatusJSON
			if err := json.Unmarshal(ev.RawPayload, &parsed); err != nil {
				t.Fatalf("invalid heartbeat JSON: %v", err)
			}
			if parsed.Status.Event != "HEARTBEAT" {
				t.Errorf("heartbeat payload event: got %q", parsed.Status.Event)
			}
		}
	}
	if heartbeats != 2 {
		t.Errorf("expected 2 heartbeats, got %d", heartbeats)
	}
}
