package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Buttons       []ButtonJSON `json:"buttons"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"event_counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// ButtonJSON is the JSON representation of one button.
type ButtonJSON struct {
	Name        string     `json:"name"`
	Pin         int        `json:"pin"`
	Pressed     bool       `json:"pressed"`
	Step        string     `json:"step"`
	LastEvent   string     `json:"last_event,omitempty"`
	LastEventAt string     `json:"last_event_at,omitempty"`
	Counts      CountsJSON `json:"event_counts"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of gesture counts.
type CountsJSON struct {
	SingleClick int `json:"single_click"`
	DoubleClick int `json:"double_click"`
	LongHold    int `json:"long_hold"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs          int64  `json:"poll_ms"`
	HeartbeatMs     int64  `json:"heartbeat_ms"`
	HoldRepeatEvery int    `json:"hold_repeat_every"`
	Backend         string `json:"backend"`
	Broker          string `json:"broker"`
	HTTPAddr        string `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	buttons := make([]ButtonJSON, 0, len(snap.Buttons))
	for _, b := range snap.Buttons {
		bj := ButtonJSON{
			Name:    b.Name,
			Pin:     b.Pin,
			Pressed: b.Pressed,
			Step:    b.Step.String(),
			Counts: CountsJSON{
				SingleClick: b.Counts.SingleClick,
				DoubleClick: b.Counts.DoubleClick,
				LongHold:    b.Counts.LongHold,
			},
		}
		if b.LastEvent != 0 {
			bj.LastEvent = b.LastEvent.String()
			bj.LastEventAt = b.LastEventAt.UTC().Format(time.RFC3339)
		}
		buttons = append(buttons, bj)
	}

	return StatusInner{
		Buttons:       buttons,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			SingleClick: snap.Counts.SingleClick,
			DoubleClick: snap.Counts.DoubleClick,
			LongHold:    snap.Counts.LongHold,
		},
		Config: ConfigJSON{
			PollMs:          snap.Config.PollMs,
			HeartbeatMs:     snap.Config.HeartbeatMs,
			HoldRepeatEvery: snap.Config.HoldRepeatEvery,
			Backend:         snap.Config.Backend,
			Broker:          snap.Config.Broker,
			HTTPAddr:        snap.Config.HTTPAddr,
		},
	}
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
