package status

import (
	"encoding/json"
	"math"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string        `json:"event,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	Ready         bool          `json:"ready"`
	Indicator     IndicatorJSON `json:"indicator"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	StartTime     string        `json:"start_time"`
	Timestamp     string        `json:"timestamp"`
	MQTT          MQTTStatus    `json:"mqtt"`
	Network       *NetworkJSON  `json:"network,omitempty"`
	Config        ConfigJSON    `json:"config"`
}

// IndicatorJSON is the JSON representation of the controller state.
type IndicatorJSON struct {
	DistanceCm float64  `json:"distance_cm"`
	Presence   string   `json:"presence"`
	Buzzer     string   `json:"buzzer"`
	Color      string   `json:"color"`
	Display    string   `json:"display"`
	Sonar      string   `json:"sonar"`
	Duty       DutyJSON `json:"duty"`
	Digits     [3]int   `json:"digits"`
	Ticks      uint64   `json:"ticks"`
	Readings   uint64   `json:"readings"`
	Timeouts   uint64   `json:"timeouts"`
	Failures   uint64   `json:"failures"`
}

// DutyJSON is the JSON representation of the blend duty pair.
type DutyJSON struct {
	Green uint32 `json:"green"`
	Red   uint32 `json:"red"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
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
	TickUs        int64   `json:"tick_us"`
	DisplayPeriod uint32  `json:"display_period"`
	SonarPeriod   uint32  `json:"sonar_period"`
	Threshold     float64 `json:"threshold_cm"`
	Cycle         uint32  `json:"cycle"`
	HeartbeatMs   int64   `json:"heartbeat_ms"`
	Backend       string  `json:"backend"`
	Broker        string  `json:"broker"`
	HTTPPort      string  `json:"http_port"`
}

func buildInner(snap Snapshot) StatusInner {
	ind := snap.Indicator
	inner := StatusInner{
		Ready: snap.Running,
		Indicator: IndicatorJSON{
			DistanceCm: math.Round(ind.Distance*10) / 10,
			Presence:   ind.Lamp.String(),
			Buzzer:     ind.Buzzer.String(),
			Color:      ind.Color.String(),
			Display:    ind.Display.String(),
			Sonar:      ind.Sonar.String(),
			Duty:       DutyJSON{Green: ind.Duty.Green, Red: ind.Duty.Red},
			Digits:     ind.Digits,
			Ticks:      ind.Ticks,
			Readings:   ind.Readings,
			Timeouts:   ind.Timeouts,
			Failures:   ind.Failures,
		},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			TickUs:        snap.Config.TickUs,
			DisplayPeriod: snap.Config.DisplayPeriod,
			SonarPeriod:   snap.Config.SonarPeriod,
			Threshold:     snap.Config.Threshold,
			Cycle:         snap.Config.Cycle,
			HeartbeatMs:   snap.Config.HeartbeatMs,
			Backend:       snap.Config.Backend,
			Broker:        snap.Config.Broker,
			HTTPPort:      snap.Config.HTTPPort,
		},
	}
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
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
