package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sweeney/sonar-indicator/internal/controller"
	"github.com/sweeney/sonar-indicator/internal/logic"
	"github.com/sweeney/sonar-indicator/internal/status"
)

func newTestServer(t *testing.T) (*httptest.Server, *Server, *status.Tracker) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		TickUs:        1000,
		DisplayPeriod: 5,
		SonarPeriod:   50,
		Threshold:     10,
		Cycle:         15,
		HeartbeatMs:   900000,
		Backend:       "gpiocdev",
		Broker:        "tcp://192.168.1.200:1883",
		HTTPPort:      ":80",
	}
	tr := status.NewTracker(start, cfg)
	srv := New(":0", tr)
	srv.liveInterval = 10 * time.Millisecond
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts, srv, tr
}

func nearState() controller.State {
	return controller.State{
		Distance: 4.2,
		Lamp:     logic.AlertOn,
		Buzzer:   logic.AlertOn,
		Color:    logic.RedPhase,
		Duty:     logic.DutyCyclePair{Green: 0, Red: 15},
		Digits:   [3]int{4, 0, 0},
		Ticks:    5000,
		Readings: 50,
	}
}

func TestJSONEndpoint(t *testing.T) {
	ts, _, tr := newTestServer(t)
	tr.Update(nearState())
	tr.SetMQTTConnected(true)

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	if sj.Status.Indicator.DistanceCm != 4.2 {
		t.Errorf("DistanceCm: got %v, want 4.2", sj.Status.Indicator.DistanceCm)
	}
	if sj.Status.Indicator.Presence != "ON" {
		t.Errorf("Presence: got %q, want ON", sj.Status.Indicator.Presence)
	}
	if !sj.Status.Ready {
		t.Error("expected Ready=true")
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if sj.Status.Config.Broker != "tcp://192.168.1.200:1883" {
		t.Errorf("Config.Broker: got %q", sj.Status.Config.Broker)
	}
}

func TestHTMLEndpoint(t *testing.T) {
	ts, _, tr := newTestServer(t)
	tr.Update(nearState())
	tr.SetNetwork(&status.NetworkInfo{Type: "wifi", IP: "192.168.1.77", Status: "connected", SSID: "Shed"})

	for _, path := range []string{"/", "/index.html"} {
		t.Run(path, func(t *testing.T) {
			resp, err := http.Get(ts.URL + path)
			if err != nil {
				t.Fatalf("GET %s: %v", path, err)
			}
			defer resp.Body.Close()

			if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
				t.Errorf("Content-Type: got %q", ct)
			}
			body, _ := io.ReadAll(resp.Body)
			for _, want := range []string{"Sonar Indicator", "4.2 cm", "004", "192.168.1.77", "Shed", "green 0 / red 15", "color RED, display DIGIT1, sonar HOLD"} {
				if !strings.Contains(string(body), want) {
					t.Errorf("body missing %q", want)
				}
			}
		})
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/nope")
	if err != nil {
		t.Fatalf("GET /nope: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func dialLive(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readStatus(t *testing.T, conn *websocket.Conn) status.StatusJSON {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var sj status.StatusJSON
	if err := json.Unmarshal(data, &sj); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return sj
}

func TestLiveStreamReflectsUpdates(t *testing.T) {
	ts, _, tr := newTestServer(t)
	conn := dialLive(t, ts)

	first := readStatus(t, conn)
	if first.Status.Ready {
		t.Error("expected Ready=false before any update")
	}

	tr.Update(nearState())
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if sj := readStatus(t, conn); sj.Status.Indicator.Presence == "ON" {
			return
		}
	}
	t.Error("live stream never reported the update")
}

func TestLiveStreamClosedOnShutdown(t *testing.T) {
	ts, srv, _ := newTestServer(t)
	conn := dialLive(t, ts)
	readStatus(t, conn)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	srv.Shutdown(ctx)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
				t.Errorf("expected going-away close, got %v", err)
			}
			return
		}
	}
}

func TestLiveRejectsPlainHTTP(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/ws")
	if err != nil {
		t.Fatalf("GET /ws: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", resp.StatusCode)
	}
}
