package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/sweeney/sonar-indicator/internal/controller"
	"github.com/sweeney/sonar-indicator/internal/gpio"
	"github.com/sweeney/sonar-indicator/internal/logic"
	"github.com/sweeney/sonar-indicator/internal/mqtt"
	"github.com/sweeney/sonar-indicator/internal/status"
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

func TestReadNetworkInfoPartial(t *testing.T) {
	t.Setenv(envNetworkStatus, "connected")
	t.Setenv(envNetworkIP, "")

	info := readNetworkInfo()
	if info == nil {
		t.Fatal("expected non-nil NetworkInfo when NETWORK_STATUS is set")
	}
	if info.Status != "connected" {
		t.Errorf("Status: got %q, want %q", info.Status, "connected")
	}
	if info.IP != "" {
		t.Errorf("IP: got %q, want empty", info.IP)
	}
}

// --- runLoop tests ---

// fakeClock returns a function that yields start, start+step, start+2*step, ...
// on successive calls. Not safe for concurrent use.
func fakeClock(start time.Time, step time.Duration) func() time.Time {
	n := 0
	return func() time.Time {
		t := start.Add(time.Duration(n) * step)
		n++
		return t
	}
}

var testStart = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// scriptedRanger returns the readings in order; the last one repeats.
type scriptedRanger struct {
	readings []float64
	err      error
	calls    int
}

func (r *scriptedRanger) Measure() (float64, error) {
	i := r.calls
	r.calls++
	if r.err != nil {
		return 0, r.err
	}
	if i >= len(r.readings) {
		i = len(r.readings) - 1
	}
	return r.readings[i], nil
}

type harness struct {
	bank    *gpio.FakeBank
	pub     *mqtt.FakePublisher
	ranger  *scriptedRanger
	ctrl    *controller.Controller
	tracker *status.Tracker
}

func newHarness(readings ...float64) *harness {
	h := &harness{
		bank:    gpio.NewFakeBank(),
		pub:     mqtt.NewFakePublisher(),
		ranger:  &scriptedRanger{readings: readings},
		tracker: status.NewTracker(testStart, status.Config{TickUs: 1000}),
	}
	h.ctrl = controller.New(controller.DefaultConfig(), h.bank, gpio.DefaultPins(), h.ranger,
		func() time.Time { return testStart })
	return h
}

// runRunLoop drives runLoop for nTicks and then delivers signal.
func runRunLoop(t *testing.T, h *harness, heartbeat time.Duration, clock func() time.Time, nTicks int, signal os.Signal) error {
	t.Helper()
	tick := make(chan time.Time)
	sig := make(chan os.Signal, 1)

	errCh := make(chan error, 1)
	go func() {
		errCh <- runLoop(h.ctrl, h.pub, h.pub, h.tracker, heartbeat, clock, tick, sig)
	}()

	for i := 0; i < nTicks; i++ {
		tick <- time.Time{}
	}
	sig <- signal

	return <-errCh
}

func TestRunLoopNoTargetNoEvents(t *testing.T) {
	h := newHarness(200)
	clock := fakeClock(testStart, time.Millisecond)

	if err := runRunLoop(t, h, 0, clock, 100, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
	if len(h.pub.Events) != 0 {
		t.Errorf("expected 0 indicator events, got %d", len(h.pub.Events))
	}
	if len(h.pub.SystemEvents) != 1 || h.pub.SystemEvents[0].Event != "SHUTDOWN" {
		t.Fatalf("expected a single SHUTDOWN event, got %+v", h.pub.SystemEvents)
	}
	if got := h.tracker.Snapshot().Indicator.Ticks; got != 100 {
		t.Errorf("tracker ticks: got %d, want 100", got)
	}
}

func TestRunLoopPublishesPresence(t *testing.T) {
	h := newHarness(3)
	clock := fakeClock(testStart, time.Millisecond)

	if err := runRunLoop(t, h, 0, clock, 2, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	var got []logic.EventType
	for _, e := range h.pub.Events {
		got = append(got, e.Type)
	}
	want := []logic.EventType{logic.EventPresenceOn, logic.EventBuzzerOn}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("events: got %v, want %v", got, want)
	}

	var p mqtt.Payload
	if err := json.Unmarshal(h.pub.Payloads[0], &p); err != nil {
		t.Fatalf("invalid payload: %v", err)
	}
	if p.Indicator.Event != "PRESENCE_ON" || p.Indicator.DistanceCm != 3 {
		t.Errorf("unexpected payload: %+v", p.Indicator)
	}
}

func TestRunLoopShutdownReleasesOutputs(t *testing.T) {
	h := newHarness(3)
	clock := fakeClock(testStart, time.Millisecond)
	pins := gpio.DefaultPins()

	if err := runRunLoop(t, h, 0, clock, 10, syscall.SIGINT); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
	if h.bank.Levels[pins.Lamp] || h.bank.Levels[pins.Buzzer] {
		t.Error("expected lamp and buzzer low after shutdown")
	}
	for _, d := range pins.Digits {
		if !h.bank.Levels[d] {
			t.Errorf("digit %d still enabled after shutdown", d)
		}
	}

	se := h.pub.SystemEvents[len(h.pub.SystemEvents)-1]
	if se.Event != "SHUTDOWN" || se.Reason != "SIGINT" {
		t.Errorf("unexpected final event: %+v", se)
	}
	if !se.Retained || !se.Await {
		t.Error("SHUTDOWN must be retained and awaited")
	}

	var payload status.StatusJSON
	if err := json.Unmarshal(se.RawPayload, &payload); err != nil {
		t.Fatalf("invalid SHUTDOWN payload: %v", err)
	}
	if payload.Status.Event != "SHUTDOWN" || payload.Status.Reason != "SIGINT" {
		t.Errorf("payload: event=%q reason=%q", payload.Status.Event, payload.Status.Reason)
	}
	if payload.Status.Indicator.Presence != "ON" {
		t.Errorf("payload presence: got %q, want ON", payload.Status.Indicator.Presence)
	}
}

func TestRunLoopShutdownSIGTERMReason(t *testing.T) {
	h := newHarness(50)
	clock := fakeClock(testStart, time.Millisecond)

	if err := runRunLoop(t, h, 0, clock, 0, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
	if h.pub.SystemEvents[0].Reason != "SIGTERM" {
		t.Errorf("reason: got %q, want SIGTERM", h.pub.SystemEvents[0].Reason)
	}
}

func TestRunLoopHeartbeat(t *testing.T) {
	// Clock calls: t0 at start, then one per tick. With a 1-minute step
	// and a 2-minute interval, ticks 2 and 4 send heartbeats.
	h := newHarness(50)
	h.pub.Connected = true
	clock := fakeClock(testStart, time.Minute)

	if err := runRunLoop(t, h, 2*time.Minute, clock, 4, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	var names []string
	for _, se := range h.pub.SystemEvents {
		names = append(names, se.Event)
	}
	want := []string{"HEARTBEAT", "HEARTBEAT", "SHUTDOWN"}
	if fmt.Sprint(names) != fmt.Sprint(want) {
		t.Fatalf("system events: got %v, want %v", names, want)
	}

	hb := h.pub.SystemEvents[0]
	if !hb.Timestamp.Equal(testStart.Add(2 * time.Minute)) {
		t.Errorf("heartbeat timestamp: got %v", hb.Timestamp)
	}
	var payload status.StatusJSON
	if err := json.Unmarshal(hb.RawPayload, &payload); err != nil {
		t.Fatalf("invalid HEARTBEAT payload: %v", err)
	}
	if !payload.Status.MQTT.Connected {
		t.Error("expected heartbeat to report MQTT connected")
	}
}

func TestRunLoopPublishError(t *testing.T) {
	h := newHarness(3)
	h.pub.PublishError = errors.New("broker unavailable")
	clock := fakeClock(testStart, time.Millisecond)

	if err := runRunLoop(t, h, 0, clock, 5, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
	if len(h.pub.Events) != 0 {
		t.Errorf("expected 0 recorded events (publish failed), got %d", len(h.pub.Events))
	}
	if st := h.ctrl.State(); st.Lamp != logic.AlertOn {
		t.Errorf("lamp: got %s, want ON", st.Lamp)
	}
	if len(h.pub.SystemEvents) != 1 || h.pub.SystemEvents[0].Event != "SHUTDOWN" {
		t.Error("expected SHUTDOWN system event despite publish errors")
	}
}

func TestRunLoopSystemPublishError(t *testing.T) {
	h := newHarness(50)
	h.pub.PublishSystemError = errors.New("broker unavailable")
	clock := fakeClock(testStart, time.Minute)

	if err := runRunLoop(t, h, time.Minute, clock, 3, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
	if got := h.ctrl.State().Ticks; got != 3 {
		t.Errorf("ticks: got %d, want 3", got)
	}
}

func TestRunLoopSonarFailureKeepsRunning(t *testing.T) {
	h := newHarness()
	h.ranger.err = errors.New("echo line stuck")
	clock := fakeClock(testStart, time.Millisecond)

	if err := runRunLoop(t, h, 0, clock, 120, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
	st := h.ctrl.State()
	if st.Failures != 2 || st.Timeouts != 0 {
		t.Errorf("failures=%d timeouts=%d, want 2/0", st.Failures, st.Timeouts)
	}
	if st.Distance != controller.NoTarget {
		t.Errorf("distance: got %v, want %v", st.Distance, controller.NoTarget)
	}
}

func TestRunRejectsNonPositiveTick(t *testing.T) {
	if err := run(options{tick: 0}); err == nil {
		t.Error("expected error for zero tick")
	}
}
