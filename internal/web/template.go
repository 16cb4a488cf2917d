package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/sonar-indicator/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"cm": func(d float64) string {
		return fmt.Sprintf("%.1f cm", d)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Sonar Indicator</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: red; font-weight: bold; }
.off { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Sonar Indicator</h1>

<h2>Reading</h2>
<table>
<tr><th>Distance</th><td id="distance">{{cm .Indicator.Distance}}</td></tr>
<tr><th>Display</th><td id="digits">{{index .Indicator.Digits 2}}{{index .Indicator.Digits 1}}{{index .Indicator.Digits 0}}</td></tr>
<tr><th>Presence</th><td id="presence" class="{{if eq .Indicator.Lamp.String "ON"}}on{{else}}off{{end}}">{{.Indicator.Lamp}}</td></tr>
<tr><th>Buzzer</th><td id="buzzer" class="{{if eq .Indicator.Buzzer.String "ON"}}on{{else}}off{{end}}">{{.Indicator.Buzzer}}</td></tr>
<tr><th>Blend</th><td id="duty">green {{.Indicator.Duty.Green}} / red {{.Indicator.Duty.Red}}</td></tr>
<tr><th>Tasks</th><td id="tasks">color {{.Indicator.Color}}, display {{.Indicator.Display}}, sonar {{.Indicator.Sonar}}</td></tr>
<tr><th>Ready</th><td>{{if .Running}}yes{{else}}no{{end}}</td></tr>
</table>

<h2>Counters</h2>
<table>
<tr><th>Ticks</th><td id="ticks">{{.Indicator.Ticks}}</td></tr>
<tr><th>Readings</th><td id="readings">{{.Indicator.Readings}}</td></tr>
<tr><th>Sonar timeouts</th><td id="timeouts">{{.Indicator.Timeouts}}</td></tr>
<tr><th>Sonar failures</th><td id="failures">{{.Indicator.Failures}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Tick</th><td>{{.Config.TickUs}}us</td></tr>
<tr><th>Display period</th><td>{{.Config.DisplayPeriod}} ticks</td></tr>
<tr><th>Sonar period</th><td>{{.Config.SonarPeriod}} ticks</td></tr>
<tr><th>Threshold</th><td>{{cm .Config.Threshold}}</td></tr>
<tr><th>GPIO</th><td>{{.Config.Backend}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
<script>
(function() {
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + "/ws");
  function set(id, text) { var el = document.getElementById(id); if (el) el.textContent = text; }
  ws.onmessage = function(ev) {
    try {
      var s = JSON.parse(ev.data).status.indicator;
      set("distance", s.distance_cm.toFixed(1) + " cm");
      set("digits", "" + s.digits[2] + s.digits[1] + s.digits[0]);
      set("presence", s.presence);
      set("buzzer", s.buzzer);
      set("duty", "green " + s.duty.green + " / red " + s.duty.red);
      set("ticks", s.ticks);
      set("readings", s.readings);
      set("timeouts", s.timeouts);
      set("failures", s.failures);
      set("tasks", "color " + s.color + ", display " + s.display + ", sonar " + s.sonar);
    } catch (e) {}
  };
})();
</script>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	return indexTmpl.Execute(w, data)
}
