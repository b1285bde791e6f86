package livereload

import "strings"

const (
	// SocketPath is where browsers connect to the hub.
	SocketPath = "/_keystone/ws"

	// ScriptPath serves Script.
	ScriptPath = "/_keystone/livereload.js"
)

// Script reconnects to the hub and reloads the page on a reload message.
const Script = `(function () {
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  function connect() {
    var ws = new WebSocket(proto + location.host + "` + SocketPath + `");
    ws.onmessage = function (ev) {
      var msg = JSON.parse(ev.data);
      if (msg.type === "reload") {
        location.reload();
      }
    };
    ws.onclose = function () {
      setTimeout(connect, 1000);
    };
  }
  connect();
})();
`

const tag = `<script src="` + ScriptPath + `"></script>`

// Inject adds the script tag before the last closing body tag, or at the
// end of the document when there is none.
func Inject(body string) string {
	idx := strings.LastIndex(strings.ToLower(body), "</body>")
	if idx < 0 {
		return body + tag
	}

	return body[:idx] + tag + body[idx:]
}
