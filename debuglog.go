package websocket

import (
	"bytes"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// logDebugPayload logs a received message's payload at Debug level,
// pretty-printing it first when it looks like a JSON document — a
// teacher-style trace aid for the JSON convenience layer in json.go.
func logDebugPayload(op Opcode, data []byte) {
	if !logrus.IsLevelEnabled(logrus.DebugLevel) {
		return
	}
	trimmed := bytes.TrimSpace(data)
	if op == OpText && len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') && gjson.ValidBytes(trimmed) {
		logrus.WithField("opcode", op).Debugf("websocket: received message:\n%s", pretty.Pretty(trimmed))
		return
	}
	logrus.WithFields(logrus.Fields{"opcode": op, "len": len(data)}).Debug("websocket: received message")
}
