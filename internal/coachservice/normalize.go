package coachservice

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Reply is a provider answer in the shape the client receives.
type Reply struct {
	Response string
	Routine  json.RawMessage
}

// NormalizeReply turns raw model output into a Reply.
//
// A JSON object yields its "response" (or "message") field and its "routine";
// anything else is passed through untouched with no routine. The extracted
// response is never parsed a second time.
func NormalizeReply(raw string) Reply {
	if strings.TrimSpace(raw) == "" {
		return Reply{Response: EmptyReplyPlaceholder}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil || fields == nil {
		return Reply{Response: raw}
	}

	reply := Reply{Response: EmptyReplyPlaceholder}
	for _, key := range []string{"response", "message"} {
		if v, ok := fields[key]; ok {
			reply.Response = textValue(v)
			break
		}
	}

	if routine, ok := fields["routine"]; ok && !isNull(routine) {
		reply.Routine = routine
	}
	return reply
}

// textValue returns JSON strings decoded and any other value as compact JSON text.
func textValue(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	if isNull(v) {
		return EmptyReplyPlaceholder
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, v); err != nil {
		return string(v)
	}
	return buf.String()
}

func isNull(v json.RawMessage) bool {
	return len(bytes.TrimSpace(v)) == 0 || bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}
