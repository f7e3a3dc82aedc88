package apiclient

import (
	"encoding/json"
	"strings"

	"github.com/jrsteele09/go-queue-client/apimodel"
)

// parseEnvelope recognises {"status_code": ..., "body": ...}. Payloads
// without a status_code are not enveloped.
func parseEnvelope(raw []byte) (*apimodel.Envelope, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, false
	}
	if _, ok := fields["status_code"]; !ok {
		return nil, false
	}
	var env apimodel.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, false
	}
	return &env, true
}

// serverMessage extracts a human readable message from an error payload.
// FastAPI style {"detail": "..."} or {"detail": [{"msg": "..."}]}, plain
// {"error": "..."} and enveloped {"body": {"error": "..."}} are understood.
func serverMessage(raw []byte) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return ""
	}
	for _, key := range []string{"detail", "error", "message"} {
		if msg := messageValue(fields[key]); msg != "" {
			return msg
		}
	}
	if body, ok := fields["body"]; ok {
		return serverMessage(body)
	}
	return ""
}

func messageValue(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var details []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &details); err == nil {
		msgs := make([]string, 0, len(details))
		for _, d := range details {
			if m := strings.TrimSpace(d.Msg); m != "" {
				msgs = append(msgs, m)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
