package logsink

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
)

const maxBody = 64 << 10

var validate = validator.New()

// payload fields are decoded loosely so malformed input falls back to
// defaults instead of being rejected.
type payload struct {
	Level   any `json:"level"`
	Message any `json:"message"`
	Context any `json:"context"`
}

// Normalize maps a client payload onto an Event: unknown levels become
// error, an empty message becomes "client-error" and a non-object context is
// dropped.
func Normalize(raw []byte) Event {
	var p payload
	_ = json.Unmarshal(raw, &p)

	ev := Event{Level: LevelError, Message: "client-error"}
	if level, ok := p.Level.(string); ok && validate.Var(level, "oneof=info warn error") == nil {
		ev.Level = Level(level)
	}
	if msg, ok := p.Message.(string); ok && msg != "" {
		ev.Message = msg
	}
	if ctx, ok := p.Context.(map[string]any); ok {
		ev.Context = ctx
	}
	return ev
}

type response struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Handler serves POST /api/log.
func Handler(rec Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(io.LimitReader(r.Body, maxBody))

		w.Header().Set("Content-Type", "application/json")
		if err := rec.Record(r.Context(), Normalize(raw)); err != nil {
			msg := err.Error()
			if msg == "" {
				msg = "log_failed"
			}
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(response{OK: false, Error: msg})
			return
		}
		_ = json.NewEncoder(w).Encode(response{OK: true})
	}
}
