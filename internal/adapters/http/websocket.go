package http

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/adapters/nats"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/pkg/metrics"
)

// wsMessage is sent from client to subscribe/unsubscribe to coverage events.
type wsMessage struct {
	Action    string `json:"action"`     // "subscribe" | "unsubscribe"
	WorkOrder string `json:"work_order"` // work order id filter (optional, "" = all)
	Status    string `json:"status"`     // "completed" | "failed" | "" (both)
}

// coverageSubject builds the NATS subject for a subscription filter.
func coverageSubject(m wsMessage) (string, bool) {
	status := m.Status
	switch status {
	case "":
		status = "*"
	case "completed", "failed":
	default:
		return "", false
	}
	wo := m.WorkOrder
	if wo == "" {
		wo = "*"
	}
	return "spraying.coverage." + status + "." + wo, true
}

// relaySubscriptions tracks the subjects one websocket client listens to. No
// two live subscriptions overlap, so every event is relayed at most once. A
// filter replaces the catch-all, a subject already covered by a broader
// filter is not subscribed again, and a broader subject replaces the
// narrower ones it covers.
type relaySubscriptions struct {
	subscribe func(subject string) (unsubscribe func() error, err error)
	subs      map[string]func() error
}

func newRelaySubscriptions(subscribe func(string) (func() error, error)) *relaySubscriptions {
	return &relaySubscriptions{subscribe: subscribe, subs: make(map[string]func() error)}
}

// add subscribes to subject and reports what happened.
func (r *relaySubscriptions) add(subject string) (string, error) {
	subject = canonicalSubject(subject)
	if _, ok := r.subs[subject]; ok {
		return "already subscribed", nil
	}
	// A filter narrows the stream: it replaces the catch-all.
	if subject != natsadapter.CoverageSubjects {
		if unsub, ok := r.subs[natsadapter.CoverageSubjects]; ok {
			_ = unsub()
			delete(r.subs, natsadapter.CoverageSubjects)
		}
	}
	for existing := range r.subs {
		if subjectCovers(existing, subject) {
			return "already covered by " + existing, nil
		}
	}

	for existing, unsub := range r.subs {
		if subjectCovers(subject, existing) {
			_ = unsub()
			delete(r.subs, existing)
		}
	}

	unsub, err := r.subscribe(subject)
	if err != nil {
		return "", err
	}
	r.subs[subject] = unsub
	return "subscribed", nil
}

// remove drops subject and reports whether it was subscribed.
func (r *relaySubscriptions) remove(subject string) bool {
	subject = canonicalSubject(subject)
	unsub, ok := r.subs[subject]
	if ok {
		_ = unsub()
		delete(r.subs, subject)
	}
	return ok
}

func (r *relaySubscriptions) close() {
	for subject, unsub := range r.subs {
		_ = unsub()
		delete(r.subs, subject)
	}
}

// canonicalSubject folds the all-statuses, all-work-orders filter into the
// stream wildcard.
func canonicalSubject(subject string) string {
	if subject == "spraying.coverage.*.*" {
		return natsadapter.CoverageSubjects
	}
	return subject
}

// subjectCovers reports whether every subject matched by specific is also
// matched by general, using NATS token wildcards.
func subjectCovers(general, specific string) bool {
	g := strings.Split(general, ".")
	s := strings.Split(specific, ".")
	for i, tok := range g {
		if tok == ">" {
			return len(s) > i
		}
		if i >= len(s) {
			return false
		}
		if s[i] == ">" {
			return false
		}
		if tok != "*" && (s[i] == "*" || tok != s[i]) {
			return false
		}
	}
	return len(g) == len(s)
}

// WebSocketHandler returns a handler that upgrades to WebSocket and relays
// coverage events from NATS to dashboards.
// Clients send JSON: {"action":"subscribe","work_order":"<id>","status":"failed"}
// Every client starts on all coverage events; the first filtered subscribe
// replaces that catch-all.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		logger := slog.With("remote", c.RemoteAddr().String())
		logger.Info("ws client connected")

		if nc == nil {
			_ = c.WriteMessage(websocket.TextMessage, []byte(`{"error":"event stream unavailable"}`))
			return
		}

		var mu sync.Mutex
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}
		relay := func(msg *nats.Msg) {
			_ = writeJSON(json.RawMessage(msg.Data))
		}

		subs := newRelaySubscriptions(func(subject string) (func() error, error) {
			s, err := nc.Subscribe(subject, relay)
			if err != nil {
				return nil, err
			}
			return s.Unsubscribe, nil
		})
		defer subs.close()

		if _, err := subs.add(natsadapter.CoverageSubjects); err != nil {
			logger.Error("ws default subscribe failed", "error", err)
			return
		}

		// Keep-alive ping
		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}
			subject, ok := coverageSubject(m)
			if !ok {
				_ = writeJSON(map[string]string{"error": "unknown status: " + m.Status})
				continue
			}
			subject = canonicalSubject(subject)

			switch m.Action {
			case "subscribe":
				status, err := subs.add(subject)
				if err != nil {
					_ = writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
					continue
				}
				_ = writeJSON(map[string]string{"status": status, "subject": subject})

			case "unsubscribe":
				if subs.remove(subject) {
					_ = writeJSON(map[string]string{"status": "unsubscribed", "subject": subject})
				} else {
					_ = writeJSON(map[string]string{"error": "not subscribed to " + subject})
				}

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}
		logger.Info("ws client disconnected")
	}
}
