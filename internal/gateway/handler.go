package gateway

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/edgekit/iotgw/internal/history"
	"github.com/edgekit/iotgw/internal/rules"
)

// HandleMessage processes one inbound MQTT message.
//
// Pipeline, in publication order: registry upsert, numeric parse, rule
// evaluation (which may publish actuator commands), then a broadcast to
// every WebSocket peer. Non-telemetry topics and non-numeric payloads fall
// through to the broadcast.
func (g *Gateway) HandleMessage(topic, payload string) {
	now := g.nowMS()

	deviceID, ok := g.registry.UpsertFromTelemetryTopic(topic, payload, now)
	if ok {
		if value, numeric := parseSensorValue(payload); numeric {
			if g.telemetry != nil {
				g.telemetry.WriteSensorValue(deviceID, value)
			}
			g.engine.OnSensorValue(deviceID, value, g.execAction(deviceID, value, now))
		}
	}

	if g.hub != nil {
		g.hub.Broadcast(map[string]string{
			"type":    "mqtt_msg",
			"topic":   topic,
			"payload": payload,
		})
	}
}

// execAction returns the engine callback for one telemetry arrival.
// It runs on the MQTT delivery goroutine, in rule and action order.
func (g *Gateway) execAction(deviceID string, value float64, nowMS int64) rules.ExecFunc {
	return func(rule rules.Rule, action rules.Action) {
		switch action.Type {
		case rules.ActionActuatorSet:
			g.execActuatorSet(rule, action)
		case rules.ActionLog:
			g.execLog(rule, action)
		}

		if g.firings != nil {
			g.firings.Record(history.Firing{
				RuleID:   rule.ID,
				Category: string(rule.Category),
				DeviceID: deviceID,
				Value:    value,
				Action:   string(action.Type),
				FiredAt:  nowMS,
			})
		}
	}
}

// execActuatorSet publishes the action's value to the actuator's command
// topic, falling back to <prefix>cmd/{id}. Publishes fail closed while the
// broker session is down.
func (g *Gateway) execActuatorSet(rule rules.Rule, action rules.Action) {
	topic, ok := g.registry.GetCommandTopic(action.ActuatorID)
	if !ok {
		topic = g.prefix + "cmd/" + action.ActuatorID
	}

	if !g.publisher.IsConnected() {
		g.log.Warn("rule action dropped, mqtt not connected",
			"rule", rule.ID, "actuator", action.ActuatorID)
		return
	}

	if err := g.publisher.Publish(topic, []byte(action.Value), 0, false); err != nil {
		g.log.Error("rule action publish failed",
			"rule", rule.ID, "topic", topic, "error", err)
		return
	}
	g.log.Info("rule action",
		"rule", rule.ID, "actuator", action.ActuatorID, "value", action.Value)
}

// execLog emits the action's message at its configured level.
// An empty message logs "rule_fired: <id>".
func (g *Gateway) execLog(rule rules.Rule, action rules.Action) {
	msg := action.Message
	if msg == "" {
		msg = "rule_fired: " + rule.ID
	}

	switch strings.ToLower(action.Level) {
	case "trace":
		g.log.Trace(msg, "rule", rule.ID)
	case "debug":
		g.log.Debug(msg, "rule", rule.ID)
	case "warn", "warning":
		g.log.Warn(msg, "rule", rule.ID)
	case "error":
		g.log.Error(msg, "rule", rule.ID)
	default:
		g.log.Info(msg, "rule", rule.ID)
	}
}

// parseSensorValue extracts a numeric reading from a telemetry payload.
//
// The whole payload, trimmed of ASCII whitespace, must parse as a float;
// failing that, a JSON object with a numeric "value" member is accepted.
func parseSensorValue(payload string) (float64, bool) {
	trimmed := strings.Trim(payload, " \t\r\n")
	if trimmed == "" {
		return 0, false
	}

	if v, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return v, true
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
		return 0, false
	}
	raw, ok := obj["value"]
	if !ok {
		return 0, false
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	return v, true
}
