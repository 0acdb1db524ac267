package rules

import (
	"fmt"
	"strconv"

	"github.com/edgekit/iotgw/internal/infrastructure/config"
)

// FromConfig materializes rules from a flattened config array such as
// "automation_rules" or "alarm_rules".
//
// Entries are read at <arrayKey>[i].{id,enabled,when.*,then[j].*} until the
// first index without an id key. Entries with an empty id or an incomplete
// condition are skipped; individual config errors are never fatal.
func FromConfig(m *config.Map, arrayKey string, category Category) []Rule {
	var out []Rule
	for i := 0; ; i++ {
		prefix := fmt.Sprintf("%s[%d]", arrayKey, i)
		if !m.Has(prefix + ".id") {
			break
		}

		rule, ok := ruleFromConfig(m, prefix, category)
		if !ok {
			continue
		}
		out = append(out, rule)
	}
	return out
}

func ruleFromConfig(m *config.Map, prefix string, category Category) (Rule, bool) {
	id, _ := m.GetString(prefix + ".id")
	if id == "" {
		return Rule{}, false
	}

	sensorID, _ := m.GetString(prefix + ".when.sensor_id")
	op, _ := m.GetString(prefix + ".when.op")
	rawValue, hasValue := m.GetString(prefix + ".when.value")
	if sensorID == "" || op == "" || !hasValue {
		return Rule{}, false
	}
	threshold, err := strconv.ParseFloat(rawValue, 64)
	if err != nil {
		return Rule{}, false
	}

	enabled := true
	if v, ok := m.GetBool(prefix + ".enabled"); ok {
		enabled = v
	}

	return Rule{
		ID:       id,
		Category: category,
		Enabled:  enabled,
		When:     Condition{SensorID: sensorID, Op: op, Value: threshold},
		Then:     actionsFromConfig(m, prefix),
	}, true
}

func actionsFromConfig(m *config.Map, prefix string) []Action {
	var actions []Action
	for j := 0; ; j++ {
		p := fmt.Sprintf("%s.then[%d]", prefix, j)
		typ, ok := m.GetString(p + ".type")
		if !ok {
			break
		}

		switch ActionType(typ) {
		case ActionActuatorSet:
			actuatorID, _ := m.GetString(p + ".actuator_id")
			if actuatorID == "" {
				continue
			}
			value, _ := m.GetString(p + ".value")
			actions = append(actions, Action{
				Type:       ActionActuatorSet,
				ActuatorID: actuatorID,
				Value:      value,
			})
		case ActionLog:
			level, _ := m.GetString(p + ".level")
			message, _ := m.GetString(p + ".message")
			actions = append(actions, Action{
				Type:    ActionLog,
				Level:   level,
				Message: message,
			})
		default:
			// Unknown action types are skipped, the rest of the rule stands.
		}
	}
	return actions
}
