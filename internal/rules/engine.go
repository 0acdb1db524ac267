package rules

import (
	"strings"
	"sync"
)

// ExecFunc is invoked for every action of every matching rule, in order,
// on the goroutine that called OnSensorValue.
type ExecFunc func(rule Rule, action Action)

// Engine stores the ordered rule list and evaluates it against incoming
// sensor values.
//
// Thread Safety: evaluation may run concurrently with replacement (the
// reload endpoint clears and re-adds); the rule list is guarded by an
// RWMutex and OnSensorValue works on a snapshot so exec callbacks never run
// under the engine's lock.
type Engine struct {
	mu    sync.RWMutex
	rules []Rule
}

// NewEngine creates an empty rule engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Clear removes all rules.
func (e *Engine) Clear() {
	e.mu.Lock()
	e.rules = nil
	e.mu.Unlock()
}

// AddRules appends rules, keeping insertion order as evaluation order.
func (e *Engine) AddRules(rules []Rule) {
	e.mu.Lock()
	e.rules = append(e.rules, rules...)
	e.mu.Unlock()
}

// Rules returns a copy of the rule list in evaluation order.
func (e *Engine) Rules() []Rule {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Count returns the number of installed rules.
func (e *Engine) Count() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.rules)
}

// SetEnabled toggles the first rule with the given id and reports whether it
// was found.
func (e *Engine) SetEnabled(id string, enabled bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.rules {
		if e.rules[i].ID == id {
			e.rules[i].Enabled = enabled
			return true
		}
	}
	return false
}

// HasRule reports whether any rule has the given id.
func (e *Engine) HasRule(id string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for i := range e.rules {
		if e.rules[i].ID == id {
			return true
		}
	}
	return false
}

// OnSensorValue evaluates every rule in insertion order against the sensor
// value. Disabled rules and rules watching other sensors are skipped. For
// each match, exec runs for every action in list order; all actions of rule
// k complete before rule k+1 is considered.
func (e *Engine) OnSensorValue(sensorID string, value float64, exec ExecFunc) {
	if exec == nil {
		return
	}

	e.mu.RLock()
	snapshot := make([]Rule, len(e.rules))
	copy(snapshot, e.rules)
	e.mu.RUnlock()

	for _, rule := range snapshot {
		if !rule.Enabled || rule.When.SensorID != sensorID {
			continue
		}
		if !evalCondition(rule.When.Op, value, rule.When.Value) {
			continue
		}
		for _, action := range rule.Then {
			exec(rule, action)
		}
	}
}

// evalCondition applies the rule operator to (value op threshold).
// Operators are case-insensitive and "=" means "==". Equality is IEEE-754
// float64 equality, unchanged from the original semantics. Unknown
// operators never match.
func evalCondition(op string, value, threshold float64) bool {
	switch strings.ToLower(op) {
	case ">":
		return value > threshold
	case ">=":
		return value >= threshold
	case "<":
		return value < threshold
	case "<=":
		return value <= threshold
	case "==", "=":
		return value == threshold
	case "!=":
		return value != threshold
	default:
		return false
	}
}
