package rules

// Category tags a rule with the file it came from.
type Category string

// Rule categories.
const (
	CategoryAutomation Category = "automation"
	CategoryAlarm      Category = "alarm"
)

// ActionType discriminates the closed action variant.
type ActionType string

// Action types. The set is closed; dispatch happens in the exec callback.
const (
	ActionActuatorSet ActionType = "actuator_set"
	ActionLog         ActionType = "log"
)

// Action is one step of a rule's response.
//
// For ActionActuatorSet, ActuatorID and Value are set; Value is carried as a
// raw string and published unchanged. For ActionLog, Level and Message are
// set; an empty Message falls back to "rule_fired: <rule id>" at execution.
type Action struct {
	Type       ActionType `json:"type"`
	ActuatorID string     `json:"actuator_id,omitempty"`
	Value      string     `json:"value,omitempty"`
	Level      string     `json:"level,omitempty"`
	Message    string     `json:"message,omitempty"`
}

// Condition is a threshold test over one sensor's numeric value.
// Op is one of > >= < <= == = != (case-insensitive, "=" equals "==").
type Condition struct {
	SensorID string  `json:"sensor_id"`
	Op       string  `json:"op"`
	Value    float64 `json:"value"`
}

// Rule is a user-authored condition with its ordered actions.
type Rule struct {
	ID       string    `json:"id"`
	Category Category  `json:"category"`
	Enabled  bool      `json:"enabled"`
	When     Condition `json:"when"`
	Then     []Action  `json:"then"`
}
