// Package rules implements the reactive condition/action rule engine.
//
// Rules are an ordered list; evaluation order is insertion order. Each rule
// pairs a numeric condition over one sensor with an ordered list of actions.
// The engine itself performs no actions: OnSensorValue invokes a caller
// supplied exec callback for every action of every matching rule, on the
// caller's goroutine, so the gateway decides how actuator commands and log
// actions are carried out.
//
// Evaluation is purely reactive to telemetry arrivals; there is no
// scheduling.
package rules
