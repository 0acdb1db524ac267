package gateway

import (
	"fmt"
	"path/filepath"

	"github.com/edgekit/iotgw/internal/device"
	"github.com/edgekit/iotgw/internal/infrastructure/config"
)

// loadDevices bootstraps the registry from the device config files under
// <config_root>/devices/. Missing files are fine; MQTT discovery fills the
// registry at runtime either way.
func (g *Gateway) loadDevices() {
	m := config.NewMap()
	for _, name := range []string{"sensors.yaml", "actuators.yaml"} {
		path := filepath.Join(g.configRoot, "devices", name)
		if err := m.LoadYAML(path); err != nil {
			g.log.Debug("device config not loaded", "path", path, "error", err)
		}
	}

	count := 0
	count += g.registerDevices(m, "sensors", device.KindSensor)
	count += g.registerDevices(m, "actuators", device.KindActuator)
	g.log.Info("device bootstrap complete", "devices", count)
}

// registerDevices walks <arrayKey>[i] entries and registers each device.
//
// Sensors get telemetry topic <prefix>telemetry/{id}; actuators get command
// topic <prefix>cmd/{id} and telemetry topic <prefix>state/{id}.
func (g *Gateway) registerDevices(m *config.Map, arrayKey, kind string) int {
	count := 0
	for i := 0; ; i++ {
		idKey := fmt.Sprintf("%s[%d].id", arrayKey, i)
		id, ok := m.GetString(idKey)
		if !ok {
			break
		}
		if id == "" {
			continue
		}

		d := device.Device{
			ID:        id,
			Kind:      kind,
			Transport: m.GetStringOr(fmt.Sprintf("%s[%d].protocol", arrayKey, i), device.TransportMQTT),
		}
		switch kind {
		case device.KindSensor:
			d.TelemetryTopic = g.prefix + "telemetry/" + id
		case device.KindActuator:
			d.CommandTopic = g.prefix + "cmd/" + id
			d.TelemetryTopic = g.prefix + "state/" + id
		}

		if err := g.registry.Register(d); err != nil {
			g.log.Warn("device bootstrap skipped", "id", id, "error", err)
			continue
		}
		count++
	}
	return count
}
