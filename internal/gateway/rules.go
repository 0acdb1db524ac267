package gateway

import (
	"path/filepath"

	"github.com/edgekit/iotgw/internal/infrastructure/config"
	"github.com/edgekit/iotgw/internal/rules"
)

// ruleFiles maps each rule file under <config_root>/rules/ to its category
// and top-level array key.
var ruleFiles = []struct {
	file     string
	arrayKey string
	category rules.Category
}{
	{"automation-rules.yaml", "automation_rules", rules.CategoryAutomation},
	{"alarm-rules.yaml", "alarm_rules", rules.CategoryAlarm},
}

// loadRules clears the engine and installs the rule files.
// An unreadable file leaves its category empty.
func (g *Gateway) loadRules() {
	g.engine.Clear()

	total := 0
	for _, rf := range ruleFiles {
		path := filepath.Join(g.configRoot, "rules", rf.file)
		m := config.NewMap()
		if err := m.LoadYAML(path); err != nil {
			g.log.Warn("rule file not loaded", "path", path, "error", err)
			continue
		}
		loaded := rules.FromConfig(m, rf.arrayKey, rf.category)
		g.engine.AddRules(loaded)
		total += len(loaded)
	}
	g.log.Info("rules installed", "rules", total)
}

// reloadRules is the reload endpoint's callback.
func (g *Gateway) reloadRules() error {
	g.loadRules()
	return nil
}
