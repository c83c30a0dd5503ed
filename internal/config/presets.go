package config

import "sort"

// Presets are named physics tunings layered over DefaultPhysics.
var Presets = map[string]func(*Physics){
	"default": func(*Physics) {},
	"gentle": func(p *Physics) {
		p.TimeScale = 0.5
		p.Drag = 0.6
		p.GentleBondSpeed = 220
	},
	"hot": func(p *Physics) {
		p.TimeScale = 1.5
		p.Drag = 0.05
		p.ForcedBondSpeed = 500
	},
	"precise": func(p *Physics) {
		p.Substeps = 16
		p.MaxAccel = 4000
	},
	"slow-motion": func(p *Physics) {
		p.TimeScale = 0.25
	},
}

// GetPreset returns DefaultPhysics with the named preset applied.
func GetPreset(name string) (Physics, bool) {
	apply, ok := Presets[name]
	if !ok {
		return Physics{}, false
	}
	p := DefaultPhysics()
	apply(&p)
	return p, true
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
