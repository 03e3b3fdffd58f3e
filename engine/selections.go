package engine

import (
	"sort"

	"fixtureaudit/store"
)

// Station is a station number with its display name, for tool selection.
type Station struct {
	No   string `json:"station_no"`
	Name string `json:"station_name"`
}

// Lines returns the distinct production lines in the registry, sorted.
func (e *Engine) Lines() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, rec := range e.registry.Records() {
		if _, ok := seen[rec.Line]; ok {
			continue
		}
		seen[rec.Line] = struct{}{}
		out = append(out, rec.Line)
	}
	sort.Strings(out)
	return out
}

// SubAssemblies returns the distinct sub-assemblies on a line, sorted.
func (e *Engine) SubAssemblies(line string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, rec := range e.registry.Records() {
		if rec.Line != line {
			continue
		}
		if _, ok := seen[rec.SubAssembly]; ok {
			continue
		}
		seen[rec.SubAssembly] = struct{}{}
		out = append(out, rec.SubAssembly)
	}
	sort.Strings(out)
	return out
}

// FixtureNos returns the distinct fixture numbers for a line/sub-assembly,
// in registry order.
func (e *Engine) FixtureNos(line, subAssembly string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, rec := range e.registry.Records() {
		if rec.Line != line || rec.SubAssembly != subAssembly || rec.Kind != store.KindFixture {
			continue
		}
		if rec.FixtureNo == "" {
			continue
		}
		if _, ok := seen[rec.FixtureNo]; ok {
			continue
		}
		seen[rec.FixtureNo] = struct{}{}
		out = append(out, rec.FixtureNo)
	}
	return out
}

// Stations returns the distinct stations for a line/sub-assembly, in
// registry order.
func (e *Engine) Stations(line, subAssembly string) []Station {
	seen := make(map[string]struct{})
	var out []Station
	for _, rec := range e.registry.Records() {
		if rec.Line != line || rec.SubAssembly != subAssembly || rec.Kind != store.KindTool {
			continue
		}
		if rec.StationNo == "" {
			continue
		}
		if _, ok := seen[rec.StationNo]; ok {
			continue
		}
		seen[rec.StationNo] = struct{}{}
		out = append(out, Station{No: rec.StationNo, Name: rec.StationName})
	}
	return out
}
