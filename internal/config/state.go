package config

import "gopkg.in/yaml.v3"

// State is the serializable snapshot get_state()/set_state() exchange
// (spec §6): the files already pulled in via use(), the modules loaded via
// load_module(), and a free-form engine-state blob a host program can use
// to persist whatever else it wants carried across a save/restore cycle.
type State struct {
	UsedFiles     []string               `yaml:"used_files"`
	ActiveModules []string               `yaml:"active_modules"`
	EngineState   map[string]interface{} `yaml:"engine_state"`
}

// Encode serializes s to YAML, following funvibe-funxy's own use of
// gopkg.in/yaml.v3 for config and state round-tripping.
func (s *State) Encode() ([]byte, error) {
	return yaml.Marshal(s)
}

// DecodeState parses a YAML blob produced by Encode.
func DecodeState(data []byte) (*State, error) {
	var s State
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
