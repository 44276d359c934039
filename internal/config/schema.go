package config

// RulesConfig is the YAML shape of a validation rule table. Patterns are RE2
// expressions; category order in the file is the blocking priority.
type RulesConfig struct {
	Limits     LimitsConfig     `yaml:"limits"`
	Categories []CategoryConfig `yaml:"categories"`
	Generic    []string         `yaml:"generic_patterns"`
}

type LimitsConfig struct {
	MinLength     int `yaml:"min_length"`
	MaxLength     int `yaml:"max_length"`
	ShortAdvisory int `yaml:"short_advisory"`
	LongAdvisory  int `yaml:"long_advisory"`
}

type CategoryConfig struct {
	Code       string   `yaml:"code"`
	Warning    string   `yaml:"warning"`
	Suggestion string   `yaml:"suggestion"`
	Patterns   []string `yaml:"patterns"`
}
