package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML pool configuration from disk into config, expanding
// ${VAR} environment references first. References to variables that are
// not set keep their placeholder text, so a missing secret surfaces as a
// visibly wrong value (and fails validation) instead of silently becoming
// an empty string.
func Load(filePath string, config interface{}) error {
	data, err := os.ReadFile(filePath) //nolint:gosec // G304: path comes from the CLI flag
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := expandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), config); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return nil
}

// Save writes a configuration as YAML, for generating starting-point
// config files from defaults.
func Save(filePath string, config interface{}) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0o644); err != nil { //nolint:gosec
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// expandEnv substitutes well-formed ${VAR} references with environment
// values. Unset variables keep the placeholder. A "${" that is not
// followed by a name and closing brace passes through as literal text and
// scanning continues, so one malformed reference cannot swallow the rest
// of the file.
func expandEnv(content string) string {
	var b strings.Builder
	for {
		start := strings.Index(content, "${")
		if start < 0 {
			b.WriteString(content)
			return b.String()
		}
		b.WriteString(content[:start])

		rest := content[start:]
		name, length := scanRef(rest)
		if length == 0 {
			b.WriteString("${")
			content = rest[2:]
			continue
		}

		if value, ok := os.LookupEnv(name); ok {
			b.WriteString(value)
		} else {
			b.WriteString(rest[:length])
		}
		content = rest[length:]
	}
}

// scanRef parses a ${NAME} reference at the start of s, returning the
// variable name and the reference's total length, or zero when s does not
// start a well-formed reference. Names are restricted to the usual
// environment-variable alphabet.
func scanRef(s string) (string, int) {
	for i := 2; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '}':
			if i == 2 {
				return "", 0
			}
			return s[2:i], i + 1
		case c == '_',
			c >= 'a' && c <= 'z',
			c >= 'A' && c <= 'Z',
			c >= '0' && c <= '9':
		default:
			return "", 0
		}
	}
	return "", 0
}
