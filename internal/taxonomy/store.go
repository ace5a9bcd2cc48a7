package taxonomy

import (
	"fmt"
	"os"
	"path/filepath"

	"fjacquet/stmt-ingest/internal/logging"

	"gopkg.in/yaml.v3"
)

// RulesFile is the YAML document holding user keyword rules:
//
//	rules:
//	  - keyword: "migros"
//	    category: "Food & Dining"
type RulesFile struct {
	Rules []KeywordRule `yaml:"rules"`
}

// Store loads keyword rule overrides from YAML.
type Store struct {
	RulesFile string
	logger    logging.Logger
}

// NewStore creates a Store reading rulesFile. An empty name disables it.
func NewStore(rulesFile string, logger logging.Logger) *Store {
	return &Store{RulesFile: rulesFile, logger: logging.OrDefault(logger)}
}

// FindConfigFile looks for filename in the usual locations: as given,
// ./config, ./database and ~/.config/stmt-ingest.
func (s *Store) FindConfigFile(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		if _, err := os.Stat(filename); err == nil {
			return filename, nil
		}
		return "", os.ErrNotExist
	}

	locations := []string{
		filename,
		filepath.Join("config", filename),
		filepath.Join("database", filename),
	}
	if home, err := os.UserHomeDir(); err == nil {
		locations = append(locations, filepath.Join(home, ".config", "stmt-ingest", filename))
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location, nil
		}
	}
	return "", os.ErrNotExist
}

// LoadRules reads keyword rules. A missing file yields no rules and no
// error. Rules naming a label outside the taxonomy are skipped with a warning.
func (s *Store) LoadRules() ([]KeywordRule, error) {
	if s.RulesFile == "" {
		return nil, nil
	}

	path, err := s.FindConfigFile(s.RulesFile)
	if err != nil {
		s.logger.Debug("Keyword rules file not found, using built-in rules",
			logging.F(logging.FieldFile, s.RulesFile))
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading keyword rules file: %w", err)
	}

	var doc RulesFile
	if err := yaml.Unmarshal(data, &doc); err != nil || len(doc.Rules) == 0 {
		// Also accept a bare list without the top-level key.
		var list []KeywordRule
		if listErr := yaml.Unmarshal(data, &list); listErr != nil {
			if err == nil {
				err = listErr
			}
			return nil, fmt.Errorf("error parsing keyword rules file %s: %w", path, err)
		}
		doc.Rules = list
	}

	rules := make([]KeywordRule, 0, len(doc.Rules))
	for _, r := range doc.Rules {
		label, ok := Normalize(r.Category)
		if !ok || r.Keyword == "" {
			s.logger.Warn("Skipping keyword rule outside taxonomy",
				logging.F("keyword", r.Keyword),
				logging.F(logging.FieldCategory, r.Category))
			continue
		}
		rules = append(rules, KeywordRule{Keyword: r.Keyword, Category: label})
	}

	s.logger.Debug("Loaded keyword rules",
		logging.F(logging.FieldFile, path),
		logging.F(logging.FieldCount, len(rules)))
	return rules, nil
}

// SaveRules writes rules to the configured file, creating parent directories.
func (s *Store) SaveRules(rules []KeywordRule) error {
	if s.RulesFile == "" {
		return fmt.Errorf("no keyword rules file configured")
	}
	if dir := filepath.Dir(s.RulesFile); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("error creating directory for keyword rules: %w", err)
		}
	}

	data, err := yaml.Marshal(RulesFile{Rules: rules})
	if err != nil {
		return fmt.Errorf("error marshaling keyword rules: %w", err)
	}
	header := "# Keyword rules mapping statement text to taxonomy labels.\n" +
		"# Rules are checked before the built-in table.\n\n"
	if err := os.WriteFile(s.RulesFile, append([]byte(header), data...), 0600); err != nil {
		return fmt.Errorf("error writing keyword rules file: %w", err)
	}
	return nil
}

// Load builds a Taxonomy from the store's rules plus the built-in table.
func (s *Store) Load() (*Taxonomy, error) {
	rules, err := s.LoadRules()
	if err != nil {
		return nil, err
	}
	return New(rules...), nil
}
