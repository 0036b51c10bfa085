// Package config loads the feature info configuration document: the class to
// query-template mapping and the free-form settings that accompany it.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"evalgo.org/featureinfo/internal/domain"
	"evalgo.org/featureinfo/internal/helpers"
)

// QueryEntry is one element of the document's queries array
type QueryEntry struct {
	Class    string `mapstructure:"class"`
	MetaFile string `mapstructure:"metaFile"`
	TimeFile string `mapstructure:"timeFile"`
	Virtual  bool   `mapstructure:"virtual"` // Class data is served by the virtual-mapping endpoint
}

// Template holds the query templates of one class
type Template struct {
	Class           string
	MetadataQuery   string
	TimeseriesQuery string // Empty when the class has no time-series
	Virtual         bool
}

// TemplateSet is the immutable set of templates keyed by class
type TemplateSet struct {
	byClass map[string]Template
}

// NewTemplateSet builds a template set. Later entries for the same class win.
func NewTemplateSet(templates ...Template) *TemplateSet {
	set := &TemplateSet{byClass: make(map[string]Template, len(templates))}
	for _, t := range templates {
		set.byClass[t.Class] = t
	}
	return set
}

// Lookup returns the templates registered for class
func (s *TemplateSet) Lookup(class string) (Template, bool) {
	if s == nil {
		return Template{}, false
	}
	t, ok := s.byClass[class]
	return t, ok
}

// Len returns the number of configured classes
func (s *TemplateSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.byClass)
}

// Config is the loaded configuration document
type Config struct {
	Source    string
	Templates *TemplateSet
	settings  *viper.Viper
}

// LoadFromEnv loads the document named by the FIA_CONFIG_FILE environment variable
func LoadFromEnv() (*Config, error) {
	location := os.Getenv(helpers.EnvConfigFile)
	if strings.TrimSpace(location) == "" {
		return nil, domain.NewConfigError(helpers.EnvConfigFile, "environment variable is not set", nil)
	}
	return Load(location)
}

// Load reads the configuration document at path and every query template it references.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, domain.NewConfigError(path, "could not find configuration file", err)
	}
	if !info.Mode().IsRegular() {
		return nil, domain.NewConfigError(path, "configuration file does not appear to be a regular file", nil)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if ext := strings.TrimPrefix(filepath.Ext(path), "."); !isSupportedExt(ext) {
		v.SetConfigType("json")
	}
	v.SetDefault(helpers.SettingHours, helpers.DefaultHours)
	v.SetDefault(helpers.SettingDatabaseName, helpers.DefaultDatabaseName)

	if err := v.ReadInConfig(); err != nil {
		return nil, domain.NewConfigError(path, "could not parse configuration file", err)
	}

	if !v.InConfig("queries") {
		return nil, domain.NewConfigError(path, "could not find required 'queries' node", nil)
	}

	var entries []QueryEntry
	if err := v.UnmarshalKey("queries", &entries); err != nil {
		return nil, domain.NewConfigError(path, "malformed 'queries' node", err)
	}

	templates, err := loadTemplates(path, entries)
	if err != nil {
		return nil, err
	}

	if _, err := hours(v); err != nil {
		return nil, domain.NewConfigError(path, "setting 'hours' must be a positive integer", err)
	}

	return &Config{
		Source:    path,
		Templates: templates,
		settings:  v,
	}, nil
}

// New builds a configuration from already loaded templates and settings.
func New(templates *TemplateSet, settings map[string]any) *Config {
	v := viper.New()
	v.SetDefault(helpers.SettingHours, helpers.DefaultHours)
	v.SetDefault(helpers.SettingDatabaseName, helpers.DefaultDatabaseName)
	for key, value := range settings {
		v.Set(key, value)
	}
	return &Config{Source: "inline", Templates: templates, settings: v}
}

// Setting returns the value of a free-form setting, or nil
func (c *Config) Setting(key string) any {
	if key == "queries" {
		return nil
	}
	return c.settings.Get(key)
}

// Settings returns every setting except the queries array
func (c *Config) Settings() map[string]any {
	all := c.settings.AllSettings()
	delete(all, "queries")
	return all
}

// Hours returns the time-series lookback window in hours
func (c *Config) Hours() int {
	h, err := hours(c.settings)
	if err != nil {
		return helpers.DefaultHours
	}
	return h
}

// DatabaseName returns the relational database holding time-series data
func (c *Config) DatabaseName() string {
	return c.settings.GetString(helpers.SettingDatabaseName)
}

func hours(v *viper.Viper) (int, error) {
	h := v.GetInt(helpers.SettingHours)
	if h <= 0 {
		return 0, fmt.Errorf("got %v", v.Get(helpers.SettingHours))
	}
	return h, nil
}

func loadTemplates(configPath string, entries []QueryEntry) (*TemplateSet, error) {
	templates := make([]Template, 0, len(entries))
	for i, entry := range entries {
		if entry.Class == "" {
			return nil, domain.NewConfigError(configPath, fmt.Sprintf("queries[%d] has no 'class'", i), nil)
		}
		if entry.MetaFile == "" {
			return nil, domain.NewConfigError(configPath, fmt.Sprintf("queries[%d] has no 'metaFile'", i), nil)
		}

		meta, err := ReadQueryFile(configPath, entry.MetaFile)
		if err != nil {
			return nil, domain.NewConfigError(configPath, fmt.Sprintf("metadata query for %s", entry.Class), err)
		}

		var timeQuery string
		if entry.TimeFile != "" {
			timeQuery, err = ReadQueryFile(configPath, entry.TimeFile)
			if err != nil {
				return nil, domain.NewConfigError(configPath, fmt.Sprintf("time-series query for %s", entry.Class), err)
			}
		}

		templates = append(templates, Template{
			Class:           entry.Class,
			MetadataQuery:   meta,
			TimeseriesQuery: timeQuery,
			Virtual:         entry.Virtual,
		})
	}
	return NewTemplateSet(templates...), nil
}

// ReadQueryFile reads a query file, trying fileName as given first and then
// relative to the directory of the configuration document.
func ReadQueryFile(configPath, fileName string) (string, error) {
	filePath := fileName
	if _, err := os.Stat(filePath); errors.Is(err, os.ErrNotExist) && !filepath.IsAbs(fileName) && configPath != "" {
		filePath = filepath.Join(filepath.Dir(configPath), fileName)
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(string(content)) == "" {
		return "", fmt.Errorf("query file %s is empty", filePath)
	}
	return string(content), nil
}

func isSupportedExt(ext string) bool {
	for _, e := range viper.SupportedExts {
		if e == ext {
			return true
		}
	}
	return false
}
