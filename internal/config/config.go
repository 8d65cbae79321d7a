// Package config assembles the runtime configuration from defaults, an
// optional fbauto.yaml file, and environment variables, in that order of
// precedence (environment wins).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultModels is the failover order used when no model list is
// configured.
var DefaultModels = []string{"gemini-2.5-flash-lite", "gemini-3-flash", "gemini-2.5-flash"}

const (
	defaultInputFolder     = "images_to_process"
	defaultOutputFolder    = "output"
	defaultProcessedFolder = "processed_images"
	defaultQuarantine      = "quarantine"
	defaultMaxRPM          = 14
	defaultMaxRPD          = 200
	defaultBatchSize       = 10
	defaultBatchDelay      = 5 * time.Second
	defaultMergeThreshold  = 0.80
	defaultCatalogFilename = "item_catalog.json"

	// ConfigFile is the optional YAML config looked up in the working
	// directory.
	ConfigFile = "fbauto.yaml"
)

// Config is the resolved runtime configuration.
type Config struct {
	APIKey           string
	InputFolder      string
	OutputFolder     string
	ProcessedFolder  string
	QuarantineFolder string

	MaxRPM     int
	MaxRPD     int
	ModelRPD   map[string]int // per-model day ceiling overrides
	BatchSize  int
	BatchDelay time.Duration

	Models []string

	DuplicateMergeThreshold float64
	CatalogFilename         string
}

// fileConfig mirrors the YAML config file.
type fileConfig struct {
	InputFolder             string         `yaml:"input_folder"`
	OutputFolder            string         `yaml:"output_folder"`
	ProcessedFolder         string         `yaml:"processed_folder"`
	QuarantineFolder        string         `yaml:"quarantine_folder"`
	MaxRPM                  int            `yaml:"max_rpm"`
	MaxRPD                  int            `yaml:"max_rpd"`
	ModelRPD                map[string]int `yaml:"model_rpd"`
	BatchSize               int            `yaml:"batch_size"`
	BatchDelaySeconds       float64        `yaml:"batch_delay_seconds"`
	Models                  []string       `yaml:"models"`
	DuplicateMergeThreshold float64        `yaml:"duplicate_merge_threshold"`
	CatalogFilename         string         `yaml:"item_catalog_filename"`
}

// Load builds the configuration. configPath may be empty to use the
// default location; a missing config file is not an error.
func Load(configPath string) (*Config, error) {
	cfg := &Config{
		InputFolder:             defaultInputFolder,
		OutputFolder:            defaultOutputFolder,
		ProcessedFolder:         defaultProcessedFolder,
		QuarantineFolder:        defaultQuarantine,
		MaxRPM:                  defaultMaxRPM,
		MaxRPD:                  defaultMaxRPD,
		ModelRPD:                make(map[string]int),
		BatchSize:               defaultBatchSize,
		BatchDelay:              defaultBatchDelay,
		DuplicateMergeThreshold: defaultMergeThreshold,
		CatalogFilename:         defaultCatalogFilename,
	}

	if configPath == "" {
		configPath = ConfigFile
	}
	if err := cfg.applyFile(configPath); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if len(cfg.Models) == 0 {
		cfg.Models = append([]string(nil), DefaultModels...)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate rejects limits that would stall or break the run loop. Bad
// setup must fail here, before any image is touched.
func (c *Config) validate() error {
	if c.MaxRPM <= 0 {
		return fmt.Errorf("MAX_RPM must be positive, got %d", c.MaxRPM)
	}
	if c.MaxRPD <= 0 {
		return fmt.Errorf("MAX_RPD must be positive, got %d", c.MaxRPD)
	}
	for model, rpd := range c.ModelRPD {
		if rpd <= 0 {
			return fmt.Errorf("model_rpd for %s must be positive, got %d", model, rpd)
		}
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("BATCH_SIZE must be positive, got %d", c.BatchSize)
	}
	if c.DuplicateMergeThreshold <= 0 || c.DuplicateMergeThreshold > 1 {
		return fmt.Errorf("DUPLICATE_MERGE_THRESHOLD must be in (0, 1], got %v", c.DuplicateMergeThreshold)
	}
	return nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if fc.InputFolder != "" {
		c.InputFolder = fc.InputFolder
	}
	if fc.OutputFolder != "" {
		c.OutputFolder = fc.OutputFolder
	}
	if fc.ProcessedFolder != "" {
		c.ProcessedFolder = fc.ProcessedFolder
	}
	if fc.QuarantineFolder != "" {
		c.QuarantineFolder = fc.QuarantineFolder
	}
	if fc.MaxRPM > 0 {
		c.MaxRPM = fc.MaxRPM
	}
	if fc.MaxRPD > 0 {
		c.MaxRPD = fc.MaxRPD
	}
	for model, rpd := range fc.ModelRPD {
		c.ModelRPD[model] = rpd
	}
	if fc.BatchSize > 0 {
		c.BatchSize = fc.BatchSize
	}
	if fc.BatchDelaySeconds > 0 {
		c.BatchDelay = time.Duration(fc.BatchDelaySeconds * float64(time.Second))
	}
	if len(fc.Models) > 0 {
		c.Models = fc.Models
	}
	if fc.DuplicateMergeThreshold > 0 {
		c.DuplicateMergeThreshold = fc.DuplicateMergeThreshold
	}
	if fc.CatalogFilename != "" {
		c.CatalogFilename = fc.CatalogFilename
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("INPUT_FOLDER"); v != "" {
		c.InputFolder = v
	}
	if v := os.Getenv("OUTPUT_FOLDER"); v != "" {
		c.OutputFolder = v
	}
	if v := os.Getenv("PROCESSED_FOLDER"); v != "" {
		c.ProcessedFolder = v
	}
	if v := os.Getenv("QUARANTINE_FOLDER"); v != "" {
		c.QuarantineFolder = v
	}

	if err := envInt("MAX_RPM", &c.MaxRPM); err != nil {
		return err
	}
	if err := envInt("MAX_RPD", &c.MaxRPD); err != nil {
		return err
	}
	if err := envInt("BATCH_SIZE", &c.BatchSize); err != nil {
		return err
	}
	if v := os.Getenv("BATCH_DELAY"); v != "" {
		seconds, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid BATCH_DELAY %q: %w", v, err)
		}
		c.BatchDelay = time.Duration(seconds * float64(time.Second))
	}
	if v := os.Getenv("DUPLICATE_MERGE_THRESHOLD"); v != "" {
		threshold, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid DUPLICATE_MERGE_THRESHOLD %q: %w", v, err)
		}
		c.DuplicateMergeThreshold = threshold
	}
	if v := os.Getenv("ITEM_CATALOG_FILENAME"); v != "" {
		c.CatalogFilename = v
	}

	// GEMINI_MODELS is a comma-separated failover order; the single
	// GEMINI_MODEL variable is honored when the list is absent.
	if v := strings.TrimSpace(os.Getenv("GEMINI_MODELS")); v != "" {
		var models []string
		for _, m := range strings.Split(v, ",") {
			if m = strings.TrimSpace(m); m != "" {
				models = append(models, m)
			}
		}
		c.Models = models
	} else if v := strings.TrimSpace(os.Getenv("GEMINI_MODEL")); v != "" {
		c.Models = []string{v}
	}
	return nil
}

func envInt(name string, dest *int) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	*dest = n
	return nil
}

// RPDFor returns the day ceiling for a model, honoring per-model
// overrides.
func (c *Config) RPDFor(model string) int {
	if rpd, ok := c.ModelRPD[model]; ok && rpd > 0 {
		return rpd
	}
	return c.MaxRPD
}
