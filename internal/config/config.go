package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"skyline-detector/internal/detect"
	"skyline-detector/internal/logger"
	"skyline-detector/internal/skyline"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DataDir              string      `yaml:"data_dir"`
	GroundTruthDir       string      `yaml:"ground_truth_dir"`
	OutputDir            string      `yaml:"output_dir"`
	ReportPath           string      `yaml:"report"`
	ResultsDB            string      `yaml:"results_db"`
	SuccessThreshold     float64     `yaml:"success_threshold"`
	GroundTruthThreshold int         `yaml:"ground_truth_threshold"`
	Preview              bool        `yaml:"preview"`
	Night                NightConfig `yaml:"night"`
	Log                  LogConfig   `yaml:"log"`
}

type NightConfig struct {
	GapPolicy        string  `yaml:"gap_policy"`
	PaletteMethod    string  `yaml:"palette_method"`
	PaletteSize      int     `yaml:"palette_size"`
	MaxLightness     float64 `yaml:"max_lightness"`
	MaxMeanIntensity float64 `yaml:"max_mean_intensity"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
	File  string `yaml:"file"`
}

func Default() Config {
	return Config{
		DataDir:              filepath.Join("dataset", "data"),
		GroundTruthDir:       filepath.Join("dataset", "ground_truth"),
		OutputDir:            filepath.Join("dataset", "skyline"),
		SuccessThreshold:     90.0,
		GroundTruthThreshold: int(skyline.BinaryThreshold),
		Night: NightConfig{
			GapPolicy:        string(skyline.GapInterpolate),
			PaletteMethod:    detect.PaletteMethodDominantColor.String(),
			PaletteSize:      5,
			MaxLightness:     0.30,
			MaxMeanIntensity: 70,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load layers, lowest first: defaults, the YAML file at path, the .env file at envFile,
// then process environment. Empty paths are skipped; a missing .env file is not an error.
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}

		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.DataDir = getEnv("SKYLINE_DATA_DIR", cfg.DataDir)
	cfg.GroundTruthDir = getEnv("SKYLINE_GROUND_TRUTH_DIR", cfg.GroundTruthDir)
	cfg.OutputDir = getEnv("SKYLINE_OUTPUT_DIR", cfg.OutputDir)
	cfg.ReportPath = getEnv("SKYLINE_REPORT", cfg.ReportPath)
	cfg.ResultsDB = getEnv("SKYLINE_RESULTS_DB", cfg.ResultsDB)
	cfg.SuccessThreshold = getEnvAsFloat("SKYLINE_SUCCESS_THRESHOLD", cfg.SuccessThreshold)
	cfg.Night.GapPolicy = getEnv("SKYLINE_GAP_POLICY", cfg.Night.GapPolicy)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)

	if os.Getenv("DEBUG") == "1" {
		cfg.Log.Level = logger.DebugLevel.String()
	}
}

func (c Config) Validate() error {
	var errs []error

	if c.DataDir == "" {
		errs = append(errs, errors.New("data directory must be set"))
	}
	if c.GroundTruthDir == "" {
		errs = append(errs, errors.New("ground truth directory must be set"))
	}
	if c.OutputDir == "" {
		errs = append(errs, errors.New("output directory must be set"))
	}
	if c.SuccessThreshold < 0 || c.SuccessThreshold > 100 {
		errs = append(errs, fmt.Errorf("success threshold %.2f outside [0,100]", c.SuccessThreshold))
	}
	if c.GroundTruthThreshold < 0 || c.GroundTruthThreshold > 255 {
		errs = append(errs, fmt.Errorf("ground truth threshold %d outside [0,255]", c.GroundTruthThreshold))
	}
	if _, err := skyline.ParseGapPolicy(c.Night.GapPolicy); err != nil {
		errs = append(errs, err)
	}
	if _, err := detect.ParsePaletteMethod(c.Night.PaletteMethod); err != nil {
		errs = append(errs, err)
	}
	if c.Night.PaletteSize < 1 {
		errs = append(errs, fmt.Errorf("palette size must be positive, got %d", c.Night.PaletteSize))
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
