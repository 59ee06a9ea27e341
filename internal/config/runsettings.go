package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/models"
	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/service"
)

// RunSettings is the operator-maintained run configuration file. JSON
// documents are accepted too since they are valid YAML.
type RunSettings struct {
	Thresholds      ThresholdSettings           `yaml:"thresholds"`
	Cap             int                         `yaml:"cap" validate:"gte=0"`
	RoundRobinScope string                      `yaml:"round_robin_scope" validate:"omitempty,oneof=nature_pool nature"`
	Reviewers       map[string]ReviewerSettings `yaml:"reviewers" validate:"dive"`
	Rules           []RuleSettings              `yaml:"rules" validate:"dive"`
	Pools           PoolSettings                `yaml:"pools"`
}

// ThresholdSettings picks a named preset or explicit day counts. Explicit
// values override the preset field by field.
type ThresholdSettings struct {
	Preset       string `yaml:"preset" validate:"omitempty,oneof=default legacy"`
	Aged         int    `yaml:"aged" validate:"gte=0"`
	Approaching  int    `yaml:"approaching" validate:"gte=0"`
	LongInOffice int    `yaml:"long_in_office" validate:"gte=0"`
}

type ReviewerSettings struct {
	Natures    []string `yaml:"natures"`
	Origins    []string `yaml:"origins"`
	OnlyLocked bool     `yaml:"only_locked"`
}

type RuleSettings struct {
	Reviewer     string `yaml:"reviewer" validate:"required"`
	NatureGroup  string `yaml:"nature_group"`
	OriginOffice string `yaml:"origin_office"`
	Exclusive    bool   `yaml:"exclusive"`
}

type PoolSettings struct {
	Mode           string   `yaml:"mode" validate:"omitempty,oneof=two_pool unified"`
	General        []string `yaml:"general"`
	Special        []string `yaml:"special"`
	SpecialOrigins []string `yaml:"special_origins"`
}

var validate = validator.New()

// LoadRunSettings reads the file at path. An empty path yields the zero
// settings, which distribute over every available reviewer.
func LoadRunSettings(path string) (RunSettings, error) {
	if path == "" {
		return RunSettings{}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return RunSettings{}, fmt.Errorf("open run settings: %w", err)
	}
	defer f.Close()
	return ParseRunSettings(f)
}

func ParseRunSettings(r io.Reader) (RunSettings, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return RunSettings{}, err
	}
	var s RunSettings
	if len(bytes.TrimSpace(data)) == 0 {
		return s, nil
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return RunSettings{}, fmt.Errorf("parse run settings: %w", err)
	}
	if err := validate.Struct(s); err != nil {
		return RunSettings{}, fmt.Errorf("validate run settings: %w", err)
	}
	return s, nil
}

// Build merges the settings with the availability roster. Reviewers only
// present in the settings are ignored; roster entries without settings get
// empty filters.
func (s RunSettings) Build(roster []models.Reviewer) models.RunConfig {
	byName := map[string]ReviewerSettings{}
	for name, rs := range s.Reviewers {
		byName[models.NormalizeName(name)] = rs
	}

	cfg := models.RunConfig{
		Thresholds:      s.Thresholds.resolve(),
		Cap:             s.Cap,
		RoundRobinScope: models.RoundRobinScope(s.RoundRobinScope),
		Pools: models.PoolTopology{
			Mode:           models.PoolMode(s.Pools.Mode),
			General:        s.Pools.General,
			Special:        s.Pools.Special,
			SpecialOrigins: s.Pools.SpecialOrigins,
		},
	}
	for _, r := range roster {
		rs := byName[models.NormalizeName(r.Name)]
		r.AcceptedNatures = rs.Natures
		r.AcceptedOrigins = rs.Origins
		r.OnlyLocked = rs.OnlyLocked
		cfg.Reviewers = append(cfg.Reviewers, r)
	}
	for _, rule := range s.Rules {
		cfg.Rules = append(cfg.Rules, models.Rule{
			Reviewer:     rule.Reviewer,
			NatureGroup:  rule.NatureGroup,
			OriginOffice: rule.OriginOffice,
			Exclusive:    rule.Exclusive,
		})
	}
	return cfg
}

func (t ThresholdSettings) resolve() models.Thresholds {
	out := service.DefaultThresholds
	if strings.EqualFold(t.Preset, "legacy") {
		out = service.LegacyThresholds
	}
	if t.Aged > 0 {
		out.Aged = t.Aged
	}
	if t.Approaching > 0 {
		out.Approaching = t.Approaching
	}
	if t.LongInOffice > 0 {
		out.LongInOffice = t.LongInOffice
	}
	return out
}
