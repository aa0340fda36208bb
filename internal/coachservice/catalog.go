package coachservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"GainsGuide_AI/internal/assets"
	"github.com/rs/zerolog/log"
)

// Defaults for incomplete catalog records.
const (
	UnknownExerciseName = "Unknown Exercise"
	UnknownMuscle       = "unknown"
	NoEquipment         = "none"
)

// Exercise is one catalog record after defaults are applied.
type Exercise struct {
	Name           string
	PrimaryMuscles []string
	Equipment      string
}

// CatalogOptions controls how labels are rendered.
type CatalogOptions struct {
	// EquipmentTags suffixes each label with "[equipment]".
	EquipmentTags bool
}

// MuscleGroup is one line of the rendered catalog.
type MuscleGroup struct {
	Muscle string
	Labels []string
}

// GroupedCatalog keeps muscle groups in the order they were first seen.
type GroupedCatalog struct {
	Groups []MuscleGroup
}

// ParseCatalog accepts either {"exercises": [...]} or a bare array of records.
// Records that are not JSON objects are skipped.
func ParseCatalog(data []byte) ([]Exercise, error) {
	var root any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	var records []any
	switch v := root.(type) {
	case []any:
		records = v
	case map[string]any:
		list, ok := v["exercises"].([]any)
		if !ok {
			return nil, errors.New("catalog object has no \"exercises\" list")
		}
		records = list
	default:
		return nil, fmt.Errorf("unsupported catalog root type %T", root)
	}

	exercises := make([]Exercise, 0, len(records))
	for _, rec := range records {
		obj, ok := rec.(map[string]any)
		if !ok {
			continue
		}
		exercises = append(exercises, exerciseFromRecord(obj))
	}
	return exercises, nil
}

func exerciseFromRecord(obj map[string]any) Exercise {
	ex := Exercise{
		Name:      UnknownExerciseName,
		Equipment: NoEquipment,
	}

	if name, ok := obj["name"].(string); ok && strings.TrimSpace(name) != "" {
		ex.Name = strings.TrimSpace(name)
	}

	// The same muscle listed twice in one record still yields one label per group.
	seen := make(map[string]bool)
	for _, m := range stringList(obj["primary_muscles"]) {
		if !seen[m] {
			seen[m] = true
			ex.PrimaryMuscles = append(ex.PrimaryMuscles, m)
		}
	}
	if len(ex.PrimaryMuscles) == 0 {
		ex.PrimaryMuscles = []string{UnknownMuscle}
	}

	switch eq := obj["equipment"].(type) {
	case string:
		if eq != "" {
			ex.Equipment = eq
		}
	case []any:
		if len(eq) > 0 {
			if first, ok := eq[0].(string); ok && first != "" {
				ex.Equipment = first
			}
		}
	}

	return ex
}

// stringList reads a string or a list of strings, dropping blanks.
func stringList(v any) []string {
	var out []string
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			out = append(out, s)
		}
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	}
	return out
}

// Label formats the exercise the way it appears inside a muscle group.
func (e Exercise) Label(opts CatalogOptions) string {
	if opts.EquipmentTags {
		return fmt.Sprintf("%s[%s]", e.Name, e.Equipment)
	}
	return e.Name
}

// GroupCatalog files every exercise under each of its primary muscles,
// preserving catalog order inside every group.
func GroupCatalog(exercises []Exercise, opts CatalogOptions) GroupedCatalog {
	var grouped GroupedCatalog
	index := make(map[string]int)

	for _, ex := range exercises {
		label := ex.Label(opts)
		for _, muscle := range ex.PrimaryMuscles {
			i, ok := index[muscle]
			if !ok {
				i = len(grouped.Groups)
				index[muscle] = i
				grouped.Groups = append(grouped.Groups, MuscleGroup{Muscle: muscle})
			}
			grouped.Groups[i].Labels = append(grouped.Groups[i].Labels, label)
		}
	}
	return grouped
}

// Render produces the newline-delimited catalog block. Empty catalogs render as "".
func (g GroupedCatalog) Render() string {
	if len(g.Groups) == 0 {
		return ""
	}

	var builder strings.Builder
	builder.WriteString(CatalogHeader)
	for _, group := range g.Groups {
		builder.WriteString("\n")
		builder.WriteString(group.Muscle)
		builder.WriteString(": ")
		builder.WriteString(strings.Join(group.Labels, ", "))
	}
	return builder.String()
}

// LoadCatalog reads, groups and renders the catalog at path. A missing or
// malformed catalog yields "" and the catalog feature is skipped.
func LoadCatalog(ctx context.Context, r AssetReader, path string, opts CatalogOptions) string {
	if path == "" {
		log.Info().Msg("No exercise catalog configured, catalog prompt disabled")
		return ""
	}

	data, err := r.Read(ctx, path)
	if err != nil {
		if errors.Is(err, assets.ErrNotFound) {
			log.Info().Str("path", path).Msg("Exercise catalog not found, catalog prompt disabled")
		} else {
			log.Warn().Err(err).Str("path", path).Msg("Failed to read exercise catalog, catalog prompt disabled")
		}
		return ""
	}

	exercises, err := ParseCatalog(data)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Malformed exercise catalog, catalog prompt disabled")
		return ""
	}

	grouped := GroupCatalog(exercises, opts)
	log.Info().Int("exercises", len(exercises)).Int("muscle_groups", len(grouped.Groups)).Msg("Exercise catalog loaded")
	return grouped.Render()
}
