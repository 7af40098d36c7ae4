package kos

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type catalogFile struct {
	Plans []catalogPlan `yaml:"plans"`
}

type catalogPlan struct {
	Slug          string   `yaml:"slug"`
	Name          string   `yaml:"name"`
	Price         int64    `yaml:"price"`
	MaxProperties int      `yaml:"max_properties"`
	MaxRooms      int      `yaml:"max_rooms"`
	Features      []string `yaml:"features"`
	Inactive      bool     `yaml:"inactive"`
	SortOrder     int      `yaml:"sort_order"`
}

// LoadPlanCatalog decodes a YAML plan catalog and validates every entry.
func LoadPlanCatalog(r io.Reader) ([]Plan, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc catalogFile
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}
	if len(doc.Plans) == 0 {
		return nil, errors.Join(ErrFailedToLoadPlans, errors.New("catalog has no plans"))
	}

	seen := make(map[string]bool, len(doc.Plans))
	plans := make([]Plan, 0, len(doc.Plans))
	for i, cp := range doc.Plans {
		in := PlanInput{
			Slug:          cp.Slug,
			Name:          cp.Name,
			Price:         cp.Price,
			MaxProperties: cp.MaxProperties,
			MaxRooms:      cp.MaxRooms,
			Features:      cp.Features,
			IsActive:      !cp.Inactive,
			SortOrder:     cp.SortOrder,
		}
		if err := in.validate(true); err != nil {
			return nil, errors.Join(ErrFailedToLoadPlans, fmt.Errorf("plan[%d]: %w", i, err))
		}
		if seen[cp.Slug] {
			return nil, errors.Join(ErrFailedToLoadPlans, fmt.Errorf("plan[%d]: duplicate slug %q", i, cp.Slug))
		}
		seen[cp.Slug] = true
		plans = append(plans, in.plan())
	}
	return plans, nil
}

// DefaultPlanCatalog returns the built-in free/basic/premium/enterprise catalog.
func DefaultPlanCatalog() []Plan {
	plans, err := LoadPlanCatalog(bytes.NewReader(defaultCatalog))
	if err != nil {
		panic(fmt.Sprintf("kos: invalid built-in plan catalog: %v", err))
	}
	return plans
}

// LoadPlanCatalogFile reads the catalog at path, or the built-in one when path is empty.
func LoadPlanCatalogFile(path string) ([]Plan, error) {
	if path == "" {
		return DefaultPlanCatalog(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}
	defer f.Close()
	return LoadPlanCatalog(f)
}
