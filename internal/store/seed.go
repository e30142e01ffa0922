package store

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/sprite-ai/qcreview/internal/model"
)

// Seed is the YAML layout of a seed file.
type Seed struct {
	Vehicles []SeedVehicle `yaml:"vehicles"`
}

// SeedVehicle is one vehicle of a seed file.
type SeedVehicle struct {
	model.Vehicle `yaml:",inline"`
	Items         []model.ContentItem `yaml:"items"`
}

// LoadSeedFile reads vehicles from a YAML seed file. Missing ids are
// generated and items without a sort order keep their file order.
func LoadSeedFile(path string) ([]model.VehicleDetail, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes a YAML seed document.
func ParseSeed(data []byte) ([]model.VehicleDetail, error) {
	var s Seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing seed: %w", err)
	}

	out := make([]model.VehicleDetail, 0, len(s.Vehicles))
	for i, sv := range s.Vehicles {
		v := sv.Vehicle
		if v.ID == "" {
			v.ID = uuid.NewString()
		}
		if v.VIN == "" {
			return nil, fmt.Errorf("seed vehicle %d: vin is required", i)
		}
		if v.CreatedAt.IsZero() {
			v.CreatedAt = time.Now().UTC()
		}
		d := model.VehicleDetail{Vehicle: v}
		for j, it := range sv.Items {
			if it.ID == "" {
				it.ID = uuid.NewString()
			}
			if !it.Position.Valid() {
				return nil, fmt.Errorf("seed vehicle %s item %d: unknown position %q", v.VIN, j, it.Position)
			}
			if it.SortOrder == 0 {
				it.SortOrder = j + 1
			}
			it.VehicleID = v.ID
			if it.QualityCheck != nil {
				it.QualityCheck.Status = model.DeriveStatus(it.QualityCheck.IsQualityGood, it.QualityCheck.Issues)
			}
			d.ContentItems = append(d.ContentItems, it)
		}
		out = append(out, d)
	}
	return out, nil
}

// Demo returns a small generated data set for local runs.
func Demo() []model.VehicleDetail {
	now := time.Now().UTC()
	layouts := [][]model.Position{
		{model.PositionExterior, model.PositionExterior, model.PositionExterior, model.PositionInterior, model.PositionInterior, model.PositionDetails},
		{model.PositionExterior, model.PositionInterior, model.PositionVideo},
	}
	vins := []string{"WVWZZZ1JZXW000001", "VF1RFB00567000002"}
	makes := [][2]string{{"Volkswagen", "Golf"}, {"Renault", "Clio"}}

	var out []model.VehicleDetail
	for i, layout := range layouts {
		v := model.Vehicle{
			ID:        uuid.NewString(),
			VIN:       vins[i],
			Make:      makes[i][0],
			Model:     makes[i][1],
			ModelYear: 2021 + i,
			CreatedAt: now.Add(-time.Duration(i) * time.Hour),
		}
		d := model.VehicleDetail{Vehicle: v}
		for j, p := range layout {
			d.ContentItems = append(d.ContentItems, model.ContentItem{
				ID:        uuid.NewString(),
				VehicleID: v.ID,
				Position:  p,
				SortOrder: j + 1,
				URI:       fmt.Sprintf("https://media.example.invalid/%s/%02d.jpg", v.VIN, j+1),
			})
		}
		out = append(out, d)
	}
	return out
}

// Loader is implemented by stores that accept seeded vehicles.
type Loader interface {
	Put(ctx context.Context, d model.VehicleDetail) error
}

// LoadInto writes every seeded vehicle into a loader. Vehicles the loader
// already holds are skipped.
func LoadInto(ctx context.Context, l Loader, details []model.VehicleDetail) error {
	for _, d := range details {
		if err := l.Put(ctx, d); err != nil {
			return fmt.Errorf("seeding %s: %w", d.Vehicle.VIN, err)
		}
	}
	return nil
}
