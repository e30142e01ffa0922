package store

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/sprite-ai/qcreview/internal/backend"
	"github.com/sprite-ai/qcreview/internal/model"
)

// MemoryStore keeps vehicles and their content items in memory.
type MemoryStore struct {
	mu       sync.RWMutex
	vehicles map[string]*model.Vehicle
	items    map[string][]*model.ContentItem // by vehicle id
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		vehicles: make(map[string]*model.Vehicle),
		items:    make(map[string][]*model.ContentItem),
	}
}

var (
	_ backend.Backend = (*MemoryStore)(nil)
	_ Loader          = (*MemoryStore)(nil)
)

// Put inserts a vehicle with its items. A vehicle that already exists is
// left untouched.
func (m *MemoryStore) Put(ctx context.Context, d model.VehicleDetail) error {
	if d.Vehicle.ID == "" {
		return fmt.Errorf("%w: vehicle id is required", backend.ErrInvalid)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.vehicles[d.Vehicle.ID]; ok {
		return nil
	}

	v := d.Vehicle
	if v.ReviewerUserID != nil {
		r := *v.ReviewerUserID
		v.ReviewerUserID = &r
	}
	m.vehicles[v.ID] = &v
	items := make([]*model.ContentItem, 0, len(d.ContentItems))
	for i := range d.ContentItems {
		it := cloneItem(d.ContentItems[i])
		it.VehicleID = v.ID
		items = append(items, &it)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].SortOrder < items[j].SortOrder })
	m.items[v.ID] = items
	return nil
}

// GetVehicleDetail implements backend.Backend.
func (m *MemoryStore) GetVehicleDetail(ctx context.Context, vehicleID string) (*model.VehicleDetail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.detailLocked(vehicleID)
	if !ok {
		return nil, fmt.Errorf("vehicle %s: %w", vehicleID, backend.ErrNotFound)
	}
	return d, nil
}

func (m *MemoryStore) detailLocked(vehicleID string) (*model.VehicleDetail, bool) {
	v, ok := m.vehicles[vehicleID]
	if !ok {
		return nil, false
	}
	d := &model.VehicleDetail{Vehicle: *v, ContentItems: make([]model.ContentItem, 0, len(m.items[vehicleID]))}
	if v.ReviewerUserID != nil {
		r := *v.ReviewerUserID
		d.Vehicle.ReviewerUserID = &r
	}
	for _, it := range m.items[vehicleID] {
		d.ContentItems = append(d.ContentItems, cloneItem(*it))
	}
	d.Vehicle.QualityCheckStatus = model.AggregateStatus(d.Vehicle, d.ContentItems)
	return d, true
}

func (m *MemoryStore) itemLocked(vehicleID, itemID string) (*model.ContentItem, error) {
	if _, ok := m.vehicles[vehicleID]; !ok {
		return nil, fmt.Errorf("vehicle %s: %w", vehicleID, backend.ErrNotFound)
	}
	for _, it := range m.items[vehicleID] {
		if it.ID == itemID {
			return it, nil
		}
	}
	return nil, fmt.Errorf("content item %s: %w", itemID, backend.ErrNotFound)
}

// SaveQualityCheck implements backend.Backend. The last write wins.
func (m *MemoryStore) SaveQualityCheck(ctx context.Context, in model.QualityCheckInput) error {
	if err := ValidateQualityCheck(in); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	it, err := m.itemLocked(in.VehicleID, in.VehicleImageID)
	if err != nil {
		return err
	}
	it.QualityCheck = in.Verdict()
	return nil
}

// AssignQualityCheckUser implements backend.Backend. There is no
// compare-and-set; a later assignment overwrites an earlier one.
func (m *MemoryStore) AssignQualityCheckUser(ctx context.Context, in model.AssignInput) error {
	if err := ValidateAssign(in); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.vehicles[in.VehicleID]
	if !ok {
		return fmt.Errorf("vehicle %s: %w", in.VehicleID, backend.ErrNotFound)
	}
	user := in.UserID
	v.ReviewerUserID = &user
	return nil
}

// UpdateVehicleImageType implements backend.Backend.
func (m *MemoryStore) UpdateVehicleImageType(ctx context.Context, in model.ImageTypeInput) error {
	if err := ValidateImageType(in); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	it, err := m.itemLocked(in.VehicleID, in.VehicleImageID)
	if err != nil {
		return err
	}
	it.Position = in.Type
	return nil
}

// ListQualityCheckerVehicles implements backend.Backend.
func (m *MemoryStore) ListQualityCheckerVehicles(ctx context.Context, f model.VehicleFilter) (*model.VehiclePage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var rows []model.VehicleSummary
	for id := range m.vehicles {
		d, _ := m.detailLocked(id)
		if matches(f, d.Vehicle) {
			rows = append(rows, model.Summarize(*d))
		}
	}
	return paginate(rows, f), nil
}

func cloneItem(it model.ContentItem) model.ContentItem {
	if it.QualityCheck != nil {
		qc := *it.QualityCheck
		qc.Issues = slices.Clone(qc.Issues)
		it.QualityCheck = &qc
	}
	return it
}
