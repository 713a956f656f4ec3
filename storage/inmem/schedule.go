package inmemdb

import (
	"context"
	"sort"

	"github.com/darasahq/darasa/core/schedule"
)

type scheduleRepository struct {
	db *DB
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db *DB) *scheduleRepository {
	return &scheduleRepository{db: db}
}

func (repo *scheduleRepository) GetBaseSchedule(_ context.Context, day schedule.Weekday) (map[string]schedule.BaseEntry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	entries := make(map[string]schedule.BaseEntry, len(repo.db.base[day]))
	for key, entry := range repo.db.base[day] {
		entries[key] = entry
	}
	return entries, nil
}

func (repo *scheduleRepository) SaveBaseEntry(_ context.Context, day schedule.Weekday, classID string, period int, entry *schedule.BaseEntry) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	key := schedule.SlotKey(classID, period)
	if entry == nil {
		delete(repo.db.base[day], key) // no-op when missing
		return nil
	}
	if repo.db.base[day] == nil {
		repo.db.base[day] = make(map[string]schedule.BaseEntry)
	}
	repo.db.base[day][key] = *entry
	return nil
}

func (repo *scheduleRepository) GetOverrides(_ context.Context, dateStr string) (map[string]schedule.Override, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	overrides := make(map[string]schedule.Override, len(repo.db.overrides[dateStr]))
	for key, o := range repo.db.overrides[dateStr] {
		overrides[key] = o
	}
	return overrides, nil
}

func (repo *scheduleRepository) SaveOverride(_ context.Context, dateStr, classID string, period int, o *schedule.Override) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	key := schedule.SlotKey(classID, period)
	if o == nil {
		delete(repo.db.overrides[dateStr], key) // no-op when missing
		return nil
	}
	if repo.db.overrides[dateStr] == nil {
		repo.db.overrides[dateStr] = make(map[string]schedule.Override)
	}
	repo.db.overrides[dateStr][key] = *o
	return nil
}

func (repo *scheduleRepository) QueryAllClasses(_ context.Context) ([]schedule.ClassSection, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	classes := make([]schedule.ClassSection, 0, len(repo.db.classes))
	for _, cs := range repo.db.classes {
		classes = append(classes, cs)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].Name < classes[j].Name })
	return classes, nil
}

func (repo *scheduleRepository) GetClassByID(_ context.Context, id string) (schedule.ClassSection, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if cs, ok := repo.db.classes[id]; ok {
		return cs, nil
	}
	return schedule.ClassSection{}, schedule.ErrNotFound
}

func (repo *scheduleRepository) CreateClass(_ context.Context, cs schedule.ClassSection) (schedule.ClassSection, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.classes[cs.ID] = cs
	return cs, nil
}

func (repo *scheduleRepository) UpdateClass(_ context.Context, cs schedule.ClassSection) (schedule.ClassSection, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.classes[cs.ID]; !ok {
		return schedule.ClassSection{}, schedule.ErrNotFound
	}
	repo.db.classes[cs.ID] = cs
	return cs, nil
}

func (repo *scheduleRepository) DeleteClassByID(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	delete(repo.db.classes, id)
	for day := range repo.db.base {
		deleteClassKeys(repo.db.base[day], id)
	}
	for date := range repo.db.overrides {
		deleteClassKeys(repo.db.overrides[date], id)
	}
	return nil
}

func deleteClassKeys[V any](m map[string]V, classID string) {
	for key := range m {
		if id, _, err := schedule.ParseSlotKey(key); err == nil && id == classID {
			delete(m, key)
		}
	}
}
