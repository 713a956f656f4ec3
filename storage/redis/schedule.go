package redisrepos

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/schedule"
)

type scheduleRepository struct {
	client *redis.Client
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(client *redis.Client) *scheduleRepository {
	return &scheduleRepository{client: client}
}

func (repo scheduleRepository) GetBaseSchedule(ctx context.Context, day schedule.Weekday) (map[string]schedule.BaseEntry, error) {
	data, err := repo.client.HGetAll(ctx, baseKey(string(day))).Result()
	if err != nil {
		return nil, errors.Wrap(err, "reading base schedule hash")
	}
	entries := make(map[string]schedule.BaseEntry, len(data))
	for key, raw := range data {
		var entry schedule.BaseEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, errors.Wrapf(err, "decoding base entry %s", key)
		}
		entries[key] = entry
	}
	return entries, nil
}

func (repo scheduleRepository) SaveBaseEntry(ctx context.Context, day schedule.Weekday, classID string, period int, entry *schedule.BaseEntry) error {
	key := schedule.SlotKey(classID, period)
	if entry == nil {
		// deleting a missing field is a no-op in HDel
		return errors.Wrap(repo.client.HDel(ctx, baseKey(string(day)), key).Err(), "deleting base entry")
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "encoding base entry")
	}
	return errors.Wrap(repo.client.HSet(ctx, baseKey(string(day)), key, raw).Err(), "saving base entry")
}

func (repo scheduleRepository) GetOverrides(ctx context.Context, dateStr string) (map[string]schedule.Override, error) {
	data, err := repo.client.HGetAll(ctx, overrideKey(dateStr)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "reading override hash")
	}
	overrides := make(map[string]schedule.Override, len(data))
	for key, raw := range data {
		var o schedule.Override
		if err := json.Unmarshal([]byte(raw), &o); err != nil {
			return nil, errors.Wrapf(err, "decoding override %s", key)
		}
		overrides[key] = o
	}
	return overrides, nil
}

func (repo scheduleRepository) SaveOverride(ctx context.Context, dateStr, classID string, period int, o *schedule.Override) error {
	key := schedule.SlotKey(classID, period)
	if o == nil {
		return errors.Wrap(repo.client.HDel(ctx, overrideKey(dateStr), key).Err(), "deleting override")
	}
	raw, err := json.Marshal(o)
	if err != nil {
		return errors.Wrap(err, "encoding override")
	}
	pipe := repo.client.Pipeline()
	pipe.HSet(ctx, overrideKey(dateStr), key, raw)
	pipe.SAdd(ctx, overrideDatesKey, dateStr) // cascade index
	_, err = pipe.Exec(ctx)
	return errors.Wrap(err, "saving override")
}

func (repo scheduleRepository) QueryAllClasses(ctx context.Context) ([]schedule.ClassSection, error) {
	ids, err := repo.client.SMembers(ctx, classesKey).Result()
	if err != nil {
		return nil, errors.Wrap(err, "reading class id set")
	}
	classes := make([]schedule.ClassSection, 0, len(ids))
	for _, id := range ids {
		cs, err := repo.GetClassByID(ctx, id)
		if err != nil {
			if err == schedule.ErrNotFound {
				continue // dangling id
			}
			return nil, err
		}
		classes = append(classes, cs)
	}
	return classes, nil
}

func (repo scheduleRepository) GetClassByID(ctx context.Context, id string) (schedule.ClassSection, error) {
	data, err := repo.client.HGetAll(ctx, classInfoKey(id)).Result()
	if err != nil {
		return schedule.ClassSection{}, errors.Wrap(err, "reading class hash")
	}
	if len(data) == 0 {
		return schedule.ClassSection{}, schedule.ErrNotFound
	}
	return schedule.ClassSection{
		ID:      data["id"],
		Name:    data["name"],
		Section: schedule.Section(data["section"]),
	}, nil
}

func (repo scheduleRepository) CreateClass(ctx context.Context, cs schedule.ClassSection) (schedule.ClassSection, error) {
	pipe := repo.client.Pipeline()
	pipe.SAdd(ctx, classesKey, cs.ID)
	pipe.HSet(ctx, classInfoKey(cs.ID), map[string]interface{}{
		"id":      cs.ID,
		"name":    cs.Name,
		"section": string(cs.Section),
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return schedule.ClassSection{}, errors.Wrap(err, "creating class")
	}
	return cs, nil
}

func (repo scheduleRepository) UpdateClass(ctx context.Context, cs schedule.ClassSection) (schedule.ClassSection, error) {
	if _, err := repo.GetClassByID(ctx, cs.ID); err != nil {
		return schedule.ClassSection{}, err
	}
	return repo.CreateClass(ctx, cs)
}

// DeleteClassByID removes the class and walks every base-day and override-date
// hash deleting fields keyed with its id; there is no cross-key transaction,
// only best-effort sequential deletes.
func (repo scheduleRepository) DeleteClassByID(ctx context.Context, id string) error {
	pipe := repo.client.Pipeline()
	pipe.SRem(ctx, classesKey, id)
	pipe.Del(ctx, classInfoKey(id))
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "deleting class")
	}

	for _, day := range schedule.Weekdays {
		if err := repo.deleteClassFields(ctx, baseKey(string(day)), id); err != nil {
			return err
		}
	}

	dates, err := repo.client.SMembers(ctx, overrideDatesKey).Result()
	if err != nil {
		return errors.Wrap(err, "reading override date index")
	}
	for _, date := range dates {
		if err := repo.deleteClassFields(ctx, overrideKey(date), id); err != nil {
			return err
		}
	}
	return nil
}

func (repo scheduleRepository) deleteClassFields(ctx context.Context, hashKey, classID string) error {
	fields, err := repo.client.HKeys(ctx, hashKey).Result()
	if err != nil {
		return errors.Wrapf(err, "listing fields of %s", hashKey)
	}
	doomed := make([]string, 0, len(fields))
	for _, field := range fields {
		if id, _, err := schedule.ParseSlotKey(field); err == nil && id == classID {
			doomed = append(doomed, field)
		}
	}
	if len(doomed) == 0 {
		return nil
	}
	return errors.Wrapf(repo.client.HDel(ctx, hashKey, doomed...).Err(), "cascading delete on %s", hashKey)
}
