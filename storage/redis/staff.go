package redisrepos

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/staff"
)

type staffRepository struct {
	client *redis.Client
}

var _ staff.Repository = (*staffRepository)(nil) // interface compliance check

func NewStaffRepository(client *redis.Client) *staffRepository {
	return &staffRepository{client: client}
}

func (repo staffRepository) QueryAllTeachers(ctx context.Context) ([]staff.Teacher, error) {
	ids, err := repo.client.SMembers(ctx, teachersKey).Result()
	if err != nil {
		return nil, errors.Wrap(err, "reading teacher id set")
	}
	teachers := make([]staff.Teacher, 0, len(ids))
	for _, id := range ids {
		t, err := repo.GetTeacherByID(ctx, id)
		if err != nil {
			if err == staff.ErrTeacherNotFound {
				continue // dangling id
			}
			return nil, err
		}
		teachers = append(teachers, t)
	}
	return teachers, nil
}

func (repo staffRepository) GetTeacherByID(ctx context.Context, id string) (staff.Teacher, error) {
	data, err := repo.client.HGetAll(ctx, teacherInfoKey(id)).Result()
	if err != nil {
		return staff.Teacher{}, errors.Wrap(err, "reading teacher hash")
	}
	if len(data) == 0 {
		return staff.Teacher{}, staff.ErrTeacherNotFound
	}

	t := staff.Teacher{
		ID:       data["id"],
		Name:     data["name"],
		Initials: data["initials"],
		Email:    data["email"],
	}
	if raw := data["subjects"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &t.Subjects); err != nil {
			return staff.Teacher{}, errors.Wrap(err, "decoding teacher subjects")
		}
	}
	return t, nil
}

func (repo staffRepository) CreateTeacher(ctx context.Context, t staff.Teacher) (staff.Teacher, error) {
	subjects, err := json.Marshal(t.Subjects)
	if err != nil {
		return staff.Teacher{}, errors.Wrap(err, "encoding teacher subjects")
	}

	pipe := repo.client.Pipeline()
	pipe.SAdd(ctx, teachersKey, t.ID)
	pipe.HSet(ctx, teacherInfoKey(t.ID), map[string]interface{}{
		"id":       t.ID,
		"name":     t.Name,
		"initials": t.Initials,
		"email":    t.Email,
		"subjects": string(subjects),
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return staff.Teacher{}, errors.Wrap(err, "creating teacher")
	}
	return t, nil
}

func (repo staffRepository) UpdateTeacher(ctx context.Context, t staff.Teacher) (staff.Teacher, error) {
	if _, err := repo.GetTeacherByID(ctx, t.ID); err != nil {
		return staff.Teacher{}, err
	}
	return repo.CreateTeacher(ctx, t)
}

func (repo staffRepository) DeleteTeachersByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	pipe := repo.client.Pipeline()
	for _, id := range ids {
		pipe.SRem(ctx, teachersKey, id)
		pipe.Del(ctx, teacherInfoKey(id))
	}
	_, err := pipe.Exec(ctx)
	return errors.Wrap(err, "deleting teachers")
}

func (repo staffRepository) GetAttendance(ctx context.Context, dateStr string) (map[string]staff.AttendanceStatus, error) {
	data, err := repo.client.HGetAll(ctx, attendanceKey(dateStr)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "reading attendance hash")
	}
	marks := make(map[string]staff.AttendanceStatus, len(data))
	for teacherID, status := range data {
		marks[teacherID] = staff.AttendanceStatus(status)
	}
	return marks, nil
}

func (repo staffRepository) SaveAttendanceMark(ctx context.Context, dateStr, teacherID string, status staff.AttendanceStatus) error {
	// present is never stored; it clears the record instead
	if status == staff.StatusPresent {
		return errors.Wrap(repo.client.HDel(ctx, attendanceKey(dateStr), teacherID).Err(), "clearing attendance mark")
	}
	return errors.Wrap(repo.client.HSet(ctx, attendanceKey(dateStr), teacherID, string(status)).Err(), "saving attendance mark")
}
