package pgrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/darasahq/darasa/core/staff"
)

type staffRepository struct {
	db *sqlx.DB
}

var _ staff.Repository = (*staffRepository)(nil) // interface compliance check

func NewStaffRepository(db *sqlx.DB) *staffRepository {
	return &staffRepository{db: db}
}

type teacherRow struct {
	ID       string         `db:"id"`
	Name     string         `db:"name"`
	Initials null.String    `db:"initials"`
	Email    null.String    `db:"email"`
	Subjects pq.StringArray `db:"subjects"`
}

func (row teacherRow) unpack() staff.Teacher {
	return staff.Teacher{
		ID:       row.ID,
		Name:     row.Name,
		Initials: row.Initials.String,
		Email:    row.Email.String,
		Subjects: row.Subjects,
	}
}

func (repo staffRepository) QueryAllTeachers(ctx context.Context) ([]staff.Teacher, error) {
	var rows []teacherRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT id, name, initials, email, subjects FROM teacher ORDER BY name`); err != nil {
		return nil, errors.Wrap(err, "querying teachers")
	}
	teachers := make([]staff.Teacher, 0, len(rows))
	for _, row := range rows {
		teachers = append(teachers, row.unpack())
	}
	return teachers, nil
}

func (repo staffRepository) GetTeacherByID(ctx context.Context, id string) (staff.Teacher, error) {
	var row teacherRow
	err := repo.db.GetContext(ctx, &row, `SELECT id, name, initials, email, subjects FROM teacher WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return staff.Teacher{}, staff.ErrTeacherNotFound
		}
		return staff.Teacher{}, errors.Wrap(err, "getting teacher")
	}
	return row.unpack(), nil
}

func (repo staffRepository) CreateTeacher(ctx context.Context, t staff.Teacher) (staff.Teacher, error) {
	q := `INSERT INTO teacher (id, name, initials, email, subjects) VALUES ($1, $2, $3, $4, $5)`
	_, err := repo.db.ExecContext(ctx, q,
		t.ID, t.Name,
		null.NewString(t.Initials, t.Initials != ""),
		null.NewString(t.Email, t.Email != ""),
		pq.StringArray(t.Subjects),
	)
	if err != nil {
		return staff.Teacher{}, errors.Wrap(err, "creating teacher")
	}
	return t, nil
}

func (repo staffRepository) UpdateTeacher(ctx context.Context, t staff.Teacher) (staff.Teacher, error) {
	q := `UPDATE teacher SET name = $2, initials = $3, email = $4, subjects = $5 WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q,
		t.ID, t.Name,
		null.NewString(t.Initials, t.Initials != ""),
		null.NewString(t.Email, t.Email != ""),
		pq.StringArray(t.Subjects),
	)
	if err != nil {
		return staff.Teacher{}, errors.Wrap(err, "updating teacher")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return staff.Teacher{}, staff.ErrTeacherNotFound
	}
	return t, nil
}

func (repo staffRepository) DeleteTeachersByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM teacher WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building teacher delete")
	}
	if _, err := repo.db.ExecContext(ctx, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "deleting teachers")
	}
	return nil
}

func (repo staffRepository) GetAttendance(ctx context.Context, dateStr string) (map[string]staff.AttendanceStatus, error) {
	var rows []struct {
		TeacherID string `db:"teacher_id"`
		Status    string `db:"status"`
	}
	q := `SELECT teacher_id, status FROM attendance_mark WHERE date = $1`
	if err := repo.db.SelectContext(ctx, &rows, q, dateStr); err != nil {
		return nil, errors.Wrap(err, "querying attendance")
	}

	marks := make(map[string]staff.AttendanceStatus, len(rows))
	for _, row := range rows {
		marks[row.TeacherID] = staff.AttendanceStatus(row.Status)
	}
	return marks, nil
}

func (repo staffRepository) SaveAttendanceMark(ctx context.Context, dateStr, teacherID string, status staff.AttendanceStatus) error {
	// present is never stored; it clears the record instead
	if status == staff.StatusPresent {
		q := `DELETE FROM attendance_mark WHERE date = $1 AND teacher_id = $2`
		if _, err := repo.db.ExecContext(ctx, q, dateStr, teacherID); err != nil {
			return errors.Wrap(err, "clearing attendance mark")
		}
		return nil
	}

	q := `
		INSERT INTO attendance_mark (date, teacher_id, status) VALUES ($1, $2, $3)
		ON CONFLICT (date, teacher_id) DO UPDATE SET status = EXCLUDED.status`
	if _, err := repo.db.ExecContext(ctx, q, dateStr, teacherID, string(status)); err != nil {
		return errors.Wrap(err, "saving attendance mark")
	}
	return nil
}
