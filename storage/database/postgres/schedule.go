package pgrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/darasahq/darasa/core/schedule"
)

type scheduleRepository struct {
	db *sqlx.DB
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db *sqlx.DB) *scheduleRepository {
	return &scheduleRepository{db: db}
}

type (
	classRow struct {
		ID      string `db:"id"`
		Name    string `db:"name"`
		Section string `db:"section"`
	}

	baseEntryRow struct {
		Day       string      `db:"day"`
		ClassID   string      `db:"class_id"`
		Period    int         `db:"period"`
		TeacherID string      `db:"teacher_id"`
		Subject   string      `db:"subject"`
		Note      null.String `db:"note"`
	}

	overrideRow struct {
		Date              string         `db:"date"`
		ClassID           string         `db:"class_id"`
		Period            int            `db:"period"`
		Kind              string         `db:"kind"`
		OriginalTeacherID null.String    `db:"original_teacher_id"`
		SubTeacherID      null.String    `db:"sub_teacher_id"`
		SubSubject        null.String    `db:"sub_subject"`
		Note              null.String    `db:"note"`
		MergedClassIDs    pq.StringArray `db:"merged_class_ids"`
	}
)

func (row overrideRow) unpack() schedule.Override {
	o := schedule.Override{
		Kind:              schedule.OverrideKind(row.Kind),
		OriginalTeacherID: row.OriginalTeacherID.String,
	}
	switch o.Kind {
	case schedule.KindSubstitution:
		o.Substitution = &schedule.Substitution{
			TeacherID: row.SubTeacherID.String,
			Subject:   row.SubSubject.String,
			Note:      row.Note.String,
		}
	case schedule.KindVacant:
		o.Vacant = &schedule.Vacancy{Note: row.Note.String}
	case schedule.KindMerged:
		o.Merged = &schedule.Merge{WithClassIDs: row.MergedClassIDs}
	}
	return o
}

func (repo scheduleRepository) GetBaseSchedule(ctx context.Context, day schedule.Weekday) (map[string]schedule.BaseEntry, error) {
	var rows []baseEntryRow
	q := `SELECT day, class_id, period, teacher_id, subject, note FROM base_entry WHERE day = $1`
	if err := repo.db.SelectContext(ctx, &rows, q, string(day)); err != nil {
		return nil, errors.Wrap(err, "querying base schedule")
	}

	entries := make(map[string]schedule.BaseEntry, len(rows))
	for _, row := range rows {
		entries[schedule.SlotKey(row.ClassID, row.Period)] = schedule.BaseEntry{
			TeacherID: row.TeacherID,
			Subject:   row.Subject,
			Note:      row.Note.String,
		}
	}
	return entries, nil
}

func (repo scheduleRepository) SaveBaseEntry(ctx context.Context, day schedule.Weekday, classID string, period int, entry *schedule.BaseEntry) error {
	if entry == nil {
		q := `DELETE FROM base_entry WHERE day = $1 AND class_id = $2 AND period = $3`
		// deleting a missing key is a no-op
		if _, err := repo.db.ExecContext(ctx, q, string(day), classID, period); err != nil {
			return errors.Wrap(err, "deleting base entry")
		}
		return nil
	}

	q := `
		INSERT INTO base_entry (day, class_id, period, teacher_id, subject, note)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (day, class_id, period)
		DO UPDATE SET teacher_id = EXCLUDED.teacher_id, subject = EXCLUDED.subject, note = EXCLUDED.note`
	_, err := repo.db.ExecContext(ctx, q,
		string(day), classID, period, entry.TeacherID, entry.Subject, null.NewString(entry.Note, entry.Note != ""),
	)
	return errors.Wrap(err, "saving base entry")
}

func (repo scheduleRepository) GetOverrides(ctx context.Context, dateStr string) (map[string]schedule.Override, error) {
	var rows []overrideRow
	q := `
		SELECT date, class_id, period, kind, original_teacher_id, sub_teacher_id, sub_subject, note, merged_class_ids
		FROM daily_override WHERE date = $1`
	if err := repo.db.SelectContext(ctx, &rows, q, dateStr); err != nil {
		return nil, errors.Wrap(err, "querying overrides")
	}

	overrides := make(map[string]schedule.Override, len(rows))
	for _, row := range rows {
		overrides[schedule.SlotKey(row.ClassID, row.Period)] = row.unpack()
	}
	return overrides, nil
}

func (repo scheduleRepository) SaveOverride(ctx context.Context, dateStr, classID string, period int, o *schedule.Override) error {
	if o == nil {
		q := `DELETE FROM daily_override WHERE date = $1 AND class_id = $2 AND period = $3`
		if _, err := repo.db.ExecContext(ctx, q, dateStr, classID, period); err != nil {
			return errors.Wrap(err, "deleting override")
		}
		return nil
	}

	row := overrideRow{
		Kind:              string(o.Kind),
		OriginalTeacherID: null.NewString(o.OriginalTeacherID, o.OriginalTeacherID != ""),
	}
	switch o.Kind {
	case schedule.KindSubstitution:
		row.SubTeacherID = null.StringFrom(o.Substitution.TeacherID)
		row.SubSubject = null.NewString(o.Substitution.Subject, o.Substitution.Subject != "")
		row.Note = null.NewString(o.Substitution.Note, o.Substitution.Note != "")
	case schedule.KindVacant:
		row.Note = null.NewString(o.Vacant.Note, o.Vacant.Note != "")
	case schedule.KindMerged:
		row.MergedClassIDs = o.Merged.WithClassIDs
	}

	q := `
		INSERT INTO daily_override (date, class_id, period, kind, original_teacher_id, sub_teacher_id, sub_subject, note, merged_class_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (date, class_id, period)
		DO UPDATE SET kind = EXCLUDED.kind, original_teacher_id = EXCLUDED.original_teacher_id,
			sub_teacher_id = EXCLUDED.sub_teacher_id, sub_subject = EXCLUDED.sub_subject,
			note = EXCLUDED.note, merged_class_ids = EXCLUDED.merged_class_ids`
	_, err := repo.db.ExecContext(ctx, q,
		dateStr, classID, period, row.Kind, row.OriginalTeacherID, row.SubTeacherID, row.SubSubject, row.Note, row.MergedClassIDs,
	)
	return errors.Wrap(err, "saving override")
}

func (repo scheduleRepository) QueryAllClasses(ctx context.Context) ([]schedule.ClassSection, error) {
	var rows []classRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT id, name, section FROM class_section ORDER BY name`); err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	classes := make([]schedule.ClassSection, 0, len(rows))
	for _, row := range rows {
		classes = append(classes, schedule.ClassSection{ID: row.ID, Name: row.Name, Section: schedule.Section(row.Section)})
	}
	return classes, nil
}

func (repo scheduleRepository) GetClassByID(ctx context.Context, id string) (schedule.ClassSection, error) {
	var row classRow
	err := repo.db.GetContext(ctx, &row, `SELECT id, name, section FROM class_section WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return schedule.ClassSection{}, schedule.ErrNotFound
		}
		return schedule.ClassSection{}, errors.Wrap(err, "getting class")
	}
	return schedule.ClassSection{ID: row.ID, Name: row.Name, Section: schedule.Section(row.Section)}, nil
}

func (repo scheduleRepository) CreateClass(ctx context.Context, cs schedule.ClassSection) (schedule.ClassSection, error) {
	q := `INSERT INTO class_section (id, name, section) VALUES ($1, $2, $3)`
	if _, err := repo.db.ExecContext(ctx, q, cs.ID, cs.Name, string(cs.Section)); err != nil {
		return schedule.ClassSection{}, errors.Wrap(err, "creating class")
	}
	return cs, nil
}

func (repo scheduleRepository) UpdateClass(ctx context.Context, cs schedule.ClassSection) (schedule.ClassSection, error) {
	q := `UPDATE class_section SET name = $2, section = $3 WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q, cs.ID, cs.Name, string(cs.Section))
	if err != nil {
		return schedule.ClassSection{}, errors.Wrap(err, "updating class")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return schedule.ClassSection{}, schedule.ErrNotFound
	}
	return cs, nil
}

// DeleteClassByID removes the class; the schema's ON DELETE CASCADE takes the
// base entries and overrides with it.
func (repo scheduleRepository) DeleteClassByID(ctx context.Context, id string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM class_section WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting class")
	}
	return nil
}
