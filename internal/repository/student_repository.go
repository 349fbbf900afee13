package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-score-portal/internal/models"
)

// ErrDuplicateKey is returned when a write collides with an existing exam ID.
var ErrDuplicateKey = errors.New("duplicate key")

const (
	uniqueViolation = "23505"

	studentColumns = "id, th_id, prefix, name, surname, study_plan, scores, created_at, updated_at"

	defaultStudentPageSize = 50
	maxStudentPageSize     = 500
)

// StudentRepository manages persistence for student records keyed by exam ID.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// likeEscaper quotes LIKE wildcards using the default backslash escape.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// List returns students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if plan := models.NormalizePlanKey(filter.StudyPlan); plan != "" {
		conditions = append(conditions, fmt.Sprintf("study_plan = $%d", len(args)+1))
		args = append(args, plan)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		n := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(LOWER(id) LIKE $%d OR LOWER(th_id) LIKE $%d OR LOWER(name) LIKE $%d OR LOWER(surname) LIKE $%d)", n, n, n, n))
		args = append(args, "%"+likeEscaper.Replace(strings.ToLower(search))+"%")
	}

	where := strings.Join(conditions, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = defaultStudentPageSize
	}
	if size > maxStudentPageSize {
		size = maxStudentPageSize
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s FROM students WHERE %s ORDER BY id ASC LIMIT %d OFFSET %d", studentColumns, where, size, offset)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM students WHERE "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// ListAll returns every student ordered by exam ID.
func (r *StudentRepository) ListAll(ctx context.Context) ([]models.Student, error) {
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, "SELECT "+studentColumns+" FROM students ORDER BY id ASC"); err != nil {
		return nil, fmt.Errorf("list all students: %w", err)
	}
	return students, nil
}

// FindByID fetches a student by exam ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	var student models.Student
	if err := r.db.GetContext(ctx, &student, "SELECT "+studentColumns+" FROM students WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindOne returns the first student matching every provided identifier.
func (r *StudentRepository) FindOne(ctx context.Context, lookup models.StudentLookup) (*models.Student, error) {
	conditions := make([]string, 0, 2)
	args := make([]interface{}, 0, 2)
	if lookup.ThID != "" {
		conditions = append(conditions, fmt.Sprintf("th_id = $%d", len(args)+1))
		args = append(args, lookup.ThID)
	}
	if lookup.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("id = $%d", len(args)+1))
		args = append(args, lookup.StudentID)
	}
	if len(conditions) == 0 {
		return nil, sql.ErrNoRows
	}

	query := fmt.Sprintf("SELECT %s FROM students WHERE %s ORDER BY id ASC LIMIT 1", studentColumns, strings.Join(conditions, " AND "))
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, args...); err != nil {
		return nil, err
	}
	return &student, nil
}

// Insert creates the student unless the exam ID is taken. It reports whether a row was written.
func (r *StudentRepository) Insert(ctx context.Context, student *models.Student) (bool, error) {
	stampStudent(student)
	const query = `INSERT INTO students (id, th_id, prefix, name, surname, study_plan, scores, created_at, updated_at)
VALUES (:id, :th_id, :prefix, :name, :surname, :study_plan, :scores, :created_at, :updated_at)
ON CONFLICT (id) DO NOTHING`
	res, err := r.db.NamedExecContext(ctx, query, student)
	if err != nil {
		return false, fmt.Errorf("insert student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert student rows affected: %w", err)
	}
	return affected > 0, nil
}

// Upsert writes the student, replacing any record with the same exam ID.
func (r *StudentRepository) Upsert(ctx context.Context, student *models.Student) error {
	stampStudent(student)
	const query = `INSERT INTO students (id, th_id, prefix, name, surname, study_plan, scores, created_at, updated_at)
VALUES (:id, :th_id, :prefix, :name, :surname, :study_plan, :scores, :created_at, :updated_at)
ON CONFLICT (id)
DO UPDATE SET th_id = EXCLUDED.th_id, prefix = EXCLUDED.prefix, name = EXCLUDED.name, surname = EXCLUDED.surname,
              study_plan = EXCLUDED.study_plan, scores = EXCLUDED.scores, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("upsert student: %w", err)
	}
	return nil
}

type studentUpdate struct {
	models.Student
	CurrentID string `db:"current_id"`
}

// Update replaces the student stored under currentID. Changing the exam ID moves the record in
// the same statement.
func (r *StudentRepository) Update(ctx context.Context, currentID string, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET id = :id, th_id = :th_id, prefix = :prefix, name = :name, surname = :surname,
    study_plan = :study_plan, scores = :scores, updated_at = :updated_at
WHERE id = :current_id`
	res, err := r.db.NamedExecContext(ctx, query, studentUpdate{Student: *student, CurrentID: currentID})
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("update student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update student rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes the student with the given exam ID.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM students WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete student rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func stampStudent(student *models.Student) {
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	if student.Scores == nil {
		student.Scores = models.Scores{}
	}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
