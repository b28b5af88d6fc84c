package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/soaringjerry/Solace/internal/assessment"
	"github.com/soaringjerry/Solace/internal/log"
	"github.com/soaringjerry/Solace/internal/models"
	"github.com/soaringjerry/Solace/internal/services"
)

var (
	_ services.HistoryStore = (*SQLiteStore)(nil)
	_ services.SubjectStore = (*SQLiteStore)(nil)
)

type SQLiteStore struct {
	db     *sql.DB
	sealer *Sealer
	logger *log.Logger
}

// Open opens (or creates) the database file at path and applies migrations.
func Open(path, migrationsDir string) (*sql.DB, error) {
	// Pragmas in the DSN apply to every pooled connection.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := RunMigrations(db, migrationsDir); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// NewSQLiteStore wraps db. When sealer is non-nil, text and list answers are
// encrypted before they are written.
func NewSQLiteStore(db *sql.DB, sealer *Sealer) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db, sealer: sealer, logger: log.Default().With("component", "sqlite store")}, nil
}

func ctx() context.Context { return context.Background() }

// timeLayout is fixed width so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func toNullString(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func answerAAD(resultID, questionID string) []byte {
	return []byte(resultID + "/" + questionID)
}

func (s *SQLiteStore) AddEntry(e *models.Entry) error {
	breakdown, err := json.Marshal(e.Score.Breakdown)
	if err != nil {
		return err
	}
	recs, err := json.Marshal(e.Score.Recommendations)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx(), nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	var started sql.NullString
	if !e.StartedAt.IsZero() {
		started = sql.NullString{String: formatTime(e.StartedAt), Valid: true}
	}
	_, err = tx.Exec(`INSERT INTO results
		(id, subject_id, completed_at, started_at, locale, score, category, mood_label, breakdown_json, recommendations_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SubjectID, formatTime(e.Date), started, toNullString(e.Locale),
		e.Score.Value, string(e.Score.Category), toNullString(e.MoodLabel), string(breakdown), string(recs))
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	for qid, v := range e.Answers {
		if err := s.insertAnswer(tx, e.ID, qid, v); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) insertAnswer(tx *sql.Tx, resultID, qid string, v assessment.Value) error {
	var (
		num    sql.NullFloat64
		text   sql.NullString
		list   sql.NullString
		sealed int
	)
	switch v.Kind {
	case assessment.KindNumber:
		num = sql.NullFloat64{Float64: v.Number, Valid: true}
	case assessment.KindText:
		text = sql.NullString{String: v.Text, Valid: true}
	case assessment.KindList:
		b, err := json.Marshal(v.List)
		if err != nil {
			return err
		}
		list = sql.NullString{String: string(b), Valid: true}
	}
	if s.sealer != nil && v.Kind != assessment.KindNumber {
		aad := answerAAD(resultID, qid)
		for _, ns := range []*sql.NullString{&text, &list} {
			if !ns.Valid {
				continue
			}
			out, err := s.sealer.Seal([]byte(ns.String), aad)
			if err != nil {
				return fmt.Errorf("seal answer %s: %w", qid, err)
			}
			ns.String = out
		}
		sealed = 1
	}
	_, err := tx.Exec(`INSERT INTO answers (result_id, question_id, kind, number_value, text_value, list_json, sealed)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, resultID, qid, string(v.Kind), num, text, list, sealed)
	if err != nil {
		return fmt.Errorf("insert answer %s: %w", qid, err)
	}
	return nil
}

const selectResult = `SELECT id, subject_id, completed_at, started_at, locale, score, category, mood_label, breakdown_json, recommendations_json FROM results`

func (s *SQLiteStore) ListEntries(subjectID string) ([]*models.Entry, error) {
	rows, err := s.db.QueryContext(ctx(), selectResult+` WHERE subject_id = ? ORDER BY completed_at, id`, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.Entry
	byID := map[string]*models.Entry{}
	for rows.Next() {
		e, err := s.scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
		byID[e.ID] = e
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}
	arows, err := s.db.QueryContext(ctx(), `SELECT a.result_id, a.question_id, a.kind, a.number_value, a.text_value, a.list_json, a.sealed
		FROM answers a JOIN results r ON r.id = a.result_id WHERE r.subject_id = ?`, subjectID)
	if err != nil {
		return nil, err
	}
	defer arows.Close()
	for arows.Next() {
		rid, qid, v, err := s.scanAnswer(arows)
		if err != nil {
			return nil, err
		}
		if e := byID[rid]; e != nil {
			e.Answers[qid] = v
		}
	}
	return out, arows.Err()
}

func (s *SQLiteStore) GetEntry(id string) (*models.Entry, error) {
	row := s.db.QueryRowContext(ctx(), selectResult+` WHERE id = ?`, id)
	e, err := s.scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	arows, err := s.db.QueryContext(ctx(), `SELECT result_id, question_id, kind, number_value, text_value, list_json, sealed
		FROM answers WHERE result_id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer arows.Close()
	for arows.Next() {
		_, qid, v, err := s.scanAnswer(arows)
		if err != nil {
			return nil, err
		}
		e.Answers[qid] = v
	}
	return e, arows.Err()
}

func (s *SQLiteStore) DeleteEntries(subjectID string) (int, error) {
	res, err := s.db.ExecContext(ctx(), `DELETE FROM results WHERE subject_id = ?`, subjectID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *SQLiteStore) AddAudit(e models.AuditEntry) error {
	_, err := s.db.ExecContext(ctx(), `INSERT INTO audit_log (time, actor, action, target, note) VALUES (?, ?, ?, ?, ?)`,
		formatTime(e.Time), toNullString(e.Actor), e.Action, toNullString(e.Target), toNullString(e.Note))
	return err
}

// ListAudit returns the most recent audit records, newest first.
func (s *SQLiteStore) ListAudit(limit int) ([]models.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx(), `SELECT time, actor, action, target, note FROM audit_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.AuditEntry
	for rows.Next() {
		var (
			ts                  string
			actor, target, note sql.NullString
			a                   models.AuditEntry
		)
		if err := rows.Scan(&ts, &actor, &a.Action, &target, &note); err != nil {
			return nil, err
		}
		a.Time, a.Actor, a.Target, a.Note = parseTime(ts), actor.String, target.String, note.String
		out = append(out, a)
	}
	return out, rows.Err()
}

// CountEntries is used by the legacy importer to refuse importing into a non-empty database.
func (s *SQLiteStore) CountEntries() (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx(), `SELECT COUNT(*) FROM results`).Scan(&n)
	return n, err
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore) scanResult(sc scanner) (*models.Entry, error) {
	var (
		e                                 models.Entry
		completed, category, bjson, rjson string
		started, locale, mood             sql.NullString
	)
	if err := sc.Scan(&e.ID, &e.SubjectID, &completed, &started, &locale, &e.Score.Value, &category, &mood, &bjson, &rjson); err != nil {
		return nil, err
	}
	e.Date = parseTime(completed)
	if started.Valid {
		e.StartedAt = parseTime(started.String)
	}
	e.Locale = locale.String
	e.MoodLabel = mood.String
	e.Score.Category = assessment.Category(category)
	if err := json.Unmarshal([]byte(bjson), &e.Score.Breakdown); err != nil {
		s.logger.Warn("decode breakdown", "result_id", e.ID, "error", err)
	}
	if err := json.Unmarshal([]byte(rjson), &e.Score.Recommendations); err != nil {
		s.logger.Warn("decode recommendations", "result_id", e.ID, "error", err)
	}
	e.Answers = assessment.Answers{}
	return &e, nil
}

// scanAnswer decodes one answers row. Sealed rows that cannot be opened
// (wrong or missing key) are skipped with a warning rather than failing the read.
func (s *SQLiteStore) scanAnswer(sc scanner) (string, string, assessment.Value, error) {
	var (
		rid, qid, kind string
		num            sql.NullFloat64
		text, list     sql.NullString
		sealed         int
	)
	if err := sc.Scan(&rid, &qid, &kind, &num, &text, &list, &sealed); err != nil {
		return "", "", assessment.Value{}, err
	}
	if sealed == 1 {
		if s.sealer == nil {
			s.logger.Warn("sealed answer without seal key", "result_id", rid, "question_id", qid)
			return rid, qid, assessment.Value{Kind: assessment.ValueKind(kind)}, nil
		}
		aad := answerAAD(rid, qid)
		for _, ns := range []*sql.NullString{&text, &list} {
			if !ns.Valid {
				continue
			}
			plain, err := s.sealer.Open(ns.String, aad)
			if err != nil {
				s.logger.Warn("open sealed answer", "result_id", rid, "question_id", qid, "error", err)
				return rid, qid, assessment.Value{Kind: assessment.ValueKind(kind)}, nil
			}
			ns.String = string(plain)
		}
	}
	switch assessment.ValueKind(kind) {
	case assessment.KindNumber:
		return rid, qid, assessment.NumberValue(num.Float64), nil
	case assessment.KindList:
		var l []string
		if list.Valid {
			if err := json.Unmarshal([]byte(list.String), &l); err != nil {
				s.logger.Warn("decode list answer", "result_id", rid, "question_id", qid, "error", err)
			}
		}
		return rid, qid, assessment.ListValue(l), nil
	default:
		return rid, qid, assessment.TextValue(text.String), nil
	}
}
