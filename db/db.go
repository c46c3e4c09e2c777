package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/dasdy/turismo/model"
	"github.com/google/uuid"

	_ "github.com/mattn/go-sqlite3"
)

// MemoryPath keeps sessions in process memory only.
const MemoryPath = ":memory:"

var ErrUnknownField = errors.New("unknown preference field")

var fieldColumns = map[model.PreferenceField]string{
	model.FieldCity:       "city",
	model.FieldYear:       "year",
	model.FieldShowData:   "show_data",
	model.FieldFontColor:  "font_color",
	model.FieldPanelColor: "panel_color",
}

type SQLiteStorage struct {
	db  *sql.DB
	now func() time.Time
}

func NewStorage(db *sql.DB) *SQLiteStorage {
	return &SQLiteStorage{db: db, now: time.Now}
}

func InitDbStorage(db *sql.DB) error {
	sqlStmt := fmt.Sprintf(`
	create table if not exists sessions(
		id text primary key,
		dataset text,
		city text,
		year text,
		show_data bool not null default false,
		font_color text not null default '%s',
		panel_color text not null default '%s',
		touched_at datetime not null);`, model.DefaultFontColor, model.DefaultPanelColor)

	if _, err := db.Exec(sqlStmt); err != nil {
		slog.Error("Could not create sessions table", "error", err, "statement", sqlStmt)

		return fmt.Errorf("could not create sessions table: %w", err)
	}

	sqlStmt = `create index if not exists sessions_touchedix on sessions (touched_at ASC);`
	if _, err := db.Exec(sqlStmt); err != nil {
		slog.Error("Could not create sessions index", "error", err, "statement", sqlStmt)

		return fmt.Errorf("could not create sessions index: %w", err)
	}

	return nil
}

// NewStorageFromPath opens (or creates) the sqlite file at path. Use MemoryPath to drop all
// sessions when the process exits.
func NewStorageFromPath(path string) (*SQLiteStorage, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", path, err)
	}

	// every new connection to :memory: is a fresh database
	conn.SetMaxOpenConns(1)

	if err := InitDbStorage(conn); err != nil {
		conn.Close()

		return nil, err
	}

	return NewStorage(conn), nil
}

func (s *SQLiteStorage) touch(ctx context.Context, session string) error {
	_, err := s.db.ExecContext(ctx,
		`insert into sessions(id, touched_at) values(?, ?)
		on conflict(id) do update set touched_at = excluded.touched_at`,
		session, s.now().UTC())
	if err != nil {
		return fmt.Errorf("could not touch session %s: %w", session, err)
	}

	return nil
}

func (s *SQLiteStorage) CreateSession(ctx context.Context) (string, error) {
	id := uuid.NewString()

	if err := s.touch(ctx, id); err != nil {
		return "", err
	}

	slog.Debug("Created session", "session", id)

	return id, nil
}

func (s *SQLiteStorage) SessionExists(ctx context.Context, session string) (bool, error) {
	var count int

	err := s.db.QueryRowContext(ctx, `select count(*) from sessions where id = ?`, session).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("could not look up session %s: %w", session, err)
	}

	return count > 0, nil
}

// Preferences returns the stored values, or the defaults for a session that never set any.
func (s *SQLiteStorage) Preferences(ctx context.Context, session string) (model.Preferences, error) {
	prefs := model.DefaultPreferences()

	var city, year sql.NullString

	err := s.db.QueryRowContext(ctx,
		`select city, year, show_data, font_color, panel_color from sessions where id = ?`, session).
		Scan(&city, &year, &prefs.ShowData, &prefs.FontColor, &prefs.PanelColor)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DefaultPreferences(), nil
	}

	if err != nil {
		return prefs, fmt.Errorf("could not read preferences of %s: %w", session, err)
	}

	if city.Valid {
		prefs.City = &city.String
	}

	if year.Valid {
		prefs.Year = &year.String
	}

	return prefs, nil
}

// SetField overwrites one preference. An empty city or year clears the selection.
func (s *SQLiteStorage) SetField(ctx context.Context, session string, field model.PreferenceField, value string) error {
	column, ok := fieldColumns[field]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}

	var arg any

	switch field {
	case model.FieldShowData:
		arg = ParseFlag(value)
	case model.FieldCity, model.FieldYear:
		arg = sql.NullString{String: value, Valid: value != ""}
	default:
		arg = value
	}

	if err := s.touch(ctx, session); err != nil {
		return err
	}

	// column comes from fieldColumns, never from the request
	_, err := s.db.ExecContext(ctx, `update sessions set `+column+` = ? where id = ?`, arg, session)
	if err != nil {
		return fmt.Errorf("could not set %s of %s: %w", field, session, err)
	}

	return nil
}

func (s *SQLiteStorage) AttachDataset(ctx context.Context, session string, key string) error {
	if err := s.touch(ctx, session); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `update sessions set dataset = ? where id = ?`, key, session)
	if err != nil {
		return fmt.Errorf("could not attach dataset to %s: %w", session, err)
	}

	return nil
}

// Dataset returns the cache key of the session's table, empty when nothing was uploaded.
func (s *SQLiteStorage) Dataset(ctx context.Context, session string) (string, error) {
	var key sql.NullString

	err := s.db.QueryRowContext(ctx, `select dataset from sessions where id = ?`, session).Scan(&key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}

	if err != nil {
		return "", fmt.Errorf("could not read dataset of %s: %w", session, err)
	}

	return key.String, nil
}

// DatasetKeys lists the distinct cache keys some session still refers to.
func (s *SQLiteStorage) DatasetKeys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `select distinct dataset from sessions where dataset is not null`)
	if err != nil {
		return nil, fmt.Errorf("could not list datasets: %w", err)
	}
	defer rows.Close()

	var keys []string

	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("could not read dataset key: %w", err)
		}

		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not list datasets: %w", err)
	}

	return keys, nil
}

// PruneSessions forgets sessions not used since before.
func (s *SQLiteStorage) PruneSessions(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `delete from sessions where touched_at < ?`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("could not prune sessions: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("could not count pruned sessions: %w", err)
	}

	if n > 0 {
		slog.Info("Pruned sessions", "count", n)
	}

	return n, nil
}

func (s *SQLiteStorage) Close() {
	s.db.Close()
}

// ParseFlag reads checkbox values: "on", "true", "1" and friends.
func ParseFlag(value string) bool {
	if value == "on" {
		return true
	}

	b, err := strconv.ParseBool(value)

	return err == nil && b
}
