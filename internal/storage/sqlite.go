package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	// Register sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
)

type DB interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	Close() error
}

// Request statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Request is one logged bot or API interaction.
type Request struct {
	ID       string
	ChatID   int64
	Category string
	Command  string
	Status   string
	Error    string
	Time     time.Time
}

// UsageStats aggregates the requests of one category.
type UsageStats struct {
	Count    int
	Commands map[string]int
}

// TimeSeriesPoint is the number of requests in the bucket starting at Timestamp (unix seconds).
type TimeSeriesPoint struct {
	Timestamp int64
	Count     int
}

type Store struct{ db DB }

func OpenSQLite(dsn string) (DB, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	return db, nil
}

func InitSchema(db DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS requests(
		id TEXT PRIMARY KEY, chat_id INTEGER, category TEXT, command TEXT,
		status TEXT, error TEXT, ts INTEGER
	)`); err != nil {
		return fmt.Errorf("failed to create requests table: %w", err)
	}
	_, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_requests_ts ON requests(ts)`)
	return err
}

func NewStore(db DB) *Store { return &Store{db: db} }

// LogRequest records r, filling in the ID and time when unset.
func (s *Store) LogRequest(r Request) (string, error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.Time.IsZero() {
		r.Time = time.Now()
	}
	if r.Status == "" {
		r.Status = StatusOK
	}
	_, err := s.db.Exec(`INSERT INTO requests(id,chat_id,category,command,status,error,ts) VALUES(?,?,?,?,?,?,?)`,
		r.ID, r.ChatID, r.Category, r.Command, r.Status, r.Error, r.Time.Unix())
	if err != nil {
		return "", fmt.Errorf("failed to log request: %w", err)
	}
	return r.ID, nil
}

// UsageStats groups the requests since the given time by category and command.
func (s *Store) UsageStats(since time.Time) (map[string]*UsageStats, error) {
	rows, err := s.db.Query(`SELECT category, command, COUNT(*) FROM requests WHERE ts>=? GROUP BY category, command`,
		since.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query usage: %w", err)
	}
	defer rows.Close()

	out := map[string]*UsageStats{}
	for rows.Next() {
		var category, command string
		var n int
		if err := rows.Scan(&category, &command, &n); err != nil {
			return nil, fmt.Errorf("failed to scan usage row: %w", err)
		}
		st, ok := out[category]
		if !ok {
			st = &UsageStats{Commands: map[string]int{}}
			out[category] = st
		}
		st.Count += n
		st.Commands[command] += n
	}
	return out, rows.Err()
}

// UsageSeries counts requests per category in buckets of the given width.
func (s *Store) UsageSeries(since time.Time, bucket time.Duration) (map[string][]TimeSeriesPoint, error) {
	width := int64(bucket / time.Second)
	if width <= 0 {
		return nil, fmt.Errorf("invalid bucket width %s", bucket)
	}
	rows, err := s.db.Query(`SELECT category, (ts / ?) * ? AS bucket, COUNT(*) FROM requests
		WHERE ts>=? GROUP BY category, bucket ORDER BY bucket ASC`, width, width, since.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query usage series: %w", err)
	}
	defer rows.Close()

	out := map[string][]TimeSeriesPoint{}
	for rows.Next() {
		var category string
		var p TimeSeriesPoint
		if err := rows.Scan(&category, &p.Timestamp, &p.Count); err != nil {
			return nil, fmt.Errorf("failed to scan usage series row: %w", err)
		}
		out[category] = append(out[category], p)
	}
	return out, rows.Err()
}
