package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"deepscan/internal/detection"
)

// timestampLayout keeps a fixed width so created_at sorts lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

const runColumns = "id, filename, media_type, is_deepfake, confidence, sha256, error_message, summary_json, created_at"

// Record is one stored detection run.
type Record struct {
	ID         string            `json:"id"`
	Filename   string            `json:"filename"`
	MediaType  string            `json:"media_type"`
	IsDeepfake bool              `json:"is_deepfake"`
	Confidence float64           `json:"confidence"`
	SHA256     string            `json:"sha256,omitempty"`
	Error      string            `json:"error,omitempty"`
	Summary    detection.Summary `json:"summary"`
	CreatedAt  time.Time         `json:"created_at"`
}

// Result rebuilds the detection result stored in the record.
func (r *Record) Result() *detection.Result {
	return detection.FromSummary(r.Summary)
}

// Save stores result under runID.
func (s *Store) Save(ctx context.Context, runID string, result *detection.Result, sha256 string) (*Record, error) {
	if result == nil {
		return nil, errors.New("result is nil")
	}
	if strings.TrimSpace(runID) == "" {
		return nil, errors.New("run id is empty")
	}
	summary := result.Summary()
	payload, err := json.Marshal(summary)
	if err != nil {
		return nil, fmt.Errorf("encode summary: %w", err)
	}
	record := &Record{
		ID:         runID,
		Filename:   summary.Filename,
		MediaType:  string(summary.MediaType),
		IsDeepfake: summary.IsDeepfake,
		Confidence: summary.AverageConfidence,
		SHA256:     sha256,
		Error:      result.Error(),
		Summary:    summary,
		CreatedAt:  time.Now().UTC(),
	}
	_, err = s.execWithRetry(ctx,
		`INSERT INTO detection_runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.Filename,
		record.MediaType,
		boolToInt(record.IsDeepfake),
		record.Confidence,
		nullableString(record.SHA256),
		nullableString(record.Error),
		string(payload),
		record.CreatedAt.Format(timestampLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return record, nil
}

// Get returns the run with id, or nil when it does not exist.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+runColumns+` FROM detection_runs WHERE id = ?`, id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return record, nil
}

// FindBySHA returns the most recent run of the file with the given hash, or nil.
func (s *Store) FindBySHA(ctx context.Context, sha256 string) (*Record, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+runColumns+` FROM detection_runs WHERE sha256 = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		sha256,
	)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by sha256: %w", err)
	}
	return record, nil
}

// List returns up to limit runs, newest first. limit <= 0 returns every run.
func (s *Store) List(ctx context.Context, limit int) ([]*Record, error) {
	query := `SELECT ` + runColumns + ` FROM detection_runs ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Remove deletes a run by id.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM detection_runs WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Clear removes every run.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM detection_runs`)
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	return res.RowsAffected()
}

// Stats counts stored runs.
type Stats struct {
	Total     int            `json:"total"`
	Deepfakes int            `json:"deepfakes"`
	ByType    map[string]int `json:"by_type"`
}

// Stats summarises the stored runs.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT media_type, COUNT(1), SUM(is_deepfake) FROM detection_runs GROUP BY media_type`)
	if err != nil {
		return Stats{}, fmt.Errorf("history stats: %w", err)
	}
	defer rows.Close()

	stats := Stats{ByType: map[string]int{}}
	for rows.Next() {
		var (
			mediaType string
			count     int
			fakes     sql.NullInt64
		)
		if err := rows.Scan(&mediaType, &count, &fakes); err != nil {
			return Stats{}, fmt.Errorf("scan stats: %w", err)
		}
		stats.ByType[mediaType] = count
		stats.Total += count
		stats.Deepfakes += int(fakes.Int64)
	}
	return stats, rows.Err()
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		id         string
		filename   string
		mediaType  string
		isDeepfake int64
		confidence float64
		sha        sql.NullString
		errMessage sql.NullString
		summary    string
		createdRaw string
	)
	if err := scanner.Scan(&id, &filename, &mediaType, &isDeepfake, &confidence, &sha, &errMessage, &summary, &createdRaw); err != nil {
		return nil, err
	}
	record := &Record{
		ID:         id,
		Filename:   filename,
		MediaType:  mediaType,
		IsDeepfake: isDeepfake != 0,
		Confidence: confidence,
		SHA256:     sha.String,
		Error:      errMessage.String,
	}
	if err := json.Unmarshal([]byte(summary), &record.Summary); err != nil {
		return nil, fmt.Errorf("decode summary for %s: %w", id, err)
	}
	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		record.CreatedAt = created
	}
	return record, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
