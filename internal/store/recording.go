package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// Recording is a captured tracking session that can be replayed.
type Recording struct {
	ID         string
	Name       string
	Frames     int
	DurationMS int64
	CreatedAt  time.Time
}

// Duration returns the recorded span between the first and last frame.
func (r *Recording) Duration() time.Duration {
	return time.Duration(r.DurationMS) * time.Millisecond
}

// RecordingRepository stores recordings and their tracking messages.
type RecordingRepository struct {
	db *sql.DB
}

// Recordings returns the recording repository for this store.
func (s *Store) Recordings() *RecordingRepository {
	return &RecordingRepository{db: s.db}
}

const recordingColumns = `id, name, frames, duration_ms, created_at`

func scanRecording(row scanner) (*Recording, error) {
	rec := &Recording{}
	if err := row.Scan(&rec.ID, &rec.Name, &rec.Frames, &rec.DurationMS, &rec.CreatedAt); err != nil {
		return nil, err
	}
	return rec, nil
}

// Create inserts an empty recording.
func (r *RecordingRepository) Create(rec *Recording) error {
	rec.CreatedAt = time.Now()
	rec.Frames = 0

	_, err := r.db.Exec(
		`INSERT INTO recordings (`+recordingColumns+`) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, rec.Frames, rec.DurationMS, rec.CreatedAt,
	)
	return err
}

// AppendFrames adds messages to the end of a recording and updates its frame
// count and duration.
func (r *RecordingRepository) AppendFrames(id string, frames []json.RawMessage, duration time.Duration) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var existing int
	if err := tx.QueryRow(`SELECT frames FROM recordings WHERE id = ?`, id).Scan(&existing); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO recording_frames (recording_id, sequence, data) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, data := range frames {
		if _, err := stmt.Exec(id, existing+i, string(data)); err != nil {
			return err
		}
	}

	_, err = tx.Exec(`UPDATE recordings SET frames = ?, duration_ms = ? WHERE id = ?`,
		existing+len(frames), duration.Milliseconds(), id)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Frames returns a recording's messages in capture order.
func (r *RecordingRepository) Frames(id string) ([]json.RawMessage, error) {
	if _, err := r.Get(id); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(
		`SELECT data FROM recording_frames WHERE recording_id = ? ORDER BY sequence`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var frames []json.RawMessage
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		frames = append(frames, json.RawMessage(data))
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return frames, nil
}

// Get retrieves a recording by ID.
func (r *RecordingRepository) Get(id string) (*Recording, error) {
	rec, err := scanRecording(r.db.QueryRow(`SELECT `+recordingColumns+` FROM recordings WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// List retrieves all recordings, newest first.
func (r *RecordingRepository) List() ([]*Recording, error) {
	rows, err := r.db.Query(`SELECT ` + recordingColumns + ` FROM recordings ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recordings []*Recording
	for rows.Next() {
		rec, err := scanRecording(rows)
		if err != nil {
			return nil, err
		}
		recordings = append(recordings, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return recordings, nil
}

// Delete removes a recording and its frames.
func (r *RecordingRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM recordings WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
