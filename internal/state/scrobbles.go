package state

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/lmasson/cadence/internal/db"
	"github.com/lmasson/cadence/internal/track"
)

// ScrobbleStatus records how a scrobble submission went.
type ScrobbleStatus string

const (
	StatusSuccess ScrobbleStatus = "success"
	StatusFailed  ScrobbleStatus = "failed"
	StatusQueued  ScrobbleStatus = "queued"
)

// ScrobbleRecord is an immutable history entry created at the moment a
// scheduled scrobble fires.
type ScrobbleRecord struct {
	ID        uuid.UUID
	Track     track.Track
	Timestamp time.Time
	Status    ScrobbleStatus
}

// NewScrobbleRecord creates a record for the given snapshot.
func NewScrobbleRecord(t track.Track, ts time.Time, status ScrobbleStatus) ScrobbleRecord {
	return ScrobbleRecord{
		ID:        uuid.New(),
		Track:     t,
		Timestamp: ts,
		Status:    status,
	}
}

// AppendScrobble persists a scrobble record.
func (m *Manager) AppendScrobble(r ScrobbleRecord) error {
	_, err := m.db.Exec(`
		INSERT OR REPLACE INTO scrobbles
		(id, title, artist, album, album_artist, duration_seconds, timestamp, status, artwork_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID.String(), r.Track.Title, r.Track.Artist, r.Track.Album, r.Track.AlbumArtist,
		int(r.Track.Duration.Seconds()), r.Timestamp.Unix(), string(r.Status), r.Track.ArtworkURL)
	return err
}

// RecentScrobbles returns the most recent records, newest first.
func (m *Manager) RecentScrobbles(limit int) ([]ScrobbleRecord, error) {
	rows, err := m.db.Query(`
		SELECT id, title, artist, album, album_artist, duration_seconds, timestamp, status, artwork_url
		FROM scrobbles
		ORDER BY timestamp DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ScrobbleRecord
	for rows.Next() {
		var r ScrobbleRecord
		var id, status string
		var album, albumArtist, artworkURL sql.NullString
		var durationSecs int
		var timestamp int64

		err := rows.Scan(&id, &r.Track.Title, &r.Track.Artist, &album, &albumArtist,
			&durationSecs, &timestamp, &status, &artworkURL)
		if err != nil {
			return nil, err
		}

		if parsed, err := uuid.Parse(id); err == nil {
			r.ID = parsed
		}
		r.Track.Album = db.NullStringValue(album)
		r.Track.AlbumArtist = db.NullStringValue(albumArtist)
		r.Track.ArtworkURL = db.NullStringValue(artworkURL)
		r.Track.Duration = time.Duration(durationSecs) * time.Second
		r.Track.State = track.StateStopped
		r.Timestamp = time.Unix(timestamp, 0)
		r.Status = ScrobbleStatus(status)

		records = append(records, r)
	}

	return records, rows.Err()
}

// CountScrobbles returns the total number of persisted records.
func (m *Manager) CountScrobbles() (int, error) {
	var count int
	err := m.db.QueryRow(`SELECT COUNT(*) FROM scrobbles`).Scan(&count)
	return count, err
}
