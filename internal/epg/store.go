package epg

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS programmes (
	channel_uid INTEGER NOT NULL,
	start_utc   INTEGER NOT NULL,
	end_utc     INTEGER NOT NULL,
	title       TEXT NOT NULL DEFAULT '',
	catchup_id  TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (channel_uid, start_utc)
);
`

// Store is a sqlite-backed programme guide. It satisfies Source.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the guide database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("epg: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("epg: init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Add upserts one programme.
func (s *Store) Add(e Entry) error {
	_, err := s.db.Exec(`INSERT INTO programmes (channel_uid, start_utc, end_utc, title, catchup_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (channel_uid, start_utc) DO UPDATE SET end_utc = excluded.end_utc, title = excluded.title, catchup_id = excluded.catchup_id`,
		e.ChannelID, e.Start.Unix(), e.End.Unix(), e.Title, e.CatchupID)
	if err != nil {
		return fmt.Errorf("epg: add programme: %w", err)
	}
	return nil
}

// EntryAt returns the programme starting exactly at start on the channel.
func (s *Store) EntryAt(channelID int, start time.Time) (Entry, bool) {
	row := s.db.QueryRow(`SELECT end_utc, title, catchup_id FROM programmes
		WHERE channel_uid = ? AND start_utc = ?`, channelID, start.Unix())
	var endUnix int64
	var title, catchupID string
	if err := row.Scan(&endUnix, &title, &catchupID); err != nil {
		return Entry{}, false
	}
	return Entry{
		ChannelID: channelID,
		Start:     start,
		End:       time.Unix(endUnix, 0).UTC(),
		Title:     title,
		CatchupID: catchupID,
	}, true
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
