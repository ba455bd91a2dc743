package output

import (
	"context"
	"database/sql"
	"encoding/binary"
	"math"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/norasector/nexus/pkg/nexus/types"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at    INTEGER NOT NULL,
	device        TEXT NOT NULL,
	serial_number TEXT NOT NULL,
	search_mode   TEXT NOT NULL,
	rate          INTEGER NOT NULL,
	columns       TEXT NOT NULL,
	units         TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS frames (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id INTEGER NOT NULL REFERENCES sessions(id),
	number     INTEGER NOT NULL,
	first_ts   INTEGER NOT NULL,
	last_ts    INTEGER NOT NULL,
	rows       INTEGER NOT NULL,
	channels   INTEGER NOT NULL,
	data       BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS frames_session_ts ON frames(session_id, first_ts);
`

// SQLiteOutput stores every filtered frame in an SQLite database, one session per run.
type SQLiteOutput struct {
	path      string
	recvChan  chan *types.Frame
	sessionID int64
	logger    zerolog.Logger
}

func NewSQLiteOutput(path string) *SQLiteOutput {
	return &SQLiteOutput{
		path:     path,
		recvChan: make(chan *types.Frame, receiveChannels),
		logger:   log.Logger,
	}
}

func (s *SQLiteOutput) Receive() chan<- *types.Frame {
	return s.recvChan
}

// EncodeSamples packs a matrix row major as little endian float32.
func EncodeSamples(f *types.Frame) []byte {
	rows, cols := f.Data.Dims()
	ret := make([]byte, rows*cols*4)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			binary.LittleEndian.PutUint32(ret[(i*cols+j)*4:], math.Float32bits(float32(f.Data.At(i, j))))
		}
	}
	return ret
}

func (s *SQLiteOutput) startSession(ctx context.Context, db *sql.DB, frame *types.Frame) error {
	device, serial := "", ""
	if frame.Device != nil {
		device, serial = frame.Device.Name, frame.Device.SerialNumber
	}
	units := make([]string, len(frame.Columns))
	for i, col := range frame.Columns {
		units[i] = frame.Meta.Units[col]
	}

	res, err := db.ExecContext(ctx,
		`INSERT INTO sessions (started_at, device, serial_number, search_mode, rate, columns, units) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UnixNano(), device, serial, frame.Meta.SearchMode, frame.Meta.Rate,
		strings.Join(frame.Columns, ","), strings.Join(units, ","))
	if err != nil {
		return err
	}
	s.sessionID, err = res.LastInsertId()
	if err != nil {
		return err
	}
	s.logger.Info().Int64("session", s.sessionID).Str("path", s.path).Msg("sqlite session started")
	return nil
}

func (s *SQLiteOutput) insert(ctx context.Context, db *sql.DB, frame *types.Frame) error {
	rows := frame.Rows()
	if rows == 0 {
		return nil
	}
	if s.sessionID == 0 {
		if err := s.startSession(ctx, db, frame); err != nil {
			return err
		}
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO frames (session_id, number, first_ts, last_ts, rows, channels, data) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.sessionID, frame.Number, frame.Index[0].UnixNano(), frame.Index[rows-1].UnixNano(),
		rows, len(frame.Columns), EncodeSamples(frame))
	return err
}

func (s *SQLiteOutput) Start(ctx context.Context) error {
	db, err := sql.Open("sqlite3", s.path)
	if err != nil {
		return err
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame := <-s.recvChan:
			if err := s.insert(ctx, db, frame); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.logger.Error().Err(err).Int("frame", frame.Number).Msg("error storing frame")
			}
		}
	}
}
