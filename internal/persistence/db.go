// Package persistence provides SQLite-based world state storage. Only the
// latest snapshot is kept; every save is a full replace.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/WestonVincze/utility-ai/internal/agents"
	"github.com/WestonVincze/utility-ai/internal/engine"
	"github.com/WestonVincze/utility-ai/internal/utility"
	"github.com/WestonVincze/utility-ai/internal/world"
)

// Metadata keys.
const (
	MetaLastTick   = "last_tick"
	MetaSnapshotID = "snapshot_id"
	MetaSavedAt    = "saved_at"
	MetaSeed       = "seed"
)

// ErrNoMeta is returned by GetMeta for a key that was never saved.
var ErrNoMeta = errors.New("metadata key not found")

// DB wraps a SQLite connection for world state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS agents (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		alive INTEGER NOT NULL,
		current_action TEXT NOT NULL DEFAULT '',
		pos_q INTEGER NOT NULL,
		pos_r INTEGER NOT NULL,
		health REAL NOT NULL,
		born_tick INTEGER NOT NULL,
		context_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS hex_stock (
		q INTEGER NOT NULL,
		r INTEGER NOT NULL,
		food REAL NOT NULL,
		water REAL NOT NULL,
		shelter REAL NOT NULL,
		PRIMARY KEY (q, r)
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_agents_alive ON agents(alive);
	`
	_, err := db.conn.Exec(schema)
	return err
}

type agentRow struct {
	ID            uint64  `db:"id"`
	Name          string  `db:"name"`
	Alive         bool    `db:"alive"`
	CurrentAction string  `db:"current_action"`
	Q             int     `db:"pos_q"`
	R             int     `db:"pos_r"`
	Health        float64 `db:"health"`
	BornTick      uint64  `db:"born_tick"`
	ContextJSON   string  `db:"context_json"`
}

type stockRow struct {
	Q       int     `db:"q"`
	R       int     `db:"r"`
	Food    float64 `db:"food"`
	Water   float64 `db:"water"`
	Shelter float64 `db:"shelter"`
}

// saveAgents writes all agents inside tx (full replace).
func saveAgents(tx *sqlx.Tx, agentList []agents.Agent) error {
	if _, err := tx.Exec("DELETE FROM agents"); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO agents
		(id, name, alive, current_action, pos_q, pos_r, health, born_tick, context_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range agentList {
		ctxJSON, err := json.Marshal(a.Context)
		if err != nil {
			return fmt.Errorf("encode context of agent %d: %w", a.ID, err)
		}

		alive := 0
		if a.Alive {
			alive = 1
		}

		_, err = stmt.Exec(
			uint64(a.ID), a.Name, alive, string(a.CurrentAction),
			a.Position.Q, a.Position.R, a.Health, a.BornTick,
			string(ctxJSON),
		)
		if err != nil {
			return fmt.Errorf("insert agent %d: %w", a.ID, err)
		}
	}
	return nil
}

// saveStocks writes per-hex resource levels inside tx (full replace).
func saveStocks(tx *sqlx.Tx, stocks map[world.HexCoord]world.Stock) error {
	if _, err := tx.Exec("DELETE FROM hex_stock"); err != nil {
		return err
	}
	for c, s := range stocks {
		_, err := tx.Exec("INSERT INTO hex_stock (q, r, food, water, shelter) VALUES (?, ?, ?, ?, ?)",
			c.Q, c.R, s[world.ResourceFood], s[world.ResourceWater], s[world.ResourceShelter])
		if err != nil {
			return fmt.Errorf("insert hex %s: %w", c, err)
		}
	}
	return nil
}

func saveMeta(ex sqlx.Execer, key, value string) error {
	_, err := ex.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	return saveMeta(db.conn, key, value)
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrNoMeta, key)
	}
	return value, err
}

// SaveWorldState performs a full save of a snapshot in one transaction and
// returns the snapshot's ID.
func (db *DB) SaveWorldState(snap engine.Snapshot) (string, error) {
	id := uuid.NewString()
	slog.Info("saving world state", "snapshot", id, "tick", snap.Tick, "agents", len(snap.Agents), "hexes", len(snap.Stocks))

	tx, err := db.conn.Beginx()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if err := saveAgents(tx, snap.Agents); err != nil {
		return "", fmt.Errorf("save agents: %w", err)
	}
	if err := saveStocks(tx, snap.Stocks); err != nil {
		return "", fmt.Errorf("save stocks: %w", err)
	}
	for key, value := range map[string]string{
		MetaLastTick:   strconv.FormatUint(snap.Tick, 10),
		MetaSnapshotID: id,
		MetaSavedAt:    time.Now().UTC().Format(time.RFC3339),
	} {
		if err := saveMeta(tx, key, value); err != nil {
			return "", fmt.Errorf("save meta: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}

	slog.Info("world state saved", "snapshot", id)
	return id, nil
}

// HasWorldState reports whether a snapshot has been saved.
func (db *DB) HasWorldState() bool {
	_, err := db.GetMeta(MetaSnapshotID)
	return err == nil
}

// LastTick returns the tick of the saved snapshot.
func (db *DB) LastTick() (uint64, error) {
	v, err := db.GetMeta(MetaLastTick)
	if err != nil {
		return 0, err
	}
	tick, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", MetaLastTick, err)
	}
	return tick, nil
}

// LoadAgents reads every saved agent, ordered by ID.
func (db *DB) LoadAgents() ([]*agents.Agent, error) {
	var rows []agentRow
	if err := db.conn.Select(&rows, "SELECT * FROM agents ORDER BY id"); err != nil {
		return nil, fmt.Errorf("load agents: %w", err)
	}

	out := make([]*agents.Agent, 0, len(rows))
	for _, row := range rows {
		var ctx utility.Context
		if err := json.Unmarshal([]byte(row.ContextJSON), &ctx); err != nil {
			return nil, fmt.Errorf("decode context of agent %d: %w", row.ID, err)
		}
		if ctx == nil {
			ctx = utility.Context{}
		}
		out = append(out, &agents.Agent{
			ID:            agents.AgentID(row.ID),
			Name:          row.Name,
			Position:      world.HexCoord{Q: row.Q, R: row.R},
			Context:       ctx,
			CurrentAction: utility.ActionName(row.CurrentAction),
			Health:        row.Health,
			BornTick:      row.BornTick,
			Alive:         row.Alive,
		})
	}
	return out, nil
}

// LoadStocks restores saved resource levels onto m. Hexes m doesn't have are
// ignored.
func (db *DB) LoadStocks(m *world.Map) error {
	var rows []stockRow
	if err := db.conn.Select(&rows, "SELECT q, r, food, water, shelter FROM hex_stock"); err != nil {
		return fmt.Errorf("load stocks: %w", err)
	}
	for _, row := range rows {
		h := m.Get(world.HexCoord{Q: row.Q, R: row.R})
		if h == nil {
			continue
		}
		h.Resources[world.ResourceFood] = row.Food
		h.Resources[world.ResourceWater] = row.Water
		h.Resources[world.ResourceShelter] = row.Shelter
	}
	return nil
}
