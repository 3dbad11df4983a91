package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/castaway/internal/agents"
	"github.com/talgya/castaway/internal/engine"
	"github.com/talgya/castaway/internal/memory"
	"github.com/talgya/castaway/internal/ratings"
	"github.com/talgya/castaway/internal/relations"
	"github.com/talgya/castaway/internal/social"
	"github.com/talgya/castaway/internal/vote"
)

// SQLiteStore keeps each slot in normalized tables.
type SQLiteStore struct {
	conn *sqlx.DB
}

// OpenSQLite opens or creates a SQLite database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &SQLiteStore{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *SQLiteStore) Close() error {
	return db.conn.Close()
}

func (db *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS meta (
		slot TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (slot, key)
	);

	CREATE TABLE IF NOT EXISTS agents (
		slot TEXT NOT NULL,
		pos INTEGER NOT NULL,
		id TEXT NOT NULL,
		name TEXT NOT NULL,
		is_player INTEGER NOT NULL,
		archetype TEXT NOT NULL,
		trust REAL NOT NULL,
		suspicion REAL NOT NULL,
		closeness REAL NOT NULL,
		disposition_json TEXT NOT NULL,
		edit_bias REAL NOT NULL,
		eliminated INTEGER NOT NULL,
		eliminated_day INTEGER NOT NULL,
		PRIMARY KEY (slot, id)
	);

	CREATE TABLE IF NOT EXISTS relationships (
		slot TEXT NOT NULL,
		from_id TEXT NOT NULL,
		to_id TEXT NOT NULL,
		trust REAL NOT NULL,
		suspicion REAL NOT NULL,
		closeness REAL NOT NULL,
		last_updated INTEGER NOT NULL,
		last_reason TEXT NOT NULL,
		last_note TEXT NOT NULL,
		PRIMARY KEY (slot, from_id, to_id)
	);

	CREATE TABLE IF NOT EXISTS events (
		slot TEXT NOT NULL,
		seq INTEGER NOT NULL,
		day INTEGER NOT NULL,
		type TEXT NOT NULL,
		participants_json TEXT NOT NULL,
		content TEXT NOT NULL,
		impact REAL NOT NULL,
		reliability TEXT NOT NULL,
		importance REAL NOT NULL,
		PRIMARY KEY (slot, seq)
	);

	CREATE TABLE IF NOT EXISTS journals (
		slot TEXT NOT NULL,
		pos INTEGER NOT NULL,
		agent_id TEXT NOT NULL,
		body_json TEXT NOT NULL,
		PRIMARY KEY (slot, agent_id)
	);

	CREATE TABLE IF NOT EXISTS gossip (
		slot TEXT NOT NULL,
		id INTEGER NOT NULL,
		info TEXT NOT NULL,
		source TEXT NOT NULL,
		about TEXT NOT NULL,
		day INTEGER NOT NULL,
		spread_to_json TEXT NOT NULL,
		reliability TEXT NOT NULL,
		value REAL NOT NULL,
		PRIMARY KEY (slot, id)
	);

	CREATE TABLE IF NOT EXISTS alliances (
		slot TEXT NOT NULL,
		pos INTEGER NOT NULL,
		id TEXT NOT NULL,
		name TEXT NOT NULL,
		members_json TEXT NOT NULL,
		secret INTEGER NOT NULL,
		strength REAL NOT NULL,
		formed_day INTEGER NOT NULL,
		last_activity_day INTEGER NOT NULL,
		last_recomputed_day INTEGER NOT NULL,
		dissolved INTEGER NOT NULL,
		PRIMARY KEY (slot, id)
	);

	CREATE TABLE IF NOT EXISTS votes (
		slot TEXT NOT NULL,
		agent_id TEXT NOT NULL,
		target TEXT NOT NULL,
		reasoning TEXT NOT NULL,
		source TEXT NOT NULL,
		day INTEGER NOT NULL,
		PRIMARY KEY (slot, agent_id)
	);

	CREATE TABLE IF NOT EXISTS rating_history (
		slot TEXT NOT NULL,
		pos INTEGER NOT NULL,
		day INTEGER NOT NULL,
		rating REAL NOT NULL,
		reason TEXT NOT NULL,
		PRIMARY KEY (slot, pos)
	);

	CREATE INDEX IF NOT EXISTS idx_events_day ON events(slot, day);
	`
	_, err := db.conn.Exec(schema)
	return err
}

var slotTables = []string{"meta", "agents", "relationships", "events", "journals", "gossip", "alliances", "votes", "rating_history"}

type agentRow struct {
	Pos           int     `db:"pos"`
	ID            string  `db:"id"`
	Name          string  `db:"name"`
	IsPlayer      bool    `db:"is_player"`
	Archetype     string  `db:"archetype"`
	Trust         float64 `db:"trust"`
	Suspicion     float64 `db:"suspicion"`
	Closeness     float64 `db:"closeness"`
	Disposition   string  `db:"disposition_json"`
	EditBias      float64 `db:"edit_bias"`
	Eliminated    bool    `db:"eliminated"`
	EliminatedDay int     `db:"eliminated_day"`
}

type edgeRow struct {
	From        string  `db:"from_id"`
	To          string  `db:"to_id"`
	Trust       float64 `db:"trust"`
	Suspicion   float64 `db:"suspicion"`
	Closeness   float64 `db:"closeness"`
	LastUpdated int     `db:"last_updated"`
	LastReason  string  `db:"last_reason"`
	LastNote    string  `db:"last_note"`
}

type eventRow struct {
	Seq          int64   `db:"seq"`
	Day          int     `db:"day"`
	Type         string  `db:"type"`
	Participants string  `db:"participants_json"`
	Content      string  `db:"content"`
	Impact       float64 `db:"impact"`
	Reliability  string  `db:"reliability"`
	Importance   float64 `db:"importance"`
}

type journalRow struct {
	Pos   int    `db:"pos"`
	Agent string `db:"agent_id"`
	Body  string `db:"body_json"`
}

type gossipRow struct {
	ID          int     `db:"id"`
	Info        string  `db:"info"`
	Source      string  `db:"source"`
	About       string  `db:"about"`
	Day         int     `db:"day"`
	SpreadTo    string  `db:"spread_to_json"`
	Reliability string  `db:"reliability"`
	Value       float64 `db:"value"`
}

type allianceRow struct {
	Pos               int     `db:"pos"`
	ID                string  `db:"id"`
	Name              string  `db:"name"`
	Members           string  `db:"members_json"`
	Secret            bool    `db:"secret"`
	Strength          float64 `db:"strength"`
	FormedDay         int     `db:"formed_day"`
	LastActivityDay   int     `db:"last_activity_day"`
	LastRecomputedDay int     `db:"last_recomputed_day"`
	Dissolved         bool    `db:"dissolved"`
}

type voteRow struct {
	Agent     string `db:"agent_id"`
	Target    string `db:"target"`
	Reasoning string `db:"reasoning"`
	Source    string `db:"source"`
	Day       int    `db:"day"`
}

type ratingRow struct {
	Pos    int     `db:"pos"`
	Day    int     `db:"day"`
	Rating float64 `db:"rating"`
	Reason string  `db:"reason"`
}

// Save replaces everything stored in slot with snap in one transaction.
func (db *SQLiteStore) Save(ctx context.Context, slot string, snap *engine.Snapshot) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range slotTables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE slot = ?", slot); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	if err := saveMeta(ctx, tx, slot, snap); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	if err := saveAgents(ctx, tx, slot, snap.Agents); err != nil {
		return fmt.Errorf("save agents: %w", err)
	}
	if err := saveEdges(ctx, tx, slot, snap.Edges); err != nil {
		return fmt.Errorf("save relationships: %w", err)
	}
	if err := saveMemory(ctx, tx, slot, snap.Memory); err != nil {
		return fmt.Errorf("save memory: %w", err)
	}
	if err := saveAlliances(ctx, tx, slot, snap.Alliances); err != nil {
		return fmt.Errorf("save alliances: %w", err)
	}
	if err := saveVotes(ctx, tx, slot, snap.Plans); err != nil {
		return fmt.Errorf("save votes: %w", err)
	}
	if err := saveRatings(ctx, tx, slot, snap.Rating.History); err != nil {
		return fmt.Errorf("save rating history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("game saved", "slot", slot, "day", snap.Day, "events", len(snap.Memory.Events))
	return nil
}

func saveMeta(ctx context.Context, tx *sqlx.Tx, slot string, snap *engine.Snapshot) error {
	cfg, err := json.Marshal(snap.Config)
	if err != nil {
		return err
	}
	meta := map[string]string{
		"version":              strconv.Itoa(snap.Version),
		"config":               string(cfg),
		"day":                  strconv.Itoa(snap.Day),
		"rating":               strconv.FormatFloat(snap.Rating.Current, 'g', -1, 64),
		"immune":               string(snap.Immune),
		"last_elimination_day": strconv.Itoa(snap.LastEliminationDay),
		"game_over":            strconv.FormatBool(snap.GameOver),
		"winner":               string(snap.Winner),
		"next_seq":             strconv.FormatInt(snap.Memory.NextSeq, 10),
		"last_day":             strconv.Itoa(snap.Memory.LastDay),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, "INSERT INTO meta (slot, key, value) VALUES (?, ?, ?)", slot, k, v); err != nil {
			return err
		}
	}
	return nil
}

func saveAgents(ctx context.Context, tx *sqlx.Tx, slot string, list []agents.Agent) error {
	stmt, err := tx.PreparexContext(ctx, `INSERT INTO agents
		(slot, pos, id, name, is_player, archetype, trust, suspicion, closeness,
		 disposition_json, edit_bias, eliminated, eliminated_day)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, a := range list {
		disp, _ := json.Marshal(a.Profile.Disposition)
		_, err := stmt.ExecContext(ctx,
			slot, i, a.ID, a.Name, a.IsPlayer, a.Archetype,
			a.Profile.Trust, a.Profile.Suspicion, a.Profile.Closeness,
			string(disp), a.Profile.EditBias, a.Eliminated, a.EliminatedDay,
		)
		if err != nil {
			return fmt.Errorf("insert agent %s: %w", a.ID, err)
		}
	}
	return nil
}

func saveEdges(ctx context.Context, tx *sqlx.Tx, slot string, edges []relations.Edge) error {
	stmt, err := tx.PreparexContext(ctx, `INSERT INTO relationships
		(slot, from_id, to_id, trust, suspicion, closeness, last_updated, last_reason, last_note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range edges {
		if _, err := stmt.ExecContext(ctx, slot, e.From, e.To, e.Trust, e.Suspicion, e.Closeness,
			e.LastUpdated, e.LastReason, e.LastNote); err != nil {
			return fmt.Errorf("insert edge %s->%s: %w", e.From, e.To, err)
		}
	}
	return nil
}

func saveMemory(ctx context.Context, tx *sqlx.Tx, slot string, m memory.Snapshot) error {
	stmt, err := tx.PreparexContext(ctx, `INSERT INTO events
		(slot, seq, day, type, participants_json, content, impact, reliability, importance)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range m.Events {
		parts, _ := json.Marshal(e.Participants)
		if _, err := stmt.ExecContext(ctx, slot, e.Seq, e.Day, e.Type, string(parts), e.Content,
			e.Impact, e.Reliability, e.Importance); err != nil {
			return fmt.Errorf("insert event %d: %w", e.Seq, err)
		}
	}

	// Journal events are rebuilt from the event log on load.
	for i, j := range m.Journals {
		j.Events = nil
		body, err := json.Marshal(j)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO journals (slot, pos, agent_id, body_json) VALUES (?, ?, ?, ?)",
			slot, i, j.Agent, string(body)); err != nil {
			return fmt.Errorf("insert journal %s: %w", j.Agent, err)
		}
	}

	for _, g := range m.Gossip {
		spread, _ := json.Marshal(g.SpreadTo)
		if _, err := tx.ExecContext(ctx, `INSERT INTO gossip
			(slot, id, info, source, about, day, spread_to_json, reliability, value)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			slot, g.ID, g.Info, g.Source, g.About, g.Day, string(spread), g.Reliability, g.Value); err != nil {
			return fmt.Errorf("insert gossip %d: %w", g.ID, err)
		}
	}
	return nil
}

func saveAlliances(ctx context.Context, tx *sqlx.Tx, slot string, list []social.Alliance) error {
	for i, a := range list {
		members, _ := json.Marshal(a.Members)
		if _, err := tx.ExecContext(ctx, `INSERT INTO alliances
			(slot, pos, id, name, members_json, secret, strength, formed_day,
			 last_activity_day, last_recomputed_day, dissolved)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			slot, i, a.ID, a.Name, string(members), a.Secret, a.Strength, a.FormedDay,
			a.LastActivityDay, a.LastRecomputedDay, a.Dissolved); err != nil {
			return fmt.Errorf("insert alliance %s: %w", a.ID, err)
		}
	}
	return nil
}

func saveVotes(ctx context.Context, tx *sqlx.Tx, slot string, plans vote.Plans) error {
	for id, c := range plans {
		if _, err := tx.ExecContext(ctx, `INSERT INTO votes (slot, agent_id, target, reasoning, source, day)
			VALUES (?, ?, ?, ?, ?, ?)`, slot, id, c.Target, c.Reasoning, c.Source, c.Day); err != nil {
			return fmt.Errorf("insert vote plan %s: %w", id, err)
		}
	}
	return nil
}

func saveRatings(ctx context.Context, tx *sqlx.Tx, slot string, history []ratings.Entry) error {
	for i, h := range history {
		if _, err := tx.ExecContext(ctx, "INSERT INTO rating_history (slot, pos, day, rating, reason) VALUES (?, ?, ?, ?, ?)",
			slot, i, h.Day, h.Rating, h.Reason); err != nil {
			return err
		}
	}
	return nil
}

// metaDecoder parses meta values and keeps the first failure.
type metaDecoder struct {
	meta map[string]string
	err  error
}

func (d *metaDecoder) fail(key string, err error) {
	if err != nil && d.err == nil {
		d.err = fmt.Errorf("decode meta %q: %w", key, err)
	}
}

func (d *metaDecoder) int(key string) int {
	v, err := strconv.Atoi(d.meta[key])
	d.fail(key, err)
	return v
}

func (d *metaDecoder) int64(key string) int64 {
	v, err := strconv.ParseInt(d.meta[key], 10, 64)
	d.fail(key, err)
	return v
}

func (d *metaDecoder) bool(key string) bool {
	v, err := strconv.ParseBool(d.meta[key])
	d.fail(key, err)
	return v
}

func (d *metaDecoder) float(key string) float64 {
	v, err := strconv.ParseFloat(d.meta[key], 64)
	d.fail(key, err)
	return v
}

// Load reads the snapshot saved in slot.
func (db *SQLiteStore) Load(ctx context.Context, slot string) (*engine.Snapshot, error) {
	var metaRows []struct {
		Key   string `db:"key"`
		Value string `db:"value"`
	}
	if err := db.conn.SelectContext(ctx, &metaRows, "SELECT key, value FROM meta WHERE slot = ?", slot); err != nil {
		return nil, fmt.Errorf("load meta: %w", err)
	}
	if len(metaRows) == 0 {
		return nil, fmt.Errorf("slot %q: %w", slot, ErrNotFound)
	}
	meta := make(map[string]string, len(metaRows))
	for _, r := range metaRows {
		meta[r.Key] = r.Value
	}

	snap := &engine.Snapshot{
		Immune: agents.AgentID(meta["immune"]),
		Winner: agents.AgentID(meta["winner"]),
		Plans:  make(vote.Plans),
	}
	if err := json.Unmarshal([]byte(meta["config"]), &snap.Config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	d := metaDecoder{meta: meta}
	snap.Version = d.int("version")
	snap.Day = d.int("day")
	snap.LastEliminationDay = d.int("last_elimination_day")
	snap.GameOver = d.bool("game_over")
	snap.Rating.Current = d.float("rating")
	snap.Memory.NextSeq = d.int64("next_seq")
	snap.Memory.LastDay = d.int("last_day")
	if d.err != nil {
		return nil, d.err
	}

	if err := db.loadAgents(ctx, slot, snap); err != nil {
		return nil, fmt.Errorf("load agents: %w", err)
	}
	if err := db.loadEdges(ctx, slot, snap); err != nil {
		return nil, fmt.Errorf("load relationships: %w", err)
	}
	if err := db.loadMemory(ctx, slot, snap); err != nil {
		return nil, fmt.Errorf("load memory: %w", err)
	}
	if err := db.loadAlliances(ctx, slot, snap); err != nil {
		return nil, fmt.Errorf("load alliances: %w", err)
	}
	if err := db.loadVotes(ctx, slot, snap); err != nil {
		return nil, fmt.Errorf("load votes: %w", err)
	}

	var hist []ratingRow
	if err := db.conn.SelectContext(ctx, &hist, "SELECT pos, day, rating, reason FROM rating_history WHERE slot = ? ORDER BY pos", slot); err != nil {
		return nil, fmt.Errorf("load rating history: %w", err)
	}
	for _, h := range hist {
		snap.Rating.History = append(snap.Rating.History, ratings.Entry{Day: h.Day, Rating: h.Rating, Reason: h.Reason})
	}

	slog.Info("game loaded", "slot", slot, "day", snap.Day)
	return snap, nil
}

func (db *SQLiteStore) loadAgents(ctx context.Context, slot string, snap *engine.Snapshot) error {
	var rows []agentRow
	if err := db.conn.SelectContext(ctx, &rows, `SELECT pos, id, name, is_player, archetype, trust, suspicion,
		closeness, disposition_json, edit_bias, eliminated, eliminated_day
		FROM agents WHERE slot = ? ORDER BY pos`, slot); err != nil {
		return err
	}
	for _, r := range rows {
		a := agents.Agent{
			ID:            agents.AgentID(r.ID),
			Name:          r.Name,
			IsPlayer:      r.IsPlayer,
			Archetype:     r.Archetype,
			Eliminated:    r.Eliminated,
			EliminatedDay: r.EliminatedDay,
			Profile: agents.Profile{
				Trust:     r.Trust,
				Suspicion: r.Suspicion,
				Closeness: r.Closeness,
				EditBias:  r.EditBias,
			},
		}
		if err := json.Unmarshal([]byte(r.Disposition), &a.Profile.Disposition); err != nil {
			return fmt.Errorf("agent %s disposition: %w", r.ID, err)
		}
		snap.Agents = append(snap.Agents, a)
	}
	return nil
}

func (db *SQLiteStore) loadEdges(ctx context.Context, slot string, snap *engine.Snapshot) error {
	var rows []edgeRow
	if err := db.conn.SelectContext(ctx, &rows, `SELECT from_id, to_id, trust, suspicion, closeness,
		last_updated, last_reason, last_note
		FROM relationships WHERE slot = ? ORDER BY from_id, to_id`, slot); err != nil {
		return err
	}
	for _, r := range rows {
		snap.Edges = append(snap.Edges, relations.Edge{
			From:        agents.AgentID(r.From),
			To:          agents.AgentID(r.To),
			Trust:       r.Trust,
			Suspicion:   r.Suspicion,
			Closeness:   r.Closeness,
			LastUpdated: r.LastUpdated,
			LastReason:  r.LastReason,
			LastNote:    r.LastNote,
		})
	}
	return nil
}

func (db *SQLiteStore) loadMemory(ctx context.Context, slot string, snap *engine.Snapshot) error {
	var events []eventRow
	if err := db.conn.SelectContext(ctx, &events, `SELECT seq, day, type, participants_json, content,
		impact, reliability, importance
		FROM events WHERE slot = ? ORDER BY seq`, slot); err != nil {
		return err
	}
	for _, r := range events {
		e := memory.Event{
			Seq:         r.Seq,
			Day:         r.Day,
			Type:        memory.EventType(r.Type),
			Content:     r.Content,
			Impact:      r.Impact,
			Reliability: memory.Reliability(r.Reliability),
			Importance:  r.Importance,
		}
		if err := json.Unmarshal([]byte(r.Participants), &e.Participants); err != nil {
			return fmt.Errorf("event %d participants: %w", r.Seq, err)
		}
		snap.Memory.Events = append(snap.Memory.Events, e)
	}

	var journals []journalRow
	if err := db.conn.SelectContext(ctx, &journals, "SELECT pos, agent_id, body_json FROM journals WHERE slot = ? ORDER BY pos", slot); err != nil {
		return err
	}
	for _, r := range journals {
		var j memory.Journal
		if err := json.Unmarshal([]byte(r.Body), &j); err != nil {
			return fmt.Errorf("journal %s: %w", r.Agent, err)
		}
		for _, e := range snap.Memory.Events {
			if e.Involves(j.Agent) {
				j.Events = append(j.Events, e)
			}
		}
		snap.Memory.Journals = append(snap.Memory.Journals, j)
	}

	var gossip []gossipRow
	if err := db.conn.SelectContext(ctx, &gossip, `SELECT id, info, source, about, day, spread_to_json,
		reliability, value
		FROM gossip WHERE slot = ? ORDER BY id`, slot); err != nil {
		return err
	}
	for _, r := range gossip {
		g := memory.Gossip{
			ID:          r.ID,
			Info:        r.Info,
			Source:      agents.AgentID(r.Source),
			About:       agents.AgentID(r.About),
			Day:         r.Day,
			Reliability: memory.Reliability(r.Reliability),
			Value:       r.Value,
		}
		if err := json.Unmarshal([]byte(r.SpreadTo), &g.SpreadTo); err != nil {
			return fmt.Errorf("gossip %d spread: %w", r.ID, err)
		}
		snap.Memory.Gossip = append(snap.Memory.Gossip, g)
	}
	return nil
}

func (db *SQLiteStore) loadAlliances(ctx context.Context, slot string, snap *engine.Snapshot) error {
	var rows []allianceRow
	if err := db.conn.SelectContext(ctx, &rows, `SELECT pos, id, name, members_json, secret, strength,
		formed_day, last_activity_day, last_recomputed_day, dissolved
		FROM alliances WHERE slot = ? ORDER BY pos`, slot); err != nil {
		return err
	}
	for _, r := range rows {
		a := social.Alliance{
			ID:                r.ID,
			Name:              r.Name,
			Secret:            r.Secret,
			Strength:          r.Strength,
			FormedDay:         r.FormedDay,
			LastActivityDay:   r.LastActivityDay,
			LastRecomputedDay: r.LastRecomputedDay,
			Dissolved:         r.Dissolved,
		}
		if err := json.Unmarshal([]byte(r.Members), &a.Members); err != nil {
			return fmt.Errorf("alliance %s members: %w", r.ID, err)
		}
		snap.Alliances = append(snap.Alliances, a)
	}
	return nil
}

func (db *SQLiteStore) loadVotes(ctx context.Context, slot string, snap *engine.Snapshot) error {
	var rows []voteRow
	if err := db.conn.SelectContext(ctx, &rows, "SELECT agent_id, target, reasoning, source, day FROM votes WHERE slot = ?", slot); err != nil {
		return err
	}
	for _, r := range rows {
		id := agents.AgentID(r.Agent)
		snap.Plans[id] = vote.Claim{
			Agent:     id,
			Target:    agents.AgentID(r.Target),
			Reasoning: r.Reasoning,
			Source:    r.Source,
			Day:       r.Day,
		}
	}
	return nil
}

// Slots lists saved slots.
func (db *SQLiteStore) Slots(ctx context.Context) ([]string, error) {
	var slots []string
	err := db.conn.SelectContext(ctx, &slots, "SELECT DISTINCT slot FROM meta ORDER BY slot")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return slots, err
}
