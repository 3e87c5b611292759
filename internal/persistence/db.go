// Package persistence provides SQLite storage for generated family trees.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/kinforge/internal/kin"
	"github.com/talgya/kinforge/internal/option"
)

// ErrNoFamily is returned for an unknown family id.
var ErrNoFamily = errors.New("no such family")

// DB wraps a SQLite connection for family tree storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
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
	CREATE TABLE IF NOT EXISTS families (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		template TEXT NOT NULL,
		subject_id INTEGER NOT NULL,
		size INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS characters (
		family_id TEXT NOT NULL,
		id INTEGER NOT NULL,
		parent_id INTEGER,
		relationship TEXT NOT NULL,
		title TEXT NOT NULL,
		first_name TEXT NOT NULL,
		surname TEXT NOT NULL,
		birth_name TEXT NOT NULL,
		suffix TEXT NOT NULL,
		age_years INTEGER,
		age_months INTEGER,
		gender TEXT NOT NULL,
		orientation TEXT NOT NULL,
		races_json TEXT NOT NULL,
		traits_json TEXT NOT NULL,
		PRIMARY KEY (family_id, id)
	);

	CREATE TABLE IF NOT EXISTS links (
		family_id TEXT NOT NULL,
		from_id INTEGER NOT NULL,
		to_id INTEGER NOT NULL,
		relationship TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_links_family ON links(family_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Family is one saved run.
type Family struct {
	ID        string `db:"id" json:"id"`
	Seed      int64  `db:"seed" json:"seed"`
	Template  string `db:"template" json:"template"`
	SubjectID int    `db:"subject_id" json:"subject"`
	Size      int    `db:"size" json:"size"`
	CreatedAt string `db:"created_at" json:"created_at"`
}

// Character is the flat row of one saved character.
type Character struct {
	FamilyID     string        `db:"family_id"`
	ID           int           `db:"id"`
	ParentID     sql.NullInt64 `db:"parent_id"`
	Relationship string        `db:"relationship"`
	Title        string        `db:"title"`
	First        string        `db:"first_name"`
	Surname      string        `db:"surname"`
	BirthName    string        `db:"birth_name"`
	Suffix       string        `db:"suffix"`
	AgeYears     sql.NullInt64 `db:"age_years"`
	AgeMonths    sql.NullInt64 `db:"age_months"`
	Gender       string        `db:"gender"`
	Orientation  string        `db:"orientation"`
	RacesJSON    string        `db:"races_json"`
	TraitsJSON   string        `db:"traits_json"`
}

// Name rebuilds the character's name.
func (c Character) Name() kin.Name {
	return kin.Name{Title: c.Title, First: c.First, Surname: c.Surname, BirthName: c.BirthName, Suffix: c.Suffix}
}

// Races decodes the stored race list.
func (c Character) Races() []string { return decodeList(c.RacesJSON) }

// Traits decodes the stored trait paths.
func (c Character) Traits() []string { return decodeList(c.TraitsJSON) }

func decodeList(s string) []string {
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}

// Link is a saved extra relationship: To is From's Relationship.
type Link struct {
	FamilyID     string `db:"family_id"`
	From         int    `db:"from_id"`
	To           int    `db:"to_id"`
	Relationship string `db:"relationship"`
}

// Meta describes the run that produced a graph.
type Meta struct {
	Seed     int64
	Template string
	Subject  kin.ID
}

// SaveFamily writes a graph under id, replacing anything stored there. An empty id
// allocates a new one, which is returned.
func (db *DB) SaveFamily(id string, g *kin.Graph, meta Meta) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}
	chars := g.Characters()
	slog.Info("saving family", "family", id, "characters", len(chars))

	tx, err := db.conn.Beginx()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	for _, table := range []string{"characters", "links"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE family_id = ?", id); err != nil {
			return "", fmt.Errorf("clear %s: %w", table, err)
		}
	}
	_, err = tx.Exec(`INSERT OR REPLACE INTO families
		(id, seed, template, subject_id, size, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, meta.Seed, meta.Template, int(meta.Subject), len(chars), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("insert family: %w", err)
	}

	stmt, err := tx.Preparex(`INSERT INTO characters
		(family_id, id, parent_id, relationship, title, first_name, surname, birth_name, suffix,
		 age_years, age_months, gender, orientation, races_json, traits_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	cat := g.Catalog()
	for _, c := range chars {
		row := characterRow(id, c, cat.Path)
		_, err := stmt.Exec(
			row.FamilyID, row.ID, row.ParentID, row.Relationship,
			row.Title, row.First, row.Surname, row.BirthName, row.Suffix,
			row.AgeYears, row.AgeMonths, row.Gender, row.Orientation,
			row.RacesJSON, row.TraitsJSON,
		)
		if err != nil {
			return "", fmt.Errorf("insert character %d: %w", c.ID, err)
		}
	}

	for _, l := range g.Links() {
		_, err := tx.Exec(
			"INSERT INTO links (family_id, from_id, to_id, relationship) VALUES (?, ?, ?, ?)",
			id, int(l.From), int(l.To), cat.Path(l.Relationship),
		)
		if err != nil {
			return "", fmt.Errorf("insert link %d-%d: %w", l.From, l.To, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

func characterRow(familyID string, c *kin.Character, path func(option.NodeID) string) Character {
	row := Character{
		FamilyID:  familyID,
		ID:        int(c.ID),
		Title:     c.Name.Title,
		First:     c.Name.First,
		Surname:   c.Name.Surname,
		BirthName: c.Name.BirthName,
		Suffix:    c.Name.Suffix,
	}
	if p := c.Parent(); p != kin.NoID {
		row.ParentID = sql.NullInt64{Int64: int64(p), Valid: true}
	}
	if c.Relationship != option.None {
		row.Relationship = path(c.Relationship)
	}
	if years, ok := c.Age(); ok {
		row.AgeYears = sql.NullInt64{Int64: int64(years), Valid: true}
		row.AgeMonths = sql.NullInt64{Int64: int64(c.AgeMonths), Valid: true}
	}
	if gi, ok := c.Gender(); ok {
		row.Gender = gi.Name
	}
	if _, oid := c.Orientation(); oid != option.None {
		row.Orientation = c.Options.Node(oid).Name
	}
	row.RacesJSON = encodeList(c.Races())
	row.TraitsJSON = encodeList(c.Traits())
	return row
}

func encodeList(items []string) string {
	if items == nil {
		items = []string{}
	}
	b, _ := json.Marshal(items)
	return string(b)
}

// Families returns every saved run, newest first.
func (db *DB) Families() ([]Family, error) {
	var out []Family
	err := db.conn.Select(&out, "SELECT id, seed, template, subject_id, size, created_at FROM families ORDER BY created_at DESC, id")
	return out, err
}

// Family returns one saved run.
func (db *DB) Family(id string) (Family, error) {
	var f Family
	err := db.conn.Get(&f, "SELECT id, seed, template, subject_id, size, created_at FROM families WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return Family{}, fmt.Errorf("family %s: %w", id, ErrNoFamily)
	}
	return f, err
}

// Characters returns the saved characters of a family in id order.
func (db *DB) Characters(familyID string) ([]Character, error) {
	var out []Character
	err := db.conn.Select(&out, "SELECT * FROM characters WHERE family_id = ? ORDER BY id", familyID)
	return out, err
}

// Links returns the saved extra relationships of a family.
func (db *DB) Links(familyID string) ([]Link, error) {
	var out []Link
	err := db.conn.Select(&out, "SELECT * FROM links WHERE family_id = ? ORDER BY rowid", familyID)
	return out, err
}
