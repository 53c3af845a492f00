// Package sqlitestore is a server-side credential store behind the same
// resolve/persist/clear seam as the default cookie store. Credentials live
// in a sqlite table keyed by an opaque profile ID, and only that ID is
// carried in the browser cookie. Intended for deployments that do not want
// tokens stored client-side; the cookie store remains the default.
package sqlitestore

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"net/http"
	"time"

	_ "modernc.org/sqlite" // sqlite driver

	"lorechronicle/creds"
)

const (
	profileCookie = "lore_profile"
	cookieTTL     = 30 * 24 * time.Hour
)

// Store implements creds.Store over a sqlite database.
type Store struct {
	db       *sql.DB
	fallback creds.Fallback
	secure   bool
}

// New opens (and if needed initializes) the profile database at path.
func New(path string, fallback creds.Fallback, secure bool) (*Store, error) {
	db, err := initDatabase(path)
	if err != nil {
		return nil, err
	}

	return &Store{db: db, fallback: fallback, secure: secure}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Resolve looks up the request's profile row; a missing profile or missing
// row falls back to the injected process-wide configuration.
func (s *Store) Resolve(service string, r *http.Request) (creds.ServiceCredentials, error) {
	fb := s.fallback.ForService(service)

	profile := profileID(r)
	if profile == "" {
		return fb, nil
	}

	const q = `SELECT url, token FROM credentials WHERE profile_id = ? AND service = ?`

	var ans creds.ServiceCredentials

	err := s.db.QueryRowContext(r.Context(), q, profile, service).Scan(&ans.URL, &ans.Token)
	if err == sql.ErrNoRows {
		return fb, nil
	}

	if err != nil {
		return creds.ServiceCredentials{}, err
	}

	if ans.URL == "" {
		ans.URL = fb.URL
	}

	if ans.Token == "" {
		ans.Token = fb.Token
	}

	return ans, nil
}

// Persist upserts the service row under the request's profile, minting a
// profile ID (and its cookie) on first use.
func (s *Store) Persist(service, url, token string, r *http.Request, w http.ResponseWriter) error {
	profile := profileID(r)
	if profile == "" {
		profile = newProfileID()
		s.setProfileCookie(w, profile)
	}

	const q = `INSERT INTO credentials (profile_id, service, url, token, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (profile_id, service) DO UPDATE SET url = excluded.url, token = excluded.token, updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(r.Context(), q, profile, service, url, token, time.Now().UTC())

	return err
}

// Clear deletes the profile's row(s). Clearing an absent row is a no-op.
func (s *Store) Clear(service string, r *http.Request, w http.ResponseWriter) error {
	profile := profileID(r)
	if profile == "" {
		return nil
	}

	if service == creds.ServiceAll {
		const q = `DELETE FROM credentials WHERE profile_id = ?`

		_, err := s.db.ExecContext(r.Context(), q, profile)

		return err
	}

	const q = `DELETE FROM credentials WHERE profile_id = ? AND service = ?`

	_, err := s.db.ExecContext(r.Context(), q, profile, service)

	return err
}

func (s *Store) setProfileCookie(w http.ResponseWriter, profile string) {
	http.SetCookie(w, &http.Cookie{
		Name:     profileCookie,
		Value:    profile,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.secure,
		MaxAge:   int(cookieTTL.Seconds()),
	})
}

func profileID(r *http.Request) string {
	if c, err := r.Cookie(profileCookie); err == nil {
		return c.Value
	}

	return ""
}

func newProfileID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)

	return hex.EncodeToString(buf)
}

func initDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, err
		}
	}

	const schema = `CREATE TABLE IF NOT EXISTS credentials (
		profile_id TEXT NOT NULL,
		service TEXT NOT NULL,
		url TEXT NOT NULL,
		token TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (profile_id, service)
	)`

	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}

	return db, nil
}
