package storage

import (
	"database/sql"
	"time"

	"github.com/emberwiki/emberwiki/wiki"
	"github.com/pkg/errors"
)

func (db *sqliteDb) SelectProfile(actorID string) (*wiki.Profile, error) {
	profile := &wiki.Profile{}
	err := db.SelectProfileStmt.Get(profile, actorID)
	if err == sql.ErrNoRows {
		return nil, wiki.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (db *sqliteDb) SelectProfileByEmail(email string) (*wiki.Profile, error) {
	profile := &wiki.Profile{}
	err := db.conn.Get(profile,
		`SELECT `+profileColumns+` FROM Profile WHERE email = ?`, email)
	if err == sql.ErrNoRows {
		return nil, wiki.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (db *sqliteDb) SelectProfileByUsername(username string) (*wiki.Profile, error) {
	profile := &wiki.Profile{}
	err := db.conn.Get(profile,
		`SELECT `+profileColumns+` FROM Profile WHERE username = ?`, username)
	if err == sql.ErrNoRows {
		return nil, wiki.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (db *sqliteDb) InsertProfile(profile *wiki.Profile) error {
	// Empty emails become NULL so the UNIQUE constraint on email only
	// binds profiles that actually have one.
	_, err := db.conn.Exec(`
		INSERT INTO Profile (actor_id, username, email, password_hash, trust_score, role, created)
		VALUES (?, ?, NULLIF(?, ''), ?, ?, ?, ?)`,
		profile.ActorID,
		profile.Username,
		profile.Email,
		profile.PasswordHash,
		profile.TrustScore,
		profile.Role,
		time.Now().UTC(),
	)
	if err != nil {
		if isUniqueViolation(err, "Profile.username") {
			return wiki.ErrUsernameTaken
		}
		if isUniqueViolation(err, "Profile.email") {
			return wiki.ErrEmailTaken
		}
		return errors.Wrap(err, "insert profile")
	}
	return nil
}

func (db *sqliteDb) UpdateProfileRole(actorID string, role string) error {
	return db.updateProfileField(`UPDATE Profile SET role = ? WHERE actor_id = ?`, role, actorID)
}

func (db *sqliteDb) UpdateProfileTrust(actorID string, trustScore int) error {
	return db.updateProfileField(`UPDATE Profile SET trust_score = ? WHERE actor_id = ?`, trustScore, actorID)
}

func (db *sqliteDb) updateProfileField(query string, value any, actorID string) error {
	result, err := db.conn.Exec(query, value, actorID)
	if err != nil {
		return errors.Wrap(err, "update profile")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "update profile rows affected")
	}
	if affected == 0 {
		return wiki.ErrNotFound
	}
	return nil
}
