package storage

import (
	"database/sql"
	"time"

	"github.com/emberwiki/emberwiki/wiki"
	"github.com/pkg/errors"
)

const reportColumns = `id, reporter_id, target_type, target_id, reason, detail, status, resolved_by, resolved_at, created`

func (db *sqliteDb) InsertReport(report *wiki.Report) error {
	result, err := db.conn.Exec(`
		INSERT INTO Report (reporter_id, target_type, target_id, reason, detail, status, created)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		report.ReporterID,
		string(report.TargetType),
		report.TargetID,
		string(report.Reason),
		report.Detail,
		string(report.Status),
		report.Created,
	)
	if err != nil {
		return errors.Wrap(err, "insert report")
	}

	report.ID, err = result.LastInsertId()
	return errors.Wrap(err, "report insert id")
}

func (db *sqliteDb) SelectReport(id int64) (*wiki.Report, error) {
	report := &wiki.Report{}
	err := db.conn.Get(report, `SELECT `+reportColumns+` FROM Report WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, wiki.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (db *sqliteDb) SelectOpenReports() ([]*wiki.Report, error) {
	reports := []*wiki.Report{}
	err := db.conn.Select(&reports,
		`SELECT `+reportColumns+` FROM Report WHERE status = ? ORDER BY created ASC, id ASC`,
		string(wiki.ReportOpen),
	)
	if err != nil {
		return nil, errors.Wrap(err, "select open reports")
	}
	return reports, nil
}

func (db *sqliteDb) ResolveReport(id int64, status wiki.ReportStatus, resolvedBy string, resolvedAt time.Time, detail string) error {
	result, err := db.conn.Exec(`
		UPDATE Report
		SET status = ?, resolved_by = ?, resolved_at = ?,
		    detail = CASE WHEN ? = '' THEN detail ELSE detail || char(10) || ? END
		WHERE id = ? AND status = ?`,
		string(status),
		resolvedBy,
		resolvedAt,
		detail,
		detail,
		id,
		string(wiki.ReportOpen),
	)
	if err != nil {
		return errors.Wrap(err, "resolve report")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "resolve report rows affected")
	}
	if affected == 0 {
		return wiki.ErrNotFound
	}
	return nil
}
