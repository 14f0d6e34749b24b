package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshots (
	user_id  TEXT PRIMARY KEY,
	saved_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS cached_tasks (
	user_id    TEXT NOT NULL,
	id         TEXT NOT NULL,
	parent_id  TEXT,
	position   INTEGER NOT NULL,
	status     TEXT NOT NULL,
	department TEXT NOT NULL DEFAULT '',
	deadline   TEXT NOT NULL,
	payload    TEXT NOT NULL,
	PRIMARY KEY (user_id, id)
);

CREATE TABLE IF NOT EXISTS cached_notifications (
	user_id    TEXT NOT NULL,
	id         TEXT NOT NULL,
	type       TEXT NOT NULL,
	read       INTEGER NOT NULL DEFAULT 0 CHECK(read IN (0, 1)),
	position   INTEGER NOT NULL,
	payload    TEXT NOT NULL,
	PRIMARY KEY (user_id, id)
);

CREATE INDEX IF NOT EXISTS idx_cached_tasks_user_position ON cached_tasks(user_id, position);
CREATE INDEX IF NOT EXISTS idx_cached_notifications_user_position ON cached_notifications(user_id, position);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS reminders (
	id            TEXT PRIMARY KEY,
	task_id       TEXT NOT NULL,
	kind          TEXT NOT NULL,
	deadline_date TEXT NOT NULL,
	sent_at       TEXT NOT NULL,
	UNIQUE(task_id, kind, deadline_date)
);

CREATE INDEX IF NOT EXISTS idx_reminders_task_id ON reminders(task_id);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
