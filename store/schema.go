package store

// schemaSQL is the base schema, applied on every open. DDL is idempotent;
// structural changes go through migrations.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS processed_documents (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	filename       TEXT NOT NULL,
	processed_path TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL,
	name           TEXT,
	dob            TEXT,
	age            INTEGER,
	error          TEXT NOT NULL DEFAULT '',
	created_at     DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_processed_documents_created
	ON processed_documents(created_at);
`
