package store

const schemaDDL = `
CREATE TABLE IF NOT EXISTS codex_invocations (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  invoke_id TEXT NOT NULL,
  occurred_at TEXT NOT NULL,
  model TEXT,
  input_tokens INTEGER,
  output_tokens INTEGER,
  cache_input_tokens INTEGER,
  reasoning_tokens INTEGER,
  total_tokens INTEGER,
  cost REAL,
  status TEXT,
  error_message TEXT,
  payload TEXT,
  raw_response TEXT NOT NULL,
  created_at TEXT NOT NULL DEFAULT (datetime('now')),
  UNIQUE(invoke_id, occurred_at)
);
`

// migratedColumns lists every column added after the first schema version.
// A database created by an older build gains them via ALTER TABLE on open.
// Additive only: columns are never dropped or renamed.
var migratedColumns = []struct {
	name string
	typ  string
}{
	{"model", "TEXT"},
	{"input_tokens", "INTEGER"},
	{"output_tokens", "INTEGER"},
	{"cache_input_tokens", "INTEGER"},
	{"reasoning_tokens", "INTEGER"},
	{"total_tokens", "INTEGER"},
	{"cost", "REAL"},
	{"status", "TEXT"},
	{"error_message", "TEXT"},
	{"payload", "TEXT"},
}
