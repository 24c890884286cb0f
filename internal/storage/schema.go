package storage

// DocumentSchema is the SQL schema for the workspace database.
const DocumentSchema = `
CREATE TABLE IF NOT EXISTS documents (
    id          TEXT PRIMARY KEY,
    body        TEXT NOT NULL,
    updated_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revisions (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    body        BLOB NOT NULL,
    size        INTEGER NOT NULL,
    created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS topic_index (
    topic_id    TEXT PRIMARY KEY,
    project_id  TEXT NOT NULL,
    section_id  TEXT NOT NULL,
    name        TEXT NOT NULL,
    content     TEXT NOT NULL
);

CREATE VIRTUAL TABLE IF NOT EXISTS topics_fts USING fts5(
    name,
    content,
    content='topic_index',
    content_rowid='rowid'
);

CREATE INDEX IF NOT EXISTS idx_revisions_document ON revisions(document_id, id);
CREATE INDEX IF NOT EXISTS idx_topic_index_project ON topic_index(project_id);
`

// DocumentTriggers keep topics_fts in step with topic_index.
const DocumentTriggers = `
CREATE TRIGGER IF NOT EXISTS topic_index_ai AFTER INSERT ON topic_index BEGIN
    INSERT INTO topics_fts(rowid, name, content) VALUES (new.rowid, new.name, new.content);
END;
CREATE TRIGGER IF NOT EXISTS topic_index_ad AFTER DELETE ON topic_index BEGIN
    INSERT INTO topics_fts(topics_fts, rowid, name, content) VALUES('delete', old.rowid, old.name, old.content);
END;
CREATE TRIGGER IF NOT EXISTS topic_index_au AFTER UPDATE ON topic_index BEGIN
    INSERT INTO topics_fts(topics_fts, rowid, name, content) VALUES('delete', old.rowid, old.name, old.content);
    INSERT INTO topics_fts(rowid, name, content) VALUES (new.rowid, new.name, new.content);
END;
`

// dsnPragmas configures SQLite for a single local writer.
const dsnPragmas = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)"
