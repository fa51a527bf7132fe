package store

const SchemaVersion = 1

const schemaSQL = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);

-- Ingested regulation documents
CREATE TABLE IF NOT EXISTS documents (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    jurisdiction TEXT NOT NULL,
    filename TEXT,
    content_hash TEXT,
    clause_count INTEGER DEFAULT 0,
    ingested_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(jurisdiction, content_hash)
);

CREATE INDEX IF NOT EXISTS idx_documents_jurisdiction ON documents(jurisdiction);

-- Raw clauses as the segmenter produced them
CREATE TABLE IF NOT EXISTS rules (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    document_id INTEGER NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    jurisdiction TEXT NOT NULL,
    clause_no TEXT,
    text TEXT NOT NULL,
    inserted_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_rules_document ON rules(document_id);
CREATE INDEX IF NOT EXISTS idx_rules_jurisdiction ON rules(jurisdiction);

-- Classifier output, queried by jurisdiction at evaluation time
CREATE TABLE IF NOT EXISTS classified_rules (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    rule_id INTEGER REFERENCES rules(id) ON DELETE CASCADE,
    jurisdiction TEXT NOT NULL,
    clause_no TEXT,
    category TEXT NOT NULL,
    details TEXT,
    original_text TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_classified_jurisdiction ON classified_rules(jurisdiction);
CREATE INDEX IF NOT EXISTS idx_classified_category ON classified_rules(category);

-- FTS5 over classified rule text
CREATE VIRTUAL TABLE IF NOT EXISTS classified_rules_fts USING fts5(
    clause_no, original_text,
    content=classified_rules,
    content_rowid=id
);

CREATE TRIGGER IF NOT EXISTS classified_rules_ai AFTER INSERT ON classified_rules BEGIN
    INSERT INTO classified_rules_fts(rowid, clause_no, original_text)
    VALUES (NEW.id, NEW.clause_no, NEW.original_text);
END;

CREATE TRIGGER IF NOT EXISTS classified_rules_ad AFTER DELETE ON classified_rules BEGIN
    INSERT INTO classified_rules_fts(classified_rules_fts, rowid, clause_no, original_text)
    VALUES ('delete', OLD.id, OLD.clause_no, OLD.original_text);
END;

-- Proposals submitted for compliance checking
CREATE TABLE IF NOT EXISTS projects (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    jurisdiction TEXT NOT NULL,
    parameters TEXT NOT NULL,
    status TEXT DEFAULT 'pending',
    submitted_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    last_evaluated DATETIME
);

CREATE INDEX IF NOT EXISTS idx_projects_status ON projects(status);
CREATE INDEX IF NOT EXISTS idx_projects_jurisdiction ON projects(jurisdiction);

-- Evaluation verdicts, one row per evaluation run
CREATE TABLE IF NOT EXISTS evaluations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    jurisdiction TEXT NOT NULL,
    applicable_rules INTEGER NOT NULL,
    overall_score REAL NOT NULL,
    overall_status TEXT NOT NULL,
    results TEXT NOT NULL,
    evaluated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_evaluations_project ON evaluations(project_id);
`

func GetSchema() string {
	return schemaSQL
}

func GetSchemaVersion() int {
	return SchemaVersion
}
