package sqlite

// Schema contains the SQL statements to create the SQLite schema.
// All statements are idempotent so the schema can be applied on every open.
const Schema = `
-- Memories: read-only conversation context, ranked by importance
CREATE TABLE IF NOT EXISTS memories (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    content TEXT NOT NULL,
    memory_type TEXT NOT NULL DEFAULT 'other',
    importance INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_memories_user
    ON memories(tenant_id, user_id, importance DESC);

-- Goals with embedded subtasks (JSON array)
CREATE TABLE IF NOT EXISTS goals (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    title TEXT NOT NULL,
    description TEXT,
    status TEXT NOT NULL DEFAULT 'active',
    priority TEXT NOT NULL DEFAULT 'medium',
    category TEXT,
    subtasks TEXT,
    progress INTEGER NOT NULL DEFAULT 0,
    target_date TIMESTAMP,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    completed_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_goals_user ON goals(tenant_id, user_id, status);

-- Knowledge graph entities, identity = case-insensitive name per tenant
CREATE TABLE IF NOT EXISTS knowledge_entities (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    name TEXT NOT NULL,
    type TEXT NOT NULL DEFAULT 'other',
    description TEXT,
    attributes TEXT,
    confidence INTEGER NOT NULL DEFAULT 50,
    first_mentioned TIMESTAMP NOT NULL,
    last_mentioned TIMESTAMP NOT NULL,
    mention_count INTEGER NOT NULL DEFAULT 1
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_entities_name
    ON knowledge_entities(tenant_id, name COLLATE NOCASE);

CREATE INDEX IF NOT EXISTS idx_entities_mentions
    ON knowledge_entities(tenant_id, mention_count DESC);

-- Knowledge graph relationships, unique per (source, target, type)
CREATE TABLE IF NOT EXISTS knowledge_relationships (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    source_entity_id TEXT NOT NULL,
    target_entity_id TEXT NOT NULL,
    relationship_type TEXT NOT NULL,
    description TEXT,
    confidence INTEGER NOT NULL DEFAULT 50,
    created_at TIMESTAMP NOT NULL,
    UNIQUE(tenant_id, source_entity_id, target_entity_id, relationship_type)
);

CREATE INDEX IF NOT EXISTS idx_relationships_source
    ON knowledge_relationships(tenant_id, source_entity_id);

CREATE INDEX IF NOT EXISTS idx_relationships_target
    ON knowledge_relationships(tenant_id, target_entity_id);

-- Feedback entries (append-only)
CREATE TABLE IF NOT EXISTS feedback (
    id TEXT PRIMARY KEY,
    interaction_id TEXT NOT NULL,
    tenant_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    feedback TEXT NOT NULL,
    comment TEXT,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_feedback_tenant ON feedback(tenant_id, created_at DESC);

-- Distilled learnings, one row per tenant, overwritten wholesale
CREATE TABLE IF NOT EXISTS learnings (
    tenant_id TEXT PRIMARY KEY,
    patterns TEXT,
    preferences TEXT,
    updated_at TIMESTAMP NOT NULL
);

-- Self-reflection audit records (append-only)
CREATE TABLE IF NOT EXISTS reflections (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    user_query TEXT NOT NULL,
    response TEXT NOT NULL,
    accuracy INTEGER NOT NULL,
    helpfulness INTEGER NOT NULL,
    completeness INTEGER NOT NULL,
    clarity INTEGER NOT NULL,
    empathy INTEGER NOT NULL,
    overall INTEGER NOT NULL,
    improvements TEXT,
    was_revised INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reflections_tenant ON reflections(tenant_id, created_at DESC);

-- Proactive insights (append-only, filtered by expiry at read time)
CREATE TABLE IF NOT EXISTS proactive_insights (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    type TEXT NOT NULL,
    title TEXT NOT NULL,
    content TEXT NOT NULL,
    priority TEXT NOT NULL DEFAULT 'medium',
    related_goal_id TEXT,
    actionable INTEGER NOT NULL DEFAULT 0,
    suggested_action TEXT,
    delivered INTEGER NOT NULL DEFAULT 0,
    dismissed INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL,
    expires_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_insights_user
    ON proactive_insights(tenant_id, user_id, created_at DESC);

-- Conversation turns, used for check-in timing and tips
CREATE TABLE IF NOT EXISTS conversation_messages (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    role TEXT NOT NULL,
    content TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_user
    ON conversation_messages(tenant_id, user_id, created_at DESC);

-- Per-user interaction counters
CREATE TABLE IF NOT EXISTS interaction_counters (
    tenant_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    count INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (tenant_id, user_id)
);

-- Per-user engagement configuration
CREATE TABLE IF NOT EXISTS user_settings (
    tenant_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    engagement_level INTEGER NOT NULL DEFAULT 2,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (tenant_id, user_id)
);

-- Free-form key/value settings (config fallback)
CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`
