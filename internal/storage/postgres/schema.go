package postgres

// Schema contains the SQL statements to create the PostgreSQL schema.
// All statements are idempotent so the schema can be applied on every open.
const Schema = `
CREATE TABLE IF NOT EXISTS memories (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    content TEXT NOT NULL,
    memory_type TEXT NOT NULL DEFAULT 'other',
    importance INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_memories_user
    ON memories(tenant_id, user_id, importance DESC);

CREATE TABLE IF NOT EXISTS goals (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    title TEXT NOT NULL,
    description TEXT,
    status TEXT NOT NULL DEFAULT 'active',
    priority TEXT NOT NULL DEFAULT 'medium',
    category TEXT,
    subtasks JSONB,
    progress INTEGER NOT NULL DEFAULT 0,
    target_date TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    completed_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_goals_user ON goals(tenant_id, user_id, status);

CREATE TABLE IF NOT EXISTS knowledge_entities (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    name TEXT NOT NULL,
    type TEXT NOT NULL DEFAULT 'other',
    description TEXT,
    attributes JSONB,
    confidence INTEGER NOT NULL DEFAULT 50,
    first_mentioned TIMESTAMPTZ NOT NULL,
    last_mentioned TIMESTAMPTZ NOT NULL,
    mention_count INTEGER NOT NULL DEFAULT 1
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_entities_name
    ON knowledge_entities(tenant_id, LOWER(name));

CREATE INDEX IF NOT EXISTS idx_entities_mentions
    ON knowledge_entities(tenant_id, mention_count DESC);

CREATE TABLE IF NOT EXISTS knowledge_relationships (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    source_entity_id TEXT NOT NULL,
    target_entity_id TEXT NOT NULL,
    relationship_type TEXT NOT NULL,
    description TEXT,
    confidence INTEGER NOT NULL DEFAULT 50,
    created_at TIMESTAMPTZ NOT NULL,
    UNIQUE(tenant_id, source_entity_id, target_entity_id, relationship_type)
);

CREATE INDEX IF NOT EXISTS idx_relationships_source
    ON knowledge_relationships(tenant_id, source_entity_id);

CREATE INDEX IF NOT EXISTS idx_relationships_target
    ON knowledge_relationships(tenant_id, target_entity_id);

CREATE TABLE IF NOT EXISTS feedback (
    id TEXT PRIMARY KEY,
    interaction_id TEXT NOT NULL,
    tenant_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    feedback TEXT NOT NULL,
    comment TEXT,
    created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_feedback_tenant ON feedback(tenant_id, created_at DESC);

CREATE TABLE IF NOT EXISTS learnings (
    tenant_id TEXT PRIMARY KEY,
    patterns JSONB,
    preferences JSONB,
    updated_at TIMESTAMPTZ NOT NULL
);

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
    improvements JSONB,
    was_revised BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reflections_tenant ON reflections(tenant_id, created_at DESC);

CREATE TABLE IF NOT EXISTS proactive_insights (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    type TEXT NOT NULL,
    title TEXT NOT NULL,
    content TEXT NOT NULL,
    priority TEXT NOT NULL DEFAULT 'medium',
    related_goal_id TEXT,
    actionable BOOLEAN NOT NULL DEFAULT FALSE,
    suggested_action TEXT,
    delivered BOOLEAN NOT NULL DEFAULT FALSE,
    dismissed BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL,
    expires_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_insights_user
    ON proactive_insights(tenant_id, user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS conversation_messages (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    role TEXT NOT NULL,
    content TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_user
    ON conversation_messages(tenant_id, user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS interaction_counters (
    tenant_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    count INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (tenant_id, user_id)
);

CREATE TABLE IF NOT EXISTS user_settings (
    tenant_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    engagement_level INTEGER NOT NULL DEFAULT 2,
    updated_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (tenant_id, user_id)
);

CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// SchemaVector adds the embedding column used for similarity recall.
// Applied only when the pgvector extension is present.
const SchemaVector = `
ALTER TABLE memories ADD COLUMN IF NOT EXISTS embedding vector(1536);

CREATE INDEX IF NOT EXISTS idx_memories_embedding
    ON memories USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);
`
