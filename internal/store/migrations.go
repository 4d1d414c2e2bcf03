package store

const schema = `
CREATE TABLE IF NOT EXISTS raw_posts (
    post_id    TEXT PRIMARY KEY,
    username   TEXT NOT NULL,
    content    TEXT NOT NULL DEFAULT '',
    likes      INTEGER NOT NULL DEFAULT 0,
    replies    INTEGER NOT NULL DEFAULT 0,
    reposts    INTEGER NOT NULL DEFAULT 0,
    timestamp  DATETIME NOT NULL,
    scraped_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_raw_posts_timestamp ON raw_posts(timestamp);
CREATE INDEX IF NOT EXISTS idx_raw_posts_username ON raw_posts(username);
`
