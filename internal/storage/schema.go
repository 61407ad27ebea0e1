package storage

const schema = `
-- The 'flashcards' table stores every card together with its review flags.
-- 'correct' and 'wrong' are 0/1 integers; at most one of them is 1 after a
-- review, and both are 0 for cards that were never reviewed.
CREATE TABLE IF NOT EXISTS flashcards (
    id INTEGER PRIMARY KEY,
    question TEXT NOT NULL,
    answer TEXT NOT NULL,
    correct INTEGER DEFAULT 0,
    wrong INTEGER DEFAULT 0
);
`
