package blog

import (
	"context"
	"fmt"

	dbcore "gocrud/data/db"
)

// schema SQLite 兼容 DDL
var schema = []struct {
	table string
	ddl   string
}{
	{"authors", `CREATE TABLE IF NOT EXISTS authors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '' UNIQUE,
		created_at DATETIME,
		updated_at DATETIME
	)`},
	{"posts", `CREATE TABLE IF NOT EXISTS posts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		author_id INTEGER,
		title TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'draft',
		views INTEGER NOT NULL DEFAULT 0,
		published_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME
	)`},
	{"comments", `CREATE TABLE IF NOT EXISTS comments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		post_id INTEGER NOT NULL,
		body TEXT NOT NULL,
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME
	)`},
	{"tags", `CREATE TABLE IF NOT EXISTS tags (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	)`},
	{"post_tags", `CREATE TABLE IF NOT EXISTS post_tags (
		post_id INTEGER NOT NULL,
		tag_id INTEGER NOT NULL,
		PRIMARY KEY (post_id, tag_id)
	)`},
}

// EnsureTables 创建演示所需的表
func EnsureTables(ctx context.Context, db dbcore.IDatabase) error {
	for _, s := range schema {
		if _, err := db.Exec(ctx, s.ddl); err != nil {
			return fmt.Errorf("create %s: %w", s.table, err)
		}
	}
	return nil
}

// seed 固定的演示数据：
//
//	authors  1 Alice, 2 Bob, 3 Carol（无文章）
//	posts    1..5，其中 4 已软删除，5 无作者
//	comments 1..4，其中 4 已软删除
//	tags     1 go, 2 sql；post_tags (1,1) (3,1) (3,2)
var seed = []string{
	`INSERT INTO authors (id, name, email, created_at, updated_at) VALUES
		(1, 'Alice', 'alice@example.com', '2023-11-01 08:00:00', '2023-11-01 08:00:00'),
		(2, 'Bob', 'bob@example.com', '2023-11-02 08:00:00', '2023-11-02 08:00:00'),
		(3, 'Carol', 'carol@example.com', '2023-11-03 08:00:00', '2023-11-03 08:00:00')`,
	`INSERT INTO posts (id, author_id, title, status, views, published_at, created_at, updated_at, deleted_at) VALUES
		(1, 1, 'Go generics in practice', 'published', 120, '2024-01-10 12:00:00', '2024-01-10 10:00:00', '2024-01-10 10:00:00', NULL),
		(2, 1, 'Soft deletes explained', 'draft', 15, NULL, '2024-02-05 09:30:00', '2024-02-05 09:30:00', NULL),
		(3, 2, 'Query builders', 'published', 60, '2024-02-06 08:00:00', '2024-02-05 18:00:00', '2024-02-05 18:00:00', NULL),
		(4, 2, 'Archived thoughts', 'archived', 5, NULL, '2023-12-24 08:00:00', '2023-12-24 08:00:00', '2024-03-01 00:00:00'),
		(5, NULL, 'Anonymous notes', 'draft', 0, NULL, '2024-03-15 12:00:00', '2024-03-15 12:00:00', NULL)`,
	`INSERT INTO comments (id, post_id, body, created_at, updated_at, deleted_at) VALUES
		(1, 1, 'Great read', '2024-01-11 09:00:00', '2024-01-11 09:00:00', NULL),
		(2, 1, 'Generics are neat', '2024-01-12 09:00:00', '2024-01-12 09:00:00', NULL),
		(3, 3, 'Nice builder', '2024-02-07 09:00:00', '2024-02-07 09:00:00', NULL),
		(4, 3, 'spam', '2024-02-08 09:00:00', '2024-02-08 09:00:00', '2024-02-09 00:00:00')`,
	`INSERT INTO tags (id, name, created_at, updated_at) VALUES
		(1, 'go', '2023-11-01 08:00:00', '2023-11-01 08:00:00'),
		(2, 'sql', '2023-11-01 08:00:00', '2023-11-01 08:00:00')`,
	`INSERT INTO post_tags (post_id, tag_id) VALUES (1, 1), (3, 1), (3, 2)`,
}

// Seed 写入固定演示数据，要求表为空
func Seed(ctx context.Context, db dbcore.IDatabase) error {
	for i, stmt := range seed {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("seed statement %d: %w", i, err)
		}
	}
	return nil
}
