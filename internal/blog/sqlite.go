package blog

import (
	"context"

	_ "modernc.org/sqlite"

	dbcore "gocrud/data/db"
	dbbasic "gocrud/data/db/basic"
)

// MemoryDSN 单连接内存库；_time_format=sqlite 让 time.Time 以 SQLite 可比较的文本写入
const MemoryDSN = ":memory:?_time_format=sqlite"

// OpenMemory 打开内存 SQLite，建表并写入演示数据。
func OpenMemory(ctx context.Context) (*dbbasic.DB, error) {
	database, err := dbbasic.New(dbcore.DBConfig{
		Driver:       "sqlite",
		DSN:          MemoryDSN,
		MaxOpenConns: 1,
	})
	if err != nil {
		return nil, err
	}
	if err := EnsureTables(ctx, database); err != nil {
		_ = database.Close()
		return nil, err
	}
	if err := Seed(ctx, database); err != nil {
		_ = database.Close()
		return nil, err
	}
	return database, nil
}
