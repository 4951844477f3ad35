// Copyright (c) 2025 EFramework Organization. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package XOrm

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/eframework-org/GO.RECORD/XClause"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

// testAliasID 用于生成唯一的测试数据库别名，beego 不支持重复注册别名。
var testAliasID int64

// setupTestDB 注册基于 sqlmock 的测试数据库，ormType 默认为 SQLite3。
func setupTestDB(t *testing.T, ormType ...string) (string, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("创建 sqlmock 失败: %v", err)
	}
	typ := "SQLite3"
	if len(ormType) > 0 {
		typ = ormType[0]
	}
	alias := fmt.Sprintf("test_alias_%v", atomic.AddInt64(&testAliasID, 1))
	if err := RegisterDB(alias, typ, db); err != nil {
		t.Fatalf("注册测试数据库失败: %v", err)
	}
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet(), "所有预期的 SQL 语句都应当被执行。")
	})
	return alias, mock
}

func TestCriteriaSQL(t *testing.T) {
	t.Run("Select", func(t *testing.T) {
		tests := []struct {
			criteria *Criteria
			sql      string
			args     []any
		}{
			{
				NewCriteria("builder").From("users"),
				"SELECT * FROM `users`",
				[]any{},
			},
			{
				NewCriteria("builder").From("users").Select("name", "age").Distinct().
					Where("age__gt", 18).OrderBy("age", true).Limit(10).Offset(5),
				"SELECT DISTINCT `name`, `age` FROM `users` WHERE `age` > ? ORDER BY `age` DESC LIMIT 10 OFFSET 5",
				[]any{18},
			},
			{
				NewCriteria("builder").From("users").Where("id", []int{1, 2}).OrWhere("name__like", "%poy%", "age__lte", 30),
				"SELECT * FROM `users` WHERE `id` IN (?, ?) OR `name` LIKE ? AND `age` <= ?",
				[]any{1, 2, "%poy%", 30},
			},
			{
				NewCriteria("builder").From("users").Select("users.*").
					Join("cars", "users.id=cars.user_id", "cars__name", "benz").
					LeftJoin("phones", "users.id=phones.user_id").
					Where("users__age__gte", 20),
				"SELECT `users`.* FROM `users` INNER JOIN `cars` ON `users`.`id` = `cars`.`user_id` AND `cars`.`name` = ? " +
					"LEFT JOIN `phones` ON `users`.`id` = `phones`.`user_id` WHERE `users`.`age` >= ?",
				[]any{"benz", 20},
			},
			{
				NewCriteria("builder").From("users").Select("name", "COUNT(id)").
					GroupBy("name").Having("age__bt", []int{10, 20}).OrHaving("name", nil).Page(3, 10),
				"SELECT `name`, COUNT(id) FROM `users` GROUP BY `name` HAVING `age` BETWEEN ? AND ? OR `name` IS NULL LIMIT 10 OFFSET 20",
				[]any{10, 20},
			},
			{
				NewCriteria("builder").From("users").RightJoin("cars", "", "cars__id__not", nil).Where("id", 1),
				"SELECT * FROM `users` RIGHT JOIN `cars` ON `cars`.`id` IS NOT NULL WHERE `id` = ?",
				[]any{1},
			},
		}
		for i, test := range tests {
			t.Run(fmt.Sprintf("%v", i), func(t *testing.T) {
				sql, args := test.criteria.SelectSQL()
				assert.Equal(t, test.sql, sql, "编译的查询语句应当和预期的一致。")
				assert.Equal(t, test.args, args, "绑定参数应当和占位符的顺序一致。")
			})
		}
	})

	t.Run("Count", func(t *testing.T) {
		sql, args := NewCriteria("builder").From("users").Where("age__gt", 18).OrderBy("id").Limit(1).CountSQL()
		assert.Equal(t, "SELECT COUNT(*) FROM `users` WHERE `age` > ?", sql, "计数语句应当忽略排序和分页。")
		assert.Equal(t, []any{18}, args)

		sql, _ = NewCriteria("builder").From("users").CountSQL("name")
		assert.Equal(t, "SELECT COUNT(`name`) FROM `users`", sql)

		sql, _ = NewCriteria("builder").From("users").Distinct().CountSQL("name")
		assert.Equal(t, "SELECT COUNT(DISTINCT `name`) FROM `users`", sql, "去重计数应当使用 DISTINCT。")

		sql, _ = NewCriteria("builder").From("users").Select("name", "age").Distinct().CountSQL()
		assert.Equal(t, "SELECT COUNT(DISTINCT `name`, `age`) FROM `users`", sql, "去重计数应当使用查询列。")

		sql, args = NewCriteria("builder").From("users").GroupBy("name").Having("age__gt", 1).CountSQL()
		assert.Equal(t, "SELECT COUNT(*) FROM (SELECT * FROM `users` GROUP BY `name` HAVING `age` > ?) AS `t`", sql, "分组计数应当统计分组的数量。")
		assert.Equal(t, []any{1}, args)
	})

	t.Run("Aggregate", func(t *testing.T) {
		for _, fn := range []string{"sum", "MAX", "Min", "avg"} {
			sql, args := NewCriteria("builder").From("users").Where("age__lt", 60).AggregateSQL(fn, "age")
			assert.Equal(t, fmt.Sprintf("SELECT %v(`age`) FROM `users` WHERE `age` < ?", strings.ToUpper(fn)), sql, "聚合语句应当和预期的一致。")
			assert.Equal(t, []any{60}, args)
		}
		assert.Panics(t, func() { NewCriteria("builder").From("users").AggregateSQL("MEDIAN", "age") }, "不支持的聚合函数应当触发 panic。")
		assert.Panics(t, func() { NewCriteria("builder").From("users").AggregateSQL("SUM", "") }, "聚合列为空应当触发 panic。")
	})

	t.Run("Insert", func(t *testing.T) {
		sql, args := NewCriteria("builder").From("users").InsertSQL(XClause.NewParams("name", "ryanpoy", "age", 30))
		assert.Equal(t, "INSERT INTO `users` (`name`, `age`) VALUES (?, ?)", sql)
		assert.Equal(t, []any{"ryanpoy", 30}, args, "插入的参数应当和列的顺序一致。")
		assert.Panics(t, func() { NewCriteria("builder").From("users").InsertSQL(XClause.NewParams()) }, "插入空属性应当触发 panic。")
	})

	t.Run("Update", func(t *testing.T) {
		sql, args := NewCriteria("builder").From("users").Where("id", 1).UpdateSQL(XClause.NewParams("name", "poy", "age", 31))
		assert.Equal(t, "UPDATE `users` SET `name` = ?, `age` = ? WHERE `id` = ?", sql)
		assert.Equal(t, []any{"poy", 31, 1}, args, "更新的参数应当在查询条件的参数之前。")

		sql, args = NewCriteria("builder").From("users").UpdateSQL(XClause.NewParams("age", 1))
		assert.Equal(t, "UPDATE `users` SET `age` = ?", sql)
		assert.Equal(t, []any{1}, args)
		assert.Panics(t, func() { NewCriteria("builder").From("users").UpdateSQL(nil) }, "更新空属性应当触发 panic。")
	})

	t.Run("Delete", func(t *testing.T) {
		sql, args := NewCriteria("builder").From("users").Where("age__not_bt", []int{1, 2}).DeleteSQL()
		assert.Equal(t, "DELETE FROM `users` WHERE `age` NOT BETWEEN ? AND ?", sql)
		assert.Equal(t, []any{1, 2}, args)

		sql, _ = NewCriteria("builder").From("users").DeleteSQL()
		assert.Equal(t, "DELETE FROM `users`", sql)
	})

	t.Run("EmptyJoin", func(t *testing.T) {
		assert.Panics(t, func() { NewCriteria("builder").From("users").Join("cars", "") }, "联表条件为空应当触发 panic。")
		assert.Panics(t, func() { NewCriteria("builder").From("users").LeftJoin("cars", "") }, "联表条件为空应当触发 panic。")
	})

	t.Run("NoTable", func(t *testing.T) {
		assert.Panics(t, func() { NewCriteria("builder").SelectSQL() }, "未设置数据表应当触发 panic。")
	})

	t.Run("Dialect", func(t *testing.T) {
		alias, _ := setupTestDB(t, "PostgreSQL")
		sql, args := NewCriteria(alias).From("users").Where("users__id", 1).SelectSQL()
		assert.Equal(t, `SELECT * FROM "users" WHERE "users"."id" = ?`, sql, "PostgreSQL 应当使用双引号。")
		assert.Equal(t, []any{1}, args)
	})
}

func TestCriteriaExec(t *testing.T) {
	t.Run("All", func(t *testing.T) {
		alias, mock := setupTestDB(t)
		mock.ExpectQuery("SELECT * FROM `users` WHERE `age` > ? ORDER BY `id`").
			WithArgs(18).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "ryanpoy").AddRow(2, "poy"))

		rows := NewCriteria(alias).From("users").Where("age__gt", 18).OrderBy("id").All()
		assert.Equal(t, 2, len(rows), "查询结果应当包含 2 行。")
		assert.Equal(t, "1", rows[0]["id"], "数据库读取的值应当为字符串。")
		assert.Equal(t, "poy", rows[1]["name"])
		assert.Equal(t, 1, int(testutil.ToFloat64(Metrics().Query.WithLabelValues(alias, actionRead))), "查询次数应当为 1。")
	})

	t.Run("AllError", func(t *testing.T) {
		alias, mock := setupTestDB(t)
		mock.ExpectQuery("SELECT * FROM `users`").WillReturnError(errors.New("connection lost"))

		assert.Nil(t, NewCriteria(alias).From("users").All(), "查询失败时应当返回 nil。")
		assert.Equal(t, 1, int(testutil.ToFloat64(Metrics().Error.WithLabelValues(alias, actionRead))), "查询失败次数应当为 1。")
	})

	t.Run("FirstAndLast", func(t *testing.T) {
		alias, mock := setupTestDB(t)
		mock.ExpectQuery("SELECT * FROM `users` ORDER BY `age` DESC LIMIT 1 OFFSET 2").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
		mock.ExpectQuery("SELECT * FROM `users` ORDER BY `age` LIMIT 1 OFFSET 2").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4))
		mock.ExpectQuery("SELECT * FROM `users` ORDER BY `id` DESC LIMIT 1").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		criteria := NewCriteria(alias).From("users").OrderBy("age", true).Offset(2).Limit(5)
		assert.Equal(t, "3", criteria.First()["id"], "First 应当只查询一行。")
		assert.Equal(t, "4", criteria.Last()["id"], "Last 应当反转排序。")
		assert.Nil(t, NewCriteria(alias).From("users").Last(), "Last 未指定排序时应当按主键降序，无结果时返回 nil。")

		sql, _ := criteria.SelectSQL()
		assert.Equal(t, "SELECT * FROM `users` ORDER BY `age` DESC LIMIT 5 OFFSET 2", sql, "First 和 Last 不应当修改查询构造器。")
	})

	t.Run("Aggregate", func(t *testing.T) {
		alias, mock := setupTestDB(t)
		mock.ExpectQuery("SELECT COUNT(*) FROM `users` WHERE `age` > ?").WithArgs(18).
			WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(3))
		mock.ExpectQuery("SELECT COUNT(*) FROM `users`").
			WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(0))
		mock.ExpectQuery("SELECT SUM(`age`) FROM `users`").
			WillReturnRows(sqlmock.NewRows([]string{"SUM(`age`)"}).AddRow("61"))
		mock.ExpectQuery("SELECT MAX(`age`) FROM `users`").
			WillReturnRows(sqlmock.NewRows([]string{"MAX(`age`)"}).AddRow(31))
		mock.ExpectQuery("SELECT MIN(`age`) FROM `users`").
			WillReturnRows(sqlmock.NewRows([]string{"MIN(`age`)"}).AddRow(nil))
		mock.ExpectQuery("SELECT AVG(`age`) FROM `users`").
			WillReturnRows(sqlmock.NewRows([]string{"AVG(`age`)"}).AddRow("30.5"))
		mock.ExpectQuery("SELECT COUNT(*) FROM `users`").WillReturnError(errors.New("timeout"))

		assert.Equal(t, 3, NewCriteria(alias).From("users").Where("age__gt", 18).Count(), "计数结果应当为 3。")
		assert.False(t, NewCriteria(alias).From("users").Exists(), "计数为 0 时应当不存在。")
		assert.Equal(t, 61.0, NewCriteria(alias).From("users").Sum("age"))
		assert.Equal(t, 31.0, NewCriteria(alias).From("users").Max("age"))
		assert.Equal(t, 0.0, NewCriteria(alias).From("users").Min("age"), "聚合结果为 NULL 时应当返回 0。")
		assert.Equal(t, 30.5, NewCriteria(alias).From("users").Avg("age"))
		assert.Equal(t, -1, NewCriteria(alias).From("users").Count(), "计数失败时应当返回 -1。")
		assert.Equal(t, 7, int(testutil.ToFloat64(Metrics().Query.WithLabelValues(alias, actionAggre))), "聚合次数应当为 7。")
	})

	t.Run("Write", func(t *testing.T) {
		alias, mock := setupTestDB(t)
		mock.ExpectExec("INSERT INTO `users` (`name`, `age`) VALUES (?, ?)").WithArgs("ryanpoy", 30).
			WillReturnResult(sqlmock.NewResult(7, 1))
		mock.ExpectExec("UPDATE `users` SET `age` = ? WHERE `name` = ?").WithArgs(31, "ryanpoy").
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec("DELETE FROM `users` WHERE `id` IN (?, ?)").WithArgs(1, 2).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec("DELETE FROM `users`").WillReturnError(errors.New("locked"))

		assert.Equal(t, int64(7), NewCriteria(alias).From("users").Insert("name", "ryanpoy", "age", 30), "插入应当返回自增主键。")
		assert.Equal(t, 2, NewCriteria(alias).From("users").Where("name", "ryanpoy").Update("age", 31), "更新应当返回受影响的行数。")
		assert.Equal(t, 2, NewCriteria(alias).From("users").Where("id", []int{1, 2}).Delete(), "删除应当返回受影响的行数。")
		assert.Equal(t, -1, NewCriteria(alias).From("users").Delete(), "删除失败时应当返回 -1。")

		assert.Equal(t, 2, int(testutil.ToFloat64(Metrics().Query.WithLabelValues(alias, actionWrite))), "写入次数应当为 2。")
		assert.Equal(t, 2, int(testutil.ToFloat64(Metrics().Query.WithLabelValues(alias, actionDelete))), "删除次数应当为 2。")
		assert.Equal(t, 1, int(testutil.ToFloat64(Metrics().Error.WithLabelValues(alias, actionDelete))), "删除失败次数应当为 1。")
	})

	t.Run("BigInt", func(t *testing.T) {
		alias, mock := setupTestDB(t, "PostgreSQL")
		table := Meta(&Table{Alias: alias, Name: "orders", Columns: []string{"id", "name"}})
		mock.ExpectQuery(`INSERT INTO "orders" ("name") VALUES ($1) RETURNING "id"`).WithArgs("ryanpoy").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("9007199254740993"))
		mock.ExpectQuery(`SELECT COUNT(*) FROM "orders"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow("9007199254740993"))

		assert.Equal(t, int64(9007199254740993), table.Criteria().Insert("name", "ryanpoy"), "RETURNING 返回的 bigint 主键不应当丢失精度。")
		assert.Equal(t, int64(9007199254740993), int64(table.Count()), "bigint 计数结果不应当丢失精度。")
	})

	t.Run("LastWithJoin", func(t *testing.T) {
		alias, mock := setupTestDB(t)
		mock.ExpectQuery("SELECT `users`.* FROM `users` INNER JOIN `cars` ON `users`.`id` = `cars`.`user_id` ORDER BY `users`.`id` DESC LIMIT 1").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(8))

		row := NewCriteria(alias).From("users").Select("users.*").Join("cars", "users.id=cars.user_id").Last()
		assert.Equal(t, "8", row["id"], "联表时主键排序应当限定为当前表的列。")
	})

	t.Run("Returning", func(t *testing.T) {
		alias, mock := setupTestDB(t, "PostgreSQL")
		table := Meta(&Table{Alias: alias, Name: "users", Columns: []string{"id", "name"}})
		mock.ExpectQuery(`INSERT INTO "users" ("name") VALUES ($1) RETURNING "id"`).WithArgs("ryanpoy").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))

		assert.Equal(t, int64(9), table.Criteria().Insert("name", "ryanpoy"), "PostgreSQL 应当通过 RETURNING 返回主键。")
	})
}
