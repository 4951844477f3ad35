// Copyright (c) 2025 EFramework Organization. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package XClause

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderClause(t *testing.T) {
	sql, args := Order(testDialect).Compile()
	assert.Equal(t, "", sql, "空子句应当编译为空字符串。")
	assert.Empty(t, args)

	order := Order(testDialect).By("email").By("age", true)
	sql, args = order.Compile()
	assert.Equal(t, "ORDER BY `email`, `age` DESC", sql)
	assert.Empty(t, args)

	sql, _ = order.Reverse().Compile()
	assert.Equal(t, "ORDER BY `email` DESC, `age`", sql, "反转后的排序方向应当全部相反。")

	sql, _ = order.Compile()
	assert.Equal(t, "ORDER BY `email`, `age` DESC", sql, "反转不应当修改原有子句。")
}

func TestGroupClause(t *testing.T) {
	sql, args := Group(testDialect).Compile()
	assert.Equal(t, "", sql, "空子句应当编译为空字符串。")
	assert.Empty(t, args)

	sql, _ = Group(testDialect).By("id", "email").Compile()
	assert.Equal(t, "GROUP BY `id`, `email`", sql)

	sql, _ = Group(testDialect).By("id").By("users.email").Compile()
	assert.Equal(t, "GROUP BY `id`, `users`.`email`", sql)
}

func TestSelectClause(t *testing.T) {
	tests := []struct {
		name   string
		clause *SelectClause
		sql    string
	}{
		{"Empty", Select(testDialect), "SELECT *"},
		{"Columns", Select(testDialect).Select("name").Select("users.age"), "SELECT `name`, `users`.`age`"},
		{"Distinct", Select(testDialect).Distinct(), "SELECT DISTINCT *"},
		{"DistinctColumns", Select(testDialect).Select("name").Select("users.age").Distinct(), "SELECT DISTINCT `name`, `users`.`age`"},
		{"Expression", Select(testDialect).Select("users.*", "COUNT(*)"), "SELECT `users`.*, COUNT(*)"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			sql, args := test.clause.Compile()
			assert.Equal(t, test.sql, sql)
			assert.Empty(t, args)
		})
	}
}

func TestPageClause(t *testing.T) {
	tests := []struct {
		name   string
		clause *PageClause
		sql    string
	}{
		{"Empty", Page(), ""},
		{"LimitOffset", Page().Offset(5).Limit(10), "LIMIT 10 OFFSET 5"},
		{"Limit", Page().Limit(10), "LIMIT 10"},
		{"Offset", Page().Offset(5), "OFFSET 5"},
		{"Page", Page().Page(2, 15), "LIMIT 15 OFFSET 15"},
		{"FirstPage", Page().Page(1, 15), "LIMIT 15 OFFSET 0"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			sql, args := test.clause.Compile()
			assert.Equal(t, test.sql, sql)
			assert.Empty(t, args)
		})
	}

	limit, offset := Page().Page(3, 10).Values()
	assert.Equal(t, 10, limit)
	assert.Equal(t, 20, offset)

	assert.Panics(t, func() { Page().Page(0, 10) }, "页码小于 1 时应当 panic。")
	assert.Panics(t, func() { Page().Limit(-1) }, "负数的分页限制应当 panic。")
	assert.Panics(t, func() { Page().Offset(-1) }, "负数的分页偏移应当 panic。")
}
