// Copyright (c) 2025 EFramework Organization. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package XOrm

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/beego/beego/v2/client/orm"
	"github.com/eframework-org/GO.RECORD/XClause"
	"github.com/eframework-org/GO.UTIL/XLog"
)

// Criteria 是链式的查询构造器，累积的子句在执行时按固定顺序编译为 SQL：
// SELECT、FROM、JOIN、WHERE、GROUP BY、HAVING、ORDER BY、LIMIT/OFFSET。
// Criteria 实例不是线程安全的，不应当在多个 goroutine 之间共享。
type Criteria struct {
	alias   string
	dialect XClause.Dialect
	table   string
	pk      string
	model   *Table
	selects *XClause.SelectClause
	joins   []*XClause.ConditionClause
	where   *XClause.ConditionClause
	group   *XClause.GroupClause
	having  *XClause.ConditionClause
	order   *XClause.OrderClause
	page    *XClause.PageClause
}

// NewCriteria 创建数据库别名 alias 的查询构造器，SQL 方言由别名注册时的数据库类型决定。
func NewCriteria(alias string) *Criteria {
	d := Dialect(alias)
	return &Criteria{
		alias:   alias,
		dialect: d,
		pk:      "id",
		selects: XClause.Select(d),
		where:   XClause.Where(d),
		group:   XClause.Group(d),
		having:  XClause.Having(d),
		order:   XClause.Order(d),
		page:    XClause.Page(),
	}
}

// From 设置查询的数据表。
func (c *Criteria) From(table string) *Criteria {
	c.table = table
	return c
}

// Alias 返回数据库别名。
func (c *Criteria) Alias() string { return c.alias }

// Table 返回数据表名。
func (c *Criteria) Table() string { return c.table }

// Where 以 AND 连接一组查询条件。
func (c *Criteria) Where(kv ...any) *Criteria {
	c.where.And(kv...)
	return c
}

// OrWhere 以 OR 连接一组查询条件。
func (c *Criteria) OrWhere(kv ...any) *Criteria {
	c.where.Or(kv...)
	return c
}

// Having 以 AND 连接一组分组过滤条件。
func (c *Criteria) Having(kv ...any) *Criteria {
	c.having.And(kv...)
	return c
}

// OrHaving 以 OR 连接一组分组过滤条件。
func (c *Criteria) OrHaving(kv ...any) *Criteria {
	c.having.Or(kv...)
	return c
}

// Join 添加 INNER JOIN 子句，on 的格式为 left=right，kv 为附加的连接条件。
func (c *Criteria) Join(table, on string, kv ...any) *Criteria {
	return c.join(XClause.Join(c.dialect, table), on, kv)
}

// LeftJoin 添加 LEFT JOIN 子句。
func (c *Criteria) LeftJoin(table, on string, kv ...any) *Criteria {
	return c.join(XClause.LeftJoin(c.dialect, table), on, kv)
}

// RightJoin 添加 RIGHT JOIN 子句。
func (c *Criteria) RightJoin(table, on string, kv ...any) *Criteria {
	return c.join(XClause.RightJoin(c.dialect, table), on, kv)
}

func (c *Criteria) join(clause *XClause.ConditionClause, on string, kv []any) *Criteria {
	if on == "" && len(kv) == 0 {
		XLog.Panic("XOrm.Criteria.Join(%v): join condition is empty.", c.table)
		return c
	}
	if on != "" {
		clause.On(on)
	}
	clause.And(kv...)
	c.joins = append(c.joins, clause)
	return c
}

// OrderBy 添加排序列，desc 为 true 时降序排列。
func (c *Criteria) OrderBy(column string, desc ...bool) *Criteria {
	c.order.By(column, desc...)
	return c
}

// GroupBy 添加分组列。
func (c *Criteria) GroupBy(columns ...string) *Criteria {
	c.group.By(columns...)
	return c
}

// Select 添加查询列，未添加时查询所有列。
func (c *Criteria) Select(columns ...string) *Criteria {
	c.selects.Select(columns...)
	return c
}

// Distinct 对查询结果去重。
func (c *Criteria) Distinct() *Criteria {
	c.selects.Distinct()
	return c
}

// Limit 设置返回的最大行数。
func (c *Criteria) Limit(n int) *Criteria {
	c.page.Limit(n)
	return c
}

// Offset 设置跳过的行数。
func (c *Criteria) Offset(n int) *Criteria {
	c.page.Offset(n)
	return c
}

// Page 设置分页，num 从 1 开始。
func (c *Criteria) Page(num, perPage int) *Criteria {
	c.page.Page(num, perPage)
	return c
}

// sqlFragment 是不带参数的 SQL 片段。
type sqlFragment string

func (s sqlFragment) Compile() (string, []any) { return string(s), []any{} }

// compose 以空格连接子句的编译结果，并按顺序合并绑定参数。
func compose(clauses ...XClause.Clause) (string, []any) {
	segs := make([]string, 0, len(clauses))
	args := make([]any, 0)
	for _, clause := range clauses {
		sql, cargs := clause.Compile()
		if sql == "" {
			continue
		}
		segs = append(segs, sql)
		args = append(args, cargs...)
	}
	return strings.Join(segs, " "), args
}

func (c *Criteria) quotedTable() string {
	if c.table == "" {
		XLog.Panic("XOrm.Criteria: table of alias %v is empty, call From first.", c.alias)
	}
	return c.dialect.QuoteIdentifier(c.table)
}

// source 返回 FROM 及 JOIN 子句。
func (c *Criteria) source() []XClause.Clause {
	clauses := []XClause.Clause{sqlFragment("FROM " + c.quotedTable())}
	for _, join := range c.joins {
		clauses = append(clauses, join)
	}
	return clauses
}

func (c *Criteria) selectSQL(order, page XClause.Clause) (string, []any) {
	clauses := append([]XClause.Clause{c.selects}, c.source()...)
	clauses = append(clauses, c.where, c.group, c.having, order, page)
	return compose(clauses...)
}

// SelectSQL 编译查询语句。
func (c *Criteria) SelectSQL() (string, []any) {
	return c.selectSQL(c.order, c.page)
}

func (c *Criteria) aggregateSQL(expr string) (string, []any) {
	clauses := append([]XClause.Clause{sqlFragment("SELECT " + expr)}, c.source()...)
	clauses = append(clauses, c.where, c.group, c.having)
	return compose(clauses...)
}

// CountSQL 编译计数语句，column 为空时统计所有行，忽略排序和分页。
// 设置了 Distinct 时对查询列去重计数，设置了分组时统计分组的数量。
func (c *Criteria) CountSQL(column ...string) (string, []any) {
	if !c.group.IsEmpty() {
		inner, args := c.selectSQL(sqlFragment(""), sqlFragment(""))
		return fmt.Sprintf("SELECT COUNT(*) FROM (%v) AS %v", inner, c.dialect.QuoteIdentifier("t")), args
	}

	target := "*"
	if len(column) > 0 && column[0] != "" && column[0] != "*" {
		target = c.dialect.QuoteIdentifier(column[0])
	}
	if c.selects.IsDistinct() {
		if columns := c.selects.Columns(); target == "*" && len(columns) > 0 {
			quoted := make([]string, len(columns))
			for i, col := range columns {
				quoted[i] = c.dialect.QuoteIdentifier(col)
			}
			target = strings.Join(quoted, ", ")
		}
		if target != "*" {
			target = "DISTINCT " + target
		}
	}
	return c.aggregateSQL(fmt.Sprintf("COUNT(%v)", target))
}

// AggregateSQL 编译聚合语句，fn 支持 COUNT、SUM、MAX、MIN、AVG。
func (c *Criteria) AggregateSQL(fn, column string) (string, []any) {
	fn = strings.ToUpper(fn)
	switch fn {
	case "COUNT", "SUM", "MAX", "MIN", "AVG":
	default:
		XLog.Panic("XOrm.Criteria.AggregateSQL: unsupported function %v.", fn)
	}
	if column == "" {
		XLog.Panic("XOrm.Criteria.AggregateSQL: column of %v is empty.", fn)
	}
	return c.aggregateSQL(fmt.Sprintf("%v(%v)", fn, c.dialect.QuoteIdentifier(column)))
}

// InsertSQL 编译插入语句，列按 params 的插入顺序排列。
// PostgreSQL 方言下，模型关联的查询会通过 RETURNING 返回主键。
func (c *Criteria) InsertSQL(params *XClause.Params) (string, []any) {
	if params.Len() == 0 {
		XLog.Panic("XOrm.Criteria.InsertSQL(%v): attributes are empty.", c.table)
	}
	cols := make([]string, 0, params.Len())
	marks := make([]string, 0, params.Len())
	args := make([]any, 0, params.Len())
	params.Range(func(key string, value any) bool {
		cols = append(cols, c.dialect.QuoteIdentifier(key))
		marks = append(marks, c.dialect.Marker)
		args = append(args, value)
		return true
	})
	sql := fmt.Sprintf("INSERT INTO %v (%v) VALUES (%v)", c.quotedTable(), strings.Join(cols, ", "), strings.Join(marks, ", "))
	if c.returning() {
		sql += " RETURNING " + c.dialect.QuoteIdentifier(c.pk)
	}
	return sql, args
}

func (c *Criteria) returning() bool {
	return c.model != nil && c.dialect == XClause.PostgreSQL
}

// UpdateSQL 编译更新语句，绑定参数中更新的值在前，查询条件的值在后。
func (c *Criteria) UpdateSQL(params *XClause.Params) (string, []any) {
	if params.Len() == 0 {
		XLog.Panic("XOrm.Criteria.UpdateSQL(%v): attributes are empty.", c.table)
	}
	sets := make([]string, 0, params.Len())
	args := make([]any, 0, params.Len())
	params.Range(func(key string, value any) bool {
		sets = append(sets, c.dialect.QuoteIdentifier(key)+" = "+c.dialect.Marker)
		args = append(args, value)
		return true
	})
	sql, wargs := compose(
		sqlFragment(fmt.Sprintf("UPDATE %v SET %v", c.quotedTable(), strings.Join(sets, ", "))),
		c.where)
	return sql, append(args, wargs...)
}

// DeleteSQL 编译删除语句。
func (c *Criteria) DeleteSQL() (string, []any) {
	return compose(sqlFragment("DELETE FROM "+c.quotedTable()), c.where)
}

// exec 执行数据库操作，并记录统计信息和会话耗时。
func (c *Criteria) exec(action string, fn func(ormer orm.Ormer) error) error {
	ormer := orm.NewOrmUsingDB(c.alias)
	start := time.Now()
	err := fn(ormer)
	Metrics().observe(c.alias, action, start, err)
	if ctx := getContext(); ctx != nil {
		ctx.record(action, time.Since(start).Microseconds())
	}
	return err
}

func (c *Criteria) query(action, sql string, args []any) ([]orm.Params, error) {
	var rows []orm.Params
	err := c.exec(action, func(ormer orm.Ormer) error {
		_, err := ormer.Raw(sql, args...).Values(&rows)
		return err
	})
	return rows, err
}

// All 查询所有匹配的行，失败时返回 nil。
func (c *Criteria) All() []orm.Params {
	sql, args := c.SelectSQL()
	rows, err := c.query(actionRead, sql, args)
	if err != nil {
		XLog.Error("XOrm.Criteria.All(%v): %v", c.table, err)
		return nil
	}
	return rows
}

// First 查询第一行，不存在或失败时返回 nil。
func (c *Criteria) First() orm.Params {
	return c.one(c.order, "First")
}

// Last 按反转的排序查询第一行，未指定排序时按主键降序。
func (c *Criteria) Last() orm.Params {
	order := c.order.Reverse()
	if c.order.IsEmpty() {
		pk := c.pk
		if len(c.joins) > 0 && !strings.Contains(pk, ".") {
			pk = c.table + "." + pk
		}
		order = XClause.Order(c.dialect).By(pk, true)
	}
	return c.one(order, "Last")
}

func (c *Criteria) one(order XClause.Clause, name string) orm.Params {
	page := XClause.Page().Limit(1)
	if _, offset := c.page.Values(); offset >= 0 {
		page.Offset(offset)
	}
	sql, args := c.selectSQL(order, page)
	rows, err := c.query(actionRead, sql, args)
	if err != nil {
		XLog.Error("XOrm.Criteria.%v(%v): %v", name, c.table, err)
		return nil
	}
	if len(rows) == 0 {
		return nil
	}
	return rows[0]
}

// scalar 执行聚合语句并返回第一行第一列的值。
func (c *Criteria) scalar(sql string, args []any) (any, error) {
	var list orm.ParamsList
	err := c.exec(actionAggre, func(ormer orm.Ormer) error {
		_, err := ormer.Raw(sql, args...).ValuesFlat(&list)
		return err
	})
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[0], nil
}

// Count 统计匹配的行数，失败时返回 -1。
func (c *Criteria) Count(column ...string) int {
	sql, args := c.CountSQL(column...)
	value, err := c.scalar(sql, args)
	if err != nil {
		XLog.Error("XOrm.Criteria.Count(%v): %v", c.table, err)
		return -1
	}
	count, _ := toInt64(value)
	return int(count)
}

// Exists 判断是否存在匹配的行。
func (c *Criteria) Exists() bool {
	return c.Count() > 0
}

// Sum 计算列的总和，失败时返回 -1，无匹配的行时返回 0。
func (c *Criteria) Sum(column string) float64 { return c.aggregate("SUM", column) }

// Max 计算列的最大值，失败时返回 -1，无匹配的行时返回 0。
func (c *Criteria) Max(column string) float64 { return c.aggregate("MAX", column) }

// Min 计算列的最小值，失败时返回 -1，无匹配的行时返回 0。
func (c *Criteria) Min(column string) float64 { return c.aggregate("MIN", column) }

// Avg 计算列的平均值，失败时返回 -1，无匹配的行时返回 0。
func (c *Criteria) Avg(column string) float64 { return c.aggregate("AVG", column) }

func (c *Criteria) aggregate(fn, column string) float64 {
	sql, args := c.AggregateSQL(fn, column)
	value, err := c.scalar(sql, args)
	if err != nil {
		XLog.Error("XOrm.Criteria.%v(%v.%v): %v", fn, c.table, column, err)
		return -1
	}
	result, _ := toFloat64(value)
	return result
}

// Insert 插入一行，kv 为列名和值交替排列的参数，返回自增主键，失败时返回 -1。
func (c *Criteria) Insert(kv ...any) int64 {
	return c.InsertParams(XClause.NewParams(kv...))
}

// InsertParams 插入 params 描述的一行。
func (c *Criteria) InsertParams(params *XClause.Params) int64 {
	sql, args := c.InsertSQL(params)
	var id int64 = -1
	err := c.exec(actionWrite, func(ormer orm.Ormer) error {
		if c.returning() {
			var rows []orm.Params
			if _, err := ormer.Raw(sql, args...).Values(&rows); err != nil {
				return err
			}
			id = 0
			if len(rows) > 0 {
				if value, ok := toInt64(rows[0][c.pk]); ok {
					id = value
				}
			}
			return nil
		}
		result, err := ormer.Raw(sql, args...).Exec()
		if err != nil {
			return err
		}
		if lid, lerr := result.LastInsertId(); lerr == nil {
			id = lid
		} else {
			id = 0
		}
		return nil
	})
	if err != nil {
		XLog.Error("XOrm.Criteria.Insert(%v): %v", c.table, err)
		return -1
	}
	return id
}

// Update 更新匹配的行，返回受影响的行数，失败时返回 -1。
func (c *Criteria) Update(kv ...any) int {
	return c.UpdateParams(XClause.NewParams(kv...))
}

// UpdateParams 以 params 更新匹配的行。
func (c *Criteria) UpdateParams(params *XClause.Params) int {
	sql, args := c.UpdateSQL(params)
	affected, err := c.affect(actionWrite, sql, args)
	if err != nil {
		XLog.Error("XOrm.Criteria.Update(%v): %v", c.table, err)
		return -1
	}
	return affected
}

// Delete 删除匹配的行，返回受影响的行数，失败时返回 -1。
func (c *Criteria) Delete() int {
	sql, args := c.DeleteSQL()
	affected, err := c.affect(actionDelete, sql, args)
	if err != nil {
		XLog.Error("XOrm.Criteria.Delete(%v): %v", c.table, err)
		return -1
	}
	return affected
}

func (c *Criteria) affect(action, sql string, args []any) (int, error) {
	var affected int64
	err := c.exec(action, func(ormer orm.Ormer) error {
		result, err := ormer.Raw(sql, args...).Exec()
		if err != nil {
			return err
		}
		affected, err = result.RowsAffected()
		return err
	})
	return int(affected), err
}

// toFloat64 转换数据库读取的值，数据库驱动返回的值通常为字符串。
// toInt64 将整数结果转换为 int64，整数字符串按整数解析以保留 bigint 的精度。
func toInt64(value any) (int64, bool) {
	switch val := value.(type) {
	case nil:
		return 0, false
	case int64:
		return val, true
	case int:
		return int64(val), true
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64); err == nil {
			return i, true
		}
	case []byte:
		if i, err := strconv.ParseInt(strings.TrimSpace(string(val)), 10, 64); err == nil {
			return i, true
		}
	}
	f, ok := toFloat64(value)
	return int64(f), ok
}

func toFloat64(value any) (float64, bool) {
	switch val := value.(type) {
	case nil:
		return 0, false
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	case []byte:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(val)), 64)
		return f, err == nil
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case float64:
		return val, true
	default:
		f, err := strconv.ParseFloat(fmt.Sprint(val), 64)
		return f, err == nil
	}
}
