// Copyright (c) 2025 EFramework Organization. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package XClause

import (
	"strings"

	"github.com/eframework-org/GO.UTIL/XLog"
)

// Clause 是所有子句的公共接口。
type Clause interface {
	// Compile 编译子句，返回 SQL 片段和按占位符顺序排列的绑定参数。
	// 未添加任何内容的子句返回空字符串。
	Compile() (string, []any)
}

// conditionKind 描述了条件子句的种类。
type conditionKind struct {
	keyword string // 关键字
	join    bool   // 是否为连接子句
}

var (
	whereKind     = conditionKind{keyword: "WHERE"}
	havingKind    = conditionKind{keyword: "HAVING"}
	innerJoinKind = conditionKind{keyword: "INNER JOIN", join: true}
	leftJoinKind  = conditionKind{keyword: "LEFT JOIN", join: true}
	rightJoinKind = conditionKind{keyword: "RIGHT JOIN", join: true}
)

// predicateGroup 是单次 And 或 Or 调用添加的谓词组。
type predicateGroup struct {
	or         bool // 与前一组的连接符是否为 OR
	predicates []Predicate
}

// ConditionClause 实现了 WHERE、HAVING 及 JOIN 子句。
type ConditionClause struct {
	kind    conditionKind
	dialect Dialect
	table   string           // 连接的目标表
	on      [2]string        // 连接的左右列
	groups  []predicateGroup // 谓词组
}

// Where 创建 WHERE 子句。
func Where(d Dialect) *ConditionClause {
	return &ConditionClause{kind: whereKind, dialect: d}
}

// Having 创建 HAVING 子句。
func Having(d Dialect) *ConditionClause {
	return &ConditionClause{kind: havingKind, dialect: d}
}

// Join 创建 INNER JOIN 子句。
func Join(d Dialect, table string) *ConditionClause {
	return &ConditionClause{kind: innerJoinKind, dialect: d, table: table}
}

// LeftJoin 创建 LEFT JOIN 子句。
func LeftJoin(d Dialect, table string) *ConditionClause {
	return &ConditionClause{kind: leftJoinKind, dialect: d, table: table}
}

// RightJoin 创建 RIGHT JOIN 子句。
func RightJoin(d Dialect, table string) *ConditionClause {
	return &ConditionClause{kind: rightJoinKind, dialect: d, table: table}
}

// Table 返回连接的目标表，非连接子句返回空字符串。
func (c *ConditionClause) Table() string { return c.table }

// And 以 AND 连接一组条件，同一组内的条件之间总是以 AND 连接。
//
// 用法:
//
//	XClause.Where(XClause.MySQL).And("id", 1).And("age__gt", 18, "name__like", "%test%")
func (c *ConditionClause) And(kv ...any) *ConditionClause {
	return c.push(false, NewParams(kv...))
}

// Or 以 OR 连接一组条件，同一组内的条件之间总是以 AND 连接。
func (c *ConditionClause) Or(kv ...any) *ConditionClause {
	return c.push(true, NewParams(kv...))
}

// AndParams 以 AND 连接 params 描述的一组条件。
func (c *ConditionClause) AndParams(params *Params) *ConditionClause {
	return c.push(false, params)
}

// OrParams 以 OR 连接 params 描述的一组条件。
func (c *ConditionClause) OrParams(params *Params) *ConditionClause {
	return c.push(true, params)
}

func (c *ConditionClause) push(or bool, params *Params) *ConditionClause {
	if params.Len() == 0 {
		return c
	}
	group := predicateGroup{or: or, predicates: make([]Predicate, 0, params.Len())}
	params.Range(func(key string, value any) bool {
		group.predicates = append(group.predicates, NewPredicate(key, value))
		return true
	})
	c.groups = append(c.groups, group)
	return c
}

// On 设置连接条件，如 users.id=cars.user_id，重复调用时覆盖之前的设置。
// 仅连接子句支持，表达式不是 left=right 的形式时触发 panic。
func (c *ConditionClause) On(expr string) *ConditionClause {
	if !c.kind.join {
		XLog.Panic("XClause.ConditionClause.On('%v'): %v clause doesn't support on.", expr, c.kind.keyword)
		return c
	}
	parts := strings.Split(expr, "=")
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
		XLog.Panic("XClause.ConditionClause.On('%v'): expression must be in form of left=right.", expr)
		return c
	}
	c.on = [2]string{strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])}
	return c
}

// IsEmpty 判断子句是否未添加任何条件。
func (c *ConditionClause) IsEmpty() bool {
	return c.on[0] == "" && len(c.groups) == 0
}

// Compile 编译子句。
func (c *ConditionClause) Compile() (string, []any) {
	args := make([]any, 0)
	if c.IsEmpty() {
		return "", args
	}

	var sb strings.Builder
	sb.WriteString(c.kind.keyword)
	if c.kind.join {
		sb.WriteString(" ")
		sb.WriteString(c.dialect.QuoteIdentifier(c.table))
		sb.WriteString(" ON")
	}

	first := true
	if c.on[0] != "" {
		sb.WriteString(" ")
		sb.WriteString(c.dialect.QuoteIdentifier(c.on[0]))
		sb.WriteString(" = ")
		sb.WriteString(c.dialect.QuoteIdentifier(c.on[1]))
		first = false
	}
	for _, group := range c.groups {
		for i, pred := range group.predicates {
			switch {
			case first:
				sb.WriteString(" ")
			case i == 0 && group.or:
				sb.WriteString(" OR ")
			default:
				sb.WriteString(" AND ")
			}
			first = false
			args = pred.build(c.dialect, &sb, args)
		}
	}
	return sb.String(), args
}
