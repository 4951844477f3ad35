// Copyright (c) 2025 EFramework Organization. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package XClause

import "strings"

type orderBy struct {
	column string
	desc   bool
}

// OrderClause 实现了 ORDER BY 子句。
type OrderClause struct {
	dialect Dialect
	orders  []orderBy
}

// Order 创建 ORDER BY 子句。
func Order(d Dialect) *OrderClause {
	return &OrderClause{dialect: d}
}

// By 追加排序列，desc 为 true 时降序。
func (o *OrderClause) By(column string, desc ...bool) *OrderClause {
	o.orders = append(o.orders, orderBy{column: column, desc: len(desc) > 0 && desc[0]})
	return o
}

// IsEmpty 判断是否未添加排序列。
func (o *OrderClause) IsEmpty() bool { return len(o.orders) == 0 }

// Reverse 返回排序方向全部反转的副本。
func (o *OrderClause) Reverse() *OrderClause {
	r := &OrderClause{dialect: o.dialect, orders: make([]orderBy, len(o.orders))}
	for i, order := range o.orders {
		r.orders[i] = orderBy{column: order.column, desc: !order.desc}
	}
	return r
}

// Compile 编译子句。
func (o *OrderClause) Compile() (string, []any) {
	if len(o.orders) == 0 {
		return "", []any{}
	}
	cols := make([]string, len(o.orders))
	for i, order := range o.orders {
		cols[i] = o.dialect.QuoteIdentifier(order.column)
		if order.desc {
			cols[i] += " DESC"
		}
	}
	return "ORDER BY " + strings.Join(cols, ", "), []any{}
}

// GroupClause 实现了 GROUP BY 子句。
type GroupClause struct {
	dialect Dialect
	columns []string
}

// Group 创建 GROUP BY 子句。
func Group(d Dialect) *GroupClause {
	return &GroupClause{dialect: d}
}

// By 追加分组列。
func (g *GroupClause) By(columns ...string) *GroupClause {
	g.columns = append(g.columns, columns...)
	return g
}

// IsEmpty 判断是否未添加分组列。
func (g *GroupClause) IsEmpty() bool { return len(g.columns) == 0 }

// Compile 编译子句。
func (g *GroupClause) Compile() (string, []any) {
	if len(g.columns) == 0 {
		return "", []any{}
	}
	cols := make([]string, len(g.columns))
	for i, col := range g.columns {
		cols[i] = g.dialect.QuoteIdentifier(col)
	}
	return "GROUP BY " + strings.Join(cols, ", "), []any{}
}
