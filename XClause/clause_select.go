// Copyright (c) 2025 EFramework Organization. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package XClause

import "strings"

// SelectClause 实现了 SELECT 子句，未选择任何列时编译为 SELECT *。
type SelectClause struct {
	dialect  Dialect
	columns  []string
	distinct bool
}

// Select 创建 SELECT 子句。
func Select(d Dialect) *SelectClause {
	return &SelectClause{dialect: d}
}

// Select 追加选择的列，多次调用时累加。
func (s *SelectClause) Select(columns ...string) *SelectClause {
	s.columns = append(s.columns, columns...)
	return s
}

// Distinct 设置去重标记。
func (s *SelectClause) Distinct() *SelectClause {
	s.distinct = true
	return s
}

// IsDistinct 返回是否去重。
func (s *SelectClause) IsDistinct() bool { return s.distinct }

// Columns 返回已选择的列。
func (s *SelectClause) Columns() []string { return append([]string(nil), s.columns...) }

// Compile 编译子句。
func (s *SelectClause) Compile() (string, []any) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	if s.distinct {
		sb.WriteString("DISTINCT ")
	}
	if len(s.columns) == 0 {
		sb.WriteString("*")
		return sb.String(), []any{}
	}
	for i, col := range s.columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(s.dialect.quoteExpr(col))
	}
	return sb.String(), []any{}
}

// quoteExpr 为列添加引号，函数表达式（如 COUNT(*)）保持原样。
func (d Dialect) quoteExpr(expr string) string {
	if strings.Contains(expr, "(") {
		return expr
	}
	return d.QuoteIdentifier(expr)
}
