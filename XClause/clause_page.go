// Copyright (c) 2025 EFramework Organization. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package XClause

import (
	"strconv"
	"strings"

	"github.com/eframework-org/GO.UTIL/XLog"
)

// PageClause 实现了 LIMIT/OFFSET 子句。
type PageClause struct {
	limit  int // 分页限制，-1 表示未设置
	offset int // 分页偏移，-1 表示未设置
}

// Page 创建 LIMIT/OFFSET 子句。
func Page() *PageClause {
	return &PageClause{limit: -1, offset: -1}
}

// Limit 设置分页限制。
func (p *PageClause) Limit(n int) *PageClause {
	if n < 0 {
		XLog.Panic("XClause.PageClause.Limit: negative limit %v.", n)
		return p
	}
	p.limit = n
	return p
}

// Offset 设置分页偏移。
func (p *PageClause) Offset(n int) *PageClause {
	if n < 0 {
		XLog.Panic("XClause.PageClause.Offset: negative offset %v.", n)
		return p
	}
	p.offset = n
	return p
}

// Page 按页码（从 1 开始）和每页数量设置分页。
func (p *PageClause) Page(num, perPage int) *PageClause {
	if num < 1 || perPage < 0 {
		XLog.Panic("XClause.PageClause.Page(%v, %v): page number starts from 1.", num, perPage)
		return p
	}
	p.limit = perPage
	p.offset = perPage * (num - 1)
	return p
}

// Values 返回分页限制和偏移，-1 表示未设置。
func (p *PageClause) Values() (limit, offset int) { return p.limit, p.offset }

// IsEmpty 判断是否未设置分页。
func (p *PageClause) IsEmpty() bool { return p.limit < 0 && p.offset < 0 }

// Compile 编译子句。
func (p *PageClause) Compile() (string, []any) {
	parts := make([]string, 0, 2)
	if p.limit >= 0 {
		parts = append(parts, "LIMIT "+strconv.Itoa(p.limit))
	}
	if p.offset >= 0 {
		parts = append(parts, "OFFSET "+strconv.Itoa(p.offset))
	}
	return strings.Join(parts, " "), []any{}
}
