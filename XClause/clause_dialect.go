// Copyright (c) 2025 EFramework Organization. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package XClause

import "strings"

// Dialect 定义了标识符的引号和参数占位符。
type Dialect struct {
	Quote  string // 标识符引号
	Marker string // 参数占位符，每个绑定参数重复一次
}

var (
	// MySQL 使用反引号和 ? 占位符。
	MySQL = Dialect{Quote: "`", Marker: "?"}

	// PostgreSQL 使用双引号，占位符由 beego 转换为 $n 的形式。
	PostgreSQL = Dialect{Quote: `"`, Marker: "?"}

	// SQLite 使用反引号和 ? 占位符。
	SQLite = Dialect{Quote: "`", Marker: "?"}
)

// QuoteIdentifier 按 . 分段为标识符添加引号，如 users.age 转换为 `users`.`age`。
// * 不会被添加引号。
func (d Dialect) QuoteIdentifier(name string) string {
	parts := strings.Split(name, ".")
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "*" {
			parts[i] = part
			continue
		}
		parts[i] = d.Quote + part + d.Quote
	}
	return strings.Join(parts, ".")
}
