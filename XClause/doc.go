// Copyright (c) 2025 EFramework Organization. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

/*
XClause 实现了 SQL 子句的编译器，将链式调用累积的条件编译为带参数占位符的 SQL 片段。

功能特性

  - 后缀语法：通过 __gt、__not、__bt 等后缀描述操作符
  - 稳定顺序：条件按调用顺序和键值的插入顺序编译，绑定参数与占位符一一对应
  - 方言无关：标识符引号和参数占位符在构造时注入
  - 内存匹配：条件子句可直接对数据行求值

使用手册

1. 条件子句

WHERE、HAVING 及 JOIN 子句共享同一套条件累积和编译逻辑：

	sql, args := XClause.Where(XClause.MySQL).
	    And("id", []int{1, 2, 3}).
	    Or("name__like", "%test%", "age__gt", 18).
	    Compile()
	// WHERE `id` IN (?, ?, ?) OR `name` LIKE ? AND `age` > ?
	// [1 2 3 %test% 18]

同一次 And 或 Or 调用中的多个条件之间以 AND 连接，调用本身的连接符决定该组条件与之前的条件如何连接。

2. 操作符

	| 键名           | 值       | SQL                      |
	|---------------|----------|--------------------------|
	| id            | 1        | `id` = ?                 |
	| id            | []int{}  | `id` IN (...)            |
	| id            | nil      | `id` IS NULL             |
	| id__not       | 1        | `id` <> ?                |
	| id__not       | []int{}  | `id` NOT IN (...)        |
	| id__not       | nil      | `id` IS NOT NULL         |
	| age__gt       | 18       | `age` > ?                |
	| age__gte      | 18       | `age` >= ?               |
	| age__lt       | 18       | `age` < ?                |
	| age__lte      | 18       | `age` <= ?               |
	| name__like    | "%a%"    | `name` LIKE ?            |
	| name__not_like| "%a%"    | `name` NOT LIKE ?        |
	| age__bt       | [2]int{} | `age` BETWEEN ? AND ?    |
	| age__not_bt   | [2]int{} | `age` NOT BETWEEN ? AND ?|

无法识别的后缀会作为列名的一部分按等值处理；列名中的双下划线等价于 .，如 users__age__gt 对应 `users`.`age` > ?。

3. 连接子句

	sql, args := XClause.Join(XClause.MySQL, "mobiles").
	    On("users.id=mobiles.user_id").
	    And("mobiles__name", "iphone").
	    Compile()
	// INNER JOIN `mobiles` ON `users`.`id` = `mobiles`.`user_id` AND `mobiles`.`name` = ?

4. 其他子句

	XClause.Order(XClause.MySQL).By("email").By("age", true) // ORDER BY `email`, `age` DESC
	XClause.Group(XClause.MySQL).By("id", "email")          // GROUP BY `id`, `email`
	XClause.Select(XClause.MySQL).Select("name").Distinct() // SELECT DISTINCT `name`
	XClause.Page().Page(2, 15)                              // LIMIT 15 OFFSET 15

注意事项：
1. BETWEEN 的值必须为两个元素的列表，否则会触发 panic
2. 未添加任何内容的子句编译为空字符串（SELECT 子句除外，编译为 SELECT *）
3. 子句实例不是线程安全的，编译结果可以被安全地共享
*/
package XClause
