// Copyright (c) 2025 EFramework Organization. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package XOrm

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/eframework-org/GO.UTIL/XLog"
	"github.com/eframework-org/GO.UTIL/XString"
	"github.com/go-openapi/inflect"
)

// ErrRecordNotFound 表示按主键查找的记录不存在。
var ErrRecordNotFound = errors.New("XOrm: record not found")

// Table 描述了数据表的元信息，通过 Meta 注册后使用。
type Table struct {
	Alias     string   // 数据库别名
	Name      string   // 数据表名
	PK        string   // 主键列，默认为 id
	Columns   []string // 数据列
	CreatedAt string   // 创建时间列，为空时不记录
	UpdatedAt string   // 更新时间列，为空时不记录

	columns   map[string]struct{}
	relations map[string]*Relation
}

var (
	// tableMutex 用于保护数据表注册的互斥锁。
	tableMutex sync.Mutex

	// tableMap 存储了已注册的数据表，键为 "数据库别名_表名"。
	tableMap = make(map[string]*Table)
)

// Tableize 根据类型名称生成数据表名，如 UserProfile 对应 user_profiles。
func Tableize(typeName string) string {
	return inflect.Pluralize(inflect.Underscore(typeName))
}

// Meta 注册一个数据表并返回该数据表。
// 主键默认为 id，主键及时间列必须包含在 Columns 中。
// 如果数据表为 nil、列不合法或已注册，将触发 panic。
func Meta(table *Table) *Table {
	if table == nil {
		XLog.Panic("XOrm.Meta: nil table instance.")
		return nil
	}
	if XString.IsEmpty(table.Name) {
		XLog.Panic("XOrm.Meta: table name of alias %v is empty.", table.Alias)
		return nil
	}
	if XString.IsEmpty(table.PK) {
		table.PK = "id"
	}

	table.columns = make(map[string]struct{}, len(table.Columns))
	for _, column := range table.Columns {
		table.columns[column] = struct{}{}
	}
	for _, column := range []string{table.PK, table.CreatedAt, table.UpdatedAt} {
		if column != "" && !table.HasColumn(column) {
			XLog.Panic("XOrm.Meta(%v): column %v is not in columns.", table.Name, column)
			return nil
		}
	}

	tableMutex.Lock()
	defer tableMutex.Unlock()

	unique := table.ModelUnique()
	if _, exist := tableMap[unique]; exist {
		XLog.Panic("XOrm.Meta(%v): table has already been registered.", unique)
		return nil
	}
	if table.relations == nil {
		table.relations = make(map[string]*Relation)
	}
	tableMap[unique] = table
	return table
}

// GetTable 获取已注册的数据表，未注册时返回 nil。
func GetTable(alias, name string) *Table {
	tableMutex.Lock()
	defer tableMutex.Unlock()
	return tableMap[fmt.Sprintf("%v_%v", alias, name)]
}

// ModelUnique 返回数据表的唯一标识，格式为 "数据库别名_表名"。
func (t *Table) ModelUnique() string {
	return fmt.Sprintf("%v_%v", t.Alias, t.Name)
}

// HasColumn 判断数据表是否包含列。
func (t *Table) HasColumn(column string) bool {
	_, ok := t.columns[column]
	return ok
}

// Criteria 创建绑定该数据表的查询构造器，查询结果可通过 Records 转换为记录。
func (t *Table) Criteria() *Criteria {
	criteria := NewCriteria(t.Alias).From(t.Name)
	criteria.pk = t.PK
	criteria.model = t
	return criteria
}

// Where 创建带查询条件的查询构造器。
func (t *Table) Where(kv ...any) *Criteria {
	return t.Criteria().Where(kv...)
}

// All 查询所有记录。
func (t *Table) All() []*Record { return t.Criteria().Records() }

// First 查询第一条记录，不存在时返回 nil。
func (t *Table) First() *Record { return t.Criteria().FirstRecord() }

// Last 按主键降序查询第一条记录，不存在时返回 nil。
func (t *Table) Last() *Record { return t.Criteria().LastRecord() }

// Count 统计记录数量，失败时返回 -1。
func (t *Table) Count(column ...string) int { return t.Criteria().Count(column...) }

// Find 按主键查找记录，任意主键的记录不存在时返回 ErrRecordNotFound。
func (t *Table) Find(ids ...any) ([]*Record, error) {
	if len(ids) == 0 {
		return nil, ErrRecordNotFound
	}
	records := t.Where(t.PK, ids).Records()
	found := make(map[string]struct{}, len(records))
	for _, record := range records {
		found[fmt.Sprint(record.PK())] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := found[fmt.Sprint(id)]; !ok {
			return records, fmt.Errorf("%w: %v.%v=%v", ErrRecordNotFound, t.Name, t.PK, id)
		}
	}
	return records, nil
}

// findBy 将 fields（如 name_and_age）和 args 转换为查询条件。
func (t *Table) findBy(fields string, args []any) *Criteria {
	columns := strings.Split(fields, "_and_")
	if len(columns) != len(args) {
		XLog.Panic("XOrm.Table.FindBy(%v): %v columns but %v arguments.", fields, len(columns), len(args))
		return nil
	}
	kv := make([]any, 0, len(args)*2)
	for i, column := range columns {
		kv = append(kv, column, args[i])
	}
	return t.Where(kv...)
}

// FindBy 按列查找第一条记录，多个列之间以 _and_ 连接。
//
// 用法:
//
//	users.FindBy("name_and_age", "pengyi", 28)
func (t *Table) FindBy(fields string, args ...any) *Record {
	return t.findBy(fields, args).FirstRecord()
}

// FindAllBy 按列查找所有记录。
func (t *Table) FindAllBy(fields string, args ...any) []*Record {
	return t.findBy(fields, args).Records()
}

// FindOrInitBy 按列查找第一条记录，不存在时以查找的列初始化一条新记录（不保存）。
func (t *Table) FindOrInitBy(fields string, args ...any) *Record {
	criteria := t.findBy(fields, args)
	if record := criteria.FirstRecord(); record != nil {
		return record
	}
	return t.newBy(fields, args)
}

// FindOrCreateBy 按列查找第一条记录，不存在时以查找的列创建一条新记录。
func (t *Table) FindOrCreateBy(fields string, args ...any) *Record {
	record := t.FindOrInitBy(fields, args...)
	if !record.IsPersisted() && !record.Save() {
		return nil
	}
	return record
}

func (t *Table) newBy(fields string, args []any) *Record {
	record := t.New()
	for i, column := range strings.Split(fields, "_and_") {
		record.Set(column, args[i])
	}
	return record
}

// Create 创建并保存一条记录，失败时返回 nil。
func (t *Table) Create(kv ...any) *Record {
	record := t.New(kv...)
	if !record.Save() {
		return nil
	}
	return record
}

// UpdateAll 更新所有记录，返回受影响的行数，失败时返回 -1。
func (t *Table) UpdateAll(kv ...any) int { return t.Criteria().Update(kv...) }

// DeleteAll 删除所有记录，返回受影响的行数，失败时返回 -1。
func (t *Table) DeleteAll() int { return t.Criteria().Delete() }
