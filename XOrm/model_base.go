// Copyright (c) 2025 EFramework Organization. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package XOrm

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/beego/beego/v2/client/orm"
	"github.com/eframework-org/GO.RECORD/XClause"
	"github.com/eframework-org/GO.UTIL/XLog"
)

// Record 是数据表中的一条记录，属性以列名为键存储。
// Record 实例不是线程安全的。
type Record struct {
	table     *Table
	attrs     map[string]any
	origin    map[string]any
	persisted bool
}

// New 创建一条未保存的记录，kv 为列名和值交替排列的初始属性。
func (t *Table) New(kv ...any) *Record {
	record := &Record{table: t, attrs: make(map[string]any), origin: make(map[string]any)}
	XClause.NewParams(kv...).Range(func(key string, value any) bool {
		record.Set(key, value)
		return true
	})
	record.sync()
	return record
}

// load 以查询结果创建已保存的记录。
func (t *Table) load(row orm.Params) *Record {
	record := &Record{table: t, attrs: make(map[string]any, len(row)), origin: make(map[string]any), persisted: true}
	for key, value := range row {
		record.attrs[key] = value
	}
	record.sync()
	return record
}

// sync 将当前属性同步为原始属性，用于脏检查。
func (r *Record) sync() {
	r.origin = make(map[string]any, len(r.attrs))
	for key, value := range r.attrs {
		r.origin[key] = value
	}
}

// Table 返回记录所属的数据表。
func (r *Record) Table() *Table { return r.table }

// PK 返回主键的值。
func (r *Record) PK() any { return r.attrs[r.table.PK] }

// Get 获取列的值，未设置时返回 nil。
func (r *Record) Get(column string) any { return r.attrs[column] }

// Set 设置列的值，列不在数据表中时触发 panic。
func (r *Record) Set(column string, value any) *Record {
	if !r.table.HasColumn(column) {
		XLog.Panic("XOrm.Record.Set(%v): column %v was not found.", r.table.Name, column)
		return r
	}
	r.attrs[column] = value
	return r
}

// IsPersisted 判断记录是否已保存至数据库。
func (r *Record) IsPersisted() bool { return r.persisted }

// IsDirty 判断记录自上次同步后是否被修改。
// 指定 columns 时，所有列均被修改才返回 true。
func (r *Record) IsDirty(columns ...string) bool {
	dirty := make(map[string]struct{})
	for key, value := range r.attrs {
		if origin, ok := r.origin[key]; !ok || !reflect.DeepEqual(origin, value) {
			dirty[key] = struct{}{}
		}
	}
	if len(dirty) == 0 {
		return false
	}
	for _, column := range columns {
		if _, ok := dirty[column]; !ok {
			return false
		}
	}
	return true
}

// ToMap 返回属性的拷贝。
func (r *Record) ToMap() orm.Params {
	params := make(orm.Params, len(r.attrs))
	for key, value := range r.attrs {
		params[key] = value
	}
	return params
}

// Json 返回属性的 JSON 字符串。
func (r *Record) Json() string {
	bytes, err := json.Marshal(r.attrs)
	if err != nil {
		XLog.Error("XOrm.Record.Json(%v): %v", r.table.Name, err)
		return ""
	}
	return string(bytes)
}

// persistParams 按数据表的列顺序返回需要持久化的属性。
func (r *Record) persistParams(withPK bool) *XClause.Params {
	params := XClause.NewParams()
	for _, column := range r.table.Columns {
		if column == r.table.PK && !withPK {
			continue
		}
		params.Set(column, r.attrs[column])
	}
	return params
}

// touch 填充时间列，创建时间仅在插入且为空时设置，更新时间每次保存都会刷新。
func (r *Record) touch(params *XClause.Params, insert bool) {
	now := time.Now()
	if column := r.table.CreatedAt; column != "" && insert && r.attrs[column] == nil {
		r.attrs[column] = now
		params.Set(column, now)
	}
	if column := r.table.UpdatedAt; column != "" {
		r.attrs[column] = now
		params.Set(column, now)
	}
}

// Save 保存记录，未保存的记录执行插入，已保存的记录按主键执行更新。
// 插入时主键为空则回填自增主键。
func (r *Record) Save() bool {
	criteria := r.table.Criteria()
	if r.persisted {
		params := r.persistParams(false)
		r.touch(params, false)
		if criteria.Where(r.table.PK, r.PK()).UpdateParams(params) < 0 {
			return false
		}
	} else {
		params := r.persistParams(r.PK() != nil)
		r.touch(params, true)
		id := criteria.InsertParams(params)
		if id < 0 {
			return false
		}
		if r.PK() == nil {
			r.attrs[r.table.PK] = id
		}
		r.persisted = true
	}
	r.sync()
	return true
}

// UpdateAttributes 设置并更新指定的列，记录未保存时触发 panic。
func (r *Record) UpdateAttributes(kv ...any) bool {
	if !r.persisted {
		XLog.Panic("XOrm.Record.UpdateAttributes(%v): record has not been persisted.", r.table.Name)
		return false
	}
	params := XClause.NewParams(kv...)
	params.Range(func(key string, value any) bool {
		r.Set(key, value)
		return true
	})
	r.touch(params, false)
	if r.table.Criteria().Where(r.table.PK, r.PK()).UpdateParams(params) < 0 {
		return false
	}
	r.sync()
	return true
}

// Delete 按主键删除记录，返回受影响的行数，失败时返回 -1，记录未保存时触发 panic。
func (r *Record) Delete() int {
	if !r.persisted {
		XLog.Panic("XOrm.Record.Delete(%v): record has not been persisted.", r.table.Name)
		return -1
	}
	affected := r.table.Criteria().Where(r.table.PK, r.PK()).Delete()
	if affected > 0 {
		r.persisted = false
	}
	return affected
}

// Matchs 检查记录是否满足条件，条件为空时返回 true。
//
// 用法:
//
//	record.Matchs(XClause.Where(XClause.MySQL).And("age__gte", 18))
func (r *Record) Matchs(cond *XClause.ConditionClause) bool {
	if cond == nil {
		return true
	}
	return cond.Match(r.attrs)
}

// Records 查询所有匹配的记录，查询构造器必须由 Table 创建。
func (c *Criteria) Records() []*Record {
	table := c.mustModel("Records")
	rows := c.All()
	records := make([]*Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, table.load(row))
	}
	return records
}

// FirstRecord 查询第一条记录，不存在时返回 nil。
func (c *Criteria) FirstRecord() *Record {
	table := c.mustModel("FirstRecord")
	if row := c.First(); row != nil {
		return table.load(row)
	}
	return nil
}

// LastRecord 查询最后一条记录，不存在时返回 nil。
func (c *Criteria) LastRecord() *Record {
	table := c.mustModel("LastRecord")
	if row := c.Last(); row != nil {
		return table.load(row)
	}
	return nil
}

func (c *Criteria) mustModel(name string) *Table {
	if c.model == nil {
		XLog.Panic("XOrm.Criteria.%v(%v): criteria was not created by table.", name, c.table)
	}
	return c.model
}
