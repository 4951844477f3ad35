// Copyright (c) 2025 EFramework Organization. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package XOrm

import (
	"fmt"
	"sort"

	"github.com/eframework-org/GO.UTIL/XLog"
	"github.com/go-openapi/inflect"
)

// RelationKind 是关联关系的类型。
type RelationKind int

const (
	BelongsTo           RelationKind = iota // 多对一，外键在所属表
	HasOne                                  // 一对一，外键在目标表
	HasMany                                 // 一对多，外键在目标表
	HasAndBelongsToMany                     // 多对多，通过中间表关联
)

// String 返回关联关系的名称。
func (k RelationKind) String() string {
	switch k {
	case BelongsTo:
		return "BelongsTo"
	case HasOne:
		return "HasOne"
	case HasMany:
		return "HasMany"
	case HasAndBelongsToMany:
		return "HasAndBelongsToMany"
	}
	return "Unknown"
}

// Relation 描述了数据表之间的关联关系。
type Relation struct {
	Kind       RelationKind
	Name       string // 关联名称，如 user、phones
	Owner      *Table // 声明关联的数据表
	Target     *Table // 关联的目标表
	ForeignKey string // 外键列，多对多时为中间表中指向所属表的列
	TargetKey  string // 多对多时中间表中指向目标表的列
	Through    string // 多对多时的中间表
}

// foreignKeyOf 返回指向数据表的默认外键名，如 users 对应 user_id。
func foreignKeyOf(table *Table) string {
	return inflect.Singularize(table.Name) + "_id"
}

// BelongsTo 声明所属关系，如 phones 属于 users，外键 user_id 在当前表中，关联名称为 user。
func (t *Table) BelongsTo(target *Table, foreignKey ...string) *Table {
	relation := &Relation{Kind: BelongsTo, Name: inflect.Singularize(target.Name), Owner: t, Target: target}
	relation.ForeignKey = firstOr(foreignKey, foreignKeyOf(target))
	if !t.HasColumn(relation.ForeignKey) {
		XLog.Panic("XOrm.Table.BelongsTo(%v): column %v is not in columns of %v.", target.Name, relation.ForeignKey, t.Name)
	}
	return t.relate(relation)
}

// HasOne 声明一对一关系，如 users 拥有一个 cards，外键 user_id 在目标表中，关联名称为 card。
func (t *Table) HasOne(target *Table, foreignKey ...string) *Table {
	relation := &Relation{Kind: HasOne, Name: inflect.Singularize(target.Name), Owner: t, Target: target}
	relation.ForeignKey = firstOr(foreignKey, foreignKeyOf(t))
	if !target.HasColumn(relation.ForeignKey) {
		XLog.Panic("XOrm.Table.HasOne(%v): column %v is not in columns of %v.", target.Name, relation.ForeignKey, target.Name)
	}
	return t.relate(relation)
}

// HasMany 声明一对多关系，如 users 拥有多个 phones，外键 user_id 在目标表中，关联名称为 phones。
func (t *Table) HasMany(target *Table, foreignKey ...string) *Table {
	relation := &Relation{Kind: HasMany, Name: inflect.Pluralize(inflect.Singularize(target.Name)), Owner: t, Target: target}
	relation.ForeignKey = firstOr(foreignKey, foreignKeyOf(t))
	if !target.HasColumn(relation.ForeignKey) {
		XLog.Panic("XOrm.Table.HasMany(%v): column %v is not in columns of %v.", target.Name, relation.ForeignKey, target.Name)
	}
	return t.relate(relation)
}

// HasAndBelongsToMany 声明多对多关系，中间表默认为两个表名按字典序以 _ 连接，如 articles_tags。
// 中间表中的列默认为 article_id 和 tag_id。
func (t *Table) HasAndBelongsToMany(target *Table, through ...string) *Table {
	names := []string{t.Name, target.Name}
	sort.Strings(names)
	relation := &Relation{
		Kind:       HasAndBelongsToMany,
		Name:       target.Name,
		Owner:      t,
		Target:     target,
		ForeignKey: foreignKeyOf(t),
		TargetKey:  foreignKeyOf(target),
		Through:    firstOr(through, names[0]+"_"+names[1]),
	}
	return t.relate(relation)
}

func (t *Table) relate(relation *Relation) *Table {
	tableMutex.Lock()
	defer tableMutex.Unlock()
	if t.relations == nil {
		t.relations = make(map[string]*Relation)
	}
	if _, exist := t.relations[relation.Name]; exist {
		XLog.Panic("XOrm.Table.%v(%v): relation %v has already been declared.", relation.Kind, t.Name, relation.Name)
	}
	t.relations[relation.Name] = relation
	return t
}

// Relation 获取已声明的关联关系，不存在时返回 nil。
func (t *Table) Relation(name string) *Relation {
	tableMutex.Lock()
	defer tableMutex.Unlock()
	return t.relations[name]
}

// Related 创建关联记录的查询构造器，关联不存在时触发 panic。
//
// 用法:
//
//	phones := user.Related("phones").OrderBy("id").Records()
func (r *Record) Related(name string) *Criteria {
	relation := r.table.Relation(name)
	if relation == nil {
		XLog.Panic("XOrm.Record.Related(%v): relation %v was not declared.", r.table.Name, name)
		return nil
	}
	return relation.criteria(r)
}

// criteria 根据关联类型生成查询构造器。
func (rel *Relation) criteria(record *Record) *Criteria {
	target := rel.Target
	switch rel.Kind {
	case BelongsTo:
		return target.Where(target.PK, record.Get(rel.ForeignKey))
	case HasOne, HasMany:
		return target.Where(rel.ForeignKey, record.PK())
	default:
		on := fmt.Sprintf("%v.%v=%v.%v", rel.Through, rel.TargetKey, target.Name, target.PK)
		return target.Criteria().
			Select(target.Name+".*").
			Join(rel.Through, on).
			Where(rel.Through+"."+rel.ForeignKey, record.PK())
	}
}

func firstOr(values []string, def string) string {
	if len(values) > 0 && values[0] != "" {
		return values[0]
	}
	return def
}
