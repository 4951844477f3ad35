// Copyright (c) 2025 EFramework Organization. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package XClause

import (
	"github.com/eframework-org/GO.UTIL/XLog"
)

// Params 是保持插入顺序的键值映射，键值的顺序决定了 SQL 片段和绑定参数的顺序。
type Params struct {
	keys   []string
	values map[string]any
}

// NewParams 通过成对的键值创建映射。
//
// 用法:
//
//	XClause.NewParams("id", 1, "name__like", "%test%")
//
// 参数数量为奇数或键不是字符串时触发 panic。
func NewParams(kv ...any) *Params {
	if len(kv)%2 != 0 {
		XLog.Panic("XClause.NewParams: key/value count %v must be even.", len(kv))
		return nil
	}
	p := &Params{keys: make([]string, 0, len(kv)/2), values: make(map[string]any, len(kv)/2)}
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			XLog.Panic("XClause.NewParams: key at %v must be string, got %T.", i, kv[i])
			return nil
		}
		p.Set(key, kv[i+1])
	}
	return p
}

// Set 设置键值，已存在的键保持原有位置。
func (p *Params) Set(key string, value any) *Params {
	if p.values == nil {
		p.values = make(map[string]any)
	}
	if _, exist := p.values[key]; !exist {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
	return p
}

// Get 获取键对应的值。
func (p *Params) Get(key string) (any, bool) {
	if p == nil {
		return nil, false
	}
	value, ok := p.values[key]
	return value, ok
}

// Keys 按插入顺序返回所有键。
func (p *Params) Keys() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.keys...)
}

// Len 返回键值数量。
func (p *Params) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// Range 按插入顺序遍历，fn 返回 false 时停止。
func (p *Params) Range(fn func(key string, value any) bool) {
	if p == nil {
		return
	}
	for _, key := range p.keys {
		if !fn(key, p.values[key]) {
			return
		}
	}
}
