// Copyright (c) 2025 EFramework Organization. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package XClause

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Match 检查数据行是否满足子句的条件。
// 求值遵循 SQL 的优先级：AND 先于 OR 结合，与 Compile 生成的片段语义一致。
// 列名优先按完整名称查找，找不到时使用最后一段（如 users.age 回退至 age）。
// 未添加任何条件时返回 true。
func (c *ConditionClause) Match(row map[string]any) bool {
	if c.IsEmpty() {
		return true
	}

	term := true
	if c.on[0] != "" {
		left, lok := lookupColumn(row, c.on[0])
		right, rok := lookupColumn(row, c.on[1])
		term = lok && rok && equalValue(left, right)
	}
	for i, group := range c.groups {
		if group.or && (i > 0 || c.on[0] != "") {
			if term {
				return true
			}
			term = true
		}
		if !term {
			continue
		}
		for _, pred := range group.predicates {
			if !pred.Match(row) {
				term = false
				break
			}
		}
	}
	return term
}

// Match 检查数据行是否满足谓词。
func (p Predicate) Match(row map[string]any) bool {
	value, exist := lookupColumn(row, p.Column)
	switch p.Operator {
	case OpIsNull:
		return isNullValue(value)
	case OpIsNotNull:
		return exist && !isNullValue(value)
	}
	if !exist || isNullValue(value) {
		return false // SQL 中与 NULL 的比较结果均不为真
	}

	switch p.Operator {
	case OpEq:
		return equalValue(value, p.Value)
	case OpNeq:
		return !equalValue(value, p.Value)
	case OpIn, OpNotIn:
		found := false
		for _, elem := range listOf(p.Value) {
			if equalValue(value, elem) {
				found = true
				break
			}
		}
		return found == (p.Operator == OpIn)
	case OpLike, OpNotLike:
		matched := likePattern(fmt.Sprint(p.Value)).MatchString(fmt.Sprint(value))
		return matched == (p.Operator == OpLike)
	case OpGt, OpGte, OpLt, OpLte:
		cmp, ok := compareValue(value, p.Value)
		if !ok {
			return false
		}
		switch p.Operator {
		case OpGt:
			return cmp > 0
		case OpGte:
			return cmp >= 0
		case OpLt:
			return cmp < 0
		default:
			return cmp <= 0
		}
	case OpBetween, OpNotBetween:
		elems := listOf(p.Value)
		lo, ok1 := compareValue(value, elems[0])
		hi, ok2 := compareValue(value, elems[1])
		if !ok1 || !ok2 {
			return false
		}
		return (lo >= 0 && hi <= 0) == (p.Operator == OpBetween)
	default:
		return false
	}
}

// lookupColumn 查找列的值。
func lookupColumn(row map[string]any, column string) (any, bool) {
	if value, ok := row[column]; ok {
		return value, true
	}
	if idx := strings.LastIndex(column, "."); idx >= 0 {
		value, ok := row[column[idx+1:]]
		return value, ok
	}
	return nil, false
}

// isNullValue 判断是否为空值。
func isNullValue(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}

// equalValue 判断两个值是否相等，数值之间（包括数值字符串）按数值比较。
func equalValue(a, b any) bool {
	if cmp, ok := compareValue(a, b); ok {
		return cmp == 0
	}
	return reflect.DeepEqual(a, b)
}

// compareValue 比较两个值，返回 -1、0、1，无法比较时返回 false。
func compareValue(a, b any) (int, bool) {
	if na, ok := toFloat64(a); ok {
		if nb, ok := toFloat64(b); ok {
			return compareOrdered(na, nb), true
		}
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb), true
		}
	}
	sa, ok1 := a.(string)
	sb, ok2 := b.(string)
	if ok1 && ok2 {
		return strings.Compare(sa, sb), true
	}
	if ba, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok && ba == bb {
			return 0, true
		}
	}
	return 0, false
}

func compareOrdered(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// toFloat64 是 Float64 类型转换辅助函数，数值字符串同样会被转换，NaN 和 Inf 字符串不视为数值。
func toFloat64(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}

	switch val := v.(type) {
	case float32:
		return float64(val), !math.IsNaN(float64(val))
	case float64:
		return val, !math.IsNaN(val)
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return float64(rv.Int()), true
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return float64(rv.Uint()), true
		case reflect.Float32, reflect.Float64:
			return rv.Float(), !math.IsNaN(rv.Float())
		}
		return 0, false
	}
}

// likeCache 缓存 LIKE 模式对应的正则表达式。
var likeCache sync.Map

// likePattern 将 LIKE 模式转换为正则表达式，% 匹配任意字符串，_ 匹配单个字符。
func likePattern(pattern string) *regexp.Regexp {
	if cached, ok := likeCache.Load(pattern); ok {
		return cached.(*regexp.Regexp)
	}
	var sb strings.Builder
	sb.WriteString("(?is)^")
	for _, ch := range pattern {
		switch ch {
		case '%':
			sb.WriteString(".*")
		case '_':
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(ch)))
		}
	}
	sb.WriteString("$")
	re := regexp.MustCompile(sb.String())
	likeCache.Store(pattern, re)
	return re
}
