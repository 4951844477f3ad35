// Copyright (c) 2025 EFramework Organization. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package XClause

import (
	"reflect"
	"strings"
	"sync"

	"github.com/eframework-org/GO.UTIL/XLog"
)

// Operator 表示谓词的比较操作符。
type Operator int

const (
	OpEq         Operator = iota // =
	OpNeq                        // <>
	OpIn                         // IN (...)
	OpNotIn                      // NOT IN (...)
	OpLike                       // LIKE
	OpNotLike                    // NOT LIKE
	OpIsNull                     // IS NULL
	OpIsNotNull                  // IS NOT NULL
	OpGt                         // >
	OpGte                        // >=
	OpLt                         // <
	OpLte                        // <=
	OpBetween                    // BETWEEN ... AND ...
	OpNotBetween                 // NOT BETWEEN ... AND ...
)

var operatorNames = [...]string{
	OpEq:         "EQ",
	OpNeq:        "NEQ",
	OpIn:         "IN",
	OpNotIn:      "NOT_IN",
	OpLike:       "LIKE",
	OpNotLike:    "NOT_LIKE",
	OpIsNull:     "IS_NULL",
	OpIsNotNull:  "IS_NOT_NULL",
	OpGt:         "GT",
	OpGte:        "GTE",
	OpLt:         "LT",
	OpLte:        "LTE",
	OpBetween:    "BETWEEN",
	OpNotBetween: "NOT_BETWEEN",
}

// String 返回操作符的名称。
func (op Operator) String() string {
	if op < 0 || int(op) >= len(operatorNames) {
		return "UNKNOWN"
	}
	return operatorNames[op]
}

// Negate 返回操作符的取反形式，比较类操作符没有取反形式，原样返回。
func (op Operator) Negate() Operator {
	switch op {
	case OpEq:
		return OpNeq
	case OpNeq:
		return OpEq
	case OpIn:
		return OpNotIn
	case OpNotIn:
		return OpIn
	case OpLike:
		return OpNotLike
	case OpNotLike:
		return OpLike
	case OpIsNull:
		return OpIsNotNull
	case OpIsNotNull:
		return OpIsNull
	case OpBetween:
		return OpNotBetween
	case OpNotBetween:
		return OpBetween
	default:
		return op
	}
}

// Key 是键名解析后的结构。
// 例如 age__gt 解析为 {Column: "age", Operator: OpGt}，
// name__not 解析为 {Column: "name", Negated: true, Implicit: true}。
type Key struct {
	Column   string   // 列名，双下划线已转换为 .
	Operator Operator // 显式后缀指定的操作符
	Negated  bool     // 是否带有 not 语义
	Implicit bool     // 操作符是否由值的类型推断
}

// suffixMap 定义了支持的后缀。
var suffixMap = map[string]Key{
	"not":      {Negated: true, Implicit: true},
	"gt":       {Operator: OpGt},
	"gte":      {Operator: OpGte},
	"lt":       {Operator: OpLt},
	"lte":      {Operator: OpLte},
	"like":     {Operator: OpLike},
	"not_like": {Operator: OpNotLike, Negated: true},
	"bt":       {Operator: OpBetween},
	"not_bt":   {Operator: OpNotBetween, Negated: true},
}

// keyCache 缓存已解析的键名
var keyCache sync.Map

// ParseKey 解析键名为列名和操作符。
// 仅最后一个双下划线之后的部分会被识别为后缀，无法识别的后缀视为列名的一部分，并按等值处理。
// 列名中剩余的双下划线会转换为 .，如 mobiles__name 对应 mobiles.name。
// 解析结果会被缓存，相同的键名只会解析一次。
func ParseKey(key string) Key {
	if cached, ok := keyCache.Load(key); ok {
		return cached.(Key)
	}

	column := key
	parsed := Key{Implicit: true}
	if idx := strings.LastIndex(key, "__"); idx > 0 {
		if suffix, ok := suffixMap[key[idx+2:]]; ok {
			parsed = suffix
			column = key[:idx]
		}
	}
	parsed.Column = strings.ReplaceAll(column, "__", ".")

	keyCache.Store(key, parsed)
	return parsed
}

// Resolve 根据值推断最终的操作符。
// 未指定后缀时：nil（包括 nil 指针）对应 IS NULL，列表对应 IN，其余对应 =；带有 not 后缀时取反。
func (k Key) Resolve(value any) Operator {
	if !k.Implicit {
		return k.Operator
	}
	op := OpEq
	if value == nil || isNilPointer(value) {
		op = OpIsNull
	} else if isList(value) {
		op = OpIn
	}
	if k.Negated {
		op = op.Negate()
	}
	return op
}

// isNilPointer 判断是否为 nil 指针，nil 切片仍按列表处理。
func isNilPointer(value any) bool {
	rv := reflect.ValueOf(value)
	return rv.Kind() == reflect.Ptr && rv.IsNil()
}

// Predicate 表示一个列、操作符和值组成的条件。
type Predicate struct {
	Column   string
	Operator Operator
	Value    any
}

// NewPredicate 通过键名和值创建谓词。
// BETWEEN 和 NOT BETWEEN 的值必须为两个元素的列表，否则触发 panic。
func NewPredicate(key string, value any) Predicate {
	parsed := ParseKey(key)
	pred := Predicate{Column: parsed.Column, Operator: parsed.Resolve(value), Value: value}
	if pred.Operator == OpBetween || pred.Operator == OpNotBetween {
		if !isList(value) || reflect.ValueOf(value).Len() != 2 {
			XLog.Panic("XClause.NewPredicate('%v'): between value must be a list of two elements, got %v.", key, value)
		}
	}
	return pred
}

// build 将谓词渲染至 sb，并追加绑定参数。
func (p Predicate) build(d Dialect, sb *strings.Builder, args []any) []any {
	sb.WriteString(d.QuoteIdentifier(p.Column))
	switch p.Operator {
	case OpEq:
		sb.WriteString(" = ")
		sb.WriteString(d.Marker)
		args = append(args, p.Value)
	case OpNeq:
		sb.WriteString(" <> ")
		sb.WriteString(d.Marker)
		args = append(args, p.Value)
	case OpIn, OpNotIn:
		if p.Operator == OpIn {
			sb.WriteString(" IN (")
		} else {
			sb.WriteString(" NOT IN (")
		}
		elems := listOf(p.Value)
		for i, elem := range elems {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(d.Marker)
			args = append(args, elem)
		}
		sb.WriteString(")")
	case OpLike:
		sb.WriteString(" LIKE ")
		sb.WriteString(d.Marker)
		args = append(args, p.Value)
	case OpNotLike:
		sb.WriteString(" NOT LIKE ")
		sb.WriteString(d.Marker)
		args = append(args, p.Value)
	case OpIsNull:
		sb.WriteString(" IS NULL")
	case OpIsNotNull:
		sb.WriteString(" IS NOT NULL")
	case OpGt, OpGte, OpLt, OpLte:
		sb.WriteString(comparisonSymbols[p.Operator])
		sb.WriteString(d.Marker)
		args = append(args, p.Value)
	case OpBetween, OpNotBetween:
		if p.Operator == OpBetween {
			sb.WriteString(" BETWEEN ")
		} else {
			sb.WriteString(" NOT BETWEEN ")
		}
		elems := listOf(p.Value)
		sb.WriteString(d.Marker)
		sb.WriteString(" AND ")
		sb.WriteString(d.Marker)
		args = append(args, elems[0], elems[1])
	}
	return args
}

var comparisonSymbols = map[Operator]string{
	OpGt:  " > ",
	OpGte: " >= ",
	OpLt:  " < ",
	OpLte: " <= ",
}

// isList 判断值是否为列表（切片或数组），[]byte 视为标量。
func isList(value any) bool {
	if value == nil {
		return false
	}
	if _, ok := value.([]byte); ok {
		return false
	}
	kind := reflect.TypeOf(value).Kind()
	return kind == reflect.Slice || kind == reflect.Array
}

// listOf 将列表展开为 []any，非列表值视为单元素列表。
func listOf(value any) []any {
	if !isList(value) {
		return []any{value}
	}
	if elems, ok := value.([]any); ok {
		return elems
	}
	rv := reflect.ValueOf(value)
	elems := make([]any, rv.Len())
	for i := range rv.Len() {
		elems[i] = rv.Index(i).Interface()
	}
	return elems
}
