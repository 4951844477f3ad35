// Copyright (c) 2025 EFramework Organization. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package XOrm

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/eframework-org/GO.UTIL/XLog"
	"github.com/eframework-org/GO.UTIL/XString"
	"github.com/eframework-org/GO.UTIL/XTime"
	"github.com/petermattis/goid"
)

// 操作类型，同时作为统计信息的 action 标签。
const (
	actionRead   = "read"   // 查询记录
	actionAggre  = "aggre"  // 计数和聚合
	actionWrite  = "write"  // 插入和更新
	actionDelete = "delete" // 删除记录
)

var (
	// contextID 是上下文 ID 的原子计数器，用于生成唯一的会话标识。
	contextID int64

	// contextMap 存储了上下文映射，键为 goroutine ID，值为 context 实例。
	contextMap sync.Map

	// contextPool 是上下文对象池，用于复用 context 实例。
	contextPool = sync.Pool{New: func() any { return new(context) }}
)

// context 定义了会话的统计信息，记录会话期间各类操作的次数和耗时（微秒）。
type context struct {
	time          int   // 会话开始时间
	readCount     int64 // 查询操作次数
	readElapsed   int64 // 查询操作耗时
	aggreCount    int64 // 聚合操作次数
	aggreElapsed  int64 // 聚合操作耗时
	writeCount    int64 // 写入操作次数
	writeElapsed  int64 // 写入操作耗时
	deleteCount   int64 // 删除操作次数
	deleteElapsed int64 // 删除操作耗时
}

// reset 重置上下文状态。
func (ctx *context) reset() {
	ctx.time = 0
	ctx.readCount = 0
	ctx.readElapsed = 0
	ctx.aggreCount = 0
	ctx.aggreElapsed = 0
	ctx.writeCount = 0
	ctx.writeElapsed = 0
	ctx.deleteCount = 0
	ctx.deleteElapsed = 0
}

// record 记录一次操作的耗时。
func (ctx *context) record(action string, elapsed int64) {
	switch action {
	case actionRead:
		atomic.AddInt64(&ctx.readCount, 1)
		atomic.AddInt64(&ctx.readElapsed, elapsed)
	case actionAggre:
		atomic.AddInt64(&ctx.aggreCount, 1)
		atomic.AddInt64(&ctx.aggreElapsed, elapsed)
	case actionWrite:
		atomic.AddInt64(&ctx.writeCount, 1)
		atomic.AddInt64(&ctx.writeElapsed, elapsed)
	case actionDelete:
		atomic.AddInt64(&ctx.deleteCount, 1)
		atomic.AddInt64(&ctx.deleteElapsed, elapsed)
	}
}

// getContext 根据 goroutine ID 获取上下文实例。
func getContext(gid ...int64) *context {
	var ggid int64 = 0
	if len(gid) > 0 {
		ggid = gid[0]
	} else {
		ggid = goid.Get()
	}
	var ctx *context
	value, _ := contextMap.Load(ggid)
	if value != nil {
		ctx = value.(*context)
	}
	return ctx
}

// Watch 开始会话监控。
// 函数获取当前 goroutine ID，生成新的会话 ID，从对象池获取上下文实例并记录开始时间，
// 会话期间当前 goroutine 执行的查询会被统计至该上下文中，并返回新分配的会话 ID。
//
// 使用示例：
//
//	sid := Watch()        // 开始会话监控。
//	defer Defer()         // 结束会话监控。
func Watch() int {
	gid := goid.Get()
	sid := int(atomic.AddInt64(&contextID, 1))
	ctx := contextPool.Get().(*context)
	ctx.time = XTime.GetMicrosecond()
	contextMap.Store(gid, ctx)

	tag := XLog.Tag()
	if tag != nil { // 设置日志标签
		tag.Set("Go", XString.ToString(int(gid)))
		tag.Set("Context", XString.ToString(sid))
	}

	XLog.Info("XOrm.Watch: context has been started.")
	return sid
}

// Defer 结束会话监控，输出会话期间各类操作的次数和耗时并回收上下文实例。
// 此函数应通过 defer 调用，确保每个 Watch 都有对应的 Defer。
func Defer() {
	gid := goid.Get()
	val, _ := contextMap.LoadAndDelete(gid)
	if val == nil {
		XLog.Error("XOrm.Defer: context was not found.")
		return
	}

	ctx := val.(*context)
	if XLog.Able(XLog.LevelInfo) {
		otherCost := int64(XTime.GetMicrosecond() - ctx.time)
		var crudLog string
		if ctx.readCount > 0 {
			crudLog += fmt.Sprintf("[Read(%v):%.2fms] ", ctx.readCount, float64(ctx.readElapsed)/1e3)
			otherCost -= ctx.readElapsed
		}
		if ctx.aggreCount > 0 {
			crudLog += fmt.Sprintf("[Aggre(%v):%.2fms] ", ctx.aggreCount, float64(ctx.aggreElapsed)/1e3)
			otherCost -= ctx.aggreElapsed
		}
		if ctx.writeCount > 0 {
			crudLog += fmt.Sprintf("[Write(%v):%.2fms] ", ctx.writeCount, float64(ctx.writeElapsed)/1e3)
			otherCost -= ctx.writeElapsed
		}
		if ctx.deleteCount > 0 {
			crudLog += fmt.Sprintf("[Delete(%v):%.2fms] ", ctx.deleteCount, float64(ctx.deleteElapsed)/1e3)
			otherCost -= ctx.deleteElapsed
		}
		XLog.Info("XOrm.Defer: context has been deferred, elapsed %.2fms for %v[Other:%.2fms].",
			float64((XTime.GetMicrosecond()-ctx.time))/1e3,
			crudLog,
			float64(otherCost)/1e3)
	}
	ctx.reset()
	contextPool.Put(ctx)
}
