// Copyright (c) 2025 EFramework Organization. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package XOrm

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsInfo 定义了全局的统计信息，标签为数据库别名和操作类型。
type metricsInfo struct {
	Query   *prometheus.CounterVec   // 查询执行总数
	Error   *prometheus.CounterVec   // 查询失败总数
	Elapsed *prometheus.HistogramVec // 查询耗时（秒）
}

var sharedMetrics = newMetrics(prometheus.DefaultRegisterer)

// newMetrics 创建统计信息并注册至 registerer。
func newMetrics(registerer prometheus.Registerer) *metricsInfo {
	labels := []string{"alias", "action"}
	metrics := &metricsInfo{
		Query: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orm_query_total",
			Help: "The total number of executed queries.",
		}, labels),
		Error: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orm_query_error_total",
			Help: "The total number of failed queries.",
		}, labels),
		Elapsed: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "orm_query_seconds",
			Help:    "The elapsed seconds of executed queries.",
			Buckets: prometheus.DefBuckets,
		}, labels),
	}
	if registerer != nil {
		registerer.MustRegister(metrics.Query, metrics.Error, metrics.Elapsed)
	}
	return metrics
}

// observe 记录一次查询的执行结果。
func (m *metricsInfo) observe(alias, action string, start time.Time, err error) {
	m.Query.WithLabelValues(alias, action).Inc()
	m.Elapsed.WithLabelValues(alias, action).Observe(time.Since(start).Seconds())
	if err != nil {
		m.Error.WithLabelValues(alias, action).Inc()
	}
}

// 提供了统计信息的全局访问点。
func Metrics() *metricsInfo {
	return sharedMetrics
}
