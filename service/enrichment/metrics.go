/*
 * @module service/enrichment/metrics
 * @description 富化流水线Prometheus指标，统计富化结果分布、任务错误与处理耗时
 * @architecture 业务服务层 - 可观测性
 * @documentReference ai_docs/enrichment_pipeline_impl.md
 * @stateFlow 指标注册 -> 流水线执行时打点 -> /metrics暴露
 * @rules 指标注册到默认Registry，由main的promhttp处理器统一暴露
 * @dependencies github.com/prometheus/client_golang/prometheus
 * @refs main.go, service/enrichment/pipeline.go
 */

package enrichment

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics 富化流水线指标集
type PipelineMetrics struct {
	enrichTotal     *prometheus.CounterVec
	taskErrorsTotal *prometheus.CounterVec
	enrichDuration  prometheus.Histogram
	jobsTotal       *prometheus.CounterVec
}

// NewPipelineMetrics 创建并注册流水线指标
func NewPipelineMetrics(registerer prometheus.Registerer) *PipelineMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &PipelineMetrics{
		enrichTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "enrichhub_enrich_total",
			Help: "按结果分类的场所富化次数",
		}, []string{"result"}),
		taskErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "enrichhub_task_errors_total",
			Help: "按任务分类的富化任务错误次数",
		}, []string{"task"}),
		enrichDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "enrichhub_enrich_duration_seconds",
			Help:    "单个场所富化耗时",
			Buckets: prometheus.DefBuckets,
		}),
		jobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "enrichhub_jobs_total",
			Help: "按终态分类的富化作业数",
		}, []string{"status"}),
	}

	registerer.MustRegister(m.enrichTotal, m.taskErrorsTotal, m.enrichDuration, m.jobsTotal)
	return m
}

// ObserveEnrichment 记录一次富化结果
func (m *PipelineMetrics) ObserveEnrichment(success bool, duration time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if !success {
		result = "failure"
	}
	m.enrichTotal.WithLabelValues(result).Inc()
	m.enrichDuration.Observe(duration.Seconds())
}

// ObserveTaskError 记录一次任务错误
func (m *PipelineMetrics) ObserveTaskError(taskName string) {
	if m == nil {
		return
	}
	m.taskErrorsTotal.WithLabelValues(taskName).Inc()
}

// ObserveJobFinished 记录一次作业终态
func (m *PipelineMetrics) ObserveJobFinished(status string) {
	if m == nil {
		return
	}
	m.jobsTotal.WithLabelValues(status).Inc()
}
