package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 数据库查询延迟（秒）
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"operation", "table"},
	)

	// 慢查询计数
	SlowQueryCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "db_slow_query_count",
			Help: "Total number of slow database queries",
		},
	)

	// 文章入库计数
	ArticleIngestedCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "article_ingested_count",
			Help: "Total number of articles ingested",
		},
		[]string{"category", "result"}, // result: created, duplicate, failed
	)

	// 关键词观测计数
	KeywordObservedCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keyword_observed_count",
			Help: "Total number of keyword observations processed",
		},
		[]string{"result"}, // result: applied, duplicate, failed
	)

	// Digest 构建延迟（秒）
	DigestBuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "digest_build_duration_seconds",
			Help:    "Digest assembly duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
		},
		[]string{"digest_type", "result"},
	)

	// 搜索查询延迟（秒）
	SearchQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "search_query_duration_seconds",
			Help:    "Full-text search query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"kind"}, // kind: fulltext, fuzzy
	)

	// MQ 消费延迟（毫秒）
	MQConsumeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mq_consume_latency_ms",
			Help:    "MQ message consumption latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10ms to ~10s
		},
		[]string{"routing_key", "queue"},
	)
)

// RecordDBQueryDuration 记录数据库查询延迟
func RecordDBQueryDuration(operation, table string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// IncrementSlowQuery 增加慢查询计数
func IncrementSlowQuery() {
	SlowQueryCount.Inc()
}

// IncrementArticleIngested 增加文章入库计数
func IncrementArticleIngested(category, result string) {
	ArticleIngestedCount.WithLabelValues(category, result).Inc()
}

// IncrementKeywordObserved 增加关键词观测计数
func IncrementKeywordObserved(result string) {
	KeywordObservedCount.WithLabelValues(result).Inc()
}

// RecordDigestBuildDuration 记录 digest 构建延迟
func RecordDigestBuildDuration(digestType, result string, duration time.Duration) {
	DigestBuildDuration.WithLabelValues(digestType, result).Observe(duration.Seconds())
}

// RecordSearchQueryDuration 记录搜索查询延迟
func RecordSearchQueryDuration(kind string, duration time.Duration) {
	SearchQueryDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordMQConsumeLatency 记录 MQ 消费延迟
func RecordMQConsumeLatency(routingKey, queue string, duration time.Duration) {
	MQConsumeLatency.WithLabelValues(routingKey, queue).Observe(float64(duration.Milliseconds()))
}
