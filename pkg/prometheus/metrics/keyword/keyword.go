package keyword

const Namespace = "tv_display"

const (
	TotalHttpRequestsMetricName    = "http_requests_total"
	HttpResponseStatusesMetricName = "http_response_statuses_total"
	HttpResponseTimeMsMetricName   = "http_response_time_seconds"

	CacheLookupsMetricName   = "cache_lookups_total"
	CacheEvictionsMetricName = "cache_evictions_total"
	CacheEntriesMetricName   = "cache_entries"
	CacheBytesMetricName     = "cache_bytes"

	FetchesMetricName       = "resource_fetches_total"
	RetryAttemptsMetricName = "resource_retry_attempts"
	FallbackMetricName      = "fallback_mode"

	OnlineMetricName     = "network_online"
	NetworkRTTMetricName = "network_rtt_seconds"

	CarouselItemsMetricName = "carousel_items"
	CarouselIndexMetricName = "carousel_index"

	PerfSampleMetricName  = "perf_sample"
	PerfWarningMetricName = "perf_warnings_total"
)
