package cache

import "github.com/cowbatch/settlement/internal/metrics"

func recordDroppedNativePrices(n int) {
	metrics.DroppedOrders.WithLabelValues("native_price").Add(float64(n))
}

func recordCacheBlock(block uint64) {
	metrics.CacheBlock.Set(float64(block))
}
