package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

type poolStat struct {
	desc  *prometheus.Desc
	value func(s *pgxpool.Stat) float64
}

func newPoolStat(name, help string, value func(s *pgxpool.Stat) float64) poolStat {
	return poolStat{
		desc:  prometheus.NewDesc("cardsheet_pgxpool_"+name, help, []string{"pool"}, nil),
		value: value,
	}
}

// PoolCollector implements prometheus.Collector for pgxpool statistics.
// Stats are read during each scrape; nothing polls in the background.
type PoolCollector struct {
	pools map[string]*pgxpool.Pool
	stats []poolStat
}

// NewPoolCollector exports the stats of each named pool. The service
// registers its entry store pool as "entries".
func NewPoolCollector(pools map[string]*pgxpool.Pool) *PoolCollector {
	return &PoolCollector{
		pools: pools,
		stats: []poolStat{
			newPoolStat("acquire_count", "Cumulative count of successful connection acquires.",
				func(s *pgxpool.Stat) float64 { return float64(s.AcquireCount()) }),
			newPoolStat("acquire_duration_seconds", "Cumulative time spent acquiring connections.",
				func(s *pgxpool.Stat) float64 { return s.AcquireDuration().Seconds() }),
			newPoolStat("acquired_conns", "Number of currently acquired connections.",
				func(s *pgxpool.Stat) float64 { return float64(s.AcquiredConns()) }),
			newPoolStat("canceled_acquire_count", "Cumulative count of acquires canceled by context.",
				func(s *pgxpool.Stat) float64 { return float64(s.CanceledAcquireCount()) }),
			newPoolStat("constructing_conns", "Number of connections currently being constructed.",
				func(s *pgxpool.Stat) float64 { return float64(s.ConstructingConns()) }),
			newPoolStat("empty_acquire_count", "Cumulative count of acquires from an empty pool.",
				func(s *pgxpool.Stat) float64 { return float64(s.EmptyAcquireCount()) }),
			newPoolStat("idle_conns", "Number of idle connections in the pool.",
				func(s *pgxpool.Stat) float64 { return float64(s.IdleConns()) }),
			newPoolStat("max_conns", "Maximum number of connections allowed.",
				func(s *pgxpool.Stat) float64 { return float64(s.MaxConns()) }),
			newPoolStat("max_idle_destroy_count", "Cumulative count of connections destroyed due to idle timeout.",
				func(s *pgxpool.Stat) float64 { return float64(s.MaxIdleDestroyCount()) }),
			newPoolStat("max_lifetime_destroy_count", "Cumulative count of connections destroyed due to max lifetime.",
				func(s *pgxpool.Stat) float64 { return float64(s.MaxLifetimeDestroyCount()) }),
			newPoolStat("new_conns_count", "Cumulative count of new connections created.",
				func(s *pgxpool.Stat) float64 { return float64(s.NewConnsCount()) }),
			newPoolStat("total_conns", "Total number of connections in the pool.",
				func(s *pgxpool.Stat) float64 { return float64(s.TotalConns()) }),
		},
	}
}

// Describe implements prometheus.Collector.
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, s := range c.stats {
		ch <- s.desc
	}
}

// Collect implements prometheus.Collector.
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	for name, pool := range c.pools {
		stat := pool.Stat()
		for _, s := range c.stats {
			ch <- prometheus.MustNewConstMetric(s.desc, prometheus.GaugeValue, s.value(stat), name)
		}
	}
}
