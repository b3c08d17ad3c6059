package metrics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	gethmetrics "github.com/ethereum/go-ethereum/metrics"
	"github.com/ethereum/go-ethereum/metrics/exp"
	"github.com/ethereum/go-ethereum/metrics/influxdb"
)

const namespace = "dumpglory."

var (
	// ErrExclusiveExport is returned when both InfluxDB exporters are requested.
	ErrExclusiveExport = errors.New("metrics: influxdb and influxdb v2 export are mutually exclusive")

	processCPUGauge = gethmetrics.NewRegisteredGauge("dumpglory/cpu/process", nil)
)

// Setup enables metric collection and starts every exporter requested by cfg.
// It is a no-op when collection is disabled.
func Setup(cfg Config) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.EnableInfluxDB && cfg.EnableInfluxDBV2 {
		return ErrExclusiveExport
	}
	gethmetrics.Enabled = true
	gethmetrics.EnabledExpensive = cfg.EnabledExpensive
	log.Info("Enabling metrics collection")

	refresh := time.Duration(cfg.Refresh) * time.Second
	if refresh == 0 {
		refresh = 3 * time.Second
	}
	go gethmetrics.CollectProcessMetrics(refresh)
	go collectCPUTime(refresh)

	tags := SplitTags(cfg.InfluxDBTags)
	switch {
	case cfg.EnableInfluxDB:
		log.Info("Enabling metrics export to InfluxDB", "endpoint", cfg.InfluxDBEndpoint)
		go influxdb.InfluxDBWithTags(gethmetrics.DefaultRegistry, 10*time.Second, cfg.InfluxDBEndpoint,
			cfg.InfluxDBDatabase, cfg.InfluxDBUsername, cfg.InfluxDBPassword, namespace, tags)
	case cfg.EnableInfluxDBV2:
		log.Info("Enabling metrics export to InfluxDB (v2)", "endpoint", cfg.InfluxDBEndpoint)
		go influxdb.InfluxDBV2WithTags(gethmetrics.DefaultRegistry, 10*time.Second, cfg.InfluxDBEndpoint,
			cfg.InfluxDBToken, cfg.InfluxDBBucket, cfg.InfluxDBOrganization, namespace, tags)
	}
	if cfg.HTTP != "" {
		address := fmt.Sprintf("%s:%d", cfg.HTTP, cfg.Port)
		log.Info("Enabling stand-alone metrics HTTP endpoint", "address", address)
		exp.Setup(address)
	}
	return nil
}

// SplitTags parses a comma separated list of key=value pairs. Malformed
// entries are skipped.
func SplitTags(tagsFlag string) map[string]string {
	tags := strings.Split(tagsFlag, ",")
	tagsMap := map[string]string{}

	for _, t := range tags {
		if t != "" {
			kv := strings.Split(t, "=")

			if len(kv) == 2 {
				tagsMap[kv[0]] = kv[1]
			}
		}
	}

	return tagsMap
}

func collectCPUTime(refresh time.Duration) {
	for {
		processCPUGauge.Update(getProcessCPUTime())
		time.Sleep(refresh)
	}
}
