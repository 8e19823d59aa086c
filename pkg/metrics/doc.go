// Package metrics exports batcher activity to Prometheus.
//
//	rec, err := metrics.NewPrometheusRecorder("batchship", prometheus.DefaultRegisterer)
//	if err != nil {
//	    return err
//	}
//	b, err := batcher.New(100, time.Second, consume, batcher.WithRecorder(rec))
package metrics
