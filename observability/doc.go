// Package observability provides the OpenTelemetry metrics and tracing used by
// the logger, plus simple health reporting.
//
// Providers are built without network exporters; attach a reader or span
// processor to collect data:
//
//	reader := sdkmetric.NewManualReader()
//	mp, err := observability.InitMeter(observability.MeterConfig{
//		ServiceName: "my-service",
//		Readers:     []sdkmetric.Reader{reader},
//	})
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(mp.Meter(observability.MeterName))
//	log := logger.New(store, logger.WithMetrics(metrics))
//
// Health:
//
//	report := observability.NewReport("my-service", "1.0.0", instanceID).
//	    Check(ctx, store, log)
package observability
