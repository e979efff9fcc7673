// Package cwship provides an embeddable log shipper that buffers records
// per stream and delivers them to CloudWatch Logs style append-only stores.
//
// # Basic Usage
//
//	awsCfg, err := cloudwatch.LoadConfig(ctx, "us-east-1", "")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	cfg := cwship.DefaultConfig()
//	cfg.LogGroup = "my-app"
//
//	s, err := cwship.New(cfg,
//	    cwship.WithLogsClient(cloudwatch.NewFromConfig(awsCfg, "", logger)),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := s.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	s.Log("web", "GET /health 200")
//
//	// ... run until shutdown signal ...
//
//	if err := s.Stop(); err != nil {
//	    log.Printf("shutdown error: %v", err)
//	}
//
// # Buffering and Flushing
//
// Log never blocks on the network. Records are kept per stream and flushed
// by a single background loop, either when the flush interval elapses or
// as soon as a stream's size estimate crosses MaxBatchBytes minus 1000
// (or it holds more than 9000 records). Every flush delivers all streams.
// Stop runs a final flush.
//
// # Delivery Failures
//
// With the default "isolate" policy a failing stream keeps its undelivered
// records for the next cycle (up to 10,000) and the other streams are not
// affected. The "abort" policy ends the cycle at the first failure and drops
// what was not delivered.
//
// # Configuration
//
// Config values outside their valid range silently fall back to defaults;
// see [Config.Sanitize].
//
// # Event Handling
//
// Implement [EventHandler] (embedding [BaseEventHandler]) and pass it via
// [WithEventHandler] to observe state changes, flushes and delivery errors.
//
// # Plugins
//
// Plugins run alongside the flush loop and feed records through
// [PluginConfig.Sink]:
//
//	import "github.com/bft-labs/cwship/plugins/filetail"
//
//	s, err := cwship.New(cfg,
//	    cwship.WithLogsClient(client),
//	    filetail.WithFileTail(filetail.Config{Files: map[string]string{"app": "/var/log/app.log"}}),
//	)
package cwship
