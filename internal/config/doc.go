// Package config provides configuration parsing for vpatch.
//
// The configuration is stored in vpatch.yaml (or vpatch.json) at the project
// root. This package handles loading, saving, defaults and validation.
//
// # Configuration File Structure
//
//	server:
//	  host: 0.0.0.0
//	  port: 7070
//	  shutdownTimeout: 10s
//	log:
//	  level: info
//	  format: json
//	metrics:
//	  enabled: true
//	  namespace: vpatch
//	tracing:
//	  exporter: stdout
//	  sampleRatio: 0.5
//	protocol:
//	  maxDepth: 256
//	session:
//	  maxSessions: 1000
//	  idleTimeout: 5m
//	snapshots:
//	  dir: snapshots
//	  s3:
//	    region: eu-west-1
//	    endpoint: http://localhost:9000
//	    pathStyle: true
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Listening on", cfg.Address())
package config
