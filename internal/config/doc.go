// Package config loads dumbstore.json for the dumbstore server.
//
// # Configuration File Structure
//
//	{
//	  "slot": "__DUMB__",
//	  "server": {
//	    "host": "localhost",
//	    "port": 3000
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "path": "/metrics",
//	    "namespace": "dumbstore"
//	  },
//	  "tracing": {
//	    "tracerName": "dumbstore"
//	  },
//	  "live": {
//	    "enabled": true,
//	    "path": "/live"
//	  }
//	}
//
// Every field is optional; missing values take the defaults from New.
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
