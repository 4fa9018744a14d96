// Package config provides configuration parsing for vpatch.
//
// The configuration is stored in vpatch.json in the working directory.
// Every field is optional; missing values take the defaults from New.
//
// # Configuration File Structure
//
//	{
//	  "serve": {
//	    "addr": ":8080",
//	    "wsPath": "/ws",
//	    "metricsPath": "/metrics",
//	    "interval": "1s",
//	    "states": "states.yaml",
//	    "loop": true
//	  },
//	  "stream": {
//	    "writeTimeout": "10s",
//	    "maxMessageSize": 65536
//	  },
//	  "limits": {
//	    "maxAllocation": 4194304,
//	    "maxCollection": 100000,
//	    "maxDepth": 256
//	  },
//	  "log": {
//	    "level": "info",
//	    "format": "text"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if errors.Is(err, config.ErrNotFound) {
//	    cfg = config.New()
//	}
package config
