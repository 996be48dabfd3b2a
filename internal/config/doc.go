// Package config provides configuration parsing for vstore projects.
//
// The configuration is stored in vstore.json at the project root.
// This package handles loading, saving, and validating configuration.
//
// # Configuration File Structure
//
//	{
//	  "name": "shop",
//	  "devtools": {
//	    "port": 9229,
//	    "host": "localhost"
//	  },
//	  "log": {
//	    "level": "debug",
//	    "format": "json"
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "namespace": "vstore"
//	  },
//	  "tracing": {
//	    "enabled": false
//	  },
//	  "stores": [
//	    {"name": "cart", "state": "state/cart.yaml"}
//	  ]
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Devtools:", cfg.DevtoolsAddress())
package config
