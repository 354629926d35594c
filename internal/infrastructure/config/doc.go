// Package config handles loading and validating the controller configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with SOLARPOOL_* environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Broker passwords and InfluxDB tokens should be set via environment variables
//   - The config file should have restricted permissions (0600)
//   - The administrator credential is never configured here; it is provisioned
//     over the API on first boot and stored in the device key/value store
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.GetSessionIdleTimeout())
package config
