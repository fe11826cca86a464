// Package config handles configuration loading for the copra station.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// When no file exists, New() provides development defaults.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from COPRA_CONFIG environment variable
//  2. ~/.config/copra/station.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	database:
//	  path: "${COPRA_DB_PATH}"
//
// Syntax: ${VAR_NAME}
//
// # Configuration Sections
//
// Database:
//
//	database:
//	  path: "/var/lib/copra/station.db"
//
// Station header printed on receipts:
//
//	station:
//	  name: "NIYOG COPRA STATION"
//	  address: "Poblacion, Kawayan, Biliran"
//
// Printer:
//
//	printer:
//	  mode: "serial"       # serial, mock
//	  baud_rate: 9600
//	  devices:
//	    - name: "POS58 Thermal"
//	      address: "/dev/rfcomm0"
//
// The COPRA_PRINTER environment variable overrides printer.mode, so a
// developer can force the mock without editing the file.
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
package config
