// Package services implements the driving ports.
//
// SearchService runs the two-stage result search: the structured filter is
// delegated to the ResultStore, then every candidate's metadata document is
// checked against the parsed metadata query on a bounded worker pool.
// ResultService validates and stores results, and SettingsService reads and
// writes AppSettings through a ConfigStore.
package services
