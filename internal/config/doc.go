// Package config persists the gitfleet connection settings and repository
// selection between invocations. The record round-trips the access token, the
// optional enterprise hostname, and the ordered list of selected repositories.
package config
