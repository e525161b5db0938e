// Package utils hosts the shared application plumbing: the Viper-backed
// configuration loader and the zap logger factory used by the gitfleet CLI.
package utils
