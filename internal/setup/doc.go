// Package setup implements the interactive connection flow: prompting for
// credentials, verifying them against GitHub, selecting target repositories,
// and persisting the resulting configuration.
package setup
