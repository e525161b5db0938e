// Package bulk implements the batch repository operation runner: it applies
// one operation descriptor to every configured repository in order, isolating
// failures per repository and emitting exactly one outcome record per target.
package bulk
