// Package githubapi wraps the GitHub REST client behind the narrow set of
// repository operations gitfleet performs in bulk. It owns the connection
// settings model and the fixed-shape error taxonomy every remote failure is
// classified into.
package githubapi
