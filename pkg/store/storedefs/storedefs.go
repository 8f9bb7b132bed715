// Package storedefs contains definitions of the store API.
//
// It is a separate package so that packages that only depend on the store API
// does not need to depend on the concrete implementation.
package storedefs

import "errors"

// ErrNoPackage is returned by PackageVersion when the package has no record.
var ErrNoPackage = errors.New("no such package")

// Store is an interface satisfied by the storage service.
type Store interface {
	PackageVersion(name string) (string, error)
	SetPackageVersion(name, version string) error
	DelPackage(name string) error
}
