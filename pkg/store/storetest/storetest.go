// Package storetest keeps test suites against storedefs.Store.
package storetest

import (
	"testing"

	"src.arkts.dev/pkg/store/storedefs"
)

// TestPackages tests the package record of a Store.
func TestPackages(t *testing.T, s storedefs.Store) {
	t.Helper()
	const name = "@arkts/language-server"

	if _, err := s.PackageVersion(name); err != storedefs.ErrNoPackage {
		t.Errorf("PackageVersion of unrecorded package -> error %v, want ErrNoPackage", err)
	}
	if err := s.SetPackageVersion(name, "1.0.0"); err != nil {
		t.Errorf("SetPackageVersion -> error %v", err)
	}
	if v, err := s.PackageVersion(name); v != "1.0.0" || err != nil {
		t.Errorf("PackageVersion -> (%q, %v), want (%q, nil)", v, err, "1.0.0")
	}
	if err := s.SetPackageVersion(name, "latest"); err != nil {
		t.Errorf("SetPackageVersion -> error %v", err)
	}
	if v, err := s.PackageVersion(name); v != "latest" || err != nil {
		t.Errorf("PackageVersion after update -> (%q, %v), want (%q, nil)", v, err, "latest")
	}
	if err := s.DelPackage(name); err != nil {
		t.Errorf("DelPackage -> error %v", err)
	}
	if _, err := s.PackageVersion(name); err != storedefs.ErrNoPackage {
		t.Errorf("PackageVersion after DelPackage -> error %v, want ErrNoPackage", err)
	}
	if err := s.DelPackage(name); err != nil {
		t.Errorf("DelPackage of unrecorded package -> error %v", err)
	}
}
