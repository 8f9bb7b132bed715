package store

import (
	bolt "go.etcd.io/bbolt"
	"src.arkts.dev/pkg/store/storedefs"
)

const bucketPackages = "packages"

func init() {
	initDB["initialize package table"] = func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketPackages))
		return err
	}
}

// PackageVersion returns the recorded version of an installed package.
func (s *dbStore) PackageVersion(name string) (string, error) {
	s.wg.Add(1)
	defer s.wg.Done()
	var version string
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketPackages)).Get([]byte(name))
		if v == nil {
			return storedefs.ErrNoPackage
		}
		version = string(v)
		return nil
	})
	return version, err
}

// SetPackageVersion records the version of an installed package.
func (s *dbStore) SetPackageVersion(name, version string) error {
	s.wg.Add(1)
	defer s.wg.Done()
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketPackages)).Put([]byte(name), []byte(version))
	})
}

// DelPackage forgets a package. It is not an error if the package is not
// recorded.
func (s *dbStore) DelPackage(name string) error {
	s.wg.Add(1)
	defer s.wg.Done()
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketPackages)).Delete([]byte(name))
	})
}
