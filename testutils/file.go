package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

// TempDir creates a temporary directory removed when the test ends and fails the test if it
// cannot.
func TempDir(t *testing.T, pattern string) string {
	t.Helper()
	dir, err := os.MkdirTemp("", pattern)
	test.That(t, err, test.ShouldBeNil)
	t.Cleanup(func() {
		test.That(t, os.RemoveAll(dir), test.ShouldBeNil)
	})
	return dir
}

// WriteTempFile writes contents to name inside dir and returns its path.
func WriteTempFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	test.That(t, os.WriteFile(path, []byte(contents), 0o600), test.ShouldBeNil)
	return path
}
