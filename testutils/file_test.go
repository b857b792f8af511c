package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

func TestTempFiles(t *testing.T) {
	dir := TempDir(t, "files")
	path := WriteTempFile(t, dir, "conf.json", "{}")
	test.That(t, filepath.Dir(path), test.ShouldEqual, dir)
	data, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldEqual, "{}")
}
