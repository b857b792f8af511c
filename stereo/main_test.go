package stereo

import (
	"testing"

	"go.viam.com/curvedstereo/testutils"
)

func TestMain(m *testing.M) {
	testutils.VerifyTestMain(m)
}
