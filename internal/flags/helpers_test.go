package flags

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/urfave/cli/v2"
)

func TestExpandPath(t *testing.T) {
	home := HomeDir()
	os.Setenv("DUMPGLORY_TEST_DIR", "/var/lib/dump")
	defer os.Unsetenv("DUMPGLORY_TEST_DIR")

	tests := []struct {
		in, want string
	}{
		{"/home/someuser/tmp", "/home/someuser/tmp"},
		{"~/tmp", filepath.Join(home, "tmp")},
		{"$DUMPGLORY_TEST_DIR/data", "/var/lib/dump/data"},
		{"./relative/../dir", "dir"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExpandPath(tt.in), tt.in)
	}
}

func TestMerge(t *testing.T) {
	a := []cli.Flag{&cli.StringFlag{Name: "a"}}
	b := []cli.Flag{&cli.StringFlag{Name: "b"}, &cli.BoolFlag{Name: "c"}}
	merged := Merge(a, b)
	assert.Len(t, merged, 3)
	assert.Equal(t, []string{"a"}, merged[0].Names())
	assert.Equal(t, []string{"c"}, merged[2].Names())
}
