package debug

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWarnkOnce(t *testing.T) {
	var buf bytes.Buffer
	old := warnk.Out
	warnk.SetOutput(&buf)
	defer warnk.SetOutput(old)

	WarnkOnce("test_key", "first %d", 1)
	WarnkOnce("test_key", "second %d", 2)
	WarnkOnce("other_key", "third %d", 3)

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "first"))
	assert.NotContains(t, out, "second")
	assert.Contains(t, out, "third")
}

func TestSinkRouting(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/printk.log"
	require.NoError(t, InitPrintk(path))

	Printk("hello %s", "guest")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello guest")
}
