package ytdlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	tool := New("")

	stderr := "[youtube] abc: Downloading webpage\nERROR: [youtube] abc: Video unavailable\n"
	assert.Equal(t, "[youtube] abc: Video unavailable", tool.Summarize(stderr))

	assert.Equal(t, "something odd", tool.Summarize("\nsomething odd\n\n"))
	assert.Equal(t, "", tool.Summarize(""))
}

func TestDefaultBinary(t *testing.T) {
	assert.Equal(t, "yt-dlp", New("").Binary())
	assert.Equal(t, "/opt/bin/yt-dlp", New("/opt/bin/yt-dlp").Binary())
}
