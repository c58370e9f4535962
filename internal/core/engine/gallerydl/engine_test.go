package gallerydl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	tool := New("")
	stderr := "[instagram][info] Requesting\n[instagram][error] HttpError: '404 Not Found'\n"
	assert.Equal(t, "HttpError: '404 Not Found'", tool.Summarize(stderr))
	assert.Equal(t, "plain failure", tool.Summarize("plain failure"))
}
