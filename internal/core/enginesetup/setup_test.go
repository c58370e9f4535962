package enginesetup

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/jthickma/webapp/internal/config"
)

func TestConfigFromAppConfig(t *testing.T) {
	cfg := &appconfig.Config{Tools: appconfig.ToolsConfig{YtDlp: "/opt/yt-dlp", GalleryDl: "/opt/gallery-dl"}}
	assert.Equal(t, Config{YtDlpBinary: "/opt/yt-dlp", GalleryDlBinary: "/opt/gallery-dl"}, ConfigFromAppConfig(cfg))
}

func TestInitEngines(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "yt-dlp")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\necho 2024.01.01\n"), 0o755))

	res := InitEngines(context.Background(), Config{
		YtDlpBinary:     bin,
		GalleryDlBinary: filepath.Join(t.TempDir(), "missing-gallery-dl"),
	})
	require.NotNil(t, res.Dispatcher)
	require.NotNil(t, res.Runner)
	assert.Equal(t, 0, res.ProcMgr.Running())

	tools := res.Dispatcher.Tools()
	require.Len(t, tools, 2)
	assert.Equal(t, "yt-dlp", tools[0].Name())
	assert.Equal(t, bin, tools[0].Binary())
	assert.Equal(t, "gallery-dl", tools[1].Name())

	inv, err := res.Dispatcher.Resolve("https://vm.tiktok.com/ZM123/")
	require.NoError(t, err)
	assert.Equal(t, "tiktok", inv.Family)
}
