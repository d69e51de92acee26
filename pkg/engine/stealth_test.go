package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStealthConfig(t *testing.T) {
	cfg := StealthConfig(true, "--lang=en-US")

	assert.True(t, cfg.Headless)
	assert.Equal(t, Viewport{Width: 1920, Height: 1080}, cfg.Viewport)
	assert.Contains(t, cfg.Args, "--disable-blink-features=AutomationControlled")
	assert.Equal(t, "--lang=en-US", cfg.Args[len(cfg.Args)-1])
	assert.Equal(t, DefaultNavigationTimeout, cfg.NavigationTimeout)

	if assert.Len(t, cfg.InitScripts, 2) {
		assert.Contains(t, cfg.InitScripts[0], `"webdriver"`)
		assert.Contains(t, cfg.InitScripts[0], "Intel Iris OpenGL Engine")
		assert.Contains(t, cfg.InitScripts[1], "colorDepth")
	}
}

func TestStealthConfig_DoesNotShareArgs(t *testing.T) {
	a := StealthConfig(true, "--a")
	b := StealthConfig(true, "--b")

	assert.Equal(t, "--a", a.Args[len(a.Args)-1])
	assert.Equal(t, "--b", b.Args[len(b.Args)-1])
	assert.Len(t, stealthArgs, len(a.Args)-1)
}

func TestGoSpawner(t *testing.T) {
	done := make(chan struct{})
	GoSpawner{}.Spawn(func() { close(done) })
	<-done
}
