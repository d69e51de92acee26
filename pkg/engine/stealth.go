package engine

import "time"

// LaunchConfig configures a browser launch.
type LaunchConfig struct {
	// Headless controls whether the browser runs without a visible window
	Headless bool

	// Viewport sets the size of every page
	Viewport Viewport

	// Args are extra command line switches passed to the browser
	Args []string

	// InitScripts run in every page before any site script
	InitScripts []string

	// NavigationTimeout bounds a single navigation or element wait
	NavigationTimeout time.Duration

	// Spawner starts the engine's background loop. Nil means GoSpawner.
	Spawner Spawner
}

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

// Default values for launches
const (
	DefaultViewportWidth     = 1920
	DefaultViewportHeight    = 1080
	DefaultNavigationTimeout = 30 * time.Second
)

// stealthArgs turn off the switches the service uses to recognise automated
// Chromium.
var stealthArgs = []string{
	"--disable-blink-features=AutomationControlled",
	"--disable-features=IsolateOrigins,site-per-process",
	"--disable-site-isolation-trials",
	"--no-sandbox",
	"--disable-setuid-sandbox",
	"--disable-dev-shm-usage",
	"--disable-accelerated-2d-canvas",
	"--no-first-run",
	"--no-zygote",
	"--disable-gpu",
	"--hide-scrollbars",
	"--mute-audio",
	"--disable-background-networking",
	"--disable-background-timer-throttling",
	"--disable-backgrounding-occluded-windows",
	"--disable-breakpad",
	"--disable-component-extensions-with-background-pages",
	"--disable-extensions",
	"--disable-features=TranslateUI",
	"--disable-ipc-flooding-protection",
	"--disable-renderer-backgrounding",
	"--enable-features=NetworkService,NetworkServiceInProcess",
	"--force-color-profile=srgb",
	"--metrics-recording-only",
}

// NavigatorScript masks the navigator and WebGL properties fingerprinting
// scripts probe.
const NavigatorScript = `
Object.defineProperty(navigator, "webdriver", { get: () => false });
Object.defineProperty(navigator, "plugins", { get: () => [1, 2, 3, 4, 5] });
Object.defineProperty(navigator, "languages", { get: () => ["en-US", "en", "zh-CN"] });
window.chrome = {
    runtime: {},
    loadTimes: function () {},
    csi: function () {},
    app: {}
};
if (typeof WebGLRenderingContext !== "undefined") {
    const getParameter = WebGLRenderingContext.prototype.getParameter;
    WebGLRenderingContext.prototype.getParameter = function (parameter) {
        if (parameter === 37445) return "Intel Inc.";
        if (parameter === 37446) return "Intel Iris OpenGL Engine";
        return getParameter.call(this, parameter);
    };
}
`

// ScreenScript pins the reported screen geometry to the viewport.
const ScreenScript = `
Object.defineProperty(window.screen, "width", { get: () => 1920 });
Object.defineProperty(window.screen, "height", { get: () => 1080 });
Object.defineProperty(window.screen, "colorDepth", { get: () => 24 });
Object.defineProperty(window.screen, "pixelDepth", { get: () => 24 });
`

// StealthConfig returns the fixed fingerprint-evasion launch configuration.
// Extra switches are appended after the built-in ones.
func StealthConfig(headless bool, extraArgs ...string) LaunchConfig {
	args := make([]string, 0, len(stealthArgs)+len(extraArgs))
	args = append(args, stealthArgs...)
	args = append(args, extraArgs...)

	return LaunchConfig{
		Headless: headless,
		Viewport: Viewport{
			Width:  DefaultViewportWidth,
			Height: DefaultViewportHeight,
		},
		Args:              args,
		InitScripts:       []string{NavigatorScript, ScreenScript},
		NavigationTimeout: DefaultNavigationTimeout,
	}
}
