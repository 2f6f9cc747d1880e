package stealth

import (
	"fmt"
	"math/rand"
	"strings"
)

// Preset is the anti-fingerprinting strength bundle, per spec §4.11/§9.
type Preset string

const (
	PresetNone   Preset = "none"
	PresetLow    Preset = "low"
	PresetMedium Preset = "medium"
	PresetHigh   Preset = "high"
)

// Viewport is a concrete width/height, optionally jittered from a preset.
type Viewport struct {
	Width, Height int
}

// RandomViewport picks from presetViewports and optionally jitters each
// dimension by +/- variance (a fraction, e.g. 0.05 for +/-5%).
func RandomViewport(rng *rand.Rand, variance float64) Viewport {
	base := presetViewports[rng.Intn(len(presetViewports))]
	if variance <= 0 {
		return Viewport{Width: base.Width, Height: base.Height}
	}
	return Viewport{
		Width:  jitter(rng, base.Width, variance),
		Height: jitter(rng, base.Height, variance),
	}
}

func jitter(rng *rand.Rand, v int, variance float64) int {
	delta := (rng.Float64()*2 - 1) * variance * float64(v)
	return v + int(delta)
}

// Locale is a locale/timezone pair, guaranteed consistent since both come
// from the same presetLocales entry.
type Locale struct {
	Locale   string
	Timezone string
}

func RandomLocale(rng *rand.Rand) Locale {
	p := presetLocales[rng.Intn(len(presetLocales))]
	return Locale{Locale: p.Locale, Timezone: p.Timezone}
}

// stealthJSTemplate is the JS override snippet composed by GetStealthJS,
// grounded on the well-known navigator.webdriver/WebGL/canvas-noise
// overrides used throughout the headless-stealth ecosystem (puppeteer-
// extra-plugin-stealth style patches); the pack itself has no JS-fixture
// equivalent to ground this on beyond go-rod's own page.Eval plumbing, so
// the script bodies are the standard public patches, only the composition
// (which ones run, toggled by preset) is spec-driven.
const stealthJSTemplate = `(() => {
  %s
})();`

// GetStealthJS composes the override script for the given preset and
// fingerprint, toggling which overrides run by preset strength.
func GetStealthJS(preset Preset, vp Viewport, loc Locale) string {
	if preset == PresetNone {
		return ""
	}

	var parts []string
	parts = append(parts, `Object.defineProperty(navigator, 'webdriver', { get: () => undefined });`)

	if preset == PresetMedium || preset == PresetHigh {
		parts = append(parts, webglOverrideJS())
		parts = append(parts, fmt.Sprintf(
			`Object.defineProperty(screen, 'width', { get: () => %d });
  Object.defineProperty(screen, 'height', { get: () => %d });`,
			vp.Width, vp.Height,
		))
		parts = append(parts, fmt.Sprintf(
			`try { Intl.DateTimeFormat().resolvedOptions().timeZone = %q; } catch (e) {}`,
			loc.Timezone,
		))
	}

	if preset == PresetHigh {
		parts = append(parts, canvasNoiseJS())
		parts = append(parts, webrtcBlockJS())
		parts = append(parts, pluginListJS())
	}

	return fmt.Sprintf(stealthJSTemplate, strings.Join(parts, "\n  "))
}

func webglOverrideJS() string {
	return `const getParameter = WebGLRenderingContext.prototype.getParameter;
  WebGLRenderingContext.prototype.getParameter = function (parameter) {
    if (parameter === 37445) return 'Intel Inc.';
    if (parameter === 37446) return 'Intel Iris OpenGL Engine';
    return getParameter.call(this, parameter);
  };`
}

func canvasNoiseJS() string {
	return `const toDataURL = HTMLCanvasElement.prototype.toDataURL;
  HTMLCanvasElement.prototype.toDataURL = function (...args) {
    const ctx = this.getContext('2d');
    if (ctx) {
      const imageData = ctx.getImageData(0, 0, this.width, this.height);
      for (let i = 0; i < imageData.data.length; i += 4) {
        imageData.data[i] ^= 1;
      }
      ctx.putImageData(imageData, 0, 0);
    }
    return toDataURL.apply(this, args);
  };`
}

func webrtcBlockJS() string {
	return `if (window.RTCPeerConnection) {
    window.RTCPeerConnection = undefined;
  }`
}

func pluginListJS() string {
	return `Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });`
}
