package stealth

// browserProfile bundles a user-agent with the Accept-*/Sec-CH-UA family it
// must travel with, so generated headers stay mutually plausible per spec
// §4.11's consistency invariant.
type browserProfile struct {
	UserAgent      string
	SecChUA        string
	SecChUAMobile  string
	SecChUAPlatform string
	AcceptLanguage string
}

// chromeProfiles and firefoxProfiles are small hand-picked, internally
// consistent presets; a real deployment would source these from a
// maintained UA database, but the spec only requires mutual plausibility,
// not exhaustive coverage.
var chromeProfiles = []browserProfile{
	{
		UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		SecChUA:         `"Chromium";v="124", "Google Chrome";v="124", "Not-A.Brand";v="99"`,
		SecChUAMobile:   "?0",
		SecChUAPlatform: `"Windows"`,
		AcceptLanguage:  "en-US,en;q=0.9",
	},
	{
		UserAgent:       "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		SecChUA:         `"Chromium";v="124", "Google Chrome";v="124", "Not-A.Brand";v="99"`,
		SecChUAMobile:   "?0",
		SecChUAPlatform: `"macOS"`,
		AcceptLanguage:  "en-US,en;q=0.9",
	},
}

var firefoxProfiles = []browserProfile{
	{
		UserAgent:      "Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0",
		AcceptLanguage: "en-US,en;q=0.5",
	},
}

var allProfiles = append(append([]browserProfile{}, chromeProfiles...), firefoxProfiles...)

// viewport is one entry in the preset list random_viewport() draws from.
type viewport struct {
	Width, Height int
}

var presetViewports = []viewport{
	{Width: 1920, Height: 1080},
	{Width: 1366, Height: 768},
	{Width: 1536, Height: 864},
	{Width: 1440, Height: 900},
	{Width: 1280, Height: 720},
}

// localeProfile pairs a locale with a timezone consistent with it, per
// the consistency invariant.
type localeProfile struct {
	Locale   string
	Timezone string
}

var presetLocales = []localeProfile{
	{Locale: "en-US", Timezone: "America/New_York"},
	{Locale: "en-GB", Timezone: "Europe/London"},
	{Locale: "de-DE", Timezone: "Europe/Berlin"},
	{Locale: "fr-FR", Timezone: "Europe/Paris"},
	{Locale: "ja-JP", Timezone: "Asia/Tokyo"},
}
