package res

const (
	AppName          = "nowplaying-bridge"
	DisplayName      = "NowPlaying Bridge"
	AppVersion       = "0.3.0"
	AppVersionTag    = "v" + AppVersion
	ConfigFile       = "config.toml"
	GithubURL        = "https://github.com/supersonic-app/nowplaying-bridge"
	LatestReleaseURL = GithubURL + "/releases/latest"
)
