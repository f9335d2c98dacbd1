package entities

// Platform is the build platform reported by the build service
type Platform string

// Platforms with a downloader implementation
const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
)

// EventBuildSuccess is the only event type the relay acts on
const EventBuildSuccess = "ProjectBuildSuccess"

// BuildNotification is the parsed body of a build-completion webhook
type BuildNotification struct {
	EventType       string
	ProjectGUID     string
	ProjectName     string
	BuildTargetName string
	BuildNumber     int
	Platform        Platform
	APISelfLink     string // relative to the build API base URL
}

// BuildStatus is the build metadata fetched from the build service API
type BuildStatus struct {
	PrimaryURL      string
	DebugSymbolsURL string // empty when the build has no dSYM archive
	Filename        string
}

// ReleaseNote carries the values available to the release-notes template
type ReleaseNote struct {
	ProjectName     string
	Platform        Platform
	BuildNumber     int
	BuildTargetName string
}
