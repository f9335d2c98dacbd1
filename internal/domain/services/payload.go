package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ochairo/cloudbuild-relay/internal/domain/entities"
)

type link struct {
	Href string `json:"href"`
}

// notificationPayload is the webhook body as sent by the build service
type notificationPayload struct {
	ProjectGUID     string `json:"projectGuid"`
	ProjectName     string `json:"projectName"`
	BuildTargetName string `json:"buildTargetName"`
	BuildNumber     int    `json:"buildNumber"`
	Platform        string `json:"platform"`
	Links           struct {
		APISelf link `json:"api_self"`
	} `json:"links"`
}

// statusPayload is the subset of the build status resource the relay reads
type statusPayload struct {
	ProjectVersion struct {
		Filename string `json:"filename"`
	} `json:"projectVersion"`
	Links struct {
		DownloadPrimary link `json:"download_primary"`
		DownloadDSYM    link `json:"download_dsym"`
	} `json:"links"`
}

// ParseBuildNotification parses a webhook body. eventType comes from the
// event header and is carried along unchanged.
func ParseBuildNotification(eventType string, body []byte) (*entities.BuildNotification, error) {
	var p notificationPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: decode of content failed: %v", entities.ErrMalformedInput, err)
	}

	missing := make([]string, 0)
	if p.ProjectGUID == "" {
		missing = append(missing, "projectGuid")
	}
	if p.BuildTargetName == "" {
		missing = append(missing, "buildTargetName")
	}
	if p.Platform == "" {
		missing = append(missing, "platform")
	}
	if p.Links.APISelf.Href == "" {
		missing = append(missing, "links.api_self.href")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing fields: %s", entities.ErrMalformedInput, strings.Join(missing, ", "))
	}

	return &entities.BuildNotification{
		EventType:       eventType,
		ProjectGUID:     p.ProjectGUID,
		ProjectName:     p.ProjectName,
		BuildTargetName: p.BuildTargetName,
		BuildNumber:     p.BuildNumber,
		Platform:        entities.Platform(p.Platform),
		APISelfLink:     p.Links.APISelf.Href,
	}, nil
}

// ParseBuildStatus parses the build status resource
func ParseBuildStatus(body []byte) (*entities.BuildStatus, error) {
	var p statusPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: decode of build status failed: %v", entities.ErrUnexpectedResponse, err)
	}
	if p.Links.DownloadPrimary.Href == "" {
		return nil, fmt.Errorf("%w: build status has no primary download link", entities.ErrUnexpectedResponse)
	}
	if p.ProjectVersion.Filename == "" {
		return nil, fmt.Errorf("%w: build status has no artifact filename", entities.ErrUnexpectedResponse)
	}

	return &entities.BuildStatus{
		PrimaryURL:      p.Links.DownloadPrimary.Href,
		DebugSymbolsURL: p.Links.DownloadDSYM.Href,
		Filename:        p.ProjectVersion.Filename,
	}, nil
}
