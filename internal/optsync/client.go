package optsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// DefaultGroup mirrors the integration's config-flow default.
const DefaultGroup = "1.1"

// groupPattern matches the published consumer groups: 1.1 .. 6.2.
var groupPattern = regexp.MustCompile(`^[1-6]\.[1-2]$`)

// Client reads addon options from the supervisor-managed options.json,
// falling back to environment variables when the file is absent.
type Client struct {
	optionsPath string
}

func NewClient(optionsPath string) *Client {
	return &Client{optionsPath: strings.TrimSpace(optionsPath)}
}

type optionsFile struct {
	Group string `json:"group"`
}

// FetchGroup resolves the configured consumer group. A missing options file
// falls back to LOE_GROUP, then to the default; a present but unreadable or
// invalid file is an error so a typo never silently rewires the addon.
func (c *Client) FetchGroup(_ context.Context) (string, error) {
	raw, err := os.ReadFile(c.optionsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return groupFromEnv()
		}
		return "", fmt.Errorf("read options: %w", err)
	}

	var opts optionsFile
	if err := json.Unmarshal(raw, &opts); err != nil {
		return "", fmt.Errorf("parse options: %w", err)
	}
	group := strings.TrimSpace(opts.Group)
	if group == "" {
		return groupFromEnv()
	}
	if !groupPattern.MatchString(group) {
		return "", fmt.Errorf("invalid group %q", group)
	}
	return group, nil
}

func groupFromEnv() (string, error) {
	group := strings.TrimSpace(os.Getenv("LOE_GROUP"))
	if group == "" {
		return DefaultGroup, nil
	}
	if !groupPattern.MatchString(group) {
		return "", fmt.Errorf("invalid group %q", group)
	}
	return group, nil
}
