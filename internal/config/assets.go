package config

import (
	"encoding/json"
	"errors"
	"os"

	foundationerrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// ManifestFile is the bundler manifest read next to the configuration file.
const ManifestFile = "manifest.json"

// Assets maps bundle entry names to emitted files keyed by kind ("js", "css").
type Assets map[string]map[string]string

// LoadAssets reads a bundler manifest. A missing manifest yields an empty map.
func LoadAssets(path string) (Assets, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Assets{}, nil
	}
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "failed to read asset manifest").
			WithContext("path", path).
			Build()
	}
	assets := Assets{}
	if err := json.Unmarshal(data, &assets); err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "failed to parse asset manifest").
			WithContext("path", path).
			Build()
	}
	return assets, nil
}

// TemplateConfig is the flattened view of the configuration exposed to page templates.
type TemplateConfig struct {
	SiteTitle         string `json:"site_title"`
	SiteURL           string `json:"site_url"`
	Author            string `json:"author"`
	Description       string `json:"description"`
	Assets            Assets `json:"assets"`
	APIURL            string `json:"api_url"`
	GoogleAnalyticsID string `json:"google_analytics_id"`
}

// ForTemplates returns the template-facing configuration.
func (c *Config) ForTemplates() TemplateConfig {
	return TemplateConfig{
		SiteTitle:         c.Site.Title,
		SiteURL:           c.Site.URL,
		Author:            c.Site.Author,
		Description:       c.Site.Description,
		Assets:            c.Assets,
		APIURL:            c.Site.APIURL,
		GoogleAnalyticsID: c.Site.GoogleAnalyticsID,
	}
}
