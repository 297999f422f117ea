package config

import (
	"net/url"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

func init() {
	// Report field names the way they appear in config.yaml.
	validation.ErrorTag = "yaml"
}

// Validate checks the loaded configuration for values the build cannot work with.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Site),
		validation.Field(&c.Build),
		validation.Field(&c.Events),
	)
}

func (s SiteConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Title, validation.Required),
		validation.Field(&s.URL, is.URL),
		validation.Field(&s.CDNURL, is.URL),
		validation.Field(&s.APIURL, is.URL),
	)
}

func (b BuildConfig) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.ContentDir, validation.Required),
		validation.Field(&b.OutputDir, validation.Required),
		validation.Field(&b.PostsPerPage, validation.Min(1)),
		validation.Field(&b.PaginationWindow, validation.Min(1)),
		validation.Field(&b.HomepagePostsLimit, validation.Min(0)),
		validation.Field(&b.Navigation, validation.In(NavigationCategory, NavigationGlobal)),
	)
}

func (e EventsConfig) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.NATSURL, validation.By(natsURL)),
		validation.Field(&e.Subject, validation.Required),
	)
}

func natsURL(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	for _, server := range strings.Split(s, ",") {
		u, err := url.Parse(strings.TrimSpace(server))
		if err != nil {
			return validation.NewError("validation_nats_url", "must be a valid NATS server URL")
		}
		switch u.Scheme {
		case "nats", "tls", "ws", "wss":
		default:
			return validation.NewError("validation_nats_url", "must use the nats, tls, ws or wss scheme")
		}
	}
	return nil
}
