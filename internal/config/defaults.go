package config

import "runtime"

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// CompositeDefaultApplier runs every domain applier in order.
type CompositeDefaultApplier struct {
	appliers []DefaultApplier
}

// NewDefaultApplier returns the applier chain used by Load.
func NewDefaultApplier() *CompositeDefaultApplier {
	return &CompositeDefaultApplier{appliers: []DefaultApplier{
		&SiteDefaultApplier{},
		&BuildDefaultApplier{},
		&SearchDefaultApplier{},
		&EventsDefaultApplier{},
	}}
}

func (c *CompositeDefaultApplier) ApplyDefaults(cfg *Config) error {
	for _, a := range c.appliers {
		if err := a.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}

// SiteDefaultApplier handles Site configuration defaults.
type SiteDefaultApplier struct{}

func (s *SiteDefaultApplier) Domain() string { return "site" }

func (s *SiteDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Site.Title == "" {
		cfg.Site.Title = "marshallku blog"
	}
	return nil
}

// BuildDefaultApplier handles Build configuration defaults.
type BuildDefaultApplier struct{}

func (b *BuildDefaultApplier) Domain() string { return "build" }

func (b *BuildDefaultApplier) ApplyDefaults(cfg *Config) error {
	setDefault(&cfg.Build.ContentDir, "content/posts")
	setDefault(&cfg.Build.PagesDir, "content/pages")
	setDefault(&cfg.Build.OutputDir, "dist")
	setDefault(&cfg.Build.TemplatesDir, "templates")
	setDefault(&cfg.Build.StaticDir, "static")
	setDefault(&cfg.Build.CacheDir, ".build-cache")
	setDefault(&cfg.Build.PartialDir, "html")
	setDefault(&cfg.Build.Navigation, NavigationCategory)
	if cfg.Build.PostsPerPage == 0 {
		cfg.Build.PostsPerPage = 10
	}
	if cfg.Build.PaginationWindow == 0 {
		cfg.Build.PaginationWindow = 5
	}
	if cfg.Build.Threads <= 0 {
		cfg.Build.Threads = runtime.NumCPU()
	}
	return nil
}

// HomepageLimit is the number of posts shown on the homepage.
func (b BuildConfig) HomepageLimit() int {
	if b.HomepagePostsLimit > 0 {
		return b.HomepagePostsLimit
	}
	return b.PostsPerPage
}

// SearchDefaultApplier handles Search configuration defaults.
type SearchDefaultApplier struct{}

func (s *SearchDefaultApplier) Domain() string { return "search" }

func (s *SearchDefaultApplier) ApplyDefaults(cfg *Config) error {
	setDefault(&cfg.Search.SQLitePath, "search.db")
	return nil
}

// EventsDefaultApplier handles Events configuration defaults.
type EventsDefaultApplier struct{}

func (e *EventsDefaultApplier) Domain() string { return "events" }

func (e *EventsDefaultApplier) ApplyDefaults(cfg *Config) error {
	setDefault(&cfg.Events.Subject, "sitebuilder.builds")
	return nil
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
