package commands

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/testutil"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("sitebuilder"),
		kong.Bind(&Global{Out: &out}),
		kong.Exit(func(int) { t.Fatalf("unexpected exit for %v", args) }),
	)
	require.NoError(t, err)

	ctx, err := parser.Parse(args)
	require.NoError(t, err)
	err = ctx.Run(cli)
	return out.String(), err
}

func parse(t *testing.T, args ...string) *CLI {
	t.Helper()
	cli := &CLI{}
	parser, err := kong.New(cli, kong.Bind(&Global{}))
	require.NoError(t, err)
	_, err = parser.Parse(args)
	require.NoError(t, err)
	return cli
}

func TestParseDefaults(t *testing.T) {
	cli := parse(t, "build")
	require.Equal(t, "config.yaml", cli.Config)
	require.True(t, cli.Build.Parallel)
	require.False(t, cli.Build.Incremental)

	cli = parse(t, "build", "--no-parallel", "-i")
	require.False(t, cli.Build.Parallel)
	require.True(t, cli.Build.Incremental)

	cli = parse(t, "watch", "--rebuild-every", "1h")
	require.Equal(t, 8080, cli.Watch.Port)
	require.Equal(t, time.Hour, cli.Watch.RebuildEvery)

	cli = parse(t, "search", "go", "--limit", "3")
	require.Equal(t, "go", cli.Search.Query)
	require.Equal(t, 3, cli.Search.Limit)
}

func TestParseLogLevel(t *testing.T) {
	require.Equal(t, slog.LevelInfo, parseLogLevel(false, ""))
	require.Equal(t, slog.LevelDebug, parseLogLevel(true, ""))
	require.Equal(t, slog.LevelWarn, parseLogLevel(true, "WARN"))
	require.Equal(t, slog.LevelError, parseLogLevel(false, "error"))
	require.Equal(t, slog.LevelDebug, parseLogLevel(true, "bogus"))
}

func TestNewCommand(t *testing.T) {
	site := testutil.NewSite(t).
		WithPost("dev", "existing", "Existing", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	cfgPath := site.WriteConfig("")

	out, err := run(t, "-c", cfgPath, "new", "dev", "Hello There")
	require.NoError(t, err)
	require.Contains(t, out, "✅ Created:")
	require.FileExists(t, site.Path("content", "posts", "dev", "hello-there.md"))

	_, err = run(t, "-c", cfgPath, "new", "dev", "Hello There")
	require.True(t, errors.HasCategory(err, errors.CategoryAlreadyExists))
}

func TestNewCommand_MissingCategoryIsNotAnError(t *testing.T) {
	site := testutil.NewSite(t).
		WithPost("dev", "existing", "Existing", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	cfgPath := site.WriteConfig("")

	out, err := run(t, "-c", cfgPath, "new", "ops", "Runbook")
	require.NoError(t, err)
	require.Contains(t, out, "Category 'ops' doesn't exist yet.")
	require.Contains(t, out, "  - dev (Dev)")
	require.NoDirExists(t, site.Path("content", "posts", "ops"))
}

func TestBuildSearchAndHistory(t *testing.T) {
	day := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	site := testutil.NewSite(t).
		WithPost("dev", "go-channels", "Go Channels", day, "go").
		WithPost("dev", "rust-traits", "Rust Traits", day.Add(24*time.Hour), "rust")
	cfgPath := site.WriteConfig("search:\n  sqlite: true\n")

	out, err := run(t, "-c", cfgPath, "build")
	require.NoError(t, err)
	require.Contains(t, out, "Build complete")
	require.FileExists(t, site.Path("dist", "dev", "go-channels", "index.html"))

	out, err = run(t, "-c", cfgPath, "search", "channels")
	require.NoError(t, err)
	require.Contains(t, out, "Go Channels")
	require.NotContains(t, out, "Rust Traits")
	require.Contains(t, out, "1 result(s)")

	out, err = run(t, "-c", cfgPath, "build", "-i", "--no-parallel")
	require.NoError(t, err)
	require.Contains(t, out, "Skipping (unchanged)")

	out, err = run(t, "-c", cfgPath, "history", "--limit", "5")
	require.NoError(t, err)
	require.Contains(t, out, "incremental")
	require.Contains(t, out, "full")
	require.Contains(t, out, "success")
}

func TestBuildSinglePost(t *testing.T) {
	site := testutil.NewSite(t).
		WithPost("dev", "solo", "Solo", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	cfgPath := site.WriteConfig("")

	out, err := run(t, "-c", cfgPath, "build", "-p", site.Path("content", "posts", "dev", "solo.md"))
	require.NoError(t, err)
	require.Contains(t, out, "Building single post")
	require.FileExists(t, site.Path("dist", "dev", "solo", "index.html"))
}

func TestSearchWithoutDatabase(t *testing.T) {
	site := testutil.NewSite(t)
	cfgPath := site.WriteConfig("")

	_, err := run(t, "-c", cfgPath, "search", "anything")
	require.True(t, errors.HasCategory(err, errors.CategoryNotFound))
}

func TestInvalidConfigIsConfigError(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("site: [not, a, map]\n"), 0o600))

	_, err := run(t, "-c", cfgPath, "build")
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))
	require.Equal(t, 7, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}
