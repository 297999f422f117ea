package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"BuildID", KeyBuildID, "b1", BuildID("b1")},
		{"Stage", KeyStage, "render", Stage("render")},
		{"Path", KeyPath, "content/posts/dev/a.md", Path("content/posts/dev/a.md")},
		{"Slug", KeySlug, "a", Slug("a")},
		{"Category", KeyCategory, "work/apps", Category("work/apps")},
		{"Tag", KeyTag, "go", Tag("go")},
		{"Worker", KeyWorker, "worker-0", Worker("worker-0")},
		{"Output", KeyOutput, "dist", Output("dist")},
		{"Template", KeyTemplate, "post.html", Template("post.html")},
		{"Reason", KeyReason, "cached", Reason("cached")},
		{"URL", KeyURL, "nats://localhost:4222", URL("nats://localhost:4222")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if got := tc.attr.Value.String(); got != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %v", tc.name, tc.attrVal, got)
		}
	}
}

func TestErrorHelper(t *testing.T) {
	if got := Error(nil).Value.String(); got != "" {
		t.Fatalf("expected empty value for nil error, got %q", got)
	}
	if got := Error(errors.New("boom")).Value.String(); got != "boom" {
		t.Fatalf("expected boom, got %q", got)
	}
	if got := Count(3).Value.Int64(); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
}
