package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "config.yaml").
			Build()

		if err.Category() != CategoryConfig {
			t.Errorf("expected category %s, got %s", CategoryConfig, err.Category())
		}
		if err.Severity() != SeverityFatal {
			t.Errorf("expected severity %s, got %s", SeverityFatal, err.Severity())
		}
		if err.Message() != "invalid configuration" {
			t.Errorf("expected message 'invalid configuration', got %s", err.Message())
		}

		file, exists := err.Context().GetString("file")
		if !exists || file != "config.yaml" {
			t.Errorf("expected context file=config.yaml, got %v", file)
		}
	})

	t.Run("Error detection", func(t *testing.T) {
		err := ConfigError("test error").Build()

		if !IsClassified(err) {
			t.Error("expected error to be classified")
		}
		if !HasCategory(err, CategoryConfig) {
			t.Error("expected error to have config category")
		}
		if !HasSeverity(err, SeverityFatal) {
			t.Error("expected error to have fatal severity")
		}
		if err.CanRetry() {
			t.Error("expected config error to not be retryable")
		}
		if !err.IsFatal() {
			t.Error("expected config error to be fatal")
		}
	})

	t.Run("Format errors require user action", func(t *testing.T) {
		err := FormatError("missing title").WithContext("path", "content/posts/dev/a.md").Build()
		if err.CanRetry() {
			t.Error("format errors should not be retryable")
		}
		if err.IsFatal() {
			t.Error("format errors should only fail the file")
		}
	})
}

func TestErrorBuilder(t *testing.T) {
	originalErr := errors.New("original error")
	err := WrapError(originalErr, CategoryNetwork, "publish failed").
		Warning().
		Retryable().
		WithContext("subject", "sitebuilder.builds").
		Build()

	if err.Severity() != SeverityWarning {
		t.Errorf("expected warning severity, got %s", err.Severity())
	}
	if !err.CanRetry() {
		t.Error("expected retryable error")
	}
	if !errors.Is(err, originalErr) {
		t.Error("expected wrapped error to match original")
	}
	want := "[network:warning] publish failed: original error"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestAsClassified_WrappedChain(t *testing.T) {
	inner := RenderError("render failed").Build()
	wrapped := fmt.Errorf("process post: %w", inner)

	got, ok := AsClassified(wrapped)
	if !ok {
		t.Fatal("expected classified error in chain")
	}
	if got.Category() != CategoryRender {
		t.Errorf("expected render category, got %s", got.Category())
	}
	if GetCategory(errors.New("plain")) != CategoryInternal {
		t.Error("plain errors should report the internal category")
	}
}

func TestErrorContext_Merge(t *testing.T) {
	a := ErrorContext{"a": 1, "shared": "a"}
	b := ErrorContext{"b": 2, "shared": "b"}

	merged := a.Merge(b)
	if merged["a"] != 1 || merged["b"] != 2 {
		t.Errorf("unexpected merge result: %v", merged)
	}
	if merged["shared"] != "b" {
		t.Errorf("expected other to take precedence, got %v", merged["shared"])
	}

	var empty ErrorContext
	if got := empty.Merge(b); got["b"] != 2 {
		t.Errorf("merge into nil context lost values: %v", got)
	}
}

func TestClassifiedError_WithContextDoesNotMutate(t *testing.T) {
	base := BuildError("3 posts failed to build").Build()
	withPath := base.WithContext("failed", 3)

	if _, ok := base.Context().Get("failed"); ok {
		t.Error("WithContext mutated the original error")
	}
	if v, ok := withPath.Context().Get("failed"); !ok || v != 3 {
		t.Errorf("expected failed=3, got %v", v)
	}
}
