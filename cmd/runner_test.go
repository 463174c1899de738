package main

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/mkbecker/genreflow/internal/shared"
	"github.com/mkbecker/genreflow/internal/tasks"
	tu "github.com/mkbecker/genreflow/internal/testing"
)

// mockEngine records invocations and returns canned results.
type mockEngine struct {
	OrganizeResult *tasks.OrganizeResult
	OrganizeErr    error
	OrganizeOpts   tasks.OrganizeOpts
	OrganizeCalls  int

	Report       *tasks.CollectionReport
	AnalyzeErr   error
	AnalyzeCalls int
}

func (m *mockEngine) Organize(ctx context.Context, progress chan<- tasks.ProgressUpdate, opts tasks.OrganizeOpts) (*tasks.OrganizeResult, error) {
	m.OrganizeCalls++
	m.OrganizeOpts = opts
	return m.OrganizeResult, m.OrganizeErr
}

func (m *mockEngine) Analyze(ctx context.Context, progress chan<- tasks.ProgressUpdate, confidenceThreshold float64) (*tasks.CollectionReport, error) {
	m.AnalyzeCalls++
	return m.Report, m.AnalyzeErr
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			library := &tu.MockLibrary{}
			engine := &mockEngine{}

			runner := NewRunner(RunnerOpts{
				Config:  config,
				Logger:  logger,
				Output:  output,
				Library: library,
				Engine:  engine,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.library != library {
				t.Error("expected library to be set")
			}
			if runner.engine != engine {
				t.Error("expected engine to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if result := output.String(); result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if result := output.String(); result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			if err := runner.writePlain("test"); err == nil {
				t.Fatal("expected error from failing writer")
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) != 5 {
			t.Fatalf("expected 5 commands, got %d", len(commands))
		}

		names := map[string]bool{}
		for _, command := range commands {
			names[command.Name] = true
		}
		for _, want := range []string{"setup", "organize", "analyze", "train", "cache"} {
			if !names[want] {
				t.Errorf("expected %s command to be registered", want)
			}
		}
	})
}
