package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRun_DecodesFileToOutput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.html")
	out := filepath.Join(dir, "out.html")
	if err := os.WriteFile(in, []byte("<meta charset=\"iso-8859-1\"><p>na\xefve</p>"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	var stderr bytes.Buffer
	code := run(context.Background(), []string{"-env", "", "-output", out, in}, &stderr)
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr.String())
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(b), "naïve") {
		t.Fatalf("unexpected output: %q", b)
	}
}

func TestRun_ConfigFileSuppliesInputs(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.html")
	out := filepath.Join(dir, "out.txt")
	if err := os.WriteFile(in, []byte("<title>T</title><p>body</p>"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	cfgPath := filepath.Join(dir, "cfg.yaml")
	yml := "inputs: [\"" + in + "\"]\noutput: \"" + out + "\"\nmode: text\n"
	if err := os.WriteFile(cfgPath, []byte(yml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	var stderr bytes.Buffer
	if code := run(context.Background(), []string{"-env", "", "-config", cfgPath}, &stderr); code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr.String())
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(b) != "T\n\nbody\n" {
		t.Fatalf("unexpected output: %q", b)
	}
}

func TestRun_ExitCodes(t *testing.T) {
	var stderr bytes.Buffer
	if code := run(context.Background(), []string{"-env", ""}, &stderr); code != 1 {
		t.Fatalf("no inputs: exit code %d", code)
	}
	if code := run(context.Background(), []string{"-env", "", "-mode", "pdf", "x.html"}, &stderr); code != 1 {
		t.Fatalf("bad mode: exit code %d", code)
	}
	missing := filepath.Join(t.TempDir(), "missing.html")
	if code := run(context.Background(), []string{"-env", "", "-output", filepath.Join(t.TempDir(), "o"), missing}, &stderr); code != 1 {
		t.Fatalf("all inputs failed: exit code %d", code)
	}
	if code := run(context.Background(), []string{"-bogus"}, &stderr); code != 1 {
		t.Fatalf("bad flag: exit code %d", code)
	}
	if code := run(context.Background(), []string{"-version"}, &stderr); code != 0 {
		t.Fatalf("version: exit code %d", code)
	}
}
