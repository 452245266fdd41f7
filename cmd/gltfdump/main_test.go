package main

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-gltf/engine/config"
	"github.com/Carmen-Shannon/oxy-gltf/internal/gltftest"
)

const triangleReport = "First Vertex: (0.000000, 0.000000, 0.000000)\n" +
	"First Normal: (0.000000, 0.000000, 1.000000)\n" +
	"First Texcoord: (0.000000, 0.000000)\n" +
	"First Index: 0\n"

func runCapture(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun(t *testing.T) {
	t.Setenv(config.EnvPath, "")
	second := "First Vertex: (1.000000, 1.000000, 1.000000)\n" +
		"First Normal: (0.000000, 0.000000, 1.000000)\n" +
		"First Texcoord: (0.000000, 0.000000)\n" +
		"First Index: 1\n"

	cases := []struct {
		name    string
		options []gltftest.Option
		want    string
	}{
		{"single-triangle", nil, triangleReport},
		{"strided-positions", []gltftest.Option{gltftest.WithPositionStride(32)}, triangleReport},
		{"multiple-primitives", []gltftest.Option{gltftest.WithPrimitives(2)}, triangleReport + second},
		{"u32-indices", []gltftest.Option{gltftest.WithIndexType(gltftest.UnsignedInt)}, triangleReport},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			path := gltftest.WriteTriangle(t, t.TempDir(), c.options...)
			code, stdout, stderr := runCapture(t, path)
			if code != exitOK {
				t.Fatalf("exit code:\nwant %d\nhave %d (stderr %q)", exitOK, code, stderr)
			}
			if stdout != c.want {
				t.Fatalf("stdout:\nwant %q\nhave %q", c.want, stdout)
			}
			if stderr != "" {
				t.Fatalf("stderr: unexpected %q", stderr)
			}
		})
	}
}

func TestRunFailures(t *testing.T) {
	t.Setenv(config.EnvPath, "")
	cases := []struct {
		name    string
		options []gltftest.Option
		wants   []string
	}{
		{"missing-texcoord", []gltftest.Option{gltftest.WithoutTexCoord()}, []string{"schema error", "TEXCOORD_0"}},
		{"out-of-range-accessor", []gltftest.Option{gltftest.WithPositionCount(1000)}, []string{"range error", "entity=accessor", "index=0"}},
		{"missing-indices", []gltftest.Option{gltftest.WithoutIndices()}, []string{"schema error", "indices"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			path := gltftest.WriteTriangle(t, t.TempDir(), c.options...)
			code, stdout, stderr := runCapture(t, path)
			if code != exitError {
				t.Fatalf("exit code:\nwant %d\nhave %d", exitError, code)
			}
			if stdout != "" {
				t.Fatalf("stdout: unexpected %q", stdout)
			}
			if strings.Count(stderr, "\n") != 1 {
				t.Fatalf("stderr: want one line, have %q", stderr)
			}
			for _, want := range c.wants {
				if !strings.Contains(stderr, want) {
					t.Fatalf("stderr: %q does not mention %q", stderr, want)
				}
			}
		})
	}
}

func TestRunHugeOffset(t *testing.T) {
	t.Setenv(config.EnvPath, "")
	doc, bin := gltftest.Triangle()
	view := doc["bufferViews"].([]map[string]any)[3]
	view["byteOffset"] = math.MaxInt64
	view["byteLength"] = 1
	path := gltftest.Write(t, t.TempDir(), "model", doc, bin)

	code, stdout, stderr := runCapture(t, path)
	if code != exitError || stdout != "" || strings.Count(stderr, "\n") != 1 {
		t.Fatalf("run: have code %d, stdout %q, stderr %q", code, stdout, stderr)
	}
	if !strings.Contains(stderr, "range error") || !strings.Contains(stderr, "entity=bufferView") {
		t.Fatalf("stderr: %q does not name the bufferView range error", stderr)
	}
}

func TestRunMissingFile(t *testing.T) {
	t.Setenv(config.EnvPath, "")
	code, stdout, stderr := runCapture(t, filepath.Join(t.TempDir(), "missing.gltf"))
	if code != exitError || stdout != "" || !strings.Contains(stderr, "io error") {
		t.Fatalf("run: have code %d, stdout %q, stderr %q", code, stdout, stderr)
	}
}

func TestRunUsage(t *testing.T) {
	t.Setenv(config.EnvPath, "")
	for _, args := range [][]string{{}, {"a.gltf", "b.gltf"}, {"-nope", "a.gltf"}} {
		code, stdout, stderr := runCapture(t, args...)
		if code != exitUsage {
			t.Fatalf("run(%q):\nwant %d\nhave %d", args, exitUsage, code)
		}
		if stdout != "" || !strings.Contains(stderr, "usage: gltfdump") {
			t.Fatalf("run(%q): have stdout %q, stderr %q", args, stdout, stderr)
		}
	}
	if code, _, _ := runCapture(t, "-h"); code != exitOK {
		t.Fatalf("run(-h):\nwant %d\nhave %d", exitOK, code)
	}
}

func TestRunConfig(t *testing.T) {
	dir := t.TempDir()
	path := gltftest.WriteTriangle(t, dir, gltftest.WithDataURI())

	strict := filepath.Join(dir, "strict.toml")
	if err := os.WriteFile(strict, []byte("allow_data_uri = false\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	// From the environment.
	t.Setenv(config.EnvPath, strict)
	code, stdout, stderr := runCapture(t, path)
	if code != exitError || stdout != "" || !strings.Contains(stderr, "decode error") {
		t.Fatalf("run with %s: have code %d, stdout %q, stderr %q", config.EnvPath, code, stdout, stderr)
	}

	// The flag wins over the environment.
	lenient := filepath.Join(dir, "lenient.toml")
	if err := os.WriteFile(lenient, []byte("allow_data_uri = true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	code, stdout, _ = runCapture(t, "-config", lenient, path)
	if code != exitOK || stdout != triangleReport {
		t.Fatalf("run -config: have code %d, stdout %q", code, stdout)
	}

	bad := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(bad, []byte("colour = \"red\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	code, stdout, stderr = runCapture(t, "-config", bad, path)
	if code != exitError || stdout != "" || strings.Count(stderr, "\n") != 1 {
		t.Fatalf("run -config bad: have code %d, stdout %q, stderr %q", code, stdout, stderr)
	}
}
