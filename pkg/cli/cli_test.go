package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Z2ZATL/Luma-CL/internal/config"
	"github.com/Z2ZATL/Luma-CL/internal/vm"
)

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run(args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeSource(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestFunctional runs every testdata/*.luma file and compares stdout
// followed by stderr with the matching .want file.
func TestFunctional(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*"+config.SourceFileExt))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Skip("No test files found")
	}

	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), config.SourceFileExt)
		t.Run(name, func(t *testing.T) {
			wantBytes, err := os.ReadFile(strings.TrimSuffix(file, config.SourceFileExt) + ".want")
			if err != nil {
				t.Fatalf("Failed to read .want file: %v", err)
			}
			want := strings.TrimSpace(string(wantBytes))

			code, stdout, stderr := runCLI(t, "", file)

			var parts []string
			if s := strings.TrimSpace(stdout); s != "" {
				parts = append(parts, s)
			}
			if s := strings.TrimSpace(stderr); s != "" {
				parts = append(parts, s)
			}
			got := strings.Join(parts, "\n")

			if got != want {
				t.Errorf("Output mismatch:\n--- want ---\n%s\n--- got ---\n%s", want, got)
			}
			if failed := strings.Contains(want, "Error: "); failed != (code == 1) {
				t.Errorf("exit code = %d", code)
			}
		})
	}
}

func TestRunSubcommandWithTime(t *testing.T) {
	path := writeSource(t, "t.luma", "show 1")

	code, stdout, _ := runCLI(t, "", "run", "-time", path)
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.HasPrefix(stdout, "1\n\nExecution time: ") || !strings.HasSuffix(stdout, "ms\n") {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestRunMissingFile(t *testing.T) {
	code, _, stderr := runCLI(t, "", filepath.Join(t.TempDir(), "missing.luma"))
	if code != 1 || !strings.HasPrefix(stderr, "Error: ") {
		t.Errorf("code=%d stderr=%q", code, stderr)
	}
}

func TestCompileAndRunChunk(t *testing.T) {
	src := writeSource(t, "prog.luma", "let x be 6\nrepeat 2 times then\n  x is x * 2\nend\nshow x")

	code, stdout, stderr := runCLI(t, "", "compile", src)
	if code != 0 {
		t.Fatalf("compile failed: %s", stderr)
	}
	out := strings.TrimSuffix(src, ".luma") + config.ChunkFileExt
	if !strings.HasPrefix(stdout, "Compiled "+src+" -> "+out) {
		t.Errorf("stdout = %q", stdout)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !vm.IsChunkFile(data) {
		t.Fatal("output is not a chunk file")
	}

	code, stdout, stderr = runCLI(t, "", out)
	if code != 0 {
		t.Fatalf("run chunk failed: %s", stderr)
	}
	if stdout != "24\n" {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestCompileOutputFlag(t *testing.T) {
	src := writeSource(t, "prog.luma", "show 1")
	out := filepath.Join(t.TempDir(), "custom.bin")

	if code, _, stderr := runCLI(t, "", "compile", "-o", out, src); code != 0 {
		t.Fatalf("compile failed: %s", stderr)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("output not written: %v", err)
	}
}

func TestCompileError(t *testing.T) {
	src := writeSource(t, "bad.luma", "let = 1")
	code, _, stderr := runCLI(t, "", "compile", src)
	if code != 1 || !strings.HasPrefix(stderr, "Error: Parse error at line 1") {
		t.Errorf("code=%d stderr=%q", code, stderr)
	}
}

func TestDisasm(t *testing.T) {
	src := writeSource(t, "d.luma", "let x be 1")

	code, stdout, stderr := runCLI(t, "", "disasm", src)
	if code != 0 {
		t.Fatalf("disasm failed: %s", stderr)
	}
	want := "== d.luma ==\n" +
		"0000    1 CONSTANT            0 '1'\n" +
		"0003    | DEFINE_GLOBAL       1 'x'\n"
	if !strings.HasPrefix(stdout, want) {
		t.Errorf("listing:\n%s\nwant prefix:\n%s", stdout, want)
	}
	if !strings.Contains(stdout, "RETURN") {
		t.Errorf("listing missing RETURN:\n%s", stdout)
	}
}

func TestFmt(t *testing.T) {
	src := writeSource(t, "f.luma", "let x is 1 # one\nif x>0 then show x end\n")
	want := "let x be 1 # one\nif x > 0 then\n    show x\nend\n"

	code, stdout, stderr := runCLI(t, "", "fmt", src)
	if code != 0 {
		t.Fatalf("fmt failed: %s", stderr)
	}
	if stdout != want {
		t.Errorf("fmt output:\n%s\nwant:\n%s", stdout, want)
	}

	if code, _, stderr := runCLI(t, "", "fmt", "-w", src); code != 0 {
		t.Fatalf("fmt -w failed: %s", stderr)
	}
	data, err := os.ReadFile(src)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != want {
		t.Errorf("file after -w:\n%s", data)
	}
}

func TestFmtSyntaxError(t *testing.T) {
	src := writeSource(t, "bad.luma", "let = 1")
	code, stdout, stderr := runCLI(t, "", "fmt", src)
	if code != 1 || stdout != "" || !strings.HasPrefix(stderr, "Error: Parse error at line 1") {
		t.Errorf("code=%d stdout=%q stderr=%q", code, stdout, stderr)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	db := filepath.Join(t.TempDir(), "profile.db")
	src := writeSource(t, "hot.luma", "let i be 0\nwhile i < 200 then\n  i is i + 1\nend")

	code, _, stderr := runCLI(t, "", "run", "-profile-db", db, src)
	if code != 0 {
		t.Fatalf("run failed: %s", stderr)
	}
	if !strings.Contains(stderr, "saved to "+db) {
		t.Errorf("stderr = %q", stderr)
	}

	code, stdout, stderr := runCLI(t, "", "profile", "-db", db)
	if code != 0 {
		t.Fatalf("profile failed: %s", stderr)
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "Run") || !strings.HasSuffix(lines[1], src) {
		t.Fatalf("profile listing:\n%s", stdout)
	}

	runID := strings.Fields(lines[1])[0]
	code, stdout, stderr = runCLI(t, "", "profile", "-db", db, "-run", runID)
	if code != 0 {
		t.Fatalf("profile -run failed: %s", stderr)
	}
	if !strings.Contains(stdout, "Execution Statistics (Top 10 Hot Spots):") || !strings.Contains(stdout, "Warm") {
		t.Errorf("hotspot table:\n%s", stdout)
	}
}

func TestProfileWithoutDatabase(t *testing.T) {
	code, _, stderr := runCLI(t, "", "profile")
	if code != 1 || !strings.Contains(stderr, "no profile database") {
		t.Errorf("code=%d stderr=%q", code, stderr)
	}
}

func TestConfigFlag(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "luma.toml")
	db := filepath.Join(dir, "from-config.db")
	content := "[analyzer]\nprofile_db = \"" + filepath.ToSlash(db) + "\"\n"
	if err := os.WriteFile(cfg, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	src := writeSource(t, "p.luma", "show 2")

	code, stdout, stderr := runCLI(t, "", "-config", cfg, "run", src)
	if code != 0 {
		t.Fatalf("run failed: %s", stderr)
	}
	if stdout != "2\n" {
		t.Errorf("stdout = %q", stdout)
	}
	if _, err := os.Stat(db); err != nil {
		t.Errorf("profile database from config not created: %v", err)
	}
}

func TestVersionAndHelp(t *testing.T) {
	code, stdout, _ := runCLI(t, "", "version")
	if code != 0 || stdout != "luma "+config.Version+"\n" {
		t.Errorf("version: code=%d stdout=%q", code, stdout)
	}

	code, stdout, _ = runCLI(t, "", "help")
	if code != 0 || !strings.Contains(stdout, "Usage:") {
		t.Errorf("help: code=%d stdout=%q", code, stdout)
	}
}

func TestVerbosityFlag(t *testing.T) {
	var v verbosityFlag
	for i := 0; i < 3; i++ {
		if err := v.Set("true"); err != nil {
			t.Fatal(err)
		}
	}
	if err := v.Set("false"); err != nil {
		t.Fatal(err)
	}
	if v != 3 || v.String() != "3" {
		t.Errorf("verbosity = %d", v)
	}
}
