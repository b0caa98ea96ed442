package review

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/dantiw/csreview/internal/redact"
	"github.com/dantiw/csreview/internal/scanerr"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

const sleepyService = `public class SleepyService
{
    public void Run()
    {
        Thread.Sleep(100);
    }
}
`

const blockingService = `public class BlockingService
{
    public int Get() => client.GetAsync().Result;
}
`

func TestRun_PartialFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "A.cs"), sleepyService)
	writeFile(t, filepath.Join(dir, "B.cs"), "class B {}\n")
	writeFile(t, filepath.Join(dir, "C.cs"), blockingService)

	read := func(path string) (string, error) {
		if filepath.Base(path) == "B.cs" {
			return "", scanerr.New(scanerr.IOFailure, path, errors.New("permission denied"))
		}
		data, err := os.ReadFile(path)
		return string(data), err
	}

	report, err := Run(context.Background(), Builtin(), Options{Root: dir, Read: read, Jobs: 2})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if report.FilesScanned != 2 {
		t.Errorf("FilesScanned = %d, want 2", report.FilesScanned)
	}
	if len(report.Failures) != 1 {
		t.Fatalf("Failures = %d, want 1", len(report.Failures))
	}
	f := report.Failures[0]
	if f.Path != "B.cs" || f.Kind != "io failure" || f.Error != "permission denied" {
		t.Errorf("failure = %+v", f)
	}

	files := map[string]bool{}
	for _, is := range report.Issues {
		files[is.File] = true
	}
	if !files["A.cs"] || !files["C.cs"] || len(files) != 2 {
		t.Errorf("issue files = %v, want A.cs and C.cs", files)
	}
}

func TestRun_DiscoveryOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Zeta.cs"), sleepyService)
	writeFile(t, filepath.Join(dir, "Alpha", "Alpha.cs"), sleepyService)
	writeFile(t, filepath.Join(dir, "Mid.cs"), sleepyService)

	report, err := Run(context.Background(), Builtin(), Options{Root: dir, Jobs: 3})
	if err != nil {
		t.Fatal(err)
	}
	var order []string
	for _, is := range report.Issues {
		order = append(order, is.File)
	}
	if got := strings.Join(order, ","); got != "Alpha/Alpha.cs,Mid.cs,Zeta.cs" {
		t.Errorf("issue order = %s", got)
	}
}

func TestRun_Idempotent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "A.cs"), sleepyService)
	writeFile(t, filepath.Join(dir, "C.cs"), blockingService)

	run := func() []byte {
		report, err := Run(context.Background(), Builtin(), Options{Root: dir, Version: "test"})
		if err != nil {
			t.Fatal(err)
		}
		data, err := json.Marshal(report)
		if err != nil {
			t.Fatal(err)
		}
		return data
	}
	first, second := run(), run()
	if string(first) != string(second) {
		t.Errorf("reports differ:\n%s\n%s", first, second)
	}
}

func TestRun_NoApplicableFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "README.md"), "# readme\n")

	report, err := Run(context.Background(), Builtin(), Options{Root: dir})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if report.FilesScanned != 0 {
		t.Errorf("FilesScanned = %d, want 0", report.FilesScanned)
	}
	if !report.Clean() {
		t.Errorf("expected clean report, got %+v", report.Issues)
	}
}

func TestRun_MissingRoot(t *testing.T) {
	_, err := Run(context.Background(), Builtin(), Options{Root: filepath.Join(t.TempDir(), "nope")})
	if !scanerr.IsNotFound(err) {
		t.Errorf("error = %v, want not found", err)
	}
}

func TestRun_ConcernFilter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "A.cs"), sleepyService+"\nvar c = new HttpClient();\n")

	report, err := Run(context.Background(), Builtin(), Options{
		Root:     dir,
		Concerns: []Concern{ConcernResourceLifetime},
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, is := range report.Issues {
		if is.Type != ConcernResourceLifetime {
			t.Errorf("unexpected %s issue %s", is.Type, is.RuleID)
		}
	}
	if len(report.Issues) != 1 {
		t.Errorf("got %d issues, want 1", len(report.Issues))
	}
}

func TestRun_MaxIssues(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "A.cs"), "Thread.Sleep(1);\nThread.Sleep(2);\nThread.Sleep(3);\n")

	report, err := Run(context.Background(), Builtin(), Options{Root: dir, MaxIssues: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Issues) != 2 {
		t.Errorf("got %d issues, want 2", len(report.Issues))
	}
	if report.Summary.Total() != 2 {
		t.Errorf("summary total = %d, want 2", report.Summary.Total())
	}
}

const earlyProject = `<Project Sdk="Microsoft.NET.Sdk.Web">
  <PropertyGroup>
    <TargetFramework>net6.0</TargetFramework>
  </PropertyGroup>
  <ItemGroup>
    <PackageReference Include="Microsoft.EntityFrameworkCore" Version="2.2.6" />
  </ItemGroup>
</Project>
`

func TestRun_Dependencies(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Shop.csproj"), earlyProject)
	writeFile(t, filepath.Join(dir, "A.cs"), sleepyService)

	report, err := Run(context.Background(), Builtin(), Options{
		Root:              dir,
		Concerns:          []Concern{ConcernDependency},
		RequireDescriptor: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Issues) != 1 {
		t.Fatalf("got %d issues, want 1: %+v", len(report.Issues), report.Issues)
	}
	is := report.Issues[0]
	if is.File != "Shop.csproj" || is.Severity != SeverityHigh {
		t.Errorf("issue = %+v", is)
	}
	if report.FilesScanned != 1 {
		t.Errorf("FilesScanned = %d, want 1 (source files are not scanned)", report.FilesScanned)
	}
}

func TestRun_FullReviewIncludesDescriptor(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Shop.csproj"), earlyProject)
	writeFile(t, filepath.Join(dir, "A.cs"), sleepyService)

	report, err := Run(context.Background(), Builtin(), Options{Root: dir})
	if err != nil {
		t.Fatal(err)
	}
	var rules []string
	for _, is := range report.Issues {
		rules = append(rules, is.RuleID)
	}
	if got := strings.Join(rules, ","); got != "PF005,DP001" {
		t.Errorf("rules = %s, want PF005,DP001", got)
	}
}

func TestRun_DescriptorErrors(t *testing.T) {
	t.Run("missing required", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "A.cs"), sleepyService)
		_, err := Run(context.Background(), Builtin(), Options{
			Root:              dir,
			Concerns:          []Concern{ConcernDependency},
			RequireDescriptor: true,
		})
		if !scanerr.IsNotFound(err) {
			t.Errorf("error = %v, want not found", err)
		}
	})

	t.Run("optional missing", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "A.cs"), sleepyService)
		report, err := Run(context.Background(), Builtin(), Options{Root: dir})
		if err != nil {
			t.Fatal(err)
		}
		if len(report.Failures) != 0 {
			t.Errorf("Failures = %+v", report.Failures)
		}
	})

	t.Run("malformed root", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "Bad.csproj")
		writeFile(t, path, "<Project><ItemGroup></Project>")
		_, err := Run(context.Background(), Builtin(), Options{Root: path, Concerns: []Concern{ConcernDependency}})
		if !scanerr.IsMalformed(err) {
			t.Errorf("error = %v, want malformed descriptor", err)
		}
	})

	t.Run("malformed among several", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "Bad.csproj"), "<Project><ItemGroup></Project>")
		writeFile(t, filepath.Join(dir, "Good.csproj"), earlyProject)
		report, err := Run(context.Background(), Builtin(), Options{Root: dir, Concerns: []Concern{ConcernDependency}})
		if err != nil {
			t.Fatal(err)
		}
		if len(report.Failures) != 1 || report.Failures[0].Kind != "malformed descriptor" {
			t.Errorf("Failures = %+v", report.Failures)
		}
		if len(report.Issues) != 1 || report.Issues[0].File != "Good.csproj" {
			t.Errorf("Issues = %+v", report.Issues)
		}
	})
}

type mapCache struct {
	mu   sync.Mutex
	data map[string]string
	hits int
}

func (c *mapCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if ok {
		c.hits++
	}
	return v, ok
}

func (c *mapCache) Put(key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func TestRun_Cache(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "A.cs"), sleepyService)
	writeFile(t, filepath.Join(dir, "C.cs"), blockingService)
	mc := &mapCache{data: map[string]string{}}

	first, err := Run(context.Background(), Builtin(), Options{Root: dir, Cache: mc})
	if err != nil {
		t.Fatal(err)
	}
	if len(mc.data) != 2 {
		t.Errorf("cache entries = %d, want 2", len(mc.data))
	}
	second, err := Run(context.Background(), Builtin(), Options{Root: dir, Cache: mc})
	if err != nil {
		t.Fatal(err)
	}
	if mc.hits != 2 {
		t.Errorf("cache hits = %d, want 2", mc.hits)
	}
	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Errorf("cached report differs:\n%s\n%s", a, b)
	}

	writeFile(t, filepath.Join(dir, "A.cs"), "class A {}\n")
	third, err := Run(context.Background(), Builtin(), Options{Root: dir, Cache: mc})
	if err != nil {
		t.Fatal(err)
	}
	for _, is := range third.Issues {
		if is.File == "A.cs" {
			t.Errorf("changed file served from cache: %+v", is)
		}
	}
}

func TestRun_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "A.cs"), sleepyService)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Run(ctx, Builtin(), Options{Root: dir}); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestScanFiles_ResultsInInputOrder(t *testing.T) {
	dir := t.TempDir()
	var files []string
	for _, name := range []string{"c.cs", "a.cs", "b.cs"} {
		p := filepath.Join(dir, name)
		writeFile(t, p, sleepyService)
		files = append(files, p)
	}
	results, err := ScanFiles(context.Background(), Builtin(), files, Options{Jobs: 2})
	if err != nil {
		t.Fatal(err)
	}
	for i, res := range results {
		if res.Path != filepath.ToSlash(files[i]) {
			t.Errorf("results[%d].Path = %s, want %s", i, res.Path, files[i])
		}
		if res.Err != nil || len(res.Matches) != 1 {
			t.Errorf("results[%d] = %+v", i, res)
		}
	}
}

const secretStore = `public class Store
{
    public void Open()
    {
        var conn = new SqlConnection("Server=db;User Id=app;Password=hunter2supersecret;");
        var blob = client.GetStringAsync("https://acct.blob.core.windows.net/c?sv=2020&sig=abcdefghijklmnop1234567890").Result;
    }
}
`

func TestRun_RedactsSecretsInMessages(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Store.cs"), secretStore)

	run := func(redactFn func(string) string) map[string]string {
		t.Helper()
		report, err := Run(context.Background(), Builtin(), Options{
			Root:     dir,
			Concerns: []Concern{ConcernResourceLifetime, ConcernPerformance},
			Redact:   redactFn,
		})
		if err != nil {
			t.Fatalf("Run error: %v", err)
		}
		byRule := make(map[string]string)
		for _, is := range report.Issues {
			byRule[is.RuleID] = is.Message
		}
		return byRule
	}

	plain := run(nil)
	if !strings.Contains(plain["RL004"], "Password=hunter2supersecret") {
		t.Errorf("RL004 without redaction should show the statement: %q", plain["RL004"])
	}
	if !strings.Contains(plain["PF002"], "sig=abcdefghijklmnop1234567890") {
		t.Errorf("PF002 without redaction should show the statement: %q", plain["PF002"])
	}

	masked := run(redact.Func(true))
	if !strings.Contains(masked["RL004"], "Password=[REDACTED]") {
		t.Errorf("RL004 password should be masked: %q", masked["RL004"])
	}
	if !strings.Contains(masked["PF002"], "sig=[REDACTED]") {
		t.Errorf("PF002 signature should be masked: %q", masked["PF002"])
	}
	for id, msg := range masked {
		if strings.Contains(msg, "hunter2supersecret") || strings.Contains(msg, "abcdefghijklmnop1234567890") {
			t.Errorf("%s leaks a secret: %q", id, msg)
		}
	}
	if !strings.HasPrefix(masked["RL004"], "SqlConnection is created outside a using statement") {
		t.Errorf("RL004 should name the type: %q", masked["RL004"])
	}
}
