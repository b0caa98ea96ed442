package review

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
)

const (
	// modernFramework matches net5.0 and later as well as netcoreapp3.x.
	modernFramework = `^(?:net(?:[5-9]|\d{2,})\.\d+|netcoreapp3\.\d+)`
	dbCall          = `\.(ToListAsync|ToArrayAsync|FirstOrDefaultAsync|FirstAsync|SingleOrDefaultAsync|SingleAsync|FindAsync|Find|CountAsync|AnyAsync|SaveChanges|SaveChangesAsync|ExecuteSqlRaw|ExecuteSqlRawAsync|ExecuteSqlInterpolated|FromSqlRaw|ExecuteReader|ExecuteReaderAsync|ExecuteScalar|ExecuteScalarAsync|ExecuteNonQuery|ExecuteNonQueryAsync|Query|QueryAsync|QueryFirstOrDefault|QueryFirstOrDefaultAsync)\s*\(`
	parallelEscape  = `\bParallel\.For(?:Each)?(?:Async)?\s*\(|\bTask\.WhenAll\s*\(`
	publicMethod    = `(?m)^\s*public\s+(?:(?:static|virtual|override|async|sealed|abstract|new|unsafe)\s+)*[\w<>\[\],.?]+\s+\w+\s*(?:<[^>]*>)?\s*\(`

	// handlerGroup is a method group named like an event handler.
	handlerGroup = `(?:[A-Za-z_]\w*\.)*(?:On[A-Z]\w*|Handle\w*|\w*(?:Handler|Changed|Callback))\s*;`
	delegateRHS  = `new\s+[\w.<>]*EventHandler\b|\(\s*\w*\s*,\s*\w*\s*\)\s*=>|delegate\b|` + handlerGroup
)

var (
	subscribe   = eventOperator(`\+=`)
	unsubscribe = eventOperator(`-=`)
)

// eventOperator matches op applied to an event: a PascalCase member given a
// PascalCase method group, or any target given a delegate or handler-named
// method group. Compound assignment of plain values does not match.
func eventOperator(op string) string {
	return `\.[A-Z]\w*\s*` + op + `\s*(?:[A-Za-z_]\w*\.)*[A-Z]\w*\s*;|\w\s*` + op + `\s*(?:` + delegateRHS + `)`
}

// MaxPublicMethods is the public method count above which a class is
// reported as oversized.
const MaxPublicMethods = 20

// BuiltinRules returns the rule table in registry order.
func BuiltinRules() []PatternRule {
	return []PatternRule{
		// resource-lifetime
		{
			ID:        "RL001",
			Title:     "IDisposable without Dispose",
			Concern:   ConcernResourceLifetime,
			Severity:  SeverityHigh,
			Scope:     ScopeWholeFile,
			Predicate: Contains(`\bclass\s+\w+[^{;]*:[^{;]*\bIDisposable\b`),
			Unless:    Contains(`\bvoid\s+(?:IDisposable\.)?Dispose\s*\(`),
			Message:   "Class implements IDisposable but defines no Dispose method",
		},
		{
			ID:        "RL002",
			Title:     "Event handler leak",
			Concern:   ConcernResourceLifetime,
			Severity:  SeverityMedium,
			Scope:     ScopeWholeFile,
			Predicate: CountExceeds(subscribe, unsubscribe),
			Message:   "Event handlers are subscribed {left} time(s) but unsubscribed {right} time(s); handlers that are never removed keep their subscribers alive",
		},
		{
			ID:        "RL003",
			Title:     "Timer never disposed",
			Concern:   ConcernResourceLifetime,
			Severity:  SeverityHigh,
			Scope:     ScopePerLine,
			Predicate: Line(`\bnew\s+((?:System\.Threading\.|System\.Timers\.)?Timer)\s*\(`, ""),
			Unless:    Contains(`\.Dispose(?:Async)?\s*\(`),
			Message:   "{context} is created but nothing in the file calls Dispose; the timer roots its callback until process exit: {statement}",
		},
		{
			ID:        "RL004",
			Title:     "Disposable outside using",
			Concern:   ConcernResourceLifetime,
			Severity:  SeverityMedium,
			Scope:     ScopePerLine,
			Predicate: Line(`\bnew\s+(FileStream|StreamReader|StreamWriter|BinaryReader|BinaryWriter|MemoryStream|SqlConnection|SqlCommand|NpgsqlConnection|SqliteConnection|MySqlConnection)\s*\(`, `\busing\b|\breturn\b`),
			Message:   "{context} is created outside a using statement and may never be disposed: {statement}",
		},
		{
			ID:        "RL005",
			Title:     "Static collection",
			Concern:   ConcernResourceLifetime,
			Severity:  SeverityLow,
			Scope:     ScopePerLine,
			Predicate: Line(`\bstatic\s+(?:readonly\s+)?(List|Dictionary|HashSet|ConcurrentDictionary|ConcurrentBag|ConcurrentQueue|Queue|Stack)\s*<`, `\bconst\b|\bImmutable`),
			Message:   "Static {context} lives for the whole process; entries added to it are never collected",
		},
		{
			ID:        "RL006",
			Title:     "HttpClient per use",
			Concern:   ConcernResourceLifetime,
			Severity:  SeverityMedium,
			Scope:     ScopePerLine,
			Predicate: Line(`\bnew\s+HttpClient\s*\(`, ""),
			Message:   "new HttpClient() per use exhausts sockets; use IHttpClientFactory or a shared instance",
		},

		// architecture
		{
			ID:        "AR001",
			Title:     "Controller uses DbContext",
			Concern:   ConcernArchitecture,
			Severity:  SeverityMedium,
			Scope:     ScopeWholeFile,
			Predicate: Contains(`\bclass\s+\w+Controller\b`),
			When:      Contains(`\b\w*DbContext\b`),
			Message:   "Controller accesses a DbContext directly; move data access behind a service or repository",
		},
		{
			ID:        "AR002",
			Title:     "Service locator",
			Concern:   ConcernArchitecture,
			Severity:  SeverityMedium,
			Scope:     ScopePerLine,
			Predicate: Line(`\.(?:GetService|GetRequiredService)\s*<\s*([\w.]+)`, ""),
			Unless:    Contains(`\bclass\s+(?:Startup|Program)\b|\bWebApplication\.CreateBuilder\b`),
			Message:   "Resolving {context} through the service locator hides a dependency; inject it through the constructor: {statement}",
		},
		{
			ID:        "AR003",
			Title:     "Direct dependency construction",
			Concern:   ConcernArchitecture,
			Severity:  SeverityMedium,
			Scope:     ScopePerLine,
			Predicate: Line(`\bnew\s+(\w+(?:Service|Repository))\s*\(`, ""),
			Message:   "{context} is constructed directly; register it in the container and inject it",
		},
		{
			ID:        "AR004",
			Title:     "Oversized class",
			Concern:   ConcernArchitecture,
			Severity:  SeverityLow,
			Scope:     ScopeWholeFile,
			Predicate: CountAbove(publicMethod, MaxPublicMethods),
			Message:   "File declares {left} public methods (limit {right}); split the type by responsibility",
		},
		{
			ID:        "AR005",
			Title:     "Static helper class",
			Concern:   ConcernArchitecture,
			Severity:  SeverityLow,
			Scope:     ScopePerLine,
			Predicate: Line(`\bstatic\s+class\s+(\w*(?:Helper|Helpers|Util|Utils|Utility|Utilities|Manager))\b`, ""),
			Message:   "Static class {context} collects unrelated behaviour that cannot be substituted in tests",
		},

		// performance/async
		{
			ID:        "PF001",
			Title:     "async void",
			Concern:   ConcernPerformance,
			Severity:  SeverityHigh,
			Scope:     ScopePerLine,
			Predicate: Line(`\basync\s+void\s+(\w+)\s*\(`, `\(\s*object\??\s+\w+\s*,\s*\w*EventArgs\b`),
			Message:   "{context} is async void: callers cannot await it and its exceptions crash the process; return Task",
		},
		{
			ID:        "PF002",
			Title:     "Sync over async",
			Concern:   ConcernPerformance,
			Severity:  SeverityHigh,
			Scope:     ScopePerLine,
			Predicate: Line(`(\.Result)\b|(\.Wait\s*\(\s*\))|(\.GetAwaiter\s*\(\s*\)\s*\.GetResult\s*\(\s*\))`, ""),
			Message:   "Blocking on asynchronous work with {context} risks deadlocks and starves the thread pool; await it: {statement}",
		},
		{
			ID:        "PF003",
			Title:     "Database call in loop",
			Concern:   ConcernPerformance,
			Severity:  SeverityHigh,
			Scope:     ScopePerLine,
			Predicate: InLoop(Line(dbCall, ""), parallelEscape),
			Message:   "Database call {context} runs inside a loop (depth {depth}); query once outside the loop: {statement}",
		},
		{
			ID:        "PF004",
			Title:     "String concatenation in loop",
			Concern:   ConcernPerformance,
			Severity:  SeverityLow,
			Scope:     ScopePerLine,
			Predicate: InLoop(Line(`\w\s*\+=\s*(?:\$?@?"|\$"|[\w.]+\s*\+\s*")`, ""), ""),
			Message:   "String concatenation inside a loop allocates on every pass; use a StringBuilder",
		},
		{
			ID:        "PF005",
			Title:     "Thread.Sleep",
			Concern:   ConcernPerformance,
			Severity:  SeverityMedium,
			Scope:     ScopePerLine,
			Predicate: Line(`\bThread\.Sleep\s*\(`, ""),
			Message:   "Thread.Sleep blocks a thread-pool thread; use await Task.Delay",
		},
		{
			ID:        "PF006",
			Title:     "Count() instead of Any()",
			Concern:   ConcernPerformance,
			Severity:  SeverityLow,
			Scope:     ScopePerLine,
			Predicate: Line(`\.Count\s*\(\s*\)\s*(?:>\s*0|!=\s*0|>=\s*1)`, ""),
			Message:   "{context} enumerates the whole sequence; use Any()",
		},

		// dependency-compatibility
		{
			ID:       "DP001",
			Title:    "2.x package on modern framework",
			Concern:  ConcernDependency,
			Severity: SeverityHigh,
			Package: &PackageCheck{
				Name:      regexp.MustCompile(`^Microsoft\.(?:AspNetCore|EntityFrameworkCore|Extensions)(?:\.|$)`),
				Version:   EarlyV2,
				Framework: regexp.MustCompile(modernFramework),
			},
			Message: "Package {package} {version} is built for the 2.x runtime and is incompatible with {framework}; upgrade it to the version matching the target framework",
		},
		{
			ID:       "DP002",
			Title:    "Shared framework as package",
			Concern:  ConcernDependency,
			Severity: SeverityMedium,
			Package: &PackageCheck{
				Name:      regexp.MustCompile(`^Microsoft\.AspNetCore\.(?:App|All)$`),
				Framework: regexp.MustCompile(modernFramework),
			},
			Message: "{package} is part of the shared framework on {framework}; replace the PackageReference with a FrameworkReference",
		},
		{
			ID:       "DP003",
			Title:    "Outdated Newtonsoft.Json",
			Concern:  ConcernDependency,
			Severity: SeverityMedium,
			Package: &PackageCheck{
				Name:    regexp.MustCompile(`^Newtonsoft\.Json$`),
				Version: MajorBelow(13),
			},
			Message: "Package {package} {version} is affected by a denial-of-service issue fixed in 13.0.1; upgrade it",
		},
		{
			ID:       "DP004",
			Title:    "Floating package version",
			Concern:  ConcernDependency,
			Severity: SeverityLow,
			Package: &PackageCheck{
				Name:    regexp.MustCompile(`.`),
				Version: func(v string) bool { return strings.Contains(v, "*") },
			},
			Message: "Package {package} uses floating version {version}; restores are not reproducible",
		},
	}
}

var (
	builtinOnce sync.Once
	builtin     *Registry
)

// Builtin returns the shared registry of built-in rules.
func Builtin() *Registry {
	builtinOnce.Do(func() {
		builtin = MustRegistry(BuiltinRules())
	})
	return builtin
}

// EarlyV2 reports whether version is 2.0, 2.1 or 2.2.
func EarlyV2(version string) bool {
	major, minor, ok := parseVersion(version)
	return ok && major == 2 && minor <= 2
}

// MajorBelow returns a version check for major versions below n.
func MajorBelow(n int) func(string) bool {
	return func(version string) bool {
		major, _, ok := parseVersion(version)
		return ok && major < n
	}
}

// parseVersion reads the major and minor components of a NuGet version,
// accepting plain versions and inclusive ranges such as "[2.1.0, )".
func parseVersion(v string) (major, minor int, ok bool) {
	v = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(v), "[("))
	if i := strings.IndexAny(v, ",)]"); i >= 0 {
		v = v[:i]
	}
	parts := strings.SplitN(strings.TrimSpace(v), ".", 3)
	if len(parts) == 0 || parts[0] == "" {
		return 0, 0, false
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	if len(parts) > 1 {
		minor, err = strconv.Atoi(parts[1])
		if err != nil {
			return 0, 0, false
		}
	}
	return major, minor, true
}
