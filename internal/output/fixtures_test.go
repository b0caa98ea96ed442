package output

import "github.com/dantiw/csreview/internal/review"

func sampleIssues() []review.Issue {
	return []review.Issue{
		{ID: "a1", File: "Services/OrderService.cs", Line: 12, Severity: review.SeverityHigh,
			Type: review.ConcernPerformance, RuleID: "PF002",
			Message: "Blocking on asynchronous work with .Result risks deadlocks and starves the thread pool; await it: var order = _orders.GetAsync<Order>(id).Result;"},
		{ID: "b2", File: "Program.cs", Line: 3, Severity: review.SeverityMedium,
			Type: review.ConcernResourceLifetime, RuleID: "RL006",
			Message: "new HttpClient() per use exhausts sockets; use IHttpClientFactory or a shared instance"},
		{ID: "c3", File: "Services/OrderService.cs", Line: 0, Severity: review.SeverityLow,
			Type: review.ConcernArchitecture, RuleID: "AR004",
			Message: "File declares 24 public methods (limit 20); split the type by responsibility"},
		{ID: "d4", File: "Services/OrderService.cs", Line: 40, Severity: review.SeverityMedium,
			Type: review.ConcernResourceLifetime, RuleID: "RL005",
			Message: "Static List lives for the whole process; entries added to it are never collected"},
	}
}

func sampleReport() *review.Report {
	issues := sampleIssues()
	return &review.Report{
		Tool:         review.ToolName,
		Version:      "test",
		Root:         ".",
		GroupBy:      review.GroupByFile,
		FilesScanned: 3,
		Failures: []review.Failure{
			{Path: "Broken.cs", Kind: "io failure", Error: "content is not valid UTF-8"},
		},
		Summary: review.ComputeSummary(issues),
		Issues:  issues,
	}
}

func cleanReport(files int) *review.Report {
	return &review.Report{
		Tool:         review.ToolName,
		Version:      "test",
		Root:         ".",
		FilesScanned: files,
		Issues:       []review.Issue{},
	}
}
