package reporting

// dashboardTemplate is the self-contained HTML report. No external assets,
// so the file can be opened from disk or attached to a ticket as-is.
const dashboardTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Test Report {{.RunID}}</title>
<style>
  body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; margin: 0; background: #f5f6f8; color: #1f2430; }
  .container { max-width: 960px; margin: 0 auto; padding: 24px; }
  header { display: flex; justify-content: space-between; align-items: baseline; }
  h1 { font-size: 20px; margin: 0; }
  .meta { color: #6b7280; font-size: 13px; }
  .badge { display: inline-block; padding: 2px 10px; border-radius: 10px; font-size: 13px; font-weight: 600; }
  .badge.passed { background: #dcfce7; color: #166534; }
  .badge.failed { background: #fee2e2; color: #991b1b; }
  .cards { display: grid; grid-template-columns: repeat(auto-fit, minmax(140px, 1fr)); gap: 12px; margin: 20px 0; }
  .card { background: #fff; border-radius: 8px; padding: 14px; box-shadow: 0 1px 2px rgba(0,0,0,.06); }
  .card .value { font-size: 22px; font-weight: 700; }
  .card .label { color: #6b7280; font-size: 12px; text-transform: uppercase; }
  table { width: 100%; border-collapse: collapse; background: #fff; border-radius: 8px; overflow: hidden; box-shadow: 0 1px 2px rgba(0,0,0,.06); }
  th, td { text-align: left; padding: 8px 12px; font-size: 14px; border-bottom: 1px solid #eef0f3; }
  th { background: #f9fafb; color: #6b7280; font-size: 12px; text-transform: uppercase; }
  td.status-passed { color: #166534; }
  td.status-failed { color: #991b1b; }
  td.status-skipped { color: #92400e; }
  .error-cell { color: #991b1b; font-size: 12px; max-width: 320px; overflow-wrap: break-word; }
  section { margin-top: 28px; }
  h2 { font-size: 15px; color: #374151; }
  .alert { background: #fee2e2; color: #991b1b; border-radius: 8px; padding: 12px; margin-top: 16px; font-size: 14px; }
</style>
</head>
<body>
<div class="container">
  <header>
    <div>
      <h1>Test Report <span class="badge {{.Status}}">{{.Status}}</span></h1>
      <div class="meta">{{.TargetURL}} &middot; run {{.RunID}} &middot; {{.GeneratedAt.Format "2006-01-02 15:04:05"}}</div>
    </div>
  </header>

  {{if .Error}}<div class="alert">{{.Error}}</div>{{end}}

  <div class="cards">
    <div class="card"><div class="value">{{.Summary.TotalFeatures}}</div><div class="label">Features</div></div>
    <div class="card"><div class="value">{{.Summary.TotalScenarios}}</div><div class="label">Scenarios</div></div>
    <div class="card"><div class="value">{{.Summary.TotalTests}}</div><div class="label">Tests</div></div>
    <div class="card"><div class="value">{{.Summary.Passed}}</div><div class="label">Passed</div></div>
    <div class="card"><div class="value">{{.Summary.Failed}}</div><div class="label">Failed</div></div>
    <div class="card"><div class="value">{{printf "%.0f%%" .Summary.PassRate}}</div><div class="label">Pass rate</div></div>
  </div>

  {{if .Tests}}
  <section>
    <h2>Test Results</h2>
    <table>
      <tr><th>Test</th><th>Suite</th><th>Status</th><th>Duration</th><th>Error</th></tr>
      {{range .Tests}}
      <tr>
        <td>{{.Name}}</td>
        <td>{{.Suite}}</td>
        <td class="status-{{.Status}}">{{.Status}}</td>
        <td>{{.Duration}}</td>
        <td class="error-cell">{{.Error}}</td>
      </tr>
      {{end}}
    </table>
  </section>
  {{end}}

  {{if .Features}}
  <section>
    <h2>Features</h2>
    <table>
      <tr><th>Feature</th><th>Scenarios</th></tr>
      {{range .Features}}
      <tr><td>{{.Name}}</td><td>{{.Scenarios}}</td></tr>
      {{end}}
    </table>
  </section>
  {{end}}

  <section>
    <h2>Timings</h2>
    <table>
      <tr><th>Stage</th><th>Duration</th></tr>
      {{if .Timings.PageLoad}}<tr><td>Page load</td><td>{{.Timings.PageLoad}}</td></tr>{{end}}
      {{if .Timings.AIResponse}}<tr><td>AI analysis</td><td>{{.Timings.AIResponse}}</td></tr>{{end}}
      {{if .Timings.TestExecution}}<tr><td>Test execution</td><td>{{.Timings.TestExecution}}</td></tr>{{end}}
      {{if .Timings.Total}}<tr><td>Total</td><td>{{.Timings.Total}}</td></tr>{{end}}
    </table>
  </section>

  {{if .AI}}
  <section>
    <h2>AI Analysis</h2>
    <table>
      <tr><th>Model</th><th>Tokens</th><th>Mode</th></tr>
      <tr>
        <td>{{.AI.Model}}</td>
        <td>{{.AI.TokensUsed}}</td>
        <td>{{if .AI.Fallback}}raw text fallback{{else}}structured{{end}}</td>
      </tr>
    </table>
  </section>
  {{end}}
</div>
</body>
</html>
`
