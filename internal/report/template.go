package report

// ReportTemplate is the HTML template for the snapshot report.
// It is embedded as a Go constant; the page has no external assets.
const ReportTemplate = `<!DOCTYPE html>
<html lang="en-GB">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
  :root {
    --bg: #ffffff;
    --text: #1a1a2e;
    --muted: #6b7280;
    --border: #e5e7eb;
    --accent: #2563eb;
    --green: #16a34a;
    --red: #dc2626;
    --section-bg: #f8fafc;
  }
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    color: var(--text);
    background: var(--bg);
    line-height: 1.6;
    max-width: 900px;
    margin: 0 auto;
    padding: 20px;
  }
  h1 { font-size: 1.5rem; color: var(--accent); }
  h2 { font-size: 1.2rem; margin: 24px 0 12px; padding-bottom: 6px; border-bottom: 2px solid var(--accent); }
  .muted { color: var(--muted); font-size: 0.85rem; }
  .header {
    display: flex;
    justify-content: space-between;
    border-bottom: 3px solid var(--accent);
    padding-bottom: 12px;
    margin-bottom: 16px;
  }
  .lowest-box {
    background: var(--section-bg);
    border-left: 5px solid var(--red);
    padding: 12px 16px;
    border-radius: 6px;
  }
  .lowest-box .value { font-size: 1.4rem; font-weight: 700; }
  table { width: 100%; border-collapse: collapse; margin: 8px 0 16px; font-size: 0.9rem; }
  th { background: var(--section-bg); text-align: left; padding: 8px; font-weight: 600; }
  td { padding: 8px; border-bottom: 1px solid var(--border); }
  td.num { text-align: right; font-variant-numeric: tabular-nums; }
  .positive { color: var(--green); }
  .negative { color: var(--red); }
  .chart-container { margin: 12px 0; overflow-x: auto; }
  .chart-container svg { max-width: 100%; height: auto; }
  .section { margin: 20px 0; }
  .footer {
    margin-top: 30px;
    padding-top: 12px;
    border-top: 2px solid var(--border);
    font-size: 0.8rem;
    color: var(--muted);
    text-align: center;
  }
  @page { size: A4; margin: 15mm 10mm; }
  @media print {
    body { max-width: 100%; padding: 10px; }
    .section { page-break-inside: avoid; }
  }
</style>
</head>
<body>

<div class="header">
  <h1>{{.Title}}</h1>
  <div>
    <p class="muted">{{.GeneratedAt}}</p>
    <p class="muted">Market: {{.Market}}</p>
  </div>
</div>

{{define "constituents"}}
<table>
  <thead><tr><th>#</th><th>Name</th><th>Change</th><th>Market cap</th></tr></thead>
  <tbody>
  {{range .}}
    <tr>
      <td>{{.Rank}}</td>
      <td>{{.Name}}</td>
      <td class="num {{if .Positive}}positive{{else}}negative{{end}}">{{.Change}}</td>
      <td class="num">{{.MarketCap}}</td>
    </tr>
  {{else}}
    <tr><td colspan="4" class="muted">No data</td></tr>
  {{end}}
  </tbody>
</table>
{{end}}

<div class="section" id="lowest-month">
  <h2>Lowest month</h2>
  {{if .Lowest}}
  <div class="lowest-box">
    <div class="value">{{.LowestPrice}}</div>
    <div>{{.Lowest.PeriodLabel}} <span class="muted">(lowest of {{.Observations}} observations)</span></div>
  </div>
  {{else}}
  <p class="muted">No valid index values found.</p>
  {{end}}
  <div class="chart-container">{{.IndexChart}}</div>
</div>

<div class="section" id="risers">
  <h2>Top risers</h2>
  <div class="chart-container">{{.RisersChart}}</div>
  {{template "constituents" .Risers}}
</div>

<div class="section" id="fallers">
  <h2>Top fallers</h2>
  <div class="chart-container">{{.FallersChart}}</div>
  {{template "constituents" .Fallers}}
</div>

<div class="section" id="large-caps">
  <h2>Constituents above the market cap threshold</h2>
  {{template "constituents" .LargeCaps}}
</div>

<div class="footer">
  Data scraped from the London Stock Exchange website. Figures are delayed and for information only.
</div>

</body>
</html>`
