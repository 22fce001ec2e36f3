// Package templates holds the dashboard page components.
package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Dashboard renders the single-page dashboard shell. Each report section
// loads its own data over the matching SSE endpoint; charts read the
// patched signals client-side.
func Dashboard() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, dashboardHTML)
		return err
	})
}

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Cstore Sales Dashboard</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@v1.0.0/bundles/datastar.js"></script>
<style>
body { font-family: system-ui, sans-serif; margin: 0; background: #f5f6fa; color: #2c3e50; }
header { background: #2c3e50; color: #fff; padding: 1rem 2rem; }
main { padding: 1.5rem 2rem; display: grid; gap: 1.5rem; }
section { background: #fff; border-radius: 8px; padding: 1.25rem; box-shadow: 0 1px 3px rgba(0,0,0,.08); }
.modern-table { width: 100%; border-collapse: collapse; }
.modern-table th, .modern-table td { text-align: left; padding: .5rem .75rem; border-bottom: 1px solid #ecf0f1; }
.modern-table th { background: #f8f9fa; font-weight: 600; }
.drop-candidate td { background: #fdf2f2; }
.empty-state { color: #7f8c8d; font-style: italic; }
button { background: #3498db; color: #fff; border: 0; border-radius: 4px; padding: .5rem 1rem; cursor: pointer; }
</style>
</head>
<body>
<header>
<h1>Cstore Sales Dashboard</h1>
<p>Idaho convenience store analytics</p>
</header>
<main data-signals="{topProductsData: [], weeklyTrends: [], brandsData: [], dropImpact: {}, paymentData: {}, demographicsData: []}">
<section>
<h2>Top Products (excluding fuel)</h2>
<div id="top-products-content" data-on-load="@get('/sse/top-products')">Loading…</div>
<p><a href="/export/top-products.csv">Download CSV</a></p>
</section>
<section>
<h2>Packaged Beverage Brands</h2>
<div id="brands-content" data-on-load="@get('/sse/brand-performance')">Loading…</div>
<p><a href="/export/brand-analysis.xlsx">Download brand analysis</a></p>
</section>
<section>
<h2>Cash vs Credit Customers</h2>
<div id="payments-content" data-on-load="@get('/sse/payment-comparison')">Loading…</div>
<p><a href="/export/payment-comparison.csv">Download CSV</a></p>
</section>
<section>
<h2>Store Demographics</h2>
<div id="demographics-content" data-on-load="@get('/sse/demographics')">Loading…</div>
</section>
<button data-on-click="@get('/sse/refresh-all')">Refresh all</button>
</main>
</body>
</html>`
