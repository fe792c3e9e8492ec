package printing

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	reimbapp "github.com/reimburse/backend/internal/application/reimbursement"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var _ reimbapp.ReportTemplate = (*SettlementTemplate)(nil)

// SettlementTemplate lays out the settlement report with html/template
type SettlementTemplate struct {
	tmpl *template.Template
}

// NewSettlementTemplate parses the built-in settlement layout
func NewSettlementTemplate() (*SettlementTemplate, error) {
	printer := message.NewPrinter(language.Korean)
	funcs := template.FuncMap{
		"won": func(amount int64) string {
			return printer.Sprintf("₩%d", amount)
		},
		"date":     formatReportDate,
		"imageURL": imageURL,
		"orDash": func(s string) string {
			if strings.TrimSpace(s) == "" {
				return "-"
			}
			return s
		},
	}
	tmpl, err := template.New("settlement").Funcs(funcs).Parse(settlementLayout)
	if err != nil {
		return nil, fmt.Errorf("failed to parse settlement layout: %w", err)
	}
	return &SettlementTemplate{tmpl: tmpl}, nil
}

// Execute renders view into a standalone HTML document
func (t *SettlementTemplate) Execute(view *reimbapp.SettlementReportView) (string, error) {
	if view == nil {
		return "", fmt.Errorf("report view is nil")
	}
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("failed to execute settlement layout: %w", err)
	}
	return buf.String(), nil
}

func formatReportDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006. 1. 2.")
}

// imageURL only lets embedded images through; anything else renders as an empty src
func imageURL(s string) template.URL {
	if strings.HasPrefix(s, "data:image/") {
		return template.URL(s)
	}
	return ""
}

const settlementLayout = `<!DOCTYPE html>
<html><head>
<meta charset="utf-8">
<title>{{.Title}} - {{.Payee}}</title>
<style>
* { margin: 0; padding: 0; box-sizing: border-box; }
body { font-family: -apple-system, BlinkMacSystemFont, 'Malgun Gothic', 'Noto Sans KR', sans-serif; font-size: 12px; color: #333; padding: 20mm; }
h1 { font-size: 18px; text-align: center; margin-bottom: 4px; }
.subtitle { text-align: center; color: #666; font-size: 11px; margin-bottom: 20px; }
.project { font-weight: 600; margin-bottom: 4px; }
.info-grid { display: grid; grid-template-columns: 1fr 1fr; gap: 6px 20px; margin-bottom: 20px; }
.info-grid .label { color: #666; }
table { width: 100%; border-collapse: collapse; margin-bottom: 20px; font-size: 11px; }
th, td { border: 1px solid #ddd; padding: 6px 8px; text-align: left; }
th { background: #f5f5f5; font-weight: 600; }
.text-right { text-align: right; }
.total-row { font-weight: 700; background: #f9f9f9; }
.counts { font-size: 11px; color: #666; }
.signatures { margin-top: 30px; display: flex; justify-content: space-between; align-items: flex-end; }
.signature { flex: 1; }
.signature.approver { text-align: center; }
.signature .caption { font-size: 10px; color: #666; margin-bottom: 4px; }
.signature img { max-height: 50px; }
.signature .line { border-top: 1px solid #ccc; width: 200px; margin-top: 4px; padding-top: 2px; font-size: 10px; }
.signature.approver .line { margin: 4px auto 0; }
.finance { margin-top: 30px; border: 1px solid #ddd; padding: 12px; font-size: 11px; }
.finance .heading { font-weight: 600; margin-bottom: 8px; }
.finance .grid { display: grid; grid-template-columns: 1fr 1fr; gap: 8px; }
.finance .caption { color: #666; font-size: 10px; }
.finance .blank { border-bottom: 1px solid #ccc; height: 30px; }
.receipt-page { page-break-before: always; }
.receipt-page h2 { font-size: 14px; margin-bottom: 12px; }
.receipt-grid { display: grid; grid-template-columns: 1fr 1fr; gap: 12px; }
.receipt-card { border: 1px solid #ddd; border-radius: 4px; overflow: hidden; break-inside: avoid; }
.receipt-card img { width: 100%; max-height: 400px; object-fit: contain; background: #f9f9f9; display: block; }
.receipt-name { font-size: 9px; color: #666; padding: 4px 6px; background: #f5f5f5; border-top: 1px solid #eee; }
.receipt-fail { padding: 30px 10px; text-align: center; background: #f9f9f9; color: #999; font-size: 11px; }
@media print { body { padding: 10mm; } }
</style>
</head><body>
<h1>{{.Title}}</h1>
{{if .ProjectName}}<p class="subtitle project">{{.ProjectName}}</p>{{end}}
<p class="subtitle">Payment Settlement Report</p>

<div class="info-grid">
  <div><span class="label">지급받는 분:</span> {{.Payee}}</div>
  <div><span class="label">정산일:</span> {{date .SettlementDate}}</div>
  <div><span class="label">연락처:</span> {{.Phone}}</div>
  <div><span class="label">회기:</span> {{.Session}}</div>
  <div><span class="label">은행/계좌:</span> {{.BankName}} {{.BankAccount}}</div>
  <div><span class="label">위원회:</span> {{.Committee}}</div>
</div>

<table>
  <thead><tr><th>#</th><th>내역</th><th>Budget Code</th><th class="text-right">금액</th></tr></thead>
  <tbody>
  {{- range .Items}}
    <tr><td>{{.Index}}</td><td>{{.Description}}</td><td>{{.BudgetCode}}</td><td class="text-right">{{won .Amount}}</td></tr>
  {{- end}}
    <tr class="total-row"><td colspan="3" class="text-right">합계</td><td class="text-right">{{won .TotalAmount}}</td></tr>
  </tbody>
</table>

<p class="counts">신청 건수: {{.RequestCount}} | 영수증: {{.ReceiptCount}}</p>

<div class="signatures">
  <div class="signature">
    <p class="caption">Requested by</p>
    {{with imageURL .RequestedBy.Image}}<img src="{{.}}" alt="requester signature">{{end}}
    <div class="line">{{.RequestedBy.Name}}</div>
  </div>
  <div class="signature approver">
    <p class="caption">Approved by (signature of budget approver)</p>
    {{with imageURL .ApprovedBy.Image}}<img src="{{.}}" alt="approver signature">{{end}}
    <div class="line">{{if .ApprovedBy.Name}}{{.ApprovedBy.Name}}{{else}}&nbsp;{{end}}</div>
  </div>
</div>

<div class="finance">
  <p class="heading">Area Office Finance Verification</p>
  <div class="grid">
    <div><p class="caption">Document No.</p><p style="font-weight:600;">{{orDash .DocumentNo}}</p></div>
    <div><p class="caption">Signature</p><div class="blank"></div></div>
    <div><p class="caption">Date approved</p><div class="blank" style="height:20px;"></div></div>
  </div>
  <div style="margin-top:8px;"><p class="caption">Additional Information / Comments</p><div class="blank"></div></div>
</div>

{{- if .Receipts}}
<div class="receipt-page">
  <h2>영수증</h2>
  <div class="receipt-grid">
  {{- range .Receipts}}
    {{- if .Loaded}}
    <div class="receipt-card"><img src="{{imageURL .DataURL}}" alt="{{.FileName}}"><p class="receipt-name">{{.FileName}}</p></div>
    {{- else}}
    <div class="receipt-card"><div class="receipt-fail">Failed to load</div><p class="receipt-name">{{.FileName}}</p></div>
    {{- end}}
  {{- end}}
  </div>
</div>
{{- end}}
</body></html>
`
