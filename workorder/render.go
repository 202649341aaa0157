package workorder

import (
	"bytes"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"glasspro-backend/pricing"
)

var funcs = map[string]any{
	"money": pricing.FormatCurrency,
	"date":  pricing.FormatDate,
}

const printHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Work Order{{if .Customer.Label}} - {{.Customer.Label}}{{end}}</title>
<style>
  body { font-family: Arial, sans-serif; color: #222; margin: 24px; }
  .header { border-bottom: 2px solid #1f4e79; padding-bottom: 12px; margin-bottom: 16px; }
  .header h1 { margin: 0; color: #1f4e79; }
  table { width: 100%; border-collapse: collapse; margin-top: 12px; }
  td { padding: 6px 4px; }
  td.amount { text-align: right; }
  tr.total td { border-top: 1px solid #999; font-weight: bold; }
</style>
</head>
<body>
  <div class="header">
    <h1>{{.Company.Name}}</h1>
    {{if .Company.Address}}<div>{{.Company.Address}}</div>{{end}}
    {{if .Company.Phone}}<div>{{.Company.Phone}}</div>{{end}}
    {{if .Company.Email}}<div>{{.Company.Email}}</div>{{end}}
  </div>
  <h2>Work Order</h2>
  <p><strong>Customer:</strong> {{.Customer.Label}}</p>
  {{if .Customer.Phone}}<p><strong>Phone:</strong> {{.Customer.Phone}}</p>{{end}}
  {{if .Customer.Address}}<p><strong>Address:</strong> {{.Customer.Address}}</p>{{end}}
  <p><strong>Date:</strong> {{date .Date}}</p>
  <p><strong>Service:</strong> {{.JobLine}}{{if gt .Quantity 1}} (x{{.Quantity}}){{end}}</p>
  {{if .Notes}}<p><strong>Notes:</strong> {{.Notes}}</p>{{end}}
  <table>
    <tr><td>Service Amount</td><td class="amount">{{money .ServiceAmount}}</td></tr>
    <tr><td>Sales Tax</td><td class="amount">{{money .TaxAmount}}</td></tr>
    <tr class="total"><td>Total</td><td class="amount">{{money .Total}}</td></tr>
    <tr><td>Paid</td><td class="amount">{{money .Paid}}</td></tr>
    <tr class="total"><td>Balance Due</td><td class="amount">{{money .BalanceDue}}</td></tr>
  </table>
</body>
</html>`

const emailText = `Hello {{.Customer.Label}},

Thank you for choosing {{.Company.Name}}. Here is the summary of your work order.

Date: {{date .Date}}
Service: {{.JobLine}}
{{- if .Notes}}
Notes: {{.Notes}}
{{- end}}

Service Amount: {{money .ServiceAmount}}
Tax: {{money .TaxAmount}}
Total: {{money .Total}}
Balance Due: {{money .BalanceDue}}

{{.Company.Name}}
{{- if .Company.Phone}}
{{.Company.Phone}}
{{- end}}
{{- if .Company.Email}}
{{.Company.Email}}
{{- end}}
`

const smsText = `{{.Company.Name}}: Work order for {{.Customer.Label}} on {{date .Date}}. {{.JobLine}}.{{if .Notes}} Notes: {{.Notes}}.{{end}} Service {{money .ServiceAmount}}, tax {{money .TaxAmount}}, total {{money .Total}}, balance due {{money .BalanceDue}}.`

var (
	printTemplate = htmltemplate.Must(htmltemplate.New("print").Funcs(funcs).Parse(printHTML))
	emailTemplate = texttemplate.Must(texttemplate.New("email").Funcs(funcs).Parse(emailText))
	smsTemplate   = texttemplate.Must(texttemplate.New("sms").Funcs(funcs).Parse(smsText))
)

// PrintHTML renders the printable document. Field values are HTML-escaped.
func PrintHTML(wo WorkOrder) (string, error) {
	var buf bytes.Buffer
	if err := printTemplate.Execute(&buf, wo); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// EmailText renders the plain-text email body.
func EmailText(wo WorkOrder) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, wo); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// SMSText renders the one-line text message summary.
func SMSText(wo WorkOrder) (string, error) {
	var buf bytes.Buffer
	if err := smsTemplate.Execute(&buf, wo); err != nil {
		return "", err
	}
	return strings.Join(strings.Fields(buf.String()), " "), nil
}
