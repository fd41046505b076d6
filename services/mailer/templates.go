package mailer

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/receiptops/receiptstack/internal/models"
)

// ProcessedRow is one successfully extracted receipt in the consolidated reply.
type ProcessedRow struct {
	OriginalFilename string
	Vendor           string
	Amount           float64
	Date             string
	Category         string
}

// FixRow is one incomplete receipt in the consolidated reply.
type FixRow struct {
	OriginalFilename string
	Vendor           string
	Amount           float64
	Date             string
	Token            string
}

func (r FixRow) MissingFields() []string {
	receipt := models.Receipt{Vendor: r.Vendor, Amount: r.Amount, Date: r.Date}
	return receipt.MissingFields()
}

var templateFuncs = template.FuncMap{
	"orDash": func(s string) string {
		if s == "" {
			return "-"
		}
		return s
	},
	"orUnknown": func(s string) string {
		if s == "" {
			return "Unknown"
		}
		return s
	},
	"amount": func(a float64) string {
		if a <= 0 {
			return "-"
		}
		return fmt.Sprintf("$%.2f", a)
	},
	"join": joinComma,
}

func joinComma(items []string) string {
	out := ""
	for i, item := range items {
		if i > 0 {
			out += ", "
		}
		out += item
	}
	return out
}

var successTemplate = template.Must(template.New("success").Funcs(templateFuncs).Parse(`
<div style="font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,sans-serif;max-width:600px;margin:0 auto;">
  <h2 style="color:#1f2937;border-bottom:2px solid #22c55e;padding-bottom:10px;">Receipts Processed Successfully</h2>
  <p style="color:#4b5563;">Your receipt{{if gt (len .Rows) 1}}s have{{else}} has{{end}} been processed:</p>
  <table style="width:100%;border-collapse:collapse;margin:20px 0;">
    <thead><tr style="background:#f9fafb;">
      <th style="padding:8px;text-align:left;border-bottom:2px solid #e5e7eb;">File</th>
      <th style="padding:8px;text-align:left;border-bottom:2px solid #e5e7eb;">Vendor</th>
      <th style="padding:8px;text-align:left;border-bottom:2px solid #e5e7eb;">Amount</th>
      <th style="padding:8px;text-align:left;border-bottom:2px solid #e5e7eb;">Date</th>
      <th style="padding:8px;text-align:left;border-bottom:2px solid #e5e7eb;">Category</th>
    </tr></thead>
    <tbody>
    {{range .Rows}}
    <tr>
      <td style="padding:8px;border-bottom:1px solid #e5e7eb;">{{.OriginalFilename}}</td>
      <td style="padding:8px;border-bottom:1px solid #e5e7eb;">{{orUnknown .Vendor}}</td>
      <td style="padding:8px;border-bottom:1px solid #e5e7eb;color:#059669;font-weight:600;">{{amount .Amount}}</td>
      <td style="padding:8px;border-bottom:1px solid #e5e7eb;">{{orDash .Date}}</td>
      <td style="padding:8px;border-bottom:1px solid #e5e7eb;">{{orDash .Category}}</td>
    </tr>
    {{end}}
    </tbody>
  </table>
  <div style="margin-top:20px;padding:15px;background:#f3f4f6;border-radius:8px;">
    <a href="{{.SiteURL}}/admin" style="color:#3b82f6;text-decoration:none;font-weight:500;">View in Admin Dashboard &rarr;</a>
  </div>
  <p style="margin-top:30px;color:#9ca3af;font-size:12px;">Automated receipt processing</p>
</div>
`))

var fixTemplate = template.Must(template.New("fix").Funcs(templateFuncs).Parse(`
<div style="font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,sans-serif;max-width:600px;margin:0 auto;">
  <h2 style="color:#1f2937;border-bottom:2px solid #f59e0b;padding-bottom:10px;">Receipt{{if gt (len .Rows) 1}}s Need{{else}} Needs{{end}} Attention</h2>
  <p style="color:#4b5563;">We couldn't extract all information from your receipt{{if gt (len .Rows) 1}}s{{end}}. Please help by filling in the missing details:</p>
  {{range .Rows}}
  <div style="margin:15px 0;padding:15px;background:#fef3c7;border-radius:8px;border-left:4px solid #f59e0b;">
    <p style="margin:0 0 8px;font-weight:600;">{{.OriginalFilename}}</p>
    <p style="margin:0 0 8px;color:#92400e;font-size:14px;">Missing: {{join .MissingFields}}</p>
    <a href="{{$.SiteURL}}/fix/{{.Token}}" style="display:inline-block;background:#3b82f6;color:white;padding:10px 20px;text-decoration:none;border-radius:6px;font-weight:600;">Fix This Receipt</a>
  </div>
  {{end}}
  <p style="margin-top:30px;color:#9ca3af;font-size:12px;">These links are unique. Please don't share them.</p>
</div>
`))

var noAttachmentTemplate = template.Must(template.New("noattachment").Parse(`
<div style="font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,sans-serif;max-width:600px;margin:0 auto;">
  <h2 style="color:#1f2937;border-bottom:2px solid #ef4444;padding-bottom:10px;">No Attachments Found</h2>
  <p style="color:#4b5563;">We didn't find any receipt images or PDFs attached to your email.</p>
  <p style="color:#4b5563;">Please reply with your receipt attached as:</p>
  <ul style="color:#4b5563;">
    <li>Image files (JPEG, PNG, GIF, WebP)</li>
    <li>PDF documents</li>
  </ul>
  <p style="margin-top:30px;color:#9ca3af;font-size:12px;">Automated receipt processing</p>
</div>
`))

var fixNotificationTemplate = template.Must(template.New("fixnotification").Funcs(templateFuncs).Parse(`
<div style="font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,sans-serif;max-width:600px;margin:0 auto;">
  <h2 style="color:#1f2937;border-bottom:2px solid #f59e0b;padding-bottom:10px;">Your Receipt Needs Attention</h2>
  <p style="color:#4b5563;">Hi {{orUnknown .UploaderName}},</p>
  <p style="color:#4b5563;">We processed your receipt <strong>{{.OriginalFilename}}</strong> but couldn't extract all the required information.</p>
  <div style="margin:15px 0;padding:15px;background:#fef3c7;border-radius:8px;border-left:4px solid #f59e0b;">
    <p style="margin:0 0 8px;color:#92400e;font-size:14px;">Missing: {{join .Missing}}</p>
    <a href="{{.FixURL}}" style="display:inline-block;background:#3b82f6;color:white;padding:10px 20px;text-decoration:none;border-radius:6px;font-weight:600;">Fix This Receipt</a>
  </div>
  <p style="margin-top:30px;color:#9ca3af;font-size:12px;">This link is unique to you. Please don't share it.</p>
  <img src="{{.PixelURL}}" width="1" height="1" alt="" style="display:none;">
</div>
`))

func BuildSuccessReplyHTML(siteURL string, rows []ProcessedRow) string {
	return render(successTemplate, struct {
		SiteURL string
		Rows    []ProcessedRow
	}{siteURL, rows})
}

func BuildFixReplyHTML(siteURL string, rows []FixRow) string {
	return render(fixTemplate, struct {
		SiteURL string
		Rows    []FixRow
	}{siteURL, rows})
}

func BuildNoAttachmentReplyHTML() string {
	return render(noAttachmentTemplate, nil)
}

// BuildMixedReplyHTML joins the success table and the fix blocks when one
// email produced both outcomes.
func BuildMixedReplyHTML(siteURL string, processed []ProcessedRow, fixes []FixRow) string {
	divider := `<hr style="margin:30px 0;border:none;border-top:1px solid #e5e7eb;">`
	return BuildSuccessReplyHTML(siteURL, processed) + divider + BuildFixReplyHTML(siteURL, fixes)
}

func BuildFixNotificationHTML(siteURL, uploaderName, originalFilename, token string, missing []string) string {
	return render(fixNotificationTemplate, struct {
		UploaderName     string
		OriginalFilename string
		Missing          []string
		FixURL           string
		PixelURL         string
	}{
		UploaderName:     uploaderName,
		OriginalFilename: originalFilename,
		Missing:          missing,
		FixURL:           fmt.Sprintf("%s/fix/%s", siteURL, token),
		PixelURL:         fmt.Sprintf("%s/api/track/%s", siteURL, token),
	})
}

func render(t *template.Template, data interface{}) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return ""
	}
	return buf.String()
}
