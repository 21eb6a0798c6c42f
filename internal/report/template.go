package report

import (
	"html/template"
	"io"
	"time"

	"github.com/cyberwithaman/digicon/internal/models"
)

type page struct {
	ReferralID string
	Title      string
	Created    string
	Owner      string
	Total      int
	Images     []embedded
}

type embedded struct {
	Number int
	Src    template.URL
}

var reportTemplate = template.Must(template.New("report").Parse(`<html>
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1.0" />
    <title>Batch Report {{.ReferralID}}</title>
    <style>
      body { font-family: 'Helvetica'; margin: 20px; }
      h1 { color: #333; font-size: 24px; text-align: center; }
      .batch-info { margin-bottom: 20px; border: 1px solid #ddd; padding: 10px; }
      .image-grid { display: flex; flex-wrap: wrap; }
      .image-container { width: 45%; margin: 2.5%; }
      img { width: 100%; height: auto; border: 1px solid #ccc; }
      .info-row { margin-bottom: 5px; }
      .label { font-weight: bold; }
    </style>
  </head>
  <body>
    <h1>Batch Report</h1>
    <div class="batch-info">
      <div class="info-row"><span class="label">Batch ID:</span> {{.ReferralID}}</div>
      <div class="info-row"><span class="label">Title:</span> {{.Title}}</div>
      <div class="info-row"><span class="label">Created:</span> {{.Created}}</div>
      <div class="info-row"><span class="label">Owner:</span> {{.Owner}}</div>
      <div class="info-row"><span class="label">Total Images:</span> {{.Total}}</div>
    </div>
    <div class="image-grid">
{{- if eq .Total 0}}
      <p>No images in this batch</p>
{{- else}}
{{- range .Images}}
      <div class="image-container">
        <img src="{{.Src}}" />
        <p>Image {{.Number}}</p>
      </div>
{{- end}}
{{- end}}
    </div>
  </body>
</html>
`))

func newPage(b models.Batch, images []embedded, loc *time.Location) page {
	created := "N/A"
	if b.CreatedAt != nil {
		created = b.CreatedAt.In(loc).Format("2006-01-02 15:04:05 MST")
	}
	return page{
		ReferralID: b.ReferralOr("N/A"),
		Title:      b.TitleOr("N/A"),
		Created:    created,
		Owner:      b.OwnerName(),
		Total:      len(b.Images),
		Images:     images,
	}
}

func render(w io.Writer, p page) error {
	return reportTemplate.Execute(w, p)
}
