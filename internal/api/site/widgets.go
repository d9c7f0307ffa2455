package siteapi

import (
	"bytes"
	"context"
	"html/template"
	"time"

	"ministry-site/internal/domain/content"
	"ministry-site/internal/domain/worship"
	"ministry-site/internal/render"
)

const maxUpcomingEvents = 6

var eventsTmpl = template.Must(template.New("events").Parse(`<div class="widget widget-events">
<h2>Próximos eventos</h2>
{{- if .}}
<ul class="event-list">
{{- range .}}
<li class="event"><time datetime="{{.StartsAt.Format "2006-01-02T15:04"}}">{{.StartsAt.Format "02/01 15:04"}}</time> <strong>{{.Title}}</strong>{{if .Location}} <span class="event-location">{{.Location}}</span>{{end}}</li>
{{- end}}
</ul>
{{- else}}
<p class="empty">Nenhum evento agendado.</p>
{{- end}}
</div>`))

// EventsWidget draws the events section from the worship calendar.
func EventsWidget(svc *worship.Service, now func() time.Time) render.Widget {
	if now == nil {
		now = time.Now
	}
	return render.WidgetFunc(func(ctx context.Context, _ content.Section) (template.HTML, error) {
		events, err := svc.ListEvents(ctx, now())
		if err != nil {
			return "", err
		}
		if len(events) > maxUpcomingEvents {
			events = events[:maxUpcomingEvents]
		}
		var buf bytes.Buffer
		if err := eventsTmpl.Execute(&buf, events); err != nil {
			return "", err
		}
		return template.HTML(buf.String()), nil
	})
}
