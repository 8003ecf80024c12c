package join

import (
	"fmt"
	"math"
	"strings"

	"carte-elus/internal/geo"
	"carte-elus/internal/normalize"
)

// 未找到记录时的浮层文案
const (
	NoCircoInfo   = "Pas d'info pour cette circo."
	NoCommuneInfo = "Pas d'info pour cette commune."
	NoZoneInfo    = "Pas d'info pour cette zone."
)

type Line struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// 文档注释：信息浮层（结构化，由前端决定呈现方式）
// 约束：Found=false 时仅 Fallback 有效；Contact 仅包含存在的联系方式。
type Popup struct {
	Kind     geo.Kind `json:"kind"`
	Index    int      `json:"index"`
	Key      string   `json:"key,omitempty"`
	Found    bool     `json:"found"`
	Title    string   `json:"title,omitempty"`
	Lines    []Line   `json:"lines,omitempty"`
	Contact  []Link   `json:"contact,omitempty"`
	Profile  string   `json:"profile,omitempty"`
	Fallback string   `json:"fallback,omitempty"`
}

// Popup 构造要素的信息浮层；缺失记录渲染为回退文案
func (r *Resolver) Popup(kind geo.Kind, f *geo.Feature) Popup {
	p := Popup{Kind: kind, Key: Key(kind, f)}
	if f != nil {
		p.Index = f.Index
	}
	switch kind {
	case geo.Circonscription:
		d, ok := r.Deputy(f)
		if !ok {
			p.Fallback = NoCircoInfo
			return p
		}
		p.Found = true
		p.Title = strings.TrimSpace(d.FirstName + " " + d.LastName)
		p.Lines = []Line{
			{Label: "Député", Value: p.Title},
			{Label: "Groupe", Value: d.Group},
			{Label: "Mandats", Value: fmt.Sprintf("%d", d.Mandates)},
			{Label: "Participation", Value: percent(d.Participation)},
			{Label: "Loyauté", Value: percent(d.Loyalty)},
		}
		if d.Mail != "" {
			p.Contact = append(p.Contact, Link{Label: d.Mail, URL: "mailto:" + d.Mail})
		}
		if d.Website != "" {
			p.Contact = append(p.Contact, Link{Label: "Site Internet", URL: d.Website})
		}
		if d.Facebook != "" {
			p.Contact = append(p.Contact, Link{Label: "Facebook", URL: "https://www.facebook.com/" + d.Facebook})
		}
		if d.Twitter != "" {
			p.Contact = append(p.Contact, Link{Label: "Twitter", URL: "https://x.com/" + strings.TrimPrefix(d.Twitter, "@")})
		}
		p.Profile = normalize.ProfileURL(r.profileBase, d.FirstName, d.LastName, d.DeptName)
		return p
	case geo.Commune:
		m, ok := r.Mayor(f)
		if !ok {
			p.Fallback = NoCommuneInfo
			return p
		}
		p.Found = true
		p.Title = m.CommuneName
		if p.Title == "" && f != nil {
			p.Title = f.Props.Name
		}
		p.Lines = []Line{{Label: "Maire", Value: strings.TrimSpace(m.FirstName + " " + m.LastName)}}
		if !m.MandateStart.IsZero() {
			p.Lines = append(p.Lines, Line{Label: "Début du mandat", Value: m.MandateStart.Format("02/01/2006")})
		}
		if m.Politics.Nuance != "" {
			p.Lines = append(p.Lines, Line{Label: "Nuance", Value: m.Politics.Nuance})
		}
		p.Lines = append(p.Lines, Line{Label: "Famille", Value: m.Politics.Family})
		return p
	}
	if f == nil || f.Props.Name == "" {
		p.Fallback = NoZoneInfo
		return p
	}
	p.Found = true
	p.Title = f.Props.Name
	return p
}

func percent(v float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(v*100)))
}
