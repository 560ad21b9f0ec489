package browser

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/chromedp/cdproto/target"

	"github.com/shaiso/discharge/internal/ui"
)

func TestQuery(t *testing.T) {
	tests := []struct {
		name string
		sel  ui.Selector
		want string
	}{
		{"id", ui.ID("dtSent"), `[id="dtSent"]`},
		{"class", ui.Class("form-control filter_search"), `[class="form-control filter_search"]`},
		{"css", ui.Selector{Kind: ui.ByCSS, Criteria: "#createNewUpload input[type=file]"}, "#createNewUpload input[type=file]"},
		{"name", ui.Name(" Gem"), `//*[normalize-space(text())="Gem" or @aria-label="Gem" or @title="Gem" or @value="Gem"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, opts := query(tt.sel)
			if q != tt.want {
				t.Errorf("expected %q, got %q", tt.want, q)
			}
			if len(opts) != 1 {
				t.Errorf("expected one query option, got %d", len(opts))
			}
		})
	}
}

func TestXPathLiteral(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Næste", `"Næste"`},
		{`Klik "Send"`, `'Klik "Send"'`},
		{`a"b'c`, `concat("a", '"', "b'c")`},
	}
	for _, tt := range tests {
		if got := xpathLiteral(tt.in); got != tt.want {
			t.Errorf("xpathLiteral(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestPickTab(t *testing.T) {
	targets := []*target.Info{
		{TargetID: "1", Type: "service_worker", URL: "https://ediportalen.dk/sw.js"},
		{TargetID: "2", Type: "page", URL: "https://intranet.local/"},
		{TargetID: "3", Type: "page", URL: "https://ediportalen.dk/Journal/Create"},
	}

	if got := pickTab(targets, "ediportalen.dk"); got == nil || got.TargetID != "3" {
		t.Errorf("expected portal tab, got %+v", got)
	}
	if got := pickTab(targets, ""); got == nil || got.TargetID != "2" {
		t.Errorf("expected first page, got %+v", got)
	}
	if got := pickTab(targets, "example.org"); got != nil {
		t.Errorf("expected no tab, got %+v", got)
	}
}

func TestTableJS(t *testing.T) {
	js := tableRowsJS(ui.ID("dtRecipients"))
	if !strings.Contains(js, `document.querySelector("[id=\"dtRecipients\"]")`) {
		t.Errorf("unexpected locator in %s", js)
	}

	js = clickCellJS(ui.Name("Gem som PDF"), 2, 10)
	if !strings.Contains(js, "document.evaluate(") || !strings.Contains(js, "body.rows[2]") {
		t.Errorf("unexpected script %s", js)
	}
}

func TestAccessor_NotAttached(t *testing.T) {
	a := New(Config{RemoteURL: "ws://127.0.0.1:9222"})

	if _, err := a.Exists(context.Background(), ui.ID("dtSent")); !errors.Is(err, ErrNotAttached) {
		t.Errorf("expected ErrNotAttached, got %v", err)
	}
	if err := a.Navigate(context.Background(), "https://ediportalen.dk"); !errors.Is(err, ErrNotAttached) {
		t.Errorf("expected ErrNotAttached, got %v", err)
	}

	// Detach без Attach не падает
	a.Detach()
}
