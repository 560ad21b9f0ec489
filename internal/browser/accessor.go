package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/shaiso/discharge/internal/ui"
)

var (
	// ErrNotAttached — Accessor не подключён к вкладке.
	ErrNotAttached = errors.New("browser not attached")

	// ErrNoTab — в браузере нет вкладки портала.
	ErrNoTab = errors.New("portal tab not found")

	// ErrCellNotFound — в таблице нет такой ячейки.
	ErrCellNotFound = errors.New("table cell not found")
)

// Config — конфигурация Accessor.
type Config struct {
	// RemoteURL — адрес отладки браузера (ws://127.0.0.1:9222).
	RemoteURL string

	// TabURL — подстрока адреса вкладки портала.
	TabURL string

	// DownloadsDir — папка загрузок. Пусто — не менять настройки браузера.
	DownloadsDir string

	Logger *slog.Logger
}

// Accessor — ui.Accessor для вкладки портала в браузере, открытом
// приложением журнала.
//
// Браузер запускается приложением; Accessor подключается к нему по
// протоколу отладки и работает с уже открытой вкладкой.
type Accessor struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	tab     context.Context
	cancels []context.CancelFunc
}

// New создаёт Accessor.
func New(cfg Config) *Accessor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Accessor{
		cfg:    cfg,
		logger: logger.With("component", "browser"),
	}
}

// Attach подключается к браузеру и к вкладке портала.
func (a *Accessor) Attach(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.tab != nil {
		return nil
	}

	allocCtx, cancelAlloc := chromedp.NewRemoteAllocator(context.Background(), a.cfg.RemoteURL)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	cancels := []context.CancelFunc{cancelBrowser, cancelAlloc}

	release := func() {
		for _, cancel := range cancels {
			cancel()
		}
	}

	targets, err := chromedp.Targets(browserCtx)
	if err != nil {
		release()
		return fmt.Errorf("list targets: %w", err)
	}

	info := pickTab(targets, a.cfg.TabURL)
	if info == nil {
		release()
		return fmt.Errorf("%w: %s", ErrNoTab, a.cfg.TabURL)
	}

	tabCtx, cancelTab := chromedp.NewContext(browserCtx, chromedp.WithTargetID(info.TargetID))
	cancels = append([]context.CancelFunc{cancelTab}, cancels...)

	var actions []chromedp.Action
	if a.cfg.DownloadsDir != "" {
		actions = append(actions, browser.SetDownloadBehavior(browser.SetDownloadBehaviorBehaviorAllow).
			WithDownloadPath(a.cfg.DownloadsDir))
	}
	if err := runWithCaller(ctx, tabCtx, actions...); err != nil {
		release()
		return fmt.Errorf("attach tab: %w", err)
	}

	a.tab = tabCtx
	a.cancels = cancels
	a.logger.Info("attached to portal tab", "url", info.URL)
	return nil
}

// Detach отключается от браузера.
func (a *Accessor) Detach() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, cancel := range a.cancels {
		cancel()
	}
	a.tab = nil
	a.cancels = nil
}

// pickTab выбирает вкладку, адрес которой содержит urlPart.
func pickTab(targets []*target.Info, urlPart string) *target.Info {
	for _, t := range targets {
		if t.Type != "page" {
			continue
		}
		if urlPart == "" || strings.Contains(t.URL, urlPart) {
			return t
		}
	}
	return nil
}

func (a *Accessor) run(ctx context.Context, actions ...chromedp.Action) error {
	a.mu.Lock()
	tab := a.tab
	a.mu.Unlock()

	if tab == nil {
		return ErrNotAttached
	}
	return runWithCaller(ctx, tab, actions...)
}

// runWithCaller выполняет действия во вкладке и прерывает их при отмене ctx.
func runWithCaller(ctx, tab context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(tab)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

// Exists реализует ui.Accessor.
func (a *Accessor) Exists(ctx context.Context, sel ui.Selector) (bool, error) {
	q, opts := query(sel)
	var nodes []*cdp.Node
	if err := a.run(ctx, chromedp.Nodes(q, &nodes, append(opts, chromedp.AtLeast(0))...)); err != nil {
		return false, err
	}
	return len(nodes) > 0, nil
}

// Find реализует ui.Accessor.
func (a *Accessor) Find(ctx context.Context, sel ui.Selector) (ui.Element, error) {
	ok, err := a.Exists(ctx, sel)
	if err != nil {
		return ui.Element{}, err
	}
	if !ok {
		return ui.Element{}, fmt.Errorf("element %s not found", sel)
	}
	return ui.Element{Selector: sel, Handle: sel.String()}, nil
}

// SetValue реализует ui.Accessor.
func (a *Accessor) SetValue(ctx context.Context, el ui.Element, value string) error {
	q, opts := query(el.Selector)
	return a.run(ctx,
		chromedp.Focus(q, opts...),
		chromedp.SetValue(q, value, opts...),
		chromedp.Evaluate(dispatchInput(el.Selector), nil),
	)
}

// Click реализует ui.Accessor.
func (a *Accessor) Click(ctx context.Context, el ui.Element) error {
	q, opts := query(el.Selector)
	return a.run(ctx, chromedp.Click(q, opts...))
}

// SendKeys реализует ui.Accessor.
func (a *Accessor) SendKeys(ctx context.Context, el ui.Element, key ui.Key) error {
	q, opts := query(el.Selector)
	keys := string(key)
	if key == ui.KeyEnter {
		keys = kb.Enter
	}
	return a.run(ctx, chromedp.SendKeys(q, keys, opts...))
}

// ScrollIntoView реализует ui.Accessor.
func (a *Accessor) ScrollIntoView(ctx context.Context, el ui.Element) error {
	q, opts := query(el.Selector)
	return a.run(ctx, chromedp.ScrollIntoView(q, opts...))
}

// Table реализует ui.Accessor.
func (a *Accessor) Table(ctx context.Context, el ui.Element) ([][]string, error) {
	var rows [][]string
	if err := a.run(ctx, chromedp.Evaluate(tableRowsJS(el.Selector), &rows)); err != nil {
		return nil, err
	}
	return rows, nil
}

// ClickCell реализует ui.Accessor.
func (a *Accessor) ClickCell(ctx context.Context, el ui.Element, row, col int) error {
	var clicked bool
	if err := a.run(ctx, chromedp.Evaluate(clickCellJS(el.Selector, row, col), &clicked)); err != nil {
		return err
	}
	if !clicked {
		return fmt.Errorf("%w: %d,%d", ErrCellNotFound, row, col)
	}
	return nil
}

// SetFiles реализует ui.Accessor.
func (a *Accessor) SetFiles(ctx context.Context, el ui.Element, paths []string) error {
	q, opts := query(el.Selector)
	return a.run(ctx, chromedp.SetUploadFiles(q, paths, opts...))
}

// Navigate реализует ui.Accessor.
func (a *Accessor) Navigate(ctx context.Context, url string) error {
	return a.run(ctx, chromedp.Navigate(url))
}

var _ ui.Accessor = (*Accessor)(nil)

// query переводит селектор в запрос chromedp.
func query(sel ui.Selector) (string, []chromedp.QueryOption) {
	if sel.Kind == ui.ByName {
		return xpath(sel), []chromedp.QueryOption{chromedp.BySearch}
	}
	return css(sel), []chromedp.QueryOption{chromedp.ByQuery}
}

// css возвращает CSS-селектор для ByID, ByClass и ByCSS.
func css(sel ui.Selector) string {
	switch sel.Kind {
	case ui.ByID:
		return fmt.Sprintf("[id=%s]", jsString(sel.Criteria))
	case ui.ByClass:
		return fmt.Sprintf("[class=%s]", jsString(sel.Criteria))
	default:
		return sel.Criteria
	}
}

// xpath ищет элемент по видимому тексту, подписи или значению.
func xpath(sel ui.Selector) string {
	lit := xpathLiteral(strings.TrimSpace(sel.Criteria))
	return fmt.Sprintf(
		"//*[normalize-space(text())=%[1]s or @aria-label=%[1]s or @title=%[1]s or @value=%[1]s]",
		lit,
	)
}

// xpathLiteral возвращает строковый литерал XPath.
func xpathLiteral(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, `'`) {
		return `'` + s + `'`
	}
	parts := strings.Split(s, `"`)
	return `concat("` + strings.Join(parts, `", '"', "`) + `")`
}

// jsString кодирует строку как литерал JavaScript.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// locateJS возвращает выражение JavaScript, находящее элемент.
func locateJS(sel ui.Selector) string {
	if sel.Kind == ui.ByName {
		return fmt.Sprintf(
			"document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue",
			jsString(xpath(sel)),
		)
	}
	return fmt.Sprintf("document.querySelector(%s)", jsString(css(sel)))
}

func dispatchInput(sel ui.Selector) string {
	return fmt.Sprintf(`(() => {
	const el = %s;
	if (el) {
		el.dispatchEvent(new Event("input", {bubbles: true}));
		el.dispatchEvent(new Event("change", {bubbles: true}));
	}
	return true;
})()`, locateJS(sel))
}

func tableRowsJS(sel ui.Selector) string {
	return fmt.Sprintf(`(() => {
	const t = %s;
	if (!t) return [];
	const body = t.tBodies && t.tBodies.length ? t.tBodies[0] : t;
	return Array.from(body.rows)
		.filter(r => r.parentElement.tagName !== "THEAD")
		.map(r => Array.from(r.cells).map(c => c.innerText.trim()));
})()`, locateJS(sel))
}

func clickCellJS(sel ui.Selector, row, col int) string {
	return fmt.Sprintf(`(() => {
	const t = %s;
	if (!t) return false;
	const body = t.tBodies && t.tBodies.length ? t.tBodies[0] : t;
	const r = body.rows[%d];
	if (!r || !r.cells[%d]) return false;
	const c = r.cells[%d];
	(c.querySelector("a,button,input") || c).click();
	return true;
})()`, locateJS(sel), row, col, col)
}
