package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shaiso/discharge/internal/domain"
	"github.com/shaiso/discharge/internal/retry"
	"github.com/shaiso/discharge/internal/telemetry"
)

// timestampLayout — формат времени дашборда (ISO 8601, миллисекунды, UTC).
const timestampLayout = "2006-01-02T15:04:05.000Z"

// apiKeyHeader — заголовок с ключом API.
const apiKeyHeader = "X-API-Key"

var (
	// ErrProcessNotFound — на дашборде нет процесса с таким именем.
	ErrProcessNotFound = errors.New("dashboard process not found")

	// ErrStepNotFound — у процесса нет шага с таким именем.
	ErrStepNotFound = errors.New("dashboard step not found")

	// ErrRunNotFound — нет запуска процесса для CPR.
	ErrRunNotFound = errors.New("dashboard run not found")

	// ErrStepRunNotFound — у запуска нет записи о шаге.
	ErrStepRunNotFound = errors.New("dashboard step run not found")
)

// StatusError — дашборд ответил кодом ошибки.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("dashboard %s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// Config — конфигурация Reporter.
type Config struct {
	// BaseURL — адрес API дашборда.
	BaseURL string

	// APIKey — ключ API.
	APIKey string

	// ProcessName — имя процесса на дашборде.
	ProcessName string

	// HTTPClient — клиент HTTP. nil — клиент с таймаутом 30 секунд.
	HTTPClient *http.Client

	// Retry — повтор при временных ошибках (сеть, 5xx).
	Retry retry.Policy

	Logger *slog.Logger
}

// Reporter обновляет статус шага процесса на дашборде.
type Reporter struct {
	baseURL     string
	apiKey      string
	processName string
	httpClient  *http.Client
	retry       retry.Policy
	logger      *slog.Logger
}

// New создаёт Reporter.
func New(cfg Config) *Reporter {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	policy := cfg.Retry
	if policy.Logger == nil {
		policy.Logger = logger
	}

	return &Reporter{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		processName: cfg.ProcessName,
		httpClient:  httpClient,
		retry:       policy,
		logger:      logger.With("component", "dashboard"),
	}
}

// UpdateRequest — тело PATCH /step-runs/{id}. Пустые поля не отправляются.
type UpdateRequest struct {
	Status      domain.StepStatus `json:"status"`
	StartedAt   string            `json:"started_at,omitempty"`
	FinishedAt  string            `json:"finished_at,omitempty"`
	Failure     *domain.Failure   `json:"failure,omitempty"`
	RerunConfig *RerunConfig      `json:"rerun_config,omitempty"`
}

// RerunConfig — данные для повторного запуска с дашборда.
type RerunConfig struct {
	WorkItemID string `json:"workitem_id"`
}

// NewUpdateRequest собирает тело запроса из StepRun.
func NewUpdateRequest(run *domain.StepRun) UpdateRequest {
	req := UpdateRequest{
		Status:  run.Status,
		Failure: run.Failure,
	}
	if run.StartedAt != nil {
		req.StartedAt = formatTime(*run.StartedAt)
	}
	if run.FinishedAt != nil {
		req.FinishedAt = formatTime(*run.FinishedAt)
	}
	if run.RerunItemID != "" {
		req.RerunConfig = &RerunConfig{WorkItemID: run.RerunItemID}
	}
	return req
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// ReportStepStatus находит запись о шаге для последнего запуска процесса
// по CPR и обновляет её.
func (r *Reporter) ReportStepStatus(ctx context.Context, cpr string, run *domain.StepRun) error {
	logger := r.logger.With("step", run.StepName, "status", run.Status, "cpr", telemetry.MaskCPR(cpr))

	return r.retry.Do(ctx, "dashboard report", func(ctx context.Context) error {
		stepRunID, err := r.stepRunID(ctx, run.StepName, cpr)
		if err != nil {
			return err
		}

		body := NewUpdateRequest(run)
		if err := r.do(ctx, http.MethodPatch, "/step-runs/"+stepRunID, nil, body, nil); err != nil {
			return err
		}
		logger.Info("dashboard step run updated", "step_run_id", stepRunID)
		return nil
	})
}

// stepRunID проходит цепочку процесс → шаг → запуск → запись о шаге.
func (r *Reporter) stepRunID(ctx context.Context, stepName, cpr string) (string, error) {
	var processes struct {
		Items []named `json:"items"`
	}
	if err := r.do(ctx, http.MethodGet, "/processes/", url.Values{"include_deleted": {"false"}}, nil, &processes); err != nil {
		return "", err
	}
	processID, ok := findByName(processes.Items, r.processName)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrProcessNotFound, r.processName)
	}

	var steps []named
	if err := r.do(ctx, http.MethodGet, "/steps/process/"+processID, url.Values{"include_deleted": {"false"}}, nil, &steps); err != nil {
		return "", err
	}
	stepID, ok := findByName(steps, stepName)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrStepNotFound, stepName)
	}

	var runs struct {
		Items []named `json:"items"`
	}
	params := url.Values{"process_id": {processID}, "meta_filter": {"cpr:" + cpr}}
	if err := r.do(ctx, http.MethodGet, "/runs/", params, nil, &runs); err != nil {
		return "", err
	}
	if len(runs.Items) == 0 {
		return "", ErrRunNotFound
	}
	runID := string(runs.Items[0].ID)

	var stepRun named
	path := "/step-runs/run/" + runID + "/step/" + stepID
	if err := r.do(ctx, http.MethodGet, path, url.Values{"include_deleted": {"false"}}, nil, &stepRun); err != nil {
		return "", err
	}
	if stepRun.ID == "" {
		return "", ErrStepRunNotFound
	}
	return string(stepRun.ID), nil
}

// named — объект дашборда с ID и именем.
type named struct {
	ID   flexID `json:"id"`
	Name string `json:"name"`
}

func findByName(items []named, name string) (string, bool) {
	for _, it := range items {
		if it.Name == name {
			return string(it.ID), true
		}
	}
	return "", false
}

// flexID — идентификатор, который приходит числом или строкой.
type flexID string

func (id *flexID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	*id = flexID(n.String())
	return nil
}

// do выполняет запрос. Ошибки сети и ответы 5xx считаются временными.
func (r *Reporter) do(ctx context.Context, method, path string, params url.Values, body, result any) error {
	target := r.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(apiKeyHeader, r.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return domain.NewTransientError("dashboard "+method+" "+path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		statusErr := &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return domain.NewTransientError("dashboard request", statusErr)
		}
		return statusErr
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
