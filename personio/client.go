package personio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"goattend/attendance"
)

const (
	headerXSRFToken = "x-athena-xsrf-token"

	refreshPath   = "/api/v1/projects"
	timesheetPath = "/svc/attendance-bff/v1/timesheet/%d"
	validatePath  = "/svc/attendance-api/validate-and-calculate-full-day?propose-fix=false"
	commitPath    = "/svc/attendance-api/v1/days/%s"
)

// Client covers the attendance endpoints used for recording days.
// Every call takes the XSRF token explicitly; callers decide when to re-read it.
type Client interface {
	RefreshSession(ctx context.Context, token string) error
	FetchTimesheet(ctx context.Context, token string, query TimesheetQuery) (attendance.Timesheet, error)
	ValidateDay(ctx context.Context, token string, request DayRequest) (json.RawMessage, error)
	CommitDay(ctx context.Context, token string, dayID string, request CommitRequest) (json.RawMessage, error)
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type ClientConfig struct {
	// Instance is the tenant host, for example acme.app.personio.com.
	Instance   string
	BaseURL    string
	UserAgent  string
	Jar        http.CookieJar
	Timeout    time.Duration
	HTTPClient httpDoer
}

type HTTPClient struct {
	baseURL    string
	userAgent  string
	httpClient httpDoer
}

func NewClient(cfg ClientConfig) (*HTTPClient, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = BaseURLForInstance(cfg.Instance)
	}
	if baseURL == "" {
		return nil, errors.New("personio instance is required")
	}
	baseURL = strings.TrimRight(baseURL, "/")

	parsedBase, err := url.Parse(baseURL)
	if err != nil || parsedBase.Scheme == "" || parsedBase.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", baseURL)
	}

	doer := cfg.HTTPClient
	if doer == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		doer = &http.Client{Timeout: timeout, Jar: cfg.Jar}
	}

	return &HTTPClient{
		baseURL:    baseURL,
		userAgent:  strings.TrimSpace(cfg.UserAgent),
		httpClient: doer,
	}, nil
}

// BaseURLForInstance turns a tenant host into an https base URL.
func BaseURLForInstance(instance string) string {
	host := normalizeHost(instance)
	if host == "" {
		return ""
	}
	return "https://" + host
}

type TimesheetQuery struct {
	EmployeeID int64
	StartDate  string
	EndDate    string
	Timezone   string
}

// DayRequest is the validate payload for one day.
type DayRequest struct {
	AttendanceDayID string              `json:"attendance_day_id"`
	EmployeeID      int64               `json:"employee_id"`
	Periods         []attendance.Period `json:"periods"`
}

type CommitPeriod struct {
	ID            string                `json:"id"`
	Comment       *string               `json:"comment"`
	PeriodType    attendance.PeriodType `json:"period_type"`
	ProjectID     *int64                `json:"project_id"`
	Start         string                `json:"start"`
	End           string                `json:"end"`
	AutoGenerated bool                  `json:"auto_generated"`
}

// CommitRequest is the save payload for one day.
type CommitRequest struct {
	EmployeeID      int64          `json:"employee_id"`
	Periods         []CommitPeriod `json:"periods"`
	OriginalPeriods any            `json:"original_periods"`
	Geolocation     any            `json:"geolocation"`
	IsFromClockOut  bool           `json:"is_from_clock_out"`
}

// NewCommitRequest reshapes a validated day for the save endpoint.
func NewCommitRequest(request DayRequest) CommitRequest {
	periods := make([]CommitPeriod, 0, len(request.Periods))
	for _, period := range request.Periods {
		periods = append(periods, CommitPeriod{
			ID:         period.ID,
			Comment:    period.Comment,
			PeriodType: period.PeriodType,
			ProjectID:  period.ProjectID,
			Start:      period.ISOStart(),
			End:        period.ISOEnd(),
		})
	}
	return CommitRequest{EmployeeID: request.EmployeeID, Periods: periods}
}

func (c *HTTPClient) RefreshSession(ctx context.Context, token string) error {
	return c.doJSON(ctx, http.MethodGet, refreshPath, token, nil, nil)
}

func (c *HTTPClient) FetchTimesheet(ctx context.Context, token string, query TimesheetQuery) (attendance.Timesheet, error) {
	values := url.Values{}
	values.Set("start_date", query.StartDate)
	values.Set("end_date", query.EndDate)
	values.Set("timezone", query.Timezone)
	path := fmt.Sprintf(timesheetPath, query.EmployeeID) + "?" + values.Encode()

	var out attendance.Timesheet
	if err := c.doJSON(ctx, http.MethodGet, path, token, nil, &out); err != nil {
		return attendance.Timesheet{}, err
	}
	return out, nil
}

func (c *HTTPClient) ValidateDay(ctx context.Context, token string, request DayRequest) (json.RawMessage, error) {
	if len(request.Periods) == 0 {
		return nil, errors.New("validate payload must contain periods")
	}
	var out json.RawMessage
	if err := c.doJSON(ctx, http.MethodPost, validatePath, token, request, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) CommitDay(ctx context.Context, token string, dayID string, request CommitRequest) (json.RawMessage, error) {
	if strings.TrimSpace(dayID) == "" {
		return nil, errors.New("day id is required")
	}
	var out json.RawMessage
	path := fmt.Sprintf(commitPath, url.PathEscape(dayID))
	if err := c.doJSON(ctx, http.MethodPut, path, token, request, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, endpointPath, token string, body any, out any) error {
	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpointPath, bodyReader)
	if err != nil {
		return fmt.Errorf("create request %s %s: %w", method, endpointPath, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set(headerXSRFToken, token)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &attendance.TransportError{Method: method, Path: endpointPath, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		responseBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &attendance.RemoteRejection{
			Method:     method,
			Path:       endpointPath,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(responseBody)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode response %s %s: %w", method, endpointPath, err)
	}
	return nil
}

func normalizeHost(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	value = strings.TrimPrefix(value, "https://")
	value = strings.TrimPrefix(value, "http://")
	value = strings.TrimPrefix(value, ".")
	if slash := strings.IndexByte(value, '/'); slash >= 0 {
		value = value[:slash]
	}
	return value
}
